package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/rmstudio/salon-booking/internal/payment"
)

// stubProvider answers canned payment lookups so the webhook's
// acknowledgement rules can be exercised without the real provider.
type stubProvider struct {
	info *payment.Info
	err  error
}

func (s *stubProvider) CreatePreference(ctx context.Context, req payment.PreferenceRequest) (*payment.Preference, error) {
	return &payment.Preference{ID: "pref-1", CheckoutURL: "https://mp.example/checkout"}, nil
}

func (s *stubProvider) GetPayment(ctx context.Context, id string) (*payment.Info, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.info, nil
}

func postWebhook(h *PaymentHandler, target, body string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	_ = h.Webhook(e.NewContext(req, rec))
	return rec
}

func TestWebhook(t *testing.T) {
	t.Run("Given a payment topic with an unparsable body Then it answers 400", func(t *testing.T) {
		h := NewPaymentHandler(&stubProvider{}, nil, nil, "https://salon.example")

		rec := postWebhook(h, "/webhooks/mercadopago?topic=payment", `{not json`)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("Given an unrelated topic Then it is acknowledged", func(t *testing.T) {
		h := NewPaymentHandler(&stubProvider{}, nil, nil, "https://salon.example")

		rec := postWebhook(h, "/webhooks/mercadopago?topic=merchant_order", `{not json`)

		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("Given a valid body without a payment id Then it is acknowledged", func(t *testing.T) {
		h := NewPaymentHandler(&stubProvider{}, nil, nil, "https://salon.example")

		rec := postWebhook(h, "/webhooks/mercadopago?topic=payment", `{"data":{}}`)

		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("Given payments are disabled Then every notification is acknowledged", func(t *testing.T) {
		h := NewPaymentHandler(nil, nil, nil, "https://salon.example")

		rec := postWebhook(h, "/webhooks/mercadopago?topic=payment", `{not json`)

		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("Given the provider lookup fails Then it answers 502 so the provider redelivers", func(t *testing.T) {
		h := NewPaymentHandler(&stubProvider{err: errors.New("provider down")}, nil, nil, "https://salon.example")

		rec := postWebhook(h, "/webhooks/mercadopago?topic=payment&data.id=42", "")

		if rec.Code != http.StatusBadGateway {
			t.Errorf("expected 502, got %d", rec.Code)
		}
	})
}
