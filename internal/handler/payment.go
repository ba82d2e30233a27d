package handler

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/rmstudio/salon-booking/internal/booking"
	"github.com/rmstudio/salon-booking/internal/model"
	"github.com/rmstudio/salon-booking/internal/payment"
	"github.com/rmstudio/salon-booking/internal/repository"
)

// PaymentHandler owns the checkout and webhook endpoints.  Provider is
// nil when no access token is configured; the endpoints then answer
// 503 and the rest of the booking flow keeps working.
type PaymentHandler struct {
	Provider payment.Client
	Booking  *booking.Service
	Appts    *repository.AppointmentRepo
	SiteURL  string
}

func NewPaymentHandler(p payment.Client, b *booking.Service, a *repository.AppointmentRepo, siteURL string) *PaymentHandler {
	return &PaymentHandler{Provider: p, Booking: b, Appts: a, SiteURL: strings.TrimRight(siteURL, "/")}
}

type checkoutResp struct {
	PreferenceID string `json:"preference_id"`
	CheckoutURL  string `json:"checkout_url"`
}

// Checkout creates a provider checkout for one appointment.  The
// caller must hold the cancellation token.  The preference carries the
// appointment id as its external reference; the id never changes, so a
// client who opens checkout several times and pays through any of the
// preferences still produces notifications that resolve.
func (h *PaymentHandler) Checkout(c echo.Context) error {
	if h.Provider == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "payments disabled"})
	}
	id, token, err := idToken(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	appt, err := h.Appts.GetByToken(ctx, id, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if appt.Status.Terminal() {
		return c.JSON(http.StatusConflict, echo.Map{"error": "appointment is closed"})
	}
	if appt.PaymentStatus == model.PaymentApproved {
		return c.JSON(http.StatusConflict, echo.Map{"error": "payment already approved"})
	}

	ref := strconv.FormatUint(appt.ID, 10)
	pref, err := h.Provider.CreatePreference(ctx, payment.PreferenceRequest{
		Title:             appt.ServiceName,
		AmountCents:       appt.TotalCents,
		ExternalReference: ref,
		SuccessURL:        h.SiteURL + "/pagamento/sucesso",
		FailureURL:        h.SiteURL + "/pagamento/falha",
		PendingURL:        h.SiteURL + "/pagamento/pendente",
		NotificationURL:   h.SiteURL + "/webhooks/mercadopago",
	})
	if err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment provider unavailable"})
	}
	return c.JSON(http.StatusCreated, checkoutResp{PreferenceID: pref.ID, CheckoutURL: pref.CheckoutURL})
}

// Webhook receives Mercado Pago payment notifications.  Only the
// "payment" topic is handled; the payment is always fetched back from
// the provider rather than trusted from the request.  An unparsable
// payload answers 400, lookup and processing failures answer 5xx so
// the provider redelivers, everything else answers 200 to stop the
// retries.
func (h *PaymentHandler) Webhook(c echo.Context) error {
	if h.Provider == nil {
		return c.NoContent(http.StatusOK)
	}
	topic := c.QueryParam("type")
	if topic == "" {
		topic = c.QueryParam("topic")
	}
	if topic != "payment" {
		return c.NoContent(http.StatusOK)
	}

	paymentID := c.QueryParam("data.id")
	if paymentID == "" {
		paymentID = c.QueryParam("id")
	}
	if paymentID == "" {
		var body struct {
			Data struct {
				ID any `json:"id"`
			} `json:"data"`
		}
		if err := c.Bind(&body); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
		}
		if body.Data.ID != nil {
			paymentID = fmt.Sprint(body.Data.ID)
		}
	}
	if paymentID == "" {
		return c.NoContent(http.StatusOK)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	info, err := h.Provider.GetPayment(ctx, paymentID)
	if err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment lookup failed"})
	}
	if err := h.Booking.ReconcilePayment(ctx, info.ExternalReference, info.Status, info.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reconcile failed"})
	}
	return c.NoContent(http.StatusOK)
}

// Return pages for the provider redirect.  The redirect carries a
// payment id, so the same reconciliation as the webhook runs here best
// effort; the status query parameter itself is never trusted.  The
// webhook remains the source of truth either way.
func (h *PaymentHandler) ReturnSuccess(c echo.Context) error {
	h.reconcileReturn(c)
	return c.JSON(http.StatusOK, echo.Map{"status": "sucesso", "message": "pagamento aprovado, aguarde o email de confirmação"})
}

func (h *PaymentHandler) ReturnFailure(c echo.Context) error {
	h.reconcileReturn(c)
	return c.JSON(http.StatusOK, echo.Map{"status": "falha", "message": "pagamento não aprovado, tente novamente"})
}

func (h *PaymentHandler) ReturnPending(c echo.Context) error {
	h.reconcileReturn(c)
	return c.JSON(http.StatusOK, echo.Map{"status": "pendente", "message": "pagamento em processamento"})
}

func (h *PaymentHandler) reconcileReturn(c echo.Context) {
	if h.Provider == nil {
		return
	}
	paymentID := c.QueryParam("payment_id")
	if paymentID == "" {
		paymentID = c.QueryParam("collection_id")
	}
	if paymentID == "" || paymentID == "null" {
		return
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	info, err := h.Provider.GetPayment(ctx, paymentID)
	if err != nil {
		log.Printf("payment: return lookup for %s failed: %v", paymentID, err)
		return
	}
	if err := h.Booking.ReconcilePayment(ctx, info.ExternalReference, info.Status, info.ID); err != nil {
		log.Printf("payment: return reconcile for %s failed: %v", paymentID, err)
	}
}
