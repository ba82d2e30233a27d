// Package payment wraps the Mercado Pago SDK behind a small client
// interface so handlers and tests do not depend on the provider types.
package payment

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mercadopago/sdk-go/pkg/config"
	mppayment "github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/mercadopago/sdk-go/pkg/preference"
)

// PreferenceRequest describes one checkout to create.
//
// Fields:
//  Title             – line item shown at checkout.
//  AmountCents       – amount to charge.
//  ExternalReference – our reference carried through every provider
//                      notification; used to find the appointment back.
//  SuccessURL,
//  FailureURL,
//  PendingURL        – return URLs after checkout.
//  NotificationURL   – webhook target for payment notifications.
type PreferenceRequest struct {
	Title             string
	AmountCents       int64
	ExternalReference string
	SuccessURL        string
	FailureURL        string
	PendingURL        string
	NotificationURL   string
}

// Preference is the created checkout.
type Preference struct {
	ID          string // provider preference id
	CheckoutURL string // where to send the client
	SandboxURL  string // sandbox variant of the checkout URL
}

// Info is the state of one payment as reported by the provider.
type Info struct {
	ID                string // provider payment id
	Status            string // provider status string, e.g. "approved"
	ExternalReference string // our reference from the preference
}

// Client is the payment-provider port.  The real implementation talks
// to Mercado Pago; tests substitute a stub.
type Client interface {
	CreatePreference(ctx context.Context, req PreferenceRequest) (*Preference, error)
	GetPayment(ctx context.Context, id string) (*Info, error)
}

// MercadoPago implements Client over the official SDK.
type MercadoPago struct {
	preferences preference.Client
	payments    mppayment.Client
}

// NewMercadoPago builds the client from an access token.
func NewMercadoPago(accessToken string) (*MercadoPago, error) {
	cfg, err := config.New(accessToken)
	if err != nil {
		return nil, fmt.Errorf("mercadopago config: %w", err)
	}
	return &MercadoPago{
		preferences: preference.NewClient(cfg),
		payments:    mppayment.NewClient(cfg),
	}, nil
}

// CreatePreference creates a one-item checkout preference.
func (m *MercadoPago) CreatePreference(ctx context.Context, req PreferenceRequest) (*Preference, error) {
	res, err := m.preferences.Create(ctx, preference.Request{
		Items: []preference.ItemRequest{{
			Title:     req.Title,
			Quantity:  1,
			UnitPrice: float64(req.AmountCents) / 100,
		}},
		ExternalReference: req.ExternalReference,
		NotificationURL:   req.NotificationURL,
		BackURLs: &preference.BackURLsRequest{
			Success: req.SuccessURL,
			Failure: req.FailureURL,
			Pending: req.PendingURL,
		},
		AutoReturn: "approved",
	})
	if err != nil {
		return nil, fmt.Errorf("create preference: %w", err)
	}
	return &Preference{
		ID:          res.ID,
		CheckoutURL: res.InitPoint,
		SandboxURL:  res.SandboxInitPoint,
	}, nil
}

// GetPayment fetches one payment by its provider id.  Webhooks only
// carry the id, so the status and external reference are always read
// back from the provider rather than trusted from the request body.
func (m *MercadoPago) GetPayment(ctx context.Context, id string) (*Info, error) {
	numeric, err := strconv.Atoi(id)
	if err != nil {
		return nil, fmt.Errorf("payment id %q is not numeric: %w", id, err)
	}
	res, err := m.payments.Get(ctx, numeric)
	if err != nil {
		return nil, fmt.Errorf("get payment %s: %w", id, err)
	}
	return &Info{
		ID:                strconv.Itoa(res.ID),
		Status:            res.Status,
		ExternalReference: res.ExternalReference,
	}, nil
}
