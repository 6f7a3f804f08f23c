package providers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/paymentintent"
	"github.com/stripe/stripe-go/v72/refund"
	"github.com/stripe/stripe-go/v72/webhook"
)

// CardConfig configures the card processor adapter.
type CardConfig struct {
	SecretKey     string
	WebhookSecret string
}

// CardAdapter processes card payments through Stripe PaymentIntents.
type CardAdapter struct {
	cfg   CardConfig
	vocab StatusTable
}

func NewCardAdapter(cfg CardConfig) *CardAdapter {
	stripe.Key = cfg.SecretKey
	return &CardAdapter{
		cfg: cfg,
		vocab: StatusTable{
			Exact: map[string]string{
				"succeeded":               StatusSuccess,
				"canceled":                StatusFailed,
				"processing":              StatusPending,
				"requires_payment_method": StatusPending,
				"requires_confirmation":   StatusPending,
				"requires_action":         StatusPending,
				"requires_capture":        StatusPending,
			},
		},
	}
}

func (a *CardAdapter) Name() string { return "card" }

// Initiate creates a PaymentIntent for the requested amount. Stripe already
// works in minor units, so the amount passes through unchanged.
func (a *CardAdapter) Initiate(ctx context.Context, req Request) (*InitiateResult, error) {
	params := &stripe.PaymentIntentParams{
		Amount:      stripe.Int64(req.Amount),
		Currency:    stripe.String(req.Currency),
		Description: stripe.String(req.Description),
	}
	params.Context = ctx
	params.AddMetadata("reference", req.Reference)

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("%w: stripe payment intent: %v", ErrProviderCall, err)
	}

	return &InitiateResult{
		ProviderTxnID: pi.ID,
		Status:        a.vocab.Normalize(string(pi.Status)),
		Raw:           paymentIntentRaw(pi),
	}, nil
}

// PollStatus fetches the PaymentIntent and normalizes its status.
func (a *CardAdapter) PollStatus(ctx context.Context, providerTxnID string) (string, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := paymentintent.Get(providerTxnID, params)
	if err != nil {
		return "", fmt.Errorf("%w: stripe payment intent fetch: %v", ErrProviderCall, err)
	}
	return a.vocab.Normalize(string(pi.Status)), nil
}

// VerifyWebhook validates the Stripe-Signature header against the endpoint
// secret. An unverifiable event is rejected.
func (a *CardAdapter) VerifyWebhook(body []byte, headers map[string]string) error {
	sig := headerValue(headers, "stripe-signature")
	if sig == "" {
		return ErrBadSignature
	}
	if _, err := webhook.ConstructEvent(body, sig, a.cfg.WebhookSecret); err != nil {
		return fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	return nil
}

// Refund reverses a succeeded PaymentIntent in full.
func (a *CardAdapter) Refund(ctx context.Context, providerTxnID string) error {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(providerTxnID),
	}
	params.Context = ctx

	if _, err := refund.New(params); err != nil {
		return fmt.Errorf("%w: stripe refund: %v", ErrProviderCall, err)
	}
	return nil
}

// paymentIntentRaw flattens the PaymentIntent into a generic map for the
// evidence trail.
func paymentIntentRaw(pi *stripe.PaymentIntent) map[string]interface{} {
	data, err := json.Marshal(pi)
	if err != nil {
		return map[string]interface{}{"id": pi.ID, "status": string(pi.Status)}
	}
	return decodeRaw(data)
}

// NormalizeStatus maps PaymentIntent statuses onto the internal outcome.
func (a *CardAdapter) NormalizeStatus(status string) string {
	return a.vocab.Normalize(status)
}
