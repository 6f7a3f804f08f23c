package reconciliation

import (
	"context"
	"time"

	"premscales/internal/models"
	"premscales/internal/providers"
)

// Service is the reconciliation engine: the only component that advances
// payments to terminal states.
type Service interface {
	// HandleWebhook validates an inbound provider event and applies the
	// resulting transition. Repeat delivery of the same event is a no-op.
	HandleWebhook(ctx context.Context, body []byte, headers map[string]string) (*models.Payment, error)

	// Poll actively checks a pending payment's status with its provider.
	// Safe to call arbitrarily often on the same reference.
	Poll(ctx context.Context, reference string) (*models.Payment, error)

	// Refund moves a successful payment to refunded, reversing it with the
	// provider where the adapter supports that.
	Refund(ctx context.Context, reference string) (*models.Payment, error)

	// Cancel explicitly cancels a pending payment.
	Cancel(ctx context.Context, reference, reason string) (*models.Payment, error)

	// SweepPending polls stale pending payments and, when a pending TTL is
	// configured, cancels the ones past it. Invoked on an external
	// schedule; the engine never self-schedules.
	SweepPending(ctx context.Context) (int, error)
}

// Dependencies

type Ledger interface {
	FindByReference(ctx context.Context, reference string) (*models.Payment, error)
	FindByProviderTxnID(ctx context.Context, providerTxnID string) (*models.Payment, error)
	ListPendingOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]models.Payment, error)
	AppendEvidence(ctx context.Context, reference string, evidence map[string]interface{}) error
	ApplyTransition(ctx context.Context, reference, newStatus string, evidence map[string]interface{}) (*models.Payment, bool, error)
	ApplyRefund(ctx context.Context, reference string, evidence map[string]interface{}) (*models.Payment, bool, error)
}

type AdapterRegistry interface {
	For(channel, network string) (providers.Adapter, error)
	Detect(headers map[string]string) (providers.Adapter, error)
}

type PaymentCache interface {
	InvalidatePayment(ctx context.Context, reference string) error
}
