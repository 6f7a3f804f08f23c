package payment

import (
	"context"

	"premscales/internal/models"
	"premscales/internal/providers"
)

// Service defines the payment initiation interface.
type Service interface {
	// Initiate accepts a payment request, deduplicates it, calls the
	// provider, and returns the pending ledger row.
	Initiate(ctx context.Context, req *models.PaymentRequest) (*InitiateResult, error)

	// Get returns a payment by its internal reference.
	Get(ctx context.Context, reference string) (*models.Payment, error)

	// ListForUser returns payments the user sent or received.
	ListForUser(ctx context.Context, userID string, limit, offset int) ([]models.Payment, error)
}

// Dependencies required by the payment service

type Ledger interface {
	FindByReference(ctx context.Context, reference string) (*models.Payment, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Payment, error)
	SetProviderTxnID(ctx context.Context, reference, providerTxnID string) error
	AppendEvidence(ctx context.Context, reference string, evidence map[string]interface{}) error
	ApplyTransition(ctx context.Context, reference, newStatus string, evidence map[string]interface{}) (*models.Payment, bool, error)
}

type Guard interface {
	FindOrCreate(ctx context.Context, key string, factory func() *models.Payment) (*models.Payment, bool, error)
}

type AdapterRegistry interface {
	For(channel, network string) (providers.Adapter, error)
}

type PaymentCache interface {
	CachePayment(ctx context.Context, p *models.Payment) error
	GetPayment(ctx context.Context, reference string) (*models.Payment, error)
}
