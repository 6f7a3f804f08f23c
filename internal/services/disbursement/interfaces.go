package disbursement

import (
	"context"

	"premscales/internal/models"
	"premscales/internal/providers"
)

// Service sends money out: creator payouts, partner settlements.
type Service interface {
	// Disburse records a payout transaction and pushes it through the
	// provider. The returned transaction is terminal on success or
	// provider rejection, and left processing only on an ambiguous
	// provider error.
	Disburse(ctx context.Context, req *Request) (*models.Transaction, error)

	// Get returns a payout transaction by its ledger reference.
	Get(ctx context.Context, reference string) (*models.Transaction, error)

	// ListForUser returns a user's payout history, newest first.
	ListForUser(ctx context.Context, userID string, limit, offset int) ([]models.Transaction, error)
}

// Dependencies

type Payouts interface {
	Create(ctx context.Context, tx *models.Transaction) (*models.Transaction, error)
	FindByReference(ctx context.Context, reference string) (*models.Transaction, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Transaction, error)
	UpdateStatus(ctx context.Context, reference, fromStatus, toStatus string) (bool, error)
	SetMobileMoneyDetails(ctx context.Context, reference string, details models.JSON) error
}

type AdapterRegistry interface {
	For(channel, network string) (providers.Adapter, error)
}
