package payment

import (
	"premscales/internal/models"
)

// InitiateResult is what the initiation endpoint returns: the ledger row
// plus whether an earlier request with the same idempotency key already
// created it.
type InitiateResult struct {
	Payment *models.Payment `json:"payment"`
	Reused  bool            `json:"reused"`
}
