// Package idempotency deduplicates payment initiation requests. Callers may
// supply their own key; otherwise one is derived deterministically from the
// logical payment so literal resubmissions collide on the same row.
package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"premscales/internal/models"
	"premscales/internal/repositories"
)

// Ledger is the slice of the payment repository the guard needs.
type Ledger interface {
	Create(ctx context.Context, p *models.Payment) (*models.Payment, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*models.Payment, error)
}

// Guard resolves idempotency keys and finds-or-creates ledger rows
// atomically with respect to concurrent initiation attempts.
type Guard struct {
	ledger Ledger
}

func NewGuard(ledger Ledger) *Guard {
	return &Guard{ledger: ledger}
}

// ResolveKey returns the caller-supplied key or derives one from the
// logical payment. No timestamp component: the same sender, receiver,
// amount, channel and phone always resolve to the same key.
func ResolveKey(req *models.PaymentRequest, normalizedPhone string) string {
	if req.IdempotencyKey != "" {
		return req.IdempotencyKey
	}
	seed := fmt.Sprintf("%s|%s|%d|%s|%s", req.SenderID, req.ReceiverID, req.Amount, req.Channel, normalizedPhone)
	sum := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(sum[:])[:32]
}

// FindOrCreate returns the payment for key, creating it via factory when
// absent. Exactly one row is ever created per key: a losing racer gets the
// winner's row back with wasExisting true. Atomicity comes from the unique
// constraint on the key column, not from any in-process lock.
func (g *Guard) FindOrCreate(ctx context.Context, key string, factory func() *models.Payment) (*models.Payment, bool, error) {
	existing, err := g.ledger.FindByIdempotencyKey(ctx, key)
	if err == nil {
		return existing, true, nil
	}
	if !errors.Is(err, repositories.ErrPaymentNotFound) {
		return nil, false, err
	}

	p := factory()
	p.IdempotencyKey = &key
	if p.Metadata == nil {
		p.Metadata = models.JSON{}
	}
	p.Metadata["idempotencyKey"] = key

	created, err := g.ledger.Create(ctx, p)
	if errors.Is(err, repositories.ErrDuplicateKey) {
		// Lost the race; Create handed back the winning row.
		return created, true, nil
	}
	if err != nil {
		return nil, false, err
	}
	return created, false, nil
}
