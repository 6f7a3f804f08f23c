// Package payment orchestrates payment initiation: validation, idempotent
// ledger row creation, and the provider call. Confirmation is the
// reconciliation engine's job; initiation always leaves the row pending.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log"

	"premscales/internal/models"
	"premscales/internal/providers"
	"premscales/internal/services/account"
	"premscales/internal/services/idempotency"
	"premscales/internal/utils"
)

type service struct {
	ledger   Ledger
	guard    Guard
	registry AdapterRegistry
	accounts account.Directory
	cache    PaymentCache
}

// NewService creates a new payment service.
func NewService(ledger Ledger, guard Guard, registry AdapterRegistry, accounts account.Directory, cache PaymentCache) Service {
	return &service{
		ledger:   ledger,
		guard:    guard,
		registry: registry,
		accounts: accounts,
		cache:    cache,
	}
}

// Initiate runs the initiation flow. A provider failure leaves the row
// pending: without explicit confirmation of non-execution the poller, not
// the initiation path, decides the outcome.
func (s *service) Initiate(ctx context.Context, req *models.PaymentRequest) (*InitiateResult, error) {
	if err := s.checkAccounts(ctx, req); err != nil {
		return nil, err
	}

	phone := utils.NormalizePhone(req.PhoneNumber, req.Country)
	key := idempotency.ResolveKey(req, phone)

	p, wasExisting, err := s.guard.FindOrCreate(ctx, key, func() *models.Payment {
		return &models.Payment{
			SenderID:    req.SenderID,
			ReceiverID:  req.ReceiverID,
			Amount:      req.Amount,
			Currency:    req.Currency,
			Channel:     req.Channel,
			Network:     req.Network,
			PhoneNumber: phone,
			Country:     req.Country,
			Description: req.Description,
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}
	if wasExisting {
		return &InitiateResult{Payment: p, Reused: true}, nil
	}

	adapter, err := s.registry.For(req.Channel, req.Network)
	if err != nil {
		if errors.Is(err, providers.ErrUnsupportedNetwork) {
			// No adapter can ever confirm this payment; record the terminal
			// failure immediately.
			failed, _, terr := s.ledger.ApplyTransition(ctx, p.Reference, models.PaymentStatusFailed,
				map[string]interface{}{"reason": "unsupported network", "channel": req.Channel, "network": req.Network})
			if terr != nil {
				log.Printf("failed to record unsupported-network failure for %s: %v", p.Reference, terr)
			}
			if failed != nil {
				p = failed
			}
			return &InitiateResult{Payment: p}, fmt.Errorf("%w: %s/%s", ErrUnsupportedNetwork, req.Channel, req.Network)
		}
		return nil, err
	}

	result, err := adapter.Initiate(ctx, providers.Request{
		Reference:   p.Reference,
		Amount:      p.Amount,
		Currency:    p.Currency,
		PhoneNumber: p.PhoneNumber,
		Country:     p.Country,
		Description: p.Description,
	})
	if err != nil {
		// The row stays pending; a timeout or transport error is not proof
		// of non-execution, and polling resolves the ambiguity later.
		if eerr := s.ledger.AppendEvidence(ctx, p.Reference, map[string]interface{}{"initiate_error": err.Error()}); eerr != nil {
			log.Printf("failed to record initiation error for %s: %v", p.Reference, eerr)
		}
		return nil, fmt.Errorf("%w: %v", ErrProviderCall, err)
	}

	if result.ProviderTxnID != "" {
		if err := s.ledger.SetProviderTxnID(ctx, p.Reference, result.ProviderTxnID); err != nil {
			log.Printf("failed to store provider txn id for %s: %v", p.Reference, err)
		}
		p.ProviderTxnID = result.ProviderTxnID
	}
	if err := s.ledger.AppendEvidence(ctx, p.Reference, result.Raw); err != nil {
		log.Printf("failed to record initiation evidence for %s: %v", p.Reference, err)
	}

	if s.cache != nil {
		if err := s.cache.CachePayment(ctx, p); err != nil {
			log.Printf("failed to cache payment %s: %v", p.Reference, err)
		}
	}

	return &InitiateResult{Payment: p}, nil
}

func (s *service) Get(ctx context.Context, reference string) (*models.Payment, error) {
	if s.cache != nil {
		if p, err := s.cache.GetPayment(ctx, reference); err == nil && p != nil {
			return p, nil
		}
	}
	p, err := s.ledger.FindByReference(ctx, reference)
	if err != nil {
		return nil, ErrPaymentNotFound
	}
	return p, nil
}

func (s *service) ListForUser(ctx context.Context, userID string, limit, offset int) ([]models.Payment, error) {
	return s.ledger.ListByUser(ctx, userID, limit, offset)
}

func (s *service) checkAccounts(ctx context.Context, req *models.PaymentRequest) error {
	for field, id := range map[string]string{"sender": req.SenderID, "receiver": req.ReceiverID} {
		ok, err := s.accounts.Exists(ctx, id)
		if err != nil {
			return fmt.Errorf("account lookup failed: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: %s %q", ErrAccountNotFound, field, id)
		}
	}
	return nil
}
