// Package reconciliation advances pending payments to terminal states. Two
// independent channels feed it: inbound webhooks and an externally
// scheduled polling path. Correctness under races rests on the ledger's
// compare-and-set, not on any lock held here.
package reconciliation

import (
	"context"
	"fmt"
	"log"
	"time"

	"premscales/internal/models"
	"premscales/internal/providers"
	"premscales/internal/services/notification"
)

type service struct {
	ledger   Ledger
	registry AdapterRegistry
	sink     notification.Sink
	cache    PaymentCache
	cfg      Config
}

// NewService creates the reconciliation engine.
func NewService(ledger Ledger, registry AdapterRegistry, sink notification.Sink, cache PaymentCache, cfg Config) Service {
	if cfg.SweepBatchSize == 0 {
		cfg.SweepBatchSize = DefaultConfig().SweepBatchSize
	}
	if cfg.SweepMinAge == 0 {
		cfg.SweepMinAge = DefaultConfig().SweepMinAge
	}
	return &service{
		ledger:   ledger,
		registry: registry,
		sink:     sink,
		cache:    cache,
		cfg:      cfg,
	}
}

// HandleWebhook runs the inbound confirmation path. Verification fails
// closed: an event whose sender cannot be established or whose signature
// does not check out is dropped without touching the ledger.
func (s *service) HandleWebhook(ctx context.Context, body []byte, headers map[string]string) (*models.Payment, error) {
	adapter, err := s.registry.Detect(headers)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVerification, err)
	}
	if err := adapter.VerifyWebhook(body, headers); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVerification, err)
	}

	evt, err := parseEvent(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoReference, err)
	}
	if len(evt.references) == 0 {
		return nil, ErrNoReference
	}

	p, err := s.match(ctx, evt.references)
	if err != nil {
		return nil, err
	}

	outcome := adapter.NormalizeStatus(evt.status)
	return s.applyOutcome(ctx, p, outcome, evt.payload)
}

// Poll runs the active confirmation path for a single payment. It is an
// idempotent read with an at-most-once write: polling a terminal or still
// pending payment changes nothing.
func (s *service) Poll(ctx context.Context, reference string) (*models.Payment, error) {
	p, err := s.ledger.FindByReference(ctx, reference)
	if err != nil {
		return nil, ErrNotFound
	}
	if p.IsTerminal() {
		return p, nil
	}
	if p.ProviderTxnID == "" {
		// Initiation never reached the provider; nothing to ask about yet.
		return p, nil
	}

	adapter, err := s.registry.For(p.Channel, p.Network)
	if err != nil {
		return nil, err
	}

	status, err := adapter.PollStatus(ctx, p.ProviderTxnID)
	if err != nil {
		// The caller retries at its own cadence; the engine does not.
		return nil, fmt.Errorf("%w: %v", ErrProviderCall, err)
	}

	return s.applyOutcome(ctx, p, status, map[string]interface{}{"poll_status": status})
}

// Refund is the explicit separate refund operation: the only legal path
// out of success.
func (s *service) Refund(ctx context.Context, reference string) (*models.Payment, error) {
	p, err := s.ledger.FindByReference(ctx, reference)
	if err != nil {
		return nil, ErrNotFound
	}
	if p.Status != models.PaymentStatusSuccess {
		return nil, fmt.Errorf("%w: status is %s", ErrNotRefundable, p.Status)
	}

	adapter, err := s.registry.For(p.Channel, p.Network)
	if err != nil {
		return nil, err
	}
	if refunder, ok := adapter.(providers.Refunder); ok {
		if err := refunder.Refund(ctx, p.ProviderTxnID); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrProviderCall, err)
		}
	}

	updated, applied, err := s.ledger.ApplyRefund(ctx, reference, map[string]interface{}{"reason": "refund requested"})
	if err != nil {
		return nil, err
	}
	if applied {
		s.notify(ctx, updated, models.PaymentStatusSuccess)
	}
	return updated, nil
}

// Cancel explicitly cancels a payment. Cancelling an already terminal
// payment is a logged no-op.
func (s *service) Cancel(ctx context.Context, reference, reason string) (*models.Payment, error) {
	p, err := s.ledger.FindByReference(ctx, reference)
	if err != nil {
		return nil, ErrNotFound
	}
	return s.applyOutcome(ctx, p, models.PaymentStatusCancelled, map[string]interface{}{"reason": reason})
}

// SweepPending is the scheduled fallback for providers whose webhook
// delivery is unreliable. Provider errors are logged and skipped; the next
// sweep retries naturally.
func (s *service) SweepPending(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-s.cfg.SweepMinAge)
	pending, err := s.ledger.ListPendingOlderThan(ctx, cutoff, s.cfg.SweepBatchSize)
	if err != nil {
		return 0, err
	}

	processed := 0
	for i := range pending {
		p := &pending[i]

		if s.cfg.PendingTTL > 0 && time.Since(p.CreatedAt) > s.cfg.PendingTTL {
			if _, err := s.Cancel(ctx, p.Reference, "pending TTL exceeded"); err != nil {
				log.Printf("sweep: cancel %s: %v", p.Reference, err)
				continue
			}
			processed++
			continue
		}

		if _, err := s.Poll(ctx, p.Reference); err != nil {
			log.Printf("sweep: poll %s: %v", p.Reference, err)
			continue
		}
		processed++
	}

	return processed, nil
}

// match resolves an event's reference candidates against the ledger,
// trying the internal reference first and the provider's transaction id
// second. An unmatched event is never used to create a payment.
func (s *service) match(ctx context.Context, references []string) (*models.Payment, error) {
	for _, ref := range references {
		if p, err := s.ledger.FindByReference(ctx, ref); err == nil {
			return p, nil
		}
	}
	for _, ref := range references {
		if p, err := s.ledger.FindByProviderTxnID(ctx, ref); err == nil {
			return p, nil
		}
	}
	return nil, ErrNotFound
}

// applyOutcome is the single funnel into the ledger's compare-and-set.
// Terminal rows and pending outcomes only gain evidence; a won transition
// additionally emits the status-changed event.
func (s *service) applyOutcome(ctx context.Context, p *models.Payment, outcome string, evidence map[string]interface{}) (*models.Payment, error) {
	if p.IsTerminal() {
		log.Printf("payment %s already %s; event recorded as no-op", p.Reference, p.Status)
		if err := s.ledger.AppendEvidence(ctx, p.Reference, evidence); err != nil {
			log.Printf("failed to append evidence for %s: %v", p.Reference, err)
		}
		return p, nil
	}

	if outcome == providers.StatusPending {
		if err := s.ledger.AppendEvidence(ctx, p.Reference, evidence); err != nil {
			log.Printf("failed to append evidence for %s: %v", p.Reference, err)
		}
		return p, nil
	}

	updated, applied, err := s.ledger.ApplyTransition(ctx, p.Reference, outcome, evidence)
	if err != nil {
		return nil, err
	}
	if applied {
		s.notify(ctx, updated, models.PaymentStatusPending)
	}
	return updated, nil
}

// notify emits the status-changed event and invalidates the read cache.
// Both are fire-and-forget.
func (s *service) notify(ctx context.Context, p *models.Payment, previous string) {
	if s.sink != nil {
		if err := s.sink.PaymentStatusChanged(ctx, p, previous); err != nil {
			log.Printf("failed to deliver status change for %s: %v", p.Reference, err)
		}
	}
	if s.cache != nil {
		if err := s.cache.InvalidatePayment(ctx, p.Reference); err != nil {
			log.Printf("failed to invalidate cache for %s: %v", p.Reference, err)
		}
	}
}
