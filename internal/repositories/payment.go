package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"premscales/internal/models"

	"gorm.io/gorm"
)

var (
	ErrPaymentNotFound    = errors.New("payment not found")
	ErrDuplicateKey       = errors.New("duplicate idempotency key")
	ErrReferenceExhausted = errors.New("could not generate a unique reference")
)

const referenceAttempts = 3

// PaymentRepository is the transaction ledger for inbound payments. Status
// mutations go through the compare-and-set methods only.
type PaymentRepository interface {
	Create(ctx context.Context, p *models.Payment) (*models.Payment, error)
	FindByReference(ctx context.Context, reference string) (*models.Payment, error)
	FindByProviderTxnID(ctx context.Context, providerTxnID string) (*models.Payment, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*models.Payment, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Payment, error)
	ListPendingOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]models.Payment, error)
	SetProviderTxnID(ctx context.Context, reference, providerTxnID string) error
	AppendEvidence(ctx context.Context, reference string, evidence map[string]interface{}) error
	ApplyTransition(ctx context.Context, reference, newStatus string, evidence map[string]interface{}) (*models.Payment, bool, error)
	ApplyRefund(ctx context.Context, reference string, evidence map[string]interface{}) (*models.Payment, bool, error)
}

type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a payment ledger backed by PostgreSQL.
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

// GenerateReference produces a ledger reference of the form
// PMT-<epochMillis>-<random>. Uniqueness is enforced by the database; Create
// retries on the rare collision.
func GenerateReference() string {
	return fmt.Sprintf("PMT-%d-%d", time.Now().UnixMilli(), rand.Int63n(1_000_000_000))
}

// Create inserts a new payment row. Status is forced to pending and a
// reference is generated when absent. A duplicate idempotency key surfaces
// as ErrDuplicateKey so the guard can re-read the winning row.
func (r *paymentRepository) Create(ctx context.Context, p *models.Payment) (*models.Payment, error) {
	p.Status = models.PaymentStatusPending

	for attempt := 0; attempt < referenceAttempts; attempt++ {
		if p.Reference == "" {
			p.Reference = GenerateReference()
		}

		err := r.db.WithContext(ctx).Create(p).Error
		if err == nil {
			return p, nil
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Distinguish a reference collision from an idempotency key
			// conflict: the former is retried, the latter is the caller's
			// signal that the payment already exists.
			if p.IdempotencyKey != nil {
				if existing, ferr := r.FindByIdempotencyKey(ctx, *p.IdempotencyKey); ferr == nil && existing != nil {
					return existing, ErrDuplicateKey
				}
			}
			p.Reference = ""
			continue
		}
		return nil, err
	}

	return nil, ErrReferenceExhausted
}

func (r *paymentRepository) FindByReference(ctx context.Context, reference string) (*models.Payment, error) {
	var p models.Payment
	err := r.db.WithContext(ctx).Where("reference = ?", reference).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *paymentRepository) FindByProviderTxnID(ctx context.Context, providerTxnID string) (*models.Payment, error) {
	var p models.Payment
	err := r.db.WithContext(ctx).Where("provider_txn_id = ?", providerTxnID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *paymentRepository) FindByIdempotencyKey(ctx context.Context, key string) (*models.Payment, error) {
	var p models.Payment
	err := r.db.WithContext(ctx).Where("idempotency_key = ?", key).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *paymentRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.WithContext(ctx).
		Where("sender_id = ? OR receiver_id = ?", userID, userID).
		Limit(limit).Offset(offset).Order("created_at DESC").
		Find(&payments).Error
	return payments, err
}

func (r *paymentRepository) ListPendingOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", models.PaymentStatusPending, cutoff).
		Limit(limit).Order("created_at ASC").
		Find(&payments).Error
	return payments, err
}

// SetProviderTxnID records the provider-assigned reference after initiation.
// It never overwrites an existing value.
func (r *paymentRepository) SetProviderTxnID(ctx context.Context, reference, providerTxnID string) error {
	return r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("reference = ? AND (provider_txn_id = '' OR provider_txn_id IS NULL)", reference).
		Update("provider_txn_id", providerTxnID).Error
}

// ApplyTransition moves a payment from pending to newStatus with a
// compare-and-set on the current status, guaranteeing at-most-once
// application when the webhook and poller race. The returned bool reports
// whether this call won the transition. Evidence is always appended to the
// metadata bag, even for no-op calls on terminal rows.
func (r *paymentRepository) ApplyTransition(ctx context.Context, reference, newStatus string, evidence map[string]interface{}) (*models.Payment, bool, error) {
	return r.transition(ctx, reference, models.PaymentStatusPending, newStatus, evidence)
}

// ApplyRefund moves a payment from success to refunded. Refunds are the
// only legal transition out of a terminal state and go through their own
// compare-and-set.
func (r *paymentRepository) ApplyRefund(ctx context.Context, reference string, evidence map[string]interface{}) (*models.Payment, bool, error) {
	return r.transition(ctx, reference, models.PaymentStatusSuccess, models.PaymentStatusRefunded, evidence)
}

func (r *paymentRepository) transition(ctx context.Context, reference, fromStatus, toStatus string, evidence map[string]interface{}) (*models.Payment, bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("reference = ? AND status = ?", reference, fromStatus).
		Updates(map[string]interface{}{"status": toStatus, "updated_at": time.Now()})
	if res.Error != nil {
		return nil, false, res.Error
	}
	applied := res.RowsAffected == 1

	if evidence != nil {
		if _, err := r.appendEvidence(ctx, reference, evidence); err != nil {
			// The transition already committed; a failed evidence write is
			// logged by the caller, not rolled back.
			if p, ferr := r.FindByReference(ctx, reference); ferr == nil {
				return p, applied, err
			}
			return nil, false, err
		}
	}

	p, err := r.FindByReference(ctx, reference)
	if err != nil {
		return nil, false, err
	}
	return p, applied, nil
}

// AppendEvidence records a provider payload against a payment without
// touching its status.
func (r *paymentRepository) AppendEvidence(ctx context.Context, reference string, evidence map[string]interface{}) error {
	rows, err := r.appendEvidence(ctx, reference, evidence)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrPaymentNotFound
	}
	return nil
}

// evidenceAppendSQL appends one entry to the evidence array inside the
// metadata bag. The whole append runs as one UPDATE expression; concurrent
// writers never overwrite each other's entries and the rest of the bag is
// left intact.
const evidenceAppendSQL = "jsonb_set(COALESCE(metadata, '{}'::jsonb), '{evidence}', COALESCE(metadata->'evidence', '[]'::jsonb) || ?::jsonb)"

// appendEvidence adds a raw provider payload to the forensic trail in the
// metadata bag. Prior evidence is never overwritten.
func (r *paymentRepository) appendEvidence(ctx context.Context, reference string, evidence map[string]interface{}) (int64, error) {
	entry, err := evidenceEntry(evidence)
	if err != nil {
		return 0, err
	}
	res := r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("reference = ?", reference).
		Update("metadata", gorm.Expr(evidenceAppendSQL, entry))
	return res.RowsAffected, res.Error
}

// evidenceEntry renders one trail entry as a JSON document ready to be
// concatenated onto the evidence array.
func evidenceEntry(evidence map[string]interface{}) (string, error) {
	raw, err := json.Marshal(map[string]interface{}{
		"received_at": time.Now().UTC().Format(time.RFC3339Nano),
		"payload":     evidence,
	})
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
