package repositories

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"premscales/internal/models"

	"gorm.io/gorm"
)

var ErrTransactionNotFound = errors.New("transaction not found")

// TransactionRepository is the ledger for outbound flows: payouts,
// royalties, fees, and holdings.
type TransactionRepository interface {
	Create(ctx context.Context, tx *models.Transaction) (*models.Transaction, error)
	FindByReference(ctx context.Context, reference string) (*models.Transaction, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Transaction, error)
	UpdateStatus(ctx context.Context, reference, fromStatus, toStatus string) (bool, error)
	SetMobileMoneyDetails(ctx context.Context, reference string, details models.JSON) error
}

type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a payout ledger backed by PostgreSQL.
func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

// GenerateTransactionReference produces a payout ledger reference.
func GenerateTransactionReference() string {
	return fmt.Sprintf("TXN-%d-%d", time.Now().UnixMilli(), rand.Int63n(1_000_000_000))
}

func (r *transactionRepository) Create(ctx context.Context, tx *models.Transaction) (*models.Transaction, error) {
	if tx.Status == "" {
		tx.Status = models.TransactionStatusPending
	}

	for attempt := 0; attempt < referenceAttempts; attempt++ {
		if tx.Reference == "" {
			tx.Reference = GenerateTransactionReference()
		}
		err := r.db.WithContext(ctx).Create(tx).Error
		if err == nil {
			return tx, nil
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			tx.Reference = ""
			continue
		}
		return nil, err
	}

	return nil, ErrReferenceExhausted
}

func (r *transactionRepository) FindByReference(ctx context.Context, reference string) (*models.Transaction, error) {
	var tx models.Transaction
	err := r.db.WithContext(ctx).Where("reference = ?", reference).First(&tx).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r *transactionRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Limit(limit).Offset(offset).Order("created_at DESC").
		Find(&txs).Error
	return txs, err
}

// UpdateStatus is a compare-and-set status move, mirroring the payment
// ledger's transition semantics.
func (r *transactionRepository) UpdateStatus(ctx context.Context, reference, fromStatus, toStatus string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("reference = ? AND status = ?", reference, fromStatus).
		Updates(map[string]interface{}{"status": toStatus, "updated_at": time.Now()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *transactionRepository) SetMobileMoneyDetails(ctx context.Context, reference string, details models.JSON) error {
	return r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("reference = ?", reference).
		Update("mobile_money", details).Error
}
