// Package disbursement pushes money out to creators and partners. A payout
// moves pending -> processing -> completed or failed; the processing hop is
// a compare-and-set so a payout is pushed to the provider at most once.
package disbursement

import (
	"context"
	"fmt"
	"log"

	"premscales/internal/models"
	"premscales/internal/providers"
	"premscales/internal/services/account"
	"premscales/internal/utils"
)

type service struct {
	payouts  Payouts
	registry AdapterRegistry
	accounts account.Directory
}

// NewService creates a new disbursement service.
func NewService(payouts Payouts, registry AdapterRegistry, accounts account.Directory) Service {
	return &service{
		payouts:  payouts,
		registry: registry,
		accounts: accounts,
	}
}

// Disburse records the payout and pushes it through the provider. Whether
// the provider accepted is decided by the adapter, since networks signal
// acceptance differently.
func (s *service) Disburse(ctx context.Context, req *Request) (*models.Transaction, error) {
	if err := s.validate(ctx, req); err != nil {
		return nil, err
	}

	phone := utils.NormalizePhone(req.PhoneNumber, req.Country)

	adapter, err := s.registry.For(req.Channel, req.Network)
	if err != nil {
		return nil, fmt.Errorf("%w: %s/%s", ErrUnsupportedNetwork, req.Channel, req.Network)
	}
	disburser, ok := adapter.(providers.Disburser)
	if !ok {
		return nil, fmt.Errorf("%w: %s cannot disburse", ErrUnsupportedNetwork, adapter.Name())
	}

	tx, err := s.payouts.Create(ctx, &models.Transaction{
		UserID:        req.UserID,
		Type:          models.TransactionTypePayout,
		Amount:        req.Amount,
		Currency:      req.Currency,
		PaymentMethod: req.Channel,
		Description:   req.Description,
		MobileMoney: models.MobileMoneyDetails{
			Provider:    adapter.Name(),
			PhoneNumber: phone,
		}.AsJSON(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record payout: %w", err)
	}

	moved, err := s.payouts.UpdateStatus(ctx, tx.Reference, models.TransactionStatusPending, models.TransactionStatusProcessing)
	if err != nil {
		return nil, err
	}
	if !moved {
		// A concurrent worker already owns this payout.
		return s.payouts.FindByReference(ctx, tx.Reference)
	}
	tx.Status = models.TransactionStatusProcessing

	result, err := disburser.Disburse(ctx, providers.Request{
		Reference:   tx.Reference,
		Amount:      tx.Amount,
		Currency:    tx.Currency,
		PhoneNumber: phone,
		Country:     req.Country,
		Description: req.Description,
	})
	if err != nil {
		// Transport errors are ambiguous; the payout stays processing for
		// operator review rather than being marked failed on no evidence.
		return tx, fmt.Errorf("%w: %v", ErrProviderCall, err)
	}

	if !result.Success {
		if _, serr := s.payouts.UpdateStatus(ctx, tx.Reference, models.TransactionStatusProcessing, models.TransactionStatusFailed); serr != nil {
			log.Printf("failed to mark payout %s failed: %v", tx.Reference, serr)
		}
		tx.Status = models.TransactionStatusFailed
		return tx, fmt.Errorf("%w: %s", ErrDisburseRejected, tx.Reference)
	}

	details := models.MobileMoneyDetails{
		Provider:      adapter.Name(),
		PhoneNumber:   phone,
		ExternalTxnID: result.ProviderRef,
		Verified:      true,
	}.AsJSON()
	if err := s.payouts.SetMobileMoneyDetails(ctx, tx.Reference, details); err != nil {
		log.Printf("failed to store payout details for %s: %v", tx.Reference, err)
	}

	if _, err := s.payouts.UpdateStatus(ctx, tx.Reference, models.TransactionStatusProcessing, models.TransactionStatusCompleted); err != nil {
		return tx, err
	}
	tx.Status = models.TransactionStatusCompleted
	tx.MobileMoney = details
	return tx, nil
}

func (s *service) Get(ctx context.Context, reference string) (*models.Transaction, error) {
	tx, err := s.payouts.FindByReference(ctx, reference)
	if err != nil {
		return nil, ErrTransactionNotFound
	}
	return tx, nil
}

func (s *service) ListForUser(ctx context.Context, userID string, limit, offset int) ([]models.Transaction, error) {
	return s.payouts.ListByUser(ctx, userID, limit, offset)
}

func (s *service) validate(ctx context.Context, req *Request) error {
	if req.UserID == "" {
		return fmt.Errorf("%w: user_id is required", ErrValidation)
	}
	if req.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if len(req.Currency) != 3 {
		return fmt.Errorf("%w: currency must be an ISO 4217 code", ErrValidation)
	}
	if req.Channel == models.ChannelMobileMoney && req.PhoneNumber == "" {
		return fmt.Errorf("%w: phone_number is required for mobile money", ErrValidation)
	}

	ok, err := s.accounts.Exists(ctx, req.UserID)
	if err != nil {
		return fmt.Errorf("account lookup failed: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: unknown user %q", ErrValidation, req.UserID)
	}
	return nil
}
