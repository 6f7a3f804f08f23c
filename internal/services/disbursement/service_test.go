package disbursement

import (
	"context"
	"errors"
	"testing"

	"premscales/internal/models"
	"premscales/internal/providers"
	"premscales/internal/services/account"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPayouts struct {
	mock.Mock
}

func (m *MockPayouts) Create(ctx context.Context, tx *models.Transaction) (*models.Transaction, error) {
	args := m.Called(ctx, tx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	tx.Reference = "TXN-100-200"
	tx.Status = models.TransactionStatusPending
	return tx, args.Error(1)
}

func (m *MockPayouts) FindByReference(ctx context.Context, reference string) (*models.Transaction, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *MockPayouts) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Transaction, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]models.Transaction), args.Error(1)
}

func (m *MockPayouts) UpdateStatus(ctx context.Context, reference, fromStatus, toStatus string) (bool, error) {
	args := m.Called(ctx, reference, fromStatus, toStatus)
	return args.Bool(0), args.Error(1)
}

func (m *MockPayouts) SetMobileMoneyDetails(ctx context.Context, reference string, details models.JSON) error {
	args := m.Called(ctx, reference, details)
	return args.Error(0)
}

type MockRegistry struct {
	mock.Mock
}

func (m *MockRegistry) For(channel, network string) (providers.Adapter, error) {
	args := m.Called(channel, network)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(providers.Adapter), args.Error(1)
}

// MockDisburser implements both Adapter and Disburser.
type MockDisburser struct {
	mock.Mock
}

func (m *MockDisburser) Name() string { return "mtn" }

func (m *MockDisburser) Initiate(ctx context.Context, req providers.Request) (*providers.InitiateResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*providers.InitiateResult), args.Error(1)
}

func (m *MockDisburser) VerifyWebhook(body []byte, headers map[string]string) error {
	args := m.Called(body, headers)
	return args.Error(0)
}

func (m *MockDisburser) PollStatus(ctx context.Context, providerTxnID string) (string, error) {
	args := m.Called(ctx, providerTxnID)
	return args.String(0), args.Error(1)
}

func (m *MockDisburser) NormalizeStatus(status string) string {
	return providers.NormalizeStatus(status)
}

func (m *MockDisburser) Disburse(ctx context.Context, req providers.Request) (*providers.DisburseResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*providers.DisburseResult), args.Error(1)
}

// pollOnlyAdapter cannot disburse.
type pollOnlyAdapter struct{}

func (pollOnlyAdapter) Name() string { return "card" }
func (pollOnlyAdapter) Initiate(context.Context, providers.Request) (*providers.InitiateResult, error) {
	return nil, errors.New("not implemented")
}
func (pollOnlyAdapter) VerifyWebhook([]byte, map[string]string) error { return nil }
func (pollOnlyAdapter) PollStatus(context.Context, string) (string, error) {
	return providers.StatusPending, nil
}
func (pollOnlyAdapter) NormalizeStatus(status string) string {
	return providers.NormalizeStatus(status)
}

func validPayout() *Request {
	return &Request{
		UserID:      "creator-1",
		Amount:      250000,
		Currency:    "ZMW",
		Channel:     models.ChannelMobileMoney,
		Network:     models.NetworkMTN,
		PhoneNumber: "0961234567",
		Country:     "ZM",
		Description: "June royalties",
	}
}

func TestService_Disburse(t *testing.T) {
	ctx := context.Background()

	t.Run("completes a payout when the provider accepts", func(t *testing.T) {
		payouts := new(MockPayouts)
		registry := new(MockRegistry)
		adapter := new(MockDisburser)

		registry.On("For", models.ChannelMobileMoney, models.NetworkMTN).Return(adapter, nil)
		payouts.On("Create", ctx, mock.Anything).Return(&models.Transaction{}, nil)
		payouts.On("UpdateStatus", ctx, "TXN-100-200", models.TransactionStatusPending, models.TransactionStatusProcessing).
			Return(true, nil)
		adapter.On("Disburse", ctx, mock.MatchedBy(func(r providers.Request) bool {
			return r.Reference == "TXN-100-200" && r.PhoneNumber == "260961234567" && r.Amount == 250000
		})).Return(&providers.DisburseResult{Success: true, ProviderRef: "momo-9"}, nil)
		payouts.On("SetMobileMoneyDetails", ctx, "TXN-100-200", mock.MatchedBy(func(d models.JSON) bool {
			return d["external_txn_id"] == "momo-9" && d["verified"] == true
		})).Return(nil)
		payouts.On("UpdateStatus", ctx, "TXN-100-200", models.TransactionStatusProcessing, models.TransactionStatusCompleted).
			Return(true, nil)

		svc := NewService(payouts, registry, account.NewOpenDirectory())
		tx, err := svc.Disburse(ctx, validPayout())
		require.NoError(t, err)
		assert.Equal(t, models.TransactionStatusCompleted, tx.Status)
		assert.Equal(t, models.TransactionTypePayout, tx.Type)
	})

	t.Run("marks the payout failed when the provider rejects", func(t *testing.T) {
		payouts := new(MockPayouts)
		registry := new(MockRegistry)
		adapter := new(MockDisburser)

		registry.On("For", models.ChannelMobileMoney, models.NetworkMTN).Return(adapter, nil)
		payouts.On("Create", ctx, mock.Anything).Return(&models.Transaction{}, nil)
		payouts.On("UpdateStatus", ctx, "TXN-100-200", models.TransactionStatusPending, models.TransactionStatusProcessing).
			Return(true, nil)
		adapter.On("Disburse", ctx, mock.Anything).
			Return(&providers.DisburseResult{Success: false, Raw: map[string]interface{}{"status": map[string]interface{}{"code": "403"}}}, nil)
		payouts.On("UpdateStatus", ctx, "TXN-100-200", models.TransactionStatusProcessing, models.TransactionStatusFailed).
			Return(true, nil)

		svc := NewService(payouts, registry, account.NewOpenDirectory())
		tx, err := svc.Disburse(ctx, validPayout())
		assert.ErrorIs(t, err, ErrDisburseRejected)
		require.NotNil(t, tx)
		assert.Equal(t, models.TransactionStatusFailed, tx.Status)
	})

	t.Run("transport error leaves the payout processing", func(t *testing.T) {
		payouts := new(MockPayouts)
		registry := new(MockRegistry)
		adapter := new(MockDisburser)

		registry.On("For", models.ChannelMobileMoney, models.NetworkMTN).Return(adapter, nil)
		payouts.On("Create", ctx, mock.Anything).Return(&models.Transaction{}, nil)
		payouts.On("UpdateStatus", ctx, "TXN-100-200", models.TransactionStatusPending, models.TransactionStatusProcessing).
			Return(true, nil)
		adapter.On("Disburse", ctx, mock.Anything).Return(nil, errors.New("gateway timeout"))

		svc := NewService(payouts, registry, account.NewOpenDirectory())
		tx, err := svc.Disburse(ctx, validPayout())
		assert.ErrorIs(t, err, ErrProviderCall)
		require.NotNil(t, tx)
		assert.Equal(t, models.TransactionStatusProcessing, tx.Status)
		payouts.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything,
			models.TransactionStatusProcessing, models.TransactionStatusFailed)
	})

	t.Run("lost processing race returns the current row without a provider call", func(t *testing.T) {
		payouts := new(MockPayouts)
		registry := new(MockRegistry)
		adapter := new(MockDisburser)

		current := &models.Transaction{Reference: "TXN-100-200", Status: models.TransactionStatusProcessing}
		registry.On("For", models.ChannelMobileMoney, models.NetworkMTN).Return(adapter, nil)
		payouts.On("Create", ctx, mock.Anything).Return(&models.Transaction{}, nil)
		payouts.On("UpdateStatus", ctx, "TXN-100-200", models.TransactionStatusPending, models.TransactionStatusProcessing).
			Return(false, nil)
		payouts.On("FindByReference", ctx, "TXN-100-200").Return(current, nil)

		svc := NewService(payouts, registry, account.NewOpenDirectory())
		tx, err := svc.Disburse(ctx, validPayout())
		require.NoError(t, err)
		assert.Equal(t, models.TransactionStatusProcessing, tx.Status)
		adapter.AssertNotCalled(t, "Disburse", mock.Anything, mock.Anything)
	})

	t.Run("rejects a network with no adapter", func(t *testing.T) {
		payouts := new(MockPayouts)
		registry := new(MockRegistry)
		registry.On("For", models.ChannelMobileMoney, "vodafone").Return(nil, providers.ErrUnsupportedNetwork)

		req := validPayout()
		req.Network = "vodafone"
		svc := NewService(payouts, registry, account.NewOpenDirectory())
		_, err := svc.Disburse(ctx, req)
		assert.ErrorIs(t, err, ErrUnsupportedNetwork)
		payouts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("rejects an adapter that cannot disburse", func(t *testing.T) {
		payouts := new(MockPayouts)
		registry := new(MockRegistry)
		registry.On("For", models.ChannelCard, "").Return(pollOnlyAdapter{}, nil)

		req := validPayout()
		req.Channel = models.ChannelCard
		req.Network = ""
		svc := NewService(payouts, registry, account.NewOpenDirectory())
		_, err := svc.Disburse(ctx, req)
		assert.ErrorIs(t, err, ErrUnsupportedNetwork)
		payouts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("validates the request before touching the ledger", func(t *testing.T) {
		payouts := new(MockPayouts)
		svc := NewService(payouts, new(MockRegistry), account.NewOpenDirectory())

		for name, mutate := range map[string]func(*Request){
			"missing user":        func(r *Request) { r.UserID = "" },
			"zero amount":         func(r *Request) { r.Amount = 0 },
			"negative amount":     func(r *Request) { r.Amount = -500 },
			"bad currency":        func(r *Request) { r.Currency = "ZMWK" },
			"missing money phone": func(r *Request) { r.PhoneNumber = "" },
		} {
			req := validPayout()
			mutate(req)
			_, err := svc.Disburse(ctx, req)
			assert.ErrorIs(t, err, ErrValidation, name)
		}
		payouts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestService_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the payout by reference", func(t *testing.T) {
		payouts := new(MockPayouts)
		payouts.On("FindByReference", ctx, "TXN-100-200").
			Return(&models.Transaction{Reference: "TXN-100-200"}, nil)

		svc := NewService(payouts, new(MockRegistry), account.NewOpenDirectory())
		tx, err := svc.Get(ctx, "TXN-100-200")
		require.NoError(t, err)
		assert.Equal(t, "TXN-100-200", tx.Reference)
	})

	t.Run("maps a miss to the service error", func(t *testing.T) {
		payouts := new(MockPayouts)
		payouts.On("FindByReference", ctx, "TXN-0-0").Return(nil, errors.New("record not found"))

		svc := NewService(payouts, new(MockRegistry), account.NewOpenDirectory())
		_, err := svc.Get(ctx, "TXN-0-0")
		assert.ErrorIs(t, err, ErrTransactionNotFound)
	})
}
