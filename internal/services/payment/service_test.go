package payment

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

type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) FindByReference(ctx context.Context, reference string) (*models.Payment, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *MockLedger) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Payment, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]models.Payment), args.Error(1)
}

func (m *MockLedger) SetProviderTxnID(ctx context.Context, reference, providerTxnID string) error {
	args := m.Called(ctx, reference, providerTxnID)
	return args.Error(0)
}

func (m *MockLedger) AppendEvidence(ctx context.Context, reference string, evidence map[string]interface{}) error {
	args := m.Called(ctx, reference, evidence)
	return args.Error(0)
}

func (m *MockLedger) ApplyTransition(ctx context.Context, reference, newStatus string, evidence map[string]interface{}) (*models.Payment, bool, error) {
	args := m.Called(ctx, reference, newStatus, evidence)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.Payment), args.Bool(1), args.Error(2)
}

type MockGuard struct {
	mock.Mock
}

func (m *MockGuard) FindOrCreate(ctx context.Context, key string, factory func() *models.Payment) (*models.Payment, bool, error) {
	args := m.Called(ctx, key)
	if p, ok := args.Get(0).(*models.Payment); ok {
		return p, args.Bool(1), args.Error(2)
	}
	// Simulate a fresh creation through the factory. The real repository
	// forces Status to pending on create, so the mock does the same.
	p := factory()
	p.Reference = "PMT-100-200"
	p.Status = models.PaymentStatusPending
	return p, args.Bool(1), args.Error(2)
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

type MockAdapter struct {
	mock.Mock
}

func (m *MockAdapter) Name() string { return "mock" }

func (m *MockAdapter) Initiate(ctx context.Context, req providers.Request) (*providers.InitiateResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*providers.InitiateResult), args.Error(1)
}

func (m *MockAdapter) VerifyWebhook(body []byte, headers map[string]string) error {
	args := m.Called(body, headers)
	return args.Error(0)
}

func (m *MockAdapter) PollStatus(ctx context.Context, providerTxnID string) (string, error) {
	args := m.Called(ctx, providerTxnID)
	return args.String(0), args.Error(1)
}

func (m *MockAdapter) NormalizeStatus(status string) string {
	return providers.NormalizeStatus(status)
}

func validRequest() *models.PaymentRequest {
	return &models.PaymentRequest{
		SenderID:    "u1",
		ReceiverID:  "u2",
		Amount:      10000,
		Currency:    "ZMW",
		Channel:     models.ChannelMobileMoney,
		Network:     models.NetworkMTN,
		PhoneNumber: "0961234567",
		Country:     "ZM",
	}
}

func TestService_Initiate(t *testing.T) {
	ctx := context.Background()

	t.Run("creates pending payment and stores provider reference", func(t *testing.T) {
		ledger := new(MockLedger)
		guard := new(MockGuard)
		registry := new(MockRegistry)
		adapter := new(MockAdapter)

		guard.On("FindOrCreate", ctx, mock.Anything).Return(nil, false, nil)
		registry.On("For", models.ChannelMobileMoney, models.NetworkMTN).Return(adapter, nil)
		adapter.On("Initiate", ctx, mock.MatchedBy(func(r providers.Request) bool {
			return r.Reference == "PMT-100-200" && r.PhoneNumber == "260961234567"
		})).Return(&providers.InitiateResult{ProviderTxnID: "ext-1", Status: providers.StatusPending}, nil)
		ledger.On("SetProviderTxnID", ctx, "PMT-100-200", "ext-1").Return(nil)
		ledger.On("AppendEvidence", ctx, "PMT-100-200", mock.Anything).Return(nil)

		svc := NewService(ledger, guard, registry, account.NewOpenDirectory(), nil)
		result, err := svc.Initiate(ctx, validRequest())
		require.NoError(t, err)
		assert.False(t, result.Reused)
		assert.Equal(t, models.PaymentStatusPending, result.Payment.Status)
		assert.Equal(t, "ext-1", result.Payment.ProviderTxnID)
		ledger.AssertExpectations(t)
		adapter.AssertExpectations(t)
	})

	t.Run("identical request before confirmation is reused", func(t *testing.T) {
		ledger := new(MockLedger)
		guard := new(MockGuard)
		registry := new(MockRegistry)

		existing := &models.Payment{Reference: "PMT-100-200", Status: models.PaymentStatusPending}
		guard.On("FindOrCreate", ctx, mock.Anything).Return(existing, true, nil)

		svc := NewService(ledger, guard, registry, account.NewOpenDirectory(), nil)
		result, err := svc.Initiate(ctx, validRequest())
		require.NoError(t, err)
		assert.True(t, result.Reused)
		assert.Equal(t, "PMT-100-200", result.Payment.Reference)
		registry.AssertNotCalled(t, "For", mock.Anything, mock.Anything)
	})

	t.Run("unsupported network records a terminal failed row", func(t *testing.T) {
		ledger := new(MockLedger)
		guard := new(MockGuard)
		registry := new(MockRegistry)

		guard.On("FindOrCreate", ctx, mock.Anything).Return(nil, false, nil)
		registry.On("For", models.ChannelMobileMoney, "vodacom").Return(nil, providers.ErrUnsupportedNetwork)
		failed := &models.Payment{Reference: "PMT-100-200", Status: models.PaymentStatusFailed}
		ledger.On("ApplyTransition", ctx, "PMT-100-200", models.PaymentStatusFailed, mock.Anything).
			Return(failed, true, nil)

		req := validRequest()
		req.Network = "vodacom"

		svc := NewService(ledger, guard, registry, account.NewOpenDirectory(), nil)
		result, err := svc.Initiate(ctx, req)
		assert.ErrorIs(t, err, ErrUnsupportedNetwork)
		require.NotNil(t, result)
		assert.Equal(t, models.PaymentStatusFailed, result.Payment.Status)
		ledger.AssertExpectations(t)
	})

	t.Run("provider failure leaves the row pending", func(t *testing.T) {
		ledger := new(MockLedger)
		guard := new(MockGuard)
		registry := new(MockRegistry)
		adapter := new(MockAdapter)

		guard.On("FindOrCreate", ctx, mock.Anything).Return(nil, false, nil)
		registry.On("For", models.ChannelMobileMoney, models.NetworkMTN).Return(adapter, nil)
		adapter.On("Initiate", ctx, mock.Anything).Return(nil, providers.ErrProviderCall)
		ledger.On("AppendEvidence", ctx, "PMT-100-200", mock.Anything).Return(nil)

		svc := NewService(ledger, guard, registry, account.NewOpenDirectory(), nil)
		_, err := svc.Initiate(ctx, validRequest())
		assert.ErrorIs(t, err, ErrProviderCall)
		ledger.AssertNotCalled(t, "ApplyTransition", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("empty sender id is rejected", func(t *testing.T) {
		svc := NewService(new(MockLedger), new(MockGuard), new(MockRegistry), account.NewOpenDirectory(), nil)
		req := validRequest()
		req.SenderID = ""
		_, err := svc.Initiate(ctx, req)
		assert.ErrorIs(t, err, ErrAccountNotFound)
	})
}

func TestService_Initiate_Scenario(t *testing.T) {
	// The end-to-end shape from the product side: first submission creates
	// a pending row, the literal resubmission reuses it.
	ctx := context.Background()
	ledger := new(MockLedger)
	guard := new(MockGuard)
	registry := new(MockRegistry)
	adapter := new(MockAdapter)

	guard.On("FindOrCreate", ctx, mock.Anything).Return(nil, false, nil).Once()
	registry.On("For", models.ChannelMobileMoney, models.NetworkMTN).Return(adapter, nil)
	adapter.On("Initiate", ctx, mock.Anything).
		Return(&providers.InitiateResult{ProviderTxnID: "ext-9", Status: providers.StatusPending}, nil)
	ledger.On("SetProviderTxnID", ctx, mock.Anything, "ext-9").Return(nil)
	ledger.On("AppendEvidence", ctx, mock.Anything, mock.Anything).Return(nil)

	svc := NewService(ledger, guard, registry, account.NewOpenDirectory(), nil)

	first, err := svc.Initiate(ctx, validRequest())
	require.NoError(t, err)
	assert.Regexp(t, `^PMT-\d+-\d+$`, first.Payment.Reference)
	assert.False(t, first.Reused)

	guard.On("FindOrCreate", ctx, mock.Anything).Return(first.Payment, true, nil).Once()
	second, err := svc.Initiate(ctx, validRequest())
	require.NoError(t, err)
	assert.True(t, second.Reused)
	assert.Equal(t, first.Payment.Reference, second.Payment.Reference)
}

func TestService_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the payment by reference", func(t *testing.T) {
		ledger := new(MockLedger)
		ledger.On("FindByReference", ctx, "PMT-100-200").
			Return(&models.Payment{Reference: "PMT-100-200"}, nil)

		svc := NewService(ledger, new(MockGuard), new(MockRegistry), account.NewOpenDirectory(), nil)
		p, err := svc.Get(ctx, "PMT-100-200")
		require.NoError(t, err)
		assert.Equal(t, "PMT-100-200", p.Reference)
	})

	t.Run("maps a miss to the service error", func(t *testing.T) {
		ledger := new(MockLedger)
		ledger.On("FindByReference", ctx, "PMT-0-0").Return(nil, errors.New("record not found"))

		svc := NewService(ledger, new(MockGuard), new(MockRegistry), account.NewOpenDirectory(), nil)
		_, err := svc.Get(ctx, "PMT-0-0")
		assert.ErrorIs(t, err, ErrPaymentNotFound)
	})
}
