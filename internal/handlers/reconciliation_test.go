package handlers

import (
	"fmt"
	"net/http/httptest"
	"testing"

	"premscales/internal/models"
	"premscales/internal/services/reconciliation"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reconApp(svc reconciliation.Service) *fiber.App {
	app := fiber.New()
	h := NewReconciliationHandler(svc)
	app.Post("/api/payments/:reference/poll", h.PollPayment)
	app.Post("/api/payments/:reference/refund", h.RefundPayment)
	return app
}

func TestPollPayment(t *testing.T) {
	t.Run("provider failure surfaces as 500", func(t *testing.T) {
		svc := new(mockReconService)
		svc.On("Poll", "PMT-100-200").
			Return(nil, fmt.Errorf("%w: gateway timeout", reconciliation.ErrProviderCall))

		req := httptest.NewRequest("POST", "/api/payments/PMT-100-200/poll", nil)
		resp, err := reconApp(svc).Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	})

	t.Run("applied poll returns 200", func(t *testing.T) {
		svc := new(mockReconService)
		svc.On("Poll", "PMT-100-200").
			Return(&models.Payment{Reference: "PMT-100-200", Status: models.PaymentStatusSuccess}, nil)

		req := httptest.NewRequest("POST", "/api/payments/PMT-100-200/poll", nil)
		resp, err := reconApp(svc).Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("unknown reference returns 404", func(t *testing.T) {
		svc := new(mockReconService)
		svc.On("Poll", "PMT-0-0").Return(nil, reconciliation.ErrNotFound)

		req := httptest.NewRequest("POST", "/api/payments/PMT-0-0/poll", nil)
		resp, err := reconApp(svc).Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})
}

func TestRefundPayment(t *testing.T) {
	t.Run("provider failure surfaces as 500", func(t *testing.T) {
		svc := new(mockReconService)
		svc.On("Refund", "PMT-100-200").
			Return(nil, fmt.Errorf("%w: gateway timeout", reconciliation.ErrProviderCall))

		req := httptest.NewRequest("POST", "/api/payments/PMT-100-200/refund", nil)
		resp, err := reconApp(svc).Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	})

	t.Run("non-refundable payment returns 409", func(t *testing.T) {
		svc := new(mockReconService)
		svc.On("Refund", "PMT-100-200").Return(nil, reconciliation.ErrNotRefundable)

		req := httptest.NewRequest("POST", "/api/payments/PMT-100-200/refund", nil)
		resp, err := reconApp(svc).Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	})
}
