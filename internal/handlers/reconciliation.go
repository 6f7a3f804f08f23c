package handlers

import (
	"errors"

	"premscales/internal/services/reconciliation"
	"premscales/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type ReconciliationHandler struct {
	reconService reconciliation.Service
}

func NewReconciliationHandler(reconSvc reconciliation.Service) *ReconciliationHandler {
	return &ReconciliationHandler{
		reconService: reconSvc,
	}
}

// PollPayment asks the provider for the current status of a payment and
// applies the answer. Safe to call repeatedly.
func (h *ReconciliationHandler) PollPayment(c *fiber.Ctx) error {
	reference := c.Params("reference")

	p, err := h.reconService.Poll(c.Context(), reference)
	switch {
	case err == nil:
	case errors.Is(err, reconciliation.ErrNotFound):
		return response.NotFound(c, "Payment not found")
	case errors.Is(err, reconciliation.ErrProviderCall):
		return response.Error(c, fiber.StatusInternalServerError, err.Error())
	default:
		return response.ServerError(c, "Failed to poll payment")
	}

	return response.Success(c, "Payment polled", p)
}

// RefundPayment reverses a successful payment.
func (h *ReconciliationHandler) RefundPayment(c *fiber.Ctx) error {
	reference := c.Params("reference")

	p, err := h.reconService.Refund(c.Context(), reference)
	switch {
	case err == nil:
	case errors.Is(err, reconciliation.ErrNotFound):
		return response.NotFound(c, "Payment not found")
	case errors.Is(err, reconciliation.ErrNotRefundable):
		return response.Error(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, reconciliation.ErrProviderCall):
		return response.Error(c, fiber.StatusInternalServerError, err.Error())
	default:
		return response.ServerError(c, "Failed to refund payment")
	}

	return response.Success(c, "Payment refunded", p)
}

// CancelPayment explicitly cancels a pending payment.
func (h *ReconciliationHandler) CancelPayment(c *fiber.Ctx) error {
	reference := c.Params("reference")

	var input struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&input); err != nil {
		input.Reason = ""
	}
	if input.Reason == "" {
		input.Reason = "cancelled by caller"
	}

	p, err := h.reconService.Cancel(c.Context(), reference, input.Reason)
	if err != nil {
		if errors.Is(err, reconciliation.ErrNotFound) {
			return response.NotFound(c, "Payment not found")
		}
		return response.ServerError(c, "Failed to cancel payment")
	}
	return response.Success(c, "Payment cancelled", p)
}

// SweepPending runs one reconciliation sweep over stale pending payments.
// The scheduler calling this endpoint owns the cadence.
func (h *ReconciliationHandler) SweepPending(c *fiber.Ctx) error {
	processed, err := h.reconService.SweepPending(c.Context())
	if err != nil {
		return response.ServerError(c, "Sweep failed")
	}
	return response.Success(c, "Sweep complete", fiber.Map{"processed": processed})
}
