package handlers

import (
	"errors"

	"premscales/internal/services/disbursement"
	"premscales/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type DisbursementHandler struct {
	disbursementService disbursement.Service
}

func NewDisbursementHandler(disbursementSvc disbursement.Service) *DisbursementHandler {
	return &DisbursementHandler{
		disbursementService: disbursementSvc,
	}
}

// CreateDisbursement pays out to a creator or partner.
func (h *DisbursementHandler) CreateDisbursement(c *fiber.Ctx) error {
	var req disbursement.Request
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}

	tx, err := h.disbursementService.Disburse(c.Context(), &req)
	switch {
	case err == nil:
	case errors.Is(err, disbursement.ErrValidation):
		return response.BadRequest(c, err.Error())
	case errors.Is(err, disbursement.ErrUnsupportedNetwork):
		return response.BadRequest(c, err.Error())
	case errors.Is(err, disbursement.ErrDisburseRejected):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
			"data":    tx,
		})
	case errors.Is(err, disbursement.ErrProviderCall):
		return response.Error(c, fiber.StatusInternalServerError, err.Error())
	default:
		return response.ServerError(c, "Failed to create disbursement")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Disbursement completed",
		"data":    tx,
	})
}

// GetDisbursement returns a payout by its ledger reference.
func (h *DisbursementHandler) GetDisbursement(c *fiber.Ctx) error {
	reference := c.Params("reference")
	tx, err := h.disbursementService.Get(c.Context(), reference)
	if err != nil {
		return response.NotFound(c, "Disbursement not found")
	}
	return response.Success(c, "Disbursement retrieved", tx)
}

// ListDisbursements returns a user's payout history.
func (h *DisbursementHandler) ListDisbursements(c *fiber.Ctx) error {
	userID := c.Params("userID")
	if userID == "" {
		return response.BadRequest(c, "user id is required")
	}

	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	txs, err := h.disbursementService.ListForUser(c.Context(), userID, limit, offset)
	if err != nil {
		return response.ServerError(c, "Failed to list disbursements")
	}
	return response.Success(c, "Disbursements retrieved", fiber.Map{
		"disbursements": txs,
		"limit":         limit,
		"offset":        offset,
	})
}
