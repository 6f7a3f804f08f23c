package handlers

import (
	"errors"

	"premscales/internal/models"
	"premscales/internal/services/payment"
	"premscales/internal/utils/response"
	"premscales/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type PaymentHandler struct {
	paymentService payment.Service
}

func NewPaymentHandler(paymentSvc payment.Service) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentSvc,
	}
}

// InitiatePayment creates a pending payment and pushes it to the provider.
// The sender is always the authenticated user.
func (h *PaymentHandler) InitiatePayment(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*models.UserClaims)

	var req models.PaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}
	req.SenderID = claims.UserID

	v := validation.New()
	v.Payment(&req)
	if !v.Valid() {
		return response.ValidationFailed(c, v.Errors)
	}

	result, err := h.paymentService.Initiate(c.Context(), &req)
	switch {
	case err == nil:
	case errors.Is(err, payment.ErrUnsupportedNetwork):
		return response.BadRequest(c, err.Error())
	case errors.Is(err, payment.ErrAccountNotFound):
		return response.BadRequest(c, err.Error())
	case errors.Is(err, payment.ErrProviderCall):
		// The row stays pending; the caller can poll the reference later.
		return response.Error(c, fiber.StatusInternalServerError, err.Error())
	default:
		return response.ServerError(c, "Failed to initiate payment")
	}

	if result.Reused {
		return response.Success(c, "Payment already initiated", result)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Payment initiated",
		"data":    result,
	})
}

// GetPayment returns a payment by its reference.
func (h *PaymentHandler) GetPayment(c *fiber.Ctx) error {
	reference := c.Params("reference")
	p, err := h.paymentService.Get(c.Context(), reference)
	if err != nil {
		return response.NotFound(c, "Payment not found")
	}
	return response.Success(c, "Payment retrieved", p)
}

// ListPayments returns the authenticated user's payments, newest first.
func (h *PaymentHandler) ListPayments(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*models.UserClaims)

	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	payments, err := h.paymentService.ListForUser(c.Context(), claims.UserID, limit, offset)
	if err != nil {
		return response.ServerError(c, "Failed to list payments")
	}
	return response.Success(c, "Payments retrieved", fiber.Map{
		"payments": payments,
		"limit":    limit,
		"offset":   offset,
	})
}
