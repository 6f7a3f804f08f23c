package handlers

import (
	"errors"

	"premscales/internal/services/reconciliation"
	"premscales/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type WebhookHandler struct {
	reconService reconciliation.Service
}

func NewWebhookHandler(reconSvc reconciliation.Service) *WebhookHandler {
	return &WebhookHandler{
		reconService: reconSvc,
	}
}

// HandleProviderWebhook receives payment confirmations from any provider.
// Status codes are part of the provider contract: 401 tells the provider
// its event was rejected, 404 that nothing matched, and 200 that the event
// was absorbed, even when it changed nothing.
func (h *WebhookHandler) HandleProviderWebhook(c *fiber.Ctx) error {
	headers := make(map[string]string)
	for key, values := range c.GetReqHeaders() {
		if len(values) > 0 {
			headers[key] = values[0]
		}
	}

	p, err := h.reconService.HandleWebhook(c.Context(), c.Body(), headers)
	switch {
	case err == nil:
	case errors.Is(err, reconciliation.ErrVerification):
		return response.Error(c, fiber.StatusUnauthorized, "webhook rejected")
	case errors.Is(err, reconciliation.ErrNoReference):
		return response.BadRequest(c, "no transaction reference in payload")
	case errors.Is(err, reconciliation.ErrNotFound):
		return response.NotFound(c, "no matching payment")
	default:
		return response.ServerError(c, "failed to process webhook")
	}

	return response.Success(c, "Webhook processed", fiber.Map{
		"reference": p.Reference,
		"status":    p.Status,
	})
}
