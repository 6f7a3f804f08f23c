package validation

import (
	"premscales/internal/models"
)

const (
	MaxDescriptionLength = 500
	MaxReferenceLength   = 100
)

// Payment validates a payment initiation request.
func (v *Validator) Payment(req *models.PaymentRequest) {
	v.Required("sender", req.SenderID)
	v.Required("receiver", req.ReceiverID)
	v.Positive("amount", req.Amount)
	v.Currency("currency", req.Currency)
	v.OneOf("channel", req.Channel,
		models.ChannelMobileMoney, models.ChannelCard, models.ChannelBank, models.ChannelCrypto)
	v.MaxLength("description", req.Description, MaxDescriptionLength)
	v.MaxLength("idempotencyKey", req.IdempotencyKey, MaxReferenceLength)

	if req.Channel == models.ChannelMobileMoney {
		v.Required("network", req.Network)
		v.Phone("phoneNumber", req.PhoneNumber)
		v.Required("country", req.Country)
	}
}
