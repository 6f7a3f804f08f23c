package validation

import (
	"testing"

	"premscales/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestValidator_Payment(t *testing.T) {
	valid := models.PaymentRequest{
		SenderID:    "u1",
		ReceiverID:  "u2",
		Amount:      100,
		Currency:    "ZMW",
		Channel:     models.ChannelMobileMoney,
		Network:     models.NetworkMTN,
		PhoneNumber: "0961234567",
		Country:     "ZM",
	}

	t.Run("valid mobile money request", func(t *testing.T) {
		v := New()
		req := valid
		v.Payment(&req)
		assert.True(t, v.Valid(), "errors: %v", v.Errors)
	})

	tests := []struct {
		name   string
		mutate func(*models.PaymentRequest)
		field  string
	}{
		{"missing sender", func(r *models.PaymentRequest) { r.SenderID = "" }, "sender"},
		{"missing receiver", func(r *models.PaymentRequest) { r.ReceiverID = "" }, "receiver"},
		{"zero amount", func(r *models.PaymentRequest) { r.Amount = 0 }, "amount"},
		{"negative amount", func(r *models.PaymentRequest) { r.Amount = -5 }, "amount"},
		{"bad currency", func(r *models.PaymentRequest) { r.Currency = "zmw1" }, "currency"},
		{"bad channel", func(r *models.PaymentRequest) { r.Channel = "cash" }, "channel"},
		{"mobile money without network", func(r *models.PaymentRequest) { r.Network = "" }, "network"},
		{"mobile money bad phone", func(r *models.PaymentRequest) { r.PhoneNumber = "abc" }, "phoneNumber"},
		{"mobile money without country", func(r *models.PaymentRequest) { r.Country = "" }, "country"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			req := valid
			tt.mutate(&req)
			v.Payment(&req)
			assert.False(t, v.Valid())
			assert.Contains(t, v.Errors, tt.field)
		})
	}

	t.Run("card channel skips phone requirements", func(t *testing.T) {
		v := New()
		req := valid
		req.Channel = models.ChannelCard
		req.Network = ""
		req.PhoneNumber = ""
		req.Country = ""
		v.Payment(&req)
		assert.True(t, v.Valid(), "errors: %v", v.Errors)
	})
}
