package models

import (
	"time"
)

// Payment statuses
const (
	PaymentStatusPending   = "pending"
	PaymentStatusSuccess   = "success"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
	PaymentStatusCancelled = "cancelled"
)

// Payment channels
const (
	ChannelMobileMoney = "mobile_money"
	ChannelCard        = "card"
	ChannelBank        = "bank"
	ChannelCrypto      = "crypto"
)

// Mobile money networks
const (
	NetworkMTN    = "mtn"
	NetworkAirtel = "airtel"
)

// Payment is the durable record of a single payment attempt. Reference is
// the internal join key for inbound webhooks; ProviderTxnID is assigned by
// the network once the provider responds. Amount is in minor units.
type Payment struct {
	ID             uint      `gorm:"primarykey" json:"id"`
	Reference      string    `gorm:"uniqueIndex;not null" json:"reference"`
	SenderID       string    `gorm:"not null;index" json:"sender_id"`
	ReceiverID     string    `gorm:"not null;index" json:"receiver_id"`
	Amount         int64     `gorm:"not null" json:"amount"`
	Currency       string    `gorm:"not null" json:"currency"`
	Channel        string    `gorm:"not null" json:"channel"`
	Network        string    `json:"network,omitempty"`
	PhoneNumber    string    `json:"phone_number,omitempty"`
	Country        string    `json:"country,omitempty"`
	Description    string    `json:"description,omitempty"`
	Status         string    `gorm:"not null;default:'pending';index" json:"status"`
	ProviderTxnID  string    `gorm:"index" json:"provider_txn_id,omitempty"`
	IdempotencyKey *string   `gorm:"uniqueIndex" json:"idempotency_key,omitempty"`
	Metadata       JSON      `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// IsTerminal reports whether the payment has reached a final state.
// Pending is the only non-terminal status.
func (p *Payment) IsTerminal() bool {
	return p.Status != PaymentStatusPending
}

// PaymentRequest is the caller-supplied initiation payload.
type PaymentRequest struct {
	SenderID       string `json:"sender" validate:"required"`
	ReceiverID     string `json:"receiver" validate:"required"`
	Amount         int64  `json:"amount" validate:"required,gt=0"`
	Currency       string `json:"currency" validate:"required,len=3"`
	Channel        string `json:"channel" validate:"required,oneof=mobile_money card bank crypto"`
	Network        string `json:"network"`
	PhoneNumber    string `json:"phoneNumber"`
	Country        string `json:"country"`
	Description    string `json:"description"`
	IdempotencyKey string `json:"idempotencyKey"`
}
