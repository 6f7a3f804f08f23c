package models

import (
	"time"
)

// Transaction types
const (
	TransactionTypePayout          = "payout"
	TransactionTypeRoyalty         = "royalty"
	TransactionTypeFee             = "fee"
	TransactionTypePurchase        = "purchase"
	TransactionTypeCampaignPayment = "campaign_payment"
	TransactionTypeSubscription    = "subscription"
	TransactionTypeWalletTopup     = "wallet_topup"
	TransactionTypeHolding         = "holding"
)

// Transaction statuses
const (
	TransactionStatusPending    = "pending"
	TransactionStatusProcessing = "processing"
	TransactionStatusCompleted  = "completed"
	TransactionStatusFailed     = "failed"
	TransactionStatusSettled    = "settled"
	TransactionStatusHolding    = "holding"
)

// Transaction is the ledger row for outbound flows and internal money
// movements (payouts, royalties, fees, holdings). It is structurally
// symmetric to Payment but carries provider sub-documents per method.
type Transaction struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	Reference     string    `gorm:"uniqueIndex;not null" json:"reference"`
	UserID        string    `gorm:"not null;index" json:"user_id"`
	Type          string    `gorm:"not null" json:"type"`
	Amount        int64     `gorm:"not null" json:"amount"`
	Currency      string    `gorm:"not null" json:"currency"`
	Status        string    `gorm:"not null;default:'pending';index" json:"status"`
	PaymentMethod string    `json:"payment_method,omitempty"`
	Description   string    `json:"description,omitempty"`
	MobileMoney   JSON      `gorm:"type:jsonb" json:"mobile_money,omitempty"`
	Card          JSON      `gorm:"type:jsonb" json:"card,omitempty"`
	Metadata      JSON      `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// MobileMoneyDetails is the provider sub-document for mobile money rows.
type MobileMoneyDetails struct {
	Provider      string `json:"provider"`
	PhoneNumber   string `json:"phone_number"`
	ExternalTxnID string `json:"external_txn_id"`
	Verified      bool   `json:"verified"`
	Sandbox       bool   `json:"sandbox"`
}

// AsJSON renders the sub-document in the jsonb column shape.
func (d MobileMoneyDetails) AsJSON() JSON {
	return JSON{
		"provider":        d.Provider,
		"phone_number":    d.PhoneNumber,
		"external_txn_id": d.ExternalTxnID,
		"verified":        d.Verified,
		"sandbox":         d.Sandbox,
	}
}

// CardDetails is the provider sub-document for card rows.
type CardDetails struct {
	PaymentIntentID string `json:"payment_intent_id"`
	AccountID       string `json:"account_id"`
}
