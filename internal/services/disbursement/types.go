package disbursement

// Request describes an outbound transfer to a creator or partner.
// Amount is in minor units of Currency.
type Request struct {
	UserID      string `json:"user_id" validate:"required"`
	Amount      int64  `json:"amount" validate:"required,gt=0"`
	Currency    string `json:"currency" validate:"required,len=3"`
	Channel     string `json:"channel" validate:"required,oneof=mobile_money card"`
	Network     string `json:"network"`
	PhoneNumber string `json:"phone_number"`
	Country     string `json:"country"`
	Description string `json:"description"`
}
