package reconciliation

import "errors"

// Service errors
var (
	ErrVerification  = errors.New("webhook could not be verified")
	ErrNoReference   = errors.New("no transaction reference in webhook payload")
	ErrNotFound      = errors.New("no payment matches the webhook reference")
	ErrProviderCall  = errors.New("provider status check failed")
	ErrNotRefundable = errors.New("payment is not in a refundable state")
)
