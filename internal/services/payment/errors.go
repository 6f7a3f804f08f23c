package payment

import "errors"

// Service errors
var (
	ErrUnsupportedNetwork = errors.New("unsupported channel/network combination")
	ErrProviderCall       = errors.New("payment provider call failed")
	ErrAccountNotFound    = errors.New("account not found")
	ErrPaymentNotFound    = errors.New("payment not found")
)
