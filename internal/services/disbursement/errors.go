package disbursement

import "errors"

// Service errors
var (
	ErrValidation          = errors.New("invalid disbursement request")
	ErrUnsupportedNetwork  = errors.New("no adapter can disburse on this network")
	ErrProviderCall        = errors.New("provider disbursement call failed")
	ErrDisburseRejected    = errors.New("provider rejected the disbursement")
	ErrTransactionNotFound = errors.New("transaction not found")
)
