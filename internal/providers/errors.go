package providers

import "errors"

var (
	// ErrUnsupportedNetwork means no adapter is configured for the
	// requested channel/network combination.
	ErrUnsupportedNetwork = errors.New("unsupported payment network")

	// ErrUnknownProvider means the sender of a webhook could not be
	// established from its headers. Verification fails closed.
	ErrUnknownProvider = errors.New("webhook provider could not be determined")

	// ErrBadSignature means a webhook carried an invalid or missing
	// signature.
	ErrBadSignature = errors.New("webhook signature verification failed")

	// ErrProviderCall wraps a network or HTTP-level failure talking to a
	// provider.
	ErrProviderCall = errors.New("provider call failed")
)
