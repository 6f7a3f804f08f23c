// Package providers holds the payment network adapters. Each adapter
// translates the canonical request into its provider's wire format and maps
// the provider's status vocabulary back onto the internal three-way outcome.
package providers

import (
	"context"
	"fmt"

	"premscales/internal/models"
)

// Request is the provider-agnostic payment request consumed by adapters.
// Amount is in minor units of Currency; PhoneNumber is already normalized.
type Request struct {
	Reference   string
	Amount      int64
	Currency    string
	PhoneNumber string
	Country     string
	Description string
}

// InitiateResult is the canonical response from a provider initiation call.
type InitiateResult struct {
	ProviderTxnID string
	Status        string
	Raw           map[string]interface{}
}

// DisburseResult is the canonical response from an outbound transfer.
// Success detection is deliberately per-adapter: providers disagree on the
// signal shape (a bare 202 versus a nested status code string).
type DisburseResult struct {
	Success     bool
	ProviderRef string
	Raw         map[string]interface{}
}

// Adapter is the contract every payment network implements.
// NormalizeStatus applies the adapter's own status vocabulary so provider
// wording stays confined to the adapter that understands it.
type Adapter interface {
	Name() string
	Initiate(ctx context.Context, req Request) (*InitiateResult, error)
	VerifyWebhook(body []byte, headers map[string]string) error
	PollStatus(ctx context.Context, providerTxnID string) (string, error)
	NormalizeStatus(status string) string
}

// Disburser is implemented by adapters that support outbound transfers.
type Disburser interface {
	Disburse(ctx context.Context, req Request) (*DisburseResult, error)
}

// Refunder is implemented by adapters that support provider-side refunds.
type Refunder interface {
	Refund(ctx context.Context, providerTxnID string) error
}

// Registry resolves adapters by channel/network and identifies the sender
// of an inbound webhook from its headers.
type Registry struct {
	adapters map[string]Adapter
}

func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// Register binds an adapter to a channel/network pair. Network is empty for
// single-network channels such as card.
func (r *Registry) Register(channel, network string, a Adapter) {
	r.adapters[registryKey(channel, network)] = a
}

// For resolves the adapter for a channel/network pair.
func (r *Registry) For(channel, network string) (Adapter, error) {
	a, ok := r.adapters[registryKey(channel, network)]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrUnsupportedNetwork, channel, network)
	}
	return a, nil
}

// Detect identifies which provider sent a webhook by header inspection.
// An explicit x-provider header wins; otherwise each adapter's signature
// header is checked. Ambiguity fails closed: no default to accepted.
func (r *Registry) Detect(headers map[string]string) (Adapter, error) {
	if name := headerValue(headers, "x-provider"); name != "" {
		for _, a := range r.adapters {
			if a.Name() == name {
				return a, nil
			}
		}
		return nil, fmt.Errorf("%w: unknown provider %q", ErrUnknownProvider, name)
	}

	switch {
	case headerValue(headers, "stripe-signature") != "":
		return r.For(models.ChannelCard, "")
	case headerValue(headers, "x-momo-signature") != "":
		return r.For(models.ChannelMobileMoney, models.NetworkMTN)
	case headerValue(headers, "x-auth-signature") != "":
		return r.For(models.ChannelMobileMoney, models.NetworkAirtel)
	}

	return nil, ErrUnknownProvider
}

func registryKey(channel, network string) string {
	if network == "" {
		return channel
	}
	return channel + "/" + network
}
