// Package account is the boundary to the platform's user catalog. The core
// only needs to know whether a sender or receiver id exists; everything
// else about accounts lives in the content platform.
package account

import (
	"context"
)

// Directory answers existence lookups for account identifiers.
type Directory interface {
	Exists(ctx context.Context, userID string) (bool, error)
}

// openDirectory accepts every non-empty id. It stands in until the catalog
// service's client is plugged in.
type openDirectory struct{}

// NewOpenDirectory creates a directory that accepts any non-empty id.
func NewOpenDirectory() Directory { return &openDirectory{} }

func (openDirectory) Exists(_ context.Context, userID string) (bool, error) {
	return userID != "", nil
}
