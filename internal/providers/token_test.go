package providers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryTokenCache(t *testing.T) {
	ctx := context.Background()

	t.Run("miss on empty cache", func(t *testing.T) {
		c := NewMemoryTokenCache()
		_, ok := c.Get(ctx, "mtn:collection")
		assert.False(t, ok)
	})

	t.Run("hit within lifetime", func(t *testing.T) {
		c := NewMemoryTokenCache()
		c.Put(ctx, "mtn:collection", "tok-1", time.Hour)
		got, ok := c.Get(ctx, "mtn:collection")
		assert.True(t, ok)
		assert.Equal(t, "tok-1", got)
	})

	t.Run("safety margin drops short-lived tokens", func(t *testing.T) {
		// A token expiring inside the refresh margin is never served, so a
		// fresh one is fetched proactively instead of racing expiry.
		c := NewMemoryTokenCache()
		c.Put(ctx, "airtel", "tok-2", 30*time.Second)
		_, ok := c.Get(ctx, "airtel")
		assert.False(t, ok)
	})

	t.Run("providers are isolated", func(t *testing.T) {
		c := NewMemoryTokenCache()
		c.Put(ctx, "mtn:collection", "tok-a", time.Hour)
		c.Put(ctx, "mtn:disbursement", "tok-b", time.Hour)
		got, _ := c.Get(ctx, "mtn:disbursement")
		assert.Equal(t, "tok-b", got)
	})
}
