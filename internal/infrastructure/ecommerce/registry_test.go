package ecommerce

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fadedindigo/backend/internal/domain/marketplace"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()

	ebay, err := NewEbayAdapter(NewEbayConfig("id", "secret"))
	require.NoError(t, err)
	etsy, err := NewEtsyAdapter(NewEtsyConfig("key"))
	require.NoError(t, err)
	reddit, err := NewRedditAdapter(NewRedditConfig("id", "secret", "test/1.0"))
	require.NoError(t, err)

	return NewRegistry(ebay, etsy, reddit)
}

func TestRegistry_Get(t *testing.T) {
	registry := newTestRegistry(t)

	t.Run("registered platform", func(t *testing.T) {
		adapter, err := registry.Get(marketplace.PlatformEtsy)
		require.NoError(t, err)
		assert.Equal(t, marketplace.PlatformEtsy, adapter.Platform())
	})

	t.Run("unregistered platform", func(t *testing.T) {
		adapter, err := registry.Get(marketplace.PlatformWhatnot)
		assert.ErrorIs(t, err, marketplace.ErrPlatformNotConfigured)
		assert.Nil(t, adapter)
	})
}

func TestRegistry_All(t *testing.T) {
	registry := newTestRegistry(t)

	all := registry.All()
	require.Len(t, all, 3)
	// Registration order is preserved
	assert.Equal(t, marketplace.PlatformEbay, all[0].Platform())
	assert.Equal(t, marketplace.PlatformEtsy, all[1].Platform())
	assert.Equal(t, marketplace.PlatformReddit, all[2].Platform())
}
