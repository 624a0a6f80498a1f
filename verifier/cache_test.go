package verifier

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaimsCache(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		cache := newClaimsCache(time.Minute)
		claims := newClaims(map[string]interface{}{"sub": "service-a"})

		cache.put("token-1", claims)
		got, ok := cache.get("token-1")
		require.True(t, ok)
		assert.Equal(t, claims.AsMap(), got.AsMap())

		_, ok = cache.get("token-2")
		assert.False(t, ok)
	})

	t.Run("entries age out", func(t *testing.T) {
		cache := newClaimsCache(20 * time.Millisecond)
		cache.put("token-1", newClaims(map[string]interface{}{"sub": "service-a"}))

		_, ok := cache.get("token-1")
		require.True(t, ok)

		time.Sleep(50 * time.Millisecond)
		_, ok = cache.get("token-1")
		assert.False(t, ok)
	})

	t.Run("put overwrites", func(t *testing.T) {
		cache := newClaimsCache(time.Minute)
		cache.put("token-1", newClaims(map[string]interface{}{"sub": "first"}))
		cache.put("token-1", newClaims(map[string]interface{}{"sub": "second"}))

		got, ok := cache.get("token-1")
		require.True(t, ok)
		assert.Equal(t, "second", got.Subject())
	})
}
