package verifier

import (
	"time"

	"github.com/ammario/tlru"
)

// Cached claims live for a fixed window from write time, independent of
// the token's own expiry claim. Expiry is still re-checked against
// wall-clock time on every cache hit unless the caller ignores expiry.
const claimsCacheTTL = 15 * time.Minute

// claimsCacheEntries is the entry budget handed to the underlying LRU.
// In practice the cache is bounded by token volume within the TTL
// window; the budget only guards against pathological churn.
const claimsCacheEntries = 100_000

// claimsCache maps a raw token string to its previously verified
// claims. An entry present in the cache is signature-valid. There is no
// invalidation API; entries age out.
type claimsCache struct {
	entries *tlru.Cache[string, Claims]
	ttl     time.Duration
}

func newClaimsCache(ttl time.Duration) *claimsCache {
	return &claimsCache{
		entries: tlru.New[string](tlru.ConstantCost[Claims], claimsCacheEntries),
		ttl:     ttl,
	}
}

func (c *claimsCache) get(token string) (Claims, bool) {
	claims, _, ok := c.entries.Get(token)
	return claims, ok
}

func (c *claimsCache) put(token string, claims Claims) {
	c.entries.Set(token, claims, c.ttl)
}
