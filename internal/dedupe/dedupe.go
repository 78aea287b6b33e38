// ABOUTME: TTL-bounded guard for deduplicating retried usage-session submissions
// ABOUTME: Remembers recently accepted submission keys and the session they produced

package dedupe

import (
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Guard tracks recently accepted submission keys so that device retries
// within the window return the originally created session instead of
// inserting a second row. Entries expire after the window and the cache is
// size-bounded, so the guard never grows with traffic.
type Guard struct {
	cache *expirable.LRU[string, string]
}

// New creates a Guard that remembers keys for the given window, holding at
// most maxEntries keys.
func New(window time.Duration, maxEntries int) *Guard {
	return &Guard{
		cache: expirable.NewLRU[string, string](maxEntries, nil, window),
	}
}

// Key builds a submission key from its identifying parts.
func Key(parts ...string) string {
	return strings.Join(parts, "|")
}

// Lookup returns the session ID previously recorded for the key, if the key
// is still within the window.
func (g *Guard) Lookup(key string) (string, bool) {
	return g.cache.Get(key)
}

// Remember records the session ID created for the key.
func (g *Guard) Remember(key, sessionID string) {
	g.cache.Add(key, sessionID)
}
