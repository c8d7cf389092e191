package classifier

import (
	"sync"
	"time"
)

// IdentityKind is the resolved role of a human-agent author.
type IdentityKind int

const (
	IdentityNone IdentityKind = iota
	IdentityEscalation
	IdentityVendor
)

// Identity is the resolved role of one human-agent author.
type Identity struct {
	Kind   IdentityKind
	Vendor string
	Detail string
}

type identityEntry struct {
	identity Identity
	expires  time.Time
}

// IdentityCache memoizes author-identity resolution with a time-bounded
// staleness window. It is constructed once and injected, never ambient
// process state. Concurrent populates of the same key are safe: resolution
// is idempotent per key, so the last write winning changes nothing.
type IdentityCache struct {
	ttl     time.Duration
	now     func() time.Time
	entries sync.Map
}

// NewIdentityCache builds a cache whose entries go stale after ttl.
func NewIdentityCache(ttl time.Duration) *IdentityCache {
	return &IdentityCache{ttl: ttl, now: time.Now}
}

// Resolve returns the cached identity for key, computing and storing it on
// miss or staleness.
func (c *IdentityCache) Resolve(key string, compute func() Identity) Identity {
	if v, ok := c.entries.Load(key); ok {
		entry := v.(identityEntry)
		if c.now().Before(entry.expires) {
			return entry.identity
		}
	}
	id := compute()
	c.entries.Store(key, identityEntry{identity: id, expires: c.now().Add(c.ttl)})
	return id
}
