package store

import (
	"context"
	"time"

	"github.com/yusufkecer/healthhub/internal/cache"
)

// MemoryRevocations is the single-process fallback used when Redis is not
// configured.
type MemoryRevocations struct {
	c *cache.Cache
}

func NewMemoryRevocations(c *cache.Cache) *MemoryRevocations {
	return &MemoryRevocations{c: c}
}

func (m *MemoryRevocations) Revoke(_ context.Context, jti string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	m.c.SetWithTTL(revokedKey(jti), true, ttl)
	return nil
}

func (m *MemoryRevocations) IsRevoked(_ context.Context, jti string) (bool, error) {
	_, ok := m.c.Get(revokedKey(jti))
	return ok, nil
}
