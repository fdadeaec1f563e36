package stats

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yusufkecer/healthhub/internal/cache"
)

var ErrEmptyQuery = errors.New("country name is required")

// Cache stores finished search results keyed by normalised query.
type Cache interface {
	Get(ctx context.Context, key string) (*Result, bool, error)
	Set(ctx context.Context, key string, r *Result, ttl time.Duration) error
}

type Service struct {
	client *Client
	cache  Cache
	ttl    time.Duration
	log    *zap.Logger
	now    func() time.Time
}

// NewService wires the aggregator. A nil cache or a zero ttl disables
// caching.
func NewService(client *Client, c Cache, ttl time.Duration, log *zap.Logger) *Service {
	return &Service{client: client, cache: c, ttl: ttl, log: log, now: time.Now}
}

func cacheKey(query string) string {
	return "stats:" + strings.ToLower(query)
}

// FailureMessage is what the statistics page shows when the country lookup
// itself fails.
func FailureMessage(query string) string {
	return fmt.Sprintf("Failed to find REAL health statistics for %q. COVID-19 is available; other sources may be limited or blocked.", query)
}

// Search runs one country lookup. On failure the returned Result still
// carries the search log so callers can show what happened.
func (s *Service) Search(ctx context.Context, query string) (*Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	if s.cache != nil && s.ttl > 0 {
		cached, ok, err := s.cache.Get(ctx, cacheKey(query))
		if err != nil {
			s.log.Warn("stats cache read failed", zap.String("query", query), zap.Error(err))
		} else if ok {
			cached.Cached = true
			return cached, nil
		}
	}

	l := newSearchLog(s.log.With(zap.String("query", query)))
	l.note(fmt.Sprintf("Starting REAL data search for %q", query))
	l.note("Using sources: COVID-19 (disease.sh), World Bank (TB/HIV/Malaria), OWID (Measles), CDC NNDSS (US weekly)")

	country, err := s.client.FetchCountry(ctx, query, l)
	if err != nil {
		l.fail("REAL data search failed", err.Error())
		return &Result{Query: query, Logs: l.snapshot()}, err
	}

	reports := s.client.FetchNotifiable(ctx, country, l)
	name := country.Country
	if name == "" {
		name = query
	}
	l.note(fmt.Sprintf("REAL data search completed for %s!", name))

	result := &Result{
		Query:       query,
		Country:     *country,
		HealthStats: BuildHealthStats(country, reports),
		Reports:     reports,
		IsReal:      true,
		LastUpdated: s.now().UTC(),
		Logs:        l.snapshot(),
	}
	if result.Reports == nil {
		result.Reports = []Report{}
	}

	if s.cache != nil && s.ttl > 0 {
		if err := s.cache.Set(ctx, cacheKey(query), result, s.ttl); err != nil {
			s.log.Warn("stats cache write failed", zap.String("query", query), zap.Error(err))
		}
	}
	return result, nil
}

// MemoryCache keeps results in process memory.
type MemoryCache struct {
	c *cache.Cache
}

func NewMemoryCache(c *cache.Cache) *MemoryCache {
	return &MemoryCache{c: c}
}

func (m *MemoryCache) Get(_ context.Context, key string) (*Result, bool, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	r, ok := v.(Result)
	if !ok {
		return nil, false, nil
	}
	return &r, true, nil
}

// Set stores a copy so later mutation by the caller cannot leak into the
// cached value.
func (m *MemoryCache) Set(_ context.Context, key string, r *Result, ttl time.Duration) error {
	m.c.SetWithTTL(key, *r, ttl)
	return nil
}
