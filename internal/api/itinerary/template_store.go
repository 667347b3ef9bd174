package itinerary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/FACorreiaa/go-travel-agent-crm/internal/types"
)

// TemplateStore keeps one canonical itinerary per (normalized destination,
// day count). The first successful write for a key wins; later writes for the
// same key are no-ops.
type TemplateStore interface {
	// GetTemplate reports found=false with a nil error when nothing is stored.
	GetTemplate(ctx context.Context, key string, days int) (*types.ItineraryBody, bool, error)
	// PutTemplateIfAbsent reports inserted=false when a template already exists.
	PutTemplateIfAbsent(ctx context.Context, key string, days int, body types.ItineraryBody) (bool, error)
}

func templateCacheKey(key string, days int) string {
	return key + "|" + strconv.Itoa(days)
}

// decodeItineraryBody accepts the {"days":[...]} envelope and a bare array of
// days.
func decodeItineraryBody(raw []byte) (*types.ItineraryBody, error) {
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '[' {
		var days []types.DayPlan
		if err := json.Unmarshal(trimmed, &days); err != nil {
			return nil, fmt.Errorf("failed to decode itinerary days: %w", err)
		}
		if days == nil {
			days = []types.DayPlan{}
		}
		return &types.ItineraryBody{Days: days}, nil
	}

	var body types.ItineraryBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("failed to decode itinerary: %w", err)
	}
	if body.Days == nil {
		body.Days = []types.DayPlan{}
	}
	return &body, nil
}

// MemoryTemplateStore is a process-local TemplateStore used for development
// and tests. Entries never expire.
type MemoryTemplateStore struct {
	c *cache.Cache
}

var _ TemplateStore = (*MemoryTemplateStore)(nil)

func NewMemoryTemplateStore() *MemoryTemplateStore {
	return &MemoryTemplateStore{c: cache.New(cache.NoExpiration, 0)}
}

func (m *MemoryTemplateStore) GetTemplate(_ context.Context, key string, days int) (*types.ItineraryBody, bool, error) {
	v, ok := m.c.Get(templateCacheKey(key, days))
	if !ok {
		return nil, false, nil
	}
	body := v.(types.ItineraryBody).Clone()
	return &body, true, nil
}

func (m *MemoryTemplateStore) PutTemplateIfAbsent(_ context.Context, key string, days int, body types.ItineraryBody) (bool, error) {
	// Add fails when the key is already present.
	if err := m.c.Add(templateCacheKey(key, days), body.Clone(), cache.NoExpiration); err != nil {
		return false, nil
	}
	return true, nil
}

// CachedTemplateStore fronts a slower TemplateStore with an in-process
// go-cache. Only hits are cached.
type CachedTemplateStore struct {
	next   TemplateStore
	c      *cache.Cache
	logger *slog.Logger
}

var _ TemplateStore = (*CachedTemplateStore)(nil)

func NewCachedTemplateStore(next TemplateStore, ttl, cleanupInterval time.Duration, logger *slog.Logger) *CachedTemplateStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if cleanupInterval <= 0 {
		cleanupInterval = 2 * ttl
	}
	return &CachedTemplateStore{
		next:   next,
		c:      cache.New(ttl, cleanupInterval),
		logger: logger,
	}
}

func (s *CachedTemplateStore) GetTemplate(ctx context.Context, key string, days int) (*types.ItineraryBody, bool, error) {
	ck := templateCacheKey(key, days)
	if v, ok := s.c.Get(ck); ok {
		s.logger.DebugContext(ctx, "Template cache hit", slog.String("key", key), slog.Int("days", days))
		body := v.(types.ItineraryBody).Clone()
		return &body, true, nil
	}

	body, found, err := s.next.GetTemplate(ctx, key, days)
	if err != nil || !found {
		return body, found, err
	}
	s.c.Set(ck, body.Clone(), cache.DefaultExpiration)
	return body, true, nil
}

func (s *CachedTemplateStore) PutTemplateIfAbsent(ctx context.Context, key string, days int, body types.ItineraryBody) (bool, error) {
	inserted, err := s.next.PutTemplateIfAbsent(ctx, key, days, body)
	if err != nil {
		return false, err
	}
	if inserted {
		s.c.Set(templateCacheKey(key, days), body.Clone(), cache.DefaultExpiration)
	}
	return inserted, nil
}
