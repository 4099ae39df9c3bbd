package ranking

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	ws "github.com/gokatarajesh/trabalho-quiz/pkg/http/ws"
)

const (
	defaultChannel      = "ranking:updates"
	defaultPublishLimit = 10
)

// ServiceOptions configures ranking service behavior.
type ServiceOptions struct {
	CacheTTL      time.Duration
	PubSubChannel string
	PublishLimit  int
}

// Service serves ranking views from Redis, loading from Postgres on a miss,
// and announces changes over Pub/Sub.
type Service struct {
	store        Store
	redis        *redis.Client
	cache        *Cache
	sf           singleflight.Group
	channel      string
	publishLimit int
	logger       zerolog.Logger

	// mu orders cache fills against Invalidate; gen counts invalidations.
	mu  sync.RWMutex
	gen uint64
}

// NewService constructs a ranking service. A nil client disables caching and
// publishing.
func NewService(store Store, client *redis.Client, logger zerolog.Logger, opts ServiceOptions) *Service {
	channel := opts.PubSubChannel
	if channel == "" {
		channel = defaultChannel
	}
	limit := opts.PublishLimit
	if limit <= 0 {
		limit = defaultPublishLimit
	}

	s := &Service{
		store:        store,
		redis:        client,
		channel:      channel,
		publishLimit: limit,
		logger:       logger.With().Str("component", "ranking").Logger(),
	}
	if client != nil {
		s.cache = NewCache(client, opts.CacheTTL)
	}
	return s
}

// Channel returns the Pub/Sub channel updates are published on.
func (s *Service) Channel() string { return s.channel }

// Overall returns the ranking across every category.
func (s *Service) Overall(ctx context.Context) ([]Entry, error) {
	return cached(ctx, s, overallKey(), s.loadOverall)
}

// ByCategory returns the ranking restricted to one category.
func (s *Service) ByCategory(ctx context.Context, categoryID string) ([]Entry, error) {
	return cached(ctx, s, categoryKey(categoryID), func(ctx context.Context) ([]Entry, error) {
		return s.loadCategory(ctx, categoryID)
	})
}

// Categories returns participation stats per category.
func (s *Service) Categories(ctx context.Context) ([]CategoryStat, error) {
	return cached(ctx, s, categoriesKey(), s.loadCategories)
}

// Invalidate drops the cached views a new result in categoryID affects.
func (s *Service) Invalidate(ctx context.Context, categoryID string) error {
	if s.cache == nil {
		return nil
	}
	keys := []string{overallKey(), categoriesKey()}
	if categoryID != "" {
		keys = append(keys, categoryKey(categoryID))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	for _, key := range keys {
		s.sf.Forget(key)
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("invalidate ranking cache: %w", err)
	}
	return nil
}

// PublishUpdate publishes the current overall top to the update channel.
func (s *Service) PublishUpdate(ctx context.Context, categoryID string) error {
	if s.redis == nil {
		return nil
	}

	entries, err := s.Overall(ctx)
	if err != nil {
		return err
	}
	if len(entries) > s.publishLimit {
		entries = entries[:s.publishLimit]
	}

	top, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode ranking update: %w", err)
	}
	data, err := json.Marshal(ws.RankingUpdatePayload{CategoryID: categoryID, Top: top})
	if err != nil {
		return fmt.Errorf("encode ranking update: %w", err)
	}
	if err := s.redis.Publish(ctx, s.channel, data).Err(); err != nil {
		return fmt.Errorf("publish ranking update: %w", err)
	}
	return nil
}

// Refresh reloads every view from the store and rewrites the cache.
func (s *Service) Refresh(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	gen := s.generation()

	overall, err := s.loadOverall(ctx)
	if err != nil {
		return err
	}
	s.fill(ctx, gen, overallKey(), overall)

	stats, err := s.loadCategories(ctx)
	if err != nil {
		return err
	}
	s.fill(ctx, gen, categoriesKey(), stats)

	for _, stat := range stats {
		entries, err := s.loadCategory(ctx, stat.CategoryID)
		if err != nil {
			return err
		}
		s.fill(ctx, gen, categoryKey(stat.CategoryID), entries)
	}
	return nil
}

func (s *Service) loadOverall(ctx context.Context) ([]Entry, error) {
	rows, err := s.store.Overall(ctx)
	if err != nil {
		return nil, err
	}
	return fromOverallRows(rows)
}

func (s *Service) loadCategory(ctx context.Context, categoryID string) ([]Entry, error) {
	rows, err := s.store.ByCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	return fromCategoryRows(rows)
}

func (s *Service) loadCategories(ctx context.Context) ([]CategoryStat, error) {
	rows, err := s.store.Categories(ctx)
	if err != nil {
		return nil, err
	}
	return fromStatsRows(rows), nil
}

func (s *Service) generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}

// fill caches v unless Invalidate ran after gen was read, since v may then
// predate the result that triggered it.
func (s *Service) fill(ctx context.Context, gen uint64, key string, v interface{}) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.gen != gen {
		return
	}
	if err := s.cache.Set(ctx, key, v); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("ranking cache write failed")
	}
}

// cached serves key from Redis, collapsing concurrent misses into one load.
func cached[T any](ctx context.Context, s *Service, key string, load func(context.Context) (T, error)) (T, error) {
	if s.cache == nil {
		return load(ctx)
	}

	var hit T
	if ok, err := s.cache.Get(ctx, key, &hit); err == nil && ok {
		return hit, nil
	} else if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("ranking cache read failed")
	}

	v, err, _ := s.sf.Do(key, func() (interface{}, error) {
		var again T
		if ok, err := s.cache.Get(ctx, key, &again); err == nil && ok {
			return again, nil
		}
		gen := s.generation()
		fresh, err := load(ctx)
		if err != nil {
			return nil, err
		}
		s.fill(ctx, gen, key, fresh)
		return fresh, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}
