package repositories

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/chvpa/aura-engine/pkg/models"
)

// searchCacheKeyPrefix namespaces interpretation entries in Redis.
const searchCacheKeyPrefix = "search:interp:"

// SearchCacheRepository persists interpreted-query results keyed by normalized
// query text. Misses, expired entries and store unavailability all surface as
// (nil, nil): callers must not distinguish them.
type SearchCacheRepository interface {
	// Get returns the live entry for the normalized query, or nil.
	Get(ctx context.Context, normalizedQuery string) (*models.SearchCacheEntry, error)

	// Put stores the entry with the given time-to-live, replacing any previous
	// value for the same normalized query.
	Put(ctx context.Context, entry *models.SearchCacheEntry, ttl time.Duration) error
}

type searchCacheRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewSearchCacheRepository creates a Redis-backed search cache. A nil client
// yields an always-miss cache (reads miss, writes are dropped).
func NewSearchCacheRepository(client *redis.Client, logger *zap.Logger) SearchCacheRepository {
	return &searchCacheRepository{
		client: client,
		logger: logger.Named("search-cache"),
	}
}

var _ SearchCacheRepository = (*searchCacheRepository)(nil)

func (r *searchCacheRepository) Get(ctx context.Context, normalizedQuery string) (*models.SearchCacheEntry, error) {
	if r.client == nil {
		return nil, nil
	}

	data, err := r.client.Get(ctx, searchCacheKey(normalizedQuery)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			// Store unavailability is an unconditional miss, never an error.
			r.logger.Warn("Search cache read failed, treating as miss", zap.Error(err))
		}
		return nil, nil
	}

	var entry models.SearchCacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		r.logger.Warn("Search cache entry corrupt, treating as miss", zap.Error(err))
		return nil, nil
	}

	// Redis expiry already evicts, but the entry carries its own expiry so a
	// clock-skewed or persisted record is still never served stale.
	if entry.Expired(time.Now()) {
		return nil, nil
	}

	return &entry, nil
}

func (r *searchCacheRepository) Put(ctx context.Context, entry *models.SearchCacheEntry, ttl time.Duration) error {
	if r.client == nil {
		return nil
	}
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive, got %v", ttl)
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	if err := r.client.Set(ctx, searchCacheKey(entry.NormalizedQuery), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// searchCacheKey hashes the normalized query so arbitrary user text never
// shapes the key space.
func searchCacheKey(normalizedQuery string) string {
	sum := sha256.Sum256([]byte(normalizedQuery))
	return searchCacheKeyPrefix + hex.EncodeToString(sum[:])
}
