package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/chvpa/aura-engine/pkg/models"
)

// matchCacheKeyPrefix namespaces match results in Redis.
const matchCacheKeyPrefix = "match:"

// MatchCacheRepository caches computed match results keyed by (user, product).
// At most one current result exists per pair; writes replace wholesale.
type MatchCacheRepository interface {
	// Get returns the cached result for the pair, or nil on miss or store
	// unavailability.
	Get(ctx context.Context, userID string, productID uuid.UUID) (*models.MatchResult, error)

	// Put stores the result with the given time-to-live.
	Put(ctx context.Context, result *models.MatchResult, ttl time.Duration) error

	// InvalidateUser removes every cached result for the user. Called when a
	// preference profile changes so stale percentages are never served.
	InvalidateUser(ctx context.Context, userID string) error
}

type matchCacheRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewMatchCacheRepository creates a Redis-backed match result cache. A nil
// client yields an always-miss cache.
func NewMatchCacheRepository(client *redis.Client, logger *zap.Logger) MatchCacheRepository {
	return &matchCacheRepository{
		client: client,
		logger: logger.Named("match-cache"),
	}
}

var _ MatchCacheRepository = (*matchCacheRepository)(nil)

func (r *matchCacheRepository) Get(ctx context.Context, userID string, productID uuid.UUID) (*models.MatchResult, error) {
	if r.client == nil {
		return nil, nil
	}

	data, err := r.client.Get(ctx, matchCacheKey(userID, productID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("Match cache read failed, treating as miss", zap.Error(err))
		}
		return nil, nil
	}

	var result models.MatchResult
	if err := json.Unmarshal(data, &result); err != nil {
		r.logger.Warn("Match cache entry corrupt, treating as miss", zap.Error(err))
		return nil, nil
	}

	return &result, nil
}

func (r *matchCacheRepository) Put(ctx context.Context, result *models.MatchResult, ttl time.Duration) error {
	if r.client == nil {
		return nil
	}
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive, got %v", ttl)
	}

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal match result: %w", err)
	}

	key := matchCacheKey(result.UserID, result.ProductID)
	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write match result: %w", err)
	}
	return nil
}

func (r *matchCacheRepository) InvalidateUser(ctx context.Context, userID string) error {
	if r.client == nil {
		return nil
	}

	pattern := matchCacheKeyPrefix + userID + ":*"
	iter := r.client.Scan(ctx, 0, pattern, 0).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan match cache keys: %w", err)
	}

	if len(keys) == 0 {
		return nil
	}

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete match cache keys: %w", err)
	}
	return nil
}

func matchCacheKey(userID string, productID uuid.UUID) string {
	return matchCacheKeyPrefix + userID + ":" + productID.String()
}
