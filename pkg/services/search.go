package services

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/chvpa/aura-engine/pkg/apperrors"
	"github.com/chvpa/aura-engine/pkg/models"
	"github.com/chvpa/aura-engine/pkg/repositories"
)

// historyRecordTimeout bounds the detached history write.
const historyRecordTimeout = 5 * time.Second

// SearchService orchestrates a search request: interpret the query, consult
// the interpretation cache, run the catalog query, and record history.
type SearchService interface {
	// Search answers one free-text search. Past input validation it
	// essentially never hard-fails: interpreter failures degrade to the
	// keyword fallback and cache failures degrade to misses.
	Search(ctx context.Context, query string, page, pageSize int) (*models.SearchResponse, error)

	// PopularSearches returns the most frequent normalized queries,
	// descending by frequency. An empty history yields an empty slice.
	PopularSearches(ctx context.Context) ([]string, error)
}

// SearchConfig holds orchestrator tuning.
type SearchConfig struct {
	// CacheTTL is how long interpretations stay cached.
	CacheTTL time.Duration
	// PopularLimit is how many popular searches are returned.
	PopularLimit int
}

type searchService struct {
	interpreter  InterpreterService
	catalog      CatalogService
	cache        repositories.SearchCacheRepository
	history      repositories.SearchHistoryRepository
	cacheTTL     time.Duration
	popularLimit int
	logger       *zap.Logger
}

// NewSearchService creates a new search orchestrator.
func NewSearchService(
	interpreter InterpreterService,
	catalog CatalogService,
	cache repositories.SearchCacheRepository,
	history repositories.SearchHistoryRepository,
	cfg SearchConfig,
	logger *zap.Logger,
) SearchService {
	cacheTTL := cfg.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = 24 * time.Hour
	}
	popularLimit := cfg.PopularLimit
	if popularLimit < 1 {
		popularLimit = 10
	}
	return &searchService{
		interpreter:  interpreter,
		catalog:      catalog,
		cache:        cache,
		history:      history,
		cacheTTL:     cacheTTL,
		popularLimit: popularLimit,
		logger:       logger.Named("search"),
	}
}

var _ SearchService = (*searchService)(nil)

func (s *searchService) Search(ctx context.Context, query string, page, pageSize int) (*models.SearchResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.ErrEmptyQuery
	}

	normalized := models.NormalizeQuery(query)

	// Record the raw query for popularity analytics regardless of whether
	// interpretation succeeds. Detached from the response path: it must not
	// block or fail the search.
	s.recordQuery(normalized, query)

	interp := s.lookupOrInterpret(ctx, query, normalized)

	// The catalog query always runs live: only the expensive interpretation
	// is cached, catalog contents (stock, price) are not.
	products, total, err := s.catalog.Query(ctx, interp.Filters, page, pageSize)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []*models.Product{}
	}

	return &models.SearchResponse{
		Products:    products,
		Total:       total,
		Filters:     interp.Filters,
		Explanation: interp.Explanation,
		Context:     interp.Context,
	}, nil
}

// lookupOrInterpret returns the cached interpretation for the normalized
// query, or interprets afresh and caches the result; fallback interpretations
// are served but never cached. Two concurrent misses for the same query may
// both interpret and both write; the last write wins.
func (s *searchService) lookupOrInterpret(ctx context.Context, query, normalized string) *models.Interpretation {
	if entry, _ := s.cache.Get(ctx, normalized); entry != nil {
		return &models.Interpretation{
			Filters:     entry.Filters,
			Context:     entry.Context,
			Explanation: entry.Explanation,
			Fallback:    entry.Fallback,
		}
	}

	// Interpret never fails for non-empty queries; the fallback absorbs
	// model errors. Emptiness was already rejected.
	interp, err := s.interpreter.Interpret(ctx, query)
	if err != nil {
		s.logger.Error("Interpreter rejected query unexpectedly", zap.Error(err))
		interp = &models.Interpretation{Fallback: true}
	}

	// Only successful model interpretations are cached. Caching the keyword
	// fallback would pin the query to the degraded result for the whole TTL
	// after the model recovers.
	if interp.Fallback {
		return interp
	}

	now := time.Now()
	entry := &models.SearchCacheEntry{
		NormalizedQuery: normalized,
		Context:         interp.Context,
		Filters:         interp.Filters,
		Explanation:     interp.Explanation,
		Fallback:        interp.Fallback,
		CreatedAt:       now,
		ExpiresAt:       now.Add(s.cacheTTL),
	}
	if err := s.cache.Put(ctx, entry, s.cacheTTL); err != nil {
		s.logger.Warn("Failed to cache interpretation",
			zap.String("query", normalized),
			zap.Error(err))
	}

	return interp
}

// recordQuery dispatches the history write on a detached goroutine with its
// own deadline and error logging.
func (s *searchService) recordQuery(normalized, raw string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), historyRecordTimeout)
		defer cancel()

		if err := s.history.Record(ctx, normalized, raw); err != nil {
			s.logger.Warn("Failed to record search history",
				zap.String("query", normalized),
				zap.Error(err))
		}
	}()
}

func (s *searchService) PopularSearches(ctx context.Context) ([]string, error) {
	popular, err := s.history.Popular(ctx, s.popularLimit)
	if err != nil {
		s.logger.Error("Failed to list popular searches", zap.Error(err))
		return nil, err
	}

	searches := make([]string, 0, len(popular))
	for _, p := range popular {
		searches = append(searches, p.Query)
	}
	return searches, nil
}
