package repositories

import (
	"context"
	"fmt"

	"github.com/chvpa/aura-engine/pkg/database"
	"github.com/chvpa/aura-engine/pkg/models"
)

// SearchHistoryRepository provides data access for the aggregated search
// history used by popularity analytics.
type SearchHistoryRepository interface {
	// Record upserts one observation of a normalized query, incrementing its
	// hit count.
	Record(ctx context.Context, normalizedQuery, rawQuery string) error

	// Popular returns the top-N normalized queries by frequency descending,
	// ties broken by query text. An empty history yields an empty slice.
	Popular(ctx context.Context, limit int) ([]*models.PopularSearch, error)
}

type searchHistoryRepository struct {
	db *database.DB
}

// NewSearchHistoryRepository creates a new search history repository.
func NewSearchHistoryRepository(db *database.DB) SearchHistoryRepository {
	return &searchHistoryRepository{db: db}
}

var _ SearchHistoryRepository = (*searchHistoryRepository)(nil)

func (r *searchHistoryRepository) Record(ctx context.Context, normalizedQuery, rawQuery string) error {
	query := `
		INSERT INTO search_history (normalized_query, last_raw_query, hit_count, last_searched_at)
		VALUES ($1, $2, 1, NOW())
		ON CONFLICT (normalized_query) DO UPDATE SET
			last_raw_query = EXCLUDED.last_raw_query,
			hit_count = search_history.hit_count + 1,
			last_searched_at = NOW()`

	if _, err := r.db.Exec(ctx, query, normalizedQuery, rawQuery); err != nil {
		return fmt.Errorf("failed to record search: %w", err)
	}
	return nil
}

func (r *searchHistoryRepository) Popular(ctx context.Context, limit int) ([]*models.PopularSearch, error) {
	if limit < 1 {
		limit = 10
	}

	query := `
		SELECT normalized_query, hit_count
		FROM search_history
		ORDER BY hit_count DESC, normalized_query
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query popular searches: %w", err)
	}
	defer rows.Close()

	var searches []*models.PopularSearch
	for rows.Next() {
		var s models.PopularSearch
		if err := rows.Scan(&s.Query, &s.HitCount); err != nil {
			return nil, fmt.Errorf("failed to scan popular search: %w", err)
		}
		searches = append(searches, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read popular searches: %w", err)
	}

	return searches, nil
}
