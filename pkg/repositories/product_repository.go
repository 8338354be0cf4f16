package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/chvpa/aura-engine/pkg/apperrors"
	"github.com/chvpa/aura-engine/pkg/database"
	"github.com/chvpa/aura-engine/pkg/models"
)

// DefaultPageSize is used when the caller supplies a page size below 1.
const DefaultPageSize = 20

// MaxPageSize caps a single catalog page.
const MaxPageSize = 100

// ProductRepository provides data access for the product catalog.
type ProductRepository interface {
	// Query executes the filters with pagination, returning the page of
	// products plus the total count of matching rows.
	Query(ctx context.Context, filters models.ProductFilters, page, pageSize int) ([]*models.Product, int, error)

	// GetByID returns one product, or apperrors.ErrNotFound.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type productRepository struct {
	db *database.DB
}

// NewProductRepository creates a new product repository.
func NewProductRepository(db *database.DB) ProductRepository {
	return &productRepository{db: db}
}

var _ ProductRepository = (*productRepository)(nil)

const productColumns = `
	p.id, p.brand_id, b.name, p.name, p.description, p.gender, p.intensity,
	p.price, p.families, p.occasions, p.climates, p.is_active, p.created_at, p.updated_at`

// Query applies all filter dimensions ANDed together; membership within a
// list-valued dimension is ORed. A ProductIDs allowlist overrides every other
// filter. Pagination is 1-indexed: page < 1 is clamped to 1, pageSize < 1 to
// DefaultPageSize, and pageSize is capped at MaxPageSize.
func (r *productRepository) Query(ctx context.Context, filters models.ProductFilters, page, pageSize int) ([]*models.Product, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	conditions, args := buildProductConditions(filters)
	where := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM products p
		JOIN brands b ON b.id = p.brand_id
		WHERE %s`, where)

	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM products p
		JOIN brands b ON b.id = p.brand_id
		WHERE %s
		ORDER BY p.created_at DESC, p.id
		LIMIT $%d OFFSET $%d`, productColumns, where, len(args)+1, len(args)+2)
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read products: %w", err)
	}

	return products, total, nil
}

func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM products p
		JOIN brands b ON b.id = p.brand_id
		WHERE p.id = $1`, productColumns)

	row := r.db.QueryRow(ctx, query, id)
	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}

	return product, nil
}

// buildProductConditions turns filters into SQL conditions and args.
// The allowlist short-circuits every other dimension.
func buildProductConditions(filters models.ProductFilters) ([]string, []any) {
	if len(filters.ProductIDs) > 0 {
		return []string{"p.id = ANY($1::uuid[])"}, []any{uuidStrings(filters.ProductIDs)}
	}

	conditions := []string{"TRUE"}
	var args []any
	argIdx := 1

	if !filters.IncludeInactive {
		conditions = append(conditions, "p.is_active")
	}

	if len(filters.BrandIDs) > 0 {
		conditions = append(conditions, fmt.Sprintf("p.brand_id = ANY($%d::uuid[])", argIdx))
		args = append(args, uuidStrings(filters.BrandIDs))
		argIdx++
	}

	if len(filters.Families) > 0 {
		conditions = append(conditions, fmt.Sprintf("p.families && $%d", argIdx))
		args = append(args, filters.Families)
		argIdx++
	}

	if filters.Gender != nil {
		conditions = append(conditions, fmt.Sprintf("p.gender = $%d", argIdx))
		args = append(args, string(*filters.Gender))
		argIdx++
	}

	if filters.PriceMin != nil {
		conditions = append(conditions, fmt.Sprintf("p.price >= $%d", argIdx))
		args = append(args, *filters.PriceMin)
		argIdx++
	}

	if filters.PriceMax != nil {
		conditions = append(conditions, fmt.Sprintf("p.price <= $%d", argIdx))
		args = append(args, *filters.PriceMax)
		argIdx++
	}

	if filters.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(p.name ILIKE $%d OR p.description ILIKE $%d)", argIdx, argIdx))
		args = append(args, "%"+filters.Search+"%")
		argIdx++
	}

	return conditions, args
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func scanProduct(row pgx.Row) (*models.Product, error) {
	var p models.Product
	var occasions, climates []string

	err := row.Scan(
		&p.ID,
		&p.BrandID,
		&p.BrandName,
		&p.Name,
		&p.Description,
		&p.Gender,
		&p.Intensity,
		&p.Price,
		&p.Families,
		&occasions,
		&climates,
		&p.IsActive,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}

	p.Occasions = make([]models.Occasion, len(occasions))
	for i, o := range occasions {
		p.Occasions[i] = models.Occasion(o)
	}
	p.Climates = make([]models.Climate, len(climates))
	for i, c := range climates {
		p.Climates[i] = models.Climate(c)
	}

	return &p, nil
}
