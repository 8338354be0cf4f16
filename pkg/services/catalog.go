package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chvpa/aura-engine/pkg/models"
	"github.com/chvpa/aura-engine/pkg/repositories"
)

// CatalogService executes structured filters against the product catalog.
type CatalogService interface {
	// Query runs the filters with 1-indexed pagination. Out-of-range page and
	// pageSize values are clamped, never rejected.
	Query(ctx context.Context, filters models.ProductFilters, page, pageSize int) ([]*models.Product, int, error)

	// GetByID returns one product, or apperrors.ErrNotFound.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type catalogService struct {
	productRepo repositories.ProductRepository
	logger      *zap.Logger
}

// NewCatalogService creates a new catalog query service.
func NewCatalogService(productRepo repositories.ProductRepository, logger *zap.Logger) CatalogService {
	return &catalogService{
		productRepo: productRepo,
		logger:      logger.Named("catalog"),
	}
}

var _ CatalogService = (*catalogService)(nil)

func (s *catalogService) Query(ctx context.Context, filters models.ProductFilters, page, pageSize int) ([]*models.Product, int, error) {
	products, total, err := s.productRepo.Query(ctx, filters, page, pageSize)
	if err != nil {
		s.logger.Error("Failed to query catalog", zap.Error(err))
		return nil, 0, err
	}
	return products, total, nil
}

func (s *catalogService) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return product, nil
}
