package handlers

import (
	"context"

	"github.com/google/uuid"

	"github.com/chvpa/aura-engine/pkg/models"
)

// mockSearchService is a mock for testing.
type mockSearchService struct {
	searchFunc  func(ctx context.Context, query string, page, pageSize int) (*models.SearchResponse, error)
	popularFunc func(ctx context.Context) ([]string, error)
}

func (m *mockSearchService) Search(ctx context.Context, query string, page, pageSize int) (*models.SearchResponse, error) {
	return m.searchFunc(ctx, query, page, pageSize)
}

func (m *mockSearchService) PopularSearches(ctx context.Context) ([]string, error) {
	return m.popularFunc(ctx)
}

// mockMatchService is a mock for testing.
type mockMatchService struct {
	scoreFunc      func(ctx context.Context, userID string, productID uuid.UUID) (*models.MatchResult, error)
	getProfileFunc func(ctx context.Context, userID string) (*models.MatchProfile, error)
	updateFunc     func(ctx context.Context, profile *models.MatchProfile) error
}

func (m *mockMatchService) Score(ctx context.Context, userID string, productID uuid.UUID) (*models.MatchResult, error) {
	return m.scoreFunc(ctx, userID, productID)
}

func (m *mockMatchService) GetProfile(ctx context.Context, userID string) (*models.MatchProfile, error) {
	return m.getProfileFunc(ctx, userID)
}

func (m *mockMatchService) UpdateProfile(ctx context.Context, profile *models.MatchProfile) error {
	return m.updateFunc(ctx, profile)
}
