package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chvpa/aura-engine/pkg/apperrors"
	"github.com/chvpa/aura-engine/pkg/models"
)

// mockProfileRepository is a mock for testing.
type mockProfileRepository struct {
	profiles map[string]*models.MatchProfile
	getErr   error
}

func newMockProfileRepo() *mockProfileRepository {
	return &mockProfileRepository{profiles: make(map[string]*models.MatchProfile)}
}

func (m *mockProfileRepository) Get(ctx context.Context, userID string) (*models.MatchProfile, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	profile, ok := m.profiles[userID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return profile, nil
}

func (m *mockProfileRepository) Upsert(ctx context.Context, profile *models.MatchProfile) error {
	m.profiles[profile.UserID] = profile
	return nil
}

// mockProductRepository is a mock for testing.
type mockProductRepository struct {
	mu        sync.Mutex
	products  map[uuid.UUID]*models.Product
	queryable []*models.Product
	queries   int
}

func newMockProductRepo() *mockProductRepository {
	return &mockProductRepository{products: make(map[uuid.UUID]*models.Product)}
}

func (m *mockProductRepository) Query(ctx context.Context, filters models.ProductFilters, page, pageSize int) ([]*models.Product, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries++
	return m.queryable, len(m.queryable), nil
}

func (m *mockProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, ok := m.products[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return product, nil
}

// mockMatchCacheRepository is a mock for testing.
type mockMatchCacheRepository struct {
	results       map[string]*models.MatchResult
	putErr        error
	puts          int
	invalidated   []string
	invalidateErr error
}

func newMockMatchCacheRepo() *mockMatchCacheRepository {
	return &mockMatchCacheRepository{results: make(map[string]*models.MatchResult)}
}

func matchKey(userID string, productID uuid.UUID) string {
	return userID + ":" + productID.String()
}

func (m *mockMatchCacheRepository) Get(ctx context.Context, userID string, productID uuid.UUID) (*models.MatchResult, error) {
	return m.results[matchKey(userID, productID)], nil
}

func (m *mockMatchCacheRepository) Put(ctx context.Context, result *models.MatchResult, ttl time.Duration) error {
	m.puts++
	if m.putErr != nil {
		return m.putErr
	}
	m.results[matchKey(result.UserID, result.ProductID)] = result
	return nil
}

func (m *mockMatchCacheRepository) InvalidateUser(ctx context.Context, userID string) error {
	if m.invalidateErr != nil {
		return m.invalidateErr
	}
	m.invalidated = append(m.invalidated, userID)
	for key := range m.results {
		if len(key) > len(userID) && key[:len(userID)+1] == userID+":" {
			delete(m.results, key)
		}
	}
	return nil
}

func intensityPtr(i models.Intensity) *models.Intensity { return &i }

func completedProfile(userID string) *models.MatchProfile {
	now := time.Now()
	return &models.MatchProfile{
		UserID:      userID,
		Families:    []string{"citricos", "frescos"},
		Intensity:   intensityPtr(models.IntensityLigera),
		Occasions:   []models.Occasion{models.OccasionDiario},
		Climates:    []models.Climate{models.ClimateCalido},
		CompletedAt: &now,
	}
}

func TestMatchService_Score_FullMatch(t *testing.T) {
	profileRepo := newMockProfileRepo()
	productRepo := newMockProductRepo()
	cache := newMockMatchCacheRepo()
	svc := NewMatchService(profileRepo, productRepo, cache, time.Hour, zap.NewNop())

	userID := "user-1"
	profileRepo.profiles[userID] = completedProfile(userID)

	productID := uuid.New()
	productRepo.products[productID] = &models.Product{
		ID:        productID,
		Name:      "Aurea Citrus",
		Intensity: models.IntensityLigera,
		Families:  []string{"citricos", "frescos"},
		Occasions: []models.Occasion{models.OccasionDiario, models.OccasionDeporte},
		Climates:  []models.Climate{models.ClimateCalido},
	}

	result, err := svc.Score(context.Background(), userID, productID)
	require.NoError(t, err)
	assert.Equal(t, 100, result.Percentage)
	assert.Len(t, result.Reasons, 4)
	assert.Equal(t, userID, result.UserID)
	assert.Equal(t, productID, result.ProductID)
	assert.False(t, result.ComputedAt.IsZero())
}

func TestMatchService_Score_PartialFamilies(t *testing.T) {
	profileRepo := newMockProfileRepo()
	productRepo := newMockProductRepo()
	cache := newMockMatchCacheRepo()
	svc := NewMatchService(profileRepo, productRepo, cache, time.Hour, zap.NewNop())

	userID := "user-1"
	profileRepo.profiles[userID] = completedProfile(userID)

	// One of two profile families matches, nothing else does: 40 * 1/2 = 20.
	productID := uuid.New()
	productRepo.products[productID] = &models.Product{
		ID:        productID,
		Intensity: models.IntensityIntensa,
		Families:  []string{"citricos", "orientales"},
		Occasions: []models.Occasion{models.OccasionFiesta},
		Climates:  []models.Climate{models.ClimateFrio},
	}

	result, err := svc.Score(context.Background(), userID, productID)
	require.NoError(t, err)
	assert.Equal(t, 20, result.Percentage)
	require.Len(t, result.Reasons, 1)
	assert.Contains(t, result.Reasons[0], "citricos")
}

func TestMatchService_Score_NoOverlap(t *testing.T) {
	profileRepo := newMockProfileRepo()
	productRepo := newMockProductRepo()
	cache := newMockMatchCacheRepo()
	svc := NewMatchService(profileRepo, productRepo, cache, time.Hour, zap.NewNop())

	userID := "user-1"
	profileRepo.profiles[userID] = completedProfile(userID)

	productID := uuid.New()
	productRepo.products[productID] = &models.Product{
		ID:        productID,
		Intensity: models.IntensityIntensa,
		Families:  []string{"cuero"},
		Occasions: []models.Occasion{models.OccasionFormal},
		Climates:  []models.Climate{models.ClimateFrio},
	}

	result, err := svc.Score(context.Background(), userID, productID)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Percentage)
	assert.Empty(t, result.Reasons)
}

func TestMatchService_Score_NoProfile(t *testing.T) {
	profileRepo := newMockProfileRepo()
	productRepo := newMockProductRepo()
	cache := newMockMatchCacheRepo()
	svc := NewMatchService(profileRepo, productRepo, cache, time.Hour, zap.NewNop())

	_, err := svc.Score(context.Background(), "stranger", uuid.New())
	require.ErrorIs(t, err, apperrors.ErrProfileIncomplete)
}

func TestMatchService_Score_WrappedNotFoundProfile(t *testing.T) {
	profileRepo := newMockProfileRepo()
	profileRepo.getErr = fmt.Errorf("get profile row: %w", apperrors.ErrNotFound)
	productRepo := newMockProductRepo()
	cache := newMockMatchCacheRepo()
	svc := NewMatchService(profileRepo, productRepo, cache, time.Hour, zap.NewNop())

	_, err := svc.Score(context.Background(), "stranger", uuid.New())
	require.ErrorIs(t, err, apperrors.ErrProfileIncomplete)
}

func TestMatchService_Score_IncompleteProfile(t *testing.T) {
	profileRepo := newMockProfileRepo()
	productRepo := newMockProductRepo()
	cache := newMockMatchCacheRepo()
	svc := NewMatchService(profileRepo, productRepo, cache, time.Hour, zap.NewNop())

	userID := "user-1"
	profile := completedProfile(userID)
	profile.CompletedAt = nil
	profileRepo.profiles[userID] = profile

	_, err := svc.Score(context.Background(), userID, uuid.New())
	require.ErrorIs(t, err, apperrors.ErrProfileIncomplete)
}

func TestMatchService_Score_UnknownProduct(t *testing.T) {
	profileRepo := newMockProfileRepo()
	productRepo := newMockProductRepo()
	cache := newMockMatchCacheRepo()
	svc := NewMatchService(profileRepo, productRepo, cache, time.Hour, zap.NewNop())

	userID := "user-1"
	profileRepo.profiles[userID] = completedProfile(userID)

	_, err := svc.Score(context.Background(), userID, uuid.New())
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestMatchService_Score_CacheHitShortCircuits(t *testing.T) {
	profileRepo := newMockProfileRepo()
	productRepo := newMockProductRepo()
	cache := newMockMatchCacheRepo()
	svc := NewMatchService(profileRepo, productRepo, cache, time.Hour, zap.NewNop())

	userID := "user-1"
	profileRepo.profiles[userID] = completedProfile(userID)

	productID := uuid.New()
	cached := &models.MatchResult{
		UserID:     userID,
		ProductID:  productID,
		Percentage: 73,
		ComputedAt: time.Now(),
	}
	cache.results[matchKey(userID, productID)] = cached

	// Product intentionally absent from the repo: a lookup would fail.
	result, err := svc.Score(context.Background(), userID, productID)
	require.NoError(t, err)
	assert.Equal(t, 73, result.Percentage)
	assert.Equal(t, 0, cache.puts)
}

func TestMatchService_Score_CacheWriteFailureTolerated(t *testing.T) {
	profileRepo := newMockProfileRepo()
	productRepo := newMockProductRepo()
	cache := newMockMatchCacheRepo()
	cache.putErr = fmt.Errorf("redis down")
	svc := NewMatchService(profileRepo, productRepo, cache, time.Hour, zap.NewNop())

	userID := "user-1"
	profileRepo.profiles[userID] = completedProfile(userID)

	productID := uuid.New()
	productRepo.products[productID] = &models.Product{
		ID:       productID,
		Families: []string{"citricos"},
	}

	result, err := svc.Score(context.Background(), userID, productID)
	require.NoError(t, err)
	assert.Equal(t, 20, result.Percentage)
	assert.Equal(t, 1, cache.puts)
}

func TestMatchService_UpdateProfile_InvalidatesCache(t *testing.T) {
	profileRepo := newMockProfileRepo()
	productRepo := newMockProductRepo()
	cache := newMockMatchCacheRepo()
	svc := NewMatchService(profileRepo, productRepo, cache, time.Hour, zap.NewNop())

	userID := "user-1"
	productID := uuid.New()
	cache.results[matchKey(userID, productID)] = &models.MatchResult{
		UserID:     userID,
		ProductID:  productID,
		Percentage: 50,
	}

	err := svc.UpdateProfile(context.Background(), completedProfile(userID))
	require.NoError(t, err)
	assert.Equal(t, []string{userID}, cache.invalidated)
	assert.Empty(t, cache.results)
	assert.NotNil(t, profileRepo.profiles[userID])
}

func TestMatchService_UpdateProfile_InvalidationFailureTolerated(t *testing.T) {
	profileRepo := newMockProfileRepo()
	productRepo := newMockProductRepo()
	cache := newMockMatchCacheRepo()
	cache.invalidateErr = fmt.Errorf("redis down")
	svc := NewMatchService(profileRepo, productRepo, cache, time.Hour, zap.NewNop())

	err := svc.UpdateProfile(context.Background(), completedProfile("user-1"))
	require.NoError(t, err)
	assert.NotNil(t, profileRepo.profiles["user-1"])
}

func TestScoreProduct_Deterministic(t *testing.T) {
	profile := completedProfile("user-1")
	product := &models.Product{
		Intensity: models.IntensityLigera,
		Families:  []string{"frescos"},
		Occasions: []models.Occasion{models.OccasionDiario},
	}

	first, firstReasons := scoreProduct(profile, product)
	for i := 0; i < 5; i++ {
		again, againReasons := scoreProduct(profile, product)
		assert.Equal(t, first, again)
		assert.Equal(t, firstReasons, againReasons)
	}
	// 40/2 families + 20 intensity + 20 occasion.
	assert.Equal(t, 60, first)
}

func TestScoreProduct_EmptyProfileFamilies(t *testing.T) {
	now := time.Now()
	profile := &models.MatchProfile{
		UserID:      "user-1",
		Intensity:   intensityPtr(models.IntensityModerada),
		CompletedAt: &now,
	}
	product := &models.Product{
		Intensity: models.IntensityModerada,
		Families:  []string{"florales"},
	}

	percentage, reasons := scoreProduct(profile, product)
	assert.Equal(t, 20, percentage)
	require.Len(t, reasons, 1)
	assert.Contains(t, reasons[0], "Moderada")
}
