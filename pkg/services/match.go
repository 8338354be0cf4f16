package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chvpa/aura-engine/pkg/apperrors"
	"github.com/chvpa/aura-engine/pkg/models"
	"github.com/chvpa/aura-engine/pkg/repositories"
)

// Dimension weights for the match percentage. Families dominate because they
// are what onboarding mostly asks about; the three context dimensions split
// the rest evenly. Weights sum to 100.
const (
	weightFamilies  = 40.0
	weightIntensity = 20.0
	weightOccasion  = 20.0
	weightClimate   = 20.0
)

// MatchService computes compatibility scores between scent preference
// profiles and catalog products.
type MatchService interface {
	// Score returns the 0-100 match between the user's profile and the
	// product. A missing or incomplete profile yields
	// apperrors.ErrProfileIncomplete, never a silent 0%.
	Score(ctx context.Context, userID string, productID uuid.UUID) (*models.MatchResult, error)

	// GetProfile returns the user's scent profile, or apperrors.ErrNotFound.
	GetProfile(ctx context.Context, userID string) (*models.MatchProfile, error)

	// UpdateProfile persists the profile and invalidates the user's cached
	// match results so stale percentages are never served after an edit.
	UpdateProfile(ctx context.Context, profile *models.MatchProfile) error
}

type matchService struct {
	profileRepo repositories.ProfileRepository
	productRepo repositories.ProductRepository
	cache       repositories.MatchCacheRepository
	cacheTTL    time.Duration
	logger      *zap.Logger
}

// NewMatchService creates a new match scoring service.
func NewMatchService(
	profileRepo repositories.ProfileRepository,
	productRepo repositories.ProductRepository,
	cache repositories.MatchCacheRepository,
	cacheTTL time.Duration,
	logger *zap.Logger,
) MatchService {
	if cacheTTL <= 0 {
		cacheTTL = 7 * 24 * time.Hour
	}
	return &matchService{
		profileRepo: profileRepo,
		productRepo: productRepo,
		cache:       cache,
		cacheTTL:    cacheTTL,
		logger:      logger.Named("match"),
	}
}

var _ MatchService = (*matchService)(nil)

func (s *matchService) Score(ctx context.Context, userID string, productID uuid.UUID) (*models.MatchResult, error) {
	profile, err := s.profileRepo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrProfileIncomplete
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if !profile.Complete() {
		return nil, apperrors.ErrProfileIncomplete
	}

	// Cache hit within TTL short-circuits recomputation.
	if cached, _ := s.cache.Get(ctx, userID, productID); cached != nil {
		return cached, nil
	}

	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	percentage, reasons := scoreProduct(profile, product)
	result := &models.MatchResult{
		UserID:     userID,
		ProductID:  productID,
		Percentage: percentage,
		Reasons:    reasons,
		ComputedAt: time.Now(),
	}

	// A cache write failure must not fail the scoring call.
	if err := s.cache.Put(ctx, result, s.cacheTTL); err != nil {
		s.logger.Warn("Failed to cache match result",
			zap.String("user_id", userID),
			zap.String("product_id", productID.String()),
			zap.Error(err))
	}

	return result, nil
}

func (s *matchService) GetProfile(ctx context.Context, userID string) (*models.MatchProfile, error) {
	return s.profileRepo.Get(ctx, userID)
}

func (s *matchService) UpdateProfile(ctx context.Context, profile *models.MatchProfile) error {
	if err := s.profileRepo.Upsert(ctx, profile); err != nil {
		return err
	}

	// Invalidate-on-write: cached percentages computed against the old
	// profile must not outlive the edit.
	if err := s.cache.InvalidateUser(ctx, profile.UserID); err != nil {
		s.logger.Warn("Failed to invalidate match cache after profile update",
			zap.String("user_id", profile.UserID),
			zap.Error(err))
	}

	return nil
}

// scoreProduct computes the weighted overlap between profile and product.
// Deterministic for fixed inputs; always returns an integer in [0, 100].
func scoreProduct(profile *models.MatchProfile, product *models.Product) (int, []string) {
	var score float64
	var reasons []string

	if len(profile.Families) > 0 {
		matched := overlap(profile.Families, product.Families)
		if len(matched) > 0 {
			score += weightFamilies * float64(len(matched)) / float64(len(profile.Families))
			reasons = append(reasons, "Comparte tus familias olfativas favoritas: "+strings.Join(matched, ", "))
		}
	}

	if profile.Intensity != nil && *profile.Intensity == product.Intensity {
		score += weightIntensity
		reasons = append(reasons, "Tiene la intensidad que prefieres: "+string(product.Intensity))
	}

	if matched := overlapOccasions(profile.Occasions, product.Occasions); len(matched) > 0 {
		score += weightOccasion
		reasons = append(reasons, "Funciona para tus ocasiones: "+strings.Join(matched, ", "))
	}

	if matched := overlapClimates(profile.Climates, product.Climates); len(matched) > 0 {
		score += weightClimate
		reasons = append(reasons, "Pensado para tu clima: "+strings.Join(matched, ", "))
	}

	percentage := int(math.Round(score))
	if percentage < 0 {
		percentage = 0
	}
	if percentage > 100 {
		percentage = 100
	}

	return percentage, reasons
}

func overlap(want, have []string) []string {
	haveSet := make(map[string]bool, len(have))
	for _, h := range have {
		haveSet[h] = true
	}
	var matched []string
	for _, w := range want {
		if haveSet[w] {
			matched = append(matched, w)
		}
	}
	return matched
}

func overlapOccasions(want []models.Occasion, have []models.Occasion) []string {
	return overlap(occasionStrings(want), occasionStrings(have))
}

func overlapClimates(want []models.Climate, have []models.Climate) []string {
	return overlap(climateStrings(want), climateStrings(have))
}

func occasionStrings(values []models.Occasion) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

func climateStrings(values []models.Climate) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
