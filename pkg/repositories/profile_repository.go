package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/chvpa/aura-engine/pkg/apperrors"
	"github.com/chvpa/aura-engine/pkg/database"
	"github.com/chvpa/aura-engine/pkg/models"
)

// ProfileRepository provides data access for scent preference profiles.
type ProfileRepository interface {
	// Get returns a user's profile, or apperrors.ErrNotFound when the user
	// never started onboarding.
	Get(ctx context.Context, userID string) (*models.MatchProfile, error)

	// Upsert creates or replaces a user's profile.
	Upsert(ctx context.Context, profile *models.MatchProfile) error
}

type profileRepository struct {
	db *database.DB
}

// NewProfileRepository creates a new profile repository.
func NewProfileRepository(db *database.DB) ProfileRepository {
	return &profileRepository{db: db}
}

var _ ProfileRepository = (*profileRepository)(nil)

func (r *profileRepository) Get(ctx context.Context, userID string) (*models.MatchProfile, error) {
	query := `
		SELECT user_id, families, intensity, occasions, climates, completed_at, updated_at
		FROM scent_profiles
		WHERE user_id = $1`

	var p models.MatchProfile
	var intensity *string
	var occasions, climates []string

	err := r.db.QueryRow(ctx, query, userID).Scan(
		&p.UserID,
		&p.Families,
		&intensity,
		&occasions,
		&climates,
		&p.CompletedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get scent profile: %w", err)
	}

	if intensity != nil {
		v := models.Intensity(*intensity)
		p.Intensity = &v
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

func (r *profileRepository) Upsert(ctx context.Context, profile *models.MatchProfile) error {
	query := `
		INSERT INTO scent_profiles (user_id, families, intensity, occasions, climates, completed_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			families = EXCLUDED.families,
			intensity = EXCLUDED.intensity,
			occasions = EXCLUDED.occasions,
			climates = EXCLUDED.climates,
			completed_at = EXCLUDED.completed_at,
			updated_at = NOW()`

	var intensity *string
	if profile.Intensity != nil {
		v := string(*profile.Intensity)
		intensity = &v
	}

	occasions := make([]string, len(profile.Occasions))
	for i, o := range profile.Occasions {
		occasions[i] = string(o)
	}
	climates := make([]string, len(profile.Climates))
	for i, c := range profile.Climates {
		climates[i] = string(c)
	}

	_, err := r.db.Exec(ctx, query,
		profile.UserID,
		profile.Families,
		intensity,
		occasions,
		climates,
		profile.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert scent profile: %w", err)
	}

	return nil
}
