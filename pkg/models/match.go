package models

import (
	"time"

	"github.com/google/uuid"
)

// MatchProfile is a user's scent preference vector, created when onboarding
// completes. Read-only to the match scorer.
type MatchProfile struct {
	UserID      string     `json:"user_id"`
	Families    []string   `json:"families"`
	Intensity   *Intensity `json:"intensity,omitempty"`
	Occasions   []Occasion `json:"occasions"`
	Climates    []Climate  `json:"climates"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Complete reports whether onboarding finished for this profile. An incomplete
// profile must surface as "no match data", never as a 0% score.
func (p *MatchProfile) Complete() bool {
	return p != nil && p.CompletedAt != nil
}

// MatchResult is the compatibility score between one user and one product.
// At most one current result exists per (user, product); recomputation
// replaces it.
type MatchResult struct {
	UserID     string    `json:"user_id"`
	ProductID  uuid.UUID `json:"product_id"`
	Percentage int       `json:"percentage"`
	Reasons    []string  `json:"reasons,omitempty"`
	ComputedAt time.Time `json:"computed_at"`
}
