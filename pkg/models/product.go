package models

import (
	"time"

	"github.com/google/uuid"
)

// Brand is a perfume house in the catalog.
type Brand struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Country *string   `json:"country,omitempty"`
}

// Product is a catalog item. Families, Occasions and Climates carry the
// vocabulary slugs/values the scorer and filters operate on.
type Product struct {
	ID          uuid.UUID  `json:"id"`
	BrandID     uuid.UUID  `json:"brand_id"`
	BrandName   string     `json:"brand_name"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Gender      Gender     `json:"gender"`
	Intensity   Intensity  `json:"intensity"`
	Price       float64    `json:"price"`
	Families    []string   `json:"families"`
	Occasions   []Occasion `json:"occasions"`
	Climates    []Climate  `json:"climates"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// PopularSearch is one entry of the aggregated search history.
type PopularSearch struct {
	Query    string `json:"query"`
	HitCount int    `json:"hit_count"`
}
