package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Gender is the target audience of a fragrance.
type Gender string

const (
	GenderHombre Gender = "Hombre"
	GenderMujer  Gender = "Mujer"
	GenderUnisex Gender = "Unisex"
)

// Occasion is the wearing occasion a fragrance suits.
type Occasion string

const (
	OccasionDiario  Occasion = "Diario"
	OccasionTrabajo Occasion = "Trabajo"
	OccasionCita    Occasion = "Cita"
	OccasionFiesta  Occasion = "Fiesta"
	OccasionDeporte Occasion = "Deporte"
	OccasionFormal  Occasion = "Formal"
)

// Intensity is the projection strength of a fragrance.
type Intensity string

const (
	IntensityLigera   Intensity = "Ligera"
	IntensityModerada Intensity = "Moderada"
	IntensityIntensa  Intensity = "Intensa"
)

// Climate is the weather a fragrance is recommended for.
type Climate string

const (
	ClimateCalido   Climate = "Calido"
	ClimateTemplado Climate = "Templado"
	ClimateFrio     Climate = "Frio"
	ClimateHumedo   Climate = "Humedo"
)

// Event is a specific event type a fragrance suits.
type Event string

const (
	EventBoda     Event = "Boda"
	EventGala     Event = "Gala"
	EventCasual   Event = "Casual"
	EventNocturno Event = "Nocturno"
	EventOficina  Event = "Oficina"
)

var genders = []Gender{GenderHombre, GenderMujer, GenderUnisex}
var occasions = []Occasion{OccasionDiario, OccasionTrabajo, OccasionCita, OccasionFiesta, OccasionDeporte, OccasionFormal}
var intensities = []Intensity{IntensityLigera, IntensityModerada, IntensityIntensa}
var climates = []Climate{ClimateCalido, ClimateTemplado, ClimateFrio, ClimateHumedo}
var events = []Event{EventBoda, EventGala, EventCasual, EventNocturno, EventOficina}

// CanonicalGender maps arbitrary model output to a valid Gender, or nil if the
// value is not in the vocabulary. Matching is case- and accent-insensitive on the
// common spellings.
func CanonicalGender(raw string) *Gender {
	v := foldEnumValue(raw)
	for _, g := range genders {
		if v == foldEnumValue(string(g)) {
			out := g
			return &out
		}
	}
	return nil
}

// CanonicalOccasion maps arbitrary model output to a valid Occasion, or nil.
func CanonicalOccasion(raw string) *Occasion {
	v := foldEnumValue(raw)
	for _, o := range occasions {
		if v == foldEnumValue(string(o)) {
			out := o
			return &out
		}
	}
	return nil
}

// CanonicalIntensity maps arbitrary model output to a valid Intensity, or nil.
func CanonicalIntensity(raw string) *Intensity {
	v := foldEnumValue(raw)
	for _, i := range intensities {
		if v == foldEnumValue(string(i)) {
			out := i
			return &out
		}
	}
	return nil
}

// CanonicalClimate maps arbitrary model output to a valid Climate, or nil.
func CanonicalClimate(raw string) *Climate {
	v := foldEnumValue(raw)
	for _, c := range climates {
		if v == foldEnumValue(string(c)) {
			out := c
			return &out
		}
	}
	return nil
}

// CanonicalEvent maps arbitrary model output to a valid Event, or nil.
func CanonicalEvent(raw string) *Event {
	v := foldEnumValue(raw)
	for _, e := range events {
		if v == foldEnumValue(string(e)) {
			out := e
			return &out
		}
	}
	return nil
}

var accentReplacer = strings.NewReplacer("á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u", "ñ", "n")

// FoldAccents lowercases s and maps accented Spanish characters to their bare
// forms, so "Cálido" and "calido" compare equal. Enum canonicalization and the
// keyword fallback both match through this.
func FoldAccents(s string) string {
	return accentReplacer.Replace(strings.ToLower(s))
}

func foldEnumValue(s string) string {
	return FoldAccents(strings.TrimSpace(s))
}

// ParsedContext is the structured interpretation of a free-text search query.
// A nil field means "unconstrained", never an empty-string sentinel.
type ParsedContext struct {
	Gender    *Gender    `json:"gender,omitempty"`
	Occasion  *Occasion  `json:"occasion,omitempty"`
	Intensity *Intensity `json:"intensity,omitempty"`
	Climate   *Climate   `json:"climate,omitempty"`
	Event     *Event     `json:"event,omitempty"`
	Families  []string   `json:"families,omitempty"`
}

// IsEmpty reports whether no dimension of the context is constrained.
func (c *ParsedContext) IsEmpty() bool {
	return c.Gender == nil && c.Occasion == nil && c.Intensity == nil &&
		c.Climate == nil && c.Event == nil && len(c.Families) == 0
}

// ProductFilters is the query executed against the catalog. Derived from a
// ParsedContext plus caller-supplied constraints; consumed once, not persisted.
type ProductFilters struct {
	BrandIDs []uuid.UUID `json:"brand_ids,omitempty"`
	Families []string    `json:"families,omitempty"`
	PriceMin *float64    `json:"price_min,omitempty"`
	PriceMax *float64    `json:"price_max,omitempty"`
	Gender   *Gender     `json:"gender,omitempty"`
	Search   string      `json:"search,omitempty"`

	// ProductIDs, when present, restricts results to that exact id set
	// regardless of every other filter.
	ProductIDs []uuid.UUID `json:"product_ids,omitempty"`

	// IncludeInactive lifts the active-products-only restriction. Only set by
	// administrative listings, never from a parsed query.
	IncludeInactive bool `json:"-"`
}

// Interpretation is what the query interpreter produces for one search.
type Interpretation struct {
	Filters     ProductFilters `json:"filters"`
	Context     ParsedContext  `json:"context"`
	Explanation string         `json:"explanation"`
	// Fallback is true when the keyword fallback produced the interpretation
	// because the model call failed or returned unusable output.
	Fallback bool `json:"fallback,omitempty"`
}

// SearchCacheEntry is a cached interpretation keyed by normalized query text.
// One live entry exists per normalized query; an entry is never served past
// its expiry.
type SearchCacheEntry struct {
	NormalizedQuery string         `json:"normalized_query"`
	Context         ParsedContext  `json:"context"`
	Filters         ProductFilters `json:"filters"`
	Explanation     string         `json:"explanation"`
	Fallback        bool           `json:"fallback,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	ExpiresAt       time.Time      `json:"expires_at"`
}

// Expired reports whether the entry's expiry has passed at the given instant.
func (e *SearchCacheEntry) Expired(now time.Time) bool {
	return !e.ExpiresAt.After(now)
}

// SearchResponse is the orchestrator's answer to one search request.
type SearchResponse struct {
	Products    []*Product     `json:"products"`
	Total       int            `json:"total"`
	Filters     ProductFilters `json:"filters"`
	Explanation string         `json:"explanation"`
	Context     ParsedContext  `json:"context"`
}

// NormalizeQuery canonicalizes free-text query input for cache keying and
// history recording: trim, lowercase, collapse internal whitespace. Two queries
// that normalize identically hit the same cache slot.
func NormalizeQuery(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}
