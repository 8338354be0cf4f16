// Package vocabulary holds the closed olfactory-family vocabulary and the
// keyword synonyms the interpreter's fallback path matches against.
package vocabulary

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/chvpa/aura-engine/pkg/models"
)

// Family is one olfactory family in the vocabulary.
type Family struct {
	Slug string `yaml:"slug"`
	Name string `yaml:"name"`
	// Keywords are literal words in a query that indicate this family.
	Keywords []string `yaml:"keywords"`
}

// Vocabulary is the closed set of values the interpreter may emit, plus the
// literal keyword tables the fallback path matches against.
type Vocabulary struct {
	Families []Family `yaml:"families"`

	// GenderKeywords maps literal query words to a gender value.
	GenderKeywords map[string]models.Gender `yaml:"gender_keywords"`

	// ClimateKeywords maps literal query words (seasons, weather) to a climate.
	ClimateKeywords map[string]models.Climate `yaml:"climate_keywords"`

	// OccasionKeywords maps literal query words to an occasion.
	OccasionKeywords map[string]models.Occasion `yaml:"occasion_keywords"`

	// IntensityKeywords maps literal query words to an intensity.
	IntensityKeywords map[string]models.Intensity `yaml:"intensity_keywords"`
}

// Default returns the built-in vocabulary.
func Default() *Vocabulary {
	return &Vocabulary{
		Families: []Family{
			{Slug: "citricos", Name: "Cítricos", Keywords: []string{"citrico", "citricos", "limon", "bergamota", "naranja", "mandarina", "citrus"}},
			{Slug: "florales", Name: "Florales", Keywords: []string{"floral", "florales", "flores", "rosa", "jazmin", "violeta"}},
			{Slug: "amaderados", Name: "Amaderados", Keywords: []string{"amaderado", "amaderados", "madera", "sandalo", "cedro", "vetiver", "woody"}},
			{Slug: "orientales", Name: "Orientales", Keywords: []string{"oriental", "orientales", "ambar", "incienso", "oud"}},
			{Slug: "frescos", Name: "Frescos", Keywords: []string{"fresco", "frescos", "fresca", "frescura", "fresh"}},
			{Slug: "dulces", Name: "Dulces", Keywords: []string{"dulce", "dulces", "vainilla", "caramelo", "gourmand"}},
			{Slug: "especiados", Name: "Especiados", Keywords: []string{"especiado", "especiados", "canela", "pimienta", "cardamomo", "spicy"}},
			{Slug: "frutales", Name: "Frutales", Keywords: []string{"frutal", "frutales", "fruta", "manzana", "pera", "durazno"}},
			{Slug: "verdes", Name: "Verdes", Keywords: []string{"verde", "verdes", "hierba", "galbano", "green"}},
			{Slug: "acuaticos", Name: "Acuáticos", Keywords: []string{"acuatico", "acuaticos", "marino", "mar", "oceano", "aquatic"}},
			{Slug: "aromaticos", Name: "Aromáticos", Keywords: []string{"aromatico", "aromaticos", "lavanda", "romero", "salvia"}},
			{Slug: "cuero", Name: "Cuero", Keywords: []string{"cuero", "piel", "leather", "tabaco"}},
		},
		GenderKeywords: map[string]models.Gender{
			"hombre":    models.GenderHombre,
			"hombres":   models.GenderHombre,
			"masculino": models.GenderHombre,
			"caballero": models.GenderHombre,
			"mujer":     models.GenderMujer,
			"mujeres":   models.GenderMujer,
			"femenino":  models.GenderMujer,
			"dama":      models.GenderMujer,
			"ella":      models.GenderMujer,
			"unisex":    models.GenderUnisex,
		},
		ClimateKeywords: map[string]models.Climate{
			"verano":    models.ClimateCalido,
			"calor":     models.ClimateCalido,
			"calido":    models.ClimateCalido,
			"caluroso":  models.ClimateCalido,
			"playa":     models.ClimateCalido,
			"tropical":  models.ClimateCalido,
			"invierno":  models.ClimateFrio,
			"frio":      models.ClimateFrio,
			"nieve":     models.ClimateFrio,
			"primavera": models.ClimateTemplado,
			"otono":     models.ClimateTemplado,
			"templado":  models.ClimateTemplado,
			"lluvia":    models.ClimateHumedo,
			"humedo":    models.ClimateHumedo,
		},
		OccasionKeywords: map[string]models.Occasion{
			"diario":   models.OccasionDiario,
			"dia":      models.OccasionDiario,
			"oficina":  models.OccasionTrabajo,
			"trabajo":  models.OccasionTrabajo,
			"cita":     models.OccasionCita,
			"romantic": models.OccasionCita,
			"fiesta":   models.OccasionFiesta,
			"noche":    models.OccasionFiesta,
			"deporte":  models.OccasionDeporte,
			"gimnasio": models.OccasionDeporte,
			"formal":   models.OccasionFormal,
			"elegante": models.OccasionFormal,
		},
		IntensityKeywords: map[string]models.Intensity{
			"suave":     models.IntensityLigera,
			"ligero":    models.IntensityLigera,
			"ligera":    models.IntensityLigera,
			"sutil":     models.IntensityLigera,
			"moderado":  models.IntensityModerada,
			"moderada":  models.IntensityModerada,
			"fuerte":    models.IntensityIntensa,
			"intenso":   models.IntensityIntensa,
			"intensa":   models.IntensityIntensa,
			"potente":   models.IntensityIntensa,
			"duradero":  models.IntensityIntensa,
			"proyecta":  models.IntensityIntensa,
		},
	}
}

// Load reads a vocabulary override from a YAML file. An empty path returns the
// built-in default.
func Load(path string) (*Vocabulary, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary file: %w", err)
	}

	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("parse vocabulary file: %w", err)
	}
	if len(v.Families) == 0 {
		return nil, fmt.Errorf("vocabulary file %s declares no families", path)
	}

	return &v, nil
}

// Slugs returns the family slugs in declaration order.
func (v *Vocabulary) Slugs() []string {
	slugs := make([]string, len(v.Families))
	for i, f := range v.Families {
		slugs[i] = f.Slug
	}
	return slugs
}

// CanonicalFamily maps arbitrary model output to a family slug, or "" when the
// value is not in the vocabulary. Accepts slugs and display names, case- and
// accent-insensitively.
func (v *Vocabulary) CanonicalFamily(raw string) string {
	folded := fold(raw)
	for _, f := range v.Families {
		if folded == fold(f.Slug) || folded == fold(f.Name) {
			return f.Slug
		}
	}
	return ""
}

// CanonicalFamilies canonicalizes a list, dropping out-of-vocabulary values and
// duplicates while preserving order.
func (v *Vocabulary) CanonicalFamilies(raw []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, r := range raw {
		slug := v.CanonicalFamily(r)
		if slug == "" || seen[slug] {
			continue
		}
		seen[slug] = true
		out = append(out, slug)
	}
	return out
}

func fold(s string) string {
	return models.FoldAccents(strings.TrimSpace(s))
}
