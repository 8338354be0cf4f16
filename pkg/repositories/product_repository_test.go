package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chvpa/aura-engine/pkg/apperrors"
	"github.com/chvpa/aura-engine/pkg/database"
	"github.com/chvpa/aura-engine/pkg/models"
	"github.com/chvpa/aura-engine/pkg/testhelpers"
)

type productFixture struct {
	name      string
	gender    models.Gender
	intensity models.Intensity
	price     float64
	families  []string
	active    bool
}

// insertCatalogFixtures creates a throwaway brand plus products for one test.
func insertCatalogFixtures(t *testing.T, db *database.DB, fixtures []productFixture) (uuid.UUID, map[string]uuid.UUID) {
	t.Helper()
	ctx := context.Background()

	brandID := uuid.New()
	_, err := db.Exec(ctx, "INSERT INTO brands (id, name) VALUES ($1, $2)", brandID, "Test Brand "+brandID.String())
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = db.Exec(context.Background(), "DELETE FROM products WHERE brand_id = $1", brandID)
		_, _ = db.Exec(context.Background(), "DELETE FROM brands WHERE id = $1", brandID)
	})

	ids := make(map[string]uuid.UUID, len(fixtures))
	for i, f := range fixtures {
		id := uuid.New()
		ids[f.name] = id
		_, err := db.Exec(ctx, `
			INSERT INTO products (id, brand_id, name, description, gender, intensity, price, families, is_active, created_at)
			VALUES ($1, $2, $3, '', $4, $5, $6, $7, $8, $9)`,
			id, brandID, f.name, string(f.gender), string(f.intensity), f.price, f.families, f.active,
			// Staggered timestamps give a deterministic created_at ordering.
			time.Now().Add(-time.Duration(len(fixtures)-i)*time.Minute),
		)
		require.NoError(t, err)
	}

	return brandID, ids
}

func defaultFixtures() []productFixture {
	return []productFixture{
		{name: "Citrus Uno", gender: models.GenderHombre, intensity: models.IntensityLigera, price: 50, families: []string{"citricos", "frescos"}, active: true},
		{name: "Floral Dos", gender: models.GenderMujer, intensity: models.IntensityModerada, price: 90, families: []string{"florales"}, active: true},
		{name: "Oud Tres", gender: models.GenderUnisex, intensity: models.IntensityIntensa, price: 150, families: []string{"orientales"}, active: true},
		{name: "Retirado", gender: models.GenderHombre, intensity: models.IntensityLigera, price: 40, families: []string{"citricos"}, active: false},
	}
}

func TestProductRepository_Query_FiltersByBrand(t *testing.T) {
	engineDB := testhelpers.GetEngineDB(t)
	repo := NewProductRepository(engineDB.DB)
	brandID, _ := insertCatalogFixtures(t, engineDB.DB, defaultFixtures())

	products, total, err := repo.Query(context.Background(), models.ProductFilters{
		BrandIDs: []uuid.UUID{brandID},
	}, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, products, 3)
	for _, p := range products {
		assert.True(t, p.IsActive)
		assert.Equal(t, brandID, p.BrandID)
		assert.NotEmpty(t, p.BrandName)
	}
}

func TestProductRepository_Query_FamiliesOverlap(t *testing.T) {
	engineDB := testhelpers.GetEngineDB(t)
	repo := NewProductRepository(engineDB.DB)
	brandID, ids := insertCatalogFixtures(t, engineDB.DB, defaultFixtures())

	products, total, err := repo.Query(context.Background(), models.ProductFilters{
		BrandIDs: []uuid.UUID{brandID},
		Families: []string{"citricos", "orientales"},
	}, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	got := make(map[uuid.UUID]bool)
	for _, p := range products {
		got[p.ID] = true
	}
	assert.True(t, got[ids["Citrus Uno"]])
	assert.True(t, got[ids["Oud Tres"]])
}

func TestProductRepository_Query_GenderAndPrice(t *testing.T) {
	engineDB := testhelpers.GetEngineDB(t)
	repo := NewProductRepository(engineDB.DB)
	brandID, ids := insertCatalogFixtures(t, engineDB.DB, defaultFixtures())

	gender := models.GenderMujer
	priceMin := 60.0
	priceMax := 120.0
	products, total, err := repo.Query(context.Background(), models.ProductFilters{
		BrandIDs: []uuid.UUID{brandID},
		Gender:   &gender,
		PriceMin: &priceMin,
		PriceMax: &priceMax,
	}, 1, 20)
	require.NoError(t, err)
	require.Equal(t, 1, total)
	assert.Equal(t, ids["Floral Dos"], products[0].ID)
}

func TestProductRepository_Query_TextSearch(t *testing.T) {
	engineDB := testhelpers.GetEngineDB(t)
	repo := NewProductRepository(engineDB.DB)
	brandID, ids := insertCatalogFixtures(t, engineDB.DB, defaultFixtures())

	products, total, err := repo.Query(context.Background(), models.ProductFilters{
		BrandIDs: []uuid.UUID{brandID},
		Search:   "citrus",
	}, 1, 20)
	require.NoError(t, err)
	require.Equal(t, 1, total)
	assert.Equal(t, ids["Citrus Uno"], products[0].ID)
}

func TestProductRepository_Query_ProductIDsAllowlistOverrides(t *testing.T) {
	engineDB := testhelpers.GetEngineDB(t)
	repo := NewProductRepository(engineDB.DB)
	_, ids := insertCatalogFixtures(t, engineDB.DB, defaultFixtures())

	// The allowlist wins over every other filter, including is_active.
	gender := models.GenderMujer
	products, total, err := repo.Query(context.Background(), models.ProductFilters{
		ProductIDs: []uuid.UUID{ids["Citrus Uno"], ids["Retirado"]},
		Gender:     &gender,
		Families:   []string{"florales"},
	}, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, products, 2)
}

func TestProductRepository_Query_PaginationClamping(t *testing.T) {
	engineDB := testhelpers.GetEngineDB(t)
	repo := NewProductRepository(engineDB.DB)
	brandID, _ := insertCatalogFixtures(t, engineDB.DB, defaultFixtures())

	filters := models.ProductFilters{BrandIDs: []uuid.UUID{brandID}}

	// page and pageSize below 1 are clamped, not rejected.
	products, total, err := repo.Query(context.Background(), filters, 0, -5)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, products, 3)

	// Small pages slice the same deterministic ordering.
	firstPage, _, err := repo.Query(context.Background(), filters, 1, 2)
	require.NoError(t, err)
	secondPage, _, err := repo.Query(context.Background(), filters, 2, 2)
	require.NoError(t, err)
	require.Len(t, firstPage, 2)
	require.Len(t, secondPage, 1)
	assert.NotEqual(t, firstPage[0].ID, secondPage[0].ID)
	assert.NotEqual(t, firstPage[1].ID, secondPage[0].ID)

	// Beyond the last page: empty page, total count intact.
	empty, total, err := repo.Query(context.Background(), filters, 99, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Empty(t, empty)
}

func TestProductRepository_Query_DeterministicOrder(t *testing.T) {
	engineDB := testhelpers.GetEngineDB(t)
	repo := NewProductRepository(engineDB.DB)
	brandID, _ := insertCatalogFixtures(t, engineDB.DB, defaultFixtures())

	filters := models.ProductFilters{BrandIDs: []uuid.UUID{brandID}}

	first, _, err := repo.Query(context.Background(), filters, 1, 20)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		again, _, err := repo.Query(context.Background(), filters, 1, 20)
		require.NoError(t, err)
		require.Len(t, again, len(first))
		for j := range first {
			assert.Equal(t, first[j].ID, again[j].ID)
		}
	}
}

func TestProductRepository_GetByID(t *testing.T) {
	engineDB := testhelpers.GetEngineDB(t)
	repo := NewProductRepository(engineDB.DB)
	_, ids := insertCatalogFixtures(t, engineDB.DB, defaultFixtures())

	product, err := repo.GetByID(context.Background(), ids["Oud Tres"])
	require.NoError(t, err)
	assert.Equal(t, "Oud Tres", product.Name)
	assert.Equal(t, models.GenderUnisex, product.Gender)
	assert.Equal(t, models.IntensityIntensa, product.Intensity)
	assert.Equal(t, []string{"orientales"}, product.Families)
	assert.Equal(t, 150.0, product.Price)
}

func TestProductRepository_GetByID_NotFound(t *testing.T) {
	engineDB := testhelpers.GetEngineDB(t)
	repo := NewProductRepository(engineDB.DB)

	_, err := repo.GetByID(context.Background(), uuid.New())
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestProductRepository_Query_EmptyResult(t *testing.T) {
	engineDB := testhelpers.GetEngineDB(t)
	repo := NewProductRepository(engineDB.DB)

	products, total, err := repo.Query(context.Background(), models.ProductFilters{
		BrandIDs: []uuid.UUID{uuid.New()},
	}, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.Empty(t, products)
}
