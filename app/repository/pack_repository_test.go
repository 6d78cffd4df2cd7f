package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/hydrooooooooooo/Testingfun-sub003/app/models"
)

func newPackDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Pack{}))
	return db
}

func catalogByPackID(t *testing.T, repo PackRepository) map[string]models.Pack {
	t.Helper()
	packs, err := repo.GetAll()
	require.NoError(t, err)
	byID := make(map[string]models.Pack, len(packs))
	for _, p := range packs {
		byID[p.PackID] = p
	}
	return byID
}

func TestReseedDefaultsPopulatesCatalog(t *testing.T) {
	repo := NewPackRepository(newPackDB(t))

	require.NoError(t, repo.ReseedDefaults())

	packs, err := repo.GetAll()
	require.NoError(t, err)
	require.Len(t, packs, len(models.DefaultPacks()))

	// GetAll returns display order, which must match the seed order.
	for i, want := range models.DefaultPacks() {
		assert.Equal(t, want.PackID, packs[i].PackID)
		assert.Equal(t, want.NbDownloads, packs[i].NbDownloads)
		assert.Equal(t, want.PriceEURCents, packs[i].PriceEURCents)
		assert.Equal(t, want.SortOrder, packs[i].SortOrder)
	}
}

func TestReseedDefaultsIsIdempotentInContent(t *testing.T) {
	db := newPackDB(t)
	repo := NewPackRepository(db)

	require.NoError(t, repo.ReseedDefaults())

	// Drift the catalog the way a manual edit would.
	drifted, err := repo.GetByPackID("pack-pro")
	require.NoError(t, err)
	drifted.PriceEURCents = 1
	drifted.Name = "Pack Bricolé"
	require.NoError(t, repo.Save(drifted))
	require.NoError(t, db.Create(&models.Pack{PackID: "pack-fantome", Name: "Fantôme", NbDownloads: 1, SortOrder: 99}).Error)

	require.NoError(t, repo.ReseedDefaults())

	byID := catalogByPackID(t, repo)
	require.Len(t, byID, len(models.DefaultPacks()))
	assert.NotContains(t, byID, "pack-fantome")
	for _, want := range models.DefaultPacks() {
		got, ok := byID[want.PackID]
		require.True(t, ok, want.PackID)
		assert.Equal(t, want.Name, got.Name)
		assert.Equal(t, want.PriceEURCents, got.PriceEURCents)
		assert.Equal(t, want.PriceMGA, got.PriceMGA)
		assert.Equal(t, want.IsPopular, got.IsPopular)
	}
}
