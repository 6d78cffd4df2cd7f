package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultPacks(t *testing.T) {
	packs := DefaultPacks()
	assert.NotEmpty(t, packs)

	seen := map[string]bool{}
	popular := 0
	for _, p := range packs {
		assert.NotEmpty(t, p.PackID)
		assert.NotEmpty(t, p.Name)
		assert.Greater(t, p.NbDownloads, 0)
		assert.Greater(t, p.PriceEURCents, int64(0))
		assert.Greater(t, p.PriceMGA, int64(0))
		assert.False(t, seen[p.PackID], "duplicate pack id %s", p.PackID)
		seen[p.PackID] = true
		if p.IsPopular {
			popular++
		}
	}
	assert.Equal(t, 1, popular, "exactly one pack should be highlighted")

	// bigger packs cost more and carry more credits
	for i := 1; i < len(packs); i++ {
		assert.Greater(t, packs[i].NbDownloads, packs[i-1].NbDownloads)
		assert.Greater(t, packs[i].PriceEURCents, packs[i-1].PriceEURCents)
	}
}
