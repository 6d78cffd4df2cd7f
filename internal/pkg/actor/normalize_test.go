package actor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeItemMarketplaceListing(t *testing.T) {
	raw := map[string]interface{}{
		"marketplace_listing_title": "Toyota Corolla 2015",
		"redacted_description":      "Bon état, entretien suivi",
		"listing_price": map[string]interface{}{
			"amount":   "4500.50",
			"currency": "EUR",
		},
		"location": map[string]interface{}{
			"reverse_geocode": map[string]interface{}{"city": "Antananarivo"},
		},
		"listingUrl": "https://www.facebook.com/marketplace/item/123",
		"primary_listing_photo": map[string]interface{}{
			"image": map[string]interface{}{"uri": "https://cdn.example.com/photo.jpg"},
		},
		"id": "123",
	}

	item := NormalizeItem(raw)
	assert.Equal(t, "Toyota Corolla 2015", item.Title)
	assert.Equal(t, "Bon état, entretien suivi", item.Description)
	assert.Equal(t, 4500.50, item.Price)
	assert.Equal(t, "EUR", item.Currency)
	assert.Equal(t, "Antananarivo", item.Location)
	assert.Equal(t, "https://www.facebook.com/marketplace/item/123", item.URL)
	assert.Equal(t, "https://cdn.example.com/photo.jpg", item.ImageURL)
	assert.Equal(t, "123", item.PostID)
}

func TestNormalizeItemFacebookPost(t *testing.T) {
	raw := map[string]interface{}{
		"text":          "Grande promotion ce week-end sur tous nos articles, venez nombreux dans notre boutique du centre-ville",
		"postUrl":       "https://www.facebook.com/page/posts/456",
		"post_id":       "456",
		"creation_time": float64(1700000000),
	}

	item := NormalizeItem(raw)
	// long post text becomes a truncated title
	assert.True(t, len([]rune(item.Title)) <= 83)
	assert.Contains(t, item.Title, "Grande promotion")
	assert.Equal(t, "456", item.PostID)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), item.PostedAt)
}

func TestNormalizeItemPriceFallbacks(t *testing.T) {
	// flat string price with currency symbol noise
	item := NormalizeItem(map[string]interface{}{
		"title":    "Vélo",
		"price":    "1 200 €",
		"currency": "EUR",
	})
	assert.Equal(t, float64(1200), item.Price)
	assert.Equal(t, "EUR", item.Currency)

	// nested price object wins over nothing
	item = NormalizeItem(map[string]interface{}{
		"title": "Table",
		"price": map[string]interface{}{"amount": float64(80), "currency": "MGA"},
	})
	assert.Equal(t, float64(80), item.Price)
	assert.Equal(t, "MGA", item.Currency)
}

func TestNormalizeItemPostedAtRFC3339(t *testing.T) {
	item := NormalizeItem(map[string]interface{}{
		"title": "Annonce",
		"time":  "2026-03-01T10:30:00Z",
	})
	assert.Equal(t, time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC), item.PostedAt)
}

func TestNormalizeItemEmpty(t *testing.T) {
	item := NormalizeItem(map[string]interface{}{})
	assert.Empty(t, item.Title)
	assert.Zero(t, item.Price)
	assert.True(t, item.PostedAt.IsZero())
}

func TestEncodeDecodeItems(t *testing.T) {
	items := []ScrapedItem{
		{Title: "Chaise", Price: 25, Currency: "EUR", PostID: "a1"},
		{Title: "Bureau", Price: 120, Currency: "EUR", PostID: "a2"},
	}

	encoded, err := EncodeItems(items)
	assert.NoError(t, err)

	decoded, err := DecodeItems(encoded)
	assert.NoError(t, err)
	assert.Equal(t, items, decoded)
}

func TestDecodeItemsEmptyString(t *testing.T) {
	items, err := DecodeItems("   ")
	assert.NoError(t, err)
	assert.Nil(t, items)
}

func TestDecodeItemsInvalidJSON(t *testing.T) {
	_, err := DecodeItems("{not json")
	assert.Error(t, err)
}
