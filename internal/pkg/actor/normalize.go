package actor

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// ScrapedItem is the normalized shape of one extracted record. Upstream
// actors return highly variable objects depending on the target site; all
// call sites work against this shape only.
type ScrapedItem struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Price       float64   `json:"price"`
	Currency    string    `json:"currency,omitempty"`
	Location    string    `json:"location,omitempty"`
	ItemType    string    `json:"item_type,omitempty"`
	URL         string    `json:"url,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	PostID      string    `json:"post_id,omitempty"`
	PostedAt    time.Time `json:"posted_at,omitempty"`
	IsFavorite  bool      `json:"is_favorite"`
}

// NormalizeItem maps a raw actor record onto a ScrapedItem.
//
// Fallback order per field:
//
//	Title:    marketplace_listing_title > custom_title > title > name > text (truncated)
//	Price:    listing_price.amount > price.amount > price (string or number)
//	Currency: listing_price.currency > price.currency > currency
//	Location: location.reverse_geocode.city > location_text > location (string)
//	URL:      listingUrl > url > facebookUrl > postUrl
//	ImageURL: primary_listing_photo.image.uri > imageUrl > image
//	PostID:   post_id > postId > legacyId > id
//	PostedAt: creation_time (unix) > time (RFC3339) > date
func NormalizeItem(raw map[string]interface{}) ScrapedItem {
	item := ScrapedItem{
		Title:       firstString(raw, "marketplace_listing_title", "custom_title", "title", "name"),
		Description: firstString(raw, "redacted_description", "description", "text"),
		ItemType:    firstString(raw, "marketplace_listing_category_name", "item_type", "type"),
		URL:         firstString(raw, "listingUrl", "url", "facebookUrl", "postUrl"),
		PostID:      firstString(raw, "post_id", "postId", "legacyId", "id"),
	}

	if item.Title == "" {
		if txt := stringValue(raw["text"]); txt != "" {
			item.Title = truncate(txt, 80)
		}
	}

	item.Price, item.Currency = extractPrice(raw)
	item.Location = extractLocation(raw)
	item.ImageURL = extractImageURL(raw)
	item.PostedAt = extractPostedAt(raw)

	return item
}

// NormalizeItems maps a raw dataset page.
func NormalizeItems(raw []map[string]interface{}) []ScrapedItem {
	items := make([]ScrapedItem, 0, len(raw))
	for _, r := range raw {
		items = append(items, NormalizeItem(r))
	}
	return items
}

// DecodeItems parses a stored items JSON column.
func DecodeItems(data string) ([]ScrapedItem, error) {
	if strings.TrimSpace(data) == "" {
		return nil, nil
	}
	var items []ScrapedItem
	if err := json.Unmarshal([]byte(data), &items); err != nil {
		return nil, err
	}
	return items, nil
}

// EncodeItems serializes items for the JSON column.
func EncodeItems(items []ScrapedItem) (string, error) {
	data, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func extractPrice(raw map[string]interface{}) (float64, string) {
	for _, key := range []string{"listing_price", "price"} {
		if nested, ok := raw[key].(map[string]interface{}); ok {
			amount := numberValue(nested["amount"])
			currency := stringValue(nested["currency"])
			if amount != 0 || currency != "" {
				return amount, currency
			}
		}
	}
	return numberValue(raw["price"]), stringValue(raw["currency"])
}

func extractLocation(raw map[string]interface{}) string {
	if loc, ok := raw["location"].(map[string]interface{}); ok {
		if geo, ok := loc["reverse_geocode"].(map[string]interface{}); ok {
			if city := stringValue(geo["city"]); city != "" {
				return city
			}
		}
	}
	if txt := stringValue(raw["location_text"]); txt != "" {
		return txt
	}
	return stringValue(raw["location"])
}

func extractImageURL(raw map[string]interface{}) string {
	if photo, ok := raw["primary_listing_photo"].(map[string]interface{}); ok {
		if img, ok := photo["image"].(map[string]interface{}); ok {
			if uri := stringValue(img["uri"]); uri != "" {
				return uri
			}
		}
	}
	return firstString(raw, "imageUrl", "image")
}

func extractPostedAt(raw map[string]interface{}) time.Time {
	if ts := numberValue(raw["creation_time"]); ts > 0 {
		return time.Unix(int64(ts), 0).UTC()
	}
	for _, key := range []string{"time", "date"} {
		if s := stringValue(raw[key]); s != "" {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				return t.UTC()
			}
		}
	}
	return time.Time{}
}

func firstString(raw map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if s := stringValue(raw[key]); s != "" {
			return s
		}
	}
	return ""
}

func stringValue(v interface{}) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func numberValue(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		f, _ := n.Float64()
		return f
	case string:
		cleaned := strings.TrimSpace(strings.Map(func(r rune) rune {
			switch {
			case r >= '0' && r <= '9', r == '.', r == '-':
				return r
			}
			return -1
		}, n))
		f, _ := strconv.ParseFloat(cleaned, 64)
		return f
	}
	return 0
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
