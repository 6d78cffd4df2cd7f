// Package exporter renders scraped items into downloadable files.
package exporter

import (
	"fmt"

	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/actor"
)

const (
	FormatCSV   = "csv"
	FormatExcel = "excel"
)

// Result is a rendered export ready to be streamed to the client.
type Result struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Export renders items in the requested format. The base name is used for
// the attachment file name, without extension.
func Export(format, baseName string, items []actor.ScrapedItem) (*Result, error) {
	switch format {
	case FormatCSV:
		return ExportCSV(baseName, items)
	case FormatExcel, "xlsx":
		return ExportExcel(baseName, items)
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

// columns is the shared header row for both formats.
var columns = []string{
	"Titre",
	"Description",
	"Prix",
	"Devise",
	"Localisation",
	"Type",
	"URL",
	"Image",
	"Post ID",
	"Publié le",
	"Favori",
}

func itemRow(it actor.ScrapedItem) []string {
	posted := ""
	if !it.PostedAt.IsZero() {
		posted = it.PostedAt.Format("2006-01-02 15:04")
	}
	fav := "non"
	if it.IsFavorite {
		fav = "oui"
	}
	return []string{
		it.Title,
		it.Description,
		formatPrice(it.Price),
		it.Currency,
		it.Location,
		it.ItemType,
		it.URL,
		it.ImageURL,
		it.PostID,
		posted,
		fav,
	}
}

func formatPrice(p float64) string {
	if p == 0 {
		return ""
	}
	if p == float64(int64(p)) {
		return fmt.Sprintf("%d", int64(p))
	}
	return fmt.Sprintf("%.2f", p)
}
