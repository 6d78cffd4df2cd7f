package exporter

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/actor"
)

// ExportCSV renders items as UTF-8 CSV with a BOM so Excel opens accents
// correctly.
func ExportCSV(baseName string, items []actor.ScrapedItem) (*Result, error) {
	var buf bytes.Buffer
	buf.Write([]byte{0xEF, 0xBB, 0xBF})

	w := csv.NewWriter(&buf)
	if err := w.Write(columns); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, it := range items {
		if err := w.Write(itemRow(it)); err != nil {
			return nil, fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	return &Result{
		FileName:    baseName + ".csv",
		ContentType: "text/csv; charset=utf-8",
		Data:        buf.Bytes(),
	}, nil
}
