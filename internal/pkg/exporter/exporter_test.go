package exporter

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/actor"
)

func sampleItems() []actor.ScrapedItem {
	return []actor.ScrapedItem{
		{
			Title:    "Vélo de course",
			Price:    250,
			Currency: "EUR",
			Location: "Antananarivo",
			URL:      "https://example.com/1",
			PostID:   "p1",
			PostedAt: time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC),
		},
		{
			Title:      "Canapé d'angle",
			Price:      120.50,
			Currency:   "EUR",
			IsFavorite: true,
		},
	}
}

func TestExportCSV(t *testing.T) {
	res, err := Export(FormatCSV, "export_sess_1", sampleItems())
	require.NoError(t, err)
	assert.Equal(t, "export_sess_1.csv", res.FileName)
	assert.Equal(t, "text/csv; charset=utf-8", res.ContentType)

	// UTF-8 BOM so Excel renders accents correctly
	assert.True(t, bytes.HasPrefix(res.Data, []byte{0xEF, 0xBB, 0xBF}))

	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(res.Data, []byte{0xEF, 0xBB, 0xBF})))
	rows, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, columns, rows[0])
	assert.Equal(t, "Vélo de course", rows[1][0])
	assert.Equal(t, "250", rows[1][2])
	assert.Equal(t, "2026-01-15 09:00", rows[1][9])
	assert.Equal(t, "120.50", rows[2][2])
	assert.Equal(t, "oui", rows[2][10])
}

func TestExportExcel(t *testing.T) {
	res, err := Export(FormatExcel, "export_sess_1", sampleItems())
	require.NoError(t, err)
	assert.Equal(t, "export_sess_1.xlsx", res.FileName)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", res.ContentType)

	f, err := excelize.OpenReader(bytes.NewReader(res.Data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Données")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, columns, rows[0])
	assert.Equal(t, "Vélo de course", rows[1][0])
}

func TestExportXLSXAlias(t *testing.T) {
	res, err := Export("xlsx", "export", sampleItems())
	require.NoError(t, err)
	assert.Equal(t, "export.xlsx", res.FileName)
}

func TestExportUnknownFormat(t *testing.T) {
	_, err := Export("pdf", "export", sampleItems())
	assert.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "pdf"))
}

func TestExportEmptyItems(t *testing.T) {
	res, err := Export(FormatCSV, "export_vide", nil)
	require.NoError(t, err)

	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(res.Data, []byte{0xEF, 0xBB, 0xBF})))
	rows, err := r.ReadAll()
	require.NoError(t, err)
	// header only
	assert.Len(t, rows, 1)
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "", formatPrice(0))
	assert.Equal(t, "15", formatPrice(15))
	assert.Equal(t, "15.99", formatPrice(15.99))
}
