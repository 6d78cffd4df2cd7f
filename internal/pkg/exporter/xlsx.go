package exporter

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/actor"
)

const sheetName = "Données"

// ExportExcel renders items as an XLSX workbook with a styled header row.
func ExportExcel(baseName string, items []actor.ScrapedItem) (*Result, error) {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"4472C4"}},
	})
	if err != nil {
		return nil, err
	}

	for i, col := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheetName, cell, col); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			return nil, err
		}
	}

	for r, it := range items {
		row := itemRow(it)
		for cidx, v := range row {
			cell, err := excelize.CoordinatesToCellName(cidx+1, r+2)
			if err != nil {
				return nil, err
			}
			// Keep prices numeric so spreadsheet sums work.
			if cidx == 2 && it.Price != 0 {
				if err := f.SetCellValue(sheetName, cell, it.Price); err != nil {
					return nil, err
				}
				continue
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, err
			}
		}
	}

	if err := f.SetColWidth(sheetName, "A", "B", 40); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(sheetName, "G", "H", 50); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	return &Result{
		FileName:    baseName + ".xlsx",
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Data:        buf.Bytes(),
	}, nil
}
