// Package export writes scan history to spreadsheet files.
package export

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ppiankov/safelink/internal/model"
)

// SheetName is the worksheet holding the history rows
const SheetName = "History"

var columns = []string{
	"ID", "URL", "Safety", "Tier", "Confidence", "Likes", "Dislikes", "Timestamp", "External Check",
}

// WriteXLSX writes results, in the given order, to a workbook at path
func WriteXLSX(path string, results []model.ScanResult) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	for i, name := range columns {
		if err := setCell(f, i+1, 1, name); err != nil {
			return err
		}
	}

	for i, r := range results {
		row := i + 2
		values := []any{
			r.ID,
			r.URL,
			r.Safety,
			string(r.Tier),
			r.Confidence,
			r.Likes,
			r.Dislikes,
			r.DisplayTime(),
			externalNote(r.APICheck),
		}
		for col, v := range values {
			if err := setCell(f, col+1, row, v); err != nil {
				return err
			}
		}
	}

	if err := f.SetColWidth(SheetName, "B", "B", 60); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

func setCell(f *excelize.File, col, row int, v any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	if err := f.SetCellValue(SheetName, cell, v); err != nil {
		return fmt.Errorf("set %s: %w", cell, err)
	}
	return nil
}

func externalNote(check *model.APICheck) string {
	switch {
	case check == nil:
		return ""
	case check.Failed:
		return check.Note
	case strings.TrimSpace(check.Note) != "":
		return check.Note
	default:
		return "checked"
	}
}
