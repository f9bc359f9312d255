// Package export writes the catalog as a spreadsheet.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/erazemk/locography/internal/model"
)

// SheetName is the name of the worksheet holding the items.
const SheetName = "Items"

// ContentType is the MIME type of the generated workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var header = []any{
	"ID", "Name", "Description", "Category", "Location", "Quantity", "Unit",
	"Estimated value", "Currency", "Tags", "AI tags", "Updated",
}

// WriteItems writes items as an XLSX workbook with a single sheet.
func WriteItems(w io.Writer, items []model.Item) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := f.SetCellStyle(SheetName, "A1", last, bold); err != nil {
		return fmt.Errorf("styling header: %w", err)
	}

	for i, item := range items {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []any{
			item.ID,
			item.Name,
			item.Description,
			deref(item.CategoryName),
			deref(item.LocationName),
			item.Quantity,
			item.Unit,
			nil,
			item.Currency,
			strings.Join(item.Tags, ", "),
			strings.Join(item.AITags, ", "),
			item.UpdatedAt.UTC().Format("2006-01-02 15:04:05"),
		}
		if item.EstimatedValue != nil {
			row[7] = *item.EstimatedValue
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("writing item %d: %w", item.ID, err)
		}
	}

	if err := f.SetColWidth(SheetName, "B", "C", 30); err != nil {
		return fmt.Errorf("sizing columns: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
