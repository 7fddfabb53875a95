package models

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
)

// ExportCostHistoryXlsx streams an item's cost chain as a spreadsheet for the
// purchasing team. Costs are exported at full precision; display rounding is
// left to the sheet.
func ExportCostHistoryXlsx(ctx context.Context, itemId int, from, to *time.Time, w io.Writer) error {
	item, err := GetStockItem(ctx, itemId)
	if err != nil {
		return err
	}
	entries, err := CostHistory(ctx, itemId, from, to)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	sheet := "Sheet1"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	// Add headers
	f.SetCellValue(sheet, "A1", "Item")
	f.SetCellValue(sheet, "B1", "EffectiveDate")
	f.SetCellValue(sheet, "C1", "OldUnitCost")
	f.SetCellValue(sheet, "D1", "NewUnitCost")
	f.SetCellValue(sheet, "E1", "Reason")
	f.SetCellValue(sheet, "F1", "SupplierId")
	f.SetCellValue(sheet, "G1", "Notes")
	f.SetCellValue(sheet, "H1", "RecordedAt")

	// Add data
	for i, e := range entries {
		row := fmt.Sprint(i + 2)
		f.SetCellValue(sheet, "A"+row, item.Name)
		f.SetCellValue(sheet, "B"+row, e.EffectiveDate.Format("2006-01-02"))
		if e.OldUnitCost != nil {
			f.SetCellValue(sheet, "C"+row, e.OldUnitCost.String())
		}
		f.SetCellValue(sheet, "D"+row, e.NewUnitCost.String())
		f.SetCellValue(sheet, "E"+row, string(e.Reason))
		if e.SupplierId != nil {
			f.SetCellValue(sheet, "F"+row, *e.SupplierId)
		}
		f.SetCellValue(sheet, "G"+row, e.Notes)
		f.SetCellValue(sheet, "H"+row, e.CreatedAt.Format(time.RFC3339))
	}

	return f.Write(w)
}
