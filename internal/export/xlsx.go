package export

import (
	"fmt"
	"io"

	"github.com/merosman91/Agricultural-Tractor/internal/domain"
	"github.com/xuri/excelize/v2"
)

const recordsSheet = "Records"

var xlsxHeader = []string{
	"Date",
	"Customer",
	"Phone",
	"Location",
	"Work Type",
	"Hours",
	"Hourly Rate",
	"Total",
	"Payment",
	"Notes",
}

var xlsxColumnWidths = []float64{12, 22, 16, 18, 16, 8, 12, 12, 10, 30}

// WriteXLSX writes records to a single-sheet workbook with a totals row.
func WriteXLSX(w io.Writer, records []*domain.WorkRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(recordsSheet)
	if err != nil {
		return fmt.Errorf("creating sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("removing default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	for col, header := range xlsxHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(recordsSheet, cell, header); err != nil {
			return fmt.Errorf("setting header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(recordsSheet, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("styling header cell %s: %w", cell, err)
		}
		colName, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(recordsSheet, colName, colName, xlsxColumnWidths[col]); err != nil {
			return fmt.Errorf("setting width of column %s: %w", colName, err)
		}
	}

	var hours, total int
	for i, r := range records {
		row := []any{
			r.Date,
			r.CustomerName,
			r.Phone,
			r.Location,
			r.WorkTypeLabel(),
			r.Hours,
			r.HourlyRate,
			r.TotalAmount,
			string(r.PaymentStatus),
			r.Notes,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(recordsSheet, cell, &row); err != nil {
			return fmt.Errorf("writing row for record %s: %w", r.ID, err)
		}
		hours += r.Hours
		total += r.TotalAmount
	}

	totalsRow := len(records) + 2
	totals := []any{"Total", "", "", "", "", hours, "", total}
	cell, err := excelize.CoordinatesToCellName(1, totalsRow)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(recordsSheet, cell, &totals); err != nil {
		return fmt.Errorf("writing totals row: %w", err)
	}
	totalsStart, _ := excelize.CoordinatesToCellName(1, totalsRow)
	totalsEnd, _ := excelize.CoordinatesToCellName(len(xlsxHeader), totalsRow)
	if err := f.SetCellStyle(recordsSheet, totalsStart, totalsEnd, headerStyle); err != nil {
		return fmt.Errorf("styling totals row: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}
