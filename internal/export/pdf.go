package export

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf/v2"
	"github.com/merosman91/Agricultural-Tractor/internal/domain"
)

// CustomerPDF renders a one-customer payment report. amount formats whole
// currency units for display.
func CustomerPDF(w io.Writer, agg domain.CustomerAggregate, amount func(int) string, generated time.Time) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(190, 10, "Tractor Work - Customer Report", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(190, 6, fmt.Sprintf("Generated: %s", generated.Format("02-Jan-2006 03:04 PM")), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Customer Information", "1", 1, "L", true, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(95, 7, tr("Name: "+agg.Name), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, "Phone: "+agg.Phone, "RB", 1, "L", false, 0, "")
	pdf.CellFormat(95, 7, tr("Location: "+domain.CoalesceStr(agg.Location, "unspecified")), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Days worked: %d", agg.TotalDays), "RB", 1, "L", false, 0, "")
	pdf.Ln(5)

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Work Details", "1", 1, "L", true, 0, "")
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(200, 200, 200)
	pdf.CellFormat(30, 7, "Date", "1", 0, "C", true, 0, "")
	pdf.CellFormat(45, 7, "Work Type", "1", 0, "C", true, 0, "")
	pdf.CellFormat(20, 7, "Hours", "1", 0, "C", true, 0, "")
	pdf.CellFormat(40, 7, "Amount", "1", 0, "C", true, 0, "")
	pdf.CellFormat(25, 7, "Payment", "1", 0, "C", true, 0, "")
	pdf.CellFormat(30, 7, "Notes", "1", 1, "C", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	for _, line := range agg.Lines {
		pdf.CellFormat(30, 6, line.Date, "1", 0, "C", false, 0, "")
		pdf.CellFormat(45, 6, tr(line.WorkType), "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 6, fmt.Sprintf("%d", line.Hours), "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 6, amount(line.Amount), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 6, string(line.PaymentStatus), "1", 0, "C", false, 0, "")
		notes := line.Notes
		if len(notes) > 15 {
			notes = notes[:12] + "..."
		}
		pdf.CellFormat(30, 6, tr(notes), "1", 1, "L", false, 0, "")
	}
	pdf.Ln(5)

	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Financial Summary", "1", 1, "L", true, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(63, 8, fmt.Sprintf("Total Hours: %d", agg.TotalHours), "1", 0, "C", false, 0, "")
	pdf.CellFormat(63, 8, "Total: "+amount(agg.TotalAmount), "1", 0, "C", false, 0, "")
	pdf.CellFormat(64, 8, "Paid: "+amount(agg.TotalAmount-agg.PendingAmount), "1", 1, "C", false, 0, "")

	if agg.PendingAmount > 0 {
		pdf.SetFillColor(255, 200, 200)
	} else {
		pdf.SetFillColor(200, 255, 200)
	}
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(190, 10, "Pending Balance: "+amount(agg.PendingAmount), "1", 1, "C", true, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("rendering pdf: %w", err)
	}
	return nil
}
