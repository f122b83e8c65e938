package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/merosman91/Agricultural-Tractor/internal/domain"
	"github.com/merosman91/Agricultural-Tractor/internal/service"
	"github.com/shopspring/decimal"
)

const collectedBarWidth = 20

// FormatCustomerReports renders one row per customer, highest billing first.
func FormatCustomerReports(aggs []domain.CustomerAggregate, currency string) string {
	if len(aggs) == 0 {
		return Dim("No customers yet.") + "\n"
	}
	rows := make([][]string, 0, len(aggs))
	var hours, amount, pending int
	for _, a := range aggs {
		hours += a.TotalHours
		amount += a.TotalAmount
		pending += a.PendingAmount
		rows = append(rows, []string{
			Bold(a.Name),
			a.Phone,
			CoalesceDim(a.Location),
			fmt.Sprintf("%d", a.TotalDays),
			FormatHours(a.TotalHours),
			service.FormatAmount(a.TotalAmount, currency),
			pendingCell(a.PendingAmount, currency),
		})
	}
	t := Table{
		Headers:    []string{"CUSTOMER", "PHONE", "LOCATION", "DAYS", "HOURS", "AMOUNT", "PENDING"},
		Rows:       rows,
		RightAlign: []int{3, 4, 5, 6},
		Footer: []string{
			Dim("total"), "", "", "",
			FormatHours(hours),
			Bold(service.FormatAmount(amount, currency)),
			pendingCell(pending, currency),
		},
	}
	return RenderBox(fmt.Sprintf("Customers (%d)", len(aggs)), t.Render())
}

// FormatCustomerReport renders a single customer's summary and itemized lines.
func FormatCustomerReport(a domain.CustomerAggregate, currency string) string {
	var b strings.Builder
	kv(&b, "Phone", a.Phone)
	kv(&b, "Location", CoalesceDim(a.Location))
	kv(&b, "Days worked", fmt.Sprintf("%d", a.TotalDays))
	kv(&b, "Total hours", FormatHours(a.TotalHours))
	kv(&b, "Total amount", Bold(service.FormatAmount(a.TotalAmount, currency)))
	kv(&b, "Pending", pendingCell(a.PendingAmount, currency))
	b.WriteString("\n")

	rows := make([][]string, 0, len(a.Lines))
	for _, l := range a.Lines {
		rows = append(rows, []string{
			l.Date,
			WorkTypeBadge(l.WorkType),
			FormatHours(l.Hours),
			service.FormatAmount(l.Amount, currency),
			PaymentPill(l.PaymentStatus),
		})
	}
	b.WriteString(Table{
		Headers:    []string{"DATE", "WORK", "HOURS", "AMOUNT", "STATUS"},
		Rows:       rows,
		RightAlign: []int{2, 3},
	}.Render())
	return RenderBox(a.Name, b.String())
}

// FormatTopCustomers ranks customers by billed amount.
func FormatTopCustomers(top []domain.TopCustomer, currency string) string {
	if len(top) == 0 {
		return Dim("No customers yet.") + "\n"
	}
	rows := make([][]string, 0, len(top))
	for i, c := range top {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			Bold(c.Name),
			c.Phone,
			CoalesceDim(c.Location),
			FormatHours(c.TotalHours),
			service.FormatAmount(c.TotalAmount, currency),
			c.LastVisit,
		})
	}
	t := Table{
		Headers:    []string{"#", "CUSTOMER", "PHONE", "LOCATION", "HOURS", "AMOUNT", "LAST VISIT"},
		Rows:       rows,
		RightAlign: []int{0, 4, 5},
	}
	return RenderBox("Top customers", t.Render())
}

// FormatMonthSummary renders the totals for one calendar month.
func FormatMonthSummary(m domain.MonthSummary, currency string) string {
	var b strings.Builder
	kv(&b, "Records", fmt.Sprintf("%d", m.RecordCount))
	kv(&b, "Hours", FormatHours(m.Hours))
	kv(&b, "Earnings", Bold(service.FormatAmount(m.Earnings, currency)))
	title := time.Date(m.Year, time.Month(m.Month), 1, 0, 0, 0, 0, time.UTC).Format("January 2006")
	return RenderBox(title, b.String())
}

// FormatFinancial renders the paid/pending split with a collected-share bar.
func FormatFinancial(f domain.FinancialSummary, currency string) string {
	var b strings.Builder
	kv(&b, "Paid", fmt.Sprintf("%d records", f.PaidCount))
	kv(&b, "Deferred", fmt.Sprintf("%d records", f.DeferredCount))
	kv(&b, "Partial", fmt.Sprintf("%d records", f.PartialCount))
	b.WriteString("\n")
	kv(&b, "Collected", StyleGreen.Render(FormatDecimalAmount(f.TotalPaid, currency)))
	kv(&b, "Pending", StyleRed.Render(FormatDecimalAmount(f.TotalPending, currency)))

	billed := f.TotalPaid.Add(f.TotalPending)
	pct := 0.0
	if billed.IsPositive() {
		pct = f.TotalPaid.Div(billed).InexactFloat64()
	}
	kv(&b, "Share", RenderProgress(pct, collectedBarWidth))
	if f.PartialCount > 0 {
		b.WriteString("\n" + Dim("Partial payments are counted as half paid.") + "\n")
	}
	return RenderBox("Financial report", b.String())
}

// FormatDecimalAmount groups the integer part like service.FormatAmount and
// keeps two decimals only when there is a fractional part.
func FormatDecimalAmount(d decimal.Decimal, currency string) string {
	whole := d.Truncate(0)
	s := service.FormatAmount(int(whole.IntPart()), "")
	if frac := d.Sub(whole).Abs(); !frac.IsZero() {
		s += strings.TrimPrefix(frac.StringFixed(2), "0")
	}
	if currency != "" {
		s += " " + currency
	}
	return s
}

func pendingCell(amount int, currency string) string {
	s := service.FormatAmount(amount, currency)
	if amount > 0 {
		return StyleRed.Render(s)
	}
	return Dim(s)
}
