package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/merosman91/Agricultural-Tractor/internal/domain"
	"github.com/merosman91/Agricultural-Tractor/internal/service"
)

const notePreviewLen = 30

// FormatRecordList renders records as a boxed table with a totals footer.
func FormatRecordList(title string, records []*domain.WorkRecord, currency string) string {
	if len(records) == 0 {
		return Dim("No records found.") + "\n"
	}

	headers := []string{"ID", "DATE", "CUSTOMER", "PHONE", "WORK", "HOURS", "AMOUNT", "STATUS"}
	rows := make([][]string, 0, len(records))
	var hours, amount int
	for _, r := range records {
		hours += r.Hours
		amount += r.TotalAmount
		rows = append(rows, []string{
			TruncID(r.ID),
			r.Date,
			Bold(r.CustomerName),
			r.Phone,
			WorkTypeBadge(r.WorkType),
			FormatHours(r.Hours),
			service.FormatAmount(r.TotalAmount, currency),
			PaymentPill(r.PaymentStatus),
		})
	}

	t := Table{
		Headers:    headers,
		Rows:       rows,
		RightAlign: []int{5, 6},
		Footer:     []string{Dim("total"), "", "", "", "", FormatHours(hours), Bold(service.FormatAmount(amount, currency)), ""},
	}
	return RenderBox(fmt.Sprintf("%s (%d)", title, len(records)), t.Render())
}

// FormatRecordDetail renders every field of one record.
func FormatRecordDetail(r *domain.WorkRecord, currency string) string {
	var b strings.Builder
	kv(&b, "ID", r.ID)
	kv(&b, "Customer", Bold(r.CustomerName))
	kv(&b, "Phone", r.Phone)
	kv(&b, "Location", CoalesceDim(r.Location))
	kv(&b, "Work type", WorkTypeBadge(r.WorkType))
	kv(&b, "Date", r.Date)
	kv(&b, "Hours", FormatHours(r.Hours))
	kv(&b, "Rate", service.FormatAmount(r.HourlyRate, currency)+Dim(" / h"))
	kv(&b, "Total", Bold(service.FormatAmount(r.TotalAmount, currency)))
	kv(&b, "Payment", PaymentPill(r.PaymentStatus))
	if r.Notes != "" {
		kv(&b, "Notes", r.Notes)
	}
	kv(&b, "Updated", Dim(r.UpdatedAt.Local().Format("2006-01-02 15:04")))
	return RenderBox("Work record", b.String())
}

// FormatUpcoming lists scheduled work with a relative day column.
func FormatUpcoming(records []*domain.WorkRecord, now time.Time) string {
	if len(records) == 0 {
		return Dim("No upcoming work.") + "\n"
	}
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		when := RelativeDayFrom(r.Date, now)
		if when == "Today" {
			when = StyleGreen.Render(when)
		}
		rows = append(rows, []string{
			r.Date,
			when,
			Bold(r.CustomerName),
			r.Phone,
			CoalesceDim(r.Location),
			WorkTypeBadge(r.WorkType),
			FormatHours(r.Hours),
			Dim(Truncate(r.Notes, notePreviewLen)),
		})
	}
	t := Table{
		Headers:    []string{"DATE", "WHEN", "CUSTOMER", "PHONE", "LOCATION", "WORK", "HOURS", "NOTES"},
		Rows:       rows,
		RightAlign: []int{6},
	}
	return RenderBox("Upcoming work", t.Render())
}

// FormatStats renders the dashboard counters.
func FormatStats(s domain.Stats, currency string) string {
	var b strings.Builder
	kv(&b, "Records", fmt.Sprintf("%d", s.RecordCount))
	kv(&b, "Customers", fmt.Sprintf("%d", s.TotalCustomers))
	kv(&b, "Total hours", FormatHours(s.TotalHours))
	kv(&b, "Today", FormatHours(s.TodayHours))
	kv(&b, "Earnings", Bold(service.FormatAmount(s.TotalEarnings, currency)))
	unpaid := service.FormatAmount(s.UnpaidAmount, currency)
	if s.UnpaidAmount > 0 {
		unpaid = StyleRed.Render(unpaid)
	}
	kv(&b, "Unpaid", unpaid)
	kv(&b, "Common work", WorkTypeBadge(s.MostCommonWork))
	return RenderBox("Dashboard", b.String())
}

// CoalesceDim renders a dimmed "--" for blank values.
func CoalesceDim(s string) string {
	if s == "" {
		return Dim("--")
	}
	return s
}

const kvLabelWidth = 14

func kv(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "%s%s\n", Dim(fmt.Sprintf("%-*s", kvLabelWidth, label)), value)
}
