package service

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/merosman91/Agricultural-Tractor/internal/domain"
	"github.com/shopspring/decimal"
)

// CustomerAggregator derives per-customer rollups from a RecordSource. It
// keeps no state of its own; every call reads a fresh snapshot.
type CustomerAggregator struct {
	source   RecordSource
	currency string
}

func NewCustomerAggregator(source RecordSource, currency string) *CustomerAggregator {
	return &CustomerAggregator{source: source, currency: currency}
}

// BuildReports groups records by customer name, sorted by total amount
// descending and then by name. Partial payments count as fully pending.
func (a *CustomerAggregator) BuildReports() []domain.CustomerAggregate {
	records := a.source.Snapshot()

	byName := make(map[string]*domain.CustomerAggregate)
	days := make(map[string]map[string]struct{})
	var order []string
	for _, r := range records {
		agg, ok := byName[r.CustomerName]
		if !ok {
			agg = &domain.CustomerAggregate{
				Name:           r.CustomerName,
				Phone:          r.Phone,
				WorkTypeCounts: make(map[string]int),
			}
			byName[r.CustomerName] = agg
			days[r.CustomerName] = make(map[string]struct{})
			order = append(order, r.CustomerName)
		}
		agg.Location = domain.CoalesceStr(agg.Location, r.Location)
		agg.TotalHours += r.Hours
		agg.TotalAmount += r.TotalAmount
		if r.PaymentStatus != domain.PaymentPaid {
			agg.PendingAmount += r.TotalAmount
		}
		agg.WorkTypeCounts[r.WorkTypeLabel()]++
		days[r.CustomerName][r.Date] = struct{}{}
		agg.Lines = append(agg.Lines, domain.ReportLine{
			ID:            r.ID,
			Date:          r.Date,
			Hours:         r.Hours,
			WorkType:      r.WorkTypeLabel(),
			Amount:        r.TotalAmount,
			PaymentStatus: r.PaymentStatus,
			Notes:         r.Notes,
		})
	}

	out := make([]domain.CustomerAggregate, 0, len(order))
	for _, name := range order {
		agg := byName[name]
		agg.TotalDays = len(days[name])
		sort.SliceStable(agg.Lines, func(i, j int) bool { return agg.Lines[i].Date > agg.Lines[j].Date })
		out = append(out, *agg)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TotalAmount != out[j].TotalAmount {
			return out[i].TotalAmount > out[j].TotalAmount
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Find returns the aggregate for one customer, matched case-insensitively by
// name or exactly by phone.
func (a *CustomerAggregator) Find(customer string) (*domain.CustomerAggregate, error) {
	needle := strings.TrimSpace(customer)
	for _, agg := range a.BuildReports() {
		if strings.EqualFold(agg.Name, needle) || agg.Phone == needle {
			found := agg
			return &found, nil
		}
	}
	return nil, fmt.Errorf("customer %q: %w", customer, domain.ErrNotFound)
}

// RenderShareableText formats agg as a plain-text message suitable for a chat
// app. Output is deterministic for a given aggregate.
func (a *CustomerAggregator) RenderShareableText(agg domain.CustomerAggregate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Work report: %s*\n\n", agg.Name)
	fmt.Fprintf(&b, "Phone: %s\n", agg.Phone)
	fmt.Fprintf(&b, "Location: %s\n", domain.CoalesceStr(agg.Location, "unspecified"))
	fmt.Fprintf(&b, "Days worked: %d\n", agg.TotalDays)
	fmt.Fprintf(&b, "Total hours: %d\n", agg.TotalHours)
	fmt.Fprintf(&b, "Total amount: %s\n\n", a.FormatAmount(agg.TotalAmount))
	fmt.Fprintf(&b, "*Pending balance: %s*\n\n", a.FormatAmount(agg.PendingAmount))
	b.WriteString("*Details:*\n")
	for i, line := range agg.Lines {
		fmt.Fprintf(&b, "%d. %s - %s - %d h - %s - %s\n",
			i+1, line.Date, line.WorkType, line.Hours, a.FormatAmount(line.Amount), line.PaymentStatus)
	}
	b.WriteString("\n---\nGenerated by tractorlog")
	return b.String()
}

// FormatAmount renders a whole-unit amount with thousands separators and the
// configured currency code.
func (a *CustomerAggregator) FormatAmount(amount int) string {
	return FormatAmount(amount, a.currency)
}

// FormatAmount groups digits in threes, e.g. 45000 SDG -> "45,000 SDG".
func FormatAmount(amount int, currency string) string {
	digits := strconv.Itoa(amount)
	sign := ""
	if strings.HasPrefix(digits, "-") {
		sign, digits = "-", digits[1:]
	}
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	out := sign + b.String()
	if currency != "" {
		out += " " + currency
	}
	return out
}

var half = decimal.NewFromFloat(0.5)

// FinancialReport splits billed amounts by payment status. Unlike the
// customer rollups, a partial payment counts as half paid and half pending.
func (a *CustomerAggregator) FinancialReport() domain.FinancialSummary {
	sum := domain.FinancialSummary{TotalPaid: decimal.Zero, TotalPending: decimal.Zero}
	for _, r := range a.source.Snapshot() {
		amount := decimal.NewFromInt(int64(r.TotalAmount))
		switch r.PaymentStatus {
		case domain.PaymentPaid:
			sum.PaidCount++
			sum.TotalPaid = sum.TotalPaid.Add(amount)
		case domain.PaymentPartial:
			sum.PartialCount++
			paid := amount.Mul(half)
			sum.TotalPaid = sum.TotalPaid.Add(paid)
			sum.TotalPending = sum.TotalPending.Add(amount.Sub(paid))
		default:
			sum.DeferredCount++
			sum.TotalPending = sum.TotalPending.Add(amount)
		}
	}
	return sum
}
