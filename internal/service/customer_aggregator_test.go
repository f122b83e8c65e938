package service

import (
	"testing"

	"github.com/merosman91/Agricultural-Tractor/internal/domain"
	"github.com/merosman91/Agricultural-Tractor/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource []*domain.WorkRecord

func (s staticSource) Snapshot() []*domain.WorkRecord { return s }

func rec(name, date string, hours, rate int, status domain.PaymentStatus, workType string) *domain.WorkRecord {
	return &domain.WorkRecord{
		ID: name + date, CustomerName: name, Phone: "0912", Date: date,
		Hours: hours, HourlyRate: rate, TotalAmount: hours * rate,
		PaymentStatus: status, WorkType: workType,
	}
}

func TestBuildReports_Aggregation(t *testing.T) {
	paid := rec("A", "2025-01-01", 3, 0, domain.PaymentPaid, "")
	paid.TotalAmount = 100
	src := staticSource{
		paid,
		rec("A", "2025-01-02", 2, 25, domain.PaymentDeferred, "plowing"),
	}

	reports := NewCustomerAggregator(src, "").BuildReports()
	require.Len(t, reports, 1)
	a := reports[0]
	assert.Equal(t, 5, a.TotalHours)
	assert.Equal(t, 150, a.TotalAmount)
	assert.Equal(t, 50, a.PendingAmount)
	assert.Equal(t, 2, a.TotalDays)
	assert.Equal(t, map[string]int{domain.UnspecifiedWorkType: 1, "plowing": 1}, a.WorkTypeCounts)
	require.Len(t, a.Lines, 2)
	assert.Equal(t, "2025-01-02", a.Lines[0].Date, "lines ordered by date descending")
}

func TestBuildReports_SortedByAmountThenName(t *testing.T) {
	src := staticSource{
		rec("Zed", "2025-01-01", 1, 100, domain.PaymentPaid, ""),
		rec("Big", "2025-01-01", 5, 100, domain.PaymentPaid, ""),
		rec("Amy", "2025-01-01", 1, 100, domain.PaymentPaid, ""),
	}
	reports := NewCustomerAggregator(src, "").BuildReports()
	require.Len(t, reports, 3)
	assert.Equal(t, []string{"Big", "Amy", "Zed"}, []string{reports[0].Name, reports[1].Name, reports[2].Name})
}

func TestBuildReports_PartialCountsFullyPending(t *testing.T) {
	src := staticSource{rec("A", "2025-01-01", 2, 100, domain.PaymentPartial, "")}
	reports := NewCustomerAggregator(src, "").BuildReports()
	require.Len(t, reports, 1)
	assert.Equal(t, 200, reports[0].PendingAmount)
}

func TestBuildReports_Empty(t *testing.T) {
	reports := NewCustomerAggregator(staticSource{}, "").BuildReports()
	assert.NotNil(t, reports)
	assert.Empty(t, reports)
}

func TestFind(t *testing.T) {
	store, _ := newTestStore(t)
	seed(t, store, testutil.NewTestRecordInput("Ali", testutil.WithPhone("0912345678")))
	agg := NewCustomerAggregator(store, "SDG")

	byName, err := agg.Find("ali")
	require.NoError(t, err)
	assert.Equal(t, "Ali", byName.Name)

	byPhone, err := agg.Find("0912345678")
	require.NoError(t, err)
	assert.Equal(t, "Ali", byPhone.Name)

	_, err = agg.Find("Omar")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRenderShareableText(t *testing.T) {
	src := staticSource{
		rec("Ali", "2025-01-01", 4, 5000, domain.PaymentDeferred, "plowing"),
		rec("Ali", "2025-01-03", 3, 5000, domain.PaymentPaid, ""),
	}
	agg := NewCustomerAggregator(src, "SDG")
	reports := agg.BuildReports()
	require.Len(t, reports, 1)

	text := agg.RenderShareableText(reports[0])
	assert.Equal(t, text, agg.RenderShareableText(reports[0]), "rendering is deterministic")
	assert.Contains(t, text, "*Work report: Ali*")
	assert.Contains(t, text, "Phone: 0912")
	assert.Contains(t, text, "Location: unspecified")
	assert.Contains(t, text, "Days worked: 2")
	assert.Contains(t, text, "Total hours: 7")
	assert.Contains(t, text, "Total amount: 35,000 SDG")
	assert.Contains(t, text, "*Pending balance: 20,000 SDG*")
	assert.Contains(t, text, "1. 2025-01-03 - unspecified - 3 h - 15,000 SDG - paid")
	assert.Contains(t, text, "2. 2025-01-01 - plowing - 4 h - 20,000 SDG - deferred")
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "0", FormatAmount(0, ""))
	assert.Equal(t, "999 SDG", FormatAmount(999, "SDG"))
	assert.Equal(t, "1,000 SDG", FormatAmount(1000, "SDG"))
	assert.Equal(t, "1,234,567", FormatAmount(1234567, ""))
	assert.Equal(t, "-45,000", FormatAmount(-45000, ""))
}

func TestFinancialReport_SplitsPartialInHalf(t *testing.T) {
	src := staticSource{
		rec("A", "2025-01-01", 2, 100, domain.PaymentPaid, ""),
		rec("B", "2025-01-01", 3, 100, domain.PaymentDeferred, ""),
		rec("C", "2025-01-01", 1, 101, domain.PaymentPartial, ""),
	}
	sum := NewCustomerAggregator(src, "").FinancialReport()
	assert.Equal(t, 1, sum.PaidCount)
	assert.Equal(t, 1, sum.DeferredCount)
	assert.Equal(t, 1, sum.PartialCount)
	assert.True(t, decimal.RequireFromString("250.5").Equal(sum.TotalPaid), sum.TotalPaid.String())
	assert.True(t, decimal.RequireFromString("350.5").Equal(sum.TotalPending), sum.TotalPending.String())
}
