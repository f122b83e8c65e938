package domain

import "github.com/shopspring/decimal"

// Stats holds dashboard counters over the whole record collection.
type Stats struct {
	TotalHours     int
	TotalCustomers int
	TodayHours     int
	TotalEarnings  int
	UnpaidAmount   int
	RecordCount    int
	MostCommonWork string
}

// ReportLine is one itemized record inside a customer aggregate.
type ReportLine struct {
	ID            string
	Date          string
	Hours         int
	WorkType      string
	Amount        int
	PaymentStatus PaymentStatus
	Notes         string
}

// CustomerAggregate is a per-customer rollup, rebuilt on every request.
type CustomerAggregate struct {
	Name           string
	Phone          string
	Location       string
	TotalDays      int
	TotalHours     int
	TotalAmount    int
	PendingAmount  int
	WorkTypeCounts map[string]int
	Lines          []ReportLine
}

// TopCustomer ranks customers by billed amount.
type TopCustomer struct {
	Name        string
	Phone       string
	Location    string
	TotalHours  int
	TotalAmount int
	LastVisit   string
}

// MonthSummary totals the records dated within one calendar month.
type MonthSummary struct {
	Year        int
	Month       int
	RecordCount int
	Hours       int
	Earnings    int
}

// FinancialSummary splits billed amounts by settlement state. Partial
// payments are assumed half paid.
type FinancialSummary struct {
	PaidCount     int
	DeferredCount int
	PartialCount  int
	TotalPaid     decimal.Decimal
	TotalPending  decimal.Decimal
}
