package service

import (
	"context"

	"github.com/merosman91/Agricultural-Tractor/internal/domain"
)

// RecordFilter narrows List. Zero fields match everything.
type RecordFilter struct {
	Date          string
	Customer      string
	PaymentStatus domain.PaymentStatus
	WorkType      string
}

type RecordService interface {
	Add(ctx context.Context, in domain.RecordInput) (*domain.WorkRecord, error)
	Update(ctx context.Context, id string, patch domain.RecordPatch) (*domain.WorkRecord, error)
	Delete(ctx context.Context, id string) (bool, error)
	SetPaymentStatus(ctx context.Context, id string, status domain.PaymentStatus) (*domain.WorkRecord, error)
	Import(ctx context.Context, records []*domain.WorkRecord) (int, error)
	Clear(ctx context.Context) error

	Get(id string) (*domain.WorkRecord, error)
	List(filter RecordFilter) []*domain.WorkRecord
	Search(query string) []*domain.WorkRecord
	Stats() domain.Stats
	TopCustomers(limit int) []domain.TopCustomer
	Upcoming(days int) []*domain.WorkRecord
	MonthSummary(year, month int) domain.MonthSummary
	Snapshot() []*domain.WorkRecord
}

// RecordSource supplies a point-in-time copy of the record collection.
type RecordSource interface {
	Snapshot() []*domain.WorkRecord
}

type ReportService interface {
	BuildReports() []domain.CustomerAggregate
	Find(customer string) (*domain.CustomerAggregate, error)
	RenderShareableText(agg domain.CustomerAggregate) string
	FinancialReport() domain.FinancialSummary
}
