package testutil

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/merosman91/Agricultural-Tractor/internal/domain"
)

var testPhoneCounter atomic.Int64

// RecordOption customizes a RecordInput fixture.
type RecordOption func(*domain.RecordInput)

func WithDate(d string) RecordOption {
	return func(in *domain.RecordInput) {
		in.Date = d
	}
}

func WithHours(h int) RecordOption {
	return func(in *domain.RecordInput) {
		in.Hours = h
	}
}

func WithRate(rate int) RecordOption {
	return func(in *domain.RecordInput) {
		in.HourlyRate = rate
	}
}

func WithStatus(s domain.PaymentStatus) RecordOption {
	return func(in *domain.RecordInput) {
		in.PaymentStatus = s
	}
}

func WithWorkType(w string) RecordOption {
	return func(in *domain.RecordInput) {
		in.WorkType = w
	}
}

func WithPhone(p string) RecordOption {
	return func(in *domain.RecordInput) {
		in.Phone = p
	}
}

func WithLocation(l string) RecordOption {
	return func(in *domain.RecordInput) {
		in.Location = l
	}
}

func WithNotes(n string) RecordOption {
	return func(in *domain.RecordInput) {
		in.Notes = n
	}
}

// NewTestRecordInput returns a valid input for customer with a unique phone,
// 2 hours at 5000, deferred, dated 2025-01-01.
func NewTestRecordInput(customer string, opts ...RecordOption) domain.RecordInput {
	in := domain.RecordInput{
		CustomerName:  customer,
		Phone:         fmt.Sprintf("09%08d", testPhoneCounter.Add(1)),
		Date:          "2025-01-01",
		Hours:         2,
		HourlyRate:    5000,
		PaymentStatus: domain.PaymentDeferred,
	}
	for _, opt := range opts {
		opt(&in)
	}
	return in
}

// FixedClock returns a clock function pinned to t.
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
