package domain

import (
	"fmt"
	"strings"
	"time"
)

// WorkRecord is one logged unit of tractor work performed for a customer.
type WorkRecord struct {
	ID            string        `json:"id"`
	CustomerName  string        `json:"customerName"`
	Phone         string        `json:"phone"`
	Location      string        `json:"location,omitempty"`
	WorkType      string        `json:"workType,omitempty"`
	Notes         string        `json:"notes,omitempty"`
	Date          string        `json:"date"`
	Hours         int           `json:"hours"`
	HourlyRate    int           `json:"hourlyRate"`
	TotalAmount   int           `json:"totalAmount"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// RecordInput carries caller-supplied fields for a new record.
// Zero values mean "not provided".
type RecordInput struct {
	CustomerName  string
	Phone         string
	Location      string
	WorkType      string
	Notes         string
	Date          string
	Hours         int
	HourlyRate    int
	PaymentStatus PaymentStatus
}

// RecordPatch is a partial update. Nil fields are left untouched.
type RecordPatch struct {
	CustomerName  *string
	Phone         *string
	Location      *string
	WorkType      *string
	Notes         *string
	Date          *string
	Hours         *int
	HourlyRate    *int
	PaymentStatus *PaymentStatus
}

// IsEmpty reports whether the patch changes nothing.
func (p RecordPatch) IsEmpty() bool {
	return p.CustomerName == nil && p.Phone == nil && p.Location == nil &&
		p.WorkType == nil && p.Notes == nil && p.Date == nil &&
		p.Hours == nil && p.HourlyRate == nil && p.PaymentStatus == nil
}

// NewWorkRecord validates input and builds a record with derived fields set.
// A zero HourlyRate falls back to defaultRate; an empty Date means today;
// an empty PaymentStatus means deferred.
func NewWorkRecord(in RecordInput, id string, defaultRate int, now time.Time) (*WorkRecord, error) {
	r := &WorkRecord{
		ID:            id,
		CustomerName:  strings.TrimSpace(in.CustomerName),
		Phone:         strings.TrimSpace(in.Phone),
		Location:      strings.TrimSpace(in.Location),
		WorkType:      strings.TrimSpace(in.WorkType),
		Notes:         strings.TrimSpace(in.Notes),
		Date:          strings.TrimSpace(in.Date),
		Hours:         in.Hours,
		HourlyRate:    in.HourlyRate,
		PaymentStatus: in.PaymentStatus,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if r.Hours == 0 {
		return nil, &ValidationError{Field: "hours", Message: "is required"}
	}
	if r.HourlyRate == 0 {
		r.HourlyRate = defaultRate
	}
	if r.Date == "" {
		r.Date = now.Format(DateLayout)
	}
	if r.PaymentStatus == "" {
		r.PaymentStatus = PaymentDeferred
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	r.recomputeTotal()
	return r, nil
}

// Validate checks required fields and ranges. It does not touch TotalAmount.
func (r *WorkRecord) Validate() error {
	if strings.TrimSpace(r.CustomerName) == "" {
		return &ValidationError{Field: "customer_name", Message: "is required"}
	}
	if strings.TrimSpace(r.Phone) == "" {
		return &ValidationError{Field: "phone", Message: "is required"}
	}
	if r.Hours < MinHours || r.Hours > MaxHours {
		return &ValidationError{Field: "hours", Message: fmt.Sprintf("must be between %d and %d, got %d", MinHours, MaxHours, r.Hours)}
	}
	if r.HourlyRate <= 0 {
		return &ValidationError{Field: "hourly_rate", Message: fmt.Sprintf("must be positive, got %d", r.HourlyRate)}
	}
	if _, err := time.Parse(DateLayout, r.Date); err != nil {
		return &ValidationError{Field: "date", Message: fmt.Sprintf("%q is not a YYYY-MM-DD date", r.Date)}
	}
	if !ValidPaymentStatuses[r.PaymentStatus] {
		return &ValidationError{Field: "payment_status", Message: fmt.Sprintf("unknown status %q", r.PaymentStatus)}
	}
	return nil
}

// ApplyPatch merges p into the record. On error the record is left unchanged.
func (r *WorkRecord) ApplyPatch(p RecordPatch, now time.Time) error {
	next := *r
	if p.CustomerName != nil {
		next.CustomerName = strings.TrimSpace(*p.CustomerName)
	}
	if p.Phone != nil {
		next.Phone = strings.TrimSpace(*p.Phone)
	}
	if p.Location != nil {
		next.Location = strings.TrimSpace(*p.Location)
	}
	if p.WorkType != nil {
		next.WorkType = strings.TrimSpace(*p.WorkType)
	}
	if p.Notes != nil {
		next.Notes = strings.TrimSpace(*p.Notes)
	}
	if p.Date != nil {
		next.Date = strings.TrimSpace(*p.Date)
	}
	if p.Hours != nil {
		next.Hours = *p.Hours
	}
	if p.HourlyRate != nil {
		next.HourlyRate = *p.HourlyRate
	}
	if p.PaymentStatus != nil {
		next.PaymentStatus = *p.PaymentStatus
	}
	if err := next.Validate(); err != nil {
		return err
	}
	if p.Hours != nil || p.HourlyRate != nil {
		next.recomputeTotal()
	}
	next.UpdatedAt = now
	*r = next
	return nil
}

// Normalize validates a record from an untrusted source (import, disk) and
// restores the TotalAmount invariant.
func (r *WorkRecord) Normalize() error {
	if err := r.Validate(); err != nil {
		return err
	}
	r.recomputeTotal()
	return nil
}

// WorkTypeLabel returns the work type, or UnspecifiedWorkType when blank.
func (r *WorkRecord) WorkTypeLabel() string {
	return CoalesceStr(r.WorkType, UnspecifiedWorkType)
}

// DateValue parses Date. Records are validated on every write path, so a
// parse failure yields the zero time.
func (r *WorkRecord) DateValue() time.Time {
	t, _ := time.Parse(DateLayout, r.Date)
	return t
}

func (r *WorkRecord) recomputeTotal() {
	r.TotalAmount = r.Hours * r.HourlyRate
}
