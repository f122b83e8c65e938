package domain

import (
	"fmt"
	"strings"
)

type PaymentStatus string

const (
	PaymentPaid     PaymentStatus = "paid"
	PaymentDeferred PaymentStatus = "deferred"
	PaymentPartial  PaymentStatus = "partial"
)

// ValidPaymentStatuses is the canonical set of accepted payment status strings.
var ValidPaymentStatuses = map[PaymentStatus]bool{
	PaymentPaid: true, PaymentDeferred: true, PaymentPartial: true,
}

// IsSettled reports whether the record counts as fully paid in rollups.
// Partial payments are treated as outstanding.
func (s PaymentStatus) IsSettled() bool {
	return s == PaymentPaid
}

// ParsePaymentStatus accepts a status label in any case.
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	ps := PaymentStatus(strings.ToLower(strings.TrimSpace(s)))
	if !ValidPaymentStatuses[ps] {
		return "", &ValidationError{Field: "payment_status", Message: fmt.Sprintf("unknown status %q (use paid, deferred or partial)", s)}
	}
	return ps, nil
}

// UnspecifiedWorkType labels records that carry no work type in rollups.
const UnspecifiedWorkType = "unspecified"

// Bounds for a single work record.
const (
	MinHours = 1
	MaxHours = 24
)

// DateLayout is the ISO 8601 calendar date format used for WorkRecord.Date.
const DateLayout = "2006-01-02"
