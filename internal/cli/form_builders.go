package cli

import (
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/merosman91/Agricultural-Tractor/internal/domain"
)

// recordFormValues holds the raw strings collected by the add form.
type recordFormValues struct {
	Customer string
	Phone    string
	Location string
	WorkType string
	Date     string
	Hours    string
	Rate     string
	Status   string
	Notes    string
}

// input converts validated form values. Blank rate and date fall through to
// the store defaults.
func (v recordFormValues) input() domain.RecordInput {
	return domain.RecordInput{
		CustomerName:  v.Customer,
		Phone:         v.Phone,
		Location:      v.Location,
		WorkType:      v.WorkType,
		Notes:         v.Notes,
		Date:          v.Date,
		Hours:         parsePositiveInt(v.Hours, 0),
		HourlyRate:    parsePositiveInt(v.Rate, 0),
		PaymentStatus: domain.PaymentStatus(v.Status),
	}
}

// dateInput returns a huh.Input for an optional date field with YYYY-MM-DD validation.
func dateInput(title, placeholder string, value *string) *huh.Input {
	if placeholder == "" {
		placeholder = "2025-06-30"
	}
	return huh.NewInput().
		Title(title).
		Placeholder(placeholder).
		Value(value).
		Validate(validateOptionalDate)
}

// hoursInput returns a huh.Input for the worked hours.
func hoursInput(value *string) *huh.Input {
	return huh.NewInput().
		Title("Hours").
		Placeholder("4").
		Value(value).
		Validate(validateHours)
}

// rateInput returns a huh.Input for an optional hourly rate.
func rateInput(defaultRate int, value *string) *huh.Input {
	return huh.NewInput().
		Title("Hourly rate (blank for default)").
		Placeholder(strconv.Itoa(defaultRate)).
		Value(value).
		Validate(validatePositiveInt)
}

// paymentSelect returns a huh.Select over the payment statuses.
func paymentSelect(value *string) *huh.Select[string] {
	if *value == "" {
		*value = string(domain.PaymentDeferred)
	}
	return huh.NewSelect[string]().
		Title("Payment").
		Options(
			huh.NewOption("Deferred", string(domain.PaymentDeferred)),
			huh.NewOption("Paid", string(domain.PaymentPaid)),
			huh.NewOption("Partial", string(domain.PaymentPartial)),
		).
		Value(value)
}

// recordForm returns the themed two-page form used by "record add" on a TTY.
func recordForm(defaultRate int, today string, v *recordFormValues) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Customer name").Value(&v.Customer).Validate(validateRequired("customer name")),
			huh.NewInput().Title("Phone").Placeholder("0912345678").Value(&v.Phone).Validate(validateRequired("phone")),
			huh.NewInput().Title("Location").Value(&v.Location),
		),
		huh.NewGroup(
			dateInput("Date (blank for today)", today, &v.Date),
			hoursInput(&v.Hours),
			rateInput(defaultRate, &v.Rate),
			huh.NewInput().Title("Work type").Placeholder("plowing").Value(&v.WorkType),
			paymentSelect(&v.Status),
			huh.NewText().Title("Notes").Value(&v.Notes),
		),
	).WithTheme(tractorHuhTheme()).WithShowHelp(false)
}
