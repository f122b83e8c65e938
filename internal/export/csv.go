package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/merosman91/Agricultural-Tractor/internal/domain"
)

// CSVHeader is the column order written by WriteCSV.
var CSVHeader = []string{
	"id",
	"customer_name",
	"phone",
	"date",
	"hours",
	"hourly_rate",
	"total_amount",
	"payment_status",
	"location",
	"work_type",
	"notes",
}

func WriteCSV(w io.Writer, records []*domain.WorkRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, r := range records {
		row := []string{
			r.ID,
			r.CustomerName,
			r.Phone,
			r.Date,
			strconv.Itoa(r.Hours),
			strconv.Itoa(r.HourlyRate),
			strconv.Itoa(r.TotalAmount),
			string(r.PaymentStatus),
			r.Location,
			r.WorkType,
			r.Notes,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv row %s: %w", r.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV decodes records from a CSV file whose first row names the columns.
// Columns may appear in any order; customer_name, phone and hours are
// required. Unknown columns are ignored.
func ReadCSV(r io.Reader) ([]*domain.WorkRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return []*domain.WorkRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, required := range []string{"customer_name", "phone", "hours"} {
		if _, ok := cols[required]; !ok {
			return nil, &domain.ValidationError{Field: required, Message: "column missing from csv header"}
		}
	}

	var records []*domain.WorkRecord
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv line %d: %w", line, err)
		}
		if isBlankRow(row) {
			continue
		}
		rec, err := recordFromRow(row, cols)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	if records == nil {
		records = []*domain.WorkRecord{}
	}
	return records, nil
}

func recordFromRow(row []string, cols map[string]int) (*domain.WorkRecord, error) {
	get := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	hours, err := atoiField("hours", get("hours"))
	if err != nil {
		return nil, err
	}
	rate, err := atoiField("hourly_rate", get("hourly_rate"))
	if err != nil {
		return nil, err
	}
	rec := &domain.WorkRecord{
		ID:           get("id"),
		CustomerName: get("customer_name"),
		Phone:        get("phone"),
		Date:         get("date"),
		Hours:        hours,
		HourlyRate:   rate,
		Location:     get("location"),
		WorkType:     get("work_type"),
		Notes:        get("notes"),
	}
	if s := get("payment_status"); s != "" {
		status, err := domain.ParsePaymentStatus(s)
		if err != nil {
			return nil, err
		}
		rec.PaymentStatus = status
	}
	return rec, nil
}

func atoiField(field, s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, &domain.ValidationError{Field: field, Message: fmt.Sprintf("%q is not a whole number", s)}
	}
	return n, nil
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
