// Package export moves work records in and out of the store as JSON, CSV and
// XLSX files, and renders customer reports as PDF.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/merosman91/Agricultural-Tractor/internal/domain"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ErrUnsupportedFormat is returned for a format the operation cannot handle.
var ErrUnsupportedFormat = errors.New("unsupported format")

// ParseFormat accepts a format name or a file name with a known extension.
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if i := strings.LastIndex(s, "."); i >= 0 {
		s = s[i+1:]
	}
	switch Format(s) {
	case FormatJSON, FormatCSV, FormatXLSX:
		return Format(s), nil
	}
	return "", fmt.Errorf("%q: %w", s, ErrUnsupportedFormat)
}

// Write encodes records to w in the given format.
func Write(w io.Writer, records []*domain.WorkRecord, format Format) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, records)
	case FormatCSV:
		return WriteCSV(w, records)
	case FormatXLSX:
		return WriteXLSX(w, records)
	}
	return fmt.Errorf("export %q: %w", format, ErrUnsupportedFormat)
}

// Read decodes records from r. XLSX is export-only.
func Read(r io.Reader, format Format) ([]*domain.WorkRecord, error) {
	switch format {
	case FormatJSON:
		return ReadJSON(r)
	case FormatCSV:
		return ReadCSV(r)
	}
	return nil, fmt.Errorf("import %q: %w", format, ErrUnsupportedFormat)
}

func WriteJSON(w io.Writer, records []*domain.WorkRecord) error {
	if records == nil {
		records = []*domain.WorkRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encoding records: %w", err)
	}
	return nil
}

// ReadJSON decodes a JSON array of records. Totals are not trusted; the
// store recomputes them on import.
func ReadJSON(r io.Reader) ([]*domain.WorkRecord, error) {
	var records []*domain.WorkRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decoding records: %w", err)
	}
	return records, nil
}
