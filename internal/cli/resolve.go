package cli

import (
	"fmt"
	"strings"

	"github.com/merosman91/Agricultural-Tractor/internal/domain"
)

// resolveRecordID accepts a full record ID or the short prefix shown in
// tables. A prefix must match exactly one record.
func resolveRecordID(app *App, input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("record ID is required")
	}
	if _, err := app.Records.Get(input); err == nil {
		return input, nil
	}

	var matches []string
	for _, r := range app.Records.Snapshot() {
		if strings.HasPrefix(r.ID, input) {
			matches = append(matches, r.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("record %q: %w", input, domain.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("record prefix %q is ambiguous (%d matches)", input, len(matches))
	}
}
