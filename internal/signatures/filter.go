package signatures

import "github.com/miradorstack/failure-insights/internal/models"

// Matches reports whether record belongs to the signature group selected by selector.
// SelectorAll matches everything; an unknown signature never matches a specific selector.
func Matches(record models.FailureRecord, selector string, catalog *Catalog) bool {
	if selector == SelectorAll {
		return true
	}
	id, ok := catalog.IDFor(NormalizeLines(record.LogLines))
	if !ok {
		return false
	}
	return id == selector
}

// Filter keeps the records matching selector, preserving order.
func Filter(records []models.FailureRecord, selector string, catalog *Catalog) []models.FailureRecord {
	out := make([]models.FailureRecord, 0, len(records))
	for _, record := range records {
		if Matches(record, selector, catalog) {
			out = append(out, record)
		}
	}
	return out
}

// Selector returns the selector to apply, falling back to SelectorAll for the reset state.
func Selector(value string) string {
	if value == "" {
		return SelectorAll
	}
	return value
}
