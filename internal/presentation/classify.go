// Package presentation derives per-row display hints from failure records.
package presentation

import (
	"fmt"
	"strings"

	"github.com/miradorstack/failure-insights/internal/models"
)

// Classifier assigns a style tag to a record. Implementations must be pure and total.
type Classifier interface {
	Classify(record models.FailureRecord) models.StyleTag
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(record models.FailureRecord) models.StyleTag

// Classify implements Classifier.
func (f ClassifierFunc) Classify(record models.FailureRecord) models.StyleTag {
	return f(record)
}

// MissingJob flags records that cannot be linked to an execution log.
var MissingJob = ClassifierFunc(func(record models.FailureRecord) models.StyleTag {
	if strings.TrimSpace(record.JobID) == "" {
		return models.StyleFlagged
	}
	return models.StyleNormal
})

// Classify runs c over record, defaulting to MissingJob and coercing unknown tags to normal.
func Classify(c Classifier, record models.FailureRecord) models.StyleTag {
	if c == nil {
		c = MissingJob
	}
	tag := c.Classify(record)
	if !tag.Valid() {
		return models.StyleNormal
	}
	return tag
}

// FailureSummary renders the per-row count of unexpected failures.
func FailureSummary(record models.FailureRecord) string {
	n := len(record.LogLines)
	if n > 1 {
		return fmt.Sprintf("%d unexpected-fails", n)
	}
	return fmt.Sprintf("%d unexpected-fail", n)
}
