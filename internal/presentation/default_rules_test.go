package presentation

import (
	"path/filepath"
	"testing"

	"github.com/miradorstack/failure-insights/internal/models"
)

func TestShippedRulesMatchDefaultPolicy(t *testing.T) {
	classifier, err := NewRuleClassifier(filepath.Join("..", "..", "configs", "rules", "default.yaml"), nil)
	if err != nil {
		t.Fatalf("load shipped rules: %v", err)
	}
	if classifier == nil {
		t.Fatalf("shipped rules not found")
	}
	records := []models.FailureRecord{{JobID: "12"}, {JobID: ""}, {JobID: " "}}
	for _, record := range records {
		if got, want := Classify(classifier, record), MissingJob(record); got != want {
			t.Fatalf("record %+v: rules gave %s, default policy %s", record, got, want)
		}
	}
}
