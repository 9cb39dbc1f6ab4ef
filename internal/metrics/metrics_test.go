package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestRegisterTwice(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := Register(reg); err != nil {
		t.Fatalf("second register should be tolerated: %v", err)
	}
}

func TestObserveAnalysisLabels(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatalf("register: %v", err)
	}
	ObserveAnalysis(-time.Second, "weird")
	ObserveAnalysis(time.Second, OutcomeError)
	ObserveCatalogSize(4)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	outcomes := map[string]bool{}
	for _, mf := range families {
		if mf.GetName() != "failure_insights_analyses_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				outcomes[l.GetValue()] = true
			}
		}
	}
	if !outcomes[OutcomeSuccess] || !outcomes[OutcomeError] || len(outcomes) != 2 {
		t.Fatalf("unexpected outcome labels: %v", outcomes)
	}
}
