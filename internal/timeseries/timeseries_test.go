package timeseries

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/miradorstack/failure-insights/internal/models"
)

func points(counts ...float64) []models.TimeSeriesPoint {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.TimeSeriesPoint, 0, len(counts))
	for i, c := range counts {
		out = append(out, models.TimeSeriesPoint{Timestamp: start.AddDate(0, 0, i), Count: c})
	}
	return out
}

func values(series []models.SeriesPoint) []float64 {
	out := make([]float64, len(series))
	for i, p := range series {
		out[i] = p.Value
	}
	return out
}

func TestAggregatePrimaryPassThrough(t *testing.T) {
	series, err := Aggregate(points(2, 4, 6), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := values(series.Primary); !reflect.DeepEqual(got, []float64{2, 4, 6}) {
		t.Fatalf("unexpected primary: %v", got)
	}
	if got := values(series.Secondary); !reflect.DeepEqual(got, []float64{2, 3, 5}) {
		t.Fatalf("unexpected secondary: %v", got)
	}
	if series.Window != 2 {
		t.Fatalf("expected window 2, got %d", series.Window)
	}
	for i := range series.Primary {
		if !series.Primary[i].Timestamp.Equal(series.Secondary[i].Timestamp) {
			t.Fatalf("series misaligned at %d", i)
		}
	}
}

func TestAggregateDefaultWindow(t *testing.T) {
	series, err := Aggregate(points(1, 2, 3, 4, 5, 6, 7, 8), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if series.Window != DefaultWindow {
		t.Fatalf("expected default window, got %d", series.Window)
	}
	// (2+3+4+5+6+7+8)/7
	if last := series.Secondary[7].Value; last != 5 {
		t.Fatalf("unexpected trailing mean: %v", last)
	}
}

func TestAggregateIsCausal(t *testing.T) {
	base := points(2, 4, 6, 8, 10)
	before, err := Aggregate(base, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mutated := append([]models.TimeSeriesPoint(nil), base...)
	mutated[4].Count = 1000
	after, err := Aggregate(mutated, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 4; i++ {
		if before.Secondary[i].Value != after.Secondary[i].Value {
			t.Fatalf("secondary value at %d changed after mutating a later point", i)
		}
	}
}

func TestAggregateIsDeterministic(t *testing.T) {
	in := points(0.1, 0.2, 0.3, 0.7, 1.1)
	first, _ := Aggregate(in, 3)
	second, _ := Aggregate(in, 3)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("aggregation differs between runs")
	}
}

func TestAggregateKeepsOrder(t *testing.T) {
	in := points(5, 1, 3)
	in[0].Timestamp, in[2].Timestamp = in[2].Timestamp, in[0].Timestamp
	series, _ := Aggregate(in, 2)
	for i := range in {
		if !series.Primary[i].Timestamp.Equal(in[i].Timestamp) {
			t.Fatalf("order changed at %d", i)
		}
	}
}

func TestAggregateEmpty(t *testing.T) {
	if _, err := Aggregate(nil, 3); !errors.Is(err, ErrEmptySeries) {
		t.Fatalf("expected ErrEmptySeries, got %v", err)
	}
}

func TestSummarize(t *testing.T) {
	in := points(2, 4)
	in[0].TestRuns = 10
	in[1].TestRuns = 20
	summary := Summarize(in)
	if summary.TotalFailures != 6 || summary.TotalRuns != 30 || summary.FailuresPerRun != 0.2 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if Summarize(points(1)).FailuresPerRun != 0 {
		t.Fatalf("expected zero rate without runs")
	}
}

func TestDetectSpikes(t *testing.T) {
	spikes := DetectSpikes(points(2, 3, 2, 3, 2, 40, 3), 0)
	if len(spikes) != 1 || spikes[0].Index != 5 {
		t.Fatalf("expected one spike at index 5, got %+v", spikes)
	}
	if DetectSpikes(nil, 3) != nil {
		t.Fatalf("expected no spikes for empty input")
	}
	if len(DetectSpikes(points(5, 5, 5), 3)) != 0 {
		t.Fatalf("flat series must not spike")
	}
}
