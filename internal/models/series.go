package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/miradorstack/failure-insights/internal/utils"
)

// TimeSeriesPoint is one raw graph sample: failures observed at a point in time.
type TimeSeriesPoint struct {
	Timestamp time.Time
	Count     float64
	TestRuns  float64
}

// UnmarshalJSON accepts `date` or `timestamp` for the time and `failure_count` or `count`
// for the value. Numeric strings are coerced.
func (p *TimeSeriesPoint) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var out TimeSeriesPoint
	if ts := firstPresent(raw, "date", "timestamp", "t"); ts != nil {
		parsed, err := decodeTime(ts)
		if err != nil {
			return fmt.Errorf("timestamp: %w", err)
		}
		out.Timestamp = parsed
	}
	if v := firstPresent(raw, "failure_count", "count"); v != nil {
		count, err := decodeNumber(v)
		if err != nil {
			return fmt.Errorf("count: %w", err)
		}
		out.Count = count
	}
	if v := firstPresent(raw, "test_runs"); v != nil {
		runs, err := decodeNumber(v)
		if err != nil {
			return fmt.Errorf("test_runs: %w", err)
		}
		out.TestRuns = runs
	}
	*p = out
	return nil
}

// MarshalJSON writes the backend field names.
func (p TimeSeriesPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Date         string  `json:"date"`
		FailureCount float64 `json:"failure_count"`
		TestRuns     float64 `json:"test_runs,omitempty"`
	}{
		Date:         p.Timestamp.UTC().Format(time.RFC3339),
		FailureCount: p.Count,
		TestRuns:     p.TestRuns,
	})
}

func firstPresent(raw map[string]json.RawMessage, keys ...string) json.RawMessage {
	for _, key := range keys {
		if v, ok := raw[key]; ok && string(v) != "null" {
			return v
		}
	}
	return nil
}

func decodeTime(raw json.RawMessage) (time.Time, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return utils.ParseTimestamp(s)
	}
	var epoch json.Number
	if err := json.Unmarshal(raw, &epoch); err != nil {
		return time.Time{}, err
	}
	secs, err := epoch.Int64()
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(secs, 0).UTC(), nil
}

func decodeNumber(raw json.RawMessage) (float64, error) {
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

// SeriesPoint is one plotted value.
type SeriesPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// AggregatedSeries pairs the observed counts with a trailing-mean trend aligned by index.
type AggregatedSeries struct {
	Primary   []SeriesPoint `json:"primary"`
	Secondary []SeriesPoint `json:"secondary"`
	Window    int           `json:"window"`
}

// SeriesSummary holds totals over the whole graph range.
type SeriesSummary struct {
	TotalFailures  float64 `json:"total_failures"`
	TotalRuns      float64 `json:"total_runs"`
	FailuresPerRun float64 `json:"failures_per_run"`
}

// Spike marks a point whose count stands out from the rest of the range.
type Spike struct {
	Index     int       `json:"index"`
	Timestamp time.Time `json:"timestamp"`
	Count     float64   `json:"count"`
	Score     float64   `json:"score"`
}
