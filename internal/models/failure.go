package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/miradorstack/failure-insights/internal/utils"
)

// FailureRecord is one observed test failure linked to a bug.
type FailureRecord struct {
	PushTime    time.Time
	Tree        string
	Revision    string
	Platform    string
	BuildType   string
	TestSuite   string
	MachineName string
	JobID       string
	LogLines    []string
}

type failureRecordJSON struct {
	PushTime    string          `json:"push_time"`
	Tree        string          `json:"tree"`
	Revision    string          `json:"revision"`
	Platform    string          `json:"platform"`
	BuildType   string          `json:"build_type"`
	TestSuite   string          `json:"test_suite"`
	MachineName string          `json:"machine_name"`
	JobID       json.RawMessage `json:"job_id,omitempty"`
	Lines       json.RawMessage `json:"lines,omitempty"`
}

// UnmarshalJSON accepts the backend shape where job_id is numeric and lines may be
// either a list or a single multi-line string, which is split into one entry per line.
func (r *FailureRecord) UnmarshalJSON(data []byte) error {
	var raw failureRecordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	pushTime, err := utils.ParseTimestamp(raw.PushTime)
	if err != nil && raw.PushTime != "" {
		return fmt.Errorf("push_time: %w", err)
	}
	jobID, err := decodeIdentifier(raw.JobID)
	if err != nil {
		return fmt.Errorf("job_id: %w", err)
	}
	lines, err := decodeLines(raw.Lines)
	if err != nil {
		return fmt.Errorf("lines: %w", err)
	}

	*r = FailureRecord{
		PushTime:    pushTime,
		Tree:        raw.Tree,
		Revision:    raw.Revision,
		Platform:    raw.Platform,
		BuildType:   raw.BuildType,
		TestSuite:   raw.TestSuite,
		MachineName: raw.MachineName,
		JobID:       jobID,
		LogLines:    lines,
	}
	return nil
}

// MarshalJSON writes the record using the backend field names.
func (r FailureRecord) MarshalJSON() ([]byte, error) {
	out := struct {
		PushTime    string   `json:"push_time"`
		Tree        string   `json:"tree"`
		Revision    string   `json:"revision"`
		Platform    string   `json:"platform"`
		BuildType   string   `json:"build_type"`
		TestSuite   string   `json:"test_suite"`
		MachineName string   `json:"machine_name"`
		JobID       string   `json:"job_id"`
		Lines       []string `json:"lines"`
	}{
		Tree:        r.Tree,
		Revision:    r.Revision,
		Platform:    r.Platform,
		BuildType:   r.BuildType,
		TestSuite:   r.TestSuite,
		MachineName: r.MachineName,
		JobID:       r.JobID,
		Lines:       r.LogLines,
	}
	if !r.PushTime.IsZero() {
		out.PushTime = r.PushTime.UTC().Format(utils.PushTimeLayout)
	}
	if out.Lines == nil {
		out.Lines = []string{}
	}
	return json.Marshal(out)
}

func decodeIdentifier(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}

func decodeLines(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var lines []string
	if err := json.Unmarshal(raw, &lines); err == nil {
		return lines, nil
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	return strings.Split(strings.TrimRight(text, "\n"), "\n"), nil
}

// BugQuery selects the failures of one bug over a date range.
type BugQuery struct {
	Bug      int64  `json:"bug"`
	Tree     string `json:"tree"`
	StartDay string `json:"startday"`
	EndDay   string `json:"endday"`
}

// CacheKey returns a stable key for the query.
func (q BugQuery) CacheKey() string {
	return fmt.Sprintf("bug=%d|tree=%s|start=%s|end=%s", q.Bug, q.Tree, q.StartDay, q.EndDay)
}

// Validate checks the fields required to reach the backend.
func (q BugQuery) Validate() error {
	if q.Bug <= 0 {
		return fmt.Errorf("bug must be positive")
	}
	if q.StartDay == "" || q.EndDay == "" {
		return fmt.Errorf("startday and endday are required")
	}
	start, err := utils.ParseDay(q.StartDay)
	if err != nil {
		return fmt.Errorf("startday: %w", err)
	}
	end, err := utils.ParseDay(q.EndDay)
	if err != nil {
		return fmt.Errorf("endday: %w", err)
	}
	if end.Before(start) {
		return fmt.Errorf("endday precedes startday")
	}
	return nil
}
