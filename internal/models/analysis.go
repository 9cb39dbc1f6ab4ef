package models

import "time"

// SignatureCatalogEntry maps a normalized log signature to its identifier within one catalog.
type SignatureCatalogEntry struct {
	Signature string `json:"signature"`
	ID        string `json:"id"`
}

// StyleTag is the display classification of a row.
type StyleTag string

const (
	StyleNormal  StyleTag = "normal"
	StyleFlagged StyleTag = "flagged"
)

// Valid reports whether the tag belongs to the closed set.
func (s StyleTag) Valid() bool {
	return s == StyleNormal || s == StyleFlagged
}

// SignaturePattern summarises how often one catalogued signature occurs.
type SignaturePattern struct {
	ID          string    `json:"id"`
	Signature   string    `json:"signature"`
	Occurrences int       `json:"occurrences"`
	Prevalence  float64   `json:"prevalence"`
	Platforms   []string  `json:"platforms,omitempty"`
	Trees       []string  `json:"trees,omitempty"`
	LastSeen    time.Time `json:"last_seen,omitzero"`
}

// Row is a failure record decorated for display.
type Row struct {
	Record  FailureRecord `json:"record"`
	Style   StyleTag      `json:"style"`
	Summary string        `json:"summary"`
	Lines   []string      `json:"lines"`
}

// AnalysisRequest asks for the bug details of one view. Records and Points are used as-is
// when Inline is set; otherwise they are fetched for Query.
type AnalysisRequest struct {
	Query    BugQuery          `json:"query"`
	Selector string            `json:"selector"`
	Inline   bool              `json:"inline"`
	Records  []FailureRecord   `json:"records,omitempty"`
	Points   []TimeSeriesPoint `json:"points,omitempty"`
}

// BugDetails is the derived output for one view.
type BugDetails struct {
	ViewID        string             `json:"view_id"`
	Query         BugQuery           `json:"query"`
	Selector      string             `json:"selector"`
	TotalFailures int                `json:"total_failures"`
	Catalog       []SignaturePattern `json:"catalog"`
	Rows          []Row              `json:"rows"`
	Series        *AggregatedSeries  `json:"series,omitempty"`
	Summary       *SeriesSummary     `json:"summary,omitempty"`
	Spikes        []Spike            `json:"spikes,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
}

// View is the stored snapshot of one page load, reused by later filter calls.
type View struct {
	ID        string                  `json:"id"`
	Query     BugQuery                `json:"query"`
	Records   []FailureRecord         `json:"records"`
	Catalog   []SignatureCatalogEntry `json:"catalog"`
	CreatedAt time.Time               `json:"created_at"`
}
