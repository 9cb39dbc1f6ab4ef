package api

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/miradorstack/failure-insights/internal/models"
)

// FilterRequest selects the rows of a stored view.
type FilterRequest struct {
	ViewID   string `json:"view_id"`
	Selector string `json:"selector"`
}

// FilterResponse carries the rows of a view matching a selector.
type FilterResponse struct {
	ViewID   string       `json:"view_id"`
	Selector string       `json:"selector"`
	Rows     []models.Row `json:"rows"`
}

// analyzeWire accepts either a nested query or the flat bug/tree/startday/endday fields of
// the page URL.
type analyzeWire struct {
	models.AnalysisRequest
	Bug      int64  `json:"bug"`
	Tree     string `json:"tree"`
	StartDay string `json:"startday"`
	EndDay   string `json:"endday"`
}

// FromAnalyzeStruct maps the gRPC payload into a domain AnalysisRequest.
func FromAnalyzeStruct(s *structpb.Struct) (models.AnalysisRequest, error) {
	if s == nil {
		return models.AnalysisRequest{}, fmt.Errorf("request is nil")
	}
	var wire analyzeWire
	if err := decodeStruct(s, &wire); err != nil {
		return models.AnalysisRequest{}, err
	}
	req := wire.AnalysisRequest
	if req.Query == (models.BugQuery{}) {
		req.Query = models.BugQuery{Bug: wire.Bug, Tree: wire.Tree, StartDay: wire.StartDay, EndDay: wire.EndDay}
	}
	if !req.Inline && (len(req.Records) > 0 || len(req.Points) > 0) {
		return models.AnalysisRequest{}, fmt.Errorf("records and points require inline=true")
	}
	return req, nil
}

// ToBugDetailsStruct converts bug details into the gRPC representation.
func ToBugDetailsStruct(details models.BugDetails) (*structpb.Struct, error) {
	if details.Catalog == nil {
		details.Catalog = []models.SignaturePattern{}
	}
	if details.Rows == nil {
		details.Rows = []models.Row{}
	}
	return encodeStruct(details)
}

// FromFilterStruct maps the gRPC payload into a FilterRequest.
func FromFilterStruct(s *structpb.Struct) (FilterRequest, error) {
	if s == nil {
		return FilterRequest{}, fmt.Errorf("request is nil")
	}
	var req FilterRequest
	if err := decodeStruct(s, &req); err != nil {
		return FilterRequest{}, err
	}
	if req.ViewID == "" {
		return FilterRequest{}, fmt.Errorf("view_id is required")
	}
	return req, nil
}

// ToFilterStruct converts filtered rows into the gRPC representation.
func ToFilterStruct(resp FilterResponse) (*structpb.Struct, error) {
	if resp.Rows == nil {
		resp.Rows = []models.Row{}
	}
	return encodeStruct(resp)
}

func decodeStruct(s *structpb.Struct, out any) error {
	data, err := json.Marshal(s.AsMap())
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}

func encodeStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return structpb.NewStruct(fields)
}
