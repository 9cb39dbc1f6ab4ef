package api

import (
	"context"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/miradorstack/failure-insights/internal/config"
	"github.com/miradorstack/failure-insights/internal/models"
)

func mustStruct(t *testing.T, fields map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(fields)
	if err != nil {
		t.Fatalf("new struct: %v", err)
	}
	return s
}

func TestFromAnalyzeStructFlatQuery(t *testing.T) {
	req, err := FromAnalyzeStruct(mustStruct(t, map[string]any{
		"bug":      1654321,
		"tree":     "trunk",
		"startday": "2024-03-01",
		"endday":   "2024-03-08",
		"selector": "abc",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := models.BugQuery{Bug: 1654321, Tree: "trunk", StartDay: "2024-03-01", EndDay: "2024-03-08"}
	if req.Query != want || req.Selector != "abc" || req.Inline {
		t.Fatalf("unexpected request: %+v", req)
	}
}

func TestFromAnalyzeStructInline(t *testing.T) {
	req, err := FromAnalyzeStruct(mustStruct(t, map[string]any{
		"inline": true,
		"records": []any{
			map[string]any{"push_time": "2024-03-02 10:11:12", "job_id": 12, "lines": []any{"a | b | c"}},
		},
		"points": []any{
			map[string]any{"date": "2024-03-02", "failure_count": 3},
		},
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(req.Records) != 1 || req.Records[0].JobID != "12" || len(req.Points) != 1 || req.Points[0].Count != 3 {
		t.Fatalf("unexpected inline payload: %+v", req)
	}
}

func TestFromAnalyzeStructRejectsRecordsWithoutInline(t *testing.T) {
	_, err := FromAnalyzeStruct(mustStruct(t, map[string]any{
		"records": []any{map[string]any{"tree": "trunk"}},
	}))
	if err == nil {
		t.Fatalf("expected error")
	}
	if _, err := FromAnalyzeStruct(nil); err == nil {
		t.Fatalf("expected error for nil request")
	}
}

func TestToBugDetailsStruct(t *testing.T) {
	details := models.BugDetails{
		ViewID:        "view-1",
		Selector:      "all",
		TotalFailures: 1,
		Rows: []models.Row{{
			Record:  models.FailureRecord{Tree: "autoland", JobID: "9", LogLines: []string{"x"}},
			Style:   models.StyleFlagged,
			Summary: "1 unexpected-fail",
		}},
		Series: &models.AggregatedSeries{
			Primary:   []models.SeriesPoint{{Timestamp: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Value: 2}},
			Secondary: []models.SeriesPoint{{Timestamp: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Value: 2}},
			Window:    7,
		},
	}
	s, err := ToBugDetailsStruct(details)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	fields := s.AsMap()
	if fields["view_id"] != "view-1" || fields["total_failures"] != float64(1) {
		t.Fatalf("unexpected fields: %v", fields)
	}
	if catalog, ok := fields["catalog"].([]any); !ok || len(catalog) != 0 {
		t.Fatalf("expected empty catalog list, got %v", fields["catalog"])
	}
	rows := fields["rows"].([]any)
	row := rows[0].(map[string]any)
	if row["style"] != "flagged" || row["record"].(map[string]any)["job_id"] != "9" {
		t.Fatalf("unexpected row: %v", row)
	}
}

func TestFilterStructs(t *testing.T) {
	req, err := FromFilterStruct(mustStruct(t, map[string]any{"view_id": "v", "selector": "abc"}))
	if err != nil || req.ViewID != "v" || req.Selector != "abc" {
		t.Fatalf("unexpected filter request: %+v err=%v", req, err)
	}
	if _, err := FromFilterStruct(mustStruct(t, map[string]any{"selector": "abc"})); err == nil {
		t.Fatalf("expected error without view id")
	}
	s, err := ToFilterStruct(FilterResponse{ViewID: "v", Selector: "all"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if rows, ok := s.AsMap()["rows"].([]any); !ok || len(rows) != 0 {
		t.Fatalf("expected empty rows list")
	}
}

type echoServer struct{}

func (echoServer) Analyze(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{"view_id": "from-analyze", "selector": req.AsMap()["selector"]})
}

func (echoServer) FilterRows(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{"view_id": req.AsMap()["view_id"]})
}

func TestServerServesBugDetailsAndHealth(t *testing.T) {
	srv, err := NewServer(config.ServerConfig{Address: "127.0.0.1:0", GracefulTimeout: time.Second}, echoServer{})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	go func() { _ = srv.Start() }()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), srv.GracefulTimeout())
		defer cancel()
		srv.Shutdown(ctx)
	})

	conn, err := grpc.NewClient(srv.Address(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client := NewBugDetailsClient(conn)
	out, err := client.Analyze(ctx, mustStruct(t, map[string]any{"selector": "abc"}))
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if out.AsMap()["view_id"] != "from-analyze" || out.AsMap()["selector"] != "abc" {
		t.Fatalf("unexpected analyze response: %v", out.AsMap())
	}
	out, err = client.FilterRows(ctx, mustStruct(t, map[string]any{"view_id": "v-1"}))
	if err != nil || out.AsMap()["view_id"] != "v-1" {
		t.Fatalf("unexpected filter response: %v err=%v", out, err)
	}

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: BugDetailsServiceName})
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("unexpected health status: %v", resp.GetStatus())
	}
}
