package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/miradorstack/failure-insights/internal/api"
	"github.com/miradorstack/failure-insights/internal/metrics"
	"github.com/miradorstack/failure-insights/internal/models"
	"github.com/miradorstack/failure-insights/internal/repo"
	"github.com/miradorstack/failure-insights/internal/signatures"
	"github.com/miradorstack/failure-insights/internal/utils"
)

// Analyzer is the engine behaviour exposed over gRPC.
type Analyzer interface {
	Analyze(ctx context.Context, req models.AnalysisRequest) (models.BugDetails, error)
	Filter(ctx context.Context, viewID, selector string) ([]models.Row, error)
}

// BugDetailsService implements the gRPC BugDetails service.
type BugDetailsService struct {
	logger    *slog.Logger
	analyzer  Analyzer
	latencies *utils.LatencyTracker
}

// NewBugDetailsService constructs the service facade.
func NewBugDetailsService(logger *slog.Logger, analyzer Analyzer) *BugDetailsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BugDetailsService{
		logger:    logger,
		analyzer:  analyzer,
		latencies: utils.NewLatencyTracker(1024),
	}
}

// Analyze catalogues the failures of a bug and returns its details.
func (s *BugDetailsService) Analyze(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request cannot be nil")
	}
	if s.analyzer == nil {
		return nil, status.Error(codes.FailedPrecondition, "pipeline not configured")
	}

	domainReq, err := api.FromAnalyzeStruct(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	s.logger.Debug("Analyze called", slog.Int64("bug", domainReq.Query.Bug), slog.Bool("inline", domainReq.Inline))

	start := time.Now()
	details, err := s.analyzer.Analyze(ctx, domainReq)
	duration := time.Since(start)
	if err != nil {
		metrics.ObserveAnalysis(duration, metrics.OutcomeError)
		return nil, s.toStatus("analyze", err)
	}
	metrics.ObserveAnalysis(duration, metrics.OutcomeSuccess)
	s.latencies.Observe(duration)
	if total := s.latencies.Total(); total%50 == 0 {
		s.logger.Info("analysis latency", slog.Duration("p95", s.latencies.Percentile(95)), slog.Int("samples", s.latencies.Count()))
	}

	out, err := api.ToBugDetailsStruct(details)
	if err != nil {
		s.logger.Error("encode bug details failed", slog.Any("error", err))
		return nil, status.Error(codes.Internal, "failed to encode bug details")
	}
	return out, nil
}

// FilterRows re-applies a selector to a previously analysed view.
func (s *BugDetailsService) FilterRows(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request cannot be nil")
	}
	if s.analyzer == nil {
		return nil, status.Error(codes.FailedPrecondition, "pipeline not configured")
	}

	filterReq, err := api.FromFilterStruct(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	selector := signatures.Selector(filterReq.Selector)

	rows, err := s.analyzer.Filter(ctx, filterReq.ViewID, selector)
	if err != nil {
		return nil, s.toStatus("filter", err)
	}

	out, err := api.ToFilterStruct(api.FilterResponse{ViewID: filterReq.ViewID, Selector: selector, Rows: rows})
	if err != nil {
		s.logger.Error("encode rows failed", slog.Any("error", err))
		return nil, status.Error(codes.Internal, "failed to encode rows")
	}
	return out, nil
}

// LatencyP95 returns the current p95 analysis latency.
func (s *BugDetailsService) LatencyP95() time.Duration {
	return s.latencies.Percentile(95)
}

func (s *BugDetailsService) toStatus(op string, err error) error {
	switch {
	case utils.IsInvalid(err):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, repo.ErrViewNotFound):
		return status.Error(codes.NotFound, "view not found or expired")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	}
	s.logger.Error(op+" failed", slog.Any("error", err))
	return status.Errorf(codes.Internal, "%s failed: %v", op, err)
}
