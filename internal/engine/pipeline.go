package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"

	"github.com/miradorstack/failure-insights/internal/metrics"
	"github.com/miradorstack/failure-insights/internal/models"
	"github.com/miradorstack/failure-insights/internal/patterns"
	"github.com/miradorstack/failure-insights/internal/presentation"
	"github.com/miradorstack/failure-insights/internal/signatures"
	"github.com/miradorstack/failure-insights/internal/timeseries"
	"github.com/miradorstack/failure-insights/internal/utils"
)

// Backend defines the failures API calls used by the pipeline.
type Backend interface {
	FetchFailures(ctx context.Context, q models.BugQuery) ([]models.FailureRecord, error)
	FetchFailureCounts(ctx context.Context, q models.BugQuery) ([]models.TimeSeriesPoint, error)
}

// ViewStore persists page-load snapshots between analyze and filter calls.
type ViewStore interface {
	SaveView(ctx context.Context, view models.View) error
	LoadView(ctx context.Context, id string) (models.View, error)
}

// Options tunes the graph computations.
type Options struct {
	Window         int
	SpikeThreshold float64
}

// Pipeline turns the failures of one bug into bug details.
type Pipeline struct {
	logger         *slog.Logger
	backend        Backend
	views          ViewStore
	classifier     presentation.Classifier
	miner          *patterns.Miner
	window         int
	spikeThreshold float64

	now   func() time.Time
	newID func() string
}

// NewPipeline constructs a pipeline. A nil classifier uses the missing-job policy; a nil
// miner keeps the top three platforms and trees per signature.
func NewPipeline(logger *slog.Logger, backend Backend, views ViewStore, classifier presentation.Classifier, miner *patterns.Miner, opts Options) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if miner == nil {
		miner = patterns.NewMiner(logger, 0)
	}
	if opts.Window <= 0 {
		opts.Window = timeseries.DefaultWindow
	}
	if opts.SpikeThreshold <= 0 {
		opts.SpikeThreshold = timeseries.DefaultSpikeThreshold
	}
	return &Pipeline{
		logger:         logger,
		backend:        backend,
		views:          views,
		classifier:     classifier,
		miner:          miner,
		window:         opts.Window,
		spikeThreshold: opts.SpikeThreshold,
		now:            func() time.Time { return time.Now().UTC() },
		newID:          uuid.NewString,
	}
}

// Analyze builds the catalog of the request's records before any filtering, styles the rows
// matching the selector and aggregates the graph when points are present. The resulting view
// is stored so Filter can reuse its catalog.
func (p *Pipeline) Analyze(ctx context.Context, req models.AnalysisRequest) (models.BugDetails, error) {
	records, points := req.Records, req.Points
	if !req.Inline {
		if err := req.Query.Validate(); err != nil {
			return models.BugDetails{}, utils.Invalid("analyze", err)
		}
		var err error
		records, points, err = p.fetch(ctx, req.Query)
		if err != nil {
			return models.BugDetails{}, err
		}
	}

	selector := signatures.Selector(req.Selector)
	details := models.BugDetails{
		Query:         req.Query,
		Selector:      selector,
		TotalFailures: len(records),
		CreatedAt:     p.now(),
	}

	var catalog *signatures.Catalog
	g := new(errgroup.Group)
	g.Go(func() error {
		catalog = signatures.BuildCatalog(records)
		details.Catalog = p.miner.Mine(records, catalog)
		details.Rows = p.rows(records, selector, catalog)
		return nil
	})
	if len(points) > 0 {
		g.Go(func() error {
			series, err := timeseries.Aggregate(points, p.window)
			if err != nil {
				return err
			}
			summary := timeseries.Summarize(points)
			details.Series = &series
			details.Summary = &summary
			details.Spikes = timeseries.DetectSpikes(points, p.spikeThreshold)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return models.BugDetails{}, goerr.Wrap(err, "failed to aggregate failure counts", goerr.V("points", len(points)))
	}
	metrics.ObserveCatalogSize(catalog.Len())

	if selector != signatures.SelectorAll {
		if _, ok := catalog.SignatureFor(selector); !ok {
			p.logger.Debug("selector not in catalog", slog.String("selector", selector))
		}
	}

	if p.views != nil {
		view := models.View{
			ID:        p.newID(),
			Query:     req.Query,
			Records:   records,
			Catalog:   catalog.Entries(),
			CreatedAt: details.CreatedAt,
		}
		if err := p.views.SaveView(ctx, view); err != nil {
			p.logger.Warn("failed to store view", slog.String("view_id", view.ID), slog.Any("error", err))
		} else {
			details.ViewID = view.ID
		}
	}

	p.logger.Debug("bug analysed",
		slog.Int64("bug", req.Query.Bug),
		slog.Int("records", len(records)),
		slog.Int("signatures", catalog.Len()),
		slog.Int("rows", len(details.Rows)),
		slog.String("view_id", details.ViewID),
	)
	return details, nil
}

// Filter re-applies selector to a stored view using the catalog built when it was analysed.
func (p *Pipeline) Filter(ctx context.Context, viewID, selector string) ([]models.Row, error) {
	if p.views == nil {
		return nil, goerr.New("view store not configured")
	}
	view, err := p.views.LoadView(ctx, viewID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load view", goerr.V("view_id", viewID))
	}
	catalog := signatures.NewCatalog(view.Catalog)
	return p.rows(view.Records, signatures.Selector(selector), catalog), nil
}

// fetch loads records and graph points concurrently. A failed count request leaves the
// graph empty instead of failing the whole analysis.
func (p *Pipeline) fetch(ctx context.Context, q models.BugQuery) ([]models.FailureRecord, []models.TimeSeriesPoint, error) {
	if p.backend == nil {
		return nil, nil, goerr.New("backend not configured")
	}

	var (
		records []models.FailureRecord
		points  []models.TimeSeriesPoint
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		records, err = p.backend.FetchFailures(gctx, q)
		if err != nil {
			return goerr.Wrap(err, "failed to fetch failures", goerr.V("bug", q.Bug), goerr.V("tree", q.Tree))
		}
		return nil
	})
	g.Go(func() error {
		var err error
		points, err = p.backend.FetchFailureCounts(gctx, q)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			p.logger.Warn("failure counts unavailable", slog.Int64("bug", q.Bug), slog.Any("error", err))
			points = nil
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return records, points, nil
}

func (p *Pipeline) rows(records []models.FailureRecord, selector string, catalog *signatures.Catalog) []models.Row {
	matched := signatures.Filter(records, selector, catalog)
	rows := make([]models.Row, 0, len(matched))
	for _, record := range matched {
		rows = append(rows, models.Row{
			Record:  record,
			Style:   presentation.Classify(p.classifier, record),
			Summary: presentation.FailureSummary(record),
			Lines:   displayLines(record.LogLines),
		})
	}
	return rows
}

// displayLines strips the directory prefix of each log line for the row tooltip.
func displayLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		out = append(out, signatures.RemovePath(line))
	}
	return out
}
