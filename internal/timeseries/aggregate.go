// Package timeseries reduces failure count samples into plottable series.
package timeseries

import (
	"errors"

	"github.com/miradorstack/failure-insights/internal/models"
)

// DefaultWindow is the trailing window, in points, of the secondary series.
const DefaultWindow = 7

// ErrEmptySeries is returned when aggregation is asked to run without points.
var ErrEmptySeries = errors.New("timeseries: no points to aggregate")

// Aggregate builds the primary (observed) and secondary (trailing mean) series.
//
// The secondary value at index i is the mean of the primary values at indices
// max(0, i-window+1)..i, so it never depends on later points. Input order is kept.
func Aggregate(points []models.TimeSeriesPoint, window int) (models.AggregatedSeries, error) {
	if len(points) == 0 {
		return models.AggregatedSeries{}, ErrEmptySeries
	}
	if window <= 0 {
		window = DefaultWindow
	}

	primary := make([]models.SeriesPoint, len(points))
	secondary := make([]models.SeriesPoint, len(points))
	for i, point := range points {
		primary[i] = models.SeriesPoint{Timestamp: point.Timestamp, Value: point.Count}
		secondary[i] = models.SeriesPoint{Timestamp: point.Timestamp, Value: trailingMean(points, i, window)}
	}

	return models.AggregatedSeries{Primary: primary, Secondary: secondary, Window: window}, nil
}

func trailingMean(points []models.TimeSeriesPoint, i, window int) float64 {
	from := i - window + 1
	if from < 0 {
		from = 0
	}
	total := 0.0
	for j := from; j <= i; j++ {
		total += points[j].Count
	}
	return total / float64(i-from+1)
}

// Summarize returns totals across the points.
func Summarize(points []models.TimeSeriesPoint) models.SeriesSummary {
	var summary models.SeriesSummary
	for _, point := range points {
		summary.TotalFailures += point.Count
		summary.TotalRuns += point.TestRuns
	}
	if summary.TotalRuns > 0 {
		summary.FailuresPerRun = summary.TotalFailures / summary.TotalRuns
	}
	return summary
}
