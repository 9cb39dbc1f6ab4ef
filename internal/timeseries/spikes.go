package timeseries

import (
	"math"
	"sort"

	"github.com/miradorstack/failure-insights/internal/models"
)

// DefaultSpikeThreshold is the deviation, in mean absolute deviations, that marks a spike.
const DefaultSpikeThreshold = 3.0

// DetectSpikes flags points whose count deviates from the range median by at least
// threshold mean absolute deviations. Only upward deviations are reported.
func DetectSpikes(points []models.TimeSeriesPoint, threshold float64) []models.Spike {
	if len(points) == 0 {
		return nil
	}
	if threshold <= 0 {
		threshold = DefaultSpikeThreshold
	}

	counts := make([]float64, 0, len(points))
	for _, point := range points {
		counts = append(counts, point.Count)
	}

	median := percentile(counts, 0.5)
	mad := meanAbsoluteDeviation(counts, median)
	if mad == 0 {
		mad = 1
	}

	spikes := make([]models.Spike, 0)
	for i, point := range points {
		score := (point.Count - median) / mad
		if score >= threshold {
			spikes = append(spikes, models.Spike{
				Index:     i,
				Timestamp: point.Timestamp,
				Count:     point.Count,
				Score:     score,
			})
		}
	}
	return spikes
}

func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	idx := int(math.Round(p * float64(len(sorted)-1)))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func meanAbsoluteDeviation(values []float64, center float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += math.Abs(v - center)
	}
	return sum / float64(len(values))
}
