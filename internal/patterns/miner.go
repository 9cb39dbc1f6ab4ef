// Package patterns summarises how catalogued failure signatures occur across a view.
package patterns

import (
	"log/slog"
	"sort"
	"time"

	"github.com/miradorstack/failure-insights/internal/models"
	"github.com/miradorstack/failure-insights/internal/signatures"
)

// Miner mines per-signature occurrence statistics from failure records.
type Miner struct {
	logger   *slog.Logger
	topLimit int
}

// NewMiner constructs a Miner keeping up to topLimit platforms and trees per signature.
func NewMiner(logger *slog.Logger, topLimit int) *Miner {
	if logger == nil {
		logger = slog.Default()
	}
	if topLimit <= 0 {
		topLimit = 3
	}
	return &Miner{logger: logger, topLimit: topLimit}
}

// Mine returns one pattern per catalog entry, in catalog order.
func (m *Miner) Mine(records []models.FailureRecord, catalog *signatures.Catalog) []models.SignaturePattern {
	entries := catalog.Entries()
	if len(entries) == 0 {
		return nil
	}

	stats := make(map[string]*signatureAggregate, len(entries))
	unmatched := 0
	for _, record := range records {
		id, ok := catalog.IDFor(signatures.NormalizeLines(record.LogLines))
		if !ok {
			unmatched++
			continue
		}
		agg := ensureAggregate(stats, id)
		agg.count++
		agg.platforms[record.Platform]++
		agg.trees[record.Tree]++
		if record.PushTime.After(agg.lastSeen) {
			agg.lastSeen = record.PushTime
		}
	}

	patterns := make([]models.SignaturePattern, 0, len(entries))
	for _, entry := range entries {
		agg := ensureAggregate(stats, entry.ID)
		pattern := models.SignaturePattern{
			ID:          entry.ID,
			Signature:   entry.Signature,
			Occurrences: agg.count,
			Platforms:   topKeys(agg.platforms, m.topLimit),
			Trees:       topKeys(agg.trees, m.topLimit),
			LastSeen:    agg.lastSeen,
		}
		if len(records) > 0 {
			pattern.Prevalence = float64(agg.count) / float64(len(records))
		}
		patterns = append(patterns, pattern)
	}

	if unmatched > 0 {
		m.logger.Debug("records without a catalogued signature", slog.Int("count", unmatched))
	}
	return patterns
}

type signatureAggregate struct {
	count     int
	lastSeen  time.Time
	platforms map[string]int
	trees     map[string]int
}

func ensureAggregate(m map[string]*signatureAggregate, id string) *signatureAggregate {
	agg, ok := m[id]
	if !ok {
		agg = &signatureAggregate{
			platforms: make(map[string]int),
			trees:     make(map[string]int),
		}
		m[id] = agg
	}
	return agg
}

func topKeys(counts map[string]int, limit int) []string {
	keys := make([]string, 0, len(counts))
	for key := range counts {
		if key == "" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > limit {
		keys = keys[:limit]
	}
	return keys
}
