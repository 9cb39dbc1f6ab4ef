package patterns

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/miradorstack/failure-insights/internal/models"
	"github.com/miradorstack/failure-insights/internal/signatures"
)

func TestMinerMinesPatterns(t *testing.T) {
	miner := NewMiner(nil, 2)

	now := time.Now().UTC()
	records := []models.FailureRecord{
		{PushTime: now, Tree: "autoland", Platform: "linux64", LogLines: []string{"1 | ERROR | leak"}},
		{PushTime: now.Add(time.Hour), Tree: "mozilla-central", Platform: "linux64", LogLines: []string{"2 | ERROR | leak"}},
		{PushTime: now, Tree: "autoland", Platform: "windows11", LogLines: []string{"3 | ERROR | timeout"}},
		{PushTime: now, Tree: "autoland", Platform: "macosx"},
	}
	catalog := signatures.BuildCatalog(records)

	patterns := miner.Mine(records, catalog)
	if len(patterns) != 2 {
		t.Fatalf("expected 2 patterns, got %d", len(patterns))
	}
	leak := patterns[0]
	if leak.Signature != "ERROR | leak" || leak.Occurrences != 2 {
		t.Fatalf("unexpected leak pattern: %+v", leak)
	}
	if leak.Prevalence != 0.5 {
		t.Fatalf("expected prevalence 0.5, got %v", leak.Prevalence)
	}
	if !leak.LastSeen.Equal(now.Add(time.Hour)) {
		t.Fatalf("unexpected last seen: %v", leak.LastSeen)
	}
	if len(leak.Platforms) != 1 || leak.Platforms[0] != "linux64" {
		t.Fatalf("unexpected platforms: %v", leak.Platforms)
	}
	if len(leak.Trees) != 2 || leak.Trees[0] != "autoland" {
		t.Fatalf("unexpected trees: %v", leak.Trees)
	}
	if patterns[1].ID != catalog.Entries()[1].ID {
		t.Fatalf("patterns must follow catalog order")
	}
}

func TestMinerEmptyCatalog(t *testing.T) {
	if got := NewMiner(nil, 0).Mine(nil, signatures.BuildCatalog(nil)); got != nil {
		t.Fatalf("expected no patterns, got %+v", got)
	}
}

func TestPatternOmitsUnknownLastSeen(t *testing.T) {
	records := []models.FailureRecord{{LogLines: []string{"a | b | c"}}}
	patterns := NewMiner(nil, 0).Mine(records, signatures.BuildCatalog(records))
	data, err := json.Marshal(patterns[0])
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if strings.Contains(string(data), "last_seen") {
		t.Fatalf("zero last_seen should be omitted: %s", data)
	}
}
