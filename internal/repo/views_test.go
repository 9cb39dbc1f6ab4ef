package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/miradorstack/failure-insights/internal/models"
)

func TestViewRepoRoundTrip(t *testing.T) {
	repo := NewViewRepo(newStubCache(), time.Minute)
	ctx := context.Background()

	push := time.Date(2024, 3, 2, 10, 11, 12, 0, time.UTC)
	view := models.View{
		ID:    "view-1",
		Query: testQuery(),
		Records: []models.FailureRecord{
			{PushTime: push, Tree: "autoland", JobID: "7", LogLines: []string{"a | b | c"}},
		},
		Catalog:   []models.SignatureCatalogEntry{{Signature: "b | c", ID: "abc"}},
		CreatedAt: push,
	}
	if err := repo.SaveView(ctx, view); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := repo.LoadView(ctx, "view-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded.Records) != 1 || !loaded.Records[0].PushTime.Equal(push) || loaded.Records[0].JobID != "7" {
		t.Fatalf("unexpected records: %+v", loaded.Records)
	}
	if len(loaded.Catalog) != 1 || loaded.Catalog[0].ID != "abc" {
		t.Fatalf("unexpected catalog: %+v", loaded.Catalog)
	}
}

func TestViewRepoMissing(t *testing.T) {
	repo := NewViewRepo(nil, 0)
	if _, err := repo.LoadView(context.Background(), "nope"); !errors.Is(err, ErrViewNotFound) {
		t.Fatalf("expected ErrViewNotFound, got %v", err)
	}
	if err := repo.SaveView(context.Background(), models.View{}); err == nil {
		t.Fatalf("expected error for view without id")
	}
}
