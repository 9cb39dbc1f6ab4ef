package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/miradorstack/failure-insights/internal/cache"
	"github.com/miradorstack/failure-insights/internal/models"
)

// ErrViewNotFound is returned when a view has expired or was never stored.
var ErrViewNotFound = errors.New("view not found")

// ViewRepo keeps page-load snapshots for the lifetime of a view.
type ViewRepo struct {
	cache cache.Provider
	ttl   time.Duration
}

// NewViewRepo constructs a view store; ttl <= 0 keeps views for 30 minutes.
func NewViewRepo(cacheProvider cache.Provider, ttl time.Duration) *ViewRepo {
	if cacheProvider == nil {
		cacheProvider = cache.NewMemoryProvider()
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &ViewRepo{cache: cacheProvider, ttl: ttl}
}

// SaveView stores the view under its ID.
func (r *ViewRepo) SaveView(ctx context.Context, view models.View) error {
	if view.ID == "" {
		return fmt.Errorf("view id is required")
	}
	data, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("marshal view: %w", err)
	}
	if err := r.cache.Set(ctx, viewKey(view.ID), data, r.ttl); err != nil {
		return fmt.Errorf("store view: %w", err)
	}
	return nil
}

// LoadView returns the stored view or ErrViewNotFound.
func (r *ViewRepo) LoadView(ctx context.Context, id string) (models.View, error) {
	if id == "" {
		return models.View{}, ErrViewNotFound
	}
	data, err := r.cache.Get(ctx, viewKey(id))
	if errors.Is(err, cache.ErrCacheMiss) {
		return models.View{}, ErrViewNotFound
	}
	if err != nil {
		return models.View{}, fmt.Errorf("load view: %w", err)
	}
	var view models.View
	if err := json.Unmarshal(data, &view); err != nil {
		return models.View{}, fmt.Errorf("decode view: %w", err)
	}
	return view, nil
}

func viewKey(id string) string {
	return "view:" + id
}
