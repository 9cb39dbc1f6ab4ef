package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/miradorstack/failure-insights/internal/cache"
	"github.com/miradorstack/failure-insights/internal/models"
)

// BackendClient fetches bug failure records and failure counts from the failures API.
type BackendClient struct {
	baseURL      string
	failuresPath string
	countsPath   string
	httpClient   *http.Client
	cache        cache.Provider
	cacheTTL     time.Duration
	logger       *slog.Logger
}

// NewBackendClient constructs a client targeting the configured failures API.
func NewBackendClient(baseURL, failuresPath, countsPath string, timeout time.Duration, cacheProvider cache.Provider, cacheTTL time.Duration, logger *slog.Logger) *BackendClient {
	if cacheProvider == nil {
		cacheProvider = cache.NoopProvider{}
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if cacheTTL < 0 {
		cacheTTL = 0
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BackendClient{
		baseURL:      strings.TrimRight(baseURL, "/"),
		failuresPath: failuresPath,
		countsPath:   countsPath,
		httpClient:   &http.Client{Timeout: timeout},
		cache:        cacheProvider,
		cacheTTL:     cacheTTL,
		logger:       logger,
	}
}

// FetchFailures returns the failure records of a bug over the query range.
func (c *BackendClient) FetchFailures(ctx context.Context, q models.BugQuery) ([]models.FailureRecord, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	var records []models.FailureRecord
	if err := c.getCached(ctx, "failures:"+q.CacheKey(), c.resolve(c.failuresPath, q), &records); err != nil {
		return nil, fmt.Errorf("failures request failed: %w", err)
	}
	return records, nil
}

// FetchFailureCounts returns the graph samples of a bug over the query range.
func (c *BackendClient) FetchFailureCounts(ctx context.Context, q models.BugQuery) ([]models.TimeSeriesPoint, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	var points []models.TimeSeriesPoint
	if err := c.getCached(ctx, "counts:"+q.CacheKey(), c.resolve(c.countsPath, q), &points); err != nil {
		return nil, fmt.Errorf("failure count request failed: %w", err)
	}
	return points, nil
}

func (c *BackendClient) ready() error {
	if c == nil {
		return fmt.Errorf("backend client not initialised")
	}
	if c.baseURL == "" {
		return fmt.Errorf("backend base URL not configured")
	}
	return nil
}

func (c *BackendClient) getCached(ctx context.Context, key, endpoint string, out any) error {
	if cached, err := c.cache.Get(ctx, key); err == nil {
		if err := json.Unmarshal(cached, out); err == nil {
			return nil
		}
		c.logger.Warn("discarding undecodable cache entry", slog.String("key", key))
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		c.logger.Warn("backend cache read failed", slog.String("key", key), slog.Any("error", err))
	}

	body, err := c.getJSON(ctx, endpoint)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if c.cacheTTL > 0 {
		if err := c.cache.Set(ctx, key, body, c.cacheTTL); err != nil {
			c.logger.Warn("backend cache write failed", slog.String("key", key), slog.Any("error", err))
		}
	}
	return nil
}

func (c *BackendClient) resolve(p string, q models.BugQuery) string {
	cleaned := "/" + strings.TrimLeft(p, "/")
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return c.baseURL + cleaned
	}
	u.Path = path.Join(u.Path, cleaned)
	if strings.HasSuffix(p, "/") && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}

	values := url.Values{}
	values.Set("bug", strconv.FormatInt(q.Bug, 10))
	values.Set("startday", q.StartDay)
	values.Set("endday", q.EndDay)
	if q.Tree != "" {
		values.Set("tree", q.Tree)
	}
	u.RawQuery = values.Encode()
	return u.String()
}

func (c *BackendClient) getJSON(ctx context.Context, endpoint string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("backend returned %s", resp.Status)
	}

	var body json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return body, nil
}
