package gwosc

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"log/slog"
	"net/http"
	"path/filepath"
	"slices"

	"github.com/patrickmn/go-cache"
	"github.com/warplab/gwstrain/internal/conf"
	"github.com/warplab/gwstrain/internal/errors"
	"github.com/warplab/gwstrain/internal/logging"
)

// Package-level logger specific to the gwosc service
var (
	logger          *slog.Logger
	serviceLevelVar = new(slog.LevelVar) // Dynamic level control
	closeLogger     func() error
)

func init() {
	var err error
	logFilePath := filepath.Join("logs", "gwosc.log")
	serviceLevelVar.Set(slog.LevelDebug)

	logger, closeLogger, err = logging.NewFileLogger(logFilePath, "gwosc", serviceLevelVar)
	if err != nil {
		// Fallback: Log error to standard log and disable service logging
		log.Printf("FATAL: Failed to initialize gwosc file logger at %s: %v. Service logging disabled.", logFilePath, err)
		fbHandler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: serviceLevelVar})
		logger = slog.New(fbHandler).With("service", "gwosc")
		closeLogger = func() error { return nil }
	}
}

// Client provides access to the GWOSC event catalog
type Client struct {
	config     Config
	httpClient *http.Client
	cache      *cache.Cache
	debug      bool
}

// NewClient creates a new catalog client
func NewClient(config Config) (*Client, error) {
	if config.IndexURL == "" {
		config.IndexURL = DefaultConfig().IndexURL
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultConfig().Timeout
	}
	if config.CacheTTL == 0 {
		config.CacheTTL = DefaultConfig().CacheTTL
	}

	settings := conf.GetSettings()
	debug := settings != nil && settings.Debug

	client := &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		cache: cache.New(config.CacheTTL, config.CacheTTL*2),
		debug: debug,
	}

	logger.Info("gwosc client initialized",
		"index_url", config.IndexURL,
		"cache_ttl", config.CacheTTL,
		"priority_labels", len(config.Priority),
		"debug", debug)

	return client, nil
}

// Close cleans up client resources
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
	logger.Info("Closing gwosc client")

	if closeLogger != nil {
		if err := closeLogger(); err != nil {
			// Use standard log since our logger might be closing
			log.Printf("Error closing gwosc logger: %v", err)
		}
	}
}

// Priority returns the rank of a catalog release label. Unknown labels
// rank 0.
func (c *Client) Priority(label string) int {
	return c.config.Priority[label]
}

// FetchEvents retrieves the full event index, grouped by common name.
// Each group is sorted by catalog priority, best release first; entries
// with equal priority keep their discovery order. Entries without a
// common name are auxiliary records and are dropped.
func (c *Client) FetchEvents(ctx context.Context) (map[string][]CatalogEntry, error) {
	var index indexResponse
	if err := c.fetchJSON(ctx, c.config.IndexURL, &index); err != nil {
		return nil, errors.Newf("event catalog unavailable: %w", err).
			Category(errors.CategoryCatalog).
			Context("index_url", c.config.IndexURL).
			Component("gwosc").
			Build()
	}

	// Index keys are iterated in sorted order so grouping is
	// deterministic and the stable sort below has a fixed input order.
	keys := make([]string, 0, len(index.Events))
	for key := range index.Events {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	grouped := make(map[string][]CatalogEntry)
	for _, key := range keys {
		entry := index.Events[key]
		if entry.CommonName == "" {
			continue
		}
		grouped[entry.CommonName] = append(grouped[entry.CommonName], entry)
	}

	for name := range grouped {
		sortByPriority(grouped[name], c.config.Priority)
	}

	logger.Info("event catalog fetched",
		"raw_entries", len(index.Events),
		"unique_events", len(grouped))

	return grouped, nil
}

// sortByPriority orders catalog appearances best release first. The sort
// is stable: equal-priority appearances keep their relative order.
func sortByPriority(entries []CatalogEntry, priority map[string]int) {
	slices.SortStableFunc(entries, func(a, b CatalogEntry) int {
		return priority[b.CatalogName] - priority[a.CatalogName]
	})
}

// fetchJSON performs a GET request and decodes the JSON response into result
func (c *Client) fetchJSON(ctx context.Context, url string, result any) error {
	reqCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return errors.Newf("failed to create HTTP request: %w", err).
			Category(errors.CategoryNetwork).
			Context("url", url).
			Component("gwosc").
			Build()
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "gwstrain/1.0")

	if c.debug {
		logger.Debug("gwosc API request", "url", url)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error("gwosc API request failed", "error", err, "url", url)
		return errors.Newf("HTTP request failed: %w", err).
			Category(errors.CategoryNetwork).
			Context("url", url).
			Component("gwosc").
			Build()
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			logger.Debug("Failed to close response body", "error", closeErr, "url", url)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		logger.Warn("gwosc API error response", "status_code", resp.StatusCode, "url", url)
		return errors.Newf("gwosc API error (status %d)", resp.StatusCode).
			Category(errors.CategoryNetwork).
			Context("status_code", resp.StatusCode).
			Context("url", url).
			Component("gwosc").
			Build()
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Error("Failed to read response body", "error", err, "url", url)
		return errors.Newf("failed to read response body: %w", err).
			Category(errors.CategoryNetwork).
			Context("url", url).
			Component("gwosc").
			Build()
	}

	if err := json.Unmarshal(bodyBytes, result); err != nil {
		logger.Error("Failed to parse gwosc API response",
			"error", err,
			"url", url,
			"response_size", len(bodyBytes))
		return errors.Newf("failed to parse response: %w", err).
			Category(errors.CategoryFileParsing).
			Context("url", url).
			Context("response_size", len(bodyBytes)).
			Component("gwosc").
			Build()
	}

	return nil
}
