package gwosc

import (
	"context"
	"slices"

	"github.com/patrickmn/go-cache"
)

// LocateSources probes an event's catalog appearances best release first
// and returns the detector to URL mapping of the first appearance that
// offers at least one strain source matching the constraints, together
// with that appearance's GPS start time.
//
// This is a first-match policy: once an appearance yields any matching
// source, lower-priority appearances are not consulted, even if they
// would offer more detectors. A failed or malformed detail lookup skips
// that appearance silently.
//
// When no appearance yields a matching source, the returned mapping is
// empty and the GPS start is zero. That is a normal outcome, not an
// error.
func (c *Client) LocateSources(ctx context.Context, entries []CatalogEntry, req Constraints) (map[string]string, float64) {
	for i := range entries {
		entry := &entries[i]
		if entry.JSONURL == "" {
			continue
		}

		sources, err := c.fetchStrainSources(ctx, entry.JSONURL)
		if err != nil {
			logger.Debug("skipping catalog appearance",
				"event", entry.CommonName,
				"catalog", entry.CatalogName,
				"error", err)
			continue
		}

		urls := make(map[string]string)
		for i := range sources {
			s := &sources[i]
			if slices.Contains(req.Detectors, s.Detector) &&
				s.SamplingRate == float64(req.SampleRate) &&
				s.Format == req.Format &&
				s.Duration == float64(req.Duration) {
				urls[s.Detector] = s.URL
			}
		}

		if len(urls) > 0 {
			logger.Info("strain sources located",
				"event", entry.CommonName,
				"catalog", entry.CatalogName,
				"detectors", len(urls),
				"gps", entry.GPS)
			return urls, entry.GPS
		}
	}

	return map[string]string{}, 0
}

// fetchStrainSources retrieves the strain listing from an appearance's
// detail document. Responses are cached per URL for the configured TTL
// so shared detail documents are fetched once per run.
func (c *Client) fetchStrainSources(ctx context.Context, jsonURL string) ([]StrainSource, error) {
	if cached, found := c.cache.Get(jsonURL); found {
		if sources, ok := cached.([]StrainSource); ok {
			logger.Debug("detail cache hit", "url", jsonURL, "sources", len(sources))
			return sources, nil
		}
	}

	var detail detailResponse
	if err := c.fetchJSON(ctx, jsonURL, &detail); err != nil {
		return nil, err
	}

	// The detail document wraps its payload under an internal events
	// key we take no dependency on. The first entry exposing a strain
	// key wins, even when its listing is empty; later entries are not
	// consulted. Keys are walked in sorted order for determinism.
	keys := make([]string, 0, len(detail.Events))
	for key := range detail.Events {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	var sources []StrainSource
	for _, key := range keys {
		if listing := detail.Events[key].Strain; listing != nil {
			sources = *listing
			break
		}
	}

	c.cache.Set(jsonURL, sources, cache.DefaultExpiration)

	return sources, nil
}
