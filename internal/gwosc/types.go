// Package gwosc provides a client for the GWOSC event catalog API
package gwosc

import "time"

// CatalogEntry is a single appearance of an event in one catalog release.
// The same physical event typically appears in several releases with
// different data quality.
type CatalogEntry struct {
	CommonName  string  `json:"commonName"`
	CatalogName string  `json:"catalog.shortName"`
	GPS         float64 `json:"GPS"`
	JSONURL     string  `json:"jsonurl"`
}

// StrainSource describes one downloadable strain file offered for an event.
type StrainSource struct {
	Detector     string  `json:"detector"`
	SamplingRate float64 `json:"sampling_rate"`
	Format       string  `json:"format"`
	Duration     float64 `json:"duration"`
	URL          string  `json:"url"`
}

// Constraints narrows strain sources to the exact file variant the
// pipeline stores. All fields must match exactly.
type Constraints struct {
	SampleRate int      // required sample rate in Hz
	Duration   int      // required segment duration in seconds
	Format     string   // required format tag
	Detectors  []string // supported detector codes
}

// indexResponse is the shape of the all-events index endpoint.
type indexResponse struct {
	Events map[string]CatalogEntry `json:"events"`
}

// detailResponse is the shape of a per-event detail document. The strain
// listing nests under an events mapping with an internal key we do not
// rely on.
type detailResponse struct {
	Events map[string]detailEvent `json:"events"`
}

// Strain is a pointer so an entry that exposes the key with an empty
// listing is distinguishable from one without the key at all.
type detailEvent struct {
	Strain *[]StrainSource `json:"strain"`
}

// Config holds configuration for the catalog client
type Config struct {
	IndexURL string         // all-events index endpoint
	Timeout  time.Duration  // per-request timeout
	CacheTTL time.Duration  // detail response cache lifetime
	Priority map[string]int // catalog release label to priority rank
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		IndexURL: "https://gwosc.org/eventapi/json/allevents/",
		Timeout:  30 * time.Second,
		CacheTTL: time.Hour,
	}
}
