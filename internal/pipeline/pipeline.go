// Package pipeline sequences catalog resolution, acquisition and
// manifest bookkeeping across events.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/warplab/gwstrain/internal/conf"
	"github.com/warplab/gwstrain/internal/errors"
	"github.com/warplab/gwstrain/internal/gwosc"
	"github.com/warplab/gwstrain/internal/logging"
	"github.com/warplab/gwstrain/internal/strain"
)

// Catalog resolves events and locates matching strain sources.
type Catalog interface {
	FetchEvents(ctx context.Context) (map[string][]gwosc.CatalogEntry, error)
	LocateSources(ctx context.Context, entries []gwosc.CatalogEntry, req gwosc.Constraints) (map[string]string, float64)
}

// Acquirer downloads and decodes one strain source.
type Acquirer interface {
	Acquire(ctx context.Context, url string) (*strain.Recording, error)
}

// Summary aggregates the outcome of one run.
type Summary struct {
	Total      int   // events considered
	Processed  int   // events with data saved or already present
	Failed     int   // events aborted by unexpected errors
	TotalBytes int64 // bytes of persisted artifacts after the run
}

// Pipeline drives acquisition for a set of events. Events are processed
// sequentially, in sorted name order, so console output is reproducible.
type Pipeline struct {
	settings *conf.Settings
	catalog  Catalog
	acquirer Acquirer
	store    *strain.Store
	logger   *slog.Logger
	out      io.Writer
}

// New creates a pipeline over the given collaborators. Console progress
// goes to out; pass os.Stdout outside of tests.
func New(settings *conf.Settings, catalog Catalog, acquirer Acquirer, store *strain.Store, out io.Writer) *Pipeline {
	logger := logging.ForService("pipeline")
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		settings: settings,
		catalog:  catalog,
		acquirer: acquirer,
		store:    store,
		logger:   logger,
		out:      out,
	}
}

// FromSettings wires a pipeline with a live catalog client and acquirer.
// The returned cleanup releases their resources.
func FromSettings(settings *conf.Settings, out io.Writer) (*Pipeline, func(), error) {
	client, err := gwosc.NewClient(gwosc.Config{
		IndexURL: settings.Catalog.IndexURL,
		Timeout:  settings.Catalog.Timeout,
		CacheTTL: settings.Catalog.CacheTTL,
		Priority: settings.Catalog.Priority,
	})
	if err != nil {
		return nil, nil, err
	}

	acquirer := strain.NewAcquirer(&settings.Strain)
	store := strain.NewStore(settings.Strain.OutputDir)

	cleanup := func() {
		acquirer.Close()
		client.Close()
	}

	return New(settings, client, acquirer, store, out), cleanup, nil
}

func (p *Pipeline) constraints() gwosc.Constraints {
	return gwosc.Constraints{
		SampleRate: p.settings.Strain.SampleRate,
		Duration:   p.settings.Strain.Duration,
		Format:     p.settings.Strain.Format,
		Detectors:  p.settings.Strain.Detectors,
	}
}

// Run processes all catalog events, or just singleEvent when non-empty.
// Per-event and per-detector failures are contained; only catalog
// unavailability and an unknown single event abort the run.
func (p *Pipeline) Run(ctx context.Context, singleEvent string) (*Summary, error) {
	fmt.Fprintln(p.out, "Fetching event catalog from GWOSC...")

	events, err := p.catalog.FetchEvents(ctx)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(p.out, "Found %d unique events\n", len(events))

	if singleEvent != "" {
		group, ok := events[singleEvent]
		if !ok {
			return nil, errors.Newf("event %q not found in catalog", singleEvent).
				Category(errors.CategoryNotFound).
				Context("event", singleEvent).
				Component("pipeline").
				Build()
		}
		events = map[string][]gwosc.CatalogEntry{singleEvent: group}
	}

	if err := os.MkdirAll(p.settings.Strain.OutputDir, 0o755); err != nil {
		return nil, errors.Newf("failed to create output directory: %w", err).
			Category(errors.CategoryFileIO).
			Context("dir", p.settings.Strain.OutputDir).
			Component("pipeline").
			Build()
	}

	// Existing entries survive so the manifest stays incremental
	manifest, err := strain.LoadManifest(p.settings.Strain.ManifestPath())
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(events))
	for name := range events {
		names = append(names, name)
	}
	slices.Sort(names)

	summary := &Summary{Total: len(names)}

	for i, name := range names {
		fmt.Fprintf(p.out, "[%d/%d] Processing %s...\n", i+1, summary.Total, name)

		saved, err := p.processEvent(ctx, name, events[name], manifest)
		if err != nil {
			fmt.Fprintf(p.out, "  ERROR: %v\n", err)
			p.logger.Error("event processing failed", "event", name, "error", err)
			summary.Failed++
			continue
		}
		if saved {
			summary.Processed++
		}
	}

	if err := manifest.Save(); err != nil {
		return nil, err
	}

	totalBytes, err := p.store.TotalBytes()
	if err != nil {
		p.logger.Warn("failed to sum artifact sizes", "error", err)
	}
	summary.TotalBytes = totalBytes

	fmt.Fprintf(p.out, "\nDone: %d/%d events processed\n", summary.Processed, summary.Total)
	fmt.Fprintf(p.out, "Manifest: %s\n", manifest.Path())
	fmt.Fprintf(p.out, "Total strain data: %.1f MB\n", float64(totalBytes)/(1024*1024))

	p.logger.Info("run complete",
		"events", summary.Total,
		"processed", summary.Processed,
		"failed", summary.Failed,
		"total_bytes", totalBytes)

	return summary, nil
}

// processEvent runs one event through the acquisition state machine.
// Returns true when the event has data saved (or already valid on disk).
func (p *Pipeline) processEvent(ctx context.Context, name string, versions []gwosc.CatalogEntry, manifest *strain.Manifest) (bool, error) {
	// Any valid existing artifact short-circuits the whole event. An
	// event saved with one detector never tops up missing detectors on
	// later runs; that matches the historical behavior callers rely on.
	if valid := p.store.ValidDetectors(name); len(valid) > 0 {
		var gps float64
		if len(versions) > 0 {
			gps = versions[0].GPS
		}
		manifest.Record(name, valid, p.settings.Strain.SampleRate, gps, p.settings.Strain.Duration)
		fmt.Fprintf(p.out, "  %s: already exists (%s), skipping\n", name, strings.Join(valid, ", "))
		return true, nil
	}

	urls, gpsStart := p.catalog.LocateSources(ctx, versions, p.constraints())
	if len(urls) == 0 {
		fmt.Fprintf(p.out, "  %s: no %dHz %s strain data available, skipping\n",
			name, p.settings.Strain.SampleRate, p.settings.Strain.Format)
		return false, nil
	}

	detectors := make([]string, 0, len(urls))
	for detector := range urls {
		detectors = append(detectors, detector)
	}
	slices.Sort(detectors)

	var saved []string
	for _, detector := range detectors {
		fmt.Fprintf(p.out, "  %s/%s: downloading...", name, detector)

		rec, err := p.acquirer.Acquire(ctx, urls[detector])
		if err != nil {
			fmt.Fprintf(p.out, " FAILED: %v\n", err)
			p.logger.Error("detector acquisition failed",
				"event", name,
				"detector", detector,
				"error", err)
			continue
		}
		gpsStart = rec.GPSStart

		size, err := p.store.SaveArtifact(name, detector, rec.Samples)
		if err != nil {
			fmt.Fprintf(p.out, " FAILED: %v\n", err)
			p.logger.Error("artifact save failed",
				"event", name,
				"detector", detector,
				"error", err)
			continue
		}

		saved = append(saved, detector)
		fmt.Fprintf(p.out, " OK (%d samples, %.0f KB)\n", len(rec.Samples), float64(size)/1024)
	}

	if len(saved) > 0 {
		manifest.Record(name, saved, p.settings.Strain.SampleRate, gpsStart, p.settings.Strain.Duration)
		return true, nil
	}

	return false, nil
}

// ListEvents prints all known event names in sorted order, one per line.
func (p *Pipeline) ListEvents(ctx context.Context) error {
	events, err := p.catalog.FetchEvents(ctx)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(events))
	for name := range events {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		fmt.Fprintln(p.out, name)
	}
	return nil
}
