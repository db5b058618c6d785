package strain

import (
	"encoding/json"
	"os"
	"path/filepath"
	"slices"

	"github.com/warplab/gwstrain/internal/errors"
)

// ManifestEntry records what was acquired for one event.
type ManifestEntry struct {
	Detectors  []string `json:"detectors"`
	SampleRate int      `json:"sampleRate"`
	GPSStart   float64  `json:"gpsStart"`
	Duration   int      `json:"duration"`
}

// Manifest is the durable, incremental record of acquired events, keyed
// by event common name. Entries are only ever created or overwritten,
// never deleted.
type Manifest struct {
	path    string
	entries map[string]ManifestEntry
}

// LoadManifest reads the manifest at path. A missing file yields an
// empty manifest, so first runs need no setup.
func LoadManifest(path string) (*Manifest, error) {
	m := &Manifest{
		path:    path,
		entries: make(map[string]ManifestEntry),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return nil, errors.Newf("failed to read manifest: %w", err).
			Category(errors.CategoryFileIO).
			FileContext(path, 0).
			Component("strain").
			Build()
	}

	if err := json.Unmarshal(data, &m.entries); err != nil {
		return nil, errors.Newf("failed to parse manifest: %w", err).
			Category(errors.CategoryFileParsing).
			FileContext(path, int64(len(data))).
			Component("strain").
			Build()
	}

	return m, nil
}

// Record overwrites the event's entry with the given detector set. The
// caller passes the authoritative detector union; previous detector
// sets are not merged in.
func (m *Manifest) Record(event string, detectors []string, sampleRate int, gpsStart float64, duration int) {
	sorted := slices.Clone(detectors)
	slices.Sort(sorted)

	m.entries[event] = ManifestEntry{
		Detectors:  sorted,
		SampleRate: sampleRate,
		GPSStart:   gpsStart,
		Duration:   duration,
	}
}

// Entry returns the recorded entry for an event.
func (m *Manifest) Entry(event string) (ManifestEntry, bool) {
	entry, ok := m.entries[event]
	return entry, ok
}

// Len returns the number of recorded events.
func (m *Manifest) Len() int {
	return len(m.entries)
}

// Path returns the manifest file location.
func (m *Manifest) Path() string {
	return m.path
}

// Save writes the manifest as indented JSON. Map keys marshal in sorted
// order, keeping diffs reproducible.
func (m *Manifest) Save() error {
	data, err := json.MarshalIndent(m.entries, "", "  ")
	if err != nil {
		return errors.Newf("failed to marshal manifest: %w", err).
			Category(errors.CategoryFileIO).
			Component("strain").
			Build()
	}

	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return errors.Newf("failed to create manifest directory: %w", err).
			Category(errors.CategoryFileIO).
			FileContext(m.path, 0).
			Component("strain").
			Build()
	}

	if err := os.WriteFile(m.path, data, 0o644); err != nil {
		return errors.Newf("failed to write manifest: %w", err).
			Category(errors.CategoryFileIO).
			FileContext(m.path, int64(len(data))).
			Component("strain").
			Build()
	}

	logger.Debug("manifest written", "path", m.path, "events", len(m.entries))
	return nil
}
