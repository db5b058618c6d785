package strain

import (
	"bufio"
	"encoding/binary"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/warplab/gwstrain/internal/errors"
)

// sampleWidth is the serialized size of one sample in bytes.
const sampleWidth = 4

// artifactExt is the artifact file extension.
const artifactExt = ".bin"

// Store manages decoded strain artifacts under an output directory.
// Artifacts are raw little-endian float32 sample sequences, one file
// per (event, detector), under a per-event directory.
type Store struct {
	outputDir string
}

// NewStore creates a store rooted at outputDir.
func NewStore(outputDir string) *Store {
	return &Store{outputDir: outputDir}
}

// EventDir returns the directory holding an event's artifacts.
func (s *Store) EventDir(event string) string {
	return filepath.Join(s.outputDir, event)
}

// ArtifactPath returns the artifact file path for one detector.
func (s *Store) ArtifactPath(event, detector string) string {
	return filepath.Join(s.EventDir(event), detector+artifactExt)
}

// SaveArtifact writes samples as a raw float32 sequence and returns the
// artifact's byte size.
func (s *Store) SaveArtifact(event, detector string, samples []float32) (int64, error) {
	dir := s.EventDir(event)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, errors.Newf("failed to create event directory: %w", err).
			Category(errors.CategoryFileIO).
			Context("dir", dir).
			Component("strain").
			Build()
	}

	path := s.ArtifactPath(event, detector)
	f, err := os.Create(path)
	if err != nil {
		return 0, errors.Newf("failed to create artifact: %w", err).
			Category(errors.CategoryFileIO).
			FileContext(path, 0).
			Component("strain").
			Build()
	}

	w := bufio.NewWriter(f)
	writeErr := binary.Write(w, binary.LittleEndian, samples)
	if writeErr == nil {
		writeErr = w.Flush()
	}
	if closeErr := f.Close(); writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		return 0, errors.Newf("failed to write artifact: %w", writeErr).
			Category(errors.CategoryFileIO).
			FileContext(path, 0).
			Component("strain").
			Build()
	}

	size := int64(len(samples)) * sampleWidth
	logger.Debug("artifact saved", "path", path, "samples", len(samples), "bytes", size)
	return size, nil
}

// ValidDetectors scans an event's directory and returns, in sorted
// order, the detector codes whose artifacts validate: positive size and
// an exact multiple of the sample width. Invalid artifacts are excluded
// but deliberately left in place.
func (s *Store) ValidDetectors(event string) []string {
	pattern := filepath.Join(s.EventDir(event), "*"+artifactExt)
	matches, err := filepath.Glob(pattern)
	if err != nil {
		logger.Warn("artifact scan failed", "pattern", pattern, "error", err)
		return nil
	}

	var detectors []string
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		size := info.Size()
		if size > 0 && size%sampleWidth == 0 {
			detectors = append(detectors, strings.TrimSuffix(filepath.Base(path), artifactExt))
		}
	}
	// Glob results are sorted, so detectors already are too.
	return detectors
}

// TotalBytes sums artifact sizes across all events.
func (s *Store) TotalBytes() (int64, error) {
	var total int64
	err := filepath.WalkDir(s.outputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, artifactExt) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, errors.Newf("failed to sum artifact sizes: %w", err).
			Category(errors.CategoryFileIO).
			Context("dir", s.outputDir).
			Component("strain").
			Build()
	}
	return total, nil
}
