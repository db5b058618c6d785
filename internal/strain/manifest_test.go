package strain

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadManifest_MissingFile(t *testing.T) {
	m, err := LoadManifest(filepath.Join(t.TempDir(), "manifest.json"))
	require.NoError(t, err)
	assert.Zero(t, m.Len())
}

func TestLoadManifest_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"GW150914": [`), 0o644))

	m, err := LoadManifest(path)
	require.Error(t, err)
	assert.Nil(t, m)
}

func TestManifest_RecordSortsAndOverwrites(t *testing.T) {
	m, err := LoadManifest(filepath.Join(t.TempDir(), "manifest.json"))
	require.NoError(t, err)

	m.Record("GW150914", []string{"L1", "H1"}, 4096, 1126259462.4, 32)

	entry, ok := m.Entry("GW150914")
	require.True(t, ok)
	assert.Equal(t, []string{"H1", "L1"}, entry.Detectors)
	assert.Equal(t, 4096, entry.SampleRate)
	assert.InDelta(t, 1126259462.4, entry.GPSStart, 1e-6)
	assert.Equal(t, 32, entry.Duration)

	// A later record replaces the detector set wholesale, no merging
	m.Record("GW150914", []string{"V1"}, 4096, 1126259462.4, 32)

	entry, ok = m.Entry("GW150914")
	require.True(t, ok)
	assert.Equal(t, []string{"V1"}, entry.Detectors)
}

func TestManifest_SaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")

	m, err := LoadManifest(path)
	require.NoError(t, err)
	m.Record("GW150914", []string{"H1", "L1"}, 4096, 1126259462.4, 32)
	m.Record("GW151226", []string{"L1"}, 4096, 1135136350.6, 32)
	require.NoError(t, m.Save())

	reloaded, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.Len())

	entry, ok := reloaded.Entry("GW150914")
	require.True(t, ok)
	assert.Equal(t, []string{"H1", "L1"}, entry.Detectors)
}

func TestManifest_SaveShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")

	m, err := LoadManifest(path)
	require.NoError(t, err)
	m.Record("GW150914", []string{"L1", "H1"}, 4096, 1126259462.4, 32)
	require.NoError(t, m.Save())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var raw map[string]map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))

	entry := raw["GW150914"]
	require.NotNil(t, entry)
	assert.Equal(t, []any{"H1", "L1"}, entry["detectors"])
	assert.InDelta(t, 4096, entry["sampleRate"], 0.1)
	assert.InDelta(t, 1126259462.4, entry["gpsStart"], 1e-6)
	assert.InDelta(t, 32, entry["duration"], 0.1)
}
