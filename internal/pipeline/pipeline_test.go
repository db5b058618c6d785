package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warplab/gwstrain/internal/conf"
	"github.com/warplab/gwstrain/internal/errors"
	"github.com/warplab/gwstrain/internal/gwosc"
	"github.com/warplab/gwstrain/internal/strain"
)

type fakeCatalog struct {
	events      map[string][]gwosc.CatalogEntry
	fetchErr    error
	sources     map[string]map[string]string // event name -> detector -> url
	gps         map[string]float64
	locateCalls int
}

func (f *fakeCatalog) FetchEvents(_ context.Context) (map[string][]gwosc.CatalogEntry, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.events, nil
}

func (f *fakeCatalog) LocateSources(_ context.Context, entries []gwosc.CatalogEntry, _ gwosc.Constraints) (map[string]string, float64) {
	f.locateCalls++
	if len(entries) == 0 {
		return map[string]string{}, 0
	}
	name := entries[0].CommonName
	urls, ok := f.sources[name]
	if !ok {
		return map[string]string{}, 0
	}
	return urls, f.gps[name]
}

type fakeAcquirer struct {
	recordings map[string]*strain.Recording // url -> recording
	errs       map[string]error             // url -> error
	calls      int
}

func (f *fakeAcquirer) Acquire(_ context.Context, url string) (*strain.Recording, error) {
	f.calls++
	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	rec, ok := f.recordings[url]
	if !ok {
		return nil, errors.NewStd("no recording for " + url)
	}
	return rec, nil
}

func testSettings(t *testing.T) *conf.Settings {
	t.Helper()
	return &conf.Settings{
		Strain: conf.StrainSettings{
			SampleRate: 4096,
			Duration:   32,
			Format:     "hdf5",
			Detectors:  []string{"H1", "L1", "V1"},
			OutputDir:  filepath.Join(t.TempDir(), "strain"),
		},
	}
}

func recording(n int, gps float64) *strain.Recording {
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = float32(i) * 1e-21
	}
	return &strain.Recording{Samples: samples, SampleRate: 4096, GPSStart: gps}
}

func newTestPipeline(settings *conf.Settings, catalog Catalog, acquirer Acquirer) (*Pipeline, *bytes.Buffer) {
	var out bytes.Buffer
	store := strain.NewStore(settings.Strain.OutputDir)
	return New(settings, catalog, acquirer, store, &out), &out
}

func TestRun_AcquiresAndRecordsEvent(t *testing.T) {
	settings := testSettings(t)

	catalog := &fakeCatalog{
		events: map[string][]gwosc.CatalogEntry{
			"GW150914": {
				{CommonName: "GW150914", CatalogName: "GWTC-1-confident", GPS: 1126259462.4, JSONURL: "https://gwosc.org/GW150914.json"},
				{CommonName: "GW150914", CatalogName: "GWTC-1-marginal", GPS: 1126259462.4},
			},
		},
		sources: map[string]map[string]string{
			"GW150914": {
				"H1": "https://gwosc.org/h1.hdf5",
				"L1": "https://gwosc.org/l1.hdf5",
			},
		},
		gps: map[string]float64{"GW150914": 1126259462.4},
	}
	acquirer := &fakeAcquirer{
		recordings: map[string]*strain.Recording{
			"https://gwosc.org/h1.hdf5": recording(128, 1126259446.0),
			"https://gwosc.org/l1.hdf5": recording(128, 1126259446.0),
		},
	}

	pipe, out := newTestPipeline(settings, catalog, acquirer)
	summary, err := pipe.Run(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, int64(2*128*4), summary.TotalBytes)

	for _, detector := range []string{"H1", "L1"} {
		info, err := os.Stat(filepath.Join(settings.Strain.OutputDir, "GW150914", detector+".bin"))
		require.NoError(t, err, "artifact for %s", detector)
		assert.Equal(t, int64(128*4), info.Size())
	}

	manifest, err := strain.LoadManifest(settings.Strain.ManifestPath())
	require.NoError(t, err)
	entry, ok := manifest.Entry("GW150914")
	require.True(t, ok)
	assert.Equal(t, []string{"H1", "L1"}, entry.Detectors)
	assert.Equal(t, 4096, entry.SampleRate)
	assert.InDelta(t, 1126259446.0, entry.GPSStart, 1e-9)
	assert.Equal(t, 32, entry.Duration)

	assert.Contains(t, out.String(), "[1/1] Processing GW150914...")
	assert.Contains(t, out.String(), "Done: 1/1 events processed")
}

func TestRun_SecondRunSkipsExistingArtifacts(t *testing.T) {
	settings := testSettings(t)

	events := map[string][]gwosc.CatalogEntry{
		"GW150914": {{CommonName: "GW150914", CatalogName: "GWTC-1-confident", GPS: 1126259462.4}},
	}
	sources := map[string]map[string]string{
		"GW150914": {"H1": "https://gwosc.org/h1.hdf5"},
	}
	acquirer := &fakeAcquirer{
		recordings: map[string]*strain.Recording{
			"https://gwosc.org/h1.hdf5": recording(64, 1126259446.0),
		},
	}

	first := &fakeCatalog{events: events, sources: sources, gps: map[string]float64{"GW150914": 1126259462.4}}
	pipe, _ := newTestPipeline(settings, first, acquirer)
	_, err := pipe.Run(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, 1, acquirer.calls)

	// Rerun with fresh collaborators over the same output directory.
	second := &fakeCatalog{events: events, sources: sources, gps: map[string]float64{"GW150914": 1126259462.4}}
	pipe2, out := newTestPipeline(settings, second, acquirer)
	summary, err := pipe2.Run(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, 0, second.locateCalls, "existing artifacts must not trigger source lookup")
	assert.Equal(t, 1, acquirer.calls, "existing artifacts must not be re-downloaded")
	assert.Equal(t, 1, summary.Processed)
	assert.Contains(t, out.String(), "already exists (H1), skipping")

	manifest, err := strain.LoadManifest(settings.Strain.ManifestPath())
	require.NoError(t, err)
	entry, ok := manifest.Entry("GW150914")
	require.True(t, ok)
	assert.Equal(t, []string{"H1"}, entry.Detectors)
}

func TestRun_DetectorFailureDoesNotAbortEvent(t *testing.T) {
	settings := testSettings(t)

	catalog := &fakeCatalog{
		events: map[string][]gwosc.CatalogEntry{
			"GW170817": {{CommonName: "GW170817", CatalogName: "GWTC-1-confident", GPS: 1187008882.4}},
		},
		sources: map[string]map[string]string{
			"GW170817": {
				"H1": "https://gwosc.org/h1.hdf5",
				"L1": "https://gwosc.org/l1.hdf5",
			},
		},
		gps: map[string]float64{"GW170817": 1187008882.4},
	}
	acquirer := &fakeAcquirer{
		recordings: map[string]*strain.Recording{
			"https://gwosc.org/l1.hdf5": recording(64, 1187008866.0),
		},
		errs: map[string]error{
			"https://gwosc.org/h1.hdf5": errors.NewStd("connection reset"),
		},
	}

	pipe, out := newTestPipeline(settings, catalog, acquirer)
	summary, err := pipe.Run(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 0, summary.Failed)
	assert.Contains(t, out.String(), "FAILED: connection reset")

	manifest, err := strain.LoadManifest(settings.Strain.ManifestPath())
	require.NoError(t, err)
	entry, ok := manifest.Entry("GW170817")
	require.True(t, ok)
	assert.Equal(t, []string{"L1"}, entry.Detectors, "only the surviving detector is recorded")

	_, err = os.Stat(filepath.Join(settings.Strain.OutputDir, "GW170817", "H1.bin"))
	assert.True(t, os.IsNotExist(err))
}

func TestRun_NoSourcesSkipsEvent(t *testing.T) {
	settings := testSettings(t)

	catalog := &fakeCatalog{
		events: map[string][]gwosc.CatalogEntry{
			"GW190521": {{CommonName: "GW190521", CatalogName: "GWTC-2", GPS: 1242442967.4}},
		},
	}
	acquirer := &fakeAcquirer{}

	pipe, out := newTestPipeline(settings, catalog, acquirer)
	summary, err := pipe.Run(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Processed)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 0, acquirer.calls)
	assert.Contains(t, out.String(), "no 4096Hz hdf5 strain data available, skipping")

	manifest, err := strain.LoadManifest(settings.Strain.ManifestPath())
	require.NoError(t, err)
	assert.Equal(t, 0, manifest.Len())
}

func TestRun_SingleEventNotFound(t *testing.T) {
	settings := testSettings(t)

	catalog := &fakeCatalog{
		events: map[string][]gwosc.CatalogEntry{
			"GW150914": {{CommonName: "GW150914", CatalogName: "GWTC-1-confident"}},
		},
	}

	pipe, _ := newTestPipeline(settings, catalog, &fakeAcquirer{})
	_, err := pipe.Run(context.Background(), "GW999999")
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryNotFound))
	assert.Contains(t, err.Error(), "GW999999")
}

func TestRun_SingleEventProcessesOnlyThatEvent(t *testing.T) {
	settings := testSettings(t)

	catalog := &fakeCatalog{
		events: map[string][]gwosc.CatalogEntry{
			"GW150914": {{CommonName: "GW150914", CatalogName: "GWTC-1-confident"}},
			"GW170817": {{CommonName: "GW170817", CatalogName: "GWTC-1-confident"}},
		},
		sources: map[string]map[string]string{
			"GW170817": {"L1": "https://gwosc.org/l1.hdf5"},
		},
		gps: map[string]float64{"GW170817": 1187008882.4},
	}
	acquirer := &fakeAcquirer{
		recordings: map[string]*strain.Recording{
			"https://gwosc.org/l1.hdf5": recording(32, 1187008866.0),
		},
	}

	pipe, out := newTestPipeline(settings, catalog, acquirer)
	summary, err := pipe.Run(context.Background(), "GW170817")
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, 1, summary.Processed)
	assert.NotContains(t, out.String(), "GW150914")
}

func TestRun_CatalogFailureAborts(t *testing.T) {
	settings := testSettings(t)

	catalog := &fakeCatalog{
		fetchErr: errors.Newf("catalog request failed").
			Category(errors.CategoryCatalog).
			Component("gwosc").
			Build(),
	}

	pipe, _ := newTestPipeline(settings, catalog, &fakeAcquirer{})
	_, err := pipe.Run(context.Background(), "")
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryCatalog))
}

func TestListEvents_SortedOutput(t *testing.T) {
	settings := testSettings(t)

	catalog := &fakeCatalog{
		events: map[string][]gwosc.CatalogEntry{
			"GW170817": {{CommonName: "GW170817"}},
			"GW150914": {{CommonName: "GW150914"}},
			"GW190521": {{CommonName: "GW190521"}},
		},
	}

	pipe, out := newTestPipeline(settings, catalog, &fakeAcquirer{})
	require.NoError(t, pipe.ListEvents(context.Background()))

	assert.Equal(t, "GW150914\nGW170817\nGW190521\n", out.String())
}
