package gwosc

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/require"
)

const testIndexURL = "https://gwosc.test/eventapi/json/allevents/"

// setupHTTPMock activates httpmock and registers cleanup.
func setupHTTPMock(t *testing.T) {
	t.Helper()
	httpmock.Activate()
	t.Cleanup(httpmock.DeactivateAndReset)
}

// newTestClient creates a catalog client against the test index endpoint.
func newTestClient(t *testing.T, priority map[string]int) *Client {
	t.Helper()

	client, err := NewClient(Config{
		IndexURL: testIndexURL,
		Timeout:  5 * time.Second,
		CacheTTL: time.Hour,
		Priority: priority,
	})
	require.NoError(t, err)
	t.Cleanup(func() { client.httpClient.CloseIdleConnections() })

	return client
}

// testPriority mirrors the default catalog ranking.
func testPriority() map[string]int {
	return map[string]int{
		"GWTC-1-confident":   5,
		"GWTC-2.1-confident": 7,
		"GWTC-3-confident":   8,
		"GWTC-1-marginal":    1,
	}
}

// indexEntry renders one raw index entry.
func indexEntry(commonName, catalog string, gps float64, jsonURL string) string {
	return fmt.Sprintf(`{"commonName": %q, "catalog.shortName": %q, "GPS": %v, "jsonurl": %q}`,
		commonName, catalog, gps, jsonURL)
}

// indexBody renders an index document from key -> entry JSON.
func indexBody(entries map[string]string) string {
	parts := make([]string, 0, len(entries))
	for key, entry := range entries {
		parts = append(parts, fmt.Sprintf("%q: %s", key, entry))
	}
	return `{"events": {` + strings.Join(parts, ",") + `}}`
}

// strainSourceJSON renders one strain source listing item.
func strainSourceJSON(detector string, rate int, format string, duration int, url string) string {
	return fmt.Sprintf(`{"detector": %q, "sampling_rate": %d, "format": %q, "duration": %d, "url": %q}`,
		detector, rate, format, duration, url)
}

// detailBody renders a detail document wrapping the strain listing under
// an arbitrary internal key.
func detailBody(internalKey string, sources ...string) string {
	return fmt.Sprintf(`{"events": {%q: {"strain": [%s]}}}`, internalKey, strings.Join(sources, ","))
}

// defaultConstraints matches the production file variant.
func defaultConstraints() Constraints {
	return Constraints{
		SampleRate: 4096,
		Duration:   32,
		Format:     "hdf5",
		Detectors:  []string{"H1", "L1", "V1"},
	}
}
