package strain

import (
	"github.com/warplab/gwstrain/internal/errors"
	"gonum.org/v1/hdf5"
)

// HDF5 object paths in GWOSC strain files.
const (
	strainDatasetPath   = "strain/Strain"
	gpsStartDatasetPath = "meta/GPSstart"
	npointsAttrName     = "Npoints"
	durationAttrName    = "Duration"
)

// Decode reads a GWOSC HDF5 strain file from path. Samples are coerced
// to float32 regardless of their stored precision. The effective sample
// rate is recomputed from the Npoints and Duration attributes when both
// are present, otherwise nominalRate is used.
func Decode(path string, nominalRate int) (*Recording, error) {
	f, err := hdf5.OpenFile(path, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, decodeError("failed to open strain file", err, path)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			logger.Debug("Failed to close strain file", "path", path, "error", closeErr)
		}
	}()

	ds, err := f.OpenDataset(strainDatasetPath)
	if err != nil {
		return nil, decodeError("strain dataset missing", err, path)
	}
	defer func() {
		if closeErr := ds.Close(); closeErr != nil {
			logger.Debug("Failed to close strain dataset", "error", closeErr)
		}
	}()

	dims, _, err := ds.Space().SimpleExtentDims()
	if err != nil {
		return nil, decodeError("failed to read strain dataset extent", err, path)
	}
	sampleCount := 1
	for _, dim := range dims {
		sampleCount *= int(dim)
	}

	raw := make([]float64, sampleCount)
	if err := ds.Read(&raw); err != nil {
		return nil, decodeError("failed to read strain samples", err, path)
	}

	gpsStart, err := readScalar(f, gpsStartDatasetPath)
	if err != nil {
		return nil, decodeError("GPS start missing", err, path)
	}

	// Only explicit attribute metadata makes the recomputed rate
	// authoritative. The archive's meta/Duration dataset is not
	// consulted: files carrying the duration only as a dataset keep
	// the nominal rate.
	rate := nominalRate
	if npoints, ok := readNpoints(ds); ok {
		if duration, ok := readDuration(ds); ok {
			rate = effectiveSampleRate(npoints, duration, nominalRate)
		}
	}

	samples := make([]float32, len(raw))
	for i, v := range raw {
		samples[i] = float32(v)
	}

	logger.Debug("strain file decoded",
		"path", path,
		"samples", len(samples),
		"sample_rate", rate,
		"gps_start", gpsStart)

	return &Recording{
		Samples:    samples,
		SampleRate: rate,
		GPSStart:   gpsStart,
	}, nil
}

// effectiveSampleRate recomputes the rate from sample count and segment
// duration. Non-positive metadata falls back to the nominal rate.
func effectiveSampleRate(npoints int64, duration float64, nominal int) int {
	if npoints <= 0 || duration <= 0 {
		return nominal
	}
	return int(float64(npoints) / duration)
}

// readScalar reads a scalar float dataset from the file.
func readScalar(f *hdf5.File, path string) (float64, error) {
	ds, err := f.OpenDataset(path)
	if err != nil {
		return 0, err
	}
	defer func() {
		if closeErr := ds.Close(); closeErr != nil {
			logger.Debug("Failed to close dataset", "path", path, "error", closeErr)
		}
	}()

	var value float64
	if err := ds.Read(&value); err != nil {
		return 0, err
	}
	return value, nil
}

// readNpoints reads the optional Npoints attribute from the strain dataset.
func readNpoints(ds *hdf5.Dataset) (int64, bool) {
	attr, err := ds.OpenAttribute(npointsAttrName)
	if err != nil {
		return 0, false
	}
	defer func() {
		if closeErr := attr.Close(); closeErr != nil {
			logger.Debug("Failed to close attribute", "name", npointsAttrName, "error", closeErr)
		}
	}()

	var npoints int64
	if err := attr.Read(&npoints, hdf5.T_NATIVE_INT64); err != nil {
		return 0, false
	}
	return npoints, true
}

// readDuration reads the optional Duration attribute. Attribute access
// in the hdf5 binding is dataset scoped, so the attribute is looked up
// on the strain dataset.
func readDuration(ds *hdf5.Dataset) (float64, bool) {
	attr, err := ds.OpenAttribute(durationAttrName)
	if err != nil {
		return 0, false
	}
	defer func() {
		if closeErr := attr.Close(); closeErr != nil {
			logger.Debug("Failed to close attribute", "name", durationAttrName, "error", closeErr)
		}
	}()

	var duration float64
	if err := attr.Read(&duration, hdf5.T_NATIVE_DOUBLE); err != nil {
		return 0, false
	}
	return duration, true
}

func decodeError(msg string, err error, path string) error {
	return errors.Newf("%s: %w", msg, err).
		Category(errors.CategoryDecode).
		Context("file_path", path).
		Component("strain").
		Build()
}
