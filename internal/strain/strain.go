// Package strain downloads, decodes and stores gravitational-wave
// detector strain recordings.
package strain

import (
	"io"
	"log"
	"log/slog"
	"path/filepath"

	"github.com/warplab/gwstrain/internal/logging"
)

// Package-level logger specific to the strain service
var (
	logger          *slog.Logger
	serviceLevelVar = new(slog.LevelVar) // Dynamic level control
	closeLogger     func() error
)

func init() {
	var err error
	logFilePath := filepath.Join("logs", "strain.log")
	serviceLevelVar.Set(slog.LevelDebug)

	logger, closeLogger, err = logging.NewFileLogger(logFilePath, "strain", serviceLevelVar)
	if err != nil {
		// Fallback: Log error to standard log and disable service logging
		log.Printf("FATAL: Failed to initialize strain file logger at %s: %v. Service logging disabled.", logFilePath, err)
		fbHandler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: serviceLevelVar})
		logger = slog.New(fbHandler).With("service", "strain")
		closeLogger = func() error { return nil }
	}
}

// Recording is a decoded strain time series for one detector.
type Recording struct {
	Samples    []float32 // strain samples coerced to 32-bit floats
	SampleRate int       // effective sample rate in Hz
	GPSStart   float64   // recording start in GPS seconds
}
