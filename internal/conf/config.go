// Package conf handles loading and validation of application settings
package conf

import (
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"
	"github.com/warplab/gwstrain/internal/errors"
)

// Settings is the root configuration structure
type Settings struct {
	Debug bool // true to enable debug output

	Main struct {
		Name string    // name of this node, can be used to identify the source of logs
		Log  LogConfig // main log configuration
	}

	Catalog CatalogSettings // event catalog access
	Strain  StrainSettings  // strain acquisition and storage
}

// CatalogSettings configures access to the GWOSC event catalog
type CatalogSettings struct {
	IndexURL string         // all-events index endpoint
	Timeout  time.Duration  // per-request timeout for catalog queries
	CacheTTL time.Duration  // lifetime of cached event detail responses
	Priority map[string]int // catalog release label to priority rank, higher wins
}

// StrainSettings configures strain source matching and artifact storage
type StrainSettings struct {
	SampleRate      int           // required source sample rate in Hz
	Duration        int           // required source segment duration in seconds
	Format          string        // required source format tag
	Detectors       []string      // supported detector codes
	OutputDir       string        // artifact output directory
	ScratchDir      string        // scratch directory for downloads, empty means the OS temp dir
	DownloadTimeout time.Duration // whole-transfer timeout per download
}

// LogConfig defines the configuration for a log file
type LogConfig struct {
	Enabled  bool         // true to enable this log
	Path     string       // Path to the log file
	Rotation RotationType // Type of log rotation
	MaxSize  int64        // Max size in bytes for RotationSize
}

// RotationType defines different types of log rotations.
type RotationType string

const (
	RotationDaily  RotationType = "daily"
	RotationWeekly RotationType = "weekly"
	RotationSize   RotationType = "size"
)

// settingsInstance is the current settings instance
var (
	settingsInstance *Settings
	once             sync.Once
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into Settings.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}

	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	// Set default values for each configuration parameter
	// function defined in defaults.go
	setDefaultConfig()

	err = viper.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// Config file is optional, defaults cover a full run
			return nil
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// ValidateSettings checks the loaded settings for consistency.
func ValidateSettings(settings *Settings) error {
	if settings.Catalog.IndexURL == "" {
		return errors.ValidationError("catalog index URL must not be empty")
	}
	if settings.Catalog.Timeout <= 0 {
		return errors.ValidationError("catalog timeout must be positive")
	}
	if settings.Strain.SampleRate <= 0 {
		return errors.ValidationError("strain sample rate must be positive")
	}
	if settings.Strain.Duration <= 0 {
		return errors.ValidationError("strain duration must be positive")
	}
	if settings.Strain.Format == "" {
		return errors.ValidationError("strain format must not be empty")
	}
	if len(settings.Strain.Detectors) == 0 {
		return errors.ValidationError("at least one detector code is required")
	}
	if settings.Strain.OutputDir == "" {
		return errors.ValidationError("strain output directory must not be empty")
	}
	if settings.Strain.DownloadTimeout <= 0 {
		return errors.ValidationError("download timeout must be positive")
	}
	return nil
}

// ManifestPath returns the manifest file location under the output directory.
func (s *StrainSettings) ManifestPath() string {
	return filepath.Join(s.OutputDir, "manifest.json")
}

// GetSettings returns the current settings instance
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// Setting returns the current settings instance, initializing it if necessary
func Setting() *Settings {
	once.Do(func() {
		if settingsInstance == nil {
			_, err := Load()
			if err != nil {
				log.Fatalf("Error loading settings: %v", err)
			}
		}
	})
	return GetSettings()
}
