package conf

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/warplab/gwstrain/internal/errors"
)

// OS name constants for runtime.GOOS comparisons.
const (
	osWindows = "windows"
)

// GetDefaultConfigPaths returns a list of default configuration paths for the current operating system.
// It determines paths based on standard conventions for storing application configuration files.
func GetDefaultConfigPaths() ([]string, error) {
	var configPaths []string

	// Fetch the directory of the executable.
	exePath, err := os.Executable()
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryConfiguration).
			Context("operation", "get-executable-path").
			Build()
	}
	exeDir := filepath.Dir(exePath)

	// Fetch the user's home directory.
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryConfiguration).
			Context("operation", "get-home-directory").
			Build()
	}

	// Define default paths based on the operating system.
	switch runtime.GOOS {
	case osWindows:
		configPaths = []string{
			exeDir,
			filepath.Join(homeDir, "AppData", "Roaming", "gwstrain"),
		}
	default:
		configPaths = []string{
			filepath.Join(homeDir, ".config", "gwstrain"),
			"/etc/gwstrain",
		}
	}

	// The working directory is always searched first so a local
	// config.yaml next to the data takes precedence.
	configPaths = append([]string{"."}, configPaths...)

	return configPaths, nil
}
