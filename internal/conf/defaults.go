// conf/defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "gwstrain")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "gwstrain.log")
	viper.SetDefault("main.log.rotation", RotationDaily)
	viper.SetDefault("main.log.maxsize", 1048576)

	viper.SetDefault("catalog.indexurl", "https://gwosc.org/eventapi/json/allevents/")
	viper.SetDefault("catalog.timeout", "30s")
	viper.SetDefault("catalog.cachettl", "1h")
	// Later catalog releases carry better calibrated data
	viper.SetDefault("catalog.priority", map[string]int{
		"O1_O2-Preliminary":   0,
		"GWTC-1-marginal":     1,
		"GWTC-2.1-marginal":   2,
		"GWTC-3-marginal":     3,
		"GWTC-1-confident":    5,
		"GWTC-2":              6,
		"GWTC-2.1-confident":  7,
		"GWTC-3-confident":    8,
		"O4_Discovery_Papers": 9,
	})

	// 4 kHz 32 second files, smaller and sufficient for visualization
	viper.SetDefault("strain.samplerate", 4096)
	viper.SetDefault("strain.duration", 32)
	viper.SetDefault("strain.format", "hdf5")
	viper.SetDefault("strain.detectors", []string{"H1", "L1", "V1"})
	viper.SetDefault("strain.outputdir", "public/strain")
	viper.SetDefault("strain.scratchdir", "")
	viper.SetDefault("strain.downloadtimeout", "120s")
}
