package config

import (
	"os"
	"path/filepath"
)

// Default returns the configuration used when no file exists. The defaults
// mirror the tool's historical behavior: both formats on, scaling applied,
// existing outputs skipped, no bundle.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir(),
			LogDir:   filepath.Join(defaultStateDir(), "logs"),
		},
		Conversion: Conversion{
			Formats:      []string{"parquet", "csv"},
			ApplyScaling: true,
			SkipExisting: true,
		},
		Decoder: Decoder{
			Binary: "bst-udf-decode",
		},
		Notifications: Notifications{
			RequestTimeout: 10,
		},
		Logging: Logging{
			Format: "console",
			Level:  "info",
		},
	}
}

func defaultStateDir() string {
	if base, ok := os.LookupEnv("XDG_STATE_HOME"); ok && base != "" {
		return filepath.Join(base, "udfconv")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".udfconv")
	}
	return filepath.Join(home, ".local", "state", "udfconv")
}
