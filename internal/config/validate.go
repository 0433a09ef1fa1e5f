package config

import (
	"errors"
	"fmt"
	"strings"
)

var knownFormats = map[string]struct{}{
	"parquet": {},
	"csv":     {},
}

// Validate reports configuration problems that should block startup. Note that
// an unset output directory is allowed here; it is a per-run requirement
// enforced by batch preflight, since it can be supplied on the command line.
func (c *Config) Validate() error {
	var problems []string

	if len(c.Conversion.Formats) == 0 {
		problems = append(problems, "conversion.formats must list at least one format")
	}
	for _, format := range c.Conversion.Formats {
		if _, ok := knownFormats[format]; !ok {
			problems = append(problems, fmt.Sprintf("conversion.formats: unknown format %q", format))
		}
	}

	if c.Decoder.Binary == "" {
		problems = append(problems, "decoder.binary must not be empty")
	}

	if c.Notifications.RequestTimeout < 0 {
		problems = append(problems, "notifications.request_timeout must not be negative")
	}

	switch c.Logging.Format {
	case "", "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format: unsupported value %q", c.Logging.Format))
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("logging.level: unsupported value %q", c.Logging.Level))
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}
