// Package config loads, validates, and persists udfconv configuration.
//
// Configuration lives in a TOML file (default ~/.config/udfconv/config.toml)
// holding the last-used conversion options, directory paths, the decoder tool
// location, notification settings, and log preferences. Loading is best-effort
// friendly: a missing file yields defaults, and startup never fails because the
// settings record is absent. Batch runs snapshot the relevant values into a
// batch.Config, so edits made while a run is active never affect it.
package config
