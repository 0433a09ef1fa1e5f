// Package logging builds the slog loggers used across udfconv and provides
// small attribute helpers so call sites stay terse.
//
// Loggers are constructed from the [logging] config section (console or json
// format) and tee output to stdout plus the log file under paths.log_dir. Use
// NewComponentLogger to tag a logger with the owning component and the Field*
// constants for the standard structured keys.
package logging
