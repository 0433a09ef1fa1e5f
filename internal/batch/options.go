package batch

import (
	"strings"

	"udfconv/internal/config"
	"udfconv/internal/services"
	"udfconv/internal/tabular"
)

// Options is the per-run settings snapshot. It is fixed when Run starts;
// config edits during a batch never affect it.
type Options struct {
	Formats         []tabular.Format
	ApplyScaling    bool
	UseSubfolder    bool
	TimestampSuffix bool
	SkipExisting    bool
	ZipOutputs      bool
	UserMessage     string
	OutputDir       string
}

// OptionsFromConfig snapshots the configured conversion settings into run
// options.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	formats, err := tabular.ParseFormats(cfg.Conversion.Formats)
	if err != nil {
		return Options{}, services.Wrap(services.ErrConfiguration, "batch", "formats", "", err)
	}
	return Options{
		Formats:         formats,
		ApplyScaling:    cfg.Conversion.ApplyScaling,
		UseSubfolder:    cfg.Conversion.UseSubfolder,
		TimestampSuffix: cfg.Conversion.TimestampSuffix,
		SkipExisting:    cfg.Conversion.SkipExisting,
		ZipOutputs:      cfg.Conversion.ZipOutputs,
		UserMessage:     strings.TrimSpace(cfg.Conversion.UserMessage),
		OutputDir:       cfg.Paths.OutputDir,
	}, nil
}
