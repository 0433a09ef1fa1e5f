package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"udfconv/internal/batch"
	"udfconv/internal/config"
	"udfconv/internal/logging"
	"udfconv/internal/preflight"
	"udfconv/internal/queue"
	"udfconv/internal/tabular"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var (
		formatsFlag   []string
		outputDirFlag string
		messageFlag   string
		scalingFlag   bool
		subfolderFlag bool
		timestampFlag bool
		skipFlag      bool
		zipFlag       bool
		yesFlag       bool
	)

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert all queued files",
		Long: "Convert runs the queued files through the decoder one at a time. " +
			"Press Ctrl-C to stop after the current file.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				logger, err := ctx.ensureLogger()
				if err != nil {
					return err
				}

				opts, err := batch.OptionsFromConfig(cfg)
				if err != nil {
					return err
				}
				if err := applyConvertFlags(cmd, &opts, formatsFlag, outputDirFlag, messageFlag,
					scalingFlag, subfolderFlag, timestampFlag, skipFlag, zipFlag); err != nil {
					return err
				}
				if opts.OutputDir != "" {
					expanded, err := config.ExpandPath(opts.OutputDir)
					if err != nil {
						return err
					}
					opts.OutputDir = expanded
				}

				confirmer := preflight.Confirmer(preflight.AutoApprove{})
				if !yesFlag && isTerminal(os.Stdin) {
					confirmer = newPromptConfirmer(cmd.InOrStdin(), cmd.OutOrStdout())
				}

				sink := newProgressSink(cmd.OutOrStdout())
				runner := batch.NewRunner(cfg, store, logger,
					batch.WithConfirmer(confirmer),
					batch.WithSink(sink),
				)

				runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()

				summary, err := runner.Run(runCtx, opts)
				sink.finish()
				if err != nil {
					return err
				}

				persistLastUsed(ctx, cfg, opts, logger)
				printSummary(cmd, summary)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&formatsFlag, "format", "f", nil, "Output formats: parquet, csv (repeatable)")
	cmd.Flags().StringVarP(&outputDirFlag, "output-dir", "o", "", "Output directory (must exist)")
	cmd.Flags().StringVarP(&messageFlag, "message", "m", "", "Annotation embedded in outputs that carry metadata")
	cmd.Flags().BoolVar(&scalingFlag, "scaling", true, "Apply channel scaling factors")
	cmd.Flags().BoolVar(&subfolderFlag, "subfolder", false, "Write outputs into a UDF_Exports subfolder")
	cmd.Flags().BoolVar(&timestampFlag, "timestamp-suffix", false, "Append the run timestamp to output filenames")
	cmd.Flags().BoolVar(&skipFlag, "skip-existing", true, "Skip outputs that already exist")
	cmd.Flags().BoolVar(&zipFlag, "zip", false, "Bundle produced outputs into a zip archive")
	cmd.Flags().BoolVarP(&yesFlag, "yes", "y", false, "Answer yes to overwrite prompts")

	return cmd
}

// applyConvertFlags overlays explicitly set flags onto the configured options.
// Unset flags leave the config values alone.
func applyConvertFlags(cmd *cobra.Command, opts *batch.Options, formats []string, outputDir, message string,
	scaling, subfolder, timestamp, skip, zip bool) error {
	flags := cmd.Flags()
	if flags.Changed("format") {
		parsed, err := tabular.ParseFormats(formats)
		if err != nil {
			return err
		}
		opts.Formats = parsed
	}
	if flags.Changed("output-dir") {
		opts.OutputDir = outputDir
	}
	if flags.Changed("message") {
		opts.UserMessage = message
	}
	if flags.Changed("scaling") {
		opts.ApplyScaling = scaling
	}
	if flags.Changed("subfolder") {
		opts.UseSubfolder = subfolder
	}
	if flags.Changed("timestamp-suffix") {
		opts.TimestampSuffix = timestamp
	}
	if flags.Changed("skip-existing") {
		opts.SkipExisting = skip
	}
	if flags.Changed("zip") {
		opts.ZipOutputs = zip
	}
	return nil
}

// persistLastUsed writes the run's options back as the configured defaults, the
// way the converter has always remembered its last-used settings. Failures are
// logged and ignored.
func persistLastUsed(ctx *commandContext, cfg *config.Config, opts batch.Options, logger *slog.Logger) {
	cfg.Conversion.Formats = make([]string, 0, len(opts.Formats))
	for _, format := range opts.Formats {
		cfg.Conversion.Formats = append(cfg.Conversion.Formats, string(format))
	}
	cfg.Conversion.ApplyScaling = opts.ApplyScaling
	cfg.Conversion.UseSubfolder = opts.UseSubfolder
	cfg.Conversion.TimestampSuffix = opts.TimestampSuffix
	cfg.Conversion.SkipExisting = opts.SkipExisting
	cfg.Conversion.ZipOutputs = opts.ZipOutputs
	cfg.Conversion.UserMessage = opts.UserMessage
	cfg.Paths.OutputDir = opts.OutputDir

	path := ctx.configPath
	if path == "" {
		return
	}
	if err := cfg.Save(path); err != nil {
		logger.Warn("could not persist settings", logging.Error(err))
	}
}

func printSummary(cmd *cobra.Command, summary *batch.Summary) {
	out := cmd.OutOrStdout()

	rows := [][]string{
		{"Converted", strconv.Itoa(summary.Converted)},
		{"Skipped", strconv.Itoa(summary.Skipped)},
		{"Failed", strconv.Itoa(summary.Failed)},
		{"Cancelled", strconv.Itoa(summary.Cancelled)},
		{"Outputs written", strconv.Itoa(len(summary.Produced))},
		{"Duration", summary.Duration.Round(time.Second).String()},
	}
	fmt.Fprintln(out, renderTable([]string{"Result", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))

	if summary.Archive != "" {
		fmt.Fprintf(out, "Bundle: %s\n", summary.Archive)
	}
	if summary.Stopped {
		fmt.Fprintln(out, "Batch stopped; remaining items are still queued")
	}
}

// progressSink renders batch progress: a progress bar on a terminal, plain
// lines otherwise.
type progressSink struct {
	out      *os.File
	plainOut func(format string, args ...any)
	bar      *progressbar.ProgressBar
}

func newProgressSink(out io.Writer) *progressSink {
	sink := &progressSink{}
	if file, ok := out.(*os.File); ok && isTerminal(file) {
		sink.out = file
	} else {
		sink.plainOut = func(format string, args ...any) {
			fmt.Fprintf(out, format, args...)
		}
	}
	return sink
}

func (p *progressSink) Handle(event batch.Event) {
	switch event.Type {
	case batch.EventBatchStarted:
		if p.out != nil {
			p.bar = progressbar.NewOptions(event.Total,
				progressbar.OptionSetWriter(p.out),
				progressbar.OptionSetDescription("converting"),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		} else {
			p.plainOut("Converting %d file(s)\n", event.Total)
		}
	case batch.EventItemStarted:
		if p.bar != nil {
			p.bar.Describe(filepath.Base(event.Source))
		}
	case batch.EventItemFinished:
		if p.bar != nil {
			_ = p.bar.Add(1)
		} else {
			line := fmt.Sprintf("[%d/%d] %s: %s", event.Index, event.Total,
				filepath.Base(event.Source), event.Status)
			if event.Status == queue.StatusError && event.Message != "" {
				line += " (" + event.Message + ")"
			}
			p.plainOut("%s\n", line)
		}
	case batch.EventBatchFinished:
		// finish() handles bar teardown so it also runs on error paths.
	}
}

func (p *progressSink) finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
		p.bar = nil
	}
}
