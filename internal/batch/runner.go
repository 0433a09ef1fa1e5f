package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"udfconv/internal/bundle"
	"udfconv/internal/config"
	"udfconv/internal/decoder"
	"udfconv/internal/logging"
	"udfconv/internal/notifications"
	"udfconv/internal/pathplan"
	"udfconv/internal/preflight"
	"udfconv/internal/queue"
	"udfconv/internal/runlock"
	"udfconv/internal/services"
	"udfconv/internal/tabular"
)

// FormatWriter persists one decoded item in one output format.
type FormatWriter func(path string, handle decoder.Handle) error

// Summary is the outcome of one batch run.
type Summary struct {
	RunID     string
	Stamp     string
	Total     int
	Converted int
	Skipped   int
	Failed    int
	Cancelled int
	// Produced lists output files written during this run, in write order.
	Produced []string
	// Archive is the bundle path when zip output was requested and at least
	// one file was produced.
	Archive  string
	Stopped  bool
	Duration time.Duration
}

// Completed returns the number of items that reached a terminal state other
// than cancelled.
func (s *Summary) Completed() int {
	return s.Converted + s.Skipped + s.Failed
}

// Runner executes batches against the queue.
type Runner struct {
	store     *queue.Store
	lock      *runlock.Lock
	decoder   decoder.Decoder
	notifier  notifications.Service
	sink      Sink
	confirmer preflight.Confirmer
	writers   map[tabular.Format]FormatWriter
	binary    string
	logger    *slog.Logger
}

// RunnerOption customizes a Runner.
type RunnerOption func(*Runner)

// WithDecoder replaces the external decoder tool. Used by tests.
func WithDecoder(d decoder.Decoder) RunnerOption {
	return func(r *Runner) { r.decoder = d }
}

// WithNotifier replaces the notification service.
func WithNotifier(n notifications.Service) RunnerOption {
	return func(r *Runner) { r.notifier = n }
}

// WithSink sets the progress event sink.
func WithSink(s Sink) RunnerOption {
	return func(r *Runner) { r.sink = s }
}

// WithConfirmer sets the overwrite confirmer. The default approves
// automatically; interactive callers supply a prompting implementation.
func WithConfirmer(c preflight.Confirmer) RunnerOption {
	return func(r *Runner) { r.confirmer = c }
}

// WithWriters replaces the per-format output writers. Used by tests.
func WithWriters(writers map[tabular.Format]FormatWriter) RunnerOption {
	return func(r *Runner) { r.writers = writers }
}

// NewRunner builds a batch runner over the queue store.
func NewRunner(cfg *config.Config, store *queue.Store, logger *slog.Logger, opts ...RunnerOption) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	runner := &Runner{
		store:     store,
		lock:      runlock.New(cfg.RunLockPath()),
		decoder:   decoder.NewTool(cfg.DecoderBinary(), cfg.Decoder.ExtraArgs, logger),
		notifier:  notifications.NewService(cfg),
		sink:      NopSink{},
		confirmer: preflight.AutoApprove{},
		writers:   defaultWriters(),
		binary:    cfg.DecoderBinary(),
		logger:    logger.With(logging.String(logging.FieldComponent, "batch")),
	}
	for _, opt := range opts {
		opt(runner)
	}
	return runner
}

func defaultWriters() map[tabular.Format]FormatWriter {
	return map[tabular.Format]FormatWriter{
		tabular.FormatParquet: func(path string, handle decoder.Handle) error {
			table, err := handle.Columnar()
			if err != nil {
				return err
			}
			return tabular.WriteParquet(path, table)
		},
		tabular.FormatCSV: func(path string, handle decoder.Handle) error {
			rows, err := handle.Rows()
			if err != nil {
				return err
			}
			return tabular.WriteCSV(path, rows)
		},
	}
}

// Run converts all queued items under the given options. The returned error is
// non-nil only for failures that abort the batch as a whole: a run already
// active, a failed pre-flight check, or a declined overwrite. Per-item
// failures land on the items and in the summary.
//
// Cancelling ctx stops the batch at the next item boundary: the current item
// finishes, the next queued item is marked cancelled, and the rest stay
// queued.
func (r *Runner) Run(ctx context.Context, opts Options) (*Summary, error) {
	release, err := r.lock.Acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	started := time.Now()
	runID := uuid.NewString()[:8]
	logger := r.logger.With(logging.String(logging.FieldRunID, runID))

	items, err := r.store.ItemsByStatus(ctx, queue.StatusQueued)
	if err != nil {
		return nil, err
	}

	if err := preflight.CheckBatch(preflight.Batch{
		Formats:       opts.Formats,
		QueuedItems:   len(items),
		OutputDir:     opts.OutputDir,
		DecoderBinary: r.binary,
	}); err != nil {
		return nil, err
	}

	// One stamp per run: every filename and the collision scan agree.
	runStamp := time.Now().Format(pathplan.StampLayout)
	suffixStamp := ""
	if opts.TimestampSuffix {
		suffixStamp = runStamp
	}

	baseDir := pathplan.BaseDir(opts.OutputDir, opts.UseSubfolder)
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "batch", "prepare output", baseDir, err)
	}

	if !opts.SkipExisting {
		if err := r.confirmCollisions(items, opts, suffixStamp); err != nil {
			return nil, err
		}
	}

	summary := &Summary{RunID: runID, Stamp: runStamp, Total: len(items)}
	logger.Info("batch started",
		logging.Int("items", summary.Total),
		logging.Any("formats", opts.Formats))
	if err := r.notifier.NotifyBatchStarted(ctx, summary.Total); err != nil {
		logger.Warn("batch start notification failed", logging.Error(err))
	}
	r.emit(Event{Type: EventBatchStarted, Total: summary.Total})

	for index, item := range items {
		if ctx.Err() != nil {
			r.cancelItem(ctx, logger, item)
			summary.Cancelled++
			summary.Stopped = true
			r.emit(Event{
				Type:    EventItemFinished,
				Index:   index + 1,
				Total:   summary.Total,
				ItemID:  item.ID,
				Source:  item.SourcePath,
				Status:  queue.StatusCancelled,
				Stopped: true,
			})
			break
		}

		r.emit(Event{
			Type:   EventItemStarted,
			Index:  index + 1,
			Total:  summary.Total,
			ItemID: item.ID,
			Source: item.SourcePath,
		})

		r.processItem(ctx, logger, item, opts, suffixStamp, summary)

		r.emit(Event{
			Type:    EventItemFinished,
			Index:   index + 1,
			Total:   summary.Total,
			ItemID:  item.ID,
			Source:  item.SourcePath,
			Status:  item.Status,
			Message: item.ErrorMessage,
		})
	}

	if opts.ZipOutputs && len(summary.Produced) > 0 {
		archive, err := bundle.Write(baseDir, runStamp, summary.Produced, logger)
		if err != nil {
			logger.Error("bundle failed", logging.Error(err))
			if notifyErr := r.notifier.NotifyError(context.WithoutCancel(ctx), err, "bundle"); notifyErr != nil {
				logger.Warn("error notification failed", logging.Error(notifyErr))
			}
		} else {
			summary.Archive = archive
		}
	}

	summary.Duration = time.Since(started)
	r.finish(ctx, logger, summary)
	return summary, nil
}

func (r *Runner) confirmCollisions(items []*queue.Item, opts Options, stamp string) error {
	sources := make([]string, len(items))
	for i, item := range items {
		sources[i] = item.SourcePath
	}
	collisions := preflight.FindCollisions(sources, opts.OutputDir, opts.UseSubfolder, stamp, opts.Formats)
	if len(collisions) == 0 {
		return nil
	}

	question := fmt.Sprintf("%d output file(s) already exist and will be overwritten. Continue?", len(collisions))
	ok, err := r.confirmer.Confirm(question)
	if err != nil {
		return services.Wrap(services.ErrCollisionDeclined, "batch", "confirm overwrite", "", err)
	}
	if !ok {
		return services.Wrap(services.ErrCollisionDeclined, "batch", "confirm overwrite",
			fmt.Sprintf("declined overwriting %d file(s)", len(collisions)), nil)
	}
	return nil
}

// processItem converts one item, recording the outcome on the item itself.
// Decode and write errors never propagate; they terminate the item as error.
// The item runs to completion even when the batch context is cancelled
// mid-flight; cancellation is honored at the next boundary.
func (r *Runner) processItem(ctx context.Context, logger *slog.Logger, item *queue.Item, opts Options, stamp string, summary *Summary) {
	ctx = context.WithoutCancel(ctx)
	itemLogger := logger.With(
		logging.Int64(logging.FieldItemID, item.ID),
		logging.String(logging.FieldSource, item.SourcePath),
	)

	planned := pathplan.Plan(pathplan.Request{
		SourcePath:   item.SourcePath,
		OutputDir:    opts.OutputDir,
		UseSubfolder: opts.UseSubfolder,
		Stamp:        stamp,
		Formats:      opts.Formats,
	})

	pending := make([]tabular.Format, 0, len(opts.Formats))
	for _, format := range opts.Formats {
		path := planned[format]
		if opts.SkipExisting && fileExists(path) {
			item.NoteFormat(string(format), queue.FormatExisting)
			continue
		}
		pending = append(pending, format)
	}

	if len(pending) == 0 {
		if err := item.Transition(queue.StatusSkipped); err != nil {
			itemLogger.Error("skip transition failed", logging.Error(err))
			return
		}
		if err := r.store.Update(ctx, item); err != nil {
			itemLogger.Error("persist skipped item failed", logging.Error(err))
		}
		summary.Skipped++
		itemLogger.Info("skipped item, all outputs exist")
		return
	}

	if err := item.Transition(queue.StatusRunning); err != nil {
		itemLogger.Error("run transition failed", logging.Error(err))
		return
	}
	if err := r.store.Update(ctx, item); err != nil {
		itemLogger.Error("persist running item failed", logging.Error(err))
	}

	handle, err := r.decoder.Open(ctx, item.SourcePath, opts.ApplyScaling)
	if err != nil {
		r.failItem(ctx, itemLogger, item, summary, err)
		return
	}
	defer func() {
		if closeErr := handle.Close(); closeErr != nil {
			itemLogger.Warn("close decoder handle failed", logging.Error(closeErr))
		}
	}()

	if opts.UserMessage != "" {
		handle.AttachMetadata("user_message", opts.UserMessage)
	}

	produced := make([]string, 0, len(pending))
	for _, format := range pending {
		writer, ok := r.writers[format]
		if !ok {
			r.failItem(ctx, itemLogger, item, summary,
				services.Wrap(services.ErrWrite, "batch", "writer", fmt.Sprintf("no writer for format %s", format), nil))
			return
		}
		path := planned[format]
		if err := writer(path, handle); err != nil {
			r.failItem(ctx, itemLogger, item, summary, err)
			return
		}
		item.Outputs = append(item.Outputs, path)
		item.NoteFormat(string(format), queue.FormatWritten)
		produced = append(produced, path)
		itemLogger.Info("wrote output",
			logging.String(logging.FieldFormat, string(format)),
			logging.String(logging.FieldOutput, path))
	}

	if err := item.Transition(queue.StatusDone); err != nil {
		itemLogger.Error("done transition failed", logging.Error(err))
		return
	}
	summary.Produced = append(summary.Produced, produced...)
	if err := r.store.Update(ctx, item); err != nil {
		itemLogger.Error("persist done item failed", logging.Error(err))
	}
	summary.Converted++
}

func (r *Runner) failItem(ctx context.Context, logger *slog.Logger, item *queue.Item, summary *Summary, cause error) {
	logger.Error("item failed", logging.Error(cause))
	if err := item.MarkError(cause.Error()); err != nil {
		logger.Error("error transition failed", logging.Error(err))
		return
	}
	if err := r.store.Update(ctx, item); err != nil {
		logger.Error("persist failed item", logging.Error(err))
	}
	summary.Failed++
}

func (r *Runner) cancelItem(ctx context.Context, logger *slog.Logger, item *queue.Item) {
	if err := item.Transition(queue.StatusCancelled); err != nil {
		logger.Error("cancel transition failed", logging.Error(err))
		return
	}
	if err := r.store.Update(context.WithoutCancel(ctx), item); err != nil {
		logger.Error("persist cancelled item failed", logging.Error(err))
	}
	logger.Info("batch stopped at item boundary", logging.Int64(logging.FieldItemID, item.ID))
}

func (r *Runner) finish(ctx context.Context, logger *slog.Logger, summary *Summary) {
	ctx = context.WithoutCancel(ctx)
	logger.Info("batch finished",
		logging.Int("converted", summary.Converted),
		logging.Int("skipped", summary.Skipped),
		logging.Int("failed", summary.Failed),
		logging.Int("cancelled", summary.Cancelled),
		logging.Bool("stopped", summary.Stopped),
		logging.Duration("duration", summary.Duration))

	var err error
	if summary.Stopped {
		err = r.notifier.NotifyBatchStopped(ctx, summary.Completed(), summary.Total)
	} else {
		err = r.notifier.NotifyBatchCompleted(ctx, summary.Converted, summary.Skipped, summary.Failed, summary.Duration)
	}
	if err != nil {
		logger.Warn("batch finish notification failed", logging.Error(err))
	}

	r.emit(Event{Type: EventBatchFinished, Total: summary.Total, Stopped: summary.Stopped})
}

func (r *Runner) emit(event Event) {
	if r.sink == nil {
		return
	}
	r.sink.Handle(event)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
