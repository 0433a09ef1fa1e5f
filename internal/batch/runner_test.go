package batch_test

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"udfconv/internal/batch"
	"udfconv/internal/config"
	"udfconv/internal/decoder"
	"udfconv/internal/pathplan"
	"udfconv/internal/queue"
	"udfconv/internal/runlock"
	"udfconv/internal/services"
	"udfconv/internal/tabular"
	"udfconv/internal/testsupport"
)

type notifyLog struct {
	started   int
	completed int
	stopped   int
	errors    int
}

func (n *notifyLog) NotifyBatchStarted(context.Context, int) error { n.started++; return nil }
func (n *notifyLog) NotifyBatchCompleted(context.Context, int, int, int, time.Duration) error {
	n.completed++
	return nil
}
func (n *notifyLog) NotifyBatchStopped(context.Context, int, int) error { n.stopped++; return nil }
func (n *notifyLog) NotifyError(context.Context, error, string) error   { n.errors++; return nil }
func (n *notifyLog) TestNotification(context.Context) error             { return nil }

func stubWriters() map[tabular.Format]batch.FormatWriter {
	write := func(path string, handle decoder.Handle) error {
		if _, err := handle.Columnar(); err != nil {
			return err
		}
		return os.WriteFile(path, []byte("output"), 0o644)
	}
	return map[tabular.Format]batch.FormatWriter{
		tabular.FormatParquet: write,
		tabular.FormatCSV:     write,
	}
}

func enqueueSources(t *testing.T, store *queue.Store, names ...string) []*queue.Item {
	t.Helper()
	dir := t.TempDir()
	items := make([]*queue.Item, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("measurement"), 0o644); err != nil {
			t.Fatal(err)
		}
		item, added, err := store.Enqueue(context.Background(), path)
		if err != nil || !added {
			t.Fatalf("enqueue %s: added=%v err=%v", name, added, err)
		}
		items = append(items, item)
	}
	return items
}

func newTestRunner(t *testing.T, cfg *config.Config, store *queue.Store, fake *testsupport.FakeDecoder, extra ...batch.RunnerOption) (*batch.Runner, *notifyLog) {
	t.Helper()
	notifier := &notifyLog{}
	opts := []batch.RunnerOption{
		batch.WithDecoder(fake),
		batch.WithNotifier(notifier),
		batch.WithWriters(stubWriters()),
	}
	opts = append(opts, extra...)
	return batch.NewRunner(cfg, store, nil, opts...), notifier
}

func TestRunConvertsQueueInOrder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	enqueueSources(t, store, "a.udf", "b.udf", "c.udf")

	fake := &testsupport.FakeDecoder{}
	runner, notifier := newTestRunner(t, cfg, store, fake)

	opts, err := batch.OptionsFromConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	opts.ZipOutputs = true

	summary, err := runner.Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.Converted != 3 || summary.Failed != 0 || summary.Stopped {
		t.Errorf("summary = %+v", summary)
	}
	if len(summary.Produced) != 6 {
		t.Errorf("produced %d outputs, want 6", len(summary.Produced))
	}
	if fake.OpenHandleCount() != 0 {
		t.Errorf("%d decoder handles left open", fake.OpenHandleCount())
	}

	calls := fake.Calls()
	if len(calls) != 3 || filepath.Base(calls[0]) != "a.udf" || filepath.Base(calls[2]) != "c.udf" {
		t.Errorf("decode order = %v", calls)
	}

	if summary.Archive == "" {
		t.Fatal("expected bundle archive")
	}
	reader, err := zip.OpenReader(summary.Archive)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer reader.Close()
	if len(reader.File) != 6 {
		t.Errorf("archive has %d entries, want 6", len(reader.File))
	}

	if notifier.started != 1 || notifier.completed != 1 || notifier.stopped != 0 {
		t.Errorf("notifications = %+v", notifier)
	}

	items, err := store.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	for _, item := range items {
		if item.Status != queue.StatusDone {
			t.Errorf("item %d status = %s, want done", item.ID, item.Status)
		}
		if item.FormatNotes["parquet"] != queue.FormatWritten || item.FormatNotes["csv"] != queue.FormatWritten {
			t.Errorf("item %d format notes = %v", item.ID, item.FormatNotes)
		}
	}
}

func TestRunIsolatesItemFailures(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	items := enqueueSources(t, store, "ok1.udf", "bad.udf", "ok2.udf")

	fake := &testsupport.FakeDecoder{
		FailFor: map[string]error{
			items[1].SourcePath: services.Wrap(services.ErrDecode, "decoder", "run", "corrupt header", nil),
		},
	}
	runner, _ := newTestRunner(t, cfg, store, fake)

	opts, err := batch.OptionsFromConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}

	summary, err := runner.Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Converted != 2 || summary.Failed != 1 {
		t.Errorf("summary = %+v", summary)
	}

	failed, err := store.GetByID(context.Background(), items[1].ID)
	if err != nil {
		t.Fatal(err)
	}
	if failed.Status != queue.StatusError || failed.ErrorMessage == "" {
		t.Errorf("failed item = %+v", failed)
	}
	last, err := store.GetByID(context.Background(), items[2].ID)
	if err != nil {
		t.Fatal(err)
	}
	if last.Status != queue.StatusDone {
		t.Errorf("item after failure should still convert, got %s", last.Status)
	}
}

func TestRunStopsAtItemBoundary(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	items := enqueueSources(t, store, "one.udf", "two.udf", "three.udf")

	ctx, cancel := context.WithCancel(context.Background())
	fake := &testsupport.FakeDecoder{}
	fake.OnOpen = func(path string) {
		if path == items[0].SourcePath {
			cancel()
		}
	}
	runner, notifier := newTestRunner(t, cfg, store, fake)

	opts, err := batch.OptionsFromConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}

	summary, err := runner.Run(ctx, opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !summary.Stopped || summary.Converted != 1 || summary.Cancelled != 1 {
		t.Errorf("summary = %+v", summary)
	}
	if notifier.stopped != 1 || notifier.completed != 0 {
		t.Errorf("notifications = %+v", notifier)
	}

	first, _ := store.GetByID(context.Background(), items[0].ID)
	second, _ := store.GetByID(context.Background(), items[1].ID)
	third, _ := store.GetByID(context.Background(), items[2].ID)
	if first.Status != queue.StatusDone {
		t.Errorf("in-flight item should complete, got %s", first.Status)
	}
	if second.Status != queue.StatusCancelled {
		t.Errorf("next item should be cancelled, got %s", second.Status)
	}
	if third.Status != queue.StatusQueued {
		t.Errorf("remaining item should stay queued, got %s", third.Status)
	}
}

func TestRunSkipsExistingWithoutDecoding(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	items := enqueueSources(t, store, "done.udf")

	opts, err := batch.OptionsFromConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	opts.SkipExisting = true

	planned := pathplan.Plan(pathplan.Request{
		SourcePath: items[0].SourcePath,
		OutputDir:  opts.OutputDir,
		Formats:    opts.Formats,
	})
	for _, path := range planned {
		if err := os.WriteFile(path, []byte("existing"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	fake := &testsupport.FakeDecoder{}
	runner, _ := newTestRunner(t, cfg, store, fake)

	summary, err := runner.Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Skipped != 1 || summary.Converted != 0 {
		t.Errorf("summary = %+v", summary)
	}
	if len(fake.Calls()) != 0 {
		t.Errorf("decoder invoked for fully skipped item: %v", fake.Calls())
	}

	item, err := store.GetByID(context.Background(), items[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if item.Status != queue.StatusSkipped {
		t.Errorf("status = %s, want skipped", item.Status)
	}
	if item.FormatNotes["parquet"] != queue.FormatExisting || item.FormatNotes["csv"] != queue.FormatExisting {
		t.Errorf("format notes = %v", item.FormatNotes)
	}
}

func TestRunDeclinedOverwriteAbortsBeforeItems(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	items := enqueueSources(t, store, "clash.udf")

	opts, err := batch.OptionsFromConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	opts.SkipExisting = false

	planned := pathplan.Plan(pathplan.Request{
		SourcePath: items[0].SourcePath,
		OutputDir:  opts.OutputDir,
		Formats:    opts.Formats,
	})
	if err := os.WriteFile(planned[tabular.FormatParquet], []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	fake := &testsupport.FakeDecoder{}
	decline := declineConfirmer{}
	runner, _ := newTestRunner(t, cfg, store, fake, batch.WithConfirmer(decline))

	_, err = runner.Run(context.Background(), opts)
	if err == nil {
		t.Fatal("expected declined overwrite to abort the batch")
	}
	if !errors.Is(err, services.ErrCollisionDeclined) {
		t.Errorf("error = %v, want collision declined", err)
	}

	item, err := store.GetByID(context.Background(), items[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if item.Status != queue.StatusQueued {
		t.Errorf("aborted batch changed item state to %s", item.Status)
	}
	if len(fake.Calls()) != 0 {
		t.Errorf("decoder invoked despite aborted batch: %v", fake.Calls())
	}
}

type declineConfirmer struct{}

func (declineConfirmer) Confirm(string) (bool, error) { return false, nil }

func TestRunRejectsConcurrentRun(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	enqueueSources(t, store, "held.udf")

	release, err := runlock.New(cfg.RunLockPath()).Acquire()
	if err != nil {
		t.Fatal(err)
	}
	defer release()

	runner, _ := newTestRunner(t, cfg, store, &testsupport.FakeDecoder{})
	opts, err := batch.OptionsFromConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := runner.Run(context.Background(), opts); !errors.Is(err, runlock.ErrActive) {
		t.Errorf("Run with held lock = %v, want ErrActive", err)
	}
}

func TestRunEmptyQueueFailsPreflight(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	runner, _ := newTestRunner(t, cfg, store, &testsupport.FakeDecoder{})
	opts, err := batch.OptionsFromConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}

	_, err = runner.Run(context.Background(), opts)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Errorf("empty queue error = %v, want configuration error", err)
	}
}
