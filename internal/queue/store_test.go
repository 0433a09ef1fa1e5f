package queue_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"udfconv/internal/queue"
	"udfconv/internal/runlock"
	"udfconv/internal/testsupport"
)

func writeSource(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("measurement"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestEnqueueDeduplicatesAndPreservesOrder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	dir := t.TempDir()
	first := writeSource(t, dir, "first.udf")
	second := writeSource(t, dir, "second.bin")

	item1, added, err := store.Enqueue(ctx, first)
	if err != nil || !added {
		t.Fatalf("enqueue first: added=%v err=%v", added, err)
	}
	if item1.Status != queue.StatusQueued {
		t.Errorf("new item status = %s, want queued", item1.Status)
	}

	if _, added, err := store.Enqueue(ctx, second); err != nil || !added {
		t.Fatalf("enqueue second: added=%v err=%v", added, err)
	}

	dup, added, err := store.Enqueue(ctx, first)
	if err != nil {
		t.Fatalf("enqueue duplicate: %v", err)
	}
	if added {
		t.Error("duplicate enqueue reported as added")
	}
	if dup == nil || dup.ID != item1.ID {
		t.Errorf("duplicate enqueue returned wrong item: %+v", dup)
	}

	items, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(items))
	}
	if items[0].SourcePath != item1.SourcePath || filepath.Base(items[1].SourcePath) != "second.bin" {
		t.Errorf("items out of insertion order: %q, %q", items[0].SourcePath, items[1].SourcePath)
	}
}

func TestEnqueueMissingFileIsNoOp(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	item, added, err := store.Enqueue(ctx, filepath.Join(t.TempDir(), "ghost.udf"))
	if err != nil {
		t.Fatalf("enqueue missing: %v", err)
	}
	if added || item != nil {
		t.Errorf("missing file should not enqueue: added=%v item=%+v", added, item)
	}

	items, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("queue should be empty, has %d items", len(items))
	}
}

func TestUpdatePersistsResults(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	src := writeSource(t, t.TempDir(), "run.udf")
	item, _, err := store.Enqueue(ctx, src)
	if err != nil {
		t.Fatal(err)
	}

	if err := item.Transition(queue.StatusRunning); err != nil {
		t.Fatalf("queued -> running: %v", err)
	}
	item.Outputs = []string{"/out/run.parquet"}
	item.NoteFormat("parquet", queue.FormatWritten)
	item.NoteFormat("csv", queue.FormatExisting)
	if err := item.Transition(queue.StatusDone); err != nil {
		t.Fatalf("running -> done: %v", err)
	}
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != queue.StatusDone {
		t.Errorf("status = %s, want done", got.Status)
	}
	if len(got.Outputs) != 1 || got.Outputs[0] != "/out/run.parquet" {
		t.Errorf("outputs = %v", got.Outputs)
	}
	if got.FormatNotes["parquet"] != queue.FormatWritten || got.FormatNotes["csv"] != queue.FormatExisting {
		t.Errorf("format notes = %v", got.FormatNotes)
	}
}

func TestMutationsRejectedWhileRunActive(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	src := writeSource(t, t.TempDir(), "busy.udf")
	item, _, err := store.Enqueue(ctx, src)
	if err != nil {
		t.Fatal(err)
	}
	if err := item.Transition(queue.StatusRunning); err != nil {
		t.Fatal(err)
	}
	if err := item.MarkError("decoder exploded"); err != nil {
		t.Fatal(err)
	}
	if err := store.Update(ctx, item); err != nil {
		t.Fatal(err)
	}

	release, err := runlock.New(cfg.RunLockPath()).Acquire()
	if err != nil {
		t.Fatalf("acquire run lock: %v", err)
	}

	if removed, err := store.Remove(ctx, item.ID); err != nil || removed {
		t.Errorf("remove during run: removed=%v err=%v", removed, err)
	}
	if cleared, err := store.Clear(ctx); err != nil || cleared != 0 {
		t.Errorf("clear during run: cleared=%d err=%v", cleared, err)
	}
	if requeued, err := store.Requeue(ctx); err != nil || requeued != 0 {
		t.Errorf("requeue during run: requeued=%d err=%v", requeued, err)
	}

	release()

	requeued, err := store.Requeue(ctx)
	if err != nil {
		t.Fatalf("requeue after release: %v", err)
	}
	if requeued != 1 {
		t.Errorf("requeued = %d, want 1", requeued)
	}
	got, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != queue.StatusQueued || got.ErrorMessage != "" {
		t.Errorf("requeued item not reset: status=%s err=%q", got.Status, got.ErrorMessage)
	}
}

func TestRequeueSelectedIDs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	dir := t.TempDir()
	var ids []int64
	for _, name := range []string{"a.udf", "b.udf", "c.udf"} {
		item, _, err := store.Enqueue(ctx, writeSource(t, dir, name))
		if err != nil {
			t.Fatal(err)
		}
		if err := item.Transition(queue.StatusRunning); err != nil {
			t.Fatal(err)
		}
		if err := item.MarkError("boom"); err != nil {
			t.Fatal(err)
		}
		if err := store.Update(ctx, item); err != nil {
			t.Fatal(err)
		}
		ids = append(ids, item.ID)
	}

	requeued, err := store.Requeue(ctx, ids[0], ids[2])
	if err != nil {
		t.Fatalf("requeue selected: %v", err)
	}
	if requeued != 2 {
		t.Errorf("requeued = %d, want 2", requeued)
	}

	middle, err := store.GetByID(ctx, ids[1])
	if err != nil {
		t.Fatal(err)
	}
	if middle.Status != queue.StatusError {
		t.Errorf("unselected item changed status: %s", middle.Status)
	}
}

func TestStats(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	dir := t.TempDir()
	for _, name := range []string{"one.udf", "two.udf"} {
		if _, _, err := store.Enqueue(ctx, writeSource(t, dir, name)); err != nil {
			t.Fatal(err)
		}
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats[queue.StatusQueued] != 2 {
		t.Errorf("queued count = %d, want 2", stats[queue.StatusQueued])
	}
}
