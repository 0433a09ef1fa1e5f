// Package testsupport provides helpers shared by package tests.
package testsupport

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"udfconv/internal/config"
	"udfconv/internal/decoder"
	"udfconv/internal/queue"
	"udfconv/internal/tabular"
)

// NewConfig returns a validated configuration rooted in temporary directories.
// The decoder binary is set to "sh" so dependency checks pass without the real
// tool installed.
func NewConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := config.Default()
	base := t.TempDir()
	cfg.Paths.OutputDir = filepath.Join(base, "out")
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Conversion.Formats = []string{"parquet", "csv"}
	cfg.Decoder.Binary = "sh"

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	// The output directory is never created implicitly by the tool, so tests
	// provision it themselves.
	if err := os.MkdirAll(cfg.Paths.OutputDir, 0o755); err != nil {
		t.Fatalf("create output dir: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return &cfg
}

// MustOpenStore opens a queue store for cfg and registers cleanup.
func MustOpenStore(t *testing.T, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("open queue store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// FakeDecoder implements the decoder contract in memory for runner tests.
type FakeDecoder struct {
	mu        sync.Mutex
	OpenCalls []string
	// FailFor maps source paths to an error returned from Open.
	FailFor map[string]error
	// OnOpen, when set, runs before each successful Open. Tests use it to
	// cancel contexts or flip state mid-batch.
	OnOpen func(path string)

	openHandles int
}

func (f *FakeDecoder) Open(_ context.Context, path string, _ bool) (decoder.Handle, error) {
	f.mu.Lock()
	f.OpenCalls = append(f.OpenCalls, path)
	failErr := f.FailFor[path]
	f.mu.Unlock()

	if failErr != nil {
		return nil, failErr
	}
	if f.OnOpen != nil {
		f.OnOpen(path)
	}

	f.mu.Lock()
	f.openHandles++
	f.mu.Unlock()
	return &fakeHandle{owner: f, table: &tabular.Table{
		Name: path,
		Columns: []tabular.Column{
			{Name: "time", Kind: tabular.KindFloat, Floats: []float64{0, 0.5, 1}},
			{Name: "value", Kind: tabular.KindFloat, Floats: []float64{1.5, 2.5, 3.5}},
		},
	}}, nil
}

// OpenHandleCount returns the number of handles opened but not yet closed.
func (f *FakeDecoder) OpenHandleCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.openHandles
}

// Calls returns a copy of the source paths passed to Open so far.
func (f *FakeDecoder) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.OpenCalls...)
}

type fakeHandle struct {
	owner *FakeDecoder
	table *tabular.Table
}

func (h *fakeHandle) AttachMetadata(key, value string) {
	if h.table.Meta == nil {
		h.table.Meta = make(map[string]string)
	}
	h.table.Meta[key] = value
}

func (h *fakeHandle) Columnar() (*tabular.Table, error) {
	return h.table, nil
}

func (h *fakeHandle) Rows() (*tabular.RowSet, error) {
	return tabular.NewRowSet(h.table), nil
}

func (h *fakeHandle) Close() error {
	h.owner.mu.Lock()
	h.owner.openHandles--
	h.owner.mu.Unlock()
	return nil
}
