package fileutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"udfconv/internal/fileutil"
)

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")

	if err := os.WriteFile(src, []byte("conversion log contents"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	if err := fileutil.CopyFile(src, dst); err != nil {
		t.Fatalf("CopyFile: %v", err)
	}

	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read destination: %v", err)
	}
	if string(data) != "conversion log contents" {
		t.Fatalf("unexpected destination contents: %q", data)
	}
	if !fileutil.Exists(dst) {
		t.Fatal("expected destination to exist")
	}
}

func TestCopyFileMissingSource(t *testing.T) {
	dir := t.TempDir()
	if err := fileutil.CopyFile(filepath.Join(dir, "missing"), filepath.Join(dir, "out")); err == nil {
		t.Fatal("expected error for missing source")
	}
}
