package bundle

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func archiveNames(t *testing.T, path string) []string {
	t.Helper()
	reader, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer reader.Close()

	var names []string
	for _, entry := range reader.File {
		names = append(names, entry.Name)
	}
	return names
}

func TestWriteBundlesFilesFlat(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeFile(t, filepath.Join(dir, "sub", "run.parquet"), "p"),
		writeFile(t, filepath.Join(dir, "sub", "run.csv"), "c"),
	}

	archive, err := Write(dir, "20260825_120000", files, nil)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if filepath.Base(archive) != "udf_exports_20260825_120000.zip" {
		t.Errorf("archive name = %s", filepath.Base(archive))
	}

	names := archiveNames(t, archive)
	if len(names) != 2 || names[0] != "run.parquet" || names[1] != "run.csv" {
		t.Errorf("entries = %v", names)
	}
}

func TestWriteRenamesDuplicateBasenames(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeFile(t, filepath.Join(dir, "a", "run.parquet"), "one"),
		writeFile(t, filepath.Join(dir, "b", "run.parquet"), "two"),
	}

	archive, err := Write(dir, "20260825_120000", files, nil)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	names := archiveNames(t, archive)
	if len(names) != 2 || names[0] != "run.parquet" || names[1] != "run_2.parquet" {
		t.Errorf("entries = %v", names)
	}
}

func TestWriteSkipsUnreadableFiles(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeFile(t, filepath.Join(dir, "good.csv"), "data"),
		filepath.Join(dir, "missing.csv"),
	}

	archive, err := Write(dir, "20260825_120000", files, nil)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	names := archiveNames(t, archive)
	if len(names) != 1 || names[0] != "good.csv" {
		t.Errorf("entries = %v", names)
	}
}
