// Package bundle collects a batch's produced outputs into a zip archive.
package bundle

import (
	"archive/zip"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"udfconv/internal/logging"
	"udfconv/internal/services"
)

// ArchiveName returns the archive filename for a batch stamp.
func ArchiveName(stamp string) string {
	return fmt.Sprintf("udf_exports_%s.zip", stamp)
}

// Write creates a flat zip archive of files in dir, named after the batch
// stamp. Entries keep their basenames; when two files share one, later entries
// get a numeric suffix before the extension. A file that cannot be read is
// logged and skipped rather than failing the archive. Returns the archive path.
func Write(dir, stamp string, files []string, logger *slog.Logger) (string, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.With(logging.String(logging.FieldComponent, "bundle"))

	archivePath := filepath.Join(dir, ArchiveName(stamp))
	out, err := os.Create(archivePath)
	if err != nil {
		return "", services.Wrap(services.ErrWrite, "bundle", "create archive", archivePath, err)
	}

	writer := zip.NewWriter(out)
	names := make(map[string]int, len(files))
	added := 0

	for _, file := range files {
		if err := addEntry(writer, file, names); err != nil {
			logger.Warn("skipping file in archive",
				logging.String(logging.FieldSource, file),
				logging.Error(err))
			continue
		}
		added++
	}

	if err := writer.Close(); err != nil {
		_ = out.Close()
		_ = os.Remove(archivePath)
		return "", services.Wrap(services.ErrWrite, "bundle", "finalize archive", archivePath, err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(archivePath)
		return "", services.Wrap(services.ErrWrite, "bundle", "close archive", archivePath, err)
	}

	logger.Info("wrote output bundle",
		logging.String(logging.FieldOutput, archivePath),
		logging.Int("entries", added))
	return archivePath, nil
}

func addEntry(writer *zip.Writer, file string, names map[string]int) error {
	in, err := os.Open(file)
	if err != nil {
		return err
	}
	defer in.Close()

	name := entryName(filepath.Base(file), names)
	entry, err := writer.Create(name)
	if err != nil {
		return err
	}
	_, err = io.Copy(entry, in)
	return err
}

// entryName disambiguates repeated basenames: the second "run.parquet" becomes
// "run_2.parquet".
func entryName(base string, names map[string]int) string {
	names[base]++
	if names[base] == 1 {
		return base
	}
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return fmt.Sprintf("%s_%d%s", stem, names[base], ext)
}
