package tabular

import (
	"encoding/csv"
	"fmt"
	"os"

	"udfconv/internal/services"
)

// WriteCSV persists the row view as a comma-delimited text file with a header
// row. The file is removed on failure so a partial write never survives.
func WriteCSV(path string, rows *RowSet) error {
	file, err := os.Create(path)
	if err != nil {
		return services.Wrap(services.ErrWrite, "tabular", "csv", "create output", err)
	}

	writer := csv.NewWriter(file)
	writeErr := func() error {
		if err := writer.Write(rows.Header()); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		for i := 0; i < rows.Len(); i++ {
			if err := writer.Write(rows.Row(i)); err != nil {
				return fmt.Errorf("write row %d: %w", i, err)
			}
		}
		writer.Flush()
		if err := writer.Error(); err != nil {
			return fmt.Errorf("flush: %w", err)
		}
		return file.Close()
	}()

	if writeErr != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return services.Wrap(services.ErrWrite, "tabular", "csv", "write output", writeErr)
	}
	return nil
}
