package tabular

import (
	"fmt"
	"os"
	"sort"

	"github.com/parquet-go/parquet-go"

	"udfconv/internal/services"
)

// WriteParquet persists the columnar view as a Parquet file. Table metadata is
// embedded as file-level key/value pairs. The file is removed on failure so a
// partial write never survives.
func WriteParquet(path string, table *Table) error {
	if err := table.Validate(); err != nil {
		return services.Wrap(services.ErrWrite, "tabular", "parquet", "invalid table", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return services.Wrap(services.ErrWrite, "tabular", "parquet", "create output", err)
	}

	writeErr := func() error {
		schema := parquetSchema(table)

		options := []parquet.WriterOption{schema}
		keys := make([]string, 0, len(table.Meta))
		for key := range table.Meta {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			options = append(options, parquet.KeyValueMetadata(key, table.Meta[key]))
		}

		writer := parquet.NewGenericWriter[map[string]any](file, options...)
		row := make(map[string]any, len(table.Columns))
		for i := 0; i < table.NumRows(); i++ {
			for _, col := range table.Columns {
				row[col.Name] = col.Value(i)
			}
			if _, err := writer.Write([]map[string]any{row}); err != nil {
				return fmt.Errorf("write row %d: %w", i, err)
			}
		}
		if err := writer.Close(); err != nil {
			return fmt.Errorf("close writer: %w", err)
		}
		return file.Close()
	}()

	if writeErr != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return services.Wrap(services.ErrWrite, "tabular", "parquet", "write output", writeErr)
	}
	return nil
}

func parquetSchema(table *Table) *parquet.Schema {
	group := parquet.Group{}
	for _, col := range table.Columns {
		switch col.Kind {
		case KindFloat:
			group[col.Name] = parquet.Leaf(parquet.DoubleType)
		case KindInt:
			group[col.Name] = parquet.Leaf(parquet.Int64Type)
		case KindString:
			group[col.Name] = parquet.String()
		}
	}
	name := table.Name
	if name == "" {
		name = "udf"
	}
	return parquet.NewSchema(name, group)
}
