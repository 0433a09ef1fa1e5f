package decoder

import (
	"context"

	"udfconv/internal/tabular"
)

// Decoder opens measurement files for conversion.
type Decoder interface {
	// Open decodes the file at path, applying channel scaling when scaling is
	// set. The returned handle must be closed on every exit path.
	Open(ctx context.Context, path string, scaling bool) (Handle, error)
}

// Handle is one decoded measurement file. Both table views reflect the same
// underlying decoded data; metadata attached before a view is taken is
// included in formats that can carry it.
type Handle interface {
	// AttachMetadata records a user-supplied annotation on the decoded data.
	AttachMetadata(key, value string)
	// Columnar returns the column-major view for the columnar writer.
	Columnar() (*tabular.Table, error)
	// Rows returns the row-major view for the delimited-text writer.
	Rows() (*tabular.RowSet, error)
	// Close releases the decoded dataset.
	Close() error
}
