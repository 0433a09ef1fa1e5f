package tabular

import (
	"fmt"
	"strings"
)

// Format identifies an output file format.
type Format string

const (
	FormatParquet Format = "parquet"
	FormatCSV     Format = "csv"
)

// AllFormats returns the supported formats in canonical order.
func AllFormats() []Format {
	return []Format{FormatParquet, FormatCSV}
}

// Ext returns the canonical file extension for the format, including the dot.
func (f Format) Ext() string {
	switch f {
	case FormatParquet:
		return ".parquet"
	case FormatCSV:
		return ".csv"
	default:
		return ""
	}
}

// Valid reports whether the format is one of the supported encodings.
func (f Format) Valid() bool {
	return f == FormatParquet || f == FormatCSV
}

// ParseFormat converts a string into a known Format.
func ParseFormat(value string) (Format, error) {
	format := Format(strings.ToLower(strings.TrimSpace(value)))
	if !format.Valid() {
		return "", fmt.Errorf("unknown output format %q", value)
	}
	return format, nil
}

// ParseFormats converts a list of names into Formats, deduplicating while
// preserving first-seen order.
func ParseFormats(values []string) ([]Format, error) {
	seen := make(map[Format]struct{}, len(values))
	formats := make([]Format, 0, len(values))
	for _, value := range values {
		format, err := ParseFormat(value)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[format]; ok {
			continue
		}
		seen[format] = struct{}{}
		formats = append(formats, format)
	}
	return formats, nil
}
