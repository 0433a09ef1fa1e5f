// Package tabular holds the decoded measurement data model and the output
// format writers.
//
// A Table is column-major: one typed Column per recorded channel, all of equal
// length, plus string key/value metadata. A RowSet is the row-major string view
// of the same data used by the delimited-text writer. The two writers persist a
// table as Parquet (columnar, metadata embedded as key/value pairs) or CSV
// (header row plus data rows). The byte-level encodings belong to the
// underlying format libraries, not to this package.
package tabular
