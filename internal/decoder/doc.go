// Package decoder wraps the external UDF decoder tool behind a scoped handle.
//
// The proprietary container layout is the tool's business, not ours: Open runs
// the decoder binary, which emits the decoded channels as a JSON document on
// stdout. The returned Handle exposes the columnar and row views of that one
// decoded dataset (both reflect the same data) plus optional user metadata
// attached before the views are taken. Callers must Close the handle on every
// exit path; the batch runner does so with defer.
//
// Decode failures are tagged services.ErrDecode so the batch runner can record
// them on the item without aborting the batch.
package decoder
