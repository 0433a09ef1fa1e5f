package logging

// Standard structured log field keys. Keep these stable; the log file is the
// record users attach to bug reports.
const (
	FieldComponent = "component"
	FieldEventType = "event_type"
	FieldRunID     = "run_id"
	FieldItemID    = "item_id"
	FieldSource    = "source_file"
	FieldOutput    = "output_file"
	FieldFormat    = "format"
	FieldErrorHint = "error_hint"
)
