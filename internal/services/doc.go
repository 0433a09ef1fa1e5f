// Package services defines the error taxonomy shared by the conversion
// pipeline and its collaborators.
//
// Errors are tagged with sentinel markers (missing dependency, configuration,
// collision declined, decode, write) so callers can classify failures with
// errors.Is without string matching. Decode and write errors are item-scoped:
// they mark one queue item as failed and never abort the batch.
package services
