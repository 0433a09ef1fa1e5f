// Package queue persists conversion items in SQLite and owns their lifecycle.
//
// The Store deduplicates items by canonical source path, preserves insertion
// order (which is also processing order), and enforces the status state
// machine: queued -> running -> done|error, with queued -> skipped|cancelled
// at item boundaries. Terminal statuses are final for a run; requeue is the
// only way back to queued and is rejected while a batch is active, as are
// remove and clear.
//
// The database is transient working state, not an archive. Schema changes bump
// the version in schema.go; users clear the database to adopt a new schema.
package queue
