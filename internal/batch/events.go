package batch

import "udfconv/internal/queue"

// EventType identifies a progress event emitted during a batch.
type EventType string

const (
	EventBatchStarted  EventType = "batch_started"
	EventItemStarted   EventType = "item_started"
	EventItemFinished  EventType = "item_finished"
	EventBatchFinished EventType = "batch_finished"
)

// Event is one progress notification. Index is 1-based within the batch.
type Event struct {
	Type   EventType
	Index  int
	Total  int
	ItemID int64
	Source string
	Status queue.Status
	// Message carries the error text for failed items and the stop reason for
	// a halted batch.
	Message string
	Stopped bool
}

// Sink receives progress events. Emission is synchronous; sinks must not
// block.
type Sink interface {
	Handle(Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event)

// Handle calls the wrapped function.
func (f SinkFunc) Handle(event Event) { f(event) }

// NopSink discards all events.
type NopSink struct{}

// Handle discards the event.
func (NopSink) Handle(Event) {}
