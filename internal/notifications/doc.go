// Package notifications delivers batch lifecycle push notifications via ntfy.
//
// The service is optional: with no topic configured, NewService returns a noop
// implementation and callers notify unconditionally. Delivery failures are
// returned to the caller, which logs and continues; a dead notification
// channel never fails a conversion.
package notifications
