package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingDependency marks a required external capability that is
	// unavailable (decoder tool not installed). Detected before a batch starts.
	ErrMissingDependency = errors.New("missing dependency")
	// ErrConfiguration marks an invalid batch setup: no queued files, no
	// formats, or a bad output directory. Detected before a batch starts.
	ErrConfiguration = errors.New("configuration error")
	// ErrCollisionDeclined marks a batch aborted because the user declined to
	// overwrite existing outputs.
	ErrCollisionDeclined = errors.New("overwrite declined")
	// ErrDecode marks a decoder failure for a single item.
	ErrDecode = errors.New("decode error")
	// ErrWrite marks an output write failure for a single item.
	ErrWrite = errors.New("write error")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrWrite
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsItemError reports whether err is scoped to a single queue item. Item
// errors are recorded on the item and the batch continues; everything else
// escalates.
func IsItemError(err error) bool {
	return errors.Is(err, ErrDecode) || errors.Is(err, ErrWrite)
}

// IsPreflightError reports whether err should abort a batch before any item is
// touched.
func IsPreflightError(err error) bool {
	return errors.Is(err, ErrMissingDependency) ||
		errors.Is(err, ErrConfiguration) ||
		errors.Is(err, ErrCollisionDeclined)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
