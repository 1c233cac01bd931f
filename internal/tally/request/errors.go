// Package request – validation errors
//
// This file defines the error type returned for malformed caller input.
// Validation failures are rejected before any network activity; handlers
// map them to HTTP 400 responses.
package request

import "fmt"

// ValidationError reports a malformed query parameter.
type ValidationError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
