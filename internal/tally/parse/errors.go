// Package parse – parse errors
//
// ParseError is raised only when a response is not XML at all. Missing
// individual fields never error; they degrade to defaults.
package parse

import "fmt"

// ParseError wraps a document-level XML decoding failure.
type ParseError struct {
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("response is not parseable XML: %v (the Tally server may have returned an HTML error page or truncated output)", e.Err)
}

// Unwrap exposes the underlying decoder error.
func (e *ParseError) Unwrap() error { return e.Err }
