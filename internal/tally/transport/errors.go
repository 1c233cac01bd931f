// Package transport – upstream failure classification
//
// Tally's dominant failure modes are operational (server down, wrong port,
// misconfigured company name, very slow exports), so every transport error
// carries a human-readable message with plausible causes. The types here
// form the taxonomy callers branch on with errors.As:
//
//   - *NetworkError: connection-level failure, upstream never answered
//   - *TimeoutError: the bounded wait elapsed
//   - *HTTPError:    non-2xx status from the upstream
//   - *AppError:     HTTP 200 whose body encodes a semantic failure, e.g.
//     the requested company context could not be established
package transport

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ErrClientClosed is returned by Send after Close has been called.
var ErrClientClosed = errors.New("tally client is closed")

// ErrNotConfigured indicates no upstream server address has been configured.
var ErrNotConfigured = errors.New("tally server is not configured")

// NetworkError wraps a connection-level failure: the request never reached
// the upstream, or the connection dropped before a response arrived.
type NetworkError struct {
	URL string
	Err error
}

// Error implements the error interface with remediation hints.
func (e *NetworkError) Error() string {
	return fmt.Sprintf("cannot reach Tally server at %s: %v (check that Tally is running, the address/port are correct, and no firewall blocks the connection)", e.URL, e.Err)
}

// Unwrap exposes the underlying transport error.
func (e *NetworkError) Unwrap() error { return e.Err }

// TimeoutError indicates the upstream did not answer within the bounded
// wait. Large voucher exports are known to be slow on Tally.
type TimeoutError struct {
	URL   string
	After time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request to Tally server at %s timed out after %s (the server may be busy with a large export, or not responding)", e.URL, e.After)
}

// HTTPError indicates the upstream answered with a non-2xx status.
type HTTPError struct {
	StatusCode int
	Status     string
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("Tally server returned HTTP %s", e.Status)
}

// AppError indicates a 200 response whose body encodes a semantic failure.
// The only classified case today is a company context that could not be
// established; Company carries the offending name when it was extractable.
type AppError struct {
	Company string
	Detail  string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Company != "" {
		return fmt.Sprintf("Tally rejected the request: company %q could not be selected (verify the exact company name, including any year suffix, and that the company is open in Tally)", e.Company)
	}
	return fmt.Sprintf("Tally rejected the request: %s", e.Detail)
}

// companyErrRE matches Tally's known error phrase for an invalid company
// context and captures the offending name. This string matching is a known
// upstream quirk: the server reports the failure inside a 200 body.
var companyErrRE = regexp.MustCompile(`Could not set '[^']+' to '([^']*)'`)

// classifyBody scans a 200 response body for known application-level error
// markers. It returns nil when the body looks like a normal export.
func classifyBody(body string) error {
	if m := companyErrRE.FindStringSubmatch(body); m != nil {
		return &AppError{Company: m[1], Detail: strings.TrimSpace(m[0])}
	}
	if i := strings.Index(body, "<LINEERROR>"); i >= 0 {
		detail := body[i+len("<LINEERROR>"):]
		if j := strings.Index(detail, "</LINEERROR>"); j >= 0 {
			detail = detail[:j]
		}
		return &AppError{Detail: strings.TrimSpace(detail)}
	}
	return nil
}
