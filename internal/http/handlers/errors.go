// Package handlers – error codes and mapping.
//
// This file defines the stable machine-readable error codes returned in the
// ErrorResponse envelope, and the single place where domain and transport
// errors are translated into an HTTP status plus code. Handlers never map
// errors themselves; they call failErr() so that, for example, an upstream
// timeout is always a 504 with code "upstream_timeout" no matter which
// endpoint surfaced it.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-tally-backend/internal/repo"
	"github.com/tbourn/go-tally-backend/internal/services"
	"github.com/tbourn/go-tally-backend/internal/tally/parse"
	"github.com/tbourn/go-tally-backend/internal/tally/request"
	"github.com/tbourn/go-tally-backend/internal/tally/transport"
)

// Stable error codes returned in ErrorResponse.Code.
const (
	// ErrCodeBadRequest indicates malformed input (bad dates, bad pagination).
	ErrCodeBadRequest = "bad_request"
	// ErrCodeNotFound indicates the requested resource does not exist.
	ErrCodeNotFound = "not_found"
	// ErrCodeNotConfigured indicates no Tally server has been configured yet.
	ErrCodeNotConfigured = "not_configured"
	// ErrCodeNoCompany indicates no active company has been selected.
	ErrCodeNoCompany = "no_active_company"
	// ErrCodeUpstreamUnreachable indicates the Tally server could not be reached.
	ErrCodeUpstreamUnreachable = "upstream_unreachable"
	// ErrCodeUpstreamTimeout indicates the Tally server did not answer in time.
	ErrCodeUpstreamTimeout = "upstream_timeout"
	// ErrCodeUpstreamRejected indicates Tally answered with an application error
	// (typically an unknown company name).
	ErrCodeUpstreamRejected = "upstream_rejected"
	// ErrCodeUpstreamInvalid indicates the Tally response could not be parsed.
	ErrCodeUpstreamInvalid = "upstream_invalid"
	// ErrCodeRateLimited indicates the caller exceeded the request rate limit.
	ErrCodeRateLimited = "rate_limited"
	// ErrCodeInternal indicates an unexpected server-side failure.
	ErrCodeInternal = "internal_error"
	// ErrCodeMethodNotAllowed indicates the HTTP method is not supported.
	ErrCodeMethodNotAllowed = "method_not_allowed"
)

// failErr maps a service-layer error onto the wire and aborts the request.
func failErr(c *gin.Context, err error) {
	status, code := statusFor(err)
	fail(c, status, code, err.Error())
}

// statusFor classifies an error into an HTTP status and a stable code.
//
// The taxonomy mirrors the layering: validation errors are the caller's
// fault (400); missing configuration and missing company are preconditions
// the client can fix (409); transport failures distinguish unreachable (502),
// timeout (504), and upstream rejection (422); malformed upstream payloads
// are 502 because the client can do nothing about them.
func statusFor(err error) (int, string) {
	var (
		ve *request.ValidationError
		ne *transport.NetworkError
		te *transport.TimeoutError
		he *transport.HTTPError
		ae *transport.AppError
		pe *parse.ParseError
	)
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, ErrCodeBadRequest
	case errors.Is(err, transport.ErrNotConfigured):
		return http.StatusConflict, ErrCodeNotConfigured
	case errors.Is(err, services.ErrNoActiveCompany):
		return http.StatusConflict, ErrCodeNoCompany
	case errors.Is(err, services.ErrVoucherNotFound),
		errors.Is(err, services.ErrCompanyNotFound),
		errors.Is(err, repo.ErrNotFound):
		return http.StatusNotFound, ErrCodeNotFound
	case errors.As(err, &te):
		return http.StatusGatewayTimeout, ErrCodeUpstreamTimeout
	case errors.As(err, &ae):
		return http.StatusUnprocessableEntity, ErrCodeUpstreamRejected
	case errors.As(err, &ne), errors.As(err, &he):
		return http.StatusBadGateway, ErrCodeUpstreamUnreachable
	case errors.As(err, &pe):
		return http.StatusBadGateway, ErrCodeUpstreamInvalid
	case errors.Is(err, transport.ErrClientClosed):
		return http.StatusServiceUnavailable, ErrCodeInternal
	default:
		return http.StatusInternalServerError, ErrCodeInternal
	}
}
