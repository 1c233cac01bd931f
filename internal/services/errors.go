// Package services defines the business logic for sales, inventory, company,
// and balance-sheet views over the Tally client layer. This file centralizes
// common service-level error values so that they can be consistently returned
// by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer; translation
// into user-facing messages or HTTP status codes is performed at the handler
// layer. Transport failures keep their own classified types from the
// transport package and pass through unchanged.
package services

import "errors"

var (
	// ErrNoActiveCompany is returned when an operation requires a company
	// context but none has been selected yet.
	ErrNoActiveCompany = errors.New("no active company selected")

	// ErrVoucherNotFound indicates that the requested voucher does not exist
	// in the active company.
	ErrVoucherNotFound = errors.New("voucher not found")

	// ErrCompanyNotFound indicates that the company record could not be
	// exported (typically a misspelled company name).
	ErrCompanyNotFound = errors.New("company record not found")
)
