package entity

import "errors"

// Error is an expected domain outcome with a stable code. Handlers map codes
// onto HTTP statuses; any error without a code is treated as an
// infrastructure failure and surfaces as a generic "try again".
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string { return e.Message }

var (
	ErrNoCopyAvailable = &Error{Code: "NO_COPY_AVAILABLE", Message: "no available copy of this book"}
	ErrCopyNotIssued   = &Error{Code: "COPY_NOT_ISSUED", Message: "copy is not currently issued"}
	ErrCopyIssued      = &Error{Code: "COPY_CURRENTLY_ISSUED", Message: "copy is currently issued and cannot be retired"}
	ErrInvalidState    = &Error{Code: "INVALID_STATE_TRANSITION", Message: "operation is not allowed in the current state"}
	ErrDuplicateRequest = &Error{Code: "DUPLICATE_REQUEST", Message: "user already has an open request for this book"}
	ErrOutstandingFines = &Error{Code: "OUTSTANDING_FINES", Message: "this user has unpaid fines and cannot borrow further books"}
	ErrBorrowLimit     = &Error{Code: "BORROW_LIMIT_EXCEEDED", Message: "user has reached the maximum number of active loans"}
	ErrRenewalLimit    = &Error{Code: "RENEWAL_LIMIT_EXCEEDED", Message: "loan has reached the maximum number of renewals"}
	ErrNotFound        = &Error{Code: "NOT_FOUND", Message: "record not found"}
	ErrUnauthorized    = &Error{Code: "UNAUTHORIZED", Message: "not allowed to access this record"}
)

// NewValidation builds a field-level domain error, for guards that belong to
// the engine rather than to DTO validation (e.g. empty rejection reason).
func NewValidation(msg string) *Error {
	return &Error{Code: "VALIDATION_FAILED", Message: msg}
}

// CodeOf returns the domain code carried by err, or "" when err is an
// infrastructure failure.
func CodeOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
