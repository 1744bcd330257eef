package httperr

import (
	"errors"
	"net/http"
)

type BadRequestError struct {
	msg string
}

func (e *BadRequestError) Error() string { return e.msg }

func NewBadRequest(msg string) error { return &BadRequestError{msg: msg} }

func IsBadRequest(err error) bool {
	_, ok := errors.AsType[*BadRequestError](err)
	return ok
}

type NotFoundError struct {
	msg string
}

func (e *NotFoundError) Error() string { return e.msg }

func NewNotFound(msg string) error { return &NotFoundError{msg: msg} }

func IsNotFound(err error) bool {
	_, ok := errors.AsType[*NotFoundError](err)
	return ok
}

// UnauthenticatedError means no credential was presented at all.
type UnauthenticatedError struct {
	msg string
}

func (e *UnauthenticatedError) Error() string { return e.msg }

func NewUnauthenticated(msg string) error { return &UnauthenticatedError{msg: msg} }

func IsUnauthenticated(err error) bool {
	_, ok := errors.AsType[*UnauthenticatedError](err)
	return ok
}

// UnauthorizedError covers a bad credential and every flavor of access denial.
// Callers only see the message text.
type UnauthorizedError struct {
	msg string
}

func (e *UnauthorizedError) Error() string { return e.msg }

func NewUnauthorized(msg string) error { return &UnauthorizedError{msg: msg} }

func IsUnauthorized(err error) bool {
	_, ok := errors.AsType[*UnauthorizedError](err)
	return ok
}

type ForbiddenError struct {
	msg string
}

func (e *ForbiddenError) Error() string { return e.msg }

func NewForbidden(msg string) error { return &ForbiddenError{msg: msg} }

func IsForbidden(err error) bool {
	_, ok := errors.AsType[*ForbiddenError](err)
	return ok
}

type ConflictError struct {
	msg string
}

func (e *ConflictError) Error() string { return e.msg }

func NewConflict(msg string) error { return &ConflictError{msg: msg} }

func IsConflict(err error) bool {
	_, ok := errors.AsType[*ConflictError](err)
	return ok
}

// Status maps a typed error to its HTTP status. Untyped errors are 500.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsBadRequest(err):
		return http.StatusBadRequest
	case IsNotFound(err):
		return http.StatusNotFound
	case IsUnauthenticated(err), IsUnauthorized(err):
		return http.StatusUnauthorized
	case IsForbidden(err):
		return http.StatusForbidden
	case IsConflict(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case IsBadRequest(err):
		return "bad_request"
	case IsNotFound(err):
		return "not_found"
	case IsUnauthenticated(err):
		return "unauthenticated"
	case IsUnauthorized(err):
		return "unauthorized"
	case IsForbidden(err):
		return "forbidden"
	case IsConflict(err):
		return "conflict"
	default:
		return "internal_error"
	}
}
