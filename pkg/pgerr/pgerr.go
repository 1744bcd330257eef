package pgerr

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jacksonlee411/peopleops/pkg/httperr"
)

func Code(err error) string {
	if pgErr, ok := errors.AsType[*pgconn.PgError](err); ok && pgErr != nil {
		return strings.TrimSpace(pgErr.Code)
	}
	return ""
}

func Message(err error) string {
	if pgErr, ok := errors.AsType[*pgconn.PgError](err); ok && pgErr != nil {
		msg := strings.TrimSpace(pgErr.Message)
		if msg != "" {
			return msg
		}
	}
	return "UNKNOWN"
}

func IsInvalidInput(err error) bool {
	switch Code(err) {
	case "22P02", "22003", "22007", "22008":
		return true
	default:
		return false
	}
}

func IsUniqueViolation(err error) bool {
	return Code(err) == "23505"
}

func IsForeignKeyViolation(err error) bool {
	return Code(err) == "23503"
}

// Translate maps well-known Postgres failures onto typed request errors.
// Anything else is returned unchanged.
func Translate(err error) error {
	switch {
	case err == nil:
		return nil
	case IsInvalidInput(err):
		return httperr.NewBadRequest(Message(err))
	case IsUniqueViolation(err):
		return httperr.NewConflict(Message(err))
	case IsForeignKeyViolation(err):
		return httperr.NewBadRequest(Message(err))
	default:
		return err
	}
}
