package objectid

import (
	"strings"

	"github.com/jacksonlee411/peopleops/pkg/httperr"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// New returns a fresh 24-char hex identifier.
func New() string {
	return primitive.NewObjectID().Hex()
}

func Valid(s string) bool {
	return primitive.IsValidObjectID(strings.TrimSpace(s))
}

// Require rejects anything that is not a 24-char hex identifier with a
// bad request naming the field.
func Require(field string, s string) error {
	if !Valid(s) {
		return httperr.NewBadRequest("invalid " + field)
	}
	return nil
}
