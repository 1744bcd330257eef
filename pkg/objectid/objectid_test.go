package objectid

import (
	"testing"

	"github.com/jacksonlee411/peopleops/pkg/httperr"
)

func TestNew(t *testing.T) {
	a := New()
	b := New()
	if len(a) != 24 || !Valid(a) {
		t.Fatalf("a=%q", a)
	}
	if a == b {
		t.Fatalf("expected distinct ids")
	}
}

func TestRequire(t *testing.T) {
	if err := Require("employeeId", "65f1c0a2b3d4e5f601234567"); err != nil {
		t.Fatalf("err=%v", err)
	}
	for _, bad := range []string{"", "abc", "zzzzzzzzzzzzzzzzzzzzzzzz", "65f1c0a2b3d4e5f6012345678"} {
		err := Require("employeeId", bad)
		if !httperr.IsBadRequest(err) {
			t.Fatalf("id=%q err=%v", bad, err)
		}
		if err.Error() != "invalid employeeId" {
			t.Fatalf("msg=%q", err.Error())
		}
	}
}
