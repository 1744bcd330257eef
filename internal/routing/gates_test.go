package routing

import (
	"net/http"
	"slices"
	"strings"
	"testing"

	"github.com/jacksonlee411/peopleops/pkg/authz"
)

func TestGateA_DefaultTableLoads(t *testing.T) {
	t.Parallel()

	a, err := DefaultAllowlist()
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	c, err := NewClassifier(a, "server")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if _, err := authz.NewAuthorizer(c.Requirements(), authz.ModeEnforce); err != nil {
		t.Fatalf("err=%v", err)
	}
}

func TestGateB_EveryBusinessRouteIsRestrictedOrExplicitlyOpen(t *testing.T) {
	t.Parallel()

	a, err := DefaultAllowlist()
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range a.Entrypoints["server"].Routes {
		if strings.TrimSpace(r.Access) == "" {
			t.Fatalf("route %s has no explicit access", r.Path)
		}
		if strings.HasPrefix(r.Path, "/payroll/") && r.Access != string(authz.AccessRoleRestricted) {
			t.Fatalf("payroll route %s must be role_restricted", r.Path)
		}
	}
}

func TestGateC_HealthIsOpen(t *testing.T) {
	t.Parallel()

	a, err := DefaultAllowlist()
	if err != nil {
		t.Fatal(err)
	}
	c, err := NewClassifier(a, "server")
	if err != nil {
		t.Fatal(err)
	}
	if got := c.Requirement(http.MethodGet, "/health"); got.Access != authz.AccessOpen {
		t.Fatalf("req=%+v", got)
	}
	if got := c.Requirement(http.MethodPost, "/ops/backups"); got.Access != authz.AccessRoleRestricted || got.Roles[0] != authz.RoleSystemAdmin {
		t.Fatalf("req=%+v", got)
	}
}

func TestGateD_UndeclaredRolesAreDenied(t *testing.T) {
	t.Parallel()

	a, err := DefaultAllowlist()
	if err != nil {
		t.Fatal(err)
	}
	c, err := NewClassifier(a, "server")
	if err != nil {
		t.Fatal(err)
	}
	authorizer, err := authz.NewAuthorizer(c.Requirements(), authz.ModeEnforce)
	if err != nil {
		t.Fatal(err)
	}
	for _, spec := range c.Routes() {
		req := spec.Requirement
		if req.Access != authz.AccessRoleRestricted {
			continue
		}
		for _, role := range authz.KnownRoles() {
			allowed, _, err := authorizer.Authorize([]string{role}, req.Object, req.Action)
			if err != nil {
				t.Fatalf("err=%v", err)
			}
			if want := slices.Contains(req.Roles, role); allowed != want {
				t.Fatalf("%s %s role=%s declared=%v allowed=%v", spec.Method, spec.Path, role, req.Roles, allowed)
			}
		}
	}
}
