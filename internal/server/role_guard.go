package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/jacksonlee411/peopleops/internal/routing"
	"github.com/jacksonlee411/peopleops/pkg/authz"
	"go.uber.org/zap"
)

type roleSource interface {
	ActiveRoles(ctx context.Context, employeeID string) (roles []string, found bool, err error)
}

type authorizer interface {
	Authorize(roles []string, object string, action string) (allowed bool, enforced bool, err error)
}

// callerEmployeeID prefers the token claim over the employeeId cookie. The
// cookie only counts for tokens with no role claim: a role-bearing token
// (a job candidate's, say) must not borrow an employee's assignments.
func callerEmployeeID(r *http.Request, claim string, tokenRole string) string {
	if claim = strings.TrimSpace(claim); claim != "" {
		return claim
	}
	if strings.TrimSpace(tokenRole) != "" {
		return ""
	}
	if c, err := r.Cookie(employeeIDCookie); err == nil {
		return strings.TrimSpace(c.Value)
	}
	return ""
}

// withRoleGuard enforces the route's declared requirement. Employees are
// judged by their active role assignments; everyone else by the single role
// in their token.
func withRoleGuard(classifier *routing.Classifier, roles roleSource, a authorizer, logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := classifier.Requirement(r.Method, r.URL.Path)
		if req.Access != authz.AccessRoleRestricted {
			next.ServeHTTP(w, r)
			return
		}
		rc := classifier.Classify(r.URL.Path)
		deny := func(reason string) {
			routing.WriteError(w, r, rc, http.StatusUnauthorized, "access_denied", "access denied: "+reason)
		}

		id, ok := IdentityFromContext(r.Context())
		if !ok {
			deny("unauthenticated")
			return
		}

		var effective []string
		if employeeID := callerEmployeeID(r, id.EmployeeID, id.Role); employeeID != "" {
			assigned, found, err := roles.ActiveRoles(r.Context(), employeeID)
			if err != nil {
				logger.Error("role lookup failed", zap.String("employee_id", employeeID), zap.Error(err))
				routing.WriteError(w, r, rc, http.StatusInternalServerError, "role_lookup_error", "role lookup failed")
				return
			}
			if !found || len(assigned) == 0 {
				deny("no role assignment")
				return
			}
			effective = assigned
		} else {
			role := strings.ToLower(strings.TrimSpace(id.Role))
			if role == "" {
				deny("no role")
				return
			}
			effective = []string{role}
		}

		allowed, enforced, err := a.Authorize(effective, req.Object, req.Action)
		if err != nil {
			logger.Error("authz error", zap.String("object", req.Object), zap.String("action", req.Action), zap.Error(err))
			routing.WriteError(w, r, rc, http.StatusInternalServerError, "authz_error", "authz error")
			return
		}
		if !allowed {
			if enforced {
				deny("role mismatch")
				return
			}
			logger.Warn("authz shadow deny",
				zap.Strings("roles", effective),
				zap.String("object", req.Object),
				zap.String("action", req.Action),
			)
		}

		id.Roles = effective
		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), id)))
	})
}
