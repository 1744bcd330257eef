package services

import (
	"context"
	"strings"

	"github.com/jacksonlee411/peopleops/modules/iam/domain/ports"
	"github.com/jacksonlee411/peopleops/modules/iam/domain/types"
	"github.com/jacksonlee411/peopleops/pkg/authz"
	"github.com/jacksonlee411/peopleops/pkg/httperr"
	"github.com/jacksonlee411/peopleops/pkg/objectid"
)

type RoleAssignmentService struct {
	store ports.RoleAssignmentStore
}

func NewRoleAssignmentService(store ports.RoleAssignmentStore) RoleAssignmentService {
	return RoleAssignmentService{store: store}
}

func (s RoleAssignmentService) ActiveRoles(ctx context.Context, employeeID string) ([]string, bool, error) {
	return s.store.GetActiveRoles(ctx, employeeID)
}

func (s RoleAssignmentService) Get(ctx context.Context, employeeID string) (types.RoleAssignment, error) {
	if err := objectid.Require("employeeId", employeeID); err != nil {
		return types.RoleAssignment{}, err
	}
	return s.store.GetAssignment(ctx, employeeID)
}

func (s RoleAssignmentService) Assign(ctx context.Context, employeeID string, roles []string, active bool) (types.RoleAssignment, error) {
	if err := objectid.Require("employeeId", employeeID); err != nil {
		return types.RoleAssignment{}, err
	}
	normalized := make([]string, 0, len(roles))
	seen := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		r = strings.ToLower(strings.TrimSpace(r))
		if !authz.IsKnownRole(r) {
			return types.RoleAssignment{}, httperr.NewBadRequest("unknown role: " + r)
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		normalized = append(normalized, r)
	}
	return s.store.UpsertAssignment(ctx, types.RoleAssignment{EmployeeID: employeeID, Roles: normalized, IsActive: active})
}
