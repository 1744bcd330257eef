package ports

import (
	"context"

	"github.com/jacksonlee411/peopleops/modules/iam/domain/types"
)

type RoleAssignmentStore interface {
	// GetActiveRoles reports found=false when the employee has no active
	// assignment row.
	GetActiveRoles(ctx context.Context, employeeID string) (roles []string, found bool, err error)
	GetAssignment(ctx context.Context, employeeID string) (types.RoleAssignment, error)
	UpsertAssignment(ctx context.Context, a types.RoleAssignment) (types.RoleAssignment, error)
}
