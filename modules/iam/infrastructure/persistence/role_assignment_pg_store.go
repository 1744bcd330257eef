package persistence

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jacksonlee411/peopleops/modules/iam/domain/ports"
	"github.com/jacksonlee411/peopleops/modules/iam/domain/types"
	"github.com/jacksonlee411/peopleops/pkg/httperr"
)

type pgBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type RoleAssignmentPGStore struct {
	pool pgBeginner
}

func NewRoleAssignmentPGStore(pool pgBeginner) ports.RoleAssignmentStore {
	return &RoleAssignmentPGStore{pool: pool}
}

func (s *RoleAssignmentPGStore) GetActiveRoles(ctx context.Context, employeeID string) ([]string, bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, false, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	var roles []string
	err = tx.QueryRow(ctx, `
	SELECT roles
	FROM employee_system_roles
	WHERE employee_id = $1::text AND is_active
	`, employeeID).Scan(&roles)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, err
	}
	return roles, true, nil
}

func (s *RoleAssignmentPGStore) GetAssignment(ctx context.Context, employeeID string) (types.RoleAssignment, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return types.RoleAssignment{}, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	var a types.RoleAssignment
	err = tx.QueryRow(ctx, `
	SELECT employee_id, roles, is_active, updated_at
	FROM employee_system_roles
	WHERE employee_id = $1::text
	`, employeeID).Scan(&a.EmployeeID, &a.Roles, &a.IsActive, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.RoleAssignment{}, httperr.NewNotFound("role assignment not found")
		}
		return types.RoleAssignment{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return types.RoleAssignment{}, err
	}
	return a, nil
}

func (s *RoleAssignmentPGStore) UpsertAssignment(ctx context.Context, in types.RoleAssignment) (types.RoleAssignment, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return types.RoleAssignment{}, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	roles := in.Roles
	if roles == nil {
		roles = []string{}
	}
	var out types.RoleAssignment
	err = tx.QueryRow(ctx, `
	INSERT INTO employee_system_roles (employee_id, roles, is_active, updated_at)
	VALUES ($1::text, $2::text[], $3::boolean, now())
	ON CONFLICT (employee_id) DO UPDATE
	SET roles = EXCLUDED.roles, is_active = EXCLUDED.is_active, updated_at = now()
	RETURNING employee_id, roles, is_active, updated_at
	`, in.EmployeeID, roles, in.IsActive).Scan(&out.EmployeeID, &out.Roles, &out.IsActive, &out.UpdatedAt)
	if err != nil {
		return types.RoleAssignment{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return types.RoleAssignment{}, err
	}
	return out, nil
}
