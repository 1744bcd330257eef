package persistence

import (
	"context"

	"github.com/jacksonlee411/peopleops/modules/notification/domain/ports"
)

type RecipientDirectoryPG struct {
	pool pgBeginner
}

func NewRecipientDirectoryPG(pool pgBeginner) ports.RecipientDirectory {
	return &RecipientDirectoryPG{pool: pool}
}

func (d *RecipientDirectoryPG) EmployeesWithRoles(ctx context.Context, roles []string) ([]string, error) {
	return d.queryIDs(ctx, `
	SELECT r.employee_id
	FROM employee_system_roles r
	JOIN employees e ON e.id = r.employee_id
	WHERE r.is_active
	  AND r.roles && $1::text[]
	  AND e.status <> 'TERMINATED'
	ORDER BY r.employee_id
	`, roles)
}

func (d *RecipientDirectoryPG) EmployeesInDepartments(ctx context.Context, departmentIDs []string) ([]string, error) {
	return d.queryIDs(ctx, `
	SELECT id
	FROM employees
	WHERE department_id = ANY($1::text[])
	  AND status <> 'TERMINATED'
	ORDER BY id
	`, departmentIDs)
}

func (d *RecipientDirectoryPG) queryIDs(ctx context.Context, sql string, arg []string) ([]string, error) {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	rows, err := tx.Query(ctx, sql, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return out, nil
}
