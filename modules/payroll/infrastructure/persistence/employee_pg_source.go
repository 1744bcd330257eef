package persistence

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jacksonlee411/peopleops/modules/payroll/domain/ports"
	"github.com/jacksonlee411/peopleops/modules/payroll/domain/types"
)

type EmployeePGSource struct {
	pool pgBeginner
}

func NewEmployeePGSource(pool pgBeginner) ports.EmployeeSource {
	return &EmployeePGSource{pool: pool}
}

const eligibleEmployeeColumns = `
	e.id, e.first_name, e.last_name, COALESCE(e.department_id, ''), e.bank_status,
	g.id, g.name, g.amount::text, g.gross_amount::text`

func (s *EmployeePGSource) ListActive(ctx context.Context) ([]types.EligibleEmployee, error) {
	return s.query(ctx, `
	SELECT`+eligibleEmployeeColumns+`
	FROM employees e
	JOIN payroll_config_records g
	  ON g.id = e.pay_grade_id AND g.kind = 'pay_grade' AND g.status = 'approved'
	WHERE e.status IN ('ACTIVE', 'PROBATION')
	ORDER BY e.id
	`)
}

func (s *EmployeePGSource) ListActiveByIDs(ctx context.Context, ids []string) ([]types.EligibleEmployee, error) {
	return s.query(ctx, `
	SELECT`+eligibleEmployeeColumns+`
	FROM employees e
	LEFT JOIN payroll_config_records g
	  ON g.id = e.pay_grade_id AND g.kind = 'pay_grade' AND g.status = 'approved'
	WHERE e.status IN ('ACTIVE', 'PROBATION')
	  AND e.id = ANY($1::text[])
	ORDER BY e.id
	`, ids)
}

func (s *EmployeePGSource) query(ctx context.Context, sql string, args ...any) ([]types.EligibleEmployee, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	rows, err := tx.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.EligibleEmployee
	for rows.Next() {
		emp, err := scanEligibleEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, emp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

func scanEligibleEmployee(rows pgx.Rows) (types.EligibleEmployee, error) {
	var (
		emp                   types.EligibleEmployee
		bank                  string
		gradeID, gradeName    *string
		gradeBase, gradeGross *string
	)
	if err := rows.Scan(&emp.ID, &emp.FirstName, &emp.LastName, &emp.DepartmentID, &bank, &gradeID, &gradeName, &gradeBase, &gradeGross); err != nil {
		return types.EligibleEmployee{}, err
	}
	emp.BankStatus = types.BankStatus(bank)
	if gradeID == nil {
		return emp, nil
	}

	g := &types.PayGrade{ID: *gradeID}
	if gradeName != nil {
		g.Name = *gradeName
	}
	var err error
	if gradeBase != nil {
		if g.BaseSalary, err = parseMoney("pay grade amount", *gradeBase); err != nil {
			return types.EligibleEmployee{}, err
		}
	}
	if gradeGross != nil {
		if g.GrossSalary, err = parseMoney("pay grade gross", *gradeGross); err != nil {
			return types.EligibleEmployee{}, err
		}
	}
	emp.PayGrade = g
	return emp, nil
}
