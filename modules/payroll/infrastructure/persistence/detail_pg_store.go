package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jacksonlee411/peopleops/modules/payroll/domain/ports"
	"github.com/jacksonlee411/peopleops/modules/payroll/domain/types"
	"github.com/jacksonlee411/peopleops/pkg/pgerr"
	"github.com/shopspring/decimal"
)

type DetailPGStore struct {
	pool pgBeginner
}

func NewDetailPGStore(pool pgBeginner) *DetailPGStore {
	return &DetailPGStore{pool: pool}
}

var (
	_ ports.DetailStore    = (*DetailPGStore)(nil)
	_ ports.PreviousNetPay = (*DetailPGStore)(nil)
)

const detailColumns = `id, run_id, employee_id,
	base_salary::text, allowances::text, deductions::text, tax::text, insurance::text,
	bonus::text, benefit::text, gross_salary::text, net_salary::text, net_pay::text,
	bank_status, hr_events, exceptions`

func (s *DetailPGStore) InsertDetail(ctx context.Context, d types.EmployeePayrollDetail) error {
	exceptions, err := json.Marshal(nonNilExceptions(d.Exceptions))
	if err != nil {
		return err
	}
	events := make([]string, 0, len(d.HREvents))
	for _, e := range d.HREvents {
		events = append(events, string(e))
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	if _, err := tx.Exec(ctx, `
	INSERT INTO employee_payroll_details (
	  id, run_id, employee_id,
	  base_salary, allowances, deductions, tax, insurance,
	  bonus, benefit, gross_salary, net_salary, net_pay,
	  bank_status, hr_events, exceptions
	)
	VALUES (
	  $1::text, $2::text, $3::text,
	  $4::numeric, $5::numeric, $6::numeric, $7::numeric, $8::numeric,
	  $9::numeric, $10::numeric, $11::numeric, $12::numeric, $13::numeric,
	  $14::text, $15::text[], $16::jsonb
	)
	`,
		d.ID, d.RunID, d.EmployeeID,
		moneyArg(d.BaseSalary), moneyArg(d.Allowances), moneyArg(d.Deductions), moneyArg(d.Tax), moneyArg(d.Insurance),
		moneyArg(d.Bonus), moneyArg(d.Benefit), moneyArg(d.GrossSalary), moneyArg(d.NetSalary), moneyArg(d.NetPay),
		string(d.BankStatus), events, exceptions,
	); err != nil {
		return pgerr.Translate(err)
	}
	return tx.Commit(ctx)
}

func (s *DetailPGStore) ListDetails(ctx context.Context, runID string, employeeID string, onlyExceptions bool) ([]types.EmployeePayrollDetail, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	rows, err := tx.Query(ctx, `
	SELECT `+detailColumns+`
	FROM employee_payroll_details
	WHERE run_id = $1::text
	  AND ($2::text = '' OR employee_id = $2::text)
	  AND (NOT $3::boolean OR jsonb_array_length(exceptions) > 0)
	ORDER BY employee_id, id
	`, runID, employeeID, onlyExceptions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []types.EmployeePayrollDetail{}
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *DetailPGStore) ReplaceExceptions(ctx context.Context, runID string, employeeID string, exceptions []types.PayrollException) (bool, error) {
	payload, err := json.Marshal(nonNilExceptions(exceptions))
	if err != nil {
		return false, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	tag, err := tx.Exec(ctx, `
	UPDATE employee_payroll_details
	SET exceptions = $3::jsonb, updated_at = now()
	WHERE run_id = $1::text AND employee_id = $2::text
	`, runID, employeeID, payload)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	if _, err := tx.Exec(ctx, `
	UPDATE payroll_runs
	SET exceptions = (
	  SELECT COALESCE(SUM(jsonb_array_length(d.exceptions)), 0)
	  FROM employee_payroll_details d
	  WHERE d.run_id = $1::text
	), updated_at = now()
	WHERE run_id = $1::text
	`, runID); err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (s *DetailPGStore) PreviousNetPay(ctx context.Context, employeeID string, before time.Time) (decimal.Decimal, bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return decimal.Decimal{}, false, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	var net string
	err = tx.QueryRow(ctx, `
	SELECT d.net_pay::text
	FROM employee_payroll_details d
	JOIN payroll_runs r ON r.run_id = d.run_id
	WHERE d.employee_id = $1::text
	  AND date_trunc('month', r.period) < date_trunc('month', $2::date)
	ORDER BY r.period DESC, r.created_at DESC
	LIMIT 1
	`, employeeID, before).Scan(&net)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Decimal{}, false, nil
		}
		return decimal.Decimal{}, false, err
	}
	v, err := parseMoney("net_pay", net)
	if err != nil {
		return decimal.Decimal{}, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return decimal.Decimal{}, false, err
	}
	return v, true, nil
}

func scanDetail(rows pgx.Rows) (types.EmployeePayrollDetail, error) {
	var (
		d          types.EmployeePayrollDetail
		money      [10]string
		bank       string
		events     []string
		exceptions []byte
	)
	if err := rows.Scan(&d.ID, &d.RunID, &d.EmployeeID,
		&money[0], &money[1], &money[2], &money[3], &money[4],
		&money[5], &money[6], &money[7], &money[8], &money[9],
		&bank, &events, &exceptions,
	); err != nil {
		return types.EmployeePayrollDetail{}, err
	}

	targets := []*decimal.Decimal{
		&d.BaseSalary, &d.Allowances, &d.Deductions, &d.Tax, &d.Insurance,
		&d.Bonus, &d.Benefit, &d.GrossSalary, &d.NetSalary, &d.NetPay,
	}
	for i, t := range targets {
		v, err := parseMoney("detail amount", money[i])
		if err != nil {
			return types.EmployeePayrollDetail{}, err
		}
		*t = v
	}

	d.BankStatus = types.BankStatus(bank)
	d.HREvents = make([]types.HREvent, 0, len(events))
	for _, e := range events {
		d.HREvents = append(d.HREvents, types.HREvent(e))
	}
	d.Exceptions = []types.PayrollException{}
	if len(exceptions) > 0 {
		if err := json.Unmarshal(exceptions, &d.Exceptions); err != nil {
			return types.EmployeePayrollDetail{}, fmt.Errorf("decode exceptions: %w", err)
		}
	}
	return d, nil
}

func nonNilExceptions(in []types.PayrollException) []types.PayrollException {
	if in == nil {
		return []types.PayrollException{}
	}
	return in
}
