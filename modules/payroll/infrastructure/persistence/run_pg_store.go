package persistence

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jacksonlee411/peopleops/modules/payroll/domain/ports"
	"github.com/jacksonlee411/peopleops/modules/payroll/domain/types"
	"github.com/jacksonlee411/peopleops/pkg/httperr"
	"github.com/jacksonlee411/peopleops/pkg/pgerr"
	"github.com/shopspring/decimal"
)

type RunPGStore struct {
	pool pgBeginner
}

func NewRunPGStore(pool pgBeginner) ports.RunStore {
	return &RunPGStore{pool: pool}
}

const runColumns = `run_id, period, entity, status, employees, exceptions, total_net_pay::text, payment_status, created_by, created_at`

func scanRun(row pgx.Row) (types.PayrollRun, error) {
	var (
		run                   types.PayrollRun
		status, paymentStatus string
		total                 string
	)
	if err := row.Scan(&run.RunID, &run.Period, &run.Entity, &status, &run.Employees, &run.Exceptions, &total, &paymentStatus, &run.CreatedBy, &run.CreatedAt); err != nil {
		return types.PayrollRun{}, err
	}
	run.Status = types.RunStatus(status)
	run.PaymentStatus = types.PaymentStatus(paymentStatus)
	var err error
	if run.TotalNetPay, err = parseMoney("total_net_pay", total); err != nil {
		return types.PayrollRun{}, err
	}
	return run, nil
}

func (s *RunPGStore) CreateRun(ctx context.Context, run types.PayrollRun) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	if _, err := tx.Exec(ctx, `
	INSERT INTO payroll_runs (run_id, period, entity, status, employees, exceptions, total_net_pay, payment_status, created_by, created_at, updated_at)
	VALUES ($1::text, $2::date, $3::text, $4::text, $5::int, $6::int, $7::numeric, $8::text, $9::text, $10::timestamptz, $10::timestamptz)
	`, run.RunID, run.Period, run.Entity, string(run.Status), run.Employees, run.Exceptions, moneyArg(run.TotalNetPay), string(run.PaymentStatus), run.CreatedBy, run.CreatedAt); err != nil {
		return pgerr.Translate(err)
	}
	return tx.Commit(ctx)
}

func (s *RunPGStore) UpdateRunTotals(ctx context.Context, runID string, employees int, exceptions int, totalNetPay decimal.Decimal) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	tag, err := tx.Exec(ctx, `
	UPDATE payroll_runs
	SET employees = $2::int, exceptions = $3::int, total_net_pay = $4::numeric, updated_at = now()
	WHERE run_id = $1::text
	`, runID, employees, exceptions, moneyArg(totalNetPay))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httperr.NewNotFound("payroll run not found")
	}
	return tx.Commit(ctx)
}

func (s *RunPGStore) ListRuns(ctx context.Context) ([]types.PayrollRun, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	rows, err := tx.Query(ctx, `
	SELECT `+runColumns+`
	FROM payroll_runs
	ORDER BY created_at DESC, run_id DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []types.PayrollRun{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *RunPGStore) GetRun(ctx context.Context, runID string) (types.PayrollRun, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return types.PayrollRun{}, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	run, err := scanRun(tx.QueryRow(ctx, `
	SELECT `+runColumns+`
	FROM payroll_runs
	WHERE run_id = $1::text
	`, runID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.PayrollRun{}, httperr.NewNotFound("payroll run not found")
		}
		return types.PayrollRun{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return types.PayrollRun{}, err
	}
	return run, nil
}

func (s *RunPGStore) SetRunStatus(ctx context.Context, runID string, from types.RunStatus, to types.RunStatus) (types.PayrollRun, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return types.PayrollRun{}, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	var current string
	err = tx.QueryRow(ctx, `
	SELECT status
	FROM payroll_runs
	WHERE run_id = $1::text
	FOR UPDATE
	`, runID).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.PayrollRun{}, httperr.NewNotFound("payroll run not found")
		}
		return types.PayrollRun{}, err
	}
	if types.RunStatus(current) != from {
		return types.PayrollRun{}, httperr.NewForbidden("payroll run is " + current + ", expected " + string(from))
	}

	run, err := scanRun(tx.QueryRow(ctx, `
	UPDATE payroll_runs
	SET status = $2::text, updated_at = now()
	WHERE run_id = $1::text
	RETURNING `+runColumns, runID, string(to)))
	if err != nil {
		return types.PayrollRun{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return types.PayrollRun{}, err
	}
	return run, nil
}
