package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jacksonlee411/peopleops/modules/payrollconfig/domain/ports"
	"github.com/jacksonlee411/peopleops/modules/payrollconfig/domain/types"
	"github.com/jacksonlee411/peopleops/pkg/httperr"
	"github.com/jacksonlee411/peopleops/pkg/pgerr"
	"github.com/shopspring/decimal"
)

type pgBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type ConfigPGStore struct {
	pool pgBeginner
}

func NewConfigPGStore(pool pgBeginner) ports.RecordStore {
	return &ConfigPGStore{pool: pool}
}

const recordColumns = `id, kind, name, amount::text, gross_amount::text, rate_percent::text, min_amount::text, max_amount::text, status, created_by, approved_by, created_at, updated_at`

func scanRecord(row pgx.Row) (types.Record, error) {
	var (
		rec                 types.Record
		kind, status        string
		amount, gross, rate string
		minAmount           string
		maxAmount           *string
	)
	if err := row.Scan(&rec.ID, &kind, &rec.Name, &amount, &gross, &rate, &minAmount, &maxAmount, &status, &rec.CreatedBy, &rec.ApprovedBy, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return types.Record{}, err
	}
	rec.Kind = types.Kind(kind)
	rec.Status = types.Status(status)

	fields := []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"amount", amount, &rec.Amount},
		{"gross_amount", gross, &rec.GrossAmount},
		{"rate_percent", rate, &rec.RatePercent},
		{"min_amount", minAmount, &rec.MinAmount},
	}
	for _, f := range fields {
		v, err := decimal.NewFromString(f.raw)
		if err != nil {
			return types.Record{}, fmt.Errorf("parse %s: %w", f.name, err)
		}
		*f.dst = v
	}
	if maxAmount != nil {
		v, err := decimal.NewFromString(*maxAmount)
		if err != nil {
			return types.Record{}, fmt.Errorf("parse max_amount: %w", err)
		}
		rec.MaxAmount = &v
	}
	return rec, nil
}

func maxArg(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.StringFixed(2)
}

func (s *ConfigPGStore) Insert(ctx context.Context, rec types.Record) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	if _, err := tx.Exec(ctx, `
	INSERT INTO payroll_config_records (id, kind, name, amount, gross_amount, rate_percent, min_amount, max_amount, status, created_by, created_at, updated_at)
	VALUES ($1::text, $2::text, $3::text, $4::numeric, $5::numeric, $6::numeric, $7::numeric, $8::numeric, $9::text, $10::text, $11::timestamptz, $11::timestamptz)
	`, rec.ID, string(rec.Kind), rec.Name,
		rec.Amount.StringFixed(2), rec.GrossAmount.StringFixed(2), rec.RatePercent.StringFixed(4), rec.MinAmount.StringFixed(2), maxArg(rec.MaxAmount),
		string(rec.Status), rec.CreatedBy, rec.CreatedAt,
	); err != nil {
		return pgerr.Translate(err)
	}
	return tx.Commit(ctx)
}

func (s *ConfigPGStore) Update(ctx context.Context, rec types.Record) (types.Record, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return types.Record{}, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	out, err := scanRecord(tx.QueryRow(ctx, `
	UPDATE payroll_config_records
	SET name = $2::text, amount = $3::numeric, gross_amount = $4::numeric, rate_percent = $5::numeric,
	    min_amount = $6::numeric, max_amount = $7::numeric, updated_at = $8::timestamptz
	WHERE id = $1::text AND status = 'draft'
	RETURNING `+recordColumns,
		rec.ID, rec.Name,
		rec.Amount.StringFixed(2), rec.GrossAmount.StringFixed(2), rec.RatePercent.StringFixed(4), rec.MinAmount.StringFixed(2), maxArg(rec.MaxAmount),
		rec.UpdatedAt,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.Record{}, httperr.NewForbidden("configuration record is no longer draft")
		}
		return types.Record{}, pgerr.Translate(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return types.Record{}, err
	}
	return out, nil
}

func (s *ConfigPGStore) Get(ctx context.Context, id string) (types.Record, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return types.Record{}, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	rec, err := scanRecord(tx.QueryRow(ctx, `
	SELECT `+recordColumns+`
	FROM payroll_config_records
	WHERE id = $1::text
	`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.Record{}, httperr.NewNotFound("configuration record not found")
		}
		return types.Record{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return types.Record{}, err
	}
	return rec, nil
}

func (s *ConfigPGStore) List(ctx context.Context, kind types.Kind, status types.Status) ([]types.Record, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	rows, err := tx.Query(ctx, `
	SELECT `+recordColumns+`
	FROM payroll_config_records
	WHERE kind = $1::text
	  AND ($2::text = '' OR status = $2::text)
	ORDER BY min_amount, name, id
	`, string(kind), string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ConfigPGStore) SetStatus(ctx context.Context, id string, from types.Status, to types.Status, actorID string) (types.Record, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return types.Record{}, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	var current string
	err = tx.QueryRow(ctx, `
	SELECT status
	FROM payroll_config_records
	WHERE id = $1::text
	FOR UPDATE
	`, id).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.Record{}, httperr.NewNotFound("configuration record not found")
		}
		return types.Record{}, err
	}
	if types.Status(current) != from {
		return types.Record{}, httperr.NewForbidden("configuration record is " + current + "; only " + string(from) + " records can be changed")
	}

	rec, err := scanRecord(tx.QueryRow(ctx, `
	UPDATE payroll_config_records
	SET status = $2::text, approved_by = $3::text, updated_at = now()
	WHERE id = $1::text
	RETURNING `+recordColumns, id, string(to), actorID))
	if err != nil {
		return types.Record{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return types.Record{}, err
	}
	return rec, nil
}
