package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jacksonlee411/peopleops/modules/lifecycle/domain/types"
	"github.com/jacksonlee411/peopleops/pkg/httperr"
	"github.com/jacksonlee411/peopleops/pkg/pgerr"
	"github.com/shopspring/decimal"
)

type pgBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// LifecyclePGStore keeps signing bonuses and termination requests.
type LifecyclePGStore struct {
	pool pgBeginner
}

func NewLifecyclePGStore(pool pgBeginner) *LifecyclePGStore {
	return &LifecyclePGStore{pool: pool}
}

const (
	bonusColumns       = `id, employee_id, amount::text, status, created_at, approved_at`
	terminationColumns = `id, employee_id, type, reason, benefit_amount::text, status, created_at, approved_at`
)

func scanBonus(row pgx.Row) (types.SigningBonus, error) {
	var (
		b              types.SigningBonus
		amount, status string
	)
	if err := row.Scan(&b.ID, &b.EmployeeID, &amount, &status, &b.CreatedAt, &b.ApprovedAt); err != nil {
		return types.SigningBonus{}, err
	}
	v, err := decimal.NewFromString(amount)
	if err != nil {
		return types.SigningBonus{}, fmt.Errorf("parse amount: %w", err)
	}
	b.Amount = v
	b.Status = types.ApprovalStatus(status)
	return b, nil
}

func scanTermination(row pgx.Row) (types.TerminationRequest, error) {
	var (
		t               types.TerminationRequest
		benefit, status string
	)
	if err := row.Scan(&t.ID, &t.EmployeeID, &t.Type, &t.Reason, &benefit, &status, &t.CreatedAt, &t.ApprovedAt); err != nil {
		return types.TerminationRequest{}, err
	}
	v, err := decimal.NewFromString(benefit)
	if err != nil {
		return types.TerminationRequest{}, fmt.Errorf("parse benefit_amount: %w", err)
	}
	t.BenefitAmount = v
	t.Status = types.ApprovalStatus(status)
	return t, nil
}

func (s *LifecyclePGStore) InsertBonus(ctx context.Context, b types.SigningBonus) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	if _, err := tx.Exec(ctx, `
	INSERT INTO signing_bonuses (id, employee_id, amount, status, created_at)
	VALUES ($1::text, $2::text, $3::numeric, $4::text, $5::timestamptz)
	`, b.ID, b.EmployeeID, b.Amount.StringFixed(2), string(b.Status), b.CreatedAt); err != nil {
		return pgerr.Translate(err)
	}
	return tx.Commit(ctx)
}

func (s *LifecyclePGStore) ListBonuses(ctx context.Context, employeeID string) ([]types.SigningBonus, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	rows, err := tx.Query(ctx, `
	SELECT `+bonusColumns+`
	FROM signing_bonuses
	WHERE ($1::text = '' OR employee_id = $1::text)
	ORDER BY created_at DESC, id
	`, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.SigningBonus
	for rows.Next() {
		b, err := scanBonus(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *LifecyclePGStore) ApproveBonus(ctx context.Context, id string, at time.Time) (types.SigningBonus, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return types.SigningBonus{}, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	if err := lockPending(ctx, tx, "signing_bonuses", id, "signing bonus"); err != nil {
		return types.SigningBonus{}, err
	}
	b, err := scanBonus(tx.QueryRow(ctx, `
	UPDATE signing_bonuses
	SET status = 'approved', approved_at = $2::timestamptz
	WHERE id = $1::text
	RETURNING `+bonusColumns, id, at))
	if err != nil {
		return types.SigningBonus{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return types.SigningBonus{}, err
	}
	return b, nil
}

func (s *LifecyclePGStore) InsertTermination(ctx context.Context, t types.TerminationRequest) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	if _, err := tx.Exec(ctx, `
	INSERT INTO termination_requests (id, employee_id, type, reason, benefit_amount, status, created_at)
	VALUES ($1::text, $2::text, $3::text, $4::text, $5::numeric, $6::text, $7::timestamptz)
	`, t.ID, t.EmployeeID, t.Type, t.Reason, t.BenefitAmount.StringFixed(2), string(t.Status), t.CreatedAt); err != nil {
		return pgerr.Translate(err)
	}
	return tx.Commit(ctx)
}

func (s *LifecyclePGStore) ListTerminations(ctx context.Context, employeeID string) ([]types.TerminationRequest, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	rows, err := tx.Query(ctx, `
	SELECT `+terminationColumns+`
	FROM termination_requests
	WHERE ($1::text = '' OR employee_id = $1::text)
	ORDER BY created_at DESC, id
	`, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.TerminationRequest
	for rows.Next() {
		t, err := scanTermination(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *LifecyclePGStore) ApproveTermination(ctx context.Context, id string, at time.Time) (types.TerminationRequest, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return types.TerminationRequest{}, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	if err := lockPending(ctx, tx, "termination_requests", id, "termination request"); err != nil {
		return types.TerminationRequest{}, err
	}
	t, err := scanTermination(tx.QueryRow(ctx, `
	UPDATE termination_requests
	SET status = 'approved', approved_at = $2::timestamptz
	WHERE id = $1::text
	RETURNING `+terminationColumns, id, at))
	if err != nil {
		return types.TerminationRequest{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return types.TerminationRequest{}, err
	}
	return t, nil
}

// lockPending locks one row of table and requires it to be pending. table
// never comes from request input.
func lockPending(ctx context.Context, tx pgx.Tx, table string, id string, label string) error {
	var status string
	err := tx.QueryRow(ctx, `SELECT status FROM `+table+` WHERE id = $1::text FOR UPDATE`, id).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return httperr.NewNotFound(label + " not found")
		}
		return err
	}
	if types.ApprovalStatus(status) != types.StatusPending {
		return httperr.NewConflict(label + " is already " + status)
	}
	return nil
}
