package persistence

import (
	"context"
	"time"

	"github.com/jacksonlee411/peopleops/modules/payroll/domain/ports"
	"github.com/jacksonlee411/peopleops/modules/payroll/domain/types"
)

// HRRecordPGSource reads the approved signing bonus and termination rows
// owned by the lifecycle module.
type HRRecordPGSource struct {
	pool pgBeginner
}

func NewHRRecordPGSource(pool pgBeginner) ports.HRRecordSource {
	return &HRRecordPGSource{pool: pool}
}

func (s *HRRecordPGSource) ApprovedSigningBonuses(ctx context.Context, employeeID string, from time.Time, to time.Time) ([]types.SigningBonusRecord, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	rows, err := tx.Query(ctx, `
	SELECT id, amount::text, created_at
	FROM signing_bonuses
	WHERE employee_id = $1::text
	  AND status = 'approved'
	  AND created_at >= $2::timestamptz
	  AND created_at <= $3::timestamptz
	ORDER BY created_at, id
	`, employeeID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.SigningBonusRecord
	for rows.Next() {
		var r types.SigningBonusRecord
		var amount string
		if err := rows.Scan(&r.ID, &amount, &r.CreatedAt); err != nil {
			return nil, err
		}
		if r.Amount, err = parseMoney("signing bonus amount", amount); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *HRRecordPGSource) ApprovedTerminations(ctx context.Context, employeeID string, from time.Time, to time.Time) ([]types.TerminationRecord, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	rows, err := tx.Query(ctx, `
	SELECT id, type, reason, benefit_amount::text, created_at
	FROM termination_requests
	WHERE employee_id = $1::text
	  AND status = 'approved'
	  AND created_at >= $2::timestamptz
	  AND created_at <= $3::timestamptz
	ORDER BY created_at, id
	`, employeeID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.TerminationRecord
	for rows.Next() {
		var r types.TerminationRecord
		var benefit string
		if err := rows.Scan(&r.ID, &r.Type, &r.Reason, &benefit, &r.CreatedAt); err != nil {
			return nil, err
		}
		if r.BenefitAmount, err = parseMoney("termination benefit", benefit); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return out, nil
}
