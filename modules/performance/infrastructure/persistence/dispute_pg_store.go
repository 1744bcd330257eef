package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jacksonlee411/peopleops/modules/performance/domain/ports"
	"github.com/jacksonlee411/peopleops/modules/performance/domain/types"
	"github.com/jacksonlee411/peopleops/pkg/httperr"
	"github.com/jacksonlee411/peopleops/pkg/pgerr"
)

type DisputePGStore struct {
	pool pgBeginner
}

func NewDisputePGStore(pool pgBeginner) ports.DisputeStore {
	return &DisputePGStore{pool: pool}
}

const disputeColumns = `id, record_id, employee_id, reason, status, resolution_note, created_at, resolved_at`

func scanDispute(row pgx.Row) (types.Dispute, error) {
	var (
		d      types.Dispute
		status string
	)
	if err := row.Scan(&d.ID, &d.RecordID, &d.EmployeeID, &d.Reason, &status, &d.ResolutionNote, &d.CreatedAt, &d.ResolvedAt); err != nil {
		return types.Dispute{}, err
	}
	d.Status = types.DisputeStatus(status)
	return d, nil
}

func (s *DisputePGStore) InsertDispute(ctx context.Context, d types.Dispute) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	if _, err := tx.Exec(ctx, `
	INSERT INTO appraisal_disputes (id, record_id, employee_id, reason, status, created_at)
	VALUES ($1::text, $2::text, $3::text, $4::text, $5::text, $6::timestamptz)
	`, d.ID, d.RecordID, d.EmployeeID, d.Reason, string(d.Status), nowOr(d.CreatedAt)); err != nil {
		if pgerr.IsUniqueViolation(err) {
			return httperr.NewConflict("appraisal record already has an open dispute")
		}
		return pgerr.Translate(err)
	}
	return tx.Commit(ctx)
}

func (s *DisputePGStore) GetDispute(ctx context.Context, id string) (types.Dispute, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return types.Dispute{}, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	d, err := scanDispute(tx.QueryRow(ctx, `
	SELECT `+disputeColumns+`
	FROM appraisal_disputes
	WHERE id = $1::text
	`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.Dispute{}, httperr.NewNotFound("dispute not found")
		}
		return types.Dispute{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return types.Dispute{}, err
	}
	return d, nil
}

func (s *DisputePGStore) ListDisputes(ctx context.Context, status types.DisputeStatus) ([]types.Dispute, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	rows, err := tx.Query(ctx, `
	SELECT `+disputeColumns+`
	FROM appraisal_disputes
	WHERE ($1::text = '' OR status = $1::text)
	ORDER BY created_at DESC, id
	`, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.Dispute
	for rows.Next() {
		d, err := scanDispute(rows)
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

func (s *DisputePGStore) Resolve(ctx context.Context, id string, to types.DisputeStatus, note string, at time.Time, adj *types.RatingAdjustment, decide ports.SuspendDecision) (types.Dispute, *types.MinimumScoreOutcome, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return types.Dispute{}, nil, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	var current string
	err = tx.QueryRow(ctx, `
	SELECT status
	FROM appraisal_disputes
	WHERE id = $1::text
	FOR UPDATE
	`, id).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.Dispute{}, nil, httperr.NewNotFound("dispute not found")
		}
		return types.Dispute{}, nil, err
	}
	if types.DisputeStatus(current) != types.DisputeStatusOpen {
		return types.Dispute{}, nil, httperr.NewConflict("dispute is already " + current)
	}

	d, err := scanDispute(tx.QueryRow(ctx, `
	UPDATE appraisal_disputes
	SET status = $2::text, resolution_note = $3::text, resolved_at = $4::timestamptz
	WHERE id = $1::text
	RETURNING `+disputeColumns, id, string(to), note, nowOr(at)))
	if err != nil {
		return types.Dispute{}, nil, err
	}

	var outcome *types.MinimumScoreOutcome
	if adj != nil {
		_, wasMinimum, err := lockRecordStatus(ctx, tx, d.RecordID)
		if err != nil {
			return types.Dispute{}, nil, err
		}
		ratings, err := json.Marshal(adj.Ratings)
		if err != nil {
			return types.Dispute{}, nil, err
		}
		rec, err := scanRecord(tx.QueryRow(ctx, `
		UPDATE appraisal_records
		SET ratings = $2::jsonb, minimum_score = $3::boolean, updated_at = $4::timestamptz
		WHERE id = $1::text
		RETURNING `+recordColumns, d.RecordID, ratings, adj.MinimumScore, nowOr(at)))
		if err != nil {
			return types.Dispute{}, nil, err
		}
		out, err := settleMinimumScore(ctx, tx, rec, wasMinimum, decide)
		if err != nil {
			return types.Dispute{}, nil, err
		}
		outcome = &out
	}

	if err := tx.Commit(ctx); err != nil {
		return types.Dispute{}, nil, err
	}
	return d, outcome, nil
}
