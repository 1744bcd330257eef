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

type RecordPGStore struct {
	pool pgBeginner
}

func NewRecordPGStore(pool pgBeginner) ports.RecordStore {
	return &RecordPGStore{pool: pool}
}

func (s *RecordPGStore) InsertRecord(ctx context.Context, rec types.AppraisalRecord) error {
	ratings, err := json.Marshal(rec.Ratings)
	if err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	if _, err := tx.Exec(ctx, `
	INSERT INTO appraisal_records (id, employee_id, template_id, manager_id, ratings, minimum_score, status, created_at, updated_at)
	VALUES ($1::text, $2::text, $3::text, $4::text, $5::jsonb, $6::boolean, $7::text, $8::timestamptz, $8::timestamptz)
	`, rec.ID, rec.EmployeeID, rec.TemplateID, rec.ManagerID, ratings, rec.MinimumScore, string(rec.Status), nowOr(rec.CreatedAt)); err != nil {
		return pgerr.Translate(err)
	}
	return tx.Commit(ctx)
}

func (s *RecordPGStore) GetRecord(ctx context.Context, id string) (types.AppraisalRecord, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return types.AppraisalRecord{}, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	rec, err := scanRecord(tx.QueryRow(ctx, `
	SELECT `+recordColumns+`
	FROM appraisal_records
	WHERE id = $1::text
	`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.AppraisalRecord{}, httperr.NewNotFound("appraisal record not found")
		}
		return types.AppraisalRecord{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return types.AppraisalRecord{}, err
	}
	return rec, nil
}

func (s *RecordPGStore) ListRecords(ctx context.Context, employeeID string) ([]types.AppraisalRecord, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	rows, err := tx.Query(ctx, `
	SELECT `+recordColumns+`
	FROM appraisal_records
	WHERE ($1::text = '' OR employee_id = $1::text)
	ORDER BY created_at DESC, id
	`, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.AppraisalRecord
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

func lockRecordStatus(ctx context.Context, tx pgx.Tx, id string) (types.RecordStatus, bool, error) {
	var (
		status  string
		minimum bool
	)
	err := tx.QueryRow(ctx, `
	SELECT status, minimum_score
	FROM appraisal_records
	WHERE id = $1::text
	FOR UPDATE
	`, id).Scan(&status, &minimum)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, httperr.NewNotFound("appraisal record not found")
		}
		return "", false, err
	}
	return types.RecordStatus(status), minimum, nil
}

func (s *RecordPGStore) Transition(ctx context.Context, id string, from types.RecordStatus, to types.RecordStatus) (types.AppraisalRecord, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return types.AppraisalRecord{}, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	current, _, err := lockRecordStatus(ctx, tx, id)
	if err != nil {
		return types.AppraisalRecord{}, err
	}
	if current != from {
		return types.AppraisalRecord{}, httperr.NewForbidden("appraisal record is " + string(current) + ", expected " + string(from))
	}

	rec, err := scanRecord(tx.QueryRow(ctx, `
	UPDATE appraisal_records
	SET status = $2::text, updated_at = now()
	WHERE id = $1::text
	RETURNING `+recordColumns, id, string(to)))
	if err != nil {
		return types.AppraisalRecord{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return types.AppraisalRecord{}, err
	}
	return rec, nil
}

func (s *RecordPGStore) Publish(ctx context.Context, id string, minimumScore bool, at time.Time, decide ports.SuspendDecision) (types.MinimumScoreOutcome, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return types.MinimumScoreOutcome{}, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	current, _, err := lockRecordStatus(ctx, tx, id)
	if err != nil {
		return types.MinimumScoreOutcome{}, err
	}
	if current != types.RecordStatusManagerSubmitted {
		return types.MinimumScoreOutcome{}, httperr.NewForbidden("appraisal record is " + string(current) + "; only MANAGER_SUBMITTED records can be published")
	}

	rec, err := scanRecord(tx.QueryRow(ctx, `
	UPDATE appraisal_records
	SET status = 'HR_PUBLISHED', minimum_score = $2::boolean, published_at = $3::timestamptz, updated_at = $3::timestamptz
	WHERE id = $1::text
	RETURNING `+recordColumns, id, minimumScore, nowOr(at)))
	if err != nil {
		return types.MinimumScoreOutcome{}, err
	}

	out, err := settleMinimumScore(ctx, tx, rec, false, decide)
	if err != nil {
		return types.MinimumScoreOutcome{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return types.MinimumScoreOutcome{}, err
	}
	return out, nil
}
