package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jacksonlee411/peopleops/modules/performance/domain/ports"
	"github.com/jacksonlee411/peopleops/modules/performance/domain/types"
)

type pgBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

const recordColumns = `id, employee_id, template_id, manager_id, ratings, minimum_score, status, published_at, created_at, updated_at`

func scanRecord(row pgx.Row) (types.AppraisalRecord, error) {
	var (
		rec     types.AppraisalRecord
		ratings []byte
		status  string
	)
	if err := row.Scan(&rec.ID, &rec.EmployeeID, &rec.TemplateID, &rec.ManagerID, &ratings, &rec.MinimumScore, &status, &rec.PublishedAt, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return types.AppraisalRecord{}, err
	}
	rec.Status = types.RecordStatus(status)
	rec.Ratings = []types.Rating{}
	if len(ratings) > 0 {
		if err := json.Unmarshal(ratings, &rec.Ratings); err != nil {
			return types.AppraisalRecord{}, fmt.Errorf("decode ratings: %w", err)
		}
	}
	return rec, nil
}

// settleMinimumScore counts the employee's published minimum-score records
// after rec changed and applies the suspension decision in tx. The employee
// row is locked first so concurrent publishes for one employee see each
// other's counts.
func settleMinimumScore(ctx context.Context, tx pgx.Tx, rec types.AppraisalRecord, wasMinimum bool, decide ports.SuspendDecision) (types.MinimumScoreOutcome, error) {
	out := types.MinimumScoreOutcome{Record: rec, WasMinimum: wasMinimum}

	if _, err := tx.Exec(ctx, `SELECT 1 FROM employees WHERE id = $1::text FOR UPDATE`, rec.EmployeeID); err != nil {
		return types.MinimumScoreOutcome{}, err
	}
	if err := tx.QueryRow(ctx, `
	SELECT count(*)
	FROM appraisal_records
	WHERE employee_id = $1::text
	  AND status = 'HR_PUBLISHED'
	  AND minimum_score
	`, rec.EmployeeID).Scan(&out.MinimumCount); err != nil {
		return types.MinimumScoreOutcome{}, err
	}

	if decide == nil || !decide(out) {
		return out, nil
	}
	if _, err := tx.Exec(ctx, `
	UPDATE employees
	SET status = 'SUSPENDED', updated_at = now()
	WHERE id = $1::text
	`, rec.EmployeeID); err != nil {
		return types.MinimumScoreOutcome{}, err
	}
	out.Suspended = true
	return out, nil
}

func nowOr(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}
