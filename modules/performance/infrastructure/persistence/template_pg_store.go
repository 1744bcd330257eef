package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jacksonlee411/peopleops/modules/performance/domain/ports"
	"github.com/jacksonlee411/peopleops/modules/performance/domain/types"
	"github.com/jacksonlee411/peopleops/pkg/httperr"
	"github.com/jacksonlee411/peopleops/pkg/pgerr"
)

type TemplatePGStore struct {
	pool pgBeginner
}

func NewTemplatePGStore(pool pgBeginner) ports.TemplateStore {
	return &TemplatePGStore{pool: pool}
}

const templateColumns = `id, name, rating_scale_min, rating_scale_max, criteria, created_at`

func scanTemplate(row pgx.Row) (types.Template, error) {
	var (
		t        types.Template
		criteria []byte
	)
	if err := row.Scan(&t.ID, &t.Name, &t.RatingScaleMin, &t.RatingScaleMax, &criteria, &t.CreatedAt); err != nil {
		return types.Template{}, err
	}
	t.Criteria = []types.Criterion{}
	if len(criteria) > 0 {
		if err := json.Unmarshal(criteria, &t.Criteria); err != nil {
			return types.Template{}, fmt.Errorf("decode criteria: %w", err)
		}
	}
	return t, nil
}

func (s *TemplatePGStore) InsertTemplate(ctx context.Context, t types.Template) error {
	criteria, err := json.Marshal(t.Criteria)
	if err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	if _, err := tx.Exec(ctx, `
	INSERT INTO appraisal_templates (id, name, rating_scale_min, rating_scale_max, criteria, created_at)
	VALUES ($1::text, $2::text, $3::int, $4::int, $5::jsonb, $6::timestamptz)
	`, t.ID, t.Name, t.RatingScaleMin, t.RatingScaleMax, criteria, nowOr(t.CreatedAt)); err != nil {
		return pgerr.Translate(err)
	}
	return tx.Commit(ctx)
}

func (s *TemplatePGStore) GetTemplate(ctx context.Context, id string) (types.Template, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return types.Template{}, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	t, err := scanTemplate(tx.QueryRow(ctx, `
	SELECT `+templateColumns+`
	FROM appraisal_templates
	WHERE id = $1::text
	`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.Template{}, httperr.NewNotFound("appraisal template not found")
		}
		return types.Template{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return types.Template{}, err
	}
	return t, nil
}

func (s *TemplatePGStore) ListTemplates(ctx context.Context) ([]types.Template, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	rows, err := tx.Query(ctx, `
	SELECT `+templateColumns+`
	FROM appraisal_templates
	ORDER BY created_at DESC, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.Template
	for rows.Next() {
		t, err := scanTemplate(rows)
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
