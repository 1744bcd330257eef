package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// BackupTables lists what a backup contains, in restore order.
var BackupTables = []string{
	"employees",
	"employee_system_roles",
	"payroll_config_records",
	"signing_bonuses",
	"termination_requests",
	"payroll_runs",
	"employee_payroll_details",
	"appraisal_templates",
	"appraisal_records",
	"appraisal_disputes",
	"notifications",
}

type pgTxBeginner interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

type PGTableSource struct {
	pool   pgTxBeginner
	tables []string
}

func NewPGTableSource(pool pgTxBeginner) *PGTableSource {
	return &PGTableSource{pool: pool, tables: BackupTables}
}

// ExportTables reads every table inside one read-only repeatable-read
// transaction so the tables agree with each other.
func (s *PGTableSource) ExportTables(ctx context.Context) (map[string]json.RawMessage, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	out := make(map[string]json.RawMessage, len(s.tables))
	for _, table := range s.tables {
		var rows []byte
		if err := tx.QueryRow(ctx, `SELECT COALESCE(jsonb_agg(to_jsonb(t)), '[]'::jsonb) FROM `+pgx.Identifier{table}.Sanitize()+` t`).Scan(&rows); err != nil {
			return nil, fmt.Errorf("export %s: %w", table, err)
		}
		out[table] = json.RawMessage(rows)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return out, nil
}
