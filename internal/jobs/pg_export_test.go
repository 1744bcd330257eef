package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func TestPGTableSource_ExportTables(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	src := NewPGTableSource(mock)
	src.tables = []string{"employees", "payroll_runs"}

	mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	mock.ExpectQuery(`FROM "employees" t`).WillReturnRows(pgxmock.NewRows([]string{"rows"}).AddRow([]byte(`[{"id":"e1"}]`)))
	mock.ExpectQuery(`FROM "payroll_runs" t`).WillReturnRows(pgxmock.NewRows([]string{"rows"}).AddRow([]byte(`[]`)))
	mock.ExpectCommit()

	out, err := src.ExportTables(context.Background())
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if string(out["employees"]) != `[{"id":"e1"}]` || string(out["payroll_runs"]) != `[]` {
		t.Fatalf("out=%v", out)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGTableSource_ExportError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	src := NewPGTableSource(mock)
	src.tables = []string{"employees"}

	mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	mock.ExpectQuery(`FROM "employees" t`).WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	if _, err := src.ExportTables(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestBackupTablesCoverSchema(t *testing.T) {
	if len(BackupTables) == 0 || BackupTables[0] != "employees" {
		t.Fatalf("tables=%v", BackupTables)
	}
}
