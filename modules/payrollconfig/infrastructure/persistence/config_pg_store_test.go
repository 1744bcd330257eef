package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jacksonlee411/peopleops/modules/payrollconfig/domain/types"
	"github.com/jacksonlee411/peopleops/pkg/httperr"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
)

var recordCols = []string{"id", "kind", "name", "amount", "gross_amount", "rate_percent", "min_amount", "max_amount", "status", "created_by", "approved_by", "created_at", "updated_at"}

func TestConfigPGStore_Insert(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()
	now := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	upper := decimal.RequireFromString("10000")
	rec := types.Record{ID: "r1", Kind: types.KindInsuranceBracket, Name: "Social", RatePercent: decimal.RequireFromString("10.5"), MaxAmount: &upper, Status: types.StatusDraft, CreatedBy: "u1", CreatedAt: now}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO payroll_config_records").
		WithArgs("r1", "insurance_bracket", "Social", "0.00", "0.00", "10.5000", "0.00", "10000.00", "draft", "u1", now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()
	if err := NewConfigPGStore(mock).Insert(context.Background(), rec); err != nil {
		t.Fatalf("err=%v", err)
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO payroll_config_records").WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key"})
	mock.ExpectRollback()
	if err := NewConfigPGStore(mock).Insert(context.Background(), rec); !httperr.IsConflict(err) {
		t.Fatalf("err=%v", err)
	}
}

func TestConfigPGStore_GetAndList(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()
	store := NewConfigPGStore(mock)
	now := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	upper := "5000.00"
	var noMax *string

	mock.ExpectBegin()
	mock.ExpectQuery("FROM payroll_config_records").
		WithArgs("allowance", "approved").
		WillReturnRows(pgxmock.NewRows(recordCols).
			AddRow("r1", "allowance", "Meal", "100.00", "0.00", "0.0000", "0.00", noMax, "approved", "u1", "u2", now, now).
			AddRow("r2", "allowance", "Travel", "50.00", "0.00", "0.0000", "0.00", &upper, "approved", "u1", "u2", now, now))
	mock.ExpectCommit()

	got, err := store.List(context.Background(), types.KindAllowance, types.StatusApproved)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(got) != 2 || got[0].MaxAmount != nil || got[1].MaxAmount == nil || !got[0].Amount.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("got=%+v", got)
	}

	mock.ExpectBegin()
	mock.ExpectQuery("FROM payroll_config_records").WithArgs("missing").WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()
	if _, err := store.Get(context.Background(), "missing"); !httperr.IsNotFound(err) {
		t.Fatalf("err=%v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestConfigPGStore_UpdateNoLongerDraft(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE payroll_config_records").WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	_, err = NewConfigPGStore(mock).Update(context.Background(), types.Record{ID: "r1", Name: "Meal"})
	if !httperr.IsForbidden(err) {
		t.Fatalf("err=%v", err)
	}
}

func TestConfigPGStore_SetStatus(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()
	store := NewConfigPGStore(mock)
	now := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	var noMax *string

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status").WithArgs("r1").WillReturnRows(pgxmock.NewRows([]string{"status"}).AddRow("draft"))
	mock.ExpectQuery("UPDATE payroll_config_records").
		WithArgs("r1", "approved", "u2").
		WillReturnRows(pgxmock.NewRows(recordCols).AddRow("r1", "tax_rule", "Band 1", "0.00", "0.00", "10.0000", "0.00", noMax, "approved", "u1", "u2", now, now))
	mock.ExpectCommit()

	rec, err := store.SetStatus(context.Background(), "r1", types.StatusDraft, types.StatusApproved, "u2")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if rec.Status != types.StatusApproved || rec.ApprovedBy != "u2" {
		t.Fatalf("rec=%+v", rec)
	}

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status").WithArgs("r1").WillReturnRows(pgxmock.NewRows([]string{"status"}).AddRow("approved"))
	mock.ExpectRollback()
	if _, err := store.SetStatus(context.Background(), "r1", types.StatusDraft, types.StatusRejected, "u2"); !httperr.IsForbidden(err) {
		t.Fatalf("err=%v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
