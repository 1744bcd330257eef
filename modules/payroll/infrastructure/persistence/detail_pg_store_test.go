package persistence

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jacksonlee411/peopleops/modules/payroll/domain/types"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
)

var detailCols = []string{
	"id", "run_id", "employee_id",
	"base_salary", "allowances", "deductions", "tax", "insurance",
	"bonus", "benefit", "gross_salary", "net_salary", "net_pay",
	"bank_status", "hr_events", "exceptions",
}

func TestDetailPGStore_ListDetails(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	exceptions, _ := json.Marshal([]types.PayrollException{{ID: "d1-0", Type: types.ExceptionMissingBank, Severity: types.SeverityHigh, Description: "Missing bank details"}})
	mock.ExpectBegin()
	mock.ExpectQuery("FROM employee_payroll_details").
		WithArgs("PR-1", "", true).
		WillReturnRows(pgxmock.NewRows(detailCols).AddRow(
			"d1", "PR-1", "e1",
			"5000.00", "0.00", "0.00", "0.00", "0.00",
			"500.00", "0.00", "5500.00", "5500.00", "5500.00",
			"missing", []string{"NEW_HIRE"}, exceptions,
		))
	mock.ExpectCommit()

	got, err := NewDetailPGStore(mock).ListDetails(context.Background(), "PR-1", "", true)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got=%+v", got)
	}
	d := got[0]
	if !d.NetPay.Equal(decimal.RequireFromString("5500")) || !d.Bonus.Equal(decimal.RequireFromString("500")) {
		t.Fatalf("d=%+v", d)
	}
	if len(d.HREvents) != 1 || d.HREvents[0] != types.HREventNewHire {
		t.Fatalf("events=%v", d.HREvents)
	}
	if d.ExceptionsText() != "Missing bank details" {
		t.Fatalf("text=%q", d.ExceptionsText())
	}
}

func TestDetailPGStore_ReplaceExceptions(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()
	store := NewDetailPGStore(mock)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE employee_payroll_details").
		WithArgs("PR-1", "e1", []byte("[]")).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE payroll_runs").WithArgs("PR-1").WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	matched, err := store.ReplaceExceptions(context.Background(), "PR-1", "e1", nil)
	if err != nil || !matched {
		t.Fatalf("matched=%v err=%v", matched, err)
	}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE employee_payroll_details").WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	matched, err = store.ReplaceExceptions(context.Background(), "PR-1", "e9", nil)
	if err != nil || matched {
		t.Fatalf("matched=%v err=%v", matched, err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDetailPGStore_PreviousNetPay(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()
	store := NewDetailPGStore(mock)
	before := time.Date(2025, 11, 30, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT d.net_pay").
		WithArgs("e1", before).
		WillReturnRows(pgxmock.NewRows([]string{"net_pay"}).AddRow("4200.50"))
	mock.ExpectCommit()

	v, ok, err := store.PreviousNetPay(context.Background(), "e1", before)
	if err != nil || !ok || !v.Equal(decimal.RequireFromString("4200.5")) {
		t.Fatalf("v=%s ok=%v err=%v", v, ok, err)
	}

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT d.net_pay").WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	_, ok, err = store.PreviousNetPay(context.Background(), "e2", before)
	if err != nil || ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
}
