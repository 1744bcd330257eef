package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/jacksonlee411/peopleops/modules/performance/domain/types"
	"github.com/jacksonlee411/peopleops/pkg/httperr"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

var recordCols = []string{"id", "employee_id", "template_id", "manager_id", "ratings", "minimum_score", "status", "published_at", "created_at", "updated_at"}

func TestRecordPGStore_PublishSuspendsWhenDecided(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()
	at := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	ratings := []byte(`[{"criterionKey":"quality","category":"SKILLS","score":1}]`)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status, minimum_score").WithArgs("r3").
		WillReturnRows(pgxmock.NewRows([]string{"status", "minimum_score"}).AddRow("MANAGER_SUBMITTED", false))
	mock.ExpectQuery("UPDATE appraisal_records").WithArgs("r3", true, at).
		WillReturnRows(pgxmock.NewRows(recordCols).AddRow("r3", "e1", "t1", "m1", ratings, true, "HR_PUBLISHED", &at, at, at))
	mock.ExpectExec("SELECT 1 FROM employees").WithArgs("e1").WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectQuery("SELECT count").WithArgs("e1").WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectExec("UPDATE employees").WithArgs("e1").WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	var seen types.MinimumScoreOutcome
	out, err := NewRecordPGStore(mock).Publish(context.Background(), "r3", true, at, func(o types.MinimumScoreOutcome) bool {
		seen = o
		return o.MinimumCount == 3
	})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if !out.Suspended || out.MinimumCount != 3 || seen.WasMinimum {
		t.Fatalf("out=%+v seen=%+v", out, seen)
	}
	if len(out.Record.Ratings) != 1 || out.Record.Ratings[0].Score != 1 {
		t.Fatalf("ratings=%+v", out.Record.Ratings)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRecordPGStore_PublishNoSuspension(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()
	at := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status, minimum_score").WithArgs("r2").
		WillReturnRows(pgxmock.NewRows([]string{"status", "minimum_score"}).AddRow("MANAGER_SUBMITTED", false))
	mock.ExpectQuery("UPDATE appraisal_records").WithArgs("r2", true, at).
		WillReturnRows(pgxmock.NewRows(recordCols).AddRow("r2", "e1", "t1", "m1", []byte(`[]`), true, "HR_PUBLISHED", &at, at, at))
	mock.ExpectExec("SELECT 1 FROM employees").WithArgs("e1").WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectQuery("SELECT count").WithArgs("e1").WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectCommit()

	out, err := NewRecordPGStore(mock).Publish(context.Background(), "r2", true, at, func(o types.MinimumScoreOutcome) bool { return o.MinimumCount == 3 })
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if out.Suspended || out.MinimumCount != 2 {
		t.Fatalf("out=%+v", out)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRecordPGStore_PublishWrongStatus(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status, minimum_score").WithArgs("r1").
		WillReturnRows(pgxmock.NewRows([]string{"status", "minimum_score"}).AddRow("DRAFT", false))
	mock.ExpectRollback()

	_, err = NewRecordPGStore(mock).Publish(context.Background(), "r1", false, time.Now(), nil)
	if !httperr.IsForbidden(err) {
		t.Fatalf("err=%v", err)
	}
}
