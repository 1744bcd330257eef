package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/jacksonlee411/peopleops/modules/payroll/domain/types"
	"github.com/jacksonlee411/peopleops/pkg/authz"
	"github.com/jacksonlee411/peopleops/pkg/httperr"
	"github.com/shopspring/decimal"
)

const (
	empA = "65f1c0a2b3d4e5f6010000a1"
	empB = "65f1c0a2b3d4e5f6010000b2"
	empC = "65f1c0a2b3d4e5f6010000c3"
)

type orchestratorFixture struct {
	orch    *DraftOrchestrator
	runs    *memRuns
	details *memDetails
	sink    *recordingSink
}

func newOrchestratorFixture(t *testing.T, employees []types.EligibleEmployee, hr memHR) orchestratorFixture {
	t.Helper()
	detector, err := NewRuleExceptionDetector(1.5)
	if err != nil {
		t.Fatal(err)
	}
	runs := newMemRuns()
	details := &memDetails{runs: runs, failFor: map[string]bool{}}
	sink := &recordingSink{}
	seq := 0
	orch := &DraftOrchestrator{
		Employees: memEmployees{all: employees},
		Inference: HREventInference{Records: hr},
		Detector:  detector,
		Config:    memConfig{},
		Runs:      runs,
		Details:   details,
		Sink:      sink,
		NowUTC:    func() time.Time { return time.UnixMilli(1764460800123).UTC() },
		NewDetailID: func() string {
			seq++
			return fmt.Sprintf("detail%02d", seq)
		},
	}
	return orchestratorFixture{orch: orch, runs: runs, details: details, sink: sink}
}

func TestGenerateDraft_NewHireScenario(t *testing.T) {
	employees := []types.EligibleEmployee{{
		ID:         empA,
		FirstName:  "Ada",
		LastName:   "Lovelace",
		BankStatus: types.BankStatusValid,
		PayGrade:   &types.PayGrade{ID: "g1", GrossSalary: dec("5000")},
	}}
	hr := memHR{bonuses: map[string][]types.SigningBonusRecord{
		empA: {{ID: "b1", Amount: dec("500"), CreatedAt: time.Date(2025, 11, 12, 10, 0, 0, 0, time.UTC)}},
	}}
	f := newOrchestratorFixture(t, employees, hr)

	res, err := f.orch.GenerateDraft(context.Background(), types.DraftRequest{
		Period: time.Date(2025, 11, 30, 0, 0, 0, 0, time.UTC),
		Entity: "TestCo",
	})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if res.Status != types.DraftStatusCreated || res.Run == nil {
		t.Fatalf("res=%+v", res)
	}
	if res.Run.Employees != 1 || res.Totals.Employees != 1 {
		t.Fatalf("employees=%d", res.Run.Employees)
	}
	if len(res.Employees) != 1 || !reflect.DeepEqual(res.Employees[0].HREvents, []types.HREvent{types.HREventNewHire}) {
		t.Fatalf("employees=%+v", res.Employees)
	}
	if res.Run.RunID != "PR-2025-11-1764460800123" {
		t.Fatalf("runId=%s", res.Run.RunID)
	}
	if !res.Employees[0].NetPay.Equal(dec("5500")) {
		t.Fatalf("netPay=%s", res.Employees[0].NetPay)
	}

	stored, err := f.runs.GetRun(context.Background(), res.Run.RunID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != types.RunStatusDraft || stored.Employees != 1 || stored.Exceptions != 1 {
		t.Fatalf("stored=%+v", stored)
	}
	if got := f.details.rows[0].ExceptionsText(); got != "New hire: verify prorated salary and signing bonus" {
		t.Fatalf("exceptions=%q", got)
	}
}

func TestGenerateDraft_TotalsMatchPersistedRows(t *testing.T) {
	employees := []types.EligibleEmployee{
		{ID: empA, BankStatus: types.BankStatusValid, PayGrade: &types.PayGrade{GrossSalary: dec("1000.005")}},
		{ID: empB, BankStatus: types.BankStatusMissing, PayGrade: &types.PayGrade{GrossSalary: dec("2000.004")}},
		{ID: empC, BankStatus: types.BankStatusValid, PayGrade: &types.PayGrade{GrossSalary: dec("3000")}},
	}
	f := newOrchestratorFixture(t, employees, memHR{})

	res, err := f.orch.GenerateDraft(context.Background(), types.DraftRequest{Period: time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), Entity: "TestCo"})
	if err != nil {
		t.Fatalf("err=%v", err)
	}

	persisted, _ := f.details.ListDetails(context.Background(), res.Run.RunID, "", false)
	if res.Totals.Employees != len(persisted) || res.Run.Employees != len(persisted) {
		t.Fatalf("employees=%d persisted=%d", res.Totals.Employees, len(persisted))
	}
	sum := decimal.Zero
	exceptions := 0
	for _, d := range persisted {
		sum = sum.Add(d.NetPay)
		exceptions += len(d.Exceptions)
	}
	if !res.Totals.TotalNetPay.Equal(sum.Round(2)) {
		t.Fatalf("total=%s sum=%s", res.Totals.TotalNetPay, sum)
	}
	if res.Totals.Exceptions != exceptions || exceptions != 1 {
		t.Fatalf("exceptions=%d counted=%d", res.Totals.Exceptions, exceptions)
	}
}

func TestGenerateDraft_IsolatesEmployeeFailures(t *testing.T) {
	employees := []types.EligibleEmployee{
		{ID: empA, BankStatus: types.BankStatusValid, PayGrade: &types.PayGrade{GrossSalary: dec("1000")}},
		{ID: empB, BankStatus: types.BankStatusValid, PayGrade: &types.PayGrade{GrossSalary: dec("2000")}},
		{ID: empC, BankStatus: types.BankStatusValid, PayGrade: &types.PayGrade{GrossSalary: dec("3000")}},
	}
	f := newOrchestratorFixture(t, employees, memHR{failFor: map[string]bool{empA: true}})
	f.details.failFor[empC] = true

	res, err := f.orch.GenerateDraft(context.Background(), types.DraftRequest{Period: time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), Entity: "TestCo"})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(res.Failures) != 2 {
		t.Fatalf("failures=%+v", res.Failures)
	}
	if res.Failures[0].EmployeeID != empA || res.Failures[0].Step != stepInferEvents {
		t.Fatalf("failure[0]=%+v", res.Failures[0])
	}
	if res.Failures[1].EmployeeID != empC || res.Failures[1].Step != stepPersistDetail {
		t.Fatalf("failure[1]=%+v", res.Failures[1])
	}
	if res.Run.Employees != 1 || !res.Run.TotalNetPay.Equal(dec("2000")) {
		t.Fatalf("run=%+v", res.Run)
	}
}

func TestGenerateDraft_NoEmployees(t *testing.T) {
	f := newOrchestratorFixture(t, []types.EligibleEmployee{{ID: empA}}, memHR{})

	res, err := f.orch.GenerateDraft(context.Background(), types.DraftRequest{Period: time.Now(), Entity: "TestCo"})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if res.Status != types.DraftStatusNoEmployees || res.Run != nil {
		t.Fatalf("res=%+v", res)
	}
	if len(f.runs.runs) != 0 {
		t.Fatalf("runs=%d", len(f.runs.runs))
	}

	res, err = f.orch.GenerateDraft(context.Background(), types.DraftRequest{Period: time.Now(), Entity: "TestCo", EmployeeIDs: []string{empB}})
	if err != nil || res.Status != types.DraftStatusNoEmployees {
		t.Fatalf("res=%+v err=%v", res, err)
	}
}

func TestGenerateDraft_ExplicitSubsetFlagsMissingPayGrade(t *testing.T) {
	f := newOrchestratorFixture(t, []types.EligibleEmployee{{ID: empA, BankStatus: types.BankStatusValid}}, memHR{})

	res, err := f.orch.GenerateDraft(context.Background(), types.DraftRequest{
		Period:      time.Date(2025, 11, 30, 0, 0, 0, 0, time.UTC),
		Entity:      "TestCo",
		EmployeeIDs: []string{empA, " " + empA},
	})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if res.Run.Employees != 1 || len(res.Employees[0].Exceptions) != 1 || res.Employees[0].Exceptions[0] != "Missing pay grade" {
		t.Fatalf("res=%+v", res)
	}
}

func TestGenerateDraft_Validation(t *testing.T) {
	f := newOrchestratorFixture(t, nil, memHR{})
	cases := []types.DraftRequest{
		{Period: time.Now(), Entity: "  "},
		{Entity: "TestCo"},
		{Period: time.Now(), Entity: "TestCo", EmployeeIDs: []string{"nope"}},
	}
	for _, req := range cases {
		if _, err := f.orch.GenerateDraft(context.Background(), req); !httperr.IsBadRequest(err) {
			t.Fatalf("req=%+v err=%v", req, err)
		}
	}

	f.orch.Employees = memEmployees{err: errors.New("db down")}
	if _, err := f.orch.GenerateDraft(context.Background(), types.DraftRequest{Period: time.Now(), Entity: "TestCo"}); err == nil || httperr.IsBadRequest(err) {
		t.Fatalf("err=%v", err)
	}
}

func TestPayrollRunReads_Idempotent(t *testing.T) {
	employees := []types.EligibleEmployee{{ID: empA, BankStatus: types.BankStatusValid, PayGrade: &types.PayGrade{GrossSalary: dec("1000")}}}
	f := newOrchestratorFixture(t, employees, memHR{})
	res, err := f.orch.GenerateDraft(context.Background(), types.DraftRequest{Period: time.Date(2025, 11, 30, 0, 0, 0, 0, time.UTC), Entity: "TestCo"})
	if err != nil {
		t.Fatal(err)
	}

	all1, _ := f.orch.GetAllPayrollRuns(context.Background())
	all2, _ := f.orch.GetAllPayrollRuns(context.Background())
	if !reflect.DeepEqual(all1, all2) || len(all1) != 1 {
		t.Fatalf("all1=%+v all2=%+v", all1, all2)
	}
	one1, err := f.orch.GetPayrollRunByID(context.Background(), res.Run.RunID)
	if err != nil {
		t.Fatal(err)
	}
	one2, _ := f.orch.GetPayrollRunByID(context.Background(), res.Run.RunID)
	if !reflect.DeepEqual(one1, one2) {
		t.Fatalf("one1=%+v one2=%+v", one1, one2)
	}

	if _, err := f.orch.GetPayrollRunByID(context.Background(), "PR-missing"); !httperr.IsNotFound(err) {
		t.Fatalf("err=%v", err)
	}

	emps, err := f.orch.GetRunEmployees(context.Background(), res.Run.RunID, true)
	if err != nil || len(emps) != 0 {
		t.Fatalf("emps=%+v err=%v", emps, err)
	}
	emps, _ = f.orch.GetRunEmployees(context.Background(), res.Run.RunID, false)
	if len(emps) != 1 {
		t.Fatalf("emps=%+v", emps)
	}
}

func TestPublishRun(t *testing.T) {
	employees := []types.EligibleEmployee{{ID: empA, BankStatus: types.BankStatusValid, PayGrade: &types.PayGrade{GrossSalary: dec("1000")}}}
	f := newOrchestratorFixture(t, employees, memHR{})
	res, err := f.orch.GenerateDraft(context.Background(), types.DraftRequest{Period: time.Date(2025, 11, 30, 0, 0, 0, 0, time.UTC), Entity: "TestCo"})
	if err != nil {
		t.Fatal(err)
	}

	run, err := f.orch.PublishRun(context.Background(), res.Run.RunID)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if run.Status != types.RunStatusPublished {
		t.Fatalf("status=%s", run.Status)
	}
	if len(f.sink.targets) != 1 || !reflect.DeepEqual(f.sink.targets[0].Roles, []string{authz.RolePayrollManager, authz.RoleFinanceStaff}) {
		t.Fatalf("targets=%+v", f.sink.targets)
	}
	if !strings.Contains(f.sink.messages[0].Body, res.Run.RunID) {
		t.Fatalf("body=%q", f.sink.messages[0].Body)
	}

	if _, err := f.orch.PublishRun(context.Background(), res.Run.RunID); !httperr.IsForbidden(err) {
		t.Fatalf("err=%v", err)
	}
	if len(f.sink.targets) != 1 {
		t.Fatalf("targets=%d", len(f.sink.targets))
	}
}

func TestRunIDFormat(t *testing.T) {
	got := RunID(time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC), time.UnixMilli(42))
	if got != "PR-2025-03-42" {
		t.Fatalf("got=%s", got)
	}
}

func TestGenerateDraft_CancelledKeepsTotalsInStep(t *testing.T) {
	grade := &types.PayGrade{ID: "g1", GrossSalary: dec("5000")}
	employees := []types.EligibleEmployee{
		{ID: empA, FirstName: "A", BankStatus: types.BankStatusValid, PayGrade: grade},
		{ID: empB, FirstName: "B", BankStatus: types.BankStatusValid, PayGrade: grade},
		{ID: empC, FirstName: "C", BankStatus: types.BankStatusValid, PayGrade: grade},
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hr := memHR{onRead: func(employeeID string) {
		if employeeID == empB {
			cancel()
		}
	}}
	f := newOrchestratorFixture(t, employees, hr)

	_, err := f.orch.GenerateDraft(ctx, types.DraftRequest{
		Period: time.Date(2025, 11, 30, 0, 0, 0, 0, time.UTC),
		Entity: "TestCo",
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v", err)
	}
	if len(f.runs.runs) != 1 {
		t.Fatalf("runs=%d", len(f.runs.runs))
	}
	if f.runs.totalsCtxErr != nil {
		t.Fatalf("totals written with cancelled ctx: %v", f.runs.totalsCtxErr)
	}
	for _, run := range f.runs.runs {
		rows, _ := f.details.ListDetails(context.Background(), run.RunID, "", false)
		if len(rows) == 0 || run.Employees != len(rows) {
			t.Fatalf("run employees=%d rows=%d", run.Employees, len(rows))
		}
		want := decimal.Zero
		for _, d := range rows {
			want = want.Add(d.NetPay)
		}
		if !run.TotalNetPay.Equal(want) {
			t.Fatalf("totalNetPay=%s want=%s", run.TotalNetPay, want)
		}
	}
}
