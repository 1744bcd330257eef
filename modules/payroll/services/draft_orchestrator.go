package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	notifports "github.com/jacksonlee411/peopleops/modules/notification/domain/ports"
	notiftypes "github.com/jacksonlee411/peopleops/modules/notification/domain/types"
	"github.com/jacksonlee411/peopleops/modules/payroll/domain/ports"
	"github.com/jacksonlee411/peopleops/modules/payroll/domain/types"
	"github.com/jacksonlee411/peopleops/pkg/authz"
	"github.com/jacksonlee411/peopleops/pkg/httperr"
	"github.com/jacksonlee411/peopleops/pkg/objectid"
	"github.com/jacksonlee411/peopleops/pkg/payroll/brackets"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	stepInferEvents      = "infer_events"
	stepCalculateSalary  = "calculate_salary"
	stepPreviousNetPay   = "previous_net_pay"
	stepDetectExceptions = "detect_exceptions"
	stepPersistDetail    = "persist_detail"
)

// DraftOrchestrator generates payroll draft runs. Employees are processed
// one at a time; a failing employee is reported and skipped.
type DraftOrchestrator struct {
	Employees  ports.EmployeeSource
	Inference  HREventInference
	Calculator SalaryCalculator
	Detector   ExceptionDetector
	Config     ports.ConfigSource
	History    ports.PreviousNetPay
	Runs       ports.RunStore
	Details    ports.DetailStore
	Sink       notifports.NotificationSink
	Logger     *zap.Logger

	NowUTC      func() time.Time
	NewDetailID func() string
}

func (o *DraftOrchestrator) now() time.Time {
	if o.NowUTC != nil {
		return o.NowUTC()
	}
	return time.Now().UTC()
}

func (o *DraftOrchestrator) newDetailID() string {
	if o.NewDetailID != nil {
		return o.NewDetailID()
	}
	return objectid.New()
}

func (o *DraftOrchestrator) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// RunID formats PR-<yyyy>-<MM>-<epochMillis>.
func RunID(period time.Time, now time.Time) string {
	p := period.UTC()
	return fmt.Sprintf("PR-%04d-%02d-%d", p.Year(), int(p.Month()), now.UnixMilli())
}

func (o *DraftOrchestrator) GenerateDraft(ctx context.Context, req types.DraftRequest) (types.DraftResult, error) {
	req.Entity = strings.TrimSpace(req.Entity)
	if req.Entity == "" {
		return types.DraftResult{}, httperr.NewBadRequest("entity is required")
	}
	if req.Period.IsZero() {
		return types.DraftResult{}, httperr.NewBadRequest("payrollPeriod is required")
	}
	ids, err := normalizeEmployeeIDs(req.EmployeeIDs)
	if err != nil {
		return types.DraftResult{}, err
	}

	var employees []types.EligibleEmployee
	if len(ids) > 0 {
		employees, err = o.Employees.ListActiveByIDs(ctx, ids)
	} else {
		employees, err = o.Employees.ListActive(ctx)
	}
	if err != nil {
		return types.DraftResult{}, fmt.Errorf("payroll: load employees: %w", err)
	}
	if len(employees) == 0 {
		return types.DraftResult{
			Status:    types.DraftStatusNoEmployees,
			Message:   "No employees found for payroll draft",
			Employees: []types.EmployeeOutcome{},
			Failures:  []types.EmployeeFailure{},
			Totals:    types.DraftTotals{TotalNetPay: decimal.Zero},
		}, nil
	}

	cfg, err := o.Config.Snapshot(ctx)
	if err != nil {
		return types.DraftResult{}, fmt.Errorf("payroll: load configuration: %w", err)
	}

	now := o.now()
	period := time.Date(req.Period.UTC().Year(), req.Period.UTC().Month(), req.Period.UTC().Day(), 0, 0, 0, 0, time.UTC)
	run := types.PayrollRun{
		RunID:         RunID(period, now),
		Period:        period,
		Entity:        req.Entity,
		Status:        types.RunStatusDraft,
		TotalNetPay:   decimal.Zero,
		PaymentStatus: types.PaymentStatusPending,
		CreatedBy:     req.CreatedBy,
		CreatedAt:     now,
	}
	if err := o.Runs.CreateRun(ctx, run); err != nil {
		return types.DraftResult{}, fmt.Errorf("payroll: create run: %w", err)
	}

	result := types.DraftResult{
		Status:    types.DraftStatusCreated,
		Employees: []types.EmployeeOutcome{},
		Failures:  []types.EmployeeFailure{},
	}
	total := decimal.Zero
	for _, emp := range employees {
		if err := ctx.Err(); err != nil {
			result.Totals.TotalNetPay = brackets.Round2(total)
			if terr := o.saveTotals(ctx, run.RunID, result.Totals); terr != nil {
				return types.DraftResult{}, errors.Join(err, terr)
			}
			o.logger().Warn("payroll draft aborted",
				zap.String("run_id", run.RunID),
				zap.Int("employees", result.Totals.Employees),
				zap.Error(err),
			)
			return types.DraftResult{}, err
		}
		outcome, detail, failure := o.processEmployee(ctx, run, emp, cfg)
		if failure != nil {
			o.logger().Warn("payroll draft employee failed",
				zap.String("run_id", run.RunID),
				zap.String("employee_id", emp.ID),
				zap.String("step", failure.Step),
				zap.String("error", failure.Error),
			)
			result.Failures = append(result.Failures, *failure)
			continue
		}
		result.Employees = append(result.Employees, outcome)
		result.Totals.Employees++
		result.Totals.Exceptions += len(detail.Exceptions)
		total = total.Add(detail.NetPay)
	}
	result.Totals.TotalNetPay = brackets.Round2(total)

	if err := o.saveTotals(ctx, run.RunID, result.Totals); err != nil {
		return types.DraftResult{}, err
	}
	run.Employees = result.Totals.Employees
	run.Exceptions = result.Totals.Exceptions
	run.TotalNetPay = result.Totals.TotalNetPay
	result.Run = &run

	o.logger().Info("payroll draft generated",
		zap.String("run_id", run.RunID),
		zap.Int("employees", run.Employees),
		zap.Int("exceptions", run.Exceptions),
		zap.Int("failures", len(result.Failures)),
	)
	return result, nil
}

// saveTotals writes the run's totals for the details persisted so far. The
// run row already exists, so the write must outlive a cancelled request.
func (o *DraftOrchestrator) saveTotals(ctx context.Context, runID string, t types.DraftTotals) error {
	if err := o.Runs.UpdateRunTotals(context.WithoutCancel(ctx), runID, t.Employees, t.Exceptions, t.TotalNetPay); err != nil {
		return fmt.Errorf("payroll: update run totals: %w", err)
	}
	return nil
}

func (o *DraftOrchestrator) processEmployee(ctx context.Context, run types.PayrollRun, emp types.EligibleEmployee, cfg types.ConfigSnapshot) (types.EmployeeOutcome, types.EmployeePayrollDetail, *types.EmployeeFailure) {
	fail := func(step string, err error) (types.EmployeeOutcome, types.EmployeePayrollDetail, *types.EmployeeFailure) {
		return types.EmployeeOutcome{}, types.EmployeePayrollDetail{}, &types.EmployeeFailure{EmployeeID: emp.ID, Step: step, Error: err.Error()}
	}

	inf, err := o.Inference.InferDetailed(ctx, emp.ID, run.Period)
	if err != nil {
		return fail(stepInferEvents, err)
	}

	salary, err := o.Calculator.Calculate(emp, inf, cfg)
	if err != nil {
		return fail(stepCalculateSalary, err)
	}

	// Detection uses its own gross figure, independent of the calculator's.
	gross := salary.BaseSalary.Add(salary.Allowances).Add(salary.Bonus).Add(salary.Benefit)

	in := DetectionInput{
		GrossSalary: gross,
		NetSalary:   salary.NetSalary,
		NetPay:      salary.NetPay,
		Deductions:  salary.Deductions,
		Bonus:       salary.Bonus,
		Benefit:     salary.Benefit,
		HasPayGrade: emp.PayGrade != nil,
		BankStatus:  emp.BankStatus,
		HREvents:    inf.Events,
	}
	if o.History != nil {
		prev, ok, err := o.History.PreviousNetPay(ctx, emp.ID, run.Period)
		if err != nil {
			return fail(stepPreviousNetPay, err)
		}
		in.PreviousNetPay, in.HasPrevious = prev, ok
	}
	descs, err := o.Detector.Detect(ctx, in)
	if err != nil {
		return fail(stepDetectExceptions, err)
	}

	detailID := o.newDetailID()
	detail := types.EmployeePayrollDetail{
		ID:          detailID,
		RunID:       run.RunID,
		EmployeeID:  emp.ID,
		BaseSalary:  salary.BaseSalary,
		Allowances:  salary.Allowances,
		Deductions:  salary.Deductions,
		Tax:         salary.Tax,
		Insurance:   salary.Insurance,
		Bonus:       salary.Bonus,
		Benefit:     salary.Benefit,
		GrossSalary: salary.GrossSalary,
		NetSalary:   salary.NetSalary,
		NetPay:      salary.NetPay,
		BankStatus:  emp.BankStatus,
		HREvents:    inf.Events,
		Exceptions:  BuildExceptions(detailID, run.RunID, emp.ID, descs, 0),
	}
	if err := o.Details.InsertDetail(ctx, detail); err != nil {
		return fail(stepPersistDetail, err)
	}

	return types.EmployeeOutcome{
		EmployeeID: emp.ID,
		Name:       strings.TrimSpace(emp.FirstName + " " + emp.LastName),
		HREvents:   inf.Events,
		NetPay:     salary.NetPay,
		Exceptions: descs,
	}, detail, nil
}

func (o *DraftOrchestrator) GetAllPayrollRuns(ctx context.Context) ([]types.PayrollRun, error) {
	return o.Runs.ListRuns(ctx)
}

func (o *DraftOrchestrator) GetPayrollRunByID(ctx context.Context, runID string) (types.PayrollRun, error) {
	if strings.TrimSpace(runID) == "" {
		return types.PayrollRun{}, httperr.NewBadRequest("runId is required")
	}
	return o.Runs.GetRun(ctx, runID)
}

func (o *DraftOrchestrator) GetRunEmployees(ctx context.Context, runID string, onlyExceptions bool) ([]types.EmployeePayrollDetail, error) {
	if _, err := o.GetPayrollRunByID(ctx, runID); err != nil {
		return nil, err
	}
	return o.Details.ListDetails(ctx, runID, "", onlyExceptions)
}

// PublishRun moves a draft run to PUBLISHED and tells payroll managers and
// finance staff.
func (o *DraftOrchestrator) PublishRun(ctx context.Context, runID string) (types.PayrollRun, error) {
	if strings.TrimSpace(runID) == "" {
		return types.PayrollRun{}, httperr.NewBadRequest("runId is required")
	}
	run, err := o.Runs.SetRunStatus(ctx, runID, types.RunStatusDraft, types.RunStatusPublished)
	if err != nil {
		return types.PayrollRun{}, err
	}
	if o.Sink != nil {
		o.Sink.Notify(ctx, notiftypes.Target{Roles: []string{authz.RolePayrollManager, authz.RoleFinanceStaff}}, notiftypes.Message{
			Type:  notiftypes.TypePayrollRunPublished,
			Title: "Payroll run published",
			Body:  fmt.Sprintf("Payroll run %s for %s (%s) was published with %d employees.", run.RunID, run.Entity, run.Period.Format("2006-01"), run.Employees),
		})
	}
	return run, nil
}

func normalizeEmployeeIDs(in []string) ([]string, error) {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, id := range in {
		id = strings.TrimSpace(id)
		if err := objectid.Require("employeeId", id); err != nil {
			return nil, err
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}
