package services

import (
	"context"
	"errors"
	"sort"
	"time"

	notiftypes "github.com/jacksonlee411/peopleops/modules/notification/domain/types"
	"github.com/jacksonlee411/peopleops/modules/payroll/domain/types"
	"github.com/jacksonlee411/peopleops/pkg/httperr"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type memEmployees struct {
	all []types.EligibleEmployee
	err error
}

func (m memEmployees) ListActive(context.Context) ([]types.EligibleEmployee, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []types.EligibleEmployee
	for _, e := range m.all {
		if e.PayGrade != nil {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m memEmployees) ListActiveByIDs(_ context.Context, ids []string) ([]types.EligibleEmployee, error) {
	if m.err != nil {
		return nil, m.err
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []types.EligibleEmployee
	for _, e := range m.all {
		if want[e.ID] {
			out = append(out, e)
		}
	}
	return out, nil
}

type memHR struct {
	bonuses map[string][]types.SigningBonusRecord
	terms   map[string][]types.TerminationRecord
	failFor map[string]bool
	onRead  func(employeeID string)
}

func inRange(t, from, to time.Time) bool {
	return !t.Before(from) && !t.After(to)
}

func (m memHR) ApprovedSigningBonuses(_ context.Context, employeeID string, from, to time.Time) ([]types.SigningBonusRecord, error) {
	if m.onRead != nil {
		m.onRead(employeeID)
	}
	if m.failFor[employeeID] {
		return nil, errors.New("hr records unavailable")
	}
	var out []types.SigningBonusRecord
	for _, b := range m.bonuses[employeeID] {
		if inRange(b.CreatedAt, from, to) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m memHR) ApprovedTerminations(_ context.Context, employeeID string, from, to time.Time) ([]types.TerminationRecord, error) {
	var out []types.TerminationRecord
	for _, r := range m.terms[employeeID] {
		if inRange(r.CreatedAt, from, to) {
			out = append(out, r)
		}
	}
	return out, nil
}

type memConfig struct {
	snap types.ConfigSnapshot
	err  error
}

func (m memConfig) Snapshot(context.Context) (types.ConfigSnapshot, error) {
	return m.snap, m.err
}

type memRuns struct {
	runs map[string]types.PayrollRun

	totalsCtxErr error
}

func newMemRuns() *memRuns {
	return &memRuns{runs: make(map[string]types.PayrollRun)}
}

func (m *memRuns) CreateRun(_ context.Context, run types.PayrollRun) error {
	if _, ok := m.runs[run.RunID]; ok {
		return httperr.NewConflict("duplicate run")
	}
	m.runs[run.RunID] = run
	return nil
}

func (m *memRuns) UpdateRunTotals(ctx context.Context, runID string, employees, exceptions int, total decimal.Decimal) error {
	m.totalsCtxErr = ctx.Err()
	run, ok := m.runs[runID]
	if !ok {
		return httperr.NewNotFound("payroll run not found")
	}
	run.Employees, run.Exceptions, run.TotalNetPay = employees, exceptions, total
	m.runs[runID] = run
	return nil
}

func (m *memRuns) ListRuns(context.Context) ([]types.PayrollRun, error) {
	out := []types.PayrollRun{}
	for _, r := range m.runs {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RunID > out[j].RunID })
	return out, nil
}

func (m *memRuns) GetRun(_ context.Context, runID string) (types.PayrollRun, error) {
	run, ok := m.runs[runID]
	if !ok {
		return types.PayrollRun{}, httperr.NewNotFound("payroll run not found")
	}
	return run, nil
}

func (m *memRuns) SetRunStatus(_ context.Context, runID string, from, to types.RunStatus) (types.PayrollRun, error) {
	run, ok := m.runs[runID]
	if !ok {
		return types.PayrollRun{}, httperr.NewNotFound("payroll run not found")
	}
	if run.Status != from {
		return types.PayrollRun{}, httperr.NewForbidden("payroll run is " + string(run.Status))
	}
	run.Status = to
	m.runs[runID] = run
	return run, nil
}

type memDetails struct {
	rows    []types.EmployeePayrollDetail
	runs    *memRuns
	failFor map[string]bool
}

func (m *memDetails) InsertDetail(_ context.Context, d types.EmployeePayrollDetail) error {
	if m.failFor[d.EmployeeID] {
		return errors.New("insert failed")
	}
	m.rows = append(m.rows, d)
	return nil
}

func (m *memDetails) ListDetails(_ context.Context, runID, employeeID string, onlyExceptions bool) ([]types.EmployeePayrollDetail, error) {
	out := []types.EmployeePayrollDetail{}
	for _, d := range m.rows {
		if d.RunID != runID || (employeeID != "" && d.EmployeeID != employeeID) {
			continue
		}
		if onlyExceptions && len(d.Exceptions) == 0 {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (m *memDetails) ReplaceExceptions(_ context.Context, runID, employeeID string, exceptions []types.PayrollException) (bool, error) {
	matched := false
	total := 0
	for i := range m.rows {
		if m.rows[i].RunID != runID {
			continue
		}
		if m.rows[i].EmployeeID == employeeID {
			m.rows[i].Exceptions = append([]types.PayrollException{}, exceptions...)
			matched = true
		}
		total += len(m.rows[i].Exceptions)
	}
	if matched && m.runs != nil {
		run := m.runs.runs[runID]
		run.Exceptions = total
		m.runs.runs[runID] = run
	}
	return matched, nil
}

type recordingSink struct {
	targets  []notiftypes.Target
	messages []notiftypes.Message
}

func (s *recordingSink) Notify(_ context.Context, target notiftypes.Target, msg notiftypes.Message) {
	s.targets = append(s.targets, target)
	s.messages = append(s.messages, msg)
}

func ptrDec(s string) *decimal.Decimal {
	v := dec(s)
	return &v
}
