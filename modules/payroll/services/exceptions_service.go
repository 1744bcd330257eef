package services

import (
	"context"
	"strings"

	"github.com/jacksonlee411/peopleops/modules/payroll/domain/ports"
	"github.com/jacksonlee411/peopleops/modules/payroll/domain/types"
	"github.com/jacksonlee411/peopleops/pkg/httperr"
)

type ExceptionsService struct {
	Runs    ports.RunStore
	Details ports.DetailStore
}

// GetExceptions lists the run's exception records, optionally for a single
// employee. Order follows detail rows, then position within each row.
func (s ExceptionsService) GetExceptions(ctx context.Context, runID string, employeeID string) ([]types.PayrollException, error) {
	if _, err := s.run(ctx, runID); err != nil {
		return nil, err
	}
	details, err := s.Details.ListDetails(ctx, runID, strings.TrimSpace(employeeID), false)
	if err != nil {
		return nil, err
	}
	out := []types.PayrollException{}
	for _, d := range details {
		out = append(out, d.Exceptions...)
	}
	return out, nil
}

// ClearExceptions drops every exception of one employee in a draft run.
func (s ExceptionsService) ClearExceptions(ctx context.Context, runID string, employeeID string) error {
	if err := s.requireDraft(ctx, runID); err != nil {
		return err
	}
	matched, err := s.Details.ReplaceExceptions(ctx, runID, employeeID, []types.PayrollException{})
	if err != nil {
		return err
	}
	if !matched {
		return httperr.NewNotFound("payroll detail not found")
	}
	return nil
}

func (s ExceptionsService) ClearException(ctx context.Context, runID string, employeeID string, exceptionID string) error {
	if err := s.requireDraft(ctx, runID); err != nil {
		return err
	}
	detail, err := s.detail(ctx, runID, employeeID)
	if err != nil {
		return err
	}
	kept := make([]types.PayrollException, 0, len(detail.Exceptions))
	found := false
	for _, e := range detail.Exceptions {
		if e.ID == exceptionID {
			found = true
			continue
		}
		kept = append(kept, e)
	}
	if !found {
		return httperr.NewNotFound("exception not found")
	}
	matched, err := s.Details.ReplaceExceptions(ctx, runID, employeeID, kept)
	if err != nil {
		return err
	}
	if !matched {
		return httperr.NewNotFound("payroll detail not found")
	}
	return nil
}

// FlagExceptions appends manually raised exceptions given as
// semicolon-delimited text and returns the employee's full list.
func (s ExceptionsService) FlagExceptions(ctx context.Context, runID string, employeeID string, text string) ([]types.PayrollException, error) {
	descs := ParseExceptions(text)
	if len(descs) == 0 {
		return nil, httperr.NewBadRequest("exceptions text is empty")
	}
	if err := s.requireDraft(ctx, runID); err != nil {
		return nil, err
	}
	detail, err := s.detail(ctx, runID, employeeID)
	if err != nil {
		return nil, err
	}
	next := nextExceptionIndex(detail.ID, detail.Exceptions)
	all := append(append([]types.PayrollException{}, detail.Exceptions...), BuildExceptions(detail.ID, runID, employeeID, descs, next)...)
	matched, err := s.Details.ReplaceExceptions(ctx, runID, employeeID, all)
	if err != nil {
		return nil, err
	}
	if !matched {
		return nil, httperr.NewNotFound("payroll detail not found")
	}
	return all, nil
}

func (s ExceptionsService) run(ctx context.Context, runID string) (types.PayrollRun, error) {
	if strings.TrimSpace(runID) == "" {
		return types.PayrollRun{}, httperr.NewBadRequest("runId is required")
	}
	return s.Runs.GetRun(ctx, runID)
}

func (s ExceptionsService) requireDraft(ctx context.Context, runID string) error {
	run, err := s.run(ctx, runID)
	if err != nil {
		return err
	}
	if run.Status != types.RunStatusDraft {
		return httperr.NewForbidden("payroll run is not a draft")
	}
	return nil
}

func (s ExceptionsService) detail(ctx context.Context, runID string, employeeID string) (types.EmployeePayrollDetail, error) {
	if strings.TrimSpace(employeeID) == "" {
		return types.EmployeePayrollDetail{}, httperr.NewBadRequest("employeeId is required")
	}
	details, err := s.Details.ListDetails(ctx, runID, employeeID, false)
	if err != nil {
		return types.EmployeePayrollDetail{}, err
	}
	if len(details) == 0 {
		return types.EmployeePayrollDetail{}, httperr.NewNotFound("payroll detail not found")
	}
	return details[0], nil
}
