package ports

import (
	"context"
	"time"

	"github.com/jacksonlee411/peopleops/modules/payroll/domain/types"
	"github.com/shopspring/decimal"
)

type EmployeeSource interface {
	// ListActive returns active employees that have an approved pay grade.
	ListActive(ctx context.Context) ([]types.EligibleEmployee, error)
	// ListActiveByIDs returns the active subset of ids; pay grade may be nil.
	ListActiveByIDs(ctx context.Context, ids []string) ([]types.EligibleEmployee, error)
}

type HRRecordSource interface {
	ApprovedSigningBonuses(ctx context.Context, employeeID string, from time.Time, to time.Time) ([]types.SigningBonusRecord, error)
	ApprovedTerminations(ctx context.Context, employeeID string, from time.Time, to time.Time) ([]types.TerminationRecord, error)
}

type ConfigSource interface {
	Snapshot(ctx context.Context) (types.ConfigSnapshot, error)
}

// PreviousNetPay looks up the employee's net pay from the latest run before
// period. ok=false when there is none.
type PreviousNetPay interface {
	PreviousNetPay(ctx context.Context, employeeID string, before time.Time) (decimal.Decimal, bool, error)
}

type RunStore interface {
	CreateRun(ctx context.Context, run types.PayrollRun) error
	UpdateRunTotals(ctx context.Context, runID string, employees int, exceptions int, totalNetPay decimal.Decimal) error
	ListRuns(ctx context.Context) ([]types.PayrollRun, error)
	GetRun(ctx context.Context, runID string) (types.PayrollRun, error)
	// SetRunStatus moves a run from one status to another; a run in any
	// other status yields a Forbidden error.
	SetRunStatus(ctx context.Context, runID string, from types.RunStatus, to types.RunStatus) (types.PayrollRun, error)
}

type DetailStore interface {
	InsertDetail(ctx context.Context, d types.EmployeePayrollDetail) error
	ListDetails(ctx context.Context, runID string, employeeID string, onlyExceptions bool) ([]types.EmployeePayrollDetail, error)
	// ReplaceExceptions overwrites the exception list of the (run, employee)
	// row and resyncs the run's exception count. matched=false when no row
	// exists.
	ReplaceExceptions(ctx context.Context, runID string, employeeID string, exceptions []types.PayrollException) (matched bool, err error)
}
