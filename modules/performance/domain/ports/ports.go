package ports

import (
	"context"
	"time"

	"github.com/jacksonlee411/peopleops/modules/performance/domain/types"
)

type TemplateStore interface {
	InsertTemplate(ctx context.Context, t types.Template) error
	GetTemplate(ctx context.Context, id string) (types.Template, error)
	ListTemplates(ctx context.Context) ([]types.Template, error)
}

// SuspendDecision runs inside the store transaction once the minimum-score
// count is known; returning true sets the employee to SUSPENDED in the same
// transaction.
type SuspendDecision func(out types.MinimumScoreOutcome) bool

type RecordStore interface {
	InsertRecord(ctx context.Context, rec types.AppraisalRecord) error
	GetRecord(ctx context.Context, id string) (types.AppraisalRecord, error)
	// ListRecords filters by employee when employeeID is non-empty.
	ListRecords(ctx context.Context, employeeID string) ([]types.AppraisalRecord, error)
	// Transition moves a record between statuses; any other current status
	// yields a Forbidden error.
	Transition(ctx context.Context, id string, from types.RecordStatus, to types.RecordStatus) (types.AppraisalRecord, error)
	Publish(ctx context.Context, id string, minimumScore bool, at time.Time, decide SuspendDecision) (types.MinimumScoreOutcome, error)
}

type DisputeStore interface {
	InsertDispute(ctx context.Context, d types.Dispute) error
	GetDispute(ctx context.Context, id string) (types.Dispute, error)
	// ListDisputes filters by status when status is non-empty.
	ListDisputes(ctx context.Context, status types.DisputeStatus) ([]types.Dispute, error)
	// Resolve closes an OPEN dispute. A non-nil adj replaces the record's
	// ratings in the same transaction and reports the new outcome.
	Resolve(ctx context.Context, id string, to types.DisputeStatus, note string, at time.Time, adj *types.RatingAdjustment, decide SuspendDecision) (types.Dispute, *types.MinimumScoreOutcome, error)
}
