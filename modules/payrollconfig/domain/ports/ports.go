package ports

import (
	"context"

	"github.com/jacksonlee411/peopleops/modules/payrollconfig/domain/types"
)

type RecordStore interface {
	Insert(ctx context.Context, rec types.Record) error
	// Update rewrites a draft record; a record that is no longer draft
	// yields a Forbidden error.
	Update(ctx context.Context, rec types.Record) (types.Record, error)
	Get(ctx context.Context, id string) (types.Record, error)
	// List filters by kind and, when status is non-empty, by status.
	List(ctx context.Context, kind types.Kind, status types.Status) ([]types.Record, error)
	SetStatus(ctx context.Context, id string, from types.Status, to types.Status, actorID string) (types.Record, error)
}

// EditGuard decides whether roles may perform action on rec.
type EditGuard interface {
	Allow(ctx context.Context, action string, rec types.Record, roles []string) (bool, error)
}
