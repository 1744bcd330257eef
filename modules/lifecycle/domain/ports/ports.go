package ports

import (
	"context"
	"time"

	"github.com/jacksonlee411/peopleops/modules/lifecycle/domain/types"
)

type SigningBonusStore interface {
	InsertBonus(ctx context.Context, b types.SigningBonus) error
	// ListBonuses filters by employee when employeeID is non-empty.
	ListBonuses(ctx context.Context, employeeID string) ([]types.SigningBonus, error)
	// ApproveBonus moves a pending bonus to approved; anything else is a
	// Conflict.
	ApproveBonus(ctx context.Context, id string, at time.Time) (types.SigningBonus, error)
}

type TerminationStore interface {
	InsertTermination(ctx context.Context, t types.TerminationRequest) error
	ListTerminations(ctx context.Context, employeeID string) ([]types.TerminationRequest, error)
	ApproveTermination(ctx context.Context, id string, at time.Time) (types.TerminationRequest, error)
}
