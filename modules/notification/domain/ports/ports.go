package ports

import (
	"context"

	"github.com/jacksonlee411/peopleops/modules/notification/domain/types"
)

// RecipientDirectory answers who currently holds a role or belongs to a
// department. Results are ordered by employee id.
type RecipientDirectory interface {
	EmployeesWithRoles(ctx context.Context, roles []string) ([]string, error)
	EmployeesInDepartments(ctx context.Context, departmentIDs []string) ([]string, error)
}

type NotificationStore interface {
	Insert(ctx context.Context, items []types.Notification) error
	ListForRecipient(ctx context.Context, recipientID string, unreadOnly bool) ([]types.Notification, error)
	MarkRead(ctx context.Context, id string, recipientID string) (types.Notification, error)
}

// NotificationSink delivers advisory notifications. Notify never fails the
// caller; delivery problems stay inside the sink.
type NotificationSink interface {
	Notify(ctx context.Context, target types.Target, msg types.Message)
}
