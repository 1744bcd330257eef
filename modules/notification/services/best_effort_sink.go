package services

import (
	"context"

	"github.com/jacksonlee411/peopleops/modules/notification/domain/types"
	"go.uber.org/zap"
)

type sender interface {
	Send(ctx context.Context, target types.Target, msg types.Message) (int, error)
}

// BestEffortSink is the advisory delivery path used by business workflows.
// Failures are logged and dropped.
type BestEffortSink struct {
	sender sender
	logger *zap.Logger
}

func NewBestEffortSink(s sender, logger *zap.Logger) *BestEffortSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BestEffortSink{sender: s, logger: logger}
}

func (b *BestEffortSink) Notify(ctx context.Context, target types.Target, msg types.Message) {
	defer func() {
		if rec := recover(); rec != nil {
			b.logger.Error("notification panic", zap.String("type", msg.Type), zap.Any("panic", rec))
		}
	}()
	n, err := b.sender.Send(ctx, target, msg)
	if err != nil {
		b.logger.Warn("notification dropped",
			zap.String("type", msg.Type),
			zap.Strings("roles", target.Roles),
			zap.Int("employee_ids", len(target.EmployeeIDs)),
			zap.Error(err),
		)
		return
	}
	b.logger.Debug("notification sent", zap.String("type", msg.Type), zap.Int("recipients", n))
}
