package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jacksonlee411/peopleops/modules/notification/domain/ports"
	"github.com/jacksonlee411/peopleops/modules/notification/domain/types"
	"github.com/jacksonlee411/peopleops/pkg/httperr"
)

type NotificationService struct {
	fanout FanOut
	store  ports.NotificationStore
	NewID  func() string
	NowUTC func() time.Time
}

func NewNotificationService(dir ports.RecipientDirectory, store ports.NotificationStore) *NotificationService {
	return &NotificationService{fanout: FanOut{Directory: dir}, store: store}
}

func (s *NotificationService) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func (s *NotificationService) now() time.Time {
	if s.NowUTC != nil {
		return s.NowUTC()
	}
	return time.Now().UTC()
}

// Send resolves the target and stores one notification per recipient. It
// returns the number of recipients written.
func (s *NotificationService) Send(ctx context.Context, target types.Target, msg types.Message) (int, error) {
	if target.Empty() {
		return 0, httperr.NewBadRequest("notification target is required")
	}
	if strings.TrimSpace(msg.Title) == "" {
		return 0, httperr.NewBadRequest("notification title is required")
	}
	if strings.TrimSpace(msg.Type) == "" {
		msg.Type = types.TypeBroadcast
	}

	recipients, err := s.fanout.Resolve(ctx, target)
	if err != nil {
		return 0, err
	}
	if len(recipients) == 0 {
		return 0, nil
	}

	now := s.now()
	items := make([]types.Notification, 0, len(recipients))
	for _, rid := range recipients {
		items = append(items, types.Notification{
			ID:          s.newID(),
			RecipientID: rid,
			Type:        msg.Type,
			Title:       msg.Title,
			Message:     msg.Body,
			CreatedAt:   now,
		})
	}
	if err := s.store.Insert(ctx, items); err != nil {
		return 0, err
	}
	return len(items), nil
}

func (s *NotificationService) ListForRecipient(ctx context.Context, recipientID string, unreadOnly bool) ([]types.Notification, error) {
	if strings.TrimSpace(recipientID) == "" {
		return nil, httperr.NewBadRequest("recipient is required")
	}
	return s.store.ListForRecipient(ctx, recipientID, unreadOnly)
}

func (s *NotificationService) MarkRead(ctx context.Context, id string, recipientID string) (types.Notification, error) {
	if _, err := uuid.Parse(id); err != nil {
		return types.Notification{}, httperr.NewBadRequest("invalid notificationId")
	}
	if strings.TrimSpace(recipientID) == "" {
		return types.Notification{}, httperr.NewBadRequest("recipient is required")
	}
	return s.store.MarkRead(ctx, id, recipientID)
}
