package persistence

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jacksonlee411/peopleops/modules/notification/domain/ports"
	"github.com/jacksonlee411/peopleops/modules/notification/domain/types"
	"github.com/jacksonlee411/peopleops/pkg/httperr"
)

type pgBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type NotificationPGStore struct {
	pool pgBeginner
}

func NewNotificationPGStore(pool pgBeginner) ports.NotificationStore {
	return &NotificationPGStore{pool: pool}
}

func (s *NotificationPGStore) Insert(ctx context.Context, items []types.Notification) error {
	if len(items) == 0 {
		return nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	for _, n := range items {
		if _, err := tx.Exec(ctx, `
		INSERT INTO notifications (id, recipient_id, type, title, message, created_at)
		VALUES ($1::uuid, $2::text, $3::text, $4::text, $5::text, $6::timestamptz)
		`, n.ID, n.RecipientID, n.Type, n.Title, n.Message, n.CreatedAt); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *NotificationPGStore) ListForRecipient(ctx context.Context, recipientID string, unreadOnly bool) ([]types.Notification, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	rows, err := tx.Query(ctx, `
	SELECT id::text, recipient_id, type, title, message, read_at, created_at
	FROM notifications
	WHERE recipient_id = $1::text
	  AND (NOT $2::boolean OR read_at IS NULL)
	ORDER BY created_at DESC, id DESC
	LIMIT 200
	`, recipientID, unreadOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []types.Notification{}
	for rows.Next() {
		var n types.Notification
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.Type, &n.Title, &n.Message, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *NotificationPGStore) MarkRead(ctx context.Context, id string, recipientID string) (types.Notification, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return types.Notification{}, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	var n types.Notification
	err = tx.QueryRow(ctx, `
	UPDATE notifications
	SET read_at = COALESCE(read_at, now())
	WHERE id = $1::uuid AND recipient_id = $2::text
	RETURNING id::text, recipient_id, type, title, message, read_at, created_at
	`, id, recipientID).Scan(&n.ID, &n.RecipientID, &n.Type, &n.Title, &n.Message, &n.ReadAt, &n.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.Notification{}, httperr.NewNotFound("notification not found")
		}
		return types.Notification{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return types.Notification{}, err
	}
	return n, nil
}
