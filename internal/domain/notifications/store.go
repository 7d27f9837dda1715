package notifications

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

type StoreAPI interface {
	Create(ctx context.Context, recipientID, category, message string) (string, error)
	List(ctx context.Context, recipientID string, limit, offset int) ([]Notification, error)
	CountUnread(ctx context.Context, recipientID string) (int, error)
	MarkRead(ctx context.Context, notificationID, recipientID string) error
	MarkAllRead(ctx context.Context, recipientID string) (int, error)
}

func (s *Store) Create(ctx context.Context, recipientID, category, message string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO notifications (recipient_id, category, message)
    VALUES ($1,$2,$3)
    RETURNING id
  `, recipientID, category, message).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) List(ctx context.Context, recipientID string, limit, offset int) ([]Notification, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, recipient_id, category, message, is_read, read_at, created_at
    FROM notifications
    WHERE recipient_id = $1
    ORDER BY created_at DESC
    LIMIT $2 OFFSET $3
  `, recipientID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.Category, &n.Message, &n.IsRead, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func (s *Store) CountUnread(ctx context.Context, recipientID string) (int, error) {
	var n int
	if err := s.DB.QueryRow(ctx, `
    SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND is_read = false
  `, recipientID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Store) MarkRead(ctx context.Context, notificationID, recipientID string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE notifications
    SET is_read = true, read_at = now()
    WHERE id = $1 AND recipient_id = $2 AND is_read = false
  `, notificationID, recipientID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (s *Store) MarkAllRead(ctx context.Context, recipientID string) (int, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE notifications
    SET is_read = true, read_at = now()
    WHERE recipient_id = $1 AND is_read = false
  `, recipientID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
