package notifications

import (
	"context"
	"log/slog"
)

// Portal pushes a notification to the external portal app. Implementations
// must be safe for concurrent use.
type Portal interface {
	Push(ctx context.Context, recipientID, category, message string) error
}

type Service struct {
	store  StoreAPI
	portal Portal
}

func NewService(store StoreAPI, portal Portal) *Service {
	return &Service{store: store, portal: portal}
}

// Send stores the notification and pushes it to the portal. Portal failures
// are logged and swallowed so callers never see them; the stored row is the
// source of truth.
func (s *Service) Send(ctx context.Context, recipientID, category, message string) error {
	if _, err := s.store.Create(ctx, recipientID, category, message); err != nil {
		return err
	}
	if s.portal != nil {
		if err := s.portal.Push(ctx, recipientID, category, message); err != nil {
			slog.Warn("portal push failed",
				slog.String("recipient", recipientID),
				slog.String("category", category),
				slog.String("error", err.Error()))
		}
	}
	return nil
}

func (s *Service) List(ctx context.Context, recipientID string, limit, offset int) ([]Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.List(ctx, recipientID, limit, offset)
}

func (s *Service) CountUnread(ctx context.Context, recipientID string) (int, error) {
	return s.store.CountUnread(ctx, recipientID)
}

func (s *Service) MarkRead(ctx context.Context, notificationID, recipientID string) error {
	return s.store.MarkRead(ctx, notificationID, recipientID)
}

func (s *Service) MarkAllRead(ctx context.Context, recipientID string) (int, error) {
	return s.store.MarkAllRead(ctx, recipientID)
}
