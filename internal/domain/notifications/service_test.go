package notifications

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

type fakeStore struct {
	rows   map[string]Notification
	nextID int
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: map[string]Notification{}}
}

func (f *fakeStore) Create(_ context.Context, recipientID, category, message string) (string, error) {
	f.nextID++
	id := fmt.Sprintf("n-%d", f.nextID)
	f.rows[id] = Notification{ID: id, RecipientID: recipientID, Category: category, Message: message, CreatedAt: time.Now()}
	return id, nil
}

func (f *fakeStore) List(_ context.Context, recipientID string, _, _ int) ([]Notification, error) {
	var out []Notification
	for _, n := range f.rows {
		if n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeStore) CountUnread(_ context.Context, recipientID string) (int, error) {
	count := 0
	for _, n := range f.rows {
		if n.RecipientID == recipientID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) MarkRead(_ context.Context, notificationID, recipientID string) error {
	n, ok := f.rows[notificationID]
	if !ok || n.RecipientID != recipientID || n.IsRead {
		return ErrNotificationNotFound
	}
	now := time.Now()
	n.IsRead = true
	n.ReadAt = &now
	f.rows[notificationID] = n
	return nil
}

func (f *fakeStore) MarkAllRead(_ context.Context, recipientID string) (int, error) {
	count := 0
	for id, n := range f.rows {
		if n.RecipientID == recipientID && !n.IsRead {
			n.IsRead = true
			f.rows[id] = n
			count++
		}
	}
	return count, nil
}

type failingPortal struct{ calls int }

func (p *failingPortal) Push(context.Context, string, string, string) error {
	p.calls++
	return errors.New("portal unreachable")
}

func TestSendStoresDespitePortalFailure(t *testing.T) {
	store := newFakeStore()
	portal := &failingPortal{}
	svc := NewService(store, portal)

	if err := svc.Send(context.Background(), "e1", "test", "hello"); err != nil {
		t.Fatalf("send must swallow portal errors: %v", err)
	}
	if portal.calls != 1 {
		t.Fatalf("portal calls = %d, want 1", portal.calls)
	}
	if n, _ := svc.CountUnread(context.Background(), "e1"); n != 1 {
		t.Fatalf("unread = %d, want 1", n)
	}
}

func TestMarkReadScopedToRecipient(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	if err := svc.Send(ctx, "e1", "test", "hello"); err != nil {
		t.Fatalf("send: %v", err)
	}
	list, _ := svc.List(ctx, "e1", 20, 0)
	if len(list) != 1 {
		t.Fatalf("list = %d entries, want 1", len(list))
	}

	if err := svc.MarkRead(ctx, list[0].ID, "e2"); !errors.Is(err, ErrNotificationNotFound) {
		t.Fatalf("another recipient must not mark read, got %v", err)
	}
	if err := svc.MarkRead(ctx, list[0].ID, "e1"); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if n, _ := svc.CountUnread(ctx, "e1"); n != 0 {
		t.Fatalf("unread = %d, want 0", n)
	}
}

func TestMarkAllRead(t *testing.T) {
	svc := NewService(newFakeStore(), nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := svc.Send(ctx, "e1", "test", "hello"); err != nil {
			t.Fatalf("send: %v", err)
		}
	}
	n, err := svc.MarkAllRead(ctx, "e1")
	if err != nil {
		t.Fatalf("mark all: %v", err)
	}
	if n != 3 {
		t.Fatalf("marked = %d, want 3", n)
	}
}
