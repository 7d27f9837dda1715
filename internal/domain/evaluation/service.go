package evaluation

import (
	"context"
	"log/slog"
	"time"
)

// Notifier delivers a message to an employee. Delivery problems are logged
// and never fail the operation that triggered them.
type Notifier interface {
	Send(ctx context.Context, recipientID, category, message string) error
}

type noopNotifier struct{}

func (noopNotifier) Send(context.Context, string, string, string) error { return nil }

type Service struct {
	store    StoreAPI
	notifier Notifier
}

func NewService(store StoreAPI, notifier Notifier) *Service {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &Service{store: store, notifier: notifier}
}

func (s *Service) Mapping(ctx context.Context, periodID, employeeID string) (Mapping, error) {
	return s.store.GetMapping(ctx, periodID, employeeID)
}

// SubmitCriteria marks the criteria step done for an employee in a period,
// creating the mapping on first touch.
func (s *Service) SubmitCriteria(ctx context.Context, periodID, employeeID, actorID string) (Mapping, error) {
	m, err := s.store.GetOrCreateMapping(ctx, periodID, employeeID, actorID)
	if err != nil {
		return Mapping{}, err
	}
	if err := s.store.SubmitCriteria(ctx, m.ID); err != nil {
		return Mapping{}, err
	}
	return s.store.GetMapping(ctx, periodID, employeeID)
}

func (s *Service) StepApproval(ctx context.Context, periodID, employeeID, actorID string) (StepApproval, error) {
	m, err := s.store.GetOrCreateMapping(ctx, periodID, employeeID, actorID)
	if err != nil {
		return StepApproval{}, err
	}
	return s.store.GetOrCreateStepApproval(ctx, m.ID, actorID)
}

// ChangeStepStatus validates the transition against the current approval row
// before persisting it.
func (s *Service) ChangeStepStatus(ctx context.Context, periodID, employeeID, step, status, actorID string) (StepApproval, error) {
	m, err := s.store.GetOrCreateMapping(ctx, periodID, employeeID, actorID)
	if err != nil {
		return StepApproval{}, err
	}
	approval, err := s.store.GetOrCreateStepApproval(ctx, m.ID, actorID)
	if err != nil {
		return StepApproval{}, err
	}
	if err := ChangeStepStatus(&approval, step, status, actorID, time.Now()); err != nil {
		return StepApproval{}, err
	}
	if err := s.store.SetStepStatus(ctx, m.ID, step, status, actorID); err != nil {
		return StepApproval{}, err
	}
	return approval, nil
}

func (s *Service) notify(ctx context.Context, recipientID, category, message string) {
	if recipientID == "" {
		return
	}
	if err := s.notifier.Send(ctx, recipientID, category, message); err != nil {
		slog.Warn("notification delivery failed",
			slog.String("recipient", recipientID),
			slog.String("category", category),
			slog.String("error", err.Error()))
	}
}
