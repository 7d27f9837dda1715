package period

import (
	"context"
	"log/slog"
	"time"
)

type Service struct {
	store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store}
}

// Create validates and persists a new period. When sourcePeriodID is set the
// new period inherits the source's grade ranges, score cap and manual flags
// unless the payload overrides them, and the source's criteria are copied.
func (s *Service) Create(ctx context.Context, d PeriodDetails, sourcePeriodID string) (string, error) {
	if sourcePeriodID != "" {
		source, err := s.store.GetPeriod(ctx, sourcePeriodID)
		if err != nil {
			return "", ErrPeriodNotFound
		}
		if len(d.GradeRanges) == 0 {
			d.GradeRanges = source.GradeRanges
		}
		if d.MaxSelfEvaluationRate == 0 {
			d.MaxSelfEvaluationRate = source.MaxSelfEvaluationRate
		}
	}

	if err := ValidateDetails(d); err != nil {
		return "", err
	}

	id, err := s.store.CreatePeriod(ctx, d)
	if err != nil {
		return "", err
	}

	if sourcePeriodID != "" {
		copied, err := s.store.CopyCriteria(ctx, sourcePeriodID, id)
		if err != nil {
			slog.Warn("criteria copy failed", "sourcePeriodId", sourcePeriodID, "periodId", id, "err", err)
		} else if copied > 0 {
			slog.Info("criteria copied from source period", "periodId", id, "count", copied)
		}
	}
	return id, nil
}

func (s *Service) Get(ctx context.Context, periodID string) (EvaluationPeriod, error) {
	p, err := s.store.GetPeriod(ctx, periodID)
	if err != nil {
		return EvaluationPeriod{}, ErrPeriodNotFound
	}
	return p, nil
}

func (s *Service) List(ctx context.Context, status string, limit, offset int) ([]EvaluationPeriod, error) {
	return s.store.ListPeriods(ctx, status, limit, offset)
}

func (s *Service) Update(ctx context.Context, periodID string, d PeriodDetails) error {
	if err := ValidateDetails(d); err != nil {
		return err
	}
	return s.store.UpdatePeriod(ctx, periodID, d)
}

func (s *Service) Delete(ctx context.Context, periodID string) error {
	return s.store.SoftDeletePeriod(ctx, periodID)
}

// Start moves a waiting period into in_progress at the evaluation_setup
// phase. Starting an already running period is rejected.
func (s *Service) Start(ctx context.Context, periodID string, now time.Time) error {
	started, err := s.store.StartPeriod(ctx, periodID, now)
	if err != nil {
		return err
	}
	if !started {
		if _, getErr := s.store.GetPeriod(ctx, periodID); getErr != nil {
			return ErrPeriodNotFound
		}
		return ErrNotWaiting
	}
	return nil
}

// OverridePhase is the explicit admin escape hatch from the forward-only
// rule.
func (s *Service) OverridePhase(ctx context.Context, periodID, phase string) error {
	if !ValidPhase(phase) {
		return ErrInvalidPhase
	}
	return s.store.OverridePhase(ctx, periodID, phase)
}

func (s *Service) SetApprovalDocument(ctx context.Context, periodID, documentID string) error {
	return s.store.SetApprovalDocument(ctx, periodID, documentID)
}

func (s *Service) UpdateApprovalStatus(ctx context.Context, periodID, status string) error {
	return s.store.UpdateApprovalStatus(ctx, periodID, status)
}

func (s *Service) UpdateStatus(ctx context.Context, periodID, status string) error {
	return s.store.UpdateStatus(ctx, periodID, status)
}

// AutoPhaseTransition sweeps in-progress periods and advances every one whose
// current phase deadline has fully elapsed (now past the deadline day's end)
// by exactly one phase. A failing period is logged and skipped so the rest of
// the batch still runs; the advanced count is returned.
func (s *Service) AutoPhaseTransition(ctx context.Context, now time.Time) (int, error) {
	periods, err := s.store.ListInProgress(ctx)
	if err != nil {
		return 0, err
	}

	advanced := 0
	for _, p := range periods {
		next, ok := NextPhase(p.CurrentPhase)
		if !ok {
			continue
		}
		deadline, ok := PhaseDeadline(p, p.CurrentPhase)
		if !ok {
			continue
		}
		if !DeadlineElapsed(deadline, now) {
			continue
		}

		moved, err := s.store.AdvancePhase(ctx, p.ID, p.CurrentPhase, next)
		if err != nil {
			slog.Warn("phase transition failed", "periodId", p.ID, "fromPhase", p.CurrentPhase, "err", err)
			continue
		}
		if moved {
			slog.Info("period phase advanced", "periodId", p.ID, "fromPhase", p.CurrentPhase, "toPhase", next)
			advanced++
		}
	}
	return advanced, nil
}
