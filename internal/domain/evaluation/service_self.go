package evaluation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

type SelfEvaluationDetails struct {
	PeriodID   string `json:"periodId"`
	EmployeeID string `json:"employeeId"`
	WbsItemID  string `json:"wbsItemId"`
	Content    string `json:"content"`
	Score      *int   `json:"score,omitempty"`
}

// SaveSelfEvaluation creates or updates an employee's self evaluation for one
// WBS item. Drafts may be empty; the score, when present, must fall inside
// the period's configured range.
func (s *Service) SaveSelfEvaluation(ctx context.Context, d SelfEvaluationDetails) (WbsSelfEvaluation, error) {
	if err := s.validateScore(ctx, d.PeriodID, d.Score); err != nil {
		return WbsSelfEvaluation{}, err
	}
	id, err := s.store.UpsertSelfEvaluation(ctx, d.PeriodID, d.EmployeeID, d.WbsItemID, d.Content, d.Score)
	if err != nil {
		return WbsSelfEvaluation{}, err
	}
	return s.store.GetSelfEvaluation(ctx, id)
}

func (s *Service) SelfEvaluation(ctx context.Context, evaluationID string) (WbsSelfEvaluation, error) {
	return s.store.GetSelfEvaluation(ctx, evaluationID)
}

func (s *Service) SelfEvaluations(ctx context.Context, periodID, employeeID string) ([]WbsSelfEvaluation, error) {
	return s.store.ListSelfEvaluations(ctx, periodID, employeeID)
}

// SubmitSelfEvaluation locks in a self evaluation for the given target.
// Submission to the evaluator notifies the employee's primary evaluator;
// submission to the manager is silent.
func (s *Service) SubmitSelfEvaluation(ctx context.Context, evaluationID, target, actorID string) (WbsSelfEvaluation, error) {
	if target != TargetEvaluator && target != TargetManager {
		return WbsSelfEvaluation{}, fmt.Errorf("unknown submission target %q", target)
	}

	e, err := s.store.GetSelfEvaluation(ctx, evaluationID)
	if err != nil {
		return WbsSelfEvaluation{}, ErrEvaluationNotFound
	}
	if (target == TargetEvaluator && e.SubmittedToEvaluator) ||
		(target == TargetManager && e.SubmittedToManager) {
		return WbsSelfEvaluation{}, ErrAlreadyCompleted
	}
	if strings.TrimSpace(e.Content) == "" || e.Score == nil {
		return WbsSelfEvaluation{}, ErrMissingContent
	}

	if err := s.store.SubmitSelfEvaluation(ctx, evaluationID, target, actorID); err != nil {
		return WbsSelfEvaluation{}, err
	}

	if target == TargetEvaluator {
		evaluatorID, err := s.store.PrimaryEvaluatorID(ctx, e.PeriodID, e.EmployeeID)
		if err != nil {
			slog.Warn("primary evaluator lookup failed",
				slog.String("period", e.PeriodID),
				slog.String("employee", e.EmployeeID),
				slog.String("error", err.Error()))
		} else {
			s.notify(ctx, evaluatorID, "self_evaluation_submitted",
				fmt.Sprintf("A self evaluation was submitted for your review (period %s).", e.PeriodID))
		}
	}

	return s.store.GetSelfEvaluation(ctx, evaluationID)
}

func (s *Service) validateScore(ctx context.Context, periodID string, score *int) error {
	if score == nil {
		return nil
	}
	limit, err := s.store.PeriodScoreCap(ctx, periodID)
	if err != nil {
		return err
	}
	if *score < 0 || *score > limit {
		return fmt.Errorf("%w: score %d outside 0..%d", ErrScoreOutOfRange, *score, limit)
	}
	return nil
}
