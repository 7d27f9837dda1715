package evaluation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

type DownwardDetails struct {
	PeriodID       string `json:"periodId"`
	EmployeeID     string `json:"employeeId"`
	EvaluatorID    string `json:"evaluatorId"`
	WbsItemID      string `json:"wbsItemId"`
	EvaluationType string `json:"evaluationType"`
	Content        string `json:"content"`
	Score          *int   `json:"score,omitempty"`
}

// BulkScope selects the downward evaluations a bulk operation applies to.
// EmployeeID and ProjectID are optional narrowing filters.
type BulkScope struct {
	EvaluatorID    string
	PeriodID       string
	EmployeeID     string
	ProjectID      string
	EvaluationType string
}

func (s *Service) SaveDownward(ctx context.Context, d DownwardDetails) (DownwardEvaluation, error) {
	if !ValidEvaluationType(d.EvaluationType) {
		return DownwardEvaluation{}, fmt.Errorf("unknown evaluation type %q", d.EvaluationType)
	}
	if err := s.validateScore(ctx, d.PeriodID, d.Score); err != nil {
		return DownwardEvaluation{}, err
	}
	id, err := s.store.UpsertDownward(ctx, d.PeriodID, d.EmployeeID, d.EvaluatorID, d.WbsItemID, d.EvaluationType, d.Content, d.Score)
	if err != nil {
		return DownwardEvaluation{}, err
	}
	return s.store.GetDownward(ctx, id)
}

func (s *Service) Downward(ctx context.Context, evaluationID string) (DownwardEvaluation, error) {
	return s.store.GetDownward(ctx, evaluationID)
}

func (s *Service) DownwardList(ctx context.Context, scope BulkScope) ([]DownwardCandidate, error) {
	if !ValidEvaluationType(scope.EvaluationType) {
		return nil, fmt.Errorf("unknown evaluation type %q", scope.EvaluationType)
	}
	return s.store.ListDownwardCandidates(ctx, scope.EvaluatorID, scope.PeriodID, scope.EmployeeID, scope.ProjectID, scope.EvaluationType)
}

// UpdateDownward edits the content and score of an existing evaluation.
// Completed evaluations cannot be edited until a revision reopens them.
func (s *Service) UpdateDownward(ctx context.Context, evaluationID, content string, score *int) (DownwardEvaluation, error) {
	e, err := s.store.GetDownward(ctx, evaluationID)
	if err != nil {
		return DownwardEvaluation{}, ErrEvaluationNotFound
	}
	if e.IsCompleted {
		return DownwardEvaluation{}, ErrAlreadyCompleted
	}
	if err := s.validateScore(ctx, e.PeriodID, score); err != nil {
		return DownwardEvaluation{}, err
	}
	if err := s.store.SaveDownward(ctx, evaluationID, content, score); err != nil {
		return DownwardEvaluation{}, err
	}
	return s.store.GetDownward(ctx, evaluationID)
}

// CompleteDownward finalizes one evaluation and moves its approval step to
// pending. Completing a primary evaluation notifies the employee's secondary
// evaluators.
func (s *Service) CompleteDownward(ctx context.Context, evaluationID, actorID string) (DownwardEvaluation, error) {
	e, err := s.store.GetDownward(ctx, evaluationID)
	if err != nil {
		return DownwardEvaluation{}, ErrEvaluationNotFound
	}
	if e.IsCompleted {
		return DownwardEvaluation{}, ErrAlreadyCompleted
	}
	if strings.TrimSpace(e.Content) == "" || e.Score == nil {
		return DownwardEvaluation{}, ErrMissingContent
	}

	if err := s.store.CompleteDownward(ctx, evaluationID, actorID); err != nil {
		return DownwardEvaluation{}, err
	}

	if e.EvaluationType == TypePrimary {
		s.notifySecondaries(ctx, e.PeriodID, e.EmployeeID)
	}

	return s.store.GetDownward(ctx, evaluationID)
}

// BulkComplete finalizes every open evaluation in scope. Items that cannot
// be completed are reported individually; one bad item never aborts the
// batch and nothing rolls back across items.
func (s *Service) BulkComplete(ctx context.Context, scope BulkScope, actorID string) (BulkResult, error) {
	candidates, err := s.DownwardList(ctx, scope)
	if err != nil {
		return BulkResult{}, err
	}

	result := BulkResult{}
	notified := map[string]bool{}
	for _, c := range candidates {
		switch {
		case c.IsCompleted:
			result.AlreadySubmitted = append(result.AlreadySubmitted, c.ID)
		case !c.AssignmentActive:
			result.Failed = append(result.Failed, BulkItemFailure{EvaluationID: c.ID, Reason: "wbs assignment cancelled"})
		case strings.TrimSpace(c.Content) == "":
			result.Failed = append(result.Failed, BulkItemFailure{EvaluationID: c.ID, Reason: "missing content"})
		case c.Score == nil:
			result.Failed = append(result.Failed, BulkItemFailure{EvaluationID: c.ID, Reason: "missing score"})
		default:
			if err := s.store.CompleteDownward(ctx, c.ID, actorID); err != nil {
				result.Failed = append(result.Failed, BulkItemFailure{EvaluationID: c.ID, Reason: err.Error()})
				continue
			}
			result.Succeeded = append(result.Succeeded, c.ID)
			if scope.EvaluationType == TypePrimary && !notified[c.EmployeeID] {
				notified[c.EmployeeID] = true
				s.notifySecondaries(ctx, c.PeriodID, c.EmployeeID)
			}
		}
	}
	return result, nil
}

// BulkReset reopens completed evaluations in scope so they can be reworked
// without a revision request. Open items and cancelled assignments are
// reported individually, same as BulkComplete.
func (s *Service) BulkReset(ctx context.Context, scope BulkScope) (BulkResult, error) {
	candidates, err := s.DownwardList(ctx, scope)
	if err != nil {
		return BulkResult{}, err
	}

	result := BulkResult{}
	for _, c := range candidates {
		switch {
		case !c.AssignmentActive:
			result.Failed = append(result.Failed, BulkItemFailure{EvaluationID: c.ID, Reason: "wbs assignment cancelled"})
		case !c.IsCompleted:
			result.Failed = append(result.Failed, BulkItemFailure{EvaluationID: c.ID, Reason: "not completed"})
		default:
			if err := s.store.ResetDownwardCompletion(ctx, c.ID); err != nil {
				result.Failed = append(result.Failed, BulkItemFailure{EvaluationID: c.ID, Reason: err.Error()})
				continue
			}
			result.Succeeded = append(result.Succeeded, c.ID)
		}
	}
	return result, nil
}

func (s *Service) notifySecondaries(ctx context.Context, periodID, employeeID string) {
	ids, err := s.store.SecondaryEvaluatorIDs(ctx, periodID, employeeID)
	if err != nil {
		slog.Warn("secondary evaluator lookup failed",
			slog.String("period", periodID),
			slog.String("employee", employeeID),
			slog.String("error", err.Error()))
		return
	}
	for _, id := range ids {
		s.notify(ctx, id, "primary_evaluation_completed",
			fmt.Sprintf("A primary evaluation was completed and awaits your secondary evaluation (period %s).", periodID))
	}
}
