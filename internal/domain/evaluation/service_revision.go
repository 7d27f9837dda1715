package evaluation

import (
	"context"
	"strings"
)

// RequestRevision reopens a finished step so the responsible party can redo
// it. Secondary-step requests must name the evaluator being asked to revise;
// only that evaluator's work is reopened. No notification is sent, the
// request surfaces through the revision list instead.
func (s *Service) RequestRevision(ctx context.Context, d RevisionDetails) (RevisionRequest, error) {
	if !ValidStep(d.Step) {
		return RevisionRequest{}, ErrInvalidStep
	}
	if strings.TrimSpace(d.Comment) == "" {
		return RevisionRequest{}, ErrCommentRequired
	}
	if d.Step == StepSecondary && d.EvaluatorID == "" {
		return RevisionRequest{}, ErrEvaluatorRequired
	}

	id, err := s.store.CreateRevisionRequest(ctx, d)
	if err != nil {
		return RevisionRequest{}, err
	}

	requests, err := s.store.ListRevisionRequests(ctx, d.PeriodID, d.EmployeeID, false)
	if err != nil {
		return RevisionRequest{}, err
	}
	for _, r := range requests {
		if r.ID == id {
			return r, nil
		}
	}
	return RevisionRequest{ID: id, PeriodID: d.PeriodID, EmployeeID: d.EmployeeID, Step: d.Step, Comment: d.Comment, RequestedBy: d.RequestedBy, EvaluatorID: d.EvaluatorID}, nil
}

func (s *Service) RevisionRequests(ctx context.Context, periodID, employeeID string, onlyOpen bool) ([]RevisionRequest, error) {
	return s.store.ListRevisionRequests(ctx, periodID, employeeID, onlyOpen)
}

func (s *Service) MarkRevisionRead(ctx context.Context, revisionID string) error {
	return s.store.MarkRevisionRead(ctx, revisionID)
}

func (s *Service) MarkRevisionCompleted(ctx context.Context, revisionID string) error {
	return s.store.MarkRevisionCompleted(ctx, revisionID)
}
