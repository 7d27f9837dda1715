package evaluation

import "context"

type StoreAPI interface {
	GetOrCreateMapping(ctx context.Context, periodID, employeeID, createdBy string) (Mapping, error)
	GetMapping(ctx context.Context, periodID, employeeID string) (Mapping, error)
	SubmitCriteria(ctx context.Context, mappingID string) error

	GetOrCreateStepApproval(ctx context.Context, mappingID, createdBy string) (StepApproval, error)
	SetStepStatus(ctx context.Context, mappingID, step, status, actorID string) error

	UpsertSelfEvaluation(ctx context.Context, periodID, employeeID, wbsItemID, content string, score *int) (string, error)
	GetSelfEvaluation(ctx context.Context, evaluationID string) (WbsSelfEvaluation, error)
	ListSelfEvaluations(ctx context.Context, periodID, employeeID string) ([]WbsSelfEvaluation, error)
	SubmitSelfEvaluation(ctx context.Context, evaluationID, target, actorID string) error

	UpsertDownward(ctx context.Context, periodID, employeeID, evaluatorID, wbsItemID, evalType, content string, score *int) (string, error)
	GetDownward(ctx context.Context, evaluationID string) (DownwardEvaluation, error)
	SaveDownward(ctx context.Context, evaluationID, content string, score *int) error
	ListDownwardCandidates(ctx context.Context, evaluatorID, periodID, employeeID, projectID, evalType string) ([]DownwardCandidate, error)
	CompleteDownward(ctx context.Context, evaluationID, actorID string) error
	ResetDownwardCompletion(ctx context.Context, evaluationID string) error

	CreateRevisionRequest(ctx context.Context, d RevisionDetails) (string, error)
	ListRevisionRequests(ctx context.Context, periodID, employeeID string, onlyOpen bool) ([]RevisionRequest, error)
	MarkRevisionRead(ctx context.Context, revisionID string) error
	MarkRevisionCompleted(ctx context.Context, revisionID string) error

	PeriodScoreCap(ctx context.Context, periodID string) (int, error)
	PrimaryEvaluatorID(ctx context.Context, periodID, employeeID string) (string, error)
	SecondaryEvaluatorIDs(ctx context.Context, periodID, employeeID string) ([]string, error)
}
