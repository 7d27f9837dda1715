package period

const (
	StatusWaiting    = "waiting"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"

	PhaseWaiting         = "waiting"
	PhaseEvaluationSetup = "evaluation_setup"
	PhasePerformance     = "performance"
	PhaseSelfEvaluation  = "self_evaluation"
	PhasePeerEvaluation  = "peer_evaluation"
	PhaseCompleted       = "completed"

	// GradeScaleMax is the top of the grading scale every period's grade
	// ranges must cover.
	GradeScaleMax = 100

	ApprovalNone        = "none"
	ApprovalPending     = "pending"
	ApprovalApproved    = "approved"
	ApprovalRejected    = "rejected"
	ApprovalCancelled   = "cancelled"
	ApprovalImplemented = "implemented"
)
