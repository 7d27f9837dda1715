package period

import "time"

type GradeRange struct {
	Grade    string `json:"grade"`
	MinRange int    `json:"minRange"`
	MaxRange int    `json:"maxRange"`
}

type EvaluationPeriod struct {
	ID                      string       `json:"id"`
	Name                    string       `json:"name"`
	StartDate               time.Time    `json:"startDate"`
	EndDate                 *time.Time   `json:"endDate,omitempty"`
	Status                  string       `json:"status"`
	CurrentPhase            string       `json:"currentPhase"`
	EvaluationSetupDeadline time.Time    `json:"evaluationSetupDeadline"`
	PerformanceDeadline     time.Time    `json:"performanceDeadline"`
	SelfEvaluationDeadline  time.Time    `json:"selfEvaluationDeadline"`
	PeerEvaluationDeadline  time.Time    `json:"peerEvaluationDeadline"`
	MaxSelfEvaluationRate   int          `json:"maxSelfEvaluationRate"`
	GradeRanges             []GradeRange `json:"gradeRanges"`
	CriteriaManualAllowed   bool         `json:"criteriaManualAllowed"`
	SelfManualAllowed       bool         `json:"selfManualAllowed"`
	FinalManualAllowed      bool         `json:"finalManualAllowed"`
	ApprovalStatus          string       `json:"approvalStatus"`
	ApprovalDocumentID      string       `json:"approvalDocumentId,omitempty"`
	CreatedAt               time.Time    `json:"createdAt"`
}

type PeriodDetails struct {
	Name                    string
	StartDate               time.Time
	EndDate                 *time.Time
	EvaluationSetupDeadline time.Time
	PerformanceDeadline     time.Time
	SelfEvaluationDeadline  time.Time
	PeerEvaluationDeadline  time.Time
	MaxSelfEvaluationRate   int
	GradeRanges             []GradeRange
	CriteriaManualAllowed   bool
	SelfManualAllowed       bool
	FinalManualAllowed      bool
}
