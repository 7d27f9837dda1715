package evaluation

import "time"

type Mapping struct {
	ID                       string     `json:"id"`
	PeriodID                 string     `json:"periodId"`
	EmployeeID               string     `json:"employeeId"`
	CriteriaSubmitted        bool       `json:"criteriaSubmitted"`
	CriteriaSubmittedAt      *time.Time `json:"criteriaSubmittedAt,omitempty"`
	SelfSubmittedToEvaluator bool       `json:"selfSubmittedToEvaluator"`
	SelfSubmittedToManager   bool       `json:"selfSubmittedToManager"`
	CreatedAt                time.Time  `json:"createdAt"`
}

type StepApproval struct {
	ID              string     `json:"id"`
	MappingID       string     `json:"mappingId"`
	PrimaryStatus   string     `json:"primaryStatus"`
	SecondaryStatus string     `json:"secondaryStatus"`
	ChangedBy       string     `json:"changedBy,omitempty"`
	ChangedAt       *time.Time `json:"changedAt,omitempty"`
}

type WbsSelfEvaluation struct {
	ID                   string     `json:"id"`
	PeriodID             string     `json:"periodId"`
	EmployeeID           string     `json:"employeeId"`
	WbsItemID            string     `json:"wbsItemId"`
	Content              string     `json:"content"`
	Score                *int       `json:"score,omitempty"`
	SubmittedToEvaluator bool       `json:"submittedToEvaluator"`
	EvaluatorSubmittedAt *time.Time `json:"evaluatorSubmittedAt,omitempty"`
	SubmittedToManager   bool       `json:"submittedToManager"`
	ManagerSubmittedAt   *time.Time `json:"managerSubmittedAt,omitempty"`
	CreatedAt            time.Time  `json:"createdAt"`
}

type DownwardEvaluation struct {
	ID             string     `json:"id"`
	PeriodID       string     `json:"periodId"`
	EmployeeID     string     `json:"employeeId"`
	EvaluatorID    string     `json:"evaluatorId"`
	WbsItemID      string     `json:"wbsItemId"`
	EvaluationType string     `json:"evaluationType"`
	Content        string     `json:"content"`
	Score          *int       `json:"score,omitempty"`
	IsCompleted    bool       `json:"isCompleted"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

type RevisionRequest struct {
	ID          string     `json:"id"`
	PeriodID    string     `json:"periodId"`
	EmployeeID  string     `json:"employeeId"`
	Step        string     `json:"step"`
	EvaluatorID string     `json:"evaluatorId,omitempty"`
	Comment     string     `json:"comment"`
	RequestedBy string     `json:"requestedBy"`
	IsRead      bool       `json:"isRead"`
	ReadAt      *time.Time `json:"readAt,omitempty"`
	IsCompleted bool       `json:"isCompleted"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

type RevisionDetails struct {
	PeriodID    string
	EmployeeID  string
	Step        string
	EvaluatorID string
	Comment     string
	RequestedBy string
}

// BulkItemFailure names one item a bulk operation could not process and why.
type BulkItemFailure struct {
	EvaluationID string `json:"evaluationId"`
	Reason       string `json:"reason"`
}

// BulkResult reports a partitioned bulk outcome: processed ids, ids skipped
// because they were already done, and per-item failures. One bad item never
// aborts the batch.
type BulkResult struct {
	Succeeded        []string          `json:"succeeded"`
	AlreadySubmitted []string          `json:"alreadySubmitted"`
	Failed           []BulkItemFailure `json:"failedItems"`
}
