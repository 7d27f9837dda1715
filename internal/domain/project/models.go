package project

import "time"

type Project struct {
	ID          string     `json:"id"`
	Code        string     `json:"code"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	StartDate   *time.Time `json:"startDate,omitempty"`
	EndDate     *time.Time `json:"endDate,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

type ProjectDetails struct {
	Code        string     `json:"code"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	StartDate   *time.Time `json:"startDate,omitempty"`
	EndDate     *time.Time `json:"endDate,omitempty"`
}

type WbsItem struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"projectId"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Assignment ties an employee to a project for one evaluation period.
// Cancelling it cascades to every dependent evaluation row.
type Assignment struct {
	ID         string    `json:"id"`
	ProjectID  string    `json:"projectId"`
	EmployeeID string    `json:"employeeId"`
	PeriodID   string    `json:"periodId"`
	CreatedAt  time.Time `json:"createdAt"`
}

type WbsAssignment struct {
	ID         string    `json:"id"`
	WbsItemID  string    `json:"wbsItemId"`
	EmployeeID string    `json:"employeeId"`
	PeriodID   string    `json:"periodId"`
	CreatedAt  time.Time `json:"createdAt"`
}

// LineMapping binds an evaluator to an employee for a period, as the
// employee's primary or secondary evaluator.
type LineMapping struct {
	ID             string    `json:"id"`
	PeriodID       string    `json:"periodId"`
	EmployeeID     string    `json:"employeeId"`
	EvaluatorID    string    `json:"evaluatorId"`
	EvaluationType string    `json:"evaluationType"`
	CreatedAt      time.Time `json:"createdAt"`
}

// CancelSummary counts the rows soft-deleted by one assignment cancellation.
type CancelSummary struct {
	WbsAssignments      int `json:"wbsAssignments"`
	SelfEvaluations     int `json:"selfEvaluations"`
	DownwardEvaluations int `json:"downwardEvaluations"`
	LineMappings        int `json:"lineMappings"`
}
