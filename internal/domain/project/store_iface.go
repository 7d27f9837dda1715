package project

import "context"

type StoreAPI interface {
	CreateProject(ctx context.Context, d ProjectDetails) (string, error)
	GetProject(ctx context.Context, projectID string) (Project, error)
	ListProjects(ctx context.Context, limit, offset int) ([]Project, error)
	UpdateProject(ctx context.Context, projectID string, d ProjectDetails) error
	SoftDeleteProject(ctx context.Context, projectID string) error

	CreateWbsItem(ctx context.Context, projectID, code, name string) (string, error)
	ListWbsItems(ctx context.Context, projectID string) ([]WbsItem, error)
	SoftDeleteWbsItem(ctx context.Context, wbsItemID string) error

	CreateAssignment(ctx context.Context, projectID, employeeID, periodID string) (string, error)
	GetAssignment(ctx context.Context, assignmentID string) (Assignment, error)
	ListAssignments(ctx context.Context, periodID, employeeID string) ([]Assignment, error)
	CancelAssignment(ctx context.Context, assignmentID string) (CancelSummary, error)

	CreateWbsAssignment(ctx context.Context, wbsItemID, employeeID, periodID string) (string, error)

	CreateLineMapping(ctx context.Context, periodID, employeeID, evaluatorID, evaluationType string) (string, error)
	ListLineMappings(ctx context.Context, periodID, employeeID string) ([]LineMapping, error)
}
