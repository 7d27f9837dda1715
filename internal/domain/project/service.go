package project

import (
	"context"
	"strings"
)

type Service struct {
	store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store}
}

func (s *Service) Create(ctx context.Context, d ProjectDetails) (Project, error) {
	if err := validateDetails(d); err != nil {
		return Project{}, err
	}
	id, err := s.store.CreateProject(ctx, d)
	if err != nil {
		return Project{}, err
	}
	return s.store.GetProject(ctx, id)
}

func (s *Service) Get(ctx context.Context, projectID string) (Project, error) {
	return s.store.GetProject(ctx, projectID)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]Project, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.ListProjects(ctx, limit, offset)
}

func (s *Service) Update(ctx context.Context, projectID string, d ProjectDetails) (Project, error) {
	if err := validateDetails(d); err != nil {
		return Project{}, err
	}
	if err := s.store.UpdateProject(ctx, projectID, d); err != nil {
		return Project{}, err
	}
	return s.store.GetProject(ctx, projectID)
}

func (s *Service) Delete(ctx context.Context, projectID string) error {
	return s.store.SoftDeleteProject(ctx, projectID)
}

func (s *Service) AddWbsItem(ctx context.Context, projectID, code, name string) ([]WbsItem, error) {
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return nil, ErrProjectNotFound
	}
	if _, err := s.store.CreateWbsItem(ctx, projectID, code, name); err != nil {
		return nil, err
	}
	return s.store.ListWbsItems(ctx, projectID)
}

func (s *Service) WbsItems(ctx context.Context, projectID string) ([]WbsItem, error) {
	return s.store.ListWbsItems(ctx, projectID)
}

func (s *Service) RemoveWbsItem(ctx context.Context, wbsItemID string) error {
	return s.store.SoftDeleteWbsItem(ctx, wbsItemID)
}

func (s *Service) Assign(ctx context.Context, projectID, employeeID, periodID string) (Assignment, error) {
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return Assignment{}, ErrProjectNotFound
	}
	id, err := s.store.CreateAssignment(ctx, projectID, employeeID, periodID)
	if err != nil {
		return Assignment{}, err
	}
	return s.store.GetAssignment(ctx, id)
}

func (s *Service) Assignments(ctx context.Context, periodID, employeeID string) ([]Assignment, error) {
	return s.store.ListAssignments(ctx, periodID, employeeID)
}

func (s *Service) AssignWbs(ctx context.Context, wbsItemID, employeeID, periodID string) (string, error) {
	return s.store.CreateWbsAssignment(ctx, wbsItemID, employeeID, periodID)
}

// CancelAssignment removes an employee from a project for a period and
// cancels everything that hangs off the assignment.
func (s *Service) CancelAssignment(ctx context.Context, assignmentID string) (CancelSummary, error) {
	return s.store.CancelAssignment(ctx, assignmentID)
}

func (s *Service) MapEvaluator(ctx context.Context, periodID, employeeID, evaluatorID, evaluationType string) (LineMapping, error) {
	if evaluationType != "primary" && evaluationType != "secondary" {
		return LineMapping{}, ErrInvalidLineType
	}
	id, err := s.store.CreateLineMapping(ctx, periodID, employeeID, evaluatorID, evaluationType)
	if err != nil {
		return LineMapping{}, err
	}
	mappings, err := s.store.ListLineMappings(ctx, periodID, employeeID)
	if err != nil {
		return LineMapping{}, err
	}
	for _, m := range mappings {
		if m.ID == id {
			return m, nil
		}
	}
	return LineMapping{ID: id, PeriodID: periodID, EmployeeID: employeeID, EvaluatorID: evaluatorID, EvaluationType: evaluationType}, nil
}

func (s *Service) LineMappings(ctx context.Context, periodID, employeeID string) ([]LineMapping, error) {
	return s.store.ListLineMappings(ctx, periodID, employeeID)
}

func validateDetails(d ProjectDetails) error {
	if strings.TrimSpace(d.Code) == "" || strings.TrimSpace(d.Name) == "" {
		return ErrMissingFields
	}
	if d.StartDate != nil && d.EndDate != nil && d.EndDate.Before(*d.StartDate) {
		return ErrInvalidDateOrder
	}
	return nil
}
