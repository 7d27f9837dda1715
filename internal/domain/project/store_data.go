package project

import (
	"context"
	"fmt"
)

func (s *Store) CreateProject(ctx context.Context, d ProjectDetails) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO projects (code, name, description, start_date, end_date)
    VALUES ($1,$2,$3,$4,$5)
    RETURNING id
  `, d.Code, d.Name, d.Description, d.StartDate, d.EndDate).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return "", ErrDuplicateCode
		}
		return "", err
	}
	return id, nil
}

func (s *Store) GetProject(ctx context.Context, projectID string) (Project, error) {
	var p Project
	err := s.DB.QueryRow(ctx, `
    SELECT id, code, name, COALESCE(description, ''), start_date, end_date, created_at
    FROM projects
    WHERE id = $1 AND deleted_at IS NULL
  `, projectID).Scan(&p.ID, &p.Code, &p.Name, &p.Description, &p.StartDate, &p.EndDate, &p.CreatedAt)
	if err != nil {
		return Project{}, err
	}
	return p, nil
}

func (s *Store) ListProjects(ctx context.Context, limit, offset int) ([]Project, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, code, name, COALESCE(description, ''), start_date, end_date, created_at
    FROM projects
    WHERE deleted_at IS NULL
    ORDER BY code
    LIMIT $1 OFFSET $2
  `, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Code, &p.Name, &p.Description, &p.StartDate, &p.EndDate, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *Store) UpdateProject(ctx context.Context, projectID string, d ProjectDetails) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE projects
    SET code = $1, name = $2, description = $3, start_date = $4, end_date = $5, updated_at = now()
    WHERE id = $6 AND deleted_at IS NULL
  `, d.Code, d.Name, d.Description, d.StartDate, d.EndDate, projectID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateCode
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProjectNotFound
	}
	return nil
}

func (s *Store) SoftDeleteProject(ctx context.Context, projectID string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE projects SET deleted_at = now() WHERE id = $1 AND deleted_at IS NULL
  `, projectID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProjectNotFound
	}
	return nil
}

func (s *Store) CreateWbsItem(ctx context.Context, projectID, code, name string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO wbs_items (project_id, code, name)
    VALUES ($1,$2,$3)
    RETURNING id
  `, projectID, code, name).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return "", ErrDuplicateCode
		}
		return "", err
	}
	return id, nil
}

func (s *Store) ListWbsItems(ctx context.Context, projectID string) ([]WbsItem, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, project_id, code, name, created_at
    FROM wbs_items
    WHERE project_id = $1 AND deleted_at IS NULL
    ORDER BY code
  `, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []WbsItem
	for rows.Next() {
		var w WbsItem
		if err := rows.Scan(&w.ID, &w.ProjectID, &w.Code, &w.Name, &w.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, nil
}

func (s *Store) SoftDeleteWbsItem(ctx context.Context, wbsItemID string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE wbs_items SET deleted_at = now() WHERE id = $1 AND deleted_at IS NULL
  `, wbsItemID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrWbsItemNotFound
	}
	return nil
}

func (s *Store) CreateAssignment(ctx context.Context, projectID, employeeID, periodID string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO project_assignments (project_id, employee_id, period_id)
    VALUES ($1,$2,$3)
    ON CONFLICT (project_id, employee_id, period_id) WHERE deleted_at IS NULL
    DO UPDATE SET updated_at = now()
    RETURNING id
  `, projectID, employeeID, periodID).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) GetAssignment(ctx context.Context, assignmentID string) (Assignment, error) {
	var a Assignment
	err := s.DB.QueryRow(ctx, `
    SELECT id, project_id, employee_id, period_id, created_at
    FROM project_assignments
    WHERE id = $1 AND deleted_at IS NULL
  `, assignmentID).Scan(&a.ID, &a.ProjectID, &a.EmployeeID, &a.PeriodID, &a.CreatedAt)
	if err != nil {
		return Assignment{}, err
	}
	return a, nil
}

func (s *Store) ListAssignments(ctx context.Context, periodID, employeeID string) ([]Assignment, error) {
	query := `
    SELECT id, project_id, employee_id, period_id, created_at
    FROM project_assignments
    WHERE period_id = $1 AND deleted_at IS NULL
  `
	args := []any{periodID}
	if employeeID != "" {
		query += fmt.Sprintf(" AND employee_id = $%d", len(args)+1)
		args = append(args, employeeID)
	}
	query += " ORDER BY created_at"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Assignment
	for rows.Next() {
		var a Assignment
		if err := rows.Scan(&a.ID, &a.ProjectID, &a.EmployeeID, &a.PeriodID, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *Store) CreateWbsAssignment(ctx context.Context, wbsItemID, employeeID, periodID string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO wbs_assignments (wbs_item_id, employee_id, period_id)
    VALUES ($1,$2,$3)
    ON CONFLICT (wbs_item_id, employee_id, period_id) WHERE deleted_at IS NULL
    DO UPDATE SET updated_at = now()
    RETURNING id
  `, wbsItemID, employeeID, periodID).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) CreateLineMapping(ctx context.Context, periodID, employeeID, evaluatorID, evaluationType string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO evaluation_line_mappings (period_id, employee_id, evaluator_id, evaluation_type)
    VALUES ($1,$2,$3,$4)
    ON CONFLICT (period_id, employee_id, evaluator_id, evaluation_type) WHERE deleted_at IS NULL
    DO UPDATE SET updated_at = now()
    RETURNING id
  `, periodID, employeeID, evaluatorID, evaluationType).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) ListLineMappings(ctx context.Context, periodID, employeeID string) ([]LineMapping, error) {
	query := `
    SELECT id, period_id, employee_id, evaluator_id, evaluation_type, created_at
    FROM evaluation_line_mappings
    WHERE period_id = $1 AND deleted_at IS NULL
  `
	args := []any{periodID}
	if employeeID != "" {
		query += fmt.Sprintf(" AND employee_id = $%d", len(args)+1)
		args = append(args, employeeID)
	}
	query += " ORDER BY created_at"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LineMapping
	for rows.Next() {
		var m LineMapping
		if err := rows.Scan(&m.ID, &m.PeriodID, &m.EmployeeID, &m.EvaluatorID, &m.EvaluationType, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// CancelAssignment soft-deletes the assignment and every row that depends on
// it in one transaction: the employee's WBS assignments under the project,
// the self and downward evaluations tied to those WBS items, and the
// employee's line mappings for the period. Either everything is cancelled or
// nothing is.
func (s *Store) CancelAssignment(ctx context.Context, assignmentID string) (CancelSummary, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return CancelSummary{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var projectID, employeeID, periodID string
	if err := tx.QueryRow(ctx, `
    UPDATE project_assignments
    SET deleted_at = now()
    WHERE id = $1 AND deleted_at IS NULL
    RETURNING project_id, employee_id, period_id
  `, assignmentID).Scan(&projectID, &employeeID, &periodID); err != nil {
		return CancelSummary{}, ErrAssignmentNotFound
	}

	var summary CancelSummary

	tag, err := tx.Exec(ctx, `
    UPDATE wbs_assignments
    SET deleted_at = now()
    WHERE employee_id = $1 AND period_id = $2 AND deleted_at IS NULL
      AND wbs_item_id IN (SELECT id FROM wbs_items WHERE project_id = $3)
  `, employeeID, periodID, projectID)
	if err != nil {
		return CancelSummary{}, err
	}
	summary.WbsAssignments = int(tag.RowsAffected())

	tag, err = tx.Exec(ctx, `
    UPDATE wbs_self_evaluations
    SET deleted_at = now()
    WHERE employee_id = $1 AND period_id = $2 AND deleted_at IS NULL
      AND wbs_item_id IN (SELECT id FROM wbs_items WHERE project_id = $3)
  `, employeeID, periodID, projectID)
	if err != nil {
		return CancelSummary{}, err
	}
	summary.SelfEvaluations = int(tag.RowsAffected())

	tag, err = tx.Exec(ctx, `
    UPDATE downward_evaluations
    SET deleted_at = now()
    WHERE employee_id = $1 AND period_id = $2 AND deleted_at IS NULL
      AND wbs_item_id IN (SELECT id FROM wbs_items WHERE project_id = $3)
  `, employeeID, periodID, projectID)
	if err != nil {
		return CancelSummary{}, err
	}
	summary.DownwardEvaluations = int(tag.RowsAffected())

	tag, err = tx.Exec(ctx, `
    UPDATE evaluation_line_mappings
    SET deleted_at = now()
    WHERE employee_id = $1 AND period_id = $2 AND deleted_at IS NULL
  `, employeeID, periodID)
	if err != nil {
		return CancelSummary{}, err
	}
	summary.LineMappings = int(tag.RowsAffected())

	if err := tx.Commit(ctx); err != nil {
		return CancelSummary{}, err
	}
	return summary, nil
}
