package evaluation

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// DownwardCandidate is a downward evaluation joined with the liveness of its
// underlying WBS assignment; bulk operations exclude rows whose assignment
// was cancelled after the evaluation was created.
type DownwardCandidate struct {
	DownwardEvaluation
	AssignmentActive bool
}

func (s *Store) GetOrCreateMapping(ctx context.Context, periodID, employeeID, createdBy string) (Mapping, error) {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO evaluation_period_employee_mappings (period_id, employee_id, created_by)
    VALUES ($1,$2,$3)
    ON CONFLICT (period_id, employee_id) DO NOTHING
  `, periodID, employeeID, nullIfEmpty(createdBy))
	if err != nil {
		return Mapping{}, err
	}
	return s.GetMapping(ctx, periodID, employeeID)
}

func (s *Store) GetMapping(ctx context.Context, periodID, employeeID string) (Mapping, error) {
	var m Mapping
	err := s.DB.QueryRow(ctx, `
    SELECT id, period_id, employee_id, criteria_submitted, criteria_submitted_at,
           self_submitted_to_evaluator, self_submitted_to_manager, created_at
    FROM evaluation_period_employee_mappings
    WHERE period_id = $1 AND employee_id = $2 AND deleted_at IS NULL
  `, periodID, employeeID).Scan(
		&m.ID, &m.PeriodID, &m.EmployeeID, &m.CriteriaSubmitted, &m.CriteriaSubmittedAt,
		&m.SelfSubmittedToEvaluator, &m.SelfSubmittedToManager, &m.CreatedAt,
	)
	if err != nil {
		return Mapping{}, err
	}
	return m, nil
}

func (s *Store) SubmitCriteria(ctx context.Context, mappingID string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE evaluation_period_employee_mappings
    SET criteria_submitted = true, criteria_submitted_at = now(), updated_at = now()
    WHERE id = $1 AND deleted_at IS NULL
  `, mappingID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrMappingNotFound
	}
	return nil
}

// GetOrCreateStepApproval lazily creates the approval row with every step at
// none. The insert and read run in one transaction so two concurrent first
// transitions cannot produce two rows.
func (s *Store) GetOrCreateStepApproval(ctx context.Context, mappingID, createdBy string) (StepApproval, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return StepApproval{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	approval, err := getOrCreateStepApprovalTx(ctx, tx, mappingID, createdBy)
	if err != nil {
		return StepApproval{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return StepApproval{}, err
	}
	return approval, nil
}

func getOrCreateStepApprovalTx(ctx context.Context, tx pgx.Tx, mappingID, createdBy string) (StepApproval, error) {
	if _, err := tx.Exec(ctx, `
    INSERT INTO employee_evaluation_step_approvals (mapping_id, primary_status, secondary_status, created_by)
    VALUES ($1,$2,$2,$3)
    ON CONFLICT (mapping_id) DO NOTHING
  `, mappingID, StepStatusNone, nullIfEmpty(createdBy)); err != nil {
		return StepApproval{}, err
	}

	var a StepApproval
	err := tx.QueryRow(ctx, `
    SELECT id, mapping_id, primary_status, secondary_status, COALESCE(changed_by::text, ''), changed_at
    FROM employee_evaluation_step_approvals
    WHERE mapping_id = $1
  `, mappingID).Scan(&a.ID, &a.MappingID, &a.PrimaryStatus, &a.SecondaryStatus, &a.ChangedBy, &a.ChangedAt)
	if err != nil {
		return StepApproval{}, err
	}
	return a, nil
}

func (s *Store) SetStepStatus(ctx context.Context, mappingID, step, status, actorID string) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := getOrCreateStepApprovalTx(ctx, tx, mappingID, actorID); err != nil {
		return err
	}
	if err := setStepStatusTx(ctx, tx, mappingID, step, status, actorID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func setStepStatusTx(ctx context.Context, tx pgx.Tx, mappingID, step, status, actorID string) error {
	column := ""
	switch step {
	case StepPrimary:
		column = "primary_status"
	case StepSecondary:
		column = "secondary_status"
	default:
		return ErrInvalidStep
	}

	_, err := tx.Exec(ctx, fmt.Sprintf(`
    UPDATE employee_evaluation_step_approvals
    SET %s = $1, changed_by = $2, changed_at = now()
    WHERE mapping_id = $3
  `, column), status, nullIfEmpty(actorID), mappingID)
	return err
}

func (s *Store) UpsertSelfEvaluation(ctx context.Context, periodID, employeeID, wbsItemID, content string, score *int) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO wbs_self_evaluations (period_id, employee_id, wbs_item_id, content, score)
    VALUES ($1,$2,$3,$4,$5)
    ON CONFLICT (period_id, employee_id, wbs_item_id) WHERE deleted_at IS NULL
    DO UPDATE SET content = EXCLUDED.content, score = EXCLUDED.score, updated_at = now()
    RETURNING id
  `, periodID, employeeID, wbsItemID, content, score).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) GetSelfEvaluation(ctx context.Context, evaluationID string) (WbsSelfEvaluation, error) {
	var e WbsSelfEvaluation
	err := s.DB.QueryRow(ctx, `
    SELECT id, period_id, employee_id, wbs_item_id, content, score,
           submitted_to_evaluator, evaluator_submitted_at,
           submitted_to_manager, manager_submitted_at, created_at
    FROM wbs_self_evaluations
    WHERE id = $1 AND deleted_at IS NULL
  `, evaluationID).Scan(
		&e.ID, &e.PeriodID, &e.EmployeeID, &e.WbsItemID, &e.Content, &e.Score,
		&e.SubmittedToEvaluator, &e.EvaluatorSubmittedAt,
		&e.SubmittedToManager, &e.ManagerSubmittedAt, &e.CreatedAt,
	)
	if err != nil {
		return WbsSelfEvaluation{}, err
	}
	return e, nil
}

func (s *Store) ListSelfEvaluations(ctx context.Context, periodID, employeeID string) ([]WbsSelfEvaluation, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, period_id, employee_id, wbs_item_id, content, score,
           submitted_to_evaluator, evaluator_submitted_at,
           submitted_to_manager, manager_submitted_at, created_at
    FROM wbs_self_evaluations
    WHERE period_id = $1 AND employee_id = $2 AND deleted_at IS NULL
    ORDER BY created_at
  `, periodID, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []WbsSelfEvaluation
	for rows.Next() {
		var e WbsSelfEvaluation
		if err := rows.Scan(
			&e.ID, &e.PeriodID, &e.EmployeeID, &e.WbsItemID, &e.Content, &e.Score,
			&e.SubmittedToEvaluator, &e.EvaluatorSubmittedAt,
			&e.SubmittedToManager, &e.ManagerSubmittedAt, &e.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// SubmitSelfEvaluation flips the requested submission flag and mirrors it on
// the period mapping, creating the mapping first if the employee has none
// yet. All writes share one transaction.
func (s *Store) SubmitSelfEvaluation(ctx context.Context, evaluationID, target, actorID string) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var periodID, employeeID string
	if err := tx.QueryRow(ctx, `
    SELECT period_id, employee_id
    FROM wbs_self_evaluations
    WHERE id = $1 AND deleted_at IS NULL
  `, evaluationID).Scan(&periodID, &employeeID); err != nil {
		return ErrEvaluationNotFound
	}

	switch target {
	case TargetEvaluator:
		if _, err := tx.Exec(ctx, `
      UPDATE wbs_self_evaluations
      SET submitted_to_evaluator = true, evaluator_submitted_at = now(), updated_at = now()
      WHERE id = $1
    `, evaluationID); err != nil {
			return err
		}
	case TargetManager:
		if _, err := tx.Exec(ctx, `
      UPDATE wbs_self_evaluations
      SET submitted_to_manager = true, manager_submitted_at = now(), updated_at = now()
      WHERE id = $1
    `, evaluationID); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown submission target %q", target)
	}

	if _, err := tx.Exec(ctx, `
    INSERT INTO evaluation_period_employee_mappings (period_id, employee_id, created_by)
    VALUES ($1,$2,$3)
    ON CONFLICT (period_id, employee_id) DO NOTHING
  `, periodID, employeeID, nullIfEmpty(actorID)); err != nil {
		return err
	}

	flagColumn := "self_submitted_to_evaluator"
	if target == TargetManager {
		flagColumn = "self_submitted_to_manager"
	}
	if _, err := tx.Exec(ctx, fmt.Sprintf(`
    UPDATE evaluation_period_employee_mappings
    SET %s = true, updated_at = now()
    WHERE period_id = $1 AND employee_id = $2
  `, flagColumn), periodID, employeeID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (s *Store) UpsertDownward(ctx context.Context, periodID, employeeID, evaluatorID, wbsItemID, evalType, content string, score *int) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO downward_evaluations (period_id, employee_id, evaluator_id, wbs_item_id, evaluation_type, content, score)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    ON CONFLICT (period_id, employee_id, evaluator_id, wbs_item_id, evaluation_type) WHERE deleted_at IS NULL
    DO UPDATE SET content = EXCLUDED.content, score = EXCLUDED.score, updated_at = now()
    RETURNING id
  `, periodID, employeeID, evaluatorID, wbsItemID, evalType, content, score).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) GetDownward(ctx context.Context, evaluationID string) (DownwardEvaluation, error) {
	var e DownwardEvaluation
	err := s.DB.QueryRow(ctx, `
    SELECT id, period_id, employee_id, evaluator_id, wbs_item_id, evaluation_type,
           content, score, is_completed, completed_at, created_at
    FROM downward_evaluations
    WHERE id = $1 AND deleted_at IS NULL
  `, evaluationID).Scan(
		&e.ID, &e.PeriodID, &e.EmployeeID, &e.EvaluatorID, &e.WbsItemID, &e.EvaluationType,
		&e.Content, &e.Score, &e.IsCompleted, &e.CompletedAt, &e.CreatedAt,
	)
	if err != nil {
		return DownwardEvaluation{}, err
	}
	return e, nil
}

func (s *Store) SaveDownward(ctx context.Context, evaluationID, content string, score *int) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE downward_evaluations
    SET content = $1, score = $2, updated_at = now()
    WHERE id = $3 AND deleted_at IS NULL
  `, content, score, evaluationID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEvaluationNotFound
	}
	return nil
}

// ListDownwardCandidates collects an evaluator's downward evaluations for a
// bulk operation scope. employeeID and projectID narrow the scope when set.
func (s *Store) ListDownwardCandidates(ctx context.Context, evaluatorID, periodID, employeeID, projectID, evalType string) ([]DownwardCandidate, error) {
	query := `
    SELECT de.id, de.period_id, de.employee_id, de.evaluator_id, de.wbs_item_id, de.evaluation_type,
           de.content, de.score, de.is_completed, de.completed_at, de.created_at,
           (wa.id IS NOT NULL) AS assignment_active
    FROM downward_evaluations de
    LEFT JOIN wbs_assignments wa
      ON wa.wbs_item_id = de.wbs_item_id
     AND wa.employee_id = de.employee_id
     AND wa.period_id = de.period_id
     AND wa.deleted_at IS NULL
    WHERE de.evaluator_id = $1 AND de.period_id = $2 AND de.evaluation_type = $3 AND de.deleted_at IS NULL
  `
	args := []any{evaluatorID, periodID, evalType}
	if employeeID != "" {
		query += fmt.Sprintf(" AND de.employee_id = $%d", len(args)+1)
		args = append(args, employeeID)
	}
	if projectID != "" {
		query += fmt.Sprintf(" AND de.wbs_item_id IN (SELECT id FROM wbs_items WHERE project_id = $%d)", len(args)+1)
		args = append(args, projectID)
	}
	query += " ORDER BY de.created_at"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DownwardCandidate
	for rows.Next() {
		var c DownwardCandidate
		if err := rows.Scan(
			&c.ID, &c.PeriodID, &c.EmployeeID, &c.EvaluatorID, &c.WbsItemID, &c.EvaluationType,
			&c.Content, &c.Score, &c.IsCompleted, &c.CompletedAt, &c.CreatedAt,
			&c.AssignmentActive,
		); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// CompleteDownward marks the evaluation completed and moves the matching
// approval step to pending, creating the mapping and approval rows as needed.
// Everything runs in one transaction.
func (s *Store) CompleteDownward(ctx context.Context, evaluationID, actorID string) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var periodID, employeeID, evalType string
	if err := tx.QueryRow(ctx, `
    UPDATE downward_evaluations
    SET is_completed = true, completed_at = now(), updated_at = now()
    WHERE id = $1 AND deleted_at IS NULL
    RETURNING period_id, employee_id, evaluation_type
  `, evaluationID).Scan(&periodID, &employeeID, &evalType); err != nil {
		return ErrEvaluationNotFound
	}

	var mappingID string
	if err := tx.QueryRow(ctx, `
    INSERT INTO evaluation_period_employee_mappings (period_id, employee_id, created_by)
    VALUES ($1,$2,$3)
    ON CONFLICT (period_id, employee_id) DO UPDATE SET updated_at = now()
    RETURNING id
  `, periodID, employeeID, nullIfEmpty(actorID)).Scan(&mappingID); err != nil {
		return err
	}

	if _, err := getOrCreateStepApprovalTx(ctx, tx, mappingID, actorID); err != nil {
		return err
	}

	step := StepPrimary
	if evalType == TypeSecondary {
		step = StepSecondary
	}
	if err := setStepStatusTx(ctx, tx, mappingID, step, StepStatusPending, actorID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (s *Store) ResetDownwardCompletion(ctx context.Context, evaluationID string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE downward_evaluations
    SET is_completed = false, completed_at = NULL, updated_at = now()
    WHERE id = $1 AND deleted_at IS NULL
  `, evaluationID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEvaluationNotFound
	}
	return nil
}

// CreateRevisionRequest persists the request and resets the submission state
// the step depends on, in one transaction. Secondary-step requests reset only
// the named evaluator's completion state.
func (s *Store) CreateRevisionRequest(ctx context.Context, d RevisionDetails) (string, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id string
	if err := tx.QueryRow(ctx, `
    INSERT INTO revision_requests (period_id, employee_id, step, evaluator_id, comment, requested_by)
    VALUES ($1,$2,$3,$4,$5,$6)
    RETURNING id
  `, d.PeriodID, d.EmployeeID, d.Step, nullIfEmpty(d.EvaluatorID), d.Comment, d.RequestedBy).Scan(&id); err != nil {
		return "", err
	}

	var mappingID string
	if err := tx.QueryRow(ctx, `
    SELECT id FROM evaluation_period_employee_mappings
    WHERE period_id = $1 AND employee_id = $2 AND deleted_at IS NULL
  `, d.PeriodID, d.EmployeeID).Scan(&mappingID); err != nil {
		return "", ErrMappingNotFound
	}

	switch d.Step {
	case StepCriteria:
		if _, err := tx.Exec(ctx, `
      UPDATE evaluation_period_employee_mappings
      SET criteria_submitted = false, criteria_submitted_at = NULL, updated_at = now()
      WHERE id = $1
    `, mappingID); err != nil {
			return "", err
		}
	case StepSelf:
		if _, err := tx.Exec(ctx, `
      UPDATE wbs_self_evaluations
      SET submitted_to_evaluator = false, evaluator_submitted_at = NULL,
          submitted_to_manager = false, manager_submitted_at = NULL,
          updated_at = now()
      WHERE period_id = $1 AND employee_id = $2 AND deleted_at IS NULL
    `, d.PeriodID, d.EmployeeID); err != nil {
			return "", err
		}
		if _, err := tx.Exec(ctx, `
      UPDATE evaluation_period_employee_mappings
      SET self_submitted_to_evaluator = false, self_submitted_to_manager = false, updated_at = now()
      WHERE id = $1
    `, mappingID); err != nil {
			return "", err
		}
	case StepPrimary:
		if _, err := tx.Exec(ctx, `
      UPDATE downward_evaluations
      SET is_completed = false, completed_at = NULL, updated_at = now()
      WHERE period_id = $1 AND employee_id = $2 AND evaluation_type = $3 AND deleted_at IS NULL
    `, d.PeriodID, d.EmployeeID, TypePrimary); err != nil {
			return "", err
		}
		if err := setStepStatusTx(ctx, tx, mappingID, StepPrimary, StepStatusNone, d.RequestedBy); err != nil {
			return "", err
		}
	case StepSecondary:
		if _, err := tx.Exec(ctx, `
      UPDATE downward_evaluations
      SET is_completed = false, completed_at = NULL, updated_at = now()
      WHERE period_id = $1 AND employee_id = $2 AND evaluation_type = $3 AND evaluator_id = $4 AND deleted_at IS NULL
    `, d.PeriodID, d.EmployeeID, TypeSecondary, d.EvaluatorID); err != nil {
			return "", err
		}
		if err := setStepStatusTx(ctx, tx, mappingID, StepSecondary, StepStatusNone, d.RequestedBy); err != nil {
			return "", err
		}
	default:
		return "", ErrInvalidStep
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) ListRevisionRequests(ctx context.Context, periodID, employeeID string, onlyOpen bool) ([]RevisionRequest, error) {
	query := `
    SELECT id, period_id, employee_id, step, COALESCE(evaluator_id::text, ''), comment, requested_by,
           is_read, read_at, is_completed, completed_at, created_at
    FROM revision_requests
    WHERE period_id = $1
  `
	args := []any{periodID}
	if employeeID != "" {
		query += fmt.Sprintf(" AND employee_id = $%d", len(args)+1)
		args = append(args, employeeID)
	}
	if onlyOpen {
		query += " AND is_completed = false"
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RevisionRequest
	for rows.Next() {
		var r RevisionRequest
		if err := rows.Scan(
			&r.ID, &r.PeriodID, &r.EmployeeID, &r.Step, &r.EvaluatorID, &r.Comment, &r.RequestedBy,
			&r.IsRead, &r.ReadAt, &r.IsCompleted, &r.CompletedAt, &r.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *Store) MarkRevisionRead(ctx context.Context, revisionID string) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE revision_requests
    SET is_read = true, read_at = now()
    WHERE id = $1 AND is_read = false
  `, revisionID)
	return err
}

func (s *Store) MarkRevisionCompleted(ctx context.Context, revisionID string) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE revision_requests
    SET is_completed = true, completed_at = now()
    WHERE id = $1 AND is_completed = false
  `, revisionID)
	return err
}

func (s *Store) PeriodScoreCap(ctx context.Context, periodID string) (int, error) {
	var rate int
	if err := s.DB.QueryRow(ctx, `
    SELECT max_self_evaluation_rate
    FROM evaluation_periods
    WHERE id = $1 AND deleted_at IS NULL
  `, periodID).Scan(&rate); err != nil {
		return 0, err
	}
	return rate, nil
}

func (s *Store) PrimaryEvaluatorID(ctx context.Context, periodID, employeeID string) (string, error) {
	var evaluatorID string
	err := s.DB.QueryRow(ctx, `
    SELECT evaluator_id
    FROM evaluation_line_mappings
    WHERE period_id = $1 AND employee_id = $2 AND evaluation_type = $3 AND deleted_at IS NULL
    LIMIT 1
  `, periodID, employeeID, TypePrimary).Scan(&evaluatorID)
	if err != nil {
		return "", err
	}
	return evaluatorID, nil
}

func (s *Store) SecondaryEvaluatorIDs(ctx context.Context, periodID, employeeID string) ([]string, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT evaluator_id
    FROM evaluation_line_mappings
    WHERE period_id = $1 AND employee_id = $2 AND evaluation_type = $3 AND deleted_at IS NULL
  `, periodID, employeeID, TypeSecondary)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
