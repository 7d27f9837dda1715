package period

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const periodColumns = `
    id, name, start_date, end_date, status, current_phase,
    evaluation_setup_deadline, performance_deadline, self_evaluation_deadline, peer_evaluation_deadline,
    max_self_evaluation_rate, grade_ranges_json,
    criteria_manual_allowed, self_manual_allowed, final_manual_allowed,
    approval_status, COALESCE(approval_document_id, ''), created_at`

func (s *Store) CreatePeriod(ctx context.Context, d PeriodDetails) (string, error) {
	rangesJSON, err := json.Marshal(d.GradeRanges)
	if err != nil {
		return "", err
	}

	var id string
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO evaluation_periods
      (name, start_date, end_date, status, current_phase,
       evaluation_setup_deadline, performance_deadline, self_evaluation_deadline, peer_evaluation_deadline,
       max_self_evaluation_rate, grade_ranges_json,
       criteria_manual_allowed, self_manual_allowed, final_manual_allowed,
       approval_status)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
    RETURNING id
  `, d.Name, d.StartDate, d.EndDate, StatusWaiting, PhaseWaiting,
		d.EvaluationSetupDeadline, d.PerformanceDeadline, d.SelfEvaluationDeadline, d.PeerEvaluationDeadline,
		d.MaxSelfEvaluationRate, rangesJSON,
		d.CriteriaManualAllowed, d.SelfManualAllowed, d.FinalManualAllowed,
		ApprovalNone).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) GetPeriod(ctx context.Context, periodID string) (EvaluationPeriod, error) {
	var p EvaluationPeriod
	var rangesJSON []byte
	if err := s.DB.QueryRow(ctx, `
    SELECT `+periodColumns+`
    FROM evaluation_periods
    WHERE id = $1 AND deleted_at IS NULL
  `, periodID).Scan(
		&p.ID, &p.Name, &p.StartDate, &p.EndDate, &p.Status, &p.CurrentPhase,
		&p.EvaluationSetupDeadline, &p.PerformanceDeadline, &p.SelfEvaluationDeadline, &p.PeerEvaluationDeadline,
		&p.MaxSelfEvaluationRate, &rangesJSON,
		&p.CriteriaManualAllowed, &p.SelfManualAllowed, &p.FinalManualAllowed,
		&p.ApprovalStatus, &p.ApprovalDocumentID, &p.CreatedAt,
	); err != nil {
		return EvaluationPeriod{}, err
	}
	if err := json.Unmarshal(rangesJSON, &p.GradeRanges); err != nil {
		p.GradeRanges = nil
	}
	return p, nil
}

func (s *Store) ListPeriods(ctx context.Context, status string, limit, offset int) ([]EvaluationPeriod, error) {
	query := `
    SELECT ` + periodColumns + `
    FROM evaluation_periods
    WHERE deleted_at IS NULL
  `
	args := []any{}
	if status != "" {
		query += fmt.Sprintf(" AND status = $%d", len(args)+1)
		args = append(args, status)
	}
	query += fmt.Sprintf(" ORDER BY start_date DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var periods []EvaluationPeriod
	for rows.Next() {
		var p EvaluationPeriod
		var rangesJSON []byte
		if err := rows.Scan(
			&p.ID, &p.Name, &p.StartDate, &p.EndDate, &p.Status, &p.CurrentPhase,
			&p.EvaluationSetupDeadline, &p.PerformanceDeadline, &p.SelfEvaluationDeadline, &p.PeerEvaluationDeadline,
			&p.MaxSelfEvaluationRate, &rangesJSON,
			&p.CriteriaManualAllowed, &p.SelfManualAllowed, &p.FinalManualAllowed,
			&p.ApprovalStatus, &p.ApprovalDocumentID, &p.CreatedAt,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(rangesJSON, &p.GradeRanges); err != nil {
			p.GradeRanges = nil
		}
		periods = append(periods, p)
	}
	return periods, nil
}

func (s *Store) UpdatePeriod(ctx context.Context, periodID string, d PeriodDetails) error {
	rangesJSON, err := json.Marshal(d.GradeRanges)
	if err != nil {
		return err
	}

	tag, err := s.DB.Exec(ctx, `
    UPDATE evaluation_periods
    SET name = $1, start_date = $2, end_date = $3,
        evaluation_setup_deadline = $4, performance_deadline = $5,
        self_evaluation_deadline = $6, peer_evaluation_deadline = $7,
        max_self_evaluation_rate = $8, grade_ranges_json = $9,
        criteria_manual_allowed = $10, self_manual_allowed = $11, final_manual_allowed = $12,
        updated_at = now()
    WHERE id = $13 AND deleted_at IS NULL
  `, d.Name, d.StartDate, d.EndDate,
		d.EvaluationSetupDeadline, d.PerformanceDeadline,
		d.SelfEvaluationDeadline, d.PeerEvaluationDeadline,
		d.MaxSelfEvaluationRate, rangesJSON,
		d.CriteriaManualAllowed, d.SelfManualAllowed, d.FinalManualAllowed,
		periodID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPeriodNotFound
	}
	return nil
}

func (s *Store) SoftDeletePeriod(ctx context.Context, periodID string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE evaluation_periods
    SET deleted_at = now()
    WHERE id = $1 AND deleted_at IS NULL
  `, periodID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPeriodNotFound
	}
	return nil
}

func (s *Store) ListInProgress(ctx context.Context) ([]EvaluationPeriod, error) {
	return s.ListPeriods(ctx, StatusInProgress, 1000, 0)
}

// AdvancePhase moves a period one phase forward. The fromPhase guard makes
// the sweep idempotent: a period already advanced by a previous run no
// longer matches, so the update affects zero rows.
func (s *Store) AdvancePhase(ctx context.Context, periodID, fromPhase, toPhase string) (bool, error) {
	status := StatusInProgress
	if toPhase == PhaseCompleted {
		status = StatusCompleted
	}
	tag, err := s.DB.Exec(ctx, `
    UPDATE evaluation_periods
    SET current_phase = $1, status = $2, updated_at = now()
    WHERE id = $3 AND current_phase = $4 AND status = $5 AND deleted_at IS NULL
  `, toPhase, status, periodID, fromPhase, StatusInProgress)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) OverridePhase(ctx context.Context, periodID, phase string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE evaluation_periods
    SET current_phase = $1, updated_at = now()
    WHERE id = $2 AND deleted_at IS NULL
  `, phase, periodID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPeriodNotFound
	}
	return nil
}

func (s *Store) UpdateStatus(ctx context.Context, periodID, status string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE evaluation_periods
    SET status = $1, updated_at = now()
    WHERE id = $2 AND deleted_at IS NULL
  `, status, periodID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPeriodNotFound
	}
	return nil
}

// SetApprovalDocument stores the document id and, only from the initial
// "none" state, moves the approval to pending. Later document updates keep
// whatever approval state an admin has set.
func (s *Store) SetApprovalDocument(ctx context.Context, periodID, documentID string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE evaluation_periods
    SET approval_document_id = $1,
        approval_status = CASE WHEN approval_status = $2 THEN $3 ELSE approval_status END,
        updated_at = now()
    WHERE id = $4 AND deleted_at IS NULL
  `, documentID, ApprovalNone, ApprovalPending, periodID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPeriodNotFound
	}
	return nil
}

func (s *Store) UpdateApprovalStatus(ctx context.Context, periodID, status string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE evaluation_periods
    SET approval_status = $1, updated_at = now()
    WHERE id = $2 AND deleted_at IS NULL
  `, status, periodID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPeriodNotFound
	}
	return nil
}

func (s *Store) CopyCriteria(ctx context.Context, fromPeriodID, toPeriodID string) (int, error) {
	tag, err := s.DB.Exec(ctx, `
    INSERT INTO evaluation_criteria (period_id, name, description, weight)
    SELECT $1, name, description, weight
    FROM evaluation_criteria
    WHERE period_id = $2 AND deleted_at IS NULL
  `, toPeriodID, fromPeriodID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (s *Store) StartPeriod(ctx context.Context, periodID string, startedAt time.Time) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE evaluation_periods
    SET status = $1, current_phase = $2, start_date = $3, updated_at = now()
    WHERE id = $4 AND status = $5 AND deleted_at IS NULL
  `, StatusInProgress, PhaseEvaluationSetup, startedAt, periodID, StatusWaiting)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
