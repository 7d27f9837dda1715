package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"ems/internal/domain/period"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

type EmployeeScore struct {
	EmployeeID string `json:"employeeId"`
	Name       string `json:"name"`
	Score      int    `json:"score"`
}

type ResultRow struct {
	WbsCode     string     `json:"wbsCode"`
	WbsName     string     `json:"wbsName"`
	SelfContent string     `json:"selfContent"`
	SelfScore   *int       `json:"selfScore,omitempty"`
	SubmittedAt *time.Time `json:"submittedAt,omitempty"`
}

type JobRun struct {
	ID         string     `json:"id"`
	JobType    string     `json:"jobType"`
	Status     string     `json:"status"`
	Details    string     `json:"details,omitempty"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}

func (s *Store) PeriodsInProgress(ctx context.Context) (int, error) {
	return s.count(ctx, `
    SELECT COUNT(1) FROM evaluation_periods
    WHERE status = 'in_progress' AND deleted_at IS NULL
  `)
}

func (s *Store) PendingApprovals(ctx context.Context) (int, error) {
	return s.count(ctx, `
    SELECT COUNT(1) FROM employee_evaluation_step_approvals
    WHERE primary_status = 'pending' OR secondary_status = 'pending'
  `)
}

func (s *Store) MappingsTotal(ctx context.Context) (int, error) {
	return s.count(ctx, `
    SELECT COUNT(1) FROM evaluation_period_employee_mappings WHERE deleted_at IS NULL
  `)
}

func (s *Store) MappingsFullySubmitted(ctx context.Context) (int, error) {
	return s.count(ctx, `
    SELECT COUNT(1) FROM evaluation_period_employee_mappings
    WHERE criteria_submitted AND self_submitted_to_evaluator AND self_submitted_to_manager
      AND deleted_at IS NULL
  `)
}

func (s *Store) count(ctx context.Context, query string) (int, error) {
	var n int
	if err := s.DB.QueryRow(ctx, query).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Store) PeriodGradeRanges(ctx context.Context, periodID string) ([]period.GradeRange, error) {
	var raw []byte
	if err := s.DB.QueryRow(ctx, `
    SELECT grade_ranges_json FROM evaluation_periods
    WHERE id = $1 AND deleted_at IS NULL
  `, periodID).Scan(&raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var ranges []period.GradeRange
	if err := json.Unmarshal(raw, &ranges); err != nil {
		return nil, err
	}
	return ranges, nil
}

// FinalScores averages each employee's completed primary evaluation scores
// for the period.
func (s *Store) FinalScores(ctx context.Context, periodID string) ([]EmployeeScore, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT de.employee_id, COALESCE(e.name, ''), ROUND(AVG(de.score))::int
    FROM downward_evaluations de
    LEFT JOIN employees e ON e.id = de.employee_id
    WHERE de.period_id = $1 AND de.evaluation_type = 'primary'
      AND de.is_completed AND de.score IS NOT NULL AND de.deleted_at IS NULL
    GROUP BY de.employee_id, e.name
    ORDER BY de.employee_id
  `, periodID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EmployeeScore
	for rows.Next() {
		var es EmployeeScore
		if err := rows.Scan(&es.EmployeeID, &es.Name, &es.Score); err != nil {
			return nil, err
		}
		out = append(out, es)
	}
	return out, nil
}

func (s *Store) EvaluationResults(ctx context.Context, periodID, employeeID string) ([]ResultRow, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT COALESCE(w.code, ''), COALESCE(w.name, ''), se.content, se.score, se.evaluator_submitted_at
    FROM wbs_self_evaluations se
    LEFT JOIN wbs_items w ON w.id = se.wbs_item_id
    WHERE se.period_id = $1 AND se.employee_id = $2 AND se.deleted_at IS NULL
    ORDER BY w.code
  `, periodID, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ResultRow
	for rows.Next() {
		var r ResultRow
		if err := rows.Scan(&r.WbsCode, &r.WbsName, &r.SelfContent, &r.SelfScore, &r.SubmittedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *Store) EmployeeName(ctx context.Context, employeeID string) (string, error) {
	var name string
	if err := s.DB.QueryRow(ctx, `
    SELECT name FROM employees WHERE id = $1
  `, employeeID).Scan(&name); err != nil {
		return "", err
	}
	return name, nil
}

func (s *Store) ListJobRuns(ctx context.Context, jobType string, limit, offset int) ([]JobRun, error) {
	query := `
    SELECT id, job_type, status, COALESCE(details, ''), started_at, finished_at
    FROM job_runs
  `
	var args []any
	if jobType != "" {
		query += " WHERE job_type = $1"
		args = append(args, jobType)
	}
	query += fmt.Sprintf(" ORDER BY started_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []JobRun
	for rows.Next() {
		var jr JobRun
		if err := rows.Scan(&jr.ID, &jr.JobType, &jr.Status, &jr.Details, &jr.StartedAt, &jr.FinishedAt); err != nil {
			return nil, err
		}
		out = append(out, jr)
	}
	return out, nil
}
