package reports

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"
)

type Service struct {
	Store *Store
}

func NewService(store *Store) *Service {
	return &Service{Store: store}
}

func (s *Service) Summary(ctx context.Context) (map[string]any, error) {
	inProgress, err := s.Store.PeriodsInProgress(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := s.Store.PendingApprovals(ctx)
	if err != nil {
		return nil, err
	}
	total, err := s.Store.MappingsTotal(ctx)
	if err != nil {
		return nil, err
	}
	submitted, err := s.Store.MappingsFullySubmitted(ctx)
	if err != nil {
		return nil, err
	}
	return Summary(inProgress, pending, total, submitted), nil
}

func (s *Service) GradeDistribution(ctx context.Context, periodID string) (map[string]int, error) {
	ranges, err := s.Store.PeriodGradeRanges(ctx, periodID)
	if err != nil {
		return nil, err
	}
	scores, err := s.Store.FinalScores(ctx, periodID)
	if err != nil {
		return nil, err
	}
	return Distribution(scores, ranges), nil
}

// GenerateResultPDF writes an employee's evaluation results for a period to
// a PDF under storage/reports and returns the file path.
func (s *Service) GenerateResultPDF(ctx context.Context, periodID, employeeID string) (string, error) {
	name, err := s.Store.EmployeeName(ctx, employeeID)
	if err != nil {
		return "", err
	}
	results, err := s.Store.EvaluationResults(ctx, periodID, employeeID)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll("storage/reports", 0o755); err != nil {
		return "", err
	}
	filePath := filepath.Join("storage/reports", fmt.Sprintf("%s-%s.pdf", periodID, employeeID))

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Evaluation Results")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Employee: %s", name))
	pdf.Ln(10)

	for _, r := range results {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 8, fmt.Sprintf("%s %s", r.WbsCode, r.WbsName))
		pdf.Ln(7)
		pdf.SetFont("Helvetica", "", 11)
		if r.SelfScore != nil {
			pdf.Cell(0, 6, fmt.Sprintf("Score: %d", *r.SelfScore))
			pdf.Ln(6)
		}
		pdf.MultiCell(0, 6, r.SelfContent, "", "L", false)
		pdf.Ln(4)
	}

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", err
	}
	return filePath, nil
}

func (s *Service) JobRuns(ctx context.Context, jobType string, limit, offset int) ([]JobRun, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.Store.ListJobRuns(ctx, jobType, limit, offset)
}
