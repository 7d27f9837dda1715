package period

import (
	"context"
	"time"
)

type StoreAPI interface {
	CreatePeriod(ctx context.Context, d PeriodDetails) (string, error)
	GetPeriod(ctx context.Context, periodID string) (EvaluationPeriod, error)
	ListPeriods(ctx context.Context, status string, limit, offset int) ([]EvaluationPeriod, error)
	UpdatePeriod(ctx context.Context, periodID string, d PeriodDetails) error
	SoftDeletePeriod(ctx context.Context, periodID string) error
	ListInProgress(ctx context.Context) ([]EvaluationPeriod, error)
	AdvancePhase(ctx context.Context, periodID, fromPhase, toPhase string) (bool, error)
	OverridePhase(ctx context.Context, periodID, phase string) error
	UpdateStatus(ctx context.Context, periodID, status string) error
	SetApprovalDocument(ctx context.Context, periodID, documentID string) error
	UpdateApprovalStatus(ctx context.Context, periodID, status string) error
	CopyCriteria(ctx context.Context, fromPeriodID, toPeriodID string) (int, error)
	StartPeriod(ctx context.Context, periodID string, startedAt time.Time) (bool, error)
}
