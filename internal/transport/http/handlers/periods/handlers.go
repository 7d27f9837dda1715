package periodshandler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"ems/internal/domain/audit"
	domauth "ems/internal/domain/auth"
	"ems/internal/domain/period"
	"ems/internal/platform/jobs"
	"ems/internal/transport/http/api"
	"ems/internal/transport/http/middleware"
	"ems/internal/transport/http/shared"
)

type Handler struct {
	Service *period.Service
	Perms   middleware.PermissionStore
	Jobs    *jobs.Service
	Audit   *audit.Service
}

func NewHandler(service *period.Service, perms middleware.PermissionStore, jobsSvc *jobs.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Perms: perms, Jobs: jobsSvc, Audit: auditSvc}
}

func (h *Handler) recordAudit(r *http.Request, action, entityID string, after any) {
	if h.Audit == nil {
		return
	}
	actorID := ""
	if user, ok := middleware.GetUser(r.Context()); ok {
		actorID = user.UserID
	}
	if err := h.Audit.Record(r.Context(), actorID, action, "evaluation_period", entityID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, after); err != nil {
		slog.Warn("audit record failed", "action", action, "err", err)
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/admin/periods", func(r chi.Router) {
		r.With(middleware.RequirePermission(domauth.PermPeriodsRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(domauth.PermPeriodsRead, h.Perms)).Get("/{periodID}", h.handleGet)
		r.With(middleware.RequirePermission(domauth.PermPeriodsWrite, h.Perms)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(domauth.PermPeriodsWrite, h.Perms)).Put("/{periodID}", h.handleUpdate)
		r.With(middleware.RequirePermission(domauth.PermPeriodsWrite, h.Perms)).Delete("/{periodID}", h.handleDelete)
		r.With(middleware.RequirePermission(domauth.PermPeriodsTransition, h.Perms)).Post("/{periodID}/start", h.handleStart)
		r.With(middleware.RequirePermission(domauth.PermPeriodsTransition, h.Perms)).Post("/{periodID}/phase", h.handleOverridePhase)
		r.With(middleware.RequirePermission(domauth.PermPeriodsWrite, h.Perms)).Post("/{periodID}/approval-document", h.handleApprovalDocument)
		r.With(middleware.RequirePermission(domauth.PermPeriodsWrite, h.Perms)).Post("/{periodID}/approval-status", h.handleApprovalStatus)
		r.With(middleware.RequirePermission(domauth.PermSystemAdmin, h.Perms)).Post("/sweep", h.handleSweepNow)
	})
	r.Route("/user/periods", func(r chi.Router) {
		r.With(middleware.RequirePermission(domauth.PermPeriodsRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(domauth.PermPeriodsRead, h.Perms)).Get("/{periodID}", h.handleGet)
	})
}

type periodPayload struct {
	Name                    string              `json:"name"`
	StartDate               string              `json:"startDate"`
	EndDate                 string              `json:"endDate"`
	EvaluationSetupDeadline string              `json:"evaluationSetupDeadline"`
	PerformanceDeadline     string              `json:"performanceDeadline"`
	SelfEvaluationDeadline  string              `json:"selfEvaluationDeadline"`
	PeerEvaluationDeadline  string              `json:"peerEvaluationDeadline"`
	MaxSelfEvaluationRate   int                 `json:"maxSelfEvaluationRate"`
	GradeRanges             []period.GradeRange `json:"gradeRanges"`
	CriteriaManualAllowed   bool                `json:"criteriaManualAllowed"`
	SelfManualAllowed       bool                `json:"selfManualAllowed"`
	FinalManualAllowed      bool                `json:"finalManualAllowed"`
	SourcePeriodID          string              `json:"sourcePeriodId"`
}

func (p periodPayload) details(v *shared.Validator) period.PeriodDetails {
	out := period.PeriodDetails{
		Name:                  p.Name,
		MaxSelfEvaluationRate: p.MaxSelfEvaluationRate,
		GradeRanges:           p.GradeRanges,
		CriteriaManualAllowed: p.CriteriaManualAllowed,
		SelfManualAllowed:     p.SelfManualAllowed,
		FinalManualAllowed:    p.FinalManualAllowed,
	}
	v.Required("name", p.Name, "name is required")
	if start, ok := v.Date("startDate", p.StartDate); ok {
		out.StartDate = start
	}
	if p.EndDate != "" {
		if end, ok := v.Date("endDate", p.EndDate); ok {
			out.EndDate = &end
		}
	}
	out.EvaluationSetupDeadline = optionalDate(v, "evaluationSetupDeadline", p.EvaluationSetupDeadline)
	out.PerformanceDeadline = optionalDate(v, "performanceDeadline", p.PerformanceDeadline)
	out.SelfEvaluationDeadline = optionalDate(v, "selfEvaluationDeadline", p.SelfEvaluationDeadline)
	out.PeerEvaluationDeadline = optionalDate(v, "peerEvaluationDeadline", p.PeerEvaluationDeadline)
	return out
}

func optionalDate(v *shared.Validator, field, raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	parsed, _ := v.Date(field, raw)
	return parsed
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload periodPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	details := payload.details(v)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	id, err := h.Service.Create(r.Context(), details, payload.SourcePeriodID)
	if err != nil {
		h.failPeriodError(w, r, err)
		return
	}
	created, err := h.Service.Get(r.Context(), id)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "period_read_failed", "failed to load created period", middleware.GetRequestID(r.Context()))
		return
	}
	h.recordAudit(r, "period.create", id, payload)
	api.Created(w, created, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 50, 200)
	status := r.URL.Query().Get("status")
	periods, err := h.Service.List(r.Context(), status, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "period_list_failed", "failed to list periods", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, periods, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.Service.Get(r.Context(), chi.URLParam(r, "periodID"))
	if err != nil {
		h.failPeriodError(w, r, err)
		return
	}
	api.Success(w, p, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var payload periodPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	details := payload.details(v)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	periodID := chi.URLParam(r, "periodID")
	if err := h.Service.Update(r.Context(), periodID, details); err != nil {
		h.failPeriodError(w, r, err)
		return
	}
	updated, err := h.Service.Get(r.Context(), periodID)
	if err != nil {
		h.failPeriodError(w, r, err)
		return
	}
	h.recordAudit(r, "period.update", periodID, payload)
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), chi.URLParam(r, "periodID")); err != nil {
		h.failPeriodError(w, r, err)
		return
	}
	h.recordAudit(r, "period.delete", chi.URLParam(r, "periodID"), nil)
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Start(r.Context(), chi.URLParam(r, "periodID"), time.Now()); err != nil {
		h.failPeriodError(w, r, err)
		return
	}
	h.recordAudit(r, "period.start", chi.URLParam(r, "periodID"), nil)
	api.Success(w, map[string]string{"status": "started"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleOverridePhase(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Phase string `json:"phase"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Service.OverridePhase(r.Context(), chi.URLParam(r, "periodID"), payload.Phase); err != nil {
		h.failPeriodError(w, r, err)
		return
	}
	h.recordAudit(r, "period.phase_override", chi.URLParam(r, "periodID"), payload)
	api.Success(w, map[string]string{"currentPhase": payload.Phase}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleApprovalDocument(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		DocumentID string `json:"documentId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.DocumentID == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "documentId is required", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Service.SetApprovalDocument(r.Context(), chi.URLParam(r, "periodID"), payload.DocumentID); err != nil {
		h.failPeriodError(w, r, err)
		return
	}
	h.recordAudit(r, "period.approval_document", chi.URLParam(r, "periodID"), payload)
	api.Success(w, map[string]string{"status": "document_attached"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleApprovalStatus(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	v.Required("status", payload.Status, "status is required")
	v.Enum("status", payload.Status, []string{
		period.ApprovalPending, period.ApprovalApproved, period.ApprovalRejected,
		period.ApprovalCancelled, period.ApprovalImplemented,
	}, "unknown approval status")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	if err := h.Service.UpdateApprovalStatus(r.Context(), chi.URLParam(r, "periodID"), payload.Status); err != nil {
		h.failPeriodError(w, r, err)
		return
	}
	h.recordAudit(r, "period.approval_status", chi.URLParam(r, "periodID"), payload)
	api.Success(w, map[string]string{"approvalStatus": payload.Status}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSweepNow(w http.ResponseWriter, r *http.Request) {
	details, err := h.Jobs.RunNow(r.Context(), jobs.JobPhaseSweep, func(ctx context.Context) (any, error) {
		advanced, err := h.Service.AutoPhaseTransition(ctx, time.Now())
		return map[string]any{"advanced": advanced}, err
	})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "sweep_failed", "phase sweep failed", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, details, middleware.GetRequestID(r.Context()))
}

func (h *Handler) failPeriodError(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, period.ErrPeriodNotFound):
		api.Fail(w, http.StatusNotFound, "period_not_found", "evaluation period not found", reqID)
	case errors.Is(err, period.ErrInvalidDateOrder), errors.Is(err, period.ErrInvalidGradeRange), errors.Is(err, period.ErrInvalidPhase):
		api.Fail(w, http.StatusBadRequest, "invalid_period", err.Error(), reqID)
	case errors.Is(err, period.ErrNotWaiting):
		api.Fail(w, http.StatusConflict, "period_conflict", err.Error(), reqID)
	default:
		api.Fail(w, http.StatusInternalServerError, "period_error", "period operation failed", reqID)
	}
}
