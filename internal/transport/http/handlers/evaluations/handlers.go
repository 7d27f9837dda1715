package evaluationshandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ems/internal/domain/audit"
	domauth "ems/internal/domain/auth"
	"ems/internal/domain/evaluation"
	"ems/internal/transport/http/api"
	"ems/internal/transport/http/middleware"
	"ems/internal/transport/http/shared"
)

type Handler struct {
	Service *evaluation.Service
	Perms   middleware.PermissionStore
	Audit   *audit.Service
}

func NewHandler(service *evaluation.Service, perms middleware.PermissionStore, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc}
}

func (h *Handler) recordAudit(r *http.Request, action, entityType, entityID string, after any) {
	if h.Audit == nil {
		return
	}
	actorID := ""
	if user, ok := middleware.GetUser(r.Context()); ok {
		actorID = user.UserID
	}
	if err := h.Audit.Record(r.Context(), actorID, action, entityType, entityID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, after); err != nil {
		slog.Warn("audit record failed", "action", action, "err", err)
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/user/self-evaluations", func(r chi.Router) {
		r.With(middleware.RequirePermission(domauth.PermSelfEvalRead, h.Perms)).Get("/", h.handleListSelf)
		r.With(middleware.RequirePermission(domauth.PermSelfEvalWrite, h.Perms)).Post("/", h.handleSaveSelf)
		r.With(middleware.RequirePermission(domauth.PermSelfEvalRead, h.Perms)).Get("/{evaluationID}", h.handleGetSelf)
		r.With(middleware.RequirePermission(domauth.PermSelfEvalWrite, h.Perms)).Post("/{evaluationID}/submit", h.handleSubmitSelf)
	})
	r.Route("/user/criteria", func(r chi.Router) {
		r.With(middleware.RequirePermission(domauth.PermSelfEvalWrite, h.Perms)).Post("/submit", h.handleSubmitCriteria)
	})
	r.Route("/evaluator/downward-evaluations", func(r chi.Router) {
		r.With(middleware.RequirePermission(domauth.PermDownwardRead, h.Perms)).Get("/", h.handleListDownward)
		r.With(middleware.RequirePermission(domauth.PermDownwardWrite, h.Perms)).Post("/", h.handleSaveDownward)
		r.With(middleware.RequirePermission(domauth.PermDownwardWrite, h.Perms)).Put("/{evaluationID}", h.handleUpdateDownward)
		r.With(middleware.RequirePermission(domauth.PermDownwardWrite, h.Perms)).Post("/{evaluationID}/complete", h.handleCompleteDownward)
		r.With(middleware.RequirePermission(domauth.PermDownwardWrite, h.Perms)).Post("/bulk-complete", h.handleBulkComplete)
		r.With(middleware.RequirePermission(domauth.PermDownwardWrite, h.Perms)).Post("/bulk-reset", h.handleBulkReset)
	})
	r.Route("/evaluator/approvals", func(r chi.Router) {
		r.With(middleware.RequirePermission(domauth.PermApprovalsWrite, h.Perms)).Get("/{periodID}/{employeeID}", h.handleGetApproval)
		r.With(middleware.RequirePermission(domauth.PermApprovalsWrite, h.Perms)).Post("/{periodID}/{employeeID}", h.handleChangeApproval)
	})
	r.Route("/evaluator/revision-requests", func(r chi.Router) {
		r.With(middleware.RequirePermission(domauth.PermRevisionRequest, h.Perms)).Post("/", h.handleRequestRevision)
		r.With(middleware.RequirePermission(domauth.PermRevisionRequest, h.Perms)).Get("/", h.handleListRevisions)
	})
	r.Route("/user/revision-requests", func(r chi.Router) {
		r.With(middleware.RequirePermission(domauth.PermSelfEvalRead, h.Perms)).Get("/", h.handleListRevisions)
		r.With(middleware.RequirePermission(domauth.PermSelfEvalWrite, h.Perms)).Post("/{revisionID}/read", h.handleMarkRevisionRead)
		r.With(middleware.RequirePermission(domauth.PermSelfEvalWrite, h.Perms)).Post("/{revisionID}/complete", h.handleMarkRevisionCompleted)
	})
}

func (h *Handler) handleSaveSelf(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload struct {
		PeriodID  string `json:"periodId"`
		WbsItemID string `json:"wbsItemId"`
		Content   string `json:"content"`
		Score     *int   `json:"score"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("periodId", payload.PeriodID, "periodId is required")
	v.Required("wbsItemId", payload.WbsItemID, "wbsItemId is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	saved, err := h.Service.SaveSelfEvaluation(r.Context(), evaluation.SelfEvaluationDetails{
		PeriodID:   payload.PeriodID,
		EmployeeID: user.EmployeeID,
		WbsItemID:  payload.WbsItemID,
		Content:    payload.Content,
		Score:      payload.Score,
	})
	if err != nil {
		h.failEvaluationError(w, r, err)
		return
	}
	api.Created(w, saved, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListSelf(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	periodID := r.URL.Query().Get("periodId")
	if periodID == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "periodId query parameter is required", middleware.GetRequestID(r.Context()))
		return
	}

	employeeID := user.EmployeeID
	if override := r.URL.Query().Get("employeeId"); override != "" && user.RoleName != domauth.RoleEmployee {
		employeeID = override
	}

	items, err := h.Service.SelfEvaluations(r.Context(), periodID, employeeID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "self_eval_list_failed", "failed to list self evaluations", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, items, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetSelf(w http.ResponseWriter, r *http.Request) {
	e, err := h.Service.SelfEvaluation(r.Context(), chi.URLParam(r, "evaluationID"))
	if err != nil {
		h.failEvaluationError(w, r, evaluation.ErrEvaluationNotFound)
		return
	}
	api.Success(w, e, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSubmitSelf(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload struct {
		Target string `json:"target"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	v.Required("target", payload.Target, "target is required")
	v.Enum("target", payload.Target, []string{evaluation.TargetEvaluator, evaluation.TargetManager}, "target must be evaluator or manager")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	submitted, err := h.Service.SubmitSelfEvaluation(r.Context(), chi.URLParam(r, "evaluationID"), payload.Target, user.EmployeeID)
	if err != nil {
		h.failEvaluationError(w, r, err)
		return
	}
	h.recordAudit(r, "evaluation.self_submit", "wbs_self_evaluation", submitted.ID, payload)
	api.Success(w, submitted, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSubmitCriteria(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload struct {
		PeriodID string `json:"periodId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.PeriodID == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "periodId is required", middleware.GetRequestID(r.Context()))
		return
	}

	m, err := h.Service.SubmitCriteria(r.Context(), payload.PeriodID, user.EmployeeID, user.EmployeeID)
	if err != nil {
		h.failEvaluationError(w, r, err)
		return
	}
	api.Success(w, m, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSaveDownward(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload struct {
		PeriodID       string `json:"periodId"`
		EmployeeID     string `json:"employeeId"`
		WbsItemID      string `json:"wbsItemId"`
		EvaluationType string `json:"evaluationType"`
		Content        string `json:"content"`
		Score          *int   `json:"score"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("periodId", payload.PeriodID, "periodId is required")
	v.Required("employeeId", payload.EmployeeID, "employeeId is required")
	v.Required("wbsItemId", payload.WbsItemID, "wbsItemId is required")
	v.Enum("evaluationType", payload.EvaluationType, []string{evaluation.TypePrimary, evaluation.TypeSecondary}, "evaluationType must be primary or secondary")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	saved, err := h.Service.SaveDownward(r.Context(), evaluation.DownwardDetails{
		PeriodID:       payload.PeriodID,
		EmployeeID:     payload.EmployeeID,
		EvaluatorID:    user.EmployeeID,
		WbsItemID:      payload.WbsItemID,
		EvaluationType: payload.EvaluationType,
		Content:        payload.Content,
		Score:          payload.Score,
	})
	if err != nil {
		h.failEvaluationError(w, r, err)
		return
	}
	api.Created(w, saved, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListDownward(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	scope, v := h.scopeFromQuery(r, user.EmployeeID)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	items, err := h.Service.DownwardList(r.Context(), scope)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "downward_list_failed", "failed to list downward evaluations", middleware.GetRequestID(r.Context()))
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(len(items)))
	api.Success(w, items, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateDownward(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Content string `json:"content"`
		Score   *int   `json:"score"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	updated, err := h.Service.UpdateDownward(r.Context(), chi.URLParam(r, "evaluationID"), payload.Content, payload.Score)
	if err != nil {
		h.failEvaluationError(w, r, err)
		return
	}
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCompleteDownward(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	completed, err := h.Service.CompleteDownward(r.Context(), chi.URLParam(r, "evaluationID"), user.EmployeeID)
	if err != nil {
		h.failEvaluationError(w, r, err)
		return
	}
	h.recordAudit(r, "evaluation.downward_complete", "downward_evaluation", completed.ID, nil)
	api.Success(w, completed, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleBulkComplete(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload struct {
		PeriodID       string `json:"periodId"`
		EmployeeID     string `json:"employeeId"`
		ProjectID      string `json:"projectId"`
		EvaluationType string `json:"evaluationType"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("periodId", payload.PeriodID, "periodId is required")
	v.Enum("evaluationType", payload.EvaluationType, []string{evaluation.TypePrimary, evaluation.TypeSecondary}, "evaluationType must be primary or secondary")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	result, err := h.Service.BulkComplete(r.Context(), evaluation.BulkScope{
		EvaluatorID:    user.EmployeeID,
		PeriodID:       payload.PeriodID,
		EmployeeID:     payload.EmployeeID,
		ProjectID:      payload.ProjectID,
		EvaluationType: payload.EvaluationType,
	}, user.EmployeeID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "bulk_complete_failed", "bulk completion failed", middleware.GetRequestID(r.Context()))
		return
	}
	h.recordAudit(r, "evaluation.bulk_complete", "downward_evaluation", payload.PeriodID, result)
	// Partial failures ride inside a 200 so callers see the partition.
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleBulkReset(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload struct {
		PeriodID       string `json:"periodId"`
		EmployeeID     string `json:"employeeId"`
		ProjectID      string `json:"projectId"`
		EvaluationType string `json:"evaluationType"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("periodId", payload.PeriodID, "periodId is required")
	v.Enum("evaluationType", payload.EvaluationType, []string{evaluation.TypePrimary, evaluation.TypeSecondary}, "evaluationType must be primary or secondary")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	result, err := h.Service.BulkReset(r.Context(), evaluation.BulkScope{
		EvaluatorID:    user.EmployeeID,
		PeriodID:       payload.PeriodID,
		EmployeeID:     payload.EmployeeID,
		ProjectID:      payload.ProjectID,
		EvaluationType: payload.EvaluationType,
	})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "bulk_reset_failed", "bulk reset failed", middleware.GetRequestID(r.Context()))
		return
	}
	h.recordAudit(r, "evaluation.bulk_reset", "downward_evaluation", payload.PeriodID, result)
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetApproval(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	approval, err := h.Service.StepApproval(r.Context(), chi.URLParam(r, "periodID"), chi.URLParam(r, "employeeID"), user.EmployeeID)
	if err != nil {
		h.failEvaluationError(w, r, err)
		return
	}
	api.Success(w, approval, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleChangeApproval(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload struct {
		Step   string `json:"step"`
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	approval, err := h.Service.ChangeStepStatus(r.Context(), chi.URLParam(r, "periodID"), chi.URLParam(r, "employeeID"), payload.Step, payload.Status, user.EmployeeID)
	if err != nil {
		h.failEvaluationError(w, r, err)
		return
	}
	h.recordAudit(r, "evaluation.step_status", "step_approval", approval.ID, payload)
	api.Success(w, approval, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRequestRevision(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload struct {
		PeriodID    string `json:"periodId"`
		EmployeeID  string `json:"employeeId"`
		Step        string `json:"step"`
		EvaluatorID string `json:"evaluatorId"`
		Comment     string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	request, err := h.Service.RequestRevision(r.Context(), evaluation.RevisionDetails{
		PeriodID:    payload.PeriodID,
		EmployeeID:  payload.EmployeeID,
		Step:        payload.Step,
		EvaluatorID: payload.EvaluatorID,
		Comment:     payload.Comment,
		RequestedBy: user.EmployeeID,
	})
	if err != nil {
		h.failEvaluationError(w, r, err)
		return
	}
	h.recordAudit(r, "evaluation.revision_request", "revision_request", request.ID, payload)
	api.Created(w, request, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListRevisions(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	periodID := r.URL.Query().Get("periodId")
	if periodID == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "periodId query parameter is required", middleware.GetRequestID(r.Context()))
		return
	}

	employeeID := r.URL.Query().Get("employeeId")
	if user.RoleName == domauth.RoleEmployee {
		employeeID = user.EmployeeID
	}
	onlyOpen := r.URL.Query().Get("open") == "true"

	requests, err := h.Service.RevisionRequests(r.Context(), periodID, employeeID, onlyOpen)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "revision_list_failed", "failed to list revision requests", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, requests, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMarkRevisionRead(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.MarkRevisionRead(r.Context(), chi.URLParam(r, "revisionID")); err != nil {
		h.failEvaluationError(w, r, err)
		return
	}
	api.Success(w, map[string]string{"status": "read"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMarkRevisionCompleted(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.MarkRevisionCompleted(r.Context(), chi.URLParam(r, "revisionID")); err != nil {
		h.failEvaluationError(w, r, err)
		return
	}
	api.Success(w, map[string]string{"status": "completed"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) scopeFromQuery(r *http.Request, evaluatorID string) (evaluation.BulkScope, *shared.Validator) {
	v := shared.NewValidator()
	scope := evaluation.BulkScope{
		EvaluatorID:    evaluatorID,
		PeriodID:       r.URL.Query().Get("periodId"),
		EmployeeID:     r.URL.Query().Get("employeeId"),
		ProjectID:      r.URL.Query().Get("projectId"),
		EvaluationType: r.URL.Query().Get("evaluationType"),
	}
	v.Required("periodId", scope.PeriodID, "periodId query parameter is required")
	v.Enum("evaluationType", scope.EvaluationType, []string{evaluation.TypePrimary, evaluation.TypeSecondary}, "evaluationType must be primary or secondary")
	if scope.EvaluationType == "" {
		scope.EvaluationType = evaluation.TypePrimary
	}
	return scope, v
}

func (h *Handler) failEvaluationError(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, evaluation.ErrEvaluationNotFound), errors.Is(err, evaluation.ErrMappingNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), reqID)
	case errors.Is(err, evaluation.ErrAlreadyCompleted), errors.Is(err, evaluation.ErrInvalidTransition):
		api.Fail(w, http.StatusConflict, "conflict", err.Error(), reqID)
	case errors.Is(err, evaluation.ErrMissingContent),
		errors.Is(err, evaluation.ErrScoreOutOfRange),
		errors.Is(err, evaluation.ErrInvalidStep),
		errors.Is(err, evaluation.ErrInvalidStepStatus),
		errors.Is(err, evaluation.ErrCommentRequired),
		errors.Is(err, evaluation.ErrEvaluatorRequired):
		api.Fail(w, http.StatusBadRequest, "invalid_request", err.Error(), reqID)
	default:
		api.Fail(w, http.StatusInternalServerError, "evaluation_error", "evaluation operation failed", reqID)
	}
}
