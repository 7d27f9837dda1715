package projectshandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ems/internal/domain/audit"
	domauth "ems/internal/domain/auth"
	"ems/internal/domain/project"
	"ems/internal/transport/http/api"
	"ems/internal/transport/http/middleware"
	"ems/internal/transport/http/shared"
)

type Handler struct {
	Service *project.Service
	Perms   middleware.PermissionStore
	Audit   *audit.Service
}

func NewHandler(service *project.Service, perms middleware.PermissionStore, auditSvc *audit.Service) *Handler {
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
	r.Route("/admin/projects", func(r chi.Router) {
		r.With(middleware.RequirePermission(domauth.PermProjectsRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(domauth.PermProjectsWrite, h.Perms)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(domauth.PermProjectsRead, h.Perms)).Get("/{projectID}", h.handleGet)
		r.With(middleware.RequirePermission(domauth.PermProjectsWrite, h.Perms)).Put("/{projectID}", h.handleUpdate)
		r.With(middleware.RequirePermission(domauth.PermProjectsWrite, h.Perms)).Delete("/{projectID}", h.handleDelete)

		r.With(middleware.RequirePermission(domauth.PermProjectsRead, h.Perms)).Get("/{projectID}/wbs-items", h.handleListWbs)
		r.With(middleware.RequirePermission(domauth.PermProjectsWrite, h.Perms)).Post("/{projectID}/wbs-items", h.handleAddWbs)
		r.With(middleware.RequirePermission(domauth.PermProjectsWrite, h.Perms)).Post("/{projectID}/assignments", h.handleAssign)
	})
	r.Route("/admin/wbs-items/{wbsItemID}", func(r chi.Router) {
		r.With(middleware.RequirePermission(domauth.PermProjectsWrite, h.Perms)).Delete("/", h.handleRemoveWbs)
		r.With(middleware.RequirePermission(domauth.PermProjectsWrite, h.Perms)).Post("/assignments", h.handleAssignWbs)
	})
	r.Route("/admin/assignments", func(r chi.Router) {
		r.With(middleware.RequirePermission(domauth.PermProjectsRead, h.Perms)).Get("/", h.handleListAssignments)
		r.With(middleware.RequirePermission(domauth.PermProjectsWrite, h.Perms)).Post("/{assignmentID}/cancel", h.handleCancelAssignment)
	})
	r.Route("/admin/line-mappings", func(r chi.Router) {
		r.With(middleware.RequirePermission(domauth.PermProjectsRead, h.Perms)).Get("/", h.handleListLineMappings)
		r.With(middleware.RequirePermission(domauth.PermProjectsWrite, h.Perms)).Post("/", h.handleMapEvaluator)
	})
}

type projectPayload struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
}

func (p projectPayload) details(v *shared.Validator) project.ProjectDetails {
	v.Required("code", p.Code, "code is required")
	v.Required("name", p.Name, "name is required")

	d := project.ProjectDetails{
		Code:        p.Code,
		Name:        p.Name,
		Description: p.Description,
	}
	if p.StartDate != "" {
		if start, ok := v.Date("startDate", p.StartDate); ok {
			d.StartDate = &start
		}
	}
	if p.EndDate != "" {
		if end, ok := v.Date("endDate", p.EndDate); ok {
			d.EndDate = &end
		}
	}
	if d.StartDate != nil && d.EndDate != nil {
		v.DateOrder("startDate", *d.StartDate, "endDate", *d.EndDate)
	}
	return d
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload projectPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	details := payload.details(v)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	created, err := h.Service.Create(r.Context(), details)
	if err != nil {
		h.failProjectError(w, r, err)
		return
	}
	h.recordAudit(r, "project.create", "project", created.ID, payload)
	api.Created(w, created, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 50, 200)
	projects, err := h.Service.List(r.Context(), page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "project_list_failed", "failed to list projects", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, projects, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.Service.Get(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		h.failProjectError(w, r, err)
		return
	}
	api.Success(w, p, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var payload projectPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	details := payload.details(v)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	updated, err := h.Service.Update(r.Context(), chi.URLParam(r, "projectID"), details)
	if err != nil {
		h.failProjectError(w, r, err)
		return
	}
	h.recordAudit(r, "project.update", "project", updated.ID, payload)
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), chi.URLParam(r, "projectID")); err != nil {
		h.failProjectError(w, r, err)
		return
	}
	h.recordAudit(r, "project.delete", "project", chi.URLParam(r, "projectID"), nil)
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAddWbs(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Code string `json:"code"`
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	v.Required("code", payload.Code, "code is required")
	v.Required("name", payload.Name, "name is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	items, err := h.Service.AddWbsItem(r.Context(), chi.URLParam(r, "projectID"), payload.Code, payload.Name)
	if err != nil {
		h.failProjectError(w, r, err)
		return
	}
	api.Created(w, items, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListWbs(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.WbsItems(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		h.failProjectError(w, r, err)
		return
	}
	api.Success(w, items, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRemoveWbs(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.RemoveWbsItem(r.Context(), chi.URLParam(r, "wbsItemID")); err != nil {
		h.failProjectError(w, r, err)
		return
	}
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAssign(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		EmployeeID string `json:"employeeId"`
		PeriodID   string `json:"periodId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	v.Required("employeeId", payload.EmployeeID, "employeeId is required")
	v.Required("periodId", payload.PeriodID, "periodId is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	assignment, err := h.Service.Assign(r.Context(), chi.URLParam(r, "projectID"), payload.EmployeeID, payload.PeriodID)
	if err != nil {
		h.failProjectError(w, r, err)
		return
	}
	api.Created(w, assignment, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAssignWbs(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		EmployeeID string `json:"employeeId"`
		PeriodID   string `json:"periodId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	v.Required("employeeId", payload.EmployeeID, "employeeId is required")
	v.Required("periodId", payload.PeriodID, "periodId is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	id, err := h.Service.AssignWbs(r.Context(), chi.URLParam(r, "wbsItemID"), payload.EmployeeID, payload.PeriodID)
	if err != nil {
		h.failProjectError(w, r, err)
		return
	}
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListAssignments(w http.ResponseWriter, r *http.Request) {
	periodID := r.URL.Query().Get("periodId")
	if periodID == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "periodId query parameter is required", middleware.GetRequestID(r.Context()))
		return
	}

	assignments, err := h.Service.Assignments(r.Context(), periodID, r.URL.Query().Get("employeeId"))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "assignment_list_failed", "failed to list assignments", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, assignments, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCancelAssignment(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Service.CancelAssignment(r.Context(), chi.URLParam(r, "assignmentID"))
	if err != nil {
		h.failProjectError(w, r, err)
		return
	}
	h.recordAudit(r, "project.assignment_cancel", "project_assignment", chi.URLParam(r, "assignmentID"), summary)
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMapEvaluator(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		PeriodID       string `json:"periodId"`
		EmployeeID     string `json:"employeeId"`
		EvaluatorID    string `json:"evaluatorId"`
		EvaluationType string `json:"evaluationType"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	v.Required("periodId", payload.PeriodID, "periodId is required")
	v.Required("employeeId", payload.EmployeeID, "employeeId is required")
	v.Required("evaluatorId", payload.EvaluatorID, "evaluatorId is required")
	v.Required("evaluationType", payload.EvaluationType, "evaluationType is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	mapping, err := h.Service.MapEvaluator(r.Context(), payload.PeriodID, payload.EmployeeID, payload.EvaluatorID, payload.EvaluationType)
	if err != nil {
		h.failProjectError(w, r, err)
		return
	}
	h.recordAudit(r, "project.line_mapping", "line_mapping", mapping.ID, payload)
	api.Created(w, mapping, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListLineMappings(w http.ResponseWriter, r *http.Request) {
	periodID := r.URL.Query().Get("periodId")
	if periodID == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "periodId query parameter is required", middleware.GetRequestID(r.Context()))
		return
	}

	mappings, err := h.Service.LineMappings(r.Context(), periodID, r.URL.Query().Get("employeeId"))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "line_mapping_list_failed", "failed to list line mappings", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, mappings, middleware.GetRequestID(r.Context()))
}

func (h *Handler) failProjectError(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, project.ErrProjectNotFound),
		errors.Is(err, project.ErrWbsItemNotFound),
		errors.Is(err, project.ErrAssignmentNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), reqID)
	case errors.Is(err, project.ErrDuplicateCode):
		api.Fail(w, http.StatusConflict, "duplicate_code", err.Error(), reqID)
	case errors.Is(err, project.ErrMissingFields),
		errors.Is(err, project.ErrInvalidDateOrder),
		errors.Is(err, project.ErrInvalidLineType):
		api.Fail(w, http.StatusBadRequest, "invalid_request", err.Error(), reqID)
	default:
		api.Fail(w, http.StatusInternalServerError, "project_error", "project operation failed", reqID)
	}
}
