package reportshandler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ems/internal/domain/auth"
	"ems/internal/domain/reports"
	"ems/internal/transport/http/api"
	"ems/internal/transport/http/middleware"
	"ems/internal/transport/http/shared"
)

type Handler struct {
	Service *reports.Service
	Perms   middleware.PermissionStore
}

func NewHandler(service *reports.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/admin/reports", func(r chi.Router) {
		r.Use(middleware.RequirePermission(auth.PermReportsRead, h.Perms))
		r.Get("/summary", h.handleSummary)
		r.Get("/periods/{periodID}/grade-distribution", h.handleGradeDistribution)
		r.Get("/periods/{periodID}/employees/{employeeID}/result.pdf", h.handleResultPDF)
		r.Get("/job-runs", h.handleJobRuns)
	})
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Service.Summary(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_summary_failed", "failed to build summary", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGradeDistribution(w http.ResponseWriter, r *http.Request) {
	distribution, err := h.Service.GradeDistribution(r.Context(), chi.URLParam(r, "periodID"))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "grade_distribution_failed", "failed to build grade distribution", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, distribution, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleResultPDF(w http.ResponseWriter, r *http.Request) {
	filePath, err := h.Service.GenerateResultPDF(r.Context(), chi.URLParam(r, "periodID"), chi.URLParam(r, "employeeID"))
	if err != nil {
		slog.Warn("result pdf generation failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "result_pdf_failed", "failed to generate result pdf", middleware.GetRequestID(r.Context()))
		return
	}
	http.ServeFile(w, r, filePath)
}

func (h *Handler) handleJobRuns(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 20, 100)
	runs, err := h.Service.JobRuns(r.Context(), r.URL.Query().Get("jobType"), page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "job_runs_failed", "failed to list job runs", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, runs, middleware.GetRequestID(r.Context()))
}
