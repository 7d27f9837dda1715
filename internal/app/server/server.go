package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ems/internal/domain/audit"
	domauth "ems/internal/domain/auth"
	"ems/internal/domain/evaluation"
	"ems/internal/domain/notifications"
	"ems/internal/domain/period"
	"ems/internal/domain/project"
	"ems/internal/domain/reports"
	"ems/internal/platform/config"
	"ems/internal/platform/db"
	"ems/internal/platform/jobs"
	"ems/internal/platform/metrics"
	"ems/internal/platform/portal"
	"ems/internal/platform/sso"
	audithandler "ems/internal/transport/http/handlers/audit"
	authhandler "ems/internal/transport/http/handlers/auth"
	evaluationshandler "ems/internal/transport/http/handlers/evaluations"
	notificationshandler "ems/internal/transport/http/handlers/notifications"
	periodshandler "ems/internal/transport/http/handlers/periods"
	projectshandler "ems/internal/transport/http/handlers/projects"
	reportshandler "ems/internal/transport/http/handlers/reports"
	"ems/internal/transport/http/middleware"
)

type App struct {
	Config config.Config
	Pool   *pgxpool.Pool
	Router http.Handler
	Jobs   *jobs.Service
}

// New connects, migrates, seeds and wires the full application. The caller
// owns the pool lifetime through Close.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, "migrations", cfg.MaintenanceLockWait); err != nil {
			pool.Close()
			return nil, err
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			pool.Close()
			return nil, err
		}
	}

	authStore := domauth.NewStore(pool)
	authService := domauth.NewService(authStore)

	notificationsService := notifications.NewService(notifications.NewStore(pool), portal.New(cfg))
	auditService := audit.New(pool)

	periodService := period.NewService(period.NewStore(pool))
	evaluationService := evaluation.NewService(evaluation.NewStore(pool), notificationsService)
	projectService := project.NewService(project.NewStore(pool))
	reportsService := reports.NewService(reports.NewStore(pool))

	jobsService := jobs.New(pool, cfg, periodService)
	jobsService.Start(ctx)

	collector := metrics.New()

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
	router.Use(middleware.Metrics(collector))
	router.Use(middleware.Auth(cfg.JWTSecret))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(collector.Snapshot())
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		authHandler := authhandler.NewHandler(authService, cfg.JWTSecret, sso.New(cfg))
		r.Post("/auth/login", authHandler.HandleLogin)
		r.Post("/auth/refresh", authHandler.HandleRefresh)
		r.Post("/auth/logout", authHandler.HandleLogout)
		r.Post("/auth/request-reset", authHandler.HandleRequestReset)
		r.Post("/auth/reset", authHandler.HandleResetPassword)
		r.Post("/auth/mfa/setup", authHandler.HandleMFASetup)
		r.Post("/auth/mfa/enable", authHandler.HandleMFAEnable)
		r.Get("/auth/device-tokens", authHandler.HandleDeviceTokens)

		periodsHandler := periodshandler.NewHandler(periodService, authStore, jobsService, auditService)
		periodsHandler.RegisterRoutes(r)

		evaluationsHandler := evaluationshandler.NewHandler(evaluationService, authStore, auditService)
		evaluationsHandler.RegisterRoutes(r)

		projectsHandler := projectshandler.NewHandler(projectService, authStore, auditService)
		projectsHandler.RegisterRoutes(r)

		notificationsHandler := notificationshandler.NewHandler(notificationsService, authStore)
		notificationsHandler.RegisterRoutes(r)

		auditHandler := audithandler.NewHandler(auditService, authStore)
		auditHandler.RegisterRoutes(r)

		reportsHandler := reportshandler.NewHandler(reportsService, authStore)
		reportsHandler.RegisterRoutes(r)
	})

	return &App{Config: cfg, Pool: pool, Router: router, Jobs: jobsService}, nil
}

func (a *App) Close() {
	a.Pool.Close()
}

func Run() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	app, err := New(context.Background(), cfg)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	defer app.Close()

	log.Printf("EMS server listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, app.Router); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
