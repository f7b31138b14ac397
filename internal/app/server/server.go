package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"absensi/internal/domain/access"
	"absensi/internal/domain/activity"
	"absensi/internal/domain/attendance"
	"absensi/internal/domain/auth"
	"absensi/internal/domain/org"
	"absensi/internal/domain/payroll"
	"absensi/internal/domain/profiles"
	"absensi/internal/domain/reports"
	"absensi/internal/platform/config"
	cryptoutil "absensi/internal/platform/crypto"
	"absensi/internal/platform/db"
	"absensi/internal/platform/email"
	"absensi/internal/platform/jobs"
	"absensi/internal/platform/metrics"
	"absensi/internal/transport/http/api"
	adminhandler "absensi/internal/transport/http/handlers/admin"
	authhandler "absensi/internal/transport/http/handlers/auth"
	employeehandler "absensi/internal/transport/http/handlers/employee"
	"absensi/internal/transport/http/middleware"
	"absensi/internal/transport/http/session"
	"absensi/internal/transport/http/views"
)

type App struct {
	Config config.Config
	DB     *pgxpool.Pool
	Router http.Handler
	Jobs   *jobs.Service
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}

// NewLogger returns the JSON logger every command installs as the default.
func NewLogger(cfg config.Config) *slog.Logger {
	level := slog.LevelInfo
	if !cfg.IsProduction() {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

// New connects to the database, prepares it and wires every component. The
// absence sweep runs until ctx is cancelled.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	if cfg.RunMigrations {
		if err := db.Migrate(cfg.DatabaseURL); err != nil {
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
	app, err := build(ctx, cfg, pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return app, nil
}

func build(ctx context.Context, cfg config.Config, pool *pgxpool.Pool) (*App, error) {
	loc := cfg.Location()
	secure := cfg.IsProduction()

	crypto, err := cryptoutil.New(cfg.DataEncryptionKey)
	if err != nil {
		return nil, err
	}
	verifier, err := auth.NewVerifier(ctx, cfg.JWTSecret, cfg.JWKSURL)
	if err != nil {
		return nil, fmt.Errorf("token verifier: %w", err)
	}

	collector := metrics.New()
	authSvc := auth.NewService(auth.NewStore(pool), verifier, auth.NewHub(), crypto, cfg.JWTSecret, cfg.SessionTTL)
	profileStore := profiles.NewStore(pool, crypto)
	resolver := profiles.NewResolver(profileStore, cfg.RoleLookupTimeout, collector.RoleLookup)
	orgStore := org.NewStore(pool)
	attendanceStore := attendance.NewStore(pool)
	attendanceSvc := attendance.NewService(attendanceStore, loc)
	paymentStore := payroll.NewStore(pool)
	payrollSvc := payroll.NewService(paymentStore, email.New(cfg))
	activitySvc := activity.New(pool)
	reportsSvc := reports.NewService(profileStore, attendanceStore, paymentStore, loc)

	sweep := jobs.New(pool, attendanceSvc, loc, collector.WarningsCreated)
	if err := sweep.Start(ctx, cfg.WarningSchedule); err != nil {
		return nil, err
	}

	sources := func(w http.ResponseWriter, r *http.Request) access.SessionSource {
		device := session.EnsureDevice(w, r, secure)
		return authSvc.SourceFor(device, session.Token(r))
	}

	authHandler := authhandler.NewHandler(authSvc, activitySvc, sources, resolver, collector, secure, cfg.AllowSelfSignup)
	adminHandler := adminhandler.NewHandler(profileStore, orgStore, attendanceSvc, payrollSvc, reportsSvc, authSvc, activitySvc, loc)
	employeeHandler := employeehandler.NewHandler(profileStore, orgStore, attendanceSvc, reportsSvc, authSvc, activitySvc, loc)

	loginLimiter := middleware.NewRateLimiter(cfg.LoginRatePerMinute, nil)
	apiLimiter := middleware.NewRateLimiter(cfg.LoginRatePerMinute, func(w http.ResponseWriter, r *http.Request) {
		api.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many attempts, try again later", middleware.GetRequestID(r.Context()))
	})

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(slog.Default()))
	router.Use(chimw.Recoverer)
	router.Use(middleware.SecureHeaders(secure))
	router.Use(middleware.Metrics(collector))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))

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
		router.Handle("/metrics", collector.Handler())
	}
	router.Handle("/static/*", views.Static())

	router.Get("/session/events", authHandler.HandleSessionEvents)
	router.Post("/logout", authHandler.HandleLogoutForm)

	router.Route("/api/v1", func(r chi.Router) {
		r.With(apiLimiter.Limit).Post("/auth/login", authHandler.HandleLogin)
		r.Post("/auth/logout", authHandler.HandleLogout)
		r.Post("/auth/refresh", authHandler.HandleRefresh)
		r.Get("/session", authHandler.HandleSession)
	})

	router.Group(func(r chi.Router) {
		r.Use(middleware.Guard(middleware.GuardConfig{
			Sources:  sources,
			Resolver: resolver,
			Loading: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				views.Render(w, http.StatusOK, views.Loading())
			}),
			Observe: func(_ access.State, d access.Decision) {
				collector.Decision(d.Kind.String(), d.Tree.String())
			},
		}))

		r.Get(access.PathLogin, authHandler.HandleLoginPage)
		r.With(loginLimiter.Limit).Post(access.PathLogin, authHandler.HandleLoginForm)
		r.Get(access.PathRegister, authHandler.HandleRegisterPage)
		r.With(loginLimiter.Limit).Post(access.PathRegister, authHandler.HandleRegisterForm)

		adminHandler.RegisterRoutes(r)
		employeeHandler.RegisterRoutes(r)

		// Unknown paths still pass the guard, so only admitted users inside
		// their own tree ever see this page.
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			views.Render(w, http.StatusNotFound, views.ErrorPage("Not found", "That page does not exist.", "/"))
		})
	})

	return &App{Config: cfg, DB: pool, Router: router, Jobs: sweep}, nil
}

// Serve listens until ctx is cancelled, then drains in-flight requests.
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("absensi listening", "addr", a.Config.Addr, "env", a.Config.Environment)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	slog.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

// Run is the serve command: build everything and block until ctx ends.
func Run(ctx context.Context, cfg config.Config) error {
	app, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()
	return app.Serve(ctx)
}
