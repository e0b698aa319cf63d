package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/courses/internal/httpserver"
	"github.com/Skotchmaster/courses/internal/models"
	"github.com/Skotchmaster/courses/internal/repo"
	"github.com/Skotchmaster/courses/internal/search"
	"github.com/Skotchmaster/courses/internal/service"
	"github.com/Skotchmaster/courses/pkg/config"
	"github.com/Skotchmaster/courses/pkg/db"
	"github.com/Skotchmaster/courses/pkg/events"
	"github.com/Skotchmaster/courses/pkg/logging"
	"github.com/Skotchmaster/courses/pkg/metrics"
	loggingmw "github.com/Skotchmaster/courses/pkg/middleware/logging"
	"github.com/Skotchmaster/courses/pkg/observability"
	"github.com/Skotchmaster/courses/pkg/tokens"
)

func main() {
	cfg := config.Load()
	cfg.MustValid()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	if err := observability.InitSentry(cfg.SentryDSN, cfg.Environment); err != nil {
		logger.Warn("sentry_init_failed", "error", err)
	}
	defer observability.FlushSentry()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	gdb, err := db.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
	cancel()
	if err != nil {
		logger.Error("db_open_failed", "driver", cfg.DBDriver, "error", err)
		os.Exit(1)
	}
	if err := gdb.AutoMigrate(models.All()...); err != nil {
		logger.Error("db_migrate_failed", "error", err)
		os.Exit(1)
	}

	prod := events.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	store := repo.NewStore(gdb)
	authMetrics := metrics.NewAuth()

	authSvc := &service.AuthService{
		Store: store,
		Issuer: tokens.NewIssuer(tokens.Config{
			AccessSecret:  cfg.JWTAccessSecret,
			RefreshSecret: cfg.JWTRefreshSecret,
			AccessTTL:     cfg.AccessTokenTTL,
			RefreshTTL:    cfg.RefreshTokenTTL,
		}),
		Events:  prod,
		Metrics: authMetrics,
	}
	courseSvc := &service.CourseService{Store: store, Events: prod}
	if index, err := courseIndex(cfg); err != nil {
		logger.Warn("search_index_unavailable", "reason", "falling back to sql search", "error", err)
	} else if index != nil {
		courseSvc.Index = index
	}

	if err := authSvc.BootstrapAdmin(logging.IntoContext(context.Background(), logger), cfg.AdminEmail, cfg.AdminPassword); err != nil {
		logger.Error("bootstrap_admin_failed", "error", err)
		os.Exit(1)
	}

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), middleware.Secure(), loggingmw.RequestLogger(logger))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	httpserver.Register(e, &httpserver.Deps{
		DB:          gdb,
		Metrics:     authMetrics,
		Auth:        &httpserver.AuthHTTP{Svc: authSvc},
		Users:       &httpserver.UserHTTP{Svc: &service.UserService{Store: store, Events: prod}},
		Courses:     &httpserver.CourseHTTP{Svc: courseSvc},
		Lessons:     &httpserver.LessonHTTP{Svc: &service.LessonService{Store: store, Events: prod}},
		Enrollments: &httpserver.EnrollmentHTTP{Svc: &service.EnrollmentService{Store: store, Events: prod}},
		Homework:    &httpserver.HomeworkHTTP{Svc: &service.HomeworkService{Store: store, Events: prod}},
		Feedback:    &httpserver.FeedbackHTTP{Svc: &service.FeedbackService{Store: store, Events: prod}},
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("http_server_started", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http_server_error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	go func() {
		<-quit
		logger.Warn("force exit")
		os.Exit(1)
	}()

	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_error", "error", err)
	}
	if err := db.Close(gdb); err != nil {
		logger.Error("db_close_error", "error", err)
	}
	if err := prod.Close(); err != nil {
		logger.Error("kafka_close_error", "error", err)
	}

	logger.Info("shutdown complete")
}

// courseIndex returns nil without error when no Elasticsearch URL is set.
func courseIndex(cfg config.Config) (service.CourseIndex, error) {
	if cfg.ESURL == "" {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := search.NewClient(ctx, search.Config{
		URL:      cfg.ESURL,
		User:     cfg.ESUser,
		Password: cfg.ESPassword,
	})
	if err != nil {
		return nil, err
	}
	return search.NewIndex(client, cfg.ESIndex), nil
}
