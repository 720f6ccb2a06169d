// Package server boots decorhub: it connects the store, sessions, storage
// and notification pipeline, then serves HTTP and gRPC until a signal
// arrives.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/gorm"

	"github.com/decorhub/decorhub/app/graphql"
	"github.com/decorhub/decorhub/app/listeners"
	"github.com/decorhub/decorhub/app/repositories"
	"github.com/decorhub/decorhub/app/routes"
	"github.com/decorhub/decorhub/app/services"
	"github.com/decorhub/decorhub/config"
	"github.com/decorhub/decorhub/internal/kernel"
	"github.com/decorhub/decorhub/pkg/cache"
	"github.com/decorhub/decorhub/pkg/database"
	"github.com/decorhub/decorhub/pkg/event"
	grpcserver "github.com/decorhub/decorhub/pkg/grpc"
	"github.com/decorhub/decorhub/pkg/logger"
	"github.com/decorhub/decorhub/pkg/mail"
	"github.com/decorhub/decorhub/pkg/middleware"
	"github.com/decorhub/decorhub/pkg/schedule"
	"github.com/decorhub/decorhub/pkg/session"
	"github.com/decorhub/decorhub/pkg/storage"
	"github.com/decorhub/decorhub/pkg/workerpool"
	"github.com/decorhub/decorhub/pkg/ws"
)

const (
	shutdownTimeout = 15 * time.Second
	rateWindow      = time.Minute
	inquiryRate     = 10
	loginRate       = 20
)

// Start runs until SIGINT/SIGTERM and then drains HTTP, gRPC and the mail
// pool in that order.
func Start() error {
	if err := config.Load(); err != nil {
		return err
	}
	if err := config.Validate(); err != nil {
		return err
	}
	logger.Setup()
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(ctx, config.Database())
	if err != nil {
		return err
	}
	defer database.Close(db) //nolint:errcheck

	store := repositories.New(db, repositories.Options{AcquireTimeout: config.Database().AcquireTimeout})

	jobs := schedule.New()
	sessions, inquiryLimiter, loginLimiter, closeSessions, err := sessionBackend(ctx, jobs)
	if err != nil {
		return err
	}
	defer closeSessions()
	jobs.Start(ctx)

	disk, err := storage.Open(ctx)
	if err != nil {
		return err
	}

	bus := event.New()
	pool := workerpool.New("mail", 2, 100)
	hub := ws.NewHub(ws.AllowOrigins(config.CORSOrigins()))
	go hub.Run(ctx)

	listeners.Inquiry{
		Pool:     pool,
		Mailer:   mail.NewSender(mail.ConfigFromEnv()),
		NotifyTo: listeners.ParseRecipients(config.InquiryNotifyTo()),
		Live:     hub,
	}.Register(bus)

	gqlSchema, err := graphql.NewSchema(store)
	if err != nil {
		return fmt.Errorf("graphql: build schema: %w", err)
	}

	sessOpts := session.DefaultOptions(sessions)
	sessOpts.TTL = config.SessionTTL()
	sessOpts.Secure = config.SessionSecure()

	k := kernel.NewHTTPKernel(routes.Deps{
		Store:          store,
		Auth:           services.NewAuthService(store),
		Inquiries:      services.NewInquiryService(store, bus),
		Disk:           disk,
		Hub:            hub,
		GraphQL:        gqlSchema,
		InquiryLimiter: inquiryLimiter,
		LoginLimiter:   loginLimiter,
	}, sessOpts, middleware.DefaultCORSOptions())

	httpSrv := &http.Server{
		Addr:              ":" + config.AppPort(),
		Handler:           k.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	grpcSrv, _, err := grpcserver.Start(config.GRPCPort(), store)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("decorhub listening", "addr", httpSrv.Addr, "env", config.AppEnv(), "db", config.DatabaseDriver())
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			grpcserver.Stop(grpcSrv)
			_ = pool.Shutdown(context.Background())
			return fmt.Errorf("http: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	grpcserver.Stop(grpcSrv)
	if err := pool.Shutdown(shutdownCtx); err != nil {
		logger.Error("mail pool shutdown", "error", err)
	}
	logger.Info("decorhub stopped")
	return nil
}

// sessionBackend picks Redis or in-memory sessions (SESSION_DRIVER) and the
// matching rate limiters.
func sessionBackend(ctx context.Context, jobs *schedule.Scheduler) (session.Store, middleware.Limiter, middleware.Limiter, func(), error) {
	if config.SessionDriver() == "memory" {
		store := session.NewMemoryStore()
		inq := middleware.NewMemoryLimiter(inquiryRate, rateWindow)
		login := middleware.NewMemoryLimiter(loginRate, rateWindow)

		jobs.Every(time.Minute).Name("sessions.sweep").WithoutOverlapping().
			Run(func(context.Context) { store.Sweep() })
		jobs.Every(rateWindow).Name("ratelimit.sweep").WithoutOverlapping().
			Run(func(context.Context) {
				inq.Sweep()
				login.Sweep()
			})
		logger.Warn("using in-memory sessions; logins do not survive a restart")
		return store, inq, login, func() {}, nil
	}

	c, err := cache.Connect(ctx)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	closeFn := func() { _ = c.Close() }
	return session.NewRedisStore(c),
		middleware.NewRedisLimiter(c, inquiryRate, rateWindow),
		middleware.NewRedisLimiter(c, loginRate, rateWindow),
		closeFn, nil
}

// OpenStore connects and wraps the store for one-shot CLI commands.
func OpenStore(ctx context.Context) (*gorm.DB, *repositories.Store, error) {
	if err := config.Load(); err != nil {
		return nil, nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, nil, err
	}
	cfg := config.Database()
	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return db, repositories.New(db, repositories.Options{AcquireTimeout: cfg.AcquireTimeout}), nil
}
