package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"booking-platform/internal/agent"
	"booking-platform/internal/audit"
	"booking-platform/internal/auth"
	"booking-platform/internal/booking"
	"booking-platform/internal/config"
	"booking-platform/internal/contacts"
	"booking-platform/internal/httpapi"
	"booking-platform/internal/reporting"
	"booking-platform/internal/sessions"
	"booking-platform/internal/slots"
	"booking-platform/internal/summary"
	"booking-platform/pkg/logger"
	"booking-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Logger config depends on env; fall back to stderr here.
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := utils.OpenPostgres(ctx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres unavailable", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(ctx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis unavailable", "error", err)
		os.Exit(1)
	}
	defer rdb.Close()

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth setup failed", "error", err)
		os.Exit(1)
	}

	loc, err := time.LoadLocation(cfg.Booking.Timezone)
	if err != nil {
		log.Error("invalid business timezone", "timezone", cfg.Booking.Timezone, "error", err)
		os.Exit(1)
	}

	var limiter sessions.Limiter
	if cfg.Sessions.RoomCap > 0 {
		limiter = sessions.NewRedisLimiter(rdb, cfg.Sessions.RoomCap, cfg.Sessions.CapTTL)
	}

	bookingRepo := booking.NewPostgresRepo(db)
	slotsSvc := slots.NewService(slots.NewPostgresRepo(db), bookingRepo)
	bookingSvc := booking.NewService(bookingRepo, slotsSvc)
	contactsSvc := contacts.NewService(contacts.NewPostgresRepo(db))
	sessionsSvc := sessions.NewService(sessions.NewPostgresRepo(db), limiter)
	auditSvc := audit.NewService(audit.NewPostgresRepo(db))
	summarySvc := summary.NewService(summary.NewPostgresRepo(db), sessionsSvc)
	reportingSvc := reporting.NewService(sessionsSvc, auditSvc, bookingSvc)

	gateway := agent.NewGateway(contactsSvc, slotsSvc, bookingSvc, sessionsSvc, auditSvc, loc, log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.Middleware(log))

	handlers := httpapi.NewHandlers(
		gateway, sessionsSvc, bookingSvc, slotsSvc, summarySvc, auditSvc, reportingSvc,
		cfg.Booking, loc,
	)
	handlers.Register(router, auth.RequireServiceToken(authManager))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown incomplete", "error", err)
	}
	log.Info("stopped")
}
