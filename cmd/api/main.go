package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "embed"

	"github.com/crowdcanvas/crowdcanvas-backend/internal/config"
	"github.com/crowdcanvas/crowdcanvas-backend/internal/handler"
	"github.com/crowdcanvas/crowdcanvas-backend/internal/logging"
	"github.com/crowdcanvas/crowdcanvas-backend/internal/middleware"
	"github.com/crowdcanvas/crowdcanvas-backend/internal/repository"
	"github.com/crowdcanvas/crowdcanvas-backend/internal/service"
	"github.com/crowdcanvas/crowdcanvas-backend/internal/service/settlement"
)

//go:embed openapi.yaml
var openapiSpec []byte

const jwtExpiry = 24 * time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init("crowdcanvas-api", cfg.LogLevel, cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	})
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	users := repository.NewUserRepository(db)
	contests := repository.NewContestRepository(db)
	earnings := repository.NewEarningsRepository(db)
	withdrawals := repository.NewWithdrawalRepository(db)
	ledgerEvents := repository.NewLedgerEventRepository(db)
	payoutEvents := repository.NewPayoutEventRepository(db)
	idempotency := repository.NewIdempotencyRepository(db)

	settlements := settlement.NewService(earnings, withdrawals, ledgerEvents, db)
	participation := service.NewParticipationService(contests, users, earnings, db)
	earningsSvc := service.NewEarningsService(earnings, db)

	processor := service.NewPayoutProcessor(
		payoutEvents, earnings, ledgerEvents, withdrawals, db,
		slog.Default().With("component", "payout-processor"),
		time.Duration(cfg.PayoutPollIntervalS)*time.Second,
	)
	go processor.Start(ctx)

	authHandler := handler.NewAuthHandler(users, cfg.JWTSecret, jwtExpiry)
	userHandler := handler.NewUserHandler(users)
	earningsHandler := handler.NewEarningsHandler(earningsSvc)
	withdrawalHandler := handler.NewWithdrawalHandler(settlements)
	submissionHandler := handler.NewSubmissionHandler(participation)
	webhookHandler := handler.NewWebhookHandler(payoutEvents, cfg.WebhookSecret)
	healthHandler := handler.NewHealthHandler(db)

	authn := middleware.Auth(cfg.JWTSecret)
	idem := middleware.Idempotency(idempotency)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health/live", healthHandler.Liveness)
	mux.HandleFunc("GET /health/ready", healthHandler.Readiness)
	mux.HandleFunc("GET /docs", handler.ServeDocs())
	mux.HandleFunc("GET /docs/openapi.yaml", handler.ServeSpec(openapiSpec))

	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/v1/webhooks/payouts", webhookHandler.ReceivePayoutWebhook)

	mux.Handle("GET /api/v1/users/{id}", authn(http.HandlerFunc(userHandler.GetByID)))
	mux.Handle("GET /api/v1/designers/{id}/earnings", authn(http.HandlerFunc(earningsHandler.Summary)))
	mux.Handle("POST /api/v1/earnings", authn(idem(http.HandlerFunc(earningsHandler.Credit))))
	mux.Handle("POST /api/v1/designers/{id}/withdrawals", authn(idem(http.HandlerFunc(withdrawalHandler.Create))))
	mux.Handle("GET /api/v1/designers/{id}/withdrawals", authn(http.HandlerFunc(withdrawalHandler.List)))
	mux.Handle("GET /api/v1/designers/{id}/withdrawals/{withdrawal_id}", authn(http.HandlerFunc(withdrawalHandler.GetByID)))
	mux.Handle("POST /api/v1/contests/{contest_id}/entries", authn(http.HandlerFunc(submissionHandler.Submit)))
	mux.Handle("POST /api/v1/contests/{contest_id}/winner", authn(http.HandlerFunc(submissionHandler.ConfirmWinner)))
	mux.Handle("POST /api/v1/contests/{contest_id}/finalists", authn(http.HandlerFunc(submissionHandler.MarkFinalist)))

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	var root http.Handler = mux
	root = limiter.Handler(root)
	root = middleware.Recovery(root)
	root = middleware.Logging(root)
	root = middleware.Tracing(root)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           root,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
