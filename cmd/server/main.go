package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"mindtrackserver/internal/auth"
	"mindtrackserver/internal/config"
	"mindtrackserver/internal/httpapi"
	"mindtrackserver/internal/service"
	"mindtrackserver/internal/store/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	logger := newLogger(cfg)

	var (
		authSvc    *service.AuthService
		verifySvc  *service.VerificationService
		profileSvc *service.ProfileService
		mailer     *service.VerificationMailer
		dbPing     func(context.Context) error
	)

	if cfg.DBDSN != "" {
		pgPool, err := postgres.Open(context.Background(), cfg.DBDSN)
		if err != nil {
			logger.Error("db open failed", "err", err)
			os.Exit(1)
		}
		defer pgPool.Close()

		accounts := postgres.NewAccountsStore(pgPool)
		issuer := &auth.TokenIssuer{
			Secret:     []byte(cfg.JWTSecret),
			AccessTTL:  cfg.AccessTokenTTL,
			RefreshTTL: cfg.RefreshTokenTTL,
		}

		authSvc = &service.AuthService{
			Accounts: accounts,
			Hasher:   auth.NewArgon2idHasher(),
			Tokens:   issuer,
		}
		verifySvc = &service.VerificationService{Store: accounts}
		profileSvc = &service.ProfileService{Store: accounts}
		dbPing = pgPool.Ping
	}

	if cfg.SMTP.Configured() {
		mailer = &service.VerificationMailer{SMTP: cfg.SMTP}
	} else {
		logger.Info("smtp not configured, verification emails disabled")
	}

	router := httpapi.NewRouter(httpapi.RouterOpts{
		Logger:    logger,
		IsProd:    cfg.IsProd(),
		DBPing:    dbPing,
		Auth:      authSvc,
		Verify:    verifySvc,
		Profile:   profileSvc,
		Mailer:    mailer,
		PublicURL: cfg.PublicURL,
		UploadDir: cfg.UploadDir,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "env", cfg.Env, "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "err", err)
			os.Exit(1)
		}
	}
}

func newLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info", "":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.IsProd() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
