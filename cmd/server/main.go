package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/portfolio/backend/internal/config"
	"github.com/portfolio/backend/internal/handler"
	"github.com/portfolio/backend/internal/logging"
	"github.com/portfolio/backend/internal/mail"
	"github.com/portfolio/backend/internal/metrics"
	"github.com/portfolio/backend/internal/repository"
	"github.com/portfolio/backend/internal/service"
	"github.com/portfolio/backend/pkg/auth"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Setup(logging.Options{})
		logging.Fatal("invalid configuration", "error", err)
	}

	closeLog := logging.Setup(logging.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	defer closeLog()

	pool, err := repository.NewPool(context.Background(), cfg.Database.URL, repository.PoolOptions{
		MaxConns: cfg.Database.MaxConns,
	})
	if err != nil {
		logging.Fatal("failed to connect to database", "error", err)
	}
	defer pool.Close()

	contactRepo := repository.NewPgContactRepository(pool)
	userRepo := repository.NewPgUserRepository(pool)

	// MAIL_DRIVER=log はローカル開発用（メールを送らずログに出す）
	var sender mail.Sender
	switch cfg.Mail.Driver {
	case config.MailDriverLog:
		sender = mail.LogSender{}
		slog.Warn("mail driver is log; notifications will not be delivered")
	default:
		sender = mail.NewSMTPSender(mail.SMTPConfig{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			TLSMode:  cfg.Mail.TLSMode,
			Username: cfg.Mail.User,
			Password: cfg.Mail.Password,
			From:     cfg.Mail.User,
		})
	}
	composer := mail.NewComposer(cfg.Mail.OwnerAddress, cfg.Mail.OwnerName)

	m := metrics.New()
	contactService := service.NewContactService(contactRepo, sender, composer, service.ContactOptions{
		MailTimeout: cfg.Mail.Timeout,
		Observer:    m,
	})
	userService := service.NewUserService(userRepo)

	var adminAuth func(http.Handler) http.Handler
	if cfg.AdminAuthRequired {
		adminAuth = auth.RequireBasicAuth(userService)
	} else {
		slog.Warn("GET /api/contact-messages is unauthenticated; set ADMIN_AUTH_REQUIRED=true to protect it")
	}

	router := handler.NewRouter(handler.RouterConfig{
		DB:                contactRepo,
		ContactService:    contactService,
		Metrics:           m,
		AllowedOrigins:    cfg.AllowedOrigins,
		ContactRateLimit:  cfg.RateLimit.Limit,
		ContactRateWindow: cfg.RateLimit.Window,
		TrustedProxyCount: cfg.RateLimit.TrustedProxyCount,
		AdminAuth:         adminAuth,
	})

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server listening", "addr", server.Addr, "mail_driver", cfg.Mail.Driver, "owner", composer.OwnerAddress())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server error", "error", err)
	}
	slog.Info("server stopped")
}
