package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gsbot/internal/analytics"
	"gsbot/internal/bot"
	"gsbot/internal/config"
	"gsbot/internal/modules/audit"
	"gsbot/internal/pets"
	"gsbot/internal/storage"
	"gsbot/internal/tickets"
	"gsbot/internal/web"

	"go.uber.org/zap"
)

const auditRetentionDays = 90

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := config.BuildLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	store, err := storage.New(cfg.DatabasePath)
	if err != nil {
		logger.Fatal("storage init failed", zap.Error(err))
	}
	defer store.Close()
	if err := store.Migrate(); err != nil {
		logger.Fatal("migrations failed", zap.Error(err))
	}
	if removed, err := store.CleanupAuditLogs(context.Background(), auditRetentionDays); err != nil {
		logger.Warn("audit cleanup failed", zap.Error(err))
	} else if removed > 0 {
		logger.Info("audit logs pruned", zap.Int64("removed", removed), zap.Int("retention_days", auditRetentionDays))
	}

	startCtx, cancelStart := context.WithTimeout(context.Background(), time.Minute)
	ledger := storage.OpenLedger(startCtx, cfg.DatabaseURL, cfg.Moderation.ConnectAttempts, store, logger)
	cancelStart()
	if pg, ok := ledger.(*storage.PostgresStore); ok {
		defer pg.Close()
	}

	auditLogger := audit.NewLogger(store, logger)
	analyticsEngine := analytics.New(store)

	petStore := pets.NewStore(cfg.PetDataPath)
	if err := petStore.Load(); err != nil {
		logger.Fatal("pet data load failed", zap.String("path", cfg.PetDataPath), zap.Error(err))
	}
	logger.Info("pet data loaded", zap.Int("count", petStore.Len()))

	ticketRegistry := tickets.NewRegistry(cfg.TicketDataPath)
	if err := ticketRegistry.Load(); err != nil {
		logger.Fatal("ticket data load failed", zap.String("path", cfg.TicketDataPath), zap.Error(err))
	}

	botSvc, err := bot.New(cfg, logger, bot.Deps{
		Ledger:    ledger,
		Audit:     auditLogger,
		Analytics: analyticsEngine,
		Pets:      petStore,
		Tickets:   ticketRegistry,
	})
	if err != nil {
		logger.Fatal("bot init failed", zap.Error(err))
	}

	var (
		server *http.Server
		api    *web.Server
	)
	if cfg.Web.Enabled {
		var notifier web.Notifier = botSvc.PetNotifier()
		if cfg.Web.WebhookURL != "" {
			notifier = web.WebhookNotifier{URL: cfg.Web.WebhookURL, Username: cfg.Web.BotName}
		}
		api = web.New(web.Options{
			Config:   cfg,
			Pets:     petStore,
			Notifier: notifier,
			Bot:      botSvc,
			Logger:   logger,
		})
		server = &http.Server{
			Addr:              cfg.Web.Addr,
			Handler:           api.Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("web server enabled", zap.String("addr", cfg.Web.Addr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("web server error", zap.Error(err))
			}
		}()
	}

	if err := botSvc.Start(); err != nil {
		if server == nil {
			logger.Fatal("bot start failed", zap.Error(err))
		}
		logger.Error("bot start failed, admin API keeps serving", zap.Error(err))
	} else {
		logger.Info("bot started", zap.String("ledger", ledger.Backend()))
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutdown requested")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if server != nil {
		_ = server.Shutdown(ctx)
		api.Wait()
	}
	botSvc.Close(ctx)
}
