package app

import (
	"context"
	"fmt"
	"log/slog"

	"FlashMonitor/internal/analysis"
	"FlashMonitor/internal/config"
	"FlashMonitor/internal/filter"
	"FlashMonitor/internal/infrastructure/agentcli"
	"FlashMonitor/internal/infrastructure/scraper"
	"FlashMonitor/internal/infrastructure/technicals"
	"FlashMonitor/internal/infrastructure/telegram"
	"FlashMonitor/internal/lock"
	"FlashMonitor/internal/logging"
	"FlashMonitor/internal/store"
	"FlashMonitor/internal/technical"
	"FlashMonitor/internal/usecase"
)

// Application wires config to adapters and the poll orchestrator.
type Application struct {
	cfg     config.Config
	log     *slog.Logger
	monitor *usecase.Monitor
	feed    *scraper.Jin10
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	classifier, err := filter.New(cfg.Filters.AdPatterns, cfg.Filters.PlaceholderPatterns)
	if err != nil {
		return nil, fmt.Errorf("build filters: %w", err)
	}

	dedup := store.LoadDedup(cfg.Paths.DedupFile(), baseLogger.With("component", "dedup"))
	states := store.NewStateStore(cfg.Paths.StateFile(), baseLogger.With("component", "state"))

	agent := agentcli.NewRunner(cfg.Analysis.AgentBin, cfg.Analysis.AgentSession, baseLogger.With("component", "agent"))
	engine := analysis.NewEngine(agent, states, cfg.Analysis, baseLogger.With("component", "analysis"))

	techSource := technicals.NewTradingView(cfg.Technicals, baseLogger.With("component", "technicals"))
	enricher := technical.NewEnricher(techSource, cfg.Technicals.MaxTickers, cfg.Technicals.MaxSymbols, baseLogger.With("component", "enrich"))

	notifier := telegram.NewNotifier(cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID)
	feed := scraper.NewJin10(cfg.Feed, baseLogger.With("component", "scraper"))

	monitor := usecase.NewMonitor(usecase.MonitorDeps{
		Source:     feed,
		Notifier:   notifier,
		Dedup:      dedup,
		States:     states,
		Classifier: classifier,
		Analyzer:   engine,
		Enricher:   enricher,
		Logger:     baseLogger.With("component", "monitor"),
	}, cfg.Feed.PollInterval(), cfg.Dedup.Retention())

	return &Application{cfg: cfg, log: baseLogger, monitor: monitor, feed: feed}, nil
}

// Run claims the single-instance lock, starts the feed page, and drives the
// poll loop until the context is cancelled. Returns lock.ErrHeld without any
// side effects when another live instance owns the lock.
func (a *Application) Run(ctx context.Context, once bool) error {
	held, err := lock.Acquire(a.cfg.Paths.LockFile())
	if err != nil {
		return err
	}
	defer held.Release()

	a.log.Info("monitor starting", "feed", a.cfg.Feed.URL)

	if err := a.feed.Start(ctx); err != nil {
		return fmt.Errorf("start scraper: %w", err)
	}
	defer a.feed.Close()

	if once {
		a.monitor.RunOnce(ctx)
		return nil
	}
	a.monitor.Run(ctx)
	return nil
}
