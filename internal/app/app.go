package app

import (
	"context"
	"fmt"
	"os"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbitror/internal/common"
	"github.com/ternarybob/arbitror/internal/edgar"
	"github.com/ternarybob/arbitror/internal/handlers"
	"github.com/ternarybob/arbitror/internal/interfaces"
	"github.com/ternarybob/arbitror/internal/services/alerts"
	"github.com/ternarybob/arbitror/internal/services/classifier"
	"github.com/ternarybob/arbitror/internal/services/halts"
	"github.com/ternarybob/arbitror/internal/services/intel"
	"github.com/ternarybob/arbitror/internal/services/monitor"
	"github.com/ternarybob/arbitror/internal/services/scheduler"
	"github.com/ternarybob/arbitror/internal/services/staging"
	"github.com/ternarybob/arbitror/internal/services/status"
	"github.com/ternarybob/arbitror/internal/storage"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	// Detection services
	ClassifierService *classifier.Service
	StagingService    interfaces.StagingService
	IntelService      interfaces.IntelService
	AlertService      *alerts.Service

	// Monitors
	EdgarClient *edgar.Client
	Monitors    *monitor.Registry

	// Maintenance
	SchedulerService *scheduler.Service
	StatusService    *status.Service

	// HTTP handlers
	ReviewHandler  *handlers.ReviewHandler
	FilingHandler  *handlers.FilingHandler
	HaltHandler    *handlers.HaltHandler
	DealHandler    *handlers.DealHandler
	IntelHandler   *handlers.IntelHandler
	MonitorHandler *handlers.MonitorHandler
	StatusHandler  *handlers.StatusHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initStorage(); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	if err := app.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	if err := app.initMonitors(); err != nil {
		return nil, fmt.Errorf("failed to initialize monitors: %w", err)
	}
	if err := app.initScheduler(); err != nil {
		return nil, fmt.Errorf("failed to initialize scheduler: %w", err)
	}
	app.initHandlers()

	logger.Info().
		Bool("filings_enabled", cfg.Monitors.Filings.Enabled).
		Bool("newsfeed_enabled", cfg.Monitors.Newsfeed.Enabled).
		Bool("halts_enabled", cfg.Halts.Enabled).
		Msg("Application initialization complete")

	return app, nil
}

func (a *App) initStorage() error {
	manager, err := storage.NewManager(a.Logger, &a.Config.Storage)
	if err != nil {
		return err
	}
	a.StorageManager = manager

	a.Logger.Debug().
		Str("sqlite_path", a.Config.Storage.SQLite.Path).
		Str("badger_path", a.Config.Storage.Badger.Path).
		Msg("Storage layer initialized")
	return nil
}

func (a *App) initServices() error {
	var notifier interfaces.Notifier
	if a.Config.Alerts.WebhookURL != "" {
		notifier = alerts.NewWebhookNotifier(a.Config.Alerts.WebhookURL, a.Logger)
	} else {
		notifier = alerts.NewLogNotifier(a.Logger)
	}
	a.AlertService = alerts.NewService(a.StorageManager.Alerts(), notifier, &a.Config.Alerts, a.Logger)

	rulesPath := a.Config.Classifier.RulesPath
	if rulesPath != "" {
		if _, err := os.Stat(rulesPath); os.IsNotExist(err) {
			a.Logger.Warn().Str("path", rulesPath).Msg("Rules file not found, using default rules")
			rulesPath = ""
		}
	}
	cls, err := classifier.NewService(a.Logger, rulesPath)
	if err != nil {
		return fmt.Errorf("failed to load classifier rules: %w", err)
	}
	a.ClassifierService = cls

	a.StagingService = staging.NewService(a.StorageManager, a.AlertService, a.Logger)
	a.IntelService = intel.NewService(a.StorageManager, a.AlertService, &a.Config.Intel, a.Logger)

	return nil
}

func (a *App) initMonitors() error {
	a.Monitors = monitor.NewRegistry(a.Logger)

	filingCfg := &a.Config.Monitors.Filings
	clientOpts := []edgar.ClientOption{edgar.WithLogger(a.Logger)}
	if filingCfg.BaseURL != "" {
		clientOpts = append(clientOpts, edgar.WithSearchURL(filingCfg.BaseURL))
	}
	a.EdgarClient = edgar.NewClient(filingCfg.UserAgent, clientOpts...)

	filingSource := monitor.NewFilingSource(
		a.EdgarClient,
		a.ClassifierService,
		a.StorageManager,
		a.StagingService,
		a.IntelService,
		filingCfg,
		a.Logger,
	)
	if err := a.Monitors.Register(monitor.NewEngine(filingSource, a.Logger)); err != nil {
		return err
	}

	newsfeedSource := monitor.NewNewsfeedSource(
		a.StagingService,
		a.IntelService,
		&a.Config.Monitors.Newsfeed,
		a.Logger,
	)
	if err := a.Monitors.Register(monitor.NewEngine(newsfeedSource, a.Logger)); err != nil {
		return err
	}

	haltCfg := &a.Config.Halts
	providers := []halts.Provider{
		halts.NewNasdaqProvider(haltCfg.NasdaqURL, haltCfg.FetchTimeout.Duration(), a.Logger),
		halts.NewNyseProvider(haltCfg.NyseURL, haltCfg.FetchTimeout.Duration(), a.Logger),
	}
	correlator := halts.NewCorrelator(providers, a.StorageManager, a.IntelService, a.AlertService, haltCfg, a.Logger)
	return a.Monitors.Register(correlator)
}

func (a *App) initScheduler() error {
	a.SchedulerService = scheduler.NewService(a.Logger)

	ctx := context.Background()
	if err := a.SchedulerService.RegisterJob("intel_decay_sweep", a.Config.Intel.DecaySchedule, func() error {
		demoted, err := a.IntelService.SweepStale(ctx)
		if err != nil {
			return err
		}
		if demoted > 0 {
			a.Logger.Info().Int("demoted", demoted).Msg("Staleness sweep demoted records")
		}
		return nil
	}); err != nil {
		return err
	}

	if err := a.SchedulerService.RegisterJob("rules_reload", a.Config.Scheduler.RulesReload, func() error {
		return a.ClassifierService.ReloadRules()
	}); err != nil {
		return err
	}

	if mgr, ok := a.StorageManager.(*storage.Manager); ok {
		if err := a.SchedulerService.RegisterJob("outbox_gc", a.Config.Scheduler.BadgerGCSchedule, func() error {
			return mgr.BadgerDB().RunGC()
		}); err != nil {
			return err
		}
	}

	a.StatusService = status.NewService(a.StorageManager, a.Monitors, a.SchedulerService, common.GetVersion(), a.Logger)
	return nil
}

func (a *App) initHandlers() {
	a.ReviewHandler = handlers.NewReviewHandler(a.StagingService, a.Logger)
	a.FilingHandler = handlers.NewFilingHandler(a.StorageManager.Filings(), a.Logger)
	a.HaltHandler = handlers.NewHaltHandler(a.StorageManager.Halts(), a.Logger)
	a.DealHandler = handlers.NewDealHandler(a.StorageManager.Deals(), a.Logger)
	a.IntelHandler = handlers.NewIntelHandler(a.IntelService, a.Logger)
	a.MonitorHandler = handlers.NewMonitorHandler(a.Monitors, a.Logger)
	a.StatusHandler = handlers.NewStatusHandler(a.StatusService, a.Logger)
}

// Start launches the background components honoring per-monitor enable
// flags. The HTTP server is started separately by the caller.
func (a *App) Start(ctx context.Context) error {
	if a.Config.Alerts.Enabled {
		a.AlertService.Start(ctx)
	}

	if err := a.SchedulerService.Start(); err != nil {
		return err
	}

	for _, m := range a.Monitors.All() {
		if !a.monitorEnabled(m.Name()) {
			a.Logger.Info().Str("monitor", m.Name()).Msg("Monitor disabled by configuration")
			continue
		}
		if err := m.Start(ctx); err != nil {
			return fmt.Errorf("failed to start monitor %s: %w", m.Name(), err)
		}
	}

	return nil
}

func (a *App) monitorEnabled(name string) bool {
	switch name {
	case monitor.FilingSourceName:
		return a.Config.Monitors.Filings.Enabled
	case monitor.NewsfeedSourceName:
		return a.Config.Monitors.Newsfeed.Enabled
	case halts.CorrelatorName:
		return a.Config.Halts.Enabled
	}
	return false
}

// Close stops background components and releases storage
func (a *App) Close() error {
	if a.Monitors != nil {
		if err := a.Monitors.StopAll(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to stop monitors cleanly")
		}
	}
	if a.SchedulerService != nil {
		a.SchedulerService.Stop()
	}
	if a.AlertService != nil {
		a.AlertService.Stop()
	}
	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
	}

	a.Logger.Info().Msg("Application shutdown complete")
	return nil
}
