package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"NewsDesk/internal/config"
	"NewsDesk/internal/domain"
	"NewsDesk/internal/httpapi"
	"NewsDesk/internal/infrastructure/llm"
	"NewsDesk/internal/infrastructure/pacing"
	"NewsDesk/internal/infrastructure/parser"
	"NewsDesk/internal/infrastructure/scheduler"
	"NewsDesk/internal/infrastructure/storage"
	"NewsDesk/internal/infrastructure/telegram"
	"NewsDesk/internal/ports"
	"NewsDesk/internal/scanner"
	"NewsDesk/internal/usecase"
)

const marketNewsRequestsPerSecond = 1

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *zap.Logger
	store     *storage.Store
	pipeline  *usecase.Pipeline
	scheduler *usecase.Scheduler
	server    *httpapi.Server
}

// New opens storage, seeds the managed zones and wires the pipeline.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Application, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	store, err := storage.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	app, err := build(ctx, cfg, logger, store)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return app, nil
}

func build(ctx context.Context, cfg config.Config, logger *zap.Logger, store *storage.Store) (*Application, error) {
	if err := seedZones(ctx, cfg, store); err != nil {
		return nil, err
	}

	client := &http.Client{Timeout: 20 * time.Second}
	registry := scanner.NewRegistry(
		parser.NewRSSScanner(client, logger.With(zap.String("component", "scanner.rss"))),
		parser.NewMarketNewsScanner(client, marketNewsRequestsPerSecond),
	)
	source := parser.NewStrategySource(registry, cfg.Sites, logger)

	rewriter, err := llm.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ai rewriter: %w", err)
	}
	var pacer ports.Pacer
	if rewriter != nil {
		limiter := pacing.NewLimiter(cfg.AI.RequestsPerMinute, cfg.AI.Burst)
		pacer = limiter
		logger.Info("ai rewriting enabled", zap.String("provider", cfg.AI.Provider), zap.Duration("interval", limiter.Interval()))
	} else {
		logger.Info("ai rewriting disabled, raw content only", zap.String("provider", cfg.AI.Provider))
	}

	var notifier ports.Notifier
	if cfg.Notifications.Telegram.Enabled() {
		notifier = telegram.NewNotifier(cfg.Notifications.Telegram)
	}

	activity := storage.NewActivityLog(store, logger)
	taxonomy := usecase.NewTaxonomyResolver(store, cfg.Pipeline.MaxTags)

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:   source,
		Dedup:    usecase.NewDedupGate(store),
		Enricher: usecase.NewEnricher(rewriter, pacer, cfg.Pipeline.PaywallMarkers, logger.With(zap.String("component", "enricher"))),
		Persist: usecase.NewPersister(usecase.PersisterDeps{
			Store:    store,
			Taxonomy: taxonomy,
			Slugs:    usecase.NewSlugAllocator(store),
			Logger:   logger.With(zap.String("component", "persister")),
		}),
		Placer:   usecase.NewCategoryPlacer(store, cfg.Pipeline.CategoryZone, logger.With(zap.String("component", "placer"))),
		Zones:    usecase.NewZoneRefresher(store, store, cfg.Pipeline.Zones, logger.With(zap.String("component", "zones"))),
		Breaking: usecase.NewBreakingRotator(store, store, notifier, cfg.Pipeline.ArticleBasePath, logger.With(zap.String("component", "breaking"))),
		Activity: activity,
		Logger:   logger.With(zap.String("component", "pipeline")),
		Window:   cfg.Pipeline.Window,
	})

	var sched *usecase.Scheduler
	if cfg.Scheduler.Enabled {
		if err := scheduler.Validate(cfg.Scheduler.CronExpression); err != nil {
			return nil, err
		}
		driver := scheduler.NewCronScheduler(cfg.Scheduler.CronExpression, cfg.Scheduler.Location(), logger)
		sched = usecase.NewScheduler(driver, pipeline, logger.With(zap.String("component", "scheduler")))
	}

	server := httpapi.New(cfg.HTTP, httpapi.Deps{
		Runner:   pipeline,
		Zones:    store,
		Breaking: store,
		Logger:   logger,
	})

	return &Application{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		pipeline:  pipeline,
		scheduler: sched,
		server:    server,
	}, nil
}

// seedZones makes sure the homepage zones and one feed zone per category page exist.
func seedZones(ctx context.Context, cfg config.Config, store *storage.Store) error {
	for _, z := range cfg.Pipeline.Zones {
		if _, err := store.EnsureZone(ctx, z.Slug, domain.HomepageSlug, z.Capacity); err != nil {
			return fmt.Errorf("seed zone %s: %w", z.Slug, err)
		}
	}
	if cfg.Pipeline.CategoryZoneCapacity <= 0 {
		return nil
	}
	zone := cfg.Pipeline.CategoryZone
	if zone == "" {
		zone = usecase.DefaultCategoryZone
	}
	for _, page := range cfg.CategoryPages() {
		if _, err := store.EnsureZone(ctx, zone, usecase.TagSlug(page), cfg.Pipeline.CategoryZoneCapacity); err != nil {
			return fmt.Errorf("seed zone %s/%s: %w", page, zone, err)
		}
	}
	return nil
}

// RunOnce executes a single batch for the scope.
func (a *Application) RunOnce(ctx context.Context, scope domain.Scope) (domain.BatchResult, error) {
	return a.pipeline.Run(ctx, scope)
}

// Handler exposes the HTTP API.
func (a *Application) Handler() http.Handler {
	return a.server.Handler()
}

// Serve runs the HTTP trigger and, when enabled, the in-process cron until ctx is done.
func (a *Application) Serve(ctx context.Context) error {
	if a.scheduler != nil {
		if err := a.scheduler.Start(ctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if err := a.scheduler.Stop(stopCtx); err != nil {
				a.logger.Warn("scheduler stop", zap.Error(err))
			}
		}()
	}
	return a.server.ListenAndServe(ctx)
}

// Close releases storage.
func (a *Application) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

// Migrate applies pending migrations without starting anything else.
func Migrate(ctx context.Context, cfg config.Config) error {
	store, err := storage.Connect(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return err
	}
	return errors.Join(store.Migrate(ctx), store.Close())
}
