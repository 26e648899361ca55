// Package app wires the backend: config, storage, clients, services,
// handlers, router.
package app

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/fairwaylabs/swingsense-backend/internal/analytics"
	"github.com/fairwaylabs/swingsense-backend/internal/consistency"
	"github.com/fairwaylabs/swingsense-backend/internal/data/db"
	"github.com/fairwaylabs/swingsense-backend/internal/data/repos"
	"github.com/fairwaylabs/swingsense-backend/internal/feedback"
	apphttp "github.com/fairwaylabs/swingsense-backend/internal/http"
	httpH "github.com/fairwaylabs/swingsense-backend/internal/http/handlers"
	httpMW "github.com/fairwaylabs/swingsense-backend/internal/http/middleware"
	"github.com/fairwaylabs/swingsense-backend/internal/observability"
	"github.com/fairwaylabs/swingsense-backend/internal/platform/gcp"
	"github.com/fairwaylabs/swingsense-backend/internal/platform/gemini"
	"github.com/fairwaylabs/swingsense-backend/internal/platform/logger"
	"github.com/fairwaylabs/swingsense-backend/internal/rubric"
	"github.com/fairwaylabs/swingsense-backend/internal/scoring"
	"github.com/fairwaylabs/swingsense-backend/internal/services"
)

type App struct {
	Log    *logger.Logger
	DB     *gorm.DB
	Router *gin.Engine
	Cfg    Config

	Scheduler *feedback.Scheduler

	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

func New(ctx context.Context) (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	cfg := LoadConfig(log)

	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "swingsense-backend",
		Environment: envOr("APP_ENV", "development"),
		Version:     envOr("APP_VERSION", "dev"),
	})

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	theDB := pg.DB()
	if err := db.Migrate(theDB); err != nil {
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}

	// Repos
	swingRepo := repos.NewSwingRepo(theDB, log)
	feedbackRepo := repos.NewFeedbackRepo(theDB, log)
	metricRepo := repos.NewMetricRepo(theDB, log)
	rubricRepo := repos.NewRubricRepo(theDB, log)
	systemRepo := repos.NewSystemRepo(theDB, log)

	// Consistency history: redis when configured, process-local otherwise.
	var consistencyStore consistency.Store
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		consistencyStore = consistency.NewRedisStore(rdb, log)
	} else {
		log.Warn("REDIS_ADDR not set; consistency history is process-local")
		consistencyStore = consistency.NewMemoryStore()
	}

	analyzer, err := gemini.NewClient(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init analyzer client: %w", err)
	}

	var bucket gcp.BucketService
	if cfg.BucketEnabled {
		bucket, err = gcp.NewBucketService(ctx, log)
		if err != nil {
			log.Warn("bucket init failed; durable video storage disabled", "error", err)
			bucket = nil
		}
	}

	// Services
	scoringSvc := services.NewScoringService(services.ScoringDeps{
		Analyzer:    analyzer,
		Swings:      swingRepo,
		Metrics:     metricRepo,
		Rubrics:     rubricRepo,
		Factors:     systemRepo,
		Consistency: consistencyStore,
		Bucket:      bucket,
		Weights:     scoring.DefaultWeights(),
		Jitter:      cfg.JitterEnabled,
		Timeout:     cfg.AnalyzeTimeout,
	}, log)
	metricSvc := services.NewMetricService(metricRepo, log)
	aggregator := feedback.NewAggregator(feedbackRepo, systemRepo, log, feedback.Config{Window: cfg.FeedbackWindow})
	scheduler := feedback.NewScheduler(aggregator, systemRepo, cfg.FeedbackCooldown, log)
	rubricPipeline := rubric.NewPipeline(analyzer, metricRepo, rubricRepo, log, cfg.RubricTimeout)
	analyticsView := analytics.NewView(feedbackRepo, log)

	router := apphttp.NewRouter(apphttp.RouterConfig{
		Log:              log,
		HealthHandler:    httpH.NewHealthHandler(),
		SwingHandler:     httpH.NewSwingHandler(log, scoringSvc, swingRepo),
		FeedbackHandler:  httpH.NewFeedbackHandler(log, feedbackRepo),
		AnalyticsHandler: httpH.NewAnalyticsHandler(log, analyticsView),
		RubricHandler:    httpH.NewRubricHandler(log, rubricRepo),
		AdminHandler:     httpH.NewAdminHandler(log, metricSvc, scheduler, rubricPipeline),
		AdminMiddleware:  httpMW.NewAdminMiddleware(log, cfg.AdminJWTSecret),
	})

	return &App{
		Log:          log,
		DB:           theDB,
		Router:       router,
		Cfg:          cfg,
		Scheduler:    scheduler,
		otelShutdown: otelShutdown,
	}, nil
}

// Start kicks off the boot-time background work: an opportunistic feedback
// aggregation run gated by the scheduler's cooldown.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := a.Scheduler.MaybeRun(gctx)
		if err != nil {
			a.Log.Warn("boot feedback aggregation failed", "error", err)
			return nil
		}
		a.Log.Info("boot feedback aggregation", "ran", res.Ran, "skipped", res.Skipped)
		return nil
	})
	go func() { _ = g.Wait() }()
}

func (a *App) Run() error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("listening", "addr", a.Cfg.Addr)
	return a.Router.Run(a.Cfg.Addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.otelShutdown != nil {
		_ = a.otelShutdown(context.Background())
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}

func envOr(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}
