package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wellbeing_dashboard/internal/config"
	"wellbeing_dashboard/internal/controller"
	"wellbeing_dashboard/internal/repository"
	"wellbeing_dashboard/internal/service"
	"wellbeing_dashboard/pkg/configwatcher"
	"wellbeing_dashboard/pkg/database"
	"wellbeing_dashboard/pkg/logger"
	"wellbeing_dashboard/pkg/monitoring"
	"wellbeing_dashboard/pkg/security"
	"wellbeing_dashboard/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config *config.Config
	Router *gin.Engine
	DB     *gorm.DB
	Redis  *redis.Client

	services *services
	tracer   *sdktrace.TracerProvider
	ctx      context.Context
	stop     context.CancelFunc
}

type repositories struct {
	session    *repository.DashboardSessionRepository
	export     *repository.ExportRepository
	scopeCache *repository.ScopeCacheRepository
}

type services struct {
	query    *service.QueryClient
	storage  *service.StorageService
	sessions *service.SessionService
	export   *service.ExportService
	catalog  *service.CatalogService
}

type controllers struct {
	navigation *controller.NavigationController
	catalog    *controller.CatalogController
	health     *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client) *repositories {
	repos := &repositories{
		session: repository.NewDashboardSessionRepository(db),
		export:  repository.NewExportRepository(db),
	}
	if rdb != nil {
		repos.scopeCache = repository.NewScopeCacheRepository(rdb)
	}
	return repos
}

func (a *App) initServices(repos *repositories, cfg *config.Config) *services {
	s := &services{}

	s.query = service.NewQueryClient(cfg.QueryService)
	s.storage = service.NewStorageService(cfg)

	var shared service.SharedCache
	if repos.scopeCache != nil {
		shared = repos.scopeCache
	}
	s.sessions = service.NewSessionService(repos.session, s.query, shared, cfg.Cache.TTL, cfg.Session.IdleTTL)
	s.export = service.NewExportService(s.storage.Provider, repos.export)
	s.catalog = service.NewCatalogService(s.query)

	return s
}

func (a *App) initControllers(s *services, repos *repositories) *controllers {
	checks := map[string]controller.Pinger{
		"database": func(ctx context.Context) error {
			sqlDB, err := a.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		"query_service": s.query.Ping,
	}
	if repos.scopeCache != nil {
		checks["redis"] = repos.scopeCache.Ping
	}

	return &controllers{
		navigation: controller.NewNavigationController(s.sessions, s.export),
		catalog:    controller.NewCatalogController(s.catalog),
		health:     controller.NewHealthController(checks),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(gin.Recovery())
	router.Use(logger.GinLogger())
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(a.ctx, cfg.RateLimit.MaxRequests, window))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// registerReloaders applies hot-reloadable keys after a config file change.
func (a *App) registerReloaders() {
	configwatcher.Register(func(cfg *config.Config) {
		logger.SetLevel(cfg)
	})
	configwatcher.Register(func(cfg *config.Config) {
		if cfg.Cache.TTL > 0 {
			a.services.sessions.SetCacheTTL(cfg.Cache.TTL)
			logger.Log.Info("Scope cache TTL updated", zap.Duration("ttl", cfg.Cache.TTL))
		}
	})
}

func (a *App) startBackgroundTasks() {
	go a.services.sessions.RunSweeper(a.ctx, a.Config.Session.SweepInterval)

	if a.Config.File != "" {
		go func() {
			if err := configwatcher.WatchConfig(a.ctx, a.Config.File); err != nil {
				logger.Log.Error("Config watcher stopped", zap.Error(err))
			}
		}()
	}
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	ctx, stop := context.WithCancel(context.Background())
	app := &App{
		Config: cfg,
		ctx:    ctx,
		stop:   stop,
	}

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode == "debug")
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}
	app.DB = db

	if cfg.Cache.RedisEnabled {
		rdb, err := database.InitRedis(ctx, &cfg.Redis)
		if err != nil {
			// the per-session memory tier still works
			logger.Log.Warn("Redis unavailable, shared scope cache disabled", zap.Error(err))
		} else {
			app.Redis = rdb
		}
	}

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(cfg.Tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	monitoring.Init()
	if err := controller.RegisterValidations(); err != nil {
		logger.Log.Fatal("Failed to register validations", zap.Error(err))
	}

	repos := app.initRepositories(db, app.Redis)
	app.services = app.initServices(repos, cfg)
	controllers := app.initControllers(app.services, repos)

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	app.Router = router
	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/exports", cfg.Storage.LocalPath)
	}

	app.registerReloaders()
	app.startBackgroundTasks()

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:         ":" + a.Config.Server.Port,
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
	}

	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("listen failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	a.stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}

	logger.Log.Info("Server exiting")
	logger.Log.Sync()
}
