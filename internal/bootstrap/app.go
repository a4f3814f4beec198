package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/locvowork/reportbook/internal/config"
	"github.com/locvowork/reportbook/internal/database"
	"github.com/locvowork/reportbook/internal/handler"
	"github.com/locvowork/reportbook/internal/logger"
	"github.com/locvowork/reportbook/internal/service"
	"github.com/locvowork/reportbook/internal/source"
	"github.com/locvowork/reportbook/pkg/export"
)

type App struct {
	Echo      *echo.Echo
	DB        *sql.DB
	Datastore *database.DatastoreClient
	Registry  *source.Registry
	Service   service.ReportService
}

func NewApp() *App {
	return &App{
		Echo:     echo.New(),
		Registry: source.NewRegistry(),
	}
}

func (a *App) Initialize(ctx context.Context) error {
	// Load environment configuration
	if err := config.LoadEnvConfig(); err != nil {
		return fmt.Errorf("failed to load env config: %w", err)
	}
	cfg := config.DefaultEnvConfig

	logger.InitLogging(cfg.LOG_FILE_PATH, cfg.LOG_LEVEL)
	logger.InfoLog(ctx, "Environment variables loaded successfully")

	if err := a.initSources(ctx); err != nil {
		return err
	}

	a.Service = service.NewReportService(a.Registry, export.NewDispatcher(), service.Config{
		DefaultFormat: cfg.REPORT_DEFAULT_FORMAT,
		Locale:        cfg.REPORT_LOCALE,
		Timeout:       cfg.EXPORT_TIMEOUT,
		FetchWorkers:  cfg.FETCH_WORKERS,
		FetchRetries:  cfg.FETCH_RETRIES,
	})
	reportHandler := handler.NewReportHandler(a.Service)

	a.RegisterMiddlewares()
	a.RegisterRoutes(reportHandler)
	return nil
}

// initSources connects only the backends the sources file uses and registers
// every configured source.
func (a *App) initSources(ctx context.Context) error {
	cfg := config.DefaultEnvConfig
	if cfg.REPORT_SOURCES_FILE == "" {
		logger.WarnLog(ctx, "REPORT_SOURCES_FILE not set, only inline data is accepted")
		return nil
	}
	srcCfg, err := source.LoadConfigFile(cfg.REPORT_SOURCES_FILE)
	if err != nil {
		return fmt.Errorf("failed to load sources: %w", err)
	}
	types := srcCfg.Types()
	var clients source.Clients

	if types[source.TypePostgres] || cfg.DB_ENABLED {
		db, err := database.NewPostgresDB(ctx, database.Config{
			Host:            cfg.DB_HOST,
			Port:            cfg.DB_PORT,
			User:            cfg.DB_USER,
			Password:        cfg.DB_PASSWORD,
			DBName:          cfg.DB_NAME,
			SSLMode:         cfg.DB_SSL_MODE,
			MaxOpenConns:    cfg.DB_MAX_OPEN_CONNS,
			MaxIdleConns:    cfg.DB_MAX_IDLE_CONNS,
			ConnMaxLifetime: cfg.DB_CONN_MAX_LIFETIME,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		a.DB = db
		clients.DB = db
		logger.InfoLog(ctx, "Database connection established successfully")
	}

	if types[source.TypeElastic] {
		es, err := database.NewElasticSearchClient(cfg.ES_URL)
		if err != nil {
			return err
		}
		clients.Elastic = es
	}

	if types[source.TypeDatastore] {
		ds, err := database.NewDatastoreClient(ctx, cfg.DATASTORE_PROJECT_ID)
		if err != nil {
			return err
		}
		a.Datastore = ds
		clients.Datastore = ds
	}

	if err := srcCfg.Register(a.Registry, clients); err != nil {
		return fmt.Errorf("failed to register sources: %w", err)
	}
	logger.InfoLog(ctx, "Registered %d report sources", len(a.Registry.Names()))
	return nil
}

func (a *App) RegisterMiddlewares() {
	a.Echo.Use(middleware.RequestID())
	a.Echo.Use(middleware.Logger())
	a.Echo.Use(middleware.Recover())
	a.Echo.Use(middleware.CORS())
}

func (a *App) RegisterRoutes(reportHandler *handler.ReportHandler) {
	reports := a.Echo.Group("/reports")
	reports.POST("/export", reportHandler.ExportHandler)
	reports.GET("/formats", reportHandler.FormatsHandler)
}

func (a *App) Run() error {
	defer a.Close()
	return a.Echo.Start(":" + config.DefaultEnvConfig.APP_PORT)
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
	if a.Datastore != nil {
		a.Datastore.Close()
	}
}
