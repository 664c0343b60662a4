// Package app wires configuration, storage, caching and metrics into a
// ready dashboard service. Both the HTTP server and leadctl start here.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/ignite/leadgen-crm/internal/analytics"
	"github.com/ignite/leadgen-crm/internal/cache"
	"github.com/ignite/leadgen-crm/internal/config"
	"github.com/ignite/leadgen-crm/internal/metrics"
	"github.com/ignite/leadgen-crm/internal/pkg/logger"
	"github.com/ignite/leadgen-crm/internal/repository/postgres"
	"github.com/ignite/leadgen-crm/internal/service/dashboard"
)

// DefaultConfigPath is read when CONFIG_PATH is unset and the file exists.
const DefaultConfigPath = "config/config.yaml"

// App holds the long-lived dependencies of a process.
type App struct {
	Config   *config.Config
	DB       *sql.DB
	Redis    *redis.Client    // nil when caching is disabled or unreachable
	Cache    *cache.ViewCache // nil when Redis is
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
	Service  *dashboard.Service
}

// ConfigPath resolves the config file location. It returns "" when no file
// is configured and the default is absent, so env and defaults apply.
func ConfigPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	if _, err := os.Stat(DefaultConfigPath); err == nil {
		return DefaultConfigPath
	}
	return ""
}

// LoadConfig loads and validates configuration, then applies the logging
// settings to the package logger.
func LoadConfig() (*config.Config, error) {
	cfg, err := config.LoadFromEnv(ConfigPath())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger.SetLevel(logger.ParseLevel(cfg.Logging.Level))
	logger.SetRedactPII(cfg.Logging.Redact())
	return cfg, nil
}

// NewEngine builds the analytics engine from configuration.
func NewEngine(cfg config.AnalyticsConfig) (analytics.Engine, error) {
	loc, err := cfg.Location()
	if err != nil {
		return analytics.Engine{}, err
	}
	engine := analytics.NewEngine(loc)
	if cfg.TopN > 0 {
		engine.TopN = cfg.TopN
	}
	if len(cfg.ServiceSuccessRates) > 0 {
		engine.SuccessRates = cfg.ServiceSuccessRates
	}
	return engine, nil
}

// OpenDB opens the PostgreSQL pool and verifies connectivity.
func OpenDB(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("database url is required (set DATABASE_URL)")
	}
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	log.Println("[app] Connected to PostgreSQL")
	return db, nil
}

// Open connects every dependency named in cfg. An unreachable Redis is
// logged and the service runs uncached.
func Open(ctx context.Context, cfg *config.Config) (*App, error) {
	engine, err := NewEngine(cfg.Analytics)
	if err != nil {
		return nil, err
	}
	db, err := OpenDB(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, DB: db, Registry: prometheus.NewRegistry()}
	a.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.Metrics = metrics.New(a.Registry)

	if cfg.Redis.Enabled {
		client, err := cache.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			logger.Warn("view cache disabled", "error", err)
		} else {
			a.Redis = client
			a.Cache = cache.New(client, cfg.Analytics.CacheTTL())
		}
	}

	a.Service = dashboard.NewService(postgres.NewLeadRepo(db), a.ServiceOptions(engine))
	return a, nil
}

// ServiceOptions maps configuration onto dashboard options.
func (a *App) ServiceOptions(engine analytics.Engine) dashboard.Options {
	opts := dashboard.Options{
		Engine:        engine,
		DefaultWindow: a.Config.Analytics.DefaultWindow(),
		MonthlyBudget: a.Config.Analytics.MonthlyBudgetUSD,
		Metrics:       a.Metrics,
	}
	if a.Cache != nil {
		opts.Cache = a.Cache
	}
	return opts
}

// Close releases the database pool and Redis client.
func (a *App) Close() error {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			log.Printf("[app] redis close: %v", err)
		}
	}
	return a.DB.Close()
}
