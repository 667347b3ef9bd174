package container

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	database "github.com/FACorreiaa/go-travel-agent-crm/app/db"
	"github.com/FACorreiaa/go-travel-agent-crm/app/observability/metrics"
	"github.com/FACorreiaa/go-travel-agent-crm/config"
	generativeAI "github.com/FACorreiaa/go-travel-agent-crm/internal/api/generative_ai"
	"github.com/FACorreiaa/go-travel-agent-crm/internal/api/itinerary"
	"github.com/FACorreiaa/go-travel-agent-crm/internal/api/leads"
	"github.com/FACorreiaa/go-travel-agent-crm/internal/api/media"
)

// Container holds all application dependencies
type Container struct {
	Config           *config.Config
	Logger           *slog.Logger
	Pool             *pgxpool.Pool
	Redis            *redis.Client
	ItineraryHandler *itinerary.Handler
	LeadHandler      *leads.Handler
	MediaHandler     *media.Handler
}

// NewContainer connects to Postgres (and Redis when templates live there),
// builds the day plan generator and wires services into handlers.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	dbConfig, err := database.NewDatabaseConfig(cfg, logger)
	if err != nil {
		return nil, err
	}

	pool, err := database.Init(ctx, dbConfig.ConnectionURL, cfg.Repositories.Postgres.MaxConns, logger)
	if err != nil {
		return nil, err
	}
	c := &Container{Config: cfg, Logger: logger, Pool: pool}

	templates, err := c.templateStore(ctx)
	if err != nil {
		c.Close()
		return nil, err
	}

	generator, err := generativeAI.NewDayPlanGenerator(ctx, cfg.AI, logger)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to build day plan generator: %w", err)
	}

	metrics.InitAppMetrics()

	generationRepo := itinerary.NewPostgresGenerationRepo(pool, logger)
	itineraryService := itinerary.NewServiceImpl(templates, generationRepo, generator, metrics.Get(), logger, itinerary.Options{
		RealDayCap:   cfg.AI.RealDayCap,
		MaxDays:      cfg.AI.MaxDays,
		AITimeout:    cfg.AI.Timeout,
		WriteTimeout: cfg.Templates.WriteTimeout,
	})
	c.ItineraryHandler = itinerary.NewHandler(itineraryService, logger)

	leadRepo := leads.NewPostgresLeadRepo(pool, logger)
	leadService := leads.NewServiceImpl(leadRepo, logger)
	c.LeadHandler = leads.NewHandler(leadService, logger)

	mediaRepo := media.NewPostgresMediaRepo(pool, logger)
	c.MediaHandler = media.NewHandler(media.NewServiceImpl(mediaRepo, logger), logger)

	return c, nil
}

// templateStore picks the backend named by templates.store. Shared backends
// get an in-process read-through cache in front of them.
func (c *Container) templateStore(ctx context.Context) (itinerary.TemplateStore, error) {
	cfg := c.Config.Templates
	var store itinerary.TemplateStore

	switch cfg.Store {
	case "memory":
		c.Logger.Warn("Using in-memory template store, templates are not shared between instances")
		return itinerary.NewMemoryTemplateStore(), nil
	case "redis":
		client, err := database.InitRedis(ctx, c.Config, c.Logger)
		if err != nil {
			return nil, err
		}
		c.Redis = client
		store = itinerary.NewRedisTemplateStore(client, c.Logger)
	case "postgres":
		store = itinerary.NewPostgresTemplateRepo(c.Pool, c.Logger)
	default:
		return nil, fmt.Errorf("unknown template store %q", cfg.Store)
	}

	if cfg.CacheTTL <= 0 {
		return store, nil
	}
	return itinerary.NewCachedTemplateStore(store, cfg.CacheTTL, cfg.CleanupInterval, c.Logger), nil
}

// Close releases all resources held by the container
func (c *Container) Close() {
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.Logger.Warn("Failed to close redis client", slog.Any("error", err))
		}
	}
	if c.Pool != nil {
		c.Pool.Close()
	}
}

// WaitForDB waits for the database to be ready
func (c *Container) WaitForDB(ctx context.Context) bool {
	return database.WaitForDB(ctx, c.Pool, c.Logger)
}
