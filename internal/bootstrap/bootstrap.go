// Package bootstrap assembles the resolution services from configuration.
// Both the HTTP API and the operator CLI start from here.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/clinicdesk/backend/internal/adapters/cache"
	"github.com/zatekoja/clinicdesk/backend/internal/adapters/clinic"
	"github.com/zatekoja/clinicdesk/backend/internal/application/services"
	"github.com/zatekoja/clinicdesk/backend/internal/domain/providers"
	"github.com/zatekoja/clinicdesk/backend/internal/infrastructure/clients/clinicapi"
	"github.com/zatekoja/clinicdesk/backend/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/clinicdesk/backend/internal/infrastructure/clients/redis"
	"github.com/zatekoja/clinicdesk/backend/internal/infrastructure/observability"
	"github.com/zatekoja/clinicdesk/backend/pkg/config"
	"github.com/zatekoja/clinicdesk/backend/pkg/retry"
)

// App holds the wired services
type App struct {
	Directory    *clinic.Directory
	Hints        *services.HintCache
	Records      *services.RecordsService
	Appointments *services.AppointmentService
	Generations  *services.Generations

	// HintBackend is the configured hint store: memory, redis or postgres
	HintBackend string

	closers []func() error
}

// New wires the clinic directory, the hint store selected by
// cfg.HintCache.Backend and the services on top. metrics may be nil.
func New(ctx context.Context, cfg *config.Config, metrics *observability.Metrics) (*App, error) {
	parser, err := cfg.Dates.DateParser()
	if err != nil {
		return nil, fmt.Errorf("date parser: %w", err)
	}

	catalog, err := config.LoadCatalog(cfg.Clinic.CatalogPath)
	if err != nil {
		return nil, err
	}

	client := clinicapi.NewClient(cfg.Clinic.BaseURL, cfg.Clinic.Timeout)
	directory, err := clinic.NewDirectory(client, catalog, clinic.TimeoutsFromConfig(cfg.Resolution), parser)
	if err != nil {
		return nil, err
	}

	app := &App{Directory: directory, HintBackend: cfg.HintCache.Backend}

	store, err := app.hintStore(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}

	app.Hints = services.NewHintCache(store, metrics)
	resolver := services.NewResolverService(app.Hints, metrics)
	aggregator := services.NewAggregatorService(cfg.Resolution.SourceTimeout, metrics)
	app.Records = services.NewRecordsService(directory, resolver, aggregator, cfg.Resolution.ScanTimeout)
	app.Appointments = services.NewAppointmentService(directory, app.Records, parser, cfg.Resolution.SourceTimeout)
	app.Generations = services.NewGenerations()

	log.Info().
		Str("clinic_api", client.BaseURL()).
		Str("hint_backend", cfg.HintCache.Backend).
		Str("date_order", parser.Order().String()).
		Msg("resolution services initialized")

	return app, nil
}

func (a *App) hintStore(ctx context.Context, cfg *config.Config) (providers.CacheProvider, error) {
	switch cfg.HintCache.Backend {
	case config.HintBackendRedis:
		client, err := redis.NewClient(ctx, &cfg.Redis, retry.DefaultConfig())
		if err != nil {
			return nil, fmt.Errorf("hint cache: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		return cache.NewRedisAdapter(client), nil

	case config.HintBackendPostgres:
		client, err := postgres.NewClient(ctx, &cfg.Database, retry.DefaultConfig())
		if err != nil {
			return nil, fmt.Errorf("hint cache: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		adapter := cache.NewPostgresAdapter(client.DB())
		if err := adapter.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("hint cache schema: %w", err)
		}
		return adapter, nil

	default:
		return cache.NewMemoryAdapter(), nil
	}
}

// SharedHints reports whether hints outlive the process, so that another
// process can read or evict them.
func (a *App) SharedHints() bool {
	return a.HintBackend == config.HintBackendRedis || a.HintBackend == config.HintBackendPostgres
}

// Close releases the hint store connections
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
