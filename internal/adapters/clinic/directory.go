package clinic

import (
	"fmt"
	"time"

	"github.com/zatekoja/clinicdesk/backend/internal/domain/entities"
	"github.com/zatekoja/clinicdesk/backend/internal/domain/providers"
	"github.com/zatekoja/clinicdesk/backend/internal/infrastructure/clients/clinicapi"
	"github.com/zatekoja/clinicdesk/backend/pkg/config"
	"github.com/zatekoja/clinicdesk/backend/pkg/dates"
)

// Timeouts bounds each kind of backend probe
type Timeouts struct {
	Exact  time.Duration
	Loose  time.Duration
	Scan   time.Duration
	Source time.Duration
}

// TimeoutsFromConfig copies the resolution time bounds
func TimeoutsFromConfig(cfg config.ResolutionConfig) Timeouts {
	return Timeouts{
		Exact:  cfg.ExactTimeout,
		Loose:  cfg.LooseTimeout,
		Scan:   cfg.ScanTimeout,
		Source: cfg.SourceTimeout,
	}
}

type kindEndpoints struct {
	strategies   []providers.ResolutionStrategy
	sources      []providers.RecordSource
	bulk         providers.BulkCatalog
	appointments providers.AppointmentSource
}

// Directory implements providers.Directory from an endpoint catalog
type Directory struct {
	kinds map[entities.EntityKind]kindEndpoints
}

// NewDirectory builds the strategies and sources of every catalog kind
func NewDirectory(client clinicapi.Client, catalog *config.Catalog, timeouts Timeouts, parser *dates.Parser) (*Directory, error) {
	if parser == nil {
		parser = dates.NewParser(dates.DayFirst, nil)
	}

	d := &Directory{kinds: make(map[entities.EntityKind]kindEndpoints, len(catalog.Kinds))}
	for name, kc := range catalog.Kinds {
		kind, err := entities.ParseEntityKind(name)
		if err != nil {
			return nil, fmt.Errorf("catalog: %w", err)
		}

		probes := &probes{client: client, kind: kind, collection: kc.Collection, search: kc.Search}
		endpoints := kindEndpoints{
			strategies: probes.strategies(timeouts),
		}

		for _, endpoint := range kc.Sources {
			timeout := endpoint.Timeout
			if timeout <= 0 {
				timeout = timeouts.Source
			}
			endpoints.sources = append(endpoints.sources, NewHTTPSource(client, endpoint, parser, timeout))
		}
		if kc.Bulk != nil {
			endpoints.bulk = NewBulkScanner(client, *kc.Bulk, parser)
		}
		if kc.Appointments != "" {
			endpoints.appointments = NewAppointmentSource(client, kc.Appointments, parser)
		}

		d.kinds[kind] = endpoints
	}
	return d, nil
}

// Strategies returns the resolution sequence for kind
func (d *Directory) Strategies(kind entities.EntityKind) []providers.ResolutionStrategy {
	return d.kinds[kind].strategies
}

// Sources returns the record sources for kind
func (d *Directory) Sources(kind entities.EntityKind) []providers.RecordSource {
	return d.kinds[kind].sources
}

// BulkCatalog returns the bulk fallback for kind, or nil
func (d *Directory) BulkCatalog(kind entities.EntityKind) providers.BulkCatalog {
	return d.kinds[kind].bulk
}

// Appointments returns the appointment source for kind, or nil
func (d *Directory) Appointments(kind entities.EntityKind) providers.AppointmentSource {
	return d.kinds[kind].appointments
}
