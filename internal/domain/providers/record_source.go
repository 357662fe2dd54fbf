package providers

import (
	"context"
	"time"

	"github.com/zatekoja/clinicdesk/backend/internal/domain/entities"
)

// RecordSource is one independent endpoint that returns records about an
// already resolved entity.
type RecordSource interface {
	// Name is the origin tag stamped on every returned record
	Name() string

	// Fetch returns the records for entity. An empty slice with a nil error
	// means the source has nothing, not that it failed
	Fetch(ctx context.Context, entity entities.CanonicalRecord) ([]entities.SourceRecord, error)
}

// TimeoutSource is implemented by sources that need a bound other than the
// aggregator default.
type TimeoutSource interface {
	Timeout() time.Duration
}

// BulkCatalog is the low-confidence last resort used when neither the id nor
// the code/name tier produced any record.
type BulkCatalog interface {
	Scan(ctx context.Context, ref entities.EntityReference) ([]entities.SourceRecord, error)
}

// AppointmentSource lists the raw appointments of a resolved entity.
type AppointmentSource interface {
	ListAppointments(ctx context.Context, entity entities.CanonicalRecord) ([]entities.Appointment, error)
}
