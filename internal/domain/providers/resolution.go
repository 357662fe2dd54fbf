package providers

import (
	"context"
	"time"

	"github.com/zatekoja/clinicdesk/backend/internal/domain/entities"
)

// ProbeFunc queries the backend for candidates matching ref. A nil slice
// with a nil error is a confirmed not-found.
type ProbeFunc func(ctx context.Context, ref entities.EntityReference) ([]entities.CanonicalRecord, error)

// ResolutionStrategy is one step of the resolution sequence
type ResolutionStrategy struct {
	Kind    entities.MatchKind
	Probe   ProbeFunc
	Timeout time.Duration
}

// Applicable reports whether ref carries the field the strategy needs.
func (s ResolutionStrategy) Applicable(ref entities.EntityReference) bool {
	switch s.Kind {
	case entities.MatchExactID:
		return ref.ID != ""
	case entities.MatchExactCode:
		return ref.Code != ""
	case entities.MatchLooseName:
		return ref.Name != ""
	default:
		return ref.ID != "" || ref.Code != "" || ref.Name != ""
	}
}

// Directory wires entity kinds to their backend endpoints.
type Directory interface {
	// Strategies returns the ordered resolution sequence for kind
	Strategies(kind entities.EntityKind) []ResolutionStrategy

	// Sources returns the record sources aggregated for kind
	Sources(kind entities.EntityKind) []RecordSource

	// BulkCatalog returns the fallback dataset for kind, or nil
	BulkCatalog(kind entities.EntityKind) BulkCatalog

	// Appointments returns the appointment source for kind, or nil
	Appointments(kind entities.EntityKind) AppointmentSource
}
