package handlers

import (
	"context"
	"net/http"

	"github.com/zatekoja/clinicdesk/backend/internal/application/services"
	"github.com/zatekoja/clinicdesk/backend/internal/domain/entities"
	"github.com/zatekoja/clinicdesk/backend/internal/infrastructure/observability"
)

// ScopeHeader names the caller scope used by the stale-result guard
const ScopeHeader = "X-Resolution-Scope"

// RecordsService defines the resolution and aggregation operations
type RecordsService interface {
	Resolve(ctx context.Context, ref entities.EntityReference) (*entities.ResolutionOutcome, error)
	Lookup(ctx context.Context, ref entities.EntityReference) (*services.RecordsLookup, error)
}

// AppointmentService defines the appointment listing operation
type AppointmentService interface {
	ListForEntity(ctx context.Context, ref entities.EntityReference) (*entities.AppointmentSchedule, error)
}

// ResolutionHandler serves entity resolution, records and appointments
type ResolutionHandler struct {
	records      RecordsService
	appointments AppointmentService
	generations  *services.Generations
}

// NewResolutionHandler creates a new resolution handler. generations may be
// nil, in which case the scope header is ignored.
func NewResolutionHandler(records RecordsService, appointments AppointmentService, generations *services.Generations) *ResolutionHandler {
	return &ResolutionHandler{
		records:      records,
		appointments: appointments,
		generations:  generations,
	}
}

// Resolve handles GET /api/resolve
func (h *ResolutionHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	ref, err := referenceFromQuery(r)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	stale := h.guard(r)
	outcome, err := h.records.Resolve(r.Context(), ref)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	outcome.Stale = stale()
	h.respond(w, r, outcome.Stale, outcome)
}

// Records handles GET /api/records
func (h *ResolutionHandler) Records(w http.ResponseWriter, r *http.Request) {
	ref, err := referenceFromQuery(r)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	stale := h.guard(r)
	lookup, err := h.records.Lookup(r.Context(), ref)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	lookup.View.SortByRecency()
	lookup.Resolution.Stale = stale()
	h.respond(w, r, lookup.Resolution.Stale, lookup)
}

// Appointments handles GET /api/appointments
func (h *ResolutionHandler) Appointments(w http.ResponseWriter, r *http.Request) {
	ref, err := referenceFromQuery(r)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	if h.appointments == nil {
		respondWithError(w, http.StatusNotImplemented, "appointments are not configured")
		return
	}

	stale := h.guard(r)
	schedule, err := h.appointments.ListForEntity(r.Context(), ref)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	schedule.Resolution.Stale = stale()
	h.respond(w, r, schedule.Resolution.Stale, schedule)
}

// guard opens a generation for the request's scope. The returned func
// reports whether a newer request for the same scope started meanwhile and
// releases the generation.
func (h *ResolutionHandler) guard(r *http.Request) func() bool {
	scope := r.Header.Get(ScopeHeader)
	if h.generations == nil || scope == "" {
		return func() bool { return false }
	}

	gen := h.generations.Begin(scope)
	return func() bool {
		latest := h.generations.IsLatest(scope, gen)
		h.generations.End(scope, gen)
		return !latest
	}
}

func (h *ResolutionHandler) respond(w http.ResponseWriter, r *http.Request, stale bool, payload interface{}) {
	if stale {
		observability.LoggerFromContext(r.Context()).Info().
			Str("scope", r.Header.Get(ScopeHeader)).
			Msg("discarding superseded result")
		respondWithJSON(w, http.StatusConflict, payload)
		return
	}
	respondWithJSON(w, http.StatusOK, payload)
}

func referenceFromQuery(r *http.Request) (entities.EntityReference, error) {
	q := r.URL.Query()

	kind, err := entities.ParseEntityKind(q.Get("kind"))
	if err != nil {
		return entities.EntityReference{}, err
	}

	ref := entities.EntityReference{
		ID:   q.Get("id"),
		Code: q.Get("code"),
		Name: q.Get("name"),
		Kind: kind,
	}
	if err := ref.Validate(); err != nil {
		return entities.EntityReference{}, err
	}
	return ref, nil
}
