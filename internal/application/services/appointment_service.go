package services

import (
	"context"
	"sort"
	"time"

	"github.com/zatekoja/clinicdesk/backend/internal/application/loaders"
	"github.com/zatekoja/clinicdesk/backend/internal/domain/entities"
	"github.com/zatekoja/clinicdesk/backend/internal/domain/providers"
	"github.com/zatekoja/clinicdesk/backend/internal/infrastructure/observability"
	"github.com/zatekoja/clinicdesk/backend/pkg/dates"
)

// AppointmentService lists a resolved entity's appointments split into
// upcoming, past and undated buckets.
type AppointmentService struct {
	directory providers.Directory
	records   *RecordsService
	parser    *dates.Parser
	timeout   time.Duration
	now       func() time.Time
}

// NewAppointmentService creates an appointment service
func NewAppointmentService(directory providers.Directory, records *RecordsService, parser *dates.Parser, timeout time.Duration) *AppointmentService {
	if parser == nil {
		parser = dates.NewParser(dates.DayFirst, nil)
	}
	return &AppointmentService{
		directory: directory,
		records:   records,
		parser:    parser,
		timeout:   timeout,
		now:       time.Now,
	}
}

// ListForEntity resolves ref, fetches its appointments and resolves each
// appointment's counterpart once per distinct reference.
func (s *AppointmentService) ListForEntity(ctx context.Context, ref entities.EntityReference) (*entities.AppointmentSchedule, error) {
	outcome, err := s.records.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}

	schedule := &entities.AppointmentSchedule{
		Resolution: outcome,
		Upcoming:   []entities.Appointment{},
		Past:       []entities.Appointment{},
		Undated:    []entities.Appointment{},
	}
	if !outcome.Found() {
		return schedule, nil
	}

	source := s.directory.Appointments(outcome.Reference.Kind)
	if source == nil {
		return schedule, nil
	}

	entity := *outcome.Record
	appointments, err := callBounded(ctx, s.timeout, func(ctx context.Context) ([]entities.Appointment, error) {
		return source.ListAppointments(ctx, entity)
	})
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).
			Str("entity_id", entity.ID).
			Msg("appointment source failed")
		schedule.Degraded = true
		return schedule, nil
	}

	s.attachCounterparts(ctx, outcome.Reference.Kind, appointments)

	today := s.parser.Today(s.now())
	for _, appt := range appointments {
		switch dates.Classify(appt.Date, today) {
		case dates.Upcoming:
			schedule.Upcoming = append(schedule.Upcoming, appt)
		case dates.Past:
			schedule.Past = append(schedule.Past, appt)
		default:
			schedule.Undated = append(schedule.Undated, appt)
		}
	}

	// Soonest upcoming first, most recent past first
	sort.SliceStable(schedule.Upcoming, func(i, j int) bool {
		return schedule.Upcoming[i].Date.Before(schedule.Upcoming[j].Date)
	})
	sort.SliceStable(schedule.Past, func(i, j int) bool {
		return schedule.Past[j].Date.Before(schedule.Past[i].Date)
	})

	return schedule, nil
}

// attachCounterparts resolves the doctor of each patient appointment, or the
// patient of each doctor appointment. Unresolvable counterparts stay nil.
func (s *AppointmentService) attachCounterparts(ctx context.Context, kind entities.EntityKind, appointments []entities.Appointment) {
	l := loaders.For(ctx)
	if l == nil {
		l = loaders.NewLoaders(s.records)
	}

	counterpartKind := entities.KindDoctor
	if kind == entities.KindDoctor {
		counterpartKind = entities.KindPatient
	}

	thunks := make([]func() (*entities.ResolutionOutcome, error), len(appointments))
	for i, appt := range appointments {
		fk := appt.Doctor
		if kind == entities.KindDoctor {
			fk = appt.Patient
		}
		if fk.IsZero() {
			continue
		}
		thunks[i] = l.ReferenceLoader.Load(ctx, fk.Reference(counterpartKind))
	}

	for i, thunk := range thunks {
		if thunk == nil {
			continue
		}
		outcome, err := thunk()
		if err != nil || !outcome.Found() {
			continue
		}
		appointments[i].Counterpart = outcome.Record
	}
}
