package clinic

import (
	"context"

	"github.com/zatekoja/clinicdesk/backend/internal/domain/entities"
	"github.com/zatekoja/clinicdesk/backend/internal/infrastructure/clients/clinicapi"
	"github.com/zatekoja/clinicdesk/backend/pkg/dates"
	apperrors "github.com/zatekoja/clinicdesk/backend/pkg/errors"
)

// AppointmentSource lists appointments from a path template
type AppointmentSource struct {
	client clinicapi.Client
	path   string
	parser *dates.Parser
}

// NewAppointmentSource creates an appointment source for path
func NewAppointmentSource(client clinicapi.Client, path string, parser *dates.Parser) *AppointmentSource {
	return &AppointmentSource{client: client, path: path, parser: parser}
}

// ListAppointments decodes every appointment of entity
func (s *AppointmentSource) ListAppointments(ctx context.Context, entity entities.CanonicalRecord) ([]entities.Appointment, error) {
	path, ok := expandPath(s.path, entity.Reference())
	if !ok {
		return []entities.Appointment{}, nil
	}

	items, err := s.client.GetCollection(ctx, path, nil)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			return []entities.Appointment{}, nil
		}
		return nil, err
	}

	appointments := make([]entities.Appointment, 0, len(items))
	for _, item := range items {
		appt, err := entities.DecodeAppointment(item, s.parser)
		if err != nil {
			return nil, apperrors.NewMalformedResponseError("invalid appointment from "+path, err)
		}
		appointments = append(appointments, appt)
	}
	return appointments, nil
}
