package entities

import (
	"encoding/json"
	"strings"

	"github.com/zatekoja/clinicdesk/backend/pkg/dates"
)

// Appointment is a normalized appointment whose owner fields may still be
// unresolved foreign keys.
type Appointment struct {
	ID      string     `json:"id"`
	Patient ForeignKey `json:"patient"`
	Doctor  ForeignKey `json:"doctor"`
	Date    dates.Date `json:"date"`
	RawDate string     `json:"rawDate,omitempty"`
	Time    string     `json:"time,omitempty"`
	Status  string     `json:"status,omitempty"`
	Reason  string     `json:"reason,omitempty"`
	// Counterpart is the resolved doctor for a patient's appointment, or the
	// resolved patient for a doctor's appointment.
	Counterpart *CanonicalRecord `json:"counterpart,omitempty"`
}

// AppointmentSchedule splits an entity's appointments by timing relative to today.
type AppointmentSchedule struct {
	Resolution *ResolutionOutcome `json:"resolution"`
	Upcoming   []Appointment      `json:"upcoming"`
	Past       []Appointment      `json:"past"`
	Undated    []Appointment      `json:"undated"`
	// Degraded is set when the appointment source failed.
	Degraded bool `json:"degraded,omitempty"`
}

// DecodeAppointment normalizes one appointment object from the backend.
func DecodeAppointment(raw json.RawMessage, parser *dates.Parser) (Appointment, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Appointment{}, err
	}

	var flat map[string]interface{}
	if err := json.Unmarshal(raw, &flat); err != nil {
		return Appointment{}, err
	}

	appt := Appointment{
		ID:      StringField(flat, "_id", "id", "appointmentId"),
		RawDate: StringField(flat, "date", "appointmentDate", "appointment_date", "scheduledAt"),
		Time:    StringField(flat, "time", "appointmentTime", "slot"),
		Status:  StringField(flat, "status"),
		Reason:  StringField(flat, "reason", "notes", "description"),
	}
	appt.Date = parser.Parse(appt.RawDate)

	if err := decodeForeignKey(fields, &appt.Patient, "patient", "patientId", "patient_id"); err != nil {
		return Appointment{}, err
	}
	appt.Patient.fillMissing(
		StringField(flat, "patientCode", "patient_code"),
		StringField(flat, "patientName", "patient_name"),
	)

	if err := decodeForeignKey(fields, &appt.Doctor, "doctor", "doctorId", "doctor_id"); err != nil {
		return Appointment{}, err
	}
	appt.Doctor.fillMissing(
		StringField(flat, "doctorCode", "doctor_code"),
		strings.TrimSpace(StringField(flat, "doctorName", "doctor_name")),
	)

	return appt, nil
}

func decodeForeignKey(fields map[string]json.RawMessage, dst *ForeignKey, keys ...string) error {
	for _, key := range keys {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			return err
		}
		if !dst.IsZero() {
			return nil
		}
	}
	return nil
}
