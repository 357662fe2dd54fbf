package entities

import (
	"fmt"
	"strings"

	apperrors "github.com/zatekoja/clinicdesk/backend/pkg/errors"
	"github.com/zatekoja/clinicdesk/backend/pkg/utils"
)

// EntityKind is the category of thing being resolved
type EntityKind string

const (
	KindPatient            EntityKind = "patient"
	KindDoctor             EntityKind = "doctor"
	KindAppointmentSubject EntityKind = "appointment-subject"
)

// ParseEntityKind validates a kind received from a caller
func ParseEntityKind(s string) (EntityKind, error) {
	switch kind := EntityKind(strings.ToLower(strings.TrimSpace(s))); kind {
	case KindPatient, KindDoctor, KindAppointmentSubject:
		return kind, nil
	default:
		return "", apperrors.NewValidationError(fmt.Sprintf("unknown entity kind %q", s))
	}
}

// EntityReference is a possibly partial pointer to a patient, doctor or
// appointment subject. It is a value type; resolution never mutates it.
type EntityReference struct {
	ID   string     `json:"id,omitempty"`
	Code string     `json:"code,omitempty"`
	Name string     `json:"name,omitempty"`
	Kind EntityKind `json:"kind"`
}

// Validate checks that the reference has a known kind and at least one of
// id, code or name.
func (r EntityReference) Validate() error {
	if _, err := ParseEntityKind(string(r.Kind)); err != nil {
		return err
	}
	if strings.TrimSpace(r.ID) == "" && strings.TrimSpace(r.Code) == "" && strings.TrimSpace(r.Name) == "" {
		return apperrors.NewValidationError("reference needs an id, code or name")
	}
	return nil
}

// HasSecondary reports whether the reference carries a code or name to fall
// back on when the id lookup comes back empty.
func (r EntityReference) HasSecondary() bool {
	return strings.TrimSpace(r.Code) != "" || strings.TrimSpace(r.Name) != ""
}

// WithID returns a copy pointing at id.
func (r EntityReference) WithID(id string) EntityReference {
	r.ID = id
	return r
}

// WithoutID returns a copy with the id removed.
func (r EntityReference) WithoutID() EntityReference {
	r.ID = ""
	return r
}

// HintKeys returns the resolution-cache keys derivable from the code and
// name, most specific first.
func (r EntityReference) HintKeys() []string {
	var keys []string
	if code := utils.NormalizeCode(r.Code); code != "" {
		keys = append(keys, fmt.Sprintf("%s:code:%s", r.Kind, code))
	}
	if name := utils.NormalizeName(r.Name); name != "" {
		keys = append(keys, fmt.Sprintf("%s:name:%s", r.Kind, name))
	}
	return keys
}

func (r EntityReference) String() string {
	var parts []string
	if r.ID != "" {
		parts = append(parts, "id="+r.ID)
	}
	if r.Code != "" {
		parts = append(parts, "code="+r.Code)
	}
	if r.Name != "" {
		parts = append(parts, "name="+r.Name)
	}
	return fmt.Sprintf("%s{%s}", r.Kind, strings.Join(parts, " "))
}
