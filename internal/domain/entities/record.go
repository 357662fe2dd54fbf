package entities

import (
	"encoding/json"
	"strconv"
	"strings"
)

// CanonicalRecord is the backend's record for a resolved entity
type CanonicalRecord struct {
	ID         string                 `json:"id"`
	Code       string                 `json:"code,omitempty"`
	Name       string                 `json:"name,omitempty"`
	Kind       EntityKind             `json:"kind"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
}

// Reference returns a fully populated reference to the record.
func (r CanonicalRecord) Reference() EntityReference {
	return EntityReference{ID: r.ID, Code: r.Code, Name: r.Name, Kind: r.Kind}
}

// Field aliases seen across the backend's collections.
var (
	idFields   = []string{"_id", "id", "patientId", "doctorId", "userId"}
	codeFields = []string{"code", "patientCode", "doctorCode", "patient_code", "doctor_code", "registrationNumber"}
	nameFields = []string{"name", "fullName", "full_name", "displayName", "doctorName", "patientName"}
)

// RecordFromMap normalizes a loosely-shaped backend object.
func RecordFromMap(kind EntityKind, m map[string]interface{}) CanonicalRecord {
	return CanonicalRecord{
		ID:         StringField(m, idFields...),
		Code:       StringField(m, codeFields...),
		Name:       displayName(m),
		Kind:       kind,
		Attributes: m,
	}
}

// RecordFromJSON decodes and normalizes a single backend object.
func RecordFromJSON(kind EntityKind, raw json.RawMessage) (CanonicalRecord, error) {
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return CanonicalRecord{}, err
	}
	return RecordFromMap(kind, m), nil
}

func displayName(m map[string]interface{}) string {
	if name := StringField(m, nameFields...); name != "" {
		return name
	}
	first := StringField(m, "firstName", "first_name")
	last := StringField(m, "lastName", "last_name")
	return strings.TrimSpace(first + " " + last)
}

// StringField returns the first non-empty value among keys, rendering
// numbers without exponent and reading "name" out of embedded objects.
func StringField(m map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		value, ok := m[key]
		if !ok || value == nil {
			continue
		}
		if s := stringValue(value); s != "" {
			return s
		}
	}
	return ""
}

func stringValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	case map[string]interface{}:
		return displayName(v)
	default:
		return ""
	}
}
