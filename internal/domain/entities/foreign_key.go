package entities

import (
	"bytes"
	"encoding/json"
	"strings"
)

// ForeignKey is a reference field that the backend sends either as a raw id
// ("64f1c0..." or 42) or as an embedded, possibly partial, object.
type ForeignKey struct {
	ID   string `json:"id,omitempty"`
	Code string `json:"code,omitempty"`
	Name string `json:"name,omitempty"`
}

// UnmarshalJSON accepts a string, a number, an object or null. Any other
// JSON shape leaves the key empty rather than failing the enclosing payload.
func (k *ForeignKey) UnmarshalJSON(data []byte) error {
	*k = ForeignKey{}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var value interface{}
	if err := dec.Decode(&value); err != nil {
		return err
	}

	*k = ForeignKeyFromValue(value)
	return nil
}

// ForeignKeyFromValue converts an already decoded JSON value. Strings and
// numbers become the id; objects are read through the usual field aliases.
func ForeignKeyFromValue(value interface{}) ForeignKey {
	switch v := value.(type) {
	case string:
		return ForeignKey{ID: strings.TrimSpace(v)}
	case json.Number:
		return ForeignKey{ID: v.String()}
	case float64:
		return ForeignKey{ID: stringValue(v)}
	case map[string]interface{}:
		record := RecordFromMap("", v)
		return ForeignKey{ID: record.ID, Code: record.Code, Name: record.Name}
	default:
		return ForeignKey{}
	}
}

// IsZero reports whether the key carries nothing to resolve.
func (k ForeignKey) IsZero() bool {
	return k.ID == "" && k.Code == "" && k.Name == ""
}

// Reference converts the key into a reference of the given kind.
func (k ForeignKey) Reference(kind EntityKind) EntityReference {
	return EntityReference{ID: k.ID, Code: k.Code, Name: k.Name, Kind: kind}
}

// fillMissing copies code and name from flat sibling fields such as
// doctorName when the key itself was a bare id.
func (k *ForeignKey) fillMissing(code, name string) {
	if k.Code == "" {
		k.Code = code
	}
	if k.Name == "" {
		k.Name = name
	}
}
