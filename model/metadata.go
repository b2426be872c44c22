package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"github.com/siherrmann/linker/helper"
)

// Metadata represents JSONB metadata stored in PostgreSQL
type Metadata map[string]interface{}

// String returns the value at key when it holds a string, empty
// otherwise. Mention edges store surface_form and context this way.
func (m Metadata) String(key string) string {
	value, _ := m[key].(string)
	return value
}

// Float returns the numeric value at key. Both the int values set in
// memory and the float64 values JSONB decoding produces are accepted,
// anything else yields zero.
func (m Metadata) Float(key string) float64 {
	switch value := m[key].(type) {
	case float64:
		return value
	case int:
		return float64(value)
	default:
		return 0
	}
}

// Int returns the numeric value at key truncated to int, zero when the
// key is absent or not numeric. Mention offsets round-trip through
// JSONB as float64 and come back intact this way.
func (m Metadata) Int(key string) int {
	return int(m.Float(key))
}

// Value implements the driver.Valuer interface for database storage
func (m Metadata) Value() (driver.Value, error) {
	return m.Marshal()
}

// Scan implements the sql.Scanner interface for database retrieval
func (m *Metadata) Scan(value interface{}) error {
	return m.Unmarshal(value)
}

// Marshal converts Metadata to JSON bytes
func (m Metadata) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// Unmarshal converts JSON bytes or Metadata to Metadata
func (m *Metadata) Unmarshal(value interface{}) error {
	if value == nil {
		*m = Metadata{}
		return nil
	}

	if s, ok := value.(Metadata); ok {
		*m = Metadata(s)
		return nil
	}

	b, ok := value.([]byte)
	if !ok {
		return helper.NewError("byte assertion", errors.New("type assertion to []byte failed"))
	}

	return json.Unmarshal(b, m)
}
