package db

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringSlice maps a jsonb array column onto []string. It implements
// sql.Scanner and driver.Valuer so article categories round-trip through
// sqlx without manual marshalling.
type StringSlice []string

// Scan implements sql.Scanner.
func (s *StringSlice) Scan(src interface{}) error {
	if s == nil {
		return fmt.Errorf("dbtypes: Scan on nil *StringSlice")
	}
	if src == nil {
		*s = []string{}
		return nil
	}

	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("dbtypes: cannot scan type %T into StringSlice", src)
	}

	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	*s = out
	return nil
}

// Value implements driver.Valuer. A nil slice marshals to an empty json
// array rather than SQL NULL.
func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(s))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
