package schema

import (
	"encoding/json"
	"fmt"
)

// MarshalJSON serializes the schema as a map of field names to type strings,
// with optional fields carrying a trailing "?".
func (s Schema) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}

	raw := make(map[string]string, len(s))
	for key, field := range s {
		if field.Type == nil {
			return nil, fmt.Errorf("field %s: type is nil", key)
		}
		name := field.Type.Name()
		if !field.Required {
			name += "?"
		}
		raw[key] = name
	}

	return json.Marshal(raw)
}

// UnmarshalJSON deserializes the schema from a map of field names to type
// strings.
func (s *Schema) UnmarshalJSON(data []byte) error {
	if s == nil {
		return fmt.Errorf("schema: UnmarshalJSON on nil pointer")
	}

	if string(data) == "null" {
		*s = nil
		return nil
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	parsed, err := ParseTypeMap(raw)
	if err != nil {
		return err
	}

	*s = parsed
	return nil
}
