package schema

import "sort"

// Field is one schema entry: a type plus whether the field must be present.
type Field struct {
	Type     Type
	Required bool
}

// Required wraps a type as a mandatory field.
func Required(t Type) Field { return Field{Type: t, Required: true} }

// Optional wraps a type as a field validated only when present.
func Optional(t Type) Field { return Field{Type: t} }

// Schema maps field names to their expected types.
// Example: {"expression": Required(String()), "strategy": Optional(Enum("first", "last"))}
//
// Fields present in the data but absent from the schema are tolerated;
// documents grow fields faster than validators do.
type Schema map[string]Field

// Validate checks if data conforms to the schema: required fields must be
// present, and every present field must match its declared type.
// Returns an error with all validation failures found.
func Validate(schema Schema, data map[string]any) error {
	return run(schema, data, true)
}

// Check type-checks only the fields present in data, tolerating missing
// ones. The editor runs this on load, where half-configured nodes are
// normal; Validate is for finished documents.
func Check(schema Schema, data map[string]any) error {
	return run(schema, data, false)
}

func run(schema Schema, data map[string]any, requireMissing bool) error {
	if len(schema) == 0 {
		// No schema = no validation
		return nil
	}

	// Sorted field order keeps aggregate messages stable.
	fields := make([]string, 0, len(schema))
	for name := range schema {
		fields = append(fields, name)
	}
	sort.Strings(fields)

	var errs []error
	for _, fieldName := range fields {
		field := schema[fieldName]
		value, exists := data[fieldName]
		if !exists {
			if requireMissing && field.Required {
				errs = append(errs, &FieldError{
					Key:    fieldName,
					Reason: "required",
					Value:  nil,
				})
			}
			continue
		}

		// Validate the value against the type
		if err := field.Type.Validate(value); err != nil {
			errs = append(errs, &FieldError{
				Key:    fieldName,
				Reason: err.Error(),
				Value:  value,
			})
		}
	}

	// If there are errors, aggregate them
	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}

	return nil
}
