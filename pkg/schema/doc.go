// Package schema validates the type-specific payload a node carries in
// Data.Extra.
//
// It defines a simple type system with built-in types (string, int, float,
// bool, any, enums) and support for slices and custom validators. Schemas
// map field names to typed fields, each required or optional.
//
// Basic usage:
//
//	s := schema.Schema{
//	    "expression": schema.Required(schema.String()),
//	    "strategy":   schema.Optional(schema.Enum("combine", "first", "last")),
//	}
//
//	extra := map[string]any{
//	    "expression": "a + b",
//	}
//
//	if err := schema.Validate(s, extra); err != nil {
//	    // Handle validation errors
//	}
//
// Every built-in node type has a registered schema; ValidateExtra and
// CheckExtra look it up by the node's type:
//
//	if err := schema.ValidateExtra(node); err != nil {
//	    for _, fe := range schema.FieldErrors(err) {
//	        // Mark each failing field
//	    }
//	}
//
// Validate requires mandatory fields and suits finished documents; Check
// type-checks only what is present, which is what the editor wants while a
// node is still being configured.
//
// Schemas can also be parsed from type strings, with "?" marking optional
// fields:
//
//	typeMap := map[string]string{
//	    "expression": "string",
//	    "strategy":   "enum(combine|first|last)?",
//	}
//
//	s, err := schema.ParseTypeMap(typeMap)
//
// Custom validators cover domain-specific constraints:
//
//	port := schema.Custom("port", func(v any) error {
//	    i, ok := v.(int)
//	    if !ok || i < 1 || i > 65535 {
//	        return fmt.Errorf("expected a port number")
//	    }
//	    return nil
//	})
package schema
