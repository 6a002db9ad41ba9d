package schema

import (
	"github.com/patchbay-io/patchbay/pkg/domain"
)

// nodeSchemas maps node types to the shape of their Data.Extra payload.
// Types without an entry carry free-form Extra and validate trivially.
var nodeSchemas = map[string]Schema{
	domain.NodeTypeValue: {
		"value":  Optional(Any()),
		"format": Optional(String()),
	},
	domain.NodeTypeTransform: {
		"expression": Required(String()),
	},
	domain.NodeTypeMerge: {
		"strategy": Optional(Enum("combine", "first", "last")),
	},
	domain.NodeTypeDisplay: {
		"format": Optional(Enum("auto", "text", "json", "number")),
	},
}

// RegisterNodeType declares (or replaces) the Extra schema for a node type.
// Call during setup, alongside TypeCatalog.Register for custom types.
func RegisterNodeType(nodeType string, s Schema) {
	nodeSchemas[nodeType] = s
}

// ForNodeType returns the Extra schema registered for a node type.
func ForNodeType(nodeType string) (Schema, bool) {
	s, ok := nodeSchemas[nodeType]
	return s, ok
}

// ValidateExtra fully validates a node's Extra payload against its type's
// schema, requiring mandatory fields. Meant for finished documents.
func ValidateExtra(n domain.Node) error {
	s, ok := nodeSchemas[n.Type]
	if !ok {
		return nil
	}
	return Validate(s, n.Data.Extra)
}

// CheckExtra type-checks only the Extra fields the node actually carries.
// Meant for the interactive path, where half-configured nodes are normal.
func CheckExtra(n domain.Node) error {
	s, ok := nodeSchemas[n.Type]
	if !ok {
		return nil
	}
	return Check(s, n.Data.Extra)
}
