package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format selects the wire encoding of a document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatForPath picks the encoding from a file extension. Unknown
// extensions default to JSON, which is what browser exports use.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Marshal encodes the document in the given format.
func Marshal(d *GraphDocument, format Format) ([]byte, error) {
	if d == nil {
		return nil, fmt.Errorf("marshal document: document is nil")
	}
	switch format {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(d); err != nil {
			return nil, fmt.Errorf("marshal document as yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("marshal document as yaml: %w", err)
		}
		return buf.Bytes(), nil
	case FormatJSON:
		data, err := json.MarshalIndent(d, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal document as json: %w", err)
		}
		return append(data, '\n'), nil
	default:
		return nil, fmt.Errorf("marshal document: unknown format %q", format)
	}
}

// Unmarshal decodes a document from the given format. JSON documents are
// decoded with unknown-field tolerance: editors attach UI state we do not
// model, and dropping it silently is the contract.
func Unmarshal(data []byte, format Format) (*GraphDocument, error) {
	var d GraphDocument
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("parse yaml document: %w", err)
		}
	case FormatJSON:
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("parse json document: %w", err)
		}
	default:
		return nil, fmt.Errorf("parse document: unknown format %q", format)
	}
	return &d, nil
}

// Detect sniffs the encoding from the payload itself: JSON documents
// start with a brace once whitespace is stripped, everything else is
// treated as YAML. YAML is a JSON superset, so the fallback is safe.
func Detect(data []byte) Format {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return FormatJSON
	}
	return FormatYAML
}

// Parse decodes a document, sniffing the format from the payload.
func Parse(data []byte) (*GraphDocument, error) {
	return Unmarshal(data, Detect(data))
}
