package document

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/patchbay-io/patchbay/pkg/domain"
)

// The legacy export format predates declared port lists: nodes carry flat
// x/y coordinates, wires live under "edges" with from/to endpoints, and
// some ports exist only as endpoint references. Importing materializes
// everything into the current shape.

type legacyDocument struct {
	Name  string       `mapstructure:"name"`
	Nodes []legacyNode `mapstructure:"nodes"`
	Edges []legacyEdge `mapstructure:"edges"`
}

type legacyNode struct {
	ID        string         `mapstructure:"id"`
	Type      string         `mapstructure:"type"`
	X         float64        `mapstructure:"x"`
	Y         float64        `mapstructure:"y"`
	Label     string         `mapstructure:"label"`
	Inputs    []any          `mapstructure:"inputs"`
	Outputs   []any          `mapstructure:"outputs"`
	Width     float64        `mapstructure:"width"`
	Height    float64        `mapstructure:"height"`
	Children  []string       `mapstructure:"children"`
	Component string         `mapstructure:"component"`
	Props     map[string]any `mapstructure:"props"`
}

type legacyEdge struct {
	ID       string `mapstructure:"id"`
	From     string `mapstructure:"from"`
	FromPort string `mapstructure:"fromPort"`
	To       string `mapstructure:"to"`
	ToPort   string `mapstructure:"toPort"`
	Dashed   bool   `mapstructure:"dashed"`
}

// ImportLegacy converts an old-format export into a GraphDocument.
//
// Ports referenced by an edge but declared on neither side of the node
// are the only place role inference by id substring still happens: an id
// containing "out" lands in the output list, everything else in the
// input list. The inferred role is written into the declared lists, so
// the resulting document resolves ports by membership like any other.
func ImportLegacy(data []byte, log *slog.Logger) (*GraphDocument, error) {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	// 1. Tolerant parse. YAML is a JSON superset, so one path covers both.
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse legacy document: %w", err)
	}

	var legacy legacyDocument
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &legacy,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("build legacy decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("decode legacy document: %w", err)
	}

	// 2. Nodes. Missing ids are an error; everything else gets a default.
	doc := New(legacy.Name)
	doc.Nodes = make([]domain.Node, 0, len(legacy.Nodes))
	for i, ln := range legacy.Nodes {
		if ln.ID == "" {
			return nil, fmt.Errorf("legacy node [%d] is missing an id", i)
		}
		inputs, err := legacyPorts(ln.Inputs)
		if err != nil {
			return nil, fmt.Errorf("legacy node %q inputs: %w", ln.ID, err)
		}
		outputs, err := legacyPorts(ln.Outputs)
		if err != nil {
			return nil, fmt.Errorf("legacy node %q outputs: %w", ln.ID, err)
		}
		doc.Nodes = append(doc.Nodes, domain.Node{
			ID:       ln.ID,
			Type:     ln.Type,
			Position: domain.Position{X: ln.X, Y: ln.Y},
			Data: domain.NodeData{
				Label:        ln.Label,
				Inputs:       inputs,
				Outputs:      outputs,
				Width:        ln.Width,
				Height:       ln.Height,
				ChildNodeIDs: append([]string(nil), ln.Children...),
				ComponentID:  ln.Component,
				Extra:        ln.Props,
			},
		})
	}

	// 3. Edges, materializing undeclared endpoint ports as we go.
	doc.Connections = make([]domain.Connection, 0, len(legacy.Edges))
	for i, le := range legacy.Edges {
		if le.From == "" || le.To == "" {
			return nil, fmt.Errorf("legacy edge [%d] is missing an endpoint node", i)
		}
		id := le.ID
		if id == "" {
			id = domain.NewPrefixedID("conn")
		}
		materializePort(doc, le.From, le.FromPort, log)
		materializePort(doc, le.To, le.ToPort, log)
		doc.Connections = append(doc.Connections, domain.Connection{
			ID:           id,
			SourceNodeID: le.From,
			SourcePort:   le.FromPort,
			TargetNodeID: le.To,
			TargetPort:   le.ToPort,
			IsDashed:     le.Dashed,
		})
	}

	return doc, nil
}

// materializePort appends an endpoint port to the owning node's declared
// lists when neither list has it, inferring the side from the id.
func materializePort(doc *GraphDocument, nodeID, portID string, log *slog.Logger) {
	if portID == "" {
		return
	}
	n, ok := doc.Node(nodeID)
	if !ok {
		return // validation reports the dangling endpoint later
	}
	if _, _, ok := n.Port(portID); ok {
		return
	}
	role := inferLegacyRole(portID)
	if role == domain.RoleOutput {
		n.Data.Outputs = append(n.Data.Outputs, domain.Port{ID: portID})
	} else {
		n.Data.Inputs = append(n.Data.Inputs, domain.Port{ID: portID})
	}
	log.Debug("materialized undeclared legacy port",
		"node", nodeID, "port", portID, "role", role)
}

// inferLegacyRole guesses a port's side from its id, the way the old
// editor did: "out" anywhere in the id means output, anything else is an
// input. Current documents never hit this path.
func inferLegacyRole(portID string) domain.Role {
	if strings.Contains(strings.ToLower(portID), "out") {
		return domain.RoleOutput
	}
	return domain.RoleInput
}

func legacyPorts(raw []any) ([]domain.Port, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	ports := make([]domain.Port, 0, len(raw))
	for i, item := range raw {
		switch v := item.(type) {
		case string:
			ports = append(ports, domain.Port{ID: v})
		case map[string]any, map[any]any:
			var p domain.Port
			if err := mapstructure.Decode(v, &p); err != nil {
				return nil, fmt.Errorf("decode port [%d]: %w", i, err)
			}
			if p.ID == "" {
				return nil, fmt.Errorf("port [%d] is missing an id", i)
			}
			ports = append(ports, p)
		default:
			return nil, fmt.Errorf("invalid port entry [%d] of type %T", i, item)
		}
	}
	return ports, nil
}
