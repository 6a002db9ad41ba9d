package validator

import (
	"context"
	"fmt"
	"strings"

	"github.com/patchbay-io/patchbay/pkg/document"
	"github.com/patchbay-io/patchbay/pkg/ports"
	"github.com/patchbay-io/patchbay/pkg/schema"
)

// Report is the outcome of inspecting one document. Errors are structural
// problems the editor would refuse to load; warnings are advisory and
// never block.
type Report struct {
	Errors   []string
	Warnings []string
}

// Valid reports whether the document is loadable. Warnings are allowed.
func (r *Report) Valid() bool { return len(r.Errors) == 0 }

// Clean reports whether inspection found nothing at all.
func (r *Report) Clean() bool { return len(r.Errors) == 0 && len(r.Warnings) == 0 }

// Document runs structural validation and then lints the document for
// problems that are legal but usually unintended. Extra data is only
// type-checked: half-configured nodes are normal in drafts, so missing
// fields pass and findings are warnings.
func Document(doc *document.GraphDocument) *Report {
	return inspect(doc, false)
}

// StrictDocument additionally enforces the finished-document contract:
// every required Extra field must be present, and schema findings are
// errors rather than warnings.
func StrictDocument(doc *document.GraphDocument) *Report {
	return inspect(doc, true)
}

func inspect(doc *document.GraphDocument, strict bool) *Report {
	report := &Report{}

	// 1. Structural validation (hard errors).
	if err := doc.Validate(); err != nil {
		issues := document.Issues(err)
		if len(issues) == 0 {
			report.Errors = append(report.Errors, err.Error())
		}
		for _, issue := range issues {
			report.Errors = append(report.Errors, issue.String())
		}
	}

	// 2. Lint (advisory).
	report.Warnings = append(report.Warnings, lint(doc)...)

	// 3. Extra data against each node type's declared schema.
	for i := range doc.Nodes {
		n := &doc.Nodes[i]
		var err error
		if strict {
			err = schema.ValidateExtra(*n)
		} else {
			err = schema.CheckExtra(*n)
		}
		if err == nil {
			continue
		}
		var msgs []string
		fieldErrs := schema.FieldErrors(err)
		if len(fieldErrs) == 0 {
			msgs = append(msgs, fmt.Sprintf("node %q: %v", n.ID, err))
		}
		for _, fe := range fieldErrs {
			msgs = append(msgs, fmt.Sprintf("node %q: %v", n.ID, fe))
		}
		if strict {
			report.Errors = append(report.Errors, msgs...)
		} else {
			report.Warnings = append(report.Warnings, msgs...)
		}
	}

	return report
}

// Parse decodes raw JSON or YAML and inspects the result. A decode
// failure is itself the report's single error.
func Parse(data []byte) *Report {
	return parse(data, false)
}

// StrictParse is Parse with the finished-document contract enforced.
func StrictParse(data []byte) *Report {
	return parse(data, true)
}

func parse(data []byte, strict bool) *Report {
	doc, err := document.Parse(data)
	if err != nil {
		return &Report{Errors: []string{err.Error()}}
	}
	return inspect(doc, strict)
}

func lint(doc *document.GraphDocument) []string {
	var warnings []string

	// Unwired nodes: sockets declared, nothing plugged in.
	for i := range doc.Nodes {
		n := &doc.Nodes[i]
		if len(n.Data.Inputs)+len(n.Data.Outputs) == 0 {
			continue
		}
		wired := false
		for _, c := range doc.Connections {
			if c.Touches(n.ID) {
				wired = true
				break
			}
		}
		if !wired {
			warnings = append(warnings, fmt.Sprintf("node %q has ports but no connections", n.ID))
		}
	}

	// Nodes claimed by more than one group.
	memberOf := make(map[string]string)
	for i := range doc.Nodes {
		n := &doc.Nodes[i]
		for _, child := range n.Data.ChildNodeIDs {
			if prev, dup := memberOf[child]; dup {
				warnings = append(warnings, fmt.Sprintf("node %q is claimed by both groups %q and %q", child, prev, n.ID))
				continue
			}
			memberOf[child] = n.ID
		}
	}

	// Definitions nobody instantiates. References from inside other
	// definitions count: nested components are reachable on expand.
	referenced := make(map[string]bool)
	for i := range doc.Nodes {
		if id := doc.Nodes[i].Data.ComponentID; id != "" {
			referenced[id] = true
		}
	}
	for i := range doc.Definitions {
		for _, m := range doc.Definitions[i].InternalNodes {
			if m.Data.ComponentID != "" {
				referenced[m.Data.ComponentID] = true
			}
		}
	}
	for i := range doc.Definitions {
		def := &doc.Definitions[i]
		if !referenced[def.ID] {
			warnings = append(warnings, fmt.Sprintf("definition %q is never instantiated", def.ID))
		}
	}

	return warnings
}

// Library validates every project a store holds and aggregates the
// broken ones into a single error. Lint warnings do not fail a library
// check; with strict set, a missing required field does.
func Library(ctx context.Context, store ports.ProjectStore, strict bool) error {
	ids, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("listing projects: %w", err)
	}

	var errors []string
	for _, id := range ids {
		doc, err := store.Load(ctx, id)
		if err != nil {
			errors = append(errors, fmt.Sprintf("project %q: load failed: %v", id, err))
			continue
		}
		report := inspect(doc, strict)
		for _, msg := range report.Errors {
			errors = append(errors, fmt.Sprintf("project %q: %s", id, msg))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("found %d errors:\n- %s", len(errors), strings.Join(errors, "\n- "))
	}

	return nil
}
