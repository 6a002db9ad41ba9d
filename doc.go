/*
Package patchbay is an embeddable node-graph editor core for building visual
patching interfaces: synth patchers, shader graphs, data-flow front ends, or
any tool where users wire typed nodes together on a canvas.

It implements the non-visual half of such an editor. The library owns the
graph state, the connection drag lifecycle, grouping, component fold/unfold,
and transactional undo/redo, while your application ("Host") owns rendering,
hit testing, and input. This hexagonal split lets Patchbay sit behind any
surface: a browser canvas over HTTP, a native UI, or a headless pipeline.

# Key Features

  - Transactional mutations: every operation is atomic, and node and
    connection changes belonging to one gesture undo together.
  - Connection gestures: a drag state machine with polarity normalization,
    duplicate rejection, and elastic input growth on merge-style nodes.
  - Reusable components: fold a group of nodes into a published definition,
    stamp instances, unfold them back with identity preserved.
  - Hexagonal architecture: persistence, observability, and transport are
    adapters over small ports; the core has no I/O.

# Usage

Create an Editor, build a graph, and wire ports. Every mutation is
immediately undoable.

	package main

	import (
		"fmt"
		"log"

		"github.com/patchbay-io/patchbay"
		"github.com/patchbay-io/patchbay/pkg/domain"
	)

	func main() {
		ed := patchbay.New(patchbay.WithName("my-patch"))

		osc := ed.AddNode(domain.Node{
			Type: domain.NodeTypeValue,
			Data: domain.NodeData{
				Label:   "Oscillator",
				Outputs: []domain.Port{{ID: "out", Label: "Signal"}},
			},
		})
		gain := ed.AddNode(domain.Node{
			Type: domain.NodeTypeTransform,
			Data: domain.NodeData{
				Label:  "Gain",
				Inputs: []domain.Port{{ID: "in", Label: "Signal"}},
			},
		})

		if _, err := ed.Connect(osc.ID, "out", gain.ID, "in"); err != nil {
			log.Fatal(err)
		}

		nodes, conns := ed.Counts()
		fmt.Printf("%d nodes, %d connections\n", nodes, conns)

		ed.Undo() // the wire is gone
		ed.Redo() // and back
	}

Documents round-trip the whole editor state, including the component
definitions the graph depends on, as JSON or YAML. See the document package
for the serialization boundary and the adapters packages for persistence.
*/
package patchbay
