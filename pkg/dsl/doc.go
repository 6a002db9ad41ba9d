/*
Package dsl provides a Go DSL (Domain Specific Language) for programmatically constructing Patchbay documents.

It allows developers to define node graphs using a type-safe, fluent builder pattern
instead of relying on external YAML or JSON files. This is particularly useful for seeding
demo projects, unit testing, and leveraging IDE autocompletion/type-checking.

Example usage:

	package main

	import (
		"github.com/patchbay-io/patchbay/pkg/dsl"
	)

	func main() {
		b := dsl.New("synth-patch")

		b.Value("osc").
			Label("Oscillator").
			At(40, 120).
			Out("out")

		b.Transform("filter").
			Label("Low Pass").
			At(280, 120).
			In("in").
			Out("out").
			Set("expression", "lowpass(x, 440)")

		b.Display("scope").
			Label("Scope").
			At(520, 120).
			In("in")

		b.Wire("osc:out", "filter:in").
			Wire("filter:out", "scope:in")

		// The resulting document can be loaded into an editor
		// or saved straight to a ProjectStore.
		doc, err := b.Build()
		_ = doc
		_ = err
	}
*/
package dsl
