/*
Package domain contains the core domain models for the Patchbay editor.

It defines the fundamental entities of a node graph, such as Nodes, Ports,
Connections and Component definitions. This package is kept pure and free of
external dependencies like I/O or persistence, following Hexagonal
Architecture principles.

# Key Entities

  - Node: A box on the canvas with typed input and output ports.
  - Connection: A directed edge from an output port to an input port.
  - ComponentDefinition: A reusable subgraph captured behind a boundary of
    synthesized ports.
  - Mutation: A committed change to the graph, delivered to lifecycle hooks.
*/
package domain
