/*
Package document defines the project file format: the serialization
boundary that save/load collaborators round-trip.

A GraphDocument carries the graph state (nodes, connections) plus the
component definitions it references. Field shapes match the domain types
exactly; a store adapter must bring every listed field back unchanged.

The package also hosts the legacy importer for documents written by older
editors. Port-role inference from id substrings survives only there: the
importer materializes inferred roles into the declared port lists, so
nothing downstream ever has to guess again.
*/
package document
