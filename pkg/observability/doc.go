/*
Package observability provides tools for monitoring a Patchbay editor.

It includes hook combinators for fanning mutation and history events out
to multiple consumers, ready-made logging hooks, and a Prometheus metrics
collector that observes an editor through the same hook surface.
*/
package observability
