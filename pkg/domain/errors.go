package domain

import "errors"

// ErrNodeNotFound is returned when a node ID cannot be resolved in the graph.
var ErrNodeNotFound = errors.New("node not found")

// ErrConnectionNotFound is returned when a connection ID cannot be resolved.
var ErrConnectionNotFound = errors.New("connection not found")

// ErrPortNotFound is returned when a port ID is not declared on its node.
var ErrPortNotFound = errors.New("port not found")

// ErrSameRole is returned when both endpoints of a gesture are inputs or
// both are outputs.
var ErrSameRole = errors.New("ports have the same role")

// ErrDuplicateConnection is returned when the endpoint tuple already exists.
var ErrDuplicateConnection = errors.New("duplicate connection")

// ErrNoActiveDrag is returned when a gesture is completed without a
// preceding start.
var ErrNoActiveDrag = errors.New("no active drag")

// ErrNotAGroup is returned when a fold target is not a group node.
var ErrNotAGroup = errors.New("node is not a group")

// ErrEmptyGroup is returned when a fold target has no members.
var ErrEmptyGroup = errors.New("group has no members")

// ErrNotAComponent is returned when an unfold target is not a component
// instance.
var ErrNotAComponent = errors.New("node is not a component instance")

// ErrDefinitionNotFound is returned when a component definition ID is absent
// from the registry.
var ErrDefinitionNotFound = errors.New("component definition not found")

// ErrDefinitionExists is returned when publishing over an already published
// definition ID.
var ErrDefinitionExists = errors.New("component definition already exists")

// ErrCyclicDefinition is returned when a definition would contain itself,
// directly or through other definitions.
var ErrCyclicDefinition = errors.New("cyclic component definition")

// ErrProjectNotFound is returned when a project ID cannot be found in a
// store.
var ErrProjectNotFound = errors.New("project not found")
