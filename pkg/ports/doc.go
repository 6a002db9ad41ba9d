/*
Package ports defines the driven ports (interfaces) for the Patchbay editor.

These interfaces decouple the core from external implementations, allowing
sessions to persist projects to various storage backends and to coordinate
access across replicas.

# Key Interfaces

  - ProjectStore: persists and loads project documents.
  - DistributedLocker: provides distributed locking for concurrent access
    to the same project from multiple instances.

RunProjectStoreContract is the conformance suite every ProjectStore adapter
runs in its own tests.
*/
package ports
