/*
Package session keeps live editors for open projects and orchestrates their
persistence.

It provides high-level abstractions for handling concurrent access to project
documents across multiple replicas, pairing in-process reference-counted locks
with an optional distributed locker and a long-term ProjectStore. Mutations go
through the manager so every change is written back to the store before the
lock is released.
*/
package session
