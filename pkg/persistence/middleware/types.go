// Package middleware provides composable wrappers around a ProjectStore:
// transparent encryption and compression that any backend picks up
// without knowing about either.
package middleware

import "github.com/patchbay-io/patchbay/pkg/ports"

// Middleware allows wrapping a ProjectStore to add behavior.
type Middleware func(ports.ProjectStore) ports.ProjectStore

// Chain applies middlewares around a store. The first middleware is the
// outermost: Chain(store, compress, encrypt) compresses the document and
// encrypts the compressed envelope on its way to the store.
func Chain(store ports.ProjectStore, mws ...Middleware) ports.ProjectStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
