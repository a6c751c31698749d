// Package middleware decorates status stores.
package middleware

import "github.com/aretw0/warden/pkg/ports"

// Middleware allows wrapping a StatusStore to add behavior.
type Middleware func(ports.StatusStore) ports.StatusStore

// Chain applies middlewares so the first one listed sees calls first.
func Chain(store ports.StatusStore, mws ...Middleware) ports.StatusStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
