package middleware

import "net/http"

// Middleware wraps an http.Handler. Server-level middleware runs outside
// Gin, so it sees every request including event streams and preflights.
type Middleware func(http.Handler) http.Handler

// Chain composes middleware with the first one outermost.
func Chain(mws ...Middleware) Middleware {
	return func(h http.Handler) http.Handler {
		for i := len(mws) - 1; i >= 0; i-- {
			h = mws[i](h)
		}
		return h
	}
}
