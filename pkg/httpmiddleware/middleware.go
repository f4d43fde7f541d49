// Package httpmiddleware provides the HTTP middleware chain used in front of
// the demo server: panic recovery, request IDs, logger injection, request
// logging, and a per-client rate limit on the upgrade endpoint.
package httpmiddleware

import "net/http"

// Middleware wraps an http.Handler with additional behaviour.
type Middleware func(http.Handler) http.Handler

// Wrap applies middlewares to h. The first middleware in the list is the
// outermost, i.e. it sees the request first.
func Wrap(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
