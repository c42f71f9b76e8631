// Package httptransport provides client-side http.RoundTripper middleware:
// request ids, request logging, OpenTelemetry instrumentation, a sliding
// window rate limit, a circuit breaker and panic recovery.
package httptransport

import "net/http"

// Middleware wraps a RoundTripper.
type Middleware func(next http.RoundTripper) http.RoundTripper

// RoundTripFunc adapts a function to http.RoundTripper.
type RoundTripFunc func(req *http.Request) (*http.Response, error)

// RoundTrip calls f.
func (f RoundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

// Wrap applies mws to base. The first middleware is the outermost: it sees
// the request first and the response last. A nil base means
// http.DefaultTransport.
func Wrap(base http.RoundTripper, mws ...Middleware) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	rt := base
	for i := len(mws) - 1; i >= 0; i-- {
		rt = mws[i](rt)
	}
	return rt
}
