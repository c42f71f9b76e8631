package httptransport

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// HeaderRequestID is the header carrying the request id.
const HeaderRequestID = "X-Request-ID"

// requestIDKey is the context key for the request ID value.
type requestIDKey struct{}

// WithRequestID returns a context whose outgoing requests carry id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext extracts the request ID from the context.
// It returns an empty string if no request ID is present.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// RequestID returns a middleware that ensures every outgoing request has an
// X-Request-ID header. An existing valid header is kept; otherwise the id from
// the request context is used, and failing that a new UUID v4.
//
// The request is cloned before the header is set, as RoundTrippers must not
// modify the caller's request.
func RequestID() Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripFunc(func(req *http.Request) (*http.Response, error) {
			if isValidRequestID(req.Header.Get(HeaderRequestID)) {
				return next.RoundTrip(req)
			}
			id := RequestIDFromContext(req.Context())
			if !isValidRequestID(id) {
				id = uuid.New().String()
			}
			req = req.Clone(WithRequestID(req.Context(), id))
			req.Header.Set(HeaderRequestID, id)
			return next.RoundTrip(req)
		})
	}
}

// isValidRequestID checks that id is non-empty, at most 128 bytes, and
// contains only printable ASCII (0x20-0x7E).
func isValidRequestID(id string) bool {
	if len(id) == 0 || len(id) > 128 {
		return false
	}
	for i := range len(id) {
		if id[i] < 0x20 || id[i] > 0x7E {
			return false
		}
	}
	return true
}
