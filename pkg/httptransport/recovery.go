package httptransport

import (
	"fmt"
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// Recovery returns a middleware that turns a panic further down the chain
// into an error, logging it with a stack trace.
func Recovery() Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripFunc(func(req *http.Request) (resp *http.Response, err error) {
			defer func() {
				if rec := recover(); rec != nil {
					zctx.From(req.Context()).Error("panic recovered",
						zap.Any("panic", rec),
						zap.Stack("stack"),
					)
					resp, err = nil, fmt.Errorf("round trip panic: %v", rec)
				}
			}()
			return next.RoundTrip(req)
		})
	}
}
