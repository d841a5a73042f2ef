package middleware

import (
	"context"
	"net"
	"net/http"

	"github.com/google/uuid"

	"github.com/a-essam23/syncboard/pkg/state"
)

type contextKey string

const reqMetaKey = contextKey("r-metadata")

// RequestMetadata is filled in as a request moves down the chain.
type RequestMetadata struct {
	RequestID string
	IP        string
	// set by the auth middleware
	Identity state.Identity
}

func ReqMetadataFrom(ctx context.Context) (*RequestMetadata, bool) {
	reqMeta, ok := ctx.Value(reqMetaKey).(*RequestMetadata)
	return reqMeta, ok
}

// WithMetadata attaches m to ctx. Handlers outside the chain use it in tests.
func WithMetadata(ctx context.Context, m *RequestMetadata) context.Context {
	return context.WithValue(ctx, reqMetaKey, m)
}

// creates and injects the RequestMetadata struct into the request.
// **This should be the first middleware in the chain.**
func RequestMetadataMiddleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqMeta := &RequestMetadata{RequestID: uuid.NewString()}

			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr // Fallback
			}
			reqMeta.IP = ip
			next.ServeHTTP(w, r.WithContext(WithMetadata(r.Context(), reqMeta)))
		})
	}
}
