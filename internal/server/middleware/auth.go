package middleware

import (
	"log/slog"
	"net/http"

	"github.com/a-essam23/syncboard/pkg/auth"
	"github.com/a-essam23/syncboard/pkg/state"
)

// Authenticator resolves a bearer credential to an identity.
type Authenticator interface {
	Authenticate(token string) (state.Identity, error)
}

// NewAuthMiddleware rejects requests without a valid credential, or
// lacking required, with an empty 401 before next runs.
func NewAuthMiddleware(logger *slog.Logger, authenticator Authenticator, required state.Permission) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// couldn't extract metadata from request so something went wrong with previous middlewares
			reqMeta, ok := ReqMetadataFrom(r.Context())
			if !ok {
				logger.Error("Auth middleware could not find request metadata in context. Check middleware order.")
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}

			id, err := authenticator.Authenticate(auth.CredentialFrom(r))
			if err != nil {
				logger.Warn("Rejected credential", slog.String("ip", reqMeta.IP), slog.Any("error", err))
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			if !id.Permissions.Has(required) {
				logger.Warn("Credential lacks permission",
					slog.String("ip", reqMeta.IP),
					slog.String("userID", id.UserID),
					slog.Any("required", required),
				)
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			reqMeta.Identity = id
			next.ServeHTTP(w, r)
		})
	}
}
