// Package auth turns the bearer credential presented at connect time into
// a state.Identity.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/a-essam23/syncboard/pkg/state"
)

// ErrUnauthenticated is the registry's sentinel, so callers match either.
var ErrUnauthenticated = state.ErrUnauthenticated

const (
	// CookieName is the cookie checked when no query or header credential is sent.
	CookieName = "session-token"
	// QueryParam carries the token for browser websocket clients, which cannot set headers.
	QueryParam = "token"
)

// AppClaims defines our custom JWT claims structure. UserID is the claim
// issued by the account service; Subject is accepted as a fallback.
type AppClaims struct {
	UserID      string   `json:"userId,omitempty"`
	Permissions []string `json:"perms,omitempty"`
	jwt.RegisteredClaims
}

type Authenticator struct {
	secret       []byte
	defaultPerms state.Permission
}

// New returns an Authenticator granting read and write to tokens that
// carry no perms claim.
func New(secret string) *Authenticator {
	return NewWithDefaults(secret, state.PermDefault)
}

func NewWithDefaults(secret string, defaultPerms state.Permission) *Authenticator {
	return &Authenticator{secret: []byte(secret), defaultPerms: defaultPerms}
}

// Authenticate verifies an HMAC-signed token and extracts the identity.
func (a *Authenticator) Authenticate(tokenString string) (state.Identity, error) {
	if tokenString == "" {
		return state.Identity{}, fmt.Errorf("%w: missing token", ErrUnauthenticated)
	}
	token, err := jwt.ParseWithClaims(tokenString, &AppClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return state.Identity{}, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}

	claims, ok := token.Claims.(*AppClaims)
	if !ok {
		return state.Identity{}, fmt.Errorf("%w: unexpected claims type", ErrUnauthenticated)
	}
	userID := claims.UserID
	if userID == "" {
		userID = claims.Subject
	}
	if userID == "" {
		return state.Identity{}, fmt.Errorf("%w: token has no user id", ErrUnauthenticated)
	}

	perms := a.defaultPerms
	if len(claims.Permissions) > 0 {
		perms, err = state.CompilePermissions(claims.Permissions)
		if err != nil {
			return state.Identity{}, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
		}
	}
	return state.Identity{UserID: userID, Permissions: perms}, nil
}

// Issue signs a token for userID. A zero ttl issues a token without expiry.
func (a *Authenticator) Issue(userID string, perms []string, ttl time.Duration) (string, error) {
	claims := AppClaims{UserID: userID, Permissions: perms}
	claims.IssuedAt = jwt.NewNumericDate(time.Now())
	if ttl != 0 {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// CredentialFrom finds the bearer token of a connect request: the token
// query parameter, then the Authorization header, then the session cookie.
func CredentialFrom(r *http.Request) string {
	if tok := r.URL.Query().Get(QueryParam); tok != "" {
		return tok
	}
	if h := r.Header.Get("Authorization"); h != "" {
		if tok, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(tok)
		}
	}
	if cookie, err := r.Cookie(CookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// IsUnauthenticated reports whether err came from a rejected credential.
func IsUnauthenticated(err error) bool {
	return errors.Is(err, ErrUnauthenticated)
}
