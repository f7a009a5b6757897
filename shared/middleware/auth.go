package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/compass-ms/usernotify/shared/domain"
	internal_errors "github.com/compass-ms/usernotify/shared/errors"
	"github.com/compass-ms/usernotify/shared/utils"
)

// TokenVerifier is the token codec surface the middleware needs.
type TokenVerifier interface {
	Subject(tokenString string) (string, error)
}

// UserProvider resolves a token subject to the stored account. The middleware
// always re-checks the store; identities are never cached between requests.
type UserProvider interface {
	UserByEmail(email string) (domain.User, error)
}

type key int

const userKey key = 0

// Auth authenticates inbound requests from the Authorization header and binds
// the resolved user into the request context.
type Auth struct {
	jwt   TokenVerifier
	users UserProvider
}

func NewAuth(jwt TokenVerifier, users UserProvider) *Auth {
	return &Auth{jwt: jwt, users: users}
}

// Authenticate runs once per request. Without a bearer token the request
// continues unauthenticated; a present but unverifiable token fails the
// request with 401 before any handler runs. A verified subject missing from
// the store is treated as a normal authentication failure, not a fault.
func (a *Auth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !found {
			next.ServeHTTP(w, r)
			return
		}

		subject, err := a.jwt.Subject(tokenString)
		if err != nil {
			utils.WriteErrorAndStatusCode(w, err)
			return
		}

		user, err := a.users.UserByEmail(subject)
		if err != nil {
			if internal_errors.IsNotFound(err) {
				utils.WriteErrorAndStatusCode(w, internal_errors.Unauthorized())
				return
			}
			utils.WriteErrorAndStatusCode(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), &user)))
	})
}

// WithUser binds an authenticated identity to ctx. Exposed so handler tests
// can simulate an authenticated request without running the full middleware.
func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// Require rejects requests that reached a protected route without an
// authenticated identity bound by Authenticate.
func Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserFromContext(r) == nil {
			http.Error(w, "Please sign-in", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// UserFromContext returns the authenticated user, or nil for anonymous
// requests.
func UserFromContext(r *http.Request) *domain.User {
	user, ok := r.Context().Value(userKey).(*domain.User)
	if !ok {
		return nil
	}
	return user
}
