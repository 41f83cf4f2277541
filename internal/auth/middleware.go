package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/redmonkez12/contacts-api/internal/httputil"
	"github.com/redmonkez12/contacts-api/internal/logging"
	"github.com/redmonkez12/contacts-api/internal/user"
)

type contextKey string

const currentUserContextKey contextKey = "current_user"

// Middleware handles authentication for protected routes
type Middleware struct {
	resolver *Resolver
}

func NewMiddleware(resolver *Resolver) *Middleware {
	return &Middleware{resolver: resolver}
}

// RequireAuth resolves the bearer token into the current user
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			w.Header().Set("WWW-Authenticate", "Bearer")
			httputil.RespondErrorWithCode(w, "Not authenticated", httputil.CodeMissingAuth, http.StatusUnauthorized)
			return
		}

		scheme, token, found := strings.Cut(authHeader, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			w.Header().Set("WWW-Authenticate", "Bearer")
			httputil.RespondErrorWithCode(w, "invalid authorization header format", httputil.CodeInvalidAuthHeader, http.StatusUnauthorized)
			return
		}

		currentUser, err := m.resolver.CurrentUser(r.Context(), strings.TrimSpace(token))
		if err != nil {
			if errors.Is(err, ErrUnauthorized) {
				w.Header().Set("WWW-Authenticate", "Bearer")
				httputil.RespondErrorWithCode(w, "Could not validate credentials", httputil.CodeUnauthorized, http.StatusUnauthorized)
				return
			}
			logging.GetLoggerFromContext(r.Context()).Error("failed to resolve current user", "error", err.Error())
			httputil.RespondErrorWithCode(w, "internal server error", httputil.CodeInternalError, http.StatusInternalServerError)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithCurrentUser(r.Context(), currentUser)))
	})
}

// RequireAdmin must run after RequireAuth
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		currentUser, _ := GetCurrentUser(r.Context())
		if _, err := m.resolver.RequireAdmin(currentUser); err != nil {
			httputil.RespondErrorWithCode(w, "Insufficient access rights", httputil.CodeForbidden, http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithCurrentUser stores u in the context
func WithCurrentUser(ctx context.Context, u *user.User) context.Context {
	return context.WithValue(ctx, currentUserContextKey, u)
}

// GetCurrentUser extracts the authenticated user from the request context
func GetCurrentUser(ctx context.Context) (*user.User, bool) {
	u, ok := ctx.Value(currentUserContextKey).(*user.User)
	return u, ok && u != nil
}
