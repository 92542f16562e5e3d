package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/MahdiBaghbani/ocmgate/internal/appctx"
	"github.com/MahdiBaghbani/ocmgate/internal/identity"
	"github.com/MahdiBaghbani/ocmgate/internal/logutil"
)

type contextKey string

const userContextKey contextKey = "user"

// AuthGateConfig configures the Basic auth gate middleware.
type AuthGateConfig struct {
	// RequireAuth reports whether the given path needs credentials.
	// Constructed by the server at router setup time.
	RequireAuth func(path string) bool

	Auth  *identity.UserAuth
	Users identity.PartyRepo
	Log   *slog.Logger
}

// NewAuthGate returns a middleware enforcing HTTP Basic authentication.
// Paths where RequireAuth returns false pass through untouched.
func NewAuthGate(cfg AuthGateConfig) func(http.Handler) http.Handler {
	cfg.Log = logutil.NoopIfNil(cfg.Log)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.RequireAuth(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			username, password, ok := r.BasicAuth()
			if !ok {
				w.Header().Set("WWW-Authenticate", `Basic realm="ocmgate"`)
				WriteUnauthorized(w, ReasonUnauthenticated, "authentication required")
				return
			}

			user, err := cfg.Auth.Authenticate(r.Context(), cfg.Users, username, password)
			if err != nil {
				cfg.Log.Warn("authentication failed", "username", username)
				w.Header().Set("WWW-Authenticate", `Basic realm="ocmgate"`)
				WriteUnauthorized(w, ReasonInvalidCredentials, "invalid credentials")
				return
			}

			ctx := WithUser(r.Context(), user)
			reqLogger := appctx.GetLogger(ctx).With("user_id", user.ID)
			ctx = appctx.WithLogger(ctx, reqLogger)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, user *identity.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// GetUserFromContext returns the authenticated user, or nil.
func GetUserFromContext(ctx context.Context) *identity.User {
	user, _ := ctx.Value(userContextKey).(*identity.User)
	return user
}
