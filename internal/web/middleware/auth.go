package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JonMunkholm/catalog/internal/auth"
)

// LocalIdentity is attached to every request when authentication is
// disabled, so role checks and audit entries still see a caller.
var LocalIdentity = auth.Identity{UserID: "local", Email: "local@localhost", Role: auth.RoleOwner}

// TokenValidator validates bearer tokens.
type TokenValidator interface {
	Validate(token string) (auth.Identity, error)
}

// ApprovalChecker reports whether a user may use the console.
type ApprovalChecker interface {
	IsApproved(ctx context.Context, userID string) (bool, error)
}

// Authenticate returns middleware that validates the Authorization bearer
// token and stores the caller's identity in the request context. Callers
// that are not approved are rejected; owners are always admitted.
// When required is false every request runs as LocalIdentity.
func Authenticate(tokens TokenValidator, approvals ApprovalChecker, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !required {
				next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), LocalIdentity)))
				return
			}

			token, ok := bearerToken(r)
			if !ok {
				slog.Warn("auth: missing bearer token",
					"path", r.URL.Path,
					"method", r.Method,
					"remote_addr", r.RemoteAddr,
				)
				writeAuthError(w, http.StatusUnauthorized, "missing bearer token", "AUTH001")
				return
			}

			id, err := tokens.Validate(token)
			if err != nil {
				slog.Warn("auth: invalid token",
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
					"error", err,
				)
				writeAuthError(w, http.StatusUnauthorized, "invalid or expired token", "AUTH001")
				return
			}

			if id.Role != auth.RoleOwner && approvals != nil {
				approved, err := approvals.IsApproved(r.Context(), id.UserID)
				if err != nil {
					slog.Error("auth: approval lookup failed", "user_id", id.UserID, "error", err)
					writeAuthError(w, http.StatusServiceUnavailable, "could not verify account", "DB003")
					return
				}
				if !approved {
					writeAuthError(w, http.StatusForbidden, "account awaiting approval", "AUTH002")
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		})
	}
}

// RequireRole rejects callers whose role does not grant min.
func RequireRole(min auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := auth.FromContext(r.Context())
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "not authenticated", "AUTH001")
				return
			}
			if !id.Role.AtLeast(min) {
				slog.Warn("auth: insufficient role",
					"path", r.URL.Path,
					"user_id", id.UserID,
					"role", id.Role,
					"required", min,
				)
				writeAuthError(w, http.StatusForbidden, "insufficient permissions", "AUTH002")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func writeAuthError(w http.ResponseWriter, status int, message, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + message + `","code":"` + code + `"}`))
}
