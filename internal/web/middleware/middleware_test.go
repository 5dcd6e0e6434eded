package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/catalog/internal/auth"
	"github.com/JonMunkholm/catalog/internal/core"
)

type fakeTokens map[string]auth.Identity

func (f fakeTokens) Validate(token string) (auth.Identity, error) {
	id, ok := f[token]
	if !ok {
		return auth.Identity{}, auth.ErrInvalidToken
	}
	return id, nil
}

type fakeApprovals struct {
	approved map[string]bool
	err      error
}

func (f fakeApprovals) IsApproved(_ context.Context, userID string) (bool, error) {
	return f.approved[userID], f.err
}

// echoIdentity writes the caller's user id.
var echoIdentity = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	_, _ = w.Write([]byte(id.UserID))
})

func TestAuthenticate(t *testing.T) {
	tokens := fakeTokens{
		"owner": {UserID: "u-owner", Role: auth.RoleOwner},
		"admin": {UserID: "u-admin", Role: auth.RoleAdmin},
		"staff": {UserID: "u-staff", Role: auth.RoleStaff},
	}
	approvals := fakeApprovals{approved: map[string]bool{"u-admin": true}}

	tests := []struct {
		name      string
		header    string
		approvals ApprovalChecker
		status    int
		body      string
	}{
		{"no header", "", approvals, http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic abc", approvals, http.StatusUnauthorized, ""},
		{"unknown token", "Bearer nope", approvals, http.StatusUnauthorized, ""},
		{"approved admin", "Bearer admin", approvals, http.StatusOK, "u-admin"},
		{"lowercase scheme", "bearer admin", approvals, http.StatusOK, "u-admin"},
		{"unapproved staff", "Bearer staff", approvals, http.StatusForbidden, ""},
		{"owner skips approval", "Bearer owner", fakeApprovals{}, http.StatusOK, "u-owner"},
		{"approval lookup fails", "Bearer admin", fakeApprovals{err: errors.New("down")}, http.StatusServiceUnavailable, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Authenticate(tokens, tt.approvals, true)(echoIdentity)
			req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
}

func TestAuthenticate_NotRequired(t *testing.T) {
	h := Authenticate(fakeTokens{}, nil, false)(echoIdentity)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, LocalIdentity.UserID, rec.Body.String())
}

func TestRequireRole(t *testing.T) {
	h := RequireRole(auth.RoleAdmin)(echoIdentity)

	tests := []struct {
		name   string
		id     *auth.Identity
		status int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"staff", &auth.Identity{UserID: "s", Role: auth.RoleStaff}, http.StatusForbidden},
		{"admin", &auth.Identity{UserID: "a", Role: auth.RoleAdmin}, http.StatusOK},
		{"owner", &auth.Identity{UserID: "o", Role: auth.RoleOwner}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if tt.id != nil {
				req = req.WithContext(auth.WithIdentity(req.Context(), *tt.id))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestTrustedRealIP(t *testing.T) {
	tests := []struct {
		name    string
		trusted []string
		remote  string
		headers map[string]string
		want    string
	}{
		{"untrusted peer keeps address", []string{"10.0.0.0/8"}, "203.0.113.7:5000",
			map[string]string{"X-Real-IP": "198.51.100.1"}, "203.0.113.7"},
		{"trusted peer uses X-Real-IP", []string{"10.0.0.0/8"}, "10.1.2.3:5000",
			map[string]string{"X-Real-IP": "198.51.100.1"}, "198.51.100.1"},
		{"trusted peer uses first forwarded hop", []string{"10.0.0.0/8"}, "10.1.2.3:5000",
			map[string]string{"X-Forwarded-For": "198.51.100.2, 10.1.2.3"}, "198.51.100.2"},
		{"bare trusted address", []string{"127.0.0.1"}, "127.0.0.1:5000",
			map[string]string{"X-Real-IP": "198.51.100.3"}, "198.51.100.3"},
		{"garbage header ignored", []string{"10.0.0.0/8"}, "10.1.2.3:5000",
			map[string]string{"X-Real-IP": "not-an-ip"}, "10.1.2.3"},
		{"no trusted proxies", nil, "10.1.2.3:5000",
			map[string]string{"X-Real-IP": "198.51.100.1"}, "10.1.2.3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var meta core.RequestMeta
			var remote string
			h := TrustedRealIP(tt.trusted)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				meta = core.RequestMetaFrom(r.Context())
				remote = r.RemoteAddr
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			req.Header.Set("User-Agent", "catalog-test")
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			require.Equal(t, tt.want, remote)
			assert.Equal(t, tt.want, meta.IPAddress)
			assert.Equal(t, "catalog-test", meta.UserAgent)
		})
	}
}
