package handler

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/filecrate/filecrate/internal/project"
)

type ctxKey int

const projectCtxKey ctxKey = iota

// projectAuth resolves the Authorization header (bare key or prefixed
// "ApiKey <key>") to a project and stores it on the request context.
// Missing or unknown keys yield 403.
func (h *Handler) projectAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get("Authorization")
		if raw == "" {
			writeDetail(w, http.StatusForbidden, "Could not validate credentials")
			return
		}
		key := strings.TrimPrefix(raw, "ApiKey ")

		p, err := h.projects.Authenticate(r.Context(), key)
		if err != nil {
			writeDetail(w, http.StatusForbidden, "Invalid API Key")
			return
		}

		ctx := context.WithValue(r.Context(), projectCtxKey, p)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// adminAuth gates the administration surface behind a static shared
// secret presented in X-Admin-Secret.
func (h *Handler) adminAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		secret := r.Header.Get("X-Admin-Secret")
		if secret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(h.adminSecret)) != 1 {
			writeDetail(w, http.StatusUnauthorized, "Invalid Admin Secret")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// projectFrom returns the authenticated project stored by projectAuth.
func projectFrom(ctx context.Context) *project.Project {
	p, _ := ctx.Value(projectCtxKey).(*project.Project)
	return p
}
