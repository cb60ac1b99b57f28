package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/briangreenhill/occapi/internal/providers"
)

type contextKey string

const ProviderKey contextKey = "provider"

// ProviderResolver returns the usable provider registered under id
type ProviderResolver func(id string) (providers.Provider, error)

// RequireProvider loads the provider named by the {provider} URL parameter
// into the request context. Unknown or disabled providers get a 404.
func RequireProvider(resolve ProviderResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := resolve(chi.URLParam(r, "provider"))
			if err != nil {
				writeError(w, http.StatusNotFound, err.Error())
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ProviderKey, p)))
		})
	}
}

// ProviderFrom returns the provider RequireProvider stored in ctx
func ProviderFrom(ctx context.Context) (providers.Provider, bool) {
	p, ok := ctx.Value(ProviderKey).(providers.Provider)
	return p, ok
}

// writeError sends msg as a JSON {"error": msg} body
func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
