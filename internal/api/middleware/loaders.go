package middleware

import (
	"net/http"

	"github.com/zatekoja/clinicdesk/backend/internal/application/loaders"
)

// LoadersMiddleware attaches fresh dataloaders to every request so that
// repeated references within one request resolve once.
func LoadersMiddleware(resolver loaders.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := loaders.WithLoaders(r.Context(), loaders.NewLoaders(resolver))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
