package access

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/relabs-tech/modelrest/core/logger"
)

// NewBackdoorMiddleware returns a middleware handler for static bearer tokens.
//
// The key for the backdoors map is the bearer token passed with the request.
//
// Example: if you specify the backdoor
//   "please": Authorization{Roles:[]string{"admin"}}
// then any request with an authorization bearer token consisting of the single
// magic word "please" will be authorized with the admin role.
//
// With curl, use -H 'Authorization: Bearer please'
//
// Requests without a known token pass unauthorized.
func NewBackdoorMiddleware(backdoors map[string]Authorization) mux.MiddlewareFunc {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if AuthorizationFromContext(r.Context()) != nil { // already authorized?
				h.ServeHTTP(w, r)
				return
			}
			bearer := r.Header.Get("Authorization")
			if len(bearer) < 8 || strings.ToLower(bearer[:7]) != "bearer " {
				h.ServeHTTP(w, r)
				return
			}
			backdoor, ok := backdoors[bearer[7:]]
			if !ok {
				h.ServeHTTP(w, r)
				return
			}
			auth := backdoor
			ctx := auth.ContextWithAuthorization(r.Context())
			if auth.Identity != "" {
				ctx, _ = logger.ContextWithLoggerIdentity(ctx, auth.Identity)
			}
			h.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
