package access

import (
	"net/http"

	"github.com/relabs-tech/modelrest/core/logger"
	"github.com/relabs-tech/modelrest/core/model"
)

// CORS modes of a backend
const (
	CORSCommon = "common"
	CORSModel  = "model"
	CORSNone   = "none"
)

func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, GET, HEAD, OPTIONS, PUT, DELETE, PATCH")
	w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Count, X-List-As-Array")
	w.Header().Set("Access-Control-Expose-Headers", "X-Count")
	w.Header().Set("Access-Control-Max-Age", "86400") // 24 hours
}

// CommonFilter is a middleware which allows cross-origin requests from any origin
// on every request it sees and answers preflight requests itself.
func CommonFilter(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)

		// Handle preflight OPTIONS request
		if r.Method == http.MethodOptions {
			logger.FromContext(r.Context()).Debugln("called route for", r.URL, r.Method, " (handled by CORS middleware)")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.ServeHTTP(w, r)
	})
}

// ModelFilter returns a middleware which allows cross-origin requests only if
// the model may be exposed to the request.
func (p *Policy) ModelFilter(d *model.Descriptor) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p.MayBeExposed(r, d) {
				setCORSHeaders(w)
			}
			h.ServeHTTP(w, r)
		})
	}
}
