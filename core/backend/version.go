package backend

import (
	"net/http"

	"github.com/gorilla/mux"
)

var (
	// Version is the version of the curent build
	Version = "unset"
)

func (b *Backend) handleVersion(router *mux.Router) {
	b.log.Debugln("  handle version route: /version GET")
	router.Handle("/version", b.wrap(Route{Handler: "version"}, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusOK, map[string]string{"version": Version})
	})).Methods(http.MethodGet)
}
