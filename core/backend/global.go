package backend

import (
	"net/http"

	"github.com/relabs-tech/modelrest/core/model"
)

// GlobalHandlers implements HandlerFactory
func (f factory) GlobalHandlers(models []*model.Descriptor) GlobalHandlerSet {
	b := f.Backend
	return GlobalHandlerSet{
		Schemas: func(w http.ResponseWriter, r *http.Request) {
			schemas := map[string]interface{}{}
			for _, d := range models {
				if d.Err() != nil || !b.policy.MayBeExposed(r, d) || !b.policy.MayBePromoted(d) {
					continue
				}
				schemas[d.RouteName()] = publicSchema(d)
			}
			writeJSON(w, r, http.StatusOK, schemas)
		},
		NoSuchModel: func(w http.ResponseWriter, r *http.Request) {
			writeError(w, r, http.StatusNotFound, "no such model")
		},
	}
}

// BrokenModelHandler implements HandlerFactory. The model failed validation at
// startup, so every request fails without touching the repository.
func (f factory) BrokenModelHandler(d *model.Descriptor) http.HandlerFunc {
	f.log.WithField("model", d.Name).WithError(d.Err()).Warnln("model is incomplete, all routes fail")
	message := "model " + d.Name + " is incomplete: " + d.Err().Error()
	return func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusInternalServerError, message)
	}
}
