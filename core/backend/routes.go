package backend

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/relabs-tech/modelrest/core/model"
)

// Route is one entry of the route table
type Route struct {
	Method string `json:"method"`
	// Path is a gorilla/mux path template, e.g. /api/mixed/{uuid}
	Path string `json:"path"`
	// Handler is the name of the handler, e.g. "list"
	Handler string `json:"handler"`
	// Model is the model the route belongs to, nil for global routes
	Model *model.Descriptor `json:"-"`

	handler http.HandlerFunc
}

// String returns a one line description of the route
func (r Route) String() string {
	s := fmt.Sprintf("%-7s %s -> %s", r.Method, r.Path, r.Handler)
	if r.Model != nil {
		s += " (" + r.Model.Name + ")"
	}
	return s
}

// RouteTable is the ordered list of all routes of a backend
type RouteTable []Route

// HandlerSet holds the handlers of one model
type HandlerSet struct {
	Schema     http.HandlerFunc
	Items      http.HandlerFunc
	Fetch      http.HandlerFunc
	Check      http.HandlerFunc
	Exists     http.HandlerFunc
	Create     http.HandlerFunc
	Modify     http.HandlerFunc
	Replace    http.HandlerFunc
	Remove     http.HandlerFunc
	NotAllowed http.HandlerFunc
}

// GlobalHandlerSet holds the handlers which are not bound to a model
type GlobalHandlerSet struct {
	Schemas     http.HandlerFunc
	NoSuchModel http.HandlerFunc
}

// HandlerFactory creates the handlers for the route table
type HandlerFactory interface {
	// ModelHandlers returns the handlers of a valid model
	ModelHandlers(d *model.Descriptor) HandlerSet
	// BrokenModelHandler returns the handler used for every route of a model
	// which failed validation
	BrokenModelHandler(d *model.Descriptor) http.HandlerFunc
	// GlobalHandlers returns the handlers which are not bound to a model
	GlobalHandlers(models []*model.Descriptor) GlobalHandlerSet
}

// NormalizePrefix returns prefix with a leading and without a trailing slash.
// The root prefix is the empty string.
func NormalizePrefix(prefix string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return ""
	}
	return "/" + prefix
}

// Build creates the route table for the given models.
//
// For every model the literal routes (.schema and the convenience aliases) come before the
// {uuid} routes of the same model. The global {model} routes come last. A router installing
// the routes in table order must try them in that order.
//
// A model which failed validation gets the broken model handler on every route.
func Build(urlPrefix string, models []*model.Descriptor, convenience bool, factory HandlerFactory) (RouteTable, error) {
	prefix := NormalizePrefix(urlPrefix)
	var table RouteTable
	add := func(method, path, name string, d *model.Descriptor, h http.HandlerFunc) {
		table = append(table, Route{Method: method, Path: path, Handler: name, Model: d, handler: h})
	}

	global := factory.GlobalHandlers(models)
	add(http.MethodGet, prefix+"/.schema", "schemas", nil, global.Schemas)

	for _, d := range models {
		hs := HandlerSet{}
		if d.Err() != nil {
			broken := factory.BrokenModelHandler(d)
			hs = HandlerSet{broken, broken, broken, broken, broken, broken, broken, broken, broken, broken}
		} else {
			hs = factory.ModelHandlers(d)
		}

		modelURL := prefix + "/" + d.RouteName()
		itemURL := modelURL + "/{uuid}"

		add(http.MethodGet, modelURL+"/.schema", "schema", d, hs.Schema)
		if convenience {
			add(http.MethodGet, modelURL+"/create", "create", d, hs.Create)
			add(http.MethodGet, modelURL+"/write/{uuid}", "modify", d, hs.Modify)
			add(http.MethodGet, modelURL+"/replace/{uuid}", "replace", d, hs.Replace)
			add(http.MethodGet, modelURL+"/has/{uuid}", "check", d, hs.Check)
			add(http.MethodGet, modelURL+"/remove/{uuid}", "remove", d, hs.Remove)
		}

		add(http.MethodGet, modelURL, "items", d, hs.Items)
		add(http.MethodHead, modelURL, "exists", d, hs.Exists)
		add(http.MethodPost, modelURL, "create", d, hs.Create)
		add(http.MethodPut, modelURL, "not-allowed", d, hs.NotAllowed)
		add(http.MethodPatch, modelURL, "not-allowed", d, hs.NotAllowed)
		add(http.MethodDelete, modelURL, "not-allowed", d, hs.NotAllowed)

		add(http.MethodGet, itemURL, "fetch", d, hs.Fetch)
		add(http.MethodHead, itemURL, "check", d, hs.Check)
		add(http.MethodPost, itemURL, "not-allowed", d, hs.NotAllowed)
		add(http.MethodPut, itemURL, "replace", d, hs.Replace)
		add(http.MethodPatch, itemURL, "modify", d, hs.Modify)
		add(http.MethodDelete, itemURL, "remove", d, hs.Remove)
	}

	add(http.MethodHead, prefix+"/{model}", "no-such-model", nil, global.NoSuchModel)
	add(http.MethodDelete, prefix+"/{model}", "no-such-model", nil, global.NoSuchModel)

	seen := map[string]bool{}
	for _, route := range table {
		key := route.Method + " " + route.Path
		if seen[key] {
			return nil, fmt.Errorf("route %s is defined twice", key)
		}
		seen[key] = true
		if route.handler == nil {
			return nil, fmt.Errorf("route %s has no handler", key)
		}
	}
	return table, nil
}
