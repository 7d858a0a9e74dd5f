package backend

import (
	"fmt"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/relabs-tech/modelrest/core"
	"github.com/relabs-tech/modelrest/core/access"
	"github.com/relabs-tech/modelrest/core/logger"
	"github.com/relabs-tech/modelrest/core/model"
	"github.com/relabs-tech/modelrest/core/repository"
	"github.com/sirupsen/logrus"
)

// Backend is the generic model rest backend
type Backend struct {
	config       Configuration
	registry     *model.Registry
	repository   repository.Repository
	policy       *access.Policy
	notifier     core.Notifier
	router       *mux.Router
	routes       RouteTable
	interceptors map[string]Interceptor
	log          *logrus.Entry
}

// Builder is a builder helper for the Backend
type Builder struct {
	// Config is the JSON backend configuration, see Configuration. This is optional,
	// without it the defaults apply.
	Config string
	// Registry holds model descriptors. Models from Config are added to it. This is optional.
	Registry *model.Registry
	// Repository stores the records. This is optional, the default is an in-memory repository.
	Repository repository.Repository
	// Router is a mux router. This is mandatory.
	Router *mux.Router
	// Policy decides which models are exposed. This is optional.
	Policy *access.Policy
	// Notifier receives notifications for all modifying operations. This is optional.
	Notifier core.Notifier
	// Backdoors map static bearer tokens to authorizations. This is optional.
	Backdoors map[string]access.Authorization
}

// New realizes the actual backend. It adds the generated routes to the router.
// Invalid configurations panic, use Build for an error instead.
func New(bb *Builder) *Backend {
	b, err := NewWithError(bb)
	if err != nil {
		panic(err)
	}
	return b
}

// NewWithError is like New but returns configuration errors
func NewWithError(bb *Builder) (*Backend, error) {
	config, err := ParseConfiguration(bb.Config)
	if err != nil {
		return nil, fmt.Errorf("parse error in backend configuration: %w", err)
	}
	switch config.CORS {
	case access.CORSCommon, access.CORSModel, access.CORSNone:
	default:
		return nil, fmt.Errorf("unknown cors mode %q", config.CORS)
	}
	if bb.Router == nil {
		return nil, fmt.Errorf("router is missing")
	}

	b := &Backend{
		config:       config,
		registry:     bb.Registry,
		repository:   bb.Repository,
		policy:       bb.Policy,
		notifier:     bb.Notifier,
		router:       bb.Router,
		interceptors: map[string]Interceptor{},
		log:          logger.ForComponent("backend"),
	}
	if b.registry == nil {
		b.registry = model.NewRegistry()
	}
	if len(config.Models) > 0 {
		if err := b.registry.LoadJSON(config.Models); err != nil {
			return nil, err
		}
	}
	if b.repository == nil {
		b.repository = repository.NewMemory()
	}
	if b.policy == nil {
		b.policy = access.NewPolicy()
	}

	b.routes, err = Build(config.URLPrefix, b.registry.Models(), config.Convenience, factory{b})
	if err != nil {
		return nil, err
	}

	if len(bb.Backdoors) > 0 {
		b.router.Use(access.NewBackdoorMiddleware(bb.Backdoors))
	}
	b.handleVersion(b.router)
	b.install()
	return b, nil
}

// Routes returns the generated route table
func (b *Backend) Routes() RouteTable {
	return b.routes
}

// Registry returns the model registry of the backend
func (b *Backend) Registry() *model.Registry {
	return b.registry
}

// Policy returns the access policy of the backend
func (b *Backend) Policy() *access.Policy {
	return b.policy
}

// install adds the route table to the router in table order, followed by a
// fallback for everything else under the prefix.
func (b *Backend) install() {
	prefix := NormalizePrefix(b.config.URLPrefix)
	b.log.Infof("%d models, %d routes under prefix %q", len(b.registry.Models()), len(b.routes), prefix)

	var installed []*mux.Route
	for _, route := range b.routes {
		b.log.Debugln("  handle route:", route.Path, route.Method)
		r := b.router.Handle(route.Path, b.wrap(route, route.handler)).Methods(route.Method)
		installed = append(installed, r)
	}

	fallback := b.wrap(Route{Handler: "fallback"}, b.fallback(installed))
	if prefix != "" {
		b.router.Handle(prefix, fallback)
	}
	b.router.PathPrefix(prefix + "/").Handler(fallback)
}

// wrap adds logging, CORS, compression and panic recovery to a route handler
func (b *Backend) wrap(route Route, h http.HandlerFunc) http.Handler {
	var handler http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.FromContext(r.Context()).Infoln("called route for", r.URL, r.Method)
		h(w, r)
	})
	switch b.config.CORS {
	case access.CORSCommon:
		handler = access.CommonFilter(handler)
	case access.CORSModel:
		if route.Model != nil {
			handler = b.policy.ModelFilter(route.Model)(handler)
		}
	}
	handler = compress(handler)
	handler = handlers.RecoveryHandler(
		handlers.RecoveryLogger(b.log),
		handlers.PrintRecoveryStack(true),
	)(handler)
	return logger.RequestID(handler)
}

// fallback answers requests under the prefix which match no route. If the path
// matches a model route for another method, the status is 405, otherwise 404.
func (b *Backend) fallback(installed []*mux.Route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for i, route := range installed {
			if b.routes[i].Handler == "no-such-model" {
				continue
			}
			probe := r.Clone(r.Context())
			probe.Method = b.routes[i].Method
			if route.Match(probe, &mux.RouteMatch{}) {
				writeError(w, r, http.StatusMethodNotAllowed, "unsupported request")
				return
			}
		}
		writeError(w, r, http.StatusNotFound, "unsupported request")
	}
}
