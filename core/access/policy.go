package access

import (
	"net/http"
	"sync"

	"github.com/relabs-tech/modelrest/core"
	"github.com/relabs-tech/modelrest/core/model"
)

// ExposurePredicate decides per request whether a model may be exposed
type ExposurePredicate func(r *http.Request, d *model.Descriptor) bool

// Policy decides which models may be exposed to a request and which models
// are promoted in the aggregate schema listing.
//
// By default a model is exposed and promoted unless its options explicitly say
// otherwise. A predicate set for a model replaces the default exposure check.
type Policy struct {
	mutex      sync.RWMutex
	predicates map[string]ExposurePredicate
}

// NewPolicy returns a policy with default behaviour for all models
func NewPolicy() *Policy {
	return &Policy{predicates: map[string]ExposurePredicate{}}
}

// WithPredicate sets the exposure predicate for the named model and returns the policy
func (p *Policy) WithPredicate(modelName string, predicate ExposurePredicate) *Policy {
	p.mutex.Lock()
	p.predicates[core.RouteName(modelName)] = predicate
	p.mutex.Unlock()
	return p
}

// MayBeExposed returns true if the model may be exposed to the request
func (p *Policy) MayBeExposed(r *http.Request, d *model.Descriptor) bool {
	if p != nil {
		p.mutex.RLock()
		predicate, ok := p.predicates[d.RouteName()]
		p.mutex.RUnlock()
		if ok {
			return predicate(r, d)
		}
	}
	return d.Options.Exposed()
}

// MayBePromoted returns true if the model may be listed in the aggregate schema
func (p *Policy) MayBePromoted(d *model.Descriptor) bool {
	return d.Options.Promoted()
}

// RequireRole returns a predicate which exposes a model only to requests
// authorized with the given role
func RequireRole(role string) ExposurePredicate {
	return func(r *http.Request, d *model.Descriptor) bool {
		return AuthorizationFromContext(r.Context()).HasRole(role)
	}
}
