package backend

import (
	"context"

	"github.com/relabs-tech/modelrest/core"
	"github.com/relabs-tech/modelrest/core/logger"
	"github.com/relabs-tech/modelrest/core/model"
)

// Request is a model request. Receive them with HandleModelRequest()
type Request struct {
	// Model for which this request is made
	Model string
	// Operation for this request
	Operation core.Operation
	// UUID is the record id, empty for create requests
	UUID string
	// Parameters are the query parameters from the request URL
	Parameters map[string]string
}

// Interceptor is an in-band request handler, see HandleModelRequest
type Interceptor func(ctx context.Context, request Request, rec *model.Record) error

// HandleModelRequest installs an in-band interceptor for a given model and a set of operations.
// If no operations are specified, the interceptor will be installed for the Read operation only.
//
// For create, update and replace the interceptor sees the record before it is saved and may
// change it. For delete it sees the loaded record before removal, for read the loaded record
// before it is returned. Any returned non-nil error aborts the operation with 400 (bad request).
//
// List and search requests cannot be intercepted.
func (b *Backend) HandleModelRequest(modelName string, interceptor Interceptor, operations ...core.Operation) {
	d, err := b.registry.Lookup(modelName)
	if err != nil {
		logger.Default().Fatalf("handle model request for %s: %s", modelName, err)
	}
	if len(operations) == 0 {
		operations = []core.Operation{core.OperationRead}
	}
	for _, operation := range operations {
		key := requestKey(d.RouteName(), operation)
		if _, ok := b.interceptors[key]; ok {
			logger.Default().Fatalf("model request handler for %s already installed", key)
		}
		logger.Default().Debugf("install model request handler for %s", key)
		b.interceptors[key] = interceptor
	}
}

func requestKey(routeName string, operation core.Operation) string {
	return routeName + "(" + string(operation) + ")"
}

func (b *Backend) intercept(ctx context.Context, d *model.Descriptor, operation core.Operation, parameters map[string]string, rec *model.Record) error {
	interceptor, ok := b.interceptors[requestKey(d.RouteName(), operation)]
	if !ok {
		return nil
	}
	return interceptor(ctx, Request{
		Model:      d.Name,
		Operation:  operation,
		UUID:       rec.UUID,
		Parameters: parameters,
	}, rec)
}

func (b *Backend) hasInterceptor(d *model.Descriptor, operation core.Operation) bool {
	_, ok := b.interceptors[requestKey(d.RouteName(), operation)]
	return ok
}
