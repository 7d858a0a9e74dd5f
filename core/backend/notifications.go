package backend

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/relabs-tech/modelrest/core"
	"github.com/relabs-tech/modelrest/core/logger"
	"github.com/relabs-tech/modelrest/core/model"
)

// notify tells the notifier about a completed modification. Failures are logged only,
// the response to the client is not affected.
func (b *Backend) notify(ctx context.Context, d *model.Descriptor, operation core.Operation, id string, body interface{}) {
	if b.notifier == nil {
		return
	}
	rlog := logger.ForModel(ctx, d.Name)
	payload, err := json.Marshal(body)
	if err != nil {
		rlog.WithError(err).Errorf("cannot marshal %s notification for %s", operation, id)
		return
	}
	err = callWithPanicEnvelope(func() {
		b.notifier.Notify(ctx, d.RouteName(), operation, id, payload)
	})
	if err != nil {
		rlog.WithError(err).Errorf("%s notification for %s failed", operation, id)
	}
}

func callWithPanicEnvelope(callback func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("recovered from panic: %s", r)
		}
	}()
	callback()
	return
}
