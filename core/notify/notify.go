// Package notify publishes record changes.
package notify

import (
	"context"

	"github.com/relabs-tech/modelrest/core"
	"github.com/relabs-tech/modelrest/core/logger"
)

// Log is a notifier which writes every notification to the log
type Log struct{}

// Notify implements core.Notifier
func (Log) Notify(ctx context.Context, model string, operation core.Operation, id string, payload []byte) {
	logger.FromContext(ctx).WithField("model", model).Infof("%s %s: %s", operation, id, payload)
}

// Multi forwards notifications to several notifiers
type Multi []core.Notifier

// Notify implements core.Notifier
func (m Multi) Notify(ctx context.Context, model string, operation core.Operation, id string, payload []byte) {
	for _, n := range m {
		n.Notify(ctx, model, operation, id, payload)
	}
}
