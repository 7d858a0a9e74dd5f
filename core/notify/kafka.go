package notify

import (
	"context"
	"time"

	"github.com/relabs-tech/modelrest/core"
	"github.com/relabs-tech/modelrest/core/logger"
	"github.com/segmentio/kafka-go"
)

// header names of published messages
const (
	HeaderModel     = "model"
	HeaderOperation = "operation"
	HeaderRequestID = "request-id"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes notifications to a kafka topic. The message key is the
// uuid of the record, so all changes of a record end up in the same partition.
//
// Delivery is asynchronous, failures are only logged.
type Kafka struct {
	writer messageWriter
}

// NewKafka returns a notifier writing to the given topic
func NewKafka(brokers []string, topic string) *Kafka {
	rlog := logger.ForComponent("kafka")
	return &Kafka{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			Async:                  true,
			BatchTimeout:           50 * time.Millisecond,
			AllowAutoTopicCreation: true,
			Completion: func(messages []kafka.Message, err error) {
				if err != nil {
					rlog.WithError(err).Errorf("cannot deliver %d notifications", len(messages))
				}
			},
		},
	}
}

// Notify implements core.Notifier
func (k *Kafka) Notify(ctx context.Context, model string, operation core.Operation, id string, payload []byte) {
	headers := []kafka.Header{
		{Key: HeaderModel, Value: []byte(model)},
		{Key: HeaderOperation, Value: []byte(operation)},
	}
	if requestID := logger.RequestIDFromContext(ctx); requestID != "" {
		headers = append(headers, kafka.Header{Key: HeaderRequestID, Value: []byte(requestID)})
	}
	err := k.writer.WriteMessages(context.WithoutCancel(ctx), kafka.Message{
		Key:     []byte(id),
		Value:   payload,
		Headers: headers,
	})
	if err != nil {
		logger.FromContext(ctx).WithError(err).Errorf("cannot notify %s %s of %s", operation, id, model)
	}
}

// Close flushes pending notifications and closes the writer
func (k *Kafka) Close() error {
	return k.writer.Close()
}
