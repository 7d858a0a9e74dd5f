package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/relabs-tech/modelrest/core"
	"github.com/relabs-tech/modelrest/core/logger"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	f.messages = append(f.messages, msgs...)
	return f.err
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func header(m kafka.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestKafka_Notify(t *testing.T) {
	w := &fakeWriter{}
	k := &Kafka{writer: w}

	ctx, _ := logger.ContextWithLogger(context.Background())
	k.Notify(ctx, "mixed", core.OperationCreate, "some-uuid", []byte(`{"uuid":"some-uuid"}`))

	require.Len(t, w.messages, 1)
	m := w.messages[0]
	assert.Equal(t, "some-uuid", string(m.Key))
	assert.JSONEq(t, `{"uuid":"some-uuid"}`, string(m.Value))
	assert.Equal(t, "mixed", header(m, HeaderModel))
	assert.Equal(t, "create", header(m, HeaderOperation))
	assert.Equal(t, logger.RequestIDFromContext(ctx), header(m, HeaderRequestID))

	require.NoError(t, k.Close())
	assert.True(t, w.closed)
}

func TestKafka_NotifyFailureIsSwallowed(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	k := &Kafka{writer: w}
	k.Notify(context.Background(), "mixed", core.OperationDelete, "x", nil)
	assert.Len(t, w.messages, 1)
	assert.Empty(t, header(w.messages[0], HeaderRequestID))
}

type recorder struct {
	calls []string
}

func (r *recorder) Notify(ctx context.Context, model string, operation core.Operation, id string, payload []byte) {
	r.calls = append(r.calls, model+" "+string(operation)+" "+id)
}

func TestMulti(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	Multi{a, Log{}, b}.Notify(context.Background(), "mixed", core.OperationUpdate, "x", []byte("{}"))
	assert.Equal(t, []string{"mixed update x"}, a.calls)
	assert.Equal(t, []string{"mixed update x"}, b.calls)
}
