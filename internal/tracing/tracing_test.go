package tracing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/ritu11x/cortex-ai/internal/config"
	"github.com/ritu11x/cortex-ai/internal/store"
	"github.com/ritu11x/cortex-ai/internal/testutil/fixtures"
)

type observed struct {
	op  string
	err error
}

type recordingObserver struct {
	calls []observed
}

func (r *recordingObserver) ObserveStore(op string, err error, _ time.Duration) {
	r.calls = append(r.calls, observed{op: op, err: err})
}

func newTracedFixture(t *testing.T) (*TracedStore, *tracetest.SpanRecorder, *recordingObserver) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	provider, err := NewProviderWithExporter(recorder, config.Tracing{Enabled: true, SampleRate: 1}, config.Test)
	require.NoError(t, err)
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	obs := &recordingObserver{}
	return NewTracedStore(store.NewMemoryStore(), provider.Tracer(), store.DriverMemory, obs), recorder, obs
}

func attrValue(attrs []attribute.KeyValue, key string) (attribute.Value, bool) {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTracedStore_RecordsSpans(t *testing.T) {
	s, recorder, obs := newTracedFixture(t)
	ctx := context.Background()

	created, err := s.Create(ctx, fixtures.NewItemBuilder().WithUserID("u1").Build())
	require.NoError(t, err)
	_, err = s.ListByUser(ctx, "u1")
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "store.create", spans[0].Name())
	assert.Equal(t, "store.list", spans[1].Name())

	id, ok := attrValue(spans[0].Attributes(), "item.id")
	require.True(t, ok)
	assert.Equal(t, created.ID, id.AsString())
	count, ok := attrValue(spans[1].Attributes(), "item.count")
	require.True(t, ok)
	assert.Equal(t, int64(1), count.AsInt64())
	system, _ := attrValue(spans[1].Attributes(), "db.system")
	assert.Equal(t, "memory", system.AsString())

	assert.Equal(t, []observed{{op: "create"}, {op: "list"}}, obs.calls)
}

func TestTracedStore_RecordsErrors(t *testing.T) {
	s, recorder, obs := newTracedFixture(t)

	err := s.Delete(context.Background(), "u1", "missing")
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.NotEmpty(t, spans[0].Events())
	require.Len(t, obs.calls, 1)
	assert.Error(t, obs.calls[0].err)
}

func TestNewProvider_DisabledIsNoop(t *testing.T) {
	p, err := NewProvider(context.Background(), config.Tracing{}, config.Development)

	require.NoError(t, err)
	_, span := p.Tracer().Start(context.Background(), "noop")
	assert.False(t, span.SpanContext().IsValid())
	span.End()
	assert.NoError(t, p.Shutdown(context.Background()))
}
