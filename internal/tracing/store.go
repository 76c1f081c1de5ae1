package tracing

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ritu11x/cortex-ai/internal/domain"
	"github.com/ritu11x/cortex-ai/internal/store"
)

// Observer receives the outcome of each store call, typically the
// Prometheus collector.
type Observer interface {
	ObserveStore(operation string, err error, d time.Duration)
}

// TracedStore wraps a store.Store with one span per call.
type TracedStore struct {
	inner    store.Store
	tracer   trace.Tracer
	driver   string
	observer Observer
}

// NewTracedStore wraps inner. observer may be nil.
func NewTracedStore(inner store.Store, tracer trace.Tracer, driver string, observer Observer) *TracedStore {
	return &TracedStore{inner: inner, tracer: tracer, driver: driver, observer: observer}
}

func (s *TracedStore) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span, time.Time) {
	attrs = append(attrs, attribute.String("db.system", s.driver))
	ctx, span := s.tracer.Start(ctx, "store."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...))
	return ctx, span, time.Now()
}

func (s *TracedStore) end(span trace.Span, op string, started time.Time, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
	if s.observer != nil {
		s.observer.ObserveStore(op, err, time.Since(started))
	}
}

func userAttr(userID string) attribute.KeyValue { return attribute.String("user.id", userID) }

func itemAttr(id string) attribute.KeyValue { return attribute.String("item.id", id) }

func (s *TracedStore) Create(ctx context.Context, item domain.SavedItem) (domain.SavedItem, error) {
	ctx, span, started := s.start(ctx, "create", userAttr(item.UserID))
	out, err := s.inner.Create(ctx, item)
	span.SetAttributes(itemAttr(out.ID))
	s.end(span, "create", started, err)
	return out, err
}

func (s *TracedStore) Get(ctx context.Context, userID, id string) (domain.SavedItem, error) {
	ctx, span, started := s.start(ctx, "get", userAttr(userID), itemAttr(id))
	out, err := s.inner.Get(ctx, userID, id)
	s.end(span, "get", started, err)
	return out, err
}

func (s *TracedStore) ListByUser(ctx context.Context, userID string) ([]domain.SavedItem, error) {
	ctx, span, started := s.start(ctx, "list", userAttr(userID))
	out, err := s.inner.ListByUser(ctx, userID)
	span.SetAttributes(attribute.Int("item.count", len(out)))
	s.end(span, "list", started, err)
	return out, err
}

func (s *TracedStore) Update(ctx context.Context, userID, id string, patch domain.ItemPatch) (domain.SavedItem, error) {
	ctx, span, started := s.start(ctx, "update", userAttr(userID), itemAttr(id))
	out, err := s.inner.Update(ctx, userID, id, patch)
	s.end(span, "update", started, err)
	return out, err
}

func (s *TracedStore) SetPinned(ctx context.Context, userID, id string, pinned bool) (domain.SavedItem, error) {
	ctx, span, started := s.start(ctx, "set_pinned", userAttr(userID), itemAttr(id), attribute.Bool("item.pinned", pinned))
	out, err := s.inner.SetPinned(ctx, userID, id, pinned)
	s.end(span, "set_pinned", started, err)
	return out, err
}

func (s *TracedStore) Delete(ctx context.Context, userID, id string) error {
	ctx, span, started := s.start(ctx, "delete", userAttr(userID), itemAttr(id))
	err := s.inner.Delete(ctx, userID, id)
	s.end(span, "delete", started, err)
	return err
}

func (s *TracedStore) AddNotification(ctx context.Context, n domain.Notification) (domain.Notification, error) {
	ctx, span, started := s.start(ctx, "add_notification", userAttr(n.UserID))
	out, err := s.inner.AddNotification(ctx, n)
	s.end(span, "add_notification", started, err)
	return out, err
}

func (s *TracedStore) ListNotifications(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	ctx, span, started := s.start(ctx, "list_notifications", userAttr(userID))
	out, err := s.inner.ListNotifications(ctx, userID, limit)
	s.end(span, "list_notifications", started, err)
	return out, err
}

func (s *TracedStore) MarkRead(ctx context.Context, userID, id string) error {
	ctx, span, started := s.start(ctx, "mark_read", userAttr(userID))
	err := s.inner.MarkRead(ctx, userID, id)
	s.end(span, "mark_read", started, err)
	return err
}

func (s *TracedStore) MarkAllRead(ctx context.Context, userID string) error {
	ctx, span, started := s.start(ctx, "mark_all_read", userAttr(userID))
	err := s.inner.MarkAllRead(ctx, userID)
	s.end(span, "mark_all_read", started, err)
	return err
}

func (s *TracedStore) DeleteNotification(ctx context.Context, userID, id string) error {
	ctx, span, started := s.start(ctx, "delete_notification", userAttr(userID))
	err := s.inner.DeleteNotification(ctx, userID, id)
	s.end(span, "delete_notification", started, err)
	return err
}

func (s *TracedStore) ClearNotifications(ctx context.Context, userID string) error {
	ctx, span, started := s.start(ctx, "clear_notifications", userAttr(userID))
	err := s.inner.ClearNotifications(ctx, userID)
	s.end(span, "clear_notifications", started, err)
	return err
}

func (s *TracedStore) Ping(ctx context.Context) error {
	return s.inner.Ping(ctx)
}

func (s *TracedStore) Close() error {
	return s.inner.Close()
}
