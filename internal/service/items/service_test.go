package items

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ritu11x/cortex-ai/internal/domain"
	appErrors "github.com/ritu11x/cortex-ai/internal/errors"
	"github.com/ritu11x/cortex-ai/internal/llm"
	"github.com/ritu11x/cortex-ai/internal/observability"
	"github.com/ritu11x/cortex-ai/internal/report"
	"github.com/ritu11x/cortex-ai/internal/store"
	"github.com/ritu11x/cortex-ai/internal/testutil/fixtures"
)

type mockClassifier struct {
	mock.Mock
}

func (m *mockClassifier) Classify(ctx context.Context, in llm.Input) (llm.Classification, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(llm.Classification), args.Error(1)
}

func (m *mockClassifier) Fallback(llm.Input) llm.Classification {
	return llm.Classification{Tags: []string{}, Category: domain.CategoryOther}
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, events ...domain.Event) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

type sentNotification struct {
	Title string
	Type  domain.NotificationType
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (r *recordingNotifier) Notify(_ context.Context, _, title, _ string, typ domain.NotificationType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentNotification{Title: title, Type: typ})
}

func (r *recordingNotifier) titles() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.sent))
	for i, n := range r.sent {
		out[i] = n.Title
	}
	return out
}

type fixture struct {
	svc        *Service
	store      *store.MemoryStore
	classifier *mockClassifier
	publisher  *mockPublisher
	notifier   *recordingNotifier
	provider   *llm.MockProvider
	metrics    *observability.Collector
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:      store.NewMemoryStore(),
		classifier: &mockClassifier{},
		publisher:  &mockPublisher{},
		notifier:   &recordingNotifier{},
		provider:   llm.NewMockProvider(),
		metrics:    observability.NewCollector("test"),
	}
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil).Maybe()
	relay := llm.NewChatRelay(f.provider, llm.ChatConfig{}, nil)
	f.svc = NewService(f.store, f.classifier, relay, f.notifier, f.publisher, f.metrics,
		Config{DefaultUserName: "Cortex User"}, zaptest.NewLogger(t))
	return f
}

func (f *fixture) seed(t *testing.T, items ...domain.SavedItem) {
	t.Helper()
	for _, item := range items {
		_, err := f.store.Create(context.Background(), item)
		require.NoError(t, err)
	}
}

func publishedTypes(p *mockPublisher) []string {
	var out []string
	for _, call := range p.Calls {
		for _, e := range call.Arguments.Get(1).([]domain.Event) {
			out = append(out, e.Type)
		}
	}
	return out
}

func TestService_Save(t *testing.T) {
	ctx := context.Background()

	t.Run("Should persist the classified item", func(t *testing.T) {
		f := newFixture(t)
		f.classifier.On("Classify", mock.Anything, llm.Input{Content: "Goroutines are cheap"}).
			Return(llm.Classification{
				Summary:  "About goroutines.",
				Tags:     []string{"go", " go ", "concurrency", ""},
				Category: domain.CategoryTech,
				Title:    "Goroutines",
			}, nil).Once()

		item, err := f.svc.Save(ctx, SaveInput{UserID: "u1", Content: "  Goroutines are cheap "})

		require.NoError(t, err)
		assert.NotEmpty(t, item.ID)
		assert.Equal(t, "Goroutines", item.Title)
		assert.Equal(t, "Goroutines are cheap", item.Content)
		assert.Equal(t, domain.SourceNote, item.SourceType)
		assert.Equal(t, domain.CategoryTech, item.Category)
		assert.Equal(t, "About goroutines.", item.Summary)
		assert.Equal(t, []string{"go", "concurrency"}, item.Tags)

		stored, err := f.store.Get(ctx, "u1", item.ID)
		require.NoError(t, err)
		assert.Equal(t, item, stored)

		assert.Equal(t, []string{"Welcome to Cortex!", "Item saved!"}, f.notifier.titles())
		assert.Equal(t, []string{domain.EventItemSaved}, publishedTypes(f.publisher))
		assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ItemsSaved))
		assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Classification.WithLabelValues("ok")))
		f.classifier.AssertExpectations(t)
	})

	t.Run("Should keep the user title over the generated one", func(t *testing.T) {
		f := newFixture(t)
		f.classifier.On("Classify", mock.Anything, mock.Anything).
			Return(llm.Classification{Title: "Generated", Category: "TECH"}, nil)

		item, err := f.svc.Save(ctx, SaveInput{UserID: "u1", Title: "Mine", Content: "x"})

		require.NoError(t, err)
		assert.Equal(t, "Mine", item.Title)
		assert.Equal(t, domain.CategoryTech, item.Category)
	})

	t.Run("Should fall back when classification fails", func(t *testing.T) {
		f := newFixture(t)
		f.classifier.On("Classify", mock.Anything, mock.Anything).
			Return(llm.Classification{}, appErrors.External("CLASSIFIER_UNAVAILABLE", "down").Build())

		item, err := f.svc.Save(ctx, SaveInput{UserID: "u1", URL: "https://youtu.be/dQw4w9WgXcQ"})

		require.NoError(t, err)
		assert.Equal(t, domain.UntitledTitle, item.Title)
		assert.Equal(t, domain.CategoryOther, item.Category)
		assert.Equal(t, domain.SourceYouTube, item.SourceType)
		assert.Empty(t, item.Summary)
		assert.Equal(t, []string{}, item.Tags)
		assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Classification.WithLabelValues("fallback")))
	})

	t.Run("Should use an explicit type over the detected platform", func(t *testing.T) {
		f := newFixture(t)
		f.classifier.On("Classify", mock.Anything, mock.Anything).Return(llm.Classification{}, nil)

		item, err := f.svc.Save(ctx, SaveInput{UserID: "u1", URL: "https://x.com/a/status/1", Type: "text"})

		require.NoError(t, err)
		assert.Equal(t, domain.SourceNote, item.SourceType)
	})

	t.Run("Should announce a milestone", func(t *testing.T) {
		f := newFixture(t)
		for i := 0; i < 9; i++ {
			f.seed(t, fixtures.NewItemBuilder().WithUserID("u1").WithID(fmt.Sprintf("i%d", i)).Build())
		}
		f.classifier.On("Classify", mock.Anything, mock.Anything).Return(llm.Classification{}, nil)

		_, err := f.svc.Save(ctx, SaveInput{UserID: "u1", Title: "tenth"})

		require.NoError(t, err)
		assert.Equal(t, []string{"Item saved!", "Milestone reached"}, f.notifier.titles())
	})

	t.Run("Should ignore publish failures", func(t *testing.T) {
		f := newFixture(t)
		f.publisher = &mockPublisher{}
		f.publisher.On("Publish", mock.Anything, mock.Anything).Return(errors.New("bus down"))
		f.svc.publisher = f.publisher
		f.classifier.On("Classify", mock.Anything, mock.Anything).Return(llm.Classification{}, nil)

		_, err := f.svc.Save(ctx, SaveInput{UserID: "u1", Title: "t"})

		assert.NoError(t, err)
	})

	tests := []struct {
		name  string
		input SaveInput
		msg   string
	}{
		{"Should require a user", SaveInput{Content: "x"}, "user_id is required"},
		{"Should require something to save", SaveInput{UserID: "u1", Title: "  "}, "Nothing to save"},
		{"Should reject an invalid url", SaveInput{UserID: "u1", URL: "not a url"}, "Invalid URL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			_, err := f.svc.Save(ctx, tt.input)

			assert.True(t, appErrors.IsValidation(err))
			assert.Equal(t, tt.msg, appErrors.Message(err))
			f.classifier.AssertNotCalled(t, "Classify", mock.Anything, mock.Anything)
		})
	}
}

func TestService_Listing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t,
		fixtures.NewItemBuilder().WithUserID("u1").WithID("old-pinned").WithTitle("Budget").WithCategory(domain.CategoryFinance).DaysAgo(5).Pinned().Build(),
		fixtures.NewItemBuilder().WithUserID("u1").WithID("new").WithTitle("Go tips").WithCategory(domain.CategoryTech).DaysAgo(0).Build(),
		fixtures.NewItemBuilder().WithUserID("u1").WithID("mid").WithTitle("Trip").WithCategory(domain.CategoryTravel).WithTags("japan").DaysAgo(2).Build(),
	)

	ids := func(items []domain.SavedItem) []string {
		out := make([]string, len(items))
		for i, it := range items {
			out[i] = it.ID
		}
		return out
	}

	newest, err := f.svc.ListNewest(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"new", "mid", "old-pinned"}, ids(newest))

	display, err := f.svc.List(ctx, "u1", domain.Query{})
	require.NoError(t, err)
	assert.Equal(t, []string{"old-pinned", "new", "mid"}, ids(display))

	filtered, err := f.svc.List(ctx, "u1", domain.Query{Search: "JAPAN"})
	require.NoError(t, err)
	assert.Equal(t, []string{"mid"}, ids(filtered))

	byCategory, err := f.svc.List(ctx, "u1", domain.Query{Category: "tech"})
	require.NoError(t, err)
	assert.Equal(t, []string{"new"}, ids(byCategory))
}

func TestService_TogglePin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, fixtures.NewItemBuilder().WithUserID("u1").WithID("i1").Build())

	pinned, err := f.svc.TogglePin(ctx, "u1", "i1")
	require.NoError(t, err)
	assert.True(t, pinned.Pinned)

	unpinned, err := f.svc.TogglePin(ctx, "u1", "i1")
	require.NoError(t, err)
	assert.False(t, unpinned.Pinned)

	assert.Equal(t, []string{"Item pinned", "Item unpinned"}, f.notifier.titles())
	assert.Equal(t, []string{domain.EventItemPinned, domain.EventItemPinned}, publishedTypes(f.publisher))

	_, err = f.svc.TogglePin(ctx, "u1", "missing")
	assert.True(t, appErrors.IsNotFound(err))
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, fixtures.NewItemBuilder().WithUserID("u1").WithID("i1").Build())

	t.Run("Should apply the patch", func(t *testing.T) {
		title, category := "Renamed", "Health"

		item, err := f.svc.Update(ctx, "u1", "i1", domain.ItemPatch{Title: &title, Category: &category})

		require.NoError(t, err)
		assert.Equal(t, "Renamed", item.Title)
		assert.Equal(t, domain.CategoryHealth, item.Category)
		assert.Contains(t, f.notifier.titles(), "Item updated")
	})

	t.Run("Should reject an unknown category", func(t *testing.T) {
		category := "sports"

		_, err := f.svc.Update(ctx, "u1", "i1", domain.ItemPatch{Category: &category})

		assert.True(t, appErrors.IsValidation(err))
	})

	t.Run("Should report a missing item", func(t *testing.T) {
		title := "x"

		_, err := f.svc.Update(ctx, "u1", "missing", domain.ItemPatch{Title: &title})

		assert.True(t, appErrors.IsNotFound(err))
	})
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, fixtures.NewItemBuilder().WithUserID("u1").WithID("i1").Build())

	require.NoError(t, f.svc.Delete(ctx, "u1", "i1"))

	_, err := f.store.Get(ctx, "u1", "i1")
	assert.True(t, appErrors.IsNotFound(err))
	assert.Equal(t, []string{"Item deleted"}, f.notifier.titles())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ItemsDeleted))
	assert.True(t, appErrors.IsNotFound(f.svc.Delete(ctx, "u1", "i1")))
}

func TestService_Graph(t *testing.T) {
	f := newFixture(t)
	f.seed(t,
		fixtures.NewItemBuilder().WithUserID("u1").WithID("a").WithTags("go").Build(),
		fixtures.NewItemBuilder().WithUserID("u1").WithID("b").WithTags("go").Build(),
	)

	res, err := f.svc.Graph(context.Background(), "u1", true)

	require.NoError(t, err)
	require.Len(t, res.Graph.Nodes, 3)
	assert.True(t, res.Graph.Nodes[0].IsHub)
	require.NotNil(t, res.Graph.Nodes[0].FX)
	assert.Equal(t, 3, res.Stats.Nodes)
	assert.Equal(t, 1, res.Stats.TagEdges)
	assert.Equal(t, f.svc.cfg.Force, res.Force)

	plain, err := f.svc.Graph(context.Background(), "u1", false)

	require.NoError(t, err)
	hub := plain.Graph.Nodes[0]
	require.NotNil(t, hub.FX)
	require.NotNil(t, hub.FY)
	assert.Equal(t, f.svc.cfg.Force.Width/2, *hub.FX)
	assert.Equal(t, f.svc.cfg.Force.Height/2, *hub.FY)
	assert.Zero(t, plain.Graph.Nodes[1].X)
}

func TestService_Export(t *testing.T) {
	ctx := context.Background()

	t.Run("Should reject an empty collection", func(t *testing.T) {
		f := newFixture(t)
		var buf bytes.Buffer

		_, err := f.svc.Export(ctx, "u1", "", &buf)

		assert.ErrorIs(t, err, report.ErrNothingToExport)
		assert.Equal(t, "nothing to export", appErrors.Message(err))
		assert.Zero(t, buf.Len())
	})

	t.Run("Should render a PDF", func(t *testing.T) {
		f := newFixture(t)
		f.svc.now = func() time.Time { return time.Date(2025, 3, 20, 9, 0, 0, 0, time.UTC) }
		f.seed(t, fixtures.Items(3)...)
		var buf bytes.Buffer

		name, err := f.svc.Export(ctx, "test-user-123", "", &buf)

		require.NoError(t, err)
		assert.Equal(t, "cortex-export-2025-03-20.pdf", name)
		assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
		assert.Equal(t, []string{"Export complete"}, f.notifier.titles())
		assert.Equal(t, []string{domain.EventReportExported}, publishedTypes(f.publisher))
		assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ReportsExported))
	})
}

func TestService_ChatAndFeed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, fixtures.NewItemBuilder().WithUserID("u1").WithTitle("Sleep science").WithCategory(domain.CategoryHealth).Build())
	f.provider.Respond("You saved one health article.").Respond("1/ Sleep more")

	reply, err := f.svc.Chat(ctx, "u1", "what did I save?")
	require.NoError(t, err)
	assert.Equal(t, "You saved one health article.", reply)
	assert.Contains(t, f.provider.Calls()[0].System, "Title: Sleep science")

	feed, err := f.svc.Feed(ctx, "u1", "thread", []string{"health"})
	require.NoError(t, err)
	assert.Equal(t, "1/ Sleep more", feed.Reply)
	assert.Equal(t, 1, feed.ItemCount)

	_, err = f.svc.Ask(ctx, "hi", nil)
	assert.ErrorIs(t, err, llm.ErrChatInput)
}
