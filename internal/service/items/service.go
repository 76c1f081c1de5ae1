// Package items implements the saved item use cases on top of the store,
// the classifier and the chat relay.
package items

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ritu11x/cortex-ai/internal/domain"
	appErrors "github.com/ritu11x/cortex-ai/internal/errors"
	"github.com/ritu11x/cortex-ai/internal/events"
	"github.com/ritu11x/cortex-ai/internal/fetcher"
	"github.com/ritu11x/cortex-ai/internal/graph"
	"github.com/ritu11x/cortex-ai/internal/llm"
	"github.com/ritu11x/cortex-ai/internal/observability"
	"github.com/ritu11x/cortex-ai/internal/report"
	"github.com/ritu11x/cortex-ai/internal/store"
)

// Classifier enriches content before it is stored.
type Classifier interface {
	Classify(ctx context.Context, in llm.Input) (llm.Classification, error)
	Fallback(in llm.Input) llm.Classification
}

// Assistant answers questions about a collection.
type Assistant interface {
	Reply(ctx context.Context, message string, items []llm.ChatItem) (string, error)
	ComposeFeed(ctx context.Context, format string, topics []string, items []llm.ChatItem) (llm.FeedResult, error)
}

// Notifier posts in-app notifications without failing the caller.
type Notifier interface {
	Notify(ctx context.Context, userID, title, message string, typ domain.NotificationType)
}

// Config holds the presentation settings of derived views.
type Config struct {
	ReportLayout    report.Layout
	Force           graph.ForceConfig
	DefaultUserName string
}

// DefaultConfig returns the A4 report layout and the tuned force settings.
func DefaultConfig() Config {
	return Config{
		ReportLayout: report.A4(),
		Force:        graph.DefaultForceConfig(),
	}
}

// Service runs the item use cases.
type Service struct {
	store      store.ItemStore
	classifier Classifier
	assistant  Assistant
	notifier   Notifier
	publisher  events.Publisher
	metrics    *observability.Collector
	cfg        Config
	logger     *zap.Logger
	now        func() time.Time
}

// NewService wires the items service. metrics may be nil.
func NewService(
	s store.ItemStore,
	classifier Classifier,
	assistant Assistant,
	notifier Notifier,
	publisher events.Publisher,
	metrics *observability.Collector,
	cfg Config,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	if cfg.ReportLayout == (report.Layout{}) {
		cfg.ReportLayout = report.A4()
	}
	if cfg.Force == (graph.ForceConfig{}) {
		cfg.Force = graph.DefaultForceConfig()
	}
	return &Service{
		store:      s,
		classifier: classifier,
		assistant:  assistant,
		notifier:   notifier,
		publisher:  publisher,
		metrics:    metrics,
		cfg:        cfg,
		logger:     logger.Named("items"),
		now:        time.Now,
	}
}

// SaveInput is a capture request.
type SaveInput struct {
	UserID  string
	Title   string
	Content string
	URL     string
	Type    string
}

var errNothingToSave = appErrors.Validation("NOTHING_TO_SAVE", "Nothing to save").Build()

// Save classifies and stores a new item. Classification failures fall
// back to an unenriched item; only validation and store failures are
// returned.
func (s *Service) Save(ctx context.Context, in SaveInput) (domain.SavedItem, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return domain.SavedItem{}, appErrors.Validation("USER_ID_REQUIRED", "user_id is required").Build()
	}
	in.Title, in.Content, in.URL = strings.TrimSpace(in.Title), strings.TrimSpace(in.Content), strings.TrimSpace(in.URL)
	if in.Title == "" && in.Content == "" && in.URL == "" {
		return domain.SavedItem{}, errNothingToSave
	}
	if in.URL != "" {
		if err := fetcher.ValidateURL(in.URL); err != nil {
			return domain.SavedItem{}, err
		}
	}

	source := domain.ParseSourceType(in.Type)
	if strings.TrimSpace(in.Type) == "" && in.URL != "" {
		source = fetcher.DetectPlatform(in.URL)
	}

	input := llm.Input{Title: in.Title, Content: in.Content, URL: in.URL}
	var (
		enrichment llm.Classification
		existing   []domain.SavedItem
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		enrichment = s.classify(gctx, input)
		return nil
	})
	g.Go(func() error {
		var err error
		existing, err = store.Snapshot(gctx, s.store, in.UserID)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.SavedItem{}, err
	}

	title := in.Title
	if title == "" {
		title = truncateRunes(strings.TrimSpace(enrichment.Title), domain.MaxTitleLength)
	}
	if title == "" {
		title = domain.UntitledTitle
	}

	item, err := s.store.Create(ctx, domain.SavedItem{
		UserID:     in.UserID,
		Title:      title,
		Content:    in.Content,
		URL:        in.URL,
		SourceType: source,
		Category:   domain.NormalizeCategory(string(enrichment.Category)),
		Summary:    enrichment.Summary,
		Tags:       cleanTags(enrichment.Tags),
	})
	if err != nil {
		return domain.SavedItem{}, err
	}

	if s.metrics != nil {
		s.metrics.ItemsSaved.Inc()
	}
	s.publish(ctx, domain.NewEvent(domain.EventItemSaved, item.UserID, item.ID).
		With("category", string(item.Category)).
		With("source_type", string(item.SourceType)))

	prev := len(existing)
	if prev == 0 {
		s.notify(ctx, item.UserID, "Welcome to Cortex!",
			"Start saving links from Instagram, YouTube or Twitter. AI will organize everything for you.", domain.NotifyAI)
	}
	s.notify(ctx, item.UserID, "Item saved!", "Your item has been saved and AI is organizing it.", domain.NotifySuccess)
	if m := domain.CheckMilestone(prev, prev+1); m > 0 {
		s.notify(ctx, item.UserID, "Milestone reached",
			fmt.Sprintf("You have saved %d items to your Cortex.", m), domain.NotifyAI)
	}

	s.logger.Info("item saved",
		zap.String("user_id", item.UserID),
		zap.String("item_id", item.ID),
		zap.String("category", string(item.Category)),
		zap.String("source_type", string(item.SourceType)))
	return item, nil
}

func (s *Service) classify(ctx context.Context, in llm.Input) llm.Classification {
	result, err := s.classifier.Classify(ctx, in)
	if err != nil {
		s.logger.Warn("classification failed, saving without enrichment", zap.Error(err))
		s.observeClassification("fallback")
		return s.classifier.Fallback(in)
	}
	s.observeClassification("ok")
	return result
}

func (s *Service) observeClassification(outcome string) {
	if s.metrics != nil {
		s.metrics.Classification.WithLabelValues(outcome).Inc()
	}
}

// ListNewest returns the user's items newest first, without pin ordering.
func (s *Service) ListNewest(ctx context.Context, userID string) ([]domain.SavedItem, error) {
	items, err := store.Snapshot(ctx, s.store, userID)
	if err != nil {
		return nil, err
	}
	domain.SortNewestFirst(items)
	return items, nil
}

// List returns the items matching q in display order.
func (s *Service) List(ctx context.Context, userID string, q domain.Query) ([]domain.SavedItem, error) {
	items, err := s.displayOrder(ctx, userID)
	if err != nil {
		return nil, err
	}
	return domain.Filter(items, q), nil
}

func (s *Service) displayOrder(ctx context.Context, userID string) ([]domain.SavedItem, error) {
	items, err := store.Snapshot(ctx, s.store, userID)
	if err != nil {
		return nil, err
	}
	domain.SortForDisplay(items)
	return items, nil
}

// Get returns one item.
func (s *Service) Get(ctx context.Context, userID, id string) (domain.SavedItem, error) {
	return s.store.Get(ctx, userID, id)
}

// Update applies a user edit.
func (s *Service) Update(ctx context.Context, userID, id string, patch domain.ItemPatch) (domain.SavedItem, error) {
	if err := patch.Validate(); err != nil {
		return domain.SavedItem{}, err
	}
	item, err := s.store.Update(ctx, userID, id, patch)
	if err != nil {
		return domain.SavedItem{}, err
	}
	s.publish(ctx, domain.NewEvent(domain.EventItemUpdated, userID, id))
	s.notify(ctx, userID, "Item updated", fmt.Sprintf("%q has been updated.", item.DisplayTitle()), domain.NotifySuccess)
	return item, nil
}

// TogglePin flips the pinned flag and returns the updated item.
func (s *Service) TogglePin(ctx context.Context, userID, id string) (domain.SavedItem, error) {
	current, err := s.store.Get(ctx, userID, id)
	if err != nil {
		return domain.SavedItem{}, err
	}
	item, err := s.store.SetPinned(ctx, userID, id, !current.Pinned)
	if err != nil {
		return domain.SavedItem{}, err
	}

	s.publish(ctx, domain.NewEvent(domain.EventItemPinned, userID, id).
		With("pinned", fmt.Sprint(item.Pinned)))
	if item.Pinned {
		s.notify(ctx, userID, "Item pinned", fmt.Sprintf("%q has been pinned to the top.", item.DisplayTitle()), domain.NotifySuccess)
	} else {
		s.notify(ctx, userID, "Item unpinned", fmt.Sprintf("%q has been unpinned.", item.DisplayTitle()), domain.NotifyInfo)
	}
	return item, nil
}

// Delete removes an item.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	item, err := s.store.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, userID, id); err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.ItemsDeleted.Inc()
	}
	s.publish(ctx, domain.NewEvent(domain.EventItemDeleted, userID, id))
	s.notify(ctx, userID, "Item deleted", fmt.Sprintf("%q was removed from your Cortex.", item.DisplayTitle()), domain.NotifyWarning)
	return nil
}

// GraphResult is the knowledge graph of a user with its layout contract.
type GraphResult struct {
	Graph graph.Graph
	Force graph.ForceConfig
	Stats graph.Stats
}

// Graph builds the user's knowledge graph. With layout set every node
// also gets seed coordinates.
func (s *Service) Graph(ctx context.Context, userID string, layout bool) (GraphResult, error) {
	items, err := store.Snapshot(ctx, s.store, userID)
	if err != nil {
		return GraphResult{}, err
	}
	g := graph.Build(items, graph.WithCanvas(s.cfg.Force.Width, s.cfg.Force.Height))
	if layout {
		g = graph.Layout(g, s.cfg.Force)
	}
	return GraphResult{Graph: g, Force: s.cfg.Force, Stats: g.Stats()}, nil
}

// Export renders the user's collection as a PDF into w and returns the
// download filename. Nothing is written when the collection is empty.
func (s *Service) Export(ctx context.Context, userID, userName string, w io.Writer) (string, error) {
	items, err := s.displayOrder(ctx, userID)
	if err != nil {
		return "", err
	}
	now := s.now()
	doc, err := report.Paginate(items, s.cfg.ReportLayout, now)
	if err != nil {
		return "", err
	}
	if userName == "" {
		userName = s.cfg.DefaultUserName
	}
	if err := report.Render(doc, w, report.RenderOptions{UserName: userName}); err != nil {
		return "", appErrors.Wrap(err, "Export", "failed to render report")
	}

	if s.metrics != nil {
		s.metrics.ReportsExported.Inc()
	}
	s.publish(ctx, domain.NewEvent(domain.EventReportExported, userID, "").
		With("items", fmt.Sprint(len(items))).
		With("pages", fmt.Sprint(doc.TotalPages)))
	s.notify(ctx, userID, "Export complete", fmt.Sprintf("%d items exported as PDF.", len(items)), domain.NotifySuccess)
	return report.Filename(now), nil
}

// Ask relays a question about the given items.
func (s *Service) Ask(ctx context.Context, message string, items []llm.ChatItem) (string, error) {
	return s.assistant.Reply(ctx, message, items)
}

// Chat answers a question about the user's stored collection.
func (s *Service) Chat(ctx context.Context, userID, message string) (string, error) {
	items, err := s.displayOrder(ctx, userID)
	if err != nil {
		return "", err
	}
	return s.assistant.Reply(ctx, message, llm.ChatItemsFrom(items))
}

// Feed composes shareable content from the user's collection.
func (s *Service) Feed(ctx context.Context, userID, format string, topics []string) (llm.FeedResult, error) {
	if strings.TrimSpace(userID) == "" {
		return llm.FeedResult{}, appErrors.Validation("USER_ID_REQUIRED", "user_id is required").Build()
	}
	items, err := s.displayOrder(ctx, userID)
	if err != nil {
		return llm.FeedResult{}, err
	}
	return s.assistant.ComposeFeed(ctx, format, topics, llm.ChatItemsFrom(items))
}

func (s *Service) publish(ctx context.Context, e domain.Event) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.Warn("failed to publish event",
			zap.String("type", e.Type),
			zap.String("user_id", e.UserID),
			zap.Error(err))
	}
}

func (s *Service) notify(ctx context.Context, userID, title, message string, typ domain.NotificationType) {
	if s.notifier != nil {
		s.notifier.Notify(ctx, userID, title, message, typ)
	}
}

func cleanTags(tags []string) []string {
	out := domain.CleanTags(tags, domain.MaxTags)
	for i, t := range out {
		out[i] = truncateRunes(t, domain.MaxTagLength)
	}
	return out
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
