package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/ritu11x/cortex-ai/internal/domain"
)

// MockProvider is a deterministic provider for tests and local development.
// Queued responses are returned first; after that classification prompts
// get a keyword based answer and everything else a canned reply.
type MockProvider struct {
	mu        sync.Mutex
	available bool
	queue     []mockResponse
	calls     []Request
}

type mockResponse struct {
	text string
	err  error
}

// NewMockProvider creates an available mock provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{available: true}
}

// IsAvailable returns whether the mock provider is available.
func (m *MockProvider) IsAvailable() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.available
}

// SetAvailable controls whether the mock provider is available.
func (m *MockProvider) SetAvailable(available bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.available = available
}

// Respond queues a successful reply.
func (m *MockProvider) Respond(text string) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, mockResponse{text: text})
	return m
}

// Fail queues an error.
func (m *MockProvider) Fail(err error) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, mockResponse{err: err})
	return m
}

// Calls returns the requests seen so far.
func (m *MockProvider) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.calls...)
}

// Complete records req and answers it.
func (m *MockProvider) Complete(ctx context.Context, req Request) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, req)
	if !m.available {
		return "", fmt.Errorf("mock provider is not available")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(m.queue) > 0 {
		next := m.queue[0]
		m.queue = m.queue[1:]
		return next.text, next.err
	}

	if strings.Contains(req.Prompt, classifyMarker) {
		return mockClassification(req.Prompt)
	}
	return fmt.Sprintf("Here is what I found in your saved items about %q.", firstLine(req.Prompt)), nil
}

var mockKeywords = []struct {
	category domain.Category
	words    []string
}{
	{domain.CategoryTech, []string{"code", "programming", "software", "api", "golang", "python", "javascript", "ai ", "machine learning"}},
	{domain.CategoryHealth, []string{"health", "sleep", "fitness", "workout", "diet", "meditation"}},
	{domain.CategoryFinance, []string{"finance", "money", "invest", "stock", "budget", "crypto"}},
	{domain.CategoryTravel, []string{"travel", "trip", "flight", "hotel", "visa", "beach"}},
}

// mockClassification guesses a category from keywords in the content line
// of a classification prompt.
func mockClassification(prompt string) (string, error) {
	content := ""
	for _, line := range strings.Split(prompt, "\n") {
		if strings.HasPrefix(line, "Content: ") {
			content = strings.TrimPrefix(line, "Content: ")
			break
		}
	}
	lower := strings.ToLower(content) + " "

	category := domain.CategoryOther
	var tags []string
	for _, kw := range mockKeywords {
		for _, w := range kw.words {
			if strings.Contains(lower, w) {
				if category == domain.CategoryOther {
					category = kw.category
				}
				tags = append(tags, strings.TrimSpace(w))
			}
		}
	}
	if len(tags) == 0 {
		tags = []string{"note"}
	}

	title := firstLine(content)
	if len([]rune(title)) > 40 {
		title = string([]rune(title)[:40])
	}

	out, err := json.Marshal(map[string]any{
		"summary":  "Saved content about " + title + ".",
		"tags":     tags,
		"category": category,
		"title":    title,
	})
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return s
}
