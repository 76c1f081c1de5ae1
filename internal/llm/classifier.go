package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ritu11x/cortex-ai/internal/domain"
	appErrors "github.com/ritu11x/cortex-ai/internal/errors"
)

// MaxClassifierTags caps the tags kept from a classification.
const MaxClassifierTags = 10

const classifyMarker = "Analyze this content and respond ONLY with valid JSON"

// ErrMalformedResponse marks classifier output that is not the expected
// JSON object.
var ErrMalformedResponse = errors.New("malformed classifier response")

// Input is the content to classify.
type Input struct {
	Title   string
	Content string
	URL     string
}

// Text is what gets sent for analysis: content, else url, else title.
func (in Input) Text() string {
	for _, s := range []string{in.Content, in.URL, in.Title} {
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// Classification is the enrichment produced for a saved item.
type Classification struct {
	Summary  string          `json:"summary"`
	Tags     []string        `json:"tags"`
	Category domain.Category `json:"category"`
	Title    string          `json:"title"`
}

// ClassifierConfig selects the model.
type ClassifierConfig struct {
	Model     string
	MaxTokens int
}

// Classifier asks the provider to summarise, tag and categorise content.
type Classifier struct {
	provider  Provider
	model     string
	maxTokens int
	logger    *zap.Logger
}

// NewClassifier creates a classifier. Zero config values use the defaults.
func NewClassifier(provider Provider, cfg ClassifierConfig, logger *zap.Logger) *Classifier {
	if cfg.Model == "" {
		cfg.Model = DefaultClassifierModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultClassifierMaxTokens
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{provider: provider, model: cfg.Model, maxTokens: cfg.MaxTokens, logger: logger}
}

// Classify enriches in. Provider failures and unusable output come back as
// External errors; callers decide whether to fall back.
func (c *Classifier) Classify(ctx context.Context, in Input) (Classification, error) {
	if c.provider == nil || !c.provider.IsAvailable() {
		return Classification{}, appErrors.External("CLASSIFIER_UNAVAILABLE", "classifier is not available").
			WithOperation("Classify").
			Build()
	}

	raw, err := c.provider.Complete(ctx, Request{
		Prompt:    buildClassifyPrompt(in),
		Model:     c.model,
		MaxTokens: c.maxTokens,
	})
	if err != nil {
		return Classification{}, appErrors.External("CLASSIFIER_UNAVAILABLE", err.Error()).
			WithOperation("Classify").
			WithCause(err).
			Build()
	}

	result, err := ParseClassification(raw)
	if err != nil {
		c.logger.Warn("classifier returned unusable output",
			zap.String("model", c.model),
			zap.Int("length", len(raw)),
			zap.Error(err))
		return Classification{}, appErrors.External("CLASSIFIER_MALFORMED", "classifier returned malformed output").
			WithOperation("Classify").
			WithCause(err).
			Build()
	}
	return result, nil
}

// Fallback is the classification used when enrichment fails.
func (c *Classifier) Fallback(Input) Classification {
	return Classification{Tags: []string{}, Category: domain.CategoryOther}
}

func buildClassifyPrompt(in Input) string {
	title := in.Title
	if strings.TrimSpace(title) == "" {
		title = "none"
	}
	return fmt.Sprintf(`%s, no extra text:
{
  "summary": "2 sentence summary of the content",
  "tags": ["tag1", "tag2", "tag3"],
  "category": "one of: tech, health, finance, travel, other",
  "title": "short title if none provided"
}

Content: %s
Title: %s`, classifyMarker, in.Text(), title)
}

// ParseClassification validates raw model output. Code fences and text
// around the first JSON object are ignored.
func ParseClassification(raw string) (Classification, error) {
	body := stripFences(raw)
	start := strings.IndexByte(body, '{')
	if start < 0 {
		return Classification{}, fmt.Errorf("%w: no JSON object", ErrMalformedResponse)
	}

	var fields struct {
		Summary  json.RawMessage `json:"summary"`
		Tags     json.RawMessage `json:"tags"`
		Category json.RawMessage `json:"category"`
		Title    json.RawMessage `json:"title"`
	}
	dec := json.NewDecoder(strings.NewReader(body[start:]))
	if err := dec.Decode(&fields); err != nil {
		return Classification{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	var out Classification
	var err error
	if out.Summary, err = optionalString(fields.Summary, "summary"); err != nil {
		return Classification{}, err
	}
	if out.Title, err = optionalString(fields.Title, "title"); err != nil {
		return Classification{}, err
	}
	category, err := optionalString(fields.Category, "category")
	if err != nil {
		return Classification{}, err
	}
	out.Category = domain.NormalizeCategory(category)

	out.Tags = []string{}
	if isPresent(fields.Tags) {
		var rawTags []any
		if err := json.Unmarshal(fields.Tags, &rawTags); err != nil {
			return Classification{}, fmt.Errorf("%w: tags must be an array", ErrMalformedResponse)
		}
		tags := make([]string, 0, len(rawTags))
		for _, t := range rawTags {
			if s, ok := t.(string); ok {
				tags = append(tags, s)
			}
		}
		out.Tags = domain.CleanTags(tags, MaxClassifierTags)
	}

	out.Summary = strings.TrimSpace(out.Summary)
	out.Title = strings.TrimSpace(out.Title)
	return out, nil
}

func isPresent(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}

func optionalString(raw json.RawMessage, field string) (string, error) {
	if !isPresent(raw) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("%w: %s must be a string", ErrMalformedResponse, field)
	}
	return s, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}
