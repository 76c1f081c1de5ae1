// Package fetcher reads link preview metadata (title, description, image)
// from web pages.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/ritu11x/cortex-ai/internal/domain"
	appErrors "github.com/ritu11x/cortex-ai/internal/errors"
)

// Request defaults.
const (
	DefaultTimeout      = 8 * time.Second
	DefaultMaxRedirects = 5
	DefaultMaxBodyBytes = 2 << 20
	DefaultUserAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	acceptHeader   = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	acceptLanguage = "en-US,en;q=0.5"

	maxTitleRunes       = 200
	maxDescriptionRunes = 500
)

// FallbackMessage is shown when a page could not be read.
const FallbackMessage = "Could not fetch page info - please fill manually"

var (
	// ErrURLRequired is returned for an empty URL.
	ErrURLRequired error = appErrors.Validation("URL_REQUIRED", "URL is required").Build()
	// ErrInvalidURL is returned for anything that is not an absolute http(s) URL.
	ErrInvalidURL error = appErrors.Validation("INVALID_URL", "Invalid URL").Build()
)

// Metadata is the preview of a page.
type Metadata struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Image       string            `json:"image"`
	SiteName    string            `json:"site_name"`
	SourceType  domain.SourceType `json:"source_type"`
	URL         string            `json:"url"`
	Error       string            `json:"error,omitempty"`
}

// Config tunes outbound requests.
type Config struct {
	Timeout      time.Duration
	MaxRedirects int
	MaxBodyBytes int64
	UserAgent    string

	BreakerMaxRequests uint32
	BreakerInterval    time.Duration
	BreakerTimeout     time.Duration
	BreakerMinRequests uint32
	BreakerFailureRate float64
}

// DefaultConfig returns the standard fetch settings.
func DefaultConfig() Config {
	return Config{
		Timeout:            DefaultTimeout,
		MaxRedirects:       DefaultMaxRedirects,
		MaxBodyBytes:       DefaultMaxBodyBytes,
		UserAgent:          DefaultUserAgent,
		BreakerMaxRequests: 3,
		BreakerInterval:    time.Minute,
		BreakerTimeout:     30 * time.Second,
		BreakerMinRequests: 10,
		BreakerFailureRate: 0.9,
	}
}

// Fetcher downloads pages and extracts preview metadata.
type Fetcher struct {
	client  *http.Client
	cfg     Config
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// New creates a Fetcher. Zero config values fall back to DefaultConfig.
func New(cfg Config, logger *zap.Logger) *Fetcher {
	def := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxRedirects <= 0 {
		cfg.MaxRedirects = def.MaxRedirects
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = def.MaxBodyBytes
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	if cfg.BreakerMaxRequests == 0 {
		cfg.BreakerMaxRequests = def.BreakerMaxRequests
	}
	if cfg.BreakerInterval <= 0 {
		cfg.BreakerInterval = def.BreakerInterval
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = def.BreakerTimeout
	}
	if cfg.BreakerMinRequests == 0 {
		cfg.BreakerMinRequests = def.BreakerMinRequests
	}
	if cfg.BreakerFailureRate <= 0 {
		cfg.BreakerFailureRate = def.BreakerFailureRate
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	f := &Fetcher{cfg: cfg, logger: logger}
	f.client = &http.Client{
		Timeout: cfg.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) > cfg.MaxRedirects {
				return fmt.Errorf("stopped after %d redirects", cfg.MaxRedirects)
			}
			return nil
		},
	}
	f.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "fetch-url",
		MaxRequests: cfg.BreakerMaxRequests,
		Interval:    cfg.BreakerInterval,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.BreakerMinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.BreakerFailureRate
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return f
}

// ValidateURL checks that rawURL is an absolute http or https URL.
func ValidateURL(rawURL string) error {
	if strings.TrimSpace(rawURL) == "" {
		return ErrURLRequired
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return ErrInvalidURL
	}
	return nil
}

// Fetch downloads rawURL and extracts its metadata.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (Metadata, error) {
	if err := ValidateURL(rawURL); err != nil {
		return Metadata{}, err
	}

	result, err := f.breaker.Execute(func() (any, error) {
		return f.download(ctx, rawURL)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return Metadata{}, appErrors.Connection("FETCH_CIRCUIT_OPEN", "page fetching is temporarily disabled").
				WithCause(err).
				Build()
		}
		return Metadata{}, err
	}

	doc := result.(*goquery.Document)
	meta := extract(doc, rawURL)
	return meta, nil
}

// FetchOrFallback never fails on fetch problems. Invalid input is still an
// error so the caller can answer 400.
func (f *Fetcher) FetchOrFallback(ctx context.Context, rawURL string) (Metadata, error) {
	if err := ValidateURL(rawURL); err != nil {
		return Metadata{}, err
	}
	meta, err := f.Fetch(ctx, rawURL)
	if err != nil {
		f.logger.Warn("fetch url failed",
			zap.String("url", rawURL),
			zap.Error(err))
		return Fallback(rawURL), nil
	}
	return meta, nil
}

// Fallback is the response used when a page could not be read.
func Fallback(rawURL string) Metadata {
	return Metadata{
		SourceType: DetectPlatform(rawURL),
		URL:        rawURL,
		Error:      FallbackMessage,
	}
}

func (f *Fetcher) download(ctx context.Context, rawURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, appErrors.Validation("INVALID_URL", "Invalid URL").WithCause(err).Build()
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("Accept-Language", acceptLanguage)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, appErrors.Connection("FETCH_FAILED", "could not reach page").
			WithDetails(rawURL).
			WithCause(err).
			Build()
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, appErrors.External("FETCH_STATUS", fmt.Sprintf("page returned status %d", resp.StatusCode)).
			WithDetails(rawURL).
			Build()
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, f.cfg.MaxBodyBytes))
	if err != nil {
		return nil, appErrors.External("FETCH_PARSE", "could not parse page").WithCause(err).Build()
	}
	return doc, nil
}

func extract(doc *goquery.Document, rawURL string) Metadata {
	title := metaContent(doc, "title")
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	image := metaContent(doc, "image")
	if thumb := YouTubeThumbnail(rawURL); thumb != "" {
		image = thumb
	}

	return Metadata{
		Title:       truncateRunes(title, maxTitleRunes),
		Description: truncateRunes(metaContent(doc, "description"), maxDescriptionRunes),
		Image:       image,
		SiteName:    metaContent(doc, "site_name"),
		SourceType:  DetectPlatform(rawURL),
		URL:         rawURL,
	}
}

// metaContent looks prop up as og:, then twitter: properties, then the same
// as names, then the bare name. The first non-empty content wins.
func metaContent(doc *goquery.Document, prop string) string {
	selectors := []string{
		`meta[property="og:` + prop + `"]`,
		`meta[property="twitter:` + prop + `"]`,
		`meta[name="og:` + prop + `"]`,
		`meta[name="twitter:` + prop + `"]`,
		`meta[name="` + prop + `"]`,
	}
	for _, sel := range selectors {
		if v, ok := doc.Find(sel).First().Attr("content"); ok && v != "" {
			return v
		}
	}
	return ""
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
