package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/geoportal-waw/waw-events/internal/metrics"
)

const (
	UserAgent = "waw-events/1.0 (compatible; github.com/geoportal-waw/waw-events)"
	Timeout   = 30 * time.Second
)

// Fetcher downloads pages and parses them into goquery documents.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

// NewFetcher creates a Fetcher with the given request timeout.
// A non-positive timeout falls back to Timeout.
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = Timeout
	}
	return &Fetcher{
		client: &http.Client{
			Timeout: timeout,
		},
		userAgent: UserAgent,
	}
}

// NewFetcherWithClient creates a Fetcher around an existing HTTP client.
func NewFetcherWithClient(client *http.Client) *Fetcher {
	return &Fetcher{client: client, userAgent: UserAgent}
}

// Fetch downloads url and parses the body as HTML.
// Network errors, non-200 statuses and unparseable bodies are all errors.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*goquery.Document, error) {
	doc, err := f.fetch(ctx, url)
	if err != nil {
		metrics.PagesFetched.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.PagesFetched.WithLabelValues("ok").Inc()
	return doc, nil
}

func (f *Fetcher) fetch(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return parseDocument(resp.Body)
}

func parseDocument(r io.Reader) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return doc, nil
}
