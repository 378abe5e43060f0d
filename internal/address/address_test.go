package address

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"github.com/geoportal-waw/waw-events/internal/event"
	"github.com/geoportal-waw/waw-events/internal/scraper"
	"github.com/geoportal-waw/waw-events/internal/vocab"
)

type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	calls map[string]int
}

func newFakeFetcher(pages map[string]string) *fakeFetcher {
	return &fakeFetcher{pages: pages, calls: map[string]int{}}
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (*goquery.Document, error) {
	f.mu.Lock()
	f.calls[url]++
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	body, ok := f.pages[url]
	if !ok {
		return nil, errors.New("unexpected status code: 404")
	}
	return goquery.NewDocumentFromReader(strings.NewReader(body))
}

func (f *fakeFetcher) count(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

func location(text string) string {
	return `<html><body><span itemprop="location">` + text + `</span></body></html>`
}

func TestResolve(t *testing.T) {
	fetcher := newFakeFetcher(map[string]string{
		"https://w/a": location("Warszawa, Wola, ul. Chłodna 22"),
		"https://w/b": `<html><body><p>brak</p></body></html>`,
		"https://w/c": location("Warszawa, Ursynów"),
		"https://w/d": location("  ul. Puławska 1, lok. 2  "),
	})
	r, err := New(fetcher, vocab.Default(), 0)
	require.NoError(t, err)

	ctx := context.Background()
	require.Equal(t, "ul. Chłodna 22", r.Resolve(ctx, "https://w/a"))
	require.Equal(t, event.NoAddress, r.Resolve(ctx, "https://w/b"))
	require.Equal(t, event.NoAddress, r.Resolve(ctx, "https://w/c"))
	require.Equal(t, "ul. Puławska 1 lok. 2", r.Resolve(ctx, "https://w/d"))
	require.Equal(t, event.NoAddressFetchError, r.Resolve(ctx, "https://w/missing"))
}

func TestResolve_Memoized(t *testing.T) {
	fetcher := newFakeFetcher(map[string]string{
		"https://w/a": location("Warszawa, ul. Nowy Świat 6"),
	})
	r, err := New(fetcher, nil, 10)
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.Equal(t, "ul. Nowy Świat 6", r.Resolve(ctx, "https://w/a"))
		require.Equal(t, event.NoAddressFetchError, r.Resolve(ctx, "https://w/gone"))
	}

	require.Equal(t, 1, fetcher.count("https://w/a"))
	require.Equal(t, 1, fetcher.count("https://w/gone"), "fetch failures are memoized too")
	require.Equal(t, 2, r.Len())

	r.Purge()
	require.Equal(t, 0, r.Len())
	r.Resolve(ctx, "https://w/a")
	require.Equal(t, 2, fetcher.count("https://w/a"))
}

func TestResolve_CancelledNotMemoized(t *testing.T) {
	fetcher := newFakeFetcher(map[string]string{
		"https://w/a": location("Warszawa, Wola, ul. Chłodna 22"),
	})
	r, err := New(fetcher, vocab.Default(), 10)
	require.NoError(t, err)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	require.Equal(t, event.NoAddressFetchError, r.Resolve(cancelled, "https://w/a"))
	require.Equal(t, 0, r.Len())

	require.Equal(t, "ul. Chłodna 22", r.Resolve(context.Background(), "https://w/a"))
	require.Equal(t, 1, r.Len())
	require.Equal(t, 2, fetcher.count("https://w/a"))
}

func TestResolve_DeadlineNotMemoized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	fetcher := scraper.NewFetcherWithClient(server.Client())
	r, err := New(fetcher, nil, 10)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.Equal(t, event.NoAddressFetchError, r.Resolve(ctx, server.URL+"/wydarzenie-1"))
	require.Equal(t, 0, r.Len())
}

type timeoutFetcher struct{}

func (timeoutFetcher) Fetch(context.Context, string) (*goquery.Document, error) {
	return nil, fmt.Errorf("fetching page: %w", context.DeadlineExceeded)
}

func TestResolve_FetchTimeoutNotMemoized(t *testing.T) {
	r, err := New(timeoutFetcher{}, nil, 10)
	require.NoError(t, err)

	require.Equal(t, event.NoAddressFetchError, r.Resolve(context.Background(), "https://w/a"))
	require.Equal(t, 0, r.Len())
}

func TestResolve_Eviction(t *testing.T) {
	pages := map[string]string{}
	for i := 0; i < 4; i++ {
		pages[fmt.Sprintf("https://w/%d", i)] = location(fmt.Sprintf("ul. Prosta %d", i))
	}
	fetcher := newFakeFetcher(pages)
	r, err := New(fetcher, nil, 3)
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 4; i++ {
		r.Resolve(ctx, fmt.Sprintf("https://w/%d", i))
	}
	require.Equal(t, 3, r.Len())

	// the oldest link was evicted and has to be fetched again
	r.Resolve(ctx, "https://w/0")
	require.Equal(t, 2, fetcher.count("https://w/0"))
	r.Resolve(ctx, "https://w/3")
	require.Equal(t, 1, fetcher.count("https://w/3"))
}

func TestClean(t *testing.T) {
	r, err := New(newFakeFetcher(nil), nil, 1)
	require.NoError(t, err)

	tests := []struct {
		raw  string
		want string
	}{
		{"Warszawa, Mokotów, al. Niepodległości 162", "al. Niepodległości 162"},
		{"ul. Grójecka 1, Warszawa", "ul. Grójecka 1"},
		{"Warszawa", event.NoAddress},
		{" , ", event.NoAddress},
		{"", event.NoAddress},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, r.Clean(tt.raw), "Clean(%q)", tt.raw)
	}
}

func TestResolve_DetailPage(t *testing.T) {
	detail, err := os.ReadFile("../../testdata/fixtures/detail.html")
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(detail)
	}))
	defer server.Close()

	r, err := New(scraper.NewFetcherWithClient(server.Client()), nil, 0)
	require.NoError(t, err)

	ctx := context.Background()
	require.Equal(t, "al. Niepodległości 162", r.Resolve(ctx, server.URL+"/wydarzenie-147368"))
	require.Equal(t, event.NoAddressFetchError, r.Resolve(ctx, server.URL+"/missing"))
}
