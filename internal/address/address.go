// Package address resolves event detail pages into street addresses.
package address

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/geoportal-waw/waw-events/internal/event"
	"github.com/geoportal-waw/waw-events/internal/logger"
	"github.com/geoportal-waw/waw-events/internal/metrics"
	"github.com/geoportal-waw/waw-events/internal/vocab"
)

// DefaultCacheSize is the number of links remembered by a Resolver.
const DefaultCacheSize = 100

const locationSelector = `[itemprop="location"]`

// DocumentFetcher downloads and parses a page.
type DocumentFetcher interface {
	Fetch(ctx context.Context, url string) (*goquery.Document, error)
}

// Resolver extracts the address of an event from its detail page.
// Results, including fetch failures other than cancellation, are memoized
// per link in a bounded LRU. It is safe for concurrent use.
type Resolver struct {
	fetcher DocumentFetcher
	vocab   *vocab.Vocabulary
	cache   *lru.Cache[string, string]
	log     *logger.Logger
}

// New creates a Resolver remembering up to size links.
// A non-positive size falls back to DefaultCacheSize.
func New(fetcher DocumentFetcher, v *vocab.Vocabulary, size int) (*Resolver, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if v == nil {
		v = vocab.Default()
	}
	cache, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("creating address cache: %w", err)
	}
	return &Resolver{
		fetcher: fetcher,
		vocab:   v,
		cache:   cache,
		log:     logger.Default().With(logger.Fields{"component": "address"}),
	}, nil
}

// Resolve returns the street address found on the detail page at link.
//
// It never fails: an unreachable page yields event.NoAddressFetchError and a
// page without a usable location yields event.NoAddress. Lookups made after
// ctx is done are not memoized.
func (r *Resolver) Resolve(ctx context.Context, link string) string {
	if addr, ok := r.cache.Get(link); ok {
		metrics.AddressLookups.WithLabelValues("hit").Inc()
		return addr
	}
	metrics.AddressLookups.WithLabelValues("miss").Inc()

	addr, err := r.lookup(ctx, link)
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		// a cancelled caller says nothing about the page
		return addr
	}
	r.cache.Add(link, addr)
	return addr
}

// Len returns the number of memoized links.
func (r *Resolver) Len() int {
	return r.cache.Len()
}

// Purge forgets every memoized link.
func (r *Resolver) Purge() {
	r.cache.Purge()
}

// lookup returns the fetch error alongside the sentinel so Resolve can tell
// a cancelled request from a broken page.
func (r *Resolver) lookup(ctx context.Context, link string) (string, error) {
	doc, err := r.fetcher.Fetch(ctx, link)
	if err != nil {
		r.log.Warn("Detail page unavailable", logger.Fields{"link": link, "error": err.Error()})
		return event.NoAddressFetchError, err
	}

	loc := doc.Find(locationSelector).First()
	if loc.Length() == 0 {
		return event.NoAddress, nil
	}
	return r.Clean(loc.Text()), nil
}

// Clean strips the city and district names and all commas from raw location
// text. An empty result becomes event.NoAddress.
func (r *Resolver) Clean(raw string) string {
	addr := r.vocab.StripLocality(raw)
	addr = strings.TrimSpace(strings.ReplaceAll(addr, ",", ""))
	if addr == "" {
		return event.NoAddress
	}
	return addr
}
