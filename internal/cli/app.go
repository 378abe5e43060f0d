package cli

import (
	"fmt"
	"os"

	"github.com/geoportal-waw/waw-events/internal/address"
	"github.com/geoportal-waw/waw-events/internal/config"
	"github.com/geoportal-waw/waw-events/internal/geocode"
	"github.com/geoportal-waw/waw-events/internal/logger"
	"github.com/geoportal-waw/waw-events/internal/pipeline"
	"github.com/geoportal-waw/waw-events/internal/scraper"
	"github.com/geoportal-waw/waw-events/internal/storage"
	"github.com/geoportal-waw/waw-events/internal/vocab"
)

// app holds the settings and shared collaborators of one command run.
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	fetcher *scraper.Fetcher
	vocab   *vocab.Vocabulary
}

// locateMode selects how much enrichment a driver performs.
type locateMode int

const (
	locateNone locateMode = iota
	locateAddress
	locateFull
)

func newApp() (*app, error) {
	if err := config.LoadDotenv(flagEnvFile); err != nil {
		return nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if flagBaseURL != "" {
		cfg.BaseURL = flagBaseURL
	}
	if flagDB != "" {
		cfg.DatabaseURL = flagDB
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level := logger.ParseLevel(cfg.LogLevel)
	if flagVerbose {
		level = logger.LevelDebug
	}
	// stdout carries command output
	log := logger.New(level, os.Stderr)
	logger.SetDefault(log)

	v, err := cfg.Vocabulary()
	if err != nil {
		return nil, fmt.Errorf("loading vocabulary: %w", err)
	}

	return &app{
		cfg:     cfg,
		log:     log,
		fetcher: scraper.NewFetcher(cfg.HTTPTimeout),
		vocab:   v,
	}, nil
}

func (a *app) openStore() (*storage.LocationCache, error) {
	store, err := storage.Open(a.cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("opening location cache: %w", err)
	}
	return store, nil
}

// locator builds a parser that resolves addresses and, in locateFull mode,
// geocodes them through store.
func (a *app) locator(mode locateMode, store *storage.LocationCache) (*scraper.Parser, error) {
	opts := []scraper.Option{}
	if mode >= locateAddress {
		resolver, err := address.New(a.fetcher, a.vocab, a.cfg.AddressCacheSize)
		if err != nil {
			return nil, err
		}
		opts = append(opts, scraper.WithAddresses(resolver))
	}
	if mode == locateFull {
		provider := geocode.NewArcGIS(a.cfg.GeocodeURL, a.cfg.GeocodeTimeout, a.cfg.GeocodeRPS)
		opts = append(opts, scraper.WithGeocoder(geocode.NewService(store, provider, a.cfg.GeocodeSuffix)))
	}
	return scraper.NewParser(a.cfg.BaseURL, a.vocab, opts...)
}

// lateDriver returns a driver that parses listings bare and locates events
// only when Enrich is called, so filtered-out events cost no lookups.
// The returned cleanup closes the store, if one was opened.
func (a *app) lateDriver(mode locateMode) (*pipeline.Driver, func(), error) {
	cleanup := func() {}

	var store *storage.LocationCache
	if mode == locateFull {
		var err error
		if store, err = a.openStore(); err != nil {
			return nil, cleanup, err
		}
		cleanup = func() {
			if err := store.Close(); err != nil {
				a.log.Warn("Closing location cache failed", logger.Fields{"error": err.Error()})
			}
		}
	}

	bare, err := scraper.NewParser(a.cfg.BaseURL, a.vocab)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	loc, err := a.locator(mode, store)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}

	return pipeline.New(a.cfg.BaseURL, a.fetcher, bare, pipeline.WithLocator(loc)), cleanup, nil
}

// inlineDriver returns a driver whose parser locates every event while
// parsing, as the API does.
func (a *app) inlineDriver(store *storage.LocationCache) (*pipeline.Driver, error) {
	parser, err := a.locator(locateFull, store)
	if err != nil {
		return nil, err
	}
	return pipeline.New(a.cfg.BaseURL, a.fetcher, parser), nil
}

func modeFor(noAddress, noGeocode bool) locateMode {
	switch {
	case noAddress:
		return locateNone
	case noGeocode:
		return locateAddress
	default:
		return locateFull
	}
}
