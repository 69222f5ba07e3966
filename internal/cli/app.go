package cli

import (
	"github.com/bitmark-inc/logger"

	"github.com/vjranagit/isstracker/internal/config"
	"github.com/vjranagit/isstracker/pkg/feed"
	"github.com/vjranagit/isstracker/pkg/geo"
	"github.com/vjranagit/isstracker/pkg/ingest"
	"github.com/vjranagit/isstracker/pkg/storage"
	"github.com/vjranagit/isstracker/pkg/tracker"
)

// app is the wired set of components a command works with
type app struct {
	cfg        *config.Config
	store      storage.Storage
	reconciler *ingest.Reconciler
	tracker    *tracker.Tracker
	log        *logger.L
}

// openApp opens the store and wires the feed, geocoder and tracker.
// An empty feedURL uses the configured feed.
func openApp(cfg *config.Config, feedURL string) (*app, error) {
	store, err := storage.NewStorage(cfg.ToStorageConfig())
	if err != nil {
		return nil, err
	}

	feedCfg := cfg.ToFeedConfig()
	if feedURL != "" {
		feedCfg.URL = feedURL
	}
	reconciler := ingest.NewReconciler(store, feed.NewClient(feedCfg))

	var cache *geo.PlaceCache
	if cfg.Geocoder.CacheSize > 0 {
		cache = geo.NewPlaceCache(cfg.Geocoder.CacheSize, cfg.Geocoder.CacheTTL)
	}
	places := geo.NewResolver(geo.NewNominatimClient(cfg.ToNominatimConfig()), cache)

	return &app{
		cfg:        cfg,
		store:      store,
		reconciler: reconciler,
		tracker:    tracker.New(store, reconciler, places),
		log:        logger.New("main"),
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.log.Errorf("close store: %s", err)
	}
}
