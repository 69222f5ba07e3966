// Package tracker answers the ISS queries served over HTTP: listing the
// cached samples, fetching one by epoch, speed, ground-track location
// and the sample nearest to the current time.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/vjranagit/isstracker/pkg/epoch"
	"github.com/vjranagit/isstracker/pkg/fault"
	"github.com/vjranagit/isstracker/pkg/geo"
	"github.com/vjranagit/isstracker/pkg/ingest"
	"github.com/vjranagit/isstracker/pkg/orbit"
	"github.com/vjranagit/isstracker/pkg/storage"
	"github.com/vjranagit/isstracker/pkg/types"
)

// NoPlaceMessage replaces the place name when the station is over
// open water or an uninhabited area
const NoPlaceMessage = "No Nearest Geolocation Found. ISS might be hovering over an ocean."

// PlaceNamer names the place at a coordinate
type PlaceNamer interface {
	NearestPlaceName(ctx context.Context, lat, lon float64) (string, error)
}

// Tracker composes the store, the reconciler and the geocoder
type Tracker struct {
	store      storage.Storage
	reconciler *ingest.Reconciler
	places     PlaceNamer
	clock      func() time.Time
	log        *logger.L
}

// Option configures a Tracker
type Option func(*Tracker)

// WithClock replaces time.Now
func WithClock(clock func() time.Time) Option {
	return func(t *Tracker) { t.clock = clock }
}

// New creates a tracker
func New(store storage.Storage, reconciler *ingest.Reconciler, places PlaceNamer, opts ...Option) *Tracker {
	t := &Tracker{
		store:      store,
		reconciler: reconciler,
		places:     places,
		clock:      time.Now,
		log:        logger.New("tracker"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// compile-time check
var _ PlaceNamer = (*geo.Resolver)(nil)

// ListEpochs refreshes the cache from the feed and returns the samples
// in [offset, offset+limit). Empty parameters mean offset 0 and no limit.
func (t *Tracker) ListEpochs(ctx context.Context, limitParam, offsetParam string) ([]types.StateVector, error) {
	limit, err := parseParam(limitParam, -1, fault.ErrLimitNotInteger, fault.ErrNegativeLimit)
	if err != nil {
		return nil, err
	}
	offset, err := parseParam(offsetParam, 0, fault.ErrOffsetNotInteger, fault.ErrNegativeOffset)
	if err != nil {
		return nil, err
	}

	if _, err := t.reconciler.Refresh(ctx); err != nil {
		return nil, err
	}

	all, err := t.store.ListAll()
	if err != nil {
		return nil, err
	}

	if offset >= len(all) {
		return nil, fault.ErrOffsetOutOfRange
	}
	end := len(all)
	if limit >= 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end], nil
}

// Epoch returns the sample stored under key
func (t *Tracker) Epoch(key string) (*types.StateVector, error) {
	return t.store.Get(key)
}

// Speed returns the instantaneous speed of the sample under key
func (t *Tracker) Speed(key string) (*types.SpeedResult, error) {
	sv, err := t.store.Get(key)
	if err != nil {
		return nil, err
	}
	return &types.SpeedResult{Epoch: sv.Epoch, Speed: orbit.SpeedOf(sv)}, nil
}

// Location returns the ground-track position of the sample under key
// and the name of the place below it
func (t *Tracker) Location(ctx context.Context, key string) (*types.LocationResult, error) {
	sv, err := t.store.Get(key)
	if err != nil {
		return nil, err
	}
	return t.locate(ctx, sv)
}

// Now returns speed and location of the sample closest to the current time
func (t *Tracker) Now(ctx context.Context) (*types.NowResult, error) {
	keys, err := t.store.Keys()
	if err != nil {
		return nil, err
	}

	key, err := epoch.Nearest(t.clock(), keys)
	if fault.IsTimestampError(err) {
		t.log.Criticalf("stored epoch key is malformed: %s", err)
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	sv, err := t.store.Get(key)
	if errors.Is(err, fault.ErrNotFoundEpoch) {
		t.log.Criticalf("index entry %q has no stored sample", key)
		return nil, fmt.Errorf("epoch %q: %w", key, fault.ErrIndexMismatch)
	}
	if err != nil {
		return nil, err
	}

	loc, err := t.locate(ctx, sv)
	if err != nil {
		return nil, err
	}

	return &types.NowResult{
		Epoch:              sv.Epoch,
		Speed:              orbit.SpeedOf(sv),
		Latitude:           loc.Latitude,
		Longitude:          loc.Longitude,
		Altitude:           loc.Altitude,
		NearestGeolocation: loc.NearestGeolocation,
	}, nil
}

func (t *Tracker) locate(ctx context.Context, sv *types.StateVector) (*types.LocationResult, error) {
	pos, err := orbit.GroundTrack(sv)
	if err != nil {
		t.log.Errorf("ground track of %s: %s", sv.Epoch, err)
		return nil, err
	}

	name := NoPlaceMessage
	if t.places != nil {
		found, err := t.places.NearestPlaceName(ctx, pos.Latitude, pos.Longitude)
		switch {
		case errors.Is(err, fault.ErrNoPlace):
		case err != nil:
			return nil, err
		default:
			name = found
		}
	}

	return &types.LocationResult{
		Epoch:              sv.Epoch,
		Position:           pos,
		NearestGeolocation: name,
	}, nil
}

// parseParam parses an optional non-negative integer query parameter
func parseParam(raw string, def int, notInteger, negative error) (int, error) {
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, notInteger
	}
	if v < 0 {
		return 0, negative
	}
	return v, nil
}
