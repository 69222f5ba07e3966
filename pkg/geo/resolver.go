// Package geo names the place below a ground-track position.
package geo

import (
	"context"
	"errors"

	"github.com/bitmark-inc/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vjranagit/isstracker/pkg/fault"
)

// zoom levels tried by NearestPlaceName: the default first, then
// finer, then coarser
const (
	DefaultZoom = 15
	MaxZoom     = 18
	MinZoom     = 10
)

var lookupTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "isstracker_geocode_lookups_total",
	Help: "Reverse-geocoding lookups by result",
}, []string{"result"})

// Resolver applies the zoom retry policy and caching to a Geocoder
type Resolver struct {
	geocoder Geocoder
	cache    *PlaceCache
	log      *logger.L
}

// NewResolver creates a resolver; cache may be nil
func NewResolver(geocoder Geocoder, cache *PlaceCache) *Resolver {
	return &Resolver{
		geocoder: geocoder,
		cache:    cache,
		log:      logger.New("geo"),
	}
}

// ZoomOrder lists the zoom levels in the order they are tried
func ZoomOrder() []int {
	order := []int{DefaultZoom}
	for z := DefaultZoom + 1; z <= MaxZoom; z++ {
		order = append(order, z)
	}
	for z := DefaultZoom - 1; z >= MinZoom; z-- {
		order = append(order, z)
	}
	return order
}

// NearestPlaceName returns the name of the place at lat/lon, trying each
// zoom level until one matches. fault.ErrNoPlace means nothing matched
// at any zoom, which is normal over open ocean.
func (r *Resolver) NearestPlaceName(ctx context.Context, lat, lon float64) (string, error) {
	if r.cache != nil {
		if name, found, ok := r.cache.Get(lat, lon); ok {
			lookupTotal.WithLabelValues("cached").Inc()
			if !found {
				return "", fault.ErrNoPlace
			}
			return name, nil
		}
	}

	for _, zoom := range ZoomOrder() {
		name, err := r.geocoder.Reverse(ctx, lat, lon, zoom)
		if errors.Is(err, fault.ErrNoPlace) {
			r.log.Debugf("no place at %.4f,%.4f zoom %d", lat, lon, zoom)
			continue
		}
		if err != nil {
			lookupTotal.WithLabelValues("error").Inc()
			r.log.Warnf("reverse geocoding %.4f,%.4f failed: %s", lat, lon, err)
			return "", err
		}

		lookupTotal.WithLabelValues("found").Inc()
		if r.cache != nil {
			r.cache.Put(lat, lon, name, true)
		}
		return name, nil
	}

	lookupTotal.WithLabelValues("no_place").Inc()
	if r.cache != nil {
		r.cache.Put(lat, lon, "", false)
	}
	return "", fault.ErrNoPlace
}
