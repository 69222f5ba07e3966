package geo_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vjranagit/isstracker/pkg/fault"
	"github.com/vjranagit/isstracker/pkg/geo"
	"github.com/vjranagit/isstracker/pkg/mocks"
)

func TestZoomOrder(t *testing.T) {
	assert.Equal(t, []int{15, 16, 17, 18, 14, 13, 12, 11, 10}, geo.ZoomOrder())
}

func TestNearestPlaceNameFirstZoom(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	g := mocks.NewMockGeocoder(ctl)
	g.EXPECT().Reverse(gomock.Any(), 29.76, -95.37, 15).Return("Houston", nil).Times(1)

	r := geo.NewResolver(g, nil)
	name, err := r.NearestPlaceName(context.Background(), 29.76, -95.37)
	require.NoError(t, err)
	assert.Equal(t, "Houston", name)
}

func TestNearestPlaceNameRetriesFinerThenCoarser(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	g := mocks.NewMockGeocoder(ctl)
	calls := []*gomock.Call{}
	for _, zoom := range []int{15, 16, 17, 18, 14} {
		calls = append(calls, g.EXPECT().Reverse(gomock.Any(), 10.0, 20.0, zoom).Return("", fault.ErrNoPlace))
	}
	calls = append(calls, g.EXPECT().Reverse(gomock.Any(), 10.0, 20.0, 13).Return("Chad", nil))
	gomock.InOrder(calls...)

	r := geo.NewResolver(g, nil)
	name, err := r.NearestPlaceName(context.Background(), 10, 20)
	require.NoError(t, err)
	assert.Equal(t, "Chad", name)
}

func TestNearestPlaceNameOcean(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	g := mocks.NewMockGeocoder(ctl)
	g.EXPECT().Reverse(gomock.Any(), 0.0, -140.0, gomock.Any()).Return("", fault.ErrNoPlace).Times(len(geo.ZoomOrder()))

	cache := geo.NewPlaceCache(10, time.Minute)
	r := geo.NewResolver(g, cache)
	_, err := r.NearestPlaceName(context.Background(), 0, -140)
	assert.ErrorIs(t, err, fault.ErrNoPlace)

	// the miss is cached: no further geocoder calls
	_, err = r.NearestPlaceName(context.Background(), 0, -140)
	assert.ErrorIs(t, err, fault.ErrNoPlace)
}

func TestNearestPlaceNameUsesCache(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	g := mocks.NewMockGeocoder(ctl)
	g.EXPECT().Reverse(gomock.Any(), 51.5, -0.12, 15).Return("London", nil).Times(1)

	cache := geo.NewPlaceCache(10, time.Minute)
	r := geo.NewResolver(g, cache)
	for i := 0; i < 3; i++ {
		name, err := r.NearestPlaceName(context.Background(), 51.5, -0.12)
		require.NoError(t, err)
		assert.Equal(t, "London", name)
	}
	assert.Equal(t, uint64(2), cache.Stats().Hits)
}

func TestNearestPlaceNameStopsOnError(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	boom := &fault.FetchError{URL: "http://geo", Err: errors.New("refused")}
	g := mocks.NewMockGeocoder(ctl)
	g.EXPECT().Reverse(gomock.Any(), 1.0, 2.0, 15).Return("", boom).Times(1)

	r := geo.NewResolver(g, geo.NewPlaceCache(10, time.Minute))
	_, err := r.NearestPlaceName(context.Background(), 1, 2)
	var fe *fault.FetchError
	assert.ErrorAs(t, err, &fe)
}
