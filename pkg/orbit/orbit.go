// Package orbit derives speed and ground-track position from state vectors.
//
// Positions in the feed are in the J2000 (EME2000) inertial frame. The
// ground track rotates them into the Earth-fixed frame by Greenwich
// Mean Sidereal Time and converts to WGS84 geodetic coordinates.
// Precession, nutation and polar motion are ignored; the resulting
// error is well under a degree, which is plenty for naming the place
// below the station.
package orbit

import (
	"errors"
	"math"
	"time"

	"github.com/vjranagit/isstracker/pkg/epoch"
	"github.com/vjranagit/isstracker/pkg/fault"
	"github.com/vjranagit/isstracker/pkg/types"
)

// WGS84 ellipsoid, kilometres
const (
	equatorialRadius = 6378.137
	flattening       = 1 / 298.257223563
	eccentricitySq   = flattening * (2 - flattening)
	polarRadius      = equatorialRadius * (1 - flattening)

	julianUnixEpoch = 2440587.5
	julianJ2000     = 2451545.0
	daysPerCentury  = 36525.0
	secondsPerDay   = 86400.0
)

// Speed returns the magnitude of a velocity
func Speed(vx, vy, vz float64) float64 {
	return math.Sqrt(vx*vx + vy*vy + vz*vz)
}

// SpeedOf returns the instantaneous speed of a sample in km/s
func SpeedOf(sv *types.StateVector) float64 {
	return Speed(sv.XDot.Value, sv.YDot.Value, sv.ZDot.Value)
}

// GroundTrack returns the geodetic sub-point and altitude of a sample
func GroundTrack(sv *types.StateVector) (types.Position, error) {
	if sv == nil {
		return types.Position{}, &fault.TransformError{Err: errors.New("no state vector")}
	}

	at, err := epoch.Parse(sv.Epoch)
	if err != nil {
		return types.Position{}, &fault.TransformError{Epoch: sv.Epoch, Err: err}
	}

	x, y, z := sv.X.Value, sv.Y.Value, sv.Z.Value
	for _, v := range []float64{x, y, z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return types.Position{}, &fault.TransformError{Epoch: sv.Epoch, Err: errors.New("non-finite position")}
		}
	}
	if x == 0 && y == 0 && z == 0 {
		return types.Position{}, &fault.TransformError{Epoch: sv.Epoch, Err: errors.New("position is at the geocentre")}
	}

	xe, ye, ze := inertialToFixed(x, y, z, at)
	lat, lon, alt := geodetic(xe, ye, ze)
	return types.Position{Latitude: lat, Longitude: lon, Altitude: alt}, nil
}

// GMST returns Greenwich Mean Sidereal Time in radians, [0, 2π), using
// the IAU 1982 expression with UTC standing in for UT1
func GMST(t time.Time) float64 {
	jd := float64(t.UnixNano())/1e9/secondsPerDay + julianUnixEpoch
	c := (jd - julianJ2000) / daysPerCentury

	seconds := 67310.54841 +
		(876600*3600+8640184.812866)*c +
		0.093104*c*c -
		6.2e-6*c*c*c

	seconds = math.Mod(seconds, secondsPerDay)
	if seconds < 0 {
		seconds += secondsPerDay
	}
	return seconds / secondsPerDay * 2 * math.Pi
}

// inertialToFixed rotates about the z axis by GMST
func inertialToFixed(x, y, z float64, t time.Time) (float64, float64, float64) {
	theta := GMST(t)
	sin, cos := math.Sincos(theta)
	return cos*x + sin*y, -sin*x + cos*y, z
}

// geodetic converts Earth-fixed cartesian km to latitude and longitude
// in degrees and altitude in km above the ellipsoid
func geodetic(x, y, z float64) (float64, float64, float64) {
	lon := math.Atan2(y, x) * 180 / math.Pi
	if lon <= -180 {
		lon += 360
	}

	p := math.Hypot(x, y)
	if p < 1e-9 {
		lat := 90.0
		if z < 0 {
			lat = -90
		}
		return lat, lon, math.Abs(z) - polarRadius
	}

	lat := math.Atan2(z, p*(1-eccentricitySq))
	var alt float64
	for i := 0; i < 10; i++ {
		sin := math.Sin(lat)
		n := equatorialRadius / math.Sqrt(1-eccentricitySq*sin*sin)
		alt = p/math.Cos(lat) - n
		next := math.Atan2(z, p*(1-eccentricitySq*n/(n+alt)))
		if math.Abs(next-lat) < 1e-12 {
			lat = next
			break
		}
		lat = next
	}
	return lat * 180 / math.Pi, lon, alt
}
