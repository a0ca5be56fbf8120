// Package geodesy computes great-circle distances and bearings on a spherical
// Earth and turns waypoint lists into nautical legs.
package geodesy

import (
	"math"

	"github.com/couchcryptid/marine-watch/internal/domain"
)

const (
	// EarthRadiusKm is the mean Earth radius used by the haversine formula.
	EarthRadiusKm = 6371.0

	// KmToNm converts kilometres to nautical miles.
	KmToNm = 0.539957
)

// cardinals are the 16 compass points, clockwise from north in 22.5° steps.
var cardinals = [16]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

func toRad(deg float64) float64 { return deg * math.Pi / 180 }

func toDeg(rad float64) float64 { return rad * 180 / math.Pi }

// DistanceKm returns the haversine great-circle distance between a and b.
func DistanceKm(a, b domain.GeoPoint) float64 {
	dLat := toRad(b.Latitude - a.Latitude)
	dLon := toRad(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Latitude))*math.Cos(toRad(b.Latitude))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	// Rounding can leave h just outside [0, 1] for near-antipodal points.
	h = math.Min(1, math.Max(0, h))

	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// DistanceNm is DistanceKm converted to nautical miles.
func DistanceNm(a, b domain.GeoPoint) float64 {
	return DistanceKm(a, b) * KmToNm
}

// BearingDeg returns the initial great-circle bearing from one point to
// another, in [0, 360).
func BearingDeg(from, to domain.GeoPoint) float64 {
	lat1 := toRad(from.Latitude)
	lat2 := toRad(to.Latitude)
	dLon := toRad(to.Longitude - from.Longitude)

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)

	return math.Mod(toDeg(math.Atan2(y, x))+360, 360)
}

// TurnAngle is next-prev wrapped into (-180, 180]. Positive turns are to
// starboard.
func TurnAngle(prevBearing, nextBearing float64) float64 {
	delta := nextBearing - prevBearing
	if delta > 180 {
		delta -= 360
	} else if delta < -180 {
		delta += 360
	}
	return delta
}

// ClassifyManeuver maps the turn between two bearings onto a Maneuver.
// The checks run in order, so exactly -45° is Port and exactly 45° is Starboard.
func ClassifyManeuver(prevBearing, nextBearing float64) domain.Maneuver {
	delta := TurnAngle(prevBearing, nextBearing)
	switch {
	case math.Abs(delta) < 15:
		return domain.Straight
	case delta > 45:
		return domain.HardStarboard
	case delta > 0:
		return domain.Starboard
	case delta < -45:
		return domain.HardPort
	default:
		return domain.Port
	}
}

// Cardinal names the 16-point compass direction nearest to bearing.
func Cardinal(bearing float64) string {
	idx := int(math.Round(bearing/22.5)) % 16
	if idx < 0 {
		idx += 16
	}
	return cardinals[idx]
}
