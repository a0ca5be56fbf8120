package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// ErrInvalidInput marks malformed coordinates, waypoint lists or enum values.
var ErrInvalidInput = errors.New("invalid input")

// GeoPoint is a latitude/longitude pair in decimal degrees.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate reports whether the point is a finite coordinate within
// [-90, 90] latitude and [-180, 180] longitude.
func (p GeoPoint) Validate() error {
	if math.IsNaN(p.Latitude) || math.IsInf(p.Latitude, 0) ||
		math.IsNaN(p.Longitude) || math.IsInf(p.Longitude, 0) {
		return fmt.Errorf("%w: coordinate is not a finite number", ErrInvalidInput)
	}
	if p.Latitude < -90 || p.Latitude > 90 {
		return fmt.Errorf("%w: latitude %v must be between -90 and 90", ErrInvalidInput, p.Latitude)
	}
	if p.Longitude < -180 || p.Longitude > 180 {
		return fmt.Errorf("%w: longitude %v must be between -180 and 180", ErrInvalidInput, p.Longitude)
	}
	return nil
}

// UnmarshalJSON accepts both {"latitude","longitude"} and {"lat","lng"}.
// The long form wins when a payload carries both.
func (p *GeoPoint) UnmarshalJSON(data []byte) error {
	var raw struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
		Lat       *float64 `json:"lat"`
		Lng       *float64 `json:"lng"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode geo point: %w", err)
	}

	lat, lon := raw.Latitude, raw.Longitude
	if lat == nil {
		lat = raw.Lat
	}
	if lon == nil {
		lon = raw.Lng
	}
	if lat == nil || lon == nil {
		return fmt.Errorf("%w: geo point needs latitude and longitude", ErrInvalidInput)
	}

	p.Latitude, p.Longitude = *lat, *lon
	return nil
}
