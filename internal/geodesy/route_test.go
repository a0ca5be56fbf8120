package geodesy

import (
	"math"
	"testing"

	"github.com/couchcryptid/marine-watch/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRoute_DirectPassage(t *testing.T) {
	legs, err := GenerateRoute(domain.GeoPoint{}, domain.GeoPoint{Longitude: 1}, nil)
	require.NoError(t, err)
	require.Len(t, legs, 1)

	leg := legs[0]
	assert.Equal(t, domain.Straight, leg.Maneuver)
	assert.Contains(t, leg.Instruction, "Arrive at destination")
	assert.Equal(t, "Arrive at destination in 60.0 nm", leg.Instruction)
	assert.InDelta(t, 60.04, leg.DistanceNm, 0.05)
	assert.InDelta(t, 90, leg.BearingDeg, 0.01)
	assert.Equal(t, domain.GeoPoint{Longitude: 1}, leg.Waypoint)
}

func TestGenerateRoute_Instructions(t *testing.T) {
	origin := domain.GeoPoint{}
	waypoints := []domain.GeoPoint{
		{Longitude: 1},
		{Longitude: 2},
		{Latitude: 1, Longitude: 2},
	}
	destination := domain.GeoPoint{Latitude: 1, Longitude: 3}

	legs, err := GenerateRoute(origin, destination, waypoints)
	require.NoError(t, err)
	require.Len(t, legs, 4)

	assert.Equal(t, "Head E (090°) for 60.0 nm", legs[0].Instruction)
	assert.Equal(t, domain.Straight, legs[0].Maneuver)

	assert.Equal(t, "Continue E (090°) for 60.0 nm", legs[1].Instruction)
	assert.Equal(t, domain.Straight, legs[1].Maneuver)

	assert.Equal(t, "Turn hard to port onto N (000°) for 60.0 nm", legs[2].Instruction)
	assert.Equal(t, domain.HardPort, legs[2].Maneuver)

	assert.Equal(t, domain.HardStarboard, legs[3].Maneuver)
	assert.Equal(t, "Arrive at destination in 60.0 nm", legs[3].Instruction)
	assert.Equal(t, destination, legs[3].Waypoint)

	ends := []domain.GeoPoint{waypoints[0], waypoints[1], waypoints[2], destination}
	for i, leg := range legs {
		assert.Equal(t, ends[i], leg.Waypoint)
	}
}

func TestGenerateRoute_GentleTurns(t *testing.T) {
	// East, then roughly 30° to port, then back 30° to starboard.
	origin := domain.GeoPoint{}
	waypoints := []domain.GeoPoint{
		{Longitude: 1},
		{Latitude: 0.5774, Longitude: 2},
		{Latitude: 0.5774, Longitude: 3},
	}
	destination := domain.GeoPoint{Latitude: 0.5774, Longitude: 4}

	legs, err := GenerateRoute(origin, destination, waypoints)
	require.NoError(t, err)
	require.Len(t, legs, 4)

	assert.Equal(t, domain.Port, legs[1].Maneuver)
	assert.Contains(t, legs[1].Instruction, "Bear to port onto ENE")
	assert.Equal(t, domain.Starboard, legs[2].Maneuver)
	assert.Contains(t, legs[2].Instruction, "Bear to starboard onto E")
}

func TestGenerateRoute_DegenerateSinglePoint(t *testing.T) {
	p := domain.GeoPoint{Latitude: 51.9225, Longitude: 4.47917}

	legs, err := GenerateRoute(p, p, nil)
	require.NoError(t, err)
	require.Len(t, legs, 1)
	assert.Zero(t, legs[0].DistanceNm)
	assert.Equal(t, "Arrive at destination in 0.0 nm", legs[0].Instruction)
	assert.Equal(t, domain.Straight, legs[0].Maneuver)
}

func TestGenerateRoute_InvalidInput(t *testing.T) {
	valid := domain.GeoPoint{Latitude: 10, Longitude: 10}

	tests := []struct {
		name        string
		origin      domain.GeoPoint
		destination domain.GeoPoint
		waypoints   []domain.GeoPoint
	}{
		{"NaN origin", domain.GeoPoint{Latitude: math.NaN()}, valid, nil},
		{"infinite destination", valid, domain.GeoPoint{Longitude: math.Inf(1)}, nil},
		{"latitude out of range", valid, valid, []domain.GeoPoint{{Latitude: 91}}},
		{"longitude out of range", valid, valid, []domain.GeoPoint{{Longitude: -180.5}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			legs, err := GenerateRoute(tt.origin, tt.destination, tt.waypoints)
			require.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.Nil(t, legs)
		})
	}
}

func TestTotalDistanceNm(t *testing.T) {
	legs, err := GenerateRoute(domain.GeoPoint{}, domain.GeoPoint{Longitude: 2}, []domain.GeoPoint{{Longitude: 1}})
	require.NoError(t, err)

	assert.InDelta(t, 120.08, TotalDistanceNm(legs), 0.1)
	assert.Zero(t, TotalDistanceNm(nil))
}

func TestGenerateRoute_AntipodalPassage(t *testing.T) {
	origin := domain.GeoPoint{Latitude: -78.185, Longitude: 28.173}
	destination := domain.GeoPoint{Latitude: 78.185, Longitude: -151.827}

	legs, err := GenerateRoute(origin, destination, nil)
	require.NoError(t, err)
	require.Len(t, legs, 1)

	assert.False(t, math.IsNaN(legs[0].DistanceNm))
	assert.InDelta(t, math.Pi*EarthRadiusKm*KmToNm, legs[0].DistanceNm, 1e-3)
	assert.Equal(t, "Arrive at destination in 10807.3 nm", legs[0].Instruction)
}
