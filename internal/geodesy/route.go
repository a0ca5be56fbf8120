package geodesy

import (
	"fmt"
	"math"

	"github.com/couchcryptid/marine-watch/internal/domain"
)

// GenerateRoute builds one leg per consecutive pair of
// [origin, waypoints..., destination]. The first leg is always Straight; later
// legs are classified against the previous leg's bearing. The final leg carries
// the arrival instruction.
//
// Identical origin and destination with no waypoints yields a single
// zero-distance arrival leg.
func GenerateRoute(origin, destination domain.GeoPoint, waypoints []domain.GeoPoint) ([]domain.NauticalLeg, error) {
	points := make([]domain.GeoPoint, 0, len(waypoints)+2)
	points = append(points, origin)
	points = append(points, waypoints...)
	points = append(points, destination)

	for i, p := range points {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("route point %d: %w", i, err)
		}
	}

	legs := make([]domain.NauticalLeg, 0, len(points)-1)
	var prevBearing float64

	for i := 1; i < len(points); i++ {
		from, to := points[i-1], points[i]
		bearing := BearingDeg(from, to)
		distance := DistanceNm(from, to)

		maneuver := domain.Straight
		if i > 1 {
			maneuver = ClassifyManeuver(prevBearing, bearing)
		}

		legs = append(legs, domain.NauticalLeg{
			Instruction: instruction(i == 1, i == len(points)-1, maneuver, bearing, distance),
			DistanceNm:  distance,
			BearingDeg:  bearing,
			Maneuver:    maneuver,
			Waypoint:    to,
		})
		prevBearing = bearing
	}

	return legs, nil
}

// TotalDistanceNm sums the leg distances of a passage.
func TotalDistanceNm(legs []domain.NauticalLeg) float64 {
	var total float64
	for _, leg := range legs {
		total += leg.DistanceNm
	}
	return total
}

func instruction(first, last bool, m domain.Maneuver, bearing, distanceNm float64) string {
	if last {
		return fmt.Sprintf("Arrive at destination in %.1f nm", distanceNm)
	}

	heading := fmt.Sprintf("%s (%03d°)", Cardinal(bearing), roundBearing(bearing))
	switch {
	case first:
		return fmt.Sprintf("Head %s for %.1f nm", heading, distanceNm)
	case m == domain.Port:
		return fmt.Sprintf("Bear to port onto %s for %.1f nm", heading, distanceNm)
	case m == domain.Starboard:
		return fmt.Sprintf("Bear to starboard onto %s for %.1f nm", heading, distanceNm)
	case m == domain.HardPort:
		return fmt.Sprintf("Turn hard to port onto %s for %.1f nm", heading, distanceNm)
	case m == domain.HardStarboard:
		return fmt.Sprintf("Turn hard to starboard onto %s for %.1f nm", heading, distanceNm)
	default:
		return fmt.Sprintf("Continue %s for %.1f nm", heading, distanceNm)
	}
}

// roundBearing rounds to whole degrees, folding 360 back onto 0.
func roundBearing(bearing float64) int {
	return int(math.Round(bearing)) % 360
}
