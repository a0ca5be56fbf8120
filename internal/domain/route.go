package domain

import (
	"encoding/json"
	"fmt"
)

// Maneuver is the turn needed to come onto a leg from the previous one.
type Maneuver int

const (
	Straight Maneuver = iota
	Port
	Starboard
	HardPort
	HardStarboard
)

var maneuverNames = map[Maneuver]string{
	Straight:      "straight",
	Port:          "port",
	Starboard:     "starboard",
	HardPort:      "hard_port",
	HardStarboard: "hard_starboard",
}

func (m Maneuver) String() string {
	if name, ok := maneuverNames[m]; ok {
		return name
	}
	return fmt.Sprintf("maneuver(%d)", int(m))
}

// MarshalJSON encodes the maneuver by name.
func (m Maneuver) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON decodes a maneuver name produced by MarshalJSON.
func (m *Maneuver) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("decode maneuver: %w", err)
	}
	for k, v := range maneuverNames {
		if v == name {
			*m = k
			return nil
		}
	}
	return fmt.Errorf("%w: unknown maneuver %q", ErrInvalidInput, name)
}

// NauticalLeg is one step of a passage, ending at Waypoint.
type NauticalLeg struct {
	Instruction string   `json:"instruction"`
	DistanceNm  float64  `json:"distance_nm"`
	BearingDeg  float64  `json:"bearing_deg"`
	Maneuver    Maneuver `json:"maneuver"`
	Waypoint    GeoPoint `json:"waypoint"`
}
