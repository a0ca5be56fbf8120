package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// HazardType classifies what was reported.
type HazardType string

const (
	Debris         HazardType = "debris"
	ShallowWater   HazardType = "shallow_water"
	Weather        HazardType = "weather"
	Congestion     HazardType = "congestion"
	RestrictedZone HazardType = "restricted_zone"
)

// ParseHazardType maps a wire name onto a HazardType.
func ParseHazardType(s string) (HazardType, error) {
	switch t := HazardType(s); t {
	case Debris, ShallowWater, Weather, Congestion, RestrictedZone:
		return t, nil
	default:
		return "", fmt.Errorf("%w: unknown hazard type %q", ErrInvalidInput, s)
	}
}

// UnmarshalJSON rejects hazard types outside the closed set.
func (t *HazardType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decode hazard type: %w", err)
	}
	parsed, err := ParseHazardType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Severity ranks how dangerous a hazard is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// ParseSeverity maps a wire name onto a Severity.
func ParseSeverity(s string) (Severity, error) {
	switch sev := Severity(s); sev {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return sev, nil
	default:
		return "", fmt.Errorf("%w: unknown severity %q", ErrInvalidInput, s)
	}
}

// UnmarshalJSON rejects severities outside the closed set.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode severity: %w", err)
	}
	parsed, err := ParseSeverity(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// HazardStatus is the derived lifecycle state of a registered hazard.
type HazardStatus string

const (
	HazardActive   HazardStatus = "active"
	HazardVerified HazardStatus = "verified"
)

// Hazard is a community report. Timestamp is milliseconds since the epoch.
type Hazard struct {
	ID          string     `json:"id"`
	Type        HazardType `json:"type"`
	Location    GeoPoint   `json:"location"`
	Severity    Severity   `json:"severity"`
	Description string     `json:"description"`
	ReportedBy  string     `json:"reported_by"`
	Upvotes     uint       `json:"upvotes"`
	Downvotes   uint       `json:"downvotes"`
	Timestamp   int64      `json:"timestamp"`
	Verified    bool       `json:"verified"`
}

// Status reports whether the hazard has been verified by votes.
func (h Hazard) Status() HazardStatus {
	if h.Verified {
		return HazardVerified
	}
	return HazardActive
}

// HazardUpdate is one change notification as published downstream: the full
// registry contents after a mutation.
type HazardUpdate struct {
	Seq       uint64    `json:"seq"`
	Hazards   []Hazard  `json:"hazards"`
	EmittedAt time.Time `json:"emitted_at"`
}
