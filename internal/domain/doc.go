// Package domain models the maritime data shared by the routing engine, the
// hazard aggregator and the notification gate.
//
// # Coordinates
//
// A [GeoPoint] is a latitude/longitude pair in decimal degrees on a spherical
// Earth (WGS-84 values, no datum correction). Clients send either shape:
//
//	{"latitude": 51.9, "longitude": 4.1}
//	{"lat": 51.9, "lng": 4.1}
//
// Responses always use the long form. [GeoPoint.Validate] rejects NaN, ±Inf and
// out-of-range values with an error wrapping [ErrInvalidInput].
//
// # Routes
//
// A passage is an ordered list of points. Each consecutive pair becomes one
// [NauticalLeg] carrying the initial great-circle bearing, the distance in
// nautical miles (km × 0.539957) and the [Maneuver] needed to come onto it.
//
// # Hazards
//
// Hazards are community reports with a vote-driven lifecycle:
//
//	Active --(upvotes >= 3)--> Verified        (one-way)
//	Active | Verified --(downvotes >= 5)--> removed from the registry
//
// Verification is never revoked by later downvotes. Removal is terminal: a
// removed hazard's id no longer resolves and further votes on it are no-ops.
//
// Hazard types and severities are closed sets with snake_case wire names, see
// [ParseHazardType] and [ParseSeverity].
package domain
