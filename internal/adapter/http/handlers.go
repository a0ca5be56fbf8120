package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"golang.org/x/time/rate"

	"github.com/couchcryptid/marine-watch/internal/domain"
	"github.com/couchcryptid/marine-watch/internal/geodesy"
	"github.com/couchcryptid/marine-watch/internal/hazard"
	"github.com/couchcryptid/marine-watch/internal/observability"
	"github.com/couchcryptid/marine-watch/internal/throttle"
)

// maxBodyBytes caps request bodies on the JSON endpoints.
const maxBodyBytes = 1 << 20

// APIConfig wires the domain components behind the HTTP API.
type APIConfig struct {
	Hazards        *hazard.Aggregator
	Gate           *throttle.Gate
	Metrics        *observability.Metrics
	Logger         *slog.Logger
	Limiter        *rate.Limiter // nil disables rate limiting
	NearbyRadiusKm float64       // default for /v1/hazards/nearby; non-positive means hazard.DefaultRadiusKm
}

// API serves routing, hazard, and notification endpoints.
type API struct {
	hazards        *hazard.Aggregator
	gate           *throttle.Gate
	metrics        *observability.Metrics
	logger         *slog.Logger
	limiter        *rate.Limiter
	nearbyRadiusKm float64
}

func NewAPI(cfg APIConfig) *API {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	radius := cfg.NearbyRadiusKm
	if radius <= 0 {
		radius = hazard.DefaultRadiusKm
	}
	return &API{
		hazards:        cfg.Hazards,
		gate:           cfg.Gate,
		metrics:        cfg.Metrics,
		logger:         logger,
		limiter:        cfg.Limiter,
		nearbyRadiusKm: radius,
	}
}

func (a *API) register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/routes", a.limited(a.handlePlanRoute))
	mux.HandleFunc("GET /v1/hazards", a.handleListHazards)
	mux.HandleFunc("GET /v1/hazards/nearby", a.handleNearbyHazards)
	mux.HandleFunc("POST /v1/hazards", a.limited(a.handleReportHazard))
	mux.HandleFunc("POST /v1/hazards/{id}/upvote", a.limited(a.handleVote(a.hazards.Upvote)))
	mux.HandleFunc("POST /v1/hazards/{id}/downvote", a.limited(a.handleVote(a.hazards.Downvote)))
	mux.HandleFunc("POST /v1/notifications/check", a.limited(a.handleCheckNotification))
	mux.HandleFunc("DELETE /v1/notifications/throttle", a.limited(a.handleClearThrottle))
}

// limited rejects requests with 429 once the shared token bucket is empty.
func (a *API) limited(next http.HandlerFunc) http.HandlerFunc {
	if a.limiter == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if !a.limiter.Allow() {
			if a.metrics != nil {
				a.metrics.APIRequestsLimited.Inc()
			}
			a.logger.Warn("api request rate limited", "method", r.Method, "path", r.URL.Path)
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next(w, r)
	}
}

// --- routes ---

type routeRequest struct {
	Origin      *domain.GeoPoint  `json:"origin"`
	Destination *domain.GeoPoint  `json:"destination"`
	Waypoints   []domain.GeoPoint `json:"waypoints"`
}

type routeResponse struct {
	Legs            []domain.NauticalLeg `json:"legs"`
	TotalDistanceNm float64              `json:"total_distance_nm"`
	Path            *geojson.Geometry    `json:"path"`
}

func (a *API) handlePlanRoute(w http.ResponseWriter, r *http.Request) {
	var req routeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeDomainError(w, err)
		return
	}
	if req.Origin == nil || req.Destination == nil {
		writeError(w, http.StatusBadRequest, "origin and destination are required")
		return
	}

	legs, err := geodesy.GenerateRoute(*req.Origin, *req.Destination, req.Waypoints)
	if err != nil {
		a.writeDomainError(w, err)
		return
	}

	points := make([]domain.GeoPoint, 0, len(req.Waypoints)+2)
	points = append(points, *req.Origin)
	points = append(points, req.Waypoints...)
	points = append(points, *req.Destination)
	path, err := geojson.Encode(lineString(points))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "encode route path")
		return
	}

	if a.metrics != nil {
		a.metrics.RoutesPlanned.Inc()
		a.metrics.RouteLegs.Observe(float64(len(legs)))
	}
	a.writeJSON(w, http.StatusOK, routeResponse{
		Legs:            legs,
		TotalDistanceNm: geodesy.TotalDistanceNm(legs),
		Path:            path,
	})
}

// --- hazards ---

type reportRequest struct {
	Type        domain.HazardType `json:"type"`
	Location    *domain.GeoPoint  `json:"location"`
	Severity    domain.Severity   `json:"severity"`
	Description string            `json:"description"`
	ReportedBy  string            `json:"reported_by"`
}

func (a *API) handleListHazards(w http.ResponseWriter, _ *http.Request) {
	a.writeFeatureCollection(w, a.hazards.All())
}

func (a *API) handleNearbyHazards(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
	lon, errLon := strconv.ParseFloat(q.Get("lon"), 64)
	if errLat != nil || errLon != nil {
		writeError(w, http.StatusBadRequest, "lat and lon query parameters must be numbers")
		return
	}
	center := domain.GeoPoint{Latitude: lat, Longitude: lon}
	if err := center.Validate(); err != nil {
		a.writeDomainError(w, err)
		return
	}

	radius := a.nearbyRadiusKm
	if raw := q.Get("radius_km"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "radius_km must be a number")
			return
		}
		if parsed < 0 {
			writeError(w, http.StatusBadRequest, "radius_km must not be negative")
			return
		}
		radius = parsed
	}

	a.writeFeatureCollection(w, a.hazards.Nearby(center, radius))
}

func (a *API) handleReportHazard(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeDomainError(w, err)
		return
	}
	if req.Type == "" || req.Severity == "" || req.Location == nil {
		writeError(w, http.StatusBadRequest, "type, severity and location are required")
		return
	}
	if err := req.Location.Validate(); err != nil {
		a.writeDomainError(w, err)
		return
	}

	h := a.hazards.Report(req.Type, *req.Location, req.Severity, req.Description, req.ReportedBy)
	a.writeJSON(w, http.StatusCreated, h)
}

func (a *API) handleVote(vote func(id string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		vote(id)

		h, ok := a.hazards.Get(id)
		if !ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		a.writeJSON(w, http.StatusOK, h)
	}
}

func (a *API) writeFeatureCollection(w http.ResponseWriter, hazards []domain.Hazard) {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(hazards))}
	for _, h := range hazards {
		fc.Features = append(fc.Features, hazardFeature(h))
	}
	a.writeJSON(w, http.StatusOK, fc)
}

func hazardFeature(h domain.Hazard) *geojson.Feature {
	return &geojson.Feature{
		ID:       h.ID,
		Geometry: geom.NewPointFlat(geom.XY, []float64{h.Location.Longitude, h.Location.Latitude}),
		Properties: map[string]any{
			"type":        h.Type,
			"severity":    h.Severity,
			"status":      h.Status(),
			"description": h.Description,
			"reported_by": h.ReportedBy,
			"upvotes":     h.Upvotes,
			"downvotes":   h.Downvotes,
			"verified":    h.Verified,
			"timestamp":   h.Timestamp,
		},
	}
}

// lineString builds an XY line in GeoJSON axis order (longitude first).
func lineString(points []domain.GeoPoint) *geom.LineString {
	flat := make([]float64, 0, 2*len(points))
	for _, p := range points {
		flat = append(flat, p.Longitude, p.Latitude)
	}
	return geom.NewLineStringFlat(geom.XY, flat)
}

// --- notifications ---

type checkRequest struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

type checkResponse struct {
	Key  string `json:"key"`
	Send bool   `json:"send"`
}

func (a *API) handleCheckNotification(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeDomainError(w, err)
		return
	}
	if req.Type == "" {
		writeError(w, http.StatusBadRequest, "type is required")
		return
	}

	key := throttle.MakeKey(req.Type, req.Data)
	a.writeJSON(w, http.StatusOK, checkResponse{Key: key, Send: a.gate.ShouldSend(key)})
}

func (a *API) handleClearThrottle(w http.ResponseWriter, r *http.Request) {
	if key := r.URL.Query().Get("key"); key != "" {
		a.gate.Clear(key)
	} else {
		a.gate.ClearAll()
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- helpers ---

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return err
		}
		return fmt.Errorf("%w: decode request body: %w", domain.ErrInvalidInput, err)
	}
	return nil
}

func (a *API) writeDomainError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrInvalidInput) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	a.logger.Error("api request failed", "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeError(w http.ResponseWriter, status int, msg string) {
	data, _ := json.Marshal(map[string]string{"error": msg})
	writeBody(w, status, data)
}

// writeJSON encodes v before committing the status. Encode failures are logged
// and answered with 500.
func (a *API) writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		a.logger.Error("encode api response failed", "error", err, "status", status)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeBody(w, status, data)
}

func writeBody(w http.ResponseWriter, status int, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(data, '\n')) //nolint:errcheck // client went away
}
