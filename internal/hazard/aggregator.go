// Package hazard keeps the in-memory registry of community-reported hazards.
package hazard

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/marine-watch/internal/domain"
	"github.com/couchcryptid/marine-watch/internal/geodesy"
	"github.com/couchcryptid/marine-watch/internal/observability"
)

const (
	// VerifyThreshold is the upvote count at which a hazard becomes verified.
	VerifyThreshold = 3

	// RemoveThreshold is the downvote count at which a hazard is removed.
	RemoveThreshold = 5

	// DefaultRadiusKm is the Nearby search radius used when none is given.
	DefaultRadiusKm = 50.0
)

// Listener receives the full registry contents after every mutation.
type Listener func(hazards []domain.Hazard)

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithClock sets the time source used for report timestamps.
func WithClock(c clockwork.Clock) Option {
	return func(a *Aggregator) { a.clock = c }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(a *Aggregator) { a.logger = l }
}

// WithMetrics records registry activity on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(a *Aggregator) { a.metrics = m }
}

// WithIDGenerator replaces the UUID generator for hazard ids.
func WithIDGenerator(gen func() string) Option {
	return func(a *Aggregator) { a.newID = gen }
}

type subscription struct {
	id       uint64
	listener Listener
}

// Aggregator owns the hazard registry. Callers only ever see copies.
//
// Every operation runs inside one critical section that covers both the
// mutation and the listener dispatch, so listeners observe mutations in order.
// Listeners must not call back into the Aggregator: doing so deadlocks.
type Aggregator struct {
	mu      sync.Mutex
	hazards map[string]*domain.Hazard
	order   []string // report order, for stable snapshots
	subs    []subscription
	nextSub uint64

	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics
	newID   func() string
}

// New creates an empty Aggregator.
func New(opts ...Option) *Aggregator {
	a := &Aggregator{
		hazards: make(map[string]*domain.Hazard),
		clock:   clockwork.NewRealClock(),
		logger:  slog.Default(),
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Report registers a new unverified hazard with no votes and notifies listeners.
func (a *Aggregator) Report(
	hazardType domain.HazardType,
	location domain.GeoPoint,
	severity domain.Severity,
	description, reportedBy string,
) domain.Hazard {
	a.mu.Lock()
	defer a.mu.Unlock()

	h := &domain.Hazard{
		ID:          a.newID(),
		Type:        hazardType,
		Location:    location,
		Severity:    severity,
		Description: description,
		ReportedBy:  reportedBy,
		Timestamp:   a.clock.Now().UnixMilli(),
	}
	a.hazards[h.ID] = h
	a.order = append(a.order, h.ID)

	a.logger.Info("hazard reported",
		"hazard_id", h.ID,
		"type", h.Type,
		"severity", h.Severity,
		"lat", h.Location.Latitude,
		"lon", h.Location.Longitude,
	)
	if a.metrics != nil {
		a.metrics.HazardsReported.WithLabelValues(string(h.Type)).Inc()
		a.metrics.HazardsActive.Set(float64(len(a.hazards)))
	}

	a.notifyLocked()
	return *h
}

// Upvote adds one upvote. Reaching VerifyThreshold verifies the hazard for
// good. Unknown ids are ignored and do not notify.
func (a *Aggregator) Upvote(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	h, ok := a.hazards[id]
	if !ok {
		a.logger.Debug("upvote for unknown hazard ignored", "hazard_id", id)
		return
	}

	h.Upvotes++
	if a.metrics != nil {
		a.metrics.HazardVotes.WithLabelValues("up").Inc()
	}
	if h.Upvotes >= VerifyThreshold && !h.Verified {
		h.Verified = true
		a.logger.Info("hazard verified", "hazard_id", id, "upvotes", h.Upvotes)
		if a.metrics != nil {
			a.metrics.HazardsVerified.Inc()
		}
	}

	a.notifyLocked()
}

// Downvote adds one downvote. Reaching RemoveThreshold removes the hazard
// permanently, verified or not. Unknown ids are ignored and do not notify.
func (a *Aggregator) Downvote(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	h, ok := a.hazards[id]
	if !ok {
		a.logger.Debug("downvote for unknown hazard ignored", "hazard_id", id)
		return
	}

	h.Downvotes++
	if a.metrics != nil {
		a.metrics.HazardVotes.WithLabelValues("down").Inc()
	}
	if h.Downvotes >= RemoveThreshold {
		a.removeLocked(id)
		a.logger.Info("hazard removed", "hazard_id", id, "downvotes", h.Downvotes, "verified", h.Verified)
		if a.metrics != nil {
			a.metrics.HazardsRemoved.Inc()
			a.metrics.HazardsActive.Set(float64(len(a.hazards)))
		}
	}

	a.notifyLocked()
}

// Nearby returns copies of every hazard within radiusKm of center, inclusive.
// A negative radius means DefaultRadiusKm; zero matches only hazards at center.
func (a *Aggregator) Nearby(center domain.GeoPoint, radiusKm float64) []domain.Hazard {
	if radiusKm < 0 {
		radiusKm = DefaultRadiusKm
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]domain.Hazard, 0)
	for _, id := range a.order {
		h := a.hazards[id]
		if geodesy.DistanceKm(center, h.Location) <= radiusKm {
			out = append(out, *h)
		}
	}
	return out
}

// Get returns a copy of the hazard with the given id.
func (a *Aggregator) Get(id string) (domain.Hazard, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	h, ok := a.hazards[id]
	if !ok {
		return domain.Hazard{}, false
	}
	return *h, true
}

// All returns copies of every registered hazard in report order.
func (a *Aggregator) All() []domain.Hazard {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshotLocked()
}

// Len returns the number of registered hazards.
func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.hazards)
}

// Subscribe registers l for change notifications. The returned function
// deregisters it; calling it more than once is a no-op.
func (a *Aggregator) Subscribe(l Listener) (unsubscribe func()) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.nextSub++
	id := a.nextSub
	a.subs = append(a.subs, subscription{id: id, listener: l})

	var once sync.Once
	return func() {
		once.Do(func() {
			a.mu.Lock()
			defer a.mu.Unlock()
			i := slices.IndexFunc(a.subs, func(s subscription) bool { return s.id == id })
			if i >= 0 {
				a.subs = slices.Delete(a.subs, i, i+1)
			}
		})
	}
}

func (a *Aggregator) removeLocked(id string) {
	delete(a.hazards, id)
	if i := slices.Index(a.order, id); i >= 0 {
		a.order = slices.Delete(a.order, i, i+1)
	}
}

func (a *Aggregator) snapshotLocked() []domain.Hazard {
	out := make([]domain.Hazard, 0, len(a.order))
	for _, id := range a.order {
		out = append(out, *a.hazards[id])
	}
	return out
}

// notifyLocked gives every listener its own copy of the registry.
func (a *Aggregator) notifyLocked() {
	for _, s := range a.subs {
		s.listener(a.snapshotLocked())
	}
}
