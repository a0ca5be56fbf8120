// Package throttle suppresses repeated notifications for the same key within
// a fixed time window.
package throttle

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/marine-watch/internal/observability"
)

// DefaultWindow is how long a key stays suppressed after an allowed send.
const DefaultWindow = 5 * time.Minute

// Option configures a Gate.
type Option func(*Gate)

// WithClock sets the time source.
func WithClock(c clockwork.Clock) Option {
	return func(g *Gate) { g.clock = c }
}

// WithWindow overrides DefaultWindow. Non-positive values are ignored.
func WithWindow(d time.Duration) Option {
	return func(g *Gate) {
		if d > 0 {
			g.window = d
		}
	}
}

// WithMetrics records gate decisions on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(g *Gate) { g.metrics = m }
}

// Gate remembers, per key, the last time a notification was let through.
// Only that single timestamp is kept; suppressed calls do not extend it.
type Gate struct {
	mu       sync.Mutex
	lastSent map[string]time.Time
	window   time.Duration
	clock    clockwork.Clock
	metrics  *observability.Metrics
}

// New creates a Gate with no recorded keys.
func New(opts ...Option) *Gate {
	g := &Gate{
		lastSent: make(map[string]time.Time),
		window:   DefaultWindow,
		clock:    clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// ShouldSend reports whether a notification for key may go out now. An allowed
// send records the current time; a suppressed one leaves the record untouched.
// A key is allowed again once strictly more than the window has elapsed.
func (g *Gate) ShouldSend(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.Now()
	if last, ok := g.lastSent[key]; ok && now.Sub(last) <= g.window {
		g.record("suppressed")
		return false
	}

	g.lastSent[key] = now
	g.record("sent")
	return true
}

// Clear forgets key.
func (g *Gate) Clear(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.lastSent, key)
}

// ClearAll forgets every key.
func (g *Gate) ClearAll() {
	g.mu.Lock()
	defer g.mu.Unlock()
	clear(g.lastSent)
}

// Window returns the suppression window.
func (g *Gate) Window() time.Duration { return g.window }

func (g *Gate) record(decision string) {
	if g.metrics != nil {
		g.metrics.NotificationDecisions.WithLabelValues(decision).Inc()
	}
}

// MakeKey derives a throttle key from a notification kind and its payload:
// kind_<zoneId> when a zone id is present, else kind_<vesselId>, else kind
// followed by the JSON encoding of data ("{}" when data is nil).
//
// encoding/json writes map keys in sorted order, so the fallback key does not
// depend on how the map was built.
func MakeKey(kind string, data map[string]any) string {
	if zone := field(data, "zoneId"); zone != "" {
		return kind + "_" + zone
	}
	if vessel := field(data, "vesselId"); vessel != "" {
		return kind + "_" + vessel
	}

	if data == nil {
		data = map[string]any{}
	}
	encoded, err := json.Marshal(data)
	if err != nil {
		// Unencodable payloads (channels, funcs, NaN) still need a stable key.
		return fmt.Sprintf("%s_%v", kind, data)
	}
	return kind + "_" + string(encoded)
}

func field(data map[string]any, name string) string {
	v, ok := data[name]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
