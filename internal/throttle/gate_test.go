package throttle

import (
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/couchcryptid/marine-watch/internal/observability"
)

func newTestGate(opts ...Option) (*Gate, *clockwork.FakeClock, *observability.Metrics) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, time.June, 3, 8, 0, 0, 0, time.UTC))
	metrics := observability.NewMetricsForTesting()
	g := New(append([]Option{WithClock(clock), WithMetrics(metrics)}, opts...)...)
	return g, clock, metrics
}

func TestShouldSend_Window(t *testing.T) {
	g, clock, metrics := newTestGate()

	assert.True(t, g.ShouldSend("x"))
	assert.False(t, g.ShouldSend("x"))

	clock.Advance(300_001 * time.Millisecond)
	assert.True(t, g.ShouldSend("x"))
	assert.False(t, g.ShouldSend("x"))

	assert.InDelta(t, 2, testutil.ToFloat64(metrics.NotificationDecisions.WithLabelValues("sent")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.NotificationDecisions.WithLabelValues("suppressed")), 0)
}

func TestShouldSend_ExactWindowStillSuppressed(t *testing.T) {
	g, clock, _ := newTestGate()

	assert.True(t, g.ShouldSend("x"))
	clock.Advance(DefaultWindow)
	assert.False(t, g.ShouldSend("x"))
	clock.Advance(time.Millisecond)
	assert.True(t, g.ShouldSend("x"))
}

func TestShouldSend_SuppressedCallsDoNotExtendWindow(t *testing.T) {
	g, clock, _ := newTestGate()

	assert.True(t, g.ShouldSend("x"))
	clock.Advance(4 * time.Minute)
	assert.False(t, g.ShouldSend("x"))
	clock.Advance(61 * time.Second)
	assert.True(t, g.ShouldSend("x"), "window runs from the last allowed send")
}

func TestShouldSend_KeysAreIndependent(t *testing.T) {
	g, _, _ := newTestGate()

	assert.True(t, g.ShouldSend("storm_Z1"))
	assert.True(t, g.ShouldSend("storm_Z2"))
	assert.False(t, g.ShouldSend("storm_Z1"))
}

func TestWithWindow(t *testing.T) {
	g, clock, _ := newTestGate(WithWindow(time.Minute))
	assert.Equal(t, time.Minute, g.Window())

	assert.True(t, g.ShouldSend("x"))
	clock.Advance(time.Minute + time.Millisecond)
	assert.True(t, g.ShouldSend("x"))

	ignored, _, _ := newTestGate(WithWindow(0))
	assert.Equal(t, DefaultWindow, ignored.Window())
}

func TestClear(t *testing.T) {
	g, _, _ := newTestGate()

	g.ShouldSend("a")
	g.ShouldSend("b")

	g.Clear("a")
	assert.True(t, g.ShouldSend("a"))
	assert.False(t, g.ShouldSend("b"))

	g.Clear("never-seen")
}

func TestClearAll(t *testing.T) {
	g, _, _ := newTestGate()

	g.ShouldSend("a")
	g.ShouldSend("b")
	g.ClearAll()

	assert.True(t, g.ShouldSend("a"))
	assert.True(t, g.ShouldSend("b"))
}

func TestShouldSend_ConcurrentSingleWinner(t *testing.T) {
	g, _, _ := newTestGate()

	var allowed atomic.Int32
	var wg sync.WaitGroup
	for range 64 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.ShouldSend("sos_V7") {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), allowed.Load())
}

func TestMakeKey(t *testing.T) {
	tests := []struct {
		name     string
		kind     string
		data     map[string]any
		expected string
	}{
		{"zone id", "alert", map[string]any{"zoneId": "Z1"}, "alert_Z1"},
		{"vessel id", "alert", map[string]any{"vesselId": "V1"}, "alert_V1"},
		{"zone wins over vessel", "alert", map[string]any{"zoneId": "Z1", "vesselId": "V1"}, "alert_Z1"},
		{"nil data", "alert", nil, "alert_{}"},
		{"empty data", "alert", map[string]any{}, "alert_{}"},
		{"empty zone falls through", "alert", map[string]any{"zoneId": "", "vesselId": "V9"}, "alert_V9"},
		{"numeric vessel id", "sos", map[string]any{"vesselId": 244660000}, "sos_244660000"},
		{"fallback serialization", "weather", map[string]any{"wind": 35, "area": "north"}, `weather_{"area":"north","wind":35}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MakeKey(tt.kind, tt.data))
		})
	}
}

func TestMakeKey_OrderIndependent(t *testing.T) {
	a := map[string]any{}
	a["b"] = 2
	a["a"] = 1
	a["c"] = map[string]any{"y": true, "x": false}

	b := map[string]any{
		"c": map[string]any{"x": false, "y": true},
		"a": 1,
		"b": 2,
	}

	assert.Equal(t, MakeKey("k", a), MakeKey("k", b))
}

func TestMakeKey_Unencodable(t *testing.T) {
	key := MakeKey("k", map[string]any{"v": math.NaN()})
	assert.Equal(t, key, MakeKey("k", map[string]any{"v": math.NaN()}))
	assert.Contains(t, key, "k_")
}
