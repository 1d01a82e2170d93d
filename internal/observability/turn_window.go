package observability

import (
	"math"
	"sort"
	"strings"
	"sync"
	"time"
)

// Turn phases observed by the conversation engine.
const (
	PhaseAssembleContext = "assemble_context"
	PhaseGenerateReply   = "generate_reply"
	PhasePersistExchange = "persist_exchange"
	PhaseTurnTotal       = "turn_total"
)

type TurnPhaseStats struct {
	Phase       string  `json:"phase"`
	Samples     int     `json:"samples"`
	LastMS      float64 `json:"last_ms"`
	AvgMS       float64 `json:"avg_ms"`
	P50MS       float64 `json:"p50_ms"`
	P95MS       float64 `json:"p95_ms"`
	TargetP95MS float64 `json:"target_p95_ms,omitempty"`
}

type TurnIndicator struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type TurnSnapshot struct {
	GeneratedAt time.Time        `json:"generated_at"`
	WindowSize  int              `json:"window_size"`
	Phases      []TurnPhaseStats `json:"phases"`
	Indicators  []TurnIndicator  `json:"indicators,omitempty"`
}

// TurnWindow keeps a rolling in-process view of recent turn timings, one
// ring buffer per phase. It backs the debug endpoint; the Prometheus
// histogram stays the source of truth for dashboards.
type TurnWindow struct {
	mu         sync.RWMutex
	maxSamples int
	phases     map[string]*phaseRing
	indicators map[string]int
}

type phaseRing struct {
	values []float64
	next   int
	filled bool
	last   float64
}

func NewTurnWindow(maxSamples int) *TurnWindow {
	if maxSamples <= 0 {
		maxSamples = 256
	}
	return &TurnWindow{
		maxSamples: maxSamples,
		phases:     make(map[string]*phaseRing),
		indicators: make(map[string]int),
	}
}

func (w *TurnWindow) Observe(phase string, d time.Duration) {
	if w == nil || phase == "" || d < 0 {
		return
	}
	ms := float64(d.Microseconds()) / 1000

	w.mu.Lock()
	defer w.mu.Unlock()

	ring, ok := w.phases[phase]
	if !ok {
		ring = &phaseRing{values: make([]float64, w.maxSamples)}
		w.phases[phase] = ring
	}
	ring.values[ring.next] = ms
	ring.last = ms
	ring.next++
	if ring.next >= len(ring.values) {
		ring.next = 0
		ring.filled = true
	}
}

func (w *TurnWindow) ObserveIndicator(name string) {
	if w == nil {
		return
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.indicators[name]++
}

func (w *TurnWindow) Snapshot() TurnSnapshot {
	if w == nil {
		return TurnSnapshot{GeneratedAt: time.Now().UTC()}
	}

	w.mu.RLock()
	defer w.mu.RUnlock()

	keys := make([]string, 0, len(w.phases))
	for phase := range w.phases {
		keys = append(keys, phase)
	}
	sort.Strings(keys)

	phases := make([]TurnPhaseStats, 0, len(keys))
	for _, phase := range keys {
		ring := w.phases[phase]
		n := ring.next
		if ring.filled {
			n = len(ring.values)
		}
		if n <= 0 {
			continue
		}
		samples := make([]float64, n)
		copy(samples, ring.values[:n])
		sort.Float64s(samples)

		sum := 0.0
		for _, v := range samples {
			sum += v
		}

		phases = append(phases, TurnPhaseStats{
			Phase:       phase,
			Samples:     n,
			LastMS:      round2(ring.last),
			AvgMS:       round2(sum / float64(n)),
			P50MS:       round2(quantile(samples, 0.50)),
			P95MS:       round2(quantile(samples, 0.95)),
			TargetP95MS: phaseTargetP95MS(phase),
		})
	}

	indicatorKeys := make([]string, 0, len(w.indicators))
	for name := range w.indicators {
		indicatorKeys = append(indicatorKeys, name)
	}
	sort.Strings(indicatorKeys)
	indicators := make([]TurnIndicator, 0, len(indicatorKeys))
	for _, name := range indicatorKeys {
		if w.indicators[name] <= 0 {
			continue
		}
		indicators = append(indicators, TurnIndicator{Name: name, Count: w.indicators[name]})
	}

	return TurnSnapshot{
		GeneratedAt: time.Now().UTC(),
		WindowSize:  w.maxSamples,
		Phases:      phases,
		Indicators:  indicators,
	}
}

func (w *TurnWindow) Reset() {
	if w == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.phases = make(map[string]*phaseRing)
	w.indicators = make(map[string]int)
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	idx := q * float64(len(sorted)-1)
	lo := int(math.Floor(idx))
	hi := int(math.Ceil(idx))
	if lo == hi {
		return sorted[lo]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func phaseTargetP95MS(phase string) float64 {
	switch phase {
	case PhaseAssembleContext:
		return 300
	case PhaseGenerateReply:
		return 2500
	case PhasePersistExchange:
		return 100
	case PhaseTurnTotal:
		return 3000
	default:
		return 0
	}
}
