package telemetry

import (
	"log/slog"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Phase names for the physics tick, one per solver pass.
const (
	PhaseBoundary     = "boundary"
	PhaseScene        = "scene"
	PhaseExternal     = "external"
	PhaseHash         = "hash"
	PhaseSort         = "sort"
	PhaseOffsets      = "offsets"
	PhaseDensity      = "density"
	PhaseGridTransfer = "grid_transfer"
	PhaseRelax        = "relax"
	PhasePressure     = "pressure"
	PhaseViscosity    = "viscosity"
	PhaseIntegrate    = "integrate"
	PhaseTelemetry    = "telemetry"
)

// Phases lists every phase in pipeline order.
var Phases = []string{
	PhaseScene, PhaseBoundary, PhaseExternal, PhaseHash, PhaseSort, PhaseOffsets,
	PhaseDensity, PhaseRelax, PhaseGridTransfer, PhasePressure, PhaseViscosity,
	PhaseIntegrate, PhaseTelemetry,
}

var phaseIndex = func() map[string]int {
	m := make(map[string]int, len(Phases))
	for i, p := range Phases {
		m[p] = i
	}
	return m
}()

// tickSample is the cost of one tick, split by phase in Phases order.
type tickSample struct {
	total time.Duration
	spent []time.Duration
	calls []int
}

// PerfCollector times the passes of each tick over a rolling window of ticks.
// Substeps re-enter the solver passes, so a phase accumulates every entry of its tick.
type PerfCollector struct {
	ring   []tickSample
	next   int
	filled int

	cur       tickSample
	tickStart time.Time
	mark      time.Time
	active    int // running phase, -1 when none

	lastFrame time.Time
	frame     time.Duration
}

// NewPerfCollector keeps the last window ticks; window < 1 selects 60.
func NewPerfCollector(window int) *PerfCollector {
	if window < 1 {
		window = 60
	}
	p := &PerfCollector{ring: make([]tickSample, window), active: -1}
	for i := range p.ring {
		p.ring[i] = newTickSample()
	}
	p.cur = newTickSample()
	return p
}

func newTickSample() tickSample {
	return tickSample{
		spent: make([]time.Duration, len(Phases)),
		calls: make([]int, len(Phases)),
	}
}

// StartTick opens a new tick.
func (p *PerfCollector) StartTick() {
	for i := range p.cur.spent {
		p.cur.spent[i], p.cur.calls[i] = 0, 0
	}
	p.tickStart = time.Now()
	p.active = -1
}

// StartPhase closes the running phase and opens the named one.
// Names outside Phases close the running phase without opening another.
func (p *PerfCollector) StartPhase(phase string) {
	now := time.Now()
	p.closePhase(now)
	if i, ok := phaseIndex[phase]; ok {
		p.active = i
		p.cur.calls[i]++
	}
	p.mark = now
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.active >= 0 {
		p.cur.spent[p.active] += now.Sub(p.mark)
	}
	p.active = -1
}

// EndTick closes the tick and stores it in the window.
func (p *PerfCollector) EndTick() {
	now := time.Now()
	p.closePhase(now)
	p.cur.total = now.Sub(p.tickStart)

	slot := &p.ring[p.next]
	slot.total = p.cur.total
	copy(slot.spent, p.cur.spent)
	copy(slot.calls, p.cur.calls)

	p.next = (p.next + 1) % len(p.ring)
	if p.filled < len(p.ring) {
		p.filled++
	}
}

// RecordFrame marks a rendered frame.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.lastFrame.IsZero() {
		p.frame = now.Sub(p.lastFrame)
	}
	p.lastFrame = now
}

// PhaseTiming is the windowed cost of one phase.
type PhaseTiming struct {
	Phase string
	Avg   time.Duration // mean time per tick
	Calls float64       // mean entries per tick
	Share float64       // fraction of the mean tick, 0..1
}

// PerfStats summarises the window.
type PerfStats struct {
	Ticks          int
	AvgTick        time.Duration
	MinTick        time.Duration
	MaxTick        time.Duration
	TicksPerSecond float64
	FPS            float64

	// Phases entered at least once in the window, in pipeline order
	Phases []PhaseTiming
}

// Phase returns the timing of a phase, or zero if it was not entered.
func (s PerfStats) Phase(name string) PhaseTiming {
	for _, pt := range s.Phases {
		if pt.Phase == name {
			return pt
		}
	}
	return PhaseTiming{Phase: name}
}

// Stats aggregates the window.
func (p *PerfCollector) Stats() PerfStats {
	var s PerfStats
	if p.frame > 0 {
		s.FPS = float64(time.Second) / float64(p.frame)
	}
	if p.filled == 0 {
		return s
	}

	samples := p.ring[:p.filled]
	totals := make([]float64, len(samples))
	spent := make([]float64, len(samples))
	calls := make([]float64, len(samples))
	for i, ts := range samples {
		totals[i] = float64(ts.total)
	}

	mean := stat.Mean(totals, nil)
	s.Ticks = len(samples)
	s.AvgTick = time.Duration(mean)
	s.MinTick = time.Duration(floats.Min(totals))
	s.MaxTick = time.Duration(floats.Max(totals))
	if mean > 0 {
		s.TicksPerSecond = float64(time.Second) / mean
	}

	for ph, name := range Phases {
		for i, ts := range samples {
			spent[i] = float64(ts.spent[ph])
			calls[i] = float64(ts.calls[ph])
		}
		if floats.Sum(calls) == 0 {
			continue
		}
		pt := PhaseTiming{
			Phase: name,
			Avg:   time.Duration(stat.Mean(spent, nil)),
			Calls: stat.Mean(calls, nil),
		}
		if mean > 0 {
			pt.Share = float64(pt.Avg) / mean
		}
		s.Phases = append(s.Phases, pt)
	}
	return s
}

// LogStats logs the window summary with one share per entered phase.
func (s PerfStats) LogStats() {
	attrs := []any{
		"ticks", s.Ticks,
		"avg_tick_us", s.AvgTick.Microseconds(),
		"max_tick_us", s.MaxTick.Microseconds(),
		"ticks_per_sec", int(s.TicksPerSecond),
	}
	if s.FPS > 0 {
		attrs = append(attrs, "fps", int(s.FPS))
	}
	for _, pt := range s.Phases {
		if pt.Share > 0.001 {
			attrs = append(attrs, pt.Phase+"_pct", float64(int(pt.Share*1000))/10)
		}
	}
	slog.Info("perf", attrs...)
}

// PerfRow is one perf.csv record: a phase of one window. The "tick" row carries the whole tick.
type PerfRow struct {
	WindowEnd int32   `csv:"window_end"`
	Phase     string  `csv:"phase"`
	AvgUS     float64 `csv:"avg_us"`
	Calls     float64 `csv:"calls_per_tick"`
	Share     float64 `csv:"share"`
}

// Rows flattens the stats into perf.csv records, tick first.
func (s PerfStats) Rows(windowEnd int32) []PerfRow {
	rows := make([]PerfRow, 0, len(s.Phases)+1)
	rows = append(rows, PerfRow{
		WindowEnd: windowEnd,
		Phase:     "tick",
		AvgUS:     float64(s.AvgTick) / float64(time.Microsecond),
		Calls:     1,
		Share:     1,
	})
	for _, pt := range s.Phases {
		rows = append(rows, PerfRow{
			WindowEnd: windowEnd,
			Phase:     pt.Phase,
			AvgUS:     float64(pt.Avg) / float64(time.Microsecond),
			Calls:     pt.Calls,
			Share:     pt.Share,
		})
	}
	return rows
}
