package game

import (
	"log/slog"

	"github.com/pthm-cable/fluid/sim"
	"github.com/pthm-cable/fluid/telemetry"
)

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush(g.tick) {
		return
	}

	b := g.solver.Boundary()
	stats := g.collector.Flush(g.tick, telemetry.FluidSample{
		Positions:      g.solver.Positions(),
		Velocities:     g.solver.Velocities(),
		Densities:      g.solver.Densities(),
		Bounds:         g.solver.Params().Bounds,
		Polygons:       b.NumPolygons(),
		BoundaryPoints: b.NumPoints(),
		Substeps:       g.solver.Substeps(),
		CellDensity:    cellDensity(g.solver),
	})
	perfStats := g.perfCollector.Stats()

	// Call stats callback if provided
	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	// Log stats if enabled (console output)
	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	// Write to CSV if output manager is enabled
	if g.outputManager != nil {
		if err := g.outputManager.WriteTelemetry(stats); err != nil {
			slog.Error("failed to write telemetry", "error", err)
		}
		if err := g.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}

	// Check for bookmarks
	for _, bm := range g.bookmarkDetector.Check(stats) {
		if g.logStats {
			bm.LogBookmark()
		}
		if g.outputManager != nil {
			if err := g.outputManager.WriteBookmark(bm); err != nil {
				slog.Error("failed to write bookmark", "error", err)
			}
		}
	}
}

// cellDensity returns the grid densities of solvers that keep a grid.
func cellDensity(s sim.Solver) []float64 {
	if gs, ok := s.(interface{ CellDensity() []float64 }); ok {
		return gs.CellDensity()
	}
	return nil
}
