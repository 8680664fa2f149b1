package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkEnergySpike BookmarkType = "energy_spike"
	BookmarkLeak        BookmarkType = "leak"
	BookmarkSettled     BookmarkType = "settled"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Tick        int32        `csv:"tick"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// BookmarkDetector detects interesting moments in the simulation.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	lastOutOfBounds     int
	settledWindowsCount int // consecutive calm windows without pointer input
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5 // minimum for settle detection
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	// Energy spike: kinetic energy > 3x rolling average
	if b := bd.checkEnergySpike(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	// Leak: particles escaped the world bounds
	if b := bd.checkLeak(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	// Settled: steady energy over 5 windows with no pointer forcing
	if b := bd.checkSettled(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	bd.addToHistory(stats)
	bd.lastOutOfBounds = stats.OutOfBounds

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []WindowStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

func (bd *BookmarkDetector) checkEnergySpike(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total float64
	for _, h := range history {
		total += h.KineticEnergy
	}
	avg := total / float64(len(history))
	if avg <= 0 {
		return nil
	}

	if stats.KineticEnergy > avg*3 && stats.KineticEnergy > 1 {
		return &Bookmark{
			Type:        BookmarkEnergySpike,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Kinetic energy %.1f is %.1fx average (%.1f)", stats.KineticEnergy, stats.KineticEnergy/avg, avg),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkLeak(stats WindowStats) *Bookmark {
	if stats.OutOfBounds == 0 || bd.lastOutOfBounds > 0 {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkLeak,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("%d particles outside the world bounds", stats.OutOfBounds),
	}
}

func (bd *BookmarkDetector) checkSettled(stats WindowStats) *Bookmark {
	if stats.AttractTicks > 0 || stats.RepelTicks > 0 {
		bd.settledWindowsCount = 0
		return nil
	}

	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	// Energy variation against the last three windows
	recent := history
	if len(recent) > 3 {
		recent = recent[len(recent)-3:]
	}
	lo, hi := stats.KineticEnergy, stats.KineticEnergy
	for _, h := range recent {
		lo = min(lo, h.KineticEnergy)
		hi = max(hi, h.KineticEnergy)
	}

	if hi-lo <= 0.1*hi {
		bd.settledWindowsCount++
	} else {
		bd.settledWindowsCount = 0
	}

	if bd.settledWindowsCount == 5 { // trigger exactly once at 5 windows
		return &Bookmark{
			Type:        BookmarkSettled,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Fluid settled at kinetic energy %.2f over 5+ windows", stats.KineticEnergy),
		}
	}

	return nil
}
