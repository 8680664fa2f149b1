package telemetry

import "testing"

func hasBookmark(bookmarks []Bookmark, typ BookmarkType) bool {
	for _, bm := range bookmarks {
		if bm.Type == typ {
			return true
		}
	}
	return false
}

func TestBookmarkDetector_EnergySpike(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{WindowEndTick: int32(i * 30), KineticEnergy: 10})
	}

	bookmarks := bd.Check(WindowStats{WindowEndTick: 150, KineticEnergy: 50})
	if !hasBookmark(bookmarks, BookmarkEnergySpike) {
		t.Error("expected energy_spike bookmark")
	}

	bookmarks = bd.Check(WindowStats{WindowEndTick: 180, KineticEnergy: 12})
	if hasBookmark(bookmarks, BookmarkEnergySpike) {
		t.Error("unexpected energy_spike for a normal window")
	}
}

func TestBookmarkDetector_Leak(t *testing.T) {
	bd := NewBookmarkDetector(10)

	if hasBookmark(bd.Check(WindowStats{OutOfBounds: 0}), BookmarkLeak) {
		t.Error("leak reported without escaped particles")
	}
	if !hasBookmark(bd.Check(WindowStats{OutOfBounds: 3}), BookmarkLeak) {
		t.Error("expected leak bookmark")
	}
	// Only the onset is reported
	if hasBookmark(bd.Check(WindowStats{OutOfBounds: 4}), BookmarkLeak) {
		t.Error("leak reported twice in a row")
	}
}

func TestBookmarkDetector_Settled(t *testing.T) {
	tests := []struct {
		name    string
		attract bool
		want    bool
	}{
		{"calm fluid settles", false, true},
		{"pointer input prevents settle", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bd := NewBookmarkDetector(10)
			found := 0
			for i := 0; i < 12; i++ {
				stats := WindowStats{WindowEndTick: int32(i), KineticEnergy: 2}
				if tt.attract {
					stats.AttractTicks = 1
				}
				if hasBookmark(bd.Check(stats), BookmarkSettled) {
					found++
				}
			}
			if tt.want && found != 1 {
				t.Errorf("settled reported %d times, want exactly once", found)
			}
			if !tt.want && found != 0 {
				t.Errorf("settled reported %d times, want none", found)
			}
		})
	}
}
