package spatial

import (
	"math/rand"
	"sort"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/fluid/compute"
)

func randomPoints(rng *rand.Rand, n int, extent float64) []r2.Vec {
	pts := make([]r2.Vec, n)
	for i := range pts {
		pts[i] = r2.Vec{
			X: (rng.Float64()*2 - 1) * extent,
			Y: (rng.Float64()*2 - 1) * extent,
		}
	}
	return pts
}

func newTestGrid(t *testing.T, dev *compute.Device, n int, cellSize float64) *Grid {
	t.Helper()
	g, err := NewGrid(dev, n, cellSize)
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}
	t.Cleanup(func() { _ = g.Release() })
	return g
}

func TestNextPow2(t *testing.T) {
	tests := []struct {
		n, want int
	}{
		{0, 1},
		{1, 1},
		{2, 2},
		{3, 4},
		{5, 8},
		{1000, 1024},
		{1024, 1024},
		{1025, 2048},
		{20000, 32768},
	}
	for _, tt := range tests {
		if got := NextPow2(tt.n); got != tt.want {
			t.Errorf("NextPow2(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

func TestNewGridSizing(t *testing.T) {
	dev := compute.NewDevice(2)
	defer dev.Close()

	for _, n := range []int{1, 7, 64, 1000} {
		g := newTestGrid(t, dev, n, 0.5)
		want := NextPow2(n)
		if g.NumEntries() != want || len(g.Entries()) != want || len(g.Offsets()) != want {
			t.Errorf("n=%d: sizes entries=%d offsets=%d, want %d",
				n, len(g.Entries()), len(g.Offsets()), want)
		}
	}

	if _, err := NewGrid(dev, 0, 1); err == nil {
		t.Error("NewGrid(0 particles) should fail")
	}
	if _, err := NewGrid(dev, 10, 0); err == nil {
		t.Error("NewGrid(cell size 0) should fail")
	}
}

func TestCellKeyNegativeCells(t *testing.T) {
	cx, cy := Cell(r2.Vec{X: -0.1, Y: 0.1}, 1)
	if cx != -1 || cy != 0 {
		t.Fatalf("Cell(-0.1, 0.1) = (%d, %d), want (-1, 0)", cx, cy)
	}
	if CellKey(-1, 0) == CellKey(0, 0) {
		t.Error("adjacent cells across the origin share a key")
	}
	if CellKey(3, -7) != CellKey(3, -7) {
		t.Error("CellKey not deterministic")
	}
}

func TestSortOrderAndSentinels(t *testing.T) {
	dev := compute.NewDevice(4)
	defer dev.Close()

	rng := rand.New(rand.NewSource(1))
	const n = 1000
	pts := randomPoints(rng, n, 5)
	g := newTestGrid(t, dev, n, 0.3)

	g.UpdateHashes(pts)
	g.Sort()

	entries := g.Entries()
	for i := 1; i < len(entries); i++ {
		if less(entries[i], entries[i-1]) {
			t.Fatalf("entries[%d] %+v sorts before entries[%d] %+v", i, entries[i], i-1, entries[i-1])
		}
	}
	for i := n; i < len(entries); i++ {
		if entries[i] != sentinelEntry {
			t.Fatalf("entries[%d] = %+v, want sentinel", i, entries[i])
		}
	}

	// Every particle index appears exactly once among the real entries
	seen := make([]bool, n)
	for _, e := range entries[:n] {
		if seen[e.Index] {
			t.Fatalf("particle %d appears twice", e.Index)
		}
		seen[e.Index] = true
	}
}

func TestSortPasses(t *testing.T) {
	tests := []struct {
		n, want int
	}{
		{1, 0},
		{2, 1},
		{4, 3},
		{1024, 55},
	}
	for _, tt := range tests {
		if got := SortPasses(tt.n); got != tt.want {
			t.Errorf("SortPasses(%d) = %d, want %d", tt.n, got, tt.want)
		}

		dev := compute.NewDevice(2)
		entries := make([]Entry, tt.n)
		BitonicSort(dev, entries)
		if got := int(dev.Dispatches()); got != tt.want {
			t.Errorf("BitonicSort(%d) dispatched %d passes, want %d", tt.n, got, tt.want)
		}
		dev.Close()
	}
}

func TestBitonicMatchesStdlibSort(t *testing.T) {
	dev := compute.NewDevice(3)
	defer dev.Close()

	rng := rand.New(rand.NewSource(7))
	entries := make([]Entry, 512)
	for i := range entries {
		// Small ranges force plenty of equal hashes
		entries[i] = Entry{Hash: uint32(rng.Intn(40)), Key: uint32(rng.Intn(5)), Index: uint32(i)}
	}
	want := append([]Entry(nil), entries...)
	sort.SliceStable(want, func(a, b int) bool { return less(want[a], want[b]) })

	BitonicSort(dev, entries)
	for i := range entries {
		if entries[i].Hash != want[i].Hash || entries[i].Key != want[i].Key {
			t.Fatalf("position %d: got (%d,%d), want (%d,%d)",
				i, entries[i].Hash, entries[i].Key, want[i].Hash, want[i].Key)
		}
	}
}

func TestOffsetsRoundTrip(t *testing.T) {
	dev := compute.NewDevice(4)
	defer dev.Close()

	rng := rand.New(rand.NewSource(3))
	const n = 700
	g := newTestGrid(t, dev, n, 0.25)
	g.Build(randomPoints(rng, n, 4))

	entries := g.Entries()
	offsets := g.Offsets()
	empty := uint32(g.NumEntries())

	present := make(map[uint32]bool)
	for i, e := range entries {
		if e.Hash == Sentinel {
			continue
		}
		present[e.Hash] = true
		start := offsets[e.Hash]
		if start == empty || int(start) > i {
			t.Fatalf("entry %d hash %d: offset %d does not precede it", i, e.Hash, start)
		}
		if entries[start].Hash != e.Hash {
			t.Fatalf("offset %d for hash %d points at hash %d", start, e.Hash, entries[start].Hash)
		}
		if start > 0 && entries[start-1].Hash == e.Hash {
			t.Fatalf("offset %d for hash %d is not the start of its run", start, e.Hash)
		}
	}
	for h, off := range offsets {
		if !present[uint32(h)] && off != empty {
			t.Errorf("offsets[%d] = %d for an absent hash, want %d", h, off, empty)
		}
	}
}

func TestNeighboursMatchBruteForce(t *testing.T) {
	dev := compute.NewDevice(4)
	defer dev.Close()

	const (
		n      = 200
		radius = 0.4
	)
	rng := rand.New(rand.NewSource(42))
	pts := randomPoints(rng, n, 2)
	g := newTestGrid(t, dev, n, radius)
	g.Build(pts)

	for i, p := range pts {
		got := make(map[int]int)
		g.ForEachNeighbour(p, func(j int) {
			if r2.Norm(r2.Sub(pts[j], p)) < radius {
				got[j]++
			}
		})

		for j, q := range pts {
			inside := r2.Norm(r2.Sub(q, p)) < radius
			switch {
			case inside && got[j] != 1:
				t.Fatalf("point %d: neighbour %d visited %d times, want 1", i, j, got[j])
			case !inside && got[j] != 0:
				t.Fatalf("point %d: %d reported but outside radius", i, j)
			}
		}
	}
}

func TestNeighboursSharedBucket(t *testing.T) {
	dev := compute.NewDevice(1)
	defer dev.Close()

	// Two particles: with a single hash bucket every cell collides
	pts := []r2.Vec{{X: 0.5, Y: 0.5}, {X: 10.5, Y: 10.5}}
	g := newTestGrid(t, dev, 1, 1)
	g.Build(pts[:1])

	count := 0
	g.ForEachNeighbour(pts[0], func(j int) { count++ })
	if count != 1 {
		t.Errorf("own cell visited %d times, want 1", count)
	}

	count = 0
	g.ForEachNeighbour(pts[1], func(j int) { count++ })
	if count != 0 {
		t.Errorf("far query found %d candidates through a shared bucket, want 0", count)
	}
}

func BenchmarkBuild(b *testing.B) {
	dev := compute.NewDevice(0)
	defer dev.Close()

	rng := rand.New(rand.NewSource(1))
	const n = 16384
	pts := randomPoints(rng, n, 8)
	g, err := NewGrid(dev, n, 0.25)
	if err != nil {
		b.Fatal(err)
	}
	defer g.Release()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		g.Build(pts)
	}
}
