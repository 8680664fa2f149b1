// Package spatial provides the uniform hashed grid used for particle neighbour search.
//
// Particles are bucketed by cell, the cells are hashed into a table the size of the
// entry array, and the entries are sorted by (hash, key) so that every bucket is one
// contiguous run. An offset table maps each hash to the start of its run.
package spatial

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/fluid/compute"
)

// Sentinel marks padding entries and empty offsets.
const Sentinel = math.MaxUint32

// Hash primes for the two cell axes.
const (
	primeX = 15823
	primeY = 9737333
)

// Entry is one particle's slot in the sorted hash table.
type Entry struct {
	Hash  uint32 // Key % numEntries
	Key   uint32 // cell key, distinct cells may share a hash
	Index uint32 // particle index
}

// sentinelEntry compares greater than every real entry.
var sentinelEntry = Entry{Hash: Sentinel, Key: Sentinel, Index: Sentinel}

// Grid is the hashed neighbour grid for a fixed particle count.
type Grid struct {
	dev          *compute.Device
	cellSize     float64
	numParticles int
	numEntries   int

	entries *compute.Buffer[Entry]
	offsets *compute.Buffer[uint32]
}

// NextPow2 returns the smallest power of two >= n (1 for n <= 1).
func NextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// NewGrid allocates entry and offset tables sized to NextPow2(numParticles).
func NewGrid(dev *compute.Device, numParticles int, cellSize float64) (*Grid, error) {
	if numParticles < 1 {
		return nil, fmt.Errorf("spatial: particle count must be >= 1, got %d", numParticles)
	}
	if cellSize <= 0 {
		return nil, fmt.Errorf("spatial: cell size must be > 0, got %g", cellSize)
	}

	g := &Grid{
		dev:          dev,
		cellSize:     cellSize,
		numParticles: numParticles,
		numEntries:   NextPow2(numParticles),
	}

	var err error
	if g.entries, err = compute.NewBuffer[Entry](dev, g.numEntries); err != nil {
		return nil, fmt.Errorf("spatial: allocating entries: %w", err)
	}
	if g.offsets, err = compute.NewBuffer[uint32](dev, g.numEntries); err != nil {
		_ = g.entries.Release()
		return nil, fmt.Errorf("spatial: allocating offsets: %w", err)
	}
	g.entries.Fill(sentinelEntry)
	g.offsets.Fill(uint32(g.numEntries))
	return g, nil
}

// Release frees the grid tables.
func (g *Grid) Release() error {
	err1 := g.entries.Release()
	err2 := g.offsets.Release()
	g.entries, g.offsets = nil, nil
	if err1 != nil {
		return err1
	}
	return err2
}

// CellSize returns the grid cell edge length.
func (g *Grid) CellSize() float64 { return g.cellSize }

// NumEntries returns the padded table size.
func (g *Grid) NumEntries() int { return g.numEntries }

// Entries returns the entry table (sorted after Sort).
func (g *Grid) Entries() []Entry { return g.entries.Data() }

// Offsets returns the hash to run-start table.
func (g *Grid) Offsets() []uint32 { return g.offsets.Data() }

// Cell returns the integer cell containing p.
func Cell(p r2.Vec, cellSize float64) (cx, cy int32) {
	return int32(math.Floor(p.X / cellSize)), int32(math.Floor(p.Y / cellSize))
}

// CellKey mixes a cell coordinate into a 32-bit key. Arithmetic wraps.
func CellKey(cx, cy int32) uint32 {
	return uint32(cx)*primeX ^ uint32(cy)*primeY
}

// Build runs the hash, sort and offset phases in order.
func (g *Grid) Build(points []r2.Vec) {
	g.UpdateHashes(points)
	g.Sort()
	g.UpdateOffsets()
}

// UpdateHashes writes one entry per point and resets the padding to the sentinel.
func (g *Grid) UpdateHashes(points []r2.Vec) {
	entries := g.entries.Data()
	n := g.numParticles
	mod := uint32(g.numEntries)
	cellSize := g.cellSize

	g.dev.Dispatch(g.numEntries, func(start, end int) {
		for i := start; i < end; i++ {
			if i >= n {
				entries[i] = sentinelEntry
				continue
			}
			cx, cy := Cell(points[i], cellSize)
			key := CellKey(cx, cy)
			entries[i] = Entry{Hash: key % mod, Key: key, Index: uint32(i)}
		}
	})
}

// Sort orders the entries by (Hash, Key) with the bitonic network.
func (g *Grid) Sort() {
	BitonicSort(g.dev, g.entries.Data())
}

// UpdateOffsets resets the offset table and records the first index of every hash run.
func (g *Grid) UpdateOffsets() {
	entries := g.entries.Data()
	offsets := g.offsets.Data()
	empty := uint32(g.numEntries)

	g.dev.Dispatch(g.numEntries, func(start, end int) {
		for i := start; i < end; i++ {
			offsets[i] = empty
		}
	})
	g.dev.Dispatch(g.numEntries, func(start, end int) {
		for i := start; i < end; i++ {
			h := entries[i].Hash
			if h == Sentinel {
				continue
			}
			if i == 0 || entries[i-1].Hash != h {
				offsets[h] = uint32(i)
			}
		}
	})
}

// ForEachNeighbour calls fn with the index of every particle in the 3x3 block of
// cells around p. Candidates are not radius filtered; p's own particle is included.
func (g *Grid) ForEachNeighbour(p r2.Vec, fn func(j int)) {
	entries := g.entries.Data()
	offsets := g.offsets.Data()
	mod := uint32(g.numEntries)
	cx, cy := Cell(p, g.cellSize)

	var seen [9]uint32
	nSeen := 0

	for ox := int32(-1); ox <= 1; ox++ {
	cells:
		for oy := int32(-1); oy <= 1; oy++ {
			key := CellKey(cx+ox, cy+oy)
			for _, k := range seen[:nSeen] {
				if k == key {
					continue cells
				}
			}
			seen[nSeen] = key
			nSeen++

			hash := key % mod
			for i := offsets[hash]; i < mod; i++ {
				e := entries[i]
				if e.Hash != hash {
					break
				}
				if e.Key == key {
					fn(int(e.Index))
				}
			}
		}
	}
}
