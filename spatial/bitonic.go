package spatial

import (
	"math/bits"

	"github.com/pthm-cable/fluid/compute"
)

// less orders entries by hash then key; the particle index does not participate.
func less(a, b Entry) bool {
	if a.Hash != b.Hash {
		return a.Hash < b.Hash
	}
	return a.Key < b.Key
}

// BitonicSort sorts a power-of-two length slice in place. Each (k, j) stage is one
// dispatch over len/2 disjoint compare-and-swap pairs.
func BitonicSort(dev *compute.Device, entries []Entry) {
	n := len(entries)
	if n&(n-1) != 0 {
		panic("spatial: bitonic sort length must be a power of two")
	}
	pairs := n / 2

	for k := 2; k <= n; k <<= 1 {
		for j := k >> 1; j > 0; j >>= 1 {
			dev.Dispatch(pairs, func(start, end int) {
				for p := start; p < end; p++ {
					i := ((p &^ (j - 1)) << 1) | (p & (j - 1))
					l := i | j
					a, b := entries[i], entries[l]
					if i&k == 0 {
						if less(b, a) {
							entries[i], entries[l] = b, a
						}
					} else if less(a, b) {
						entries[i], entries[l] = b, a
					}
				}
			})
		}
	}
}

// SortPasses returns the number of dispatches BitonicSort issues for n entries.
func SortPasses(n int) int {
	if n < 2 {
		return 0
	}
	lg := bits.Len(uint(n)) - 1
	return lg * (lg + 1) / 2
}
