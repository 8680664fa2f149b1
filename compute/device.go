// Package compute provides the data-parallel device the solver passes run on.
//
// A Device owns a pool of persistent worker goroutines. Dispatch splits an index
// range into chunks, hands them to the workers and returns only when every chunk
// has completed, so consecutive dispatches are separated by a barrier.
package compute

import (
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
)

// ErrReleased is returned when a buffer is used after Release.
var ErrReleased = errors.New("compute: buffer released")

// ErrDeviceClosed is returned when allocating on a closed device.
var ErrDeviceClosed = errors.New("compute: device closed")

// parallelThreshold is the minimum item count to fan out to the workers.
// Below this, running inline is faster than the channel round trip.
const parallelThreshold = 256

// Kernel processes the half-open item range [start, end).
type Kernel func(start, end int)

// workChunk represents a range of items for a worker to process.
type workChunk struct {
	start, end int
	kernel     Kernel
}

// Device runs kernels across a fixed pool of workers.
type Device struct {
	numWorkers int

	// Worker pool channels
	workChan chan workChunk // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool           // true if workers are running
	closed   bool

	mu         sync.Mutex // serialises Dispatch callers
	liveBufs   atomic.Int64
	dispatches atomic.Int64
}

// NewDevice creates a device with the given worker count (0 = GOMAXPROCS).
// Workers are started lazily on the first parallel dispatch.
func NewDevice(workers int) *Device {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Device{numWorkers: workers}
}

// Workers returns the size of the worker pool.
func (d *Device) Workers() int {
	return d.numWorkers
}

// startWorkers launches persistent worker goroutines.
func (d *Device) startWorkers() {
	if d.running {
		return
	}

	d.workChan = make(chan workChunk, d.numWorkers)
	d.doneChan = make(chan struct{}, d.numWorkers)
	d.stopChan = make(chan struct{})
	d.running = true

	for i := 0; i < d.numWorkers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
}

// stopWorkers signals all workers to exit and waits for them.
func (d *Device) stopWorkers() {
	if !d.running {
		return
	}

	close(d.stopChan)
	d.wg.Wait()
	close(d.workChan)
	close(d.doneChan)
	d.running = false
}

// worker runs in a goroutine, processing chunks until stopped.
func (d *Device) worker() {
	defer d.wg.Done()

	for {
		select {
		case <-d.stopChan:
			return
		case chunk, ok := <-d.workChan:
			if !ok {
				return
			}
			chunk.kernel(chunk.start, chunk.end)
			d.doneChan <- struct{}{}
		}
	}
}

// Dispatch runs kernel over [0, n) and blocks until all chunks are done.
// Chunks never overlap; a kernel must only write slots inside its own range
// (or slots it derives one-to-one from them).
func (d *Device) Dispatch(n int, kernel Kernel) {
	if n <= 0 {
		return
	}
	d.dispatches.Add(1)

	if n < parallelThreshold || d.numWorkers == 1 {
		kernel(0, n)
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	// Ensure workers are running
	if !d.running {
		d.startWorkers()
	}

	numWorkers := d.numWorkers
	chunkSize := (n + numWorkers - 1) / numWorkers

	// Dispatch chunks to workers
	chunksDispatched := 0
	for w := 0; w < numWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}

		d.workChan <- workChunk{start: start, end: end, kernel: kernel}
		chunksDispatched++
	}

	// Wait for all chunks to complete
	for i := 0; i < chunksDispatched; i++ {
		<-d.doneChan
	}
}

// Dispatches returns the number of Dispatch calls since creation.
func (d *Device) Dispatches() int64 {
	return d.dispatches.Load()
}

// LiveBuffers returns the number of buffers allocated and not yet released.
func (d *Device) LiveBuffers() int {
	return int(d.liveBufs.Load())
}

// Close stops the worker pool. Buffers still live are not freed.
func (d *Device) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopWorkers()
	d.closed = true
}
