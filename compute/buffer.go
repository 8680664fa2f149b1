package compute

// Buffer is a fixed-length slice allocated against a Device.
// Every Buffer must be released exactly once; the device counts live buffers.
type Buffer[T any] struct {
	dev  *Device
	data []T
}

// NewBuffer allocates a zeroed buffer of n elements on dev.
func NewBuffer[T any](dev *Device, n int) (*Buffer[T], error) {
	if dev.closed {
		return nil, ErrDeviceClosed
	}
	dev.liveBufs.Add(1)
	return &Buffer[T]{dev: dev, data: make([]T, n)}, nil
}

// Data returns the backing slice. It is nil after Release.
func (b *Buffer[T]) Data() []T {
	if b == nil {
		return nil
	}
	return b.data
}

// Len returns the element count, 0 after Release.
func (b *Buffer[T]) Len() int {
	if b == nil {
		return 0
	}
	return len(b.data)
}

// Fill sets every element to v.
func (b *Buffer[T]) Fill(v T) {
	for i := range b.data {
		b.data[i] = v
	}
}

// Swap exchanges the contents of two equally sized buffers without copying.
func (b *Buffer[T]) Swap(o *Buffer[T]) {
	b.data, o.data = o.data, b.data
}

// Release returns the buffer to the device. Releasing twice returns ErrReleased.
// A nil buffer releases as a no-op so partially built buffer sets can be torn down.
func (b *Buffer[T]) Release() error {
	if b == nil {
		return nil
	}
	if b.dev == nil {
		return ErrReleased
	}
	b.dev.liveBufs.Add(-1)
	b.dev = nil
	b.data = nil
	return nil
}
