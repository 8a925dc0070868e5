package storage

import "market-confluence/src/models"

const defaultRingCapacity = 1000

// -----------------------------------------------------------------------------
// RingBuffer is a fixed-size circular buffer of confluence events.
// True ring buffer - no resizing on append, the oldest event is overwritten.
// -----------------------------------------------------------------------------

type RingBuffer struct {
	data     []models.MConfluenceEvent
	capacity int
	index    int // Next write position
	size     int // Current number of elements
}

// -----------------------------------------------------------------------------

// NewRingBuffer creates a new buffer with fixed capacity
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity <= 0 {
		capacity = defaultRingCapacity
	}

	return &RingBuffer{
		data:     make([]models.MConfluenceEvent, capacity),
		capacity: capacity,
	}
}

// -----------------------------------------------------------------------------

// Append adds one event, overwriting the oldest when full.
func (rb *RingBuffer) Append(ev models.MConfluenceEvent) {
	rb.data[rb.index] = ev
	rb.index = (rb.index + 1) % rb.capacity

	// Update size (never exceeds capacity)
	if rb.size < rb.capacity {
		rb.size++
	}
}

// -----------------------------------------------------------------------------

// GetLatest returns up to n events, newest first.
func (rb *RingBuffer) GetLatest(n int) []models.MConfluenceEvent {
	if rb.size == 0 || n <= 0 {
		return []models.MConfluenceEvent{}
	}
	if n > rb.size {
		n = rb.size
	}

	result := make([]models.MConfluenceEvent, n)
	for i := 0; i < n; i++ {
		// latest data is at index-1
		idx := (rb.index - 1 - i + rb.capacity) % rb.capacity
		result[i] = rb.data[idx]
	}
	return result
}

// -----------------------------------------------------------------------------

// GetAll returns all events in insertion order (oldest to newest)
func (rb *RingBuffer) GetAll() []models.MConfluenceEvent {
	if rb.size == 0 {
		return []models.MConfluenceEvent{}
	}

	result := make([]models.MConfluenceEvent, rb.size)

	// Calculate start index (oldest element)
	startIdx := 0
	if rb.size == rb.capacity {
		// Buffer is full, oldest is at current index (wrap-around)
		startIdx = rb.index
	}

	for i := 0; i < rb.size; i++ {
		result[i] = rb.data[(startIdx+i)%rb.capacity]
	}
	return result
}

// -----------------------------------------------------------------------------

// Retain keeps only the events for which keep returns true, preserving order.
// It returns how many were dropped.
func (rb *RingBuffer) Retain(keep func(models.MConfluenceEvent) bool) int {
	all := rb.GetAll()
	rb.Clear()
	dropped := 0
	for _, ev := range all {
		if keep(ev) {
			rb.Append(ev)
		} else {
			dropped++
		}
	}
	return dropped
}

// -----------------------------------------------------------------------------

// Size returns current number of elements
func (rb *RingBuffer) Size() int {
	return rb.size
}

// Capacity returns buffer capacity (fixed)
func (rb *RingBuffer) Capacity() int {
	return rb.capacity
}

// IsFull returns whether buffer is full
func (rb *RingBuffer) IsFull() bool {
	return rb.size == rb.capacity
}

// -----------------------------------------------------------------------------

// Clear resets the buffer
func (rb *RingBuffer) Clear() {
	var zero models.MConfluenceEvent
	for i := range rb.data {
		rb.data[i] = zero
	}
	rb.index = 0
	rb.size = 0
}
