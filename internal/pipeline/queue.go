package pipeline

// FrameQueue is a fixed-capacity FIFO of stereo frames. It never grows and
// holds no lock; one goroutine owns it. Capacity is rounded up to a power of
// two so positions wrap with a mask.
type FrameQueue struct {
	left  []float64
	right []float64
	mask  int
	read  int
	size  int
}

// NewFrameQueue creates a queue holding at least capacity frames.
func NewFrameQueue(capacity int) *FrameQueue {
	capacity = max(capacity, minQueueCapacity)
	cap2 := 1
	for cap2 < capacity {
		cap2 <<= 1
	}
	return &FrameQueue{
		left:  make([]float64, cap2),
		right: make([]float64, cap2),
		mask:  cap2 - 1,
	}
}

// Write appends frames from left and right and returns how many fit.
func (q *FrameQueue) Write(left, right []float64) int {
	n := min(len(left), len(right), q.Space())
	for i := range n {
		pos := (q.read + q.size + i) & q.mask
		q.left[pos] = left[i]
		q.right[pos] = right[i]
	}
	q.size += n
	return n
}

// Read moves up to len(left) frames into left and right and returns the
// number moved.
func (q *FrameQueue) Read(left, right []float64) int {
	n := min(len(left), len(right), q.size)
	for i := range n {
		pos := (q.read + i) & q.mask
		left[i] = q.left[pos]
		right[i] = q.right[pos]
	}
	q.read = (q.read + n) & q.mask
	q.size -= n
	return n
}

// Available returns the number of queued frames.
func (q *FrameQueue) Available() int {
	return q.size
}

// Space returns the number of frames that can still be written.
func (q *FrameQueue) Space() int {
	return len(q.left) - q.size
}

// Capacity returns the total number of frames the queue holds.
func (q *FrameQueue) Capacity() int {
	return len(q.left)
}

// Clear drops every queued frame.
func (q *FrameQueue) Clear() {
	q.read = 0
	q.size = 0
}
