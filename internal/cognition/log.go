package cognition

// DefaultLogCapacity bounds the transition log. The log would otherwise
// grow for the whole page session; older records are evicted once the
// capacity is reached.
const DefaultLogCapacity = 256

// transitionLog is a fixed-capacity FIFO of accepted transitions.
// Not safe for concurrent use — caller must synchronize.
type transitionLog struct {
	buf      []Transition
	capacity int
	head     int // next write position
	count    int
}

func newTransitionLog(capacity int) *transitionLog {
	return &transitionLog{
		buf:      make([]Transition, capacity),
		capacity: capacity,
	}
}

func (l *transitionLog) push(t Transition) {
	l.buf[l.head] = t
	l.head = (l.head + 1) % l.capacity
	if l.count < l.capacity {
		l.count++
	}
}

// items returns the retained records, oldest first. The slice is a copy.
func (l *transitionLog) items() []Transition {
	if l.count == 0 {
		return nil
	}

	result := make([]Transition, l.count)
	// Oldest item is at (head - count) mod capacity
	start := (l.head - l.count + l.capacity) % l.capacity
	for i := 0; i < l.count; i++ {
		result[i] = l.buf[(start+i)%l.capacity]
	}
	return result
}

func (l *transitionLog) len() int {
	return l.count
}
