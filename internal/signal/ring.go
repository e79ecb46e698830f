package signal

import "time"

// point is one timestamped pointer position.
type point struct {
	x, y int
	t    time.Time
}

// pointRing is a fixed-capacity FIFO of pointer samples. The oldest sample
// is overwritten when full.
// Not safe for concurrent use — caller must synchronize.
type pointRing struct {
	buf      []point
	capacity int
	head     int // next write position
	count    int
}

func newPointRing(capacity int) *pointRing {
	return &pointRing{
		buf:      make([]point, capacity),
		capacity: capacity,
	}
}

func (r *pointRing) push(p point) {
	r.buf[r.head] = p
	r.head = (r.head + 1) % r.capacity
	if r.count < r.capacity {
		r.count++
	}
}

// last returns the i-th most recent sample (0 = newest). The caller must
// ensure i < len().
func (r *pointRing) last(i int) point {
	idx := ((r.head-1-i)%r.capacity + r.capacity) % r.capacity
	return r.buf[idx]
}

// bounds returns the bounding box width and height over all buffered
// samples. ok is false when the ring is empty.
func (r *pointRing) bounds() (w, h int, ok bool) {
	if r.count == 0 {
		return 0, 0, false
	}
	first := r.last(0)
	minX, maxX := first.x, first.x
	minY, maxY := first.y, first.y
	for i := 1; i < r.count; i++ {
		p := r.last(i)
		if p.x < minX {
			minX = p.x
		}
		if p.x > maxX {
			maxX = p.x
		}
		if p.y < minY {
			minY = p.y
		}
		if p.y > maxY {
			maxY = p.y
		}
	}
	return maxX - minX, maxY - minY, true
}

func (r *pointRing) len() int {
	return r.count
}
