package search

// ring is a growable FIFO of flat cell indices. It holds candidates that were
// displaced by a better neighbour so a dead-ended walk can resume from one.
type ring struct {
	buf  []int32
	head int
	n    int
}

func newRing(capacity int) *ring {
	if capacity < 16 {
		capacity = 16
	}
	return &ring{buf: make([]int32, capacity)}
}

func (r *ring) Len() int { return r.n }

func (r *ring) Push(idx int) {
	if r.n == len(r.buf) {
		r.grow()
	}
	r.buf[(r.head+r.n)%len(r.buf)] = int32(idx)
	r.n++
}

// Pop removes and returns the oldest index.
func (r *ring) Pop() (int, bool) {
	if r.n == 0 {
		return 0, false
	}
	idx := r.buf[r.head]
	r.head = (r.head + 1) % len(r.buf)
	r.n--
	return int(idx), true
}

func (r *ring) Reset() {
	r.head, r.n = 0, 0
}

func (r *ring) grow() {
	buf := make([]int32, len(r.buf)*2)
	for i := 0; i < r.n; i++ {
		buf[i] = r.buf[(r.head+i)%len(r.buf)]
	}
	r.buf = buf
	r.head = 0
}
