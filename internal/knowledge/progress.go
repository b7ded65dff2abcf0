package knowledge

import "sync/atomic"

// Progress counts names consumed by a fetch. It only moves forward and is
// safe to read from other goroutines.
type Progress struct {
	total   int64
	done    atomic.Int64
	observe func(*Progress)
}

// NewProgress creates a Progress over total names. observe, if non-nil, is
// called after every advance.
func NewProgress(total int, observe func(*Progress)) *Progress {
	return &Progress{total: int64(total), observe: observe}
}

// Add advances the counter by n. Non-positive n is ignored.
func (p *Progress) Add(n int) {
	if n <= 0 {
		return
	}
	p.done.Add(int64(n))
	if p.observe != nil {
		p.observe(p)
	}
}

// Done returns the number of names consumed so far.
func (p *Progress) Done() int { return int(p.done.Load()) }

// Total returns the size of the name universe.
func (p *Progress) Total() int { return int(p.total) }

// Percent returns completion in [0, 100]. An empty universe is complete.
func (p *Progress) Percent() float64 {
	if p.total == 0 {
		return 100
	}
	return float64(p.done.Load()) * 100 / float64(p.total)
}
