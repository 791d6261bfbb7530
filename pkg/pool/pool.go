// Package pool holds the shared-state leaves of the portfolio layer: a
// lossy broadcast ring of integer vectors and a deduplicated log of
// exchanged unit literals. Neither type locks; callers serialize access
// through the coordinator's critical region.
package pool

import "fmt"

// VectorPool is a fixed-capacity broadcast ring of variable-length
// integer vectors. One producer at a time appends records; each
// consumer advances an independent read cursor. When the writer laps a
// slow consumer, that consumer's cursor is pushed past the clobbered
// span and the unread records are simply lost. Records are stored as a
// two-word header (owner, length) followed by the payload and never
// wrap across the end of the buffer.
type VectorPool struct {
	vecs  []uint32
	size  int
	tail  int
	heads []int
	atEnd []bool
}

// Reserve discards all pool state and sizes the pool for the given
// number of consumers. Capacity bounds the working set of concurrently
// relevant vectors; undersizing only makes overwrite loss more
// aggressive.
func (p *VectorPool) Reserve(consumers, capacity int) {
	if consumers < 1 || capacity < 3 {
		panic(fmt.Sprintf("pool: bad reservation (%d consumers, capacity %d)", consumers, capacity))
	}
	p.vecs = make([]uint32, capacity)
	p.size = capacity
	p.tail = 0
	p.heads = make([]int, consumers)
	p.atEnd = make([]bool, consumers)
	for i := range p.atEnd {
		p.atEnd[i] = true
	}
}

// length decodes the record length stored at pos. Positions too close
// to the end of the buffer to hold a header decode as zero-length
// padding.
func (p *VectorPool) length(pos int) int {
	if pos+1 >= p.size {
		return 0
	}
	return int(p.vecs[pos+1])
}

// next advances pos over the record stored there, wrapping to the
// start of the buffer at or past the end.
func (p *VectorPool) next(pos int) int {
	n := pos + 2 + p.length(pos)
	if n >= p.size {
		return 0
	}
	return n
}

// BeginAddVector starts writing a record of n elements owned by owner.
// The caller must hold the coordinator lock, follow with exactly n
// AddVectorElem calls, and finish with EndAddVector. Any consumer
// whose cursor sits in the span about to be overwritten is advanced
// past it first, so readers lose records rather than decode clobbered
// ones.
func (p *VectorPool) BeginAddVector(owner, n int) {
	if p.size == 0 {
		panic("pool: BeginAddVector before Reserve")
	}
	capacity := n + 2
	if n < 1 || capacity > p.size {
		panic(fmt.Sprintf("pool: record of %d elements does not fit capacity %d", n, p.size))
	}
	if p.tail+capacity > p.size {
		// Never split a record across the end; restart at the
		// front and leave the remainder as padding.
		p.tail = 0
	}
	for i := range p.heads {
		for p.heads[i] >= p.tail && p.heads[i] < p.tail+capacity {
			if p.heads[i] == p.tail && p.atEnd[i] {
				// Fully caught up; it will read the new record.
				break
			}
			prev := p.heads[i]
			p.heads[i] = p.next(p.heads[i])
			if p.heads[i] <= prev {
				// Wrapped; nowhere further to run.
				break
			}
		}
		p.atEnd[i] = false
	}
	p.vecs[p.tail] = uint32(owner)
	p.tail++
	p.vecs[p.tail] = uint32(n)
	p.tail++
}

// AddVectorElem appends one payload element of the record opened by
// BeginAddVector.
func (p *VectorPool) AddVectorElem(e uint32) {
	p.vecs[p.tail] = e
	p.tail++
}

// EndAddVector completes the record, wrapping the write cursor if it
// reached the end of the buffer.
func (p *VectorPool) EndAddVector() {
	if p.tail >= p.size {
		p.tail = 0
	}
}

// GetVector returns the payload of the next record for consumer that
// was written by someone else, advancing the consumer's cursor past
// every record it inspects. It returns false once the cursor reaches
// the write position. The returned slice aliases pool storage and is
// only valid until the next write; callers copy what they keep.
func (p *VectorPool) GetVector(consumer int) ([]uint32, bool) {
	if consumer < 0 || consumer >= len(p.heads) {
		panic(fmt.Sprintf("pool: consumer %d out of range", consumer))
	}
	head := p.heads[consumer]
	for head != p.tail || !p.atEnd[consumer] {
		owner := int(p.vecs[head])
		n := p.length(head)
		p.heads[consumer] = p.next(head)
		p.atEnd[consumer] = p.heads[consumer] == p.tail
		if n > 0 && head+2+n <= p.size && owner != consumer {
			return p.vecs[head+2 : head+2+n], true
		}
		// Own record, padding, or a stale header from an
		// abandoned span: keep walking.
		head = p.heads[consumer]
	}
	return nil, false
}
