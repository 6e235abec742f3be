// internal/solver/pool.go
//
// Candidate pool: the codes still consistent with every offer observed so
// far. Backed by the space's arena rows; pruning compacts the index slice
// in place so the backing storage is never reallocated and contiguous
// partitioning stays cheap.

package solver

import (
	"github.com/robalobadob/goatherd/internal/code"
)

// Pool is an indexable, monotonically shrinking collection of candidate
// codes. It is read-only during a worker phase; Prune runs strictly
// between rounds.
type Pool struct {
	space code.Space
	codes []code.Code
}

// NewPool fills a pool with the entire code space.
func NewPool(space code.Space) *Pool {
	return &Pool{space: space, codes: space.Enumerate()}
}

// Len returns the number of surviving candidates.
func (p *Pool) Len() int { return len(p.codes) }

// At returns the candidate at index i. The returned code is read-only.
func (p *Pool) At(i int) code.Code { return p.codes[i] }

// Prune keeps only candidates whose offer against guess equals observed,
// and always drops the guess itself. Single in-place pass; returns the
// new candidate count.
func (p *Pool) Prune(guess code.Code, observed code.Offer) int {
	keep := p.codes[:0]
	for _, c := range p.codes {
		if p.space.Score(guess, c) == observed && !c.Equal(guess) {
			keep = append(keep, c)
		}
	}
	p.codes = keep
	return len(keep)
}

// partition is a contiguous slice of the pool assigned to one worker as
// its hypothetical guesses to evaluate.
type partition struct {
	offset int
	count  int
}

// partitions splits the pool into workers contiguous pieces of ⌊P/T⌋
// candidates each; the last piece absorbs the remainder.
func (p *Pool) partitions(workers int) []partition {
	per := len(p.codes) / workers
	parts := make([]partition, workers)
	for i := range parts {
		parts[i] = partition{offset: i * per, count: per}
	}
	parts[workers-1].count = len(p.codes) - (workers-1)*per
	return parts
}
