// internal/solver/selector.go
//
// Parallel next-guess selection. The pool is statically partitioned across
// a fixed set of workers started fresh each round; every worker scores its
// slice of hypothetical guesses against the entire pool, then makes exactly
// one attempt to publish its local best into a shared accumulator.
//
// The score of a hypothetical guess is the size of the smallest non-empty
// feedback bucket it induces over the pool, and selection maximizes that
// score. When several candidates in different partitions tie on it, the
// published winner depends on worker completion order: the accumulator
// overwrites only on a strictly greater score, never on equality. With a
// unique maximum the result is independent of worker count and scheduling.

package solver

import (
	"sync"

	"github.com/robalobadob/goatherd/internal/code"
)

// bestGuess is the shared accumulator for one selection round. Read and
// updated as a single critical section under mu; reset by allocation at
// the start of every round.
type bestGuess struct {
	mu    sync.Mutex
	code  code.Code
	score int
}

// selectNext chooses the next guess over the current pool. A zero score
// means no candidate induced a non-empty bucket, which happens once the
// pool holds a single entry; callers fall back to that entry.
func selectNext(space code.Space, pool *Pool, workers int) (code.Code, int) {
	best := &bestGuess{}

	var wg sync.WaitGroup
	for _, part := range pool.partitions(workers) {
		wg.Add(1)
		go func(part partition) {
			defer wg.Done()
			scorePartition(space, pool, part, best)
		}(part)
	}
	wg.Wait()

	return best.code, best.score
}

// scorePartition evaluates every candidate in part as a hypothetical guess
// and publishes the worker's local best into the accumulator.
func scorePartition(space code.Space, pool *Pool, part partition, best *bestGuess) {
	// Feedback outcomes are keyed goats*(length+1)+chickens; the bucket
	// array is reused across candidates and cleared while scanning it.
	width := space.Length() + 1
	buckets := make([]int, width*width)

	var localCode code.Code
	localScore := 0

	for i := part.offset; i < part.offset+part.count; i++ {
		guess := pool.At(i)
		for j := 0; j < pool.Len(); j++ {
			o := space.Score(guess, pool.At(j))
			if space.IsWin(o) {
				// An all-goats offer ends the game on the spot and leaves
				// no surviving group to disambiguate. Candidates come from
				// the pool, so each would otherwise count itself here as a
				// permanent singleton bucket.
				continue
			}
			buckets[o.Goats*width+o.Chickens]++
		}

		bucketMin := 0
		for k, n := range buckets {
			buckets[k] = 0
			if n == 0 {
				continue
			}
			if bucketMin == 0 || n < bucketMin {
				bucketMin = n
			}
		}

		// Strictly greater keeps the earliest candidate on local ties.
		if bucketMin > localScore {
			localScore = bucketMin
			localCode = guess
		}
	}

	best.mu.Lock()
	if localScore > best.score {
		best.score = localScore
		best.code = localCode
	}
	best.mu.Unlock()
}
