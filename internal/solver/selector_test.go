package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/goatherd/internal/code"
)

// In base 3 length 3, pruning the full space with guess 001 and the offer
// it earns against secret 110 leaves the pool {110, 120, 210}. Candidate
// 110 scores a bucket-min of 2 there while the others score 1, so the
// maximum is unique and the selection must not depend on worker count or
// scheduling.
func TestSelectNextUniqueMaximum(t *testing.T) {
	space, err := code.New(3, 3)
	require.NoError(t, err)

	guess := code.Code{0, 0, 1}
	secret := code.Code{1, 1, 0}

	for workers := 1; workers <= 8; workers++ {
		p := NewPool(space)
		p.Prune(guess, space.Score(guess, secret))
		require.Equal(t, 3, p.Len())

		next, score := selectNext(space, p, workers)
		assert.Equal(t, 2, score, "workers=%d", workers)
		assert.True(t, next.Equal(code.Code{1, 1, 0}), "workers=%d picked %v", workers, next)
	}
}

// A sole surviving candidate only ever earns the game-ending offer, which
// never lands in a bucket, so its score is zero; the orchestrator falls
// back to playing that candidate directly.
func TestSelectNextSingleCandidate(t *testing.T) {
	space, err := code.New(2, 1)
	require.NoError(t, err)

	p := NewPool(space)
	p.Prune(code.Code{0}, space.Score(code.Code{0}, code.Code{1}))
	require.Equal(t, 1, p.Len())

	_, score := selectNext(space, p, 4)
	assert.Equal(t, 0, score)
}
