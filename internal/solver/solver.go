// internal/solver/solver.go
//
// Round orchestrator. Drives the loop guess → score → win check → prune →
// select-next until the secret falls. The pool strictly shrinks every
// round (the played guess is always pruned), so the loop terminates: once
// one candidate remains, selection falls back to it and it is the secret.

package solver

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/goatherd/internal/code"
)

// Round records one played guess and the offer it earned. Remaining is the
// candidate count after pruning with that offer; it is zero for the
// winning round, which prunes nothing.
type Round struct {
	Number    int
	Guess     code.Code
	Offer     code.Offer
	Remaining int
}

// Solver holds the immutable configuration for solve runs. A single Solver
// may run any number of independent solves; each Solve call builds its own
// pool from the space.
type Solver struct {
	space   code.Space
	workers int
	onRound func(Round)
}

// Option configures a Solver.
type Option func(*Solver)

// WithRoundFunc registers a callback invoked once per round, after the
// guess has been scored and the pool pruned.
func WithRoundFunc(fn func(Round)) Option {
	return func(s *Solver) { s.onRound = fn }
}

// New constructs a Solver for the given space with a fixed worker count.
func New(space code.Space, workers int, opts ...Option) (*Solver, error) {
	if workers < 1 {
		return nil, fmt.Errorf("worker count must be at least one, got %d", workers)
	}
	s := &Solver{space: space, workers: workers}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Solve plays rounds against secret starting from first and returns the
// full transcript. The final round's offer always has Goats == length.
func (s *Solver) Solve(secret, first code.Code) ([]Round, error) {
	if len(secret) != s.space.Length() {
		return nil, fmt.Errorf("secret has %d positions, want %d", len(secret), s.space.Length())
	}
	if len(first) != s.space.Length() {
		return nil, fmt.Errorf("initial guess has %d positions, want %d", len(first), s.space.Length())
	}

	pool := NewPool(s.space)
	guess := first
	var rounds []Round

	for {
		offer := s.space.Score(guess, secret)
		round := Round{Number: len(rounds) + 1, Guess: guess, Offer: offer}

		if s.space.IsWin(offer) {
			rounds = append(rounds, round)
			s.emit(round)
			log.Debug().Int("rounds", round.Number).Msg("secret found")
			return rounds, nil
		}

		round.Remaining = pool.Prune(guess, offer)
		rounds = append(rounds, round)
		s.emit(round)
		if round.Remaining == 0 {
			// Unreachable when offers are honestly computed: the secret
			// always survives pruning.
			panic("solver: candidate pool exhausted before the secret was found")
		}

		start := time.Now()
		next, score := selectNext(s.space, pool, s.workers)
		if score == 0 {
			// Only one candidate left; it must be the secret.
			next = pool.At(0)
		}
		log.Debug().
			Int("round", round.Number).
			Int("remaining", round.Remaining).
			Int("score", score).
			Dur("selection", time.Since(start)).
			Msg("next guess selected")
		guess = next
	}
}

func (s *Solver) emit(r Round) {
	if s.onRound != nil {
		s.onRound(r)
	}
}
