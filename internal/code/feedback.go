// internal/code/feedback.go
//
// Feedback scoring between a guess and a code.
// An Offer counts goats (digits correct in position) and chickens (digit
// values shared by guess and code at differing positions). A digit value
// contributes chickens only up to the number of unmatched occurrences on
// each side, so repeated digits never double-count.

package code

// Offer is the feedback for one guess: exact-position matches (goats)
// and value-only matches (chickens). Goats+Chickens never exceeds the
// code length.
type Offer struct {
	Goats    int `json:"goats"`
	Chickens int `json:"chickens"`
}

// Score computes the offer for guess checked against code.
//
// Pass 1: count goats; for every non-matching position, tally the digit
// value separately for guess and code.
//
// Pass 2: chickens = Σ over digit values of min(guess tally, code tally).
func (s Space) Score(guess, code Code) Offer {
	goats := 0
	guessLeft := make([]int, s.digits)
	codeLeft := make([]int, s.digits)

	for i := 0; i < s.length; i++ {
		if guess[i] == code[i] {
			goats++
		} else {
			guessLeft[guess[i]]++
			codeLeft[code[i]]++
		}
	}

	chickens := 0
	for d := 0; d < s.digits; d++ {
		chickens += min(guessLeft[d], codeLeft[d])
	}
	return Offer{Goats: goats, Chickens: chickens}
}

// IsWin reports whether an offer means the guess equals the secret.
func (s Space) IsWin(o Offer) bool {
	return o.Goats == s.length
}
