// internal/code/space.go
//
// Code space for the code-breaking puzzle.
// Responsibilities:
//   - Describe the universe of codes: `digits` (the base) and `length`.
//   - Map integers to codes and back (mixed-radix, most significant first).
//   - Enumerate the full space into one arena buffer owned for the run.
//   - Parse secrets/initial guesses and format codes for display.
//
// Notes:
//   - A Code is a non-owning row of digit values; rows produced by
//     Enumerate all share a single backing buffer, so the space is built
//     once and read-only thereafter.
//   - Formatting uses dash separators when the base exceeds 10, since a
//     digit can then span more than one decimal character.

package code

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Code is an ordered sequence of digit values, each in [0, digits).
type Code []uint8

// Equal reports whether two codes match at every position.
func (c Code) Equal(o Code) bool {
	if len(c) != len(o) {
		return false
	}
	for i := range c {
		if c[i] != o[i] {
			return false
		}
	}
	return true
}

// Space describes a code universe of length positions in base digits.
// Construct with New; the zero value is not usable.
type Space struct {
	digits int
	length int
	size   int
}

// New validates the dimensions and precomputes the space size.
func New(digits, length int) (Space, error) {
	if digits < 1 {
		return Space{}, errors.New("digits must be at least one")
	}
	if length < 1 {
		return Space{}, errors.New("code length must be at least one")
	}
	size := 1
	for i := 0; i < length; i++ {
		size *= digits
	}
	return Space{digits: digits, length: length, size: size}, nil
}

// Digits returns the base of the space.
func (s Space) Digits() int { return s.digits }

// Length returns the number of positions per code.
func (s Space) Length() int { return s.length }

// Size returns digits^length, the number of distinct codes.
func (s Space) Size() int { return s.size }

// FromInt converts an integer to its code, most significant digit first,
// zero-padded to the code length. Values outside [0, Size) are reduced
// modulo the space size, so any non-negative integer yields a valid code.
func (s Space) FromInt(n int) Code {
	n %= s.size
	c := make(Code, s.length)
	for i := s.length - 1; i >= 0 && n != 0; i-- {
		c[i] = uint8(n % s.digits)
		n /= s.digits
	}
	return c
}

// ToInt is the inverse of FromInt for codes of this space.
func (s Space) ToInt(c Code) int {
	n := 0
	for _, d := range c {
		n = n*s.digits + int(d)
	}
	return n
}

// Enumerate builds every code in the space, in FromInt order, as rows of a
// single contiguous buffer. Callers must treat the rows as read-only.
func (s Space) Enumerate() []Code {
	buf := make([]uint8, s.size*s.length)
	codes := make([]Code, s.size)
	for i := range codes {
		row := buf[i*s.length : (i+1)*s.length]
		n := i
		for pos := s.length - 1; pos >= 0 && n != 0; pos-- {
			row[pos] = uint8(n % s.digits)
			n /= s.digits
		}
		codes[i] = row
	}
	return codes
}

// Format renders a code's digits consecutively, dash-separated when the
// base is greater than 10.
func (s Space) Format(c Code) string {
	var b strings.Builder
	for i, d := range c {
		if s.digits > 10 && i > 0 {
			b.WriteByte('-')
		}
		b.WriteString(strconv.Itoa(int(d)))
	}
	return b.String()
}

// Parse interprets one input line as an integer in the space's base and
// converts it to a code. Bases 2 through 36 parse directly; base 1 has a
// single code (all zeros), so the value is read as decimal and reduced.
// Bases above 36 cannot be written as positional integers and are rejected.
func (s Space) Parse(line string) (Code, error) {
	if s.digits > 36 {
		return nil, fmt.Errorf("cannot parse integers in base %d (maximum 36)", s.digits)
	}
	base := s.digits
	if base < 2 {
		base = 10
	}
	n, err := strconv.ParseUint(strings.TrimSpace(line), base, 63)
	if err != nil {
		return nil, fmt.Errorf("invalid code %q: %w", strings.TrimSpace(line), err)
	}
	return s.FromInt(int(n)), nil
}
