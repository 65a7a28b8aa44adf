// Package dice provides the six-dice cup used between scorecard entries:
// roll, hold and reset, with an injectable randomness source.
package dice

import (
	"fmt"
	"strings"
)

const (
	// Count is the number of dice in a set.
	Count = 6
	// Faces is the number of faces per die.
	Faces = 6
	// MaxRolls is the number of rolls allowed per turn.
	MaxRolls = 3
)

// RollResult is the audit record of a single roll.
//
// Postcondition: Held[i] implies Dice[i] equals the value before the roll.
type RollResult struct {
	Dice  [Count]int  // values after the roll
	Held  [Count]bool // hold mask the roll respected
	Count int         // roll counter after the roll, in [1, MaxRolls]
}

// Total returns the sum of all six dice.
func (r RollResult) Total() int {
	total := 0
	for _, d := range r.Dice {
		total += d
	}
	return total
}

// String returns a human-readable audit string in the format:
//
//	"roll 2/3 → [4 *5 1 6 *5 2] = 23"
//
// where held dice are prefixed with '*'.
func (r RollResult) String() string {
	parts := make([]string, Count)
	for i, d := range r.Dice {
		if r.Held[i] {
			parts[i] = fmt.Sprintf("*%d", d)
		} else {
			parts[i] = fmt.Sprintf("%d", d)
		}
	}
	return fmt.Sprintf("roll %d/%d → [%s] = %d", r.Count, MaxRolls, strings.Join(parts, " "), r.Total())
}

// Source is the randomness provider for dice rolls.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}
