package dice

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrDieOutOfRange is returned for die indices outside [0, Count).
var ErrDieOutOfRange = errors.New("dice: die index out of range")

// Set is the six dice of one turn together with their hold flags and the
// roll counter. Every roll is logged at debug level.
//
// Invariant: every die is in [1, Faces]; 0 <= RollCount() <= MaxRolls.
//
// A Set is not safe for concurrent use.
type Set struct {
	src    Source
	logger *zap.Logger

	dice  [Count]int
	held  [Count]bool
	rolls int
}

// NewSet creates a set in its baseline state: all ones, nothing held, no rolls.
//
// Precondition: src must be non-nil. A nil logger disables roll logging.
func NewSet(src Source, logger *zap.Logger) *Set {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Set{src: src, logger: logger}
	s.Reset()
	return s
}

// Reset returns the set to its baseline state.
func (s *Set) Reset() {
	for i := range s.dice {
		s.dice[i] = 1
		s.held[i] = false
	}
	s.rolls = 0
}

// CanRoll reports whether another roll is allowed this turn.
func (s *Set) CanRoll() bool {
	return s.rolls < MaxRolls
}

// Roll rerolls every die that is not held and advances the counter.
//
// Postcondition: when the counter was already MaxRolls, nothing changes and
// ok is false. Otherwise held dice keep their values and every other die is
// uniform in [1, Faces].
func (s *Set) Roll() (result RollResult, ok bool) {
	if !s.CanRoll() {
		s.logger.Debug("dice roll refused", zap.Int("rolls", s.rolls))
		return RollResult{}, false
	}
	for i := range s.dice {
		if s.held[i] {
			continue
		}
		s.dice[i] = s.src.Intn(Faces) + 1
	}
	s.rolls++

	result = RollResult{Dice: s.dice, Held: s.held, Count: s.rolls}
	s.logger.Debug("dice roll",
		zap.Ints("dice", s.dice[:]),
		zap.Bools("held", s.held[:]),
		zap.Int("rolls", s.rolls),
		zap.Int("total", result.Total()),
	)
	return result, true
}

// ToggleHold flips the hold flag of die i. It is allowed at any roll count.
//
// Returns the new flag.
func (s *Set) ToggleHold(i int) (bool, error) {
	if i < 0 || i >= Count {
		return false, fmt.Errorf("%w: %d", ErrDieOutOfRange, i)
	}
	s.held[i] = !s.held[i]
	return s.held[i], nil
}

// Dice returns the current die values.
func (s *Set) Dice() [Count]int { return s.dice }

// Held returns the current hold flags.
func (s *Set) Held() [Count]bool { return s.held }

// RollCount returns how many rolls have been made this turn.
func (s *Set) RollCount() int { return s.rolls }

// State is a read-only copy of a Set for rendering.
type State struct {
	Dice    [Count]int  `json:"dice"`
	Held    [Count]bool `json:"held"`
	Rolls   int         `json:"rolls"`
	CanRoll bool        `json:"can_roll"`
}

// State copies the current dice, hold flags and counter.
func (s *Set) State() State {
	return State{Dice: s.dice, Held: s.held, Rolls: s.rolls, CanRoll: s.CanRoll()}
}
