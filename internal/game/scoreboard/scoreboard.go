package scoreboard

import (
	"errors"
	"fmt"
	"strconv"
)

// DefaultPlayers is the number of players a new or reset scoreboard holds.
const DefaultPlayers = 3

// DefaultNamePrefix is prepended to the 1-based index for generated names.
const DefaultNamePrefix = "Player"

var (
	// ErrCategoryOutOfRange is returned for rows outside [0, NumCategories).
	ErrCategoryOutOfRange = errors.New("scoreboard: category out of range")
	// ErrNotEditable is returned when SetCell targets a derived or fixed row.
	ErrNotEditable = errors.New("scoreboard: category is not a numeric entry")
	// ErrNotFixedCategory is returned when CycleFixedCategory targets a non-fixed row.
	ErrNotFixedCategory = errors.New("scoreboard: category has no fixed value")
	// ErrPlayerOutOfRange is returned for player indices outside [0, N).
	ErrPlayerOutOfRange = errors.New("scoreboard: player out of range")
)

// column is everything the scoreboard stores for one player. Keeping the
// name, bonus flag and grid cells together means a player count change is a
// single slice operation and the three can never disagree in length.
type column struct {
	name  string
	cells [NumCategories]Cell
	bonus bool
}

// Scoreboard holds the score grid for one table.
//
// Invariant: every player has exactly NumCategories cells and one bonus flag.
// Invariant: after any mutating call, Bonus(p) == (upper sum of p >= BonusThreshold).
//
// A Scoreboard is not safe for concurrent use.
type Scoreboard struct {
	prefix   string
	defaults int
	players  []column
}

// Option customises a Scoreboard at construction.
type Option func(*Scoreboard)

// WithNamePrefix sets the prefix used for generated player names.
func WithNamePrefix(prefix string) Option {
	return func(s *Scoreboard) { s.prefix = prefix }
}

// WithDefaultPlayers sets how many players New and Reset create.
//
// Precondition: n >= 0.
func WithDefaultPlayers(n int) Option {
	return func(s *Scoreboard) {
		if n >= 0 {
			s.defaults = n
		}
	}
}

// New creates a scoreboard with the default players and an empty grid.
//
// Postcondition: PlayerCount() == DefaultPlayers unless overridden by WithDefaultPlayers.
func New(opts ...Option) *Scoreboard {
	s := &Scoreboard{
		prefix:   DefaultNamePrefix,
		defaults: DefaultPlayers,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Reset()
	return s
}

// Reset restores the default players, an empty grid and cleared bonus flags.
func (s *Scoreboard) Reset() {
	s.players = make([]column, 0, s.defaults)
	for i := 0; i < s.defaults; i++ {
		s.players = append(s.players, column{name: s.defaultName(i)})
	}
}

func (s *Scoreboard) defaultName(index int) string {
	return s.prefix + " " + strconv.Itoa(index+1)
}

// PlayerCount returns N.
func (s *Scoreboard) PlayerCount() int {
	return len(s.players)
}

// Players returns a copy of the player names in order.
func (s *Scoreboard) Players() []string {
	names := make([]string, len(s.players))
	for i := range s.players {
		names[i] = s.players[i].name
	}
	return names
}

// AddPlayer appends a player named "<prefix> N+1" with an empty column.
//
// Postcondition: PlayerCount() grows by one; the new player's bonus flag is false.
// Returns the new player's index.
func (s *Scoreboard) AddPlayer() int {
	idx := len(s.players)
	s.players = append(s.players, column{name: s.defaultName(idx)})
	return idx
}

// RemovePlayer drops the last player together with their column and bonus flag.
//
// Postcondition: returns false and changes nothing when there are no players.
func (s *Scoreboard) RemovePlayer() bool {
	if len(s.players) == 0 {
		return false
	}
	s.players[len(s.players)-1] = column{}
	s.players = s.players[:len(s.players)-1]
	return true
}

// SetPlayerName renames player p.
func (s *Scoreboard) SetPlayerName(p int, name string) error {
	if err := s.checkPlayer(p); err != nil {
		return err
	}
	s.players[p].name = name
	return nil
}

// Name returns player p's name.
func (s *Scoreboard) Name(p int) (string, error) {
	if err := s.checkPlayer(p); err != nil {
		return "", err
	}
	return s.players[p].name, nil
}

// Cell returns the stored cell at (c, p). Derived rows are always empty.
func (s *Scoreboard) Cell(c Category, p int) (Cell, error) {
	if err := s.check(c, p); err != nil {
		return Cell{}, err
	}
	return s.players[p].cells[c], nil
}

// SetCell records (or clears, with Empty()) a numeric-entry row.
//
// Precondition: c.Editable(); 0 <= p < PlayerCount().
// Postcondition: bonus flags are recomputed.
func (s *Scoreboard) SetCell(c Category, p int, value Cell) error {
	if err := s.check(c, p); err != nil {
		return err
	}
	if !c.Editable() {
		return fmt.Errorf("%w: %d (%s)", ErrNotEditable, c, c.Kind())
	}
	s.players[p].cells[c] = value
	s.RecomputeBonuses()
	return nil
}

// CycleFixedCategory advances a fixed row one step through
// Unused → Crossed → Scored(c.FixedValue()) → Unused.
//
// Any recorded non-zero value counts as Scored and moves to Unused.
// Returns the new cell.
func (s *Scoreboard) CycleFixedCategory(c Category, p int) (Cell, error) {
	if err := s.check(c, p); err != nil {
		return Cell{}, err
	}
	if c.Kind() != KindFixed {
		return Cell{}, fmt.Errorf("%w: %d", ErrNotFixedCategory, c)
	}
	cell := &s.players[p].cells[c]
	switch cell.State() {
	case Unused:
		*cell = Value(0)
	case Crossed:
		*cell = Value(c.FixedValue())
	default:
		*cell = Empty()
	}
	s.RecomputeBonuses()
	return *cell, nil
}

// RecomputeBonuses sets every player's bonus flag from their upper-section sum.
// It is idempotent.
func (s *Scoreboard) RecomputeBonuses() {
	for p := range s.players {
		s.players[p].bonus = s.upperSum(p) >= BonusThreshold
	}
}

// Bonus returns player p's bonus flag.
func (s *Scoreboard) Bonus(p int) (bool, error) {
	if err := s.checkPlayer(p); err != nil {
		return false, err
	}
	return s.players[p].bonus, nil
}

// UpperSum returns the sum of ones..sixes for player p, empty cells counting 0.
func (s *Scoreboard) UpperSum(p int) (int, error) {
	if err := s.checkPlayer(p); err != nil {
		return 0, err
	}
	return s.upperSum(p), nil
}

// UpperTotal returns the upper sum plus BonusValue when the bonus flag is set.
func (s *Scoreboard) UpperTotal(p int) (int, error) {
	if err := s.checkPlayer(p); err != nil {
		return 0, err
	}
	return s.upperTotal(p), nil
}

// LowerTotal returns the sum of rows 8..14 for player p, empty cells counting 0.
func (s *Scoreboard) LowerTotal(p int) (int, error) {
	if err := s.checkPlayer(p); err != nil {
		return 0, err
	}
	return s.lowerTotal(p), nil
}

// GrandTotal returns UpperTotal(p) + LowerTotal(p).
func (s *Scoreboard) GrandTotal(p int) (int, error) {
	if err := s.checkPlayer(p); err != nil {
		return 0, err
	}
	return s.upperTotal(p) + s.lowerTotal(p), nil
}

func (s *Scoreboard) upperSum(p int) int {
	sum := 0
	for c := Ones; c <= Sixes; c++ {
		sum += s.players[p].cells[c].Points()
	}
	return sum
}

func (s *Scoreboard) upperTotal(p int) int {
	total := s.upperSum(p)
	if s.players[p].bonus {
		total += BonusValue
	}
	return total
}

func (s *Scoreboard) lowerTotal(p int) int {
	sum := 0
	for c := ThreeOfAKind; c <= Chance; c++ {
		sum += s.players[p].cells[c].Points()
	}
	return sum
}

func (s *Scoreboard) check(c Category, p int) error {
	if !c.Valid() {
		return fmt.Errorf("%w: %d", ErrCategoryOutOfRange, c)
	}
	return s.checkPlayer(p)
}

func (s *Scoreboard) checkPlayer(p int) error {
	if p < 0 || p >= len(s.players) {
		return fmt.Errorf("%w: %d (players: %d)", ErrPlayerOutOfRange, p, len(s.players))
	}
	return nil
}
