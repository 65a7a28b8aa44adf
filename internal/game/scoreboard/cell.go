package scoreboard

import "strconv"

// CellState names the three meanings a recorded cell can carry.
type CellState int

const (
	// Unused means nothing has been recorded yet.
	Unused CellState = iota
	// Crossed means the category was forfeited (recorded as 0).
	Crossed
	// Scored means a non-zero value was recorded.
	Scored
)

// String returns the lowercase state name.
func (s CellState) String() string {
	switch s {
	case Unused:
		return "unused"
	case Crossed:
		return "crossed"
	case Scored:
		return "scored"
	default:
		return "unknown"
	}
}

// Cell is an optional score. The zero value is an empty cell.
//
// The optional integer is overloaded: absent means Unused, a recorded 0
// means Crossed and any other recorded value means Scored. Fixed rows cycle
// through exactly these three states.
type Cell struct {
	value    int
	recorded bool
}

// MaxScore is the largest value the front ends accept for a cell.
const MaxScore = 1000

// Empty returns an unrecorded cell.
func Empty() Cell { return Cell{} }

// Value returns a recorded cell holding v.
func Value(v int) Cell { return Cell{value: v, recorded: true} }

// Get returns the recorded value and whether one is present.
func (c Cell) Get() (int, bool) { return c.value, c.recorded }

// Recorded reports whether a value is present.
func (c Cell) Recorded() bool { return c.recorded }

// Points returns the value, treating an empty cell as 0.
func (c Cell) Points() int {
	if !c.recorded {
		return 0
	}
	return c.value
}

// State returns the tri-state reading of the cell.
func (c Cell) State() CellState {
	switch {
	case !c.recorded:
		return Unused
	case c.value == 0:
		return Crossed
	default:
		return Scored
	}
}

// String renders "-" for empty cells and the number otherwise.
func (c Cell) String() string {
	if !c.recorded {
		return "-"
	}
	return strconv.Itoa(c.value)
}

// MarshalJSON encodes an empty cell as null and a recorded cell as a number.
func (c Cell) MarshalJSON() ([]byte, error) {
	if !c.recorded {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(c.value)), nil
}
