// Package scoreboard provides the Kniffel score grid, bonus bookkeeping and
// derived totals for a single table.
package scoreboard

// Category identifies one of the fifteen fixed scorecard rows.
type Category int

// Scorecard rows in sheet order.
const (
	Ones Category = iota
	Twos
	Threes
	Fours
	Fives
	Sixes
	Bonus
	UpperTotal
	ThreeOfAKind
	FourOfAKind
	FullHouse
	SmallStraight
	LargeStraight
	Kniffel
	Chance
)

// NumCategories is the fixed number of scorecard rows.
const NumCategories = 15

const (
	// BonusThreshold is the upper-section sum at which the bonus is earned.
	BonusThreshold = 63
	// BonusValue is added to the upper total when the bonus is earned.
	BonusValue = 35
)

// Kind classifies how a row is edited.
type Kind int

const (
	// KindNumeric rows accept a free numeric entry.
	KindNumeric Kind = iota
	// KindDerived rows are computed and never edited.
	KindDerived
	// KindFixed rows cycle Unused → Crossed → Scored(fixed value).
	KindFixed
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindDerived:
		return "derived"
	case KindFixed:
		return "fixed"
	default:
		return "unknown"
	}
}

// Valid reports whether c is one of the fifteen rows.
func (c Category) Valid() bool {
	return c >= 0 && c < NumCategories
}

// Upper reports whether c is one of ones..sixes.
func (c Category) Upper() bool {
	return c >= Ones && c <= Sixes
}

// Lower reports whether c contributes to the lower total (rows 8..14).
func (c Category) Lower() bool {
	return c >= ThreeOfAKind && c <= Chance
}

// Kind returns how the row is edited.
//
// Precondition: c.Valid().
func (c Category) Kind() Kind {
	switch {
	case c == Bonus || c == UpperTotal:
		return KindDerived
	case c >= FullHouse && c <= Kniffel:
		return KindFixed
	default:
		return KindNumeric
	}
}

// Editable reports whether SetCell accepts c.
func (c Category) Editable() bool {
	return c.Valid() && c.Kind() == KindNumeric
}

// FixedValue returns the score a fixed row is worth, or 0 for any other row.
func (c Category) FixedValue() int {
	switch c {
	case FullHouse:
		return 25
	case SmallStraight:
		return 30
	case LargeStraight:
		return 40
	case Kniffel:
		return 50
	default:
		return 0
	}
}

// Categories returns all rows in sheet order.
func Categories() []Category {
	out := make([]Category, NumCategories)
	for i := range out {
		out[i] = Category(i)
	}
	return out
}
