package scoreboard_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/kniffel/internal/game/scoreboard"
)

var numericRows = []scoreboard.Category{
	scoreboard.Ones, scoreboard.Twos, scoreboard.Threes,
	scoreboard.Fours, scoreboard.Fives, scoreboard.Sixes,
	scoreboard.ThreeOfAKind, scoreboard.FourOfAKind, scoreboard.Chance,
}

var fixedRows = []scoreboard.Category{
	scoreboard.FullHouse, scoreboard.SmallStraight,
	scoreboard.LargeStraight, scoreboard.Kniffel,
}

func mustSet(t *testing.T, sb *scoreboard.Scoreboard, c scoreboard.Category, p, v int) {
	t.Helper()
	require.NoError(t, sb.SetCell(c, p, scoreboard.Value(v)))
}

func TestNew_Defaults(t *testing.T) {
	sb := scoreboard.New()
	assert.Equal(t, 3, sb.PlayerCount())
	assert.Equal(t, []string{"Player 1", "Player 2", "Player 3"}, sb.Players())
	for p := 0; p < 3; p++ {
		bonus, err := sb.Bonus(p)
		require.NoError(t, err)
		assert.False(t, bonus)
		for _, c := range scoreboard.Categories() {
			cell, err := sb.Cell(c, p)
			require.NoError(t, err)
			assert.Equal(t, scoreboard.Unused, cell.State())
		}
	}
}

func TestNew_Options(t *testing.T) {
	sb := scoreboard.New(scoreboard.WithNamePrefix("Spieler"), scoreboard.WithDefaultPlayers(2))
	assert.Equal(t, []string{"Spieler 1", "Spieler 2"}, sb.Players())
	sb.AddPlayer()
	assert.Equal(t, "Spieler 3", sb.Players()[2])
}

func TestAddPlayer_AppendsEmptyColumn(t *testing.T) {
	sb := scoreboard.New()
	idx := sb.AddPlayer()
	assert.Equal(t, 3, idx)
	assert.Equal(t, 4, sb.PlayerCount())
	name, err := sb.Name(3)
	require.NoError(t, err)
	assert.Equal(t, "Player 4", name)
	cell, err := sb.Cell(scoreboard.Chance, 3)
	require.NoError(t, err)
	assert.False(t, cell.Recorded())
}

func TestRemovePlayer_EmptyIsNoop(t *testing.T) {
	sb := scoreboard.New(scoreboard.WithDefaultPlayers(0))
	assert.False(t, sb.RemovePlayer())
	assert.Equal(t, 0, sb.PlayerCount())
}

func TestRemovePlayer_DropsLastColumn(t *testing.T) {
	sb := scoreboard.New()
	mustSet(t, sb, scoreboard.Ones, 2, 4)
	assert.True(t, sb.RemovePlayer())
	assert.Equal(t, 2, sb.PlayerCount())
	_, err := sb.Cell(scoreboard.Ones, 2)
	assert.ErrorIs(t, err, scoreboard.ErrPlayerOutOfRange)

	// A re-added player starts empty rather than inheriting the dropped column.
	sb.AddPlayer()
	cell, err := sb.Cell(scoreboard.Ones, 2)
	require.NoError(t, err)
	assert.False(t, cell.Recorded())
}

func TestSetCell_RejectsDerivedAndFixed(t *testing.T) {
	sb := scoreboard.New()
	for _, c := range []scoreboard.Category{scoreboard.Bonus, scoreboard.UpperTotal} {
		assert.ErrorIs(t, sb.SetCell(c, 0, scoreboard.Value(1)), scoreboard.ErrNotEditable)
	}
	for _, c := range fixedRows {
		assert.ErrorIs(t, sb.SetCell(c, 0, scoreboard.Value(1)), scoreboard.ErrNotEditable)
	}
}

func TestSetCell_RangeErrors(t *testing.T) {
	sb := scoreboard.New()
	assert.ErrorIs(t, sb.SetCell(scoreboard.Category(-1), 0, scoreboard.Value(1)), scoreboard.ErrCategoryOutOfRange)
	assert.ErrorIs(t, sb.SetCell(scoreboard.Category(15), 0, scoreboard.Value(1)), scoreboard.ErrCategoryOutOfRange)
	assert.ErrorIs(t, sb.SetCell(scoreboard.Ones, 3, scoreboard.Value(1)), scoreboard.ErrPlayerOutOfRange)
	assert.ErrorIs(t, sb.SetCell(scoreboard.Ones, -1, scoreboard.Value(1)), scoreboard.ErrPlayerOutOfRange)
}

func TestSetCell_ClearWithEmpty(t *testing.T) {
	sb := scoreboard.New()
	mustSet(t, sb, scoreboard.Chance, 0, 22)
	require.NoError(t, sb.SetCell(scoreboard.Chance, 0, scoreboard.Empty()))
	cell, err := sb.Cell(scoreboard.Chance, 0)
	require.NoError(t, err)
	assert.Equal(t, scoreboard.Unused, cell.State())
}

func TestBonus_ReachedAtExactlySixtyThree(t *testing.T) {
	sb := scoreboard.New()
	// ones row for three players: 3, 0, 6
	mustSet(t, sb, scoreboard.Ones, 0, 3)
	mustSet(t, sb, scoreboard.Ones, 1, 0)
	mustSet(t, sb, scoreboard.Ones, 2, 6)
	// 3 + 6 + 9 + 12 + 15 + 18 = 63
	for i, c := range []scoreboard.Category{scoreboard.Twos, scoreboard.Threes, scoreboard.Fours, scoreboard.Fives, scoreboard.Sixes} {
		mustSet(t, sb, c, 0, 3*(i+2))
	}

	bonus, err := sb.Bonus(0)
	require.NoError(t, err)
	assert.True(t, bonus)
	upper, err := sb.UpperTotal(0)
	require.NoError(t, err)
	assert.Equal(t, 63+35, upper)

	bonus, err = sb.Bonus(2)
	require.NoError(t, err)
	assert.False(t, bonus)

	// Dropping one point loses the bonus again.
	mustSet(t, sb, scoreboard.Ones, 0, 2)
	bonus, err = sb.Bonus(0)
	require.NoError(t, err)
	assert.False(t, bonus)
	upper, err = sb.UpperTotal(0)
	require.NoError(t, err)
	assert.Equal(t, 62, upper)
}

func TestCycleFixedCategory_FullHouse(t *testing.T) {
	sb := scoreboard.New()
	cell, err := sb.Cell(scoreboard.FullHouse, 1)
	require.NoError(t, err)
	assert.Equal(t, scoreboard.Unused, cell.State())

	cell, err = sb.CycleFixedCategory(scoreboard.FullHouse, 1)
	require.NoError(t, err)
	assert.Equal(t, scoreboard.Value(0), cell)
	assert.Equal(t, scoreboard.Crossed, cell.State())

	cell, err = sb.CycleFixedCategory(scoreboard.FullHouse, 1)
	require.NoError(t, err)
	assert.Equal(t, scoreboard.Value(25), cell)
	assert.Equal(t, scoreboard.Scored, cell.State())

	cell, err = sb.CycleFixedCategory(scoreboard.FullHouse, 1)
	require.NoError(t, err)
	assert.Equal(t, scoreboard.Empty(), cell)
}

func TestCycleFixedCategory_FixedValues(t *testing.T) {
	want := map[scoreboard.Category]int{
		scoreboard.FullHouse:     25,
		scoreboard.SmallStraight: 30,
		scoreboard.LargeStraight: 40,
		scoreboard.Kniffel:       50,
	}
	for c, v := range want {
		sb := scoreboard.New()
		_, err := sb.CycleFixedCategory(c, 0)
		require.NoError(t, err)
		cell, err := sb.CycleFixedCategory(c, 0)
		require.NoError(t, err)
		got, ok := cell.Get()
		assert.True(t, ok)
		assert.Equal(t, v, got, "category %d", c)
		lower, err := sb.LowerTotal(0)
		require.NoError(t, err)
		assert.Equal(t, v, lower)
	}
}

func TestCycleFixedCategory_RejectsOtherRows(t *testing.T) {
	sb := scoreboard.New()
	for _, c := range numericRows {
		_, err := sb.CycleFixedCategory(c, 0)
		assert.ErrorIs(t, err, scoreboard.ErrNotFixedCategory)
	}
	_, err := sb.CycleFixedCategory(scoreboard.Bonus, 0)
	assert.ErrorIs(t, err, scoreboard.ErrNotFixedCategory)
}

func TestTotals(t *testing.T) {
	sb := scoreboard.New()
	mustSet(t, sb, scoreboard.Sixes, 0, 24)
	mustSet(t, sb, scoreboard.ThreeOfAKind, 0, 17)
	mustSet(t, sb, scoreboard.Chance, 0, 20)
	_, err := sb.CycleFixedCategory(scoreboard.Kniffel, 0)
	require.NoError(t, err)
	_, err = sb.CycleFixedCategory(scoreboard.Kniffel, 0)
	require.NoError(t, err)

	upper, err := sb.UpperTotal(0)
	require.NoError(t, err)
	lower, err := sb.LowerTotal(0)
	require.NoError(t, err)
	grand, err := sb.GrandTotal(0)
	require.NoError(t, err)
	assert.Equal(t, 24, upper)
	assert.Equal(t, 17+20+50, lower)
	assert.Equal(t, upper+lower, grand)
}

func TestReset_RestoresBaseline(t *testing.T) {
	sb := scoreboard.New()
	sb.AddPlayer()
	sb.AddPlayer()
	require.NoError(t, sb.SetPlayerName(0, "Anna"))
	mustSet(t, sb, scoreboard.Sixes, 0, 30)
	mustSet(t, sb, scoreboard.Fives, 0, 25)
	mustSet(t, sb, scoreboard.Fours, 0, 20)

	sb.Reset()
	assert.Equal(t, scoreboard.New().Snapshot(), sb.Snapshot())
}

func TestSnapshot_Leader(t *testing.T) {
	sb := scoreboard.New()
	assert.Equal(t, 0, sb.Snapshot().Leader())
	mustSet(t, sb, scoreboard.Chance, 2, 12)
	assert.Equal(t, 2, sb.Snapshot().Leader())
	assert.Equal(t, -1, scoreboard.New(scoreboard.WithDefaultPlayers(0)).Snapshot().Leader())
}

func TestCell_JSON(t *testing.T) {
	b, err := json.Marshal([]scoreboard.Cell{scoreboard.Empty(), scoreboard.Value(0), scoreboard.Value(25)})
	require.NoError(t, err)
	assert.JSONEq(t, `[null, 0, 25]`, string(b))
}

// Property: any sequence of add/remove keeps every column the same shape.
func TestPropertyPlayerCountConsistency(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		sb := scoreboard.New()
		want := 3
		ops := rapid.SliceOf(rapid.Bool()).Draw(rt, "ops")
		for _, add := range ops {
			if add {
				sb.AddPlayer()
				want++
			} else if sb.RemovePlayer() {
				want--
			}
			snap := sb.Snapshot()
			assert.Equal(rt, want, sb.PlayerCount())
			assert.Len(rt, sb.Players(), want)
			assert.Len(rt, snap.Players, want)
			for p := 0; p < want; p++ {
				_, err := sb.Bonus(p)
				assert.NoError(rt, err)
			}
			_, err := sb.Bonus(want)
			assert.ErrorIs(rt, err, scoreboard.ErrPlayerOutOfRange)
		}
	})
}

// Property: three cycles restore a fixed cell from any reachable state.
func TestPropertyCycleLengthThree(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		sb := scoreboard.New()
		c := fixedRows[rapid.IntRange(0, len(fixedRows)-1).Draw(rt, "category")]
		p := rapid.IntRange(0, 2).Draw(rt, "player")
		for i := rapid.IntRange(0, 2).Draw(rt, "warmup"); i > 0; i-- {
			_, err := sb.CycleFixedCategory(c, p)
			assert.NoError(rt, err)
		}
		before, err := sb.Cell(c, p)
		assert.NoError(rt, err)
		for i := 0; i < 3; i++ {
			_, err := sb.CycleFixedCategory(c, p)
			assert.NoError(rt, err)
		}
		after, err := sb.Cell(c, p)
		assert.NoError(rt, err)
		assert.Equal(rt, before, after)
	})
}

// Property: bonus flags and totals follow the upper sum for arbitrary grids,
// and recomputing twice changes nothing.
func TestPropertyBonusAndTotals(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		players := rapid.IntRange(0, 6).Draw(rt, "players")
		sb := scoreboard.New(scoreboard.WithDefaultPlayers(players))
		for p := 0; p < players; p++ {
			for _, c := range numericRows {
				if rapid.Bool().Draw(rt, "recorded") {
					v := rapid.IntRange(0, 30).Draw(rt, "value")
					assert.NoError(rt, sb.SetCell(c, p, scoreboard.Value(v)))
				}
			}
			for _, c := range fixedRows {
				for n := rapid.IntRange(0, 2).Draw(rt, "cycles"); n > 0; n-- {
					_, err := sb.CycleFixedCategory(c, p)
					assert.NoError(rt, err)
				}
			}
		}

		first := sb.Snapshot()
		sb.RecomputeBonuses()
		sb.RecomputeBonuses()
		assert.Equal(rt, first, sb.Snapshot())

		for p, ps := range first.Players {
			upper := 0
			for c := scoreboard.Ones; c <= scoreboard.Sixes; c++ {
				upper += ps.Cells[c].Points()
			}
			lower := 0
			for c := scoreboard.ThreeOfAKind; c <= scoreboard.Chance; c++ {
				lower += ps.Cells[c].Points()
			}
			assert.Equal(rt, upper >= scoreboard.BonusThreshold, ps.Bonus, "player %d", p)
			wantUpper := upper
			if ps.Bonus {
				wantUpper += scoreboard.BonusValue
			}
			gotUpper, err := sb.UpperTotal(p)
			assert.NoError(rt, err)
			gotLower, err := sb.LowerTotal(p)
			assert.NoError(rt, err)
			gotGrand, err := sb.GrandTotal(p)
			assert.NoError(rt, err)
			assert.Equal(rt, wantUpper, gotUpper)
			assert.Equal(rt, lower, gotLower)
			assert.Equal(rt, gotUpper+gotLower, gotGrand)
		}
	})
}
