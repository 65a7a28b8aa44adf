package scoreboard

// PlayerSnapshot is one player's column with derived totals resolved.
type PlayerSnapshot struct {
	Name       string              `json:"name"`
	Cells      [NumCategories]Cell `json:"cells"`
	Bonus      bool                `json:"bonus"`
	UpperSum   int                 `json:"upper_sum"`
	UpperTotal int                 `json:"upper_total"`
	LowerTotal int                 `json:"lower_total"`
	GrandTotal int                 `json:"grand_total"`
}

// Snapshot is a read-only copy of a scoreboard for rendering.
type Snapshot struct {
	Players []PlayerSnapshot `json:"players"`
}

// Snapshot copies the current state and resolves every derived value.
func (s *Scoreboard) Snapshot() Snapshot {
	out := Snapshot{Players: make([]PlayerSnapshot, len(s.players))}
	for p := range s.players {
		col := s.players[p]
		out.Players[p] = PlayerSnapshot{
			Name:       col.name,
			Cells:      col.cells,
			Bonus:      col.bonus,
			UpperSum:   s.upperSum(p),
			UpperTotal: s.upperTotal(p),
			LowerTotal: s.lowerTotal(p),
			GrandTotal: s.upperTotal(p) + s.lowerTotal(p),
		}
	}
	return out
}

// Leader returns the index of the player with the highest grand total, or
// -1 when there are no players. Ties resolve to the lowest index.
func (s Snapshot) Leader() int {
	best := -1
	for i, p := range s.Players {
		if best < 0 || p.GrandTotal > s.Players[best].GrandTotal {
			best = i
		}
	}
	return best
}
