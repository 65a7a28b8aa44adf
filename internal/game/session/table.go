// Package session tracks the open tables: one scoreboard and one dice set
// per table, owned by the Telnet connection or HTTP client that created it.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/cory-johannsen/kniffel/internal/game/dice"
	"github.com/cory-johannsen/kniffel/internal/game/scoreboard"
)

// ErrPlayerLimit is returned when a table already seats the maximum players.
var ErrPlayerLimit = errors.New("session: player limit reached")

// Table is one scorecard with its dice.
//
// The scoreboard and dice set are not safe for concurrent use on their own;
// every access goes through Update or View, which serialise on the table mutex.
type Table struct {
	// ID is the table's unique identifier.
	ID string
	// Origin names the boundary that opened the table ("telnet", "http").
	Origin string
	// CreatedAt is when the table was opened.
	CreatedAt time.Time

	maxPlayers int

	mu    sync.Mutex
	board *scoreboard.Scoreboard
	dice  *dice.Set
}

// Update runs fn with exclusive access to the table's models.
//
// Postcondition: returns fn's error.
func (t *Table) Update(fn func(sb *scoreboard.Scoreboard, d *dice.Set) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(t.board, t.dice)
}

// View is Update for callers that only read.
func (t *Table) View(fn func(sb *scoreboard.Scoreboard, d *dice.Set)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn(t.board, t.dice)
}

// AddPlayer seats a new player unless the table is full. The snapshot is
// taken under the same lock, so snap.Scoreboard.Players[idx] is the new player.
//
// Postcondition: returns the new player's index and the table after the add, or ErrPlayerLimit.
func (t *Table) AddPlayer() (idx int, snap Snapshot, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.maxPlayers > 0 && t.board.PlayerCount() >= t.maxPlayers {
		return 0, Snapshot{}, ErrPlayerLimit
	}
	idx = t.board.AddPlayer()
	return idx, t.snapshotLocked(), nil
}

// MaxPlayers returns the seat limit; 0 means unlimited.
func (t *Table) MaxPlayers() int {
	return t.maxPlayers
}

// Snapshot is a consistent copy of both models.
type Snapshot struct {
	ID         string              `json:"id"`
	Origin     string              `json:"origin"`
	CreatedAt  time.Time           `json:"created_at"`
	MaxPlayers int                 `json:"max_players,omitempty"`
	Scoreboard scoreboard.Snapshot `json:"scoreboard"`
	Dice       dice.State          `json:"dice"`
}

// Snapshot copies both models under the table lock.
func (t *Table) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Table) snapshotLocked() Snapshot {
	return Snapshot{
		ID:         t.ID,
		Origin:     t.Origin,
		CreatedAt:  t.CreatedAt,
		MaxPlayers: t.maxPlayers,
		Scoreboard: t.board.Snapshot(),
		Dice:       t.dice.State(),
	}
}
