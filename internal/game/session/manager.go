package session

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/kniffel/internal/game/dice"
	"github.com/cory-johannsen/kniffel/internal/game/scoreboard"
)

var (
	// ErrTableLimit is returned by Open when the manager is at capacity.
	ErrTableLimit = errors.New("session: table limit reached")
	// ErrTableNotFound is returned by Close for an unknown id.
	ErrTableNotFound = errors.New("session: table not found")
)

// Settings configures the tables a Manager opens.
type Settings struct {
	// MaxTables caps concurrently open tables; 0 means unlimited.
	MaxTables int
	// MaxPlayers caps players per table; 0 means unlimited.
	MaxPlayers int
	// Scoreboard options applied to every new scoreboard.
	Scoreboard []scoreboard.Option
	// Source is shared by every dice set. It must be safe for concurrent use.
	Source dice.Source
}

// Manager tracks all open tables.
// All methods are safe for concurrent use.
type Manager struct {
	settings Settings
	logger   *zap.Logger
	now      func() time.Time

	mu     sync.RWMutex
	tables map[string]*Table
}

// NewManager creates an empty table Manager.
//
// Precondition: settings.Source and logger must be non-nil.
func NewManager(settings Settings, logger *zap.Logger) *Manager {
	return &Manager{
		settings: settings,
		logger:   logger,
		now:      time.Now,
		tables:   make(map[string]*Table),
	}
}

// Open creates a table with a fresh scoreboard and dice set.
//
// Postcondition: Returns the registered table, or ErrTableLimit.
func (m *Manager) Open(origin string) (*Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.settings.MaxTables > 0 && len(m.tables) >= m.settings.MaxTables {
		return nil, ErrTableLimit
	}

	id := uuid.NewString()
	t := &Table{
		ID:         id,
		Origin:     origin,
		CreatedAt:  m.now(),
		maxPlayers: m.settings.MaxPlayers,
		board:      scoreboard.New(m.settings.Scoreboard...),
		dice:       dice.NewSet(m.settings.Source, m.logger.With(zap.String("table", id))),
	}
	m.tables[id] = t

	m.logger.Info("table opened",
		zap.String("table", id),
		zap.String("origin", origin),
		zap.Int("open_tables", len(m.tables)),
	)
	return t, nil
}

// Close removes a table.
//
// Postcondition: Returns an error if the table is not open.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tables[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrTableNotFound, id)
	}
	delete(m.tables, id)

	m.logger.Info("table closed",
		zap.String("table", id),
		zap.Duration("age", m.now().Sub(t.CreatedAt)),
		zap.Int("open_tables", len(m.tables)),
	)
	return nil
}

// Get returns the table with the given id.
func (m *Manager) Get(id string) (*Table, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tables[id]
	return t, ok
}

// IDs returns the ids of all open tables, oldest first.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	tables := make([]*Table, 0, len(m.tables))
	for _, t := range m.tables {
		tables = append(tables, t)
	}
	m.mu.RUnlock()

	sort.Slice(tables, func(i, j int) bool {
		if tables[i].CreatedAt.Equal(tables[j].CreatedAt) {
			return tables[i].ID < tables[j].ID
		}
		return tables[i].CreatedAt.Before(tables[j].CreatedAt)
	})
	ids := make([]string, len(tables))
	for i, t := range tables {
		ids[i] = t.ID
	}
	return ids
}

// Count returns the number of open tables.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tables)
}
