package handlers

import (
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/kniffel/internal/config"
	"github.com/cory-johannsen/kniffel/internal/frontend/telnet"
	"github.com/cory-johannsen/kniffel/internal/game/command"
	"github.com/cory-johannsen/kniffel/internal/game/dice"
	"github.com/cory-johannsen/kniffel/internal/game/ruleset"
	"github.com/cory-johannsen/kniffel/internal/game/scoreboard"
	"github.com/cory-johannsen/kniffel/internal/game/session"
	"github.com/cory-johannsen/kniffel/internal/testutil"
)

const testPrompt = "kniffel> "

// ones is a source that always rolls a one.
type ones struct{}

func (ones) Intn(int) int { return 0 }

func newTestHandler(t *testing.T, settings session.Settings, opts ScorecardOptions) (*ScorecardHandler, *session.Manager) {
	t.Helper()
	if settings.Source == nil {
		settings.Source = ones{}
	}
	logger := zaptest.NewLogger(t)
	mgr := session.NewManager(settings, logger)
	return NewScorecardHandler(mgr, ruleset.DefaultSheet(), command.DefaultRegistry(), opts, logger), mgr
}

func newTestSession(t *testing.T, settings session.Settings, opts ScorecardOptions) *scorecardSession {
	t.Helper()
	h, mgr := newTestHandler(t, settings, opts)
	tbl, err := mgr.Open(OriginTelnet)
	require.NoError(t, err)
	return &scorecardSession{h: h, table: tbl}
}

func output(res actionResult) string {
	return strings.Join(plain(res.lines), "\n")
}

func TestAllCommandHandlersAreWired(t *testing.T) {
	actions := Actions()
	for _, cmd := range command.BuiltinCommands() {
		_, ok := actions[cmd.Handler]
		assert.True(t, ok, "command %q (handler %q) has no action", cmd.Name, cmd.Handler)
	}
}

func TestHandleLine_UnknownAndUsage(t *testing.T) {
	s := newTestSession(t, session.Settings{}, ScorecardOptions{})
	assert.Contains(t, output(s.handleLine("dance")), "Unknown command: dance")
	assert.Contains(t, output(s.handleLine("set ones")), "Usage: set <category> <player> <value>")
	assert.Empty(t, s.handleLine("   ").lines)
}

func TestHandleLine_SetByKeyAndNumber(t *testing.T) {
	s := newTestSession(t, session.Settings{}, ScorecardOptions{})
	s.handleLine("set ones 1 3")
	s.handleLine("score 6 2 24")

	snap := s.table.Snapshot().Scoreboard
	v, ok := snap.Players[0].Cells[scoreboard.Ones].Get()
	assert.True(t, ok)
	assert.Equal(t, 3, v)
	v, ok = snap.Players[1].Cells[scoreboard.Sixes].Get()
	assert.True(t, ok)
	assert.Equal(t, 24, v)
}

func TestHandleLine_SetRejections(t *testing.T) {
	s := newTestSession(t, session.Settings{}, ScorecardOptions{})
	assert.Contains(t, output(s.handleLine("set bonus 1 35")), "calculated automatically")
	assert.Contains(t, output(s.handleLine("set fullhouse 1 25")), "mark fullhouse")
	assert.Contains(t, output(s.handleLine("set ones 4 3")), "No such player: 4")
	assert.Contains(t, output(s.handleLine("set 16 1 3")), "No such category: 16")
	assert.Contains(t, output(s.handleLine("set ones 1 -2")), "whole number")
	assert.Contains(t, output(s.handleLine("set ones 1 lots")), "whole number")
	assert.Contains(t, output(s.handleLine("set ones 1 5000")), "from 0 to 1000")
	assert.Contains(t, output(s.handleLine("set chance 1 99999999999999999999")), "whole number")

	snap := s.table.Snapshot().Scoreboard
	for _, p := range snap.Players {
		for _, c := range p.Cells {
			assert.False(t, c.Recorded())
		}
	}
}

func TestHandleLine_Clear(t *testing.T) {
	s := newTestSession(t, session.Settings{}, ScorecardOptions{})
	s.handleLine("set chance 1 20")
	s.handleLine("clear chance 1")
	assert.False(t, s.table.Snapshot().Scoreboard.Players[0].Cells[scoreboard.Chance].Recorded())
}

func TestHandleLine_MarkCycles(t *testing.T) {
	s := newTestSession(t, session.Settings{}, ScorecardOptions{})
	assert.Contains(t, output(s.handleLine("mark fullhouse 1")), "crossed out")
	assert.Contains(t, output(s.handleLine("x fullhouse 1")), "scored 25")
	assert.Contains(t, output(s.handleLine("cycle 11 1")), "open")
	assert.Contains(t, output(s.handleLine("mark chance 1")), "not a fixed-score category")
}

func TestHandleLine_Players(t *testing.T) {
	s := newTestSession(t, session.Settings{MaxPlayers: 4}, ScorecardOptions{})
	assert.Contains(t, output(s.handleLine("add")), "Player 4 joined as player 4")
	assert.Contains(t, output(s.handleLine("+")), "The table is full (4 players)")

	s.handleLine("name 2 Anna Lena")
	assert.Equal(t, "Anna Lena", s.table.Snapshot().Scoreboard.Players[1].Name)

	assert.Contains(t, output(s.handleLine("remove")), "Player 4 left the table")
	for i := 0; i < 3; i++ {
		s.handleLine("-")
	}
	assert.Contains(t, output(s.handleLine("remove")), "no players to remove")
	assert.Contains(t, output(s.handleLine("set ones 1 3")), "No such player")
}

func TestHandleLine_ResetConfirmation(t *testing.T) {
	s := newTestSession(t, session.Settings{}, ScorecardOptions{})
	s.handleLine("set ones 1 3")
	s.handleLine("roll")

	assert.Contains(t, output(s.handleLine("reset")), "(yes/no)")
	assert.Contains(t, output(s.handleLine("no")), "Reset cancelled")
	assert.True(t, s.table.Snapshot().Scoreboard.Players[0].Cells[scoreboard.Ones].Recorded())

	s.handleLine("reset")
	assert.Contains(t, output(s.handleLine("yes")), "New game started")
	snap := s.table.Snapshot()
	assert.False(t, snap.Scoreboard.Players[0].Cells[scoreboard.Ones].Recorded())
	assert.Len(t, snap.Scoreboard.Players, scoreboard.DefaultPlayers)
	assert.Equal(t, 0, snap.Dice.Rolls)
}

func TestHandleLine_Dice(t *testing.T) {
	s := newTestSession(t, session.Settings{}, ScorecardOptions{})

	assert.Contains(t, output(s.handleLine("hold 1")), "Roll the dice before holding")

	assert.Contains(t, output(s.handleLine("roll")), "roll 1/3")
	out := s.handleLine("hold 1 3")
	assert.Contains(t, strings.Join(out.lines, "\n"), telnet.Reverse)
	st := s.table.Snapshot().Dice
	assert.Equal(t, [dice.Count]bool{true, false, true}, st.Held)

	assert.Contains(t, output(s.handleLine("h 7")), "No such die: 7")
	s.handleLine("r")
	s.handleLine("r")
	assert.Contains(t, output(s.handleLine("roll")), "No rolls left")
	assert.Contains(t, output(s.handleLine("dice")), "roll 3/3")

	s.handleLine("newturn")
	st = s.table.Snapshot().Dice
	assert.Equal(t, 0, st.Rolls)
	assert.Equal(t, [dice.Count]bool{}, st.Held)
}

func TestHandleLine_HoldBeforeFirstRollAllowed(t *testing.T) {
	s := newTestSession(t, session.Settings{}, ScorecardOptions{HoldBeforeFirstRoll: true})
	s.handleLine("hold 2")
	assert.True(t, s.table.Snapshot().Dice.Held[1])
}

func TestHandleLine_Quit(t *testing.T) {
	s := newTestSession(t, session.Settings{}, ScorecardOptions{})
	res := s.handleLine("q")
	assert.True(t, res.quit)
}

func TestHandleLine_AddWhileRemovedElsewhere(t *testing.T) {
	s := newTestSession(t, session.Settings{}, ScorecardOptions{})

	done := make(chan struct{})
	remover := make(chan struct{})
	go func() {
		defer close(remover)
		for {
			select {
			case <-done:
				return
			default:
				_ = s.table.Update(func(sb *scoreboard.Scoreboard, _ *dice.Set) error {
					sb.RemovePlayer()
					return nil
				})
			}
		}
	}()

	for range 500 {
		require.NotPanics(t, func() {
			assert.Contains(t, output(s.handleLine("add")), "joined as player")
		})
	}
	close(done)
	<-remover
}

func TestHandleLine_SheetWidthHint(t *testing.T) {
	s := newTestSession(t, session.Settings{}, ScorecardOptions{})
	assert.NotContains(t, output(s.handleLine("sheet")), "columns wide")

	server, client := net.Pipe()
	t.Cleanup(func() {
		server.Close()
		client.Close()
	})
	s.conn = telnet.NewConn(server, 2*time.Second, 2*time.Second)
	go func() {
		_, _ = client.Write([]byte{telnet.IAC, telnet.SB, telnet.OptNAWS, 0, 20, 0, 24, telnet.IAC, telnet.SE, '\n'})
	}()
	_, err := s.conn.ReadLine()
	require.NoError(t, err)

	assert.Contains(t, output(s.handleLine("sheet")), "Your terminal is 20 columns wide")
}

// startAcceptor serves h on a random port and returns its address.
func startAcceptor(t *testing.T, h telnet.SessionHandler) string {
	t.Helper()
	acc := telnet.NewAcceptor(config.TelnetConfig{
		Host:         "127.0.0.1",
		Port:         0,
		WriteTimeout: 5 * time.Second,
	}, h, zaptest.NewLogger(t))
	go func() { _ = acc.ListenAndServe() }()
	require.Eventually(t, func() bool { return acc.Addr() != "" }, 2*time.Second, 10*time.Millisecond)
	t.Cleanup(acc.Stop)
	return acc.Addr()
}

func TestHandleSession_EndToEnd(t *testing.T) {
	h, mgr := newTestHandler(t, session.Settings{}, ScorecardOptions{})
	addr := startAcceptor(t, h)

	client := testutil.NewTelnetClient(t, addr)
	banner := client.ReadUntil(testPrompt, 5*time.Second)
	assert.Contains(t, telnet.StripANSI(banner), "Player 3")
	assert.Equal(t, 1, mgr.Count())

	out := telnet.StripANSI(client.Command("set sixes 1 30", testPrompt))
	assert.Contains(t, out, "30")

	client.Command("set 5 1 25", testPrompt)
	out = telnet.StripANSI(client.Command("set fours 1 8", testPrompt))
	assert.Contains(t, out, "35")

	out = telnet.StripANSI(client.Command("totals", testPrompt))
	assert.Contains(t, out, "upper  98 (+35 bonus)")

	out = telnet.StripANSI(client.Command("roll", testPrompt))
	assert.Contains(t, out, "[ 1 ] [ 1 ] [ 1 ] [ 1 ] [ 1 ] [ 1 ]")

	client.Send("quit")
	out = telnet.StripANSI(client.ReadUntilClosed(5 * time.Second))
	assert.Contains(t, out, "Goodbye")
	require.Eventually(t, func() bool { return mgr.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHandleSession_TableLimit(t *testing.T) {
	h, mgr := newTestHandler(t, session.Settings{MaxTables: 1}, ScorecardOptions{})
	_, err := mgr.Open("http")
	require.NoError(t, err)
	addr := startAcceptor(t, h)

	client := testutil.NewTelnetClient(t, addr)
	out := client.ReadUntilClosed(5 * time.Second)
	assert.Contains(t, telnet.StripANSI(out), "All tables are taken")
}

func TestHandleSession_IdleDisconnect(t *testing.T) {
	h, mgr := newTestHandler(t, session.Settings{}, ScorecardOptions{
		IdleTimeout:     100 * time.Millisecond,
		IdleGracePeriod: 100 * time.Millisecond,
	})
	addr := startAcceptor(t, h)

	client := testutil.NewTelnetClient(t, addr)
	client.ReadUntil(testPrompt, 5*time.Second)
	out := telnet.StripANSI(client.ReadUntilClosed(5 * time.Second))
	assert.Contains(t, out, "You have been idle")
	assert.Contains(t, out, "Disconnected for inactivity")
	require.Eventually(t, func() bool { return mgr.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHandleSession_NarrowTerminal(t *testing.T) {
	h, _ := newTestHandler(t, session.Settings{}, ScorecardOptions{})
	addr := startAcceptor(t, h)

	client := testutil.NewTelnetClient(t, addr)
	client.ReadUntil(testPrompt, 5*time.Second)
	client.ReportWindowSize(20, 24)
	out := telnet.StripANSI(client.Command("sheet", testPrompt))
	assert.Contains(t, out, "Your terminal is 20 columns wide")
}
