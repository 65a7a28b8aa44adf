// Package handlers implements the Telnet scorecard session: one table per
// connection, driven by text commands.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/kniffel/internal/frontend/telnet"
	"github.com/cory-johannsen/kniffel/internal/game/command"
	"github.com/cory-johannsen/kniffel/internal/game/dice"
	"github.com/cory-johannsen/kniffel/internal/game/ruleset"
	"github.com/cory-johannsen/kniffel/internal/game/scoreboard"
	"github.com/cory-johannsen/kniffel/internal/game/session"
)

const welcomeBanner = "\r\n" + telnet.Bold + telnet.BrightYellow + `  _  __      _  __  __     _
 | |/ /_ __ (_)/ _|/ _| __| |
 | ' /| '_ \| | |_| |_ / _ \ |
 | . \| | | | |  _|  _|  __/ |
 |_|\_\_| |_|_|_| |_|  \___|_|` + telnet.Reset + `

  ` + telnet.BrightCyan + `Scorecard and dice for the table.` + telnet.Reset + `
  Type ` + telnet.Green + `help` + telnet.Reset + ` for commands, ` + telnet.Green + `roll` + telnet.Reset + ` to throw the dice.

`

// OriginTelnet marks tables opened by Telnet sessions.
const OriginTelnet = "telnet"

var prompt = telnet.Colorize(telnet.BrightWhite, "kniffel> ")

// ScorecardOptions tunes the session boundary.
type ScorecardOptions struct {
	// HoldBeforeFirstRoll lets hold run before the turn's first roll.
	HoldBeforeFirstRoll bool
	// IdleTimeout is the inactivity before a warning; zero disables idle handling.
	IdleTimeout time.Duration
	// IdleGracePeriod is the further inactivity after the warning before disconnecting.
	IdleGracePeriod time.Duration
}

// ScorecardHandler implements telnet.SessionHandler. Each session owns one
// table for its lifetime.
type ScorecardHandler struct {
	tables   *session.Manager
	sheet    *ruleset.Sheet
	registry *command.Registry
	opts     ScorecardOptions
	logger   *zap.Logger
}

// NewScorecardHandler creates a handler that opens tables in tables.
//
// Precondition: tables, sheet, registry and logger must be non-nil.
// Postcondition: Returns a handler ready to serve sessions.
func NewScorecardHandler(
	tables *session.Manager,
	sheet *ruleset.Sheet,
	registry *command.Registry,
	opts ScorecardOptions,
	logger *zap.Logger,
) *ScorecardHandler {
	return &ScorecardHandler{
		tables:   tables,
		sheet:    sheet,
		registry: registry,
		opts:     opts,
		logger:   logger,
	}
}

// HandleSession opens a table, runs the command loop, and closes the table
// when the client quits, disconnects, idles out, or the server stops.
//
// Postcondition: Returns nil on clean quit, or an error if the session ended abnormally.
func (h *ScorecardHandler) HandleSession(ctx context.Context, conn *telnet.Conn) error {
	start := time.Now()
	addr := conn.RemoteAddr().String()

	tbl, err := h.tables.Open(OriginTelnet)
	if err != nil {
		if errors.Is(err, session.ErrTableLimit) {
			_ = conn.WriteLine(RenderError("All tables are taken. Please try again later."))
		}
		return fmt.Errorf("opening table: %w", err)
	}
	defer func() {
		_ = h.tables.Close(tbl.ID)
	}()

	logger := h.logger.With(
		zap.String("remote_addr", addr),
		zap.String("table", tbl.ID),
	)

	if err := conn.Write([]byte(welcomeBanner)); err != nil {
		return fmt.Errorf("sending welcome: %w", err)
	}

	var lastInput atomic.Int64
	lastInput.Store(time.Now().UnixNano())
	var idledOut atomic.Bool
	if h.opts.IdleTimeout > 0 {
		stop := StartIdleMonitor(IdleMonitorConfig{
			LastInput:   &lastInput,
			IdleTimeout: h.opts.IdleTimeout,
			GracePeriod: h.opts.IdleGracePeriod,
			OnWarning: func() {
				_ = conn.WriteLine("")
				_ = conn.WriteLine(telnet.Colorf(telnet.Yellow,
					"You have been idle for %s. Type anything to stay at the table.", h.opts.IdleTimeout))
				_ = conn.WritePrompt(prompt)
			},
			OnDisconnect: func() {
				idledOut.Store(true)
				_ = conn.WriteLine("")
				_ = conn.WriteLine(telnet.Colorize(telnet.Yellow, "Disconnected for inactivity. Goodbye!"))
				_ = conn.Close()
			},
		})
		defer stop()
	}

	s := &scorecardSession{h: h, conn: conn, table: tbl}
	_ = conn.WriteLines(RenderSheet(h.sheet, tbl.Snapshot().Scoreboard))

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteLine(telnet.Colorize(telnet.Yellow, "Server shutting down. Goodbye!"))
			return ctx.Err()
		default:
		}

		if err := conn.WritePrompt(prompt); err != nil {
			return fmt.Errorf("writing prompt: %w", err)
		}

		line, err := conn.ReadLine()
		if err != nil {
			if idledOut.Load() {
				logger.Info("session idled out",
					zap.Duration("session_duration", time.Since(start)),
				)
			}
			return fmt.Errorf("reading input: %w", err)
		}
		lastInput.Store(time.Now().UnixNano())

		res := s.handleLine(line)
		if len(res.lines) > 0 {
			if err := conn.WriteLines(res.lines); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}
		}
		if res.quit {
			logger.Info("client quit",
				zap.Duration("session_duration", time.Since(start)),
			)
			return nil
		}
	}
}

// scorecardSession is the per-connection command state.
type scorecardSession struct {
	h            *ScorecardHandler
	conn         *telnet.Conn
	table        *session.Table
	confirmReset bool
}

// actionResult is returned by every action.
// lines are written to the client; quit ends the session.
type actionResult struct {
	lines []string
	quit  bool
}

// actionContext carries the inputs an action needs.
type actionContext struct {
	s      *scorecardSession
	cmd    *command.Command
	parsed command.ParseResult
}

// actionFunc is the signature of every command action. A returned error is
// shown to the client and the session continues.
type actionFunc func(actx *actionContext) (actionResult, error)

// Actions returns the map from Handler constant to action.
// Exported so tests can verify every built-in command is wired.
func Actions() map[string]actionFunc {
	return actionMap
}

// actionMap is the single source of truth for Telnet command dispatch.
var actionMap = map[string]actionFunc{
	command.HandlerSheet:   actionSheet,
	command.HandlerTotals:  actionTotals,
	command.HandlerSet:     actionSet,
	command.HandlerClear:   actionClear,
	command.HandlerMark:    actionMark,
	command.HandlerReset:   actionReset,
	command.HandlerAdd:     actionAdd,
	command.HandlerRemove:  actionRemove,
	command.HandlerName:    actionName,
	command.HandlerRoll:    actionRoll,
	command.HandlerHold:    actionHold,
	command.HandlerDice:    actionDice,
	command.HandlerNewTurn: actionNewTurn,
	command.HandlerHelp:    actionHelp,
	command.HandlerQuit:    actionQuit,
}

// handleLine runs one input line through confirmation, parsing and dispatch.
func (s *scorecardSession) handleLine(line string) actionResult {
	line = strings.TrimSpace(line)

	if s.confirmReset {
		s.confirmReset = false
		switch strings.ToLower(line) {
		case "y", "yes", "j", "ja":
			_ = s.table.Update(func(sb *scoreboard.Scoreboard, d *dice.Set) error {
				sb.Reset()
				d.Reset()
				return nil
			})
			s.h.logger.Info("table reset", zap.String("table", s.table.ID))
			return actionResult{lines: append(
				[]string{telnet.Colorize(telnet.Green, "New game started.")},
				RenderSheet(s.h.sheet, s.table.Snapshot().Scoreboard)...,
			)}
		default:
			return actionResult{lines: []string{telnet.Colorize(telnet.Dim, "Reset cancelled.")}}
		}
	}

	if line == "" {
		return actionResult{}
	}

	parsed := command.Parse(line)
	cmd, ok := s.h.registry.Resolve(parsed.Command)
	if !ok {
		return actionResult{lines: []string{RenderError(fmt.Sprintf("Unknown command: %s. Type 'help' for available commands.", parsed.Command))}}
	}
	if len(parsed.Args) < cmd.MinArgs {
		return actionResult{lines: []string{RenderError("Usage: " + cmd.Name + " " + cmd.Usage)}}
	}
	fn, ok := actionMap[cmd.Handler]
	if !ok {
		return actionResult{lines: []string{RenderError(fmt.Sprintf("You don't know how to '%s'.", cmd.Name))}}
	}
	res, err := fn(&actionContext{s: s, cmd: cmd, parsed: parsed})
	if err != nil {
		return actionResult{lines: []string{RenderError(err.Error())}}
	}
	return res
}

func (a *actionContext) sheet() []string {
	return RenderSheet(a.s.h.sheet, a.s.table.Snapshot().Scoreboard)
}

// category resolves a row number or sheet key.
func (a *actionContext) category(ref string) (scoreboard.Category, error) {
	c, err := a.s.h.sheet.Lookup(ref)
	if err != nil {
		return 0, fmt.Errorf("No such category: %s.", ref)
	}
	return c, nil
}

// player resolves a 1-based player number against the current table.
func (a *actionContext) player(ref string, count int) (int, error) {
	n, err := strconv.Atoi(ref)
	if err != nil || n < 1 || n > count {
		return 0, fmt.Errorf("No such player: %s. Players are numbered 1-%d.", ref, count)
	}
	return n - 1, nil
}

func actionSheet(a *actionContext) (actionResult, error) {
	return actionResult{lines: a.s.withWidthHint(a.sheet())}, nil
}

// withWidthHint appends a notice when the client reported a terminal
// narrower than the rendered scorecard.
func (s *scorecardSession) withWidthHint(lines []string) []string {
	if s.conn == nil || len(lines) < 2 {
		return lines
	}
	cols, _, ok := s.conn.WindowSize()
	need := telnet.Width(lines[1])
	if !ok || cols >= need {
		return lines
	}
	return append(lines, telnet.Colorf(telnet.Dim,
		"Your terminal is %d columns wide; the scorecard needs %d. Widen the window or use 'totals'.", cols, need))
}

func actionTotals(a *actionContext) (actionResult, error) {
	return actionResult{lines: RenderTotals(a.s.table.Snapshot().Scoreboard)}, nil
}

func actionSet(a *actionContext) (actionResult, error) {
	c, err := a.category(a.parsed.Args[0])
	if err != nil {
		return actionResult{}, err
	}
	v, err := strconv.Atoi(a.parsed.Args[2])
	if err != nil || v < 0 || v > scoreboard.MaxScore {
		return actionResult{}, fmt.Errorf("Score must be a whole number from 0 to %d, got %s.", scoreboard.MaxScore, a.parsed.Args[2])
	}
	if err := a.writeCell(c, a.parsed.Args[1], scoreboard.Value(v)); err != nil {
		return actionResult{}, err
	}
	return actionResult{lines: a.sheet()}, nil
}

func actionClear(a *actionContext) (actionResult, error) {
	c, err := a.category(a.parsed.Args[0])
	if err != nil {
		return actionResult{}, err
	}
	if err := a.writeCell(c, a.parsed.Args[1], scoreboard.Empty()); err != nil {
		return actionResult{}, err
	}
	return actionResult{lines: a.sheet()}, nil
}

func (a *actionContext) writeCell(c scoreboard.Category, playerRef string, value scoreboard.Cell) error {
	label := a.s.h.sheet.Row(c).Label
	switch c.Kind() {
	case scoreboard.KindDerived:
		return fmt.Errorf("%s is calculated automatically.", label)
	case scoreboard.KindFixed:
		return fmt.Errorf("%s is marked, not entered. Use 'mark %s <player>'.", label, a.s.h.sheet.Row(c).Key)
	}
	return a.s.table.Update(func(sb *scoreboard.Scoreboard, _ *dice.Set) error {
		p, err := a.player(playerRef, sb.PlayerCount())
		if err != nil {
			return err
		}
		return sb.SetCell(c, p, value)
	})
}

func actionMark(a *actionContext) (actionResult, error) {
	c, err := a.category(a.parsed.Args[0])
	if err != nil {
		return actionResult{}, err
	}
	row := a.s.h.sheet.Row(c)
	if c.Kind() != scoreboard.KindFixed {
		return actionResult{}, fmt.Errorf("%s is not a fixed-score category. Use 'set %s <player> <value>'.", row.Label, row.Key)
	}
	var cell scoreboard.Cell
	var name string
	err = a.s.table.Update(func(sb *scoreboard.Scoreboard, _ *dice.Set) error {
		p, err := a.player(a.parsed.Args[1], sb.PlayerCount())
		if err != nil {
			return err
		}
		name, _ = sb.Name(p)
		cell, err = sb.CycleFixedCategory(c, p)
		return err
	})
	if err != nil {
		return actionResult{}, err
	}
	var status string
	switch cell.State() {
	case scoreboard.Unused:
		status = "open"
	case scoreboard.Crossed:
		status = "crossed out"
	default:
		status = fmt.Sprintf("scored %d", cell.Points())
	}
	lines := []string{telnet.Colorf(telnet.Cyan, "%s for %s: %s.", row.Label, name, status)}
	return actionResult{lines: append(lines, a.sheet()...)}, nil
}

func actionReset(a *actionContext) (actionResult, error) {
	a.s.confirmReset = true
	return actionResult{lines: []string{
		telnet.Colorize(telnet.Yellow, "Start a new game? All scores and names will be cleared. (yes/no)"),
	}}, nil
}

func actionAdd(a *actionContext) (actionResult, error) {
	idx, tableSnap, err := a.s.table.AddPlayer()
	if errors.Is(err, session.ErrPlayerLimit) {
		return actionResult{}, fmt.Errorf("The table is full (%d players).", a.s.table.MaxPlayers())
	}
	if err != nil {
		return actionResult{}, err
	}
	snap := tableSnap.Scoreboard
	lines := []string{telnet.Colorf(telnet.Green, "%s joined as player %d.", snap.Players[idx].Name, idx+1)}
	return actionResult{lines: append(lines, RenderSheet(a.s.h.sheet, snap)...)}, nil
}

func actionRemove(a *actionContext) (actionResult, error) {
	var removed string
	var ok bool
	_ = a.s.table.Update(func(sb *scoreboard.Scoreboard, _ *dice.Set) error {
		if n := sb.PlayerCount(); n > 0 {
			removed, _ = sb.Name(n - 1)
		}
		ok = sb.RemovePlayer()
		return nil
	})
	if !ok {
		return actionResult{}, errors.New("There are no players to remove.")
	}
	lines := []string{telnet.Colorf(telnet.Yellow, "%s left the table.", removed)}
	return actionResult{lines: append(lines, a.sheet()...)}, nil
}

func actionName(a *actionContext) (actionResult, error) {
	name := a.parsed.Tail(1)
	err := a.s.table.Update(func(sb *scoreboard.Scoreboard, _ *dice.Set) error {
		p, err := a.player(a.parsed.Args[0], sb.PlayerCount())
		if err != nil {
			return err
		}
		return sb.SetPlayerName(p, name)
	})
	if err != nil {
		return actionResult{}, err
	}
	return actionResult{lines: a.sheet()}, nil
}

func actionRoll(a *actionContext) (actionResult, error) {
	var result dice.RollResult
	var ok bool
	var st dice.State
	_ = a.s.table.Update(func(_ *scoreboard.Scoreboard, d *dice.Set) error {
		result, ok = d.Roll()
		st = d.State()
		return nil
	})
	if !ok {
		return actionResult{}, fmt.Errorf("No rolls left this turn (%d/%d). Use 'newturn' to reset the dice.", dice.MaxRolls, dice.MaxRolls)
	}
	a.s.h.logger.Debug("telnet roll",
		zap.String("table", a.s.table.ID),
		zap.Stringer("result", result),
	)
	return actionResult{lines: RenderDice(st)}, nil
}

func actionHold(a *actionContext) (actionResult, error) {
	indices := make([]int, 0, len(a.parsed.Args))
	for _, arg := range a.parsed.Args {
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 || n > dice.Count {
			return actionResult{}, fmt.Errorf("No such die: %s. Dice are numbered 1-%d.", arg, dice.Count)
		}
		indices = append(indices, n-1)
	}

	var st dice.State
	err := a.s.table.Update(func(_ *scoreboard.Scoreboard, d *dice.Set) error {
		if !a.s.h.opts.HoldBeforeFirstRoll && d.RollCount() == 0 {
			return errors.New("Roll the dice before holding any.")
		}
		for _, i := range indices {
			if _, err := d.ToggleHold(i); err != nil {
				return err
			}
		}
		st = d.State()
		return nil
	})
	if err != nil {
		return actionResult{}, err
	}
	return actionResult{lines: RenderDice(st)}, nil
}

func actionDice(a *actionContext) (actionResult, error) {
	return actionResult{lines: RenderDice(a.s.table.Snapshot().Dice)}, nil
}

func actionNewTurn(a *actionContext) (actionResult, error) {
	var st dice.State
	_ = a.s.table.Update(func(_ *scoreboard.Scoreboard, d *dice.Set) error {
		d.Reset()
		st = d.State()
		return nil
	})
	lines := []string{telnet.Colorize(telnet.Cyan, "Dice reset for the next turn.")}
	return actionResult{lines: append(lines, RenderDice(st)...)}, nil
}

func actionHelp(a *actionContext) (actionResult, error) {
	return actionResult{lines: RenderHelp(a.s.h.registry)}, nil
}

func actionQuit(_ *actionContext) (actionResult, error) {
	return actionResult{
		lines: []string{telnet.Colorize(telnet.Cyan, "Thanks for playing. Goodbye!")},
		quit:  true,
	}, nil
}
