package handlers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cory-johannsen/kniffel/internal/frontend/telnet"
	"github.com/cory-johannsen/kniffel/internal/game/command"
	"github.com/cory-johannsen/kniffel/internal/game/dice"
	"github.com/cory-johannsen/kniffel/internal/game/ruleset"
	"github.com/cory-johannsen/kniffel/internal/game/scoreboard"
)

const (
	numberWidth = 3
	minColWidth = 8
)

// RenderSheet formats the full scorecard as colored Telnet lines: one row per
// category with its 1-based number, then lower and grand totals. The leader's
// grand total is highlighted.
func RenderSheet(sheet *ruleset.Sheet, snap scoreboard.Snapshot) []string {
	labelWidth := 0
	for _, r := range sheet.Rows {
		labelWidth = max(labelWidth, telnet.Width(r.Label))
	}
	labelWidth = max(labelWidth, telnet.Width("Grand total"))
	widths := columnWidths(snap)

	lines := make([]string, 0, scoreboard.NumCategories+5)
	lines = append(lines, telnet.Colorize(telnet.Bold+telnet.BrightWhite, sheet.Name))

	header := telnet.PadRight("#", numberWidth) + " " + telnet.PadRight("", labelWidth)
	for i, p := range snap.Players {
		header += " " + telnet.PadLeft(telnet.Colorize(telnet.BrightCyan, p.Name), widths[i])
	}
	lines = append(lines, header)

	for _, c := range scoreboard.Categories() {
		row := sheet.Row(c)
		label := row.Label
		if c.Kind() == scoreboard.KindDerived {
			label = telnet.Colorize(telnet.Dim, label)
		}
		line := telnet.PadRight(strconv.Itoa(int(c)+1), numberWidth) + " " + telnet.PadRight(label, labelWidth)
		for i, p := range snap.Players {
			line += " " + telnet.PadLeft(renderCell(c, p), widths[i])
		}
		lines = append(lines, line)
		if c == scoreboard.UpperTotal {
			lines = append(lines, rule(labelWidth, widths))
		}
	}

	lines = append(lines, rule(labelWidth, widths))
	lines = append(lines, totalsLine("Lower total", labelWidth, widths, snap, -1, func(p scoreboard.PlayerSnapshot) int { return p.LowerTotal }))
	lines = append(lines, totalsLine("Grand total", labelWidth, widths, snap, snap.Leader(), func(p scoreboard.PlayerSnapshot) int { return p.GrandTotal }))
	return lines
}

// RenderTotals formats upper, lower and grand totals per player.
func RenderTotals(snap scoreboard.Snapshot) []string {
	if len(snap.Players) == 0 {
		return []string{telnet.Colorize(telnet.Dim, "No players at the table.")}
	}
	nameWidth := 0
	for _, p := range snap.Players {
		nameWidth = max(nameWidth, telnet.Width(p.Name))
	}
	leader := snap.Leader()
	lines := make([]string, 0, len(snap.Players))
	for i, p := range snap.Players {
		bonus := ""
		if p.Bonus {
			bonus = telnet.Colorf(telnet.Green, " (+%d bonus)", scoreboard.BonusValue)
		}
		grand := strconv.Itoa(p.GrandTotal)
		if i == leader {
			grand = telnet.Colorize(telnet.Bold+telnet.BrightYellow, grand)
		}
		lines = append(lines, fmt.Sprintf("%d. %s  upper %3d%s  lower %3d  total %s",
			i+1, telnet.PadRight(p.Name, nameWidth), p.UpperTotal, bonus, p.LowerTotal, grand))
	}
	return lines
}

// RenderDice formats the dice with held dice in reverse video, the die
// numbers to use with hold, and the roll counter.
func RenderDice(st dice.State) []string {
	faces := make([]string, dice.Count)
	positions := make([]string, dice.Count)
	for i, d := range st.Dice {
		face := fmt.Sprintf(" %d ", d)
		if st.Held[i] {
			face = telnet.Colorize(telnet.Reverse+telnet.BrightYellow, face)
		}
		faces[i] = "[" + face + "]"
		positions[i] = telnet.Colorf(telnet.Dim, "  %d  ", i+1)
	}
	status := telnet.Colorf(telnet.Cyan, "roll %d/%d", st.Rolls, dice.MaxRolls)
	if !st.CanRoll {
		status += telnet.Colorize(telnet.Yellow, "  (no rolls left; newturn to reset)")
	}
	return []string{
		strings.Join(faces, " "),
		strings.Join(positions, " "),
		status,
	}
}

// RenderHelp lists the registry's commands grouped by category.
func RenderHelp(registry *command.Registry) []string {
	lines := []string{telnet.Colorize(telnet.BrightWhite, "Available commands:")}
	for _, g := range registry.Groups() {
		lines = append(lines, telnet.Colorf(telnet.BrightYellow, "  %s:", strings.ToUpper(g.Category[:1])+g.Category[1:]))
		for _, cmd := range g.Commands {
			usage := cmd.Name
			if cmd.Usage != "" {
				usage += " " + cmd.Usage
			}
			aliases := ""
			if len(cmd.Aliases) > 0 {
				aliases = telnet.Colorf(telnet.Dim, " (%s)", strings.Join(cmd.Aliases, ", "))
			}
			lines = append(lines, "    "+telnet.PadRight(telnet.Colorize(telnet.Green, usage), 34)+" "+cmd.Help+aliases)
		}
	}
	lines = append(lines, telnet.Colorize(telnet.Dim, "  Categories are a row number (1-15) or a key such as 'fullhouse'. Players and dice count from 1."))
	return lines
}

// RenderError formats a user-facing error.
func RenderError(msg string) string {
	return telnet.Colorize(telnet.Red, msg)
}

func renderCell(c scoreboard.Category, p scoreboard.PlayerSnapshot) string {
	switch c {
	case scoreboard.Bonus:
		if p.Bonus {
			return telnet.Colorize(telnet.Green, strconv.Itoa(scoreboard.BonusValue))
		}
		return telnet.Colorf(telnet.Dim, "%d/%d", p.UpperSum, scoreboard.BonusThreshold)
	case scoreboard.UpperTotal:
		return telnet.Colorize(telnet.Bold, strconv.Itoa(p.UpperTotal))
	}
	cell := p.Cells[c]
	if c.Kind() == scoreboard.KindFixed && cell.State() == scoreboard.Crossed {
		return telnet.Colorize(telnet.BrightBlack, "x")
	}
	if cell.State() == scoreboard.Crossed {
		return telnet.Colorize(telnet.BrightBlack, "0")
	}
	return cell.String()
}

func columnWidths(snap scoreboard.Snapshot) []int {
	widths := make([]int, len(snap.Players))
	for i, p := range snap.Players {
		widths[i] = max(minColWidth, telnet.Width(p.Name))
	}
	return widths
}

func rule(labelWidth int, widths []int) string {
	n := numberWidth + 1 + labelWidth
	for _, w := range widths {
		n += 1 + w
	}
	return telnet.Colorize(telnet.Dim, strings.Repeat("-", n))
}

func totalsLine(label string, labelWidth int, widths []int, snap scoreboard.Snapshot, highlight int, value func(scoreboard.PlayerSnapshot) int) string {
	line := telnet.PadRight("", numberWidth) + " " + telnet.PadRight(telnet.Colorize(telnet.Bold, label), labelWidth)
	for i, p := range snap.Players {
		v := strconv.Itoa(value(p))
		if i == highlight {
			v = telnet.Colorize(telnet.Bold+telnet.BrightYellow, v)
		}
		line += " " + telnet.PadLeft(v, widths[i])
	}
	return line
}
