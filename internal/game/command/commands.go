// Package command provides the command registry, parser, and built-in
// scorecard and dice command definitions.
package command

// Categories for organizing commands in help output.
const (
	CategoryScorecard = "scorecard"
	CategoryPlayers   = "players"
	CategoryDice      = "dice"
	CategorySystem    = "system"
)

// Handler identifiers mapping commands to session actions.
const (
	HandlerSheet   = "sheet"
	HandlerTotals  = "totals"
	HandlerSet     = "set"
	HandlerClear   = "clear"
	HandlerMark    = "mark"
	HandlerReset   = "reset"
	HandlerAdd     = "add"
	HandlerRemove  = "remove"
	HandlerName    = "name"
	HandlerRoll    = "roll"
	HandlerHold    = "hold"
	HandlerDice    = "dice"
	HandlerNewTurn = "newturn"
	HandlerHelp    = "help"
	HandlerQuit    = "quit"
)

// Command defines a player-invocable command.
type Command struct {
	// Name is the canonical command name.
	Name string
	// Aliases are alternate names for this command.
	Aliases []string
	// Usage shows the argument shape, e.g. "<category> <player> <value>".
	Usage string
	// Help is the short help text displayed to players.
	Help string
	// Category groups the command in help output.
	Category string
	// Handler maps to the session action.
	Handler string
	// MinArgs is the number of arguments the command requires.
	MinArgs int
}

// BuiltinCommands returns all built-in commands.
func BuiltinCommands() []Command {
	return []Command{
		// Scorecard
		{Name: "sheet", Aliases: []string{"show", "ls"}, Help: "Show the scorecard", Category: CategoryScorecard, Handler: HandlerSheet},
		{Name: "totals", Aliases: []string{"t"}, Help: "Show upper, lower and grand totals", Category: CategoryScorecard, Handler: HandlerTotals},
		{Name: "set", Aliases: []string{"score"}, Usage: "<category> <player> <value>", Help: "Enter a score for a numeric category", Category: CategoryScorecard, Handler: HandlerSet, MinArgs: 3},
		{Name: "clear", Usage: "<category> <player>", Help: "Clear a numeric category", Category: CategoryScorecard, Handler: HandlerClear, MinArgs: 2},
		{Name: "mark", Aliases: []string{"cycle", "x"}, Usage: "<category> <player>", Help: "Cycle a fixed category: open, crossed out, scored", Category: CategoryScorecard, Handler: HandlerMark, MinArgs: 2},
		{Name: "reset", Help: "Start a new game (asks for confirmation)", Category: CategoryScorecard, Handler: HandlerReset},

		// Players
		{Name: "add", Aliases: []string{"+"}, Help: "Add a player", Category: CategoryPlayers, Handler: HandlerAdd},
		{Name: "remove", Aliases: []string{"-"}, Help: "Remove the last player", Category: CategoryPlayers, Handler: HandlerRemove},
		{Name: "name", Aliases: []string{"rename"}, Usage: "<player> <name>", Help: "Rename a player", Category: CategoryPlayers, Handler: HandlerName, MinArgs: 2},

		// Dice
		{Name: "roll", Aliases: []string{"r"}, Help: "Roll every die that is not held", Category: CategoryDice, Handler: HandlerRoll},
		{Name: "hold", Aliases: []string{"h"}, Usage: "<die> [die...]", Help: "Toggle hold on dice 1-6", Category: CategoryDice, Handler: HandlerHold, MinArgs: 1},
		{Name: "dice", Aliases: []string{"d"}, Help: "Show the dice", Category: CategoryDice, Handler: HandlerDice},
		{Name: "newturn", Aliases: []string{"nt"}, Help: "Reset the dice for the next turn", Category: CategoryDice, Handler: HandlerNewTurn},

		// System
		{Name: "help", Aliases: []string{"?"}, Help: "Show available commands", Category: CategorySystem, Handler: HandlerHelp},
		{Name: "quit", Aliases: []string{"exit", "q"}, Help: "Leave the table", Category: CategorySystem, Handler: HandlerQuit},
	}
}
