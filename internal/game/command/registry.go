package command

import (
	"fmt"
	"strings"
)

// Group is a help section: a category and its commands in registration order.
type Group struct {
	Category string
	Commands []*Command
}

// Registry resolves typed words to commands. A word matches a canonical
// name, an alias, or an unambiguous prefix of a canonical name.
type Registry struct {
	byWord map[string]*Command
	groups []Group
}

// NewRegistry indexes cmds by name and alias.
//
// Precondition: names and aliases must be unique across cmds.
// Postcondition: Returns an error naming the first collision.
func NewRegistry(cmds []Command) (*Registry, error) {
	r := &Registry{byWord: make(map[string]*Command, 2*len(cmds))}
	groupIndex := make(map[string]int)

	for i := range cmds {
		cmd := &cmds[i]
		for _, word := range append([]string{cmd.Name}, cmd.Aliases...) {
			if prev, taken := r.byWord[word]; taken {
				return nil, fmt.Errorf("%q is claimed by both %q and %q", word, prev.Name, cmd.Name)
			}
			r.byWord[word] = cmd
		}

		gi, ok := groupIndex[cmd.Category]
		if !ok {
			gi = len(r.groups)
			groupIndex[cmd.Category] = gi
			r.groups = append(r.groups, Group{Category: cmd.Category})
		}
		r.groups[gi].Commands = append(r.groups[gi].Commands, cmd)
	}
	return r, nil
}

// DefaultRegistry returns a Registry of BuiltinCommands. It panics if the
// built-in table collides with itself.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(BuiltinCommands())
	if err != nil {
		panic(fmt.Sprintf("built-in commands: %v", err))
	}
	return r
}

// Resolve finds the command for word.
//
// Postcondition: Returns (nil, false) for unknown or ambiguous words.
func (r *Registry) Resolve(word string) (*Command, bool) {
	word = strings.ToLower(word)
	if cmd, ok := r.byWord[word]; ok {
		return cmd, true
	}
	if word == "" {
		return nil, false
	}
	var match *Command
	for _, g := range r.groups {
		for _, cmd := range g.Commands {
			if !strings.HasPrefix(cmd.Name, word) {
				continue
			}
			if match != nil {
				return nil, false
			}
			match = cmd
		}
	}
	return match, match != nil
}

// Commands returns every command in registration order.
func (r *Registry) Commands() []*Command {
	var out []*Command
	for _, g := range r.groups {
		out = append(out, g.Commands...)
	}
	return out
}

// Groups returns the commands grouped by category, categories in the order
// they were first seen.
func (r *Registry) Groups() []Group {
	return r.groups
}
