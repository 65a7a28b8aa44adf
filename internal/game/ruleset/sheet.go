// Package ruleset loads the scorecard sheet: the label, hint and lookup key
// shown for each of the fifteen scoreboard rows.
package ruleset

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/kniffel/internal/game/scoreboard"
)

//go:embed sheets/default.yaml
var defaultSheetYAML []byte

// Row describes one scorecard row.
//
// Precondition: Key and Label must be non-empty after loading.
type Row struct {
	Key   string `yaml:"key" json:"key"`
	Label string `yaml:"label" json:"label"`
	Hint  string `yaml:"hint" json:"hint,omitempty"`
	// Kind, when set, must name the row's scoreboard kind: numeric, derived or fixed.
	Kind string `yaml:"kind,omitempty" json:"kind,omitempty"`
}

// Sheet is the ordered set of rows; row i describes scoreboard.Category(i).
//
// Invariant: len(Rows) == scoreboard.NumCategories; keys are unique and lowercase.
type Sheet struct {
	Name string `yaml:"name" json:"name"`
	Rows []Row  `yaml:"rows" json:"rows"`

	byKey map[string]scoreboard.Category
}

// ParseSheet decodes and validates a sheet from YAML.
//
// Postcondition: Returns a valid Sheet or a non-nil error.
func ParseSheet(data []byte) (*Sheet, error) {
	var s Sheet
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing sheet: %w", err)
	}
	if err := s.init(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadSheet reads a sheet YAML file from path.
//
// Precondition: path must be a readable file.
// Postcondition: Returns a valid Sheet or a non-nil error.
func LoadSheet(path string) (*Sheet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	s, err := ParseSheet(data)
	if err != nil {
		return nil, fmt.Errorf("sheet file %s: %w", path, err)
	}
	return s, nil
}

// DefaultSheet returns the embedded English sheet.
func DefaultSheet() *Sheet {
	s, err := ParseSheet(defaultSheetYAML)
	if err != nil {
		panic("ruleset: embedded sheet is invalid: " + err.Error())
	}
	return s
}

// LoadSheetOrDefault loads path, or returns the embedded sheet when path is empty.
func LoadSheetOrDefault(path string) (*Sheet, error) {
	if path == "" {
		return DefaultSheet(), nil
	}
	return LoadSheet(path)
}

func (s *Sheet) init() error {
	if len(s.Rows) != scoreboard.NumCategories {
		return fmt.Errorf("sheet must have %d rows, got %d", scoreboard.NumCategories, len(s.Rows))
	}
	var err error
	s.byKey = make(map[string]scoreboard.Category, len(s.Rows))
	for i := range s.Rows {
		r := &s.Rows[i]
		r.Key = strings.ToLower(strings.TrimSpace(r.Key))
		r.Kind = strings.ToLower(strings.TrimSpace(r.Kind))
		if r.Label == "" {
			err = multierr.Append(err, fmt.Errorf("row %d: label must not be empty", i+1))
		}
		if want := scoreboard.Category(i).Kind().String(); r.Kind != "" && r.Kind != want {
			err = multierr.Append(err, fmt.Errorf("row %d: kind %q does not match %s row", i+1, r.Kind, want))
		}
		switch {
		case r.Key == "":
			err = multierr.Append(err, fmt.Errorf("row %d: key must not be empty", i+1))
			continue
		case isNumber(r.Key):
			err = multierr.Append(err, fmt.Errorf("row %d: key %q must not be numeric", i+1, r.Key))
			continue
		case strings.ContainsAny(r.Key, " \t"):
			err = multierr.Append(err, fmt.Errorf("row %d: key %q must be a single word", i+1, r.Key))
			continue
		}
		if prev, dup := s.byKey[r.Key]; dup {
			err = multierr.Append(err, fmt.Errorf("row %d: key %q already used by row %d", i+1, r.Key, int(prev)+1))
			continue
		}
		s.byKey[r.Key] = scoreboard.Category(i)
	}
	if err != nil {
		return fmt.Errorf("invalid sheet: %w", err)
	}
	return nil
}

// Row returns the row describing c.
//
// Precondition: c.Valid().
func (s *Sheet) Row(c scoreboard.Category) Row {
	return s.Rows[c]
}

// Lookup resolves a user-supplied category reference: either the 1-based row
// number or a row key (case-insensitive).
//
// Postcondition: Returns a valid Category or a non-nil error.
func (s *Sheet) Lookup(ref string) (scoreboard.Category, error) {
	ref = strings.ToLower(strings.TrimSpace(ref))
	if n, err := strconv.Atoi(ref); err == nil {
		c := scoreboard.Category(n - 1)
		if !c.Valid() {
			return 0, fmt.Errorf("row %d: %w", n, scoreboard.ErrCategoryOutOfRange)
		}
		return c, nil
	}
	if c, ok := s.byKey[ref]; ok {
		return c, nil
	}
	return 0, fmt.Errorf("unknown category %q", ref)
}

// Keys returns the row keys in sheet order.
func (s *Sheet) Keys() []string {
	keys := make([]string, len(s.Rows))
	for i, r := range s.Rows {
		keys[i] = r.Key
	}
	return keys
}

func isNumber(s string) bool {
	_, err := strconv.Atoi(s)
	return err == nil
}
