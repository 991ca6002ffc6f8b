package policy

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"git.home.luguber.info/inful/promptpack/internal/foundation/errors"
)

// Rule maps a pattern to a mode. A pattern containing ':' matches qualified
// names; any other pattern is a path glob.
type Rule struct {
	Match string `yaml:"match"`
	Mode  string `yaml:"mode"`
}

// IsQual reports whether the rule targets qualified names.
func (r Rule) IsQual() bool {
	return strings.Contains(r.Match, ":")
}

type compiledRule struct {
	pattern string
	action  Action
}

// Decider picks the action for a node: the first matching qualname rule,
// else the first matching path rule, else the default.
type Decider struct {
	qual     []compiledRule
	path     []compiledRule
	fallback Action
}

// NewDecider validates rules and the default mode.
func NewDecider(rules []Rule, defaultMode string) (*Decider, error) {
	fallback, err := ParseMode(defaultMode)
	if err != nil {
		return nil, err
	}

	d := &Decider{fallback: fallback}
	for i, r := range rules {
		if r.Match == "" {
			return nil, errors.ValidationError("rule has an empty match").
				WithContext("rule", i).
				Build()
		}
		if !doublestar.ValidatePattern(r.Match) {
			return nil, errors.ValidationError("rule match is not a valid glob").
				WithContext("rule", i).
				WithContext("match", r.Match).
				Build()
		}
		action, err := ParseMode(r.Mode)
		if err != nil {
			if ce, ok := errors.AsClassified(err); ok {
				return nil, ce.WithContext("rule", i)
			}
			return nil, err
		}

		c := compiledRule{pattern: r.Match, action: action}
		if r.IsQual() {
			d.qual = append(d.qual, c)
		} else {
			d.path = append(d.path, c)
		}
	}
	return d, nil
}

// Default returns the fallback action.
func (d *Decider) Default() Action {
	return d.fallback
}

// Decide returns the action for a node with the given qualified name, living
// in a document known under paths (typically its relative and absolute slash paths).
func (d *Decider) Decide(qual string, paths ...string) Action {
	if qual != "" {
		for _, r := range d.qual {
			if match(r.pattern, qual) {
				return r.action
			}
		}
	}
	for _, r := range d.path {
		for _, p := range paths {
			if p != "" && match(r.pattern, p) {
				return r.action
			}
		}
	}
	return d.fallback
}

func match(pattern, name string) bool {
	ok, err := doublestar.Match(pattern, name)
	return err == nil && ok
}
