// Package policy turns abbreviation modes and match rules into per-node actions.
package policy

import (
	"strconv"
	"strings"

	"git.home.luguber.info/inful/promptpack/internal/foundation/errors"
	"git.home.luguber.info/inful/promptpack/internal/foundation/normalization"
)

// Kind is an abbreviation mode.
type Kind string

const (
	KindFull      Kind = "full"
	KindHide      Kind = "hide"
	KindSig       Kind = "sig"
	KindSigDoc    Kind = "sig+doc"
	KindLevels    Kind = "levels"
	KindNoImports Kind = "file:no-imports"
)

const levelsPrefix = "body:levels="

var kindNormalizer = normalization.NewNormalizer(map[string]Kind{
	"full":            KindFull,
	"hide":            KindHide,
	"sig":             KindSig,
	"sig+doc":         KindSigDoc,
	"file:no-imports": KindNoImports,
}, KindFull)

// Action is a parsed mode. Levels is only meaningful for KindLevels.
type Action struct {
	Kind   Kind
	Levels int
}

// Full is the action that leaves a node untouched.
var Full = Action{Kind: KindFull}

// String renders the action in the mode syntax accepted by ParseMode.
func (a Action) String() string {
	if a.Kind == KindLevels {
		return levelsPrefix + strconv.Itoa(a.Levels)
	}
	return string(a.Kind)
}

// IsFull reports whether the action keeps text as is.
func (a Action) IsFull() bool {
	return a.Kind == KindFull || a.Kind == ""
}

// ParseMode parses a mode string such as "sig", "hide" or "body:levels=2".
func ParseMode(raw string) (Action, error) {
	mode := strings.ToLower(strings.TrimSpace(raw))

	if rest, ok := strings.CutPrefix(mode, levelsPrefix); ok {
		k, err := strconv.Atoi(rest)
		if err != nil || k < 0 {
			return Action{}, errors.ValidationError("invalid levels mode").
				WithContext("mode", raw).
				WithContext("expected", levelsPrefix+"<k>, k >= 0").
				Build()
		}
		return Action{Kind: KindLevels, Levels: k}, nil
	}

	kind, err := kindNormalizer.NormalizeWithError(mode)
	if err != nil {
		return Action{}, errors.WrapError(err, errors.CategoryValidation, "unknown mode").
			WithContext("mode", raw).
			Fatal().
			Build()
	}
	return Action{Kind: kind}, nil
}

// Modes lists the accepted mode spellings for help output.
func Modes() []string {
	return append(kindNormalizer.ValidKeys(), levelsPrefix+"<k>")
}
