// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package address

import (
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/openadas/internal/errors"
)

const arrow = "->"

// Transition is an ordered (upper, lower) pair of levels.
type Transition struct {
	Upper Level
	Lower Level
}

// NumericTransition builds a transition between principal quantum numbers.
func NumericTransition(upper, lower int) Transition {
	return Transition{Upper: Numeric(upper), Lower: Numeric(lower)}
}

// TermTransition builds a transition between two term labels.
func TermTransition(upper, lower string) Transition {
	return Transition{Upper: Term(upper), Lower: Term(lower)}
}

// Encode returns the canonical record key "upper -> lower", lowercased.
func (t Transition) Encode() string {
	return t.Upper.Canonical() + " " + arrow + " " + t.Lower.Canonical()
}

func (t Transition) String() string {
	return t.Upper.String() + " " + arrow + " " + t.Lower.String()
}

// IsZero reports whether the transition was never set.
func (t Transition) IsZero() bool {
	return t == Transition{}
}

// Validate checks both levels.
func (t Transition) Validate() error {
	if t.IsZero() {
		return errors.InvalidAddressf("transition is not set")
	}
	if err := t.Upper.Validate(); err != nil {
		return errors.Wrap(err, "upper level")
	}
	if err := t.Lower.Validate(); err != nil {
		return errors.Wrap(err, "lower level")
	}
	return nil
}

// ParseTransition parses "upper -> lower". Each side follows ParseLevel.
func ParseTransition(s string) (Transition, error) {
	upper, lower, ok := strings.Cut(s, arrow)
	if !ok {
		return Transition{}, errors.InvalidAddressf("transition %q: expected \"upper -> lower\"", s)
	}
	t := Transition{Upper: ParseLevel(upper), Lower: ParseLevel(lower)}
	if err := t.Validate(); err != nil {
		return Transition{}, errors.Wrapf(err, "transition %q", s)
	}
	return t, nil
}

// MarshalYAML writes the transition as a two-element sequence.
func (t Transition) MarshalYAML() (interface{}, error) {
	return []Level{t.Upper, t.Lower}, nil
}

// UnmarshalYAML accepts a two-element sequence such as [3, 2] or an
// "upper -> lower" string.
func (t *Transition) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		parsed, err := ParseTransition(node.Value)
		if err != nil {
			return err
		}
		*t = parsed
		return nil
	}
	var levels []Level
	if err := node.Decode(&levels); err != nil {
		return err
	}
	if len(levels) != 2 {
		return errors.Newf("line %d: transition needs exactly two levels, got %d", node.Line, len(levels))
	}
	*t = Transition{Upper: levels[0], Lower: levels[1]}
	return nil
}
