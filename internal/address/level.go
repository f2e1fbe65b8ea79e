// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package address

import (
	"strconv"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/openadas/internal/errors"
)

// Level identifies one end of a transition. It holds either a principal
// quantum number or a spectroscopic term label, never both.
type Level struct {
	n    int
	term string
}

// Numeric returns a level identified by principal quantum number n.
func Numeric(n int) Level { return Level{n: n} }

// Term returns a level identified by a spectroscopic term label such as
// "2s1 2p1 3d1 2D4.5". Surrounding whitespace is removed and internal runs
// of whitespace collapse to one space.
func Term(label string) Level {
	return Level{term: strings.Join(strings.Fields(label), " ")}
}

// ParseLevel returns a numeric level when s is a decimal integer and a
// term level otherwise.
func ParseLevel(s string) Level {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return Numeric(n)
	}
	return Term(s)
}

// IsNumeric reports whether the level is a principal quantum number.
func (l Level) IsNumeric() bool { return l.term == "" }

// Number returns the principal quantum number of a numeric level.
func (l Level) Number() (int, bool) { return l.n, l.IsNumeric() }

// Canonical returns the lowercased form used in record keys.
func (l Level) Canonical() string {
	if l.IsNumeric() {
		return strconv.Itoa(l.n)
	}
	return strings.ToLower(l.term)
}

func (l Level) String() string {
	if l.IsNumeric() {
		return strconv.Itoa(l.n)
	}
	return l.term
}

// Validate rejects levels that cannot be encoded unambiguously.
func (l Level) Validate() error {
	if l.IsNumeric() {
		if l.n < 1 {
			return errors.InvalidAddressf("principal quantum number must be positive, got %d", l.n)
		}
		return nil
	}
	if strings.Contains(l.term, arrow) || strings.Contains(l.term, ",") {
		return errors.InvalidAddressf("term %q contains a reserved separator", l.term)
	}
	if _, err := strconv.Atoi(l.term); err == nil {
		return errors.InvalidAddressf("term %q is a bare integer, use a numeric level", l.term)
	}
	return nil
}

// MarshalYAML writes numeric levels as integers and terms as strings.
func (l Level) MarshalYAML() (interface{}, error) {
	if l.IsNumeric() {
		return l.n, nil
	}
	return l.term, nil
}

// UnmarshalYAML reads integer scalars as numeric levels and any other
// scalar as a term.
func (l *Level) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return errors.Newf("line %d: level must be a scalar", node.Line)
	}
	if node.Tag == "!!int" {
		n, err := strconv.Atoi(node.Value)
		if err != nil {
			return errors.Wrapf(err, "line %d: level", node.Line)
		}
		*l = Numeric(n)
		return nil
	}
	*l = Term(node.Value)
	return nil
}
