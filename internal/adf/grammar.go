// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package adf

import (
	"regexp"
	"strings"
)

// LineKind classifies a source line for the multi-record dialects.
type LineKind int

const (
	Unrecognised LineKind = iota
	Header
	BlockStart
	Data
	ConfigLine
	TransitionLine
	Comment
	Blank
)

func (k LineKind) String() string {
	switch k {
	case Header:
		return "header"
	case BlockStart:
		return "block start"
	case Data:
		return "data"
	case ConfigLine:
		return "configuration"
	case TransitionLine:
		return "transition"
	case Comment:
		return "comment"
	case Blank:
		return "blank"
	default:
		return "unrecognised"
	}
}

// rule is a named pattern. Rules are tried in order; the first match wins.
type rule struct {
	name    string
	kind    LineKind
	pattern *regexp.Regexp
}

// grammar is the ordered rule set of one dialect or sub-dialect.
type grammar struct {
	name  string
	rules []rule
}

// classify returns the kind of line and the submatches of the rule that
// matched it.
func (g grammar) classify(line string) (LineKind, []string) {
	if strings.TrimSpace(line) == "" {
		return Blank, nil
	}
	for _, r := range g.rules {
		if m := r.pattern.FindStringSubmatch(line); m != nil {
			return r.kind, m
		}
	}
	return Unrecognised, nil
}

// Shared rules.
var (
	dataRule    = rule{"data", Data, regexp.MustCompile(`^[\s0-9.+\-EeDd]+$`)}
	commentRule = rule{"comment", Comment, regexp.MustCompile(`^[Cc]`)}
)
