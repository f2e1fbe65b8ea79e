// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package adf

import (
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/openadas/internal/address"
	"github.com/pdiddy/openadas/internal/element"
	"github.com/pdiddy/openadas/internal/errors"
	"github.com/pdiddy/openadas/internal/fixedfield"
	"github.com/pdiddy/openadas/internal/repository"
)

var (
	// Header counts are written 5I5.
	atomicHeaderLayout = fixedfield.Layout{PerLine: 5, Width: 5}
	// Axes and tables are written 8F10.5 as log10 values.
	atomicLayout = fixedfield.Layout{PerLine: 8, Width: 10, Skip: 1}

	atomicBlockRule = rule{"block start", BlockStart, regexp.MustCompile(`^\s*-+.*Z1\s*=\s*(\d+)`)}
	separatorRule   = rule{"separator", Header, regexp.MustCompile(`^\s*-{4,}`)}

	atomicGrammar = grammar{"adf11", []rule{atomicBlockRule, separatorRule, commentRule, dataRule}}
)

// stageOffset converts a block's Z1 (charge of the recombining or
// ionised ion) to the ionisation stage the rate is keyed by.
var stageOffset = map[address.Class]int{
	address.Ionisation:         -1,
	address.LineRadiation:      -1,
	address.Recombination:      0,
	address.ThermalCX:          0,
	address.ContinuumRadiation: 0,
}

// atomicCodes maps ADAS ADF11 file prefixes to rate classes.
var atomicCodes = map[string]address.Class{
	"scd": address.Ionisation,
	"acd": address.Recombination,
	"ccd": address.ThermalCX,
	"plt": address.LineRadiation,
	"prb": address.ContinuumRadiation,
}

// ParseAtomicClass accepts an ADF11 code (scd, acd, ccd, plt, prb) or an
// atomic class path such as "atomic/ionisation".
func ParseAtomicClass(s string) (address.Class, error) {
	code := strings.ToLower(strings.TrimSpace(s))
	if c, ok := atomicCodes[code]; ok {
		return c, nil
	}
	if c, err := address.ParseClass("atomic/" + strings.TrimPrefix(code, "atomic/")); err == nil {
		if _, ok := stageOffset[c]; ok {
			return c, nil
		}
	}
	return "", errors.UnsupportedRateClassf("%q is not an ADF11 rate class", s)
}

// AtomicRate is one ionisation stage from an ADF11 file.
type AtomicRate struct {
	Ionisation int
	Rate       repository.RateTable
}

// AtomicFile holds every stage tabulated in an ADF11 file.
type AtomicFile struct {
	Species element.Species
	Class   address.Class
	Rates   []AtomicRate
}

// Stage returns the rate for one ionisation stage.
func (f *AtomicFile) Stage(ionisation int) (AtomicRate, error) {
	for _, r := range f.Rates {
		if r.Ionisation == ionisation {
			return r, nil
		}
	}
	return AtomicRate{}, errors.NotFoundf("%s %s: no stage %d", f.Class.Name(), f.Species.Symbol(), ionisation)
}

// DecodeADF11 decodes a stage-resolved (unresolved metastable) ADF11
// file of the given class for species. Stored log10 values are
// exponentiated and rescaled to SI volumes.
func DecodeADF11(r io.Reader, source string, species element.Species, class address.Class) (*AtomicFile, error) {
	offset, ok := stageOffset[class]
	if !ok {
		return nil, errors.UnsupportedRateClassf("%s: %q is not an ADF11 rate class", source, class)
	}
	el, err := checkStage(species, 0)
	if err != nil {
		return nil, err
	}
	rd, err := fixedfield.NewReader(r, source)
	if err != nil {
		return nil, err
	}

	header, err := rd.Ints(3, atomicHeaderLayout)
	if err != nil {
		return nil, errors.Wrap(err, "header")
	}
	z, nd, nt := header[0], header[1], header[2]
	if z != el.AtomicNumber() {
		return nil, errors.SchemaMismatchf("%s: header atomic number %d, requested %s (Z=%d)",
			source, z, el.Symbol(), el.AtomicNumber())
	}
	if nd <= 0 || nt <= 0 {
		return nil, errors.Malformedf("%s:1: empty axis (%d densities, %d temperatures)", source, nd, nt)
	}

	if err := expectSeparator(rd); err != nil {
		return nil, err
	}
	logDensities, err := rd.Floats(nd, atomicLayout)
	if err != nil {
		return nil, errors.Wrap(err, "densities")
	}
	logTemperatures, err := rd.Floats(nt, atomicLayout)
	if err != nil {
		return nil, errors.Wrap(err, "temperatures")
	}
	densities := exp10(logDensities, perCm3ToPerM3)
	temperatures := exp10(logTemperatures, 1)

	file := &AtomicFile{Species: el, Class: class}
	seen := make(map[int]bool)
	for !rd.Done() {
		lineNo := rd.LineNo()
		line, _ := rd.Line()
		kind, m := atomicGrammar.classify(line)
		switch kind {
		case Blank:
			continue
		case Comment:
			return file, nil
		case BlockStart:
		default:
			return nil, errors.Malformedf("%s:%d: expected a Z1 block header, got %q", source, lineNo, strings.TrimSpace(line))
		}

		z1, _ := strconv.Atoi(m[1])
		if z1 < 1 || z1 > z {
			return nil, errors.SchemaMismatchf("%s:%d: Z1=%d outside 1..%d", source, lineNo, z1, z)
		}
		stage := z1 + offset
		if seen[stage] {
			return nil, errors.Malformedf("%s:%d: Z1=%d listed twice", source, lineNo, z1)
		}
		seen[stage] = true

		logRates, err := rd.Floats(nd*nt, atomicLayout)
		if err != nil {
			return nil, errors.Wrapf(err, "block Z1=%d", z1)
		}
		file.Rates = append(file.Rates, AtomicRate{
			Ionisation: stage,
			Rate: repository.RateTable{
				Densities:    densities,
				Temperatures: temperatures,
				Rates:        reshape(exp10(logRates, cm3ToM3), nd, nt),
			},
		})
	}
	return file, nil
}

// expectSeparator consumes a line of dashes.
func expectSeparator(rd *fixedfield.Reader) error {
	lineNo := rd.LineNo()
	line, err := rd.Line()
	if err != nil {
		return err
	}
	if !strings.HasPrefix(strings.TrimSpace(line), "-") {
		return errors.Malformedf("%s:%d: expected separator, got %q", rd.Source(), lineNo, strings.TrimSpace(line))
	}
	return nil
}
