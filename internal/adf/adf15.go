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

// ADF15 values are written 1P,8E9.2.
var pecLayout = fixedfield.Layout{PerLine: 8, Width: 9, Skip: 1, Strict: true}

var (
	pecHeaderRule = rule{"file header", Header,
		regexp.MustCompile(`^\s*(\d+)\s+/\s*(.*?)\s*/?\s*$`)}
	pecIdentity = regexp.MustCompile(`^([A-Za-z]{1,2})\s*\+?\s*(\d+)\b`)

	pecBlockRule = rule{"block start", BlockStart,
		regexp.MustCompile(`^\s*(\d+\.?\d*)\s*A\s+(\d+)\s+(\d+)\s*/.*/TYPE\s*=\s*([A-Za-z]+).*/ISEL\s*=\s*(\d+)`)}

	pecNumericTransitionRule = rule{"numeric transition", TransitionLine,
		regexp.MustCompile(`^C\s*(\d+)\.\s+(\d+\.?\d*)\s+N\s*=\s*(\d+)\s*-\s*N\s*=\s*(\d+)\s+([A-Za-z]+)`)}

	pecTermTransitionRule = rule{"term transition", TransitionLine,
		regexp.MustCompile(`^C\s*(\d+)\.\s+(\d+\.?\d*)\s+(\d+)\((\d+)\)(\d+)\(\s*(\d+\.?\d*)\)\s*-\s*(\d+)\((\d+)\)(\d+)\(\s*(\d+\.?\d*)\)\s+([A-Za-z]+)`)}

	pecConfigRule = rule{"configuration", ConfigLine,
		regexp.MustCompile(`^C\s+(\d+)\s+((?:\d+[A-Za-z]\d+\s+)+)\((\d+)\)(\d+)\(\s*(\d+\.?\d*)\)`)}
)

// Hydrogen-like species list transitions by principal quantum number;
// every other species lists them through a configuration table.
var (
	numericPEC = grammar{"adf15/numeric", []rule{pecBlockRule, pecNumericTransitionRule, commentRule, dataRule}}
	termPEC    = grammar{"adf15/term", []rule{pecBlockRule, pecTermTransitionRule, pecConfigRule, commentRule, dataRule}}
)

var pecClasses = map[string]address.Class{
	"EXCIT": address.PECExcitation,
	"RECOM": address.PECRecombination,
	"CHEXC": address.PECThermalCX,
}

// orbitals maps orbital angular momentum to its spectroscopic letter.
const orbitals = "SPDFGHIKLMNOQRTUV"

// PECBlock is one photon emissivity coefficient from an ADF15 file.
type PECBlock struct {
	Index      int
	Class      address.Class
	Transition address.Transition
	Wavelength float64 // nm
	Rate       repository.RateTable
}

// PECFile holds the decoded blocks of an ADF15 file. Blocks that could
// not be attributed to a rate class or transition are reported in Skipped.
// HeaderChecked is false when the file header did not name a species and
// charge that could be compared with the requested ones.
type PECFile struct {
	Species       element.Species
	Ionisation    int
	Blocks        []PECBlock
	Skipped       []error
	HeaderChecked bool

	skipped map[int]error
}

// Block returns the block with the given ISEL index. A block that was
// skipped during decoding returns the reason it was skipped.
func (f *PECFile) Block(index int) (PECBlock, error) {
	for _, b := range f.Blocks {
		if b.Index == index {
			return b, nil
		}
	}
	if err, ok := f.skipped[index]; ok {
		return PECBlock{}, err
	}
	return PECBlock{}, errors.NotFoundf("%s %d: no block %d", f.Species.Symbol(), f.Ionisation, index)
}

// Find returns the block for a rate class and transition.
func (f *PECFile) Find(class address.Class, t address.Transition) (PECBlock, error) {
	for _, b := range f.Blocks {
		if b.Class == class && b.Transition.Encode() == t.Encode() {
			return b, nil
		}
	}
	return PECBlock{}, errors.NotFoundf("%s %d: no %s block for %s", f.Species.Symbol(), f.Ionisation, class.Name(), t)
}

type pecTransition struct {
	line  int
	match []string
}

type configEntry struct {
	configuration string
}

// DecodeADF15 decodes a photon emissivity coefficient file for species
// in the given ionisation stage.
func DecodeADF15(r io.Reader, source string, species element.Species, ionisation int) (*PECFile, error) {
	lines, err := fixedfield.ReadLines(r, source)
	if err != nil {
		return nil, err
	}
	el, err := checkStage(species, ionisation)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, errors.Malformedf("%s: empty file", source)
	}
	checked, err := checkPECHeader(lines[0], source, el, ionisation)
	if err != nil {
		return nil, err
	}

	g := termPEC
	if el.AtomicNumber()-ionisation == 1 {
		g = numericPEC
	}

	var starts []int
	dataEnd := len(lines)
	transitions := make(map[int]pecTransition)
	configs := make(map[int]configEntry)
	inComments := false
	for i := 1; i < len(lines); i++ {
		kind, m := g.classify(lines[i])
		if !inComments {
			switch kind {
			case BlockStart:
				starts = append(starts, i)
				continue
			case Data, Blank:
				continue
			case Unrecognised:
				return nil, errors.Malformedf("%s:%d: unrecognised line %q", source, i+1, lines[i])
			}
			inComments = true
			dataEnd = i
		}
		switch kind {
		case TransitionLine:
			isel, _ := strconv.Atoi(m[1])
			transitions[isel] = pecTransition{line: i + 1, match: m}
		case ConfigLine:
			idx, _ := strconv.Atoi(m[1])
			configs[idx] = configEntry{configuration: strings.ToLower(strings.Join(strings.Fields(m[2]), " "))}
		}
	}

	file := &PECFile{Species: el, Ionisation: ionisation, HeaderChecked: checked, skipped: make(map[int]error)}
	rd := fixedfield.FromLines(lines, source)
	for n, start := range starts {
		end := dataEnd
		if n+1 < len(starts) {
			end = starts[n+1]
		}
		block, skip, err := decodePECBlock(rd, lines[start], start, end, g, transitions, configs)
		if err != nil {
			return nil, err
		}
		if skip != nil {
			file.Skipped = append(file.Skipped, skip)
			file.skipped[block.Index] = skip
			continue
		}
		file.Blocks = append(file.Blocks, block)
	}
	return file, nil
}

// decodePECBlock parses the block whose header is at index start and
// whose data ends before index end. A non-nil skip reports a block that
// is well formed but cannot be attributed; block then carries only its
// index.
func decodePECBlock(rd *fixedfield.Reader, header string, start, end int, g grammar,
	transitions map[int]pecTransition, configs map[int]configEntry) (block PECBlock, skip, err error) {
	source := rd.Source()
	m := pecBlockRule.pattern.FindStringSubmatch(header)
	wavelength, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return PECBlock{}, nil, errors.Malformedf("%s:%d: wavelength %q", source, start+1, m[1])
	}
	label := strings.ToUpper(m[4])
	nd, ndErr := strconv.Atoi(m[2])
	nt, ntErr := strconv.Atoi(m[3])
	isel, iselErr := strconv.Atoi(m[5])
	if ndErr != nil || ntErr != nil || iselErr != nil {
		return PECBlock{}, nil, errors.Malformedf("%s:%d: block counts %s %s /ISEL = %s out of range", source, start+1, m[2], m[3], m[5])
	}
	if nd == 0 || nt == 0 {
		return PECBlock{}, nil, errors.Malformedf("%s:%d: block %d declares an empty axis", source, start+1, isel)
	}

	rd.Seek(start + 1)
	densities, err := rd.Floats(nd, pecLayout)
	if err != nil {
		return PECBlock{}, nil, errors.Wrapf(err, "block %d densities", isel)
	}
	temperatures, err := rd.Floats(nt, pecLayout)
	if err != nil {
		return PECBlock{}, nil, errors.Wrapf(err, "block %d temperatures", isel)
	}
	rates := make([][]float64, nd)
	for i := range rates {
		if rates[i], err = rd.Floats(nt, pecLayout); err != nil {
			return PECBlock{}, nil, errors.Wrapf(err, "block %d rates", isel)
		}
	}
	if err := expectBlank(rd, end); err != nil {
		return PECBlock{}, nil, errors.Wrapf(err, "block %d holds more than %d×%d values", isel, nd, nt)
	}

	class, ok := pecClasses[label]
	if !ok {
		return PECBlock{Index: isel}, errors.UnsupportedRateClassf("%s:%d: block %d has rate class %q", source, start+1, isel, label), nil
	}
	raw, ok := transitions[isel]
	if !ok {
		return PECBlock{Index: isel}, errors.NotFoundf("%s:%d: no transition listed for block %d", source, start+1, isel), nil
	}
	t, err := resolvePECTransition(g, raw, configs, source)
	if err != nil {
		return PECBlock{}, nil, err
	}

	for i := range rates {
		rates[i] = scale(rates[i], cm3ToM3)
	}
	return PECBlock{
		Index:      isel,
		Class:      class,
		Transition: t,
		Wavelength: wavelength * angstromToNm,
		Rate: repository.RateTable{
			Densities:    scale(densities, perCm3ToPerM3),
			Temperatures: temperatures,
			Rates:        rates,
		},
	}, nil, nil
}

func resolvePECTransition(g grammar, raw pecTransition, configs map[int]configEntry, source string) (address.Transition, error) {
	m := raw.match
	if g.name == numericPEC.name {
		upper, _ := strconv.Atoi(m[3])
		lower, _ := strconv.Atoi(m[4])
		return address.NumericTransition(upper, lower), nil
	}
	upper, err := termLabel(m[3], m[4], m[5], m[6], configs)
	if err != nil {
		return address.Transition{}, errors.Wrapf(err, "%s:%d: upper level", source, raw.line)
	}
	lower, err := termLabel(m[7], m[8], m[9], m[10], configs)
	if err != nil {
		return address.Transition{}, errors.Wrapf(err, "%s:%d: lower level", source, raw.line)
	}
	return address.TermTransition(upper, lower), nil
}

// termLabel builds "<configuration> <2S+1><L><J>" for a configuration
// table index.
func termLabel(index, mult, orbital, j string, configs map[int]configEntry) (string, error) {
	idx, _ := strconv.Atoi(index)
	entry, ok := configs[idx]
	if !ok {
		return "", errors.Malformedf("configuration %d is not in the configuration table", idx)
	}
	l, _ := strconv.Atoi(orbital)
	if l >= len(orbitals) {
		return "", errors.Malformedf("orbital angular momentum %d out of range", l)
	}
	return entry.configuration + " " + mult + string(orbitals[l]) + j, nil
}

// checkPECHeader reports whether the header named a species and charge
// it could compare, and fails when they disagree with the request.
func checkPECHeader(line, source string, el element.Species, ionisation int) (bool, error) {
	m := pecHeaderRule.pattern.FindStringSubmatch(line)
	if m == nil {
		return false, errors.Malformedf("%s:1: missing file header", source)
	}
	id := pecIdentity.FindStringSubmatch(m[2])
	if id == nil {
		return false, nil
	}
	s, err := element.Lookup(id[1])
	if err != nil {
		return false, nil
	}
	charge, err := strconv.Atoi(id[2])
	if err != nil {
		return false, nil
	}
	if element.Resolve(s).AtomicNumber() != el.AtomicNumber() || charge != ionisation {
		return true, errors.SchemaMismatchf("%s: header names %s %d, requested %s %d",
			source, id[1], charge, el.Symbol(), ionisation)
	}
	return true, nil
}

// checkStage resolves isotopes and checks 0 <= ionisation <= Z.
func checkStage(species element.Species, ionisation int) (element.Species, error) {
	if species == nil {
		return nil, errors.InvalidAddressf("species is not set")
	}
	el := element.Resolve(species)
	if ionisation < 0 || ionisation > el.AtomicNumber() {
		return nil, errors.InvalidAddressf("%s: ionisation stage %d outside 0..%d", el.Symbol(), ionisation, el.AtomicNumber())
	}
	return el, nil
}

// expectBlank fails if any line before end is not blank.
func expectBlank(rd *fixedfield.Reader, end int) error {
	for rd.Pos() < end {
		lineNo := rd.LineNo()
		line, err := rd.Line()
		if err != nil {
			return err
		}
		if strings.TrimSpace(line) != "" {
			return errors.Malformedf("%s:%d: unexpected data %q", rd.Source(), lineNo, strings.TrimSpace(line))
		}
	}
	return nil
}
