// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package adf

import (
	"io"
	"regexp"
	"strings"

	"github.com/pdiddy/openadas/internal/address"
	"github.com/pdiddy/openadas/internal/element"
	"github.com/pdiddy/openadas/internal/errors"
	"github.com/pdiddy/openadas/internal/fixedfield"
	"github.com/pdiddy/openadas/internal/repository"
)

var cxLayout = fixedfield.Layout{PerLine: 6, Width: 10, Skip: 1}

// Slots reserved per scan in each ADF12 block.
const (
	cxEnergySlots  = 24
	cxTempSlots    = 12
	cxDensitySlots = 24
	cxZEffSlots    = 12
	cxFieldSlots   = 12
)

var cxSpecies = regexp.MustCompile(`^([A-Za-z]{1,2})\s*(\d*)`)

// CXBlock is one charge-exchange effective emission coefficient.
type CXBlock struct {
	Index      int
	Transition address.Transition
	Code       string
	Date       string
	Rate       repository.CXRate
}

// CXFile holds the decoded blocks of an ADF12 file.
type CXFile struct {
	Donor      element.Species
	Receiver   element.Species
	Ionisation int
	Blocks     []CXBlock
}

// Find returns the block for transition t.
func (f *CXFile) Find(t address.Transition) (CXBlock, error) {
	for _, b := range f.Blocks {
		if b.Transition.Encode() == t.Encode() {
			return b, nil
		}
	}
	return CXBlock{}, errors.NotFoundf("%s -> %s%d+: no block for transition %s",
		f.Donor.Symbol(), f.Receiver.Symbol(), f.Ionisation, t)
}

// DecodeADF12 decodes a charge-exchange effective emission coefficient
// file for donor atoms on receiver ions of the given charge.
func DecodeADF12(r io.Reader, source string, donor, receiver element.Species, ionisation int) (*CXFile, error) {
	if donor == nil {
		return nil, errors.InvalidAddressf("donor species is not set")
	}
	el, err := checkStage(receiver, ionisation)
	if err != nil {
		return nil, err
	}
	rd, err := fixedfield.NewReader(r, source)
	if err != nil {
		return nil, err
	}

	first, err := rd.Line()
	if err != nil {
		return nil, err
	}
	count, err := fixedfield.ParseInt(fixedfield.Column(first, 0, 5))
	if err != nil || count < 1 {
		return nil, errors.Malformedf("%s:1: block count %q", source, strings.TrimSpace(fixedfield.Column(first, 0, 5)))
	}

	file := &CXFile{Donor: element.Resolve(donor), Receiver: el, Ionisation: ionisation}
	for i := 0; i < count; i++ {
		block, err := decodeCXBlock(rd, file)
		if err != nil {
			return nil, errors.Wrapf(err, "block %d", i+1)
		}
		file.Blocks = append(file.Blocks, block)
	}
	return file, nil
}

func decodeCXBlock(rd *fixedfield.Reader, file *CXFile) (CXBlock, error) {
	source := rd.Source()
	lineNo := rd.LineNo()
	header, err := rd.Line()
	if err != nil {
		return CXBlock{}, err
	}
	if err := checkCXSpecies(fixedfield.Column(header, 19, 27), file.Donor, -1); err != nil {
		return CXBlock{}, errors.Wrapf(err, "%s:%d: donor", source, lineNo)
	}
	if err := checkCXSpecies(fixedfield.Column(header, 30, 35), file.Receiver, file.Ionisation); err != nil {
		return CXBlock{}, errors.Wrapf(err, "%s:%d: receiver", source, lineNo)
	}
	upper, errU := fixedfield.ParseInt(fixedfield.Column(header, 38, 40))
	lower, errL := fixedfield.ParseInt(fixedfield.Column(header, 41, 43))
	if errU != nil || errL != nil {
		return CXBlock{}, errors.Malformedf("%s:%d: transition %q", source, lineNo, fixedfield.Column(header, 38, 43))
	}
	index, _ := fixedfield.ParseInt(fixedfield.Column(header, 68, 70))

	qref, err := rd.Floats(1, cxLayout)
	if err != nil {
		return CXBlock{}, err
	}
	refs, err := rd.Floats(5, cxLayout)
	if err != nil {
		return CXBlock{}, err
	}
	counts, err := rd.Ints(5, cxLayout)
	if err != nil {
		return CXBlock{}, err
	}

	var rate repository.CXRate
	scans := []struct {
		n, slots     int
		axis, values *[]float64
		axisScale    float64
	}{
		{counts[0], cxEnergySlots, &rate.Energies, &rate.EnergyRates, 1},
		{counts[1], cxTempSlots, &rate.IonTemperatures, &rate.IonTempRates, 1},
		{counts[2], cxDensitySlots, &rate.IonDensities, &rate.IonDensityRates, perCm3ToPerM3},
		{counts[3], cxZEffSlots, &rate.ZEffective, &rate.ZEffectiveRates, 1},
		{counts[4], cxFieldSlots, &rate.Fields, &rate.FieldRates, 1},
	}
	for _, s := range scans {
		if s.n < 1 {
			return CXBlock{}, errors.Malformedf("%s:%d: empty scan", source, rd.LineNo())
		}
		axis, err := rd.Slots(s.n, s.slots, cxLayout)
		if err != nil {
			return CXBlock{}, err
		}
		values, err := rd.Slots(s.n, s.slots, cxLayout)
		if err != nil {
			return CXBlock{}, err
		}
		*s.axis = scale(axis, s.axisScale)
		*s.values = scale(values, cm3ToM3)
	}

	rate.RateRef = qref[0] * cm3ToM3
	rate.EnergyRef = refs[0]
	rate.IonTemperatureRef = refs[1]
	rate.IonDensityRef = refs[2] * perCm3ToPerM3
	rate.ZEffectiveRef = refs[3]
	rate.FieldRef = refs[4]

	return CXBlock{
		Index:      index,
		Transition: address.NumericTransition(upper, lower),
		Code:       strings.TrimSpace(fixedfield.Column(header, 0, 7)),
		Date:       strings.TrimSpace(fixedfield.Column(header, 8, 16)),
		Rate:       rate,
	}, nil
}

// checkCXSpecies validates a header species field such as "c6+" or
// "h (1s)". A negative charge skips the charge check.
func checkCXSpecies(field string, want element.Species, charge int) error {
	m := cxSpecies.FindStringSubmatch(strings.TrimSpace(field))
	if m == nil {
		return errors.Malformedf("species field %q", field)
	}
	s, err := element.Lookup(m[1])
	if err != nil {
		return errors.SchemaMismatchf("unknown species %q", m[1])
	}
	if element.Resolve(s).AtomicNumber() != element.Resolve(want).AtomicNumber() {
		return errors.SchemaMismatchf("header names %s, requested %s", m[1], want.Symbol())
	}
	if charge >= 0 && m[2] != "" {
		got, _ := fixedfield.ParseInt(m[2])
		if got != charge {
			return errors.SchemaMismatchf("header names %s%d+, requested %s%d+", m[1], got, want.Symbol(), charge)
		}
	}
	return nil
}
