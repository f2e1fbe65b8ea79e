// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package adf

import (
	"io"
	"strings"

	"github.com/pdiddy/openadas/internal/element"
	"github.com/pdiddy/openadas/internal/errors"
	"github.com/pdiddy/openadas/internal/fixedfield"
	"github.com/pdiddy/openadas/internal/repository"
)

var beamLayout = fixedfield.Layout{PerLine: 8, Width: 10, Skip: 1}

// BeamFile is a decoded ADF21 or ADF22 file: one coefficient for a beam
// species slowing down in, or being excited by, a target ion.
type BeamFile struct {
	Beam       element.Species
	Target     element.Species
	Ionisation int
	Code       string
	Date       string
	Rate       repository.BeamRate
}

// DecodeADF21 decodes a beam stopping coefficient file.
func DecodeADF21(r io.Reader, source string, beam, target element.Species, ionisation int) (*BeamFile, error) {
	return decodeBeam(r, source, beam, target, ionisation, cm3ToM3)
}

// DecodeADF22Population decodes a beam excited-state population file.
// Populations are relative and are not rescaled.
func DecodeADF22Population(r io.Reader, source string, beam, target element.Species, ionisation int) (*BeamFile, error) {
	return decodeBeam(r, source, beam, target, ionisation, 1)
}

// DecodeADF22Emission decodes a beam emission coefficient file.
func DecodeADF22Emission(r io.Reader, source string, beam, target element.Species, ionisation int) (*BeamFile, error) {
	return decodeBeam(r, source, beam, target, ionisation, cm3ToM3)
}

func decodeBeam(r io.Reader, source string, beam, target element.Species, ionisation int, rateScale float64) (*BeamFile, error) {
	if beam == nil {
		return nil, errors.InvalidAddressf("beam species is not set")
	}
	el, err := checkStage(target, ionisation)
	if err != nil {
		return nil, err
	}
	rd, err := fixedfield.NewReader(r, source)
	if err != nil {
		return nil, err
	}

	// ZT, SVREF, SPEC, DATE, CODE
	header, err := rd.Line()
	if err != nil {
		return nil, err
	}
	zt, err := fixedfield.ParseInt(fixedfield.Column(header, 0, 5))
	if err != nil {
		return nil, errors.Malformedf("%s:1: target charge %q", source, fixedfield.Column(header, 0, 5))
	}
	svref, err := columnFloat(header, 13, 22, source, 1, "SVREF")
	if err != nil {
		return nil, err
	}
	symbol := strings.TrimSpace(fixedfield.Column(header, 29, 31))
	named, lookupErr := element.Lookup(symbol)
	if lookupErr != nil || element.Resolve(named).AtomicNumber() != el.AtomicNumber() || zt != ionisation {
		return nil, errors.SchemaMismatchf("%s: header names target %s%d+, requested %s%d+",
			source, symbol, zt, el.Symbol(), ionisation)
	}

	if err := expectSeparator(rd); err != nil {
		return nil, err
	}
	lineNo := rd.LineNo()
	sizes, err := rd.Line()
	if err != nil {
		return nil, err
	}
	neb, errE := fixedfield.ParseInt(fixedfield.Column(sizes, 1, 5))
	ndt, errD := fixedfield.ParseInt(fixedfield.Column(sizes, 6, 10))
	if errE != nil || errD != nil || neb < 1 || ndt < 1 {
		return nil, errors.Malformedf("%s:%d: axis sizes %q", source, lineNo, strings.TrimSpace(sizes))
	}
	tref, err := columnFloat(sizes, 17, 26, source, lineNo, "TREF")
	if err != nil {
		return nil, err
	}

	if err := expectSeparator(rd); err != nil {
		return nil, err
	}
	energies, err := rd.Floats(neb, beamLayout)
	if err != nil {
		return nil, errors.Wrap(err, "energies")
	}
	densities, err := rd.Floats(ndt, beamLayout)
	if err != nil {
		return nil, errors.Wrap(err, "densities")
	}
	if err := expectSeparator(rd); err != nil {
		return nil, err
	}

	// Stored density by density; each row lists every energy.
	rates := make([][]float64, neb)
	for i := range rates {
		rates[i] = make([]float64, ndt)
	}
	for j := 0; j < ndt; j++ {
		column, err := rd.Floats(neb, beamLayout)
		if err != nil {
			return nil, errors.Wrapf(err, "coefficients at density %d", j+1)
		}
		for i, v := range column {
			rates[i][j] = v * rateScale
		}
	}
	if err := expectSeparator(rd); err != nil {
		return nil, errors.Wrapf(err, "after %d×%d coefficients", neb, ndt)
	}

	lineNo = rd.LineNo()
	refs, err := rd.Line()
	if err != nil {
		return nil, err
	}
	ntt, err := fixedfield.ParseInt(fixedfield.Column(refs, 1, 5))
	if err != nil || ntt < 1 {
		return nil, errors.Malformedf("%s:%d: temperature count %q", source, lineNo, fixedfield.Column(refs, 1, 5))
	}
	eref, err := columnFloat(refs, 12, 21, source, lineNo, "EREF")
	if err != nil {
		return nil, err
	}
	dref, err := columnFloat(refs, 28, 37, source, lineNo, "DREF")
	if err != nil {
		return nil, err
	}

	if err := expectSeparator(rd); err != nil {
		return nil, err
	}
	temperatures, err := rd.Floats(ntt, beamLayout)
	if err != nil {
		return nil, errors.Wrap(err, "temperatures")
	}
	if err := expectSeparator(rd); err != nil {
		return nil, err
	}
	tempRates, err := rd.Floats(ntt, beamLayout)
	if err != nil {
		return nil, errors.Wrap(err, "temperature coefficients")
	}

	return &BeamFile{
		Beam:       element.Resolve(beam),
		Target:     el,
		Ionisation: ionisation,
		Code:       strings.TrimSpace(fixedfield.Column(header, 53, -1)),
		Date:       strings.TrimSpace(fixedfield.Column(header, 38, 46)),
		Rate: repository.BeamRate{
			Energies:       energies,
			Densities:      scale(densities, perCm3ToPerM3),
			Rates:          rates,
			Temperatures:   temperatures,
			TempRates:      scale(tempRates, rateScale),
			EnergyRef:      eref,
			DensityRef:     dref * perCm3ToPerM3,
			TemperatureRef: tref,
			RateRef:        svref * rateScale,
		},
	}, nil
}

func columnFloat(line string, from, to int, source string, lineNo int, name string) (float64, error) {
	field := fixedfield.Column(line, from, to)
	v, err := fixedfield.ParseFloat(field)
	if err != nil {
		return 0, errors.Malformedf("%s:%d: %s %q", source, lineNo, name, strings.TrimSpace(field))
	}
	return v, nil
}
