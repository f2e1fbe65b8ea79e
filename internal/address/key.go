// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package address encodes physical addresses into repository paths and
// record keys. A Key names one record: the file it lives in is derived
// from the class, species, ionisation stage and (for beam classes) the
// donor species; the entry inside that file from the transition and
// metastable index.
package address

import (
	"path"
	"strconv"
	"strings"

	"github.com/pdiddy/openadas/internal/element"
	"github.com/pdiddy/openadas/internal/errors"
)

// Class is a rate class. Its value is also the leading path segment of
// the repository subtree that stores it.
type Class string

const (
	PECExcitation    Class = "pec/excitation"
	PECRecombination Class = "pec/recombination"
	PECThermalCX     Class = "pec/thermalcx"

	Wavelength Class = "wavelength"

	Ionisation         Class = "atomic/ionisation"
	Recombination      Class = "atomic/recombination"
	ThermalCX          Class = "atomic/thermalcx"
	LineRadiation      Class = "atomic/lineradiation"
	ContinuumRadiation Class = "atomic/continuumradiation"

	BeamStopping   Class = "beam/stopping"
	BeamPopulation Class = "beam/population"
	BeamEmission   Class = "beam/emission"
	BeamCX         Class = "beam/cx"
)

// Classes lists every class in a stable order.
var Classes = []Class{
	PECExcitation, PECRecombination, PECThermalCX,
	Wavelength,
	Ionisation, Recombination, ThermalCX, LineRadiation, ContinuumRadiation,
	BeamStopping, BeamPopulation, BeamEmission, BeamCX,
}

// ParseClass accepts the full class path ("pec/excitation") or its short
// name where that is unambiguous ("stopping").
func ParseClass(s string) (Class, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	var match []Class
	for _, c := range Classes {
		if string(c) == s {
			return c, nil
		}
		if c.Name() == s {
			match = append(match, c)
		}
	}
	if len(match) == 1 {
		return match[0], nil
	}
	if len(match) > 1 {
		return "", errors.InvalidAddressf("rate class %q is ambiguous, use one of %v", s, match)
	}
	return "", errors.InvalidAddressf("unknown rate class %q", s)
}

// Name returns the last path segment of the class.
func (c Class) Name() string { return path.Base(string(c)) }

// IsBeam reports whether the class is keyed by a donor (beam) species.
func (c Class) IsBeam() bool { return strings.HasPrefix(string(c), "beam/") }

// HasTransition reports whether records of the class are keyed by transition.
func (c Class) HasTransition() bool {
	switch c {
	case PECExcitation, PECRecombination, PECThermalCX, Wavelength, BeamEmission, BeamCX:
		return true
	}
	return false
}

// HasMetastable reports whether records of the class are keyed by the
// donor metastable index.
func (c Class) HasMetastable() bool {
	return c == BeamPopulation || c == BeamCX
}

// Key is the composite address of one record.
type Key struct {
	Class Class

	// Species is the emitting, target or receiving species.
	Species element.Species

	// Ionisation is the ionisation stage of Species.
	Ionisation int

	// Donor is the beam species for beam classes.
	Donor element.Species

	Transition Transition

	// Metastable is the donor metastable index, starting at 1.
	Metastable int
}

// Validate rejects physically impossible or incomplete keys.
func (k Key) Validate() error {
	if k.Species == nil {
		return errors.InvalidAddressf("%s: species is not set", k.Class)
	}
	if !k.Class.valid() {
		return errors.InvalidAddressf("unknown rate class %q", k.Class)
	}
	species := element.Resolve(k.Species)
	if k.Ionisation < 0 {
		return errors.InvalidAddressf("%s %s: negative ionisation stage %d", k.Class, species.Symbol(), k.Ionisation)
	}
	if k.Ionisation > species.AtomicNumber() {
		return errors.InvalidAddressf("%s %s: ionisation stage %d exceeds atomic number %d",
			k.Class, species.Symbol(), k.Ionisation, species.AtomicNumber())
	}
	if k.Class.IsBeam() && k.Donor == nil {
		return errors.InvalidAddressf("%s %s: donor species is not set", k.Class, species.Symbol())
	}
	if k.Class.HasTransition() {
		if err := k.Transition.Validate(); err != nil {
			return errors.Wrapf(err, "%s %s %d", k.Class, species.Symbol(), k.Ionisation)
		}
	}
	if k.Class.HasMetastable() && k.Metastable < 1 {
		return errors.InvalidAddressf("%s %s: metastable index must be at least 1, got %d",
			k.Class, species.Symbol(), k.Metastable)
	}
	return nil
}

func (c Class) valid() bool {
	for _, known := range Classes {
		if c == known {
			return true
		}
	}
	return false
}

// Path returns the slash-separated repository file path for the key,
// without extension. Isotopes are resolved to their element.
func (k Key) Path() (string, error) {
	if err := k.Validate(); err != nil {
		return "", err
	}
	parts := []string{string(k.Class)}
	if k.Class.IsBeam() {
		parts = append(parts, symbol(k.Donor))
	}
	parts = append(parts, symbol(k.Species), strconv.Itoa(k.Ionisation))
	return path.Join(parts...), nil
}

// RecordKey returns the key of the record inside its file.
func (k Key) RecordKey() (string, error) {
	if err := k.Validate(); err != nil {
		return "", err
	}
	switch {
	case k.Class == BeamCX:
		return k.Transition.Encode() + ", " + metastable(k.Metastable), nil
	case k.Class.HasTransition():
		return k.Transition.Encode(), nil
	case k.Class.HasMetastable():
		return metastable(k.Metastable), nil
	default:
		return k.Class.Name(), nil
	}
}

func (k Key) String() string {
	if k.Species == nil {
		return string(k.Class)
	}
	var b strings.Builder
	b.WriteString(string(k.Class))
	if k.Donor != nil {
		b.WriteString(" " + k.Donor.Symbol() + " ->")
	}
	b.WriteString(" " + k.Species.Symbol() + " " + strconv.Itoa(k.Ionisation) + "+")
	if k.Class.HasTransition() && !k.Transition.IsZero() {
		b.WriteString(" [" + k.Transition.String() + "]")
	}
	if k.Class.HasMetastable() {
		b.WriteString(" " + metastable(k.Metastable))
	}
	return b.String()
}

func symbol(s element.Species) string {
	return strings.ToLower(element.Resolve(s).Symbol())
}

func metastable(m int) string {
	return "metastable " + strconv.Itoa(m)
}
