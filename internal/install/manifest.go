// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package install

import (
	_ "embed"
	"io"
	"slices"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/openadas/internal/adf"
	"github.com/pdiddy/openadas/internal/address"
	"github.com/pdiddy/openadas/internal/element"
	"github.com/pdiddy/openadas/internal/errors"
)

//go:embed default.yaml
var defaultManifest []byte

// Manifest lists the source files to install, grouped by dialect. Paths
// are relative to the ADAS root.
type Manifest struct {
	ADF11           []AtomicEntry     `yaml:"adf11,omitempty"`
	ADF12           []CXEntry         `yaml:"adf12,omitempty"`
	ADF15           []PECEntry        `yaml:"adf15,omitempty"`
	ADF21           []BeamEntry       `yaml:"adf21,omitempty"`
	ADF22Population []BeamEntry       `yaml:"adf22_population,omitempty"`
	ADF22Emission   []BeamEntry       `yaml:"adf22_emission,omitempty"`
	Wavelengths     []WavelengthEntry `yaml:"wavelengths,omitempty"`
}

// AtomicEntry is an ADF11 file. Class is an ADF11 code (scd, acd, ccd,
// plt, prb) or an atomic class path.
type AtomicEntry struct {
	Species string `yaml:"species"`
	Class   string `yaml:"class"`
	File    string `yaml:"file"`
}

// CXEntry is an ADF12 file for donor atoms in one metastable state.
type CXEntry struct {
	Donor      string `yaml:"donor"`
	Metastable int    `yaml:"metastable"`
	Receiver   string `yaml:"receiver"`
	Ionisation int    `yaml:"ionisation"`
	File       string `yaml:"file"`
}

// PECEntry is an ADF15 file. Blocks restricts the install to the listed
// ISEL indices; empty installs every block.
type PECEntry struct {
	Species    string `yaml:"species"`
	Ionisation int    `yaml:"ionisation"`
	File       string `yaml:"file"`
	Blocks     []int  `yaml:"blocks,omitempty,flow"`
}

// BeamEntry is an ADF21 or ADF22 file. Metastable applies to ADF22
// populations and Transition to ADF22 emission.
type BeamEntry struct {
	Beam       string              `yaml:"beam"`
	Metastable int                 `yaml:"metastable,omitempty"`
	Target     string              `yaml:"target"`
	Ionisation int                 `yaml:"ionisation"`
	Transition *address.Transition `yaml:"transition,omitempty"`
	File       string              `yaml:"file"`
}

// WavelengthEntry lists reference wavelengths (nm) for one ion.
type WavelengthEntry struct {
	Species    string `yaml:"species"`
	Ionisation int    `yaml:"ionisation"`
	Lines      []Line `yaml:"lines"`
}

// Line is one reference wavelength.
type Line struct {
	Transition address.Transition `yaml:"transition"`
	Wavelength float64            `yaml:"wavelength"`
}

// DefaultManifest returns the manifest compiled into the binary.
func DefaultManifest() Manifest {
	m, err := ParseManifest(defaultManifest)
	if err != nil {
		panic(errors.Wrap(err, "embedded manifest"))
	}
	return m
}

// DefaultManifestYAML returns the embedded manifest source.
func DefaultManifestYAML() []byte {
	return slices.Clone(defaultManifest)
}

// LoadManifest reads and validates a manifest.
func LoadManifest(r io.Reader) (Manifest, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Manifest{}, errors.Wrap(err, "reading manifest")
	}
	return ParseManifest(data)
}

// ParseManifest decodes and validates manifest YAML.
func ParseManifest(data []byte) (Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, errors.Wrap(err, "parsing manifest")
	}
	if err := m.Validate(); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

// Len returns the number of install jobs in the manifest.
func (m Manifest) Len() int {
	return len(m.ADF11) + len(m.ADF12) + len(m.ADF15) + len(m.ADF21) +
		len(m.ADF22Population) + len(m.ADF22Emission) + len(m.Wavelengths)
}

// Validate checks every entry names known species, classes and stages,
// and reports all problems together.
func (m Manifest) Validate() error {
	var errs []error
	add := func(section string, i int, err error) {
		if err != nil {
			errs = append(errs, errors.Wrapf(err, "%s[%d]", section, i))
		}
	}
	for i, e := range m.ADF11 {
		add("adf11", i, e.validate())
	}
	for i, e := range m.ADF12 {
		add("adf12", i, e.validate())
	}
	for i, e := range m.ADF15 {
		add("adf15", i, e.validate())
	}
	for i, e := range m.ADF21 {
		add("adf21", i, e.validate(address.BeamStopping))
	}
	for i, e := range m.ADF22Population {
		add("adf22_population", i, e.validate(address.BeamPopulation))
	}
	for i, e := range m.ADF22Emission {
		add("adf22_emission", i, e.validate(address.BeamEmission))
	}
	for i, e := range m.Wavelengths {
		add("wavelengths", i, e.validate())
	}
	return errors.Join(errs...)
}

// clone returns a deep copy so the installer never shares slices with
// its caller.
func (m Manifest) clone() Manifest {
	c := Manifest{
		ADF11:           slices.Clone(m.ADF11),
		ADF12:           slices.Clone(m.ADF12),
		ADF15:           slices.Clone(m.ADF15),
		ADF21:           cloneBeam(m.ADF21),
		ADF22Population: cloneBeam(m.ADF22Population),
		ADF22Emission:   cloneBeam(m.ADF22Emission),
		Wavelengths:     slices.Clone(m.Wavelengths),
	}
	for i := range c.ADF15 {
		c.ADF15[i].Blocks = slices.Clone(c.ADF15[i].Blocks)
	}
	for i := range c.Wavelengths {
		c.Wavelengths[i].Lines = slices.Clone(c.Wavelengths[i].Lines)
	}
	return c
}

func cloneBeam(entries []BeamEntry) []BeamEntry {
	out := slices.Clone(entries)
	for i := range out {
		if t := out[i].Transition; t != nil {
			copied := *t
			out[i].Transition = &copied
		}
	}
	return out
}

func (e AtomicEntry) validate() error {
	sp, err := element.Lookup(e.Species)
	if err != nil {
		return err
	}
	if _, err := adf.ParseAtomicClass(e.Class); err != nil {
		return err
	}
	if e.File == "" {
		return errors.Newf("%s %s: file is not set", e.Class, sp.Symbol())
	}
	return nil
}

func (e CXEntry) validate() error {
	donor, err := element.Lookup(e.Donor)
	if err != nil {
		return err
	}
	receiver, err := element.Lookup(e.Receiver)
	if err != nil {
		return err
	}
	k := address.Key{Class: address.BeamCX, Species: receiver, Ionisation: e.Ionisation,
		Donor: donor, Transition: address.NumericTransition(2, 1), Metastable: e.Metastable}
	if err := k.Validate(); err != nil {
		return err
	}
	return requireFile(e.File)
}

func (e PECEntry) validate() error {
	sp, err := element.Lookup(e.Species)
	if err != nil {
		return err
	}
	k := address.Key{Class: address.PECExcitation, Species: sp, Ionisation: e.Ionisation,
		Transition: address.NumericTransition(2, 1)}
	if err := k.Validate(); err != nil {
		return err
	}
	for _, b := range e.Blocks {
		if b < 1 {
			return errors.Newf("block index %d must be at least 1", b)
		}
	}
	return requireFile(e.File)
}

func (e BeamEntry) validate(class address.Class) error {
	k, err := e.key(class)
	if err != nil {
		return err
	}
	if err := k.Validate(); err != nil {
		return err
	}
	return requireFile(e.File)
}

// key builds the repository key of the entry's single record.
func (e BeamEntry) key(class address.Class) (address.Key, error) {
	beam, err := element.Lookup(e.Beam)
	if err != nil {
		return address.Key{}, err
	}
	target, err := element.Lookup(e.Target)
	if err != nil {
		return address.Key{}, err
	}
	k := address.Key{Class: class, Species: target, Ionisation: e.Ionisation, Donor: beam}
	switch class {
	case address.BeamPopulation:
		k.Metastable = e.Metastable
	case address.BeamEmission:
		if e.Transition == nil {
			return address.Key{}, errors.InvalidAddressf("%s %s: transition is not set", class, target.Symbol())
		}
		k.Transition = *e.Transition
	}
	return k, nil
}

func (e WavelengthEntry) validate() error {
	sp, err := element.Lookup(e.Species)
	if err != nil {
		return err
	}
	for _, l := range e.Lines {
		k := address.Key{Class: address.Wavelength, Species: sp, Ionisation: e.Ionisation, Transition: l.Transition}
		if err := k.Validate(); err != nil {
			return err
		}
		if l.Wavelength <= 0 {
			return errors.Newf("%s: wavelength %g nm must be positive", k, l.Wavelength)
		}
	}
	return nil
}

func requireFile(file string) error {
	if file == "" {
		return errors.New("file is not set")
	}
	return nil
}
