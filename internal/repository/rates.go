// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package repository

import "github.com/pdiddy/openadas/internal/errors"

// Axis, table and scalar names used in stored records.
const (
	axisDensity     = "ne"
	axisTemperature = "te"
	tableRate       = "rate"

	axisEnergy       = "e"
	axisBeamDensity  = "n"
	axisBeamTemp     = "t"
	tableEnergyDens  = "sen"
	tableTemperature = "st"

	axisIonTemp      = "ti"
	axisIonDensity   = "ni"
	axisZEff         = "z"
	axisField        = "b"
	tableQEnergy     = "qe"
	tableQIonTemp    = "qti"
	tableQIonDensity = "qni"
	tableQZEff       = "qz"
	tableQField      = "qb"

	scalarWavelength = "wavelength"
)

// RateTable is a rate coefficient tabulated over electron density (m^-3)
// and electron temperature (eV). Rates is indexed [density][temperature].
// Photon emissivity and stage-resolved atomic rates share this shape.
type RateTable struct {
	Densities    []float64
	Temperatures []float64
	Rates        [][]float64
}

// Record converts the table to its stored form.
func (t RateTable) Record() (Record, error) {
	values, err := flatten(tableRate, t.Rates, len(t.Densities), len(t.Temperatures))
	if err != nil {
		return Record{}, err
	}
	rec := Record{
		Axes: map[string][]float64{
			axisDensity:     t.Densities,
			axisTemperature: t.Temperatures,
		},
		Tables: map[string]Table{
			tableRate: {Axes: []string{axisDensity, axisTemperature}, Values: values},
		},
	}
	return rec, rec.Validate()
}

// RateTableFrom reconstructs a RateTable from a stored record.
func RateTableFrom(rec Record) (RateTable, error) {
	var t RateTable
	var err error
	if t.Densities, err = rec.Axis(axisDensity); err != nil {
		return RateTable{}, err
	}
	if t.Temperatures, err = rec.Axis(axisTemperature); err != nil {
		return RateTable{}, err
	}
	if t.Rates, err = rec.Matrix(tableRate, axisDensity, axisTemperature); err != nil {
		return RateTable{}, err
	}
	return t, nil
}

// BeamRate is a beam stopping, population or emission coefficient. The
// main table spans beam energy (eV/amu) and target density (m^-3) at the
// reference temperature; a second table gives the temperature dependence
// at the reference energy and density.
type BeamRate struct {
	Energies     []float64
	Densities    []float64
	Rates        [][]float64 // [energy][density]
	Temperatures []float64
	TempRates    []float64

	EnergyRef      float64
	DensityRef     float64
	TemperatureRef float64
	RateRef        float64
}

// Record converts the beam rate to its stored form.
func (b BeamRate) Record() (Record, error) {
	values, err := flatten(tableEnergyDens, b.Rates, len(b.Energies), len(b.Densities))
	if err != nil {
		return Record{}, err
	}
	if len(b.TempRates) != len(b.Temperatures) {
		return Record{}, errors.ShapeMismatchf("table %q has %d values, expected %d",
			tableTemperature, len(b.TempRates), len(b.Temperatures))
	}
	rec := Record{
		Axes: map[string][]float64{
			axisEnergy:      b.Energies,
			axisBeamDensity: b.Densities,
			axisBeamTemp:    b.Temperatures,
		},
		Tables: map[string]Table{
			tableEnergyDens:  {Axes: []string{axisEnergy, axisBeamDensity}, Values: values},
			tableTemperature: {Axes: []string{axisBeamTemp}, Values: b.TempRates},
		},
		Scalars: map[string]float64{
			"eref": b.EnergyRef,
			"nref": b.DensityRef,
			"tref": b.TemperatureRef,
			"sref": b.RateRef,
		},
	}
	return rec, rec.Validate()
}

// BeamRateFrom reconstructs a BeamRate from a stored record.
func BeamRateFrom(rec Record) (BeamRate, error) {
	var b BeamRate
	var err error
	if b.Energies, err = rec.Axis(axisEnergy); err != nil {
		return BeamRate{}, err
	}
	if b.Densities, err = rec.Axis(axisBeamDensity); err != nil {
		return BeamRate{}, err
	}
	if b.Temperatures, err = rec.Axis(axisBeamTemp); err != nil {
		return BeamRate{}, err
	}
	if b.Rates, err = rec.Matrix(tableEnergyDens, axisEnergy, axisBeamDensity); err != nil {
		return BeamRate{}, err
	}
	if b.TempRates, err = rec.Vector(tableTemperature, axisBeamTemp); err != nil {
		return BeamRate{}, err
	}
	for name, dst := range map[string]*float64{
		"eref": &b.EnergyRef,
		"nref": &b.DensityRef,
		"tref": &b.TemperatureRef,
		"sref": &b.RateRef,
	} {
		if *dst, err = rec.Scalar(name); err != nil {
			return BeamRate{}, err
		}
	}
	return b, nil
}

// CXRate is a charge-exchange effective emission coefficient given as a
// reference value and five one-dimensional scans, each varying one
// parameter about the reference conditions.
type CXRate struct {
	Energies        []float64 // eV/amu
	EnergyRates     []float64
	IonTemperatures []float64 // eV
	IonTempRates    []float64
	IonDensities    []float64 // m^-3
	IonDensityRates []float64
	ZEffective      []float64
	ZEffectiveRates []float64
	Fields          []float64 // T
	FieldRates      []float64

	RateRef           float64
	EnergyRef         float64
	IonTemperatureRef float64
	IonDensityRef     float64
	ZEffectiveRef     float64
	FieldRef          float64
}

type scan struct {
	axis, table  string
	axes, values *[]float64
}

func (c *CXRate) scans() []scan {
	return []scan{
		{axisEnergy, tableQEnergy, &c.Energies, &c.EnergyRates},
		{axisIonTemp, tableQIonTemp, &c.IonTemperatures, &c.IonTempRates},
		{axisIonDensity, tableQIonDensity, &c.IonDensities, &c.IonDensityRates},
		{axisZEff, tableQZEff, &c.ZEffective, &c.ZEffectiveRates},
		{axisField, tableQField, &c.Fields, &c.FieldRates},
	}
}

func (c *CXRate) refs() map[string]*float64 {
	return map[string]*float64{
		"qref":  &c.RateRef,
		"eref":  &c.EnergyRef,
		"tiref": &c.IonTemperatureRef,
		"niref": &c.IonDensityRef,
		"zref":  &c.ZEffectiveRef,
		"bref":  &c.FieldRef,
	}
}

// Record converts the rate to its stored form.
func (c CXRate) Record() (Record, error) {
	rec := Record{
		Axes:    make(map[string][]float64),
		Tables:  make(map[string]Table),
		Scalars: make(map[string]float64),
	}
	for _, s := range c.scans() {
		if len(*s.values) != len(*s.axes) {
			return Record{}, errors.ShapeMismatchf("table %q has %d values, expected %d",
				s.table, len(*s.values), len(*s.axes))
		}
		rec.Axes[s.axis] = *s.axes
		rec.Tables[s.table] = Table{Axes: []string{s.axis}, Values: *s.values}
	}
	for name, v := range c.refs() {
		rec.Scalars[name] = *v
	}
	return rec, rec.Validate()
}

// CXRateFrom reconstructs a CXRate from a stored record.
func CXRateFrom(rec Record) (CXRate, error) {
	var c CXRate
	var err error
	for _, s := range c.scans() {
		if *s.axes, err = rec.Axis(s.axis); err != nil {
			return CXRate{}, err
		}
		if *s.values, err = rec.Vector(s.table, s.axis); err != nil {
			return CXRate{}, err
		}
	}
	for name, dst := range c.refs() {
		if *dst, err = rec.Scalar(name); err != nil {
			return CXRate{}, err
		}
	}
	return c, nil
}

// WavelengthRecord stores a wavelength in nm.
func WavelengthRecord(nm float64) Record {
	return Record{Scalars: map[string]float64{scalarWavelength: nm}}
}
