// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package adftest writes small ADF files with exact column positions for
// decoder and installer tests.
package adftest

import (
	"fmt"
	"math"
	"strings"
)

// Values writes values with format, perLine to a line.
func Values(format string, perLine int, values ...float64) string {
	var b strings.Builder
	for i, v := range values {
		b.WriteString(fmt.Sprintf(format, v))
		if (i+1)%perLine == 0 || i == len(values)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Fortran writes values as 1PD10.3 with a Fortran D exponent.
func Fortran(perLine int, values ...float64) string {
	return strings.ReplaceAll(Values("%10.3E", perLine, values...), "E", "D")
}

const dashes = "-------------------------------------------------------------------------------\n"

// Beam describes an ADF21 or ADF22 file.
type Beam struct {
	TargetCharge int
	TargetSymbol string
	SVRef        float64
	Date         string
	Code         string

	Energies  []float64
	Densities []float64
	// Rates is indexed [energy][density].
	Rates [][]float64
	TRef  float64

	ERef         float64
	DRef         float64
	Temperatures []float64
	TempRates    []float64
}

// String renders the file.
func (b Beam) String() string {
	var s strings.Builder
	fmt.Fprintf(&s, "%5d /SVREF=%9.3E /SPEC=%-2s /DATE=%8s /CODE=%s\n", b.TargetCharge, b.SVRef, b.TargetSymbol, b.Date, b.Code)
	s.WriteString(dashes)
	fmt.Fprintf(&s, "%5d%5d /TREF=%9.3E\n", len(b.Energies), len(b.Densities), b.TRef)
	s.WriteString(dashes)
	s.WriteString(Fortran(8, b.Energies...))
	s.WriteString(Fortran(8, b.Densities...))
	s.WriteString(dashes)
	for j := range b.Densities {
		column := make([]float64, len(b.Energies))
		for i := range b.Energies {
			column[i] = b.Rates[i][j]
		}
		s.WriteString(Fortran(8, column...))
	}
	s.WriteString(dashes)
	fmt.Fprintf(&s, "%5d /EREF=%9.3E /NREF=%9.3E\n", len(b.Temperatures), b.ERef, b.DRef)
	s.WriteString(dashes)
	s.WriteString(Fortran(8, b.Temperatures...))
	s.WriteString(dashes)
	s.WriteString(Fortran(8, b.TempRates...))
	return s.String()
}

// Atomic describes an ADF11 file. Values are given linearly and written
// as log10.
type Atomic struct {
	Z            int
	Densities    []float64
	Temperatures []float64
	// Blocks maps Z1 to a [density][temperature] table.
	Blocks map[int][][]float64
	// Order lists the Z1 values to write.
	Order []int
}

// String renders the file.
func (a Atomic) String() string {
	var s strings.Builder
	fmt.Fprintf(&s, "%5d%5d%5d%5d%5d     /TEST               /GCR PROJECT\n",
		a.Z, len(a.Densities), len(a.Temperatures), 1, a.Z)
	s.WriteString(dashes)
	s.WriteString(Values("%10.5f", 8, log10All(a.Densities)...))
	s.WriteString(Values("%10.5f", 8, log10All(a.Temperatures)...))
	for _, z1 := range a.Order {
		fmt.Fprintf(&s, "------------/ IPRT= 1  / IGRD= 1  /--------/ Z1=%2d   / DATE= 18/01/93\n", z1)
		var flat []float64
		for _, row := range a.Blocks[z1] {
			flat = append(flat, row...)
		}
		s.WriteString(Values("%10.5f", 8, log10All(flat)...))
	}
	s.WriteString("C-----------------------------------------------------------------------\n")
	s.WriteString("C  test data\n")
	return s.String()
}

// PECBlock describes one ADF15 block.
type PECBlock struct {
	Wavelength   float64 // Å
	Type         string
	Densities    []float64
	Temperatures []float64
	// Rates is indexed [density][temperature].
	Rates [][]float64
}

// PEC describes an ADF15 file. Comments are appended verbatim after the
// data section.
type PEC struct {
	Title    string
	Blocks   []PECBlock
	Comments []string
}

// String renders the file.
func (p PEC) String() string {
	var s strings.Builder
	fmt.Fprintf(&s, "%5d    /%s/\n", len(p.Blocks), p.Title)
	for i, b := range p.Blocks {
		fmt.Fprintf(&s, "%8.1f A %4d %4d /FILMEM = test#h0   /TYPE = %-8s /INDM = T /ISEL = %4d\n",
			b.Wavelength, len(b.Densities), len(b.Temperatures), b.Type, i+1)
		s.WriteString(Values("%9.2E", 8, b.Densities...))
		s.WriteString(Values("%9.2E", 8, b.Temperatures...))
		for _, row := range b.Rates {
			s.WriteString(Values("%9.2E", 8, row...))
		}
	}
	for _, c := range p.Comments {
		s.WriteString(c + "\n")
	}
	return s.String()
}

// CXBlock describes one ADF12 block.
type CXBlock struct {
	Donor    string
	Receiver string
	Upper    int
	Lower    int

	QRef float64

	ERef, TiRef, NiRef, ZRef, BRef float64

	Energies, EnergyRates         []float64
	IonTemperatures, IonTempRates []float64
	IonDensities, IonDensityRates []float64
	ZEffective, ZEffectiveRates   []float64
	Fields, FieldRates            []float64
}

// CX renders an ADF12 file holding blocks.
func CX(blocks ...CXBlock) string {
	var s strings.Builder
	fmt.Fprintf(&s, "%5d\n", len(blocks))
	for i, b := range blocks {
		fmt.Fprintf(&s, "%-7s %-8s   %-8s   %-5s   %2d-%2d   %-7s   %-6s      %2d\n",
			"qef93#h", "20/01/93", b.Donor, b.Receiver, b.Upper, b.Lower, "qef93#h", "    1.", i+1)
		s.WriteString(Fortran(6, b.QRef))
		s.WriteString(Fortran(6, b.ERef, b.TiRef, b.NiRef, b.ZRef, b.BRef))
		s.WriteString(fmt.Sprintf("%10d%10d%10d%10d%10d\n",
			len(b.Energies), len(b.IonTemperatures), len(b.IonDensities), len(b.ZEffective), len(b.Fields)))
		s.WriteString(slots(24, b.Energies))
		s.WriteString(slots(24, b.EnergyRates))
		s.WriteString(slots(12, b.IonTemperatures))
		s.WriteString(slots(12, b.IonTempRates))
		s.WriteString(slots(24, b.IonDensities))
		s.WriteString(slots(24, b.IonDensityRates))
		s.WriteString(slots(12, b.ZEffective))
		s.WriteString(slots(12, b.ZEffectiveRates))
		s.WriteString(slots(12, b.Fields))
		s.WriteString(slots(12, b.FieldRates))
	}
	return s.String()
}

// slots writes values six per line and pads with blank lines to fill n slots.
func slots(n int, values []float64) string {
	out := Fortran(6, values...)
	used := (len(values) + 5) / 6
	for i := used; i < n/6; i++ {
		out += "\n"
	}
	return out
}

func log10All(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = math.Log10(v)
	}
	return out
}
