// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package element provides the species identities used to address the
// repository. Isotopes resolve to their parent element before any
// repository path is built.
package element

import (
	"sort"
	"strings"

	"github.com/pdiddy/openadas/internal/errors"
)

// Species is the identity capability the repository needs.
type Species interface {
	Symbol() string
	AtomicNumber() int
}

// Element is a chemical element.
type Element struct {
	name   string
	symbol string
	z      int
	mass   float64
}

func (e *Element) Name() string { return e.name }
func (e *Element) Symbol() string { return e.symbol }
func (e *Element) AtomicNumber() int { return e.z }
func (e *Element) AtomicWeight() float64 { return e.mass }
func (e *Element) String() string { return e.name }

// Isotope is a specific nuclide of an element.
type Isotope struct {
	name       string
	symbol     string
	massNumber int
	mass       float64
	parent     *Element
}

func (i *Isotope) Name() string { return i.name }
func (i *Isotope) Symbol() string { return i.symbol }
func (i *Isotope) AtomicNumber() int { return i.parent.z }
func (i *Isotope) MassNumber() int { return i.massNumber }
func (i *Isotope) AtomicWeight() float64 { return i.mass }
func (i *Isotope) String() string { return i.name }

// Parent returns the element the isotope belongs to.
func (i *Isotope) Parent() Species { return i.parent }

// Resolve returns the parent element for isotopes and s otherwise.
func Resolve(s Species) Species {
	if iso, ok := s.(interface{ Parent() Species }); ok {
		return iso.Parent()
	}
	return s
}

var elements = []*Element{
	{"hydrogen", "H", 1, 1.00784},
	{"helium", "He", 2, 4.002602},
	{"lithium", "Li", 3, 6.938},
	{"beryllium", "Be", 4, 9.0121831},
	{"boron", "B", 5, 10.806},
	{"carbon", "C", 6, 12.0096},
	{"nitrogen", "N", 7, 14.00643},
	{"oxygen", "O", 8, 15.99903},
	{"fluorine", "F", 9, 18.998403163},
	{"neon", "Ne", 10, 20.1797},
	{"sodium", "Na", 11, 22.98976928},
	{"magnesium", "Mg", 12, 24.304},
	{"aluminium", "Al", 13, 26.9815385},
	{"silicon", "Si", 14, 28.084},
	{"phosphorus", "P", 15, 30.973761998},
	{"sulfur", "S", 16, 32.059},
	{"chlorine", "Cl", 17, 35.446},
	{"argon", "Ar", 18, 39.948},
	{"potassium", "K", 19, 39.0983},
	{"calcium", "Ca", 20, 40.078},
	{"scandium", "Sc", 21, 44.955908},
	{"titanium", "Ti", 22, 47.867},
	{"vanadium", "V", 23, 50.9415},
	{"chromium", "Cr", 24, 51.9961},
	{"manganese", "Mn", 25, 54.938044},
	{"iron", "Fe", 26, 55.845},
	{"cobalt", "Co", 27, 58.933194},
	{"nickel", "Ni", 28, 58.6934},
	{"copper", "Cu", 29, 63.546},
	{"zinc", "Zn", 30, 65.38},
	{"gallium", "Ga", 31, 69.723},
	{"germanium", "Ge", 32, 72.630},
	{"arsenic", "As", 33, 74.921595},
	{"selenium", "Se", 34, 78.971},
	{"bromine", "Br", 35, 79.901},
	{"krypton", "Kr", 36, 83.798},
	{"xenon", "Xe", 54, 131.293},
	{"tungsten", "W", 74, 183.84},
}

var isotopes = []*Isotope{
	{"protium", "H1", 1, 1.00782503223, elements[0]},
	{"deuterium", "D", 2, 2.01410177812, elements[0]},
	{"tritium", "T", 3, 3.0160492779, elements[0]},
	{"helium3", "He3", 3, 3.0160293201, elements[1]},
	{"helium4", "He4", 4, 4.00260325413, elements[1]},
}

// index maps lowercased names and symbols to species.
var index = func() map[string]Species {
	m := make(map[string]Species)
	for _, e := range elements {
		m[strings.ToLower(e.symbol)] = e
		m[e.name] = e
	}
	for _, i := range isotopes {
		m[strings.ToLower(i.symbol)] = i
		m[i.name] = i
	}
	return m
}()

// Lookup finds an element or isotope by symbol or name, case-insensitively.
func Lookup(name string) (Species, error) {
	s, ok := index[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, errors.NotFoundf("unknown species %q", name)
	}
	return s, nil
}

// MustLookup is Lookup for names known at compile time.
func MustLookup(name string) Species {
	s, err := Lookup(name)
	if err != nil {
		panic(err)
	}
	return s
}

// ByAtomicNumber returns the element with atomic number z.
func ByAtomicNumber(z int) (*Element, error) {
	i := sort.Search(len(elements), func(i int) bool { return elements[i].z >= z })
	if i < len(elements) && elements[i].z == z {
		return elements[i], nil
	}
	return nil, errors.NotFoundf("no element with atomic number %d", z)
}
