// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package adf

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/openadas/internal/adf/adftest"
	"github.com/pdiddy/openadas/internal/address"
	"github.com/pdiddy/openadas/internal/element"
	"github.com/pdiddy/openadas/internal/errors"
)

func cxBlock(upper, lower int, qref float64) adftest.CXBlock {
	return adftest.CXBlock{
		Donor:    "h (1s)",
		Receiver: "c6+",
		Upper:    upper,
		Lower:    lower,
		QRef:     qref,
		ERef:     4e4,
		TiRef:    2e3,
		NiRef:    2e13,
		ZRef:     2,
		BRef:     3,

		Energies:        []float64{1e3, 5e3, 1e4, 2e4, 4e4, 6e4, 8e4, 1e5},
		EnergyRates:     []float64{1e-9, 2e-9, 3e-9, 4e-9, 5e-9, 6e-9, 7e-9, 8e-9},
		IonTemperatures: []float64{1e2, 1e3, 1e4},
		IonTempRates:    []float64{2e-8, 3e-8, 4e-8},
		IonDensities:    []float64{1e12, 1e13},
		IonDensityRates: []float64{5e-8, 6e-8},
		ZEffective:      []float64{1, 2, 3},
		ZEffectiveRates: []float64{1.1e-8, 1.2e-8, 1.3e-8},
		Fields:          []float64{1, 3},
		FieldRates:      []float64{9e-9, 9.5e-9},
	}
}

func TestDecodeADF12(t *testing.T) {
	src := adftest.CX(cxBlock(8, 7, 1e-8), cxBlock(7, 6, 2e-8))
	f, err := DecodeADF12(strings.NewReader(src), "qef93#h_c6.dat", element.MustLookup("D"), element.MustLookup("C"), 6)
	require.NoError(t, err)
	require.Len(t, f.Blocks, 2)
	assert.Equal(t, "H", f.Donor.Symbol())

	b, err := f.Find(address.NumericTransition(8, 7))
	require.NoError(t, err)
	assert.Equal(t, 1, b.Index)
	assert.Equal(t, "qef93#h", b.Code)
	assert.Equal(t, "20/01/93", b.Date)

	r := b.Rate
	assert.InEpsilon(t, 1e-14, r.RateRef, 1e-9)
	assert.InEpsilon(t, 4e4, r.EnergyRef, 1e-9)
	assert.InEpsilon(t, 2e3, r.IonTemperatureRef, 1e-9)
	assert.InEpsilon(t, 2e19, r.IonDensityRef, 1e-9)
	assert.InEpsilon(t, 2.0, r.ZEffectiveRef, 1e-9)
	assert.InEpsilon(t, 3.0, r.FieldRef, 1e-9)

	assertRelSlice(t, []float64{1e3, 5e3, 1e4, 2e4, 4e4, 6e4, 8e4, 1e5}, r.Energies, 1e-9)
	assertRelSlice(t, []float64{1e-15, 2e-15, 3e-15, 4e-15, 5e-15, 6e-15, 7e-15, 8e-15}, r.EnergyRates, 1e-9)
	assertRelSlice(t, []float64{1e2, 1e3, 1e4}, r.IonTemperatures, 1e-9)
	assertRelSlice(t, []float64{1e18, 1e19}, r.IonDensities, 1e-9)
	assertRelSlice(t, []float64{5e-14, 6e-14}, r.IonDensityRates, 1e-9)
	assertRelSlice(t, []float64{1, 2, 3}, r.ZEffective, 1e-9)
	assertRelSlice(t, []float64{1, 3}, r.Fields, 1e-9)
	assertRelSlice(t, []float64{9e-15, 9.5e-15}, r.FieldRates, 1e-9)

	second, err := f.Find(address.NumericTransition(7, 6))
	require.NoError(t, err)
	assert.Equal(t, 2, second.Index)
	assert.InEpsilon(t, 2e-14, second.Rate.RateRef, 1e-9)

	_, err = f.Find(address.NumericTransition(9, 8))
	assert.True(t, errors.Is(err, errors.ErrNotFound), "got %v", err)
}

func TestDecodeADF12Errors(t *testing.T) {
	hydrogen := element.MustLookup("H")
	carbon := element.MustLookup("C")
	valid := adftest.CX(cxBlock(8, 7, 1e-8))

	tests := []struct {
		name       string
		src        string
		donor      element.Species
		receiver   element.Species
		ionisation int
		sentinel   error
	}{
		{"receiver element differs", valid, hydrogen, element.MustLookup("N"), 6, errors.ErrSchemaMismatch},
		{"receiver charge differs", valid, hydrogen, carbon, 5, errors.ErrSchemaMismatch},
		{"donor differs", valid, element.MustLookup("He"), carbon, 6, errors.ErrSchemaMismatch},
		{"donor missing", valid, nil, carbon, 6, errors.ErrInvalidAddress},
		{"stage beyond Z", valid, hydrogen, carbon, 7, errors.ErrInvalidAddress},
		{"fewer blocks than declared", strings.Replace(valid, "    1\n", "    2\n", 1), hydrogen, carbon, 6, errors.ErrMalformedRecord},
		{"missing block count", "\n", hydrogen, carbon, 6, errors.ErrMalformedRecord},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeADF12(strings.NewReader(tt.src), "qef.dat", tt.donor, tt.receiver, tt.ionisation)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.sentinel), "got %v", err)
		})
	}
}
