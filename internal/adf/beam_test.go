// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package adf

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/openadas/internal/adf/adftest"
	"github.com/pdiddy/openadas/internal/element"
	"github.com/pdiddy/openadas/internal/errors"
)

func stoppingFixture() adftest.Beam {
	return adftest.Beam{
		TargetCharge: 1,
		TargetSymbol: "H",
		SVRef:        9.052e-08,
		Date:         "15/01/97",
		Code:         "BMS97#H",
		Energies:     []float64{10, 20, 30},
		Densities:    []float64{1e12, 1e13, 1e14},
		Rates: [][]float64{
			{1.0e-8, 1.1e-8, 1.2e-8},
			{2.0e-8, 2.1e-8, 2.2e-8},
			{3.0e-8, 3.1e-8, 3.2e-8},
		},
		TRef:         2.0e3,
		ERef:         20,
		DRef:         1e13,
		Temperatures: []float64{1e2, 1e3, 1e4},
		TempRates:    []float64{8.9e-8, 9.0e-8, 9.1e-8},
	}
}

func TestDecodeADF21(t *testing.T) {
	src := stoppingFixture().String()

	f, err := DecodeADF21(strings.NewReader(src), "bms97#h_h1.dat", element.MustLookup("D"), element.MustLookup("H"), 1)
	require.NoError(t, err)

	assert.Equal(t, "H", f.Beam.Symbol())
	assert.Equal(t, "15/01/97", f.Date)
	assert.Equal(t, "BMS97#H", f.Code)

	rate := f.Rate
	assert.InDeltaSlice(t, []float64{10, 20, 30}, rate.Energies, 1e-9)
	assertRelSlice(t, []float64{1e18, 1e19, 1e20}, rate.Densities, 1e-9)
	require.Len(t, rate.Rates, 3)
	for i := range rate.Rates {
		require.Len(t, rate.Rates[i], 3)
	}
	assert.InEpsilon(t, 2.1e-14, rate.Rates[1][1], 1e-9)
	assert.InEpsilon(t, 1.2e-14, rate.Rates[0][2], 1e-9)
	assert.InEpsilon(t, 3.0e-14, rate.Rates[2][0], 1e-9)

	assertRelSlice(t, []float64{1e2, 1e3, 1e4}, rate.Temperatures, 1e-9)
	assertRelSlice(t, []float64{8.9e-14, 9.0e-14, 9.1e-14}, rate.TempRates, 1e-9)
	assert.InEpsilon(t, 20.0, rate.EnergyRef, 1e-9)
	assert.InEpsilon(t, 1e19, rate.DensityRef, 1e-9)
	assert.InEpsilon(t, 2e3, rate.TemperatureRef, 1e-9)
	assert.InEpsilon(t, 9.052e-14, rate.RateRef, 1e-9)
}

func TestDecodeADF22(t *testing.T) {
	src := stoppingFixture().String()
	beam, target := element.MustLookup("H"), element.MustLookup("H")

	pop, err := DecodeADF22Population(strings.NewReader(src), "bmp97#h_2_h1.dat", beam, target, 1)
	require.NoError(t, err)
	assert.InEpsilon(t, 2.1e-8, pop.Rate.Rates[1][1], 1e-9, "populations are not rescaled")
	assert.InEpsilon(t, 1e19, pop.Rate.Densities[1], 1e-9)

	emis, err := DecodeADF22Emission(strings.NewReader(src), "bme97#h_h1.dat", beam, target, 1)
	require.NoError(t, err)
	assert.InEpsilon(t, 2.1e-14, emis.Rate.Rates[1][1], 1e-9)
}

func TestDecodeBeamSchemaMismatch(t *testing.T) {
	beam := element.MustLookup("H")
	tests := []struct {
		name       string
		target     string
		ionisation int
	}{
		{"wrong element", "He", 1},
		{"wrong charge", "H", 0},
	}

	src := stoppingFixture().String()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeADF21(strings.NewReader(src), "bms.dat", beam, element.MustLookup(tt.target), tt.ionisation)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrSchemaMismatch), "got %v", err)
		})
	}
}

func TestDecodeBeamTableSizeMismatch(t *testing.T) {
	beam, target := element.MustLookup("H"), element.MustLookup("H")

	tests := []struct {
		name   string
		mutate func(string) string
	}{
		{
			name: "fewer densities than declared",
			mutate: func(s string) string {
				return strings.Replace(s, fmt.Sprintf("%5d%5d", 3, 3), fmt.Sprintf("%5d%5d", 3, 4), 1)
			},
		},
		{
			name: "extra coefficient row",
			mutate: func(s string) string {
				marker := adftest.Fortran(8, 1.2e-8, 2.2e-8, 3.2e-8)
				return strings.Replace(s, marker, marker+marker, 1)
			},
		},
		{
			name: "unparseable coefficient",
			mutate: func(s string) string {
				return strings.Replace(s, " 2.100D-08", " 2.1xxD-08", 1)
			},
		},
		{
			name: "truncated file",
			mutate: func(s string) string {
				return s[:strings.LastIndex(s, "-----")]
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := tt.mutate(stoppingFixture().String())
			_, err := DecodeADF21(strings.NewReader(src), "bms.dat", beam, target, 1)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrMalformedRecord), "got %v", err)
		})
	}
}

func TestDecodeBeamInvalidStage(t *testing.T) {
	_, err := DecodeADF21(strings.NewReader(""), "bms.dat", element.MustLookup("H"), element.MustLookup("He"), 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidAddress))
}

func assertRelSlice(t *testing.T, want, got []float64, epsilon float64) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.InEpsilon(t, want[i], got[i], epsilon, "index %d", i)
	}
}
