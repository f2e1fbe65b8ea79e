// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package adf

import "math"

// Source files tabulate densities per cm^3 and volumetric rate
// coefficients in cm^3 s^-1. Records are stored per m^3 and m^3 s^-1 so
// that rate × density products are unchanged.
const (
	perCm3ToPerM3 = 1e6
	cm3ToM3       = 1e-6

	angstromToNm = 0.1
)

func scale(values []float64, factor float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v * factor
	}
	return out
}

// exp10 exponentiates log10 values and applies factor.
func exp10(values []float64, factor float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = math.Pow(10, v) * factor
	}
	return out
}

// reshape splits values into rows of cols values.
func reshape(values []float64, rows, cols int) [][]float64 {
	out := make([][]float64, rows)
	for i := range out {
		out[i] = values[i*cols : (i+1)*cols]
	}
	return out
}
