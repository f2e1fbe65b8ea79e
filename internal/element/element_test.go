// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package element

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/openadas/internal/errors"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		symbol string
		z      int
	}{
		{"symbol", "C", "C", 6},
		{"lowercase symbol", "ne", "Ne", 10},
		{"name", "Helium", "He", 2},
		{"isotope symbol", "D", "D", 1},
		{"isotope name", "tritium", "T", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Lookup(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.symbol, s.Symbol())
			assert.Equal(t, tt.z, s.AtomicNumber())
		})
	}
}

func TestLookupUnknown(t *testing.T) {
	_, err := Lookup("unobtainium")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestResolve(t *testing.T) {
	d := MustLookup("deuterium")
	parent := Resolve(d)
	assert.Equal(t, "H", parent.Symbol())
	assert.Equal(t, 1, parent.AtomicNumber())

	c := MustLookup("carbon")
	assert.Same(t, c, Resolve(c))
}

func TestByAtomicNumber(t *testing.T) {
	e, err := ByAtomicNumber(26)
	require.NoError(t, err)
	assert.Equal(t, "Fe", e.Symbol())

	_, err = ByAtomicNumber(60)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}
