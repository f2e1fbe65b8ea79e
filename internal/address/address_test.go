// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package address

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/openadas/internal/element"
	"github.com/pdiddy/openadas/internal/errors"
)

func TestTransitionEncode(t *testing.T) {
	tests := []struct {
		name       string
		transition Transition
		want       string
	}{
		{"numeric", NumericTransition(3, 2), "3 -> 2"},
		{"term lowercased", TermTransition("2s1 2p1 3d1 2D4.5", "2s2 4d1 2D4.5"), "2s1 2p1 3d1 2d4.5 -> 2s2 4d1 2d4.5"},
		{"term whitespace collapsed", TermTransition("  2s1   2p1 2P1.5 ", "2s2 1S0.0"), "2s1 2p1 2p1.5 -> 2s2 1s0.0"},
		{"mixed", Transition{Upper: Term("1s1 2p1 1P1.0"), Lower: Numeric(1)}, "1s1 2p1 1p1.0 -> 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.transition.Encode())
		})
	}
}

func TestTransitionEncodeInjective(t *testing.T) {
	transitions := []Transition{
		NumericTransition(2, 1),
		NumericTransition(1, 2),
		NumericTransition(12, 1),
		NumericTransition(1, 21),
		TermTransition("2s1 2p1 3d1 2D4.5", "2s2 4d1 2D4.5"),
		TermTransition("2s2 4d1 2D4.5", "2s1 2p1 3d1 2D4.5"),
		TermTransition("2p1 2P0.5", "2s1 2S0.5"),
		{Upper: Term("2p1 2P0.5"), Lower: Numeric(1)},
	}

	seen := make(map[string]Transition)
	for _, tr := range transitions {
		require.NoError(t, tr.Validate())
		key := tr.Encode()
		if prev, ok := seen[key]; ok {
			t.Fatalf("%v and %v both encode to %q", prev, tr, key)
		}
		seen[key] = tr
	}
}

func TestTransitionValidate(t *testing.T) {
	tests := []struct {
		name       string
		transition Transition
	}{
		{"unset", Transition{}},
		{"zero level", NumericTransition(0, 1)},
		{"arrow in term", TermTransition("a -> b", "c")},
		{"comma in term", TermTransition("2s1, 2p1", "1s2")},
		{"bare integer term", TermTransition("3", "2")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.transition.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrInvalidAddress))
		})
	}
}

func TestParseTransition(t *testing.T) {
	tr, err := ParseTransition("3 -> 2")
	require.NoError(t, err)
	assert.Equal(t, NumericTransition(3, 2), tr)

	tr, err = ParseTransition("2s1 2p1 2P1.5 -> 2s2 1S0.0")
	require.NoError(t, err)
	assert.Equal(t, TermTransition("2s1 2p1 2P1.5", "2s2 1S0.0"), tr)

	_, err = ParseTransition("3 2")
	assert.True(t, errors.Is(err, errors.ErrInvalidAddress))
}

func TestTransitionYAML(t *testing.T) {
	var doc struct {
		Numeric Transition `yaml:"numeric"`
		Terms   Transition `yaml:"terms"`
		Arrow   Transition `yaml:"arrow"`
	}
	input := `
numeric: [3, 2]
terms: ["2p1 2P0.5", "2s1 2S0.5"]
arrow: "4 -> 2"
`
	require.NoError(t, yaml.Unmarshal([]byte(input), &doc))
	assert.Equal(t, NumericTransition(3, 2), doc.Numeric)
	assert.Equal(t, TermTransition("2p1 2P0.5", "2s1 2S0.5"), doc.Terms)
	assert.Equal(t, NumericTransition(4, 2), doc.Arrow)

	out, err := yaml.Marshal(doc.Numeric)
	require.NoError(t, err)
	assert.Equal(t, "- 3\n- 2\n", string(out))
}

func TestKeyPath(t *testing.T) {
	carbon := element.MustLookup("C")
	hydrogen := element.MustLookup("H")
	deuterium := element.MustLookup("D")
	neon := element.MustLookup("Ne")

	tests := []struct {
		name   string
		key    Key
		path   string
		record string
	}{
		{
			name:   "pec excitation",
			key:    Key{Class: PECExcitation, Species: carbon, Ionisation: 1, Transition: TermTransition("2s1 2p2 2D2.5", "2s2 2p1 2P1.5")},
			path:   "pec/excitation/c/1",
			record: "2s1 2p2 2d2.5 -> 2s2 2p1 2p1.5",
		},
		{
			name:   "isotope resolved to element",
			key:    Key{Class: Wavelength, Species: deuterium, Ionisation: 0, Transition: NumericTransition(3, 2)},
			path:   "wavelength/h/0",
			record: "3 -> 2",
		},
		{
			name:   "atomic rate",
			key:    Key{Class: Ionisation, Species: neon, Ionisation: 3},
			path:   "atomic/ionisation/ne/3",
			record: "ionisation",
		},
		{
			name:   "beam stopping",
			key:    Key{Class: BeamStopping, Donor: deuterium, Species: neon, Ionisation: 10},
			path:   "beam/stopping/h/ne/10",
			record: "stopping",
		},
		{
			name:   "beam population",
			key:    Key{Class: BeamPopulation, Donor: hydrogen, Species: carbon, Ionisation: 6, Metastable: 2},
			path:   "beam/population/h/c/6",
			record: "metastable 2",
		},
		{
			name:   "beam charge exchange",
			key:    Key{Class: BeamCX, Donor: hydrogen, Species: carbon, Ionisation: 6, Transition: NumericTransition(8, 7), Metastable: 1},
			path:   "beam/cx/h/c/6",
			record: "8 -> 7, metastable 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := tt.key.Path()
			require.NoError(t, err)
			assert.Equal(t, tt.path, p)

			rk, err := tt.key.RecordKey()
			require.NoError(t, err)
			assert.Equal(t, tt.record, rk)
		})
	}
}

func TestKeyInvalidAddress(t *testing.T) {
	for _, name := range []string{"H", "He", "Be", "C", "N", "Ne", "Ar", "D"} {
		t.Run(name, func(t *testing.T) {
			s := element.MustLookup(name)
			key := Key{Class: Ionisation, Species: s, Ionisation: s.AtomicNumber() + 1}
			_, err := key.Path()
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrInvalidAddress))

			key.Ionisation = s.AtomicNumber()
			_, err = key.Path()
			assert.NoError(t, err)
		})
	}
}

func TestKeyValidateIncomplete(t *testing.T) {
	carbon := element.MustLookup("C")
	tests := []struct {
		name string
		key  Key
	}{
		{"no species", Key{Class: Ionisation}},
		{"unknown class", Key{Class: "pec/bogus", Species: carbon}},
		{"negative stage", Key{Class: Ionisation, Species: carbon, Ionisation: -1}},
		{"beam without donor", Key{Class: BeamStopping, Species: carbon, Ionisation: 6}},
		{"pec without transition", Key{Class: PECExcitation, Species: carbon, Ionisation: 1}},
		{"population without metastable", Key{Class: BeamPopulation, Donor: carbon, Species: carbon, Ionisation: 6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.key.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrInvalidAddress))
		})
	}
}

func TestParseClass(t *testing.T) {
	c, err := ParseClass("pec/excitation")
	require.NoError(t, err)
	assert.Equal(t, PECExcitation, c)

	c, err = ParseClass("Stopping")
	require.NoError(t, err)
	assert.Equal(t, BeamStopping, c)

	_, err = ParseClass("recombination")
	assert.True(t, errors.Is(err, errors.ErrInvalidAddress))

	_, err = ParseClass("nonsense")
	assert.True(t, errors.Is(err, errors.ErrInvalidAddress))
}
