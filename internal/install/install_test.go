// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package install

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pdiddy/openadas/internal/acquire"
	"github.com/pdiddy/openadas/internal/adf/adftest"
	"github.com/pdiddy/openadas/internal/address"
	"github.com/pdiddy/openadas/internal/catalog"
	"github.com/pdiddy/openadas/internal/element"
	"github.com/pdiddy/openadas/internal/errors"
	"github.com/pdiddy/openadas/internal/repository"
	"github.com/pdiddy/openadas/pkg/types"
)

const (
	stoppingFile = "adf21/bms97#h/bms97#h_h1.dat"
	pecFile      = "adf15/pec96#h/pec96#h_pju#h0.dat"
	atomicFile   = "adf11/scd96/scd96_h.dat"
)

type env struct {
	adas     string
	store    *repository.Store
	resolver *acquire.Resolver
	catalog  *catalog.Catalog
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dir := t.TempDir()
	store, err := repository.NewStore(types.RepositoryConfig{Path: filepath.Join(dir, "repository")})
	require.NoError(t, err)
	cfg := types.AcquisitionConfig{
		AdasPath: filepath.Join(dir, "adas"),
		CacheDir: filepath.Join(dir, "cache"),
		Offline:  true,
	}
	cat, err := catalog.Open(types.CatalogConfig{Path: filepath.Join(dir, "catalog.db")})
	require.NoError(t, err)
	t.Cleanup(func() { cat.Close() })
	return &env{adas: cfg.AdasPath, store: store, resolver: acquire.NewResolver(cfg, nil, nil), catalog: cat}
}

func (e *env) write(t *testing.T, rel, content string) {
	t.Helper()
	p := filepath.Join(e.adas, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

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

func pecBlock(wavelength float64, label string) adftest.PECBlock {
	return adftest.PECBlock{
		Wavelength:   wavelength,
		Type:         label,
		Densities:    []float64{1e8, 1e9},
		Temperatures: []float64{1, 10, 100},
		Rates: [][]float64{
			{1e-10, 2e-10, 3e-10},
			{4e-10, 5e-10, 6e-10},
		},
	}
}

func pecFixture() adftest.PEC {
	return adftest.PEC{
		Title: "H 0 PHOTON EMISSIVITY COEFFICIENTS",
		Blocks: []adftest.PECBlock{
			pecBlock(6561.9, "EXCIT"),
			pecBlock(6561.9, "RECOM"),
			pecBlock(4860.6, "IONIS"),
		},
		Comments: []string{
			"C-----------------------------------------------------------------------",
			"C",
			"C   ISEL  WAVELENGTH      TRANSITION            TYPE",
			"C   ----  ----------  --------------------      -----",
			"C     1.     6561.9    N= 3 - N= 2              EXCIT",
			"C     2.     6561.9    N= 3 - N= 2              RECOM",
			"C     3.     4860.6    N= 4 - N= 2              IONIS",
		},
	}
}

func atomicFixture() adftest.Atomic {
	return adftest.Atomic{
		Z:            1,
		Densities:    []float64{1e10, 1e11},
		Temperatures: []float64{1, 10, 100},
		Blocks:       map[int][][]float64{1: {{1e-10, 1e-9, 1e-8}, {2e-10, 2e-9, 2e-8}}},
		Order:        []int{1},
	}
}

func stoppingManifest() Manifest {
	return Manifest{ADF21: []BeamEntry{{Beam: "d", Target: "h", Ionisation: 1, File: stoppingFile}}}
}

func stoppingKey() address.Key {
	return address.Key{Class: address.BeamStopping, Species: element.MustLookup("h"),
		Ionisation: 1, Donor: element.MustLookup("d")}
}

func assertRel(t *testing.T, want, got []float64) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.InEpsilon(t, want[i], got[i], 1e-4, "index %d", i)
	}
}

func TestInstallBeamStopping(t *testing.T) {
	e := newEnv(t)
	e.write(t, stoppingFile, stoppingFixture().String())

	var out bytes.Buffer
	summary, err := New(stoppingManifest(), e.store, e.resolver).Install(context.Background(), &out)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Installed)
	assert.Equal(t, 1, summary.Records)
	assert.False(t, summary.HasFailures())
	assert.Contains(t, out.String(), "installed: "+stoppingFile+" (1 records, adas)")
	assert.Contains(t, out.String(), "Install summary: 1 installed, 0 skipped, 0 failed (total: 1)")

	rate, err := e.store.BeamStopping(stoppingKey())
	require.NoError(t, err)
	assertRel(t, []float64{10, 20, 30}, rate.Energies)
	assertRel(t, []float64{1e18, 1e19, 1e20}, rate.Densities)
	require.Len(t, rate.Rates, 3)
	for i, row := range [][]float64{
		{1.0e-14, 1.1e-14, 1.2e-14},
		{2.0e-14, 2.1e-14, 2.2e-14},
		{3.0e-14, 3.1e-14, 3.2e-14},
	} {
		assertRel(t, row, rate.Rates[i])
	}
}

func TestInstallPEC(t *testing.T) {
	tests := []struct {
		name    string
		blocks  []int
		records int
		failed  int
	}{
		{"every block", nil, 4, 1},
		{"selected blocks", []int{1, 2}, 4, 0},
		{"missing selected block", []int{1, 7}, 2, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			e.write(t, pecFile, pecFixture().String())
			m := Manifest{ADF15: []PECEntry{{Species: "h", Ionisation: 0, File: pecFile, Blocks: tt.blocks}}}

			var out bytes.Buffer
			summary, err := New(m, e.store, e.resolver).Install(context.Background(), &out)
			require.NoError(t, err)
			assert.Equal(t, 1, summary.Installed)
			assert.Equal(t, tt.records, summary.Records)
			assert.Equal(t, tt.failed, summary.Failed)

			h := element.MustLookup("h")
			key := address.Key{Class: address.PECExcitation, Species: h, Transition: address.NumericTransition(3, 2)}
			pec, err := e.store.PEC(key)
			require.NoError(t, err)
			assertRel(t, []float64{1e14, 1e15}, pec.Densities)
			assertRel(t, []float64{1e-16, 2e-16, 3e-16}, pec.Rates[0])

			key.Class = address.Wavelength
			nm, err := e.store.Wavelength(key)
			require.NoError(t, err)
			assert.InDelta(t, 656.19, nm, 1e-9)

			key.Class = address.PECExcitation
			key.Transition = address.NumericTransition(9, 2)
			_, err = e.store.PEC(key)
			assert.True(t, errors.Is(err, errors.ErrNotFound), "got %v", err)
		})
	}
}

func TestInstallPECSkippedBlockReason(t *testing.T) {
	e := newEnv(t)
	e.write(t, pecFile, pecFixture().String())
	m := Manifest{ADF15: []PECEntry{{Species: "h", Ionisation: 0, File: pecFile, Blocks: []int{1, 3, 7}}}}

	jobs := New(m, e.store, e.resolver).jobs()
	require.Len(t, jobs, 1)
	entries, partial, err := jobs[0].decode(filepath.Join(e.adas, filepath.FromSlash(pecFile)))
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	require.Len(t, partial, 2)
	assert.True(t, errors.Is(partial[0], errors.ErrUnsupportedRateClass), "got %v", partial[0])
	assert.True(t, errors.Is(partial[1], errors.ErrNotFound), "got %v", partial[1])

	var out bytes.Buffer
	summary, err := New(m, e.store, e.resolver).Install(context.Background(), &out)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Failed)
	assert.Contains(t, out.String(), `block 3 has rate class "IONIS"`)
	assert.Contains(t, out.String(), "no block 7")
}

func TestInstallRetriesPartialFailures(t *testing.T) {
	e := newEnv(t)
	e.write(t, pecFile, pecFixture().String())
	m := Manifest{ADF15: []PECEntry{{Species: "h", Ionisation: 0, File: pecFile, Blocks: []int{1, 3}}}}
	ctx := context.Background()

	for run := 1; run <= 2; run++ {
		var out bytes.Buffer
		summary, err := New(m, e.store, e.resolver, WithCatalog(e.catalog)).Install(ctx, &out)
		require.NoError(t, err)
		assert.Equal(t, 1, summary.Installed, "run %d", run)
		assert.Equal(t, 0, summary.Skipped, "run %d", run)
		assert.Equal(t, 1, summary.Failed, "run %d", run)
		assert.NotContains(t, out.String(), "unchanged", "run %d", run)
	}

	clean := Manifest{ADF15: []PECEntry{{Species: "h", Ionisation: 0, File: pecFile, Blocks: []int{1, 2}}}}
	first, err := New(clean, e.store, e.resolver, WithCatalog(e.catalog)).Install(ctx, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Installed)
	second, err := New(clean, e.store, e.resolver, WithCatalog(e.catalog)).Install(ctx, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 1, second.Skipped)
	assert.Equal(t, 0, second.Failed)
}

func TestInstallPECHeaderNotChecked(t *testing.T) {
	tests := []struct {
		name   string
		title  string
		logged int
	}{
		{"identity in header", "H 0 PHOTON EMISSIVITY COEFFICIENTS", 0},
		{"no identity in header", "PHOTON EMISSIVITY COEFFICIENTS", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			fixture := pecFixture()
			fixture.Title = tt.title
			e.write(t, pecFile, fixture.String())
			m := Manifest{ADF15: []PECEntry{{Species: "h", Ionisation: 0, File: pecFile, Blocks: []int{1}}}}

			core, logs := observer.New(zapcore.DebugLevel)
			summary, err := New(m, e.store, e.resolver, WithLogger(zap.New(core).Sugar())).Install(context.Background(), &bytes.Buffer{})
			require.NoError(t, err)
			assert.Equal(t, 1, summary.Installed)

			entries := logs.FilterMessage("header identity not checked").All()
			require.Len(t, entries, tt.logged)
			if tt.logged > 0 {
				assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
				assert.Equal(t, pecFile, entries[0].ContextMap()["source"])
			}
		})
	}
}

func TestInstallAtomic(t *testing.T) {
	e := newEnv(t)
	e.write(t, atomicFile, atomicFixture().String())
	m := Manifest{ADF11: []AtomicEntry{{Species: "h", Class: "scd", File: atomicFile}}}

	summary, err := New(m, e.store, e.resolver).Install(context.Background(), &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Records)

	rate, err := e.store.AtomicRate(address.Key{Class: address.Ionisation, Species: element.MustLookup("h")})
	require.NoError(t, err)
	assertRel(t, []float64{1e16, 1e17}, rate.Densities)
	assertRel(t, []float64{1e-16, 1e-15, 1e-14}, rate.Rates[0])
}

func TestInstallWavelengthsOverridePEC(t *testing.T) {
	e := newEnv(t)
	e.write(t, pecFile, pecFixture().String())
	m := Manifest{
		ADF15: []PECEntry{{Species: "h", Ionisation: 0, File: pecFile, Blocks: []int{1}}},
		Wavelengths: []WavelengthEntry{{Species: "h", Ionisation: 0, Lines: []Line{
			{Transition: address.NumericTransition(3, 2), Wavelength: 656.279},
		}}},
	}

	var out bytes.Buffer
	summary, err := New(m, e.store, e.resolver).Install(context.Background(), &out)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Installed)
	assert.Contains(t, out.String(), "installed: wavelengths h 0 (1 records, manifest)")

	nm, err := e.store.Wavelength(address.Key{Class: address.Wavelength, Species: element.MustLookup("h"),
		Transition: address.NumericTransition(3, 2)})
	require.NoError(t, err)
	assert.InDelta(t, 656.279, nm, 1e-9)
}

func TestInstallFailures(t *testing.T) {
	e := newEnv(t)
	e.write(t, stoppingFile, stoppingFixture().String())
	m := Manifest{ADF21: []BeamEntry{
		{Beam: "d", Target: "he", Ionisation: 2, File: stoppingFile},
		{Beam: "d", Target: "c", Ionisation: 6, File: "adf21/bms97#h/bms97#h_c6.dat"},
		{Beam: "d", Target: "h", Ionisation: 1, File: stoppingFile},
	}}

	var out bytes.Buffer
	summary, err := New(m, e.store, e.resolver).Install(context.Background(), &out)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Installed)
	assert.Equal(t, 2, summary.Failed)
	assert.True(t, summary.HasFailures())
	assert.Contains(t, out.String(), "failed:  adf21/bms97#h/bms97#h_c6.dat")
	assert.Contains(t, out.String(), "Install summary: 1 installed, 0 skipped, 2 failed (total: 3)")

	_, err = e.store.BeamStopping(address.Key{Class: address.BeamStopping, Species: element.MustLookup("he"),
		Ionisation: 2, Donor: element.MustLookup("d")})
	assert.True(t, errors.Is(err, errors.ErrNotFound), "header mismatch must write nothing, got %v", err)

	_, err = e.store.BeamStopping(stoppingKey())
	assert.NoError(t, err)
}

func TestInstallSkipsUnchanged(t *testing.T) {
	e := newEnv(t)
	e.write(t, stoppingFile, stoppingFixture().String())
	ctx := context.Background()

	first, err := New(stoppingManifest(), e.store, e.resolver, WithCatalog(e.catalog)).Install(ctx, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Installed)

	var out bytes.Buffer
	second, err := New(stoppingManifest(), e.store, e.resolver, WithCatalog(e.catalog)).Install(ctx, &out)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Installed)
	assert.Equal(t, 1, second.Skipped)
	assert.Contains(t, out.String(), "skipped: "+stoppingFile+" (unchanged)")

	forced, err := New(stoppingManifest(), e.store, e.resolver, WithCatalog(e.catalog), WithForce(true)).Install(ctx, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 1, forced.Installed)

	fixture := stoppingFixture()
	fixture.Date = "16/01/97"
	e.write(t, stoppingFile, fixture.String())
	changed, err := New(stoppingManifest(), e.store, e.resolver, WithCatalog(e.catalog)).Install(ctx, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 1, changed.Installed)

	runs, err := e.catalog.Runs(ctx)
	require.NoError(t, err)
	assert.Len(t, runs, 4)

	entries, err := e.catalog.List(ctx, catalog.ListOptions{Class: "beam"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, stoppingFile, entries[0].Source)
	assert.Equal(t, changed.RunID, entries[0].RunID)
}

func TestInstallCancelled(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(stoppingManifest(), e.store, e.resolver).Install(ctx, &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)
}
