// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package install

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"

	"github.com/pdiddy/openadas/internal/adf"
	"github.com/pdiddy/openadas/internal/address"
	"github.com/pdiddy/openadas/internal/element"
	"github.com/pdiddy/openadas/internal/errors"
	"github.com/pdiddy/openadas/internal/repository"
)

// decodeFunc decodes the resolved file at path. partial holds blocks that
// were skipped inside an otherwise usable file.
type decodeFunc func(path string) (entries []repository.Entry, partial []error, err error)

// job is one unit of install work.
type job struct {
	// name identifies the source in output and in the catalog.
	name string
	// target describes what the source is decoded as; a file installed
	// for two targets is tracked separately for each.
	target  string
	dialect string
	// file is the path relative to the ADAS root; empty for jobs whose
	// data lives in the manifest.
	file   string
	digest string
	decode decodeFunc
}

// jobs expands the manifest in install order. Wavelengths come last so
// reference values replace those read from ADF15 files.
func (i *Installer) jobs() []job {
	m := i.manifest
	var jobs []job
	for _, e := range m.ADF11 {
		jobs = append(jobs, atomicJob(e))
	}
	for _, e := range m.ADF12 {
		jobs = append(jobs, cxJob(e))
	}
	for _, e := range m.ADF15 {
		jobs = append(jobs, pecJob(e, i.log))
	}
	for _, e := range m.ADF21 {
		jobs = append(jobs, beamJob("adf21", address.BeamStopping, e, adf.DecodeADF21))
	}
	for _, e := range m.ADF22Population {
		jobs = append(jobs, beamJob("adf22", address.BeamPopulation, e, adf.DecodeADF22Population))
	}
	for _, e := range m.ADF22Emission {
		jobs = append(jobs, beamJob("adf22", address.BeamEmission, e, adf.DecodeADF22Emission))
	}
	for _, e := range m.Wavelengths {
		jobs = append(jobs, wavelengthJob(e))
	}
	return jobs
}

// decodeFile opens path and hands it to decode.
func decodeFile[T any](path string, decode func(f *os.File) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(path)
	if err != nil {
		return zero, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()
	return decode(f)
}

func atomicJob(e AtomicEntry) job {
	return job{
		name:    e.File,
		target:  fmt.Sprintf("adf11 %s %s", strings.ToLower(e.Class), strings.ToLower(e.Species)),
		dialect: "adf11",
		file:    e.File,
		decode: func(path string) ([]repository.Entry, []error, error) {
			species, err := element.Lookup(e.Species)
			if err != nil {
				return nil, nil, err
			}
			class, err := adf.ParseAtomicClass(e.Class)
			if err != nil {
				return nil, nil, err
			}
			file, err := decodeFile(path, func(f *os.File) (*adf.AtomicFile, error) {
				return adf.DecodeADF11(f, e.File, species, class)
			})
			if err != nil {
				return nil, nil, err
			}
			var entries []repository.Entry
			for _, r := range file.Rates {
				rec, err := r.Rate.Record()
				if err != nil {
					return nil, nil, errors.Wrapf(err, "stage %d", r.Ionisation)
				}
				key := address.Key{Class: class, Species: species, Ionisation: r.Ionisation}
				entries = append(entries, repository.Entry{Key: key, Record: rec})
			}
			return entries, nil, nil
		},
	}
}

func cxJob(e CXEntry) job {
	return job{
		name:    e.File,
		target:  fmt.Sprintf("adf12 %s(%d) %s %d", strings.ToLower(e.Donor), e.Metastable, strings.ToLower(e.Receiver), e.Ionisation),
		dialect: "adf12",
		file:    e.File,
		decode: func(path string) ([]repository.Entry, []error, error) {
			donor, err := element.Lookup(e.Donor)
			if err != nil {
				return nil, nil, err
			}
			receiver, err := element.Lookup(e.Receiver)
			if err != nil {
				return nil, nil, err
			}
			file, err := decodeFile(path, func(f *os.File) (*adf.CXFile, error) {
				return adf.DecodeADF12(f, e.File, donor, receiver, e.Ionisation)
			})
			if err != nil {
				return nil, nil, err
			}
			var entries []repository.Entry
			for _, b := range file.Blocks {
				rec, err := b.Rate.Record()
				if err != nil {
					return nil, nil, errors.Wrapf(err, "block %d", b.Index)
				}
				key := address.Key{Class: address.BeamCX, Species: receiver, Ionisation: e.Ionisation,
					Donor: donor, Transition: b.Transition, Metastable: e.Metastable}
				entries = append(entries, repository.Entry{Key: key, Record: rec})
			}
			return entries, nil, nil
		},
	}
}

func pecJob(e PECEntry, log *zap.SugaredLogger) job {
	target := fmt.Sprintf("adf15 %s %d", strings.ToLower(e.Species), e.Ionisation)
	if len(e.Blocks) > 0 {
		parts := make([]string, len(e.Blocks))
		for i, b := range e.Blocks {
			parts[i] = strconv.Itoa(b)
		}
		target += " blocks " + strings.Join(parts, ",")
	}
	return job{
		name:    e.File,
		target:  target,
		dialect: "adf15",
		file:    e.File,
		decode: func(path string) ([]repository.Entry, []error, error) {
			species, err := element.Lookup(e.Species)
			if err != nil {
				return nil, nil, err
			}
			file, err := decodeFile(path, func(f *os.File) (*adf.PECFile, error) {
				return adf.DecodeADF15(f, e.File, species, e.Ionisation)
			})
			if err != nil {
				return nil, nil, err
			}
			if !file.HeaderChecked {
				log.Debugw("header identity not checked", "source", e.File, "species", e.Species, "ionisation", e.Ionisation)
			}

			// A requested block that was skipped reports why it was skipped.
			blocks, partial := file.Blocks, file.Skipped
			if len(e.Blocks) > 0 {
				blocks, partial = nil, nil
				for _, index := range e.Blocks {
					b, err := file.Block(index)
					if err != nil {
						partial = append(partial, err)
						continue
					}
					blocks = append(blocks, b)
				}
			}

			var entries []repository.Entry
			for _, b := range blocks {
				rec, err := b.Rate.Record()
				if err != nil {
					return nil, nil, errors.Wrapf(err, "block %d", b.Index)
				}
				entries = append(entries,
					repository.Entry{
						Key:    address.Key{Class: b.Class, Species: species, Ionisation: e.Ionisation, Transition: b.Transition},
						Record: rec,
					},
					repository.Entry{
						Key:    address.Key{Class: address.Wavelength, Species: species, Ionisation: e.Ionisation, Transition: b.Transition},
						Record: repository.WavelengthRecord(b.Wavelength),
					})
			}
			return entries, partial, nil
		},
	}
}

func beamJob(dialect string, class address.Class, e BeamEntry,
	decode func(r io.Reader, source string, beam, target element.Species, ionisation int) (*adf.BeamFile, error)) job {
	return job{
		name:    e.File,
		target:  fmt.Sprintf("%s %s %s %d", class, strings.ToLower(e.Beam), strings.ToLower(e.Target), e.Ionisation),
		dialect: dialect,
		file:    e.File,
		decode: func(path string) ([]repository.Entry, []error, error) {
			key, err := e.key(class)
			if err != nil {
				return nil, nil, err
			}
			file, err := decodeFile(path, func(f *os.File) (*adf.BeamFile, error) {
				return decode(f, e.File, key.Donor, key.Species, key.Ionisation)
			})
			if err != nil {
				return nil, nil, err
			}
			rec, err := file.Rate.Record()
			if err != nil {
				return nil, nil, err
			}
			return []repository.Entry{{Key: key, Record: rec}}, nil, nil
		},
	}
}

func wavelengthJob(e WavelengthEntry) job {
	h := xxhash.New()
	for _, l := range e.Lines {
		fmt.Fprintf(h, "%s=%v;", l.Transition.Encode(), l.Wavelength)
	}
	name := fmt.Sprintf("wavelengths %s %d", strings.ToLower(e.Species), e.Ionisation)
	return job{
		name:    name,
		target:  name,
		dialect: "wavelength",
		digest:  fmt.Sprintf("%016x", h.Sum64()),
		decode: func(string) ([]repository.Entry, []error, error) {
			species, err := element.Lookup(e.Species)
			if err != nil {
				return nil, nil, err
			}
			entries := make([]repository.Entry, 0, len(e.Lines))
			for _, l := range e.Lines {
				key := address.Key{Class: address.Wavelength, Species: species, Ionisation: e.Ionisation, Transition: l.Transition}
				entries = append(entries, repository.Entry{Key: key, Record: repository.WavelengthRecord(l.Wavelength)})
			}
			return entries, nil, nil
		},
	}
}
