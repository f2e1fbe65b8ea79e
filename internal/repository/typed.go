// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package repository

import (
	"github.com/pdiddy/openadas/internal/address"
	"github.com/pdiddy/openadas/internal/errors"
)

// PEC returns a photon emissivity coefficient.
func (s *Store) PEC(key address.Key) (RateTable, error) {
	if err := expectClass(key, address.PECExcitation, address.PECRecombination, address.PECThermalCX); err != nil {
		return RateTable{}, err
	}
	return getTyped(s, key, RateTableFrom)
}

// AtomicRate returns a stage-resolved ionisation, recombination, charge
// exchange or radiated power coefficient.
func (s *Store) AtomicRate(key address.Key) (RateTable, error) {
	err := expectClass(key, address.Ionisation, address.Recombination, address.ThermalCX,
		address.LineRadiation, address.ContinuumRadiation)
	if err != nil {
		return RateTable{}, err
	}
	return getTyped(s, key, RateTableFrom)
}

// BeamRate returns a beam stopping, population or emission coefficient.
func (s *Store) BeamRate(key address.Key) (BeamRate, error) {
	if err := expectClass(key, address.BeamStopping, address.BeamPopulation, address.BeamEmission); err != nil {
		return BeamRate{}, err
	}
	return getTyped(s, key, BeamRateFrom)
}

// BeamStopping, BeamPopulation and BeamEmission narrow BeamRate to one
// beam class.
func (s *Store) BeamStopping(key address.Key) (BeamRate, error) {
	return s.beamClass(key, address.BeamStopping)
}

func (s *Store) BeamPopulation(key address.Key) (BeamRate, error) {
	return s.beamClass(key, address.BeamPopulation)
}

func (s *Store) BeamEmission(key address.Key) (BeamRate, error) {
	return s.beamClass(key, address.BeamEmission)
}

func (s *Store) beamClass(key address.Key, class address.Class) (BeamRate, error) {
	if err := expectClass(key, class); err != nil {
		return BeamRate{}, err
	}
	return getTyped(s, key, BeamRateFrom)
}

// BeamCX returns a charge-exchange effective emission coefficient.
func (s *Store) BeamCX(key address.Key) (CXRate, error) {
	if err := expectClass(key, address.BeamCX); err != nil {
		return CXRate{}, err
	}
	return getTyped(s, key, CXRateFrom)
}

// Wavelength returns a transition wavelength in nm.
func (s *Store) Wavelength(key address.Key) (float64, error) {
	if err := expectClass(key, address.Wavelength); err != nil {
		return 0, err
	}
	rec, err := s.Get(key)
	if err != nil {
		return 0, err
	}
	v, err := rec.Scalar(scalarWavelength)
	if err != nil {
		return 0, errors.Wrapf(err, "%s", key)
	}
	return v, nil
}

func getTyped[T any](s *Store, key address.Key, from func(Record) (T, error)) (T, error) {
	var zero T
	rec, err := s.Get(key)
	if err != nil {
		return zero, err
	}
	v, err := from(rec)
	if err != nil {
		return zero, errors.Wrapf(err, "%s", key)
	}
	return v, nil
}

func expectClass(key address.Key, classes ...address.Class) error {
	for _, c := range classes {
		if key.Class == c {
			return nil
		}
	}
	return errors.InvalidAddressf("class %q cannot be read as one of %v", key.Class, classes)
}
