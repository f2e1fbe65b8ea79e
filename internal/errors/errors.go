// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package errors provides error handling for openadas.
//
// It re-exports github.com/cockroachdb/errors and defines the sentinel
// conditions raised by the decoders and the repository. Concrete failures
// wrap a sentinel so callers can branch with errors.Is while the message
// keeps the file path, line and address needed to reproduce the failure.
//
//	if errors.Is(err, errors.ErrNotFound) {
//	    // data not installed, fall back
//	}
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	Mark         = crdb.Mark
	Join         = crdb.Join
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is             = crdb.Is
	IsAny          = crdb.IsAny
	As             = crdb.As
	Unwrap         = crdb.Unwrap
	UnwrapAll      = crdb.UnwrapAll
	GetAllHints    = crdb.GetAllHints
	GetAllDetails  = crdb.GetAllDetails
	FlattenDetails = crdb.FlattenDetails
)

// Sentinel conditions. Fatal ones stop the operation that raised them;
// ErrNotFound is recoverable and the caller decides the fallback.
var (
	// ErrMalformedRecord indicates a fixed-field parse failure or a table
	// whose size disagrees with its declared axes.
	ErrMalformedRecord = New("malformed record")

	// ErrSchemaMismatch indicates a file header naming a different species
	// or charge than the one requested.
	ErrSchemaMismatch = New("schema mismatch")

	// ErrUnsupportedRateClass indicates an unrecognised rate-class label in
	// a multi-record file. It is fatal for the affected record only.
	ErrUnsupportedRateClass = New("unsupported rate class")

	// ErrInvalidAddress indicates a physically impossible repository key.
	ErrInvalidAddress = New("invalid address")

	// ErrShapeMismatch indicates axis and table sizes that do not agree.
	ErrShapeMismatch = New("shape mismatch")

	// ErrNotFound indicates the requested block, file or key is absent.
	ErrNotFound = New("not found")
)

// Malformedf returns an error marked as ErrMalformedRecord.
func Malformedf(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrMalformedRecord)
}

// SchemaMismatchf returns an error marked as ErrSchemaMismatch.
func SchemaMismatchf(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrSchemaMismatch)
}

// UnsupportedRateClassf returns an error marked as ErrUnsupportedRateClass.
func UnsupportedRateClassf(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrUnsupportedRateClass)
}

// InvalidAddressf returns an error marked as ErrInvalidAddress.
func InvalidAddressf(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrInvalidAddress)
}

// ShapeMismatchf returns an error marked as ErrShapeMismatch.
func ShapeMismatchf(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrShapeMismatch)
}

// NotFoundf returns an error marked as ErrNotFound.
func NotFoundf(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrNotFound)
}

// IsFatal reports whether err carries one of the fatal taxonomy sentinels.
func IsFatal(err error) bool {
	return err != nil && IsAny(err,
		ErrMalformedRecord, ErrSchemaMismatch, ErrUnsupportedRateClass,
		ErrInvalidAddress, ErrShapeMismatch)
}
