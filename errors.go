package cygrid

import (
	"errors"
	"fmt"
)

// Sentinel errors for conditions that carry no extra context beyond the
// message itself.
var (
	ErrKernelNotSet = errors.New("cygrid: grid called before set_kernel")
)

// ShapeMismatchError reports a dimensional precondition violation among the
// sample arrays, or between a sample array and the spectral length C.
type ShapeMismatchError struct {
	Reason string
}

func NewShapeMismatchError(reason string) *ShapeMismatchError {
	return &ShapeMismatchError{Reason: reason}
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("cygrid: shape mismatch: %s", e.Reason)
}

// DtypeMismatchError reports that data and weights (or a pre-allocated
// datacube and weightscube) disagree on element type.
type DtypeMismatchError struct {
	Reason string
}

func NewDtypeMismatchError(reason string) *DtypeMismatchError {
	return &DtypeMismatchError{Reason: reason}
}

func (e *DtypeMismatchError) Error() string {
	return fmt.Sprintf("cygrid: dtype mismatch: %s", e.Reason)
}

// InvalidDtypeError reports a requested dtype string outside {float32, float64}.
type InvalidDtypeError struct {
	Dtype string
}

func NewInvalidDtypeError(dtype string) *InvalidDtypeError {
	return &InvalidDtypeError{Dtype: dtype}
}

func (e *InvalidDtypeError) Error() string {
	return fmt.Sprintf("cygrid: invalid dtype %q, expected float32 or float64", e.Dtype)
}

// UnknownKernelError reports a SetKernel call naming a kernel kind outside
// the closed registry.
type UnknownKernelError struct {
	Kind string
}

func NewUnknownKernelError(kind string) *UnknownKernelError {
	return &UnknownKernelError{Kind: kind}
}

func (e *UnknownKernelError) Error() string {
	return fmt.Sprintf("cygrid: unknown kernel kind %q", e.Kind)
}

// ArityMismatchError reports a SetKernel call whose parameter value doesn't
// match the arity (or, for the discrete kernels, the lookup-table shape)
// the named kind requires.
type ArityMismatchError struct {
	Kind   string
	Reason string
}

func NewArityMismatchError(kind string, reason string) *ArityMismatchError {
	return &ArityMismatchError{Kind: kind, Reason: reason}
}

func (e *ArityMismatchError) Error() string {
	return fmt.Sprintf("cygrid: arity mismatch for kernel %q: %s", e.Kind, e.Reason)
}

// GeometryError reports that a pre-allocated buffer's shape disagrees with
// the gridder's fixed target geometry.
type GeometryError struct {
	Reason string
}

func NewGeometryError(reason string) *GeometryError {
	return &GeometryError{Reason: reason}
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("cygrid: geometry error: %s", e.Reason)
}
