package ens

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrInvalidName = errors.New("invalid ens name")
	ErrResolution  = errors.New("ens resolution failed")
)

// InvalidNameError is returned by Normalize for names that cannot be
// canonicalized.
type InvalidNameError struct {
	Name   string
	Reason string
}

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("invalid ens name %q: %s", e.Name, e.Reason)
}

func (e *InvalidNameError) Unwrap() error {
	return ErrInvalidName
}

// ResolutionError means the name service could not be reached or answered
// with garbage. It never means "no name".
type ResolutionError struct {
	Address common.Address
	Err     error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolving %s: %s", e.Address.Hex(), e.Err)
}

func (e *ResolutionError) Unwrap() []error {
	return []error{ErrResolution, e.Err}
}
