package blobcontainer

import (
	"errors"
	"fmt"
)

// Failure kinds. Every error returned by Get is a *GetError whose Kind is one
// of these (or nil when the caller's context ended), so errors.Is works on
// the kind as well as on the underlying cause.
var (
	ErrInvalidName          = errors.New("blobcontainer: invalid container name")
	ErrConfigurationMissing = errors.New("blobcontainer: configuration missing")
	ErrTransportUnavailable = errors.New("blobcontainer: transport unavailable")
	ErrRemoteCall           = errors.New("blobcontainer: remote call failed")
	ErrClosed               = errors.New("blobcontainer: closed")
)

type GetError struct {
	Container string
	Op        string // "validate", "transport", "config", "dial", "exists", "create", "get"
	Kind      error
	Err       error
}

func (e *GetError) Error() string {
	switch {
	case e.Err != nil && e.Kind != nil:
		return fmt.Sprintf("blobcontainer: get %q: %s: %v: %v", e.Container, e.Op, e.Kind, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("blobcontainer: get %q: %s: %v", e.Container, e.Op, e.Err)
	case e.Kind != nil:
		return fmt.Sprintf("blobcontainer: get %q: %s: %v", e.Container, e.Op, e.Kind)
	default:
		return fmt.Sprintf("blobcontainer: get %q: %s failed", e.Container, e.Op)
	}
}

func (e *GetError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}
