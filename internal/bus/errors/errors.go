package errors

import (
	sterrors "errors"
	"fmt"
)

var (
	ErrCoreRequired      = sterrors.New("simwire: core is required")
	ErrTargetRequired    = sterrors.New("simwire: filter target endpoint is required")
	ErrOperationRequired = sterrors.New("simwire: filter operation is required")

	ErrUnrecognizedType = sterrors.New("simwire: unrecognized filter type")
	ErrUnknownProperty  = sterrors.New("simwire: unknown filter property")
	ErrInvalidProperty  = sterrors.New("simwire: invalid filter property value")

	ErrUnknownHandle   = sterrors.New("simwire: unknown handle")
	ErrUnknownFederate = sterrors.New("simwire: unknown federate")
	ErrHandleRetired   = sterrors.New("simwire: handle refers to a retired record")
	ErrDuplicateName   = sterrors.New("simwire: name is already registered")
	ErrNotAnEndpoint   = sterrors.New("simwire: handle does not refer to an endpoint")
	ErrNotAFilter      = sterrors.New("simwire: handle does not refer to a filter")
	ErrCoreClosed      = sterrors.New("simwire: core is shut down")
)

// ConfigValidationError reports a rejected filter configuration entry with
// enough position information to fix the document.
type ConfigValidationError struct {
	Index int
	Field string
	Err   error
}

func (e *ConfigValidationError) Error() string {
	return fmt.Sprintf("simwire: filter config entry %d field %q: %v", e.Index, e.Field, e.Err)
}

func (e *ConfigValidationError) Unwrap() error { return e.Err }
