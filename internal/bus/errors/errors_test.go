package errors

import (
	"errors"
	"testing"
)

func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{"ErrCoreRequired", ErrCoreRequired, "simwire: core is required"},
		{"ErrTargetRequired", ErrTargetRequired, "simwire: filter target endpoint is required"},
		{"ErrOperationRequired", ErrOperationRequired, "simwire: filter operation is required"},
		{"ErrUnrecognizedType", ErrUnrecognizedType, "simwire: unrecognized filter type"},
		{"ErrUnknownProperty", ErrUnknownProperty, "simwire: unknown filter property"},
		{"ErrInvalidProperty", ErrInvalidProperty, "simwire: invalid filter property value"},
		{"ErrUnknownHandle", ErrUnknownHandle, "simwire: unknown handle"},
		{"ErrUnknownFederate", ErrUnknownFederate, "simwire: unknown federate"},
		{"ErrHandleRetired", ErrHandleRetired, "simwire: handle refers to a retired record"},
		{"ErrDuplicateName", ErrDuplicateName, "simwire: name is already registered"},
		{"ErrNotAnEndpoint", ErrNotAnEndpoint, "simwire: handle does not refer to an endpoint"},
		{"ErrNotAFilter", ErrNotAFilter, "simwire: handle does not refer to a filter"},
		{"ErrCoreClosed", ErrCoreClosed, "simwire: core is shut down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestConfigValidationError(t *testing.T) {
	inner := errors.New("bad probability")
	err := &ConfigValidationError{Index: 3, Field: "dropProb", Err: inner}

	want := `simwire: filter config entry 3 field "dropProb": bad probability`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, inner) {
		t.Error("errors.Is should match the wrapped error")
	}
}
