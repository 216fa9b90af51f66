package filter

import (
	"github.com/simwire/simwire/internal/bus"
	"github.com/simwire/simwire/internal/bus/ops"
)

// MakeSourceFilter registers a source filter of the given built-in type
// against the target endpoint and binds a default-configured operation.
// Unrecognized types fail cleanly; they never register anything.
func MakeSourceFilter(t ops.Type, core *bus.Core, target, name string) (*SourceFilter, error) {
	op, err := ops.New(t)
	if err != nil {
		return nil, err
	}
	f, err := NewSourceFilter(core, target, name, "", "")
	if err != nil {
		return nil, err
	}
	if err := f.SetOperator(op); err != nil {
		return nil, err
	}
	return f, nil
}

// MakeDestinationFilter registers a destination filter of the given
// built-in type against the target endpoint and binds a
// default-configured operation.
func MakeDestinationFilter(t ops.Type, core *bus.Core, target, name string) (*DestinationFilter, error) {
	op, err := ops.New(t)
	if err != nil {
		return nil, err
	}
	f, err := NewDestinationFilter(core, target, name, "", "")
	if err != nil {
		return nil, err
	}
	if err := f.SetOperator(op); err != nil {
		return nil, err
	}
	return f, nil
}
