package ops

import (
	errs "github.com/simwire/simwire/internal/bus/errors"
	"github.com/simwire/simwire/internal/bus/msg"
)

// TransformFunc is the user-supplied body of a custom operation.
type TransformFunc func(m *msg.Message) []*msg.Message

// CustomOperation delegates entirely to injected callables. Property sinks
// without a handler reject unknown names like the built-in operations do.
type CustomOperation struct {
	transform TransformFunc
	set       func(property string, val float64) error
	setString func(property, val string) error
}

// CustomOption configures optional behaviour of a custom operation.
type CustomOption func(*CustomOperation)

// WithSetHandler installs a numeric property handler.
func WithSetHandler(fn func(property string, val float64) error) CustomOption {
	return func(o *CustomOperation) { o.set = fn }
}

// WithSetStringHandler installs a string property handler.
func WithSetStringHandler(fn func(property, val string) error) CustomOption {
	return func(o *CustomOperation) { o.setString = fn }
}

// NewCustomOperation builds an operation around the given transform.
func NewCustomOperation(transform TransformFunc, opts ...CustomOption) (*CustomOperation, error) {
	if transform == nil {
		return nil, errs.ErrOperationRequired
	}
	o := &CustomOperation{transform: transform}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

func (o *CustomOperation) Type() Type { return Custom }

func (o *CustomOperation) Process(m *msg.Message) []*msg.Message {
	return o.transform(m)
}

func (o *CustomOperation) Set(property string, val float64) error {
	if o.set == nil {
		return errs.ErrUnknownProperty
	}
	return o.set(property, val)
}

func (o *CustomOperation) SetString(property, val string) error {
	if o.setString == nil {
		return errs.ErrUnknownProperty
	}
	return o.setString(property, val)
}
