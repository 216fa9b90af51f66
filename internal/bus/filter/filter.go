// Package filter is the federate-facing surface for interposing message
// filters on bus endpoints. A filter handle is a view onto a core-owned
// routing record: copying or dropping the handle never deregisters the
// filter, so an interposed operation keeps working for the rest of the
// simulation even if the code that created it returns.
package filter

import (
	"github.com/simwire/simwire/internal/bus"
	errs "github.com/simwire/simwire/internal/bus/errors"
	"github.com/simwire/simwire/internal/bus/ops"
)

// Filter is the capability shared by all filter variants. Accessors read
// through to the core's authoritative routing record, so they stay correct
// when the core fills in auto-generated names.
type Filter interface {
	// ID is the federate-facing filter identifier.
	ID() bus.FilterID
	// Handle is the underlying core handle.
	Handle() bus.Handle
	// Name reports the filter's registered name.
	Name() string
	// Target reports the declared target endpoint name.
	Target() string
	// InputType reports the declared input type tag.
	InputType() string
	// OutputType reports the declared output type tag.
	OutputType() string
	// SetOperator rebinds the filter's operation. In-flight messages finish
	// against the old operation; only calls starting after the swap see the
	// new one.
	SetOperator(op ops.Operation) error
	// Set configures a numeric property on the bound operation.
	Set(property string, val float64) error
	// SetString configures a string property on the bound operation.
	SetString(property, val string) error
}

type baseFilter struct {
	core   *bus.Core
	fid    bus.FilterID
	handle bus.Handle
	op     ops.Operation
}

func newBaseFilter(core *bus.Core, target, name, inputType, outputType string, dest bool) (baseFilter, error) {
	if core == nil {
		return baseFilter{}, errs.ErrCoreRequired
	}
	fid, handle, err := core.RegisterFilter(bus.FilterRegistration{
		Name:       name,
		Target:     target,
		InputType:  inputType,
		OutputType: outputType,
		DestFilter: dest,
	})
	if err != nil {
		return baseFilter{}, err
	}
	return baseFilter{core: core, fid: fid, handle: handle}, nil
}

func (f *baseFilter) ID() bus.FilterID { return f.fid }
func (f *baseFilter) Handle() bus.Handle { return f.handle }

func (f *baseFilter) Name() string {
	name, _ := f.core.FilterName(f.handle)
	return name
}

func (f *baseFilter) Target() string {
	target, _ := f.core.FilterTarget(f.handle)
	return target
}

func (f *baseFilter) InputType() string {
	t, _ := f.core.FilterInputType(f.handle)
	return t
}

func (f *baseFilter) OutputType() string {
	t, _ := f.core.FilterOutputType(f.handle)
	return t
}

func (f *baseFilter) SetOperator(op ops.Operation) error {
	if op == nil {
		return errs.ErrOperationRequired
	}
	if err := f.core.SetOperator(f.handle, op); err != nil {
		return err
	}
	f.op = op
	return nil
}

func (f *baseFilter) Set(property string, val float64) error {
	if f.op == nil {
		return errs.ErrOperationRequired
	}
	return f.op.Set(property, val)
}

func (f *baseFilter) SetString(property, val string) error {
	if f.op == nil {
		return errs.ErrOperationRequired
	}
	return f.op.SetString(property, val)
}

// Summary returns the core's diagnostic view of the filter, including
// whether its target endpoint has resolved yet.
func (f *baseFilter) Summary() (bus.FilterSummary, error) {
	return f.core.FilterSummary(f.handle)
}

// SourceFilter intercepts messages as they leave its target endpoint,
// before any network send.
type SourceFilter struct {
	baseFilter
}

// NewSourceFilter registers a source-side filter against the target
// endpoint. The endpoint may not exist yet; the filter stays inert until it
// does. Name and the type tags may be empty.
func NewSourceFilter(core *bus.Core, target, name, inputType, outputType string) (*SourceFilter, error) {
	base, err := newBaseFilter(core, target, name, inputType, outputType, false)
	if err != nil {
		return nil, err
	}
	return &SourceFilter{baseFilter: base}, nil
}

// DestinationFilter intercepts messages after network receive, before they
// reach the target endpoint's inbox.
type DestinationFilter struct {
	baseFilter
}

// NewDestinationFilter registers a destination-side filter against the
// target endpoint.
func NewDestinationFilter(core *bus.Core, target, name, inputType, outputType string) (*DestinationFilter, error) {
	base, err := newBaseFilter(core, target, name, inputType, outputType, true)
	if err != nil {
		return nil, err
	}
	return &DestinationFilter{baseFilter: base}, nil
}
