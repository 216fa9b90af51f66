package bus

import (
	"github.com/simwire/simwire/internal/bus/ops"
)

// Handle is a core-local integer identifying one registered interface point
// (endpoint or filter). Handles are unique for the lifetime of a core and
// never reused.
type Handle int32

// FilterID is the federate-facing identifier of a filter, numbered
// independently from handles.
type FilterID int32

// FederateID identifies a federate joined to a core. It is unresolved until
// the federate has registered.
type FederateID int32

// BrokerID identifies a core or sub-broker within a federation.
type BrokerID int32

const (
	InvalidHandle     Handle     = -1
	InvalidFilterID   FilterID   = -1
	InvalidFederateID FederateID = -1
	InvalidBrokerID   BrokerID   = -1
)

// IsValid reports whether the handle refers to an allocated interface.
func (h Handle) IsValid() bool { return h >= 0 }

// IsValid reports whether the filter id was assigned by a core.
func (f FilterID) IsValid() bool { return f >= 0 }

// IsValid reports whether the federate id has been resolved.
func (f FederateID) IsValid() bool { return f >= 0 }

// IsValid reports whether the broker id has been assigned.
func (b BrokerID) IsValid() bool { return b >= 0 }

// TargetResolution is the two-state resolved-target field of a filter
// record. Either both fields are valid or the record is unresolved; there is
// no partially resolved state.
type TargetResolution struct {
	Resolved bool
	Federate FederateID
	Endpoint Handle
}

// filterRecord is the core-owned routing record binding a filter
// registration to its declared and resolved target identity and its bound
// operation. The identity fields are written once at registration; op,
// target, and retired are guarded by the core's registry lock.
type filterRecord struct {
	coreID BrokerID
	handle Handle
	fid    FilterID

	name       string
	target     string
	inputType  string
	outputType string
	destFilter bool
	cloning    bool

	op      ops.Operation
	resolve TargetResolution
	retired bool
}

// FilterSummary is the diagnostic view of a routing record exposed to
// application code.
type FilterSummary struct {
	Handle     Handle
	ID         FilterID
	Name       string
	Target     string
	InputType  string
	OutputType string
	DestFilter bool
	Cloning    bool
	Operation  string
	Resolution TargetResolution
}

func (r *filterRecord) summary() FilterSummary {
	s := FilterSummary{
		Handle:     r.handle,
		ID:         r.fid,
		Name:       r.name,
		Target:     r.target,
		InputType:  r.inputType,
		OutputType: r.outputType,
		DestFilter: r.destFilter,
		Cloning:    r.cloning,
		Resolution: r.resolve,
	}
	if r.op != nil {
		s.Operation = r.op.Type().String()
	}
	return s
}
