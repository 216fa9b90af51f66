package filter

import (
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/simwire/simwire/internal/bus"
	errs "github.com/simwire/simwire/internal/bus/errors"
	"github.com/simwire/simwire/internal/bus/ops"
)

// ErrCloneOperatorFixed is reported when code tries to rebind the operation
// of a cloning filter; the shared clone operation is intrinsic to the
// fan-out bookkeeping.
var ErrCloneOperatorFixed = errors.New("simwire: cloning filters own their clone operation")

// CloningFilter duplicates matching messages to a set of delivery endpoints
// without suppressing the originals. Each watched source or destination
// endpoint gets its own underlying per-endpoint registration, all sharing
// one clone operation.
type CloningFilter struct {
	core *bus.Core
	name string
	op   *ops.CloneOperation

	mu              sync.Mutex
	sourceEndpoints []string
	destEndpoints   []string
	sourceFilters   map[string]bus.Handle
	destFilters     map[string]bus.Handle
}

// NewCloningFilter builds a cloning filter on the core. It watches nothing
// until targets are added.
func NewCloningFilter(core *bus.Core, name string) (*CloningFilter, error) {
	if core == nil {
		return nil, errs.ErrCoreRequired
	}
	return &CloningFilter{
		core:          core,
		name:          name,
		op:            ops.NewCloneOperation(),
		sourceFilters: make(map[string]bus.Handle),
		destFilters:   make(map[string]bus.Handle),
	}, nil
}

// ID reports an invalid filter id: a cloning filter is a bundle of
// per-endpoint registrations, not a single record.
func (cf *CloningFilter) ID() bus.FilterID { return bus.InvalidFilterID }

// Handle reports an invalid handle; see ID.
func (cf *CloningFilter) Handle() bus.Handle { return bus.InvalidHandle }

func (cf *CloningFilter) Name() string { return cf.name }

// Target reports an empty string: a cloning filter watches many endpoints.
func (cf *CloningFilter) Target() string { return "" }

func (cf *CloningFilter) InputType() string  { return "" }
func (cf *CloningFilter) OutputType() string { return "" }

// SetOperator is rejected; the clone operation cannot be replaced.
func (cf *CloningFilter) SetOperator(op ops.Operation) error {
	return ErrCloneOperatorFixed
}

func (cf *CloningFilter) Set(property string, val float64) error {
	return errs.ErrUnknownProperty
}

// SetString accepts the add/remove properties so cloning filters remain
// configurable through the generic property sink: "add source",
// "add destination", "add delivery", and their "remove" forms.
func (cf *CloningFilter) SetString(property, val string) error {
	switch normalize(property) {
	case "source", "addsource":
		return cf.AddSourceTarget(val)
	case "destination", "adddestination":
		return cf.AddDestinationTarget(val)
	case "delivery", "adddelivery", "adddeliveryendpoint":
		cf.AddDeliveryEndpoint(val)
		return nil
	case "removesource":
		return cf.RemoveSourceTarget(val)
	case "removedestination":
		return cf.RemoveDestinationTarget(val)
	case "removedelivery", "removedeliveryendpoint":
		cf.RemoveDeliveryEndpoint(val)
		return nil
	default:
		return errs.ErrUnknownProperty
	}
}

// AddSourceTarget watches an endpoint by name on its source side. Adding a
// name already watched is a no-op.
func (cf *CloningFilter) AddSourceTarget(sourceName string) error {
	if sourceName == "" {
		return errs.ErrTargetRequired
	}
	cf.mu.Lock()
	defer cf.mu.Unlock()
	if slices.Contains(cf.sourceEndpoints, sourceName) {
		return nil
	}
	_, handle, err := cf.core.RegisterFilter(bus.FilterRegistration{
		Target:    sourceName,
		Cloning:   true,
		Operation: cf.op,
	})
	if err != nil {
		return err
	}
	cf.sourceEndpoints = append(cf.sourceEndpoints, sourceName)
	cf.sourceFilters[sourceName] = handle
	return nil
}

// AddDestinationTarget watches an endpoint by name on its destination side.
// Adding a name already watched is a no-op. A name may be watched as a
// source and as a destination at the same time; each side has its own
// underlying registration.
func (cf *CloningFilter) AddDestinationTarget(destinationName string) error {
	if destinationName == "" {
		return errs.ErrTargetRequired
	}
	cf.mu.Lock()
	defer cf.mu.Unlock()
	if slices.Contains(cf.destEndpoints, destinationName) {
		return nil
	}
	_, handle, err := cf.core.RegisterFilter(bus.FilterRegistration{
		Target:     destinationName,
		DestFilter: true,
		Cloning:    true,
		Operation:  cf.op,
	})
	if err != nil {
		return err
	}
	cf.destEndpoints = append(cf.destEndpoints, destinationName)
	cf.destFilters[destinationName] = handle
	return nil
}

// AddDeliveryEndpoint adds an endpoint name duplicates are delivered to.
// Idempotent.
func (cf *CloningFilter) AddDeliveryEndpoint(endpoint string) {
	cf.op.AddDeliveryEndpoint(endpoint)
}

// RemoveSourceTarget stops watching an endpoint's source side. Removing an
// absent name is a no-op.
func (cf *CloningFilter) RemoveSourceTarget(sourceName string) error {
	cf.mu.Lock()
	defer cf.mu.Unlock()
	i := slices.Index(cf.sourceEndpoints, sourceName)
	if i < 0 {
		return nil
	}
	handle := cf.sourceFilters[sourceName]
	if err := cf.core.RemoveFilter(handle); err != nil {
		return err
	}
	cf.sourceEndpoints = slices.Delete(cf.sourceEndpoints, i, i+1)
	delete(cf.sourceFilters, sourceName)
	return nil
}

// RemoveDestinationTarget stops watching an endpoint's destination side.
// Removing an absent name is a no-op.
func (cf *CloningFilter) RemoveDestinationTarget(destinationName string) error {
	cf.mu.Lock()
	defer cf.mu.Unlock()
	i := slices.Index(cf.destEndpoints, destinationName)
	if i < 0 {
		return nil
	}
	handle := cf.destFilters[destinationName]
	if err := cf.core.RemoveFilter(handle); err != nil {
		return err
	}
	cf.destEndpoints = slices.Delete(cf.destEndpoints, i, i+1)
	delete(cf.destFilters, destinationName)
	return nil
}

// RemoveDeliveryEndpoint removes a delivery endpoint. Idempotent.
func (cf *CloningFilter) RemoveDeliveryEndpoint(endpoint string) {
	cf.op.RemoveDeliveryEndpoint(endpoint)
}

// SourceTargets returns a snapshot of the watched source endpoint names.
func (cf *CloningFilter) SourceTargets() []string {
	cf.mu.Lock()
	defer cf.mu.Unlock()
	return slices.Clone(cf.sourceEndpoints)
}

// DestinationTargets returns a snapshot of the watched destination endpoint
// names.
func (cf *CloningFilter) DestinationTargets() []string {
	cf.mu.Lock()
	defer cf.mu.Unlock()
	return slices.Clone(cf.destEndpoints)
}

// DeliveryEndpoints returns a snapshot of the delivery endpoint names.
func (cf *CloningFilter) DeliveryEndpoints() []string {
	return cf.op.DeliveryEndpoints()
}

func normalize(property string) string {
	normalized := strings.ToLower(property)
	return strings.NewReplacer("_", "", "-", "", " ", "").Replace(normalized)
}
