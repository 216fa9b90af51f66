package ops

import (
	"slices"
	"sync"

	errs "github.com/simwire/simwire/internal/bus/errors"
	"github.com/simwire/simwire/internal/bus/msg"
)

// CloneOperation passes the original message through untouched and emits one
// duplicate per configured delivery endpoint, each with only the destination
// rewritten. The delivery set is owned by the enclosing cloning filter; one
// CloneOperation instance may back many per-endpoint filter registrations.
type CloneOperation struct {
	mu      sync.RWMutex
	deliver []string
}

// NewCloneOperation builds a clone operation with an empty delivery set.
func NewCloneOperation() *CloneOperation {
	return &CloneOperation{}
}

func (o *CloneOperation) Type() Type { return Clone }

// AddDeliveryEndpoint adds a clone destination. Adding a name already
// present is a no-op.
func (o *CloneOperation) AddDeliveryEndpoint(endpoint string) {
	if endpoint == "" {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if !slices.Contains(o.deliver, endpoint) {
		o.deliver = append(o.deliver, endpoint)
	}
}

// RemoveDeliveryEndpoint removes a clone destination. Removing an absent
// name is a no-op.
func (o *CloneOperation) RemoveDeliveryEndpoint(endpoint string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if i := slices.Index(o.deliver, endpoint); i >= 0 {
		o.deliver = slices.Delete(o.deliver, i, i+1)
	}
}

// DeliveryEndpoints returns a snapshot of the delivery set.
func (o *CloneOperation) DeliveryEndpoints() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return slices.Clone(o.deliver)
}

func (o *CloneOperation) Process(m *msg.Message) []*msg.Message {
	o.mu.RLock()
	deliver := slices.Clone(o.deliver)
	o.mu.RUnlock()

	out := make([]*msg.Message, 0, len(deliver)+1)
	out = append(out, m)
	for _, dest := range deliver {
		c := m.Clone()
		c.Dest = dest
		out = append(out, c)
	}
	return out
}

// Set rejects all properties: the delivery set is configured through the
// cloning filter's add/remove methods, not the property sink.
func (o *CloneOperation) Set(property string, val float64) error {
	return errs.ErrUnknownProperty
}

func (o *CloneOperation) SetString(property, val string) error {
	return errs.ErrUnknownProperty
}
