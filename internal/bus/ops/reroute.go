package ops

import (
	"sync"

	errs "github.com/simwire/simwire/internal/bus/errors"
	"github.com/simwire/simwire/internal/bus/msg"
)

// RerouteOperation rewrites a message's destination endpoint to a configured
// target. The original destination stays visible through OrigDest.
type RerouteOperation struct {
	mu      sync.RWMutex
	newDest string
}

// NewRerouteOperation builds a reroute operation pointed at newDest. An
// empty target leaves messages untouched until one is configured.
func NewRerouteOperation(newDest string) *RerouteOperation {
	return &RerouteOperation{newDest: newDest}
}

func (o *RerouteOperation) Type() Type { return Reroute }

// Target reports the destination endpoint messages are rerouted to.
func (o *RerouteOperation) Target() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.newDest
}

func (o *RerouteOperation) Process(m *msg.Message) []*msg.Message {
	o.mu.RLock()
	dest := o.newDest
	o.mu.RUnlock()

	if dest != "" {
		m.Dest = dest
	}
	return []*msg.Message{m}
}

func (o *RerouteOperation) Set(property string, val float64) error {
	return errs.ErrUnknownProperty
}

func (o *RerouteOperation) SetString(property, val string) error {
	switch normalizeProperty(property) {
	case "newdestination", "target", "destination":
		if val == "" {
			return errs.ErrInvalidProperty
		}
		o.mu.Lock()
		o.newDest = val
		o.mu.Unlock()
		return nil
	default:
		return errs.ErrUnknownProperty
	}
}
