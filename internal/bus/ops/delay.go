package ops

import (
	"sync"

	errs "github.com/simwire/simwire/internal/bus/errors"
	"github.com/simwire/simwire/internal/bus/msg"
)

// DelayOperation shifts a message's receive time forward by a fixed delay.
// It models constant network or processing latency; the calling goroutine is
// never blocked, only the logical timestamp changes.
type DelayOperation struct {
	mu    sync.RWMutex
	delay msg.Time
}

// NewDelayOperation builds a delay operation with the given fixed delay.
func NewDelayOperation(delay msg.Time) *DelayOperation {
	if delay < 0 {
		delay = 0
	}
	return &DelayOperation{delay: delay}
}

func (o *DelayOperation) Type() Type { return Delay }

// Delay reports the currently configured delay.
func (o *DelayOperation) Delay() msg.Time {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.delay
}

func (o *DelayOperation) Process(m *msg.Message) []*msg.Message {
	o.mu.RLock()
	d := o.delay
	o.mu.RUnlock()

	m.ReceiveTime = m.ReceiveTime.Add(d)
	return []*msg.Message{m}
}

func (o *DelayOperation) Set(property string, val float64) error {
	switch normalizeProperty(property) {
	case "delay":
		if val < 0 {
			return errs.ErrInvalidProperty
		}
		o.mu.Lock()
		o.delay = msg.TimeFromSeconds(val)
		o.mu.Unlock()
		return nil
	default:
		return errs.ErrUnknownProperty
	}
}

func (o *DelayOperation) SetString(property, val string) error {
	return errs.ErrUnknownProperty
}
