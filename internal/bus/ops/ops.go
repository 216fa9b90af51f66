// Package ops implements the built-in filter operations of the message bus.
//
// An Operation consumes one in-flight message and yields zero, one, or many
// outgoing messages. Operations carry their own small parameter state,
// configured through the generic Set/SetString property sinks. All built-in
// operations are safe for concurrent Process calls; property writers take a
// short exclusive lock over the parameters only.
package ops

import (
	"strings"

	errs "github.com/simwire/simwire/internal/bus/errors"
	"github.com/simwire/simwire/internal/bus/msg"
)

// Type enumerates the defined filter operation kinds.
type Type int

const (
	Custom Type = iota
	Delay
	RandomDelay
	RandomDrop
	Reroute
	Clone
	Unrecognized
)

func (t Type) String() string {
	switch t {
	case Custom:
		return "custom"
	case Delay:
		return "delay"
	case RandomDelay:
		return "randomDelay"
	case RandomDrop:
		return "randomDrop"
	case Reroute:
		return "reroute"
	case Clone:
		return "clone"
	default:
		return "unrecognized"
	}
}

// ParseType maps a filter type name onto a Type. Matching is case- and
// form-insensitive ("random_delay", "RandomDelay", and "random delay" are
// equivalent). Unknown names map to Unrecognized, never to an error, so
// configuration loaders can report the problem themselves.
func ParseType(name string) Type {
	normalized := strings.ToLower(name)
	normalized = strings.NewReplacer("_", "", "-", "", " ", "").Replace(normalized)

	switch normalized {
	case "custom":
		return Custom
	case "delay":
		return Delay
	case "randomdelay", "timedelay":
		return RandomDelay
	case "randomdrop", "drop", "randomloss":
		return RandomDrop
	case "reroute", "redirect":
		return Reroute
	case "clone", "cloning", "copy":
		return Clone
	default:
		return Unrecognized
	}
}

// Operation is a polymorphic unit of filtering behaviour. Process must be
// safe to call concurrently; it receives a private copy of the in-flight
// message and may modify or discard it.
type Operation interface {
	// Type reports the operation kind.
	Type() Type
	// Process transforms one message into zero or more outgoing messages.
	Process(m *msg.Message) []*msg.Message
	// Set configures a numeric property. Unknown property names are
	// rejected with ErrUnknownProperty; invalid values with
	// ErrInvalidProperty, leaving the previous value in place.
	Set(property string, val float64) error
	// SetString configures a string property under the same contract.
	SetString(property, val string) error
}

// New constructs an operation of the given type with default parameters.
// Custom operations carry user logic and must be built through
// NewCustomOperation instead.
func New(t Type) (Operation, error) {
	switch t {
	case Delay:
		return NewDelayOperation(0), nil
	case RandomDelay:
		return NewRandomDelayOperation(), nil
	case RandomDrop:
		return NewRandomDropOperation(0), nil
	case Reroute:
		return NewRerouteOperation(""), nil
	case Clone:
		return NewCloneOperation(), nil
	case Custom:
		return nil, errs.ErrOperationRequired
	default:
		return nil, errs.ErrUnrecognizedType
	}
}

func normalizeProperty(property string) string {
	normalized := strings.ToLower(property)
	return strings.NewReplacer("_", "", "-", "", " ", "").Replace(normalized)
}
