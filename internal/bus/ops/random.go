package ops

import (
	"math/rand"
	"sync"

	errs "github.com/simwire/simwire/internal/bus/errors"
	"github.com/simwire/simwire/internal/bus/msg"
)

// Distribution selects the family a RandomDelayOperation draws from.
type Distribution int

const (
	// DistConstant always delays by exactly Param1.
	DistConstant Distribution = iota
	// DistUniform draws uniformly from [Min, Max].
	DistUniform
	// DistExponential draws from an exponential distribution with the
	// configured mean.
	DistExponential
	// DistNormal draws from a normal distribution with the configured mean
	// and standard deviation, clamped at zero.
	DistNormal
)

// ParseDistribution maps a distribution name onto a Distribution. Unknown
// names report false.
func ParseDistribution(name string) (Distribution, bool) {
	switch normalizeProperty(name) {
	case "constant", "fixed":
		return DistConstant, true
	case "uniform":
		return DistUniform, true
	case "exponential":
		return DistExponential, true
	case "normal", "gaussian":
		return DistNormal, true
	default:
		return 0, false
	}
}

// RandomDelayOperation shifts each message's receive time by a value drawn
// fresh per message from the configured distribution.
type RandomDelayOperation struct {
	mu     sync.RWMutex
	dist   Distribution
	min    float64 // seconds; also the constant value and the normal mean
	max    float64 // seconds
	mean   float64 // seconds, exponential and normal
	stddev float64 // seconds, normal only
}

// NewRandomDelayOperation builds a random delay operation. The default
// distribution is constant zero, so an unconfigured operation passes
// messages through with unchanged timestamps.
func NewRandomDelayOperation() *RandomDelayOperation {
	return &RandomDelayOperation{dist: DistConstant}
}

func (o *RandomDelayOperation) Type() Type { return RandomDelay }

func (o *RandomDelayOperation) Process(m *msg.Message) []*msg.Message {
	o.mu.RLock()
	dist, min, max, mean, stddev := o.dist, o.min, o.max, o.mean, o.stddev
	o.mu.RUnlock()

	var delay float64
	switch dist {
	case DistUniform:
		delay = min + rand.Float64()*(max-min)
	case DistExponential:
		delay = rand.ExpFloat64() * mean
	case DistNormal:
		delay = rand.NormFloat64()*stddev + mean
	default:
		delay = min
	}
	if delay < 0 {
		delay = 0
	}

	m.ReceiveTime = m.ReceiveTime.Add(msg.TimeFromSeconds(delay))
	return []*msg.Message{m}
}

func (o *RandomDelayOperation) Set(property string, val float64) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch normalizeProperty(property) {
	case "min", "value", "param1":
		if val < 0 {
			return errs.ErrInvalidProperty
		}
		o.min = val
	case "max", "param2":
		if val < 0 {
			return errs.ErrInvalidProperty
		}
		o.max = val
	case "mean":
		if val < 0 {
			return errs.ErrInvalidProperty
		}
		o.mean = val
	case "stddev", "stdev":
		if val < 0 {
			return errs.ErrInvalidProperty
		}
		o.stddev = val
	default:
		return errs.ErrUnknownProperty
	}
	return nil
}

func (o *RandomDelayOperation) SetString(property, val string) error {
	switch normalizeProperty(property) {
	case "distribution", "dist":
		dist, ok := ParseDistribution(val)
		if !ok {
			return errs.ErrInvalidProperty
		}
		o.mu.Lock()
		o.dist = dist
		o.mu.Unlock()
		return nil
	default:
		return errs.ErrUnknownProperty
	}
}

// RandomDropOperation discards each message with the configured probability
// and otherwise passes it through unmodified. It models lossy transports.
type RandomDropOperation struct {
	mu   sync.RWMutex
	prob float64
}

// NewRandomDropOperation builds a drop operation. Probabilities outside
// [0, 1] are clamped into range.
func NewRandomDropOperation(prob float64) *RandomDropOperation {
	if prob < 0 {
		prob = 0
	}
	if prob > 1 {
		prob = 1
	}
	return &RandomDropOperation{prob: prob}
}

func (o *RandomDropOperation) Type() Type { return RandomDrop }

// DropProbability reports the currently configured drop probability.
func (o *RandomDropOperation) DropProbability() float64 {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.prob
}

func (o *RandomDropOperation) Process(m *msg.Message) []*msg.Message {
	o.mu.RLock()
	prob := o.prob
	o.mu.RUnlock()

	// Float64 draws from [0, 1), so prob == 1 always drops and prob == 0
	// never does.
	if rand.Float64() < prob {
		return nil
	}
	return []*msg.Message{m}
}

func (o *RandomDropOperation) Set(property string, val float64) error {
	switch normalizeProperty(property) {
	case "dropprob", "prob", "probability":
		if val < 0 || val > 1 {
			return errs.ErrInvalidProperty
		}
		o.mu.Lock()
		o.prob = val
		o.mu.Unlock()
		return nil
	default:
		return errs.ErrUnknownProperty
	}
}

func (o *RandomDropOperation) SetString(property, val string) error {
	return errs.ErrUnknownProperty
}
