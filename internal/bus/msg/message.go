package msg

import (
	"time"
)

// Time is a logical simulation timestamp. It is not wall-clock time; the
// surrounding time-coordination layer decides what a tick means. Internally
// it counts nanoseconds so arithmetic with time.Duration stays free.
type Time int64

// TimeZero is the start of simulation time.
const TimeZero Time = 0

// TimeFromSeconds converts a floating point seconds value (the unit used by
// filter properties) into a Time.
func TimeFromSeconds(sec float64) Time {
	return Time(sec * float64(time.Second))
}

// Seconds returns the timestamp as floating point seconds.
func (t Time) Seconds() float64 {
	return float64(t) / float64(time.Second)
}

// Duration returns the timestamp as a time.Duration offset from TimeZero.
func (t Time) Duration() time.Duration {
	return time.Duration(t)
}

// Add shifts the timestamp by d. Filters use this to model latency.
func (t Time) Add(d Time) Time {
	return t + d
}

// Message is a single unit of traffic between two endpoints. Source and Dest
// are endpoint names; OrigSource and OrigDest record the addressing before
// any filter rewrote it, so a rerouted or cloned message stays traceable.
type Message struct {
	UUID string

	Source     string
	Dest       string
	OrigSource string
	OrigDest   string

	Payload []byte

	SendTime    Time
	ReceiveTime Time
}

// Clone returns a deep copy of the message. Filter operations that rewrite
// fields work on copies so a failed transform never leaves the original
// half-modified.
func (m *Message) Clone() *Message {
	if m == nil {
		return nil
	}
	c := *m
	if m.Payload != nil {
		c.Payload = make([]byte, len(m.Payload))
		copy(c.Payload, m.Payload)
	}
	return &c
}
