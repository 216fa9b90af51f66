package ops

import (
	"errors"
	"testing"

	errs "github.com/simwire/simwire/internal/bus/errors"
	"github.com/simwire/simwire/internal/bus/msg"
)

func TestDelayOperation(t *testing.T) {
	t.Run("shifts receive time by the configured delay", func(t *testing.T) {
		op := NewDelayOperation(msg.TimeFromSeconds(1.5))
		m := &msg.Message{SendTime: msg.TimeFromSeconds(2), ReceiveTime: msg.TimeFromSeconds(2)}

		out := op.Process(m)
		if len(out) != 1 {
			t.Fatalf("expected one output message, got %d", len(out))
		}
		if got, want := out[0].ReceiveTime, msg.TimeFromSeconds(3.5); got != want {
			t.Errorf("ReceiveTime = %v, want %v", got, want)
		}
		if out[0].SendTime != msg.TimeFromSeconds(2) {
			t.Errorf("SendTime changed to %v", out[0].SendTime)
		}
	})

	t.Run("negative construction delay is clamped to zero", func(t *testing.T) {
		op := NewDelayOperation(-5)
		if op.Delay() != 0 {
			t.Errorf("Delay() = %v, want 0", op.Delay())
		}
	})

	t.Run("set delay in seconds", func(t *testing.T) {
		op := NewDelayOperation(0)
		if err := op.Set("delay", 0.25); err != nil {
			t.Fatalf("Set(delay) returned error: %v", err)
		}
		if got, want := op.Delay(), msg.TimeFromSeconds(0.25); got != want {
			t.Errorf("Delay() = %v, want %v", got, want)
		}
	})

	t.Run("property name forms are normalized", func(t *testing.T) {
		op := NewDelayOperation(0)
		if err := op.Set("DELAY", 1); err != nil {
			t.Errorf("Set(DELAY) returned error: %v", err)
		}
	})

	t.Run("negative delay value keeps the previous state", func(t *testing.T) {
		op := NewDelayOperation(msg.TimeFromSeconds(1))
		err := op.Set("delay", -2)
		if !errors.Is(err, errs.ErrInvalidProperty) {
			t.Fatalf("Set(delay, -2) error = %v, want ErrInvalidProperty", err)
		}
		if got, want := op.Delay(), msg.TimeFromSeconds(1); got != want {
			t.Errorf("Delay() = %v after failed set, want %v", got, want)
		}
	})

	t.Run("unknown properties are rejected", func(t *testing.T) {
		op := NewDelayOperation(0)
		if err := op.Set("jitter", 1); !errors.Is(err, errs.ErrUnknownProperty) {
			t.Errorf("Set(jitter) error = %v, want ErrUnknownProperty", err)
		}
		if err := op.SetString("delay", "1"); !errors.Is(err, errs.ErrUnknownProperty) {
			t.Errorf("SetString(delay) error = %v, want ErrUnknownProperty", err)
		}
	})
}
