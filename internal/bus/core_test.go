package bus

import (
	"context"
	"errors"
	"strings"
	"testing"

	configpkg "github.com/simwire/simwire/internal/bus/config"
	errs "github.com/simwire/simwire/internal/bus/errors"
	"github.com/simwire/simwire/internal/bus/msg"
	"github.com/simwire/simwire/internal/bus/ops"
)

// newTestCore builds a core without a delivery plane; everything routes
// between local endpoints.
func newTestCore(t *testing.T) *Core {
	t.Helper()
	c, err := TryNewCore(context.Background(), &configpkg.Config{CoreName: "test_core"}, nil, CoreDependencies{DisableTransport: true})
	if err != nil {
		t.Fatalf("TryNewCore: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// registerEndpoint is shorthand for the federate plus endpoint dance.
func registerEndpoint(t *testing.T, c *Core, name string) Handle {
	t.Helper()
	fed, err := c.RegisterFederate("fed_" + name)
	if err != nil {
		t.Fatalf("RegisterFederate: %v", err)
	}
	h, err := c.RegisterEndpoint(fed, name, "")
	if err != nil {
		t.Fatalf("RegisterEndpoint(%q): %v", name, err)
	}
	return h
}

func receiveOne(t *testing.T, c *Core, h Handle) *msg.Message {
	t.Helper()
	m, err := c.Receive(h)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if m == nil {
		t.Fatal("expected a pending message")
	}
	return m
}

func TestTryNewCore(t *testing.T) {
	t.Run("rejects invalid config", func(t *testing.T) {
		conf := &configpkg.Config{Transport: "carrier_pigeon"}
		if _, err := TryNewCore(context.Background(), conf, nil, CoreDependencies{DisableTransport: true}); err == nil {
			t.Fatal("expected config validation error")
		}
	})

	t.Run("generates a core name when empty", func(t *testing.T) {
		c, err := TryNewCore(context.Background(), &configpkg.Config{}, nil, CoreDependencies{DisableTransport: true})
		if err != nil {
			t.Fatalf("TryNewCore: %v", err)
		}
		defer c.Close()
		if !strings.HasPrefix(c.Name(), "core_") {
			t.Errorf("Name() = %q, want generated core_ prefix", c.Name())
		}
		if !c.ID().IsValid() {
			t.Errorf("ID() = %v, want valid", c.ID())
		}
	})
}

func TestNewCorePanicsOnBadConfig(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic from NewCore with invalid config")
		}
	}()
	NewCore(context.Background(), &configpkg.Config{Transport: "bogus"}, nil, CoreDependencies{DisableTransport: true})
}

func TestLogicalClock(t *testing.T) {
	c := newTestCore(t)
	if c.CurrentTime() != msg.TimeZero {
		t.Errorf("fresh core time = %v", c.CurrentTime())
	}
	c.SetTime(msg.TimeFromSeconds(5))
	if got := c.CurrentTime(); got != msg.TimeFromSeconds(5) {
		t.Errorf("CurrentTime() = %v", got)
	}
}

func TestEndpointRegistration(t *testing.T) {
	c := newTestCore(t)

	t.Run("unknown federate is rejected", func(t *testing.T) {
		if _, err := c.RegisterEndpoint(FederateID(99), "ep", ""); !errors.Is(err, errs.ErrUnknownFederate) {
			t.Errorf("error = %v, want ErrUnknownFederate", err)
		}
	})

	t.Run("duplicate names are rejected", func(t *testing.T) {
		fed, _ := c.RegisterFederate("fedA")
		if _, err := c.RegisterEndpoint(fed, "dup", ""); err != nil {
			t.Fatalf("first RegisterEndpoint: %v", err)
		}
		if _, err := c.RegisterEndpoint(fed, "dup", ""); !errors.Is(err, errs.ErrDuplicateName) {
			t.Errorf("error = %v, want ErrDuplicateName", err)
		}
	})

	t.Run("empty names are auto-generated", func(t *testing.T) {
		fed, _ := c.RegisterFederate("fedB")
		h, err := c.RegisterEndpoint(fed, "", "")
		if err != nil {
			t.Fatalf("RegisterEndpoint: %v", err)
		}
		if !h.IsValid() {
			t.Fatalf("handle %v invalid", h)
		}
	})

	t.Run("lookup by name round-trips", func(t *testing.T) {
		h := registerEndpoint(t, c, "lookup_me")
		got, err := c.EndpointHandle("lookup_me")
		if err != nil {
			t.Fatalf("EndpointHandle: %v", err)
		}
		if got != h {
			t.Errorf("EndpointHandle = %v, want %v", got, h)
		}
	})
}

func TestFilterRegistration(t *testing.T) {
	t.Run("identity fields round-trip", func(t *testing.T) {
		c := newTestCore(t)
		registerEndpoint(t, c, "ep")

		fid, h, err := c.RegisterFilter(FilterRegistration{
			Name:       "latency",
			Target:     "ep",
			InputType:  "raw",
			OutputType: "raw",
		})
		if err != nil {
			t.Fatalf("RegisterFilter: %v", err)
		}
		if !fid.IsValid() || !h.IsValid() {
			t.Fatalf("invalid ids: fid=%v handle=%v", fid, h)
		}

		name, _ := c.FilterName(h)
		target, _ := c.FilterTarget(h)
		in, _ := c.FilterInputType(h)
		out, _ := c.FilterOutputType(h)
		if name != "latency" || target != "ep" || in != "raw" || out != "raw" {
			t.Errorf("identity = %q %q %q %q", name, target, in, out)
		}
	})

	t.Run("empty target is rejected", func(t *testing.T) {
		c := newTestCore(t)
		if _, _, err := c.RegisterFilter(FilterRegistration{}); !errors.Is(err, errs.ErrTargetRequired) {
			t.Errorf("error = %v, want ErrTargetRequired", err)
		}
	})

	t.Run("empty filter names are auto-generated", func(t *testing.T) {
		c := newTestCore(t)
		_, h, err := c.RegisterFilter(FilterRegistration{Target: "ep"})
		if err != nil {
			t.Fatalf("RegisterFilter: %v", err)
		}
		name, _ := c.FilterName(h)
		if !strings.HasPrefix(name, "_filter_") {
			t.Errorf("auto name = %q", name)
		}
	})

	t.Run("registration before the endpoint stays unresolved", func(t *testing.T) {
		c := newTestCore(t)
		_, h, err := c.RegisterFilter(FilterRegistration{Target: "later"})
		if err != nil {
			t.Fatalf("RegisterFilter: %v", err)
		}
		sum, err := c.FilterSummary(h)
		if err != nil {
			t.Fatalf("FilterSummary: %v", err)
		}
		if sum.Resolution.Resolved {
			t.Fatal("filter resolved before its endpoint exists")
		}

		registerEndpoint(t, c, "later")
		sum, _ = c.FilterSummary(h)
		if !sum.Resolution.Resolved {
			t.Error("filter did not resolve when its endpoint registered")
		}
	})

	t.Run("unknown handles error on accessors", func(t *testing.T) {
		c := newTestCore(t)
		if _, err := c.FilterName(Handle(42)); !errors.Is(err, errs.ErrUnknownHandle) {
			t.Errorf("FilterName error = %v, want ErrUnknownHandle", err)
		}
		if _, err := c.Operator(Handle(42)); !errors.Is(err, errs.ErrUnknownHandle) {
			t.Errorf("Operator error = %v, want ErrUnknownHandle", err)
		}
	})
}

func TestSetOperator(t *testing.T) {
	c := newTestCore(t)
	registerEndpoint(t, c, "ep")
	_, h, err := c.RegisterFilter(FilterRegistration{Target: "ep"})
	if err != nil {
		t.Fatalf("RegisterFilter: %v", err)
	}

	first := ops.NewDelayOperation(msg.TimeFromSeconds(1))
	if err := c.SetOperator(h, first); err != nil {
		t.Fatalf("SetOperator: %v", err)
	}
	got, err := c.Operator(h)
	if err != nil {
		t.Fatalf("Operator: %v", err)
	}
	if got != ops.Operation(first) {
		t.Fatal("Operator() did not return the bound operation")
	}

	// Replacing the operation hands the old one to the retirer rather than
	// dropping it inline.
	second := ops.NewDelayOperation(msg.TimeFromSeconds(2))
	if err := c.SetOperator(h, second); err != nil {
		t.Fatalf("SetOperator replace: %v", err)
	}
	if c.Retirer().Pending() != 1 {
		t.Errorf("Pending() = %d after swap, want the old operation queued", c.Retirer().Pending())
	}
	c.Retirer().Drain()

	if err := c.SetOperator(Handle(42), second); !errors.Is(err, errs.ErrUnknownHandle) {
		t.Errorf("SetOperator on unknown handle error = %v", err)
	}
}

func TestSetOperatorWhileRouting(t *testing.T) {
	c := newTestCore(t)
	src := registerEndpoint(t, c, "from")
	dst := registerEndpoint(t, c, "to")

	started := make(chan struct{})
	release := make(chan struct{})
	slow, err := ops.NewCustomOperation(func(m *msg.Message) []*msg.Message {
		m.Payload = append(m.Payload, []byte(" slow")...)
		close(started)
		<-release
		return []*msg.Message{m}
	})
	if err != nil {
		t.Fatalf("NewCustomOperation: %v", err)
	}

	_, h, err := c.RegisterFilter(FilterRegistration{Target: "from"})
	if err != nil {
		t.Fatalf("RegisterFilter: %v", err)
	}
	if err := c.SetOperator(h, slow); err != nil {
		t.Fatalf("SetOperator: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- c.Send(context.Background(), src, "to", []byte("one")) }()
	<-started

	// Rebind while the slow transform holds a routing call open.
	fast := ops.NewDelayOperation(msg.TimeFromSeconds(3))
	if err := c.SetOperator(h, fast); err != nil {
		t.Fatalf("SetOperator replace: %v", err)
	}

	// The displaced operation stays queued until routing quiesces.
	if n := c.Retirer().Drain(); n != 0 {
		t.Fatalf("Drain() released %d objects with a routing call in flight", n)
	}
	if c.Retirer().Pending() != 1 {
		t.Fatalf("Pending() = %d, want the replaced operation held", c.Retirer().Pending())
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("Send: %v", err)
	}

	// The in-flight message completed against the operation it started with.
	first, err := c.Receive(dst)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if string(first.Payload) != "one slow" {
		t.Errorf("in-flight payload = %q, want the replaced operation applied", first.Payload)
	}
	if c.Retirer().Pending() != 0 {
		t.Errorf("Pending() = %d after routing drained", c.Retirer().Pending())
	}

	// The next send runs the new operation.
	if err := c.Send(context.Background(), src, "to", []byte("two")); err != nil {
		t.Fatalf("Send: %v", err)
	}
	second, err := c.Receive(dst)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if string(second.Payload) != "two" {
		t.Errorf("payload = %q", second.Payload)
	}
	if second.ReceiveTime != msg.TimeFromSeconds(3) {
		t.Errorf("ReceiveTime = %v, want the rebound delay applied", second.ReceiveTime)
	}
}

func TestRemoveFilter(t *testing.T) {
	c := newTestCore(t)
	src := registerEndpoint(t, c, "from")
	dst := registerEndpoint(t, c, "to")

	_, h, err := c.RegisterFilter(FilterRegistration{
		Target:    "from",
		Operation: ops.NewRandomDropOperation(1),
	})
	if err != nil {
		t.Fatalf("RegisterFilter: %v", err)
	}

	// With the drop filter attached nothing arrives.
	if err := c.Send(context.Background(), src, "to", []byte("x")); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if c.HasMessage(dst) {
		t.Fatal("message survived a probability-one drop filter")
	}

	if err := c.RemoveFilter(h); err != nil {
		t.Fatalf("RemoveFilter: %v", err)
	}
	if err := c.Send(context.Background(), src, "to", []byte("y")); err != nil {
		t.Fatalf("Send after removal: %v", err)
	}
	if !c.HasMessage(dst) {
		t.Fatal("message still filtered after RemoveFilter")
	}

	// The handle is dead now.
	if err := c.RemoveFilter(h); !errors.Is(err, errs.ErrUnknownHandle) {
		t.Errorf("second RemoveFilter error = %v, want ErrUnknownHandle", err)
	}
	if err := c.SetOperator(h, ops.NewDelayOperation(0)); !errors.Is(err, errs.ErrUnknownHandle) {
		t.Errorf("SetOperator after removal error = %v, want ErrUnknownHandle", err)
	}
}

func TestReceiveSemantics(t *testing.T) {
	c := newTestCore(t)
	src := registerEndpoint(t, c, "a")
	dst := registerEndpoint(t, c, "b")

	t.Run("empty inbox returns nil without error", func(t *testing.T) {
		m, err := c.Receive(dst)
		if err != nil || m != nil {
			t.Errorf("Receive on empty inbox = %v, %v", m, err)
		}
		if c.HasMessage(dst) {
			t.Error("HasMessage true on empty inbox")
		}
	})

	t.Run("non-endpoint handle errors", func(t *testing.T) {
		if _, err := c.Receive(Handle(1000)); !errors.Is(err, errs.ErrNotAnEndpoint) {
			t.Errorf("Receive error = %v, want ErrNotAnEndpoint", err)
		}
	})

	t.Run("messages carry addressing and payload", func(t *testing.T) {
		c.SetTime(msg.TimeFromSeconds(7))
		if err := c.Send(context.Background(), src, "b", []byte("ping")); err != nil {
			t.Fatalf("Send: %v", err)
		}
		m := receiveOne(t, c, dst)
		if m.Source != "a" || m.Dest != "b" || m.OrigSource != "a" || m.OrigDest != "b" {
			t.Errorf("addressing = %q -> %q (orig %q -> %q)", m.Source, m.Dest, m.OrigSource, m.OrigDest)
		}
		if string(m.Payload) != "ping" {
			t.Errorf("payload = %q", m.Payload)
		}
		if m.SendTime != msg.TimeFromSeconds(7) || m.ReceiveTime != msg.TimeFromSeconds(7) {
			t.Errorf("times = %v / %v", m.SendTime, m.ReceiveTime)
		}
		if m.UUID == "" {
			t.Error("message without UUID")
		}
	})
}

func TestCloseRejectsFurtherWork(t *testing.T) {
	c := newTestCore(t)
	src := registerEndpoint(t, c, "a")
	registerEndpoint(t, c, "b")

	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	if _, err := c.RegisterFederate("late"); !errors.Is(err, errs.ErrCoreClosed) {
		t.Errorf("RegisterFederate after close error = %v", err)
	}
	if _, _, err := c.RegisterFilter(FilterRegistration{Target: "a"}); !errors.Is(err, errs.ErrCoreClosed) {
		t.Errorf("RegisterFilter after close error = %v", err)
	}
	if err := c.Send(context.Background(), src, "b", nil); !errors.Is(err, errs.ErrCoreClosed) {
		t.Errorf("Send after close error = %v", err)
	}
}
