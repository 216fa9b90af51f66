package simwire

import (
	"context"
	"errors"
	"testing"
)

func TestFacadeEndToEnd(t *testing.T) {
	core, err := TryNewCore(context.Background(), &Config{CoreName: "facade"}, nil, CoreDependencies{DisableTransport: true})
	if err != nil {
		t.Fatalf("TryNewCore: %v", err)
	}
	defer core.Close()

	fed, err := core.RegisterFederate("fedA")
	if err != nil {
		t.Fatalf("RegisterFederate: %v", err)
	}
	src, err := core.RegisterEndpoint(fed, "out", "")
	if err != nil {
		t.Fatalf("RegisterEndpoint: %v", err)
	}
	dst, err := core.RegisterEndpoint(fed, "in", "")
	if err != nil {
		t.Fatalf("RegisterEndpoint: %v", err)
	}

	f, err := MakeSourceFilter(DelayFilter, core, "out", "latency")
	if err != nil {
		t.Fatalf("MakeSourceFilter: %v", err)
	}
	if err := f.Set("delay", 2); err != nil {
		t.Fatalf("Set(delay): %v", err)
	}

	if err := core.Send(context.Background(), src, "in", []byte("ping")); err != nil {
		t.Fatalf("Send: %v", err)
	}
	m, err := core.Receive(dst)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if m == nil || string(m.Payload) != "ping" {
		t.Fatalf("received %+v", m)
	}
	if m.ReceiveTime != TimeFromSeconds(2) {
		t.Errorf("ReceiveTime = %v", m.ReceiveTime)
	}
}

func TestFacadeExports(t *testing.T) {
	if ParseFilterType("random_delay") != RandomDelayFilter {
		t.Error("ParseFilterType alias broken")
	}
	if _, err := NewOperation(UnrecognizedFilter); !errors.Is(err, ErrUnrecognizedType) {
		t.Errorf("NewOperation(Unrecognized) error = %v", err)
	}
	if d, ok := ParseDistribution("gaussian"); !ok || d != DistNormal {
		t.Error("ParseDistribution alias broken")
	}
	if err := ValidateConfig(&Config{}); err != nil {
		t.Errorf("ValidateConfig = %v", err)
	}
	if InvalidHandle.IsValid() {
		t.Error("InvalidHandle should be invalid")
	}
	payload := map[string]string{"k": "v"}
	data, err := Marshal(payload)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if err := Unmarshal(data, &payload); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
}
