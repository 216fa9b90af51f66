package transport

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/simwire/simwire/internal/bus/config"
)

func TestChannelTransportLoopback(t *testing.T) {
	tr, err := channelTransport(&config.Config{CoreName: "core_a"}, watermill.NopLogger{})
	if err != nil {
		t.Fatalf("channelTransport: %v", err)
	}

	toA, err := tr.Subscriber.Subscribe(context.Background(), "core_a")
	if err != nil {
		t.Fatalf("subscribe core_a: %v", err)
	}
	toB, err := tr.Subscriber.Subscribe(context.Background(), "core_b")
	if err != nil {
		t.Fatalf("subscribe core_b: %v", err)
	}

	sent := message.NewMessage(watermill.NewUUID(), []byte("reading 7"))
	if err := tr.Publisher.Publish("core_b", sent); err != nil {
		t.Fatalf("publish: %v", err)
	}

	// Core topics are isolated: the message lands on core_b only.
	select {
	case got := <-toB:
		if string(got.Payload) != "reading 7" {
			t.Errorf("payload = %q", got.Payload)
		}
		got.Ack()
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for core_b delivery")
	}

	select {
	case stray := <-toA:
		t.Fatalf("core_a received stray message %q", stray.Payload)
	case <-time.After(50 * time.Millisecond):
	}
}
