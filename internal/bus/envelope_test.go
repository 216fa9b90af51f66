package bus

import (
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/simwire/simwire/internal/bus/msg"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	original := &msg.Message{
		UUID:       "01J0000000000000000000TEST",
		Source:     "fedA/out",
		Dest:       "fedB/in",
		OrigSource: "fedA/out",
		OrigDest:   "fedC/in",
		Payload:    []byte{0x00, 0x01, 0xff, 'h', 'i'},
		// Deliberately not representable exactly in float64 seconds.
		SendTime:    msg.Time(1<<60 + 1),
		ReceiveTime: msg.Time(1<<60 + 3),
	}

	wm, err := marshalEnvelope(original)
	if err != nil {
		t.Fatalf("marshalEnvelope: %v", err)
	}
	if wm.UUID != original.UUID {
		t.Errorf("watermill UUID = %q", wm.UUID)
	}

	got, err := unmarshalEnvelope(wm)
	if err != nil {
		t.Fatalf("unmarshalEnvelope: %v", err)
	}
	if got.Source != original.Source || got.Dest != original.Dest ||
		got.OrigSource != original.OrigSource || got.OrigDest != original.OrigDest {
		t.Errorf("addressing mismatch: %+v", got)
	}
	if string(got.Payload) != string(original.Payload) {
		t.Errorf("payload = %v", got.Payload)
	}
	if got.SendTime != original.SendTime || got.ReceiveTime != original.ReceiveTime {
		t.Errorf("timestamps lost precision: %d / %d", got.SendTime, got.ReceiveTime)
	}
}

func TestUnmarshalEnvelopeRejectsGarbage(t *testing.T) {
	wm := message.NewMessage("u", []byte{0xde, 0xad, 0xbe, 0xef, 0x01})
	if _, err := unmarshalEnvelope(wm); err == nil {
		t.Fatal("expected error for undecodable payload")
	}
}
