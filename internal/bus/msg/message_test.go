package msg

import (
	"testing"
	"time"
)

func TestTimeConversions(t *testing.T) {
	if got := TimeFromSeconds(1.5); got != Time(1500*time.Millisecond) {
		t.Errorf("TimeFromSeconds(1.5) = %v", got)
	}
	if got := TimeFromSeconds(2).Seconds(); got != 2 {
		t.Errorf("Seconds() = %v, want 2", got)
	}
	if got := TimeFromSeconds(0.25).Duration(); got != 250*time.Millisecond {
		t.Errorf("Duration() = %v", got)
	}
	if got := TimeZero.Add(TimeFromSeconds(3)); got != TimeFromSeconds(3) {
		t.Errorf("Add() = %v", got)
	}
}

func TestMessageClone(t *testing.T) {
	m := &Message{
		UUID:        "u1",
		Source:      "a",
		Dest:        "b",
		OrigSource:  "a",
		OrigDest:    "b",
		Payload:     []byte("data"),
		SendTime:    TimeFromSeconds(1),
		ReceiveTime: TimeFromSeconds(2),
	}

	c := m.Clone()
	if c == m {
		t.Fatal("Clone returned the same pointer")
	}
	if c.UUID != m.UUID || c.Source != m.Source || c.Dest != m.Dest ||
		c.OrigSource != m.OrigSource || c.OrigDest != m.OrigDest ||
		c.SendTime != m.SendTime || c.ReceiveTime != m.ReceiveTime ||
		string(c.Payload) != string(m.Payload) {
		t.Fatalf("Clone differs: %+v vs %+v", c, m)
	}

	c.Payload[0] = 'X'
	c.Dest = "elsewhere"
	if string(m.Payload) != "data" || m.Dest != "b" {
		t.Error("mutating the clone leaked into the original")
	}

	var nilMsg *Message
	if nilMsg.Clone() != nil {
		t.Error("Clone of nil should be nil")
	}
}
