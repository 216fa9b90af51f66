package jsoncodec

import (
	"bytes"
	"strings"
	"testing"
)

type sample struct {
	Name  string   `json:"name"`
	Ports []int    `json:"ports,omitempty"`
	Tags  []string `json:"tags,omitempty"`
}

func TestMarshalUnmarshal(t *testing.T) {
	in := sample{Name: "core", Ports: []int{4222, 9092}}
	data, err := Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var out sample
	if err := Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out.Name != in.Name || len(out.Ports) != 2 {
		t.Errorf("round trip = %+v", out)
	}
}

func TestMarshalIndent(t *testing.T) {
	data, err := MarshalIndent(sample{Name: "x"}, "", "  ")
	if err != nil {
		t.Fatalf("MarshalIndent: %v", err)
	}
	if !strings.Contains(string(data), "\n") {
		t.Errorf("expected indented output, got %s", data)
	}
}

func TestEncodeDecode(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, sample{Name: "stream"}); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	var out sample
	if err := Decode(&buf, &out); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.Name != "stream" {
		t.Errorf("Decode = %+v", out)
	}
}

func TestUnmarshalRejectsMalformed(t *testing.T) {
	var out sample
	if err := Unmarshal([]byte(`{"name":`), &out); err == nil {
		t.Fatal("expected error for truncated JSON")
	}
}
