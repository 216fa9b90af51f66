// Package jsoncodec is the single JSON entry point for the module. It runs
// sonic in its encoding/json-compatible configuration, so filter config
// documents written for other tooling decode identically here.
package jsoncodec

import (
	"io"

	"github.com/bytedance/sonic"
)

var std = sonic.ConfigStd

func Marshal(v any) ([]byte, error) { return std.Marshal(v) }

func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	return std.MarshalIndent(v, prefix, indent)
}

func Unmarshal(data []byte, v any) error { return std.Unmarshal(data, v) }

// Encode writes v to w followed by a newline.
func Encode(w io.Writer, v any) error { return std.NewEncoder(w).Encode(v) }

// Decode reads a single JSON value from r into v.
func Decode(r io.Reader, v any) error { return std.NewDecoder(r).Decode(v) }
