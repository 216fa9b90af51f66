// Package ids generates the identifiers the bus hands out at runtime.
package ids

import "github.com/oklog/ulid/v2"

// NewULID returns a 26-character lexicographically sortable identifier.
// Message UUIDs and generated core names use these so log lines sort in
// creation order.
func NewULID() string {
	return ulid.Make().String()
}
