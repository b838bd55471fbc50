// Package shared holds the identifiers, constants, errors and outbound events
// that every canvas domain package agrees on.
package shared

import (
	"strings"

	"github.com/google/uuid"
)

// NodeID is the opaque identifier of a card or group.
// Ids minted by the core are UUIDs; ids restored from an external source are
// accepted verbatim as long as they are not blank.
type NodeID string

// NewNodeID mints a fresh node identifier.
func NewNodeID() NodeID {
	return NodeID(uuid.NewString())
}

// String returns the id as a string.
func (id NodeID) String() string {
	return string(id)
}

// IsZero reports whether the id is blank.
func (id NodeID) IsZero() bool {
	return strings.TrimSpace(string(id)) == ""
}

// EdgeID is the opaque identifier of an edge.
type EdgeID string

// NewEdgeID mints a fresh edge identifier.
func NewEdgeID() EdgeID {
	return EdgeID(uuid.NewString())
}

// String returns the id as a string.
func (id EdgeID) String() string {
	return string(id)
}

// IsZero reports whether the id is blank.
func (id EdgeID) IsZero() bool {
	return strings.TrimSpace(string(id)) == ""
}

// NodeIDStrings converts ids for event payloads.
func NodeIDStrings(ids []NodeID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

// EdgeIDStrings converts ids for event payloads.
func EdgeIDStrings(ids []EdgeID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
