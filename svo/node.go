package svo

import (
	"fmt"
	"strings"

	"github.com/voxelsplace/svo/morton"
)

// State is the occupancy of a node.
type State uint8

const (
	// Empty marks a leaf whose whole cell is free space.
	Empty State = iota
	// Solid marks a leaf whose whole cell is occupied.
	Solid
	// Subdivided marks an inner node; all eight children exist.
	Subdivided
)

// Leaf reports whether s is a terminal state.
func (s State) Leaf() bool {
	return s == Empty || s == Solid
}

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Solid:
		return "solid"
	case Subdivided:
		return "subdivided"
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// ParseLeafState accepts "solid" or "empty".
func ParseLeafState(s string) (State, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "solid":
		return Solid, nil
	case "empty":
		return Empty, nil
	}
	return Empty, fmt.Errorf("unknown leaf state %q", s)
}

// Node is a materialized cell of the tree.
type Node struct {
	Code  morton.Code
	State State
}

// Connectivity selects which neighbours count as adjacent.
type Connectivity uint8

const (
	// Face6 links cells sharing a face.
	Face6 Connectivity = iota
	// Full26 also links cells sharing only an edge or a corner.
	Full26
)

func (c Connectivity) String() string {
	switch c {
	case Face6:
		return "face6"
	case Full26:
		return "full26"
	}
	return fmt.Sprintf("connectivity(%d)", uint8(c))
}

// ParseConnectivity accepts "6", "face", "face6", "26", "full" and "full26".
func ParseConnectivity(s string) (Connectivity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "6", "face", "face6":
		return Face6, nil
	case "26", "full", "full26":
		return Full26, nil
	}
	return Face6, fmt.Errorf("unknown connectivity %q", s)
}
