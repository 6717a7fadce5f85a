// Package morton implements locational codes: Z-order keys that address the
// cells of an octree at every depth.
//
// A code carries a sentinel bit above the interleaved coordinate bits, so the
// root is 1, a child appends its 3-bit octant and the depth can be read back
// from the position of the highest set bit.
package morton

import (
	"errors"
	"fmt"
	"math/bits"
)

// MaxDepth is the deepest level a 64-bit code can address (3*21 bits plus the sentinel).
const MaxDepth = 21

// Root is the code of the cell spanning the whole volume.
const Root Code = 1

var (
	// ErrOutOfBounds reports a coordinate, depth or octant outside the valid range.
	ErrOutOfBounds = errors.New("morton: out of bounds")
	// ErrNoParent is returned when asking for the parent of the root.
	ErrNoParent = errors.New("morton: root has no parent")
)

// Axis selects one of the three coordinate axes.
type Axis uint8

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

const (
	xBits = 0x1249249249249249
	yBits = xBits << 1
	zBits = xBits << 2
)

// Code is a locational code. The zero value is invalid.
type Code uint64

// Valid reports whether c carries a well placed sentinel bit.
func (c Code) Valid() bool {
	return c != 0 && (bits.Len64(uint64(c))-1)%3 == 0
}

// Depth returns the level of the cell, the root being 0.
func (c Code) Depth() uint8 {
	if c == 0 {
		return 0
	}
	return uint8((bits.Len64(uint64(c)) - 1) / 3)
}

// Octant returns the index of c inside its parent (bit 0 = x, bit 1 = y, bit 2 = z).
func (c Code) Octant() uint8 {
	return uint8(c & 7)
}

// Coords returns the integer cell coordinates of c at its own depth.
func (c Code) Coords() (x, y, z uint32) {
	v := uint64(c) &^ (1 << (3 * uint(c.Depth())))
	return MortonDecode3D64(v)
}

func (c Code) String() string {
	if !c.Valid() {
		return fmt.Sprintf("invalid(%#x)", uint64(c))
	}
	x, y, z := c.Coords()
	return fmt.Sprintf("d%d(%d,%d,%d)", c.Depth(), x, y, z)
}

// Encode interleaves x, y and z at the given depth. Every coordinate must fit
// in depth bits.
func Encode(depth uint8, x, y, z uint32) (Code, error) {
	if depth > MaxDepth {
		return 0, fmt.Errorf("depth %d: %w", depth, ErrOutOfBounds)
	}
	limit := uint64(1) << depth
	if uint64(x) >= limit || uint64(y) >= limit || uint64(z) >= limit {
		return 0, fmt.Errorf("(%d,%d,%d) at depth %d: %w", x, y, z, depth, ErrOutOfBounds)
	}
	return Code(1<<(3*uint(depth)) | Morton3D64(x, y, z)), nil
}

// Decode is the inverse of Encode.
func Decode(c Code, depth uint8) (x, y, z uint32, err error) {
	if !c.Valid() || c.Depth() != depth {
		return 0, 0, 0, fmt.Errorf("code %#x at depth %d: %w", uint64(c), depth, ErrOutOfBounds)
	}
	x, y, z = c.Coords()
	return x, y, z, nil
}

// Child appends octant to parent.
func Child(parent Code, octant uint8) (Code, error) {
	if octant > 7 {
		return 0, fmt.Errorf("octant %d: %w", octant, ErrOutOfBounds)
	}
	if !parent.Valid() || parent.Depth() >= MaxDepth {
		return 0, fmt.Errorf("child of %v: %w", parent, ErrOutOfBounds)
	}
	return parent<<3 | Code(octant), nil
}

// Children returns the eight children of parent in octant order.
func Children(parent Code) ([8]Code, error) {
	var out [8]Code
	if !parent.Valid() || parent.Depth() >= MaxDepth {
		return out, fmt.Errorf("children of %v: %w", parent, ErrOutOfBounds)
	}
	for i := range out {
		out[i] = parent<<3 | Code(i)
	}
	return out, nil
}

// Parent strips the last octant of c.
func Parent(c Code) (Code, error) {
	if c == Root {
		return 0, ErrNoParent
	}
	if !c.Valid() {
		return 0, fmt.Errorf("parent of %#x: %w", uint64(c), ErrOutOfBounds)
	}
	return c >> 3, nil
}

// Ancestor returns the cell at depth containing c.
func Ancestor(c Code, depth uint8) (Code, bool) {
	if !c.Valid() || depth > c.Depth() {
		return 0, false
	}
	return c >> (3 * uint(c.Depth()-depth)), true
}

// Neighbor returns the same-depth cell one unit away along axis. dir must be
// +1 or -1. The second result is false when the step leaves the volume.
func Neighbor(c Code, axis Axis, dir int) (Code, bool) {
	if !c.Valid() || axis > AxisZ || (dir != 1 && dir != -1) {
		return 0, false
	}
	depth := uint(c.Depth())
	if depth == 0 {
		return 0, false
	}
	sentinel := uint64(1) << (3 * depth)
	v := uint64(c) & (sentinel - 1)
	m := (uint64(xBits) << axis) & (sentinel - 1)

	var moved uint64
	if dir > 0 {
		if v&m == m {
			return 0, false
		}
		moved = ((v | ^m) + 1) & m
	} else {
		if v&m == 0 {
			return 0, false
		}
		moved = ((v & m) - 1) & m
	}
	return Code(sentinel | (v &^ m) | moved), true
}

// Offset moves c by (dx, dy, dz) cells at its own depth, one Neighbor step
// at a time. The second result is false when any step leaves the volume.
func Offset(c Code, dx, dy, dz int) (Code, bool) {
	if !c.Valid() {
		return 0, false
	}
	for axis, d := range [3]int{dx, dy, dz} {
		dir := 1
		if d < 0 {
			dir, d = -1, -d
		}
		for ; d > 0; d-- {
			var ok bool
			if c, ok = Neighbor(c, Axis(axis), dir); !ok {
				return 0, false
			}
		}
	}
	return c, true
}

// Morton3D64 interleaves the low 21 bits of x, y and z.
func Morton3D64(x, y, z uint32) uint64 {
	return part1By2(uint64(x)) |
		(part1By2(uint64(y)) << 1) |
		(part1By2(uint64(z)) << 2)
}

// MortonDecode3D64 is the inverse of Morton3D64.
func MortonDecode3D64(index uint64) (x, y, z uint32) {
	x = uint32(compact1By2(index))
	y = uint32(compact1By2(index >> 1))
	z = uint32(compact1By2(index >> 2))
	return
}

func part1By2(x uint64) uint64 {
	x &= 0x1fffff
	x = (x | (x << 32)) & 0x1f00000000ffff
	x = (x | (x << 16)) & 0x1f0000ff0000ff
	x = (x | (x << 8)) & 0x100f00f00f00f00f
	x = (x | (x << 4)) & 0x10c30c30c30c30c3
	x = (x | (x << 2)) & 0x1249249249249249
	return x
}

func compact1By2(x uint64) uint64 {
	x &= 0x1249249249249249
	x = (x ^ (x >> 2)) & 0x10c30c30c30c30c3
	x = (x ^ (x >> 4)) & 0x100f00f00f00f00f
	x = (x ^ (x >> 8)) & 0x1f0000ff0000ff
	x = (x ^ (x >> 16)) & 0x1f00000000ffff
	x = (x ^ (x >> 32)) & 0x1fffff
	return x
}
