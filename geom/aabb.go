// Package geom holds the axis aligned boxes, triangles and intersection
// predicates used to voxelize geometry and to answer segment queries.
package geom

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// AABB is an axis aligned box. Both corners are inclusive.
type AABB struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// EmptyAABB returns an inverted box that any Extend or Union will replace.
func EmptyAABB() AABB {
	inf := float32(math.Inf(1))
	return AABB{
		Min: mgl32.Vec3{inf, inf, inf},
		Max: mgl32.Vec3{-inf, -inf, -inf},
	}
}

// Cube returns the box of edge length edge whose min corner is min.
func Cube(min mgl32.Vec3, edge float32) AABB {
	return AABB{Min: min, Max: min.Add(mgl32.Vec3{edge, edge, edge})}
}

func (b AABB) String() string {
	return fmt.Sprintf("[%v..%v]", b.Min, b.Max)
}

// IsEmpty reports whether the box is inverted on any axis.
func (b AABB) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

func (b AABB) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

func (b AABB) Size() mgl32.Vec3 {
	return b.Max.Sub(b.Min)
}

// Extend grows the box to include p.
func (b AABB) Extend(p mgl32.Vec3) AABB {
	for i := 0; i < 3; i++ {
		b.Min[i] = min(b.Min[i], p[i])
		b.Max[i] = max(b.Max[i], p[i])
	}
	return b
}

// Union returns the smallest box holding both b and o. Empty boxes are ignored.
func (b AABB) Union(o AABB) AABB {
	if o.IsEmpty() {
		return b
	}
	if b.IsEmpty() {
		return o
	}
	return b.Extend(o.Min).Extend(o.Max)
}

// Intersection returns the overlap of b and o; the result IsEmpty when they
// are disjoint.
func (b AABB) Intersection(o AABB) AABB {
	var r AABB
	for i := 0; i < 3; i++ {
		r.Min[i] = max(b.Min[i], o.Min[i])
		r.Max[i] = min(b.Max[i], o.Max[i])
	}
	return r
}

// Octant returns the i-th eighth of the box. Bit 0 of i selects the upper
// half on x, bit 1 on y and bit 2 on z.
func (b AABB) Octant(i uint8) AABB {
	c := b.Center()
	r := b
	for axis := 0; axis < 3; axis++ {
		if i&(1<<axis) != 0 {
			r.Min[axis] = c[axis]
		} else {
			r.Max[axis] = c[axis]
		}
	}
	return r
}

// Contains is PointInAABB with the receiver as box.
func (b AABB) Contains(p mgl32.Vec3) bool {
	return PointInAABB(p, b)
}

// AABBIntersectsAABB reports overlap of two closed boxes; touching counts.
func AABBIntersectsAABB(a, b AABB) bool {
	return a.Min[0] <= b.Max[0] && a.Max[0] >= b.Min[0] &&
		a.Min[1] <= b.Max[1] && a.Max[1] >= b.Min[1] &&
		a.Min[2] <= b.Max[2] && a.Max[2] >= b.Min[2]
}

// PointInAABB reports whether p lies in the closed box b.
func PointInAABB(p mgl32.Vec3, b AABB) bool {
	return p[0] >= b.Min[0] && p[0] <= b.Max[0] &&
		p[1] >= b.Min[1] && p[1] <= b.Max[1] &&
		p[2] >= b.Min[2] && p[2] <= b.Max[2]
}
