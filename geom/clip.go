package geom

import "github.com/go-gl/mathgl/mgl32"

// Region codes of a point relative to a box, one bit per outside half space.
const (
	regionLeft   uint8 = 1 << iota // x < min
	regionRight                    // x > max
	regionBottom                   // y < min
	regionTop                      // y > max
	regionBack                     // z < min
	regionFront                    // z > max
)

// Clipping is the Cohen-Sutherland classification of a segment against a box.
type Clipping uint8

const (
	// Inside means both end points are in the box.
	Inside Clipping = iota
	// Outside means both end points share an outside half space, so the
	// segment cannot reach the box.
	Outside
	// Clip means the segment may cross the box boundary and needs an exact test.
	Clip
)

func (c Clipping) String() string {
	switch c {
	case Inside:
		return "inside"
	case Outside:
		return "outside"
	case Clip:
		return "clip"
	}
	return "unknown"
}

// RegionCode returns the 6-bit outcode of p against box.
func RegionCode(p mgl32.Vec3, box AABB) uint8 {
	below := [3]uint8{regionLeft, regionBottom, regionBack}
	above := [3]uint8{regionRight, regionTop, regionFront}
	var code uint8
	for axis := 0; axis < 3; axis++ {
		if p[axis] < box.Min[axis] {
			code |= below[axis]
		} else if p[axis] > box.Max[axis] {
			code |= above[axis]
		}
	}
	return code
}

// ClassifySegment is the trivial accept/reject step of Cohen-Sutherland.
func ClassifySegment(a, b mgl32.Vec3, box AABB) Clipping {
	ca, cb := RegionCode(a, box), RegionCode(b, box)
	switch {
	case ca|cb == 0:
		return Inside
	case ca&cb != 0:
		return Outside
	default:
		return Clip
	}
}

// SegmentIntersectsAABB reports whether the closed segment a-b touches box,
// using the slab method.
func SegmentIntersectsAABB(a, b mgl32.Vec3, box AABB) bool {
	switch ClassifySegment(a, b, box) {
	case Inside:
		return true
	case Outside:
		return false
	}
	t0, t1 := 0.0, 1.0
	for axis := 0; axis < 3; axis++ {
		o := float64(a[axis])
		d := float64(b[axis]) - o
		lo, hi := float64(box.Min[axis]), float64(box.Max[axis])
		if d == 0 {
			if o < lo || o > hi {
				return false
			}
			continue
		}
		ta, tb := (lo-o)/d, (hi-o)/d
		if ta > tb {
			ta, tb = tb, ta
		}
		t0 = max(t0, ta)
		t1 = min(t1, tb)
		if t0 > t1 {
			return false
		}
	}
	return true
}
