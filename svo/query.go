package svo

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/voxelsplace/svo/geom"
	"github.com/voxelsplace/svo/morton"
)

// direction is a unit step between same-depth cells.
type direction [3]int

// faceDirections are visited first, in the order +x, +z, -x, -z, +y, -y.
var faceDirections = []direction{
	{1, 0, 0}, {0, 0, 1}, {-1, 0, 0}, {0, 0, -1}, {0, 1, 0}, {0, -1, 0},
}

var edgeDirections = []direction{
	{1, 0, 1}, {-1, 0, 1}, {-1, 0, -1}, {1, 0, -1},
	{1, 1, 0}, {0, 1, 1}, {-1, 1, 0}, {0, 1, -1},
	{1, -1, 0}, {0, -1, 1}, {-1, -1, 0}, {0, -1, -1},
}

var cornerDirections = []direction{
	{1, 1, 1}, {-1, 1, 1}, {-1, 1, -1}, {1, 1, -1},
	{1, -1, 1}, {-1, -1, 1}, {-1, -1, -1}, {1, -1, -1},
}

func directionsFor(c Connectivity) []direction {
	if c != Full26 {
		return faceDirections
	}
	out := make([]direction, 0, 26)
	out = append(out, faceDirections...)
	out = append(out, edgeDirections...)
	return append(out, cornerDirections...)
}

// FindNode returns the leaf containing p. The root box is closed, points on
// an inner boundary belong to the upper cell.
func (t *Octree) FindNode(p mgl32.Vec3) (morton.Code, bool) {
	if !geom.PointInAABB(p, t.Bounds()) {
		return 0, false
	}
	depth := t.params.MaxDepth
	limit := float64(uint64(1)<<depth - 1)
	var v [3]uint64
	for i := 0; i < 3; i++ {
		f := math.Floor((float64(p[i]) - float64(t.params.Origin[i])) / float64(t.params.VoxelSize))
		v[i] = uint64(math.Min(math.Max(f, 0), limit))
	}

	c := morton.Root
	for {
		s, ok := t.nodes[c]
		if !ok {
			return 0, false
		}
		if s != Subdivided {
			return c, true
		}
		shift := depth - c.Depth() - 1
		o := uint8((v[0]>>shift)&1 | ((v[1]>>shift)&1)<<1 | ((v[2]>>shift)&1)<<2)
		next, err := morton.Child(c, o)
		if err != nil {
			return 0, false
		}
		c = next
	}
}

// Successors returns the empty leaves adjacent to the leaf c using the tree's
// connectivity.
func (t *Octree) Successors(c morton.Code) []morton.Code {
	return t.SuccessorsWith(c, t.params.Connectivity)
}

// SuccessorsWith returns the empty leaves adjacent to the leaf c. Neighbours
// may be coarser or finer than c; each is listed once, in direction order.
// Unknown codes and subdivided nodes have no successors.
func (t *Octree) SuccessorsWith(c morton.Code, conn Connectivity) []morton.Code {
	s, ok := t.nodes[c]
	if !ok || !s.Leaf() {
		return nil
	}
	var out []morton.Code
	seen := make(map[morton.Code]struct{})
	add := func(n morton.Code) {
		if _, dup := seen[n]; dup {
			return
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}

	for _, d := range directionsFor(conn) {
		n, ok := morton.Offset(c, d[0], d[1], d[2])
		if !ok {
			continue
		}
		// the same-depth cell may sit inside a coarser leaf
		var ns State
		found := false
		for depth := int(n.Depth()); depth >= 0 && !found; depth-- {
			a, _ := morton.Ancestor(n, uint8(depth))
			if ns, found = t.nodes[a]; found {
				n = a
			}
		}
		if !found {
			continue
		}
		switch ns {
		case Empty:
			add(n)
		case Subdivided:
			t.touchingLeaves(n, d, add)
		}
	}
	return out
}

// touchingLeaves emits the empty leaves of the subtree at n that lie on the
// side facing back along d.
func (t *Octree) touchingLeaves(n morton.Code, d direction, emit func(morton.Code)) {
	kids, err := morton.Children(n)
	if err != nil {
		return
	}
	for i, k := range kids {
		if !facing(uint8(i), d) {
			continue
		}
		switch t.nodes[k] {
		case Empty:
			emit(k)
		case Subdivided:
			t.touchingLeaves(k, d, emit)
		}
	}
}

// facing reports whether octant o sits on the boundary a step along d enters
// through: the low half on axes stepped positively, the high half on axes
// stepped negatively.
func facing(o uint8, d direction) bool {
	for axis := 0; axis < 3; axis++ {
		bit := o >> axis & 1
		if d[axis] > 0 && bit != 0 || d[axis] < 0 && bit != 1 {
			return false
		}
	}
	return true
}

// ManhattanDistance sums the per axis distances between the cell centers of
// a and b.
func (t *Octree) ManhattanDistance(a, b morton.Code) float32 {
	d := t.Center(a).Sub(t.Center(b))
	return abs32(d[0]) + abs32(d[1]) + abs32(d[2])
}

// DistanceSquared is the squared euclidean distance between the cell centers.
func (t *Octree) DistanceSquared(a, b morton.Code) float32 {
	d := t.Center(a).Sub(t.Center(b))
	return d.Dot(d)
}

func abs32(v float32) float32 {
	return float32(math.Abs(float64(v)))
}

// FacePositionBetween returns the center of the patch shared by two touching
// cells: a face, an edge or a corner. It fails when the cells are apart or
// overlap.
func (t *Octree) FacePositionBetween(a, b morton.Code) (mgl32.Vec3, bool) {
	if !a.Valid() || !b.Valid() {
		return mgl32.Vec3{}, false
	}
	shared := t.CellBounds(a).Intersection(t.CellBounds(b))
	if shared.IsEmpty() {
		return mgl32.Vec3{}, false
	}
	size := shared.Size()
	if size[0] > 0 && size[1] > 0 && size[2] > 0 {
		return mgl32.Vec3{}, false
	}
	return shared.Center(), true
}

// LineOfSight reports whether the segment from-to crosses no solid leaf.
// Cells are closed, so grazing a solid cell blocks the view.
func (t *Octree) LineOfSight(from, to mgl32.Vec3) bool {
	stack := []morton.Code{morton.Root}
	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		s := t.nodes[c]
		if s == Empty {
			continue
		}
		if !geom.SegmentIntersectsAABB(from, to, t.CellBounds(c)) {
			continue
		}
		if s == Solid {
			return false
		}
		kids, err := morton.Children(c)
		if err != nil {
			continue
		}
		stack = append(stack, kids[:]...)
	}
	return true
}
