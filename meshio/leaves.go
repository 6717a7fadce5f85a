package meshio

import (
	"bytes"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/voxelsplace/svo/geom"
	"github.com/voxelsplace/svo/morton"
	"github.com/voxelsplace/svo/svo"
)

// faceSpec describes one cube face: its outward normal and the two in-plane
// axes spanning it.
type faceSpec struct {
	normal [3]int
	u, v   int
}

var cubeFaces = []faceSpec{
	{[3]int{1, 0, 0}, 1, 2},
	{[3]int{-1, 0, 0}, 1, 2},
	{[3]int{0, 1, 0}, 0, 2},
	{[3]int{0, -1, 0}, 0, 2},
	{[3]int{0, 0, 1}, 0, 1},
	{[3]int{0, 0, -1}, 0, 1},
}

func (f faceSpec) perp() int { return 3 - f.u - f.v }

// quad returns the face of box as four corners wound counter clockwise
// around the outward normal.
func (f faceSpec) quad(box geom.AABB) [4]mgl32.Vec3 {
	p := f.perp()
	base := box.Min
	if f.normal[p] > 0 {
		base[p] = box.Max[p]
	}
	du, dv := base, base
	du[f.u] = box.Max[f.u]
	dv[f.v] = box.Max[f.v]
	uv := du
	uv[f.v] = box.Max[f.v]

	q := [4]mgl32.Vec3{base, du, uv, dv}
	// u x v points along +x and +z but along -y
	if (f.normal[p] < 0) != (p == 1) {
		q[1], q[3] = q[3], q[1]
	}
	return q
}

// LeavesToGLB renders every leaf in the given state as a box colored by its
// depth. Faces shared with a same sized leaf of the same state are culled.
func LeavesToGLB(tree *svo.Octree, state svo.State) ([]byte, error) {
	s := &surface{}
	for _, leaf := range tree.Leaves() {
		if leaf.State != state {
			continue
		}
		box := tree.CellBounds(leaf.Code)
		color := depthColor(leaf.Code.Depth())
		if state == svo.Empty {
			color[3] = emptyAlpha
		}
		for _, f := range cubeFaces {
			if n, ok := morton.Offset(leaf.Code, f.normal[0], f.normal[1], f.normal[2]); ok {
				if nb, found := tree.Get(n); found && nb.State == state {
					continue
				}
			}
			normal := mgl32.Vec3{float32(f.normal[0]), float32(f.normal[1]), float32(f.normal[2])}
			s.addQuad(f.quad(box), normal, color)
		}
	}
	var out bytes.Buffer
	if err := s.encode(&out, "leaves_"+state.String()); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
