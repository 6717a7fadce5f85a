package geom

import "math"

// satEpsilon pads the box half extents, relative to the largest one, so that
// rounding never turns a contact into a separation.
const satEpsilon = 1e-5

type vec3d [3]float64

func (a vec3d) sub(b vec3d) vec3d { return vec3d{a[0] - b[0], a[1] - b[1], a[2] - b[2]} }
func (a vec3d) dot(b vec3d) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}
func (a vec3d) cross(b vec3d) vec3d {
	return vec3d{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

// AABBIntersectsTriangle runs the separating axis test over the 13 candidate
// axes: the 3 box normals, the 9 cross products of box and triangle edges and
// the triangle normal. Touching counts as intersecting.
func AABBIntersectsTriangle(box AABB, tri Triangle) bool {
	var c, h vec3d
	for i := 0; i < 3; i++ {
		c[i] = (float64(box.Min[i]) + float64(box.Max[i])) / 2
		h[i] = (float64(box.Max[i]) - float64(box.Min[i])) / 2
	}
	pad := satEpsilon * math.Max(h[0], math.Max(h[1], h[2]))
	if pad == 0 {
		pad = satEpsilon
	}
	for i := range h {
		h[i] += pad
	}

	var v [3]vec3d
	for k := 0; k < 3; k++ {
		for i := 0; i < 3; i++ {
			v[k][i] = float64(tri[k][i]) - c[i]
		}
	}

	// box normals
	for i := 0; i < 3; i++ {
		lo := math.Min(v[0][i], math.Min(v[1][i], v[2][i]))
		hi := math.Max(v[0][i], math.Max(v[1][i], v[2][i]))
		if lo > h[i] || hi < -h[i] {
			return false
		}
	}

	edges := [3]vec3d{v[1].sub(v[0]), v[2].sub(v[1]), v[0].sub(v[2])}
	units := [3]vec3d{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	for _, e := range edges {
		for _, u := range units {
			if separated(u.cross(e), v, h) {
				return false
			}
		}
	}

	return !separated(edges[0].cross(edges[1]), v, h)
}

// separated projects the triangle and the box onto axis and reports a gap.
// A zero axis never separates.
func separated(axis vec3d, v [3]vec3d, h vec3d) bool {
	p0, p1, p2 := v[0].dot(axis), v[1].dot(axis), v[2].dot(axis)
	r := h[0]*math.Abs(axis[0]) + h[1]*math.Abs(axis[1]) + h[2]*math.Abs(axis[2])
	lo := math.Min(p0, math.Min(p1, p2))
	hi := math.Max(p0, math.Max(p1, p2))
	return lo > r || hi < -r
}
