package geom

import "github.com/go-gl/mathgl/mgl32"

// Triangle is three points in winding order.
type Triangle [3]mgl32.Vec3

func (t Triangle) Bounds() AABB {
	return EmptyAABB().Extend(t[0]).Extend(t[1]).Extend(t[2])
}

// Normal returns the unit normal, or the zero vector for a degenerate triangle.
func (t Triangle) Normal() mgl32.Vec3 {
	n := t[1].Sub(t[0]).Cross(t[2].Sub(t[0]))
	if l := n.Len(); l > 0 {
		return n.Mul(1 / l)
	}
	return mgl32.Vec3{}
}

func (t Triangle) Translate(offset mgl32.Vec3) Triangle {
	return Triangle{t[0].Add(offset), t[1].Add(offset), t[2].Add(offset)}
}

// Centroid is the mean of the three vertices.
func (t Triangle) Centroid() mgl32.Vec3 {
	return t[0].Add(t[1]).Add(t[2]).Mul(1.0 / 3)
}

// Lerp returns the point u*t[1] + v*t[2] + (1-u-v)*t[0]. With u, v >= 0 and
// u+v <= 1 the point lies on the triangle.
func (t Triangle) Lerp(u, v float32) mgl32.Vec3 {
	return t[0].Mul(1 - u - v).Add(t[1].Mul(u)).Add(t[2].Mul(v))
}
