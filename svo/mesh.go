package svo

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/voxelsplace/svo/geom"
)

// VoxelizedMesh is builder input: triangles in local space plus the offset
// that moves them into the world.
type VoxelizedMesh struct {
	Triangles []geom.Triangle
	Origin    mgl32.Vec3
}

// Bounds is the world space box of the mesh.
func (m VoxelizedMesh) Bounds() geom.AABB {
	b := geom.EmptyAABB()
	for _, t := range m.Triangles {
		b = b.Union(t.Translate(m.Origin).Bounds())
	}
	return b
}

// SphereMesh tessellates a UV sphere around center. segments is the number of
// latitude bands; longitude uses twice as many. Values below 3 are raised to 3.
func SphereMesh(center mgl32.Vec3, radius float32, segments int) VoxelizedMesh {
	segments = max(segments, 3)
	rings, sectors := segments, 2*segments

	point := func(ring, sector int) mgl32.Vec3 {
		theta := math.Pi * float64(ring) / float64(rings)
		phi := 2 * math.Pi * float64(sector) / float64(sectors)
		r := float64(radius)
		return mgl32.Vec3{
			float32(r * math.Sin(theta) * math.Cos(phi)),
			float32(r * math.Cos(theta)),
			float32(r * math.Sin(theta) * math.Sin(phi)),
		}
	}

	tris := make([]geom.Triangle, 0, 2*rings*sectors)
	for ring := 0; ring < rings; ring++ {
		for sector := 0; sector < sectors; sector++ {
			a, b := point(ring, sector), point(ring, sector+1)
			c, d := point(ring+1, sector), point(ring+1, sector+1)
			if ring > 0 {
				tris = append(tris, geom.Triangle{a, c, b})
			}
			if ring < rings-1 {
				tris = append(tris, geom.Triangle{b, c, d})
			}
		}
	}
	return VoxelizedMesh{Triangles: tris, Origin: center}
}

// BoxMesh returns the 12 triangles of the surface of the box [min, max].
func BoxMesh(min, max mgl32.Vec3) VoxelizedMesh {
	corner := func(i int) mgl32.Vec3 {
		p := min
		for axis := 0; axis < 3; axis++ {
			if i&(1<<axis) != 0 {
				p[axis] = max[axis]
			}
		}
		return p
	}
	// quads as corner indices, bit 0 = x, bit 1 = y, bit 2 = z
	faces := [6][4]int{
		{0, 4, 6, 2}, // -x
		{1, 3, 7, 5}, // +x
		{0, 1, 5, 4}, // -y
		{2, 6, 7, 3}, // +y
		{0, 2, 3, 1}, // -z
		{4, 5, 7, 6}, // +z
	}
	tris := make([]geom.Triangle, 0, 12)
	for _, f := range faces {
		a, b, c, d := corner(f[0]), corner(f[1]), corner(f[2]), corner(f[3])
		tris = append(tris, geom.Triangle{a, b, c}, geom.Triangle{a, c, d})
	}
	return VoxelizedMesh{Triangles: tris}
}
