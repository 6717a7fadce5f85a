package svo

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/voxelsplace/svo/geom"
	"github.com/voxelsplace/svo/morton"
)

// unitCube is the cube [0,1]^3 voxelized at 1 with depth 3, a root of edge 8.
func unitCube(t *testing.T, opts ...Option) *Octree {
	t.Helper()
	b := NewBuilder(1, append([]Option{WithMaxDepth(3)}, opts...)...)
	b.AddMesh(BoxMesh(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 1, 1}))
	tree, err := b.Build()
	require.NoError(t, err)
	return tree
}

func sphereTree(t *testing.T, opts ...Option) *Octree {
	t.Helper()
	base := []Option{WithBounds(mgl32.Vec3{-8, -8, -8}, mgl32.Vec3{8, 8, 8})}
	b := NewBuilder(0.5, append(base, opts...)...)
	b.AddMesh(SphereMesh(mgl32.Vec3{0, 0, 0}, 4, 16))
	tree, err := b.Build()
	require.NoError(t, err)
	return tree
}

func TestBuildUnitCube(t *testing.T) {
	tree := unitCube(t)

	assert.Equal(t, 17, tree.NodeCount())
	assert.Equal(t, 15, tree.LeafCount())
	assert.Equal(t, mgl32.Vec3{0, 0, 0}, tree.Origin())
	assert.Equal(t, uint8(3), tree.MaxDepth())
	assert.Equal(t, float32(8), tree.EdgeLength(morton.Root))

	solid := morton.Code(0b1_000_000) // root > octant 0 > octant 0
	for _, n := range tree.Leaves() {
		if n.Code == solid {
			assert.Equal(t, Solid, n.State)
		} else {
			assert.Equal(t, Empty, n.State, "leaf %v", n.Code)
		}
	}
	b := tree.CellBounds(solid)
	assert.Equal(t, mgl32.Vec3{0, 0, 0}, b.Min)
	assert.Equal(t, mgl32.Vec3{2, 2, 2}, b.Max)

	// voxels sharing only the faces x=1, y=1 or z=1 with the cube count as touched
	c, ok := tree.FindNode(mgl32.Vec3{1.5, 0.5, 0.5})
	require.True(t, ok)
	assert.Equal(t, solid, c)

	st := tree.Stats()
	assert.Equal(t, 12, st.Triangles)
	assert.Equal(t, 0, st.ClippedTriangles)
	assert.Equal(t, 1, st.Solid)
	assert.Equal(t, 14, st.Empty)
	assert.Equal(t, uint8(2), st.Depth)
	assert.NoError(t, tree.Validate())
}

func TestBuildInteriorCubeStaysInOneVoxel(t *testing.T) {
	b := NewBuilder(1, WithMaxDepth(3))
	b.AddMesh(BoxMesh(mgl32.Vec3{0.25, 0.25, 0.25}, mgl32.Vec3{0.75, 0.75, 0.75}))
	tree, err := b.Build()
	require.NoError(t, err)

	assert.Equal(t, 25, tree.NodeCount())
	assert.Equal(t, 1, tree.Stats().Solid)

	c, ok := tree.FindNode(mgl32.Vec3{0.5, 0.5, 0.5})
	require.True(t, ok)
	assert.Equal(t, uint8(3), c.Depth())
	assert.True(t, tree.IsOccupied(c))

	c, ok = tree.FindNode(mgl32.Vec3{1.5, 0.5, 0.5})
	require.True(t, ok)
	assert.False(t, tree.IsOccupied(c))
}

func TestBuildEmpty(t *testing.T) {
	tree, err := NewBuilder(1).Build()
	require.NoError(t, err)
	assert.Equal(t, 1, tree.NodeCount())
	n, ok := tree.Get(morton.Root)
	require.True(t, ok)
	assert.Equal(t, Empty, n.State)

	c, ok := tree.FindNode(mgl32.Vec3{0.5, 0.5, 0.5})
	require.True(t, ok)
	assert.Equal(t, morton.Root, c)

	tree, err = NewBuilder(2, WithMaxDepth(4)).Build()
	require.NoError(t, err)
	assert.Equal(t, 1, tree.NodeCount())
	c, ok = tree.FindNode(mgl32.Vec3{20, 3, 31})
	require.True(t, ok)
	assert.Equal(t, morton.Root, c)
	assert.Empty(t, tree.Successors(morton.Root))
}

func TestBuildErrors(t *testing.T) {
	for _, v := range []float32{0, -1, float32(math.NaN()), float32(math.Inf(1))} {
		_, err := NewBuilder(v).Build()
		assert.ErrorIs(t, err, ErrInvalidVoxelSize, "voxel size %v", v)
	}

	_, err := NewBuilder(1, WithMaxDepth(morton.MaxDepth+1)).Build()
	assert.ErrorIs(t, err, ErrOutOfBounds)

	inverted := NewBuilder(1, WithBounds(mgl32.Vec3{4, 0, 0}, mgl32.Vec3{0, 4, 4}))
	inverted.AddMesh(BoxMesh(mgl32.Vec3{1, 1, 1}, mgl32.Vec3{2, 2, 2}))
	_, err = inverted.Build()
	assert.ErrorIs(t, err, ErrOutOfBounds, "min above max on x")

	b := NewBuilder(1)
	_, err = b.Build()
	require.NoError(t, err)
	_, err = b.Build()
	assert.ErrorIs(t, err, ErrBuilderConsumed)
}

func TestBuildFitsDepthAndSnapsOrigin(t *testing.T) {
	b := NewBuilder(0.5)
	b.AddMesh(BoxMesh(mgl32.Vec3{0.7, -1.2, 3}, mgl32.Vec3{3.1, 0.4, 4}))
	tree, err := b.Build()
	require.NoError(t, err)

	assert.Equal(t, mgl32.Vec3{0.5, -1.5, 3}, tree.Origin())
	// extent 2.6 needs 0.5 * 2^3 = 4
	assert.Equal(t, uint8(3), tree.MaxDepth())
	assert.NoError(t, tree.Validate())
}

func TestAddMeshAppliesOrigin(t *testing.T) {
	m := BoxMesh(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 1, 1})
	m.Origin = mgl32.Vec3{4, 4, 4}

	b := NewBuilder(1, WithMaxDepth(3), WithBounds(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{8, 8, 8}))
	b.AddMesh(m)
	tree, err := b.Build()
	require.NoError(t, err)

	c, ok := tree.FindNode(mgl32.Vec3{4.5, 4.5, 4.5})
	require.True(t, ok)
	n, _ := tree.Get(c)
	assert.Equal(t, Solid, n.State)

	c, ok = tree.FindNode(mgl32.Vec3{0.5, 0.5, 0.5})
	require.True(t, ok)
	n, _ = tree.Get(c)
	assert.Equal(t, Empty, n.State)
}

func TestBuildClipsOutsideTriangles(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	b := NewBuilder(1,
		WithMaxDepth(2),
		WithBounds(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{4, 4, 4}),
		WithLogger(zap.New(core)))
	b.AddMesh(BoxMesh(mgl32.Vec3{1, 1, 1}, mgl32.Vec3{2, 2, 2}))
	b.AddMesh(BoxMesh(mgl32.Vec3{10, 10, 10}, mgl32.Vec3{11, 11, 11}))

	tree, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, 24, tree.Stats().Triangles)
	assert.Equal(t, 12, tree.Stats().ClippedTriangles)
	assert.True(t, tree.IsOccupied(morton.Root))

	entries := logs.FilterMessage("triangles outside the octree volume were clipped").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(12), entries[0].ContextMap()["clipped"])
}

func TestBuildSparsity(t *testing.T) {
	tree := sphereTree(t)
	require.NoError(t, tree.Validate())

	tree.PreOrder(func(n Node) bool {
		if n.State != Subdivided {
			return true
		}
		kids, err := tree.Children(n.Code)
		require.NoError(t, err)
		var states [8]State
		for i, k := range kids {
			kn, ok := tree.Get(k)
			require.True(t, ok)
			states[i] = kn.State
		}
		assert.False(t, uniform(states), "node %v is redundant", n.Code)
		return true
	})
}

func TestBuildConservativeCoverage(t *testing.T) {
	mesh := SphereMesh(mgl32.Vec3{0, 0, 0}, 4, 16)
	tree := sphereTree(t)

	samples := [][2]float32{{0, 0}, {1, 0}, {0, 1}, {1.0 / 3, 1.0 / 3}, {0.5, 0.5}, {0.1, 0.7}}
	for _, tri := range mesh.Triangles {
		tri = tri.Translate(mesh.Origin)
		for _, s := range samples {
			p := tri.Lerp(s[0], s[1])
			c, ok := tree.FindNode(p)
			require.True(t, ok, "point %v", p)
			n, _ := tree.Get(c)
			require.Equal(t, Solid, n.State, "point %v in %v", p, c)
		}
	}
}

func TestSphereMesh(t *testing.T) {
	m := SphereMesh(mgl32.Vec3{1, 2, 3}, 2, 8)
	assert.Len(t, m.Triangles, 2*8*16-2*16)
	for _, tri := range m.Triangles {
		for _, p := range tri {
			assert.InDelta(t, 2, p.Len(), 1e-4)
		}
	}
	b := m.Bounds()
	assert.InDelta(t, -1, b.Min[0], 1e-4)
	assert.InDelta(t, 5, b.Max[2], 1e-4)

	assert.Len(t, SphereMesh(mgl32.Vec3{}, 1, 0).Triangles, 2*3*6-2*6)
}

func TestBoxMeshFacesOutward(t *testing.T) {
	m := BoxMesh(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{2, 2, 2})
	require.Len(t, m.Triangles, 12)
	center := mgl32.Vec3{1, 1, 1}
	for _, tri := range m.Triangles {
		out := tri.Centroid().Sub(center)
		assert.Greater(t, tri.Normal().Dot(out), float32(0), "triangle %v", tri)
	}
	assert.Equal(t, geom.AABB{Min: mgl32.Vec3{0, 0, 0}, Max: mgl32.Vec3{2, 2, 2}}, m.Bounds())
}
