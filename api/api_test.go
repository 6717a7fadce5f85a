package api

import (
	"bytes"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/voxelsplace/svo/meshio"
	"github.com/voxelsplace/svo/svo"
)

func unitCubeGLB(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	box := svo.BoxMesh(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 1, 1})
	require.NoError(t, meshio.WriteGLB(&buf, box.Triangles))
	return buf.Bytes()
}

// brokenBoxGLB encodes a box mesh next to a primitive whose index count is not
// a multiple of three.
func brokenBoxGLB(t *testing.T, min, max mgl32.Vec3) []byte {
	t.Helper()
	doc := gltf.NewDocument()
	var pos [][3]float32
	var idx []uint32
	for _, tri := range svo.BoxMesh(min, max).Triangles {
		for _, p := range tri {
			idx = append(idx, uint32(len(pos)))
			pos = append(pos, [3]float32(p))
		}
	}
	attrs, err := modeler.WritePrimitiveAttributes(doc, modeler.PrimitiveAttribute{Name: gltf.POSITION, Data: pos})
	require.NoError(t, err)
	doc.Meshes = []*gltf.Mesh{{Name: "box", Primitives: []*gltf.Primitive{
		{Attributes: attrs, Indices: gltf.Index(modeler.WriteIndices(doc, idx))},
		{Attributes: attrs, Indices: gltf.Index(modeler.WriteIndices(doc, []uint32{0, 1}))},
	}}}

	var buf bytes.Buffer
	enc := gltf.NewEncoder(&buf)
	enc.AsBinary = true
	require.NoError(t, enc.Encode(doc))
	return buf.Bytes()
}

func unitCubeSVO(t *testing.T) []byte {
	t.Helper()
	out, err := VoxelizeGLB(unitCubeGLB(t), BuildParams{VoxelSize: 1, MaxDepth: 3, Compression: "zstd"})
	require.NoError(t, err)
	return out
}

func TestVoxelizeAndInfo(t *testing.T) {
	info, err := SVOInfo(unitCubeSVO(t))
	require.NoError(t, err)
	assert.Equal(t, 17, info.Nodes)
	assert.Equal(t, 15, info.Leaves)
	assert.Equal(t, 1, info.Solid)
	assert.Equal(t, 14, info.Empty)
	assert.Equal(t, uint8(3), info.MaxDepth)
	assert.Equal(t, "face6", info.Connectivity)
	assert.NotEmpty(t, info.ID)
	assert.Contains(t, []string{"none", "zstd"}, info.Compression)
}

func TestFindNode(t *testing.T) {
	data := unitCubeSVO(t)

	info, ok, err := FindNode(data, 1, 1, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(64), info.Code)
	assert.Equal(t, "solid", info.State)
	assert.Equal(t, float32(2), info.Edge)
	assert.Equal(t, [3]float32{1, 1, 1}, info.Center)

	info, ok, err = FindNode(data, 3, 1, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(65), info.Code)
	assert.Equal(t, "empty", info.State)
	assert.ElementsMatch(t, []uint64{9, 69, 67}, info.Successors)

	_, ok, err = FindNode(data, -1, 0, 0)
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = FindNode([]byte("junk"), 0, 0, 0)
	assert.Error(t, err)
}

func TestSVOToGLB(t *testing.T) {
	data := unitCubeSVO(t)

	glb, err := SVOToGLB(data, "solid")
	require.NoError(t, err)
	tris, err := meshio.ReadGLTF(bytes.NewReader(glb))
	require.NoError(t, err)
	assert.Len(t, tris, 12)

	_, err = SVOToGLB(data, "subdivided")
	assert.Error(t, err)
}

func TestVoxelizeGLBsMergesModels(t *testing.T) {
	var far bytes.Buffer
	box := svo.BoxMesh(mgl32.Vec3{6, 6, 6}, mgl32.Vec3{7, 7, 7})
	require.NoError(t, meshio.WriteGLB(&far, box.Triangles))

	out, err := VoxelizeGLBs(map[string][]byte{
		"a.glb": unitCubeGLB(t),
		"b.glb": far.Bytes(),
	}, BuildParams{VoxelSize: 1, Connectivity: "26"})
	require.NoError(t, err)

	for _, p := range [][3]float32{{0.5, 0.5, 0.5}, {6.5, 6.5, 6.5}} {
		info, ok, err := FindNode(out, p[0], p[1], p[2])
		require.NoError(t, err)
		require.True(t, ok, p)
		assert.Equal(t, "solid", info.State, p)
	}
}

func TestVoxelizeKeepsReadablePrimitives(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	out, err := VoxelizeGLB(brokenBoxGLB(t, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 1, 1}),
		BuildParams{VoxelSize: 1, MaxDepth: 3, Logger: zap.New(core)})
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("broken primitives skipped").Len())

	info, err := SVOInfo(out)
	require.NoError(t, err)
	assert.Equal(t, 1, info.Solid)

	_, err = VoxelizeGLB(brokenBoxGLB(t, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 1, 1}), BuildParams{VoxelSize: 1})
	assert.NoError(t, err, "nil logger")
}

func TestVoxelizeErrors(t *testing.T) {
	_, err := VoxelizeGLBs(nil, BuildParams{VoxelSize: 1})
	assert.Error(t, err)

	_, err = VoxelizeGLB([]byte("not gltf"), BuildParams{VoxelSize: 1})
	assert.Error(t, err)

	_, err = VoxelizeGLB(unitCubeGLB(t), BuildParams{VoxelSize: 0})
	assert.ErrorIs(t, err, svo.ErrInvalidVoxelSize)

	_, err = VoxelizeGLB(unitCubeGLB(t), BuildParams{VoxelSize: 1, Connectivity: "hex"})
	assert.Error(t, err)

	_, err = VoxelizeGLB(unitCubeGLB(t), BuildParams{VoxelSize: 1, Compression: "lz4"})
	assert.Error(t, err)
}
