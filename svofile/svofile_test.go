package svofile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxelsplace/svo/svo"
)

func sphere(t *testing.T) *svo.Octree {
	t.Helper()
	b := svo.NewBuilder(0.25, svo.WithConnectivity(svo.Full26))
	b.AddMesh(svo.SphereMesh(mgl32.Vec3{1, -2, 0.5}, 2, 12))
	tree, err := b.Build()
	require.NoError(t, err)
	return tree
}

func requireSameTree(t *testing.T, want, got *svo.Octree) {
	t.Helper()
	require.Equal(t, want.Params(), got.Params())
	require.Equal(t, want.NodeCount(), got.NodeCount())
	require.Equal(t, want.Leaves(), got.Leaves())
}

func TestHeaderSize(t *testing.T) {
	assert.Equal(t, 60, HeaderSize)
}

func TestRoundTrip(t *testing.T) {
	tree := sphere(t)
	for _, comp := range []Compression{CompNone, CompZlib, CompZstd, CompAuto} {
		t.Run(comp.String(), func(t *testing.T) {
			data, err := Encode(tree, comp)
			require.NoError(t, err)

			hdr, err := ReadHeader(data)
			require.NoError(t, err)
			if comp != CompAuto {
				assert.Equal(t, comp, hdr.Compression)
			}
			assert.Equal(t, uint32(tree.NodeCount()), hdr.Nodes)
			assert.Equal(t, tree.ID(), hdr.ID)

			got, err := Decode(data)
			require.NoError(t, err)
			requireSameTree(t, tree, got)
			assert.Equal(t, svo.Full26, got.Connectivity())
		})
	}
}

func TestAutoPicksSmallest(t *testing.T) {
	tree := sphere(t)
	sizes := map[Compression]int{}
	for _, comp := range []Compression{CompNone, CompZlib, CompZstd} {
		data, err := Encode(tree, comp)
		require.NoError(t, err)
		sizes[comp] = len(data)
	}
	data, err := Encode(tree, CompAuto)
	require.NoError(t, err)
	for comp, n := range sizes {
		assert.LessOrEqual(t, len(data), n, comp.String())
	}
}

func TestRoundTripEmptyTree(t *testing.T) {
	tree, err := svo.NewBuilder(1, svo.WithMaxDepth(5)).Build()
	require.NoError(t, err)

	data, err := Encode(tree, CompNone)
	require.NoError(t, err)
	assert.Len(t, data, HeaderSize+1)

	got, err := Decode(data)
	require.NoError(t, err)
	requireSameTree(t, tree, got)
}

func TestDecodeRejectsCorruption(t *testing.T) {
	tree := sphere(t)
	data, err := Encode(tree, CompNone)
	require.NoError(t, err)

	corrupt := func(fn func(b []byte) []byte) []byte {
		b := append([]byte(nil), data...)
		return fn(b)
	}

	_, err = Decode(data[:10])
	assert.ErrorIs(t, err, ErrFormat, "short")

	_, err = Decode(corrupt(func(b []byte) []byte { b[0] = 'X'; return b }))
	assert.ErrorIs(t, err, ErrFormat, "magic")

	_, err = Decode(corrupt(func(b []byte) []byte { b[4] = 9; return b }))
	assert.ErrorIs(t, err, ErrFormat, "version")

	_, err = Decode(corrupt(func(b []byte) []byte { return b[:len(b)-1] }))
	assert.ErrorIs(t, err, ErrFormat, "truncated payload")

	_, err = Decode(corrupt(func(b []byte) []byte { b[len(b)-1] ^= 0x40; return b }))
	assert.ErrorIs(t, err, ErrChecksum, "flipped bit")

	_, err = Decode(corrupt(func(b []byte) []byte { b[5] = 7; return b }))
	assert.ErrorIs(t, err, ErrFormat, "unknown compression")
}

func TestSaveLoad(t *testing.T) {
	tree := sphere(t)
	path := filepath.Join(t.TempDir(), "sphere.svo")
	require.NoError(t, Save(path, tree, CompZstd))

	got, err := Load(path)
	require.NoError(t, err)
	requireSameTree(t, tree, got)

	c, ok := got.FindNode(mgl32.Vec3{1, -2, 0.5})
	require.True(t, ok)
	assert.Equal(t, tree.Successors(c), got.Successors(c))

	require.NoError(t, os.WriteFile(path, []byte("nope"), 0644))
	_, err = Load(path)
	assert.ErrorIs(t, err, ErrFormat)

	_, err = Load(filepath.Join(t.TempDir(), "missing.svo"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseCompression(t *testing.T) {
	for in, want := range map[string]Compression{"": CompNone, "zlib": CompZlib, "zstd": CompZstd, "auto": CompAuto} {
		got, err := ParseCompression(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseCompression("lz4")
	assert.Error(t, err)
}

func TestBitIO(t *testing.T) {
	w := newBitWriter(0)
	vals := []uint64{2, 0, 1, 1, 2, 0, 0, 2, 1}
	for _, v := range vals {
		w.writeBits(v, 2)
	}
	b := w.bytes()
	require.Len(t, b, 3)

	r := newBitReader(b)
	for _, v := range vals {
		got, err := r.readBits(2)
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
	assert.False(t, r.remaining())
	_, err := r.readBits(8)
	assert.Error(t, err)
}
