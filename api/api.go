// Package api exposes byte in, byte out conversions for embedding svotool in
// other programs, including the WebAssembly build.
package api

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/voxelsplace/svo/meshio"
	"github.com/voxelsplace/svo/morton"
	"github.com/voxelsplace/svo/svo"
	"github.com/voxelsplace/svo/svofile"
)

// BuildParams selects how meshes are voxelized and stored.
type BuildParams struct {
	VoxelSize float32
	// MaxDepth 0 fits the depth to the scene.
	MaxDepth     uint8
	Connectivity string
	Compression  string
	Logger       *zap.Logger
}

// VoxelizeGLB builds an octree from one .glb or embedded .gltf blob and
// returns it as .svo bytes.
func VoxelizeGLB(glb []byte, p BuildParams) ([]byte, error) {
	return VoxelizeGLBs(map[string][]byte{"mesh": glb}, p)
}

// VoxelizeGLBs voxelizes several models into one tree. Models are added in
// name order so the output does not depend on map iteration. Primitives that
// fail to read are logged and skipped as long as the model yields triangles.
func VoxelizeGLBs(files map[string][]byte, p BuildParams) ([]byte, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no files")
	}
	conn, err := svo.ParseConnectivity(p.Connectivity)
	if err != nil {
		return nil, err
	}
	comp, err := svofile.ParseCompression(p.Compression)
	if err != nil {
		return nil, err
	}

	opts := []svo.Option{svo.WithConnectivity(conn), svo.WithLogger(p.Logger)}
	if p.MaxDepth > 0 {
		opts = append(opts, svo.WithMaxDepth(p.MaxDepth))
	}
	b := svo.NewBuilder(p.VoxelSize, opts...)
	log := p.Logger
	if log == nil {
		log = zap.NewNop()
	}

	names := lo.Keys(files)
	slices.Sort(names)
	for _, name := range names {
		tris, err := meshio.ReadGLTF(bytes.NewReader(files[name]))
		if err != nil {
			if len(tris) == 0 {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			log.Warn("broken primitives skipped", zap.String("file", name), zap.Error(err))
		}
		b.AddMesh(svo.VoxelizedMesh{Triangles: tris})
	}

	tree, err := b.Build()
	if err != nil {
		return nil, err
	}
	return svofile.Encode(tree, comp)
}

// SVOToGLB renders the leaves of an .svo blob in the given state ("solid" or
// "empty") as a .glb.
func SVOToGLB(svoBytes []byte, state string) ([]byte, error) {
	s, err := svo.ParseLeafState(state)
	if err != nil {
		return nil, err
	}
	tree, err := svofile.Decode(svoBytes)
	if err != nil {
		return nil, err
	}
	return meshio.LeavesToGLB(tree, s)
}

// Info summarizes an .svo blob.
type Info struct {
	ID           string     `json:"id"`
	VoxelSize    float32    `json:"voxelSize"`
	MaxDepth     uint8      `json:"maxDepth"`
	Origin       [3]float32 `json:"origin"`
	Connectivity string     `json:"connectivity"`
	Compression  string     `json:"compression"`
	Nodes        int        `json:"nodes"`
	Leaves       int        `json:"leaves"`
	Solid        int        `json:"solid"`
	Empty        int        `json:"empty"`
	Depth        uint8      `json:"depth"`
	Bytes        int        `json:"bytes"`
}

// SVOInfo decodes an .svo blob and reports its header and node counts.
func SVOInfo(svoBytes []byte) (Info, error) {
	hdr, err := svofile.ReadHeader(svoBytes)
	if err != nil {
		return Info{}, err
	}
	tree, err := svofile.Decode(svoBytes)
	if err != nil {
		return Info{}, err
	}
	st := tree.Stats()
	return Info{
		ID:           tree.ID().String(),
		VoxelSize:    tree.VoxelSize(),
		MaxDepth:     tree.MaxDepth(),
		Origin:       tree.Origin(),
		Connectivity: tree.Connectivity().String(),
		Compression:  hdr.Compression.String(),
		Nodes:        st.Nodes,
		Leaves:       st.Leaves,
		Solid:        st.Solid,
		Empty:        st.Empty,
		Depth:        st.Depth,
		Bytes:        len(svoBytes),
	}, nil
}

// NodeInfo describes the leaf containing a point.
type NodeInfo struct {
	Code       uint64     `json:"code"`
	Name       string     `json:"name"`
	State      string     `json:"state"`
	Center     [3]float32 `json:"center"`
	Edge       float32    `json:"edge"`
	Successors []uint64   `json:"successors"`
}

// FindNode locates the leaf containing (x, y, z) in an .svo blob and lists
// its free neighbours. ok is false when the point lies outside the tree.
func FindNode(svoBytes []byte, x, y, z float32) (info NodeInfo, ok bool, err error) {
	tree, err := svofile.Decode(svoBytes)
	if err != nil {
		return NodeInfo{}, false, err
	}
	info, ok = Describe(tree, mgl32.Vec3{x, y, z})
	return info, ok, nil
}

// Describe is FindNode on a decoded tree.
func Describe(tree *svo.Octree, p mgl32.Vec3) (NodeInfo, bool) {
	c, ok := tree.FindNode(p)
	if !ok {
		return NodeInfo{}, false
	}
	n, _ := tree.Get(c)
	return NodeInfo{
		Code:   uint64(c),
		Name:   c.String(),
		State:  n.State.String(),
		Center: tree.Center(c),
		Edge:   tree.EdgeLength(c),
		Successors: lo.Map(tree.Successors(c), func(s morton.Code, _ int) uint64 {
			return uint64(s)
		}),
	}, true
}
