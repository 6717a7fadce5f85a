package utils

import (
	"fmt"
	"io"
	"os"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/voxelsplace/svo/api"
	"github.com/voxelsplace/svo/morton"
	"github.com/voxelsplace/svo/svofile"
)

// RunInfo prints the header and node counts of an .svo file.
func RunInfo(w io.Writer, inPath string) error {
	data, err := os.ReadFile(inPath)
	if err != nil {
		return err
	}
	info, err := api.SVOInfo(data)
	if err != nil {
		return fmt.Errorf("%s: %w", inPath, err)
	}
	fmt.Fprintf(w, "file:         %s (%d bytes, %s)\n", inPath, info.Bytes, info.Compression)
	fmt.Fprintf(w, "id:           %s\n", info.ID)
	fmt.Fprintf(w, "voxel size:   %g\n", info.VoxelSize)
	fmt.Fprintf(w, "max depth:    %d (deepest leaf %d)\n", info.MaxDepth, info.Depth)
	fmt.Fprintf(w, "origin:       %g %g %g\n", info.Origin[0], info.Origin[1], info.Origin[2])
	fmt.Fprintf(w, "connectivity: %s\n", info.Connectivity)
	fmt.Fprintf(w, "nodes:        %d\n", info.Nodes)
	fmt.Fprintf(w, "leaves:       %d (%d solid, %d empty)\n", info.Leaves, info.Solid, info.Empty)
	return nil
}

// RunFind prints the leaf containing p and its free neighbours.
func RunFind(w io.Writer, inPath string, p mgl32.Vec3) error {
	tree, err := svofile.Load(inPath)
	if err != nil {
		return err
	}
	info, ok := api.Describe(tree, p)
	if !ok {
		return fmt.Errorf("point %v is outside the octree %v", p, tree.Bounds())
	}
	fmt.Fprintf(w, "%s %s center=%v edge=%g\n", info.Name, info.State, info.Center, info.Edge)
	for _, s := range info.Successors {
		c := morton.Code(s)
		fmt.Fprintf(w, "  -> %s center=%v\n", c, tree.Center(c))
	}
	if len(info.Successors) == 0 {
		fmt.Fprintln(w, "  no free neighbours")
	}
	return nil
}
