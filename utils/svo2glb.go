package utils

import (
	"os"

	"github.com/voxelsplace/svo/meshio"
	"github.com/voxelsplace/svo/svo"
	"github.com/voxelsplace/svo/svofile"
)

// RunSVO2GLB renders the leaves of an .svo file in the given state as a .glb.
func RunSVO2GLB(inPath, outPath, state string) error {
	s, err := svo.ParseLeafState(state)
	if err != nil {
		return err
	}
	tree, err := svofile.Load(inPath)
	if err != nil {
		return err
	}
	glb, err := meshio.LeavesToGLB(tree, s)
	if err != nil {
		return err
	}
	return os.WriteFile(outPath, glb, 0o644)
}
