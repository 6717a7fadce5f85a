package utils

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/voxelsplace/svo/internal/config"
	"github.com/voxelsplace/svo/meshio"
	"github.com/voxelsplace/svo/svo"
	"github.com/voxelsplace/svo/svofile"
)

// RunVoxelize loads every .gltf/.glb input in parallel, voxelizes them into a
// single octree and writes it to outFile. A model whose broken primitives
// leave some triangles readable is kept with a warning.
func RunVoxelize(outFile string, inputFiles []string, cfg *config.Config, log *zap.Logger) error {
	if len(inputFiles) == 0 {
		return fmt.Errorf("no model files provided")
	}
	type item struct {
		mesh svo.VoxelizedMesh
		err  error
	}
	items := make([]item, len(inputFiles))

	start := time.Now()
	var wg sync.WaitGroup
	for i := range inputFiles {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tris, err := meshio.LoadGLTF(inputFiles[i])
			items[i] = item{mesh: svo.VoxelizedMesh{Triangles: tris}, err: err}
		}(i)
	}
	wg.Wait()

	opts, err := cfg.BuilderOptions(log)
	if err != nil {
		return err
	}
	b := svo.NewBuilder(cfg.Build.VoxelSize, opts...)
	for i, it := range items {
		if it.err != nil {
			if len(it.mesh.Triangles) == 0 {
				return it.err
			}
			log.Warn("broken primitives skipped",
				zap.String("file", filepath.Base(inputFiles[i])),
				zap.Error(it.err))
		}
		b.AddMesh(it.mesh)
		log.Debug("model loaded",
			zap.String("file", filepath.Base(inputFiles[i])),
			zap.Int("triangles", len(it.mesh.Triangles)))
	}
	log.Debug("models loaded", zap.Int("files", len(inputFiles)), zap.Duration("took", time.Since(start)))

	return buildAndSave(b, outFile, cfg, log)
}

// buildAndSave builds the tree and writes it with the configured codec.
func buildAndSave(b *svo.Builder, outFile string, cfg *config.Config, log *zap.Logger) error {
	comp, err := cfg.Compression()
	if err != nil {
		return err
	}
	tree, err := b.Build()
	if err != nil {
		return err
	}
	if err := svofile.Save(outFile, tree, comp); err != nil {
		return err
	}
	st := tree.Stats()
	log.Info("octree written",
		zap.String("file", outFile),
		zap.Stringer("id", tree.ID()),
		zap.Int("triangles", st.Triangles),
		zap.Int("nodes", st.Nodes),
		zap.Int("solid", st.Solid),
		zap.Int("empty", st.Empty),
		zap.Uint8("depth", st.Depth),
		zap.Duration("build", st.Duration))
	return nil
}
