package utils

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/voxelsplace/svo/internal/config"
	"github.com/voxelsplace/svo/svo"
)

// sphereSegments keeps the tessellation error below a voxel for the radii
// svotool is used with.
const sphereSegments = 24

// SphereScene places count spheres of the given radius. The first sphere sits
// at the origin; the others are scattered in a cube sized to hold them all,
// from a seeded generator so scenes can be reproduced.
func SphereScene(count int, radius float32, seed int64) []svo.VoxelizedMesh {
	if count < 1 {
		count = 1
	}
	r := rand.New(rand.NewSource(seed))
	extent := 4 * radius * float32(math.Ceil(math.Cbrt(float64(count))))

	meshes := make([]svo.VoxelizedMesh, 0, count)
	meshes = append(meshes, svo.SphereMesh(mgl32.Vec3{}, radius, sphereSegments))
	for i := 1; i < count; i++ {
		center := mgl32.Vec3{
			(r.Float32() - 0.5) * extent,
			(r.Float32() - 0.5) * extent,
			(r.Float32() - 0.5) * extent,
		}
		meshes = append(meshes, svo.SphereMesh(center, radius, sphereSegments))
	}
	return meshes
}

// RunSpheres voxelizes a sphere scene into outFile.
func RunSpheres(outFile string, count int, radius float32, seed int64, cfg *config.Config, log *zap.Logger) error {
	if !(radius > 0) {
		return fmt.Errorf("sphere radius must be positive, got %v", radius)
	}
	opts, err := cfg.BuilderOptions(log)
	if err != nil {
		return err
	}
	b := svo.NewBuilder(cfg.Build.VoxelSize, opts...)
	for _, m := range SphereScene(count, radius, seed) {
		b.AddMesh(m)
	}
	log.Debug("sphere scene", zap.Int("spheres", count), zap.Float32("radius", radius), zap.Int64("seed", seed))
	return buildAndSave(b, outFile, cfg, log)
}
