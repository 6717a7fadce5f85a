package svo

import (
	"fmt"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/voxelsplace/svo/geom"
	"github.com/voxelsplace/svo/morton"
)

// Option configures a Builder.
type Option func(*Builder)

// WithMaxDepth fixes the tree depth instead of deriving it from the bounds.
func WithMaxDepth(d uint8) Option {
	return func(b *Builder) {
		b.maxDepth = d
		b.maxDepthSet = true
	}
}

// WithBounds sets the volume to voxelize. Geometry outside it is clipped.
func WithBounds(min, max mgl32.Vec3) Option {
	return func(b *Builder) {
		b.bounds = geom.AABB{Min: min, Max: max}
		b.boundsSet = true
	}
}

// WithConnectivity sets the default neighbourhood used by Successors.
func WithConnectivity(c Connectivity) Option {
	return func(b *Builder) { b.connectivity = c }
}

func WithLogger(l *zap.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.log = l
		}
	}
}

// Builder voxelizes triangle meshes into an Octree. A Builder is single use.
type Builder struct {
	voxelSize    float32
	maxDepth     uint8
	maxDepthSet  bool
	bounds       geom.AABB
	boundsSet    bool
	connectivity Connectivity
	log          *zap.Logger

	triangles []geom.Triangle
	consumed  bool
}

func NewBuilder(voxelSize float32, opts ...Option) *Builder {
	b := &Builder{voxelSize: voxelSize, log: zap.NewNop()}
	for _, o := range opts {
		o(b)
	}
	return b
}

// AddMesh queues the triangles of m, moved by its origin. Meshes are
// concatenated, shared geometry is not deduplicated.
func (b *Builder) AddMesh(m VoxelizedMesh) {
	for _, t := range m.Triangles {
		b.triangles = append(b.triangles, t.Translate(m.Origin))
	}
}

// candidate is a triangle with its cached bounds.
type candidate struct {
	tri geom.Triangle
	box geom.AABB
}

// Build voxelizes every queued triangle and returns the finished tree.
func (b *Builder) Build() (*Octree, error) {
	if b.consumed {
		return nil, ErrBuilderConsumed
	}
	b.consumed = true
	if !validVoxelSize(b.voxelSize) {
		return nil, fmt.Errorf("voxel size %v: %w", b.voxelSize, ErrInvalidVoxelSize)
	}
	if b.maxDepthSet && b.maxDepth > morton.MaxDepth {
		return nil, fmt.Errorf("max depth %d: %w", b.maxDepth, ErrOutOfBounds)
	}
	if b.boundsSet && b.bounds.IsEmpty() {
		return nil, fmt.Errorf("inverted bounds %v: %w", b.bounds, ErrOutOfBounds)
	}
	start := time.Now()

	bounds := b.bounds
	if !b.boundsSet {
		bounds = geom.EmptyAABB()
		for _, t := range b.triangles {
			bounds = bounds.Union(t.Bounds())
		}
	}

	t := &Octree{
		params: Params{
			VoxelSize:    b.voxelSize,
			MaxDepth:     b.maxDepth,
			Connectivity: b.connectivity,
			ID:           uuid.New(),
		},
		nodes: make(map[morton.Code]State),
	}
	if !bounds.IsEmpty() {
		t.params.Origin = snap(bounds.Min, b.voxelSize)
		if !b.maxDepthSet {
			t.params.MaxDepth = b.fitDepth(t.params.Origin, bounds.Max)
		}
	}

	root := t.Bounds()
	cands := make([]candidate, 0, len(b.triangles))
	clipped := 0
	for _, tri := range b.triangles {
		c := candidate{tri: tri, box: tri.Bounds()}
		if !geom.AABBIntersectsAABB(c.box, pad(root)) || !geom.AABBIntersectsTriangle(root, tri) {
			clipped++
			continue
		}
		cands = append(cands, c)
	}
	if clipped > 0 {
		b.log.Warn("triangles outside the octree volume were clipped",
			zap.Int("clipped", clipped),
			zap.Int("triangles", len(b.triangles)),
			zap.Stringer("bounds", root))
	}

	t.nodes[morton.Root] = t.subdivide(morton.Root, cands)

	t.stats = t.countStats()
	t.stats.Triangles = len(b.triangles)
	t.stats.ClippedTriangles = clipped
	t.stats.Duration = time.Since(start)
	b.triangles = nil

	b.log.Debug("octree built",
		zap.Stringer("id", t.params.ID),
		zap.Int("triangles", t.stats.Triangles),
		zap.Int("nodes", t.stats.Nodes),
		zap.Int("leaves", t.stats.Leaves),
		zap.Int("solid", t.stats.Solid),
		zap.Uint8("max_depth", t.params.MaxDepth),
		zap.Duration("elapsed", t.stats.Duration))
	return t, nil
}

// subdivide classifies the cell c against the triangles touching it and
// returns its state. Children are stored only when c stays subdivided.
func (t *Octree) subdivide(c morton.Code, cands []candidate) State {
	if len(cands) == 0 {
		return Empty
	}
	if c.Depth() >= t.params.MaxDepth {
		return Solid
	}
	kids, err := morton.Children(c)
	if err != nil {
		return Solid
	}
	var states [8]State
	for i, k := range kids {
		box := t.CellBounds(k)
		reject := pad(box)
		sub := lo.Filter(cands, func(cd candidate, _ int) bool {
			return geom.AABBIntersectsAABB(cd.box, reject) && geom.AABBIntersectsTriangle(box, cd.tri)
		})
		states[i] = t.subdivide(k, sub)
	}
	if uniform(states) {
		return states[0]
	}
	for i, k := range kids {
		t.nodes[k] = states[i]
	}
	return Subdivided
}

// fitDepth returns the smallest depth whose root cube, placed at origin,
// reaches far on every axis.
func (b *Builder) fitDepth(origin, far mgl32.Vec3) uint8 {
	var extent float64
	for i := 0; i < 3; i++ {
		extent = math.Max(extent, float64(far[i])-float64(origin[i]))
	}
	for d := uint8(0); d < morton.MaxDepth; d++ {
		if math.Ldexp(float64(b.voxelSize), int(d)) >= extent {
			return d
		}
	}
	b.log.Warn("geometry exceeds the deepest octree, clamping",
		zap.Float64("extent", extent),
		zap.Float32("voxel_size", b.voxelSize))
	return morton.MaxDepth
}

// snap rounds p down to the voxel grid.
func snap(p mgl32.Vec3, voxel float32) mgl32.Vec3 {
	var out mgl32.Vec3
	for i := 0; i < 3; i++ {
		out[i] = float32(math.Floor(float64(p[i])/float64(voxel)) * float64(voxel))
	}
	return out
}

// pad widens a box by a tiny fraction of its size so the bounds reject never
// drops a triangle the exact test would keep.
func pad(b geom.AABB) geom.AABB {
	e := b.Size().Len() * 1e-5
	d := mgl32.Vec3{e, e, e}
	return geom.AABB{Min: b.Min.Sub(d), Max: b.Max.Add(d)}
}
