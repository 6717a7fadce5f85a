// Package svo builds and queries sparse voxel octrees used as navigation
// volumes.
//
// Nodes are stored in a flat map keyed by their locational code. Only the
// root and the eight children of every subdivided node are materialized, so
// neighbour lookups are hash probes instead of pointer walks.
package svo

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/multierr"

	"github.com/voxelsplace/svo/geom"
	"github.com/voxelsplace/svo/morton"
)

var (
	// ErrOutOfBounds is returned for codes that are not part of the tree.
	ErrOutOfBounds = morton.ErrOutOfBounds
	// ErrInvalidState is returned when a structural query does not match the
	// state of the node, and for trees that break the structural invariants.
	ErrInvalidState = errors.New("svo: invalid node state")
	// ErrInvalidVoxelSize is returned for a voxel size that is not a finite
	// positive number.
	ErrInvalidVoxelSize = errors.New("svo: invalid voxel size")
	// ErrBuilderConsumed is returned by a second call to Builder.Build.
	ErrBuilderConsumed = errors.New("svo: builder already consumed")
)

// Params are the scalar properties of a tree.
type Params struct {
	VoxelSize    float32
	MaxDepth     uint8
	Origin       mgl32.Vec3
	Connectivity Connectivity
	ID           uuid.UUID
}

// BuildStats summarizes a tree and, for built trees, the build itself.
type BuildStats struct {
	Triangles        int
	ClippedTriangles int
	Nodes            int
	Leaves           int
	Solid            int
	Empty            int
	Depth            uint8
	Duration         time.Duration
}

// Octree is an immutable sparse voxel octree. It is safe for concurrent use
// by multiple readers.
type Octree struct {
	params Params
	nodes  map[morton.Code]State
	stats  BuildStats
}

// NewOctree assembles a tree from stored nodes and validates it.
func NewOctree(p Params, nodes map[morton.Code]State) (*Octree, error) {
	t := &Octree{params: p, nodes: nodes}
	if t.nodes == nil {
		t.nodes = map[morton.Code]State{}
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	t.stats = t.countStats()
	return t, nil
}

func validVoxelSize(v float32) bool {
	f := float64(v)
	return f > 0 && !math.IsInf(f, 0) && !math.IsNaN(f)
}

// Validate checks the structural invariants: the root exists, subdivided
// nodes have all eight children, every other node hangs below a subdivided
// parent, no node is deeper than MaxDepth and no subdivided node has eight
// identical leaf children. All violations are reported.
func (t *Octree) Validate() error {
	var errs error
	if !validVoxelSize(t.params.VoxelSize) {
		errs = multierr.Append(errs, fmt.Errorf("voxel size %v: %w", t.params.VoxelSize, ErrInvalidVoxelSize))
	}
	if t.params.MaxDepth > morton.MaxDepth {
		errs = multierr.Append(errs, fmt.Errorf("max depth %d: %w", t.params.MaxDepth, ErrOutOfBounds))
	}
	if _, ok := t.nodes[morton.Root]; !ok {
		return multierr.Append(errs, fmt.Errorf("missing root: %w", ErrInvalidState))
	}

	codes := lo.Keys(t.nodes)
	slices.Sort(codes)
	for _, c := range codes {
		s := t.nodes[c]
		if !c.Valid() || c.Depth() > t.params.MaxDepth {
			errs = multierr.Append(errs, fmt.Errorf("node %v deeper than max depth %d: %w", c, t.params.MaxDepth, ErrOutOfBounds))
			continue
		}
		if s > Subdivided {
			errs = multierr.Append(errs, fmt.Errorf("node %v has %v: %w", c, s, ErrInvalidState))
			continue
		}
		if c != morton.Root {
			p, _ := morton.Parent(c)
			if ps, ok := t.nodes[p]; !ok || ps != Subdivided {
				errs = multierr.Append(errs, fmt.Errorf("node %v has no subdivided parent: %w", c, ErrInvalidState))
			}
		}
		if s != Subdivided {
			continue
		}
		if c.Depth() >= t.params.MaxDepth {
			errs = multierr.Append(errs, fmt.Errorf("node %v subdivided at max depth: %w", c, ErrInvalidState))
			continue
		}
		kids, _ := morton.Children(c)
		var states [8]State
		complete := true
		for i, k := range kids {
			ks, ok := t.nodes[k]
			if !ok {
				errs = multierr.Append(errs, fmt.Errorf("node %v misses child %d: %w", c, i, ErrInvalidState))
				complete = false
				break
			}
			states[i] = ks
		}
		if complete && uniform(states) {
			errs = multierr.Append(errs, fmt.Errorf("node %v has eight %v children: %w", c, states[0], ErrInvalidState))
		}
	}
	return errs
}

// uniform reports whether all states are the same leaf state.
func uniform(states [8]State) bool {
	if !states[0].Leaf() {
		return false
	}
	for _, s := range states[1:] {
		if s != states[0] {
			return false
		}
	}
	return true
}

func (t *Octree) countStats() BuildStats {
	st := BuildStats{Nodes: len(t.nodes)}
	for c, s := range t.nodes {
		if !s.Leaf() {
			continue
		}
		st.Leaves++
		if s == Solid {
			st.Solid++
		} else {
			st.Empty++
		}
		st.Depth = max(st.Depth, c.Depth())
	}
	return st
}

func (t *Octree) Params() Params             { return t.params }
func (t *Octree) VoxelSize() float32         { return t.params.VoxelSize }
func (t *Octree) MaxDepth() uint8            { return t.params.MaxDepth }
func (t *Octree) Origin() mgl32.Vec3         { return t.params.Origin }
func (t *Octree) Connectivity() Connectivity { return t.params.Connectivity }
func (t *Octree) ID() uuid.UUID              { return t.params.ID }
func (t *Octree) NodeCount() int             { return len(t.nodes) }
func (t *Octree) LeafCount() int             { return t.stats.Leaves }
func (t *Octree) Stats() BuildStats          { return t.stats }

// Bounds is the cube covered by the root.
func (t *Octree) Bounds() geom.AABB {
	return t.CellBounds(morton.Root)
}

// Get returns the node stored under c.
func (t *Octree) Get(c morton.Code) (Node, bool) {
	s, ok := t.nodes[c]
	if !ok {
		return Node{}, false
	}
	return Node{Code: c, State: s}, true
}

// Children returns the codes of the eight children of a subdivided node.
func (t *Octree) Children(c morton.Code) ([8]morton.Code, error) {
	s, ok := t.nodes[c]
	if !ok {
		return [8]morton.Code{}, fmt.Errorf("children of %v: %w", c, ErrOutOfBounds)
	}
	if s != Subdivided {
		return [8]morton.Code{}, fmt.Errorf("children of %v (%v): %w", c, s, ErrInvalidState)
	}
	return morton.Children(c)
}

// IsOccupied reports whether any part of the cell is solid. A subdivided node
// always has a solid leaf below it since all-empty subtrees are collapsed.
func (t *Octree) IsOccupied(c morton.Code) bool {
	s, ok := t.nodes[c]
	return ok && s != Empty
}

// EdgeLength is the world space edge of the cell c.
func (t *Octree) EdgeLength(c morton.Code) float32 {
	return float32(t.edge(c))
}

func (t *Octree) edge(c morton.Code) float64 {
	return math.Ldexp(float64(t.params.VoxelSize), int(t.params.MaxDepth)-int(c.Depth()))
}

// CellBounds is the world space box of the cell c. It is computed from the
// code alone, c does not need to be materialized.
func (t *Octree) CellBounds(c morton.Code) geom.AABB {
	e := t.edge(c)
	x, y, z := c.Coords()
	idx := [3]float64{float64(x), float64(y), float64(z)}
	var b geom.AABB
	for i := 0; i < 3; i++ {
		o := float64(t.params.Origin[i])
		b.Min[i] = float32(o + idx[i]*e)
		b.Max[i] = float32(o + (idx[i]+1)*e)
	}
	return b
}

// Center is the world space center of the cell c.
func (t *Octree) Center(c morton.Code) mgl32.Vec3 {
	e := t.edge(c)
	x, y, z := c.Coords()
	idx := [3]float64{float64(x), float64(y), float64(z)}
	var p mgl32.Vec3
	for i := 0; i < 3; i++ {
		p[i] = float32(float64(t.params.Origin[i]) + (idx[i]+0.5)*e)
	}
	return p
}

// PreOrder visits materialized nodes depth first, children in octant order.
// Returning false from fn stops the walk.
func (t *Octree) PreOrder(fn func(Node) bool) {
	stack := []morton.Code{morton.Root}
	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		s, ok := t.nodes[c]
		if !ok {
			continue
		}
		if !fn(Node{Code: c, State: s}) {
			return
		}
		if s != Subdivided {
			continue
		}
		kids, err := morton.Children(c)
		if err != nil {
			continue
		}
		for i := 7; i >= 0; i-- {
			stack = append(stack, kids[i])
		}
	}
}

// Leaves returns every leaf in pre-order.
func (t *Octree) Leaves() []Node {
	out := make([]Node, 0, t.stats.Leaves)
	t.PreOrder(func(n Node) bool {
		if n.State.Leaf() {
			out = append(out, n)
		}
		return true
	})
	return out
}
