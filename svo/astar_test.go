package svo

import (
	"container/heap"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxelsplace/svo/morton"
)

// pathNode is an open or closed A* entry keyed by a leaf code.
type pathNode struct {
	code   morton.Code
	g, f   float32
	parent *pathNode
	index  int
}

type pathHeap []*pathNode

func (h pathHeap) Len() int           { return len(h) }
func (h pathHeap) Less(i, j int) bool { return h[i].f < h[j].f }
func (h pathHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *pathHeap) Push(x any) {
	n := x.(*pathNode)
	n.index = len(*h)
	*h = append(*h, n)
}

func (h *pathHeap) Pop() any {
	old := *h
	n := old[len(old)-1]
	old[len(old)-1] = nil
	n.index = -1
	*h = old[:len(old)-1]
	return n
}

// findPath runs A* over Successors, using center distances as step cost and
// ManhattanDistance as heuristic.
func findPath(tree *Octree, start, goal morton.Code) []morton.Code {
	open := &pathHeap{}
	nodes := map[morton.Code]*pathNode{}
	closed := map[morton.Code]bool{}

	first := &pathNode{code: start, f: tree.ManhattanDistance(start, goal)}
	heap.Push(open, first)
	nodes[start] = first

	for open.Len() > 0 {
		cur := heap.Pop(open).(*pathNode)
		if cur.code == goal {
			var path []morton.Code
			for n := cur; n != nil; n = n.parent {
				path = append([]morton.Code{n.code}, path...)
			}
			return path
		}
		closed[cur.code] = true

		for _, next := range tree.Successors(cur.code) {
			if closed[next] {
				continue
			}
			g := cur.g + float32(math.Sqrt(float64(tree.DistanceSquared(cur.code, next))))
			n, ok := nodes[next]
			if !ok {
				n = &pathNode{code: next, g: g, f: g + tree.ManhattanDistance(next, goal), parent: cur}
				nodes[next] = n
				heap.Push(open, n)
			} else if g < n.g {
				n.f += g - n.g
				n.g = g
				n.parent = cur
				heap.Fix(open, n.index)
			}
		}
	}
	return nil
}

func TestPathAroundSphere(t *testing.T) {
	tree := sphereTree(t)
	start, ok := tree.FindNode(mgl32.Vec3{-7, 0.2, 0.2})
	require.True(t, ok)
	goal, ok := tree.FindNode(mgl32.Vec3{7, 0.2, 0.2})
	require.True(t, ok)

	path := findPath(tree, start, goal)
	require.NotEmpty(t, path)
	assert.Equal(t, start, path[0])
	assert.Equal(t, goal, path[len(path)-1])

	for i := 1; i < len(path); i++ {
		n, ok := tree.Get(path[i])
		require.True(t, ok)
		assert.Equal(t, Empty, n.State)
		assert.Contains(t, tree.Successors(path[i-1]), path[i])
	}
}

func TestPathIntoClosedShell(t *testing.T) {
	tree := sphereTree(t)
	inside, ok := tree.FindNode(mgl32.Vec3{0.2, 0.2, 0.2})
	require.True(t, ok)
	outside, ok := tree.FindNode(mgl32.Vec3{-7, 0.2, 0.2})
	require.True(t, ok)

	assert.Nil(t, findPath(tree, outside, inside), "the shell has no opening")
}
