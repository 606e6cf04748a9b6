// Copyright (c) 2019 strandlab
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package tracer

import (
	"math"
	"sort"

	glm "github.com/go-gl/mathgl/mgl32"
)

const bvhLeafSize = 4

// bvhNode is one node of the flattened hierarchy. An interior node
// keeps its first child right after itself and the second at right.
// Leaves span count entries of the primitive permutation starting at
// first. A zero count marks an interior node.
type bvhNode struct {
	min, max glm.Vec3
	right    int32
	first    int32
	count    int32
}

// bvh is a bounding volume hierarchy over one geometry, flattened
// depth first into a node slice.
type bvh struct {
	nodes []bvhNode
	prims []int32
}

// buildBVH sorts a geometry's primitives into a hierarchy using
// median splits along the widest centroid axis.
func buildBVH(geom Geometry) *bvh {
	n := geom.Count()
	tree := &bvh{prims: make([]int32, n)}
	if n == 0 {
		return tree
	}

	bounds := make([][2]glm.Vec3, n)
	centers := make([]glm.Vec3, n)
	for i := 0; i < n; i++ {
		tree.prims[i] = int32(i)
		min, max := geom.Bounds(i)
		bounds[i] = [2]glm.Vec3{min, max}
		centers[i] = min.Add(max).Mul(0.5)
	}

	tree.nodes = make([]bvhNode, 0, 2*n)
	tree.split(bounds, centers, 0, int32(n))
	return tree
}

// split builds the subtree over prims[first:first+count] and returns
// its node index.
func (b *bvh) split(bounds [][2]glm.Vec3, centers []glm.Vec3, first, count int32) int32 {
	idx := int32(len(b.nodes))
	b.nodes = append(b.nodes, bvhNode{})

	huge := float32(math.MaxFloat32)
	min := glm.Vec3{huge, huge, huge}
	max := min.Mul(-1)
	for _, p := range b.prims[first : first+count] {
		min = vecMin(min, bounds[p][0])
		max = vecMax(max, bounds[p][1])
	}

	if count <= bvhLeafSize {
		b.nodes[idx] = bvhNode{min: min, max: max, first: first, count: count}
		return idx
	}

	part := b.prims[first : first+count]
	cmin, cmax := centers[part[0]], centers[part[0]]
	for _, p := range part[1:] {
		cmin = vecMin(cmin, centers[p])
		cmax = vecMax(cmax, centers[p])
	}
	extent := cmax.Sub(cmin)
	axis := 0
	if extent[1] > extent[axis] {
		axis = 1
	}
	if extent[2] > extent[axis] {
		axis = 2
	}

	sort.Slice(part, func(i, j int) bool {
		return centers[part[i]][axis] < centers[part[j]][axis]
	})

	half := count / 2
	b.split(bounds, centers, first, half)
	right := b.split(bounds, centers, first+half, count-half)
	b.nodes[idx] = bvhNode{min: min, max: max, right: right}
	return idx
}

// intersect walks the hierarchy, narrowing the ray's TFar as hits
// land, and reports the closest one.
func (b *bvh) intersect(geom Geometry, ray *Ray) (Hit, bool) {
	var hit Hit
	if len(b.nodes) == 0 {
		return hit, false
	}

	invDir := glm.Vec3{
		1 / ray.Direction[0],
		1 / ray.Direction[1],
		1 / ray.Direction[2],
	}

	var found bool
	var stack [64]int32
	stack[0] = 0
	top := 1

	for top > 0 {
		top--
		cur := stack[top]
		node := &b.nodes[cur]
		if !node.slab(ray, invDir) {
			continue
		}
		if node.count > 0 {
			for _, p := range b.prims[node.first : node.first+node.count] {
				if t, u, v, ok := geom.Intersect(int(p), *ray); ok {
					ray.TFar = t
					hit = Hit{Primitive: uint32(p), Distance: t, U: u, V: v}
					found = true
				}
			}
			continue
		}
		stack[top] = node.right
		stack[top+1] = cur + 1
		top += 2
	}
	return hit, found
}

// slab clips the ray against the node box. Comparisons are written
// so NaN from an axis parallel ray grazing a slab falls through to
// the conservative side.
func (n *bvhNode) slab(ray *Ray, invDir glm.Vec3) bool {
	tmin, tmax := ray.TNear, ray.TFar
	for axis := 0; axis < 3; axis++ {
		t0 := (n.min[axis] - ray.Origin[axis]) * invDir[axis]
		t1 := (n.max[axis] - ray.Origin[axis]) * invDir[axis]
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		if t0 > tmin {
			tmin = t0
		}
		if t1 < tmax {
			tmax = t1
		}
		if tmin > tmax {
			return false
		}
	}
	return true
}
