// Copyright (c) 2019 strandlab
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package tracer

import (
	"math"

	glm "github.com/go-gl/mathgl/mgl32"
)

const parallelEpsilon = 1e-9

// Curves is a piecewise linear curve geometry. Every primitive is a
// segment between two consecutive control points, swept into a round
// fiber whose radius blends the radii stored with the points.
//
// Buffers are shared, not copied. They may be swapped out freely
// until the owning scene commits.
type Curves struct {
	positions  []glm.Vec4
	indices    []uint32
	attributes [][]glm.Vec3
}

// NewCurves returns an empty curve geometry.
func NewCurves() *Curves {
	return &Curves{}
}

// SetPositions shares the control point buffer, xyz holding the
// point and w the fiber radius at it.
func (c *Curves) SetPositions(positions []glm.Vec4) {
	c.positions = positions
}

// SetIndices shares the segment buffer. Every entry names the first
// of a consecutive control point pair.
func (c *Curves) SetIndices(indices []uint32) {
	c.indices = indices
}

// SetAttributes shares a per control point attribute channel,
// growing the channel table when needed.
func (c *Curves) SetAttributes(channel int, values []glm.Vec3) {
	for len(c.attributes) <= channel {
		c.attributes = append(c.attributes, nil)
	}
	c.attributes[channel] = values
}

// Count reports the number of segments.
func (c *Curves) Count() int {
	return len(c.indices)
}

// Bounds returns the box around segment i, padded by the larger of
// its endpoint radii.
func (c *Curves) Bounds(i int) (glm.Vec3, glm.Vec3) {
	a := c.positions[c.indices[i]]
	b := c.positions[c.indices[i]+1]

	radius := a.W()
	if b.W() > radius {
		radius = b.W()
	}
	pad := glm.Vec3{radius, radius, radius}
	return vecMin(a.Vec3(), b.Vec3()).Sub(pad), vecMax(a.Vec3(), b.Vec3()).Add(pad)
}

// Intersect finds the nearest crossing of the ray with the fiber
// swept around segment i. It resolves the closest approach between
// the ray and the segment spine, accepts it when it lands within the
// blended radius and pulls the hit parameter back onto the fiber
// surface. The reported u runs along the segment, v stays zero.
func (c *Curves) Intersect(i int, ray Ray) (float32, float32, float32, bool) {
	a := c.positions[c.indices[i]]
	b := c.positions[c.indices[i]+1]

	spine := b.Vec3().Sub(a.Vec3())
	ee := spine.Dot(spine)
	if ee < parallelEpsilon {
		return 0, 0, 0, false
	}

	rel := ray.Origin.Sub(a.Vec3())
	dd := ray.Direction.Dot(ray.Direction)
	de := ray.Direction.Dot(spine)
	dr := ray.Direction.Dot(rel)
	er := spine.Dot(rel)

	var s float32
	if denom := dd*ee - de*de; denom > parallelEpsilon {
		s = glm.Clamp((dd*er-de*dr)/denom, 0, 1)
	} else {
		// Ray runs along the fiber, closest where the origin
		// projects onto the spine.
		s = glm.Clamp(er/ee, 0, 1)
	}

	closest := a.Vec3().Add(spine.Mul(s))
	t := ray.Direction.Dot(closest.Sub(ray.Origin)) / dd

	radius := (1-s)*a.W() + s*b.W()
	perp := ray.At(t).Sub(closest)
	distSq := perp.Dot(perp)
	if distSq > radius*radius {
		return 0, 0, 0, false
	}

	t -= float32(math.Sqrt(float64(radius*radius-distSq)) / math.Sqrt(float64(dd)))
	if t < ray.TNear || t > ray.TFar {
		return 0, 0, 0, false
	}
	return t, s, 0, true
}

// Interpolate blends the attribute channel linearly along segment i.
// The v parameter has no effect on flat curves.
func (c *Curves) Interpolate(i int, u, v float32, channel int) glm.Vec3 {
	if channel >= len(c.attributes) || c.attributes[channel] == nil {
		return glm.Vec3{}
	}
	values := c.attributes[channel]
	first := c.indices[i]
	return values[first].Mul(1 - u).Add(values[first+1].Mul(u))
}
