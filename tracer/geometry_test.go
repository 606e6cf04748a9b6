// Copyright (c) 2019 strandlab
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package tracer

import (
	"testing"

	glm "github.com/go-gl/mathgl/mgl32"
)

func strandCurves() *Curves {
	c := NewCurves()
	c.SetPositions([]glm.Vec4{
		{0, 0, 0, 0.1},
		{0, 0, 1, 0.1},
		{0, 0, 2, 0.1},
	})
	c.SetIndices([]uint32{0, 1})
	c.SetAttributes(0, []glm.Vec3{
		{0, 0, 1},
		{0, 0, 1},
		{0, 0, 1},
	})
	return c
}

func TestSegmentIntersection(t *testing.T) {
	curves := strandCurves()
	ray := NewRay(glm.Vec3{1, 0, 1.5}, glm.Vec3{-1, 0, 0}, 0)

	dist, u, v, ok := curves.Intersect(1, ray)
	if !ok {
		t.Fatal("ray aimed at the fiber reported a miss")
	}
	if dist < 0.89 || dist > 0.91 {
		t.Errorf("hit distance %f, want 0.9", dist)
	}
	if u < 0.49 || u > 0.51 {
		t.Errorf("hit parameter u = %f, want 0.5", u)
	}
	if v != 0 {
		t.Errorf("flat curve reported v = %f, want 0", v)
	}
}

func TestMissBeyondRadius(t *testing.T) {
	curves := strandCurves()
	ray := NewRay(glm.Vec3{1, 0.2, 1.5}, glm.Vec3{-1, 0, 0}, 0)

	if _, _, _, ok := curves.Intersect(1, ray); ok {
		t.Error("ray passing 0.2 from a 0.1 fiber reported a hit")
	}
}

func TestIntersectionAlongFiber(t *testing.T) {
	curves := strandCurves()
	ray := NewRay(glm.Vec3{0.05, 0, -1}, glm.Vec3{0, 0, 1}, 0)

	dist, u, _, ok := curves.Intersect(0, ray)
	if !ok {
		t.Fatal("ray running along the fiber reported a miss")
	}
	if dist < 0.9 || dist > 0.92 {
		t.Errorf("hit distance %f, want about 0.913", dist)
	}
	if u != 0 {
		t.Errorf("hit parameter u = %f, want 0 at the fiber end", u)
	}
}

func TestActiveRangeRejects(t *testing.T) {
	curves := strandCurves()

	ray := NewRay(glm.Vec3{1, 0, 1.5}, glm.Vec3{-1, 0, 0}, 2)
	if _, _, _, ok := curves.Intersect(1, ray); ok {
		t.Error("hit before TNear was not rejected")
	}

	ray = NewRay(glm.Vec3{1, 0, 1.5}, glm.Vec3{-1, 0, 0}, 0)
	ray.TFar = 0.5
	if _, _, _, ok := curves.Intersect(1, ray); ok {
		t.Error("hit beyond TFar was not rejected")
	}
}

func TestDegenerateSegment(t *testing.T) {
	c := NewCurves()
	c.SetPositions([]glm.Vec4{{1, 1, 1, 0.1}, {1, 1, 1, 0.1}})
	c.SetIndices([]uint32{0})

	ray := NewRay(glm.Vec3{1, 1, -1}, glm.Vec3{0, 0, 1}, 0)
	if _, _, _, ok := c.Intersect(0, ray); ok {
		t.Error("zero length segment reported a hit")
	}
}

func TestInterpolate(t *testing.T) {
	c := strandCurves()
	c.SetAttributes(0, []glm.Vec3{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	})

	got := c.Interpolate(0, 0.25, 0, 0)
	want := glm.Vec3{0.75, 0.25, 0}
	if !got.ApproxEqualThreshold(want, 1e-6) {
		t.Errorf("interpolated attribute %v, want %v", got, want)
	}

	if got := c.Interpolate(0, 0.5, 0, 3); got != (glm.Vec3{}) {
		t.Errorf("missing channel interpolated to %v, want zero", got)
	}
}

func TestBoundsIncludeRadius(t *testing.T) {
	curves := strandCurves()
	min, max := curves.Bounds(0)

	wantMin := glm.Vec3{-0.1, -0.1, -0.1}
	wantMax := glm.Vec3{0.1, 0.1, 1.1}
	if !min.ApproxEqualThreshold(wantMin, 1e-6) || !max.ApproxEqualThreshold(wantMax, 1e-6) {
		t.Errorf("segment bounds (%v, %v), want (%v, %v)", min, max, wantMin, wantMax)
	}
}
