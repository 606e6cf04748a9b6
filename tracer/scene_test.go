// Copyright (c) 2019 strandlab
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package tracer

import (
	"math/rand"
	"testing"

	glm "github.com/go-gl/mathgl/mgl32"
)

func offsetCurves() *Curves {
	c := NewCurves()
	c.SetPositions([]glm.Vec4{
		{-0.5, 0, 1, 0.1},
		{-0.5, 0, 2, 0.1},
	})
	c.SetIndices([]uint32{0})
	return c
}

func TestAttachDetachReusesIdentifiers(t *testing.T) {
	sc := NewScene()
	first := sc.Attach(strandCurves())
	second := sc.Attach(offsetCurves())
	if first == second {
		t.Fatalf("two attachments share identifier %d", first)
	}

	sc.Detach(first)
	third := sc.Attach(strandCurves())
	if third != first {
		t.Errorf("freed identifier %d not reused, got %d", first, third)
	}
}

func TestCommitSnapshotsGeometry(t *testing.T) {
	sc := NewScene()
	idA := sc.Attach(strandCurves())
	sc.Commit()

	ray := NewRay(glm.Vec3{1, 0, 1.5}, glm.Vec3{-1, 0, 0}, 0)
	hit, ok := sc.Intersect(ray)
	if !ok || hit.Geometry != idA {
		t.Fatalf("committed geometry not hit, got %+v ok=%v", hit, ok)
	}

	// A second geometry stays invisible until the next commit.
	idB := sc.Attach(offsetCurves())
	onlyB := NewRay(glm.Vec3{-1.5, 0, 1.5}, glm.Vec3{1, 0, 0}, 0)
	onlyB.TFar = 1.2
	if _, ok := sc.Intersect(onlyB); ok {
		t.Fatal("uncommitted geometry answered a query")
	}

	sc.Commit()
	hit, ok = sc.Intersect(onlyB)
	if !ok || hit.Geometry != idB {
		t.Fatalf("geometry missing after commit, got %+v ok=%v", hit, ok)
	}
}

func TestIntersectPicksClosestAcrossGeometries(t *testing.T) {
	sc := NewScene()
	idA := sc.Attach(strandCurves())
	idB := sc.Attach(offsetCurves())
	sc.Commit()

	ray := NewRay(glm.Vec3{1, 0, 1.5}, glm.Vec3{-1, 0, 0}, 0)
	hit, ok := sc.Intersect(ray)
	if !ok {
		t.Fatal("ray through both geometries missed")
	}
	if hit.Geometry != idA {
		t.Errorf("hit geometry %d, want the closer %d", hit.Geometry, idA)
	}
	if hit.Distance < 0.89 || hit.Distance > 0.91 {
		t.Errorf("hit distance %f, want 0.9", hit.Distance)
	}

	sc.Detach(idA)
	sc.Commit()
	hit, ok = sc.Intersect(ray)
	if !ok || hit.Geometry != idB {
		t.Fatalf("ray no longer reaches the far geometry, got %+v ok=%v", hit, ok)
	}
	if hit.Distance < 1.39 || hit.Distance > 1.41 {
		t.Errorf("hit distance %f, want 1.4", hit.Distance)
	}
}

func TestOccluded(t *testing.T) {
	sc := NewScene()
	sc.Attach(strandCurves())
	sc.Commit()

	blocked := NewRay(glm.Vec3{1, 0, 1.5}, glm.Vec3{-1, 0, 0}, 0)
	if !sc.Occluded(blocked) {
		t.Error("ray through the fiber not reported occluded")
	}

	short := NewRay(glm.Vec3{1, 0, 1.5}, glm.Vec3{-1, 0, 0}, 0)
	short.TFar = 0.5
	if sc.Occluded(short) {
		t.Error("hit beyond TFar reported occluded")
	}

	free := NewRay(glm.Vec3{1, 5, 1.5}, glm.Vec3{-1, 0, 0}, 0)
	if sc.Occluded(free) {
		t.Error("unobstructed ray reported occluded")
	}
}

func TestSceneInterpolate(t *testing.T) {
	sc := NewScene()
	id := sc.Attach(strandCurves())
	sc.Commit()

	got := sc.Interpolate(id, 1, 0.5, 0, 0)
	if !got.ApproxEqualThreshold(glm.Vec3{0, 0, 1}, 1e-6) {
		t.Errorf("interpolated tangent %v, want (0, 0, 1)", got)
	}

	if got := sc.Interpolate(InvalidGeometry, 0, 0, 0, 0); got != (glm.Vec3{}) {
		t.Errorf("unknown geometry interpolated to %v, want zero", got)
	}
}

func TestSceneBounds(t *testing.T) {
	sc := NewScene()
	if min, max := sc.Bounds(); min != (glm.Vec3{}) || max != (glm.Vec3{}) {
		t.Errorf("empty scene bounds (%v, %v), want zero", min, max)
	}

	sc.Attach(strandCurves())
	sc.Attach(offsetCurves())
	sc.Commit()

	min, max := sc.Bounds()
	wantMin := glm.Vec3{-0.6, -0.1, -0.1}
	wantMax := glm.Vec3{0.1, 0.1, 2.1}
	if !min.ApproxEqualThreshold(wantMin, 1e-6) || !max.ApproxEqualThreshold(wantMax, 1e-6) {
		t.Errorf("scene bounds (%v, %v), want (%v, %v)", min, max, wantMin, wantMax)
	}
}

func BenchmarkSceneIntersect(b *testing.B) {
	rng := rand.New(rand.NewSource(3))
	sc := NewScene()
	sc.Attach(randomCurves(rng, 100, 15))
	sc.Commit()

	rays := make([]Ray, 64)
	for i := range rays {
		rays[i] = randomRay(rng)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sc.Intersect(rays[i%len(rays)])
	}
}
