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

// randomCurves grows strands by random walk inside roughly a two
// unit cube around the origin.
func randomCurves(rng *rand.Rand, strands, segments int) *Curves {
	c := NewCurves()
	var positions []glm.Vec4
	var indices []uint32
	for s := 0; s < strands; s++ {
		p := glm.Vec3{
			rng.Float32()*2 - 1,
			rng.Float32()*2 - 1,
			rng.Float32()*2 - 1,
		}
		first := uint32(len(positions))
		positions = append(positions, p.Vec4(0.02))
		for i := 0; i < segments; i++ {
			p = p.Add(glm.Vec3{
				(rng.Float32() - 0.5) * 0.2,
				(rng.Float32() - 0.5) * 0.2,
				(rng.Float32() - 0.5) * 0.2,
			})
			positions = append(positions, p.Vec4(0.02))
			indices = append(indices, first+uint32(i))
		}
	}
	c.SetPositions(positions)
	c.SetIndices(indices)
	return c
}

func randomRay(rng *rand.Rand) Ray {
	origin := glm.Vec3{
		rng.Float32()*2 - 1,
		rng.Float32()*2 - 1,
		rng.Float32()*2 - 1,
	}.Normalize().Mul(4)
	target := glm.Vec3{
		rng.Float32()*2 - 1,
		rng.Float32()*2 - 1,
		rng.Float32()*2 - 1,
	}
	return NewRay(origin, target.Sub(origin).Normalize(), 0)
}

// bruteForce is the reference the hierarchy has to agree with.
func bruteForce(geom Geometry, ray Ray) (Hit, bool) {
	var best Hit
	found := false
	for i := 0; i < geom.Count(); i++ {
		if t, u, v, ok := geom.Intersect(i, ray); ok {
			ray.TFar = t
			best = Hit{Primitive: uint32(i), Distance: t, U: u, V: v}
			found = true
		}
	}
	return best, found
}

func TestHierarchyMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	curves := randomCurves(rng, 40, 12)
	tree := buildBVH(curves)

	hits := 0
	for i := 0; i < 200; i++ {
		ray := randomRay(rng)
		wantHit, want := bruteForce(curves, ray)
		gotHit, got := tree.intersect(curves, &ray)

		if got != want {
			t.Fatalf("ray %d: hierarchy found %v, brute force %v", i, got, want)
		}
		if !got {
			continue
		}
		hits++
		if diff := gotHit.Distance - wantHit.Distance; diff > 1e-4 || diff < -1e-4 {
			t.Fatalf("ray %d: hierarchy distance %f, brute force %f",
				i, gotHit.Distance, wantHit.Distance)
		}
	}
	if hits < 20 {
		t.Fatalf("only %d of 200 rays hit, scene setup no longer exercises the hierarchy", hits)
	}
}

func TestHierarchyOverEmptyGeometry(t *testing.T) {
	tree := buildBVH(NewCurves())
	ray := NewRay(glm.Vec3{0, 0, -1}, glm.Vec3{0, 0, 1}, 0)
	if _, ok := tree.intersect(NewCurves(), &ray); ok {
		t.Error("empty hierarchy reported a hit")
	}
}

func TestHierarchyOverSingleSegment(t *testing.T) {
	curves := strandCurves()
	tree := buildBVH(curves)

	ray := NewRay(glm.Vec3{1, 0, 1.5}, glm.Vec3{-1, 0, 0}, 0)
	hit, ok := tree.intersect(curves, &ray)
	if !ok {
		t.Fatal("hierarchy missed the only fiber in the scene")
	}
	if hit.Primitive != 1 {
		t.Errorf("hit primitive %d, want 1", hit.Primitive)
	}
}

func BenchmarkHierarchyIntersect(b *testing.B) {
	rng := rand.New(rand.NewSource(7))
	curves := randomCurves(rng, 100, 15)
	tree := buildBVH(curves)

	rays := make([]Ray, 64)
	for i := range rays {
		rays[i] = randomRay(rng)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ray := rays[i%len(rays)]
		tree.intersect(curves, &ray)
	}
}
