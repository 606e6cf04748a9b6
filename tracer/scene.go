// Copyright (c) 2019 strandlab
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package tracer

import (
	"time"

	glm "github.com/go-gl/mathgl/mgl32"
	log "github.com/sirupsen/logrus"
)

// Scene collects geometries and answers ray queries against a
// committed snapshot of them.
//
// Attach, Detach and Commit mutate the scene and must not overlap
// each other or any query. Once committed, a scene serves Intersect,
// Occluded and Interpolate from any number of goroutines at once.
type Scene struct {
	geometries []sceneGeometry
	committed  []committedGeometry

	boundsMin, boundsMax glm.Vec3
}

type sceneGeometry struct {
	geom   Geometry
	active bool
}

type committedGeometry struct {
	id   GeometryID
	geom Geometry
	tree *bvh
}

// NewScene returns an empty scene.
func NewScene() *Scene {
	return &Scene{}
}

// Attach adds a geometry to the scene and hands back the identifier
// queries will report for it. The geometry takes part in queries
// after the next Commit. Identifiers of detached geometries are
// reused.
func (s *Scene) Attach(geom Geometry) GeometryID {
	for i := range s.geometries {
		if !s.geometries[i].active {
			s.geometries[i] = sceneGeometry{geom: geom, active: true}
			return GeometryID(i)
		}
	}
	s.geometries = append(s.geometries, sceneGeometry{geom: geom, active: true})
	return GeometryID(len(s.geometries) - 1)
}

// Detach removes a geometry from the scene. Queries keep serving the
// last committed snapshot until the next Commit.
func (s *Scene) Detach(id GeometryID) {
	if int(id) < len(s.geometries) {
		s.geometries[id] = sceneGeometry{}
	}
}

// Commit snapshots the attached geometries and rebuilds their
// acceleration structures.
func (s *Scene) Commit() {
	start := time.Now()

	committed := make([]committedGeometry, 0, len(s.geometries))
	primitives := 0
	for i, g := range s.geometries {
		if !g.active {
			continue
		}
		committed = append(committed, committedGeometry{
			id:   GeometryID(i),
			geom: g.geom,
			tree: buildBVH(g.geom),
		})
		primitives += g.geom.Count()
	}
	s.committed = committed

	s.boundsMin, s.boundsMax = glm.Vec3{}, glm.Vec3{}
	first := true
	for _, g := range s.committed {
		if len(g.tree.nodes) == 0 {
			continue
		}
		root := g.tree.nodes[0]
		if first {
			s.boundsMin, s.boundsMax = root.min, root.max
			first = false
			continue
		}
		s.boundsMin = vecMin(s.boundsMin, root.min)
		s.boundsMax = vecMax(s.boundsMax, root.max)
	}

	log.WithFields(log.Fields{
		"geometries": len(committed),
		"primitives": primitives,
		"took":       time.Since(start),
	}).Debug("Ray tracing scene committed")
}

// Intersect finds the closest hit for the ray, false when the ray
// misses everything.
func (s *Scene) Intersect(ray Ray) (Hit, bool) {
	best := Hit{Geometry: InvalidGeometry}
	found := false
	for _, g := range s.committed {
		if hit, ok := g.tree.intersect(g.geom, &ray); ok {
			hit.Geometry = g.id
			best = hit
			found = true
		}
	}
	return best, found
}

// Occluded reports whether anything blocks the ray inside its active
// range.
func (s *Scene) Occluded(ray Ray) bool {
	for _, g := range s.committed {
		if _, ok := g.tree.intersect(g.geom, &ray); ok {
			return true
		}
	}
	return false
}

// Interpolate evaluates an attribute channel of the identified
// geometry at a hit's parametric position. Unknown identifiers
// evaluate to zero.
func (s *Scene) Interpolate(id GeometryID, prim uint32, u, v float32, channel int) glm.Vec3 {
	for _, g := range s.committed {
		if g.id == id {
			return g.geom.Interpolate(int(prim), u, v, channel)
		}
	}
	return glm.Vec3{}
}

// Bounds returns the union box of the committed scene, zero boxes
// for an empty one.
func (s *Scene) Bounds() (min, max glm.Vec3) {
	return s.boundsMin, s.boundsMax
}
