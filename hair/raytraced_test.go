package hair

import (
	"testing"

	glm "github.com/go-gl/mathgl/mgl32"

	"github.com/strandlab/strand/scene"
	"github.com/strandlab/strand/tracer"
)

func singleStrand() *Style {
	s := &Style{
		Vertices:  []glm.Vec3{{0, 0, 0}, {0, 0, 1}, {0, 0, 2}},
		Indices:   []uint32{0, 1, 1, 2},
		Thickness: []float32{0.1, 0.1, 0.1},
		strands:   1,
	}
	s.GenerateTangents()
	return s
}

func TestRaytracedIntersection(t *testing.T) {
	sc := tracer.NewScene()
	fibers, err := NewRaytraced(singleStrand(), sc)
	if err != nil {
		t.Fatalf("building fibers: %v", err)
	}
	sc.Commit()

	ray := tracer.NewRay(glm.Vec3{1, 0, 1.5}, glm.Vec3{-1, 0, 0}, 0)
	hit, ok := sc.Intersect(ray)
	if !ok {
		t.Fatal("ray aimed at the fiber missed")
	}
	if hit.Geometry != fibers.ID() {
		t.Errorf("hit geometry %d, want %d", hit.Geometry, fibers.ID())
	}
	if hit.Primitive != 1 {
		t.Errorf("hit primitive %d, want the second segment", hit.Primitive)
	}
	if hit.Distance < 0.89 || hit.Distance > 0.91 {
		t.Errorf("hit distance %f, want 0.9", hit.Distance)
	}
	if hit.U < 0.49 || hit.U > 0.51 {
		t.Errorf("hit parameter u = %f, want 0.5", hit.U)
	}

	tangent := fibers.Tangent(hit)
	if !tangent.ApproxEqualThreshold(glm.Vec3{0, 0, 1}, 1e-6) {
		t.Errorf("fiber tangent %v, want (0, 0, 1)", tangent)
	}
}

func TestRaytracedShade(t *testing.T) {
	sc := tracer.NewScene()
	fibers, err := NewRaytraced(singleStrand(), sc)
	if err != nil {
		t.Fatalf("building fibers: %v", err)
	}
	sc.Commit()

	ray := tracer.NewRay(glm.Vec3{1, 0, 1.5}, glm.Vec3{-1, 0, 0}, 0)
	hit, ok := sc.Intersect(ray)
	if !ok {
		t.Fatal("ray aimed at the fiber missed")
	}

	cam := scene.NewCamera(glm.Vec3{0, 0, -2}, glm.Vec3{0, 0, 0}, 45, 1)

	// A light square to the fiber leaves the plain albedo.
	side := scene.NewDirectionalLight(glm.Vec3{0, 1, 0}, glm.Vec3{1, 1, 1})
	got := fibers.Shade(hit, side, cam)
	want := DefaultShading().Albedo
	if !got.ApproxEqualThreshold(want, 1e-5) {
		t.Errorf("side lit fiber shaded %v, want %v", got, want)
	}

	// A light along the fiber hits the specular cone head on.
	along := scene.NewDirectionalLight(glm.Vec3{0, 0, 1}, glm.Vec3{0.5, 0.5, 0.5})
	got = fibers.Shade(hit, along, cam)
	want = glm.Vec3{0.5, 0.5, 0.5}
	if !got.ApproxEqualThreshold(want, 1e-5) {
		t.Errorf("fiber lit along its tangent shaded %v, want %v", got, want)
	}
}

func TestRaytracedShadingOverride(t *testing.T) {
	sc := tracer.NewScene()
	fibers, err := NewRaytraced(singleStrand(), sc)
	if err != nil {
		t.Fatalf("building fibers: %v", err)
	}

	custom := Shading{Albedo: glm.Vec3{1, 0, 0}, Shininess: 10}
	fibers.SetShading(custom)
	if fibers.Shading() != custom {
		t.Errorf("shading %+v, want the override %+v", fibers.Shading(), custom)
	}
}

func TestRaytracedDetach(t *testing.T) {
	sc := tracer.NewScene()
	fibers, err := NewRaytraced(singleStrand(), sc)
	if err != nil {
		t.Fatalf("building fibers: %v", err)
	}
	sc.Commit()

	fibers.Detach()
	sc.Commit()

	ray := tracer.NewRay(glm.Vec3{1, 0, 1.5}, glm.Vec3{-1, 0, 0}, 0)
	if _, ok := sc.Intersect(ray); ok {
		t.Error("detached fibers still answer queries")
	}
}

func TestRaytracedRejectsBrokenStyles(t *testing.T) {
	sc := tracer.NewScene()

	cases := []struct {
		name  string
		style *Style
	}{
		{name: "Empty", style: &Style{}},
		{
			name: "DanglingIndex",
			style: &Style{
				Vertices:  []glm.Vec3{{0, 0, 0}, {0, 0, 1}, {0, 0, 2}},
				Indices:   []uint32{0, 1, 1},
				Thickness: []float32{0.1, 0.1, 0.1},
				Tangents:  []glm.Vec3{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}},
			},
		},
		{
			name: "SkippedControlPoint",
			style: &Style{
				Vertices:  []glm.Vec3{{0, 0, 0}, {0, 0, 1}, {0, 0, 2}},
				Indices:   []uint32{0, 2},
				Thickness: []float32{0.1, 0.1, 0.1},
				Tangents:  []glm.Vec3{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}},
			},
		},
		{
			name: "ThicknessMismatch",
			style: &Style{
				Vertices:  []glm.Vec3{{0, 0, 0}, {0, 0, 1}},
				Indices:   []uint32{0, 1},
				Thickness: []float32{0.1},
				Tangents:  []glm.Vec3{{0, 0, 1}, {0, 0, 1}},
			},
		},
		{
			name: "TangentsMissing",
			style: &Style{
				Vertices:  []glm.Vec3{{0, 0, 0}, {0, 0, 1}},
				Indices:   []uint32{0, 1},
				Thickness: []float32{0.1, 0.1},
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewRaytraced(tc.style, sc); err == nil {
				t.Fatal("broken style built fiber geometry")
			} else if _, ok := err.(*GeometryError); !ok {
				t.Fatalf("error is %T, want *GeometryError", err)
			}
		})
	}

	sc.Commit()
	ray := tracer.NewRay(glm.Vec3{1, 0, 0.5}, glm.Vec3{-1, 0, 0}, 0)
	if _, ok := sc.Intersect(ray); ok {
		t.Error("rejected styles left geometry in the scene")
	}
}
