package hair

import (
	glm "github.com/go-gl/mathgl/mgl32"

	"github.com/strandlab/strand/scene"
	"github.com/strandlab/strand/tracer"
)

// TangentChannel is the attribute channel fiber tangents live in.
const TangentChannel = 0

// GeometryError reports a hair style the ray tracing backend cannot
// build fiber geometry from.
type GeometryError struct {
	Reason string
}

func (e *GeometryError) Error() string {
	return "hair: " + e.Reason
}

// Raytraced is a hair style attached to a ray tracing scene as a
// round fiber curve geometry. The style's control points become the
// curve control points, thickness the sweep radius and tangents an
// attribute channel interpolated at hit points.
type Raytraced struct {
	scene   *tracer.Scene
	id      tracer.GeometryID
	shading Shading
}

// NewRaytraced builds fiber geometry for the style and attaches it
// to the scene. The caller commits the scene once all geometry is
// in place.
func NewRaytraced(style *Style, sc *tracer.Scene) (*Raytraced, error) {
	if len(style.Vertices) == 0 || len(style.Indices) < 2 {
		return nil, &GeometryError{Reason: "style has no segments to build fibers from"}
	}
	if len(style.Indices)%2 != 0 {
		return nil, &GeometryError{Reason: "segment index list has a dangling index"}
	}
	if len(style.Thickness) != len(style.Vertices) {
		return nil, &GeometryError{Reason: "thickness channel out of step with control points"}
	}
	if len(style.Tangents) != len(style.Vertices) {
		return nil, &GeometryError{Reason: "tangent channel out of step with control points"}
	}

	positions := make([]glm.Vec4, len(style.Vertices))
	for i, v := range style.Vertices {
		positions[i] = v.Vec4(style.Thickness[i])
	}

	// The backend takes one index per segment, the first of a
	// consecutive control point pair.
	segments := make([]uint32, 0, len(style.Indices)/2)
	for i := 0; i+1 < len(style.Indices); i += 2 {
		if style.Indices[i+1] != style.Indices[i]+1 {
			return nil, &GeometryError{Reason: "segment pairs must join consecutive control points"}
		}
		segments = append(segments, style.Indices[i])
	}

	curves := tracer.NewCurves()
	curves.SetPositions(positions)
	curves.SetIndices(segments)
	curves.SetAttributes(TangentChannel, style.Tangents)

	return &Raytraced{
		scene:   sc,
		id:      sc.Attach(curves),
		shading: DefaultShading(),
	}, nil
}

// ID returns the scene identifier of the fiber geometry.
func (r *Raytraced) ID() tracer.GeometryID {
	return r.id
}

// SetShading replaces the shading parameters.
func (r *Raytraced) SetShading(s Shading) {
	r.shading = s
}

// Shading returns the current shading parameters.
func (r *Raytraced) Shading() Shading {
	return r.shading
}

// Tangent evaluates the fiber tangent at a hit point.
func (r *Raytraced) Tangent(hit tracer.Hit) glm.Vec3 {
	return r.scene.Interpolate(r.id, hit.Primitive, hit.U, hit.V, TangentChannel)
}

// Shade resolves the fiber color at a hit as the camera sees it.
// Tangent and light vector are taken to eye space, where the eye
// direction sits on the view axis.
func (r *Raytraced) Shade(hit tracer.Hit, light scene.Light, cam *scene.Camera) glm.Vec3 {
	view := cam.ViewMatrix()

	tangent := view.Mul4x1(r.Tangent(hit).Vec4(0)).Vec3()
	lightDir := view.Mul4x1(light.Vector).Vec3()
	eye := glm.Vec3{0, 0, -1}

	return KajiyaKay(r.shading.Albedo, light.Intensity, r.shading.Shininess, tangent, lightDir, eye)
}

// Detach removes the fiber geometry from the scene. The removal
// lands with the scene's next commit.
func (r *Raytraced) Detach() {
	r.scene.Detach(r.id)
}
