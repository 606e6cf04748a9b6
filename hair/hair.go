// Package hair models hair styles: strands of control points loaded
// from HAIR files, their derived attributes and the fiber shading
// both render paths share.
package hair

import (
	glm "github.com/go-gl/mathgl/mgl32"
)

// Style is a loaded hair style. Strands are flattened into shared
// buffers with a line list over them, two indices per segment, the
// layout both the rasterized and the ray traced path consume
// directly.
type Style struct {
	// Vertices holds every control point of every strand, strand by
	// strand.
	Vertices []glm.Vec3

	// Indices is a line list over Vertices.
	Indices []uint32

	// Thickness is the fiber thickness at each control point, used
	// as the sweep radius of the ray traced fiber.
	Thickness []float32

	// Tangents is the normalized strand direction at each control
	// point.
	Tangents []glm.Vec3

	// Transparency and Colors are optional per control point
	// channels carried through from the file, nil when absent.
	Transparency []float32
	Colors       []glm.Vec3

	// DefaultColor paints styles without a color channel.
	DefaultColor glm.Vec3

	strands int
}

// StrandCount reports how many strands the style holds.
func (s *Style) StrandCount() int {
	return s.strands
}

// SegmentCount reports how many line segments the index list spans.
func (s *Style) SegmentCount() int {
	return len(s.Indices) / 2
}

// GenerateTangents rebuilds the per control point tangents from the
// segment list. Interior points take central differences, strand
// ends one sided ones.
func (s *Style) GenerateTangents() {
	n := len(s.Vertices)
	next := make([]int, n)
	prev := make([]int, n)
	for i := 0; i < n; i++ {
		next[i], prev[i] = -1, -1
	}
	for i := 0; i+1 < len(s.Indices); i += 2 {
		a, b := s.Indices[i], s.Indices[i+1]
		next[a] = int(b)
		prev[b] = int(a)
	}

	s.Tangents = make([]glm.Vec3, n)
	for i := 0; i < n; i++ {
		from, to := i, i
		if prev[i] >= 0 {
			from = prev[i]
		}
		if next[i] >= 0 {
			to = next[i]
		}
		dir := s.Vertices[to].Sub(s.Vertices[from])
		if dir.Len() < 1e-8 {
			dir = glm.Vec3{0, 0, 1}
		}
		s.Tangents[i] = dir.Normalize()
	}
}
