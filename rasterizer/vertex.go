// Copyright (c) 2019 strandlab
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package rasterizer

import (
	"unsafe"

	glm "github.com/go-gl/mathgl/mgl32"
	vk "github.com/vulkan-go/vulkan"

	"github.com/strandlab/strand/hair"
)

// Vertex is one hair strand control point as the pipeline consumes it
type Vertex struct {
	Position  glm.Vec3
	Thickness float32
	Tangent   glm.Vec3
}

// Uniform defines a model-view-projection object
type Uniform struct {
	Model      glm.Mat4
	View       glm.Mat4
	Projection glm.Mat4
}

// VertexBindingDescriptions return Vulkan Vertex descriptors
func VertexBindingDescriptions() []vk.VertexInputBindingDescription {
	return []vk.VertexInputBindingDescription{{
		Binding:   0,
		Stride:    uint32(unsafe.Sizeof(Vertex{})),
		InputRate: vk.VertexInputRateVertex,
	}}
}

// VertexAttributeDescriptions return Vulkan attribute descriptors
func VertexAttributeDescriptions() []vk.VertexInputAttributeDescription {
	return []vk.VertexInputAttributeDescription{
		{
			Binding:  0,
			Location: 0,
			Format:   vk.FormatR32g32b32Sfloat,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.Position)),
		},
		{
			Binding:  0,
			Location: 1,
			Format:   vk.FormatR32Sfloat,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.Thickness)),
		},
		{
			Binding:  0,
			Location: 2,
			Format:   vk.FormatR32g32b32Sfloat,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.Tangent)),
		},
	}
}

// BuildVertices interleaves a hair style into the vertex layout
// the pipeline descriptors declare.
func BuildVertices(style *hair.Style) []Vertex {
	vertices := make([]Vertex, len(style.Vertices))
	for idx := range style.Vertices {
		vertices[idx] = Vertex{
			Position:  style.Vertices[idx],
			Thickness: style.Thickness[idx],
			Tangent:   style.Tangents[idx],
		}
	}
	return vertices
}
