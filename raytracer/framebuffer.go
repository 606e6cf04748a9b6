// Copyright (c) 2019 strandlab
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package raytracer

import (
	"image"
	"image/color"
	"image/draw"

	glm "github.com/go-gl/mathgl/mgl32"
)

// Framebuffer is the CPU render target, an RGBA image written one
// shaded pixel at a time.
type Framebuffer struct {
	image *image.RGBA
}

// NewFramebuffer allocates a width by height target.
func NewFramebuffer(width, height int) *Framebuffer {
	return &Framebuffer{
		image: image.NewRGBA(image.Rect(0, 0, width, height)),
	}
}

// Size returns the target dimensions.
func (f *Framebuffer) Size() (width, height int) {
	bounds := f.image.Bounds()
	return bounds.Dx(), bounds.Dy()
}

// Clear fills the whole target with one color.
func (f *Framebuffer) Clear(c color.RGBA) {
	draw.Draw(f.image, f.image.Bounds(), image.NewUniform(c), image.ZP, draw.Src)
}

// Set quantizes a linear color into pixel (x, y).
func (f *Framebuffer) Set(x, y int, c glm.Vec3) {
	f.image.SetRGBA(x, y, color.RGBA{
		R: quantize(c[0]),
		G: quantize(c[1]),
		B: quantize(c[2]),
		A: 0xff,
	})
}

// Image hands out the backing image. It stays owned by the
// framebuffer and is rewritten by the next frame.
func (f *Framebuffer) Image() *image.RGBA {
	return f.image
}

func quantize(v float32) uint8 {
	return uint8(glm.Clamp(v, 0, 1)*255 + 0.5)
}
