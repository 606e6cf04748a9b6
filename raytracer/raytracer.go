// Copyright (c) 2019 strandlab
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package raytracer drives the CPU render path: one primary ray per
// pixel through the shared camera, intersected against the fiber
// scene and shaded into a framebuffer the rasterized path can
// composite.
package raytracer

import (
	"image"
	"math"
	"runtime"
	"sync"
	"sync/atomic"

	glm "github.com/go-gl/mathgl/mgl32"
	log "github.com/sirupsen/logrus"

	"github.com/strandlab/strand/core"
	"github.com/strandlab/strand/hair"
	"github.com/strandlab/strand/scene"
	"github.com/strandlab/strand/tracer"
)

// Mode selects what the ray traced frame visualizes.
type Mode int32

// Visualization modes.
const (
	Shaded = Mode(iota)
	AmbientOcclusion
)

// occlusionBias keeps self intersection probes off the surface they
// start from.
const occlusionBias = 1e-3

// Raytracer renders fiber scenes on the CPU, splitting rows across
// workers. Styles and lights are registered before the first Draw,
// drawing itself is driven from a single goroutine while SetMode may
// be flipped from any other.
type Raytracer struct {
	cfg    core.TracerConfiguration
	scene  *tracer.Scene
	fibers []*hair.Raytraced
	lights []scene.Light

	front      *Framebuffer
	aoDirs     []glm.Vec3
	background glm.Vec3
	mode       Mode
}

// NewRaytracer builds the CPU render path over a fiber scene. Zero
// configuration values fall back to sane defaults.
func NewRaytracer(cfg core.TracerConfiguration, sc *tracer.Scene) *Raytracer {
	if cfg.FrameWidth == 0 {
		cfg.FrameWidth = 1280
	}
	if cfg.FrameHeight == 0 {
		cfg.FrameHeight = 720
	}
	if cfg.Workers < 1 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.OcclusionSamples < 1 {
		cfg.OcclusionSamples = 16
	}
	if cfg.OcclusionRadius <= 0 {
		cfg.OcclusionRadius = 1
	}

	log.WithFields(log.Fields{
		"width":   cfg.FrameWidth,
		"height":  cfg.FrameHeight,
		"workers": cfg.Workers,
	}).Debug("CPU render path ready")

	return &Raytracer{
		cfg:        cfg,
		scene:      sc,
		front:      NewFramebuffer(int(cfg.FrameWidth), int(cfg.FrameHeight)),
		aoDirs:     occlusionDirections(cfg.OcclusionSamples),
		background: glm.Vec3{0.32, 0.34, 0.38},
	}
}

// AddStyle registers ray traced fibers for drawing.
func (r *Raytracer) AddStyle(fibers *hair.Raytraced) {
	r.fibers = append(r.fibers, fibers)
}

// AddLight adds a light to the rig.
func (r *Raytracer) AddLight(light scene.Light) {
	r.lights = append(r.lights, light)
}

// SetBackground replaces the color rays fall through to.
func (r *Raytracer) SetBackground(c glm.Vec3) {
	r.background = c
}

// SetMode switches the visualization mode. Safe to call while a
// frame renders, the switch lands with the next frame.
func (r *Raytracer) SetMode(mode Mode) {
	atomic.StoreInt32((*int32)(&r.mode), int32(mode))
}

// Mode reports the current visualization mode.
func (r *Raytracer) Mode() Mode {
	return Mode(atomic.LoadInt32((*int32)(&r.mode)))
}

// Draw renders one frame as seen through cam and returns the backing
// image. The framebuffer is reused, so the image is only valid until
// the next Draw.
func (r *Raytracer) Draw(cam *scene.Camera) (*image.RGBA, error) {
	width, height := r.front.Size()
	invVP := cam.ProjectionMatrix().Mul4(cam.ViewMatrix()).Inv()
	mode := r.Mode()

	var wg sync.WaitGroup
	wg.Add(r.cfg.Workers)
	for w := 0; w < r.cfg.Workers; w++ {
		go func(first int) {
			defer wg.Done()
			for y := first; y < height; y += r.cfg.Workers {
				r.renderRow(cam, invVP, mode, y, width, height)
			}
		}(w)
	}
	wg.Wait()

	return r.front.Image(), nil
}

func (r *Raytracer) renderRow(cam *scene.Camera, invVP glm.Mat4, mode Mode, y, width, height int) {
	for x := 0; x < width; x++ {
		ray := r.primaryRay(cam, invVP, x, y, width, height)
		color := r.background
		if hit, ok := r.scene.Intersect(ray); ok {
			color = r.shade(ray, hit, mode, cam)
		}
		r.front.Set(x, y, color)
	}
}

// primaryRay unprojects the pixel center through the inverse view
// projection and aims a ray from the camera through it.
func (r *Raytracer) primaryRay(cam *scene.Camera, invVP glm.Mat4, x, y, width, height int) tracer.Ray {
	ndcX := 2*(float32(x)+0.5)/float32(width) - 1
	ndcY := 1 - 2*(float32(y)+0.5)/float32(height)

	near := invVP.Mul4x1(glm.Vec4{ndcX, ndcY, -1, 1})
	far := invVP.Mul4x1(glm.Vec4{ndcX, ndcY, 1, 1})
	nearWorld := near.Vec3().Mul(1 / near.W())
	farWorld := far.Vec3().Mul(1 / far.W())

	return tracer.NewRay(cam.Position, farWorld.Sub(nearWorld).Normalize(), 0)
}

func (r *Raytracer) shade(ray tracer.Ray, hit tracer.Hit, mode Mode, cam *scene.Camera) glm.Vec3 {
	if mode == AmbientOcclusion {
		return r.occlusion(ray.At(hit.Distance))
	}

	fiber := r.fiber(hit.Geometry)
	if fiber == nil {
		return r.background
	}

	var sum glm.Vec3
	for _, light := range r.lights {
		sum = sum.Add(fiber.Shade(hit, light, cam))
	}
	return sum
}

// occlusion probes a fixed direction set around the point and grays
// it by how much of the sky it still sees.
func (r *Raytracer) occlusion(point glm.Vec3) glm.Vec3 {
	visible := 0
	for _, dir := range r.aoDirs {
		probe := tracer.NewRay(point, dir, occlusionBias)
		probe.TFar = r.cfg.OcclusionRadius
		if !r.scene.Occluded(probe) {
			visible++
		}
	}
	v := float32(visible) / float32(len(r.aoDirs))
	return glm.Vec3{v, v, v}
}

func (r *Raytracer) fiber(id tracer.GeometryID) *hair.Raytraced {
	for _, f := range r.fibers {
		if f.ID() == id {
			return f
		}
	}
	return nil
}

// occlusionDirections spreads n directions over the unit sphere
// along the golden spiral.
func occlusionDirections(n int) []glm.Vec3 {
	golden := math.Pi * (3 - math.Sqrt(5))
	dirs := make([]glm.Vec3, n)
	for i := range dirs {
		y := 1 - 2*(float64(i)+0.5)/float64(n)
		radius := math.Sqrt(1 - y*y)
		phi := float64(i) * golden
		dirs[i] = glm.Vec3{
			float32(math.Cos(phi) * radius),
			float32(y),
			float32(math.Sin(phi) * radius),
		}
	}
	return dirs
}
