package core

import (
	"errors"
	"image"
	"image/png"
	"os"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/strandlab/strand/scene"
)

// NewCoordinator ties a raster path and an optional trace path into a
// single frame producer. active reports whether the trace path should
// drive the frame, nil keeps the raster path in charge.
func NewCoordinator(raster RasterPath, tracer TracePath, active func() bool) *Coordinator {
	if active == nil {
		active = func() bool { return false }
	}
	return &Coordinator{
		raster: raster,
		tracer: tracer,
		active: active,
	}
}

// Coordinator drives one of the two render paths each frame.
// Frame must not be called concurrently with itself, and since the
// traced frame is the tracer's working buffer, Screenshot and
// LastTraced want calling between frames, not during one.
type Coordinator struct {
	raster RasterPath
	tracer TracePath
	active func() bool

	mu         sync.Mutex
	lastTraced *image.RGBA
}

// Frame renders a single frame. With the trace path active the CPU
// draws the frame and the raster path composites it to the screen,
// otherwise the raster path draws the scene itself. The frame is
// presented only when production succeeded.
func (c *Coordinator) Frame(cam *scene.Camera) error {
	if c.tracer != nil && c.active() {
		frame, err := c.tracer.Draw(cam)
		if err != nil {
			return errors.New("TracePath.Draw(): " + err.Error())
		}

		c.mu.Lock()
		c.lastTraced = frame
		c.mu.Unlock()

		if err := c.raster.Composite(frame); err != nil {
			return errors.New("RasterPath.Composite(): " + err.Error())
		}
	} else {
		if err := c.raster.Draw(cam); err != nil {
			return errors.New("RasterPath.Draw(): " + err.Error())
		}
	}

	if err := c.raster.Present(); err != nil {
		return errors.New("RasterPath.Present(): " + err.Error())
	}
	return nil
}

// LastTraced returns the most recent frame the trace path produced,
// nil before the first traced frame. The next traced frame
// overwrites it.
func (c *Coordinator) LastTraced() *image.RGBA {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastTraced
}

// Screenshot writes the most recent traced frame to path as PNG.
func (c *Coordinator) Screenshot(path string) error {
	c.mu.Lock()
	frame := c.lastTraced
	c.mu.Unlock()

	if frame == nil {
		return errors.New("core: no ray traced frame to save yet")
	}

	file, err := os.Create(path)
	if err != nil {
		return errors.New("os.Create(): " + err.Error())
	}
	defer file.Close()

	if err := png.Encode(file, frame); err != nil {
		return errors.New("png.Encode(): " + err.Error())
	}

	log.WithFields(log.Fields{
		"path": path,
	}).Debug("Saved ray traced frame")
	return nil
}
