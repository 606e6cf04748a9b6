// Copyright (c) 2019 strandlab
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
	"sync"
	"sync/atomic"
	"time"

	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"
	"golang.org/x/exp/mmap"

	"github.com/strandlab/strand/core"
	"github.com/strandlab/strand/hair"
	"github.com/strandlab/strand/rasterizer"
	"github.com/strandlab/strand/raytracer"
	"github.com/strandlab/strand/scene"
	"github.com/strandlab/strand/tracer"
	"github.com/strandlab/strand/utility/har"
)

func init() {
	runtime.LockOSThread()
}

// Essential globals
var (
	vkInstance *core.Instance
	sdlWindow  *sdl.Window

	frameCounter int64

	raytraceActive    int32
	reloadRequested   int32
	screenshotCounter int32
	orbitYaw          int32
	orbitPitch        int32
)

// Command line flags
var (
	cpuProfile   = flag.String("cpuprof", "", "Profile CPU usage to file")
	memProfile   = flag.String("memprof", "", "Profile memory usage into a file")
	traceProfile = flag.String("trace", "", "Trace output for profiling")
	vulkanDebug  = flag.Bool("vkdbg", false, "Load Vulkan validation layers")

	hairFile   = flag.String("hair", "", "Hair style to render, a .hair file or a .har archive (required)")
	hairEntry  = flag.String("style", "", "Archive entry to pick when -hair points at a .har archive")
	width      = flag.Int("width", 0, "Window width override")
	height     = flag.Int("height", 0, "Window height override")
	frameRate  = flag.Int("fps", 0, "Frame rate cap override")
	shaderDir  = flag.String("shaders", "", "Load pipeline shaders from this directory instead of the built in set")
	startTrace = flag.Bool("raytrace", false, "Start on the ray traced render path")
)

func main() {
	flag.Parse()

	if *hairFile == "" {
		flag.Usage()
		log.Fatal("A hair style is required, pass one with -hair")
	}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			panic(err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			panic(err)
		}
		defer pprof.StopCPUProfile()
	}

	if *traceProfile != "" {
		f, err := os.Create(*traceProfile)
		if err != nil {
			panic(err)
		}
		if err := trace.Start(f); err != nil {
			panic(err)
		}
		defer trace.Stop()
	}

	if err := godotenv.Load(); err == nil {
		log.Debug("Environment loaded from .env")
	}

	configuration := core.FromEnv()
	applyFlagOverrides(&configuration)
	configuration.Instance.Diagnostics = forwardDiagnostics

	if *startTrace {
		atomic.StoreInt32(&raytraceActive, 1)
	}

	style, err := loadStyle(*hairFile, *hairEntry)
	if err != nil {
		log.Fatal("Loading hair style: " + err.Error())
	}
	log.WithFields(log.Fields{
		"strands":  style.StrandCount(),
		"segments": style.SegmentCount(),
	}).Info("Hair style loaded")

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		panic(err)
	}
	defer sdl.Quit()

	if err := sdl.VulkanLoadLibrary(""); err != nil {
		panic(err)
	}
	defer sdl.VulkanUnloadLibrary()

	sdlWindow = newWindow(configuration.Renderer)
	defer sdlWindow.Destroy()

	{
		cfg := configuration.Instance
		for _, name := range sdlWindow.VulkanGetInstanceExtensions() {
			cfg.Extensions = append(cfg.Extensions, core.Capability{Name: name})
		}

		instance, err := core.NewVulkanInstance(
			core.DefaultApplication,
			sdl.VulkanGetVkGetInstanceProcAddr(),
			cfg,
		)
		if err != nil {
			panic(err)
		}
		vkInstance = instance
		defer vkInstance.Destroy()
	}

	if surface, err := sdlWindow.VulkanCreateSurface(vkInstance.Handle()); err != nil {
		panic(err)
	} else {
		vkInstance.SetSurface(surface)
	}

	/* Ray traced path */
	hairScene := tracer.NewScene()
	fibers, err := hair.NewRaytraced(style, hairScene)
	if err != nil {
		panic(err)
	}
	hairScene.Commit()

	tracePath := raytracer.NewRaytracer(configuration.Tracer, hairScene)
	tracePath.AddStyle(fibers)
	tracePath.AddLight(scene.NewDirectionalLight(glm.Vec3{1, 1, 1}, glm.Vec3{1, 1, 1}))

	/* Rasterized path */
	rasterPath, err := rasterizer.NewRenderer(vkInstance, style, configuration.Renderer)
	if err != nil {
		panic(err)
	}
	if err := rasterPath.Initialise(); err != nil {
		panic(err)
	}
	defer rasterPath.Destroy()

	coordinator := core.NewCoordinator(rasterPath, tracePath, func() bool {
		return atomic.LoadInt32(&raytraceActive) == 1
	})

	camera := scene.NewCamera(
		glm.Vec3{0, 0.6, 3},
		glm.Vec3{0, 0.4, 0},
		45,
		float32(configuration.Renderer.ScreenWidth)/float32(configuration.Renderer.ScreenHeight),
	)

	timeService := core.NewTime(configuration.Time)
	defer timeService.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	programSync := sync.WaitGroup{}

	/* Frame counter loop */
	programSync.Add(1)
	go func(ctx context.Context, wg *sync.WaitGroup) {
	CounterLoop:
		for {
			select {
			case <-ctx.Done():
				break CounterLoop
			default:
				fmt.Printf("\r\033[2KFrame count: %d\tCGO calls: %d",
					atomic.LoadInt64(&frameCounter), runtime.NumCgoCall())
				time.Sleep(200 * time.Millisecond)
			}
		}
		wg.Done()
	}(ctx, &programSync)

	/* Renderer loop */
	programSync.Add(1)
	go func(ctx context.Context, wg *sync.WaitGroup) {
	RenderLoop:
		for {
			select {
			case <-ctx.Done():
				break RenderLoop
			case <-timeService.FpsTicker().C:
				if atomic.CompareAndSwapInt32(&reloadRequested, 1, 0) {
					if err := rasterPath.Reload(); err != nil {
						log.Error("Reloading pipeline: " + err.Error())
					}
				}

				yaw := atomic.SwapInt32(&orbitYaw, 0)
				pitch := atomic.SwapInt32(&orbitPitch, 0)
				if yaw != 0 || pitch != 0 {
					camera.Orbit(float32(yaw)*0.001, float32(pitch)*0.001)
				}

				if err := coordinator.Frame(camera); err != nil {
					log.Error("Drawing frame: " + err.Error())
				}
				atomic.AddInt64(&frameCounter, 1)

				if n := atomic.SwapInt32(&screenshotCounter, 0); n > 0 {
					name := fmt.Sprintf("strand-%d.png", time.Now().Unix())
					if err := coordinator.Screenshot(name); err != nil {
						log.Error("Saving screenshot: " + err.Error())
					} else {
						log.Info("Screenshot saved to " + name)
					}
				}
			}
		}
		wg.Done()
	}(ctx, &programSync)

	/* Event loop */
EventLoop:
	for {
		select {
		case <-ctx.Done():
			break EventLoop
		case <-timeService.EventTicker().C:
			for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
				switch et := event.(type) {
				case *sdl.KeyboardEvent:
					if et.Type != sdl.KEYDOWN {
						break
					}
					handleKey(et.Keysym.Sym, cancel, tracePath)
				case *sdl.QuitEvent:
					cancel()
				}
			}
		}
	}

	programSync.Wait()
	fmt.Println()

	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			panic(err)
		}
		defer f.Close()

		runtime.GC()
		if err := pprof.WriteHeapProfile(f); err != nil {
			panic(err)
		}
	}
}

// handleKey reacts to a single key press on the event loop. Anything that
// touches Vulkan state is deferred to the renderer loop through atomics,
// the ray tracer mode switch is safe to flip from here.
func handleKey(key sdl.Keycode, cancel context.CancelFunc, tracePath *raytracer.Raytracer) {
	switch key {
	case sdl.K_ESCAPE:
		cancel()
	case sdl.K_TAB:
		if atomic.LoadInt32(&raytraceActive) == 1 {
			atomic.StoreInt32(&raytraceActive, 0)
			log.Info("Switched to the rasterized path")
		} else {
			atomic.StoreInt32(&raytraceActive, 1)
			log.Info("Switched to the ray traced path")
		}
	case sdl.K_o:
		if tracePath.Mode() == raytracer.Shaded {
			tracePath.SetMode(raytracer.AmbientOcclusion)
			log.Info("Visualising ambient occlusion")
		} else {
			tracePath.SetMode(raytracer.Shaded)
			log.Info("Visualising shaded hair")
		}
	case sdl.K_s:
		atomic.AddInt32(&screenshotCounter, 1)
	case sdl.K_r:
		atomic.StoreInt32(&reloadRequested, 1)
	case sdl.K_LEFT:
		atomic.AddInt32(&orbitYaw, -25)
	case sdl.K_RIGHT:
		atomic.AddInt32(&orbitYaw, 25)
	case sdl.K_UP:
		atomic.AddInt32(&orbitPitch, 25)
	case sdl.K_DOWN:
		atomic.AddInt32(&orbitPitch, -25)
	}
}

func applyFlagOverrides(configuration *core.Configuration) {
	if *width > 0 {
		configuration.Renderer.ScreenWidth = uint32(*width)
		configuration.Tracer.FrameWidth = *width
	}
	if *height > 0 {
		configuration.Renderer.ScreenHeight = uint32(*height)
		configuration.Tracer.FrameHeight = *height
	}
	if *frameRate > 0 {
		configuration.Time.FramesPerSecond = *frameRate
	}
	if *shaderDir != "" {
		configuration.Renderer.ShaderDirectory = *shaderDir
	}
	if *vulkanDebug {
		configuration.Instance.DebugMode = true
	}
}

func forwardDiagnostics(severity core.DiagnosticsSeverity, message string) {
	switch severity {
	case core.DiagnosticsError:
		log.Error("Vulkan: " + message)
	case core.DiagnosticsWarning:
		log.Warn("Vulkan: " + message)
	default:
		log.Debug("Vulkan: " + message)
	}
}

// loadStyle reads a hair style from disk, either a raw .hair file or an
// entry inside a .har archive. An empty entry name picks the first one.
func loadStyle(path, entry string) (*hair.Style, error) {
	if filepath.Ext(path) != ".har" {
		return hair.LoadFile(path)
	}

	reader, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	archive, err := har.Open(reader)
	if err != nil {
		return nil, err
	}

	if entry == "" {
		index := archive.Header().Index
		if len(index) == 0 {
			return nil, har.ErrNotFound
		}
		entry = index[0].Name
	}

	file, err := archive.Open(entry)
	if err != nil {
		return nil, err
	}
	return hair.Load(file)
}

func newWindow(cfg core.RendererConfiguration) *sdl.Window {
	window, err := sdl.CreateWindow(
		"Strand",
		sdl.WINDOWPOS_UNDEFINED,
		sdl.WINDOWPOS_UNDEFINED,
		int32(cfg.ScreenWidth),
		int32(cfg.ScreenHeight),
		sdl.WINDOW_VULKAN|sdl.WINDOW_RESIZABLE,
	)
	if err != nil {
		panic(err)
	}
	return window
}
