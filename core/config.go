package core

import (
	"runtime"
	"strconv"

	"github.com/gobuffalo/envy"
)

// Configuration defines a global engine configuration setting
type Configuration struct {
	Time     TimeConfiguration
	Instance InstanceConfiguration
	Renderer RendererConfiguration
	Tracer   TracerConfiguration
}

// TimeConfiguration is used to configure time services
type TimeConfiguration struct {
	// FramesPerSecond caps frames per second that is put out
	// To unlimit, set to 0
	FramesPerSecond int

	// EventPollDelay is the period between window event sweeps
	// in milliseconds
	EventPollDelay int
}

// InstanceConfiguration is used to configure the engine instance
type InstanceConfiguration struct {
	Layers     []Capability
	Extensions []Capability

	// DebugMode requests the validation layer and the debug report
	// extension on top of the configured sets
	DebugMode bool

	// Diagnostics receives driver diagnostics when a messenger
	// gets attached
	Diagnostics DiagnosticsFunc
}

// RendererConfiguration is used to configure the renderer
type RendererConfiguration struct {
	SwapchainSize    uint32
	DeviceExtensions []string

	ScreenWidth  uint32
	ScreenHeight uint32

	// ShaderDirectory overrides the built in shaders when set
	ShaderDirectory string
}

// TracerConfiguration is used to configure the ray tracing render path
type TracerConfiguration struct {
	FrameWidth  int
	FrameHeight int

	// Workers is the number of goroutines sharing the frame,
	// 0 picks the CPU count
	Workers int

	OcclusionSamples int
	OcclusionRadius  float32
}

// FromEnv assembles a Configuration from STRAND_* environment
// variables, falling back to defaults for anything unset.
func FromEnv() Configuration {
	return Configuration{
		Time: TimeConfiguration{
			FramesPerSecond: envInt("STRAND_FPS", 60),
			EventPollDelay:  envInt("STRAND_EVENT_POLL_MS", 2),
		},
		Instance: InstanceConfiguration{
			DebugMode: envBool("STRAND_DEBUG", false),
		},
		Renderer: RendererConfiguration{
			SwapchainSize:   uint32(envInt("STRAND_SWAPCHAIN_SIZE", 3)),
			ScreenWidth:     uint32(envInt("STRAND_WIDTH", 1280)),
			ScreenHeight:    uint32(envInt("STRAND_HEIGHT", 720)),
			ShaderDirectory: envy.Get("STRAND_SHADER_DIR", ""),
		},
		Tracer: TracerConfiguration{
			FrameWidth:       envInt("STRAND_TRACE_WIDTH", 1280),
			FrameHeight:      envInt("STRAND_TRACE_HEIGHT", 720),
			Workers:          envInt("STRAND_TRACE_WORKERS", runtime.NumCPU()),
			OcclusionSamples: envInt("STRAND_TRACE_AO_SAMPLES", 16),
			OcclusionRadius:  envFloat("STRAND_TRACE_AO_RADIUS", 1),
		},
	}
}

func envInt(key string, fallback int) int {
	value, err := strconv.Atoi(envy.Get(key, strconv.Itoa(fallback)))
	if err != nil {
		return fallback
	}
	return value
}

func envBool(key string, fallback bool) bool {
	value, err := strconv.ParseBool(envy.Get(key, strconv.FormatBool(fallback)))
	if err != nil {
		return fallback
	}
	return value
}

func envFloat(key string, fallback float32) float32 {
	value, err := strconv.ParseFloat(envy.Get(key, strconv.FormatFloat(float64(fallback), 'f', -1, 32)), 32)
	if err != nil {
		return fallback
	}
	return float32(value)
}
