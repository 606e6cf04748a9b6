package core

import (
	"image"

	vk "github.com/vulkan-go/vulkan"

	"github.com/strandlab/strand/scene"
)

// Driver abstracts the graphics API the engine negotiates its
// context over. The Vulkan implementation talks to the loader,
// tests substitute their own.
type Driver interface {
	// AvailableLayers lists the layers the runtime offers
	AvailableLayers() ([]Capability, error)

	// AvailableExtensions lists the instance extensions the
	// runtime offers
	AvailableExtensions() ([]Capability, error)

	// CreateContext creates the API context with the given
	// capability sets enabled
	CreateContext(app Application, layers, extensions []Capability) (interface{}, error)

	// DestroyContext releases a context created by CreateContext
	DestroyContext(context interface{})

	// CreateMessenger attaches a diagnostics channel to the context
	CreateMessenger(context interface{}, callback DiagnosticsFunc) (interface{}, error)

	// DestroyMessenger releases a messenger created by CreateMessenger
	DestroyMessenger(context, messenger interface{})
}

// DiagnosticsSeverity grades driver diagnostics messages.
type DiagnosticsSeverity int

// Severities a diagnostics channel delivers.
const (
	DiagnosticsInfo = DiagnosticsSeverity(iota)
	DiagnosticsWarning
	DiagnosticsError
)

// DiagnosticsFunc receives validation and debug messages from the
// driver.
type DiagnosticsFunc func(severity DiagnosticsSeverity, message string)

// RasterPath describes the GPU rendering machinery.
// It's created only with internal values set,
// it needs to be initialised with Initialise() before use.
type RasterPath interface {
	// Initialise sets up the configured rendering pipeline
	Initialise() error

	// Draw renders the hair geometry as seen through the camera
	Draw(*scene.Camera) error

	// Composite uploads a ray traced frame and draws it over the
	// viewport in place of the geometry pass
	Composite(*image.RGBA) error

	// Present queues the last drawn frame for display
	Present() error

	// Reload rebuilds the pipeline, picking up changed shaders
	Reload() error

	// DeviceIsSuitable checks if the device given is suitable
	// for the rendering pipeline. If not suitable string contains the reason
	DeviceIsSuitable(vk.PhysicalDevice) (bool, string)

	// Destroy destroys internal members
	Destroy()
}

// TracePath describes the CPU rendering machinery.
type TracePath interface {
	// Draw renders one frame as seen through the camera
	Draw(*scene.Camera) (*image.RGBA, error)
}

// ShaderType represents the type of shader thats loaded
type ShaderType int

// Identifies shader objects with their types
const (
	VertexShaderType ShaderType = iota
	FragmentShaderType
	UnknownShaderType
)

// Shader describes a loaded shader module.
type Shader interface {
	// Type returns the pipeline stage the shader fills
	Type() ShaderType

	// Name returns the shader's base name
	Name() string

	// ShaderModule returns the inner module handle of the underlying API
	ShaderModule() interface{}

	// Destroy destroys internal members
	Destroy()
}
