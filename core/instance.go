package core

import (
	vk "github.com/vulkan-go/vulkan"
)

// Application identifies the program and engine to the driver.
type Application struct {
	Name          string
	Version       uint32
	Engine        string
	EngineVersion uint32
	APIVersion    uint32
}

// Instance is a negotiated graphics context: the driver object plus
// an optional diagnostics channel, with single ownership of both.
// The zero value owns nothing, instances come from NewInstance or
// NewVulkanInstance.
type Instance struct {
	driver    Driver
	app       Application
	context   interface{}
	messenger interface{}

	layers     []Capability
	extensions []Capability

	surface vk.Surface
	devices []vk.PhysicalDevice
}

// NewInstance negotiates a graphics context over the driver. Wanted
// layers resolve first, then extensions, a failure naming every
// missing capability of its kind. A diagnostics channel is attached
// only when a callback is configured and neither the debug report
// extension nor the validation layer is among the requests, either
// of those delivers its own reporting and a channel on top would
// double it up.
func NewInstance(driver Driver, caps *Capabilities, app Application, cfg InstanceConfiguration) (*Instance, error) {
	available, err := caps.Layers()
	if err != nil {
		return nil, err
	}
	if missing := FindMissing(available, cfg.Layers); len(missing) > 0 {
		return nil, &MissingCapabilityError{Kind: LayerCapability, Missing: missing}
	}

	available, err = caps.Extensions()
	if err != nil {
		return nil, err
	}
	if missing := FindMissing(available, cfg.Extensions); len(missing) > 0 {
		return nil, &MissingCapabilityError{Kind: ExtensionCapability, Missing: missing}
	}

	context, err := driver.CreateContext(app, cfg.Layers, cfg.Extensions)
	if err != nil {
		return nil, err
	}

	instance := &Instance{
		driver:     driver,
		app:        app,
		context:    context,
		layers:     cfg.Layers,
		extensions: cfg.Extensions,
	}

	if cfg.Diagnostics != nil &&
		!requested(cfg.Layers, ValidationLayer) &&
		!requested(cfg.Extensions, DebugReportExtension) {
		messenger, err := driver.CreateMessenger(context, cfg.Diagnostics)
		if err != nil {
			driver.DestroyContext(context)
			return nil, err
		}
		instance.messenger = messenger
	}

	return instance, nil
}

func requested(caps []Capability, name string) bool {
	for _, c := range caps {
		if c.Name == name {
			return true
		}
	}
	return false
}

// Handle returns the inner context handle of the underlying API.
func (i *Instance) Handle() interface{} {
	return i.context
}

// Application returns the descriptor the context identifies itself
// with.
func (i *Instance) Application() Application {
	return i.app
}

// DiagnosticsAttached reports whether a diagnostics channel rides on
// the context.
func (i *Instance) DiagnosticsAttached() bool {
	return i.messenger != nil
}

// Layers returns the layer set the context was created with.
func (i *Instance) Layers() []Capability {
	return i.layers
}

// Extensions returns the extension set the context was created with.
func (i *Instance) Extensions() []Capability {
	return i.extensions
}

// Transfer moves ownership of the driver objects into a new value
// and leaves the source holding nothing, so destroying the source
// afterwards is a no-op.
func (i *Instance) Transfer() *Instance {
	moved := &Instance{
		driver:     i.driver,
		app:        i.app,
		context:    i.context,
		messenger:  i.messenger,
		layers:     i.layers,
		extensions: i.extensions,
		surface:    i.surface,
		devices:    i.devices,
	}
	i.context = nil
	i.messenger = nil
	i.surface = nil
	i.devices = nil
	return moved
}

// Destroy releases the diagnostics channel first, then the context.
// Safe to call on an instance whose ownership was transferred away.
func (i *Instance) Destroy() {
	if i.messenger != nil {
		i.driver.DestroyMessenger(i.context, i.messenger)
		i.messenger = nil
	}
	if i.context != nil {
		i.driver.DestroyContext(i.context)
		i.context = nil
	}
	i.devices = nil
}
