package core

import (
	"errors"
	"unsafe"

	vk "github.com/vulkan-go/vulkan"

	"github.com/strandlab/strand/device"
)

// Capability names debug mode asks for on top of the configured sets.
const (
	ValidationLayer      = "VK_LAYER_LUNARG_standard_validation"
	DebugReportExtension = "VK_EXT_debug_report"
)

// DefaultApplication identifies the engine to the driver when the
// embedder doesn't care to.
var DefaultApplication = Application{
	Name:          "Strand",
	Version:       vk.MakeVersion(1, 0, 0),
	Engine:        "Strand",
	EngineVersion: vk.MakeVersion(1, 0, 0),
	APIVersion:    vk.MakeVersion(1, 0, 0),
}

// NewVulkanInstance initialises the Vulkan loader and negotiates an
// Instance over it. window is the windowing library's
// vkGetInstanceProcAddr, when nil the platform default loader is used.
func NewVulkanInstance(app Application, window unsafe.Pointer, cfg InstanceConfiguration) (*Instance, error) {
	if cfg.DebugMode {
		cfg.Layers = append(cfg.Layers, Capability{Name: ValidationLayer})
		cfg.Extensions = append(cfg.Extensions, Capability{Name: DebugReportExtension})
	}

	if window == nil {
		if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
			return nil, errors.New("vk.InstanceProcAddr(): " + err.Error())
		}
	} else {
		vk.SetGetInstanceProcAddr(window)
	}

	if err := vk.Init(); err != nil {
		return nil, errors.New("vk.Init(): " + err.Error())
	}

	driver := VulkanDriver{}
	return NewInstance(driver, NewCapabilities(driver), app, cfg)
}

// VulkanDriver negotiates instance contexts over the Vulkan loader.
// The loader must be initialised before any method runs,
// NewVulkanInstance does both in the right order.
type VulkanDriver struct{}

// AvailableLayers implements interface
func (VulkanDriver) AvailableLayers() ([]Capability, error) {
	var layerCount uint32
	if err := vk.Error(vk.EnumerateInstanceLayerProperties(&layerCount, nil)); err != nil {
		return nil, errors.New("vk.EnumerateInstanceLayerProperties(): " + err.Error())
	}
	properties := make([]vk.LayerProperties, layerCount)
	if err := vk.Error(vk.EnumerateInstanceLayerProperties(&layerCount, properties)); err != nil {
		return nil, errors.New("vk.EnumerateInstanceLayerProperties(): " + err.Error())
	}

	layers := make([]Capability, 0, layerCount)
	for _, prop := range properties {
		prop.Deref()
		layers = append(layers, Capability{
			Name:    vk.ToString(prop.LayerName[:]),
			Version: uint32(prop.SpecVersion),
		})
	}
	return layers, nil
}

// AvailableExtensions implements interface
func (VulkanDriver) AvailableExtensions() ([]Capability, error) {
	var extensionCount uint32
	if err := vk.Error(vk.EnumerateInstanceExtensionProperties("", &extensionCount, nil)); err != nil {
		return nil, errors.New("vk.EnumerateInstanceExtensionProperties(): " + err.Error())
	}
	properties := make([]vk.ExtensionProperties, extensionCount)
	if err := vk.Error(vk.EnumerateInstanceExtensionProperties("", &extensionCount, properties)); err != nil {
		return nil, errors.New("vk.EnumerateInstanceExtensionProperties(): " + err.Error())
	}

	extensions := make([]Capability, 0, extensionCount)
	for _, prop := range properties {
		prop.Deref()
		extensions = append(extensions, Capability{
			Name:    vk.ToString(prop.ExtensionName[:]),
			Version: uint32(prop.SpecVersion),
		})
	}
	return extensions, nil
}

// CreateContext implements interface
func (VulkanDriver) CreateContext(app Application, layers, extensions []Capability) (interface{}, error) {
	appInfo := vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		PApplicationName:   safeString(app.Name),
		ApplicationVersion: app.Version,
		PEngineName:        safeString(app.Engine),
		EngineVersion:      app.EngineVersion,
		ApiVersion:         app.APIVersion,
	}

	/* Create instance */
	instanceInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        &appInfo,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: safeStrings(Names(extensions)),
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     safeStrings(Names(layers)),
	}

	var instance vk.Instance
	if result := vk.CreateInstance(&instanceInfo, nil, &instance); result != vk.Success {
		return nil, &ContextError{Code: int32(result)}
	}
	vk.InitInstance(instance)
	return instance, nil
}

// DestroyContext implements interface
func (VulkanDriver) DestroyContext(context interface{}) {
	vk.DestroyInstance(context.(vk.Instance), nil)
}

// CreateMessenger implements interface
func (VulkanDriver) CreateMessenger(context interface{}, callback DiagnosticsFunc) (interface{}, error) {
	createInfo := vk.DebugReportCallbackCreateInfo{
		SType: vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags: vk.DebugReportFlags(vk.DebugReportErrorBit |
			vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit),
		PfnCallback: func(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType,
			object uint64, location uint, messageCode int32, layerPrefix string,
			message string, userData unsafe.Pointer) vk.Bool32 {
			callback(reportSeverity(flags), message)
			return vk.Bool32(vk.False)
		},
	}

	var messenger vk.DebugReportCallback
	if err := vk.Error(vk.CreateDebugReportCallback(context.(vk.Instance), &createInfo, nil, &messenger)); err != nil {
		return nil, errors.New("vk.CreateDebugReportCallback(): " + err.Error())
	}
	return messenger, nil
}

// DestroyMessenger implements interface
func (VulkanDriver) DestroyMessenger(context, messenger interface{}) {
	vk.DestroyDebugReportCallback(context.(vk.Instance), messenger.(vk.DebugReportCallback), nil)
}

func reportSeverity(flags vk.DebugReportFlags) DiagnosticsSeverity {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		return DiagnosticsError
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		return DiagnosticsWarning
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		return DiagnosticsWarning
	default:
		return DiagnosticsInfo
	}
}

// SetSurface sets the window surface to render to.
func (i *Instance) SetSurface(pSurface unsafe.Pointer) {
	i.surface = vk.SurfaceFromPointer(uintptr(pSurface))
}

// Surface returns the window surface, if it's not set
// it returns a valid but empty surface.
func (i *Instance) Surface() vk.Surface {
	if i.surface == nil {
		return vk.NullSurface
	}
	return i.surface
}

// AvailableDevices returns handles to the physical devices behind the
// context, enumerated once and cached. Only valid on instances
// negotiated over the Vulkan driver.
func (i *Instance) AvailableDevices() ([]vk.PhysicalDevice, error) {
	if i.devices != nil {
		return i.devices, nil
	}
	devices, err := device.Enumerate(i.context.(vk.Instance))
	if err != nil {
		return nil, err
	}
	i.devices = devices
	return devices, nil
}

// PhysicalDevicesInfo returns a struct for each physical device
// along with info about those devices.
func (i *Instance) PhysicalDevicesInfo() ([]device.PhysicalDeviceInfo, error) {
	devices, err := i.AvailableDevices()
	if err != nil {
		return nil, err
	}
	return device.Describe(devices), nil
}
