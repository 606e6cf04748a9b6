// Copyright (c) 2019 strandlab
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package rasterizer implements the GPU hair render path: a Vulkan
// line list pipeline drawing strand segments, and a fullscreen blit
// pipeline that composites ray traced frames over the viewport.
package rasterizer

import (
	"errors"
	"fmt"
	"image"
	"math"
	"unsafe"

	glm "github.com/go-gl/mathgl/mgl32"
	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"
	"golang.org/x/image/draw"

	"github.com/strandlab/strand/core"
	"github.com/strandlab/strand/hair"
	"github.com/strandlab/strand/scene"
)

// NewRenderer creates a rasterized render path for the given hair
// style, on the first suitable physical device behind the instance.
func NewRenderer(instance *core.Instance, style *hair.Style, cfg core.RendererConfiguration) (core.RasterPath, error) {
	if style == nil {
		return nil, errors.New("rasterizer: nil hair style")
	}
	if instance.Surface() == vk.NullSurface {
		return nil, errors.New("rasterizer: instance has no surface set")
	}

	devices, err := instance.AvailableDevices()
	if err != nil {
		return nil, err
	}
	if len(devices) == 0 {
		return nil, errors.New("rasterizer: no physical devices available")
	}

	renderer := &VulkanRenderer{
		configuration:        cfg,
		currentSurfaceWidth:  cfg.ScreenWidth,
		currentSurfaceHeight: cfg.ScreenHeight,
		surface:              instance.Surface(),
		style:                style,
	}

	var deviceFound bool
	for _, dev := range devices {
		ok, reason := renderer.DeviceIsSuitable(dev)
		if ok {
			renderer.physicalDevice = dev
			deviceFound = true
			break
		}
		log.WithFields(log.Fields{"reason": reason}).Debug("Skipping physical device")
	}
	if !deviceFound {
		return nil, errors.New("rasterizer: no suitable physical device found")
	}

	return renderer, nil
}

// VulkanRenderer is a Vulkan API renderer for hair geometry
type VulkanRenderer struct {
	configuration core.RendererConfiguration

	style *hair.Style

	surface              vk.Surface
	currentSurfaceWidth  uint32
	currentSurfaceHeight uint32

	physicalDevice     vk.PhysicalDevice
	logicalDevice      vk.Device
	deviceQueue        vk.Queue
	graphicsQueueIndex uint32

	imageFormat     vk.Format
	imageColorspace vk.ColorSpace

	swapchain           vk.Swapchain
	swapchainImages     []vk.Image
	swapchainImageViews []vk.ImageView
	framebuffers        []vk.Framebuffer

	viewport vk.Viewport
	scissor  vk.Rect2D

	renderPass    vk.RenderPass
	pipelineCache vk.PipelineCache

	hairSetLayout      vk.DescriptorSetLayout
	blitSetLayout      vk.DescriptorSetLayout
	hairPipelineLayout vk.PipelineLayout
	blitPipelineLayout vk.PipelineLayout
	hairPipeline       vk.Pipeline
	blitPipeline       vk.Pipeline

	descriptorPool     vk.DescriptorPool
	hairDescriptorSets []vk.DescriptorSet
	blitDescriptorSet  vk.DescriptorSet

	depthImage       Image
	depthImageView   vk.ImageView
	depthImageFormat vk.Format

	commandPool    vk.CommandPool
	commandBuffers []vk.CommandBuffer

	imageAvailableSemaphore vk.Semaphore
	renderFinishedSemphore  vk.Semaphore
	imageFence              vk.Fence
	imageIndex              uint32

	allocator *MemoryAllocator
	shaders   []core.Shader

	vertexBuffer   Buffer
	indexBuffer    Buffer
	indexCount     uint32
	uniformBuffers []Buffer

	compositeImage     Image
	compositeImageView vk.ImageView
	compositeSampler   vk.Sampler
	compositeStaging   Buffer
	compositeReady     bool
	compositeActive    bool
}

// Initialise implements interface
func (v *VulkanRenderer) Initialise() error {
	{
		var queueFamilyCount uint32
		vk.GetPhysicalDeviceQueueFamilyProperties(v.physicalDevice, &queueFamilyCount, nil)
		queueFamilies := make([]vk.QueueFamilyProperties, queueFamilyCount)
		vk.GetPhysicalDeviceQueueFamilyProperties(v.physicalDevice, &queueFamilyCount, queueFamilies)

		if queueFamilyCount == 0 {
			return errors.New("vk.GetPhysicalDeviceQueueFamilyProperties(): no queuefamilies on GPU")
		}

		/* Find a queue family with both graphics and present support */
		var queueFound bool
		for idx := uint32(0); idx < queueFamilyCount; idx++ {
			var supportsPresent vk.Bool32
			vk.GetPhysicalDeviceSurfaceSupport(v.physicalDevice, idx, v.surface, &supportsPresent)
			queueFamilies[idx].Deref()
			if queueFamilies[idx].QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0 && supportsPresent.B() {
				v.graphicsQueueIndex = idx
				queueFound = true
				break
			}
		}
		if !queueFound {
			return errors.New("vulkan error: could not find a queue family with graphics and present support")
		}
	}

	/* Logical Device setup */
	queueInfos := []vk.DeviceQueueCreateInfo{{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: v.graphicsQueueIndex,
		QueueCount:       1,
		PQueuePriorities: []float32{1},
	}}

	requiredExtensions := v.requiredDeviceExtensions()
	var vkDevice vk.Device
	dci := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(requiredExtensions)),
		PpEnabledExtensionNames: safeStrings(requiredExtensions),
		PEnabledFeatures: []vk.PhysicalDeviceFeatures{{
			SamplerAnisotropy: vk.True,
		}},
	}
	if err := vk.Error(vk.CreateDevice(v.physicalDevice, &dci, nil, &vkDevice)); err != nil {
		return errors.New("vk.CreateDevice(): " + err.Error())
	}

	var deviceQueue vk.Queue
	vk.GetDeviceQueue(vkDevice, v.graphicsQueueIndex, 0, &deviceQueue)

	v.deviceQueue = deviceQueue
	v.logicalDevice = vkDevice

	allocator, err := NewMemoryAllocator(v.logicalDevice, v.physicalDevice)
	if err != nil {
		return err
	}
	v.allocator = allocator

	/* ImageFormat */
	var (
		surfaceFormatCount uint32
		surfaceFormats     []vk.SurfaceFormat
	)

	if err := vk.Error(vk.GetPhysicalDeviceSurfaceFormats(v.physicalDevice, v.surface, &surfaceFormatCount, nil)); err != nil {
		return errors.New("vk.GetPhysicalDeviceSurfaceFormats(): " + err.Error())
	}

	surfaceFormats = make([]vk.SurfaceFormat, surfaceFormatCount)
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceFormats(v.physicalDevice, v.surface, &surfaceFormatCount, surfaceFormats)); err != nil {
		return errors.New("vk.GetPhysicalDeviceSurfaceFormats(): " + err.Error())
	}

	surfaceFormats[0].Deref()

	{
		var supported vk.Bool32
		if err := vk.Error(vk.GetPhysicalDeviceSurfaceSupport(v.physicalDevice, v.graphicsQueueIndex, v.surface, &supported)); err != nil {
			return errors.New("vk.GetPhysicalDeviceSurfaceSupport(): " + err.Error())
		}

		if !supported.B() {
			return fmt.Errorf("vk.GetPhysicalDeviceSurfaceSupport(): surface is not supported")
		}
	}
	v.imageFormat = surfaceFormats[0].Format
	v.imageColorspace = surfaceFormats[0].ColorSpace

	/* Swapchain setup */
	if err := v.createSwapchain(nil); err != nil {
		return err
	}

	/* Viewport and scissors creation */
	v.createViewport()

	/* Depth image */
	if err := v.prepareDepthImage(); err != nil {
		return err
	}

	/* Pipeline layouts */
	if err := v.createPipelineLayouts(); err != nil {
		return err
	}

	/* Render pass */
	if err := v.createRenderPass(); err != nil {
		return err
	}

	/* Shaders */
	shaders, err := loadShaders(v.logicalDevice, v.configuration.ShaderDirectory)
	if err != nil {
		return err
	}
	v.shaders = shaders

	/* Pipeline cache */
	if err := v.createPipelineCache(); err != nil {
		return err
	}

	/* Pipelines */
	if err := v.createPipelines(); err != nil {
		return err
	}

	if err := v.createImageViews(); err != nil {
		return err
	}

	if err := v.createFramebuffers(); err != nil {
		return err
	}

	if err := v.createCommandPool(); err != nil {
		return err
	}

	if err := v.createCompositeSampler(); err != nil {
		return err
	}

	if err := v.prepareDescriptorPool(); err != nil {
		return err
	}

	if err := v.allocateCommandBuffers(); err != nil {
		return err
	}

	if err := v.createSynchronization(); err != nil {
		return err
	}

	if err := v.uploadHairGeometry(); err != nil {
		return err
	}

	if err := v.createUniformBuffers(); err != nil {
		return err
	}

	if err := v.createHairDescriptorSets(); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"width":   v.currentSurfaceWidth,
		"height":  v.currentSurfaceHeight,
		"strands": v.style.StrandCount(),
	}).Info("Vulkan rasterizer initialised")

	return nil
}

func (v *VulkanRenderer) requiredDeviceExtensions() []string {
	return append([]string{vk.KhrSwapchainExtensionName}, v.configuration.DeviceExtensions...)
}

// DeviceIsSuitable implements interface
func (v *VulkanRenderer) DeviceIsSuitable(device vk.PhysicalDevice) (bool, string) {
	var queueFamilyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &queueFamilyCount, nil)
	queueFamilies := make([]vk.QueueFamilyProperties, queueFamilyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &queueFamilyCount, queueFamilies)

	var graphicsFound bool
	for idx := range queueFamilies {
		queueFamilies[idx].Deref()
		if queueFamilies[idx].QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0 {
			graphicsFound = true
			break
		}
	}
	if !graphicsFound {
		return false, "no queue family with graphics support"
	}

	var extensionCount uint32
	if err := vk.Error(vk.EnumerateDeviceExtensionProperties(device, "", &extensionCount, nil)); err != nil {
		return false, "vk.EnumerateDeviceExtensionProperties(): " + err.Error()
	}
	properties := make([]vk.ExtensionProperties, extensionCount)
	if err := vk.Error(vk.EnumerateDeviceExtensionProperties(device, "", &extensionCount, properties)); err != nil {
		return false, "vk.EnumerateDeviceExtensionProperties(): " + err.Error()
	}

	available := make(map[string]bool, len(properties))
	for idx := range properties {
		properties[idx].Deref()
		available[vk.ToString(properties[idx].ExtensionName[:])] = true
	}

	for _, name := range v.requiredDeviceExtensions() {
		if !available[name] {
			return false, "missing device extension " + name
		}
	}
	return true, ""
}

// Draw implements interface
func (v *VulkanRenderer) Draw(cam *scene.Camera) error {
	vk.WaitForFences(v.logicalDevice, 1, []vk.Fence{v.imageFence}, 0, math.MaxUint32)
	vk.ResetFences(v.logicalDevice, 1, []vk.Fence{v.imageFence})

	if result := vk.AcquireNextImage(v.logicalDevice, v.swapchain, math.MaxUint64, v.imageAvailableSemaphore, nil, &v.imageIndex); result == vk.ErrorOutOfDate {
		if err := v.recreatePipeline(); err != nil {
			return err
		}
		return nil
	}

	v.compositeActive = false

	if err := v.updateUniformBuffers(v.imageIndex, cam); err != nil {
		return err
	}

	/* Fill in command buffers */
	if err := v.buildCommandBuffers(v.imageIndex); err != nil {
		return err
	}

	return v.submitFrame()
}

// Composite implements interface
func (v *VulkanRenderer) Composite(frame *image.RGBA) error {
	if frame == nil {
		return errors.New("rasterizer: nil frame to composite")
	}

	vk.WaitForFences(v.logicalDevice, 1, []vk.Fence{v.imageFence}, 0, math.MaxUint32)
	vk.ResetFences(v.logicalDevice, 1, []vk.Fence{v.imageFence})

	if result := vk.AcquireNextImage(v.logicalDevice, v.swapchain, math.MaxUint64, v.imageAvailableSemaphore, nil, &v.imageIndex); result == vk.ErrorOutOfDate {
		if err := v.recreatePipeline(); err != nil {
			return err
		}
		return nil
	}

	if !v.compositeReady {
		if err := v.createCompositeTexture(); err != nil {
			return err
		}
	}

	if err := v.uploadCompositeFrame(frame); err != nil {
		return err
	}

	v.compositeActive = true

	/* Fill in command buffers */
	if err := v.buildCommandBuffers(v.imageIndex); err != nil {
		return err
	}

	return v.submitFrame()
}

func (v *VulkanRenderer) submitFrame() error {
	submit := []vk.SubmitInfo{{
		SType:              vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{v.imageAvailableSemaphore},
		PWaitDstStageMask: []vk.PipelineStageFlags{
			vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{v.commandBuffers[v.imageIndex]},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{v.renderFinishedSemphore},
	}}

	if err := vk.Error(vk.QueueSubmit(v.deviceQueue, 1, submit, v.imageFence)); err != nil {
		return errors.New("vk.QueueSubmit(): " + err.Error())
	}
	return nil
}

// Present implements interface
func (v *VulkanRenderer) Present() error {
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{v.renderFinishedSemphore},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{v.swapchain},
		PImageIndices:      []uint32{v.imageIndex},
	}

	presentResult := vk.QueuePresent(v.deviceQueue, &presentInfo)
	if presentResult == vk.ErrorOutOfDate {
		if err := v.recreatePipeline(); err != nil {
			return err
		}
		return nil
	}

	if err := vk.Error(presentResult); err != nil {
		return errors.New("vk.QueuePresent(): " + err.Error())
	}

	return nil
}

// Reload implements interface
func (v *VulkanRenderer) Reload() error {
	vk.DeviceWaitIdle(v.logicalDevice)

	for _, shader := range v.shaders {
		shader.Destroy()
	}
	shaders, err := loadShaders(v.logicalDevice, v.configuration.ShaderDirectory)
	if err != nil {
		return err
	}
	v.shaders = shaders

	if err := v.recreatePipeline(); err != nil {
		return err
	}

	log.Info("Rendering pipeline reloaded")
	return nil
}

func (v *VulkanRenderer) updateUniformBuffers(imageIdx uint32, cam *scene.Camera) error {
	ubo := Uniform{
		Model:      glm.Ident4(),
		View:       cam.ViewMatrix(),
		Projection: cam.ProjectionMatrix(),
	}
	ubo.Projection[5] *= -1 // Flip from OpenGl to Vulkan projection

	mem := v.uniformBuffers[imageIdx].Mem()
	mappedMemory, err := mem.Map()
	if err != nil {
		return err
	}
	castMemory := *(*[]Uniform)(unsafe.Pointer(&sliceHeader{
		Data: uintptr(mappedMemory),
		Cap:  1,
		Len:  1,
	}))
	copy(castMemory, []Uniform{ubo})
	mem.Unmap()
	return nil
}

func (v *VulkanRenderer) buildCommandBuffers(imageIdx uint32) error {
	if err := vk.Error(vk.ResetCommandBuffer(v.commandBuffers[imageIdx], vk.CommandBufferResetFlags(vk.CommandBufferResetReleaseResourcesBit))); err != nil {
		return fmt.Errorf("vk.ResetCommandBuffer(): %s", err.Error())
	}

	cbbi := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageSimultaneousUseBit),
	}
	if err := vk.Error(vk.BeginCommandBuffer(v.commandBuffers[imageIdx], &cbbi)); err != nil {
		return fmt.Errorf("vk.BeginCommandBuffer()[%d]: %s", imageIdx, err.Error())
	}

	clearValues := make([]vk.ClearValue, 2)
	clearValues[1].SetDepthStencil(1, 0)
	// Same background as the ray traced path.
	clearValues[0].SetColor([]float32{0.32, 0.34, 0.38, 1})

	rpbi := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  v.renderPass,
		Framebuffer: v.framebuffers[imageIdx],
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{
				X: 0, Y: 0,
			},
			Extent: vk.Extent2D{
				Width:  v.currentSurfaceWidth,
				Height: v.currentSurfaceHeight,
			},
		},
		ClearValueCount: 2,
		PClearValues:    clearValues,
	}
	vk.CmdBeginRenderPass(v.commandBuffers[imageIdx], &rpbi, vk.SubpassContentsInline)
	vk.CmdSetViewport(v.commandBuffers[imageIdx], 0, 1, []vk.Viewport{v.viewport})
	vk.CmdSetScissor(v.commandBuffers[imageIdx], 0, 1, []vk.Rect2D{v.scissor})

	if v.compositeActive {
		vk.CmdBindPipeline(v.commandBuffers[imageIdx], vk.PipelineBindPointGraphics, v.blitPipeline)
		vk.CmdBindDescriptorSets(v.commandBuffers[imageIdx], vk.PipelineBindPointGraphics, v.blitPipelineLayout, 0, 1, []vk.DescriptorSet{v.blitDescriptorSet}, 0, nil)
		vk.CmdDraw(v.commandBuffers[imageIdx], 3, 1, 0, 0)
	} else {
		vk.CmdBindPipeline(v.commandBuffers[imageIdx], vk.PipelineBindPointGraphics, v.hairPipeline)
		vk.CmdBindVertexBuffers(v.commandBuffers[imageIdx], 0, 1, []vk.Buffer{v.vertexBuffer.Get()}, []vk.DeviceSize{0})
		vk.CmdBindIndexBuffer(v.commandBuffers[imageIdx], v.indexBuffer.Get(), 0, vk.IndexTypeUint32)
		vk.CmdBindDescriptorSets(v.commandBuffers[imageIdx], vk.PipelineBindPointGraphics, v.hairPipelineLayout, 0, 1, []vk.DescriptorSet{v.hairDescriptorSets[imageIdx]}, 0, nil)
		vk.CmdDrawIndexed(v.commandBuffers[imageIdx], v.indexCount, 1, 0, 0, 0)
	}

	vk.CmdEndRenderPass(v.commandBuffers[imageIdx])

	if err := vk.Error(vk.EndCommandBuffer(v.commandBuffers[imageIdx])); err != nil {
		return fmt.Errorf("vk.EndCommandBuffer()[%d]: %s", imageIdx, err.Error())
	}
	return nil
}

func (v *VulkanRenderer) uploadHairGeometry() error {
	vertices := BuildVertices(v.style)
	if len(vertices) == 0 || len(v.style.Indices) == 0 {
		return errors.New("rasterizer: hair style has no drawable geometry")
	}

	vertexBuffer, err := NewBuffer(v.logicalDevice, uint(unsafe.Sizeof(Vertex{}))*uint(len(vertices)), vk.BufferUsageVertexBufferBit, vk.SharingModeExclusive, v.allocator)
	if err != nil {
		return err
	}
	v.vertexBuffer = vertexBuffer

	mem := v.vertexBuffer.Mem()
	mappedMemory, err := mem.Map()
	if err != nil {
		return err
	}
	castVertices := *(*[]Vertex)(unsafe.Pointer(&sliceHeader{
		Data: uintptr(mappedMemory),
		Cap:  len(vertices),
		Len:  len(vertices),
	}))
	copy(castVertices, vertices)
	mem.Unmap()

	indexBuffer, err := NewBuffer(v.logicalDevice, 4*uint(len(v.style.Indices)), vk.BufferUsageIndexBufferBit, vk.SharingModeExclusive, v.allocator)
	if err != nil {
		return err
	}
	v.indexBuffer = indexBuffer

	mem = v.indexBuffer.Mem()
	mappedMemory, err = mem.Map()
	if err != nil {
		return err
	}
	castIndices := *(*[]uint32)(unsafe.Pointer(&sliceHeader{
		Data: uintptr(mappedMemory),
		Cap:  len(v.style.Indices),
		Len:  len(v.style.Indices),
	}))
	copy(castIndices, v.style.Indices)
	mem.Unmap()

	v.indexCount = uint32(len(v.style.Indices))

	log.WithFields(log.Fields{
		"strands":  v.style.StrandCount(),
		"vertices": len(vertices),
		"segments": v.indexCount / 2,
	}).Debug("Hair geometry uploaded")

	return nil
}

func (v *VulkanRenderer) createUniformBuffers() error {
	uniformBuffers := make([]Buffer, len(v.swapchainImages))
	for idx := range v.swapchainImages {
		buffer, err := NewBuffer(v.logicalDevice, uint(unsafe.Sizeof(Uniform{})), vk.BufferUsageUniformBufferBit, vk.SharingModeExclusive, v.allocator)
		if err != nil {
			return err
		}
		uniformBuffers[idx] = buffer
	}
	v.uniformBuffers = uniformBuffers
	return nil
}

func (v *VulkanRenderer) createHairDescriptorSets() error {
	descriptorSets := make([]vk.DescriptorSet, len(v.swapchainImages))
	dsai := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     v.descriptorPool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{v.hairSetLayout},
	}

	for idx := range v.swapchainImages {
		if err := vk.Error(vk.AllocateDescriptorSets(v.logicalDevice, &dsai, &descriptorSets[idx])); err != nil {
			return fmt.Errorf("vk.AllocateDescriptorSets(): %s", err.Error())
		}

		dbi := vk.DescriptorBufferInfo{
			Buffer: v.uniformBuffers[idx].Get(),
			Offset: 0,
			Range:  vk.DeviceSize(unsafe.Sizeof(Uniform{})),
		}
		wds := []vk.WriteDescriptorSet{{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          descriptorSets[idx],
			DstBinding:      0,
			DstArrayElement: 0,
			DescriptorType:  vk.DescriptorTypeUniformBuffer,
			DescriptorCount: 1,
			PBufferInfo:     []vk.DescriptorBufferInfo{dbi},
		}}
		vk.UpdateDescriptorSets(v.logicalDevice, uint32(len(wds)), wds, 0, nil)
	}
	v.hairDescriptorSets = descriptorSets
	return nil
}

func (v *VulkanRenderer) createCompositeTexture() error {
	img, err := NewImage(v.logicalDevice, v.currentSurfaceWidth, v.currentSurfaceHeight, vk.FormatR8g8b8a8Unorm,
		vk.ImageUsageTransferDstBit|vk.ImageUsageSampledBit, vk.SharingModeExclusive, v.allocator)
	if err != nil {
		return err
	}
	v.compositeImage = img

	ivci := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    v.compositeImage.Get(),
		ViewType: vk.ImageViewType2d,
		Format:   vk.FormatR8g8b8a8Unorm,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}

	var view vk.ImageView
	if err := vk.Error(vk.CreateImageView(v.logicalDevice, &ivci, nil, &view)); err != nil {
		v.compositeImage.Release()
		return fmt.Errorf("vk.CreateImageView(): %s", err.Error())
	}
	v.compositeImageView = view

	staging, err := NewBuffer(v.logicalDevice, uint(v.currentSurfaceWidth)*uint(v.currentSurfaceHeight)*4, vk.BufferUsageTransferSrcBit, vk.SharingModeExclusive, v.allocator)
	if err != nil {
		vk.DestroyImageView(v.logicalDevice, v.compositeImageView, nil)
		v.compositeImage.Release()
		return err
	}
	v.compositeStaging = staging

	if err := v.writeBlitDescriptorSet(); err != nil {
		v.compositeStaging.Release()
		vk.DestroyImageView(v.logicalDevice, v.compositeImageView, nil)
		v.compositeImage.Release()
		return err
	}

	v.compositeReady = true
	return nil
}

func (v *VulkanRenderer) writeBlitDescriptorSet() error {
	dsai := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     v.descriptorPool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{v.blitSetLayout},
	}
	var set vk.DescriptorSet
	if err := vk.Error(vk.AllocateDescriptorSets(v.logicalDevice, &dsai, &set)); err != nil {
		return fmt.Errorf("vk.AllocateDescriptorSets(): %s", err.Error())
	}

	dii := vk.DescriptorImageInfo{
		ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
		ImageView:   v.compositeImageView,
		Sampler:     v.compositeSampler,
	}
	wds := []vk.WriteDescriptorSet{{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          set,
		DstBinding:      0,
		DstArrayElement: 0,
		DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
		DescriptorCount: 1,
		PImageInfo:      []vk.DescriptorImageInfo{dii},
	}}
	vk.UpdateDescriptorSets(v.logicalDevice, uint32(len(wds)), wds, 0, nil)

	v.blitDescriptorSet = set
	return nil
}

func (v *VulkanRenderer) releaseCompositeTexture() {
	if !v.compositeReady {
		return
	}
	v.compositeStaging.Release()
	vk.DestroyImageView(v.logicalDevice, v.compositeImageView, nil)
	v.compositeImage.Release()
	v.compositeReady = false
	v.compositeActive = false
}

func (v *VulkanRenderer) uploadCompositeFrame(frame *image.RGBA) error {
	pixels := frame.Pix
	bounds := frame.Bounds()
	if uint32(bounds.Dx()) != v.currentSurfaceWidth || uint32(bounds.Dy()) != v.currentSurfaceHeight {
		scaled := image.NewRGBA(image.Rect(0, 0, int(v.currentSurfaceWidth), int(v.currentSurfaceHeight)))
		draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), frame, bounds, draw.Src, nil)
		pixels = scaled.Pix
	} else if frame.Stride != 4*bounds.Dx() {
		// staging copy wants tightly packed rows
		normalized, err := core.GetPixels(frame, 4*bounds.Dx())
		if err != nil {
			return err
		}
		pixels = normalized
	}

	mem := v.compositeStaging.Mem()
	mappedMemory, err := mem.Map()
	if err != nil {
		return err
	}
	castMappedMemory := *(*[]uint8)(unsafe.Pointer(&sliceHeader{
		Data: uintptr(mappedMemory),
		Cap:  int(mem.Len()),
		Len:  int(mem.Len()),
	}))
	copy(castMappedMemory, pixels)
	mem.Unmap()

	if err := v.transitionLayout(v.compositeImage.Get(), vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal); err != nil {
		return err
	}

	if err := v.copyBufferToImage(v.compositeStaging.Get(), v.compositeImage.Get(), v.currentSurfaceWidth, v.currentSurfaceHeight); err != nil {
		return err
	}

	return v.transitionLayout(v.compositeImage.Get(), vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal)
}

func (v *VulkanRenderer) beginSingleTimeCommands() (vk.CommandBuffer, error) {
	cbai := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		Level:              vk.CommandBufferLevelPrimary,
		CommandPool:        v.commandPool,
		CommandBufferCount: 1,
	}

	commandBuffers := make([]vk.CommandBuffer, 1)
	if err := vk.Error(vk.AllocateCommandBuffers(v.logicalDevice, &cbai, commandBuffers)); err != nil {
		return nil, fmt.Errorf("vk.AllocateCommandBuffers(): %s", err.Error())
	}
	commandBuffer := commandBuffers[0]

	cbbi := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}

	if err := vk.Error(vk.BeginCommandBuffer(commandBuffer, &cbbi)); err != nil {
		vk.FreeCommandBuffers(v.logicalDevice, v.commandPool, 1, []vk.CommandBuffer{commandBuffer})
		return nil, fmt.Errorf("vk.BeginCommandBuffer(): %s", err.Error())
	}

	return commandBuffer, nil
}

func (v *VulkanRenderer) endSingleTimeCommands(commandBuffer vk.CommandBuffer) error {
	if err := vk.Error(vk.EndCommandBuffer(commandBuffer)); err != nil {
		return fmt.Errorf("vk.EndCommandBuffer(): %s", err.Error())
	}

	si := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{commandBuffer},
	}

	if err := vk.Error(vk.QueueSubmit(v.deviceQueue, 1, []vk.SubmitInfo{si}, nil)); err != nil {
		return fmt.Errorf("vk.QueueSubmit(): %s", err.Error())
	}

	vk.QueueWaitIdle(v.deviceQueue)

	vk.FreeCommandBuffers(v.logicalDevice, v.commandPool, 1, []vk.CommandBuffer{commandBuffer})
	return nil
}

func (v *VulkanRenderer) transitionLayout(img vk.Image, old vk.ImageLayout, new vk.ImageLayout) error {
	cmd, err := v.beginSingleTimeCommands()
	if err != nil {
		return err
	}

	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		OldLayout:           old,
		NewLayout:           new,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               img,
		SubresourceRange: vk.ImageSubresourceRange{
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
		},
	}

	var srcStage, dstStage vk.PipelineStageFlags
	if old == vk.ImageLayoutUndefined && new == vk.ImageLayoutTransferDstOptimal {
		barrier.SrcAccessMask = 0
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessTransferWriteBit)
		srcStage = vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit)
		dstStage = vk.PipelineStageFlags(vk.PipelineStageTransferBit)
	} else if old == vk.ImageLayoutTransferDstOptimal && new == vk.ImageLayoutShaderReadOnlyOptimal {
		barrier.SrcAccessMask = vk.AccessFlags(vk.AccessTransferWriteBit)
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessShaderReadBit)
		srcStage = vk.PipelineStageFlags(vk.PipelineStageTransferBit)
		dstStage = vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit)
	} else {
		return fmt.Errorf("unsupported layout transition")
	}

	vk.CmdPipelineBarrier(cmd, srcStage, dstStage, 0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})

	return v.endSingleTimeCommands(cmd)
}

func (v *VulkanRenderer) copyBufferToImage(buf vk.Buffer, img vk.Image, width, height uint32) error {
	cmd, err := v.beginSingleTimeCommands()
	if err != nil {
		return err
	}

	bic := vk.BufferImageCopy{
		ImageOffset: vk.Offset3D{},
		ImageExtent: vk.Extent3D{
			Height: height,
			Width:  width,
			Depth:  1,
		},
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			MipLevel:       0,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}
	vk.CmdCopyBufferToImage(cmd, buf, img, vk.ImageLayoutTransferDstOptimal, 1, []vk.BufferImageCopy{bic})

	return v.endSingleTimeCommands(cmd)
}

func (v *VulkanRenderer) destroyBeforeRecreatePipeline() {
	vk.FreeCommandBuffers(v.logicalDevice, v.commandPool, uint32(len(v.commandBuffers)), v.commandBuffers)

	for _, fb := range v.framebuffers {
		vk.DestroyFramebuffer(v.logicalDevice, fb, nil)
	}
	v.framebuffers = []vk.Framebuffer{}

	vk.DestroyDescriptorPool(v.logicalDevice, v.descriptorPool, nil)
	v.hairDescriptorSets = nil

	for _, buffer := range v.uniformBuffers {
		buffer.Release()
	}
	v.uniformBuffers = nil

	v.releaseCompositeTexture()

	// Swapchain image views only, the images belong to the swapchain
	for _, iv := range v.swapchainImageViews {
		vk.DestroyImageView(v.logicalDevice, iv, nil)
	}
	v.swapchainImageViews = []vk.ImageView{}
	v.swapchainImages = []vk.Image{}

	// Depth image resources
	vk.DestroyImageView(v.logicalDevice, v.depthImageView, nil)
	v.depthImage.Release()

	vk.DestroyRenderPass(v.logicalDevice, v.renderPass, nil)

	vk.DestroyPipeline(v.logicalDevice, v.hairPipeline, nil)
	vk.DestroyPipeline(v.logicalDevice, v.blitPipeline, nil)
	vk.DestroyPipelineLayout(v.logicalDevice, v.hairPipelineLayout, nil)
	vk.DestroyPipelineLayout(v.logicalDevice, v.blitPipelineLayout, nil)
	vk.DestroyDescriptorSetLayout(v.logicalDevice, v.hairSetLayout, nil)
	vk.DestroyDescriptorSetLayout(v.logicalDevice, v.blitSetLayout, nil)
}

func (v *VulkanRenderer) recreatePipeline() error {
	vk.DeviceWaitIdle(v.logicalDevice)
	v.destroyBeforeRecreatePipeline()

	oldSwapchain := v.swapchain
	if err := v.createSwapchain(oldSwapchain); err != nil {
		return err
	}
	vk.DestroySwapchain(v.logicalDevice, oldSwapchain, nil)

	v.createViewport()

	if err := v.prepareDepthImage(); err != nil {
		return err
	}

	if err := v.createPipelineLayouts(); err != nil {
		return err
	}

	if err := v.createRenderPass(); err != nil {
		return err
	}

	if err := v.createPipelines(); err != nil {
		return err
	}

	if err := v.createImageViews(); err != nil {
		return err
	}

	if err := v.createFramebuffers(); err != nil {
		return err
	}

	if err := v.prepareDescriptorPool(); err != nil {
		return err
	}

	if err := v.allocateCommandBuffers(); err != nil {
		return err
	}

	if err := v.createUniformBuffers(); err != nil {
		return err
	}

	return v.createHairDescriptorSets()
}

func (v *VulkanRenderer) createPipelineCache() error {
	pcci := vk.PipelineCacheCreateInfo{
		SType: vk.StructureTypePipelineCacheCreateInfo,
	}

	var pipelineCache vk.PipelineCache
	if err := vk.Error(vk.CreatePipelineCache(v.logicalDevice, &pcci, nil, &pipelineCache)); err != nil {
		return errors.New("vk.CreatePipelineCache(): " + err.Error())
	}
	v.pipelineCache = pipelineCache
	return nil
}

func (v *VulkanRenderer) createViewport() {
	viewport := vk.Viewport{
		X:        0,
		Y:        0,
		Width:    float32(v.currentSurfaceWidth),
		Height:   float32(v.currentSurfaceHeight),
		MinDepth: 0,
		MaxDepth: 1,
	}

	scissor := vk.Rect2D{
		Offset: vk.Offset2D{
			X: 0,
			Y: 0,
		},
		Extent: vk.Extent2D{
			Width:  v.currentSurfaceWidth,
			Height: v.currentSurfaceHeight,
		},
	}
	v.viewport = viewport
	v.scissor = scissor
}

func (v *VulkanRenderer) prepareDepthImage() error {
	depthFormat := vk.FormatD16Unorm
	img, err := NewImage(v.logicalDevice, v.currentSurfaceWidth, v.currentSurfaceHeight, depthFormat,
		vk.ImageUsageDepthStencilAttachmentBit, vk.SharingModeExclusive, v.allocator)
	if err != nil {
		return err
	}

	ivci := vk.ImageViewCreateInfo{
		SType:  vk.StructureTypeImageViewCreateInfo,
		Format: depthFormat,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectDepthBit),
			LevelCount: 1,
			LayerCount: 1,
		},
		ViewType: vk.ImageViewType2d,
		Image:    img.Get(),
	}

	var view vk.ImageView
	if err := vk.Error(vk.CreateImageView(v.logicalDevice, &ivci, nil, &view)); err != nil {
		img.Release()
		return errors.New("vk.CreateImageView(): " + err.Error())
	}

	v.depthImage = img
	v.depthImageView = view
	v.depthImageFormat = depthFormat

	return nil
}

func (v *VulkanRenderer) createSynchronization() error {
	sci := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	fci := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
		Flags: vk.FenceCreateFlags(vk.FenceCreateSignaledBit),
	}

	var (
		imageAvailableSemaphore vk.Semaphore
		renderFinishedSemphore  vk.Semaphore
		fence                   vk.Fence
	)

	if err := vk.Error(vk.CreateSemaphore(v.logicalDevice, &sci, nil, &imageAvailableSemaphore)); err != nil {
		return errors.New("vk.CreateSemaphore(): " + err.Error())
	}
	if err := vk.Error(vk.CreateSemaphore(v.logicalDevice, &sci, nil, &renderFinishedSemphore)); err != nil {
		return errors.New("vk.CreateSemaphore(): " + err.Error())
	}
	if err := vk.Error(vk.CreateFence(v.logicalDevice, &fci, nil, &fence)); err != nil {
		return errors.New("vk.CreateFence(): " + err.Error())
	}

	v.imageAvailableSemaphore = imageAvailableSemaphore
	v.renderFinishedSemphore = renderFinishedSemphore
	v.imageFence = fence

	return nil
}

func (v *VulkanRenderer) createCommandPool() error {
	cpci := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: v.graphicsQueueIndex,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}

	var commandPool vk.CommandPool
	if err := vk.Error(vk.CreateCommandPool(v.logicalDevice, &cpci, nil, &commandPool)); err != nil {
		return errors.New("vk.CreateCommandPool(): " + err.Error())
	}
	v.commandPool = commandPool

	return nil
}

func (v *VulkanRenderer) allocateCommandBuffers() error {
	cbai := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        v.commandPool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: uint32(len(v.swapchainImageViews)),
	}

	commandBuffers := make([]vk.CommandBuffer, len(v.swapchainImageViews))
	if err := vk.Error(vk.AllocateCommandBuffers(v.logicalDevice, &cbai, commandBuffers)); err != nil {
		return errors.New("vk.AllocateCommandBuffers(): " + err.Error())
	}
	v.commandBuffers = commandBuffers

	return nil
}

func (v *VulkanRenderer) createFramebuffers() error {
	for _, image := range v.swapchainImageViews {
		attachments := []vk.ImageView{
			image,
			v.depthImageView,
		}
		fci := vk.FramebufferCreateInfo{
			SType:           vk.StructureTypeFramebufferCreateInfo,
			RenderPass:      v.renderPass,
			AttachmentCount: uint32(len(attachments)),
			PAttachments:    attachments,
			Width:           v.currentSurfaceWidth,
			Height:          v.currentSurfaceHeight,
			Layers:          1,
		}

		var framebuffer vk.Framebuffer
		if err := vk.Error(vk.CreateFramebuffer(v.logicalDevice, &fci, nil, &framebuffer)); err != nil {
			return errors.New("vk.CreateFramebuffer(): " + err.Error())
		}
		v.framebuffers = append(v.framebuffers, framebuffer)
	}
	return nil
}

func (v *VulkanRenderer) createCompositeSampler() error {
	sci := vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MagFilter:               vk.FilterLinear,
		MinFilter:               vk.FilterLinear,
		AddressModeU:            vk.SamplerAddressModeClampToEdge,
		AddressModeV:            vk.SamplerAddressModeClampToEdge,
		AddressModeW:            vk.SamplerAddressModeClampToEdge,
		AnisotropyEnable:        vk.True,
		MaxAnisotropy:           16,
		BorderColor:             vk.BorderColorFloatOpaqueBlack,
		UnnormalizedCoordinates: vk.False,
		CompareEnable:           vk.False,
		CompareOp:               vk.CompareOpAlways,
		MipmapMode:              vk.SamplerMipmapModeLinear,
		MipLodBias:              0,
		MinLod:                  0,
		MaxLod:                  0,
	}

	var sampler vk.Sampler
	if err := vk.Error(vk.CreateSampler(v.logicalDevice, &sci, nil, &sampler)); err != nil {
		return fmt.Errorf("vk.CreateSampler(): %s", err.Error())
	}
	v.compositeSampler = sampler

	return nil
}

func (v *VulkanRenderer) prepareDescriptorPool() error {
	poolSizes := []vk.DescriptorPoolSize{
		{
			Type:            vk.DescriptorTypeUniformBuffer,
			DescriptorCount: uint32(len(v.swapchainImages)),
		},
		{
			Type:            vk.DescriptorTypeCombinedImageSampler,
			DescriptorCount: 1,
		}}
	dpci := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       uint32(len(v.swapchainImages)) + 1,
		PoolSizeCount: uint32(len(poolSizes)),
		PPoolSizes:    poolSizes,
	}

	var descriptorPool vk.DescriptorPool
	if err := vk.Error(vk.CreateDescriptorPool(v.logicalDevice, &dpci, nil, &descriptorPool)); err != nil {
		return errors.New("vk.CreateDescriptorPool(): " + err.Error())
	}
	v.descriptorPool = descriptorPool

	return nil
}

func (v *VulkanRenderer) createPipelines() error {
	hairStages, err := v.shaderStages("hair")
	if err != nil {
		return err
	}
	blitStages, err := v.shaderStages("blit")
	if err != nil {
		return err
	}

	vertexAttributeDescriptions := VertexAttributeDescriptions()
	vertexBindingDescriptions := VertexBindingDescriptions()

	viewportState := &vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		ScissorCount:  1,
	}
	rasterizationState := &vk.PipelineRasterizationStateCreateInfo{
		SType:       vk.StructureTypePipelineRasterizationStateCreateInfo,
		PolygonMode: vk.PolygonModeFill,
		CullMode:    vk.CullModeFlags(vk.CullModeNone),
		FrontFace:   vk.FrontFaceCounterClockwise,
		LineWidth:   1.0,
	}
	multisampleState := &vk.PipelineMultisampleStateCreateInfo{
		SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
		RasterizationSamples: vk.SampleCount1Bit,
	}
	colorBlendState := &vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		AttachmentCount: 1,
		PAttachments: []vk.PipelineColorBlendAttachmentState{{
			ColorWriteMask: 0xF,
			BlendEnable:    vk.False,
		}},
	}
	dynamicState := &vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: 2,
		PDynamicStates: []vk.DynamicState{
			vk.DynamicStateScissor,
			vk.DynamicStateViewport,
		},
	}

	stencilOp := vk.StencilOpState{
		FailOp:    vk.StencilOpKeep,
		PassOp:    vk.StencilOpKeep,
		CompareOp: vk.CompareOpAlways,
	}

	gpci := []vk.GraphicsPipelineCreateInfo{{
		SType:      vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount: uint32(len(hairStages)),
		PStages:    hairStages,
		PVertexInputState: &vk.PipelineVertexInputStateCreateInfo{
			SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
			VertexAttributeDescriptionCount: uint32(len(vertexAttributeDescriptions)),
			PVertexAttributeDescriptions:    vertexAttributeDescriptions,
			VertexBindingDescriptionCount:   uint32(len(vertexBindingDescriptions)),
			PVertexBindingDescriptions:      vertexBindingDescriptions,
		},
		PInputAssemblyState: &vk.PipelineInputAssemblyStateCreateInfo{
			SType:    vk.StructureTypePipelineInputAssemblyStateCreateInfo,
			Topology: vk.PrimitiveTopologyLineList,
		},
		PViewportState:      viewportState,
		PRasterizationState: rasterizationState,
		PDepthStencilState: &vk.PipelineDepthStencilStateCreateInfo{
			SType:                 vk.StructureTypePipelineDepthStencilStateCreateInfo,
			DepthTestEnable:       vk.True,
			DepthWriteEnable:      vk.True,
			DepthCompareOp:        vk.CompareOpLess,
			DepthBoundsTestEnable: vk.False,
			Back:                  stencilOp,
			StencilTestEnable:     vk.False,
			Front:                 stencilOp,
		},
		PMultisampleState: multisampleState,
		PColorBlendState:  colorBlendState,
		PDynamicState:     dynamicState,
		Layout:            v.hairPipelineLayout,
		RenderPass:        v.renderPass,
	}, {
		SType:      vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount: uint32(len(blitStages)),
		PStages:    blitStages,
		PVertexInputState: &vk.PipelineVertexInputStateCreateInfo{
			SType: vk.StructureTypePipelineVertexInputStateCreateInfo,
		},
		PInputAssemblyState: &vk.PipelineInputAssemblyStateCreateInfo{
			SType:    vk.StructureTypePipelineInputAssemblyStateCreateInfo,
			Topology: vk.PrimitiveTopologyTriangleList,
		},
		PViewportState:      viewportState,
		PRasterizationState: rasterizationState,
		PDepthStencilState: &vk.PipelineDepthStencilStateCreateInfo{
			SType:                 vk.StructureTypePipelineDepthStencilStateCreateInfo,
			DepthTestEnable:       vk.False,
			DepthWriteEnable:      vk.False,
			DepthCompareOp:        vk.CompareOpAlways,
			DepthBoundsTestEnable: vk.False,
			Back:                  stencilOp,
			StencilTestEnable:     vk.False,
			Front:                 stencilOp,
		},
		PMultisampleState: multisampleState,
		PColorBlendState:  colorBlendState,
		PDynamicState:     dynamicState,
		Layout:            v.blitPipelineLayout,
		RenderPass:        v.renderPass,
	}}

	pipelines := make([]vk.Pipeline, len(gpci))
	if err := vk.Error(vk.CreateGraphicsPipelines(v.logicalDevice, v.pipelineCache, uint32(len(gpci)), gpci, nil, pipelines)); err != nil {
		return errors.New("vk.CreateGraphicsPipelines(): " + err.Error())
	}
	v.hairPipeline = pipelines[0]
	v.blitPipeline = pipelines[1]
	return nil
}

func (v *VulkanRenderer) shaderStages(name string) ([]vk.PipelineShaderStageCreateInfo, error) {
	vert, err := findShader(v.shaders, name, core.VertexShaderType)
	if err != nil {
		return nil, err
	}
	frag, err := findShader(v.shaders, name, core.FragmentShaderType)
	if err != nil {
		return nil, err
	}

	stages := make([]vk.PipelineShaderStageCreateInfo, 0, 2)
	for _, shader := range []core.Shader{vert, frag} {
		var stage vk.ShaderStageFlagBits
		switch shader.Type() {
		case core.VertexShaderType:
			stage = vk.ShaderStageVertexBit
		case core.FragmentShaderType:
			stage = vk.ShaderStageFragmentBit
		default:
			return nil, errors.New("unsupported shader type attempted creation")
		}

		shaderModule, ok := shader.ShaderModule().(vk.ShaderModule)
		if !ok {
			return nil, errors.New("failed to assert shader module to it's original type")
		}

		stages = append(stages, vk.PipelineShaderStageCreateInfo{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  stage,
			Module: shaderModule,
			PName:  safeString("main"),
		})
	}
	return stages, nil
}

func (v *VulkanRenderer) createSwapchain(oldSwapchain vk.Swapchain) error {
	var surfaceCapabilities vk.SurfaceCapabilities
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceCapabilities(v.physicalDevice, v.surface, &surfaceCapabilities)); err != nil {
		return errors.New("vk.GetPhysicalDeviceSurfaceCapabilities(): " + err.Error())
	}

	// In case swapchain is being recreated
	if oldSwapchain != nil {
		surfaceCapabilities.Deref()
		surfaceCapabilities.CurrentExtent.Deref()
		v.currentSurfaceHeight = surfaceCapabilities.CurrentExtent.Height
		v.currentSurfaceWidth = surfaceCapabilities.CurrentExtent.Width
	}

	compositeAlpha := vk.CompositeAlphaOpaqueBit
	compositeAlphaFlags := []vk.CompositeAlphaFlagBits{
		vk.CompositeAlphaOpaqueBit,
		vk.CompositeAlphaPreMultipliedBit,
		vk.CompositeAlphaPostMultipliedBit,
		vk.CompositeAlphaInheritBit,
	}

	// CompositeAlpha
	for i := 0; i < len(compositeAlphaFlags); i++ {
		alphaFlags := vk.CompositeAlphaFlags(compositeAlphaFlags[i])
		flagSupported := surfaceCapabilities.SupportedCompositeAlpha&alphaFlags != 0
		if flagSupported {
			compositeAlpha = compositeAlphaFlags[i]
			break
		}
	}

	var swapchain vk.Swapchain
	scci := vk.SwapchainCreateInfo{
		SType:           vk.StructureTypeSwapchainCreateInfo,
		Surface:         v.surface,
		MinImageCount:   v.configuration.SwapchainSize,
		ImageFormat:     v.imageFormat,
		ImageColorSpace: v.imageColorspace,
		ImageExtent: vk.Extent2D{
			Width:  v.currentSurfaceWidth,
			Height: v.currentSurfaceHeight,
		},
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		PreTransform:     vk.SurfaceTransformIdentityBit,
		CompositeAlpha:   compositeAlpha,
		PresentMode:      vk.PresentModeFifo,
		Clipped:          vk.True,
		ImageArrayLayers: 1,
		ImageSharingMode: vk.SharingModeExclusive,
		OldSwapchain:     oldSwapchain,
	}

	if err := vk.Error(vk.CreateSwapchain(v.logicalDevice, &scci, nil, &swapchain)); err != nil {
		return errors.New("vk.CreateSwapchain(): " + err.Error())
	}
	v.swapchain = swapchain

	var numImages uint32
	if err := vk.Error(vk.GetSwapchainImages(v.logicalDevice, v.swapchain, &numImages, nil)); err != nil {
		return errors.New("vk.GetSwapchainImages(num): " + err.Error())
	}

	v.swapchainImages = make([]vk.Image, numImages)
	if err := vk.Error(vk.GetSwapchainImages(v.logicalDevice, v.swapchain, &numImages, v.swapchainImages)); err != nil {
		return errors.New("vk.GetSwapchainImages(images): " + err.Error())
	}
	return nil
}

func (v *VulkanRenderer) createPipelineLayouts() error {
	hairBindings := []vk.DescriptorSetLayoutBinding{{
		DescriptorCount: 1,
		DescriptorType:  vk.DescriptorTypeUniformBuffer,
		StageFlags:      vk.ShaderStageFlags(vk.ShaderStageVertexBit),
		Binding:         0,
	}}
	blitBindings := []vk.DescriptorSetLayoutBinding{{
		DescriptorCount: 1,
		DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
		StageFlags:      vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
		Binding:         0,
	}}

	hairSetLayout, err := v.createSetLayout(hairBindings)
	if err != nil {
		return err
	}
	v.hairSetLayout = hairSetLayout

	blitSetLayout, err := v.createSetLayout(blitBindings)
	if err != nil {
		return err
	}
	v.blitSetLayout = blitSetLayout

	hairPipelineLayout, err := v.createPipelineLayout(v.hairSetLayout)
	if err != nil {
		return err
	}
	v.hairPipelineLayout = hairPipelineLayout

	blitPipelineLayout, err := v.createPipelineLayout(v.blitSetLayout)
	if err != nil {
		return err
	}
	v.blitPipelineLayout = blitPipelineLayout

	return nil
}

func (v *VulkanRenderer) createSetLayout(bindings []vk.DescriptorSetLayoutBinding) (vk.DescriptorSetLayout, error) {
	dslci := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(bindings)),
		PBindings:    bindings,
	}

	var layout vk.DescriptorSetLayout
	if err := vk.Error(vk.CreateDescriptorSetLayout(v.logicalDevice, &dslci, nil, &layout)); err != nil {
		return layout, errors.New("vk.CreateDescriptorSetLayout(): " + err.Error())
	}
	return layout, nil
}

func (v *VulkanRenderer) createPipelineLayout(setLayout vk.DescriptorSetLayout) (vk.PipelineLayout, error) {
	plci := vk.PipelineLayoutCreateInfo{
		SType:          vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount: 1,
		PSetLayouts:    []vk.DescriptorSetLayout{setLayout},
	}

	var pipelineLayout vk.PipelineLayout
	if err := vk.Error(vk.CreatePipelineLayout(v.logicalDevice, &plci, nil, &pipelineLayout)); err != nil {
		return pipelineLayout, errors.New("vk.CreatePipelineLayout(): " + err.Error())
	}
	return pipelineLayout, nil
}

func (v *VulkanRenderer) createRenderPass() error {
	swapchainAttachments := []vk.AttachmentDescription{
		{
			Format:         v.imageFormat,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpStore,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    vk.ImageLayoutPresentSrc,
		},
		{
			Format:         v.depthImageFormat,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpDontCare,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    vk.ImageLayoutDepthStencilAttachmentOptimal,
		},
	}

	colorAttachmentRef := []vk.AttachmentReference{{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}}

	depthAttachmentRef := vk.AttachmentReference{
		Attachment: 1,
		Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
	}

	subpassDependency := vk.SubpassDependency{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		SrcAccessMask: 0,
		DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentReadBit | vk.AccessColorAttachmentWriteBit),
	}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:       vk.PipelineBindPointGraphics,
		ColorAttachmentCount:    uint32(len(colorAttachmentRef)),
		PColorAttachments:       colorAttachmentRef,
		PDepthStencilAttachment: &depthAttachmentRef,
	}

	rpci := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(swapchainAttachments)),
		PAttachments:    swapchainAttachments,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{subpassDependency},
	}

	var renderPass vk.RenderPass
	if err := vk.Error(vk.CreateRenderPass(v.logicalDevice, &rpci, nil, &renderPass)); err != nil {
		return errors.New("vk.CreateRenderPass(): " + err.Error())
	}
	v.renderPass = renderPass
	return nil
}

func (v *VulkanRenderer) createImageViews() error {
	for idx := 0; idx < len(v.swapchainImages); idx++ {
		var imageView vk.ImageView
		ivci := vk.ImageViewCreateInfo{
			SType:    vk.StructureTypeImageViewCreateInfo,
			Image:    v.swapchainImages[idx],
			ViewType: vk.ImageViewType2d,
			Format:   v.imageFormat,
			Components: vk.ComponentMapping{
				R: vk.ComponentSwizzleIdentity,
				G: vk.ComponentSwizzleIdentity,
				B: vk.ComponentSwizzleIdentity,
				A: vk.ComponentSwizzleIdentity,
			},
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
				BaseMipLevel:   0,
				LevelCount:     1,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
		}

		if err := vk.Error(vk.CreateImageView(v.logicalDevice, &ivci, nil, &imageView)); err != nil {
			return fmt.Errorf("vk.CreateImageView()[%d]: %s", idx, err.Error())
		}

		v.swapchainImageViews = append(v.swapchainImageViews, imageView)
	}
	return nil
}

// Destroy implements interface
func (v *VulkanRenderer) Destroy() {
	vk.DeviceWaitIdle(v.logicalDevice)

	for _, shader := range v.shaders {
		shader.Destroy()
	}

	v.releaseCompositeTexture()
	v.vertexBuffer.Release()
	v.indexBuffer.Release()
	for _, buffer := range v.uniformBuffers {
		buffer.Release()
	}

	vk.DestroySemaphore(v.logicalDevice, v.imageAvailableSemaphore, nil)
	vk.DestroySemaphore(v.logicalDevice, v.renderFinishedSemphore, nil)
	vk.DestroyFence(v.logicalDevice, v.imageFence, nil)

	vk.DestroyCommandPool(v.logicalDevice, v.commandPool, nil)

	for _, f := range v.framebuffers {
		vk.DestroyFramebuffer(v.logicalDevice, f, nil)
	}

	for _, i := range v.swapchainImageViews {
		vk.DestroyImageView(v.logicalDevice, i, nil)
	}

	vk.DestroyDescriptorPool(v.logicalDevice, v.descriptorPool, nil)
	vk.DestroyDescriptorSetLayout(v.logicalDevice, v.hairSetLayout, nil)
	vk.DestroyDescriptorSetLayout(v.logicalDevice, v.blitSetLayout, nil)

	vk.DestroyPipeline(v.logicalDevice, v.hairPipeline, nil)
	vk.DestroyPipeline(v.logicalDevice, v.blitPipeline, nil)
	vk.DestroyPipelineCache(v.logicalDevice, v.pipelineCache, nil)
	vk.DestroyRenderPass(v.logicalDevice, v.renderPass, nil)
	vk.DestroyPipelineLayout(v.logicalDevice, v.hairPipelineLayout, nil)
	vk.DestroyPipelineLayout(v.logicalDevice, v.blitPipelineLayout, nil)

	vk.DestroyImageView(v.logicalDevice, v.depthImageView, nil)
	v.depthImage.Release()

	vk.DestroySampler(v.logicalDevice, v.compositeSampler, nil)

	vk.DestroySwapchain(v.logicalDevice, v.swapchain, nil)
	vk.DestroyDevice(v.logicalDevice, nil)
}

type sliceHeader struct {
	Data uintptr
	Len  int
	Cap  int
}

func safeString(s string) string {
	return s + "\x00"
}

func safeStrings(sgs []string) []string {
	safe := []string{}
	for _, s := range sgs {
		safe = append(safe, safeString(s))
	}
	return safe
}
