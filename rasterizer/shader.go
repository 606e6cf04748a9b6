// Copyright (c) 2019 strandlab
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package rasterizer

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobuffalo/packr"
	vk "github.com/vulkan-go/vulkan"

	"github.com/strandlab/strand/core"
)

//go:generate glslangValidator -V shaders/hair.vert -o shaders/hair.vert.spv
//go:generate glslangValidator -V shaders/hair.frag -o shaders/hair.frag.spv
//go:generate glslangValidator -V shaders/blit.vert -o shaders/blit.vert.spv
//go:generate glslangValidator -V shaders/blit.frag -o shaders/blit.frag.spv

const shaderSuffix = ".spv"

// shaderBox carries the compiled pipeline shaders inside the binary,
// so a plain build renders without any files on disk.
var shaderBox = packr.NewBox("./shaders")

// embeddedShaders are the box entries loaded when no shader
// directory is configured.
var embeddedShaders = []string{
	"hair.vert.spv",
	"hair.frag.spv",
	"blit.vert.spv",
	"blit.frag.spv",
}

// loadShaders compiles shader modules for the logical device, either
// from the configured shader directory or from the embedded box.
func loadShaders(device vk.Device, shaderDirectory string) ([]core.Shader, error) {
	if shaderDirectory != "" {
		return loadShadersFromDirectory(device, shaderDirectory)
	}

	var shaders []core.Shader
	for _, name := range embeddedShaders {
		contents, err := shaderBox.Find(name)
		if err != nil {
			destroyShaders(shaders)
			return nil, fmt.Errorf("shaderBox.Find(%s): %s", name, err.Error())
		}
		shader, err := NewVulkanShader(name, shaderTypeFromName(name), contents, device)
		if err != nil {
			destroyShaders(shaders)
			return nil, err
		}
		shaders = append(shaders, shader)
	}
	return shaders, nil
}

func loadShadersFromDirectory(device vk.Device, dir string) ([]core.Shader, error) {
	shaderFiles, shaderTypes, err := loadShaderFilesFromDirectory(dir)
	if err != nil {
		return nil, err
	}

	var shaders []core.Shader
	for idx, val := range shaderFiles {
		contents, err := ioutil.ReadFile(val)
		if err != nil {
			destroyShaders(shaders)
			return nil, err
		}
		shader, err := NewVulkanShader(filepath.Base(val), shaderTypes[idx], contents, device)
		if err != nil {
			destroyShaders(shaders)
			return nil, err
		}
		shaders = append(shaders, shader)
	}
	return shaders, nil
}

// loadShaderFilesFromDirectory get the list of files that are compiled shaders
// it is important that the file name does not contain more than two dots,
// the first is always the name of the shader, second is type, and the third one
// ensured that the shader is compiled (only compiled shaders have an .spv extension).
// All shader files will be loaded.
func loadShaderFilesFromDirectory(dir string) ([]string, []core.ShaderType, error) {
	var (
		shaders     []string
		shaderTypes []core.ShaderType
	)
	if err := filepath.Walk(dir, func(path string, f os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if strings.HasSuffix(f.Name(), shaderSuffix) {
			shader := strings.TrimSuffix(f.Name(), shaderSuffix)
			nodes := strings.Split(shader, ".")

			if len(nodes) != 2 {
				return nil
			}

			suffix := nodes[len(nodes)-1]
			switch suffix {
			case "frag":
				shaderTypes = append(shaderTypes, core.FragmentShaderType)
				shaders = append(shaders, path)
			case "vert":
				shaderTypes = append(shaderTypes, core.VertexShaderType)
				shaders = append(shaders, path)
			default:
				return nil
			}
		}
		return nil
	}); err != nil {
		return nil, nil, err
	}
	return shaders, shaderTypes, nil
}

func shaderTypeFromName(name string) core.ShaderType {
	nodes := strings.Split(strings.TrimSuffix(name, shaderSuffix), ".")
	switch nodes[len(nodes)-1] {
	case "vert":
		return core.VertexShaderType
	case "frag":
		return core.FragmentShaderType
	default:
		return core.UnknownShaderType
	}
}

func destroyShaders(shaders []core.Shader) {
	for _, shader := range shaders {
		shader.Destroy()
	}
}

// findShader picks a loaded shader by base name and pipeline stage.
func findShader(shaders []core.Shader, name string, shaderType core.ShaderType) (core.Shader, error) {
	for _, shader := range shaders {
		if shader.Name() == name && shader.Type() == shaderType {
			return shader, nil
		}
	}
	return nil, fmt.Errorf("shader %s (type %d) not loaded", name, shaderType)
}

// NewVulkanShader creates a Vulkan specific shader wrapper
func NewVulkanShader(filename string, shaderType core.ShaderType, contents []byte, device vk.Device) (core.Shader, error) {
	shaderName := strings.Split(filename, ".")[0]

	smci := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(contents)),
		PCode:    core.SliceUint32(contents),
	}

	var shader vk.ShaderModule
	if err := vk.Error(vk.CreateShaderModule(device, &smci, nil, &shader)); err != nil {
		return nil, fmt.Errorf("vk.CreateShaderModule(type %d): %s", shaderType, err.Error())
	}

	return &VulkanShader{
		shader:     shader,
		shaderType: shaderType,
		name:       shaderName,
		device:     device,
	}, nil
}

// VulkanShader is a Vulkan specific shader
type VulkanShader struct {
	name       string
	shaderType core.ShaderType
	device     vk.Device
	shader     vk.ShaderModule
}

// Type implements interface
func (v VulkanShader) Type() core.ShaderType {
	return v.shaderType
}

// ShaderModule is an accssor to the internal vk.ShaderModule
func (v VulkanShader) ShaderModule() interface{} {
	return v.shader
}

// Name implements interface
func (v VulkanShader) Name() string {
	return v.name
}

// Destroy implements interface
func (v VulkanShader) Destroy() {
	vk.DestroyShaderModule(v.device, v.shader, nil)
}
