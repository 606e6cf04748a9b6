// Copyright (c) 2019 strandlab
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package rasterizer

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/strandlab/strand/core"
)

func TestLoadShaderFilesFromDirectory(t *testing.T) {
	dir, err := ioutil.TempDir("", "shaders")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	contents := map[string][]byte{
		"hair.vert.spv": {0x03, 0x02, 0x23, 0x07},
		"hair.frag.spv": {0x03, 0x02, 0x23, 0x07},
		"notes.txt":     []byte("not a shader"),
	}
	for name, data := range contents {
		if err := ioutil.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
			t.Fatal(err)
		}
	}

	files, types, err := loadShaderFilesFromDirectory(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Fatalf("got %d shader files, want 2", len(files))
	}
	if len(files) != len(types) {
		t.Fatalf("got %d types for %d files", len(types), len(files))
	}

	for idx, file := range files {
		switch filepath.Base(file) {
		case "hair.vert.spv":
			if types[idx] != core.VertexShaderType {
				t.Errorf("%s typed %d, want vertex", file, types[idx])
			}
		case "hair.frag.spv":
			if types[idx] != core.FragmentShaderType {
				t.Errorf("%s typed %d, want fragment", file, types[idx])
			}
		default:
			t.Errorf("unexpected shader file %s", file)
		}
	}
}

func TestShaderTypeFromName(t *testing.T) {
	cases := []struct {
		name string
		want core.ShaderType
	}{
		{"hair.vert.spv", core.VertexShaderType},
		{"hair.frag.spv", core.FragmentShaderType},
		{"blit.vert.spv", core.VertexShaderType},
		{"readme.md", core.UnknownShaderType},
	}
	for _, c := range cases {
		if got := shaderTypeFromName(c.name); got != c.want {
			t.Errorf("shaderTypeFromName(%s) = %d, want %d", c.name, got, c.want)
		}
	}
}

func TestFindShader(t *testing.T) {
	shaders := []core.Shader{
		VulkanShader{name: "hair", shaderType: core.VertexShaderType},
		VulkanShader{name: "hair", shaderType: core.FragmentShaderType},
		VulkanShader{name: "blit", shaderType: core.VertexShaderType},
	}

	shader, err := findShader(shaders, "hair", core.FragmentShaderType)
	if err != nil {
		t.Fatal(err)
	}
	if shader.Name() != "hair" || shader.Type() != core.FragmentShaderType {
		t.Errorf("found %s type %d, want hair fragment", shader.Name(), shader.Type())
	}

	if _, err := findShader(shaders, "blit", core.FragmentShaderType); err == nil {
		t.Error("expected an error for a shader that is not loaded")
	}
}
