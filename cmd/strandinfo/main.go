// Copyright (c) 2019 strandlab
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"encoding/json"
	"flag"
	"fmt"

	"github.com/strandlab/strand/core"
	"github.com/strandlab/strand/device"
)

var pretty = flag.Bool("pretty", false, "Indent the JSON output")

// report gathers everything the Vulkan loader tells us about this machine.
type report struct {
	Layers     []core.Capability           `json:"layers"`
	Extensions []core.Capability           `json:"extensions"`
	Devices    []device.PhysicalDeviceInfo `json:"devices"`
}

func main() {
	flag.Parse()

	instance, err := core.NewVulkanInstance(core.DefaultApplication, nil, core.InstanceConfiguration{})
	if err != nil {
		panic(err)
	}
	defer instance.Destroy()

	driver := core.VulkanDriver{}
	layers, err := driver.AvailableLayers()
	if err != nil {
		panic(err)
	}
	extensions, err := driver.AvailableExtensions()
	if err != nil {
		panic(err)
	}
	devices, err := instance.PhysicalDevicesInfo()
	if err != nil {
		panic(err)
	}

	info := report{
		Layers:     layers,
		Extensions: extensions,
		Devices:    devices,
	}

	var bytes []byte
	if *pretty {
		bytes, err = json.MarshalIndent(info, "", "  ")
	} else {
		bytes, err = json.Marshal(info)
	}
	if err != nil {
		panic(err)
	}
	fmt.Printf("%s\n", bytes)
}
