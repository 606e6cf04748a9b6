package core

import (
	"sync"
)

// Capability names a layer or extension together with the spec
// version the runtime offers it at.
type Capability struct {
	Name    string
	Version uint32
}

// Names flattens capabilities to their names.
func Names(caps []Capability) []string {
	names := make([]string, len(caps))
	for i, c := range caps {
		names[i] = c.Name
	}
	return names
}

// FindMissing reports which of the wanted capabilities the available
// set does not carry. Matching goes by name only, a version mismatch
// does not fail a negotiation.
func FindMissing(available, wanted []Capability) []Capability {
	var missing []Capability
	for _, w := range wanted {
		found := false
		for _, a := range available {
			if a.Name == w.Name {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, w)
		}
	}
	return missing
}

// Capabilities caches the driver's layer and extension sets, so
// repeated negotiations don't enumerate twice. A failed enumeration
// is not cached and retried on the next call.
type Capabilities struct {
	driver Driver

	mu         sync.Mutex
	layers     []Capability
	extensions []Capability
}

// NewCapabilities wraps a driver with a capability cache.
func NewCapabilities(driver Driver) *Capabilities {
	return &Capabilities{driver: driver}
}

// Layers returns the runtime's layer set.
func (c *Capabilities) Layers() ([]Capability, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.layers == nil {
		layers, err := c.driver.AvailableLayers()
		if err != nil {
			return nil, err
		}
		if layers == nil {
			layers = []Capability{}
		}
		c.layers = layers
	}
	return c.layers, nil
}

// Extensions returns the runtime's instance extension set.
func (c *Capabilities) Extensions() ([]Capability, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.extensions == nil {
		extensions, err := c.driver.AvailableExtensions()
		if err != nil {
			return nil, err
		}
		if extensions == nil {
			extensions = []Capability{}
		}
		c.extensions = extensions
	}
	return c.extensions, nil
}
