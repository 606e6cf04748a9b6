package core

import (
	"strconv"
	"strings"
)

// CapabilityKind tells layers and extensions apart in errors.
type CapabilityKind string

// The two capability kinds an instance negotiates.
const (
	LayerCapability     = CapabilityKind("layer")
	ExtensionCapability = CapabilityKind("extension")
)

// MissingCapabilityError reports every wanted capability of one kind
// the runtime could not offer, so a failed negotiation names the
// whole shortfall at once.
type MissingCapabilityError struct {
	Kind    CapabilityKind
	Missing []Capability
}

func (e *MissingCapabilityError) Error() string {
	return "core: missing " + string(e.Kind) + "s: " + strings.Join(Names(e.Missing), ", ")
}

// ContextError carries the driver result code of a failed context
// creation.
type ContextError struct {
	Code int32
}

func (e *ContextError) Error() string {
	return "core: context creation failed with driver code " + strconv.Itoa(int(e.Code))
}
