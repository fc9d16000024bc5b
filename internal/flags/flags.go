// Package flags provides feature flag support for opt-in engine behavior.
// Flags are read-only after initialization and provide safe defaults for unknown flags.
package flags

import (
	"maps"

	"github.com/zjrosen/vscroll/internal/log"
)

// Flag name constants for type-safe flag access.
const (
	// FlagInitialWindow bounds the first index build to the extents that can
	// be on screen before anything has been measured.
	FlagInitialWindow = "initial-window"

	// FlagScrollAnchor keeps the content under the viewport still when an
	// item above it changes height.
	FlagScrollAnchor = "scroll-anchor"
)

// Defaults returns the flag values used when the config does not set them.
func Defaults() map[string]bool {
	return map[string]bool{
		FlagInitialWindow: true,
		FlagScrollAnchor:  false,
	}
}

// Registry holds feature flag state loaded from configuration.
// Flags are read-only after initialization.
type Registry struct {
	flags map[string]bool
}

// New creates a Registry from a config map.
// If flags is nil, an empty registry is created (all flags disabled).
func New(flags map[string]bool) *Registry {
	if flags == nil {
		flags = make(map[string]bool)
	}
	r := &Registry{flags: maps.Clone(flags)}
	log.Debug(log.CatConfig, "Feature flags initialized", "count", len(flags), "flags", r.All())
	return r
}

// WithDefaults creates a Registry from Defaults overlaid with flags.
func WithDefaults(flags map[string]bool) *Registry {
	merged := Defaults()
	maps.Copy(merged, flags)
	return New(merged)
}

// Enabled returns true if the named flag is enabled.
// Returns false for unknown flags (safe default).
// Returns false when called on nil registry (nil-safe).
func (r *Registry) Enabled(name string) bool {
	if r == nil || r.flags == nil {
		return false
	}
	value, exists := r.flags[name]
	if !exists {
		log.Debug(log.CatConfig, "Unknown flag accessed", "flag", name, "result", false)
		return false
	}
	return value
}

// All returns a copy of all flags (for debugging/logging).
// Returns an empty map if the registry is nil.
func (r *Registry) All() map[string]bool {
	if r == nil || r.flags == nil {
		return make(map[string]bool)
	}
	result := make(map[string]bool, len(r.flags))
	maps.Copy(result, r.flags)
	return result
}
