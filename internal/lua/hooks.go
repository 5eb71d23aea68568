package lua

import (
	"fmt"

	rt "github.com/arnodel/golua/runtime"
)

// HookType identifies a script entry point called by the host.
type HookType int

const (
	// HookInvalid is returned by ParseHookType for unknown names.
	HookInvalid HookType = iota
	// HookStartup runs once after the script is loaded.
	HookStartup
	// HookPaint runs every frame with the surface width and height.
	HookPaint
	// HookResized runs when the surface changes size.
	HookResized
	// HookShutdown runs before the script is unloaded or reloaded.
	HookShutdown
)

var hookNames = map[HookType]string{
	HookStartup:  "startup",
	HookPaint:    "paint",
	HookResized:  "resized",
	HookShutdown: "shutdown",
}

// String returns the Lua function name of the hook.
func (h HookType) String() string {
	if name, ok := hookNames[h]; ok {
		return name
	}
	return "invalid"
}

// ParseHookType parses a hook name.
func ParseHookType(s string) (HookType, error) {
	for h, name := range hookNames {
		if name == s {
			return h, nil
		}
	}
	return HookInvalid, fmt.Errorf("unknown hook type: %s", s)
}

// Hooks calls the optional script entry points.
type Hooks struct {
	runtime *Runtime
}

// NewHooks returns the hook dispatcher for runtime.
func NewHooks(runtime *Runtime) (*Hooks, error) {
	if runtime == nil {
		return nil, ErrNilRuntime
	}
	return &Hooks{runtime: runtime}, nil
}

// Defined returns the hooks the loaded script implements.
func (h *Hooks) Defined() []HookType {
	var out []HookType
	for _, hook := range []HookType{HookStartup, HookPaint, HookResized, HookShutdown} {
		if h.runtime.HasFunction(hook.String()) {
			out = append(out, hook)
		}
	}
	return out
}

// Call runs hook if the script defines it. A missing hook is not an error.
func (h *Hooks) Call(hook HookType, args ...rt.Value) error {
	name := hook.String()
	if !h.runtime.HasFunction(name) {
		return nil
	}
	if _, err := h.runtime.CallFunction(name, args...); err != nil {
		return fmt.Errorf("hook %s failed: %w", name, err)
	}
	return nil
}

// Paint calls paint(width, height).
func (h *Hooks) Paint(width, height int) error {
	return h.Call(HookPaint, rt.IntValue(int64(width)), rt.IntValue(int64(height)))
}

// Resized calls resized(width, height).
func (h *Hooks) Resized(width, height int) error {
	return h.Call(HookResized, rt.IntValue(int64(width)), rt.IntValue(int64(height)))
}
