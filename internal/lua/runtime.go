// Package lua runs paint scripts with Golua. Scripts draw through the vg
// table registered by Bindings and are driven by the hooks in hooks.go.
package lua

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/arnodel/golua/lib"
	rt "github.com/arnodel/golua/runtime"
)

// RuntimeConfig holds the resource limits applied to every script call.
type RuntimeConfig struct {
	// CPULimit is the instruction budget per call. 0 means unlimited.
	CPULimit uint64
	// MemoryLimit is the allocation budget per call in bytes. 0 means
	// unlimited.
	MemoryLimit uint64
	// Stdout receives print output. Output is always captured as well.
	Stdout io.Writer
}

// DefaultConfig returns limits suited to one paint call per frame:
// 10,000,000 instructions and 50 MB.
func DefaultConfig() RuntimeConfig {
	return RuntimeConfig{
		CPULimit:    10_000_000,
		MemoryLimit: 50 * 1024 * 1024,
		Stdout:      os.Stdout,
	}
}

// Runtime wraps a Golua runtime with resource limits. All methods are
// safe for concurrent use; script calls are serialized.
type Runtime struct {
	config  RuntimeConfig
	runtime *rt.Runtime
	output  *bytes.Buffer
	cleanup func()
	mu      sync.RWMutex
}

// New creates a Runtime with the Lua standard libraries loaded.
func New(config RuntimeConfig) (*Runtime, error) {
	output := &bytes.Buffer{}
	var stdout io.Writer = output
	if config.Stdout != nil {
		stdout = io.MultiWriter(config.Stdout, output)
	}

	r := rt.New(stdout)
	return &Runtime{
		config:  config,
		runtime: r,
		output:  output,
		cleanup: lib.LoadAll(r),
	}, nil
}

func (lr *Runtime) limits() rt.RuntimeContextDef {
	return rt.RuntimeContextDef{
		HardLimits: rt.RuntimeResources{
			Cpu:    lr.config.CPULimit,
			Memory: lr.config.MemoryLimit,
		},
	}
}

// LoadString compiles code into a closure bound to the global
// environment.
func (lr *Runtime) LoadString(name, code string) (*rt.Closure, error) {
	lr.mu.Lock()
	defer lr.mu.Unlock()

	closure, err := lr.runtime.CompileAndLoadLuaChunk(name, []byte(code), rt.TableValue(lr.runtime.GlobalEnv()))
	if err != nil {
		return nil, fmt.Errorf("failed to load Lua code: %w", err)
	}
	return closure, nil
}

// LoadFile compiles the script at path.
func (lr *Runtime) LoadFile(path string) (*rt.Closure, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read Lua file %s: %w", path, err)
	}
	closure, err := lr.LoadString(path, string(content))
	if err != nil {
		return nil, fmt.Errorf("failed to load Lua file %s: %w", path, err)
	}
	return closure, nil
}

// Execute runs closure within the configured limits.
func (lr *Runtime) Execute(closure *rt.Closure) (rt.Value, error) {
	lr.mu.Lock()
	defer lr.mu.Unlock()

	result, err := lr.call(rt.FunctionValue(closure))
	if err != nil {
		return rt.NilValue, fmt.Errorf("Lua execution error: %w", err)
	}
	return result, nil
}

// call runs fn under the resource limits. Golua panics when a hard limit
// is hit; the panic is returned as ErrLimitExceeded. The caller holds mu.
func (lr *Runtime) call(fn rt.Value, args ...rt.Value) (result rt.Value, err error) {
	lr.runtime.PushContext(lr.limits())
	defer lr.runtime.PopContext()
	defer func() {
		if r := recover(); r != nil {
			result, err = rt.NilValue, fmt.Errorf("%w: %v", ErrLimitExceeded, r)
		}
	}()
	return rt.Call1(lr.runtime.MainThread(), fn, args...)
}

// ExecuteString loads and runs code.
func (lr *Runtime) ExecuteString(name, code string) (rt.Value, error) {
	closure, err := lr.LoadString(name, code)
	if err != nil {
		return rt.NilValue, err
	}
	return lr.Execute(closure)
}

// ExecuteFile loads and runs the script at path.
func (lr *Runtime) ExecuteFile(path string) (rt.Value, error) {
	closure, err := lr.LoadFile(path)
	if err != nil {
		return rt.NilValue, err
	}
	return lr.Execute(closure)
}

// GetGlobal returns a global variable, or nil.
func (lr *Runtime) GetGlobal(name string) rt.Value {
	lr.mu.RLock()
	defer lr.mu.RUnlock()
	return lr.runtime.GlobalEnv().Get(rt.StringValue(name))
}

// SetGlobal sets a global variable.
func (lr *Runtime) SetGlobal(name string, value rt.Value) {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	lr.runtime.GlobalEnv().Set(rt.StringValue(name), value)
}

// HasFunction reports whether the global name holds a function.
func (lr *Runtime) HasFunction(name string) bool {
	return lr.GetGlobal(name).Type() == rt.FunctionType
}

// CallFunction calls the global function name within the configured
// limits.
func (lr *Runtime) CallFunction(name string, args ...rt.Value) (rt.Value, error) {
	lr.mu.Lock()
	defer lr.mu.Unlock()

	fn := lr.runtime.GlobalEnv().Get(rt.StringValue(name))
	if fn.IsNil() {
		return rt.NilValue, fmt.Errorf("%w: %s", ErrFunctionNotFound, name)
	}

	result, err := lr.call(fn, args...)
	if err != nil {
		return rt.NilValue, fmt.Errorf("failed to call function %s: %w", name, err)
	}
	return result, nil
}

// newGoFunction wraps fn as a Lua function that is safe under the
// runtime's resource limits.
func newGoFunction(fn rt.GoFunctionFunc, name string, nArgs int, variadic bool) *rt.GoFunction {
	f := rt.NewGoFunction(fn, name, nArgs, variadic)
	rt.SolemnlyDeclareCompliance(rt.ComplyMemSafe|rt.ComplyCpuSafe, f)
	return f
}

// SetGoFunction registers fn as a global function.
func (lr *Runtime) SetGoFunction(name string, fn rt.GoFunctionFunc, nArgs int, variadic bool) {
	lr.SetGlobal(name, rt.FunctionValue(newGoFunction(fn, name, nArgs, variadic)))
}

// Output returns everything printed so far.
func (lr *Runtime) Output() string {
	lr.mu.RLock()
	defer lr.mu.RUnlock()
	return lr.output.String()
}

// ClearOutput discards captured print output.
func (lr *Runtime) ClearOutput() {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	lr.output.Reset()
}

// Config returns the runtime limits.
func (lr *Runtime) Config() RuntimeConfig {
	return lr.config
}

// Close releases the standard library resources. The runtime must not be
// used afterwards.
func (lr *Runtime) Close() error {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	if lr.cleanup != nil {
		lr.cleanup()
		lr.cleanup = nil
	}
	return nil
}
