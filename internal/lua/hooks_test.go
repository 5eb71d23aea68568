package lua

import (
	"errors"
	"testing"

	rt "github.com/arnodel/golua/runtime"
)

func TestHookType_String(t *testing.T) {
	tests := []struct {
		hook HookType
		want string
	}{
		{HookStartup, "startup"},
		{HookPaint, "paint"},
		{HookResized, "resized"},
		{HookShutdown, "shutdown"},
		{HookInvalid, "invalid"},
		{HookType(99), "invalid"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.hook.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseHookType(t *testing.T) {
	for _, name := range []string{"startup", "paint", "resized", "shutdown"} {
		h, err := ParseHookType(name)
		if err != nil || h.String() != name {
			t.Errorf("ParseHookType(%q) = %v, %v", name, h, err)
		}
	}
	if h, err := ParseHookType("draw_pre"); err == nil || h != HookInvalid {
		t.Errorf("ParseHookType(draw_pre) = %v, %v", h, err)
	}
}

func TestNewHooks_NilRuntime(t *testing.T) {
	if _, err := NewHooks(nil); !errors.Is(err, ErrNilRuntime) {
		t.Errorf("NewHooks(nil) error = %v", err)
	}
}

func TestHooks_Call(t *testing.T) {
	r := newTestRuntime(t)
	hooks, err := NewHooks(r)
	if err != nil {
		t.Fatal(err)
	}

	if err := hooks.Paint(10, 20); err != nil {
		t.Errorf("Paint() without a paint function error = %v", err)
	}

	_, err = r.ExecuteString("script", `
		painted = nil
		function startup() started = true end
		function paint(w, h) painted = w * h end
		function shutdown() error("cannot stop") end
	`)
	if err != nil {
		t.Fatal(err)
	}

	defined := hooks.Defined()
	if len(defined) != 3 {
		t.Errorf("Defined() = %v, want startup, paint and shutdown", defined)
	}
	if err := hooks.Call(HookStartup); err != nil {
		t.Errorf("Call(startup) error = %v", err)
	}
	if !rt.Truth(r.GetGlobal("started")) {
		t.Error("startup hook did not run")
	}
	if err := hooks.Paint(10, 20); err != nil {
		t.Fatalf("Paint() error = %v", err)
	}
	if got, _ := rt.ToInt(r.GetGlobal("painted")); got != 200 {
		t.Errorf("painted = %v, want 200", r.GetGlobal("painted"))
	}
	if err := hooks.Resized(1, 1); err != nil {
		t.Errorf("Resized() without a resized function error = %v", err)
	}
	if err := hooks.Call(HookShutdown); err == nil {
		t.Error("a failing hook should return an error")
	}
}
