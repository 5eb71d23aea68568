package vg

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/opd-ai/go-vgbridge/pkg/graphics"
)

func TestSlogAdapter(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	tests := []struct {
		name string
		log  func()
		want []string
	}{
		{"debug", func() { adapter.Debug("debug message", "key", "value") }, []string{"debug message", "key=value"}},
		{"info", func() { adapter.Info("info message", "count", 42) }, []string{"info message", "count=42"}},
		{"warn", func() { adapter.Warn("warn message") }, []string{"level=WARN", "warn message"}},
		{"error", func() { adapter.Error("error message", "op", "FillRect") }, []string{"level=ERROR", "op=FillRect"}},
		{"with", func() { adapter.With("frame", 3).Info("scoped") }, []string{"scoped", "frame=3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.log()
			for _, w := range tt.want {
				if !strings.Contains(buf.String(), w) {
					t.Errorf("output %q missing %q", buf.String(), w)
				}
			}
		})
	}
}

func TestNewSlogAdapterNil(t *testing.T) {
	adapter := NewSlogAdapter(nil)
	if adapter == nil || adapter.logger == nil {
		t.Fatal("NewSlogAdapter(nil) should fall back to slog.Default()")
	}
}

func TestJSONLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := JSONLogger(&buf, slog.LevelWarn)

	logger.Info("should not appear")
	logger.Warn("should appear", "field", "value")

	out := buf.String()
	if strings.Contains(out, "should not appear") {
		t.Errorf("JSONLogger logged below its level: %s", out)
	}
	if !strings.Contains(out, `"msg":"should appear"`) || !strings.Contains(out, `"field":"value"`) {
		t.Errorf("JSONLogger output = %s", out)
	}
}

func TestNopLogger(t *testing.T) {
	var _ Logger = (*SlogAdapter)(nil)
	logger := NopLogger()
	logger.Debug("d", "k", "v")
	logger.Info("i")
	logger.Warn("w")
	logger.Error("e")
}

func TestContext_LogsReportedErrors(t *testing.T) {
	var buf bytes.Buffer
	ctx, _ := newTestContext(t, WithLogger(LevelLogger(&buf, slog.LevelWarn)))

	ctx.RestoreState()
	ctx.ClipToRectangle(graphics.Rect{})

	out := buf.String()
	for _, want := range []string{"op=RestoreState", "kind=state-underflow", "op=ClipToRectangle", "kind=clip-degenerate"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}
