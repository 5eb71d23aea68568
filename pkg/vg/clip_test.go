package vg

import (
	"image"
	"image/color"
	"sort"
	"testing"

	"github.com/opd-ai/go-vgbridge/pkg/graphics"
)

func sortedRects(rs []graphics.Rect) []graphics.Rect {
	out := append([]graphics.Rect(nil), rs...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Y != out[j].Y {
			return out[i].Y < out[j].Y
		}
		return out[i].X < out[j].X
	})
	return out
}

func equalRects(a, b []graphics.Rect) bool {
	if len(a) != len(b) {
		return false
	}
	a, b = sortedRects(a), sortedRects(b)
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func triangle() graphics.Path {
	var p graphics.Path
	p.MoveTo(0, 0)
	p.LineTo(10, 0)
	p.LineTo(0, 10)
	p.Close()
	return p
}

// maskBitmap returns a 10x10 image that is opaque only inside opaque.
func maskBitmap(opaque image.Rectangle) *graphics.Bitmap {
	img := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	for y := opaque.Min.Y; y < opaque.Max.Y; y++ {
		for x := opaque.Min.X; x < opaque.Max.X; x++ {
			img.Set(x, y, color.White)
		}
	}
	return graphics.NewBitmap(img)
}

func TestContext_ClipVariants(t *testing.T) {
	tests := []struct {
		name      string
		clip      func(ctx *Context)
		draw      graphics.Rect
		wantEmpty bool
		// wantBounds is the clip in user space.
		wantBounds graphics.Rect
		// wantScissors are the device-space scissors of the fills.
		wantScissors []graphics.Rect
	}{
		{
			name: "rectangle list",
			clip: func(ctx *Context) {
				ctx.ClipToRectangleList(graphics.NewRectList(
					graphics.NewRect(0, 0, 10, 10),
					graphics.NewRect(20, 0, 10, 10),
				))
			},
			draw:         graphics.NewRect(0, 0, 100, 100),
			wantBounds:   graphics.NewRect(0, 0, 30, 10),
			wantScissors: []graphics.Rect{graphics.NewRect(0, 0, 20, 20), graphics.NewRect(40, 0, 20, 20)},
		},
		{
			name: "rectangle list missed",
			clip: func(ctx *Context) {
				ctx.ClipToRectangleList(graphics.NewRectList(graphics.NewRect(0, 0, 10, 10)))
			},
			draw:       graphics.NewRect(50, 50, 10, 10),
			wantBounds: graphics.NewRect(0, 0, 10, 10),
		},
		{
			name: "empty rectangle list",
			clip: func(ctx *Context) {
				ctx.ClipToRectangleList(graphics.RectList{})
			},
			draw:      graphics.NewRect(0, 0, 100, 100),
			wantEmpty: true,
		},
		{
			name: "path",
			clip: func(ctx *Context) {
				ctx.ClipToPath(triangle(), graphics.Translation(5, 5))
			},
			draw:         graphics.NewRect(0, 0, 100, 100),
			wantBounds:   graphics.NewRect(5, 5, 10, 10),
			wantScissors: []graphics.Rect{graphics.NewRect(10, 10, 20, 20)},
		},
		{
			name: "path missed",
			clip: func(ctx *Context) {
				ctx.ClipToPath(triangle(), graphics.Identity())
			},
			draw:       graphics.NewRect(40, 40, 10, 10),
			wantBounds: graphics.NewRect(0, 0, 10, 10),
		},
		{
			name: "image alpha",
			clip: func(ctx *Context) {
				ctx.ClipToImageAlpha(maskBitmap(image.Rect(2, 2, 6, 5)), graphics.Translation(10, 10))
			},
			draw:         graphics.NewRect(0, 0, 100, 100),
			wantBounds:   graphics.NewRect(12, 12, 4, 3),
			wantScissors: []graphics.Rect{graphics.NewRect(24, 24, 8, 6)},
		},
		{
			name: "transparent image alpha",
			clip: func(ctx *Context) {
				ctx.ClipToImageAlpha(maskBitmap(image.Rectangle{}), graphics.Identity())
			},
			draw:      graphics.NewRect(0, 0, 100, 100),
			wantEmpty: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, rec := newTestContext(t, WithScaleFactor(2))
			_ = ctx.BeginFrame()
			tt.clip(ctx)

			if ctx.IsClipEmpty() != tt.wantEmpty {
				t.Fatalf("IsClipEmpty() = %v, want %v", ctx.IsClipEmpty(), tt.wantEmpty)
			}
			if got := ctx.ClipBounds(); got != tt.wantBounds {
				t.Errorf("ClipBounds() = %+v, want %+v", got, tt.wantBounds)
			}
			ctx.FillRect(tt.draw)
			_ = ctx.EndFrame()

			var got []graphics.Rect
			for _, f := range rec.Fills() {
				got = append(got, f.Scissor)
			}
			if !equalRects(got, tt.wantScissors) {
				t.Errorf("fill scissors = %+v, want %+v", got, tt.wantScissors)
			}
		})
	}
}

func TestContext_FillRectList(t *testing.T) {
	tests := []struct {
		name string
		list graphics.RectList
		clip graphics.Rect
		// want are the device-space bounds of the fills.
		want []graphics.Rect
	}{
		{
			name: "unclipped",
			list: graphics.NewRectList(graphics.NewRect(0, 0, 10, 10), graphics.NewRect(20, 20, 5, 5)),
			clip: graphics.NewRect(0, 0, 100, 100),
			want: []graphics.Rect{graphics.NewRect(0, 0, 20, 20), graphics.NewRect(40, 40, 10, 10)},
		},
		{
			name: "clipped",
			list: graphics.NewRectList(graphics.NewRect(0, 0, 10, 10), graphics.NewRect(20, 20, 5, 5)),
			clip: graphics.NewRect(5, 5, 50, 50),
			want: []graphics.Rect{graphics.NewRect(10, 10, 10, 10), graphics.NewRect(40, 40, 10, 10)},
		},
		{
			name: "culled",
			list: graphics.NewRectList(graphics.NewRect(0, 0, 10, 10)),
			clip: graphics.NewRect(50, 50, 10, 10),
		},
		{
			name: "empty list",
			clip: graphics.NewRect(0, 0, 100, 100),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, rec := newTestContext(t, WithScaleFactor(2))
			_ = ctx.BeginFrame()
			ctx.ClipToRectangle(tt.clip)
			ctx.FillRectList(tt.list)
			_ = ctx.EndFrame()

			var got []graphics.Rect
			for _, f := range rec.Fills() {
				got = append(got, f.Path.Bounds())
			}
			if !equalRects(got, tt.want) {
				t.Errorf("fill bounds = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestContext_ClipToPathRestored(t *testing.T) {
	ctx, rec := newTestContext(t)
	_ = ctx.BeginFrame()
	ctx.SaveState()
	ctx.ClipToPath(triangle(), graphics.Identity())
	ctx.RestoreState()
	ctx.FillRect(graphics.NewRect(50, 50, 10, 10))
	_ = ctx.EndFrame()

	fills := rec.Fills()
	if len(fills) != 1 {
		t.Fatalf("fills = %d, want 1", len(fills))
	}
	if got := fills[0].Scissor; got != graphics.NewRect(0, 0, 100, 100) {
		t.Errorf("scissor after restore = %+v, want the surface", got)
	}
}
