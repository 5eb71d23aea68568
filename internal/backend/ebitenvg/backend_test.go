//go:build !noebiten

package ebitenvg

import (
	"errors"
	"image"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/opd-ai/go-vgbridge/internal/backend"
	"github.com/opd-ai/go-vgbridge/internal/glyphs"
	"github.com/opd-ai/go-vgbridge/pkg/graphics"
)

func TestPrepare(t *testing.T) {
	tests := []struct {
		name           string
		img            image.Image
		maxSize        int
		wantW, wantH   int
		wantSX, wantSY float64
		wantErr        bool
	}{
		{"nil", nil, 64, 0, 0, 0, 0, true},
		{"empty", image.NewNRGBA(image.Rect(0, 0, 0, 5)), 64, 0, 0, 0, 0, true},
		{"offset origin", image.NewNRGBA(image.Rect(5, 5, 15, 25)), 64, 10, 20, 1, 1, false},
		{"rgba converted", image.NewRGBA(image.Rect(0, 0, 3, 3)), 64, 3, 3, 1, 1, false},
		{"downscaled", imaging.New(200, 100, graphics.White), 50, 50, 25, 4, 4, false},
		{"no limit", imaging.New(200, 100, graphics.White), 0, 200, 100, 1, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, sx, sy, err := Prepare(tt.img, tt.maxSize, graphics.ResampleMedium)
			if tt.wantErr {
				if !errors.Is(err, ErrEmptyImage) {
					t.Errorf("error = %v, want ErrEmptyImage", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Prepare() error = %v", err)
			}
			b := out.Bounds()
			if b.Min != (image.Point{}) || b.Dx() != tt.wantW || b.Dy() != tt.wantH {
				t.Errorf("bounds = %v, want %dx%d at origin", b, tt.wantW, tt.wantH)
			}
			if sx != tt.wantSX || sy != tt.wantSY {
				t.Errorf("scale = (%v, %v), want (%v, %v)", sx, sy, tt.wantSX, tt.wantSY)
			}
		})
	}
}

func TestResampleFilter(t *testing.T) {
	tests := []struct {
		q           graphics.ResamplingQuality
		wantSupport float64
	}{
		{graphics.ResampleLow, imaging.NearestNeighbor.Support},
		{graphics.ResampleMedium, imaging.Linear.Support},
		{graphics.ResampleHigh, imaging.Lanczos.Support},
	}
	for _, tt := range tests {
		if got := ResampleFilter(tt.q).Support; got != tt.wantSupport {
			t.Errorf("ResampleFilter(%v).Support = %v, want %v", tt.q, got, tt.wantSupport)
		}
	}
}

func TestBackend_FrameLifecycle(t *testing.T) {
	b := New(glyphs.NewRegistry())
	if err := b.EndFrame(); !errors.Is(err, ErrNotInFrame) {
		t.Errorf("EndFrame() without frame = %v", err)
	}

	b.BeginFrame(backend.FrameInfo{Width: 16, Height: 8, ScaleFactor: 1})
	if !b.InFrame() || b.Frame() == nil {
		t.Fatal("frame not started")
	}
	b.PushLayer()
	if b.LayerDepth() != 1 {
		t.Errorf("LayerDepth() = %d, want 1", b.LayerDepth())
	}
	if err := b.EndFrame(); !errors.Is(err, ErrOpenLayers) {
		t.Errorf("EndFrame() with open layer = %v", err)
	}
	b.PopLayer(0.5)
	if err := b.EndFrame(); err != nil {
		t.Errorf("EndFrame() error = %v", err)
	}
	if b.InFrame() {
		t.Error("frame still in progress")
	}

	b.BeginFrame(backend.FrameInfo{Width: 16, Height: 8})
	b.PushLayer()
	b.CancelFrame()
	if b.InFrame() || b.LayerDepth() != 0 {
		t.Error("CancelFrame() should drop the frame and its layers")
	}

	b.Invalidate(32, 32)
	if b.Frame() != nil {
		t.Error("Invalidate() should release the frame image")
	}
	b.BeginFrame(backend.FrameInfo{Width: 32, Height: 32})
	if got := b.Frame().Bounds(); got.Dx() != 32 || got.Dy() != 32 {
		t.Errorf("frame bounds = %v after resize", got)
	}
	b.CancelFrame()
}

func TestBackend_Textures(t *testing.T) {
	b := New(glyphs.NewRegistry(), WithMaxTextureSize(8))
	id, err := b.CreateTexture(imaging.New(32, 16, graphics.White))
	if err != nil {
		t.Fatalf("CreateTexture() error = %v", err)
	}
	if id == 0 {
		t.Error("texture handle must not be zero")
	}
	if b.textures[id].sx != 4 || b.textures[id].sy != 4 {
		t.Errorf("downscale factors = (%v, %v), want (4, 4)", b.textures[id].sx, b.textures[id].sy)
	}
	if b.Stats().Textures != 1 {
		t.Errorf("Textures = %d, want 1", b.Stats().Textures)
	}
	b.DeleteTexture(id)
	b.DeleteTexture(id)
	if b.Stats().Textures != 0 {
		t.Errorf("Textures = %d after delete", b.Stats().Textures)
	}
	if _, err := b.CreateTexture(image.NewNRGBA(image.Rectangle{})); err == nil {
		t.Error("CreateTexture() should reject an empty image")
	}
}

func TestBackend_DrawCalls(t *testing.T) {
	b := New(glyphs.NewRegistry())
	full := graphics.NewRect(0, 0, 20, 20)
	red := backend.Paint{Kind: backend.PaintSolid, Colour: graphics.Colour{R: 255, A: 255}, Alpha: 1}

	b.Fill(backend.FillCommand{Path: graphics.RectPath(full), Paint: red, Scissor: full})
	if b.Stats().DrawCalls != 0 {
		t.Error("commands outside a frame must be ignored")
	}

	b.BeginFrame(backend.FrameInfo{Width: 20, Height: 20})
	tests := []struct {
		name string
		draw func()
		want int
	}{
		{"fill", func() {
			b.Fill(backend.FillCommand{Path: graphics.RectPath(graphics.NewRect(2, 2, 5, 5)), Paint: red, Scissor: full})
		}, 1},
		{"fill scissored away", func() {
			b.Fill(backend.FillCommand{Path: graphics.RectPath(full), Paint: red, Scissor: graphics.NewRect(40, 40, 5, 5)})
		}, 0},
		{"fill sub scissor", func() {
			b.Fill(backend.FillCommand{Path: graphics.RectPath(full), Paint: red, Scissor: graphics.NewRect(0, 0, 5, 5), Blend: backend.BlendCopy})
		}, 1},
		{"stroke", func() {
			p := graphics.Path{}
			p.MoveTo(0, 0)
			p.LineTo(10, 10)
			b.Stroke(backend.StrokeCommand{Path: p, Paint: red, Width: 1, Scissor: full})
		}, 1},
		{"zero width stroke", func() {
			p := graphics.Path{}
			p.MoveTo(0, 0)
			p.LineTo(10, 10)
			b.Stroke(backend.StrokeCommand{Path: p, Paint: red, Scissor: full})
		}, 0},
		{"gradient missing", func() {
			b.Fill(backend.FillCommand{Path: graphics.RectPath(full), Paint: backend.Paint{Kind: backend.PaintLinearGradient, Alpha: 1}, Scissor: full})
		}, 0},
		{"unknown texture", func() {
			b.DrawImage(backend.ImageCommand{Texture: 99, Transform: graphics.Identity(), Alpha: 1, Scissor: full})
		}, 0},
		{"text", func() {
			b.DrawText(backend.TextCommand{
				Text:      "hi",
				Font:      graphics.NewFont(glyphs.TypefaceSans, 12, graphics.StylePlain),
				Transform: graphics.Translation(2, 14),
				Colour:    graphics.Black,
				Scissor:   full,
			})
		}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := b.Stats().DrawCalls
			tt.draw()
			if got := b.Stats().DrawCalls - before; got != tt.want {
				t.Errorf("draw calls = %d, want %d", got, tt.want)
			}
		})
	}

	id, err := b.CreateTexture(imaging.New(4, 4, graphics.White))
	if err != nil {
		t.Fatal(err)
	}
	before := b.Stats().DrawCalls
	b.DrawImage(backend.ImageCommand{Texture: id, Transform: graphics.Scaling(2, 2), Alpha: 1, Scissor: full})
	b.Fill(backend.FillCommand{
		Path:    graphics.RectPath(full),
		Paint:   backend.Paint{Kind: backend.PaintImage, Texture: id, ImageTransform: graphics.Identity(), Alpha: 1},
		Scissor: full,
	})
	if got := b.Stats().DrawCalls - before; got != 2 {
		t.Errorf("image draw calls = %d, want 2", got)
	}
	if err := b.EndFrame(); err != nil {
		t.Fatal(err)
	}
}

func TestBackend_OutputSurvivesCancel(t *testing.T) {
	b := New(glyphs.NewRegistry())
	if b.Output() != nil {
		t.Fatal("Output() before the first frame should be nil")
	}

	b.BeginFrame(backend.FrameInfo{Width: 16, Height: 8, Background: graphics.White})
	if err := b.EndFrame(); err != nil {
		t.Fatalf("EndFrame() error = %v", err)
	}
	out := b.Output()
	if out == nil || out == b.Frame() {
		t.Fatal("EndFrame() should copy the frame to a separate target")
	}

	b.BeginFrame(backend.FrameInfo{Width: 16, Height: 8})
	b.CancelFrame()
	if b.Output() != out {
		t.Error("CancelFrame() replaced the target")
	}

	b.Invalidate(32, 32)
	if b.Output() != out {
		t.Error("Invalidate() should keep the last completed frame")
	}
	b.BeginFrame(backend.FrameInfo{Width: 32, Height: 32})
	if err := b.EndFrame(); err != nil {
		t.Fatalf("EndFrame() error = %v", err)
	}
	if got := b.Output().Bounds(); got.Dx() != 32 || got.Dy() != 32 {
		t.Errorf("target bounds = %v after resize", got)
	}

	b.SetTarget(nil)
	if b.Output() != nil {
		t.Error("SetTarget(nil) should drop the owned target")
	}
}

func TestSnapScissor(t *testing.T) {
	tests := []struct {
		name string
		r    graphics.Rect
		want image.Rectangle
	}{
		{"integral", graphics.NewRect(1, 2, 3, 4), image.Rect(1, 2, 4, 6)},
		{"upper half", graphics.NewRect(0, 0, 10, 2.5), image.Rect(0, 0, 10, 3)},
		{"lower half", graphics.NewRect(0, 2.5, 10, 7.5), image.Rect(0, 3, 10, 10)},
		{"below half", graphics.NewRect(0.4, 0.4, 2, 2), image.Rect(0, 0, 2, 2)},
		{"sliver", graphics.NewRect(3.1, 0, 0.2, 5), image.Rect(3, 0, 3, 5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := snapScissor(tt.r); got != tt.want {
				t.Errorf("snapScissor(%+v) = %v, want %v", tt.r, got, tt.want)
			}
		})
	}

	// Pieces of a split clip must tile the surface without overlap.
	top := snapScissor(graphics.NewRect(0, 0, 10, 2.5))
	bottom := snapScissor(graphics.NewRect(0, 2.5, 10, 7.5))
	if !top.Intersect(bottom).Empty() {
		t.Errorf("pieces %v and %v overlap", top, bottom)
	}
	if top.Union(bottom) != image.Rect(0, 0, 10, 10) {
		t.Errorf("pieces %v and %v leave a gap", top, bottom)
	}
}
