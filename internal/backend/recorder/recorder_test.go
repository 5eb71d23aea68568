package recorder

import (
	"errors"
	"image"
	"testing"

	"github.com/opd-ai/go-vgbridge/internal/backend"
)

func TestRecorder_Textures(t *testing.T) {
	r := New()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	id, err := r.CreateTexture(img)
	if err != nil {
		t.Fatalf("CreateTexture() error = %v", err)
	}
	if id == 0 {
		t.Error("texture handle must not be zero")
	}
	if r.LiveTextures() != 1 || r.Uploads() != 1 {
		t.Errorf("live=%d uploads=%d, want 1/1", r.LiveTextures(), r.Uploads())
	}
	r.DeleteTexture(id)
	if r.LiveTextures() != 0 {
		t.Errorf("LiveTextures() = %d after delete", r.LiveTextures())
	}

	r.FailUploads = true
	if _, err := r.CreateTexture(img); !errors.Is(err, ErrUploadRejected) {
		t.Errorf("CreateTexture() error = %v, want ErrUploadRejected", err)
	}
}

func TestRecorder_FrameLayers(t *testing.T) {
	r := New()
	r.BeginFrame(backend.FrameInfo{Width: 10, Height: 10})
	r.PushLayer()
	if err := r.EndFrame(); err == nil {
		t.Error("EndFrame() with open layer should fail")
	}

	r.BeginFrame(backend.FrameInfo{Width: 10, Height: 10})
	r.PushLayer()
	r.Fill(backend.FillCommand{})
	r.PopLayer(0.5)
	if err := r.EndFrame(); err != nil {
		t.Errorf("EndFrame() error = %v", err)
	}
	if r.Frames() != 2 {
		t.Errorf("Frames() = %d, want 2", r.Frames())
	}
	if got := r.Counts()["fill"]; got != 1 {
		t.Errorf("fill count = %d, want 1", got)
	}
	pops := r.Filter(OpPopLayer)
	if len(pops) != 1 || pops[0].Alpha != 0.5 {
		t.Errorf("pop-layer commands = %+v", pops)
	}
}

func TestRecorder_Summary(t *testing.T) {
	r := New()
	r.Fill(backend.FillCommand{})
	r.Fill(backend.FillCommand{})
	r.DrawText(backend.TextCommand{Text: "hi"})
	got := r.Summary()
	want := []string{"draw-text=1", "fill=2"}
	if len(got) != len(want) {
		t.Fatalf("Summary() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Summary()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if len(r.Texts()) != 1 || r.Texts()[0].Text != "hi" {
		t.Errorf("Texts() = %+v", r.Texts())
	}
}

func TestRecorder_InvalidateAbandonsFrame(t *testing.T) {
	r := New()
	r.BeginFrame(backend.FrameInfo{Width: 10, Height: 10})
	r.PushLayer()
	r.Invalidate(20, 20)
	if r.InFrame() {
		t.Fatal("InFrame() = true after Invalidate")
	}
	if err := r.EndFrame(); err == nil {
		t.Error("EndFrame() after Invalidate should fail")
	}
	if r.Frames() != 0 {
		t.Errorf("Frames() = %d, want 0", r.Frames())
	}

	r.BeginFrame(backend.FrameInfo{Width: 20, Height: 20})
	if err := r.EndFrame(); err != nil {
		t.Errorf("EndFrame() after a new BeginFrame error = %v", err)
	}
}
