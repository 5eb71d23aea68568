// Package recorder provides a Backend that records every command instead of
// rendering it. It backs headless runs and serves as the test double for
// the drawing context.
package recorder

import (
	"errors"
	"fmt"
	"image"
	"sort"

	"github.com/opd-ai/go-vgbridge/internal/backend"
)

// ErrUploadRejected is returned by CreateTexture when failure injection is
// enabled.
var ErrUploadRejected = errors.New("recorder: texture upload rejected")

// Op identifies a recorded command.
type Op int

const (
	OpBeginFrame Op = iota
	OpEndFrame
	OpCancelFrame
	OpInvalidate
	OpCreateTexture
	OpDeleteTexture
	OpFill
	OpStroke
	OpDrawImage
	OpDrawText
	OpPushLayer
	OpPopLayer
)

var opNames = [...]string{
	OpBeginFrame:    "begin-frame",
	OpEndFrame:      "end-frame",
	OpCancelFrame:   "cancel-frame",
	OpInvalidate:    "invalidate",
	OpCreateTexture: "create-texture",
	OpDeleteTexture: "delete-texture",
	OpFill:          "fill",
	OpStroke:        "stroke",
	OpDrawImage:     "draw-image",
	OpDrawText:      "draw-text",
	OpPushLayer:     "push-layer",
	OpPopLayer:      "pop-layer",
}

// String returns the command name.
func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return fmt.Sprintf("op(%d)", int(o))
}

// Command is one recorded call. Only the field matching Op is set.
type Command struct {
	Op      Op
	Frame   backend.FrameInfo
	Texture backend.TextureID
	Fill    *backend.FillCommand
	Stroke  *backend.StrokeCommand
	Image   *backend.ImageCommand
	Text    *backend.TextCommand
	Alpha   float64
	Width   int
	Height  int
}

// Recorder is a backend.Backend that stores commands in memory.
type Recorder struct {
	// FailUploads makes every CreateTexture call fail.
	FailUploads bool

	commands []Command
	textures map[backend.TextureID]image.Image
	nextID   backend.TextureID
	uploads  int
	inFrame  bool
	layers   int
	frames   int
}

// New creates an empty recorder.
func New() *Recorder {
	return &Recorder{textures: make(map[backend.TextureID]image.Image)}
}

var _ backend.Backend = (*Recorder)(nil)

func (r *Recorder) record(c Command) {
	r.commands = append(r.commands, c)
}

// BeginFrame starts a frame.
func (r *Recorder) BeginFrame(info backend.FrameInfo) {
	r.inFrame = true
	r.layers = 0
	r.record(Command{Op: OpBeginFrame, Frame: info})
}

// EndFrame finishes a frame. Unbalanced layers are reported as an error.
func (r *Recorder) EndFrame() error {
	r.record(Command{Op: OpEndFrame})
	if !r.inFrame {
		return errors.New("recorder: EndFrame without BeginFrame")
	}
	r.inFrame = false
	r.frames++
	if r.layers != 0 {
		return fmt.Errorf("recorder: frame ended with %d open layers", r.layers)
	}
	return nil
}

// CancelFrame abandons the current frame.
func (r *Recorder) CancelFrame() {
	r.inFrame = false
	r.layers = 0
	r.record(Command{Op: OpCancelFrame})
}

// Invalidate records a size change and abandons any frame in progress.
func (r *Recorder) Invalidate(width, height int) {
	r.inFrame = false
	r.layers = 0
	r.record(Command{Op: OpInvalidate, Width: width, Height: height})
}

// CreateTexture stores img under a new handle.
func (r *Recorder) CreateTexture(img image.Image) (backend.TextureID, error) {
	if r.FailUploads {
		return 0, ErrUploadRejected
	}
	if img == nil {
		return 0, errors.New("recorder: nil image")
	}
	r.nextID++
	r.uploads++
	r.textures[r.nextID] = img
	r.record(Command{Op: OpCreateTexture, Texture: r.nextID})
	return r.nextID, nil
}

// DeleteTexture releases a handle.
func (r *Recorder) DeleteTexture(id backend.TextureID) {
	delete(r.textures, id)
	r.record(Command{Op: OpDeleteTexture, Texture: id})
}

// Fill records a fill.
func (r *Recorder) Fill(cmd backend.FillCommand) {
	r.record(Command{Op: OpFill, Fill: &cmd})
}

// Stroke records a stroke.
func (r *Recorder) Stroke(cmd backend.StrokeCommand) {
	r.record(Command{Op: OpStroke, Stroke: &cmd})
}

// DrawImage records an image draw.
func (r *Recorder) DrawImage(cmd backend.ImageCommand) {
	r.record(Command{Op: OpDrawImage, Image: &cmd})
}

// DrawText records a text run.
func (r *Recorder) DrawText(cmd backend.TextCommand) {
	r.record(Command{Op: OpDrawText, Text: &cmd})
}

// PushLayer records a new layer.
func (r *Recorder) PushLayer() {
	r.layers++
	r.record(Command{Op: OpPushLayer})
}

// PopLayer records a layer composite.
func (r *Recorder) PopLayer(alpha float64) {
	r.layers--
	r.record(Command{Op: OpPopLayer, Alpha: alpha})
}

// Commands returns every recorded command.
func (r *Recorder) Commands() []Command {
	return append([]Command(nil), r.commands...)
}

// Filter returns the recorded commands of kind op.
func (r *Recorder) Filter(op Op) []Command {
	var out []Command
	for _, c := range r.commands {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Fills returns the recorded fill commands.
func (r *Recorder) Fills() []backend.FillCommand {
	var out []backend.FillCommand
	for _, c := range r.Filter(OpFill) {
		out = append(out, *c.Fill)
	}
	return out
}

// Texts returns the recorded text commands.
func (r *Recorder) Texts() []backend.TextCommand {
	var out []backend.TextCommand
	for _, c := range r.Filter(OpDrawText) {
		out = append(out, *c.Text)
	}
	return out
}

// Reset forgets recorded commands but keeps live textures.
func (r *Recorder) Reset() {
	r.commands = nil
}

// LiveTextures returns the number of textures not yet deleted.
func (r *Recorder) LiveTextures() int { return len(r.textures) }

// Texture returns the image uploaded under id.
func (r *Recorder) Texture(id backend.TextureID) (image.Image, bool) {
	img, ok := r.textures[id]
	return img, ok
}

// Uploads returns the number of successful CreateTexture calls.
func (r *Recorder) Uploads() int { return r.uploads }

// InFrame reports whether a frame is in progress.
func (r *Recorder) InFrame() bool { return r.inFrame }

// Frames returns the number of completed frames.
func (r *Recorder) Frames() int { return r.frames }

// Counts returns the number of recorded commands per op name.
func (r *Recorder) Counts() map[string]int {
	out := make(map[string]int)
	for _, c := range r.commands {
		out[c.Op.String()]++
	}
	return out
}

// Summary renders Counts as sorted "name=count" pairs.
func (r *Recorder) Summary() []string {
	counts := r.Counts()
	out := make([]string, 0, len(counts))
	for name, n := range counts {
		out = append(out, fmt.Sprintf("%s=%d", name, n))
	}
	sort.Strings(out)
	return out
}
