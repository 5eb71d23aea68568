// Package state holds the drawing-state stack used by the drawing context.
package state

import (
	"errors"
	"math"

	"github.com/opd-ai/go-vgbridge/internal/clip"
	"github.com/opd-ai/go-vgbridge/pkg/graphics"
)

// ErrStateUnderflow is returned by Restore when only the base state is left.
var ErrStateUnderflow = errors.New("state: restore without matching save")

// DrawingState is the bundle of settings that governs drawing calls.
type DrawingState struct {
	Transform     graphics.Affine
	Clip          clip.Region
	Fill          graphics.FillType
	Font          graphics.Font
	Opacity       float64
	Interpolation graphics.ResamplingQuality
}

// Default returns the state of a freshly opened context covering bounds:
// identity transform, clip to the surface, opaque black fill.
func Default(bounds graphics.Rect, font graphics.Font) DrawingState {
	return DrawingState{
		Transform:     graphics.Identity(),
		Clip:          clip.FromRect(bounds),
		Fill:          graphics.SolidFill(graphics.Black),
		Font:          font,
		Opacity:       1,
		Interpolation: graphics.ResampleMedium,
	}
}

// Clone returns a deep copy of s.
func (s DrawingState) Clone() DrawingState {
	s.Clip = s.Clip.Clone()
	s.Fill = s.Fill.Clone()
	return s
}

// Stack is a non-empty stack of drawing states. The top entry is current.
type Stack struct {
	states []DrawingState
}

// NewStack creates a stack holding base as its only entry.
func NewStack(base DrawingState) *Stack {
	return &Stack{states: []DrawingState{base}}
}

// Current returns the mutable top state.
func (s *Stack) Current() *DrawingState {
	return &s.states[len(s.states)-1]
}

// Base returns the bottom entry, which Restore never pops.
func (s *Stack) Base() *DrawingState {
	return &s.states[0]
}

// Depth returns the number of entries, which is always at least 1.
func (s *Stack) Depth() int { return len(s.states) }

// Save pushes a copy of the current state.
func (s *Stack) Save() {
	s.states = append(s.states, s.Current().Clone())
}

// Restore discards the current state and makes the previously saved one
// current. At the base state it does nothing and returns ErrStateUnderflow.
func (s *Stack) Restore() error {
	if len(s.states) <= 1 {
		return ErrStateUnderflow
	}
	s.states[len(s.states)-1] = DrawingState{}
	s.states = s.states[:len(s.states)-1]
	return nil
}

// Reset drops every saved state and replaces the base.
func (s *Stack) Reset(base DrawingState) {
	clear(s.states)
	s.states = append(s.states[:0], base)
}

// SetOrigin moves the user-space origin to (x, y) in the current space.
func (s *Stack) SetOrigin(x, y float64) {
	s.AddTransform(graphics.Translation(x, y))
}

// AddTransform composes t into the current transform. t is applied to user
// coordinates first, then the existing transform.
func (s *Stack) AddTransform(t graphics.Affine) {
	cur := s.Current()
	cur.Transform = t.Multiply(cur.Transform)
}

// SetFill replaces the current fill.
func (s *Stack) SetFill(f graphics.FillType) {
	s.Current().Fill = f.Clone()
}

// SetOpacity sets the current opacity, clamped to [0, 1].
func (s *Stack) SetOpacity(a float64) {
	if math.IsNaN(a) {
		a = 0
	}
	s.Current().Opacity = math.Max(0, math.Min(1, a))
}

// SetFont replaces the current font.
func (s *Stack) SetFont(f graphics.Font) {
	s.Current().Font = f
}

// SetInterpolation sets the image resampling quality.
func (s *Stack) SetInterpolation(q graphics.ResamplingQuality) {
	s.Current().Interpolation = q
}
