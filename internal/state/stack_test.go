package state

import (
	"errors"
	"reflect"
	"testing"

	"github.com/opd-ai/go-vgbridge/internal/clip"
	"github.com/opd-ai/go-vgbridge/pkg/graphics"
)

func newTestStack() *Stack {
	return NewStack(Default(graphics.NewRect(0, 0, 100, 100), graphics.NewFont("Go", 12, graphics.StylePlain)))
}

func TestStack_BalancedSaveRestore(t *testing.T) {
	tests := []struct {
		name  string
		saves int
	}{
		{"single", 1},
		{"nested", 5},
		{"deep", 64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStack()
			before := s.Current().Clone()
			for i := 0; i < tt.saves; i++ {
				s.Save()
				s.SetFill(graphics.SolidFill(graphics.RGBA(float64(i)/64, 0, 0, 1)))
				s.SetOpacity(0.5)
				s.SetOrigin(float64(i), 1)
				s.Current().Clip.ClipToRect(graphics.NewRect(float64(i), 0, 10, 10))
			}
			if s.Depth() != tt.saves+1 {
				t.Fatalf("Depth() = %d, want %d", s.Depth(), tt.saves+1)
			}
			for i := 0; i < tt.saves; i++ {
				if err := s.Restore(); err != nil {
					t.Fatalf("Restore() %d error = %v", i, err)
				}
			}
			if !reflect.DeepEqual(*s.Current(), before) {
				t.Errorf("state after balanced run = %+v, want %+v", *s.Current(), before)
			}
		})
	}
}

func TestStack_RestoreUnderflowClamps(t *testing.T) {
	s := newTestStack()
	s.SetOpacity(0.25)
	if err := s.Restore(); !errors.Is(err, ErrStateUnderflow) {
		t.Fatalf("Restore() error = %v, want ErrStateUnderflow", err)
	}
	if s.Depth() != 1 {
		t.Errorf("Depth() = %d after underflow, want 1", s.Depth())
	}
	if s.Current().Opacity != 0.25 {
		t.Error("underflow must leave the base state untouched")
	}
}

func TestStack_MutationsOnlyAffectTop(t *testing.T) {
	s := newTestStack()
	red := graphics.SolidFill(graphics.Colour{R: 255, A: 255})
	s.Save()
	s.SetFill(red)
	s.SetFont(graphics.NewFont("Go Mono", 30, graphics.StyleBold))
	s.Restore()
	if s.Current().Fill.Colour != graphics.Black {
		t.Errorf("fill after restore = %+v, want black", s.Current().Fill.Colour)
	}
	if s.Current().Font.Typeface != "Go" {
		t.Errorf("font after restore = %v", s.Current().Font)
	}
}

func TestStack_SavedGradientIsIsolated(t *testing.T) {
	s := newTestStack()
	g := graphics.NewLinearGradient(graphics.Black, graphics.Point{}, graphics.White, graphics.Point{X: 10})
	s.SetFill(graphics.GradientFill(g))
	s.Save()
	s.Current().Fill.Gradient.AddStop(0.5, graphics.Colour{R: 255, A: 255})
	s.Restore()
	if n := len(s.Current().Fill.Gradient.Stops()); n != 2 {
		t.Errorf("saved gradient has %d stops, want 2", n)
	}
}

func TestStack_TransformsAccumulate(t *testing.T) {
	s := newTestStack()
	s.SetOrigin(10, 20)
	s.AddTransform(graphics.Scaling(2, 2))
	x, y := s.Current().Transform.TransformPoint(1, 1)
	// Scale in the already translated space: (1,1) -> (2,2) -> (12,22).
	if x != 12 || y != 22 {
		t.Errorf("TransformPoint(1,1) = (%v,%v), want (12,22)", x, y)
	}
}

func TestStack_SetOpacityClamps(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-1, 0},
		{0.3, 0.3},
		{7, 1},
	}
	s := newTestStack()
	for _, tt := range tests {
		s.SetOpacity(tt.in)
		if got := s.Current().Opacity; got != tt.want {
			t.Errorf("SetOpacity(%v) -> %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestStack_Reset(t *testing.T) {
	s := newTestStack()
	s.Save()
	s.Save()
	s.Reset(Default(graphics.NewRect(0, 0, 5, 5), graphics.Font{}))
	if s.Depth() != 1 {
		t.Errorf("Depth() = %d after Reset, want 1", s.Depth())
	}
	if s.Current().Clip.Bounds() != graphics.NewRect(0, 0, 5, 5) {
		t.Errorf("clip after Reset = %+v", s.Current().Clip.Bounds())
	}
}

func TestStack_BaseSurvivesSaves(t *testing.T) {
	s := newTestStack()
	s.Save()
	s.Save()
	s.Base().Clip = clip.FromRect(graphics.NewRect(0, 0, 200, 200))
	if got := s.Current().Clip.Bounds(); got != graphics.NewRect(0, 0, 100, 100) {
		t.Errorf("top clip = %+v, want the saved copy", got)
	}
	for s.Depth() > 1 {
		_ = s.Restore()
	}
	if got := s.Current().Clip.Bounds(); got != graphics.NewRect(0, 0, 200, 200) {
		t.Errorf("clip after unwinding = %+v, want the updated base", got)
	}
}
