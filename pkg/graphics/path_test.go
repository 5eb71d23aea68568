package graphics

import (
	"math"
	"testing"
)

func TestPath_Rectangle(t *testing.T) {
	p := RectPath(NewRect(1, 2, 3, 4))
	if p.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", p.Len())
	}
	if p.Bounds() != NewRect(1, 2, 3, 4) {
		t.Errorf("Bounds() = %+v", p.Bounds())
	}
	if !p.Contains(2, 3) {
		t.Error("centre point should be inside")
	}
	if p.Contains(0, 0) {
		t.Error("outside point reported inside")
	}
}

func TestPath_LineToWithoutMove(t *testing.T) {
	var p Path
	p.LineTo(5, 5)
	segs := p.Segments()
	if len(segs) != 1 || segs[0].Type != MoveTo {
		t.Errorf("LineTo on empty path should start a sub-path, got %+v", segs)
	}
	if !p.IsEmpty() {
		t.Error("path with only a move should be empty")
	}
}

func TestPath_FillRules(t *testing.T) {
	// Two nested squares wound the same way.
	var p Path
	p.AddRectangle(NewRect(0, 0, 10, 10))
	p.AddRectangle(NewRect(3, 3, 4, 4))

	if !p.Contains(5, 5) {
		t.Error("non-zero: inner square should be filled")
	}
	p.EvenOdd = true
	if p.Contains(5, 5) {
		t.Error("even-odd: inner square should be a hole")
	}
	if !p.Contains(1, 1) {
		t.Error("even-odd: outer ring should be filled")
	}
}

func TestPath_Transformed(t *testing.T) {
	p := RectPath(NewRect(0, 0, 10, 10))
	moved := p.Transformed(Translation(5, 5))
	if moved.Bounds() != NewRect(5, 5, 10, 10) {
		t.Errorf("Bounds() = %+v", moved.Bounds())
	}
	if p.Bounds() != NewRect(0, 0, 10, 10) {
		t.Error("Transformed must not modify the receiver")
	}
}

func TestPath_EllipseFlatten(t *testing.T) {
	var p Path
	p.AddEllipse(NewRect(0, 0, 20, 20))
	polys := p.Flatten(0.1)
	if len(polys) != 1 {
		t.Fatalf("Flatten() produced %d polygons, want 1", len(polys))
	}
	for _, pt := range polys[0] {
		d := math.Hypot(pt.X-10, pt.Y-10)
		if math.Abs(d-10) > 0.05 {
			t.Fatalf("point %+v is %v from centre, want ~10", pt, d)
		}
	}
	if !p.Contains(10, 10) || p.Contains(1, 1) {
		t.Error("ellipse containment wrong")
	}
}

func TestPath_Arc(t *testing.T) {
	var p Path
	p.AddArc(0, 0, 5, 0, math.Pi)
	segs := p.Segments()
	end := segs[len(segs)-1]
	if !nearlyEqualTol(end.X, -5, 1e-9) || !nearlyEqualTol(end.Y, 0, 1e-9) {
		t.Errorf("arc end = (%v,%v), want (-5,0)", end.X, end.Y)
	}
}

func nearlyEqualTol(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}
