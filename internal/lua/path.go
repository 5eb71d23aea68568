package lua

import (
	"fmt"

	rt "github.com/arnodel/golua/runtime"

	"github.com/opd-ai/go-vgbridge/pkg/graphics"
)

// newPathMetatable builds the metatable shared by path userdata, so
// scripts can write p:move_to(x, y).
func (b *Bindings) newPathMetatable() *rt.Table {
	methods := rt.NewTable()
	for _, m := range []struct {
		name  string
		fn    rt.GoFunctionFunc
		nArgs int
	}{
		{"move_to", pathMoveTo, 3},
		{"line_to", pathLineTo, 3},
		{"quad_to", pathQuadTo, 5},
		{"cubic_to", pathCubicTo, 7},
		{"close", pathClose, 1},
		{"rect", pathRect, 5},
		{"ellipse", pathEllipse, 5},
		{"arc", pathArc, 6},
		{"set_even_odd", pathSetEvenOdd, 2},
		{"bounds", pathBounds, 1},
		{"is_empty", pathIsEmpty, 1},
	} {
		methods.Set(rt.StringValue(m.name), rt.FunctionValue(newGoFunction(m.fn, m.name, m.nArgs, false)))
	}
	meta := rt.NewTable()
	meta.Set(rt.StringValue("__index"), rt.TableValue(methods))
	return meta
}

// newPath handles vg.path().
func (b *Bindings) newPath(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	ud := rt.NewUserData(&graphics.Path{}, b.pathMeta)
	return c.PushingNext1(t.Runtime, rt.UserDataValue(ud)), nil
}

// pathCall reads the receiver and n numbers, then applies fn. The path is
// returned so calls can be chained.
func pathCall(name string, n int, fn func(p *graphics.Path, v []float64)) rt.GoFunctionFunc {
	return func(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
		args := getAllArgs(c)
		p, err := pathArg(args, 0)
		if err != nil {
			return nil, fmt.Errorf("path:%s: %w", name, err)
		}
		v, err := floatArgs(args, 1, n)
		if err != nil {
			return nil, fmt.Errorf("path:%s: %w", name, err)
		}
		fn(p, v)
		return c.PushingNext1(t.Runtime, args[0]), nil
	}
}

var (
	pathMoveTo = pathCall("move_to", 2, func(p *graphics.Path, v []float64) { p.MoveTo(v[0], v[1]) })
	pathLineTo = pathCall("line_to", 2, func(p *graphics.Path, v []float64) { p.LineTo(v[0], v[1]) })
	pathQuadTo = pathCall("quad_to", 4, func(p *graphics.Path, v []float64) { p.QuadTo(v[0], v[1], v[2], v[3]) })
	pathClose  = pathCall("close", 0, func(p *graphics.Path, _ []float64) { p.Close() })

	pathCubicTo = pathCall("cubic_to", 6, func(p *graphics.Path, v []float64) {
		p.CubicTo(v[0], v[1], v[2], v[3], v[4], v[5])
	})
	pathRect = pathCall("rect", 4, func(p *graphics.Path, v []float64) {
		p.AddRectangle(graphics.NewRect(v[0], v[1], v[2], v[3]))
	})
	pathEllipse = pathCall("ellipse", 4, func(p *graphics.Path, v []float64) {
		p.AddEllipse(graphics.NewRect(v[0], v[1], v[2], v[3]))
	})
	pathArc = pathCall("arc", 5, func(p *graphics.Path, v []float64) {
		p.AddArc(v[0], v[1], v[2], v[3], v[4])
	})
)

// pathSetEvenOdd handles p:set_even_odd(bool).
func pathSetEvenOdd(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	args := getAllArgs(c)
	p, err := pathArg(args, 0)
	if err != nil {
		return nil, fmt.Errorf("path:set_even_odd: %w", err)
	}
	p.EvenOdd = len(args) > 1 && rt.Truth(args[1])
	return c.PushingNext1(t.Runtime, args[0]), nil
}

// pathBounds handles p:bounds() and returns x, y, w, h.
func pathBounds(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	p, err := pathArg(getAllArgs(c), 0)
	if err != nil {
		return nil, fmt.Errorf("path:bounds: %w", err)
	}
	r := p.Bounds()
	return c.PushingNext(t.Runtime,
		rt.FloatValue(r.X), rt.FloatValue(r.Y), rt.FloatValue(r.W), rt.FloatValue(r.H)), nil
}

func pathIsEmpty(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	p, err := pathArg(getAllArgs(c), 0)
	if err != nil {
		return nil, fmt.Errorf("path:is_empty: %w", err)
	}
	return c.PushingNext1(t.Runtime, rt.BoolValue(p.IsEmpty())), nil
}
