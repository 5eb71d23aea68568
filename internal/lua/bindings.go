package lua

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	rt "github.com/arnodel/golua/runtime"

	"github.com/opd-ai/go-vgbridge/pkg/graphics"
	"github.com/opd-ai/go-vgbridge/pkg/vg"
)

// Bindings exposes a vg.Context to scripts as the global vg table. The
// context is attached by the host before each paint call.
type Bindings struct {
	runtime  *Runtime
	images   *graphics.BitmapLibrary
	pathMeta *rt.Table

	mu      sync.RWMutex
	ctx     *vg.Context
	baseDir string
}

// NewBindings registers the vg table in runtime. Relative image paths are
// resolved against baseDir.
func NewBindings(runtime *Runtime, baseDir string) (*Bindings, error) {
	if runtime == nil {
		return nil, ErrNilRuntime
	}
	b := &Bindings{
		runtime: runtime,
		images:  graphics.NewBitmapLibrary(),
		baseDir: baseDir,
	}
	b.pathMeta = b.newPathMetatable()
	runtime.SetGlobal("vg", rt.TableValue(b.newModule()))
	return b, nil
}

// SetContext attaches the context drawn into by script calls. nil
// detaches it; drawing calls then raise a Lua error.
func (b *Bindings) SetContext(ctx *vg.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ctx = ctx
}

// SetBaseDir changes the directory relative image paths resolve against.
func (b *Bindings) SetBaseDir(dir string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.baseDir = dir
}

// Images returns the bitmap library backing vg.draw_image.
func (b *Bindings) Images() *graphics.BitmapLibrary { return b.images }

func (b *Bindings) context(name string) (*vg.Context, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.ctx == nil {
		return nil, fmt.Errorf("vg.%s: %w", name, ErrNoContext)
	}
	return b.ctx, nil
}

type binding struct {
	name     string
	fn       rt.GoFunctionFunc
	nArgs    int
	variadic bool
}

func (b *Bindings) newModule() *rt.Table {
	t := rt.NewTable()
	for _, f := range []binding{
		// State
		{"save", b.save, 0, false},
		{"restore", b.restore, 0, false},
		{"set_opacity", b.setOpacity, 1, false},
		{"set_interpolation", b.setInterpolation, 1, false},

		// Paint
		{"set_colour", b.setColour, 3, true},
		{"set_linear_gradient", b.setLinearGradient, 4, true},
		{"set_radial_gradient", b.setRadialGradient, 3, true},

		// Transform
		{"translate", b.translate, 2, false},
		{"rotate", b.rotate, 1, false},
		{"scale", b.scale, 1, true},
		{"scale_factor", b.scaleFactor, 0, false},

		// Drawing
		{"fill_rect", b.fillRect, 4, false},
		{"fill_path", b.fillPath, 1, false},
		{"stroke_path", b.strokePath, 2, false},
		{"draw_line", b.drawLine, 4, false},
		{"draw_image", b.drawImage, 3, true},

		// Clipping
		{"clip_rect", b.clipRect, 4, false},
		{"exclude_rect", b.excludeRect, 4, false},
		{"clip_path", b.clipPath, 1, false},
		{"clip_empty", b.clipEmpty, 0, false},
		{"clip_bounds", b.clipBounds, 0, false},
		{"clip_intersects", b.clipIntersects, 4, false},

		// Layers
		{"begin_layer", b.beginLayer, 1, false},
		{"end_layer", b.endLayer, 0, false},

		// Text
		{"set_font", b.setFont, 2, true},
		{"draw_text", b.drawText, 5, true},
		{"draw_glyph", b.drawGlyph, 3, false},

		// Paths
		{"path", b.newPath, 0, false},
	} {
		t.Set(rt.StringValue(f.name), rt.FunctionValue(newGoFunction(f.fn, f.name, f.nArgs, f.variadic)))
	}
	return t
}

// --- Argument helpers ---

// getAllArgs combines Args() and Etc() to get all arguments including varargs.
func getAllArgs(c *rt.GoCont) []rt.Value {
	return append(c.Args(), c.Etc()...)
}

func getFloatArg(args []rt.Value, idx int) (float64, error) {
	if idx >= len(args) {
		return 0, fmt.Errorf("argument %d out of range (have %d)", idx+1, len(args))
	}
	if f, ok := args[idx].TryFloat(); ok {
		return f, nil
	}
	if i, ok := args[idx].TryInt(); ok {
		return float64(i), nil
	}
	return 0, fmt.Errorf("argument %d is not a number", idx+1)
}

func getStringArg(args []rt.Value, idx int) (string, error) {
	if idx >= len(args) {
		return "", fmt.Errorf("argument %d out of range (have %d)", idx+1, len(args))
	}
	if s, ok := args[idx].TryString(); ok {
		return s, nil
	}
	return "", fmt.Errorf("argument %d is not a string", idx+1)
}

// floatArgs reads n numbers starting at from.
func floatArgs(args []rt.Value, from, n int) ([]float64, error) {
	out := make([]float64, n)
	for i := range out {
		f, err := getFloatArg(args, from+i)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

func rectArgs(args []rt.Value, from int) (graphics.Rect, error) {
	v, err := floatArgs(args, from, 4)
	if err != nil {
		return graphics.Rect{}, err
	}
	return graphics.NewRect(v[0], v[1], v[2], v[3]), nil
}

// colourArgs reads r, g, b and an optional alpha in [0, 1].
func colourArgs(args []rt.Value, from int) (graphics.Colour, error) {
	v, err := floatArgs(args, from, 3)
	if err != nil {
		return graphics.Colour{}, err
	}
	a := 1.0
	if len(args) > from+3 {
		if a, err = getFloatArg(args, from+3); err != nil {
			return graphics.Colour{}, err
		}
	}
	return graphics.RGBA(v[0], v[1], v[2], a), nil
}

// colourStop reads a {offset, r, g, b[, a]} table.
func colourStop(v rt.Value) (graphics.ColourStop, error) {
	tbl, ok := v.TryTable()
	if !ok {
		return graphics.ColourStop{}, fmt.Errorf("colour stop must be a table {offset, r, g, b[, a]}")
	}
	var vals []rt.Value
	for i := int64(1); i <= 5; i++ {
		e := tbl.Get(rt.IntValue(i))
		if e.IsNil() {
			break
		}
		vals = append(vals, e)
	}
	if len(vals) < 4 {
		return graphics.ColourStop{}, fmt.Errorf("colour stop needs at least 4 values, got %d", len(vals))
	}
	offset, err := getFloatArg(vals, 0)
	if err != nil {
		return graphics.ColourStop{}, err
	}
	c, err := colourArgs(vals, 1)
	if err != nil {
		return graphics.ColourStop{}, err
	}
	return graphics.ColourStop{Offset: offset, Colour: c}, nil
}

func pathArg(args []rt.Value, idx int) (*graphics.Path, error) {
	if idx >= len(args) {
		return nil, ErrInvalidPath
	}
	ud, ok := args[idx].TryUserData()
	if !ok {
		return nil, ErrInvalidPath
	}
	p, ok := ud.Value().(*graphics.Path)
	if !ok {
		return nil, ErrInvalidPath
	}
	return p, nil
}

// --- State ---

func (b *Bindings) save(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	ctx, err := b.context("save")
	if err != nil {
		return nil, err
	}
	ctx.SaveState()
	return c.Next(), nil
}

func (b *Bindings) restore(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	ctx, err := b.context("restore")
	if err != nil {
		return nil, err
	}
	ctx.RestoreState()
	return c.Next(), nil
}

func (b *Bindings) setOpacity(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	ctx, err := b.context("set_opacity")
	if err != nil {
		return nil, err
	}
	a, err := getFloatArg(getAllArgs(c), 0)
	if err != nil {
		return nil, fmt.Errorf("vg.set_opacity: %w", err)
	}
	ctx.SetOpacity(a)
	return c.Next(), nil
}

// setInterpolation handles vg.set_interpolation("low" | "medium" | "high").
func (b *Bindings) setInterpolation(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	ctx, err := b.context("set_interpolation")
	if err != nil {
		return nil, err
	}
	s, err := getStringArg(getAllArgs(c), 0)
	if err != nil {
		return nil, fmt.Errorf("vg.set_interpolation: %w", err)
	}
	var q graphics.ResamplingQuality
	switch strings.ToLower(s) {
	case "low":
		q = graphics.ResampleLow
	case "medium":
		q = graphics.ResampleMedium
	case "high":
		q = graphics.ResampleHigh
	default:
		return nil, fmt.Errorf("vg.set_interpolation: unknown quality %q", s)
	}
	ctx.SetInterpolationQuality(q)
	return c.Next(), nil
}

// --- Paint ---

// setColour handles vg.set_colour(r, g, b[, a]).
func (b *Bindings) setColour(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	ctx, err := b.context("set_colour")
	if err != nil {
		return nil, err
	}
	col, err := colourArgs(getAllArgs(c), 0)
	if err != nil {
		return nil, fmt.Errorf("vg.set_colour: %w", err)
	}
	ctx.SetFill(graphics.SolidFill(col))
	return c.Next(), nil
}

func (b *Bindings) setGradient(name string, c *rt.GoCont, g *graphics.Gradient, from int) (rt.Cont, error) {
	ctx, err := b.context(name)
	if err != nil {
		return nil, err
	}
	args := getAllArgs(c)
	if len(args)-from < 2 {
		return nil, fmt.Errorf("vg.%s: need at least two colour stops", name)
	}
	for i := from; i < len(args); i++ {
		stop, err := colourStop(args[i])
		if err != nil {
			return nil, fmt.Errorf("vg.%s: stop %d: %w", name, i-from+1, err)
		}
		g.AddStop(stop.Offset, stop.Colour)
	}
	ctx.SetFill(graphics.GradientFill(g))
	return c.Next(), nil
}

// setLinearGradient handles
// vg.set_linear_gradient(x1, y1, x2, y2, {offset, r, g, b[, a]}, ...).
func (b *Bindings) setLinearGradient(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	v, err := floatArgs(getAllArgs(c), 0, 4)
	if err != nil {
		return nil, fmt.Errorf("vg.set_linear_gradient: %w", err)
	}
	g := &graphics.Gradient{Point1: graphics.Point{X: v[0], Y: v[1]}, Point2: graphics.Point{X: v[2], Y: v[3]}}
	return b.setGradient("set_linear_gradient", c, g, 4)
}

// setRadialGradient handles
// vg.set_radial_gradient(cx, cy, radius, {offset, r, g, b[, a]}, ...).
func (b *Bindings) setRadialGradient(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	v, err := floatArgs(getAllArgs(c), 0, 3)
	if err != nil {
		return nil, fmt.Errorf("vg.set_radial_gradient: %w", err)
	}
	g := &graphics.Gradient{
		Point1: graphics.Point{X: v[0], Y: v[1]},
		Point2: graphics.Point{X: v[0] + v[2], Y: v[1]},
		Radial: true,
	}
	return b.setGradient("set_radial_gradient", c, g, 3)
}

// --- Transform ---

func (b *Bindings) translate(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	ctx, err := b.context("translate")
	if err != nil {
		return nil, err
	}
	v, err := floatArgs(getAllArgs(c), 0, 2)
	if err != nil {
		return nil, fmt.Errorf("vg.translate: %w", err)
	}
	ctx.SetOrigin(v[0], v[1])
	return c.Next(), nil
}

func (b *Bindings) rotate(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	ctx, err := b.context("rotate")
	if err != nil {
		return nil, err
	}
	angle, err := getFloatArg(getAllArgs(c), 0)
	if err != nil {
		return nil, fmt.Errorf("vg.rotate: %w", err)
	}
	ctx.AddTransform(graphics.Rotation(angle))
	return c.Next(), nil
}

// scale handles vg.scale(sx[, sy]). sy defaults to sx.
func (b *Bindings) scale(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	ctx, err := b.context("scale")
	if err != nil {
		return nil, err
	}
	args := getAllArgs(c)
	sx, err := getFloatArg(args, 0)
	if err != nil {
		return nil, fmt.Errorf("vg.scale: %w", err)
	}
	sy := sx
	if len(args) > 1 {
		if sy, err = getFloatArg(args, 1); err != nil {
			return nil, fmt.Errorf("vg.scale: %w", err)
		}
	}
	ctx.AddTransform(graphics.Scaling(sx, sy))
	return c.Next(), nil
}

func (b *Bindings) scaleFactor(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	ctx, err := b.context("scale_factor")
	if err != nil {
		return nil, err
	}
	return c.PushingNext1(t.Runtime, rt.FloatValue(ctx.PhysicalPixelScaleFactor())), nil
}

// --- Drawing ---

func (b *Bindings) fillRect(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	ctx, err := b.context("fill_rect")
	if err != nil {
		return nil, err
	}
	r, err := rectArgs(getAllArgs(c), 0)
	if err != nil {
		return nil, fmt.Errorf("vg.fill_rect: %w", err)
	}
	ctx.FillRect(r)
	return c.Next(), nil
}

func (b *Bindings) fillPath(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	ctx, err := b.context("fill_path")
	if err != nil {
		return nil, err
	}
	p, err := pathArg(getAllArgs(c), 0)
	if err != nil {
		return nil, fmt.Errorf("vg.fill_path: %w", err)
	}
	ctx.FillPath(*p, graphics.Identity())
	return c.Next(), nil
}

func (b *Bindings) strokePath(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	ctx, err := b.context("stroke_path")
	if err != nil {
		return nil, err
	}
	args := getAllArgs(c)
	p, err := pathArg(args, 0)
	if err != nil {
		return nil, fmt.Errorf("vg.stroke_path: %w", err)
	}
	width, err := getFloatArg(args, 1)
	if err != nil {
		return nil, fmt.Errorf("vg.stroke_path: width: %w", err)
	}
	ctx.StrokePath(*p, width, graphics.Identity())
	return c.Next(), nil
}

func (b *Bindings) drawLine(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	ctx, err := b.context("draw_line")
	if err != nil {
		return nil, err
	}
	v, err := floatArgs(getAllArgs(c), 0, 4)
	if err != nil {
		return nil, fmt.Errorf("vg.draw_line: %w", err)
	}
	ctx.DrawLine(graphics.Line{Start: graphics.Point{X: v[0], Y: v[1]}, End: graphics.Point{X: v[2], Y: v[3]}})
	return c.Next(), nil
}

// drawImage handles vg.draw_image(path, x, y[, scale]).
func (b *Bindings) drawImage(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	ctx, err := b.context("draw_image")
	if err != nil {
		return nil, err
	}
	args := getAllArgs(c)
	path, err := getStringArg(args, 0)
	if err != nil {
		return nil, fmt.Errorf("vg.draw_image: %w", err)
	}
	v, err := floatArgs(args, 1, 2)
	if err != nil {
		return nil, fmt.Errorf("vg.draw_image: %w", err)
	}
	tr := graphics.Translation(v[0], v[1])
	if len(args) > 3 {
		s, err := getFloatArg(args, 3)
		if err != nil {
			return nil, fmt.Errorf("vg.draw_image: scale: %w", err)
		}
		tr = graphics.Scaling(s, s).Multiply(tr)
	}
	bmp, err := b.images.Load(b.resolve(path))
	if err != nil {
		return nil, fmt.Errorf("vg.draw_image: %w", err)
	}
	ctx.DrawImage(bmp, tr)
	return c.Next(), nil
}

func (b *Bindings) resolve(path string) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if filepath.IsAbs(path) || b.baseDir == "" {
		return path
	}
	return filepath.Join(b.baseDir, path)
}

// --- Clipping ---

func (b *Bindings) clipRect(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	ctx, err := b.context("clip_rect")
	if err != nil {
		return nil, err
	}
	r, err := rectArgs(getAllArgs(c), 0)
	if err != nil {
		return nil, fmt.Errorf("vg.clip_rect: %w", err)
	}
	return c.PushingNext1(t.Runtime, rt.BoolValue(ctx.ClipToRectangle(r))), nil
}

func (b *Bindings) excludeRect(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	ctx, err := b.context("exclude_rect")
	if err != nil {
		return nil, err
	}
	r, err := rectArgs(getAllArgs(c), 0)
	if err != nil {
		return nil, fmt.Errorf("vg.exclude_rect: %w", err)
	}
	ctx.ExcludeClipRectangle(r)
	return c.Next(), nil
}

func (b *Bindings) clipPath(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	ctx, err := b.context("clip_path")
	if err != nil {
		return nil, err
	}
	p, err := pathArg(getAllArgs(c), 0)
	if err != nil {
		return nil, fmt.Errorf("vg.clip_path: %w", err)
	}
	ctx.ClipToPath(*p, graphics.Identity())
	return c.Next(), nil
}

func (b *Bindings) clipEmpty(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	ctx, err := b.context("clip_empty")
	if err != nil {
		return nil, err
	}
	return c.PushingNext1(t.Runtime, rt.BoolValue(ctx.IsClipEmpty())), nil
}

// clipBounds handles vg.clip_bounds() and returns x, y, w, h.
func (b *Bindings) clipBounds(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	ctx, err := b.context("clip_bounds")
	if err != nil {
		return nil, err
	}
	r := ctx.ClipBounds()
	return c.PushingNext(t.Runtime,
		rt.FloatValue(r.X), rt.FloatValue(r.Y), rt.FloatValue(r.W), rt.FloatValue(r.H)), nil
}

func (b *Bindings) clipIntersects(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	ctx, err := b.context("clip_intersects")
	if err != nil {
		return nil, err
	}
	r, err := rectArgs(getAllArgs(c), 0)
	if err != nil {
		return nil, fmt.Errorf("vg.clip_intersects: %w", err)
	}
	return c.PushingNext1(t.Runtime, rt.BoolValue(ctx.ClipRegionIntersects(r))), nil
}

// --- Layers ---

func (b *Bindings) beginLayer(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	ctx, err := b.context("begin_layer")
	if err != nil {
		return nil, err
	}
	a, err := getFloatArg(getAllArgs(c), 0)
	if err != nil {
		return nil, fmt.Errorf("vg.begin_layer: %w", err)
	}
	ctx.BeginTransparencyLayer(a)
	return c.Next(), nil
}

// endLayer handles vg.end_layer(). It returns false when no layer was
// open; the frame is then cancelled.
func (b *Bindings) endLayer(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	ctx, err := b.context("end_layer")
	if err != nil {
		return nil, err
	}
	return c.PushingNext1(t.Runtime, rt.BoolValue(ctx.EndTransparencyLayer() == nil)), nil
}

// --- Text ---

// setFont handles vg.set_font(typeface, size[, style]).
func (b *Bindings) setFont(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	ctx, err := b.context("set_font")
	if err != nil {
		return nil, err
	}
	args := getAllArgs(c)
	name, err := getStringArg(args, 0)
	if err != nil {
		return nil, fmt.Errorf("vg.set_font: %w", err)
	}
	size, err := getFloatArg(args, 1)
	if err != nil {
		return nil, fmt.Errorf("vg.set_font: size: %w", err)
	}
	var style graphics.FontStyle
	if len(args) > 2 {
		s, err := getStringArg(args, 2)
		if err != nil {
			return nil, fmt.Errorf("vg.set_font: style: %w", err)
		}
		if style, err = graphics.ParseFontStyle(s); err != nil {
			return nil, fmt.Errorf("vg.set_font: %w", err)
		}
	}
	ctx.SetFont(graphics.NewFont(name, size, style))
	return c.Next(), nil
}

var justifications = map[string]graphics.Justification{
	"left":      graphics.JustifyTopLeft,
	"right":     graphics.JustifyRight | graphics.JustifyTop,
	"centre":    graphics.JustifyHorizontallyCentred | graphics.JustifyTop,
	"center":    graphics.JustifyHorizontallyCentred | graphics.JustifyTop,
	"centred":   graphics.JustifyCentred,
	"justified": graphics.JustifyHorizontallyJustified | graphics.JustifyTop,
}

// drawText handles vg.draw_text(text, x, y, w, h[, justification]). It
// returns whether layout succeeded.
func (b *Bindings) drawText(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	ctx, err := b.context("draw_text")
	if err != nil {
		return nil, err
	}
	args := getAllArgs(c)
	text, err := getStringArg(args, 0)
	if err != nil {
		return nil, fmt.Errorf("vg.draw_text: %w", err)
	}
	area, err := rectArgs(args, 1)
	if err != nil {
		return nil, fmt.Errorf("vg.draw_text: %w", err)
	}
	s := graphics.NewAttributedString(text)
	if len(args) > 5 {
		name, err := getStringArg(args, 5)
		if err != nil {
			return nil, fmt.Errorf("vg.draw_text: justification: %w", err)
		}
		j, ok := justifications[strings.ToLower(name)]
		if !ok {
			return nil, fmt.Errorf("vg.draw_text: unknown justification %q", name)
		}
		s.Justification = j
	}
	return c.PushingNext1(t.Runtime, rt.BoolValue(ctx.DrawTextLayout(s, area))), nil
}

func (b *Bindings) drawGlyph(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	ctx, err := b.context("draw_glyph")
	if err != nil {
		return nil, err
	}
	v, err := floatArgs(getAllArgs(c), 0, 3)
	if err != nil {
		return nil, fmt.Errorf("vg.draw_glyph: %w", err)
	}
	ctx.DrawGlyph(graphics.GlyphID(v[0]), graphics.Translation(v[1], v[2]))
	return c.Next(), nil
}
