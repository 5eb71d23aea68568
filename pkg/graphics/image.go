package graphics

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"
	"sync/atomic"

	"github.com/disintegration/imaging"
)

// Image is a drawable bitmap with a content identity. ContentKey must change
// whenever the pixels change and must be unique across distinct images, so
// it can key texture uploads.
type Image interface {
	ContentKey() uint64
	Image() image.Image
}

var nextContentKey atomic.Uint64

func newContentKey() uint64 {
	return nextContentKey.Add(1)
}

// Bitmap is a mutable Image backed by an image.Image.
type Bitmap struct {
	img image.Image
	key uint64
}

// NewBitmap wraps img with a fresh content key.
func NewBitmap(img image.Image) *Bitmap {
	return &Bitmap{img: img, key: newContentKey()}
}

// NewBlankBitmap creates a transparent w x h bitmap.
func NewBlankBitmap(w, h int) *Bitmap {
	return NewBitmap(image.NewNRGBA(image.Rect(0, 0, w, h)))
}

// ContentKey returns the current content version.
func (b *Bitmap) ContentKey() uint64 { return b.key }

// Image returns the underlying pixels.
func (b *Bitmap) Image() image.Image { return b.img }

// Bounds returns the bitmap size as a Rect at the origin.
func (b *Bitmap) Bounds() Rect {
	r := b.img.Bounds()
	return Rect{W: float64(r.Dx()), H: float64(r.Dy())}
}

// Invalidate assigns a new content key. Call it after mutating pixels so
// that cached uploads of the previous content are not reused.
func (b *Bitmap) Invalidate() {
	b.key = newContentKey()
}

// Fill paints the whole bitmap with c and invalidates it.
func (b *Bitmap) Fill(c Colour) {
	if dst, ok := b.img.(draw.Image); ok {
		draw.Draw(dst, dst.Bounds(), image.NewUniform(color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}), image.Point{}, draw.Src)
	} else {
		fill := imaging.New(b.img.Bounds().Dx(), b.img.Bounds().Dy(), color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A})
		b.img = fill
	}
	b.Invalidate()
}

// LoadBitmap decodes an image file (PNG, JPEG, GIF, BMP or TIFF).
func LoadBitmap(path string) (*Bitmap, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}
	return NewBitmap(img), nil
}

// OpaqueBounds returns the bounding box of pixels whose alpha is non-zero,
// in the image's own pixel coordinates relative to its origin.
func OpaqueBounds(img image.Image) Rect {
	b := img.Bounds()
	minX, minY := b.Max.X, b.Max.Y
	maxX, maxY := b.Min.X, b.Min.Y
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a == 0 {
				continue
			}
			minX, maxX = min(minX, x), max(maxX, x+1)
			minY, maxY = min(minY, y), max(maxY, y+1)
		}
	}
	if maxX <= minX || maxY <= minY {
		return Rect{}
	}
	return Rect{
		X: float64(minX - b.Min.X),
		Y: float64(minY - b.Min.Y),
		W: float64(maxX - minX),
		H: float64(maxY - minY),
	}
}

// BitmapLibrary caches decoded bitmaps by file path so scripts can refer to
// images by name every frame without re-reading the file.
type BitmapLibrary struct {
	cache map[string]*Bitmap
	mu    sync.RWMutex
}

// NewBitmapLibrary creates an empty library.
func NewBitmapLibrary() *BitmapLibrary {
	return &BitmapLibrary{cache: make(map[string]*Bitmap)}
}

// Load returns the bitmap for path, decoding it on first use.
func (l *BitmapLibrary) Load(path string) (*Bitmap, error) {
	l.mu.RLock()
	if b, ok := l.cache[path]; ok {
		l.mu.RUnlock()
		return b, nil
	}
	l.mu.RUnlock()

	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok := l.cache[path]; ok {
		return b, nil
	}
	b, err := LoadBitmap(path)
	if err != nil {
		return nil, err
	}
	l.cache[path] = b
	return b, nil
}

// Remove forgets the bitmap for path so the next Load re-reads the file.
func (l *BitmapLibrary) Remove(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.cache, path)
}

// Clear forgets every bitmap.
func (l *BitmapLibrary) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache = make(map[string]*Bitmap)
}

// Size returns the number of cached bitmaps.
func (l *BitmapLibrary) Size() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.cache)
}
