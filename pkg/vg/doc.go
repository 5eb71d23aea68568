// Package vg provides a retained-state 2D drawing context on top of an
// immediate-mode vector backend.
//
// A [Context] keeps a stack of drawing states (transform, clip, paint,
// font, opacity) and turns each draw call into backend commands that are
// already transformed to device pixels and scissored to the clip.
//
// # Basic Usage
//
//	b := ebitenvg.New(glyphs.NewRegistry())
//	ctx, err := vg.New(b, 800, 600, vg.WithLogger(vg.DefaultLogger()))
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer ctx.Close()
//
//	_ = ctx.BeginFrame()
//	ctx.SaveState()
//	ctx.SetFill(graphics.SolidFill(graphics.RGBA(1, 0, 0, 1)))
//	ctx.FillRect(graphics.NewRect(10, 10, 100, 50))
//	ctx.RestoreState()
//	if err := ctx.EndFrame(); err != nil {
//		log.Print(err)
//	}
//
// # Binding
//
// Only one Context may be bound to a backend per process. A second [New]
// before [Context.Close] fails with [ErrBackendInUse].
//
// # Error Handling
//
// Recoverable problems never abort drawing. They are logged, counted in
// [Metrics] and passed to the [ErrorHandler] as an [*Error]:
//
//   - [KindStateUnderflow]: restore without save, the base state is kept
//   - [KindClipDegenerate]: clip geometry without area, the clip empties
//   - [KindImageUploadFailure]: the draw needing the texture is skipped
//   - [KindGlyphNotFound]: a placeholder character is drawn
//
// Unbalanced transparency layers ([KindTransparencyLayerMismatch]) cancel
// the frame and are also returned to the caller.
//
// # Thread Safety
//
// A Context is not safe for concurrent use. Drive it from the goroutine
// that owns the backend. [Metrics] may be read from any goroutine.
package vg
