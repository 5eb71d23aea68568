package vg

import (
	"errors"
	"fmt"

	"github.com/opd-ai/go-vgbridge/internal/backend"
	"github.com/opd-ai/go-vgbridge/internal/clip"
	"github.com/opd-ai/go-vgbridge/internal/glyphs"
	"github.com/opd-ai/go-vgbridge/internal/state"
	"github.com/opd-ai/go-vgbridge/internal/texcache"
)

// Sentinel errors. Errors reported through an ErrorHandler or returned by
// Context methods wrap one of these.
var (
	ErrStateUnderflow            = state.ErrStateUnderflow
	ErrClipDegenerate            = clip.ErrDegenerate
	ErrImageUploadFailure        = texcache.ErrUploadFailed
	ErrGlyphNotFound             = glyphs.ErrGlyphNotFound
	ErrTransparencyLayerMismatch = errors.New("vg: unbalanced transparency layers")
	ErrBackendInUse              = backend.ErrBackendInUse
	ErrNoFrame                   = errors.New("vg: no frame in progress")
	ErrFrameInProgress           = errors.New("vg: frame already in progress")
	ErrClosed                    = errors.New("vg: context closed")
)

// ErrorKind classifies a drawing error.
type ErrorKind int

const (
	// KindStateUnderflow is a restore without a matching save. The base
	// state is kept.
	KindStateUnderflow ErrorKind = iota
	// KindClipDegenerate is clip geometry without area. The clip becomes
	// empty.
	KindClipDegenerate
	// KindImageUploadFailure is a texture the backend rejected. The draw
	// that needed it is skipped.
	KindImageUploadFailure
	// KindGlyphNotFound is a glyph index with no known character. A
	// placeholder is drawn instead.
	KindGlyphNotFound
	// KindTransparencyLayerMismatch is an unbalanced layer begin/end. The
	// frame is cancelled.
	KindTransparencyLayerMismatch
)

// String returns a human-readable name for the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindStateUnderflow:
		return "state-underflow"
	case KindClipDegenerate:
		return "clip-degenerate"
	case KindImageUploadFailure:
		return "image-upload-failure"
	case KindGlyphNotFound:
		return "glyph-not-found"
	case KindTransparencyLayerMismatch:
		return "transparency-layer-mismatch"
	default:
		return "unknown"
	}
}

// Severity indicates how an error affected the frame.
type Severity int

const (
	// SeverityWarning errors were absorbed; output degraded gracefully.
	SeverityWarning Severity = iota
	// SeverityError errors aborted the frame.
	SeverityError
)

// String returns a human-readable name for the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Fatal reports whether errors of kind k abort the frame.
func (k ErrorKind) Fatal() bool {
	return k == KindTransparencyLayerMismatch
}

// Error is a classified drawing error.
type Error struct {
	Kind     ErrorKind
	Severity Severity
	// Op is the Context method that failed.
	Op  string
	Err error
}

func newError(kind ErrorKind, op string, err error) *Error {
	sev := SeverityWarning
	if kind.Fatal() {
		sev = SeverityError
	}
	return &Error{Kind: kind, Severity: sev, Op: op, Err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("vg: %s [%s/%s]", e.Op, e.Severity, e.Kind)
	}
	return fmt.Sprintf("vg: %s [%s/%s]: %v", e.Op, e.Severity, e.Kind, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// ErrorHandler receives every error the context reports, recoverable or
// not. It runs on the drawing goroutine and must not call back into the
// Context.
type ErrorHandler func(err *Error)
