// Package editor is the raster transform engine behind the photo editor:
// source loading, crop geometry, colour filters and per-session state.
package editor

import (
	"context"
	"errors"
	"image"
	"sync"
)

// State is the editing state of an Engine.
type State int

const (
	StateIdle State = iota
	StateLoaded
	StateCropped
	StateFiltered
)

func (s State) String() string {
	switch s {
	case StateLoaded:
		return "loaded"
	case StateCropped:
		return "cropped"
	case StateFiltered:
		return "filtered"
	default:
		return "idle"
	}
}

// Engine holds one editing session's original and displayed images. Every
// transform starts from the displayed image and replaces it. Calls are
// serialised, so a slow transform cannot overwrite a later one.
type Engine struct {
	loader  *Loader
	quality int

	mu       sync.Mutex
	state    State
	original Decoded
	display  Decoded
	filters  Filters
	ratio    Ratio
}

func NewEngine(loader *Loader, quality int) *Engine {
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	return &Engine{
		loader:  loader,
		quality: quality,
		filters: DefaultFilters(),
	}
}

// LoadSource decodes src and makes it both the original and the displayed
// image. On any error the previous state is kept.
func (e *Engine) LoadSource(ctx context.Context, src string) (int, int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.loader == nil {
		return 0, 0, errors.New("engine has no source loader")
	}

	decoded, err := e.loader.Load(ctx, src)
	if err != nil {
		return 0, 0, err
	}
	e.load(decoded)
	return decoded.Width(), decoded.Height(), nil
}

// LoadBytes replaces the source with an uploaded payload.
func (e *Engine) LoadBytes(data []byte, name string) (int, int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	decoded, err := DecodeBytes(data, name)
	if err != nil {
		return 0, 0, err
	}
	e.load(decoded)
	return decoded.Width(), decoded.Height(), nil
}

func (e *Engine) load(d Decoded) {
	e.original = d
	e.display = d
	e.filters = DefaultFilters()
	e.ratio = RatioFree
	e.state = StateLoaded
}

// ApplyCrop crops the displayed image to the largest centred rectangle of
// ratio. A free ratio keeps the whole image.
func (e *Engine) ApplyCrop(ctx context.Context, ratio Ratio) (Rect, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ready(ctx); err != nil {
		return Rect{}, err
	}

	rect := ComputeCropRect(e.display.Width(), e.display.Height(), ratio)
	data, err := RenderCrop(e.display.Image, rect, e.quality)
	if err != nil {
		return Rect{}, err
	}
	if err := e.show(data, "crop"); err != nil {
		return Rect{}, err
	}

	e.ratio = ratio
	e.state = StateCropped
	return rect, nil
}

// ApplyFilters adjusts the displayed image. Values are clamped to their
// ranges; identity filters leave the displayed image as it is.
func (e *Engine) ApplyFilters(ctx context.Context, f Filters) (Filters, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ready(ctx); err != nil {
		return Filters{}, err
	}

	f = f.Clamp()
	if !f.IsIdentity() {
		data, err := RenderFilters(e.display.Image, f, e.quality)
		if err != nil {
			return Filters{}, err
		}
		if err := e.show(data, "filters"); err != nil {
			return Filters{}, err
		}
	}

	e.filters = f
	e.state = StateFiltered
	return f, nil
}

// Reset discards every transform and shows the original source again.
func (e *Engine) Reset() (int, int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateIdle {
		return 0, 0, ErrNoSource
	}
	e.load(e.original)
	return e.display.Width(), e.display.Height(), nil
}

// Display returns the displayed image's encoded bytes and MIME type.
func (e *Engine) Display() ([]byte, string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.display.Data, e.display.MIME
}

// DataURL returns the displayed image as a self-contained data URL, or ""
// when nothing is loaded.
func (e *Engine) DataURL() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateIdle {
		return ""
	}
	return EncodeDataURL(e.display.MIME, e.display.Data)
}

// JPEG returns the displayed image as JPEG, re-encoding sources that were
// loaded in another format.
func (e *Engine) JPEG() ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateIdle {
		return nil, ErrNoSource
	}
	if e.display.MIME == mimeJPEG {
		return e.display.Data, nil
	}
	return encodeJPEG(e.display.Image, e.quality)
}

func (e *Engine) Dimensions() (int, int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateIdle {
		return 0, 0
	}
	return e.display.Width(), e.display.Height()
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) Filters() Filters {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.filters
}

func (e *Engine) Ratio() Ratio {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ratio
}

// Image returns the displayed bitmap, nil when idle.
func (e *Engine) Image() image.Image {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.display.Image
}

func (e *Engine) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.state == StateIdle {
		return ErrNoSource
	}
	return nil
}

// show makes freshly encoded output the displayed image, as it will be seen
// after a round trip through its encoding.
func (e *Engine) show(data []byte, op string) error {
	decoded, err := DecodeBytes(data, op+" output")
	if err != nil {
		return err
	}
	e.display = decoded
	return nil
}
