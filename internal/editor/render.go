package editor

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"fotoforge/pkg/generator"
	"fotoforge/pkg/logger"
)

// Crop copies exactly rect out of img onto a new surface of rect's size.
// rect is relative to the image's top-left corner.
func Crop(img image.Image, rect Rect) *image.NRGBA {
	return imaging.Crop(img, rect.Rectangle().Add(img.Bounds().Min))
}

// RenderCrop crops img to rect and encodes the result as JPEG.
func RenderCrop(img image.Image, rect Rect, quality int) ([]byte, error) {
	if rect.W <= 0 || rect.H <= 0 {
		return nil, fmt.Errorf("empty crop rectangle %+v", rect)
	}
	return encodeJPEG(Crop(img, rect), quality)
}

// Adjust applies f to every pixel of img in one pass. Identity filters
// return an unmodified copy.
func Adjust(img image.Image, f Filters) *image.NRGBA {
	f = f.Clamp()
	if f.IsIdentity() {
		return imaging.Clone(img)
	}
	return imaging.AdjustFunc(img, f.pixel())
}

// RenderFilters adjusts img and encodes the result as JPEG.
func RenderFilters(img image.Image, f Filters, quality int) ([]byte, error) {
	return encodeJPEG(Adjust(img, f), quality)
}

// Thumbnail returns a size×size centre-cropped copy of img.
func Thumbnail(img image.Image, size int) *image.NRGBA {
	return imaging.Fill(img, size, size, imaging.Center, imaging.Lanczos)
}

// Thumbnail renders a square JPEG preview of src. A source that is missing or
// fails to load falls back to the placeholder for name; other errors, such as
// a cancelled context, are returned.
func (l *Loader) Thumbnail(ctx context.Context, src, name string, size, quality int) ([]byte, error) {
	if size <= 0 {
		size = generator.DefaultSize
	}

	var tile image.Image
	decoded, err := l.Load(ctx, src)
	var decodeErr *DecodeError
	switch {
	case err == nil:
		tile = Thumbnail(decoded.Image, size)
	case errors.Is(err, ErrNoSource), errors.As(err, &decodeErr):
		if decodeErr != nil {
			logger.LogWarn("Thumbnail falls back to placeholder: %v", decodeErr)
		}
		tile = generator.Placeholder(name, size)
	default:
		return nil, err
	}

	return encodeJPEG(tile, quality)
}
