package generator

import (
	"fmt"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
)

var (
	parsedFont *opentype.Font
	fontErr    error
	fontOnce   sync.Once
)

// face returns the bundled bold face at the given pixel size.
func face(size int) (font.Face, error) {
	fontOnce.Do(func() {
		parsedFont, fontErr = opentype.Parse(gobold.TTF)
	})
	if fontErr != nil {
		return nil, fmt.Errorf("failed to parse bundled font: %w", fontErr)
	}

	f, err := opentype.NewFace(parsedFont, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face for size %d: %w", size, err)
	}
	return f, nil
}
