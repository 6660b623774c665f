// Package generator draws placeholder thumbnails for projects whose image
// cannot be shown: the project's initials over a colour derived from its name.
package generator

import (
	"image"
	"image/color"
	"strings"
	"unicode"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"fotoforge/pkg/logger"
)

const (
	DefaultSize = 160
	MinSize     = 16
	MaxSize     = 1024
)

// Initials returns up to two upper-cased leading letters of name.
func Initials(name string) string {
	var b strings.Builder
	n := 0
	for _, word := range strings.Fields(name) {
		r := []rune(word)[0]
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
		n++
		if n == 2 {
			break
		}
	}

	if n == 0 {
		for _, r := range name {
			if !unicode.IsSpace(r) {
				return string(unicode.ToUpper(r))
			}
		}
	}
	return b.String()
}

// Placeholder renders a size×size diagonal gradient tile with name's initials
// centred on it. The size is clamped to [MinSize, MaxSize].
func Placeholder(name string, size int) *image.NRGBA {
	if size <= 0 {
		size = DefaultSize
	}
	size = min(max(size, MinSize), MaxSize)

	bg1, bg2 := GradientFor(name)
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	fSize := float64(size)

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			ratio := (float64(x) + float64(y)) / (2 * fSize)
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(float64(bg1.R)*(1-ratio) + float64(bg2.R)*ratio),
				G: uint8(float64(bg1.G)*(1-ratio) + float64(bg2.G)*ratio),
				B: uint8(float64(bg1.B)*(1-ratio) + float64(bg2.B)*ratio),
				A: 255,
			})
		}
	}

	if text := Initials(name); text != "" {
		drawText(img, text, TextColor(bg1, bg2), size)
	}
	return img
}

func fontSize(size int, text string) int {
	base := float64(size) * 0.6
	if len([]rune(text)) == 1 {
		return int(base)
	}
	return int(base * 0.72)
}

func drawText(img *image.NRGBA, text string, textColor color.Color, size int) {
	f, err := face(fontSize(size, text))
	if err != nil {
		logger.LogError("Unable to draw placeholder text: %v", err)
		return
	}
	defer f.Close()

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(textColor),
		Face: f,
	}

	textWidth := d.MeasureString(text).Round()
	metrics := f.Metrics()
	ascent := metrics.Ascent.Ceil()
	textHeight := ascent + metrics.Descent.Ceil()

	d.Dot = fixed.P((size-textWidth)/2, (size-textHeight)/2+ascent)
	d.DrawString(text)
}
