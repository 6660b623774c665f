package editor

import (
	"image/color"
	"math"
)

// Filter bounds, in percent. 100 is identity for all three.
const (
	MaxBrightness = 200
	MaxContrast   = 200
	MaxSaturate   = 300
)

// Filters holds the three colour adjustments in percent.
//
// They are applied per pixel, in this order, on channels scaled to [0,1]
// and clamped to [0,1] after every stage:
//
//	brightness b:  c' = c·b
//	contrast   k:  c' = (c − 0.5)·k + 0.5
//	saturate   s:  the feColorMatrix "saturate" matrix with luminance
//	               coefficients 0.213, 0.715, 0.072
//
// Alpha is never changed.
type Filters struct {
	Brightness int `json:"brightness"`
	Contrast   int `json:"contrast"`
	Saturate   int `json:"saturate"`
}

func DefaultFilters() Filters {
	return Filters{Brightness: 100, Contrast: 100, Saturate: 100}
}

// Clamp bounds every value to its slider range.
func (f Filters) Clamp() Filters {
	return Filters{
		Brightness: min(max(f.Brightness, 0), MaxBrightness),
		Contrast:   min(max(f.Contrast, 0), MaxContrast),
		Saturate:   min(max(f.Saturate, 0), MaxSaturate),
	}
}

func (f Filters) IsIdentity() bool {
	return f == DefaultFilters()
}

// pixel returns the per-pixel function for f. Stages at 100% are skipped.
func (f Filters) pixel() func(color.NRGBA) color.NRGBA {
	b := float64(f.Brightness) / 100
	k := float64(f.Contrast) / 100
	s := float64(f.Saturate) / 100

	// feColorMatrix type="saturate"
	m := [3][3]float64{
		{0.213 + 0.787*s, 0.715 - 0.715*s, 0.072 - 0.072*s},
		{0.213 - 0.213*s, 0.715 + 0.285*s, 0.072 - 0.072*s},
		{0.213 - 0.213*s, 0.715 - 0.715*s, 0.072 + 0.928*s},
	}

	return func(c color.NRGBA) color.NRGBA {
		ch := [3]float64{float64(c.R) / 255, float64(c.G) / 255, float64(c.B) / 255}

		if f.Brightness != 100 {
			for i := range ch {
				ch[i] = unit(ch[i] * b)
			}
		}
		if f.Contrast != 100 {
			for i := range ch {
				ch[i] = unit((ch[i]-0.5)*k + 0.5)
			}
		}
		if f.Saturate != 100 {
			r, g, bl := ch[0], ch[1], ch[2]
			for i := range ch {
				ch[i] = unit(m[i][0]*r + m[i][1]*g + m[i][2]*bl)
			}
		}

		return color.NRGBA{
			R: uint8(math.Round(ch[0] * 255)),
			G: uint8(math.Round(ch[1] * 255)),
			B: uint8(math.Round(ch[2] * 255)),
			A: c.A,
		}
	}
}

func unit(x float64) float64 {
	return math.Min(math.Max(x, 0), 1)
}
