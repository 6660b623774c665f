package generator

import (
	"crypto/md5"
	"image/color"
	"math"
)

// Palette is the curated set of card colours. Names hash onto it so a project
// keeps its colour across restarts.
var Palette = []color.RGBA{
	{71, 85, 105, 255}, {51, 65, 85, 255}, // Slate
	{239, 68, 68, 255}, {185, 28, 28, 255}, // Red
	{236, 72, 153, 255}, {190, 24, 93, 255}, // Pink
	{249, 115, 22, 255}, {194, 65, 12, 255}, // Orange
	{245, 158, 11, 255}, {180, 83, 9, 255}, // Amber
	{34, 197, 94, 255}, {21, 128, 61, 255}, // Green
	{20, 184, 166, 255}, {15, 118, 110, 255}, // Teal
	{14, 165, 233, 255}, {3, 105, 161, 255}, // Sky
	{59, 130, 246, 255}, {29, 78, 216, 255}, // Blue
	{99, 102, 241, 255}, {67, 56, 202, 255}, // Indigo
	{139, 92, 246, 255}, {109, 40, 217, 255}, // Violet
	{217, 70, 239, 255}, {162, 28, 175, 255}, // Fuchsia
}

// ColorFor picks the palette entry for name.
func ColorFor(name string) color.RGBA {
	hash := 0
	for _, c := range name {
		hash = int(c) + ((hash << 5) - hash)
	}
	if hash < 0 {
		hash = -hash
	}
	return Palette[hash%len(Palette)]
}

// GradientFor derives two related colours from the name's md5 hash: a base
// hue and a second one shifted by 30 to 90 degrees.
func GradientFor(name string) (color.RGBA, color.RGBA) {
	hash := md5.Sum([]byte(name))

	h1 := float64(hash[0]) * (360.0 / 255.0)
	s1 := 0.65 + float64(hash[1]%35)/100.0
	l1 := 0.45 + float64(hash[2]%20)/100.0

	h2 := math.Mod(h1+30.0+float64(hash[3]%60), 360)
	s2 := 0.65 + float64(hash[4]%35)/100.0
	l2 := 0.45 + float64(hash[5]%20)/100.0

	r1, g1, b1 := hslToRgb(h1, s1, l1)
	r2, g2, b2 := hslToRgb(h2, s2, l2)
	return color.RGBA{r1, g1, b1, 255}, color.RGBA{r2, g2, b2, 255}
}

// Luminance is the relative luminance of c in [0,1].
func Luminance(c color.RGBA) float64 {
	return 0.2126*float64(c.R)/255.0 + 0.7152*float64(c.G)/255.0 + 0.0722*float64(c.B)/255.0
}

// TextColor returns black on light backgrounds and white otherwise.
func TextColor(c1, c2 color.RGBA) color.Color {
	mid := color.RGBA{
		R: uint8((int(c1.R) + int(c2.R)) / 2),
		G: uint8((int(c1.G) + int(c2.G)) / 2),
		B: uint8((int(c1.B) + int(c2.B)) / 2),
		A: 255,
	}
	if Luminance(mid) > 0.6 {
		return color.Black
	}
	return color.White
}

func hslToRgb(h, s, l float64) (r, g, b uint8) {
	var rf, gf, bf float64
	if s == 0 {
		rf, gf, bf = l, l, l
	} else {
		var q float64
		if l < 0.5 {
			q = l * (1 + s)
		} else {
			q = l + s - l*s
		}
		p := 2*l - q
		rf = hueToRgb(p, q, h/360.0+1.0/3.0)
		gf = hueToRgb(p, q, h/360.0)
		bf = hueToRgb(p, q, h/360.0-1.0/3.0)
	}
	return uint8(rf * 255), uint8(gf * 255), uint8(bf * 255)
}

func hueToRgb(p, q, t float64) float64 {
	if t < 0 {
		t += 1
	}
	if t > 1 {
		t -= 1
	}
	switch {
	case t < 1.0/6.0:
		return p + (q-p)*6.0*t
	case t < 1.0/2.0:
		return q
	case t < 2.0/3.0:
		return p + (q-p)*(2.0/3.0-t)*6.0
	}
	return p
}
