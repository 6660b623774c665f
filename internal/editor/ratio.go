package editor

import (
	"errors"
	"fmt"
	"image"
	"math"
	"strconv"
	"strings"
)

var ErrInvalidRatio = errors.New("invalid aspect ratio")

// Ratio is a target width:height for cropping. The zero value is "free",
// which keeps the whole source.
type Ratio struct {
	W, H int
}

const ratioDelimiters = ":/x"

// MaxRatioTerm bounds each side of a parsed ratio.
const MaxRatioTerm = 10000

var (
	RatioFree    = Ratio{}
	RatioSquare  = Ratio{1, 1}
	RatioClassic = Ratio{4, 3}
	RatioWide    = Ratio{16, 9}

	// PresetRatios are the choices offered by the editor.
	PresetRatios = []Ratio{RatioFree, RatioSquare, RatioClassic, RatioWide}
)

// ParseRatio accepts "free" (or an empty string) and "w:h" pairs of positive
// integers up to MaxRatioTerm; '/' and 'x' are accepted as delimiters too.
func ParseRatio(s string) (Ratio, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "free" {
		return RatioFree, nil
	}

	i := strings.IndexAny(s, ratioDelimiters)
	if i <= 0 || i == len(s)-1 {
		return Ratio{}, fmt.Errorf("%w: %q", ErrInvalidRatio, s)
	}

	w, errW := strconv.Atoi(strings.TrimSpace(s[:i]))
	h, errH := strconv.Atoi(strings.TrimSpace(s[i+1:]))
	if errW != nil || errH != nil || w <= 0 || h <= 0 || w > MaxRatioTerm || h > MaxRatioTerm {
		return Ratio{}, fmt.Errorf("%w: %q", ErrInvalidRatio, s)
	}
	return Ratio{W: w, H: h}, nil
}

func (r Ratio) IsFree() bool { return r.W <= 0 || r.H <= 0 }

func (r Ratio) String() string {
	if r.IsFree() {
		return "free"
	}
	return fmt.Sprintf("%d:%d", r.W, r.H)
}

// Rect is a crop rectangle in source pixel coordinates.
type Rect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"width"`
	H int `json:"height"`
}

func (r Rect) Rectangle() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H)
}

// ComputeCropRect returns the largest rectangle of the given ratio centred in
// a w×h source. When the source is relatively wider than the ratio the full
// height is kept and the width is cut; otherwise the full width is kept.
// Values round half away from zero.
func ComputeCropRect(w, h int, r Ratio) Rect {
	if r.IsFree() || w <= 0 || h <= 0 {
		return Rect{X: 0, Y: 0, W: max(w, 0), H: max(h, 0)}
	}

	// w/h > r.W/r.H, compared without division. float64 keeps the products
	// in range for any int inputs.
	if float64(w)*float64(r.H) > float64(h)*float64(r.W) {
		cw := clampDim(math.Round(float64(h)*float64(r.W)/float64(r.H)), w)
		return Rect{X: int(math.Round(float64(w-cw) / 2)), Y: 0, W: cw, H: h}
	}

	ch := clampDim(math.Round(float64(w)*float64(r.H)/float64(r.W)), h)
	return Rect{X: 0, Y: int(math.Round(float64(h-ch) / 2)), W: w, H: ch}
}

func clampDim(v float64, limit int) int {
	return int(min(max(v, 1), float64(limit)))
}
