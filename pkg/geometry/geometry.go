// Package geometry implements the percentage-based crop and click-marker
// algebra shared by live preview and export rendering. All functions are
// pure; callers own any locking.
package geometry

import (
	"fmt"
	"math"
)

// MinCropPercent is the smallest usable crop edge. Anything narrower is
// imperceptible and is treated as "no crop".
const MinCropPercent = 2.0

// BoundsPercent is a rectangle expressed as percentages of its source
// surface (window or screenshot). A nil *BoundsPercent means "no crop".
type BoundsPercent struct {
	X      float64 `json:"x_percent"`
	Y      float64 `json:"y_percent"`
	Width  float64 `json:"width_percent"`
	Height float64 `json:"height_percent"`
}

func (b BoundsPercent) String() string {
	return fmt.Sprintf("(%.2f,%.2f %.2fx%.2f)", b.X, b.Y, b.Width, b.Height)
}

// ClampPercent constrains a value into [0,100].
func ClampPercent(v float64) float64 {
	return math.Min(100, math.Max(0, v))
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// NormalizeCropRegion clamps a candidate crop into the [0,100] square and
// returns nil when the input cannot form a usable crop: non-finite values,
// or a resulting width/height under MinCropPercent. Normalizing an already
// normalized region returns an equal region.
func NormalizeCropRegion(region *BoundsPercent) *BoundsPercent {
	if region == nil {
		return nil
	}
	if !finite(region.X, region.Y, region.Width, region.Height) {
		return nil
	}

	x := ClampPercent(region.X)
	y := ClampPercent(region.Y)
	width := math.Min(region.Width, 100-x)
	height := math.Min(region.Height, 100-y)

	if width < MinCropPercent || height < MinCropPercent {
		return nil
	}

	return &BoundsPercent{X: x, Y: y, Width: width, Height: height}
}

// IsFullCrop reports whether the region shows the entire source surface.
// "No crop" and the explicit (0,0,100,100) rectangle are equivalent.
func IsFullCrop(region *BoundsPercent) bool {
	if region == nil {
		return true
	}
	return region.X == 0 && region.Y == 0 && region.Width == 100 && region.Height == 100
}

// MarkerPosition locates a click marker within the visible viewport.
// XPercent/YPercent are meaningful only when Visible is true.
type MarkerPosition struct {
	XPercent float64 `json:"x_percent"`
	YPercent float64 `json:"y_percent"`
	Visible  bool    `json:"visible"`
}

// MarkerFor remaps a click (given as percentages of the full surface) into
// crop-relative space. A click outside the crop is reported as not visible
// rather than clamped: a hidden marker beats a mispositioned one.
func MarkerFor(clickX, clickY float64, crop *BoundsPercent) MarkerPosition {
	if IsFullCrop(crop) {
		return MarkerPosition{XPercent: clickX, YPercent: clickY, Visible: true}
	}

	relX := (clickX - crop.X) / crop.Width * 100
	relY := (clickY - crop.Y) / crop.Height * 100
	if relX < 0 || relX > 100 || relY < 0 || relY > 100 {
		return MarkerPosition{Visible: false}
	}
	return MarkerPosition{XPercent: relX, YPercent: relY, Visible: true}
}

// ViewportStyles describes how to window and zoom a full-resolution image so
// that only the crop region shows. The crop is presentation-time only; no
// pixel data is discarded.
type ViewportStyles struct {
	ScaleX     float64
	ScaleY     float64
	TranslateX float64
	TranslateY float64
}

// CroppedImageStyles computes the scale and translation for a crop region.
// A full crop yields the identity transform.
func CroppedImageStyles(crop *BoundsPercent) ViewportStyles {
	if IsFullCrop(crop) {
		return ViewportStyles{ScaleX: 1, ScaleY: 1}
	}
	return ViewportStyles{
		ScaleX:     100 / crop.Width,
		ScaleY:     100 / crop.Height,
		TranslateX: -crop.X,
		TranslateY: -crop.Y,
	}
}

// CSSTransform renders the viewport as a CSS transform chain. The translate
// runs in the image's own percentage space, so it must precede the scale.
func (v ViewportStyles) CSSTransform() string {
	return fmt.Sprintf("scale(%g, %g) translate(%g%%, %g%%)", v.ScaleX, v.ScaleY, v.TranslateX, v.TranslateY)
}

// CropAspectRatio returns the width/height ratio of the cropped region using
// the image's natural pixel dimensions. It reports ok=false until the
// dimensions are known, letting layouts reserve space before image load.
func CropAspectRatio(naturalWidth, naturalHeight int, crop *BoundsPercent) (float64, bool) {
	if naturalWidth <= 0 || naturalHeight <= 0 {
		return 0, false
	}
	width := float64(naturalWidth)
	height := float64(naturalHeight)
	if !IsFullCrop(crop) {
		width = width * crop.Width / 100
		height = height * crop.Height / 100
	}
	if height == 0 {
		return 0, false
	}
	return width / height, true
}
