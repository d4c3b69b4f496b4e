package geometry

import "math"

// BoundingBox is an axis-aligned rectangle in document coordinate space with
// the origin at the top-left.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Center returns the box midpoint.
func (b BoundingBox) Center() (float64, float64) {
	return b.X + b.Width/2, b.Y + b.Height/2
}

// Area returns width * height.
func (b BoundingBox) Area() float64 {
	return b.Width * b.Height
}

// OverlapRatio returns the intersection area divided by the smaller of the
// two areas. A small element fully nested inside a larger one therefore
// still scores close to 1. Returns 0 when the boxes do not intersect or
// either area is 0.
func OverlapRatio(a, b BoundingBox) float64 {
	xOverlap := math.Max(0, math.Min(a.X+a.Width, b.X+b.Width)-math.Max(a.X, b.X))
	yOverlap := math.Max(0, math.Min(a.Y+a.Height, b.Y+b.Height)-math.Max(a.Y, b.Y))

	overlapArea := xOverlap * yOverlap
	minArea := math.Min(a.Area(), b.Area())
	if minArea == 0 {
		return 0
	}
	return overlapArea / minArea
}

// Alignment reports whether a and b are horizontally and/or vertically
// aligned within threshold pixels, together with the center-to-center offset
// along the triggering axis. Horizontal alignment compares top edges, bottom
// edges and vertical centers; vertical alignment is the symmetric test on the
// horizontal axis. When both trigger, the horizontal offset is reported.
func Alignment(a, b BoundingBox, threshold float64) (hAligned, vAligned bool, offset float64) {
	acx, acy := a.Center()
	bcx, bcy := b.Center()

	hAligned = math.Abs(a.Y-b.Y) < threshold ||
		math.Abs((a.Y+a.Height)-(b.Y+b.Height)) < threshold ||
		math.Abs(acy-bcy) < threshold
	hOffset := acy - bcy

	vAligned = math.Abs(a.X-b.X) < threshold ||
		math.Abs((a.X+a.Width)-(b.X+b.Width)) < threshold ||
		math.Abs(acx-bcx) < threshold
	vOffset := acx - bcx

	if hAligned {
		return hAligned, vAligned, hOffset
	}
	return hAligned, vAligned, vOffset
}

// SizeSimilarity returns the average of the width ratio and height ratio of
// the two boxes, each expressed as min/max. Symmetric, in [0, 1], and 0 when
// either box has a zero area.
func SizeSimilarity(a, b BoundingBox) float64 {
	if a.Area() == 0 || b.Area() == 0 {
		return 0
	}

	widthSim := 0.0
	if maxW := math.Max(a.Width, b.Width); maxW > 0 {
		widthSim = math.Min(a.Width, b.Width) / maxW
	}
	heightSim := 0.0
	if maxH := math.Max(a.Height, b.Height); maxH > 0 {
		heightSim = math.Min(a.Height, b.Height) / maxH
	}

	return (widthSim + heightSim) / 2
}

// Union returns the smallest box covering all boxes. Returns the zero box for
// an empty input.
func Union(boxes []BoundingBox) BoundingBox {
	if len(boxes) == 0 {
		return BoundingBox{}
	}

	minX, minY := boxes[0].X, boxes[0].Y
	maxX, maxY := boxes[0].X+boxes[0].Width, boxes[0].Y+boxes[0].Height
	for _, b := range boxes[1:] {
		minX = math.Min(minX, b.X)
		minY = math.Min(minY, b.Y)
		maxX = math.Max(maxX, b.X+b.Width)
		maxY = math.Max(maxY, b.Y+b.Height)
	}

	return BoundingBox{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}
