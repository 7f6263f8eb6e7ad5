// Package geomodel defines the image to ground sensor model contract and the geometry shared by
// its implementations: imaging rays, ellipsoid and terrain intersection, and the corner based
// bilinear approximation.
package geomodel

import (
	"image"

	"github.com/golang/geo/r2"

	"go.viam.com/sensorgeo/geodesy"
)

// Model converts between image coordinates (X = sample, Y = line, 0 based) and geodetic ground
// coordinates. Implementations are immutable and safe for concurrent use.
type Model interface {
	// WorldToLineSample projects a ground point into the image.
	WorldToLineSample(ground geodesy.GeoPoint) (r2.Point, error)
	// LineSampleToWorld locates an image point on the terrain.
	LineSampleToWorld(img r2.Point) (geodesy.GeoPoint, error)
	// LineSampleHeightToWorld locates an image point at a fixed height above the ellipsoid.
	LineSampleHeightToWorld(img r2.Point, height float64) (geodesy.GeoPoint, error)
	// ImageSize returns (samples, lines).
	ImageSize() image.Point
}

// Corners returns the four image corners in the order (0,0), (W-1,0), (W-1,H-1), (0,H-1).
func Corners(size image.Point) []r2.Point {
	w, h := float64(size.X-1), float64(size.Y-1)
	return []r2.Point{{X: 0, Y: 0}, {X: w, Y: 0}, {X: w, Y: h}, {X: 0, Y: h}}
}

// InImage reports whether p lies in [-margin, W-1+margin] x [-margin, H-1+margin].
func InImage(p r2.Point, size image.Point, margin float64) bool {
	return p.X >= -margin && p.Y >= -margin &&
		p.X <= float64(size.X-1)+margin && p.Y <= float64(size.Y-1)+margin
}
