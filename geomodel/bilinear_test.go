package geomodel

import (
	"image"
	"testing"

	"github.com/golang/geo/r2"
	"go.viam.com/test"

	"go.viam.com/sensorgeo/geodesy"
)

func affineGround(p r2.Point) geodesy.GeoPoint {
	return geodesy.GeoPoint{Lon: 2 + 1e-4*p.X + 2e-5*p.Y, Lat: 45 - 1e-4*p.Y + 1e-5*p.X}
}

func TestBilinear(t *testing.T) {
	size := image.Point{1000, 800}
	corners := Corners(size)
	test.That(t, corners, test.ShouldResemble, []r2.Point{{0, 0}, {999, 0}, {999, 799}, {0, 799}})

	ground := make([]geodesy.GeoPoint, len(corners))
	for i, c := range corners {
		ground[i] = affineGround(c)
	}
	bl, err := NewBilinear(corners, ground)
	test.That(t, err, test.ShouldBeNil)

	for _, c := range corners {
		g := bl.ImageToGround(c, 12)
		test.That(t, g.Lon, test.ShouldAlmostEqual, affineGround(c).Lon, 1e-9)
		test.That(t, g.Lat, test.ShouldAlmostEqual, affineGround(c).Lat, 1e-9)
		test.That(t, g.Height, test.ShouldEqual, 12)

		back := bl.GroundToImage(g)
		test.That(t, back.X, test.ShouldAlmostEqual, c.X, 1e-4)
		test.That(t, back.Y, test.ShouldAlmostEqual, c.Y, 1e-4)
	}

	// An affine map is reproduced everywhere, including off the image.
	for _, p := range []r2.Point{{500, 400}, {-100, 20}, {1200, 900}} {
		g := bl.ImageToGround(p, 0)
		test.That(t, g.Lon, test.ShouldAlmostEqual, affineGround(p).Lon, 1e-9)
		back := bl.GroundToImage(g)
		test.That(t, back.X, test.ShouldAlmostEqual, p.X, 0.01)
		test.That(t, back.Y, test.ShouldAlmostEqual, p.Y, 0.01)
	}
}

func TestBilinearErrors(t *testing.T) {
	_, err := NewBilinear([]r2.Point{{0, 0}}, nil)
	test.That(t, err, test.ShouldNotBeNil)

	pts := []r2.Point{{0, 0}, {1, 0}, {2, 0}}
	_, err = NewBilinear(pts, make([]geodesy.GeoPoint, 3))
	test.That(t, err, test.ShouldNotBeNil)

	// All four ground points coincide.
	square := []r2.Point{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	_, err = NewBilinear(square, make([]geodesy.GeoPoint, 4))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestInImage(t *testing.T) {
	size := image.Point{10, 20}
	test.That(t, InImage(r2.Point{0, 0}, size, 0), test.ShouldBeTrue)
	test.That(t, InImage(r2.Point{9, 19}, size, 0), test.ShouldBeTrue)
	test.That(t, InImage(r2.Point{9.5, 19}, size, 0), test.ShouldBeFalse)
	test.That(t, InImage(r2.Point{9.5, 19}, size, 1), test.ShouldBeTrue)
	test.That(t, InImage(r2.Point{-0.5, 3}, size, 1), test.ShouldBeTrue)
	test.That(t, InImage(r2.Point{-1.5, 3}, size, 1), test.ShouldBeFalse)
}
