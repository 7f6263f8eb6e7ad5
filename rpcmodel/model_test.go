package rpcmodel

import (
	"context"
	"image"
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"go.viam.com/test"

	"go.viam.com/sensorgeo/elevation"
	"go.viam.com/sensorgeo/geodesy"
	"go.viam.com/sensorgeo/logging"
)

func fittedAffine(t *testing.T) Param {
	t.Helper()
	gcps, err := GenerateLayeredGrid(context.Background(), affineModel{}, 8, 8, []float64{0, 200, 400, 600})
	test.That(t, err, test.ShouldBeNil)
	param, _, err := NewSolver(nil).Solve(gcps)
	test.That(t, err, test.ShouldBeNil)
	return param
}

func TestModelPolynomialRatio(t *testing.T) {
	// line = 10 + 2*lat, samp = (20 + 3*lon)/(1 + 0.1*lon), in thousands of pixels
	p := Param{LineScale: 1000, SampleScale: 1000, LatScale: 1, LonScale: 1, HeightScale: 1}
	p.LineNum[0], p.LineNum[2] = 10, 2
	p.LineDen[0] = 1
	p.SampleNum[0], p.SampleNum[1] = 20, 3
	p.SampleDen[0], p.SampleDen[1] = 1, 0.1
	m, err := NewModel(p, image.Point{X: 100, Y: 100}, nil, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	img, err := m.WorldToLineSample(geodesy.GeoPoint{Lon: 1, Lat: 2, Height: 0})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, img.Y, test.ShouldAlmostEqual, 14000.5, 1e-9)
	test.That(t, img.X, test.ShouldAlmostEqual, 23000/1.1+0.5, 1e-9)

	g, err := m.LineSampleHeightToWorld(img, 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, g.Lon, test.ShouldAlmostEqual, 1, 1e-3)
	test.That(t, g.Lat, test.ShouldAlmostEqual, 2, 1e-3)

	_, err = m.WorldToLineSample(geodesy.GeoPoint{Lon: math.NaN()})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestModelTerrain(t *testing.T) {
	param := fittedAffine(t)
	heights := elevation.SourceFunc(func(lon, lat float64) float64 {
		return 100 + 200*(lon-10)
	})
	m, err := NewModel(param, affineSize, heights, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	img := r2.Point{X: 400, Y: 600}
	g, err := m.LineSampleToWorld(img)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, g.Height, test.ShouldAlmostEqual, heights.HeightAt(g.Lon, g.Lat), 0.05)

	truth, err := affineModel{}.LineSampleHeightToWorld(img, g.Height)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, g.Lon, test.ShouldAlmostEqual, truth.Lon, 1e-4)
	test.That(t, g.Lat, test.ShouldAlmostEqual, truth.Lat, 1e-4)

	back, err := m.WorldToLineSample(g)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, back.Sub(img).Norm(), test.ShouldBeLessThan, 0.1)
}

func TestNewModelErrors(t *testing.T) {
	param := fittedAffine(t)
	_, err := NewModel(param, image.Point{}, nil, nil)
	test.That(t, err, test.ShouldNotBeNil)

	param.LonScale = math.Inf(1)
	_, err = NewModel(param, affineSize, nil, nil)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "LONG_SCALE")
}
