package rpcmodel

import (
	"context"
	"image"
	"math"
	"math/rand"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/sensorgeo/geodesy"
	"go.viam.com/sensorgeo/geomodel"
	"go.viam.com/sensorgeo/geomodel/spot5"
	"go.viam.com/sensorgeo/logging"
)

// affineModel maps image to ground linearly, with a height dependent parallax of one pixel per
// 500 m.
type affineModel struct{}

var affineSize = image.Point{X: 1000, Y: 1000}

func (affineModel) ImageSize() image.Point { return affineSize }

func (affineModel) LineSampleHeightToWorld(img r2.Point, h float64) (geodesy.GeoPoint, error) {
	return geodesy.GeoPoint{
		Lon:    10 + 1e-3*img.X + 1e-4*img.Y + 2e-6*h,
		Lat:    45 + 1e-4*img.X - 1e-3*img.Y + 1e-6*h,
		Height: h,
	}, nil
}

func (m affineModel) LineSampleToWorld(img r2.Point) (geodesy.GeoPoint, error) {
	return m.LineSampleHeightToWorld(img, 0)
}

func (affineModel) WorldToLineSample(g geodesy.GeoPoint) (r2.Point, error) {
	dLon := g.Lon - 10 - 2e-6*g.Height
	dLat := g.Lat - 45 - 1e-6*g.Height
	det := 1e-3*-1e-3 - 1e-4*1e-4
	return r2.Point{
		X: (-1e-3*dLon - 1e-4*dLat) / det,
		Y: (-1e-4*dLon + 1e-3*dLat) / det,
	}, nil
}

var _ geomodel.Model = affineModel{}

func randomChecks(t *testing.T, model geomodel.Model, n int, maxHeight float64) []GCP {
	t.Helper()
	rnd := rand.New(rand.NewSource(1))
	size := model.ImageSize()
	checks := make([]GCP, n)
	for i := range checks {
		img := r2.Point{X: rnd.Float64() * float64(size.X-1), Y: rnd.Float64() * float64(size.Y-1)}
		g, err := model.LineSampleHeightToWorld(img, rnd.Float64()*maxHeight)
		test.That(t, err, test.ShouldBeNil)
		checks[i] = GCP{Image: img, Ground: g}
	}
	return checks
}

func TestSolveAffine(t *testing.T) {
	// Four layers pin down every power of height in a cubic.
	gcps, err := GenerateLayeredGrid(context.Background(), affineModel{}, 10, 10, []float64{0, 200, 400, 600})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, gcps, test.ShouldHaveLength, 400)

	param, rms, err := NewSolver(logging.NewTestLogger(t)).Solve(gcps)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, rms, test.ShouldEqual, math.MaxFloat64)
	test.That(t, param.LineDen[0], test.ShouldEqual, 1)
	test.That(t, param.SampleDen[0], test.ShouldEqual, 1)
	test.That(t, param.HeightOffset, test.ShouldAlmostEqual, 300, 1e-9)
	test.That(t, param.HeightScale, test.ShouldAlmostEqual, 300, 1e-9)
	test.That(t, param.SampleOffset, test.ShouldAlmostEqual, 499, 1e-9)
	test.That(t, param.SampleScale, test.ShouldAlmostEqual, 499.5, 1e-9)
	test.That(t, param.UsesHeight(), test.ShouldBeTrue)

	model, err := NewModel(param, affineSize, nil, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	checks := randomChecks(t, affineModel{}, 50, 600)
	res, err := Validate(model, checks)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Count, test.ShouldEqual, 50)
	test.That(t, res.Max, test.ShouldBeLessThan, 0.05)

	for _, c := range checks {
		g, err := model.LineSampleHeightToWorld(c.Image, c.Ground.Height)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, g.Lon, test.ShouldAlmostEqual, c.Ground.Lon, 1e-4)
		test.That(t, g.Lat, test.ShouldAlmostEqual, c.Ground.Lat, 1e-4)
		test.That(t, g.Height, test.ShouldEqual, c.Ground.Height)
	}
}

func TestSolveInsufficientPoints(t *testing.T) {
	gcps, err := GenerateGrid(context.Background(), affineModel{}, 5, 2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, gcps, test.ShouldHaveLength, 10)

	_, rms, err := NewSolver(nil).Solve(gcps)
	test.That(t, errors.Is(err, ErrInsufficientPoints), test.ShouldBeTrue)
	test.That(t, rms, test.ShouldEqual, math.MaxFloat64)
}

func TestSolveWithoutElevation(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	gcps, err := GenerateGrid(context.Background(), affineModel{}, 5, 5)
	test.That(t, err, test.ShouldBeNil)

	param, _, err := NewSolver(logger).Solve(gcps)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, logs.FilterLevelExact(logging.WARN.AsZap()).Len(), test.ShouldEqual, 1)

	test.That(t, param.HeightScale, test.ShouldEqual, 1)
	test.That(t, param.HeightOffset, test.ShouldEqual, 0)
	test.That(t, param.UsesHeight(), test.ShouldBeFalse)
	for _, i := range heightTerms {
		test.That(t, param.LineNum[i], test.ShouldEqual, 0)
		test.That(t, param.SampleDen[i], test.ShouldEqual, 0)
	}

	model, err := NewModel(param, affineSize, nil, nil)
	test.That(t, err, test.ShouldBeNil)
	res, err := Validate(model, randomChecks(t, affineModel{}, 20, 0))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Max, test.ShouldBeLessThan, 0.05)
}

func TestSolveRejectsNaN(t *testing.T) {
	gcps, err := GenerateGrid(context.Background(), affineModel{}, 5, 5)
	test.That(t, err, test.ShouldBeNil)
	gcps[3].Ground.Lat = math.NaN()
	_, _, err = NewSolver(nil).Solve(gcps)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "point 3")
}

func TestSolveIsRepeatable(t *testing.T) {
	gcps, err := GenerateLayeredGrid(context.Background(), affineModel{}, 7, 7, []float64{0, 100, 200, 300})
	test.That(t, err, test.ShouldBeNil)
	s := NewSolver(nil)
	first, _, err := s.Solve(gcps)
	test.That(t, err, test.ShouldBeNil)
	second, _, err := s.Solve(gcps)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, second, test.ShouldResemble, first)
}

func TestSolveSpot5(t *testing.T) {
	sensor, err := spot5.New(spot5.SyntheticParams(2000, 2000), nil, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	gcps, err := GenerateLayeredGrid(context.Background(), sensor, 10, 10, []float64{0, 300, 600, 900})
	test.That(t, err, test.ShouldBeNil)
	fit, checks := SplitCheckPoints(gcps, 5)
	test.That(t, len(fit), test.ShouldBeGreaterThanOrEqualTo, MinElevationPoints)

	param, _, err := NewSolver(logging.NewTestLogger(t)).Solve(fit)
	test.That(t, err, test.ShouldBeNil)
	model, err := NewModel(param, sensor.ImageSize(), nil, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	res, err := Validate(model, checks)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.RMS, test.ShouldBeLessThan, 1)
	test.That(t, res.Max, test.ShouldBeLessThan, 2)
}

func TestPseudoInverseSolveDropsNullSpace(t *testing.T) {
	// rank 1: only x+y is determined
	a := mat.NewDense(2, 2, []float64{1, 1, 1, 1})
	x, err := pseudoInverseSolve(a, mat.NewVecDense(2, []float64{2, 2}))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, x.AtVec(0), test.ShouldAlmostEqual, 1, 1e-12)
	test.That(t, x.AtVec(1), test.ShouldAlmostEqual, 1, 1e-12)
}
