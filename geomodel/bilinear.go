package geomodel

import (
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/sensorgeo/geodesy"
)

// Bilinear approximates a sensor model by g = a0 + a1*x + a2*y + a3*x*y in both directions, fit by
// least squares to image/ground tie points. With the four image corners the fit is exact at the
// corners.
type Bilinear struct {
	lon, lat [4]float64
	x, y     [4]float64
}

// NewBilinear fits the approximation. At least four non degenerate tie points are required.
func NewBilinear(img []r2.Point, ground []geodesy.GeoPoint) (*Bilinear, error) {
	if len(img) != len(ground) {
		return nil, errors.Errorf("have %d image points and %d ground points", len(img), len(ground))
	}
	if len(img) < 4 {
		return nil, errors.Errorf("bilinear fit needs at least 4 tie points, have %d", len(img))
	}

	imgX := make([]float64, len(img))
	imgY := make([]float64, len(img))
	lon := make([]float64, len(img))
	lat := make([]float64, len(img))
	for i := range img {
		imgX[i], imgY[i] = img[i].X, img[i].Y
		lon[i], lat[i] = ground[i].Lon, ground[i].Lat
	}

	var bl Bilinear
	var err error
	if bl.lon, err = fitBilinear(imgX, imgY, lon); err != nil {
		return nil, errors.Wrap(err, "image to longitude")
	}
	if bl.lat, err = fitBilinear(imgX, imgY, lat); err != nil {
		return nil, errors.Wrap(err, "image to latitude")
	}
	if bl.x, err = fitBilinear(lon, lat, imgX); err != nil {
		return nil, errors.Wrap(err, "ground to sample")
	}
	if bl.y, err = fitBilinear(lon, lat, imgY); err != nil {
		return nil, errors.Wrap(err, "ground to line")
	}
	return &bl, nil
}

// ImageToGround evaluates the forward approximation and tags the result with height.
func (bl *Bilinear) ImageToGround(p r2.Point, height float64) geodesy.GeoPoint {
	return geodesy.GeoPoint{
		Lon:    evalBilinear(bl.lon, p.X, p.Y),
		Lat:    evalBilinear(bl.lat, p.X, p.Y),
		Height: height,
	}
}

// GroundToImage evaluates the inverse approximation. Height is ignored.
func (bl *Bilinear) GroundToImage(g geodesy.GeoPoint) r2.Point {
	return r2.Point{
		X: evalBilinear(bl.x, g.Lon, g.Lat),
		Y: evalBilinear(bl.y, g.Lon, g.Lat),
	}
}

func evalBilinear(c [4]float64, u, v float64) float64 {
	return c[0] + c[1]*u + c[2]*v + c[3]*u*v
}

func fitBilinear(u, v, target []float64) ([4]float64, error) {
	n := len(u)
	design := mat.NewDense(n, 4, nil)
	for i := 0; i < n; i++ {
		design.SetRow(i, []float64{1, u[i], v[i], u[i] * v[i]})
	}
	rhs := mat.NewVecDense(n, append([]float64(nil), target...))

	var coeffs mat.VecDense
	if err := coeffs.SolveVec(design, rhs); err != nil {
		return [4]float64{}, errors.Wrap(err, "degenerate tie points")
	}
	return [4]float64{coeffs.AtVec(0), coeffs.AtVec(1), coeffs.AtVec(2), coeffs.AtVec(3)}, nil
}
