package rpcmodel

import (
	"image"
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"go.viam.com/sensorgeo/elevation"
	"go.viam.com/sensorgeo/geodesy"
	"go.viam.com/sensorgeo/geomodel"
	"go.viam.com/sensorgeo/logging"
	"go.viam.com/sensorgeo/utils"
)

const (
	// MaxInverseIterations bounds the Newton search of LineSampleHeightToWorld.
	MaxInverseIterations = 10
	// PixelThreshold is the image residual in pixels at which the Newton search stops.
	PixelThreshold = 0.1
	// MaxHeightIterations bounds the terrain height refinement of LineSampleToWorld.
	MaxHeightIterations = 10
	// HeightThreshold is the height change in meters at which terrain refinement stops.
	HeightThreshold = 0.01
)

// Model evaluates an RPC. It is immutable and safe for concurrent use when its elevation source
// is.
type Model struct {
	param   Param
	size    image.Point
	heights elevation.Source
	logger  logging.Logger
}

var _ geomodel.Model = (*Model)(nil)

// NewModel validates param and returns a model of an image of the given size. A nil heights
// source means the bare ellipsoid.
func NewModel(param Param, size image.Point, heights elevation.Source, logger logging.Logger) (*Model, error) {
	if err := param.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid rpc parameters")
	}
	if size.X <= 0 || size.Y <= 0 {
		return nil, errors.Errorf("image size must be positive, got %v", size)
	}
	if heights == nil {
		heights = elevation.Constant(0)
	}
	return &Model{
		param:   param,
		size:    size,
		heights: heights,
		logger:  logging.OrBlank(logger, "rpc"),
	}, nil
}

// Param returns the model's parameters.
func (m *Model) Param() Param {
	return m.param
}

// ImageSize returns (samples, lines).
func (m *Model) ImageSize() image.Point {
	return m.size
}

// WorldToLineSample evaluates the polynomial ratios at ground. A NaN height is taken as zero.
func (m *Model) WorldToLineSample(ground geodesy.GeoPoint) (r2.Point, error) {
	if math.IsNaN(ground.Lon) || math.IsNaN(ground.Lat) {
		return r2.Point{X: math.NaN(), Y: math.NaN()}, errors.New("ground point has NaN coordinates")
	}
	x, y, z := m.param.normalizeGround(ground)
	t := Terms(x, y, z)
	u := dot(&m.param.SampleNum, &t) / dot(&m.param.SampleDen, &t)
	v := dot(&m.param.LineNum, &t) / dot(&m.param.LineDen, &t)
	return m.param.denormalizeImage(u, v), nil
}

// LineSampleHeightToWorld inverts the ratios at a fixed height by Newton iteration on their
// analytic partials, starting from the ground offset.
func (m *Model) LineSampleHeightToWorld(img r2.Point, height float64) (geodesy.GeoPoint, error) {
	if math.IsNaN(img.X) || math.IsNaN(img.Y) {
		return geodesy.GeoPoint{}, errors.New("image point has NaN coordinates")
	}
	if math.IsNaN(height) {
		height = 0
	}
	p := &m.param
	targetU, targetV := p.normalizeImage(img)
	z := (height - p.HeightOffset) / p.HeightScale

	var x, y float64
	converged := false
	for iter := 0; iter < MaxInverseIterations; iter++ {
		t := Terms(x, y, z)
		dx, dy := termPartials(x, y, z)
		u, dudx, dudy := ratio(&p.SampleNum, &p.SampleDen, &t, &dx, &dy)
		v, dvdx, dvdy := ratio(&p.LineNum, &p.LineDen, &t, &dx, &dy)

		deltaU, deltaV := targetU-u, targetV-v
		if math.Abs(deltaU*p.SampleScale) < PixelThreshold && math.Abs(deltaV*p.LineScale) < PixelThreshold {
			converged = true
			break
		}
		det := dudx*dvdy - dudy*dvdx
		if det == 0 || math.IsNaN(det) {
			return geodesy.GeoPoint{}, errors.Errorf("rpc partials are singular at image point %v", img)
		}
		x += (dvdy*deltaU - dudy*deltaV) / det
		y += (dudx*deltaV - dvdx*deltaU) / det
	}
	if !converged {
		m.logger.Warnw("image to ground did not converge", "image_point", img, "height", height, "iterations", MaxInverseIterations)
	}
	return geodesy.GeoPoint{
		Lon:    x*p.LonScale + p.LonOffset,
		Lat:    y*p.LatScale + p.LatOffset,
		Height: height,
	}, nil
}

// LineSampleToWorld locates img on the terrain, alternating between the fixed height inverse and
// the elevation source until the height settles.
func (m *Model) LineSampleToWorld(img r2.Point) (geodesy.GeoPoint, error) {
	height := m.param.HeightOffset
	var g geodesy.GeoPoint
	var err error
	for iter := 0; iter < MaxHeightIterations; iter++ {
		if g, err = m.LineSampleHeightToWorld(img, height); err != nil {
			return geodesy.GeoPoint{}, err
		}
		next := m.heights.HeightAt(g.Lon, g.Lat)
		if math.IsNaN(next) {
			next = 0
		}
		if utils.Float64AlmostEqual(next, height, HeightThreshold) {
			return g, nil
		}
		height = next
	}
	m.logger.Warnw("terrain height did not settle", "image_point", img, "iterations", MaxHeightIterations)
	return m.LineSampleHeightToWorld(img, height)
}
