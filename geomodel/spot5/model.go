// Package spot5 implements the pushbroom sensor model of Spot5 class imagers: each line is
// acquired at its own time from an interpolated orbit and attitude, through a detector array
// whose viewing angles are tabulated per sample.
package spot5

import (
	"image"
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/sensorgeo/elevation"
	"go.viam.com/sensorgeo/ephemeris"
	"go.viam.com/sensorgeo/geodesy"
	"go.viam.com/sensorgeo/geomodel"
	"go.viam.com/sensorgeo/logging"
	"go.viam.com/sensorgeo/spatialmath"
)

// ErrLookAngleOutOfRange is returned when a detector position falls outside the look angle tables.
var ErrLookAngleOutOfRange = errors.New("look angle index out of range")

const (
	// MaxInverseIterations bounds WorldToLineSample.
	MaxInverseIterations = 20
	// PixelThreshold is the Newton step in pixels below which WorldToLineSample stops.
	PixelThreshold = 0.1
	// DefaultImageEpsilon is the margin in pixels around the image inside which the exact model
	// is used.
	DefaultImageEpsilon = 1 - 1.1920929e-07
)

// Option configures a Model.
type Option func(*Model)

// WithImageEpsilon overrides DefaultImageEpsilon.
func WithImageEpsilon(eps float64) Option {
	return func(m *Model) {
		m.imageEpsilon = eps
	}
}

// Model is a Spot5 pushbroom sensor model. It is immutable after New and safe for concurrent use
// when its elevation source is.
type Model struct {
	params  Params
	interp  *ephemeris.Interpolator
	heights elevation.Source
	logger  logging.Logger

	imageEpsilon float64
	seed         *geomodel.Bilinear
	footprint    *geomodel.Footprint
}

var _ geomodel.Model = (*Model)(nil)

// New validates params and builds the corner based approximation used outside the image and to
// seed the inverse. A nil heights source means the bare ellipsoid; a nil logger discards logs.
func New(params Params, heights elevation.Source, logger logging.Logger, opts ...Option) (*Model, error) {
	if err := params.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid spot5 parameters")
	}
	interp, err := ephemeris.NewInterpolator(params.Ephemeris, params.Attitude, params.LineSamplingPeriod)
	if err != nil {
		return nil, err
	}
	if heights == nil {
		heights = elevation.Constant(0)
	}

	m := &Model{
		params:       params,
		interp:       interp,
		heights:      heights,
		logger:       logging.OrBlank(logger, "spot5"),
		imageEpsilon: DefaultImageEpsilon,
	}
	for _, opt := range opts {
		opt(m)
	}

	corners := geomodel.Corners(params.ImageSize)
	ground := make([]geodesy.GeoPoint, len(corners))
	for i, c := range corners {
		if ground[i], err = m.exactToWorld(c.Add(params.SubImageOffset)); err != nil {
			return nil, errors.Wrapf(err, "locating image corner %v", c)
		}
	}
	if m.seed, err = geomodel.NewBilinear(corners, ground); err != nil {
		return nil, errors.Wrap(err, "fitting corner approximation")
	}
	m.footprint = geomodel.NewFootprint(ground)
	m.logger.Debugw("spot5 model ready",
		"size", params.ImageSize,
		"lagrange", interp.UsesLagrange(),
		"corners", ground)
	return m, nil
}

// ImageSize returns (samples, lines).
func (m *Model) ImageSize() image.Point {
	return m.params.ImageSize
}

// Footprint returns the ground polygon of the image corners.
func (m *Model) Footprint() *geomodel.Footprint {
	return m.footprint
}

// Approximation returns the corner based bilinear approximation.
func (m *Model) Approximation() *geomodel.Bilinear {
	return m.seed
}

// PositionEcf returns the interpolated satellite position at t.
func (m *Model) PositionEcf(t float64) (r3.Vector, error) {
	return m.interp.PositionAt(t)
}

// VelocityEcf returns the interpolated satellite velocity at t.
func (m *Model) VelocityEcf(t float64) (r3.Vector, error) {
	return m.interp.VelocityAt(t)
}

// Attitude returns (pitch, roll, yaw) at t without adjustments.
func (m *Model) Attitude(t float64) r3.Vector {
	return m.interp.AttitudeAt(t)
}

// PixelLookAngleXY returns the viewing angles of the detector a full image sample position falls
// on. Positions are truncated toward zero, so anything in (-1, 1) reads detector 0.
func (m *Model) PixelLookAngleXY(sample float64) (float64, float64, error) {
	n := len(m.params.LookAngles.PsiX)
	if math.IsNaN(sample) || sample <= -1 || sample >= float64(n) {
		return 0, 0, errors.Wrapf(ErrLookAngleOutOfRange, "sample %v not in (-1, %d)", sample, n)
	}
	detector := int(sample)
	return m.params.LookAngles.PsiX[detector], m.params.LookAngles.PsiY[detector], nil
}

// ComputeSatToOrbRotation returns the body to orbital frame rotation at t, adjustments included.
func (m *Model) ComputeSatToOrbRotation(t float64) *spatialmath.RotationMatrix {
	att := spatialmath.AttitudeFromVector(m.interp.AttitudeAt(t))
	adj := m.params.Adjustments
	dt := m.params.RefLineTime - t
	att.Pitch += adj.PitchOffset + dt*adj.PitchRate
	att.Roll += adj.RollOffset + dt*adj.RollRate
	att.Yaw += adj.YawOffset + dt*adj.YawRate
	return att.SatToOrb()
}

// ImagingRay returns the line of sight of an image point in ECEF. The origin is the satellite
// position at the line's imaging time.
func (m *Model) ImagingRay(img r2.Point) (geomodel.Ray, error) {
	return m.imagingRay(img.Add(m.params.SubImageOffset))
}

// imagingRay works in full image coordinates.
func (m *Model) imagingRay(full r2.Point) (geomodel.Ray, error) {
	tLine := m.params.LineTime(full.Y)

	pos, err := m.interp.PositionAt(tLine)
	if err != nil {
		return geomodel.Ray{}, err
	}
	vel, err := m.interp.VelocityAt(tLine)
	if err != nil {
		return geomodel.Ray{}, err
	}

	psiX, psiY, err := m.PixelLookAngleXY(full.X)
	if err != nil {
		return geomodel.Ray{}, err
	}
	uSat := r3.Vector{
		X: -math.Tan(psiY),
		Y: math.Tan(psiX),
		Z: -(1 + m.params.Adjustments.FocalLengthOffset),
	}
	uOrb := m.ComputeSatToOrbRotation(tLine).Mul(uSat).Normalize()

	zOrb := pos.Normalize()
	xOrb := vel.Cross(zOrb).Normalize()
	yOrb := zOrb.Cross(xOrb)
	orbToEcf := spatialmath.NewRotationMatrixFromColumns(xOrb, yOrb, zOrb)

	return geomodel.Ray{Origin: pos, Direction: orbToEcf.Mul(uOrb)}, nil
}

// LineSampleHeightToWorld locates img at a fixed height above the ellipsoid.
func (m *Model) LineSampleHeightToWorld(img r2.Point, height float64) (geodesy.GeoPoint, error) {
	if !geomodel.InImage(img, m.params.ImageSize, m.imageEpsilon) {
		return m.seed.ImageToGround(img, height), nil
	}
	ray, err := m.ImagingRay(img)
	if err != nil {
		return geodesy.GeoPoint{}, err
	}
	pt, err := geomodel.NearestIntersection(ray, height)
	if err != nil {
		return geodesy.GeoPoint{}, err
	}
	return geodesy.EcefToGeodetic(pt), nil
}

// LineSampleToWorld locates img on the terrain.
func (m *Model) LineSampleToWorld(img r2.Point) (geodesy.GeoPoint, error) {
	if !geomodel.InImage(img, m.params.ImageSize, m.imageEpsilon) {
		g := m.seed.ImageToGround(img, 0)
		g.Height = m.heights.HeightAt(g.Lon, g.Lat)
		return g, nil
	}
	return m.exactToWorld(img.Add(m.params.SubImageOffset))
}

func (m *Model) exactToWorld(full r2.Point) (geodesy.GeoPoint, error) {
	ray, err := m.imagingRay(full)
	if err != nil {
		return geodesy.GeoPoint{}, err
	}
	pt, converged, err := geomodel.IntersectTerrain(ray, m.heights)
	if err != nil {
		return geodesy.GeoPoint{}, err
	}
	if !converged {
		m.logger.Warnw("terrain intersection did not converge", "image_point", full, "iterations", geomodel.MaxTerrainIterations)
	}
	return geodesy.EcefToGeodetic(pt), nil
}

// WorldToLineSample projects a ground point into the image. Points outside the footprint use the
// corner approximation; inside, a Newton search refines it to a tenth of a pixel.
func (m *Model) WorldToLineSample(ground geodesy.GeoPoint) (r2.Point, error) {
	p, _, err := m.worldToLineSample(ground)
	return p, err
}

func (m *Model) worldToLineSample(ground geodesy.GeoPoint) (r2.Point, bool, error) {
	if math.IsNaN(ground.Lon) || math.IsNaN(ground.Lat) {
		return r2.Point{X: math.NaN(), Y: math.NaN()}, false, errors.New("ground point has NaN coordinates")
	}
	if !m.footprint.Contains(ground) {
		return m.seed.GroundToImage(ground), true, nil
	}
	height := ground.Height
	if math.IsNaN(height) {
		height = 0
	}

	// Iterate in full image coordinates; the forward model shifts sub image points itself.
	offset := m.params.SubImageOffset
	ip := m.seed.GroundToImage(ground).Add(offset)
	done := false
	for iter := 0; iter < MaxInverseIterations && !done; iter++ {
		gp, err := m.LineSampleHeightToWorld(ip.Sub(offset), height)
		if err != nil {
			return r2.Point{}, false, err
		}
		gpU, err := m.LineSampleHeightToWorld(ip.Add(r2.Point{X: 1}).Sub(offset), height)
		if err != nil {
			return r2.Point{}, false, err
		}
		gpV, err := m.LineSampleHeightToWorld(ip.Add(r2.Point{Y: 1}).Sub(offset), height)
		if err != nil {
			return r2.Point{}, false, err
		}

		jac := [2][2]float64{
			{gpU.Lon - gp.Lon, gpV.Lon - gp.Lon},
			{gpU.Lat - gp.Lat, gpV.Lat - gp.Lat},
		}
		du, dv, ok := newtonStep(jac, [2]float64{ground.Lon - gp.Lon, ground.Lat - gp.Lat})
		if !ok {
			// A flat Jacobian gives the same zero step on every further iteration.
			break
		}
		ip = ip.Add(r2.Point{X: du, Y: dv})
		done = math.Abs(du) < PixelThreshold && math.Abs(dv) < PixelThreshold
	}
	if !done {
		m.logger.Warnw("ground to image did not converge", "ground", ground, "iterations", MaxInverseIterations)
	}
	return ip.Sub(offset), done, nil
}

// newtonStep solves jac·(du, dv) = residual, where the columns of jac are the ground change per
// pixel along samples and lines and rows are (lon, lat). A determinant below machine epsilon
// returns a zero step and false.
func newtonStep(jac [2][2]float64, residual [2]float64) (float64, float64, bool) {
	det := jac[0][0]*jac[1][1] - jac[0][1]*jac[1][0]
	if math.IsNaN(det) || math.Abs(det) < machineEpsilon {
		return 0, 0, false
	}
	du := (jac[1][1]*residual[0] - jac[0][1]*residual[1]) / det
	dv := (jac[0][0]*residual[1] - jac[1][0]*residual[0]) / det
	return du, dv, true
}

var machineEpsilon = math.Nextafter(1, 2) - 1
