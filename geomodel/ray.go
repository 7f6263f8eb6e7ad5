package geomodel

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/sensorgeo/elevation"
	"go.viam.com/sensorgeo/geodesy"
)

// ErrNoIntersection is returned when a ray misses the ellipsoid.
var ErrNoIntersection = errors.New("ray does not intersect ellipsoid")

const (
	// MaxTerrainIterations bounds IntersectTerrain.
	MaxTerrainIterations = 50
	// TerrainConvergence is the displacement in meters below which terrain refinement stops.
	TerrainConvergence = 0.001
)

// Ray is a half line in ECEF meters. Direction need not be unit length.
type Ray struct {
	Time      float64
	Origin    r3.Vector
	Direction r3.Vector
}

// At returns Origin + t*Direction.
func (r Ray) At(t float64) r3.Vector {
	return r.Origin.Add(r.Direction.Mul(t))
}

// NearestIntersection intersects ray with the WGS84 ellipsoid inflated by offset meters on every
// axis. Of two roots the smallest positive one wins. When neither is positive the larger root is
// used, which puts the point behind the origin.
func NearestIntersection(ray Ray, offset float64) (r3.Vector, error) {
	a := geodesy.SemiMajorAxis + offset
	b := geodesy.SemiMinorAxis + offset
	a2, b2 := a*a, b*b

	o, d := ray.Origin, ray.Direction
	qa := (d.X*d.X+d.Y*d.Y)/a2 + d.Z*d.Z/b2
	qb := 2 * ((o.X*d.X+o.Y*d.Y)/a2 + o.Z*d.Z/b2)
	qc := (o.X*o.X+o.Y*o.Y)/a2 + o.Z*o.Z/b2 - 1

	disc := qb*qb - 4*qa*qc
	if disc < 0 || qa == 0 {
		return r3.Vector{}, ErrNoIntersection
	}
	root := math.Sqrt(disc)
	t1 := (-qb + root) / (2 * qa)
	t2 := (-qb - root) / (2 * qa)

	var t float64
	switch {
	case t1 > 0 && t2 > 0:
		t = math.Min(t1, t2)
	case t1 > 0:
		t = t1
	case t2 > 0:
		t = t2
	default:
		t = math.Max(t1, t2)
	}
	return ray.At(t), nil
}

// IntersectTerrain walks ray onto the terrain described by heights. It starts on the bare
// ellipsoid and repeatedly re-intersects at the height found under the previous point. converged
// is false when the displacement never dropped below TerrainConvergence; the last point is still
// returned.
func IntersectTerrain(ray Ray, heights elevation.Source) (r3.Vector, bool, error) {
	pt, err := NearestIntersection(ray, 0)
	if err != nil {
		return r3.Vector{}, false, err
	}
	for i := 0; i < MaxTerrainIterations; i++ {
		ground := geodesy.EcefToGeodetic(pt)
		h := heights.HeightAt(ground.Lon, ground.Lat)
		if math.IsNaN(h) {
			h = 0
		}
		next, err := NearestIntersection(ray, h)
		if err != nil {
			return pt, false, err
		}
		moved := next.Sub(pt).Norm()
		pt = next
		if moved < TerrainConvergence {
			return pt, true, nil
		}
	}
	return pt, false, nil
}
