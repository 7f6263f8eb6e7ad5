package geomodel

import (
	"math"

	geo "github.com/kellydunn/golang-geo"

	"go.viam.com/sensorgeo/geodesy"
)

// edgeTolerance in degrees treats points this close to an edge as inside.
const edgeTolerance = 1e-9

// Footprint is the ground polygon traced by the image corners.
type Footprint struct {
	polygon *geo.Polygon
	corners []geodesy.GeoPoint
}

// NewFootprint builds the polygon through corners in order.
func NewFootprint(corners []geodesy.GeoPoint) *Footprint {
	points := make([]*geo.Point, 0, len(corners))
	for _, c := range corners {
		points = append(points, geo.NewPoint(c.Lat, c.Lon))
	}
	return &Footprint{
		polygon: geo.NewPolygon(points),
		corners: append([]geodesy.GeoPoint(nil), corners...),
	}
}

// Corners returns a copy of the corner points.
func (f *Footprint) Corners() []geodesy.GeoPoint {
	return append([]geodesy.GeoPoint(nil), f.corners...)
}

// Contains reports whether g is inside the polygon or on its boundary.
func (f *Footprint) Contains(g geodesy.GeoPoint) bool {
	if f.polygon.Contains(geo.NewPoint(g.Lat, g.Lon)) {
		return true
	}
	n := len(f.corners)
	for i := 0; i < n; i++ {
		if onSegment(g, f.corners[i], f.corners[(i+1)%n]) {
			return true
		}
	}
	return false
}

func onSegment(p, a, b geodesy.GeoPoint) bool {
	abx, aby := b.Lon-a.Lon, b.Lat-a.Lat
	apx, apy := p.Lon-a.Lon, p.Lat-a.Lat
	length2 := abx*abx + aby*aby
	if length2 == 0 {
		return math.Hypot(apx, apy) <= edgeTolerance
	}
	t := (apx*abx + apy*aby) / length2
	if t < 0 || t > 1 {
		return false
	}
	return math.Hypot(apx-t*abx, apy-t*aby) <= edgeTolerance
}
