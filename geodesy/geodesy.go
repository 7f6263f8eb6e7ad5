// Package geodesy converts between WGS84 earth centered earth fixed coordinates and geodetic
// longitude, latitude and ellipsoidal height.
package geodesy

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	geo "github.com/kellydunn/golang-geo"

	"go.viam.com/sensorgeo/utils"
)

// WGS84 ellipsoid.
const (
	SemiMajorAxis       = 6378137.0
	SemiMinorAxis       = 6356752.3142
	Flattening          = 1 / 298.257223563
	EccentricitySquared = Flattening * (2 - Flattening)
)

const (
	maxGeodeticIterations = 10
	latitudeTolerance     = 1e-12
)

// GeoPoint is a geodetic position: longitude and latitude in degrees, height in meters above the
// ellipsoid.
type GeoPoint struct {
	Lon    float64 `json:"lon"`
	Lat    float64 `json:"lat"`
	Height float64 `json:"height"`
}

// NewGeoPoint is a convenience constructor.
func NewGeoPoint(lon, lat, height float64) GeoPoint {
	return GeoPoint{Lon: lon, Lat: lat, Height: height}
}

func (p GeoPoint) String() string {
	return fmt.Sprintf("(lon %.9f, lat %.9f, h %.3f)", p.Lon, p.Lat, p.Height)
}

// HasNaN reports whether any component is NaN.
func (p GeoPoint) HasNaN() bool {
	return math.IsNaN(p.Lon) || math.IsNaN(p.Lat) || math.IsNaN(p.Height)
}

// Ecef returns the earth centered earth fixed position of p in meters.
func (p GeoPoint) Ecef() r3.Vector {
	return GeodeticToEcef(p)
}

// GreatCircleDistance returns the spherical surface distance to other in meters, ignoring height.
func (p GeoPoint) GreatCircleDistance(other GeoPoint) float64 {
	const metersPerKm = 1000
	return geo.NewPoint(p.Lat, p.Lon).GreatCircleDistance(geo.NewPoint(other.Lat, other.Lon)) * metersPerKm
}

// GeodeticToEcef converts a geodetic point to ECEF meters.
func GeodeticToEcef(p GeoPoint) r3.Vector {
	lon := utils.DegToRad(p.Lon)
	lat := utils.DegToRad(p.Lat)
	sinLat, cosLat := math.Sin(lat), math.Cos(lat)
	sinLon, cosLon := math.Sin(lon), math.Cos(lon)

	n := primeVerticalRadius(sinLat)
	return r3.Vector{
		X: (n + p.Height) * cosLat * cosLon,
		Y: (n + p.Height) * cosLat * sinLon,
		Z: (n*(1-EccentricitySquared) + p.Height) * sinLat,
	}
}

// EcefToGeodetic converts ECEF meters to a geodetic point. Valid at the poles; the longitude is
// 0 on the polar axis.
func EcefToGeodetic(v r3.Vector) GeoPoint {
	lon := math.Atan2(v.Y, v.X)
	p := math.Hypot(v.X, v.Y)
	lat := math.Atan2(v.Z, p*(1-EccentricitySquared))

	var n float64
	for i := 0; i < maxGeodeticIterations; i++ {
		sinLat := math.Sin(lat)
		n = primeVerticalRadius(sinLat)
		next := math.Atan2(v.Z+EccentricitySquared*n*sinLat, p)
		if utils.Float64AlmostEqual(next, lat, latitudeTolerance) {
			lat = next
			break
		}
		lat = next
	}

	sinLat, cosLat := math.Sin(lat), math.Cos(lat)
	n = primeVerticalRadius(sinLat)
	height := p*cosLat + (v.Z+EccentricitySquared*n*sinLat)*sinLat - n

	return GeoPoint{Lon: utils.RadToDeg(lon), Lat: utils.RadToDeg(lat), Height: height}
}

func primeVerticalRadius(sinLat float64) float64 {
	return SemiMajorAxis / math.Sqrt(1-EccentricitySquared*utils.Square(sinLat))
}
