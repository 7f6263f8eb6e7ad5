// Package rpcmodel fits and evaluates rational polynomial camera (RPC) models: ratios of cubic
// polynomials in normalized longitude, latitude and height that give normalized line and sample.
package rpcmodel

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"go.viam.com/sensorgeo/geodesy"
)

// NumCoeffs is the number of terms of each cubic polynomial.
const NumCoeffs = 20

// heightTerms are the indices of the terms that involve height.
var heightTerms = []int{3, 5, 6, 9, 10, 13, 16, 17, 18, 19}

// Param holds an RPC model. Offsets and scales normalize image and ground coordinates to roughly
// [-1, 1]; the four coefficient vectors follow the term order of Terms.
type Param struct {
	SampleOffset float64 `json:"samp_off"`
	LineOffset   float64 `json:"line_off"`
	LatOffset    float64 `json:"lat_off"`
	LonOffset    float64 `json:"long_off"`
	HeightOffset float64 `json:"height_off"`

	SampleScale float64 `json:"samp_scale"`
	LineScale   float64 `json:"line_scale"`
	LatScale    float64 `json:"lat_scale"`
	LonScale    float64 `json:"long_scale"`
	HeightScale float64 `json:"height_scale"`

	LineNum   [NumCoeffs]float64 `json:"line_num_coeff"`
	LineDen   [NumCoeffs]float64 `json:"line_den_coeff"`
	SampleNum [NumCoeffs]float64 `json:"samp_num_coeff"`
	SampleDen [NumCoeffs]float64 `json:"samp_den_coeff"`
}

// Fields returns the ten scalars in the order
// LINE_OFF, SAMP_OFF, LAT_OFF, LONG_OFF, HEIGHT_OFF, LINE_SCALE, SAMP_SCALE, LAT_SCALE, LONG_SCALE, HEIGHT_SCALE.
func (p *Param) Fields() [10]float64 {
	return [10]float64{
		p.LineOffset, p.SampleOffset, p.LatOffset, p.LonOffset, p.HeightOffset,
		p.LineScale, p.SampleScale, p.LatScale, p.LonScale, p.HeightScale,
	}
}

// Validate checks that scales are usable and that the constant denominator terms are set.
func (p *Param) Validate() error {
	fields := p.Fields()
	for i := 5; i < len(fields); i++ {
		if s := fields[i]; s == 0 || math.IsNaN(s) || math.IsInf(s, 0) {
			return errors.Errorf("%s must be finite and non zero, got %v", scalarKeys[i], s)
		}
	}
	if p.LineDen[0] == 0 || p.SampleDen[0] == 0 {
		return errors.New("constant denominator coefficients must be non zero")
	}
	return nil
}

// UsesHeight reports whether any height term is non zero.
func (p *Param) UsesHeight() bool {
	for _, i := range heightTerms {
		if p.LineNum[i] != 0 || p.LineDen[i] != 0 || p.SampleNum[i] != 0 || p.SampleDen[i] != 0 {
			return true
		}
	}
	return false
}

// String returns a short summary of the normalization.
func (p *Param) String() string {
	return fmt.Sprintf("rpc(line %g±%g, samp %g±%g, lat %g±%g, lon %g±%g, h %g±%g)",
		p.LineOffset, p.LineScale, p.SampleOffset, p.SampleScale,
		p.LatOffset, p.LatScale, p.LonOffset, p.LonScale, p.HeightOffset, p.HeightScale)
}

// normalizeGround maps a ground point to (x, y, z) = (lon, lat, height) in normalized units.
func (p *Param) normalizeGround(g geodesy.GeoPoint) (x, y, z float64) {
	h := g.Height
	if math.IsNaN(h) {
		h = 0
	}
	return (g.Lon - p.LonOffset) / p.LonScale,
		(g.Lat - p.LatOffset) / p.LatScale,
		(h - p.HeightOffset) / p.HeightScale
}

// denormalizeImage maps normalized (sample, line) back to pixel coordinates. Normalized image
// coordinates measure pixel centres, hence the half pixel.
func (p *Param) denormalizeImage(u, v float64) r2.Point {
	return r2.Point{
		X: u*p.SampleScale + p.SampleOffset + 0.5,
		Y: v*p.LineScale + p.LineOffset + 0.5,
	}
}

func (p *Param) normalizeImage(img r2.Point) (u, v float64) {
	return (img.X - 0.5 - p.SampleOffset) / p.SampleScale,
		(img.Y - 0.5 - p.LineOffset) / p.LineScale
}
