package spot5

import (
	"image"
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/sensorgeo/ephemeris"
	"go.viam.com/sensorgeo/geodesy"
)

const earthGM = 3.986004418e14

// SyntheticParams describes a nadir looking imager on a circular polar orbit 832 km up, fixed in
// the earth frame, crossing the equator at longitude 0 at time 0. Ten ephemeris samples are 30 s
// apart and the reference line, at the image centre, is imaged at 150 s. Detector angles vary
// linearly across track and are symmetric about the centre sample.
func SyntheticParams(width, height int) Params {
	const (
		altitude     = 832000.0
		ephStep      = 30.0
		ephCount     = 10
		linePeriod   = 0.0045
		refTime      = 150.0
		psiPerSample = 3.6e-5
	)
	radius := geodesy.SemiMajorAxis + altitude
	omega := math.Sqrt(earthGM / (radius * radius * radius))

	eph := make([]ephemeris.Sample, ephCount)
	for i := range eph {
		t := float64(i) * ephStep
		s, c := math.Sincos(omega * t)
		eph[i] = ephemeris.Sample{
			Time:     t,
			Position: r3.Vector{X: radius * c, Z: radius * s},
			Velocity: r3.Vector{X: -radius * omega * s, Z: radius * omega * c},
		}
	}

	centre := float64(width-1) / 2
	psiY := make([]float64, width)
	for i := range psiY {
		psiY[i] = psiPerSample * (float64(i) - centre)
	}

	return Params{
		RefLineTime:        refTime,
		RefLineTimeLine:    float64(height) / 2,
		LineSamplingPeriod: linePeriod,
		ImageSize:          image.Point{X: width, Y: height},
		Ephemeris:          eph,
		Attitude: []ephemeris.AttitudeSample{
			{Time: 0},
			{Time: float64(ephCount-1) * ephStep},
		},
		LookAngles: LookAngles{PsiX: make([]float64, width), PsiY: psiY},
	}
}
