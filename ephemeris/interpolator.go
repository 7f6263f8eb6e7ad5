package ephemeris

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Interpolator evaluates orbit and attitude at arbitrary times. It is immutable and safe for
// concurrent use.
type Interpolator struct {
	ephTimes   []float64
	positions  []r3.Vector
	velocities []r3.Vector

	attTimes []float64
	angles   []r3.Vector

	lineSamplingPeriod float64
	useLagrange        bool
}

// NewInterpolator copies the samples. Ephemeris and attitude times must each be strictly
// increasing with at least one sample.
func NewInterpolator(eph []Sample, att []AttitudeSample, lineSamplingPeriod float64) (*Interpolator, error) {
	ephTimes := SampleTimes(eph)
	attTimes := AttitudeTimes(att)
	if err := multierr.Combine(
		ValidateTimes("ephemeris", ephTimes),
		ValidateTimes("attitude", attTimes),
	); err != nil {
		return nil, err
	}
	if lineSamplingPeriod <= 0 {
		return nil, errors.Errorf("line sampling period must be positive, got %v", lineSamplingPeriod)
	}

	ip := &Interpolator{
		ephTimes:           ephTimes,
		positions:          Positions(eph),
		velocities:         Velocities(eph),
		attTimes:           attTimes,
		angles:             AttitudeAngles(att),
		lineSamplingPeriod: lineSamplingPeriod,
	}
	// Positions and velocities share the time axis, so one count governs both.
	ip.useLagrange = len(ip.ephTimes) >= LagrangeFilterSize
	return ip, nil
}

// UsesLagrange reports whether position and velocity go through Lagrange interpolation.
func (ip *Interpolator) UsesLagrange() bool {
	return ip.useLagrange
}

// EphemerisSpan returns the first and last ephemeris times.
func (ip *Interpolator) EphemerisSpan() (float64, float64) {
	return ip.ephTimes[0], ip.ephTimes[len(ip.ephTimes)-1]
}

// PositionAt returns the ECEF position at t.
func (ip *Interpolator) PositionAt(t float64) (r3.Vector, error) {
	if ip.useLagrange {
		p, err := Lagrange(t, ip.ephTimes, ip.positions, ip.lineSamplingPeriod)
		return p, errors.Wrap(err, "position")
	}
	return Bilinear(t, ip.ephTimes, ip.positions), nil
}

// VelocityAt returns the ECEF velocity at t.
func (ip *Interpolator) VelocityAt(t float64) (r3.Vector, error) {
	if ip.useLagrange {
		v, err := Lagrange(t, ip.ephTimes, ip.velocities, ip.lineSamplingPeriod)
		return v, errors.Wrap(err, "velocity")
	}
	return Bilinear(t, ip.ephTimes, ip.velocities), nil
}

// AttitudeAt returns (pitch, roll, yaw) at t with the clamped linear scheme.
func (ip *Interpolator) AttitudeAt(t float64) r3.Vector {
	return Bilinear(t, ip.attTimes, ip.angles)
}
