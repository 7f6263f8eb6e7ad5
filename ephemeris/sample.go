// Package ephemeris holds time tagged orbit and attitude samples and the interpolation schemes
// used to evaluate them at arbitrary imaging times.
package ephemeris

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

var (
	// ErrOutOfRange is returned when a query time falls outside the window an interpolator can
	// serve.
	ErrOutOfRange = errors.New("interpolation time out of range")
	// ErrNotEnoughSamples is returned when a scheme is asked to work with too few samples.
	ErrNotEnoughSamples = errors.New("not enough samples to interpolate")
)

// Sample is an orbit state vector in ECEF meters and meters per second.
type Sample struct {
	Time     float64   `json:"time"`
	Position r3.Vector `json:"position"`
	Velocity r3.Vector `json:"velocity"`
}

// AttitudeSample holds (pitch, roll, yaw) in radians as X, Y, Z.
type AttitudeSample struct {
	Time   float64   `json:"time"`
	Angles r3.Vector `json:"angles"`
}

// SampleTimes returns the times of samples.
func SampleTimes(samples []Sample) []float64 {
	times := make([]float64, len(samples))
	for i, s := range samples {
		times[i] = s.Time
	}
	return times
}

// Positions returns the positions of samples.
func Positions(samples []Sample) []r3.Vector {
	out := make([]r3.Vector, len(samples))
	for i, s := range samples {
		out[i] = s.Position
	}
	return out
}

// Velocities returns the velocities of samples.
func Velocities(samples []Sample) []r3.Vector {
	out := make([]r3.Vector, len(samples))
	for i, s := range samples {
		out[i] = s.Velocity
	}
	return out
}

// AttitudeTimes returns the times of samples.
func AttitudeTimes(samples []AttitudeSample) []float64 {
	times := make([]float64, len(samples))
	for i, s := range samples {
		times[i] = s.Time
	}
	return times
}

// AttitudeAngles returns the angles of samples.
func AttitudeAngles(samples []AttitudeSample) []r3.Vector {
	out := make([]r3.Vector, len(samples))
	for i, s := range samples {
		out[i] = s.Angles
	}
	return out
}

// ValidateTimes checks that times is non empty and strictly increasing. name prefixes the errors.
func ValidateTimes(name string, times []float64) error {
	if len(times) == 0 {
		return errors.Wrapf(ErrNotEnoughSamples, "%s: need at least one sample", name)
	}
	var err error
	for i := 1; i < len(times); i++ {
		if !(times[i] > times[i-1]) {
			err = multierr.Append(err, errors.Errorf("%s: sample %d time %v does not increase from %v", name, i, times[i], times[i-1]))
		}
	}
	return err
}
