package ephemeris

import (
	"math"
	"strings"
	"time"

	"github.com/golang/geo/r3"
	satellite "github.com/joshuaferrara/go-satellite"
	"github.com/pkg/errors"
)

const (
	tleLineLength = 69
	// earthRotationRate is the WGS84 sidereal rotation rate in rad/s.
	earthRotationRate = 7.2921151467e-5
	metersPerKm       = 1000
)

// ErrInvalidTLE is returned for two line element sets that fail format or checksum checks.
var ErrInvalidTLE = errors.New("invalid two line element set")

// FromTLE propagates a two line element set with SGP4 and returns count ECEF samples spaced step
// apart starting at start. Sample times are seconds since start. SGP4 is evaluated at whole
// seconds so start and step are truncated to the second.
func FromTLE(line1, line2 string, start time.Time, step time.Duration, count int) ([]Sample, error) {
	line1, err := checkTLELine(line1, '1')
	if err != nil {
		return nil, err
	}
	line2, err = checkTLELine(line2, '2')
	if err != nil {
		return nil, err
	}
	if count <= 0 {
		return nil, errors.Errorf("sample count must be positive, got %d", count)
	}
	step = step.Truncate(time.Second)
	if step <= 0 {
		return nil, errors.Errorf("step must be at least one second, got %v", step)
	}

	sat := satellite.TLEToSat(line1, line2, satellite.GravityWGS72)
	start = start.UTC().Truncate(time.Second)

	samples := make([]Sample, 0, count)
	for i := 0; i < count; i++ {
		at := start.Add(time.Duration(i) * step)
		year, month, day := at.Date()
		hour, minute, sec := at.Clock()

		posECI, velECI := satellite.Propagate(sat, year, int(month), day, hour, minute, sec)
		gmst := satellite.ThetaG_JD(satellite.JDay(year, int(month), day, hour, minute, sec))
		posECEF := satellite.ECIToECEF(posECI, gmst)
		// The rotating frame adds -omega x r to the rotated inertial velocity.
		velRot := satellite.ECIToECEF(velECI, gmst)

		pos := r3.Vector{X: posECEF.X, Y: posECEF.Y, Z: posECEF.Z}.Mul(metersPerKm)
		vel := r3.Vector{X: velRot.X, Y: velRot.Y, Z: velRot.Z}.Mul(metersPerKm)
		vel = vel.Sub(r3.Vector{Z: earthRotationRate}.Cross(pos))

		if math.IsNaN(pos.Norm()) || math.IsNaN(vel.Norm()) || pos.Norm() == 0 {
			return nil, errors.Wrapf(ErrInvalidTLE, "propagation failed at %s", at.Format(time.RFC3339))
		}
		samples = append(samples, Sample{
			Time:     at.Sub(start).Seconds(),
			Position: pos,
			Velocity: vel,
		})
	}
	return samples, nil
}

// checkTLELine verifies length, line number and the modulo 10 checksum. SGP4 parsing does not
// report malformed fields, so they are rejected here.
func checkTLELine(line string, number byte) (string, error) {
	line = strings.TrimRight(line, " \r\n")
	if len(line) != tleLineLength {
		return "", errors.Wrapf(ErrInvalidTLE, "line %c has %d characters, want %d", number, len(line), tleLineLength)
	}
	if line[0] != number || line[1] != ' ' {
		return "", errors.Wrapf(ErrInvalidTLE, "line %c does not start with %q", number, string(number)+" ")
	}

	sum := 0
	for i := 0; i < tleLineLength-1; i++ {
		switch c := line[i]; {
		case c >= '0' && c <= '9':
			sum += int(c - '0')
		case c == '-':
			sum++
		}
	}
	want := int(line[tleLineLength-1] - '0')
	if sum%10 != want {
		return "", errors.Wrapf(ErrInvalidTLE, "line %c checksum %d, want %d", number, sum%10, want)
	}
	return line, nil
}
