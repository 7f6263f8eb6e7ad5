package spot5

import (
	"image"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/sensorgeo/ephemeris"
)

// LookAngles are the per detector viewing angles in radians, indexed by sample.
type LookAngles struct {
	PsiX []float64 `json:"psi_x"`
	PsiY []float64 `json:"psi_y"`
}

// LinearLookAngles samples a detector whose angles vary linearly from the first to the last of n
// detectors.
func LinearLookAngles(n int, firstX, lastX, firstY, lastY float64) LookAngles {
	la := LookAngles{PsiX: make([]float64, n), PsiY: make([]float64, n)}
	for i := 0; i < n; i++ {
		f := 0.
		if n > 1 {
			f = float64(i) / float64(n-1)
		}
		la.PsiX[i] = firstX + f*(lastX-firstX)
		la.PsiY[i] = firstY + f*(lastY-firstY)
	}
	return la
}

// Adjustments perturb the attitude and focal length. Offsets are radians, rates radians per
// second measured from the reference line time, and the focal length offset is a fraction of
// the nominal focal length. The zero value leaves the model unadjusted.
type Adjustments struct {
	PitchOffset       float64 `json:"pitch_offset"`
	RollOffset        float64 `json:"roll_offset"`
	YawOffset         float64 `json:"yaw_offset"`
	PitchRate         float64 `json:"pitch_rate"`
	RollRate          float64 `json:"roll_rate"`
	YawRate           float64 `json:"yaw_rate"`
	FocalLengthOffset float64 `json:"focal_length_offset"`
}

// Params are the per image imaging parameters, usually produced by a metadata reader.
type Params struct {
	// RefLineTime is the imaging time in seconds of line RefLineTimeLine.
	RefLineTime        float64
	RefLineTimeLine    float64
	LineSamplingPeriod float64
	// ImageSize is (samples, lines) of the image, or of the sub image when SubImageOffset is set.
	ImageSize      image.Point
	SubImageOffset r2.Point

	Ephemeris  []ephemeris.Sample
	Attitude   []ephemeris.AttitudeSample
	LookAngles LookAngles

	Adjustments Adjustments
}

// Validate returns every problem with p.
func (p *Params) Validate() error {
	var err error
	if p.ImageSize.X <= 0 || p.ImageSize.Y <= 0 {
		err = multierr.Append(err, errors.Errorf("image size must be positive, got %v", p.ImageSize))
	}
	if p.LineSamplingPeriod <= 0 {
		err = multierr.Append(err, errors.Errorf("line sampling period must be positive, got %v", p.LineSamplingPeriod))
	}
	err = multierr.Append(err, ephemeris.ValidateTimes("ephemeris", ephemeris.SampleTimes(p.Ephemeris)))
	err = multierr.Append(err, ephemeris.ValidateTimes("attitude", ephemeris.AttitudeTimes(p.Attitude)))
	if len(p.LookAngles.PsiX) == 0 || len(p.LookAngles.PsiY) == 0 {
		err = multierr.Append(err, errors.New("look angle tables must not be empty"))
	} else if len(p.LookAngles.PsiX) != len(p.LookAngles.PsiY) {
		err = multierr.Append(err, errors.Errorf("look angle tables differ in length: %d psi_x, %d psi_y",
			len(p.LookAngles.PsiX), len(p.LookAngles.PsiY)))
	}
	return err
}

// LineTime returns the imaging time of a full image line.
func (p *Params) LineTime(line float64) float64 {
	return p.RefLineTime + p.LineSamplingPeriod*(line-p.RefLineTimeLine)
}
