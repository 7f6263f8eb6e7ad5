package rpcmodel

import (
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/sensorgeo/geomodel"
)

// Residuals summarizes the pixel distance between a model's projection of check points and
// their measured image positions.
type Residuals struct {
	Count  int       `json:"count"`
	Mean   float64   `json:"mean"`
	RMS    float64   `json:"rms"`
	Max    float64   `json:"max"`
	P95    float64   `json:"p95"`
	Errors []float64 `json:"-"`
}

// Validate projects every check point's ground location through model and measures how far it
// lands from the point's image position.
func Validate(model geomodel.Model, checks []GCP) (Residuals, error) {
	if len(checks) == 0 {
		return Residuals{}, errors.New("no check points")
	}
	res := Residuals{Count: len(checks), Errors: make([]float64, len(checks))}
	for i, c := range checks {
		p, err := model.WorldToLineSample(c.Ground)
		if err != nil {
			return Residuals{}, errors.Wrapf(err, "projecting check point %d", i)
		}
		res.Errors[i] = p.Sub(c.Image).Norm()
	}

	var err error
	if res.Mean, err = stats.Mean(res.Errors); err != nil {
		return Residuals{}, err
	}
	if res.RMS, err = stats.RootMeanSquare(res.Errors); err != nil {
		return Residuals{}, err
	}
	if res.Max, err = stats.Max(res.Errors); err != nil {
		return Residuals{}, err
	}
	res.P95 = res.Max
	if len(checks) > 1 {
		if res.P95, err = stats.Percentile(res.Errors, 95); err != nil {
			return Residuals{}, err
		}
	}
	return res, nil
}

// SplitCheckPoints holds back every nth GCP for validation and returns (fit, check). n below 2
// holds nothing back.
func SplitCheckPoints(gcps []GCP, n int) ([]GCP, []GCP) {
	if n < 2 {
		return gcps, nil
	}
	fit := lo.Filter(gcps, func(_ GCP, i int) bool { return i%n != n-1 })
	check := lo.Filter(gcps, func(_ GCP, i int) bool { return i%n == n-1 })
	return fit, check
}
