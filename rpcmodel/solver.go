package rpcmodel

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/sensorgeo/geodesy"
	"go.viam.com/sensorgeo/logging"
	"go.viam.com/sensorgeo/utils"
)

// ErrInsufficientPoints is returned when fewer than MinPoints GCPs are given.
var ErrInsufficientPoints = errors.New("insufficient ground control points")

const (
	// MinPoints is the smallest number of GCPs Solve accepts.
	MinPoints = 20
	// MinElevationPoints is the number of GCPs from which height terms are solved for.
	MinElevationPoints = 40
	// MaxSolverIterations bounds the reweighting rounds of each ratio fit.
	MaxSolverIterations = 10

	solverEpsilon = 1e-7
	// numerator terms plus denominator terms without the constant.
	numUnknowns = 2*NumCoeffs - 1
)

// GCP is a ground control point: an image position (X = sample, Y = line) and its ground location.
type GCP struct {
	Image  r2.Point         `json:"image"`
	Ground geodesy.GeoPoint `json:"ground"`
}

// Solver fits RPC parameters to ground control points. It holds no state between calls.
type Solver struct {
	logger logging.Logger
}

// NewSolver returns a Solver that logs through logger; nil discards logs.
func NewSolver(logger logging.Logger) *Solver {
	return &Solver{logger: logging.OrBlank(logger, "rpc_solver")}
}

// Solve fits line and sample ratios to gcps by iteratively reweighted least squares. With fewer
// than MinElevationPoints points the height terms are left at zero. The returned RMS error is
// not computed and is always math.MaxFloat64; use Validate to measure a fit.
func (s *Solver) Solve(gcps []GCP) (Param, float64, error) {
	if len(gcps) < MinPoints {
		return Param{}, math.MaxFloat64, errors.Wrapf(ErrInsufficientPoints, "got %d, need at least %d", len(gcps), MinPoints)
	}
	for i, g := range gcps {
		if math.IsNaN(g.Image.X) || math.IsNaN(g.Image.Y) || g.Ground.HasNaN() {
			return Param{}, math.MaxFloat64, errors.Errorf("ground control point %d has NaN coordinates", i)
		}
	}
	useElevation := len(gcps) >= MinElevationPoints
	if !useElevation {
		s.logger.Warnw("too few ground control points to solve for height terms, fitting a horizontal model",
			"points", len(gcps), "needed", MinElevationPoints)
	}

	param, err := normalization(gcps, useElevation)
	if err != nil {
		return Param{}, math.MaxFloat64, err
	}

	terms := make([][NumCoeffs]float64, len(gcps))
	lines := make([]float64, len(gcps))
	samples := make([]float64, len(gcps))
	for i, g := range gcps {
		x, y, z := param.normalizeGround(g.Ground)
		if !useElevation {
			z = 0
		}
		terms[i] = Terms(x, y, z)
		samples[i], lines[i] = param.normalizeImage(g.Image)
	}

	var lineIters, sampleIters int
	if param.LineNum, param.LineDen, lineIters, err = fitRatio(terms, lines); err != nil {
		return Param{}, math.MaxFloat64, errors.Wrap(err, "fitting line ratio")
	}
	if param.SampleNum, param.SampleDen, sampleIters, err = fitRatio(terms, samples); err != nil {
		return Param{}, math.MaxFloat64, errors.Wrap(err, "fitting sample ratio")
	}
	if !useElevation {
		for _, i := range heightTerms {
			param.LineNum[i], param.LineDen[i] = 0, 0
			param.SampleNum[i], param.SampleDen[i] = 0, 0
		}
	}
	s.logger.Debugw("rpc solved",
		"points", len(gcps),
		"elevation", useElevation,
		"line_iterations", lineIters,
		"sample_iterations", sampleIters)
	return param, math.MaxFloat64, nil
}

// normalization computes offsets and scales. Ground offsets are means and ground scales the
// largest deviation, never below one. Image offsets are bounding box centres in pixel centre
// coordinates and image scales half the box size.
func normalization(gcps []GCP, useElevation bool) (Param, error) {
	lons := lo.Map(gcps, func(g GCP, _ int) float64 { return g.Ground.Lon })
	lats := lo.Map(gcps, func(g GCP, _ int) float64 { return g.Ground.Lat })
	heights := lo.Map(gcps, func(g GCP, _ int) float64 { return g.Ground.Height })
	xs := lo.Map(gcps, func(g GCP, _ int) float64 { return g.Image.X })
	ys := lo.Map(gcps, func(g GCP, _ int) float64 { return g.Image.Y })

	var p Param
	var err error
	if p.LonOffset, err = stats.Mean(lons); err != nil {
		return Param{}, err
	}
	if p.LatOffset, err = stats.Mean(lats); err != nil {
		return Param{}, err
	}
	p.LonScale = groundScale(lons, p.LonOffset)
	p.LatScale = groundScale(lats, p.LatOffset)
	p.HeightScale = 1
	if useElevation {
		if p.HeightOffset, err = stats.Mean(heights); err != nil {
			return Param{}, err
		}
		p.HeightScale = groundScale(heights, p.HeightOffset)
	}

	p.SampleOffset, p.SampleScale = imageNormalization(lo.Min(xs), lo.Max(xs))
	p.LineOffset, p.LineScale = imageNormalization(lo.Min(ys), lo.Max(ys))
	return p, nil
}

func groundScale(values []float64, offset float64) float64 {
	dev := lo.Map(values, func(v float64, _ int) float64 { return v - offset })
	return math.Max(utils.MaxAbs(dev...), 1)
}

func imageNormalization(minV, maxV float64) (offset, scale float64) {
	offset = (minV + maxV - 1) / 2
	scale = (maxV - minV) / 2
	if scale == 0 {
		scale = 1
	}
	return offset, scale
}

// fitRatio solves target ≈ (num·t)/(den·t) with den[0] = 1. Each round linearizes to
// num·t - target*(den·t - 1) = target, solves the weighted normal equations through an SVD
// pseudo inverse, and reweights each row by 1/(den·t). Rounds stop once the weighted normal
// residual drops below solverEpsilon.
func fitRatio(terms [][NumCoeffs]float64, target []float64) (num, den [NumCoeffs]float64, iterations int, err error) {
	n := len(terms)
	design := mat.NewDense(n, numUnknowns, nil)
	for i, t := range terms {
		for j := 0; j < NumCoeffs; j++ {
			design.Set(i, j, t[j])
		}
		for j := 1; j < NumCoeffs; j++ {
			design.Set(i, NumCoeffs+j-1, -target[i]*t[j])
		}
	}
	rhs := mat.NewVecDense(n, append([]float64(nil), target...))

	weights := make([]float64, n)
	for i := range weights {
		weights[i] = 1
	}

	var coeffs *mat.VecDense
	for iterations = 1; iterations <= MaxSolverIterations; iterations++ {
		w2 := mat.NewDiagDense(n, lo.Map(weights, func(w float64, _ int) float64 { return w * w }))

		var mtw2 mat.Dense
		mtw2.Mul(design.T(), w2)
		var normal mat.Dense
		normal.Mul(&mtw2, design)
		var b mat.VecDense
		b.MulVec(&mtw2, rhs)

		if coeffs, err = pseudoInverseSolve(&normal, &b); err != nil {
			return num, den, iterations, err
		}

		var misfit mat.VecDense
		misfit.MulVec(design, coeffs)
		misfit.SubVec(&misfit, rhs)
		var weighted mat.VecDense
		weighted.MulVec(&mtw2, &misfit)
		residual := floats.Norm(weighted.RawVector().Data, 2)

		for i, t := range terms {
			d := 1.0
			for j := 1; j < NumCoeffs; j++ {
				d += coeffs.AtVec(NumCoeffs+j-1) * t[j]
			}
			if d > solverEpsilon {
				weights[i] = 1 / d
			} else {
				weights[i] = 0
			}
		}
		if residual < solverEpsilon {
			break
		}
	}
	if iterations > MaxSolverIterations {
		iterations = MaxSolverIterations
	}

	for j := 0; j < NumCoeffs; j++ {
		num[j] = coeffs.AtVec(j)
	}
	den[0] = 1
	for j := 1; j < NumCoeffs; j++ {
		den[j] = coeffs.AtVec(NumCoeffs + j - 1)
	}
	return num, den, iterations, nil
}

// pseudoInverseSolve returns pinv(a)·b, treating singular values below solverEpsilon as zero.
func pseudoInverseSolve(a mat.Matrix, b mat.Vector) (*mat.VecDense, error) {
	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDFull); !ok {
		return nil, errors.New("SVD factorization failed")
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	values := svd.Values(nil)

	var utb mat.VecDense
	utb.MulVec(u.T(), b)
	for i, sv := range values {
		if sv < solverEpsilon {
			utb.SetVec(i, 0)
			continue
		}
		utb.SetVec(i, utb.AtVec(i)/sv)
	}
	var x mat.VecDense
	x.MulVec(&v, &utb)
	return &x, nil
}
