package cli

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/golang/geo/r2"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/sensorgeo/config"
	"go.viam.com/sensorgeo/elevation"
	"go.viam.com/sensorgeo/geodesy"
	"go.viam.com/sensorgeo/geomodel"
	"go.viam.com/sensorgeo/geomodel/spot5"
	"go.viam.com/sensorgeo/imagegeom"
	"go.viam.com/sensorgeo/logging"
	"go.viam.com/sensorgeo/rpcmodel"
)

// session is what every model command needs: the parsed config and the sensor model built
// from it.
type session struct {
	ctx     context.Context
	cfg     *config.Config
	model   geomodel.Model
	heights elevation.Source
	logger  logging.Logger
}

func newSession(c *cli.Context) (*session, error) {
	path := c.String(flagConfig)
	if path == "" {
		return nil, errors.New("no config given, pass --config FILE")
	}

	logger := logging.NewBlankLogger("sensorgeo")
	logger.AddAppender(logging.NewWriterAppender(c.App.ErrWriter))
	logger.SetLevel(logging.INFO)

	cfg, err := config.Read(path, logger)
	if err != nil {
		return nil, err
	}
	logger.SetLevel(cfg.Level())

	ctx := c.Context
	if c.Bool(flagDebug) {
		ctx = logging.EnableDebugMode(ctx, "")
	}

	heights, err := cfg.Elevation.Source()
	if err != nil {
		return nil, errors.Wrap(err, "building elevation source")
	}
	geom, err := cfg.Sensor.Geometry()
	if err != nil {
		return nil, errors.Wrap(err, "building sensor geometry")
	}
	start := time.Now()
	model, err := imagegeom.NewModel(geom, heights, logger.Sublogger(string(geom.Kind())))
	if err != nil {
		return nil, err
	}
	logger.CDebugw(ctx, "sensor model ready", "kind", geom.Kind(), "size", model.ImageSize(), "elapsed", time.Since(start))

	return &session{ctx: ctx, cfg: cfg, model: model, heights: heights, logger: logger}, nil
}

func checkFormat(c *cli.Context) (string, error) {
	format := c.String(flagFormat)
	if format != formatText && format != formatJSON {
		return "", errors.Errorf("unknown format %q, use %s or %s", format, formatText, formatJSON)
	}
	return format, nil
}

const (
	histogramBins  = 10
	histogramWidth = 40
)

// fitResult is the json output of fit.
type fitResult struct {
	Metadata  map[string]string   `json:"metadata"`
	Points    int                 `json:"points"`
	Residuals *rpcmodel.Residuals `json:"residuals,omitempty"`
	MaxGround *float64            `json:"max_ground_error_m,omitempty"`
}

// FitAction is the corresponding Action for 'fit'.
func FitAction(c *cli.Context) error {
	format, err := checkFormat(c)
	if err != nil {
		return err
	}
	s, err := newSession(c)
	if err != nil {
		return err
	}

	start := time.Now()
	gcps, err := rpcmodel.GenerateLayeredGrid(s.ctx, s.model, s.cfg.RPC.GridX, s.cfg.RPC.GridY, s.cfg.RPC.HeightLayers)
	if err != nil {
		return errors.Wrap(err, "generating ground control points")
	}
	fit, checks := rpcmodel.SplitCheckPoints(gcps, s.cfg.RPC.CheckEvery)
	s.logger.CDebugw(s.ctx, "ground control points ready", "fit", len(fit), "check", len(checks), "elapsed", time.Since(start))

	param, _, err := rpcmodel.NewSolver(s.logger.Sublogger("rpc")).Solve(fit)
	if err != nil {
		return err
	}
	result := fitResult{Metadata: param.Metadata(), Points: len(fit)}

	if len(checks) > 0 {
		rpc, err := rpcmodel.NewModel(param, s.model.ImageSize(), s.heights, s.logger.Sublogger("rpc"))
		if err != nil {
			return err
		}
		res, err := rpcmodel.Validate(rpc, checks)
		if err != nil {
			return err
		}
		maxGround, err := maxGroundError(rpc, checks)
		if err != nil {
			return err
		}
		result.Residuals = &res
		result.MaxGround = &maxGround
	}

	if format == formatJSON {
		return printJSON(c.App.Writer, result)
	}

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Key", "Value"})
	for _, key := range rpcmodel.MetadataKeys() {
		t.AppendRow(table.Row{key, result.Metadata[key]})
	}
	printf(c.App.Writer, "%s", t.Render())

	if result.Residuals == nil {
		warningf(c.App.ErrWriter, "no check points held back, accuracy not measured")
		return nil
	}
	r := table.NewWriter()
	r.AppendHeader(table.Row{"Fit points", "Check points", "Mean (px)", "RMS (px)", "Max (px)", "P95 (px)", "Max ground (m)"})
	r.AppendRow(table.Row{
		result.Points, result.Residuals.Count,
		fmtFloat(result.Residuals.Mean), fmtFloat(result.Residuals.RMS),
		fmtFloat(result.Residuals.Max), fmtFloat(result.Residuals.P95),
		fmtFloat(*result.MaxGround),
	})
	printf(c.App.Writer, "%s", r.Render())

	printf(c.App.Writer, "\ncheck point pixel errors")
	hist := histogram.Hist(min(histogramBins, result.Residuals.Count), result.Residuals.Errors)
	return histogram.Fprint(c.App.Writer, hist, histogram.Linear(histogramWidth))
}

// maxGroundError locates every check point's image position at its known height and returns the
// largest great circle distance from its known ground position.
func maxGroundError(model geomodel.Model, checks []rpcmodel.GCP) (float64, error) {
	var maxDist float64
	for _, chk := range checks {
		g, err := model.LineSampleHeightToWorld(chk.Image, chk.Ground.Height)
		if err != nil {
			return 0, err
		}
		maxDist = max(maxDist, g.GreatCircleDistance(chk.Ground))
	}
	return maxDist, nil
}

// ProjectAction is the corresponding Action for 'project'.
func ProjectAction(c *cli.Context) error {
	format, err := checkFormat(c)
	if err != nil {
		return err
	}
	s, err := newSession(c)
	if err != nil {
		return err
	}

	img := r2.Point{X: c.Float64(flagSample), Y: c.Float64(flagLine)}
	if !geomodel.InImage(img, s.model.ImageSize(), 0) {
		warningf(c.App.ErrWriter, "image point %v is outside the image, using the corner approximation", img)
	}
	var ground geodesy.GeoPoint
	if c.IsSet(flagHeight) {
		ground, err = s.model.LineSampleHeightToWorld(img, c.Float64(flagHeight))
	} else {
		ground, err = s.model.LineSampleToWorld(img)
	}
	if err != nil {
		return err
	}

	if format == formatJSON {
		return printJSON(c.App.Writer, ground)
	}
	printf(c.App.Writer, "lon %s lat %s height %s", fmtFloat(ground.Lon), fmtFloat(ground.Lat), fmtFloat(ground.Height))
	return nil
}

// LocateAction is the corresponding Action for 'locate'.
func LocateAction(c *cli.Context) error {
	format, err := checkFormat(c)
	if err != nil {
		return err
	}
	s, err := newSession(c)
	if err != nil {
		return err
	}

	ground := geodesy.NewGeoPoint(c.Float64(flagLon), c.Float64(flagLat), c.Float64(flagHeight))
	img, err := s.model.WorldToLineSample(ground)
	if err != nil {
		return err
	}

	if format == formatJSON {
		return printJSON(c.App.Writer, map[string]float64{"sample": img.X, "line": img.Y})
	}
	printf(c.App.Writer, "sample %s line %s", fmtFloat(img.X), fmtFloat(img.Y))
	return nil
}

// SyntheticAction is the corresponding Action for 'synthetic'.
func SyntheticAction(c *cli.Context) error {
	width, height := c.Int(flagWidth), c.Int(flagHeight)
	if width < 2 || height < 2 {
		return errors.Errorf("image must be at least 2x2, got %dx%d", width, height)
	}
	cfg := config.Config{
		Sensor: config.SensorConfigFromParams(spot5.SyntheticParams(width, height)),
		RPC: config.RPCConfig{
			GridX:        config.DefaultGridSamples,
			GridY:        config.DefaultGridSamples,
			HeightLayers: append([]float64(nil), config.DefaultHeightLayers...),
			CheckEvery:   config.DefaultCheckEvery,
		},
		LogLevel: "info",
	}

	out := c.String(flagOutput)
	if out == "" {
		return printJSON(c.App.Writer, cfg)
	}
	buf, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, buf, 0o600); err != nil {
		return errors.Wrapf(err, "writing %s", out)
	}
	printf(c.App.Writer, "wrote %s", out)
	return nil
}
