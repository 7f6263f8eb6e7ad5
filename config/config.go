// Package config defines the structures to configure a sensor model, its terrain and RPC fitting.
package config

import (
	"image"
	"time"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/sensorgeo/elevation"
	"go.viam.com/sensorgeo/ephemeris"
	"go.viam.com/sensorgeo/geomodel/spot5"
	"go.viam.com/sensorgeo/imagegeom"
	"go.viam.com/sensorgeo/logging"
)

// Defaults applied to omitted RPC fitting settings.
var (
	DefaultGridSamples  = 10
	DefaultHeightLayers = []float64{0, 500, 1000, 1500}
	DefaultCheckEvery   = 5
)

// Config describes a complete sensorgeo setup.
type Config struct {
	ConfigFilePath string `json:"-"`

	Sensor    SensorConfig    `json:"sensor"`
	Elevation ElevationConfig `json:"elevation"`
	RPC       RPCConfig       `json:"rpc"`
	LogLevel  string          `json:"log_level"`
}

// SensorConfig describes a Spot5 pushbroom image. Exactly one of Ephemeris and TLE gives the
// orbit and exactly one of LookAngles and LookAngleLinear the detector.
type SensorConfig struct {
	RefLineTime        float64   `json:"ref_line_time"`
	RefLineTimeLine    float64   `json:"ref_line_time_line"`
	LineSamplingPeriod float64   `json:"line_sampling_period"`
	ImageWidth         int       `json:"image_width"`
	ImageHeight        int       `json:"image_height"`
	SubImageOffset     []float64 `json:"sub_image_offset"`

	Ephemeris []EphemerisSample `json:"ephemeris"`
	TLE       *TLEConfig        `json:"tle"`
	Attitude  []AttitudeSample  `json:"attitude"`

	LookAngles      *spot5.LookAngles  `json:"look_angles"`
	LookAngleLinear *LinearLookAngles  `json:"look_angle_linear"`
	Adjustments     *spot5.Adjustments `json:"adjustments"`
}

// EphemerisSample is an ECEF position (m) and velocity (m/s) at a time in seconds.
type EphemerisSample struct {
	Time     float64   `json:"time"`
	Position []float64 `json:"position"`
	Velocity []float64 `json:"velocity"`
}

// AttitudeSample is (pitch, roll, yaw) in radians at a time in seconds.
type AttitudeSample struct {
	Time   float64   `json:"time"`
	Angles []float64 `json:"angles"`
}

// TLEConfig generates ephemeris by propagating a two line element set. Sample times are seconds
// after Start, so the sensor times must use the same epoch.
type TLEConfig struct {
	Line1       string  `json:"line1"`
	Line2       string  `json:"line2"`
	Start       string  `json:"start"`
	StepSeconds float64 `json:"step_seconds"`
	Count       int     `json:"count"`
}

// LinearLookAngles describes a detector whose angles vary linearly across the image width.
type LinearLookAngles struct {
	FirstX float64 `json:"first_x"`
	LastX  float64 `json:"last_x"`
	FirstY float64 `json:"first_y"`
	LastY  float64 `json:"last_y"`
}

// ElevationConfig is either a raster or a constant height.
type ElevationConfig struct {
	DefaultHeight float64               `json:"default_height"`
	Grid          *elevation.GridConfig `json:"grid"`
}

// RPCConfig controls RPC fitting. GCPs are generated on a GridX by GridY image grid at every
// height layer, and every CheckEvery-th one is held back for validation (below 2 disables it).
type RPCConfig struct {
	GridX        int       `json:"grid_x"`
	GridY        int       `json:"grid_y"`
	HeightLayers []float64 `json:"height_layers"`
	CheckEvery   int       `json:"check_every"`
}

func (cfg *Config) applyDefaults() {
	if cfg.RPC.GridX == 0 {
		cfg.RPC.GridX = DefaultGridSamples
	}
	if cfg.RPC.GridY == 0 {
		cfg.RPC.GridY = DefaultGridSamples
	}
	if len(cfg.RPC.HeightLayers) == 0 {
		cfg.RPC.HeightLayers = append([]float64(nil), DefaultHeightLayers...)
	}
	if cfg.RPC.CheckEvery == 0 {
		cfg.RPC.CheckEvery = DefaultCheckEvery
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}

// Validate returns every problem with the config.
func (cfg *Config) Validate() error {
	var err error
	err = multierr.Append(err, cfg.Sensor.Validate())
	if cfg.Elevation.Grid != nil {
		err = multierr.Append(err, errors.Wrap(cfg.Elevation.Grid.Validate(), "elevation grid"))
	}
	if cfg.RPC.GridX < 2 || cfg.RPC.GridY < 2 {
		err = multierr.Append(err, errors.Errorf("rpc grid must be at least 2x2, got %dx%d", cfg.RPC.GridX, cfg.RPC.GridY))
	}
	if _, levelErr := logging.LevelFromString(cfg.LogLevel); levelErr != nil {
		err = multierr.Append(err, levelErr)
	}
	return err
}

// Validate returns every problem with the sensor description.
func (sc *SensorConfig) Validate() error {
	var err error
	if sc.LineSamplingPeriod <= 0 {
		err = multierr.Append(err, errors.New("sensor: line_sampling_period must be positive"))
	}
	if sc.ImageWidth <= 0 || sc.ImageHeight <= 0 {
		err = multierr.Append(err, errors.Errorf("sensor: image size must be positive, got %dx%d", sc.ImageWidth, sc.ImageHeight))
	}
	if len(sc.SubImageOffset) != 0 && len(sc.SubImageOffset) != 2 {
		err = multierr.Append(err, errors.New("sensor: sub_image_offset must have 2 values"))
	}

	switch {
	case len(sc.Ephemeris) == 0 && sc.TLE == nil:
		err = multierr.Append(err, errors.New("sensor: one of ephemeris or tle is required"))
	case len(sc.Ephemeris) != 0 && sc.TLE != nil:
		err = multierr.Append(err, errors.New("sensor: only one of ephemeris or tle may be set"))
	case sc.TLE != nil:
		err = multierr.Append(err, sc.TLE.Validate())
	}
	for i, s := range sc.Ephemeris {
		if len(s.Position) != 3 || len(s.Velocity) != 3 {
			err = multierr.Append(err, errors.Errorf("sensor: ephemeris[%d] needs 3 position and 3 velocity values", i))
		}
	}

	if len(sc.Attitude) == 0 {
		err = multierr.Append(err, errors.New("sensor: at least one attitude sample is required"))
	}
	for i, s := range sc.Attitude {
		if len(s.Angles) != 3 {
			err = multierr.Append(err, errors.Errorf("sensor: attitude[%d] needs 3 angles", i))
		}
	}

	if (sc.LookAngles == nil) == (sc.LookAngleLinear == nil) {
		err = multierr.Append(err, errors.New("sensor: exactly one of look_angles or look_angle_linear is required"))
	}
	return err
}

// Validate checks the TLE settings; the element set itself is checked when propagated.
func (tc *TLEConfig) Validate() error {
	var err error
	if _, parseErr := time.Parse(time.RFC3339, tc.Start); parseErr != nil {
		err = multierr.Append(err, errors.Wrap(parseErr, "tle: start"))
	}
	if tc.StepSeconds < 1 {
		err = multierr.Append(err, errors.Errorf("tle: step_seconds must be at least 1, got %v", tc.StepSeconds))
	}
	if tc.Count <= 0 {
		err = multierr.Append(err, errors.Errorf("tle: count must be positive, got %d", tc.Count))
	}
	return err
}

// Level returns the configured log level.
func (cfg *Config) Level() logging.Level {
	level, err := logging.LevelFromString(cfg.LogLevel)
	if err != nil {
		return logging.INFO
	}
	return level
}

// Params builds the Spot5 imaging parameters, propagating the TLE when one is given.
func (sc *SensorConfig) Params() (spot5.Params, error) {
	params := spot5.Params{
		RefLineTime:        sc.RefLineTime,
		RefLineTimeLine:    sc.RefLineTimeLine,
		LineSamplingPeriod: sc.LineSamplingPeriod,
		ImageSize:          image.Point{X: sc.ImageWidth, Y: sc.ImageHeight},
	}
	if len(sc.SubImageOffset) == 2 {
		params.SubImageOffset = r2.Point{X: sc.SubImageOffset[0], Y: sc.SubImageOffset[1]}
	}

	if sc.TLE != nil {
		start, err := time.Parse(time.RFC3339, sc.TLE.Start)
		if err != nil {
			return spot5.Params{}, errors.Wrap(err, "tle: start")
		}
		step := time.Duration(sc.TLE.StepSeconds * float64(time.Second))
		if params.Ephemeris, err = ephemeris.FromTLE(sc.TLE.Line1, sc.TLE.Line2, start, step, sc.TLE.Count); err != nil {
			return spot5.Params{}, err
		}
	} else {
		params.Ephemeris = make([]ephemeris.Sample, len(sc.Ephemeris))
		for i, s := range sc.Ephemeris {
			params.Ephemeris[i] = ephemeris.Sample{Time: s.Time, Position: toVector(s.Position), Velocity: toVector(s.Velocity)}
		}
	}

	params.Attitude = make([]ephemeris.AttitudeSample, len(sc.Attitude))
	for i, s := range sc.Attitude {
		params.Attitude[i] = ephemeris.AttitudeSample{Time: s.Time, Angles: toVector(s.Angles)}
	}

	if sc.LookAngles != nil {
		params.LookAngles = *sc.LookAngles
	} else if sc.LookAngleLinear != nil {
		l := sc.LookAngleLinear
		params.LookAngles = spot5.LinearLookAngles(sc.ImageWidth+int(params.SubImageOffset.X), l.FirstX, l.LastX, l.FirstY, l.LastY)
	}
	if sc.Adjustments != nil {
		params.Adjustments = *sc.Adjustments
	}

	if err := params.Validate(); err != nil {
		return spot5.Params{}, err
	}
	return params, nil
}

// Geometry returns the sensor as an image geometry.
func (sc *SensorConfig) Geometry() (imagegeom.Geometry, error) {
	params, err := sc.Params()
	if err != nil {
		return nil, err
	}
	return imagegeom.Spot5{Params: params}, nil
}

// Source returns the terrain: the raster when one is configured, otherwise a constant height.
func (ec *ElevationConfig) Source() (elevation.Source, error) {
	if ec.Grid == nil {
		return elevation.Constant(ec.DefaultHeight), nil
	}
	grid, err := elevation.NewGrid(*ec.Grid)
	if err != nil {
		return nil, err
	}
	return grid, nil
}

func toVector(v []float64) r3.Vector {
	if len(v) != 3 {
		return r3.Vector{}
	}
	return r3.Vector{X: v[0], Y: v[1], Z: v[2]}
}

// SensorConfigFromParams renders params in the config layout with an explicit look angle table.
func SensorConfigFromParams(params spot5.Params) SensorConfig {
	sc := SensorConfig{
		RefLineTime:        params.RefLineTime,
		RefLineTimeLine:    params.RefLineTimeLine,
		LineSamplingPeriod: params.LineSamplingPeriod,
		ImageWidth:         params.ImageSize.X,
		ImageHeight:        params.ImageSize.Y,
		Ephemeris:          make([]EphemerisSample, len(params.Ephemeris)),
		Attitude:           make([]AttitudeSample, len(params.Attitude)),
	}
	if params.SubImageOffset != (r2.Point{}) {
		sc.SubImageOffset = []float64{params.SubImageOffset.X, params.SubImageOffset.Y}
	}
	for i, s := range params.Ephemeris {
		sc.Ephemeris[i] = EphemerisSample{
			Time:     s.Time,
			Position: []float64{s.Position.X, s.Position.Y, s.Position.Z},
			Velocity: []float64{s.Velocity.X, s.Velocity.Y, s.Velocity.Z},
		}
	}
	for i, s := range params.Attitude {
		sc.Attitude[i] = AttitudeSample{Time: s.Time, Angles: []float64{s.Angles.X, s.Angles.Y, s.Angles.Z}}
	}
	lookAngles := spot5.LookAngles{
		PsiX: append([]float64(nil), params.LookAngles.PsiX...),
		PsiY: append([]float64(nil), params.LookAngles.PsiY...),
	}
	sc.LookAngles = &lookAngles
	if params.Adjustments != (spot5.Adjustments{}) {
		adj := params.Adjustments
		sc.Adjustments = &adj
	}
	return sc
}
