package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/golang/geo/r2"
	"go.viam.com/test"

	"go.viam.com/sensorgeo/elevation"
	"go.viam.com/sensorgeo/geomodel/spot5"
	"go.viam.com/sensorgeo/imagegeom"
	"go.viam.com/sensorgeo/logging"
)

const (
	issLine1 = "1 25544U 98067A   08264.51782528 -.00002182  00000-0 -11606-4 0  2927"
	issLine2 = "2 25544  51.6416 247.4627 0006703 130.5360 325.0288 15.72125391563537"
)

// syntheticAttributes renders spot5.SyntheticParams in the config layout, with the image width
// left for the environment to fill in.
func syntheticAttributes(width, height int) map[string]interface{} {
	params := spot5.SyntheticParams(width, height)
	eph := make([]map[string]interface{}, len(params.Ephemeris))
	for i, s := range params.Ephemeris {
		eph[i] = map[string]interface{}{
			"time":     s.Time,
			"position": []float64{s.Position.X, s.Position.Y, s.Position.Z},
			"velocity": []float64{s.Velocity.X, s.Velocity.Y, s.Velocity.Z},
		}
	}
	att := make([]map[string]interface{}, len(params.Attitude))
	for i, s := range params.Attitude {
		att[i] = map[string]interface{}{"time": s.Time, "angles": []float64{s.Angles.X, s.Angles.Y, s.Angles.Z}}
	}
	return map[string]interface{}{
		"sensor": map[string]interface{}{
			"ref_line_time":        params.RefLineTime,
			"ref_line_time_line":   params.RefLineTimeLine,
			"line_sampling_period": params.LineSamplingPeriod,
			"image_width":          "${SENSORGEO_TEST_WIDTH}",
			"image_height":         height,
			"ephemeris":            eph,
			"attitude":             att,
			"look_angle_linear": map[string]interface{}{
				"first_y": params.LookAngles.PsiY[0],
				"last_y":  params.LookAngles.PsiY[width-1],
			},
		},
		"elevation": map[string]interface{}{"default_height": 120},
		"rpc":       map[string]interface{}{"grid_x": 6, "grid_y": "8"},
	}
}

func writeConfig(t *testing.T, attributes map[string]interface{}) string {
	t.Helper()
	buf, err := json.Marshal(attributes)
	test.That(t, err, test.ShouldBeNil)
	path := filepath.Join(t.TempDir(), "sensorgeo.json")
	test.That(t, os.WriteFile(path, buf, 0o600), test.ShouldBeNil)
	return path
}

func TestReadSynthetic(t *testing.T) {
	t.Setenv("SENSORGEO_TEST_WIDTH", "600")
	attrs := syntheticAttributes(600, 400)
	attrs["mystery"] = true
	path := writeConfig(t, attrs)

	logger, logs := logging.NewObservedTestLogger(t)
	cfg, err := Read(path, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.ConfigFilePath, test.ShouldEqual, path)
	test.That(t, cfg.Sensor.ImageWidth, test.ShouldEqual, 600)
	test.That(t, cfg.RPC.GridX, test.ShouldEqual, 6)
	test.That(t, cfg.RPC.GridY, test.ShouldEqual, 8)
	test.That(t, cfg.RPC.HeightLayers, test.ShouldResemble, DefaultHeightLayers)
	test.That(t, cfg.RPC.CheckEvery, test.ShouldEqual, DefaultCheckEvery)
	test.That(t, cfg.Level(), test.ShouldEqual, logging.INFO)
	test.That(t, logs.FilterMessage("ignoring unknown config keys").Len(), test.ShouldEqual, 1)

	heights, err := cfg.Elevation.Source()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, heights, test.ShouldEqual, elevation.Constant(120))

	geom, err := cfg.Sensor.Geometry()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, geom.Kind(), test.ShouldEqual, imagegeom.KindSpot5)

	fromConfig, err := imagegeom.NewModel(geom, nil, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	direct, err := spot5.New(spot5.SyntheticParams(600, 400), nil, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	for _, img := range []r2.Point{{X: 0, Y: 0}, {X: 300, Y: 200}, {X: 599, Y: 399}} {
		a, err := fromConfig.LineSampleHeightToWorld(img, 0)
		test.That(t, err, test.ShouldBeNil)
		b, err := direct.LineSampleHeightToWorld(img, 0)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, a.Lon, test.ShouldAlmostEqual, b.Lon, 1e-9)
		test.That(t, a.Lat, test.ShouldAlmostEqual, b.Lat, 1e-9)
	}
}

func TestReadTLE(t *testing.T) {
	attrs := map[string]interface{}{
		"sensor": map[string]interface{}{
			"ref_line_time":        30,
			"ref_line_time_line":   50,
			"line_sampling_period": 0.00075,
			"image_width":          100,
			"image_height":         100,
			"tle": map[string]interface{}{
				"line1": issLine1, "line2": issLine2,
				"start": "2008-09-20T13:00:00Z", "step_seconds": 10, "count": 9,
			},
			"attitude":         []interface{}{map[string]interface{}{"time": 0, "angles": []float64{0, 0, 0}}},
			"look_angles":      map[string]interface{}{"psi_x": []float64{0, 0}, "psi_y": []float64{-0.01, 0.01}},
			"adjustments":      map[string]interface{}{"roll_offset": 0.001},
			"sub_image_offset": []float64{0, 0},
		},
		"log_level": "debug",
	}
	cfg, err := Read(writeConfig(t, attrs), nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Level(), test.ShouldEqual, logging.DEBUG)

	params, err := cfg.Sensor.Params()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, params.Ephemeris, test.ShouldHaveLength, 9)
	test.That(t, params.Ephemeris[8].Time, test.ShouldEqual, 80)
	test.That(t, params.Adjustments.RollOffset, test.ShouldEqual, 0.001)
	test.That(t, params.LookAngles.PsiY, test.ShouldResemble, []float64{-0.01, 0.01})
}

func TestReadInvalid(t *testing.T) {
	attrs := map[string]interface{}{
		"sensor": map[string]interface{}{
			"image_width": 10,
			"ephemeris":   []interface{}{map[string]interface{}{"time": 0, "position": []float64{1, 2}}},
			"tle":         map[string]interface{}{"start": "yesterday"},
		},
		"elevation": map[string]interface{}{"grid": map[string]interface{}{"width": 3, "height": 3}},
		"rpc":       map[string]interface{}{"grid_x": 1},
		"log_level": "loud",
	}
	_, err := Read(writeConfig(t, attrs), nil)
	test.That(t, err, test.ShouldNotBeNil)
	for _, want := range []string{
		"line_sampling_period",
		"image size",
		"only one of ephemeris or tle",
		"ephemeris[0]",
		"attitude sample",
		"look_angles",
		"elevation grid",
		"rpc grid",
		"loud",
	} {
		test.That(t, err.Error(), test.ShouldContainSubstring, want)
	}

	_, err = Read(filepath.Join(t.TempDir(), "missing.json"), nil)
	test.That(t, err, test.ShouldNotBeNil)

	_, err = FromReader("inline", strings.NewReader("{not json"), nil)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestSensorConfigFromParams(t *testing.T) {
	params := spot5.SyntheticParams(300, 200)
	params.SubImageOffset = r2.Point{X: 0, Y: 12}
	params.Adjustments.PitchRate = 1e-6

	sc := SensorConfigFromParams(params)
	test.That(t, sc.Validate(), test.ShouldBeNil)
	rebuilt, err := sc.Params()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, rebuilt, test.ShouldResemble, params)
}
