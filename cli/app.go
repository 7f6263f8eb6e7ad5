package cli

import (
	"io"

	"github.com/urfave/cli/v2"
)

// Flags.
const (
	flagConfig = "config"
	flagDebug  = "debug"
	flagFormat = "format"

	flagSample = "sample"
	flagLine   = "line"
	flagLon    = "lon"
	flagLat    = "lat"
	flagHeight = "height"
	flagWidth  = "width"
	flagOutput = "output"
)

const (
	formatText = "text"
	formatJSON = "json"
)

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  flagFormat,
		Value: formatText,
		Usage: "output format: text or json",
	}
}

var app = &cli.App{
	Name:            "sensorgeo",
	Usage:           "project between pushbroom images and the ground, and fit RPC models to them",
	HideHelpCommand: true,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    flagConfig,
			Aliases: []string{"c"},
			Usage:   "load configuration from `FILE`",
		},
		&cli.BoolFlag{
			Name:    flagDebug,
			Aliases: []string{"vvv"},
			Usage:   "enable debug logging",
		},
	},
	Commands: []*cli.Command{
		{
			Name:      "fit",
			Usage:     "fit an RPC model to the configured sensor and report its accuracy",
			UsageText: "sensorgeo -c config.json fit [--format json]",
			Flags:     []cli.Flag{formatFlag()},
			Action:    FitAction,
		},
		{
			Name:      "project",
			Usage:     "locate an image point on the ground",
			UsageText: "sensorgeo -c config.json project --sample 100 --line 200 [--height 50]",
			Flags: []cli.Flag{
				&cli.Float64Flag{Name: flagSample, Usage: "image column", Required: true},
				&cli.Float64Flag{Name: flagLine, Usage: "image row", Required: true},
				&cli.Float64Flag{Name: flagHeight, Usage: "height above the ellipsoid in meters; terrain when unset"},
				formatFlag(),
			},
			Action: ProjectAction,
		},
		{
			Name:      "locate",
			Usage:     "find the image point that sees a ground point",
			UsageText: "sensorgeo -c config.json locate --lon 1.5 --lat 43.2 --height 150",
			Flags: []cli.Flag{
				&cli.Float64Flag{Name: flagLon, Usage: "longitude in degrees", Required: true},
				&cli.Float64Flag{Name: flagLat, Usage: "latitude in degrees", Required: true},
				&cli.Float64Flag{Name: flagHeight, Usage: "height above the ellipsoid in meters"},
				formatFlag(),
			},
			Action: LocateAction,
		},
		{
			Name:  "synthetic",
			Usage: "write the config of a synthetic nadir imager on a polar orbit",
			Flags: []cli.Flag{
				&cli.IntFlag{Name: flagWidth, Value: 2000, Usage: "image width in samples"},
				&cli.IntFlag{Name: flagHeight, Value: 2000, Usage: "image height in lines"},
				&cli.StringFlag{Name: flagOutput, Aliases: []string{"o"}, Usage: "write to `FILE` instead of stdout"},
			},
			Action: SyntheticAction,
		},
	},
}

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	app.Writer = out
	app.ErrWriter = errOut
	return app
}
