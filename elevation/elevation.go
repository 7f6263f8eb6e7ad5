// Package elevation supplies terrain heights above the WGS84 ellipsoid to sensor models.
package elevation

import (
	"math"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Source returns the terrain height in meters above the ellipsoid at a longitude and latitude in
// degrees. Implementations must be safe for concurrent reads.
type Source interface {
	HeightAt(lon, lat float64) float64
}

// Constant is a flat terrain at a fixed height.
type Constant float64

// HeightAt returns c everywhere.
func (c Constant) HeightAt(lon, lat float64) float64 {
	return float64(c)
}

// SourceFunc adapts a function to a Source.
type SourceFunc func(lon, lat float64) float64

// HeightAt calls f.
func (f SourceFunc) HeightAt(lon, lat float64) float64 {
	return f(lon, lat)
}

// GridConfig describes a regular longitude/latitude raster. Values are row major with row 0 at
// OriginLat and column 0 at OriginLon; StepLat is usually negative for north up rasters.
// NaN values are voids.
type GridConfig struct {
	OriginLon     float64   `json:"origin_lon"`
	OriginLat     float64   `json:"origin_lat"`
	StepLon       float64   `json:"step_lon"`
	StepLat       float64   `json:"step_lat"`
	Width         int       `json:"width"`
	Height        int       `json:"height"`
	Values        []float64 `json:"values"`
	DefaultHeight float64   `json:"default_height"`
}

// Validate checks the raster shape.
func (cfg *GridConfig) Validate() error {
	var err error
	if cfg.Width < 2 || cfg.Height < 2 {
		err = multierr.Append(err, errors.Errorf("grid must be at least 2x2, got %dx%d", cfg.Width, cfg.Height))
	}
	if cfg.StepLon == 0 || cfg.StepLat == 0 {
		err = multierr.Append(err, errors.New("grid steps must be non zero"))
	}
	if len(cfg.Values) != cfg.Width*cfg.Height {
		err = multierr.Append(err, errors.Errorf("grid has %d values, want %d", len(cfg.Values), cfg.Width*cfg.Height))
	}
	return err
}

// Grid bilinearly interpolates a raster. Queries off the raster or weighting a void return the
// default height. A Grid is read only after construction.
type Grid struct {
	cfg GridConfig
}

// NewGrid validates cfg and copies its values.
func NewGrid(cfg GridConfig) (*Grid, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	values := make([]float64, len(cfg.Values))
	copy(values, cfg.Values)
	cfg.Values = values
	return &Grid{cfg: cfg}, nil
}

// DefaultHeight is returned off the raster and over voids.
func (g *Grid) DefaultHeight() float64 {
	return g.cfg.DefaultHeight
}

// HeightAt interpolates the four posts around (lon, lat).
func (g *Grid) HeightAt(lon, lat float64) float64 {
	col := (lon - g.cfg.OriginLon) / g.cfg.StepLon
	row := (lat - g.cfg.OriginLat) / g.cfg.StepLat
	if math.IsNaN(col) || math.IsNaN(row) ||
		col < 0 || row < 0 || col > float64(g.cfg.Width-1) || row > float64(g.cfg.Height-1) {
		return g.cfg.DefaultHeight
	}

	x0 := int(math.Floor(col))
	y0 := int(math.Floor(row))
	if x0 == g.cfg.Width-1 {
		x0--
	}
	if y0 == g.cfg.Height-1 {
		y0--
	}
	dx := col - float64(x0)
	dy := row - float64(y0)

	var height float64
	for _, p := range [4]struct {
		x, y int
		w    float64
	}{
		{x0, y0, (1 - dx) * (1 - dy)},
		{x0 + 1, y0, dx * (1 - dy)},
		{x0, y0 + 1, (1 - dx) * dy},
		{x0 + 1, y0 + 1, dx * dy},
	} {
		if p.w == 0 {
			continue
		}
		h := g.post(p.x, p.y)
		if math.IsNaN(h) {
			return g.cfg.DefaultHeight
		}
		height += h * p.w
	}
	return height
}

func (g *Grid) post(x, y int) float64 {
	return g.cfg.Values[y*g.cfg.Width+x]
}
