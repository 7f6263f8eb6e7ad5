package rpcmodel

import (
	"context"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"go.viam.com/sensorgeo/geodesy"
	"go.viam.com/sensorgeo/geomodel"
	"go.viam.com/sensorgeo/utils"
)

// GridPoints returns xSamples by ySamples image points spread evenly from (0, 0) to
// (W-1, H-1), row by row.
func GridPoints(size r2.Point, xSamples, ySamples int) ([]r2.Point, error) {
	if xSamples < 2 || ySamples < 2 {
		return nil, errors.Errorf("grid needs at least 2x2 samples, got %dx%d", xSamples, ySamples)
	}
	points := make([]r2.Point, 0, xSamples*ySamples)
	for j := 0; j < ySamples; j++ {
		for i := 0; i < xSamples; i++ {
			points = append(points, r2.Point{
				X: float64(i) / float64(xSamples-1) * (size.X - 1),
				Y: float64(j) / float64(ySamples-1) * (size.Y - 1),
			})
		}
	}
	return points, nil
}

// GenerateGrid locates a regular grid of image points on the model's terrain.
func GenerateGrid(ctx context.Context, model geomodel.Model, xSamples, ySamples int) ([]GCP, error) {
	return generate(ctx, model, xSamples, ySamples, model.LineSampleToWorld)
}

// GenerateLayeredGrid locates the same image grid at each height in heights, so that the height
// terms of a fit are observable. Layers are generated concurrently and returned in order.
func GenerateLayeredGrid(ctx context.Context, model geomodel.Model, xSamples, ySamples int, heights []float64) ([]GCP, error) {
	if len(heights) == 0 {
		return nil, errors.New("no height layers given")
	}
	layers := make([][]GCP, len(heights))
	g, gctx := errgroup.WithContext(ctx)
	for i, h := range heights {
		g.Go(func() error {
			layer, err := generate(gctx, model, xSamples, ySamples, func(img r2.Point) (geodesy.GeoPoint, error) {
				return model.LineSampleHeightToWorld(img, h)
			})
			if err != nil {
				return errors.Wrapf(err, "height layer %v", h)
			}
			layers[i] = layer
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return lo.Flatten(layers), nil
}

func generate(
	ctx context.Context,
	model geomodel.Model,
	xSamples, ySamples int,
	locate func(r2.Point) (geodesy.GeoPoint, error),
) ([]GCP, error) {
	size := model.ImageSize()
	points, err := GridPoints(r2.Point{X: float64(size.X), Y: float64(size.Y)}, xSamples, ySamples)
	if err != nil {
		return nil, err
	}
	gcps := make([]GCP, len(points))
	err = utils.GroupWorkParallel(ctx, len(points), nil, func(groupNum, groupSize, from, to int) (utils.MemberWorkFunc, utils.GroupWorkDoneFunc) {
		return func(memberNum, workNum int) error {
			ground, err := locate(points[workNum])
			if err != nil {
				return errors.Wrapf(err, "locating grid point %v", points[workNum])
			}
			gcps[workNum] = GCP{Image: points[workNum], Ground: ground}
			return nil
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return gcps, nil
}
