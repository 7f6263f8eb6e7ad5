package rpcmodel

import (
	"context"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"go.viam.com/test"
)

func TestGridPoints(t *testing.T) {
	points, err := GridPoints(r2.Point{X: 1001, Y: 501}, 3, 2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, points, test.ShouldResemble, []r2.Point{
		{X: 0, Y: 0}, {X: 500, Y: 0}, {X: 1000, Y: 0},
		{X: 0, Y: 500}, {X: 500, Y: 500}, {X: 1000, Y: 500},
	})

	_, err = GridPoints(r2.Point{X: 10, Y: 10}, 1, 5)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestGenerateLayeredGridOrder(t *testing.T) {
	gcps, err := GenerateLayeredGrid(context.Background(), affineModel{}, 4, 3, []float64{0, 250, 500})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, gcps, test.ShouldHaveLength, 36)
	for i, g := range gcps {
		test.That(t, g.Ground.Height, test.ShouldEqual, float64(i/12)*250)
		want, err := affineModel{}.LineSampleHeightToWorld(g.Image, g.Ground.Height)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, g.Ground, test.ShouldResemble, want)
	}
	test.That(t, gcps[11].Image, test.ShouldResemble, r2.Point{X: 999, Y: 999})

	_, err = GenerateLayeredGrid(context.Background(), affineModel{}, 4, 3, nil)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestGenerateGridCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := GenerateGrid(ctx, affineModel{}, 10, 10)
	test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)
}
