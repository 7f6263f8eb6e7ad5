package ephemeris

import (
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"
)

func cubic(t float64) r3.Vector {
	return r3.Vector{
		X: 1 + 2*t - 0.5*t*t + 0.1*t*t*t,
		Y: -3 * t,
		Z: 7000 + t*t,
	}
}

func sampled(n int, f func(float64) r3.Vector) ([]float64, []r3.Vector) {
	times := make([]float64, n)
	values := make([]r3.Vector, n)
	for i := range times {
		times[i] = float64(i)
		values[i] = f(times[i])
	}
	return times, values
}

func TestBilinear(t *testing.T) {
	times := []float64{10, 20, 30}
	values := []r3.Vector{{0, 0, 0}, {10, -10, 1}, {20, 0, 2}}

	test.That(t, Bilinear(5, times, values), test.ShouldResemble, values[0])
	test.That(t, Bilinear(10, times, values), test.ShouldResemble, values[0])
	test.That(t, Bilinear(30, times, values), test.ShouldResemble, values[2])
	test.That(t, Bilinear(1e9, times, values), test.ShouldResemble, values[2])

	mid := Bilinear(15, times, values)
	test.That(t, mid.X, test.ShouldAlmostEqual, 5)
	test.That(t, mid.Y, test.ShouldAlmostEqual, -5)
	test.That(t, mid.Z, test.ShouldAlmostEqual, 0.5)

	quarter := Bilinear(27.5, times, values)
	test.That(t, quarter.X, test.ShouldAlmostEqual, 17.5)

	test.That(t, Bilinear(1, nil, nil), test.ShouldResemble, r3.Vector{})
	single := []r3.Vector{{1, 2, 3}}
	test.That(t, Bilinear(-4, []float64{0}, single), test.ShouldResemble, single[0])
	test.That(t, Bilinear(4, []float64{0}, single), test.ShouldResemble, single[0])
}

func TestLagrangeExactForPolynomials(t *testing.T) {
	times, values := sampled(10, cubic)

	for _, at := range []float64{4, 4.25, 4.5, 5, 5.3, 5.99} {
		got, err := Lagrange(at, times, values, 0.01)
		test.That(t, err, test.ShouldBeNil)
		want := cubic(at)
		test.That(t, got.X, test.ShouldAlmostEqual, want.X, 1e-9)
		test.That(t, got.Y, test.ShouldAlmostEqual, want.Y, 1e-9)
		test.That(t, got.Z, test.ShouldAlmostEqual, want.Z, 1e-7)
	}
}

func TestLagrangeRange(t *testing.T) {
	times, values := sampled(10, cubic)

	_, err := Lagrange(3.999, times, values, 0.01)
	test.That(t, errors.Is(err, ErrOutOfRange), test.ShouldBeTrue)
	_, err = Lagrange(6, times, values, 0.01)
	test.That(t, errors.Is(err, ErrOutOfRange), test.ShouldBeTrue)

	// Eight samples halve the window to four.
	times8, values8 := sampled(8, cubic)
	got, err := Lagrange(2, times8, values8, 0.01)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got.X, test.ShouldAlmostEqual, cubic(2).X, 1e-9)
	_, err = Lagrange(1.5, times8, values8, 0.01)
	test.That(t, errors.Is(err, ErrOutOfRange), test.ShouldBeTrue)
	_, err = Lagrange(6, times8, values8, 0.01)
	test.That(t, errors.Is(err, ErrOutOfRange), test.ShouldBeTrue)

	times7, values7 := sampled(7, cubic)
	_, err = Lagrange(3, times7, values7, 0.01)
	test.That(t, errors.Is(err, ErrNotEnoughSamples), test.ShouldBeTrue)
}

func TestLagrangeWindow(t *testing.T) {
	times, _ := sampled(10, cubic)

	window, err := LagrangeWindow(4.5, times, 0.01)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, window, test.ShouldResemble, []int{1, 2, 3, 4, 5, 6, 7, 8})

	window, err = LagrangeWindow(5.02, times, 0.1)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, window, test.ShouldResemble, []int{2, 3, 4, 5, 6, 7, 8, 9})

	// A sample within half a period of t is skipped and the window grows by one.
	window, err = LagrangeWindow(4.98, times, 0.1)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, window, test.ShouldResemble, []int{1, 2, 3, 4, 6, 7, 8, 9})

	// At the top of the range the widened window slides down instead of running off the end.
	window, err = LagrangeWindow(5.98, times, 0.1)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, window, test.ShouldResemble, []int{1, 2, 3, 4, 5, 7, 8, 9})
	test.That(t, window, test.ShouldHaveLength, LagrangeFilterSize)
}

func TestValidateTimes(t *testing.T) {
	test.That(t, ValidateTimes("eph", []float64{0, 1, 2}), test.ShouldBeNil)

	err := ValidateTimes("eph", nil)
	test.That(t, errors.Is(err, ErrNotEnoughSamples), test.ShouldBeTrue)

	err = ValidateTimes("att", []float64{0, 2, 2, 1})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "att: sample 2")
	test.That(t, err.Error(), test.ShouldContainSubstring, "att: sample 3")
}
