package utils

import "math"

// DegToRad converts degrees to radians.
func DegToRad(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// RadToDeg converts radians to degrees.
func RadToDeg(radians float64) float64 {
	return radians * 180 / math.Pi
}

// Square returns n*n.
func Square(n float64) float64 {
	return n * n
}

// Float64AlmostEqual compares two float64s and returns if the difference between them is less than epsilon.
func Float64AlmostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) < epsilon
}

// MaxAbs returns the largest absolute value in values, or 0 when empty.
func MaxAbs(values ...float64) float64 {
	var ret float64
	for _, v := range values {
		if a := math.Abs(v); a > ret {
			ret = a
		}
	}
	return ret
}
