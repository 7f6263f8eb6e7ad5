package rpcmodel

// Terms returns the 20 cubic monomials in x (longitude), y (latitude) and z (height):
// 1, x, y, z, xy, xz, yz, x², y², z², xyz, x³, xy², xz², x²y, y³, yz², x²z, y²z, z³.
func Terms(x, y, z float64) [NumCoeffs]float64 {
	return [NumCoeffs]float64{
		1, x, y, z,
		x * y, x * z, y * z,
		x * x, y * y, z * z,
		x * y * z,
		x * x * x, x * y * y, x * z * z, x * x * y,
		y * y * y, y * z * z, x * x * z, y * y * z,
		z * z * z,
	}
}

// termPartials returns d/dx and d/dy of each term.
func termPartials(x, y, z float64) (dx, dy [NumCoeffs]float64) {
	dx = [NumCoeffs]float64{
		0, 1, 0, 0,
		y, z, 0,
		2 * x, 0, 0,
		y * z,
		3 * x * x, y * y, z * z, 2 * x * y,
		0, 0, 2 * x * z, 0,
		0,
	}
	dy = [NumCoeffs]float64{
		0, 0, 1, 0,
		x, 0, z,
		0, 2 * y, 0,
		x * z,
		0, 2 * x * y, 0, x * x,
		3 * y * y, z * z, 0, 2 * y * z,
		0,
	}
	return dx, dy
}

func dot(coeffs *[NumCoeffs]float64, terms *[NumCoeffs]float64) float64 {
	var sum float64
	for i := range coeffs {
		sum += coeffs[i] * terms[i]
	}
	return sum
}

// ratio evaluates num/den and its partials with respect to x and y.
func ratio(num, den *[NumCoeffs]float64, t, dx, dy *[NumCoeffs]float64) (value, dvdx, dvdy float64) {
	n, d := dot(num, t), dot(den, t)
	ndx, ndy := dot(num, dx), dot(num, dy)
	ddx, ddy := dot(den, dx), dot(den, dy)
	value = n / d
	dvdx = (ndx*d - n*ddx) / (d * d)
	dvdy = (ndy*d - n*ddy) / (d * d)
	return value, dvdx, dvdy
}
