package mathutil

import "math"

// WrapAngle maps an angle in radians into [0, 2π).
// Non-finite input maps to 0.
func WrapAngle(a float64) float64 {
	if math.IsNaN(a) || math.IsInf(a, 0) {
		return 0
	}

	a = math.Mod(a, TwoPi)
	if a < 0 {
		a += TwoPi
	}
	// math.Mod of a tiny negative value can round up to exactly 2π.
	if a >= TwoPi {
		a = 0
	}
	return a
}

// Clamp limits v to [lo, hi]. NaN maps to lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Lerp returns a + (b-a)·t.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// Stencil3 describes a three-point interpolation around a grid cell.
//
// Index is the first of the three consecutive grid indices and Weights the
// Lagrange weights for Index, Index+1 and Index+2.
type Stencil3 struct {
	Index   int
	Weights [3]float64
}

// NearStencil builds the three-point Lagrange stencil for a value lying
// at fraction frac ∈ [0, 1) of the cell starting at grid index i.
//
// The two bracketing points i and i+1 are always used. The third point is the
// neighbor on the side the value is nearer to: i−1 when frac < 0.5, otherwise
// i+2. A fraction of exactly 0.5 takes the upper neighbor.
func NearStencil(i int, frac float64) Stencil3 {
	if frac < lagrangeTieBreak {
		// Nodes at -1, 0, 1 relative to i, evaluated at frac.
		x := frac
		return Stencil3{
			Index: i - 1,
			Weights: [3]float64{
				lagrangeHalf * x * (x - 1),
				(1 + x) * (1 - x),
				lagrangeHalf * x * (x + 1),
			},
		}
	}

	// Nodes at 0, 1, 2 relative to i, evaluated at frac.
	x := frac
	return Stencil3{
		Index: i,
		Weights: [3]float64{
			lagrangeHalf * (x - 1) * (x - 2),
			x * (2 - x),
			lagrangeHalf * x * (x - 1),
		},
	}
}
