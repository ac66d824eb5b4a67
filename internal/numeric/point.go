// Package numeric implements the 1-D numeric primitives every higher layer
// of the tile engine depends on: a uniform-grid resampler (Grid) and a
// piecewise-linear plot evaluator with binary-search accelerators (Plot).
package numeric

import "sort"

// Point is an ordered (x, y) pair: x is typically mz or retention time, y is
// intensity. Ordering relations LessX/LessY are the sole comparators used
// throughout the package.
type Point struct {
	X, Y float64
}

// LessX reports whether a sorts strictly before b by x.
func LessX(a, b Point) bool { return a.X < b.X }

// LessY reports whether a sorts strictly before b by y.
func LessY(a, b Point) bool { return a.Y < b.Y }

// SortByX sorts pts ascending by x in place.
func SortByX(pts []Point) {
	sort.Slice(pts, func(i, j int) bool { return LessX(pts[i], pts[j]) })
}

// IsSortedAscendingX reports whether pts is already ascending by x.
func IsSortedAscendingX(pts []Point) bool {
	for i := 1; i < len(pts); i++ {
		if pts[i].X < pts[i-1].X {
			return false
		}
	}
	return true
}

// lowerBoundX returns the index of the first point with X >= x.
func lowerBoundX(pts []Point, x float64) int {
	return sort.Search(len(pts), func(i int) bool { return pts[i].X >= x })
}

// upperBoundX returns the index of the first point with X > x.
func upperBoundX(pts []Point, x float64) int {
	return sort.Search(len(pts), func(i int) bool { return pts[i].X > x })
}

// floorIndexX returns the largest index i with pts[i].X <= x, or -1 if no
// such index exists (x is left of every point). Requires pts sorted
// ascending by x.
func floorIndexX(pts []Point, x float64) int {
	i := upperBoundX(pts, x)
	return i - 1
}
