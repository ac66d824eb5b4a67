package numeric

import (
	"bufio"
	"io"
	"math"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/phanidev19/msnontile/internal/errs"
)

// AreaMethod selects how computeAreaFast treats negative-area trapezoids.
type AreaMethod int

const (
	// KeepNegative sums signed trapezoid areas as-is.
	KeepNegative AreaMethod = iota
	// KeepNegativeButClampTotal sums signed areas, then clamps the final
	// result to zero if negative.
	KeepNegativeButClampTotal
	// IgnoreNegative zeros any trapezoid (or zero-crossing sub-triangle)
	// whose own signed area is negative before summing.
	IgnoreNegative
)

// FindDir selects whether FindPeaksIndex looks for maxima or minima.
type FindDir int

const (
	FindMax FindDir = iota
	FindMin
)

// CentroidMethod selects the weighting scheme for MakeCentroidedPoints.
type CentroidMethod int

const (
	// RelativeWeight weights each of the three samples by max(0, y),
	// clipping samples below the physical intensity floor before taking
	// the weighted average of x and y.
	RelativeWeight CentroidMethod = iota
	// NaiveMaxValue returns the local-maximum sample unchanged.
	NaiveMaxValue
)

// IndexRange restricts an operation to points[Start..End] inclusive.
type IndexRange struct {
	Start, End int
}

// Plot is an ordered 2-D point list ("PlotBase"): a sequence of points with
// a sortedAscendingX invariant. Appending a point less than the last clears
// the flag; SortByX sets it. Operations that depend on monotonicity
// (Evaluate, ComputeAreaFast, fast range queries) require the flag to be
// set; callers that violate it get degraded, but still correct, behavior.
type Plot struct {
	pts              []Point
	sortedAscendingX bool
}

// NewPlot creates a Plot from pts, determining the sorted flag by scanning.
func NewPlot(pts []Point) *Plot {
	p := &Plot{pts: append([]Point(nil), pts...)}
	p.sortedAscendingX = IsSortedAscendingX(p.pts)
	return p
}

// Points returns the underlying point slice. Callers must not retain it
// across a mutating call.
func (p *Plot) Points() []Point { return p.pts }

// Len returns the number of points.
func (p *Plot) Len() int { return len(p.pts) }

// AppendPoint appends pt, clearing the sorted flag if pt sorts before the
// current last point.
func (p *Plot) AppendPoint(pt Point) {
	if len(p.pts) > 0 && LessX(pt, p.pts[len(p.pts)-1]) {
		p.sortedAscendingX = false
	}
	p.pts = append(p.pts, pt)
}

// SortByX sorts the points ascending by x and sets the sorted flag.
func (p *Plot) SortByX() {
	SortByX(p.pts)
	p.sortedAscendingX = true
}

// IsSortedAscendingX reports the cached sorted flag.
func (p *Plot) IsSortedAscendingX() bool { return p.sortedAscendingX }

// Evaluate returns the plot's y value at x. With interpolate set, it
// linearly interpolates between the bracketing points; otherwise it snaps
// to the x-nearer of the two. Out-of-range x returns 0 unless
// useBoundaryValue is set, in which case the nearest boundary y is
// returned. x exactly at or within the plot's x-range always uses the real
// data, regardless of useBoundaryValue.
func (p *Plot) Evaluate(x float64, interpolate, useBoundaryValue bool) float64 {
	pts := p.pts
	n := len(pts)
	if n == 0 {
		return 0
	}
	if !p.sortedAscendingX {
		tmp := append([]Point(nil), pts...)
		SortByX(tmp)
		pts = tmp
	}

	i := floorIndexX(pts, x)
	if i < 0 {
		if useBoundaryValue {
			return pts[0].Y
		}
		return 0
	}
	if i == n-1 {
		if x == pts[n-1].X {
			return pts[n-1].Y
		}
		if useBoundaryValue {
			return pts[n-1].Y
		}
		return 0
	}

	a, b := pts[i], pts[i+1]
	if !interpolate {
		if x-a.X <= b.X-x {
			return a.Y
		}
		return b.Y
	}
	return lerpAt(a, b, x)
}

func lerpAt(a, b Point, x float64) float64 {
	dx := b.X - a.X
	if dx == 0 {
		return a.Y
	}
	t := (x - a.X) / dx
	return a.Y + t*(b.Y-a.Y)
}

// EvaluateLinear performs a linear-complexity parallel traversal of two
// sorted sequences: sortedXs (ascending) and the plot's own points. x values
// below the first point or above the last return 0. Duplicate x values in
// the plot's points are resolved by treating the last duplicate as the left
// bracket, matching the reference implementation's tested behavior.
func (p *Plot) EvaluateLinear(sortedXs []float64) []float64 {
	out := make([]float64, len(sortedXs))
	pts := p.pts
	if len(pts) == 0 {
		return out
	}
	j := 0
	for idx, x := range sortedXs {
		if x < pts[0].X || x > pts[len(pts)-1].X {
			out[idx] = 0
			continue
		}
		for j+1 < len(pts) && pts[j+1].X <= x {
			j++
		}
		if j >= len(pts)-1 {
			out[idx] = pts[len(pts)-1].Y
			continue
		}
		out[idx] = lerpAt(pts[j], pts[j+1], x)
	}
	return out
}

// signedTrapezoidArea returns the area under the line from (x0,y0) to
// (x1,y1), splitting at the zero crossing when the two y values have
// opposite, non-zero signs. When method is IgnoreNegative, any resulting
// triangle/trapezoid with negative signed area contributes zero.
func signedTrapezoidArea(x0, y0, x1, y1 float64, method AreaMethod) float64 {
	clip := func(a float64) float64 {
		if method == IgnoreNegative && a < 0 {
			return 0
		}
		return a
	}
	if (y0 >= 0) == (y1 >= 0) || y0 == 0 || y1 == 0 {
		return clip((y0 + y1) / 2 * (x1 - x0))
	}
	// Zero crossing: split into two triangles at x* where y interpolates to 0.
	xStar := x0 + y0/(y0-y1)*(x1-x0)
	t1 := clip(0.5 * y0 * (xStar - x0))
	t2 := clip(0.5 * y1 * (x1 - xStar))
	return t1 + t2
}

// ComputeAreaFast computes the trapezoid area between (tStart,
// Evaluate(tStart)), every sample strictly inside (tStart, tEnd), and
// (tEnd, Evaluate(tEnd)).
func (p *Plot) ComputeAreaFast(tStart, tEnd float64, method AreaMethod) float64 {
	if tEnd < tStart {
		tStart, tEnd = tEnd, tStart
	}
	xs := []float64{tStart}
	ys := []float64{p.Evaluate(tStart, true, false)}
	lo := lowerBoundX(p.pts, tStart)
	hi := upperBoundX(p.pts, tEnd)
	for i := lo; i < hi; i++ {
		if p.pts[i].X > tStart && p.pts[i].X < tEnd {
			xs = append(xs, p.pts[i].X)
			ys = append(ys, p.pts[i].Y)
		}
	}
	xs = append(xs, tEnd)
	ys = append(ys, p.Evaluate(tEnd, true, false))

	var sum float64
	for i := 1; i < len(xs); i++ {
		sum += signedTrapezoidArea(xs[i-1], ys[i-1], xs[i], ys[i], method)
	}
	if method == KeepNegativeButClampTotal && sum < 0 {
		return 0
	}
	return sum
}

// ComputeAreaSecondsUnit is ComputeAreaFast with the result scaled from a
// minutes time axis to seconds (×60).
func (p *Plot) ComputeAreaSecondsUnit(tStart, tEnd float64, method AreaMethod) float64 {
	return 60 * p.ComputeAreaFast(tStart, tEnd, method)
}

// FindPeaksIndex implements the classical "peakfinder" walk over alternating
// local minima/maxima: a candidate peak must be confirmed by a subsequent
// move of at least selectivity in the opposite direction before it is kept.
func (p *Plot) FindPeaksIndex(selectivity float64, dir FindDir, rng *IndexRange) []int {
	start, end := 0, len(p.pts)-1
	if rng != nil {
		start, end = rng.Start, rng.End
	}
	if end-start+1 < 3 {
		return nil
	}
	sign := 1.0
	if dir == FindMin {
		sign = -1
	}

	n := end - start + 1
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		y[i] = sign * p.pts[start+i].Y
	}

	var peaks []int
	maxVal, maxIdx := y[0], 0
	minVal := y[0]
	lookingForMax := true
	for i := 1; i < n; i++ {
		v := y[i]
		if v > maxVal {
			maxVal, maxIdx = v, i
		}
		if v < minVal {
			minVal = v
		}
		if lookingForMax {
			if v < maxVal-selectivity {
				peaks = append(peaks, maxIdx)
				minVal = v
				lookingForMax = false
			}
		} else {
			if v > minVal+selectivity {
				maxVal, maxIdx = v, i
				lookingForMax = true
			}
		}
	}
	for i := range peaks {
		peaks[i] += start
	}
	return peaks
}

// criticalPoints finds plateau-tolerant local extrema: runs of equal y are
// treated as one critical point when the value strictly outside the run (on
// whichever sides exist) is worse. Endpoints are critical only if strictly
// better than their single neighbor.
func criticalPoints(pts []Point, wantMax bool) []int {
	n := len(pts)
	if n == 0 {
		return nil
	}
	better := func(a, b float64) bool {
		if wantMax {
			return a > b
		}
		return a < b
	}
	var out []int
	i := 0
	for i < n {
		j := i
		for j+1 < n && pts[j+1].Y == pts[i].Y {
			j++
		}
		isWholeArray := i == 0 && j == n-1
		if !isWholeArray {
			switch {
			case i == 0:
				if better(pts[j].Y, pts[j+1].Y) {
					out = append(out, i)
				}
			case j == n-1:
				if better(pts[i].Y, pts[i-1].Y) {
					out = append(out, j)
				}
			default:
				if better(pts[i].Y, pts[i-1].Y) && better(pts[j].Y, pts[j+1].Y) {
					out = append(out, i)
				}
			}
		}
		i = j + 1
	}
	return out
}

// GetMaxIndexList returns the indices of plateau-tolerant local maxima.
func (p *Plot) GetMaxIndexList() []int { return criticalPoints(p.pts, true) }

// GetMinIndexList returns the indices of plateau-tolerant local minima.
func (p *Plot) GetMinIndexList() []int { return criticalPoints(p.pts, false) }

// MakeCentroidedPoints computes one centroid per local maximum with a full
// 3-point window (i-1, i, i+1 all present). RelativeWeight weights each
// sample by max(0, y) (clipping below-floor intensities to zero) and
// averages x and y by that weight; NaiveMaxValue returns the local maximum
// unchanged.
func (p *Plot) MakeCentroidedPoints(method CentroidMethod) []Point {
	maxIdx := criticalPoints(p.pts, true)
	var out []Point
	for _, i := range maxIdx {
		if i == 0 || i == len(p.pts)-1 {
			continue
		}
		if method == NaiveMaxValue {
			out = append(out, p.pts[i])
			continue
		}
		a, b, c := p.pts[i-1], p.pts[i], p.pts[i+1]
		wa, wb, wc := math.Max(0, a.Y), math.Max(0, b.Y), math.Max(0, c.Y)
		sumW := wa + wb + wc
		if sumW == 0 {
			out = append(out, p.pts[i])
			continue
		}
		out = append(out, Point{
			X: (a.X*wa + b.X*wb + c.X*wc) / sumW,
			Y: (a.Y*wa + b.Y*wb + c.Y*wc) / sumW,
		})
	}
	return out
}

// IntersectFlags controls which kind of intersections FindIntersectionPoints
// reports.
type IntersectFlags uint8

const (
	EndPoints IntersectFlags = 1 << iota
	MidPoints
)

// FindIntersectionPoints walks the plot segments overlapping [lineA.X,
// lineB.X] and reports intersections with the given line segment: exact
// overlap or transverse crossings.
func (p *Plot) FindIntersectionPoints(lineA, lineB Point, flags IntersectFlags) (points []Point, idx []int) {
	if len(p.pts) < 2 {
		return nil, nil
	}
	xStart, xEnd := lineA.X, lineB.X
	if xEnd < xStart {
		xStart, xEnd = xEnd, xStart
	}
	lo := floorIndexX(p.pts, xStart)
	if lo < 0 {
		lo = 0
	}
	hi := upperBoundX(p.pts, xEnd)
	if hi > len(p.pts)-1 {
		hi = len(p.pts) - 1
	}

	for i := lo; i < hi; i++ {
		s0, s1 := p.pts[i], p.pts[i+1]
		pt, kind, ok := segmentIntersect(s0, s1, lineA, lineB)
		if !ok {
			continue
		}
		if kind == kindEndpoint && flags&EndPoints == 0 {
			continue
		}
		if kind == kindMidpoint && flags&MidPoints == 0 {
			continue
		}
		points = append(points, pt)
		idx = append(idx, i)
	}
	return points, idx
}

type intersectKind int

const (
	kindEndpoint intersectKind = iota
	kindMidpoint
)

// segmentIntersect intersects segment (s0,s1) with (a,b). Determinants
// smaller than 1e-30 are treated as parallel (no intersection), per the
// fudge factor used to make "nearly zero" robust to floating-point noise.
func segmentIntersect(s0, s1, a, b Point) (Point, intersectKind, bool) {
	d1x, d1y := s1.X-s0.X, s1.Y-s0.Y
	d2x, d2y := b.X-a.X, b.Y-a.Y
	denom := d1x*d2y - d1y*d2x
	if math.Abs(denom) < 1e-30 {
		return Point{}, 0, false
	}
	t := ((a.X-s0.X)*d2y - (a.Y-s0.Y)*d2x) / denom
	u := ((a.X-s0.X)*d1y - (a.Y-s0.Y)*d1x) / denom
	if t < 0 || t > 1 || u < 0 || u > 1 {
		return Point{}, 0, false
	}
	pt := Point{X: s0.X + t*d1x, Y: s0.Y + t*d1y}
	kind := kindMidpoint
	if t == 0 || t == 1 {
		kind = kindEndpoint
	}
	return pt, kind, true
}

// AverageSampleWidth returns (lastX - firstX) / (n-1), or 0 for < 2 points.
func (p *Plot) AverageSampleWidth() float64 {
	if len(p.pts) < 2 {
		return 0
	}
	return (p.pts[len(p.pts)-1].X - p.pts[0].X) / float64(len(p.pts)-1)
}

// GetXBound returns the min and max x across all points (not assuming sort).
func (p *Plot) GetXBound() (min, max float64) {
	if len(p.pts) == 0 {
		return 0, 0
	}
	min, max = p.pts[0].X, p.pts[0].X
	for _, pt := range p.pts[1:] {
		if pt.X < min {
			min = pt.X
		}
		if pt.X > max {
			max = pt.X
		}
	}
	return min, max
}

// SubtractBy subtracts other, evaluated at each of this plot's x positions,
// from this plot's y values in place.
func (p *Plot) SubtractBy(other []Point) {
	o := NewPlot(other)
	o.SortByX()
	for i := range p.pts {
		p.pts[i].Y -= o.Evaluate(p.pts[i].X, true, false)
	}
}

// ApplyRandomYScale multiplies every y by a uniform random factor in
// [minScale, maxScale].
func (p *Plot) ApplyRandomYScale(minScale, maxScale float64, rng *rand.Rand) {
	for i := range p.pts {
		scale := minScale + rng.Float64()*(maxScale-minScale)
		p.pts[i].Y *= scale
	}
}

// RemovePointAt removes the point at index i.
func (p *Plot) RemovePointAt(i int) {
	p.pts = append(p.pts[:i], p.pts[i+1:]...)
}

// RemovePointsInRange removes all points with x in [xMin, xMax].
func (p *Plot) RemovePointsInRange(xMin, xMax float64) {
	out := p.pts[:0]
	for _, pt := range p.pts {
		if pt.X >= xMin && pt.X <= xMax {
			continue
		}
		out = append(out, pt)
	}
	p.pts = out
}

// ResizePointList truncates or zero-extends the point list to length n.
func (p *Plot) ResizePointList(n int) {
	if n <= len(p.pts) {
		p.pts = p.pts[:n]
		return
	}
	p.pts = append(p.pts, make([]Point, n-len(p.pts))...)
}

// IsUniform reports whether the x spacing is uniform within relativeTol,
// checked both by recursive bisection (halves of equal per-interval
// duration, tolerance scaled by 1/halfSize) and by a direct per-delta check.
func (p *Plot) IsUniform(relativeTol float64) bool {
	if len(p.pts) < 2 {
		return true
	}
	avg := p.AverageSampleWidth()
	if avg == 0 {
		return false
	}
	for i := 1; i < len(p.pts); i++ {
		d := p.pts[i].X - p.pts[i-1].X
		if math.Abs(d-avg) > relativeTol*avg {
			return false
		}
	}
	return isUniformBisect(p.pts, relativeTol)
}

func isUniformBisect(pts []Point, relativeTol float64) bool {
	n := len(pts)
	if n < 4 {
		return true
	}
	mid := n / 2
	// Per-interval durations, so halves with unequal point counts (odd n)
	// still compare equal when the spacing is uniform.
	leftDur := (pts[mid-1].X - pts[0].X) / float64(mid-1)
	rightDur := (pts[n-1].X - pts[mid].X) / float64(n-1-mid)
	tol := relativeTol / float64(mid)
	denom := math.Max(leftDur, rightDur)
	if denom > 0 && math.Abs(leftDur-rightDur) > tol*denom {
		return false
	}
	return isUniformBisect(pts[:mid], relativeTol) && isUniformBisect(pts[mid:], relativeTol)
}

// MakeResampledPlot uniformly resamples this plot at samplingInterval over
// its own x range, using Evaluate.
func (p *Plot) MakeResampledPlot(samplingInterval float64) *Plot {
	if len(p.pts) == 0 || samplingInterval <= 0 {
		return NewPlot(nil)
	}
	minX, maxX := p.GetXBound()
	var out []Point
	for x := minX; x <= maxX; x += samplingInterval {
		out = append(out, Point{X: x, Y: p.Evaluate(x, true, false)})
	}
	r := NewPlot(out)
	r.sortedAscendingX = true
	return r
}

// MakeResampledPlotMaxPoints uniformly resamples this plot into exactly n
// points spanning its x range.
func (p *Plot) MakeResampledPlotMaxPoints(n int) *Plot {
	if n < 2 || len(p.pts) == 0 {
		return NewPlot(nil)
	}
	minX, maxX := p.GetXBound()
	interval := (maxX - minX) / float64(n-1)
	if interval <= 0 {
		return NewPlot(nil)
	}
	return p.MakeResampledPlot(interval)
}

// LoadCSV reads "x,y" lines (comma, tab, or space separated), tolerating a
// non-numeric header line.
func LoadCSV(r io.Reader) (*Plot, error) {
	scanner := bufio.NewScanner(r)
	var pts []Point
	first := true
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.FieldsFunc(line, func(r rune) bool {
			return r == ',' || r == '\t' || r == ' '
		})
		if len(fields) < 2 {
			continue
		}
		x, errX := strconv.ParseFloat(fields[0], 64)
		y, errY := strconv.ParseFloat(fields[1], 64)
		if errX != nil || errY != nil {
			if first {
				first = false
				continue // tolerate a header line
			}
			continue
		}
		first = false
		pts = append(pts, Point{X: x, Y: y})
	}
	if err := scanner.Err(); err != nil {
		return nil, errs.Wrap(err, errs.FileOpen, "reading plot csv")
	}
	return NewPlot(pts), nil
}

// LoadCSVFile opens path and loads it via LoadCSV.
func LoadCSVFile(path string) (*Plot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.Wrap(err, errs.FileOpen, "opening plot csv")
	}
	defer f.Close()
	return LoadCSV(f)
}

// WriteCSV writes "x,y" lines, one per point.
func (p *Plot) WriteCSV(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, pt := range p.pts {
		if _, err := bw.WriteString(strconv.FormatFloat(pt.X, 'g', -1, 64) + "," +
			strconv.FormatFloat(pt.Y, 'g', -1, 64) + "\n"); err != nil {
			return errs.Wrap(err, errs.FileOpen, "writing plot csv")
		}
	}
	return bw.Flush()
}
