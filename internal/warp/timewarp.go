package warp

import (
	"math"
	"sort"

	"github.com/phanidev19/msnontile/internal/errs"
	"github.com/phanidev19/msnontile/internal/numeric"
)

// Sequence is one chromatography run's (time, warp_element) series, sorted
// ascending by time. WarpElement is whatever scalar the alignment scores
// on — typically total ion intensity at that time point.
type Sequence struct {
	Time        []float64
	WarpElement []float64
}

// TimeWarp2D is a built alignment between two runs: a monotonic
// correspondence expressed as parallel anchor-time arrays, plus warp/unwarp
// functions interpolating between them.
type TimeWarp2D struct {
	opts         Options
	anchorTimesA []float64
	anchorTimesB []float64
}

// Build aligns b onto a under opts, returning the fitted TimeWarp2D.
func Build(a, b Sequence, opts Options) (*TimeWarp2D, error) {
	if len(a.Time) < 2 || len(b.Time) < 2 {
		return nil, errs.New(errs.BadParameter, "time warp requires at least 2 samples per sequence")
	}
	if !sort.Float64sAreSorted(a.Time) || !sort.Float64sAreSorted(b.Time) {
		return nil, errs.New(errs.BadParameter, "time warp input sequences must be sorted ascending by time")
	}

	aSeq := preprocess(a, opts.MaxTotalNumberOfPoints)
	bSeq := resampleToLength(b, len(aSeq.Time))
	aSeq, bSeq = normalizeScale(aSeq, bSeq, opts.NormalizeScaleFactor)

	knotsA := buildKnotIndices(aSeq.Time, opts)
	skew := opts.GlobalSkew
	if skew <= 0 {
		skew = 1
	}
	knotsB := warpCore(aSeq.WarpElement, bSeq.WarpElement, knotsA, skew, opts.StretchPenalty)

	anchorTimesA := make([]float64, len(knotsA))
	anchorTimesB := make([]float64, len(knotsB))
	for i, idx := range knotsA {
		anchorTimesA[i] = aSeq.Time[idx]
	}
	for i, idx := range knotsB {
		anchorTimesB[i] = bSeq.Time[idx] + opts.StartTimeOffsetB
	}

	return &TimeWarp2D{opts: opts, anchorTimesA: anchorTimesA, anchorTimesB: anchorTimesB}, nil
}

// AnchorTimesA returns the fitted knot times on A.
func (w *TimeWarp2D) AnchorTimesA() []float64 { return w.anchorTimesA }

// AnchorTimesB returns the fitted knot times on B.
func (w *TimeWarp2D) AnchorTimesB() []float64 { return w.anchorTimesB }

// Warp maps a B-time to the equivalent A-time. Out of [anchorTimesB[0],
// anchorTimesB[last]], the result is t shifted by the nearest boundary
// knot's offset (its A-time minus its B-time), per spec §4.M.
func (w *TimeWarp2D) Warp(t float64) float64 {
	return mapTimeWithBoundaryTranslate(w.anchorTimesB, w.anchorTimesA, t)
}

// Unwarp maps an A-time to the equivalent B-time.
func (w *TimeWarp2D) Unwarp(t float64) float64 {
	return mapTimeWithBoundaryTranslate(w.anchorTimesA, w.anchorTimesB, t)
}

// MapTime is the general cross-mapping primitive spec §8's S6 scenario
// exercises directly: it locates the segment of source bracketing t,
// computes the fractional position within that segment, then applies the
// same fraction to the matching segment of target. source and target must
// be the same length and both ascending. Out-of-range t clamps to the
// nearest boundary value (no extrapolation) — Warp/Unwarp do not clamp:
// for their own out-of-range case they shift t by the boundary knot's
// offset instead.
func MapTime(source, target []float64, t float64) float64 {
	n := len(source)
	if n == 0 {
		return 0
	}
	if n == 1 || t <= source[0] {
		return target[0]
	}
	if t >= source[n-1] {
		return target[n-1]
	}
	i := sort.Search(n, func(i int) bool { return source[i] >= t }) - 1
	if i < 0 {
		i = 0
	}
	if i >= n-1 {
		i = n - 2
	}
	span := source[i+1] - source[i]
	if span == 0 {
		return target[i]
	}
	frac := (t - source[i]) / span
	return target[i] + frac*(target[i+1]-target[i])
}

func mapTimeWithBoundaryTranslate(source, target []float64, t float64) float64 {
	n := len(source)
	if n == 0 {
		return t
	}
	if t < source[0] {
		return t + (target[0] - source[0])
	}
	if t > source[n-1] {
		return t + (target[n-1] - source[n-1])
	}
	return MapTime(source, target, t)
}

// preprocess resamples a down to maxPoints if larger, or forces a uniform
// resample if it is not already uniformly spaced, per spec §4.M's
// pre-processing step.
func preprocess(s Sequence, maxPoints int) Sequence {
	plot := numeric.NewPlot(toPoints(s.Time, s.WarpElement))
	needsResample := plot.Len() > maxPoints || !plot.IsUniform(0.05)
	if !needsResample {
		return s
	}
	n := maxPoints
	if plot.Len() < n {
		n = plot.Len()
	}
	resampled := plot.MakeResampledPlotMaxPoints(n)
	return fromPoints(resampled.Points())
}

// resampleToLength resamples s to exactly n points if it is not already
// that length or not uniform, matching spec §4.M's "resample B to A's
// length if not uniform."
func resampleToLength(s Sequence, n int) Sequence {
	plot := numeric.NewPlot(toPoints(s.Time, s.WarpElement))
	if plot.Len() == n && plot.IsUniform(0.05) {
		return s
	}
	resampled := plot.MakeResampledPlotMaxPoints(n)
	return fromPoints(resampled.Points())
}

// normalizeScale scales both sequences to unit maximum if the ratio of
// their maxima exceeds scaleFactor (0 meaning always normalize), per spec
// §4.M.
func normalizeScale(a, b Sequence, scaleFactor int) (Sequence, Sequence) {
	maxA := maxAbs(a.WarpElement)
	maxB := maxAbs(b.WarpElement)
	if maxA == 0 || maxB == 0 {
		return a, b
	}
	ratio := maxA / maxB
	if ratio < 1 {
		ratio = 1 / ratio
	}
	if float64(scaleFactor) != 0 && ratio <= float64(scaleFactor) {
		return a, b
	}
	return scaleUnitMax(a, maxA), scaleUnitMax(b, maxB)
}

func scaleUnitMax(s Sequence, max float64) Sequence {
	out := Sequence{Time: s.Time, WarpElement: make([]float64, len(s.WarpElement))}
	for i, y := range s.WarpElement {
		out.WarpElement[i] = y / max
	}
	return out
}

func maxAbs(ys []float64) float64 {
	max := 0.0
	for _, y := range ys {
		if a := math.Abs(y); a > max {
			max = a
		}
	}
	return max
}

// buildKnotIndices places knot indices on a's time axis: at the explicit
// anchor times if opts.AnchorTimeList is non-empty, else N evenly spaced
// knots (N = len/samplesPerSegment, or NumberOfSegments when set) plus a
// final terminal knot at the last sample.
func buildKnotIndices(times []float64, opts Options) []int {
	n := len(times)
	if len(opts.AnchorTimeList) > 0 {
		idxs := make([]int, 0, len(opts.AnchorTimeList))
		for _, t := range opts.AnchorTimeList {
			idxs = append(idxs, nearestIndex(times, t))
		}
		return dedupSorted(idxs)
	}

	segments := opts.NumberOfSegments
	if segments <= 0 {
		if opts.NumberOfSamplesPerSegment > 0 {
			segments = n / opts.NumberOfSamplesPerSegment
		}
	}
	if segments < 1 {
		segments = 1
	}
	if segments > n-1 {
		segments = n - 1
	}

	idxs := make([]int, 0, segments+1)
	step := float64(n-1) / float64(segments)
	for i := 0; i < segments; i++ {
		idxs = append(idxs, int(math.Round(float64(i)*step)))
	}
	idxs = append(idxs, n-1) // final terminal knot
	return dedupSorted(idxs)
}

func nearestIndex(times []float64, t float64) int {
	i := sort.Search(len(times), func(i int) bool { return times[i] >= t })
	if i <= 0 {
		return 0
	}
	if i >= len(times) {
		return len(times) - 1
	}
	if t-times[i-1] <= times[i]-t {
		return i - 1
	}
	return i
}

func dedupSorted(idxs []int) []int {
	sort.Ints(idxs)
	out := idxs[:0]
	for i, v := range idxs {
		if i == 0 || v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}

func toPoints(xs, ys []float64) []numeric.Point {
	out := make([]numeric.Point, len(xs))
	for i := range xs {
		out[i] = numeric.Point{X: xs[i], Y: ys[i]}
	}
	return out
}

func fromPoints(pts []numeric.Point) Sequence {
	s := Sequence{Time: make([]float64, len(pts)), WarpElement: make([]float64, len(pts))}
	for i, p := range pts {
		s.Time[i] = p.X
		s.WarpElement[i] = p.Y
	}
	return s
}
