package feature

import (
	"math"
	"sort"
	"sync/atomic"

	"github.com/phanidev19/msnontile/internal/msdoc"
	"github.com/phanidev19/msnontile/internal/numeric"
	"github.com/phanidev19/msnontile/internal/tilecoord"
)

// HillAlgorithm selects which of the two explain_peak strategies
// HillFinder uses.
type HillAlgorithm int

const (
	// ZeroBounded walks scan indices outward from the seed until it hits
	// consecutiveEmptyLimit consecutive scans with no unselected points in
	// the mz band. The default, per spec §4.K.
	ZeroBounded HillAlgorithm = iota
	// ZScoreIntegration builds an XIC around the seed and runs z-score
	// peak detection to find the hill's scan-index extent.
	ZScoreIntegration
)

// IntegrationTimeLimit bounds the ZScoreIntegration XIC window on either
// side of the seed scan's time, in minutes.
const IntegrationTimeLimit = 2.0

// ZScore detection parameters: tuned constants without documented
// provenance, kept as named configuration per spec §9's open question on
// this exact point.
const (
	ZScoreThreshold = 4.0
	ZScoreInfluence = 0.015
)

// Hill is one extracted XIC peak: a contiguous mz/scan-index rectangle plus
// the points found within it.
type Hill struct {
	ID          int
	MzRect      tilecoord.MzInterval
	ScanStart   int
	ScanEnd     int
	Points      []HillPoint
	TilesTouched map[tilecoord.Pos]bool
}

// HillPoint is one point collected into a hill, carrying enough tile
// addressing to mark it processed afterward.
type HillPoint struct {
	Pos           tilecoord.Pos
	ScanIndex     int
	RowOffset     int
	InternalIndex int
	Mz, Intensity float64
}

// HillFinder builds hills from a session's unselected points. It owns the
// monotonic hill-id counter the spec requires be reset once per run.
type HillFinder struct {
	session         *Session
	algorithm       HillAlgorithm
	mzTolerance     float64
	consecutiveEmptyLimit int
	nextID          int64
}

// NewHillFinder builds a finder over session using algorithm and an mz
// tolerance band (the search width around a seed/neighbor mz).
func NewHillFinder(session *Session, algorithm HillAlgorithm, mzTolerance float64) *HillFinder {
	return &HillFinder{
		session:               session,
		algorithm:             algorithm,
		mzTolerance:           mzTolerance,
		consecutiveEmptyLimit: 1,
	}
}

// ResetID restarts the monotonic hill-id counter; call once per finder run.
func (h *HillFinder) ResetID() { atomic.StoreInt64(&h.nextID, 0) }

// NextID returns the next monotonically increasing hill id.
func (h *HillFinder) NextID() int { return int(atomic.AddInt64(&h.nextID, 1) - 1) }

// ExplainPeak builds a hill seeded at (mz, scanIndex), or nil if no
// unselected points exist in the seed band at all.
func (h *HillFinder) ExplainPeak(mz float64, scanIndex int) (*Hill, error) {
	switch h.algorithm {
	case ZScoreIntegration:
		return h.explainPeakZScore(mz, scanIndex)
	default:
		return h.explainPeakZeroBounded(mz, scanIndex)
	}
}

func (h *HillFinder) band(mz float64) (lo, hi float64) {
	half := h.mzTolerance / 2
	return mz - half, mz + half
}

// collectScan returns the unselected centroided points in [mzLo, mzHi] at
// scanIndex, tagged with tile addressing for later selection marking.
func (h *HillFinder) collectScan(mzLo, mzHi float64, scanIndex int) ([]HillPoint, error) {
	doc := h.session.Document()
	rng := doc.Range()
	pts, err := doc.GetScanData(scanIndex, mzLo, mzHi, true)
	if err != nil {
		return nil, err
	}
	if len(pts) == 0 {
		return nil, nil
	}
	ty := rng.TileY(scanIndex)
	rowOffset := rng.TileOffset(scanIndex)

	// Each point's InternalIndex is its position in its own tile's row
	// (the indexing the selection store and intensity index use), not in pts.
	tileRows := make(map[int][]numeric.Point)
	out := make([]HillPoint, 0, len(pts))
	for _, p := range pts {
		tx := rng.TileX(p.X)
		row, ok := tileRows[tx]
		if !ok {
			if row, err = doc.GetScanData(scanIndex, rng.MzAt(tx), rng.MzAt(tx+1), true); err != nil {
				return nil, err
			}
			tileRows[tx] = row
		}
		i := sort.Search(len(row), func(k int) bool { return row[k].X >= p.X })
		for i < len(row)-1 && row[i] != p {
			i++
		}
		pos := tilecoord.Pos{X: tx, Y: ty}
		selected, err := h.session.IsSelected(pos, rowOffset, i)
		if err != nil {
			return nil, err
		}
		if selected {
			continue
		}
		out = append(out, HillPoint{
			Pos: pos, ScanIndex: scanIndex, RowOffset: rowOffset, InternalIndex: i,
			Mz: p.X, Intensity: p.Y,
		})
	}
	return out, nil
}

func (h *HillFinder) explainPeakZeroBounded(mz float64, seedScan int) (*Hill, error) {
	mzLo, mzHi := h.band(mz)
	hill := &Hill{MzRect: tilecoord.MzInterval{Start: mzLo, End: mzHi}, ScanStart: seedScan, ScanEnd: seedScan,
		TilesTouched: make(map[tilecoord.Pos]bool)}

	seedPts, err := h.collectScan(mzLo, mzHi, seedScan)
	if err != nil {
		return nil, err
	}
	if len(seedPts) == 0 {
		return nil, nil
	}
	h.mergeScan(hill, seedScan, seedPts)

	if err := h.walk(hill, seedScan, +1, mzLo, mzHi); err != nil {
		return nil, err
	}
	if err := h.walk(hill, seedScan, -1, mzLo, mzHi); err != nil {
		return nil, err
	}
	return hill, nil
}

func (h *HillFinder) walk(hill *Hill, seedScan, dir int, mzLo, mzHi float64) error {
	empties := 0
	scan := seedScan
	for {
		scan += dir
		pts, err := h.collectScan(mzLo, mzHi, scan)
		if err != nil {
			return err
		}
		if len(pts) == 0 {
			empties++
			if empties >= h.consecutiveEmptyLimit {
				return nil
			}
			continue
		}
		empties = 0
		h.mergeScan(hill, scan, pts)
	}
}

func (h *HillFinder) mergeScan(hill *Hill, scan int, pts []HillPoint) {
	hill.Points = append(hill.Points, pts...)
	for _, p := range pts {
		hill.TilesTouched[p.Pos] = true
		if p.Mz < hill.MzRect.Start {
			hill.MzRect.Start = p.Mz
		}
		if p.Mz > hill.MzRect.End {
			hill.MzRect.End = p.Mz
		}
	}
	if scan < hill.ScanStart {
		hill.ScanStart = scan
	}
	if scan > hill.ScanEnd {
		hill.ScanEnd = scan
	}
}

func (h *HillFinder) explainPeakZScore(mz float64, seedScan int) (*Hill, error) {
	doc := h.session.Document()
	cv := doc.Converter()
	seedTime := cv.TimeAt(seedScan)
	mzLo, mzHi := h.band(mz)

	xic, err := doc.GetXICData(msdoc.XICWindow{
		TimeStart: seedTime - IntegrationTimeLimit, TimeEnd: seedTime + IntegrationTimeLimit,
		MzStart: mzLo, MzEnd: mzHi,
	}, true)
	if err != nil {
		return nil, err
	}
	if len(xic) == 0 {
		return nil, nil
	}
	ys := make([]float64, len(xic))
	for i, p := range xic {
		ys[i] = p.Y
	}
	lag := int(math.Ceil(0.25 * float64(len(ys))))
	signals := zScorePeaks(ys, lag, ZScoreThreshold, ZScoreInfluence)

	seedOffset := cv.TimeToScanIndex(seedTime - IntegrationTimeLimit)
	seedPos := seedScan - seedOffset
	start, end, found := peakIntervalContaining(signals, seedPos)
	if !found {
		return h.explainPeakZeroBounded(mz, seedScan)
	}
	scanStart := seedOffset + start
	scanEnd := seedOffset + end

	hill := &Hill{MzRect: tilecoord.MzInterval{Start: mzLo, End: mzHi}, ScanStart: scanStart, ScanEnd: scanEnd,
		TilesTouched: make(map[tilecoord.Pos]bool)}
	for scan := scanStart; scan <= scanEnd; scan++ {
		pts, err := h.collectScan(mzLo, mzHi, scan)
		if err != nil {
			return nil, err
		}
		h.mergeScan(hill, scan, pts)
	}
	if len(hill.Points) == 0 {
		return nil, nil
	}
	return hill, nil
}

// zScorePeaks flags each sample as +1/-1/0 relative to a rolling
// mean/stddev of the lag most recent samples, smoothing flagged samples by
// influence before folding them into that rolling window. This is the
// classical Brakel/van Brakel moving z-score peak detector.
func zScorePeaks(ys []float64, lag int, threshold, influence float64) []int {
	n := len(ys)
	signals := make([]int, n)
	if lag < 1 || lag >= n {
		return signals
	}
	filtered := append([]float64(nil), ys[:lag]...)
	mean, stddev := meanStd(filtered)

	for i := lag; i < n; i++ {
		if stddev > 0 && math.Abs(ys[i]-mean) > threshold*stddev {
			if ys[i] > mean {
				signals[i] = 1
			} else {
				signals[i] = -1
			}
			filtered = append(filtered, influence*ys[i]+(1-influence)*filtered[len(filtered)-1])
		} else {
			signals[i] = 0
			filtered = append(filtered, ys[i])
		}
		window := filtered[len(filtered)-lag:]
		mean, stddev = meanStd(window)
	}
	return signals
}

func meanStd(xs []float64) (mean, stddev float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	for _, x := range xs {
		stddev += (x - mean) * (x - mean)
	}
	stddev = math.Sqrt(stddev / float64(len(xs)))
	return mean, stddev
}

// peakIntervalContaining returns the contiguous run of nonzero signal
// values containing index seed, or found=false if seed's signal is 0.
func peakIntervalContaining(signals []int, seed int) (start, end int, found bool) {
	if seed < 0 || seed >= len(signals) || signals[seed] == 0 {
		return 0, 0, false
	}
	sign := signals[seed]
	start, end = seed, seed
	for start > 0 && signals[start-1] == sign {
		start--
	}
	for end < len(signals)-1 && signals[end+1] == sign {
		end++
	}
	return start, end, true
}

// ExplainNeighbor builds a hill at neighborMz spanning the same scan-index
// extent as parent, or nil if no unselected points are found there.
func (h *HillFinder) ExplainNeighbor(neighborMz float64, parent *Hill) (*Hill, error) {
	mzLo, mzHi := h.band(neighborMz)
	hill := &Hill{MzRect: tilecoord.MzInterval{Start: mzLo, End: mzHi}, ScanStart: parent.ScanStart, ScanEnd: parent.ScanEnd,
		TilesTouched: make(map[tilecoord.Pos]bool)}
	for scan := parent.ScanStart; scan <= parent.ScanEnd; scan++ {
		pts, err := h.collectScan(mzLo, mzHi, scan)
		if err != nil {
			return nil, err
		}
		h.mergeScan(hill, scan, pts)
	}
	if len(hill.Points) == 0 {
		return nil, nil
	}
	return hill, nil
}

// MakeDefaultHill is the fallback hill that is never empty given a valid
// seed point: it collects the seed scan's mz band only.
func (h *HillFinder) MakeDefaultHill(pt *TilePoint) (*Hill, error) {
	mzLo, mzHi := h.band(pt.Mz)
	hill := &Hill{MzRect: tilecoord.MzInterval{Start: mzLo, End: mzHi}, ScanStart: pt.ScanIndex, ScanEnd: pt.ScanIndex,
		TilesTouched: make(map[tilecoord.Pos]bool)}
	pts, err := h.collectScan(mzLo, mzHi, pt.ScanIndex)
	if err != nil {
		return nil, err
	}
	h.mergeScan(hill, pt.ScanIndex, pts)
	return hill, nil
}

// MarkPointsAsProcessed sets the selection bit for every point in hill, and
// tags each with hill.ID in the hill-id store (a no-op if the session
// wasn't built with hill ids).
func (h *HillFinder) MarkPointsAsProcessed(hill *Hill) error {
	rng := h.session.Document().Range()
	height := rng.ScanIndexTileHeight()
	for _, p := range hill.Points {
		if err := h.session.MarkSelected(p.Pos, p.RowOffset, p.InternalIndex, height); err != nil {
			return err
		}
		if err := h.session.MarkHillID(p.Pos, p.RowOffset, p.InternalIndex, height, hill.ID); err != nil {
			return err
		}
	}
	return nil
}

// HillXIC reduces a hill's points to a scan-ordered (scan_index, intensity)
// series, summing intensities within each scan.
func HillXIC(hill *Hill) []numeric.Point {
	sums := make(map[int]float64, hill.ScanEnd-hill.ScanStart+1)
	for _, p := range hill.Points {
		sums[p.ScanIndex] += p.Intensity
	}
	out := make([]numeric.Point, 0, hill.ScanEnd-hill.ScanStart+1)
	for scan := hill.ScanStart; scan <= hill.ScanEnd; scan++ {
		out = append(out, numeric.Point{X: float64(scan), Y: sums[scan]})
	}
	return out
}
