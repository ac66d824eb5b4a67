package numeric

import (
	"bufio"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/phanidev19/msnontile/internal/errs"
)

// Grid is a uniformly spaced 1-D sample series: Ys[i] is the value at
// Start + float64(i)*Step. Smoothing, resampling, and stop-list masking all
// operate in this fixed-step world, converting to/from pixel (index) units
// as needed.
type Grid struct {
	Start float64
	Step  float64
	Ys    []float64
}

// NewGridBySize builds a Grid spanning [start, end] with exactly size
// samples (step = (end-start)/(size-1)).
func NewGridBySize(start, end float64, size int) (*Grid, error) {
	if size < 1 {
		return nil, errs.Newf(errs.BadParameter, "grid size must be >= 1, got %d", size)
	}
	if end < start {
		return nil, errs.Newf(errs.BadParameter, "grid end %v before start %v", end, start)
	}
	step := 0.0
	if size > 1 {
		step = (end - start) / float64(size-1)
	}
	return &Grid{Start: start, Step: step, Ys: make([]float64, size)}, nil
}

// NewGridByStep builds a Grid spanning [start, end] with fixed step,
// computing size as floor((end-start+step)/step) to include the right edge
// when it lands on (or just past) a sample boundary.
func NewGridByStep(start, end, step float64) (*Grid, error) {
	if step <= 0 {
		return nil, errs.Newf(errs.BadParameter, "grid step must be positive, got %v", step)
	}
	if end < start {
		return nil, errs.Newf(errs.BadParameter, "grid end %v before start %v", end, start)
	}
	size := int(math.Floor((end - start + step) / step))
	return &Grid{Start: start, Step: step, Ys: make([]float64, size)}, nil
}

// Len returns the sample count.
func (g *Grid) Len() int { return len(g.Ys) }

// XAt returns the x coordinate of sample i.
func (g *Grid) XAt(i int) float64 { return g.Start + float64(i)*g.Step }

// End returns the x coordinate of the last sample.
func (g *Grid) End() float64 {
	if len(g.Ys) == 0 {
		return g.Start
	}
	return g.XAt(len(g.Ys) - 1)
}

// IndexAt returns the nearest sample index for x, clamped to [0, len-1].
func (g *Grid) IndexAt(x float64) int {
	if g.Step == 0 || len(g.Ys) == 0 {
		return 0
	}
	i := int(math.Round((x - g.Start) / g.Step))
	if i < 0 {
		return 0
	}
	if i >= len(g.Ys) {
		return len(g.Ys) - 1
	}
	return i
}

// Smooth applies a Gaussian kernel of world-space width sigma, converting to
// pixel space via sigma/Step before convolving with a zero boundary.
func (g *Grid) Smooth(sigma float64) {
	if g.Step <= 0 || len(g.Ys) == 0 {
		return
	}
	pixelSigma := sigma / g.Step
	g.Ys = Convolve(g.Ys, GaussianKernel(pixelSigma), ZeroBoundary)
}

// SmoothMexicanHat applies a narrow-minus-broad Gaussian difference kernel,
// both widths converted from world to pixel space.
func (g *Grid) SmoothMexicanHat(sigma1, sigma2, weight float64) {
	if g.Step <= 0 || len(g.Ys) == 0 {
		return
	}
	p1 := sigma1 / g.Step
	p2 := sigma2 / g.Step
	g.Ys = Convolve(g.Ys, MexicanHatKernel(p1, p2, weight), ZeroBoundary)
}

// StopWindow masks out [Center-Tolerance, Center+Tolerance].
type StopWindow struct {
	Center, Tolerance float64
}

// ApplyStopList sequentially scans the stop windows and, for each one,
// replaces every sample inside it with the value of the sample just before
// the window started. Windows are assumed spaced at least 4*Tolerance
// apart, matching the reference tool's calibration-exclusion use case.
func (g *Grid) ApplyStopList(stops []StopWindow) {
	for _, s := range stops {
		lo := g.IndexAt(s.Center - s.Tolerance)
		hi := g.IndexAt(s.Center + s.Tolerance)
		if lo <= 0 || lo >= len(g.Ys) {
			continue
		}
		hold := g.Ys[lo-1]
		for i := lo; i <= hi && i < len(g.Ys); i++ {
			g.Ys[i] = hold
		}
	}
}

// Normalize scales all samples so the maximum becomes 1. A grid with a
// non-positive maximum is left unchanged.
func (g *Grid) Normalize() {
	max := 0.0
	for _, y := range g.Ys {
		if y > max {
			max = y
		}
	}
	if max <= 0 {
		return
	}
	for i := range g.Ys {
		g.Ys[i] /= max
	}
}

// NoiseSigma estimates the noise floor as the standard deviation of the
// lowest percentile fraction of samples by value, a cheap substitute for
// fitting a baseline model.
func (g *Grid) NoiseSigma(percentile float64) float64 {
	n := len(g.Ys)
	if n == 0 {
		return 0
	}
	sorted := append([]float64(nil), g.Ys...)
	sort.Float64s(sorted)
	k := int(float64(n) * percentile)
	if k < 1 {
		k = 1
	}
	if k > n {
		k = n
	}
	sample := sorted[:k]
	var mean float64
	for _, v := range sample {
		mean += v
	}
	mean /= float64(len(sample))
	var variance float64
	for _, v := range sample {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(sample))
	return math.Sqrt(variance)
}

// Accumulate adds plot, evaluated at each grid sample's x, into this grid.
func (g *Grid) Accumulate(p *Plot) {
	for i := range g.Ys {
		g.Ys[i] += p.Evaluate(g.XAt(i), true, false)
	}
}

// AccumulateGrid adds other into this grid sample-by-sample, requiring
// identical Start/Step/Len.
func (g *Grid) AccumulateGrid(other *Grid) error {
	if g.Start != other.Start || g.Step != other.Step || len(g.Ys) != len(other.Ys) {
		return errs.New(errs.BadParameter, "accumulate: grids have mismatched geometry")
	}
	for i := range g.Ys {
		g.Ys[i] += other.Ys[i]
	}
	return nil
}

// CreateResample rebuilds this grid at a new step over the same x range,
// linearly interpolating between the original samples.
func (g *Grid) CreateResample(newStep float64) (*Grid, error) {
	out, err := NewGridByStep(g.Start, g.End(), newStep)
	if err != nil {
		return nil, err
	}
	pts := make([]Point, len(g.Ys))
	for i, y := range g.Ys {
		pts[i] = Point{X: g.XAt(i), Y: y}
	}
	plot := NewPlot(pts)
	plot.sortedAscendingX = true
	for i := range out.Ys {
		out.Ys[i] = plot.Evaluate(out.XAt(i), true, true)
	}
	return out, nil
}

// MakeCentroidedPlot converts the grid to a Plot and runs
// Plot.MakeCentroidedPoints against it.
func (g *Grid) MakeCentroidedPlot(method CentroidMethod) []Point {
	pts := make([]Point, len(g.Ys))
	for i, y := range g.Ys {
		pts[i] = Point{X: g.XAt(i), Y: y}
	}
	plot := NewPlot(pts)
	plot.sortedAscendingX = true
	return plot.MakeCentroidedPoints(method)
}

// LoadGridCSV reads "x,y" samples and rebuilds a uniform grid, requiring the
// rows to already be uniformly spaced (within a 1% relative tolerance).
func LoadGridCSV(r io.Reader) (*Grid, error) {
	scanner := bufio.NewScanner(r)
	var pts []Point
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
			continue
		}
		pts = append(pts, Point{X: x, Y: y})
	}
	if err := scanner.Err(); err != nil {
		return nil, errs.Wrap(err, errs.FileOpen, "reading grid csv")
	}
	if len(pts) == 0 {
		return &Grid{}, nil
	}
	plot := NewPlot(pts)
	if !plot.IsSortedAscendingX() {
		plot.SortByX()
	}
	if !plot.IsUniform(0.01) {
		return nil, errs.New(errs.BadParameter, "grid csv rows are not uniformly spaced")
	}
	step := plot.AverageSampleWidth()
	g := &Grid{Start: pts[0].X, Step: step, Ys: make([]float64, len(pts))}
	for i, pt := range plot.Points() {
		g.Ys[i] = pt.Y
	}
	return g, nil
}

// LoadGridCSVFile opens path and loads it via LoadGridCSV.
func LoadGridCSVFile(path string) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.Wrap(err, errs.FileOpen, "opening grid csv")
	}
	defer f.Close()
	return LoadGridCSV(f)
}

// WriteCSV writes "x,y" lines, one per sample.
func (g *Grid) WriteCSV(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for i, y := range g.Ys {
		if _, err := bw.WriteString(strconv.FormatFloat(g.XAt(i), 'g', -1, 64) + "," +
			strconv.FormatFloat(y, 'g', -1, 64) + "\n"); err != nil {
			return errs.Wrap(err, errs.FileOpen, "writing grid csv")
		}
	}
	return bw.Flush()
}
