// Command ms-warp aligns two chromatography runs' time axes and reports the
// fitted anchor knots, optionally mapping a list of query times through the
// fit.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/phanidev19/msnontile/internal/errs"
	"github.com/phanidev19/msnontile/internal/warp"
)

func main() {
	var (
		segments          int
		samplesPerSegment int
		stretchPenalty    float64
		startOffsetB      float64
		globalSkew        int
		normalizeScale    int
		maxPoints         int
		mzMatchPPM        float64
		queryPath         string
		direction         string
		outPath           string
	)

	opts := warp.DefaultOptions()
	flag.IntVar(&segments, "segments", opts.NumberOfSegments, "Number of knots placed on run A (0 = derive from -samples-per-segment)")
	flag.IntVar(&samplesPerSegment, "samples-per-segment", opts.NumberOfSamplesPerSegment, "Samples per knot when -segments is 0")
	flag.Float64Var(&stretchPenalty, "stretch-penalty", opts.StretchPenalty, "Penalty on uneven knot-to-knot stretch")
	flag.Float64Var(&startOffsetB, "start-offset-b", opts.StartTimeOffsetB, "Fixed time offset applied to run B before alignment")
	flag.IntVar(&globalSkew, "global-skew", opts.GlobalSkew, "Max index deviation from the diagonal projection, per knot")
	flag.IntVar(&normalizeScale, "normalize-scale-factor", opts.NormalizeScaleFactor, "Scale-ratio threshold above which both runs are unit-normalized (0 = always)")
	flag.IntVar(&maxPoints, "max-points", opts.MaxTotalNumberOfPoints, "Ceiling run A is resampled down to before alignment")
	flag.Float64Var(&mzMatchPPM, "mz-match-ppm", opts.MzMatchPPM, "Reserved for a future mz-aware cost term")
	flag.StringVar(&queryPath, "query-times", "", "CSV of times (one per line) to map in the -direction given (optional)")
	flag.StringVar(&direction, "direction", "warp", "Direction to map -query-times in: warp (B->A) or unwarp (A->B)")
	flag.StringVar(&outPath, "out", "", "Anchor/mapped-time CSV output path (default: stdout)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ms-warp [flags] <run-a.csv> <run-b.csv>\n\n")
		fmt.Fprintf(os.Stderr, "Align two chromatography runs' (time,warp_element) CSVs.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) != 2 {
		flag.Usage()
		os.Exit(1)
	}
	if direction != "warp" && direction != "unwarp" {
		log.Fatalf("Unknown -direction %q, want warp or unwarp", direction)
	}

	opts.NumberOfSegments = segments
	opts.NumberOfSamplesPerSegment = samplesPerSegment
	opts.StretchPenalty = stretchPenalty
	opts.StartTimeOffsetB = startOffsetB
	opts.GlobalSkew = globalSkew
	opts.NormalizeScaleFactor = normalizeScale
	opts.MaxTotalNumberOfPoints = maxPoints
	opts.MzMatchPPM = mzMatchPPM

	start := time.Now()
	a, err := loadSequence(args[0])
	if err != nil {
		log.Fatalf("Reading run A: %v", err)
	}
	b, err := loadSequence(args[1])
	if err != nil {
		log.Fatalf("Reading run B: %v", err)
	}

	tw, err := warp.Build(a, b, opts)
	if err != nil {
		log.Fatalf("Building time warp: %v", err)
	}
	log.Printf("Fitted %d anchors in %v", len(tw.AnchorTimesA()), time.Since(start).Round(time.Millisecond))

	out := os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			log.Fatalf("Opening output: %v", err)
		}
		defer f.Close()
		out = f
	}

	w := csv.NewWriter(out)
	defer w.Flush()

	if queryPath == "" {
		if err := writeAnchors(w, tw); err != nil {
			log.Fatalf("Writing anchors: %v", err)
		}
		return
	}

	queryTimes, err := loadTimes(queryPath)
	if err != nil {
		log.Fatalf("Reading query times: %v", err)
	}
	if err := writeMapped(w, tw, direction, queryTimes); err != nil {
		log.Fatalf("Writing mapped times: %v", err)
	}
}

func writeAnchors(w *csv.Writer, tw *warp.TimeWarp2D) error {
	if err := w.Write([]string{"anchor_time_a", "anchor_time_b"}); err != nil {
		return err
	}
	as, bs := tw.AnchorTimesA(), tw.AnchorTimesB()
	n := len(as)
	if len(bs) < n {
		n = len(bs)
	}
	for i := 0; i < n; i++ {
		row := []string{
			strconv.FormatFloat(as[i], 'f', -1, 64),
			strconv.FormatFloat(bs[i], 'f', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func writeMapped(w *csv.Writer, tw *warp.TimeWarp2D, direction string, queryTimes []float64) error {
	if err := w.Write([]string{"query_time", "mapped_time"}); err != nil {
		return err
	}
	mapFn := tw.Warp
	if direction == "unwarp" {
		mapFn = tw.Unwarp
	}
	for _, t := range queryTimes {
		row := []string{
			strconv.FormatFloat(t, 'f', -1, 64),
			strconv.FormatFloat(mapFn(t), 'f', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// loadSequence reads a time,warp_element CSV (a header row, if present, is
// skipped automatically).
func loadSequence(path string) (warp.Sequence, error) {
	f, err := os.Open(path)
	if err != nil {
		return warp.Sequence{}, errs.Wrap(err, errs.FileOpen, "opening sequence CSV")
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	var seq warp.Sequence
	first := true
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return warp.Sequence{}, errs.Wrap(err, errs.FileOpen, "reading sequence CSV")
		}
		if len(rec) < 2 {
			continue
		}
		if first {
			first = false
			if _, perr := strconv.ParseFloat(rec[0], 64); perr != nil {
				continue // header row
			}
		}
		t, err := strconv.ParseFloat(rec[0], 64)
		if err != nil {
			return warp.Sequence{}, errs.Wrapf(err, errs.FileOpen, "parsing time %q", rec[0])
		}
		v, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return warp.Sequence{}, errs.Wrapf(err, errs.FileOpen, "parsing warp_element %q", rec[1])
		}
		seq.Time = append(seq.Time, t)
		seq.WarpElement = append(seq.WarpElement, v)
	}
	return seq, nil
}

// loadTimes reads a single-column CSV of times (a header row, if present, is
// skipped automatically).
func loadTimes(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.Wrap(err, errs.FileOpen, "opening query times CSV")
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	var out []float64
	first := true
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errs.Wrap(err, errs.FileOpen, "reading query times CSV")
		}
		if len(rec) < 1 {
			continue
		}
		if first {
			first = false
			if _, perr := strconv.ParseFloat(rec[0], 64); perr != nil {
				continue // header row
			}
		}
		t, err := strconv.ParseFloat(rec[0], 64)
		if err != nil {
			return nil, errs.Wrapf(err, errs.FileOpen, "parsing query time %q", rec[0])
		}
		out = append(out, t)
	}
	return out, nil
}
