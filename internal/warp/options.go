// Package warp aligns two chromatography runs' time axes: given a source
// run A and a target run B, it finds a monotonic correspondence between
// their times (anchor knots) and exposes warp/unwarp functions that map a
// time in one run's axis to the equivalent time in the other's.
package warp

// Options configures a TimeWarp2D build. Every field has the default named
// in its comment, as set by DefaultOptions. Build uses the fields as given:
// a zero-value Options does not pick up these defaults.
type Options struct {
	// NumberOfSegments bounds how many knots are placed on A when no
	// explicit anchor list is given. Default 600.
	NumberOfSegments int
	// StretchPenalty discourages the DP core from assigning very uneven
	// segment lengths between consecutive knots. Default 0 (disabled).
	StretchPenalty float64
	// StartTimeOffsetB shifts B's time axis before alignment, for runs
	// known to start with a fixed lag. Default 0.
	StartTimeOffsetB float64
	// GlobalSkew bounds how far a knot's B-index may deviate from its
	// diagonal-projected A-index; the DP band width is 2*GlobalSkew.
	// Default 500.
	GlobalSkew int
	// NormalizeScaleFactor: if the larger of max(|A|) and max(|B|) divided
	// by the smaller exceeds this, both sequences are scaled to unit
	// maximum before alignment. 0 means
	// always normalize. Default 0.
	NormalizeScaleFactor int
	// NumberOfSamplesPerSegment determines the default knot count as
	// len(A)/NumberOfSamplesPerSegment when NumberOfSegments is unset.
	// Default 4.
	NumberOfSamplesPerSegment int
	// MaxTotalNumberOfPoints is the ceiling A is resampled down to before
	// alignment. Default 10000.
	MaxTotalNumberOfPoints int
	// MzMatchPPM is an mz-match tolerance in ppm. Default 100.0. Build
	// does not read it: the alignment cost compares only warp_element
	// values plus the stretch penalty, with no mz matching.
	MzMatchPPM float64
	// AnchorTimeList, if non-empty, fixes the knot times on A directly
	// instead of placing them evenly. Default empty.
	AnchorTimeList []float64
}

// DefaultOptions returns the spec-mandated defaults.
func DefaultOptions() Options {
	return Options{
		NumberOfSegments:          600,
		StretchPenalty:            0,
		StartTimeOffsetB:          0,
		GlobalSkew:                500,
		NormalizeScaleFactor:      0,
		NumberOfSamplesPerSegment: 4,
		MaxTotalNumberOfPoints:    10_000,
		MzMatchPPM:                100.0,
		AnchorTimeList:            nil,
	}
}
