package feature

import (
	"math"

	"github.com/phanidev19/msnontile/internal/numeric"
)

// ISODIFF is the mass difference between consecutive isotope peaks for a
// singly-charged ion (the 13C-12C mass difference), used by the default isotope
// spacing charge and monoisotope determinators.
const ISODIFF = 1.0033548

// H is the mass of a proton, subtracted once per charge when converting a
// charged mz to an uncharged mass.
const H = 1.00727646

// ChargeDeterminator assigns a charge state to the cross-section around a
// seed mz. SearchRadius bounds how far from the seed mz the cross-section
// must extend to make that determination, per spec §4.L step 2's
// searchRadius = max(charge, mono) rule.
type ChargeDeterminator interface {
	DetermineCharge(scanPart []numeric.Point, mz float64) int
	SearchRadius() float64
}

// MonoisotopeDeterminator locates the monoisotopic peak relative to a seed
// mz once its charge is known, returning the isotope offset (in integer
// isotope-spacing units) and a confidence score.
type MonoisotopeDeterminator interface {
	DetermineMonoisotopeOffset(scanPart []numeric.Point, mz float64, charge int) (offset int, score float64)
	SearchRadius() float64
}

// IsotopeSpacingChargeDeterminator is the default charge determinator: it
// looks for a neighboring peak at ISODIFF/charge to the right of mz for
// each candidate charge, picking the first charge (1..maxCharge) with a
// matching peak within tolerance. This is deliberately simple relative to
// the neural-network lookup table alternative the spec mentions, which a
// production deployment would supply through the same interface.
type IsotopeSpacingChargeDeterminator struct {
	MaxCharge  int
	MzTolerance float64
}

// NewIsotopeSpacingChargeDeterminator returns a determinator with the
// conventional charge-state ceiling and a tight ppm-scale tolerance.
func NewIsotopeSpacingChargeDeterminator() *IsotopeSpacingChargeDeterminator {
	return &IsotopeSpacingChargeDeterminator{MaxCharge: 6, MzTolerance: 0.02}
}

func (d *IsotopeSpacingChargeDeterminator) SearchRadius() float64 { return 2.0 }

func (d *IsotopeSpacingChargeDeterminator) DetermineCharge(scanPart []numeric.Point, mz float64) int {
	for charge := 1; charge <= d.MaxCharge; charge++ {
		target := mz + ISODIFF/float64(charge)
		if hasPeakNear(scanPart, target, d.MzTolerance) {
			return charge
		}
	}
	return 1
}

// IsotopeSpacingMonoDeterminator is the default monoisotope determinator:
// it walks left from the seed mz by ISODIFF/charge steps as long as a peak
// is present, returning the negative offset of the furthest matching step
// (the monoisotopic candidate) and a score proportional to how many steps
// matched.
type IsotopeSpacingMonoDeterminator struct {
	MaxSteps    int
	MzTolerance float64
}

// NewIsotopeSpacingMonoDeterminator returns a determinator bounded to a
// handful of isotope steps below the seed.
func NewIsotopeSpacingMonoDeterminator() *IsotopeSpacingMonoDeterminator {
	return &IsotopeSpacingMonoDeterminator{MaxSteps: 3, MzTolerance: 0.02}
}

func (d *IsotopeSpacingMonoDeterminator) SearchRadius() float64 { return 2.0 }

func (d *IsotopeSpacingMonoDeterminator) DetermineMonoisotopeOffset(scanPart []numeric.Point, mz float64, charge int) (int, float64) {
	offset := 0
	for step := 1; step <= d.MaxSteps; step++ {
		target := mz - float64(step)*ISODIFF/float64(charge)
		if !hasPeakNear(scanPart, target, d.MzTolerance) {
			break
		}
		offset = -step
	}
	if offset == 0 {
		return 0, 0
	}
	return offset, float64(-offset) / float64(d.MaxSteps)
}

func hasPeakNear(pts []numeric.Point, target, tol float64) bool {
	for _, p := range pts {
		if math.Abs(p.X-target) <= tol {
			return true
		}
	}
	return false
}

// MonoisotopicMz converts a seed mz plus a monoisotope offset (in
// isotope-spacing units) into the monoisotopic mz, per spec §4.L step 4.
func MonoisotopicMz(seedMz float64, offset, charge int) float64 {
	return seedMz + float64(offset)*ISODIFF/float64(charge)
}

// UnchargedMass converts a monoisotopic mz at the given charge into the
// neutral (uncharged) mass, per spec §4.L step 4.
func UnchargedMass(monoisotopicMz float64, charge int) float64 {
	return monoisotopicMz*float64(charge) - float64(charge)*H
}

// MassAdjust projects an mz observed at fromCharge onto what it would read
// at toCharge, holding the underlying neutral mass fixed — used to build
// secondary-charge clusters from the main cluster's parent mz (spec §4.L
// step 7).
func MassAdjust(mz float64, fromCharge, toCharge int) float64 {
	mass := UnchargedMass(mz, fromCharge)
	return (mass + float64(toCharge)*H) / float64(toCharge)
}

// AveragineWindow is the (left, right) isotope-count range a neutral mass
// is expected to span, per the averagine-inspired static lookup table in
// spec §4.L step 5.
type AveragineWindow struct {
	Left, Right int
}

// averagineTable buckets neutral mass into increasingly wide isotope
// windows, mirroring how isotope envelopes broaden with peptide size.
// Values are representative breakpoints, not derived from a specific
// calibration set.
var averagineTable = []struct {
	maxMass float64
	window  AveragineWindow
}{
	{maxMass: 1000, window: AveragineWindow{Left: 1, Right: 2}},
	{maxMass: 2000, window: AveragineWindow{Left: 1, Right: 3}},
	{maxMass: 4000, window: AveragineWindow{Left: 2, Right: 5}},
	{maxMass: 8000, window: AveragineWindow{Left: 2, Right: 7}},
	{maxMass: math.MaxFloat64, window: AveragineWindow{Left: 3, Right: 10}},
}

// AveragineWindowFor looks up the isotope window for unchargedMass,
// extended by 1 on each side as spec §4.L step 5 requires.
func AveragineWindowFor(unchargedMass float64) AveragineWindow {
	for _, row := range averagineTable {
		if unchargedMass <= row.maxMass {
			return AveragineWindow{Left: row.window.Left + 1, Right: row.window.Right + 1}
		}
	}
	last := averagineTable[len(averagineTable)-1].window
	return AveragineWindow{Left: last.Left + 1, Right: last.Right + 1}
}

// CandidateNeighborMz returns seed_mz + k*ISODIFF/charge for k in
// [-window.Left, window.Right], excluding k == 0, per spec §4.L step 5.
func CandidateNeighborMz(seedMz float64, charge int, window AveragineWindow) []float64 {
	out := make([]float64, 0, window.Left+window.Right)
	for k := -window.Left; k <= window.Right; k++ {
		if k == 0 {
			continue
		}
		out = append(out, seedMz+float64(k)*ISODIFF/float64(charge))
	}
	return out
}

// DeterminatorRegistry lets a CLI select charge/monoisotope determinators
// by name, supplementing the spec's pluggable-determinator capability sets
// with a concrete way to wire that plug-in point from a command line.
type DeterminatorRegistry struct {
	charge map[string]func() ChargeDeterminator
	mono   map[string]func() MonoisotopeDeterminator
}

// NewDeterminatorRegistry returns a registry pre-populated with the default
// isotope-spacing determinators under the name "isodiff".
func NewDeterminatorRegistry() *DeterminatorRegistry {
	r := &DeterminatorRegistry{
		charge: make(map[string]func() ChargeDeterminator),
		mono:   make(map[string]func() MonoisotopeDeterminator),
	}
	r.charge["isodiff"] = func() ChargeDeterminator { return NewIsotopeSpacingChargeDeterminator() }
	r.mono["isodiff"] = func() MonoisotopeDeterminator { return NewIsotopeSpacingMonoDeterminator() }
	return r
}

// RegisterCharge adds or replaces a named charge determinator constructor.
func (r *DeterminatorRegistry) RegisterCharge(name string, ctor func() ChargeDeterminator) {
	r.charge[name] = ctor
}

// RegisterMono adds or replaces a named monoisotope determinator
// constructor.
func (r *DeterminatorRegistry) RegisterMono(name string, ctor func() MonoisotopeDeterminator) {
	r.mono[name] = ctor
}

// Charge instantiates the named charge determinator, or nil if unknown.
func (r *DeterminatorRegistry) Charge(name string) ChargeDeterminator {
	ctor, ok := r.charge[name]
	if !ok {
		return nil
	}
	return ctor()
}

// Mono instantiates the named monoisotope determinator, or nil if unknown.
func (r *DeterminatorRegistry) Mono(name string) MonoisotopeDeterminator {
	ctor, ok := r.mono[name]
	if !ok {
		return nil
	}
	return ctor()
}
