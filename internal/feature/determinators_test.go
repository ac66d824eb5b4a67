package feature

import (
	"testing"

	"github.com/phanidev19/msnontile/internal/numeric"
)

func TestIsotopeSpacingChargeDeterminatorPicksDoublyCharged(t *testing.T) {
	d := NewIsotopeSpacingChargeDeterminator()
	seedMz := 500.0
	scanPart := []numeric.Point{
		{X: seedMz, Y: 100},
		{X: seedMz + ISODIFF/2, Y: 40}, // matches charge 2 spacing
	}
	if got := d.DetermineCharge(scanPart, seedMz); got != 2 {
		t.Errorf("DetermineCharge = %d, want 2", got)
	}
}

func TestIsotopeSpacingMonoDeterminatorWalksLeft(t *testing.T) {
	d := NewIsotopeSpacingMonoDeterminator()
	seedMz := 500.0
	charge := 1
	scanPart := []numeric.Point{
		{X: seedMz, Y: 100},
		{X: seedMz - ISODIFF, Y: 60},
		{X: seedMz - 2*ISODIFF, Y: 20},
	}
	offset, score := d.DetermineMonoisotopeOffset(scanPart, seedMz, charge)
	if offset != -2 {
		t.Errorf("offset = %d, want -2", offset)
	}
	if score <= 0 {
		t.Errorf("score = %v, want > 0", score)
	}
}

func TestMassAdjustRoundTrip(t *testing.T) {
	mz1 := 500.0
	mz2 := MassAdjust(mz1, 1, 2)
	back := MassAdjust(mz2, 2, 1)
	if diff := back - mz1; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("round trip mass adjust = %v, want %v", back, mz1)
	}
}

func TestAveragineWindowForWidensWithMass(t *testing.T) {
	small := AveragineWindowFor(500)
	large := AveragineWindowFor(10000)
	if large.Left+large.Right <= small.Left+small.Right {
		t.Errorf("expected wider window for larger mass: small=%v large=%v", small, large)
	}
}

func TestCandidateNeighborMzExcludesZero(t *testing.T) {
	mzs := CandidateNeighborMz(500, 1, AveragineWindow{Left: 1, Right: 1})
	for _, mz := range mzs {
		if mz == 500 {
			t.Errorf("candidate list should exclude k=0 (seed itself): %v", mzs)
		}
	}
	if len(mzs) != 2 {
		t.Errorf("got %d candidates, want 2", len(mzs))
	}
}

func TestDeterminatorRegistryDefaults(t *testing.T) {
	r := NewDeterminatorRegistry()
	if r.Charge("isodiff") == nil {
		t.Error("expected default isodiff charge determinator")
	}
	if r.Mono("isodiff") == nil {
		t.Error("expected default isodiff mono determinator")
	}
	if r.Charge("unknown") != nil {
		t.Error("expected nil for unknown determinator name")
	}
}
