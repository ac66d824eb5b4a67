package msdoc

import "testing"

func buildTestConverter() *ScanConverter {
	return NewScanConverter([]ScanInfo{
		{ScanNumber: 101, RetentionTime: 0.0},
		{ScanNumber: 102, RetentionTime: 0.5},
		{ScanNumber: 103, RetentionTime: 1.0},
		{ScanNumber: 104, RetentionTime: 1.5},
	})
}

func TestScanConverterScanIndexOf(t *testing.T) {
	c := buildTestConverter()
	if got := c.ScanIndexOf(103); got != 2 {
		t.Errorf("ScanIndexOf(103) = %d, want 2", got)
	}
	if got := c.ScanIndexOf(999); got != -1 {
		t.Errorf("ScanIndexOf(999) = %d, want -1", got)
	}
}

func TestScanConverterTimeToScanIndex(t *testing.T) {
	c := buildTestConverter()
	if got := c.TimeToScanIndex(0.5); got != 1 {
		t.Errorf("TimeToScanIndex(0.5) = %d, want 1", got)
	}
	if got := c.TimeToScanIndex(0.6); got != 2 {
		t.Errorf("TimeToScanIndex(0.6) = %d, want 2", got)
	}
}

func TestScanConverterClosestScanIndexForTimeTiesEarlier(t *testing.T) {
	c := buildTestConverter()
	// 0.75 is equidistant between index 1 (0.5) and index 2 (1.0); ties
	// resolve toward the earlier scan.
	if got := c.ClosestScanIndexForTime(0.75); got != 1 {
		t.Errorf("ClosestScanIndexForTime(0.75) = %d, want 1", got)
	}
	if got := c.ClosestScanIndexForTime(1.4); got != 3 {
		t.Errorf("ClosestScanIndexForTime(1.4) = %d, want 3", got)
	}
	if got := c.ClosestScanIndexForTime(-1); got != 0 {
		t.Errorf("ClosestScanIndexForTime(-1) = %d, want 0", got)
	}
}
