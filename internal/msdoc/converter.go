package msdoc

import "sort"

// ScanConverter is a monotonically increasing (scan_number, retention_time)
// table. scan_index is the 0-based position in that table; scan_number is
// the vendor identifier. Reverse time lookups return the closest entry, not
// an interpolated position.
type ScanConverter struct {
	entries []ScanInfo
	indexOf map[int64]int
}

// NewScanConverter builds a converter from entries, which must already be
// sorted ascending by RetentionTime.
func NewScanConverter(entries []ScanInfo) *ScanConverter {
	c := &ScanConverter{entries: entries, indexOf: make(map[int64]int, len(entries))}
	for i, e := range entries {
		c.indexOf[e.ScanNumber] = i
	}
	return c
}

// Len returns the number of scans.
func (c *ScanConverter) Len() int { return len(c.entries) }

// ScanIndexOf returns the scan index for a vendor scan number, or -1 if
// unknown.
func (c *ScanConverter) ScanIndexOf(scanNumber int64) int {
	i, ok := c.indexOf[scanNumber]
	if !ok {
		return -1
	}
	return i
}

// ScanNumberAt returns the vendor scan number at scan index i.
func (c *ScanConverter) ScanNumberAt(i int) int64 {
	if i < 0 || i >= len(c.entries) {
		return -1
	}
	return c.entries[i].ScanNumber
}

// TimeAt returns the retention time at scan index i.
func (c *ScanConverter) TimeAt(i int) float64 {
	if i < 0 || i >= len(c.entries) {
		return 0
	}
	return c.entries[i].RetentionTime
}

// TimeToScanIndex binary-searches for the first scan index whose retention
// time is >= t.
func (c *ScanConverter) TimeToScanIndex(t float64) int {
	return sort.Search(len(c.entries), func(i int) bool { return c.entries[i].RetentionTime >= t })
}

// ClosestScanIndexForTime returns the index whose retention time is nearest
// t, breaking ties toward the earlier scan.
func (c *ScanConverter) ClosestScanIndexForTime(t float64) int {
	if len(c.entries) == 0 {
		return -1
	}
	i := c.TimeToScanIndex(t)
	if i <= 0 {
		return 0
	}
	if i >= len(c.entries) {
		return len(c.entries) - 1
	}
	before, after := c.entries[i-1].RetentionTime, c.entries[i].RetentionTime
	if t-before <= after-t {
		return i - 1
	}
	return i
}
