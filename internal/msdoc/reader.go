// Package msdoc is the document facade: it binds a tile range, a tile
// store, a tile manager, and a scan-number/time converter into the single
// read/write gateway the rest of the system uses to reach tiled scan data.
package msdoc

import (
	"sort"

	"github.com/phanidev19/msnontile/internal/errs"
	"github.com/phanidev19/msnontile/internal/numeric"
)

// ScanInfo is one row of a level-1 scan info list: vendor scan number paired
// with its retention time in minutes.
type ScanInfo struct {
	ScanNumber    int64
	RetentionTime float64
}

// XICWindow bounds an extracted-ion-chromatogram query.
type XICWindow struct {
	TimeStart, TimeEnd float64
	MzStart, MzEnd     float64
}

// ScanReader is the external collaborator this module treats as a black
// box: whatever vendor-format reader supplies scan data. Only the four
// operations the tile builder and document facade need are specified.
type ScanReader interface {
	OpenFile(path string) error
	ScanInfoListAtLevel(level int) ([]ScanInfo, error)
	GetScanData(scanNumber int64, centroided bool) ([]numeric.Point, error)
	GetXICData(window XICWindow, msLevel int) ([]numeric.Point, error)
}

// FakeReader is a deterministic in-memory ScanReader for tests: it never
// touches a real vendor file, serving whatever scans and points were
// registered with it.
type FakeReader struct {
	infos      []ScanInfo
	rawByScan  map[int64][]numeric.Point
	centByScan map[int64][]numeric.Point
}

// NewFakeReader creates an empty FakeReader; use AddScan to populate it.
func NewFakeReader() *FakeReader {
	return &FakeReader{
		rawByScan:  make(map[int64][]numeric.Point),
		centByScan: make(map[int64][]numeric.Point),
	}
}

// AddScan registers one scan's raw and centroided point lists, both assumed
// pre-sorted ascending by mz.
func (f *FakeReader) AddScan(scanNumber int64, retentionTime float64, raw, centroided []numeric.Point) {
	f.infos = append(f.infos, ScanInfo{ScanNumber: scanNumber, RetentionTime: retentionTime})
	f.rawByScan[scanNumber] = raw
	f.centByScan[scanNumber] = centroided
}

func (f *FakeReader) OpenFile(path string) error { return nil }

func (f *FakeReader) ScanInfoListAtLevel(level int) ([]ScanInfo, error) {
	if level != 1 {
		return nil, errs.Newf(errs.FunctionNotImplemented, "scan info only implemented for level 1, got %d", level)
	}
	out := append([]ScanInfo(nil), f.infos...)
	sort.Slice(out, func(i, j int) bool { return out[i].RetentionTime < out[j].RetentionTime })
	return out, nil
}

func (f *FakeReader) GetScanData(scanNumber int64, centroided bool) ([]numeric.Point, error) {
	m := f.rawByScan
	if centroided {
		m = f.centByScan
	}
	pts, ok := m[scanNumber]
	if !ok {
		return nil, errs.Newf(errs.SQLiteMissingContent, "no scan %d registered in fake reader", scanNumber)
	}
	return pts, nil
}

func (f *FakeReader) GetXICData(window XICWindow, msLevel int) ([]numeric.Point, error) {
	if msLevel != 1 {
		return nil, errs.Newf(errs.FunctionNotImplemented, "xic only implemented for ms level 1, got %d", msLevel)
	}
	var out []numeric.Point
	for _, info := range f.infos {
		if info.RetentionTime < window.TimeStart || info.RetentionTime > window.TimeEnd {
			continue
		}
		pts := f.centByScan[info.ScanNumber]
		var sum float64
		for _, p := range pts {
			if p.X >= window.MzStart && p.X <= window.MzEnd {
				sum += p.Y
			}
		}
		out = append(out, numeric.Point{X: info.RetentionTime, Y: sum})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].X < out[j].X })
	return out, nil
}
