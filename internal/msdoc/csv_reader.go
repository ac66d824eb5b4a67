package msdoc

import (
	"encoding/csv"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/phanidev19/msnontile/internal/errs"
	"github.com/phanidev19/msnontile/internal/numeric"
)

// CSVScanReader is a concrete ScanReader backed by a long-form CSV file:
// one row per (scan, point), columns scan_number,retention_time,mz,
// intensity,centroided. It exists because this module's external
// ScanReader is, per spec §6, a black-box collaborator supplied by a
// vendor file reader; a CSV-backed reader gives the on-disk tile builder
// and CLI drivers a concrete, inspectable input format to run against
// without depending on any vendor SDK.
type CSVScanReader struct {
	infos      []ScanInfo
	rawByScan  map[int64][]numeric.Point
	centByScan map[int64][]numeric.Point
}

// NewCSVScanReader returns an empty reader; call OpenFile to load data.
func NewCSVScanReader() *CSVScanReader {
	return &CSVScanReader{
		rawByScan:  make(map[int64][]numeric.Point),
		centByScan: make(map[int64][]numeric.Point),
	}
}

func (r *CSVScanReader) OpenFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errs.Wrap(err, errs.FileOpen, "opening scan CSV")
	}
	defer f.Close()
	return r.load(f)
}

func (r *CSVScanReader) load(f io.Reader) error {
	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1

	rtByScan := make(map[int64]float64)
	first := true
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errs.Wrap(err, errs.FileOpen, "reading scan CSV")
		}
		if first {
			first = false
			if _, perr := strconv.ParseInt(rec[0], 10, 64); perr != nil {
				continue // header row
			}
		}
		if len(rec) < 4 {
			continue
		}
		scanNumber, err := strconv.ParseInt(rec[0], 10, 64)
		if err != nil {
			return errs.Wrapf(err, errs.FileOpen, "parsing scan_number %q", rec[0])
		}
		rt, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return errs.Wrapf(err, errs.FileOpen, "parsing retention_time %q", rec[1])
		}
		mz, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			return errs.Wrapf(err, errs.FileOpen, "parsing mz %q", rec[2])
		}
		intensity, err := strconv.ParseFloat(rec[3], 64)
		if err != nil {
			return errs.Wrapf(err, errs.FileOpen, "parsing intensity %q", rec[3])
		}
		centroided := len(rec) >= 5 && rec[4] == "1"

		if _, ok := rtByScan[scanNumber]; !ok {
			rtByScan[scanNumber] = rt
		}
		pt := numeric.Point{X: mz, Y: intensity}
		if centroided {
			r.centByScan[scanNumber] = append(r.centByScan[scanNumber], pt)
		} else {
			r.rawByScan[scanNumber] = append(r.rawByScan[scanNumber], pt)
		}
	}

	r.infos = r.infos[:0]
	for scanNumber, rt := range rtByScan {
		r.infos = append(r.infos, ScanInfo{ScanNumber: scanNumber, RetentionTime: rt})
	}
	sort.Slice(r.infos, func(i, j int) bool { return r.infos[i].RetentionTime < r.infos[j].RetentionTime })
	for _, pts := range r.rawByScan {
		sort.Slice(pts, func(i, j int) bool { return pts[i].X < pts[j].X })
	}
	for _, pts := range r.centByScan {
		sort.Slice(pts, func(i, j int) bool { return pts[i].X < pts[j].X })
	}
	return nil
}

func (r *CSVScanReader) ScanInfoListAtLevel(level int) ([]ScanInfo, error) {
	if level != 1 {
		return nil, errs.Newf(errs.FunctionNotImplemented, "scan info only implemented for level 1, got %d", level)
	}
	return append([]ScanInfo(nil), r.infos...), nil
}

func (r *CSVScanReader) GetScanData(scanNumber int64, centroided bool) ([]numeric.Point, error) {
	m := r.rawByScan
	if centroided {
		m = r.centByScan
	}
	pts, ok := m[scanNumber]
	if !ok {
		return nil, errs.Newf(errs.SQLiteMissingContent, "no scan %d in CSV reader", scanNumber)
	}
	return pts, nil
}

func (r *CSVScanReader) GetXICData(window XICWindow, msLevel int) ([]numeric.Point, error) {
	if msLevel != 1 {
		return nil, errs.Newf(errs.FunctionNotImplemented, "xic only implemented for ms level 1, got %d", msLevel)
	}
	var out []numeric.Point
	for _, info := range r.infos {
		if info.RetentionTime < window.TimeStart || info.RetentionTime > window.TimeEnd {
			continue
		}
		var sum float64
		for _, p := range r.centByScan[info.ScanNumber] {
			if p.X >= window.MzStart && p.X <= window.MzEnd {
				sum += p.Y
			}
		}
		out = append(out, numeric.Point{X: info.RetentionTime, Y: sum})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].X < out[j].X })
	return out, nil
}

var _ ScanReader = (*CSVScanReader)(nil)
