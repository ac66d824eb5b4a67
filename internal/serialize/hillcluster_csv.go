// Package serialize writes feature-finding results to the output formats
// downstream tools consume: fixed-column CSVs for visualization and a
// SQLite database for programmatic access.
package serialize

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/phanidev19/msnontile/internal/feature"
	"github.com/phanidev19/msnontile/internal/msdoc"
)

// hillClusterHeader is the fixed 20-column layout spec §4.L/§6 mandates.
// hillId identifies the row within its feature; the spec's column list
// names the other 19 explicitly.
var hillClusterHeader = []string{
	"hillId", "mzStart", "mzEnd", "timeStart", "timeEnd", "label", "intensity",
	"tileX", "tileY", "scanIndexStart", "scanIndexEnd", "points", "featureId",
	"group_id", "group_size", "stroke", "fill", "charge", "monoisotope",
	"cosine_similarity",
}

// fillPalette is a fixed palette indexed by (group_id mod 17), offset by
// 2 per spec §4.L so index 0 and 1 stay reserved for the stroke colors.
var fillPalette = []string{
	"#000000", "#ffffff", // reserved
	"#e6194b", "#3cb44b", "#ffe119", "#4363d8", "#f58231", "#911eb4",
	"#46f0f0", "#f032e6", "#bcf60c", "#fabebe", "#008080", "#e6beff",
	"#9a6324", "#fffac8", "#800000", "#aaffc3", "#808000",
}

// HillClusterCSVWriter writes one row per hill across every feature's
// clusters, grouping rows by feature (group_id) with the parent hill of
// each cluster marked in magenta and every other hill in white.
type HillClusterCSVWriter struct {
	w *csv.Writer
	cv *msdoc.ScanConverter
}

// NewHillClusterCSVWriter wraps w, writing the header immediately. cv
// converts scan indices to retention-time minutes for timeStart/timeEnd.
func NewHillClusterCSVWriter(w io.Writer, cv *msdoc.ScanConverter) (*HillClusterCSVWriter, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(hillClusterHeader); err != nil {
		return nil, err
	}
	return &HillClusterCSVWriter{w: cw, cv: cv}, nil
}

// WriteFeature emits every hill belonging to f's clusters.
func (hw *HillClusterCSVWriter) WriteFeature(groupID int, f feature.Feature) error {
	groupSize := 0
	for _, cl := range f.Clusters {
		groupSize++
		groupSize += len(cl.Neighbors)
	}
	fill := fillPalette[((groupID%17)+17)%17+2]

	for _, cl := range f.Clusters {
		if err := hw.writeHill(cl.Parent, f.ID, groupID, groupSize, "#ff00ff", fill, cl.Charge, cl.Monoisotope, 1.0); err != nil {
			return err
		}
		for i, nh := range cl.Neighbors {
			if err := hw.writeHill(nh, f.ID, groupID, groupSize, "#ffffff", fill, cl.Charge, cl.Monoisotope, cl.NeighborSimilarity[i]); err != nil {
				return err
			}
		}
	}
	return nil
}

func (hw *HillClusterCSVWriter) writeHill(h *feature.Hill, featureID, groupID, groupSize int, stroke, fill string, charge int, monoisotope, cosineSim float64) error {
	intensity := 0.0
	for _, p := range h.Points {
		if p.Intensity > intensity {
			intensity = p.Intensity
		}
	}
	var tileX, tileY int
	if len(h.Points) > 0 {
		tileX, tileY = h.Points[0].Pos.X, h.Points[0].Pos.Y
	}
	row := []string{
		strconv.Itoa(h.ID),
		strconv.FormatFloat(h.MzRect.Start, 'g', -1, 64),
		strconv.FormatFloat(h.MzRect.End, 'g', -1, 64),
		strconv.FormatFloat(hw.cv.TimeAt(h.ScanStart), 'g', -1, 64),
		strconv.FormatFloat(hw.cv.TimeAt(h.ScanEnd), 'g', -1, 64),
		"hill",
		strconv.FormatFloat(intensity, 'g', -1, 64),
		strconv.Itoa(tileX),
		strconv.Itoa(tileY),
		strconv.Itoa(h.ScanStart),
		strconv.Itoa(h.ScanEnd),
		strconv.Itoa(len(h.Points)),
		strconv.Itoa(featureID),
		strconv.Itoa(groupID),
		strconv.Itoa(groupSize),
		stroke,
		fill,
		strconv.Itoa(charge),
		strconv.FormatFloat(monoisotope, 'g', -1, 64),
		strconv.FormatFloat(cosineSim, 'g', -1, 64),
	}
	return hw.w.Write(row)
}

// Flush flushes the underlying csv.Writer and returns any write error.
func (hw *HillClusterCSVWriter) Flush() error {
	hw.w.Flush()
	return hw.w.Error()
}

// InsilicoPeptideCSVWriter emits one row per feature: the format consumed
// by the in-silico digest comparison tooling.
type InsilicoPeptideCSVWriter struct {
	w *csv.Writer
}

var insilicoPeptideHeader = []string{"featureId", "unchargedMass", "apexTime", "intensity", "chargeCount"}

// NewInsilicoPeptideCSVWriter wraps w, writing the header immediately.
func NewInsilicoPeptideCSVWriter(w io.Writer) (*InsilicoPeptideCSVWriter, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(insilicoPeptideHeader); err != nil {
		return nil, err
	}
	return &InsilicoPeptideCSVWriter{w: cw}, nil
}

// WriteFeature emits f's summary row.
func (iw *InsilicoPeptideCSVWriter) WriteFeature(f feature.Feature) error {
	row := []string{
		strconv.Itoa(f.ID),
		strconv.FormatFloat(f.UnchargedMass, 'g', -1, 64),
		strconv.FormatFloat(f.ApexTime, 'g', -1, 64),
		strconv.FormatFloat(f.Intensity, 'g', -1, 64),
		strconv.Itoa(len(f.Clusters)),
	}
	return iw.w.Write(row)
}

// Flush flushes the underlying csv.Writer and returns any write error.
func (iw *InsilicoPeptideCSVWriter) Flush() error {
	iw.w.Flush()
	return iw.w.Error()
}
