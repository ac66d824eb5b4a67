package serialize

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/phanidev19/msnontile/internal/feature"
	"github.com/phanidev19/msnontile/internal/msdoc"
	"github.com/phanidev19/msnontile/internal/tilecoord"
)

func buildTestConverter() *msdoc.ScanConverter {
	entries := make([]msdoc.ScanInfo, 5)
	for i := range entries {
		entries[i] = msdoc.ScanInfo{ScanNumber: int64(i + 1), RetentionTime: float64(i) * 0.5}
	}
	return msdoc.NewScanConverter(entries)
}

func oneHillFeature() feature.Feature {
	parent := &feature.Hill{
		ID:        1,
		MzRect:    tilecoord.MzInterval{Start: 499, End: 501},
		ScanStart: 1,
		ScanEnd:   2,
		Points: []feature.HillPoint{
			{Pos: tilecoord.Pos{X: 0, Y: 0}, ScanIndex: 1, Mz: 500, Intensity: 100},
		},
	}
	return feature.Feature{
		ID:            7,
		UnchargedMass: 998.98,
		ApexTime:      0.5,
		Intensity:     100,
		Clusters: []feature.Cluster{
			{Charge: 1, Monoisotope: 500, Parent: parent},
		},
	}
}

func TestHillClusterCSVWriterHas20Columns(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewHillClusterCSVWriter(&buf, buildTestConverter())
	if err != nil {
		t.Fatal(err)
	}
	if err := w.WriteFeature(0, oneHillFeature()); err != nil {
		t.Fatal(err)
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}

	r := csv.NewReader(strings.NewReader(buf.String()))
	rows, err := r.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2 (header + 1 hill)", len(rows))
	}
	if len(rows[0]) != 20 {
		t.Fatalf("header has %d columns, want 20: %v", len(rows[0]), rows[0])
	}
	if len(rows[1]) != 20 {
		t.Fatalf("data row has %d columns, want 20: %v", len(rows[1]), rows[1])
	}
	if rows[1][15] != "#ff00ff" {
		t.Errorf("parent stroke = %q, want magenta", rows[1][15])
	}
}

func TestInsilicoPeptideCSVWriterOneRowPerFeature(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewInsilicoPeptideCSVWriter(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.WriteFeature(oneHillFeature()); err != nil {
		t.Fatal(err)
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}

	r := csv.NewReader(strings.NewReader(buf.String()))
	rows, err := r.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2 (header + 1 feature)", len(rows))
	}
}
